package logutil

import (
	"net/url"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

const rotateScheme = "lumberjack"

// Rotation limits applied to every ".log" output.
var (
	RotateMaxSizeMB  = 128
	RotateMaxBackups = 5
	RotateMaxAgeDays = 16
)

var (
	registerOnce sync.Once
	registerErr  error
)

type rotateSink struct {
	*lumberjack.Logger
}

// Sync is a no-op; lumberjack writes through to the file.
func (rotateSink) Sync() error { return nil }

func registerRotateSink() error {
	registerOnce.Do(func() {
		registerErr = zap.RegisterSink(rotateScheme, func(u *url.URL) (zap.Sink, error) {
			return rotateSink{&lumberjack.Logger{
				Filename:   u.Path,
				MaxSize:    RotateMaxSizeMB,
				MaxBackups: RotateMaxBackups,
				MaxAge:     RotateMaxAgeDays,
			}}, nil
		})
	})
	return registerErr
}

// RotateURL maps a ".log" file path to the rotating zap sink URL.
// Any other output is returned unchanged.
func RotateURL(output string) string {
	if filepath.Ext(output) != ".log" {
		return output
	}
	p, err := filepath.Abs(output)
	if err != nil {
		p = output
	}
	u := url.URL{Scheme: rotateScheme, Path: filepath.ToSlash(p)}
	return u.String()
}
