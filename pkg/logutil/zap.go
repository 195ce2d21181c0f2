package logutil

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// GetDefaultZapLoggerConfig returns a new default zap logger configuration.
func GetDefaultZapLoggerConfig() zap.Config {
	return zap.Config{
		Level: zap.NewAtomicLevelAt(ConvertToZapLevel(DefaultLogLevel)),

		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},

		Encoding: "json",

		// copied from "zap.NewProductionEncoderConfig" with some updates
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},

		// Use "/dev/null" to discard all
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// New builds a logger at the given level writing to the given outputs.
// Valid outputs are "stderr", "stdout", "/dev/null", or file paths.
// File paths with the ".log" extension are rotated (see "RotateURL").
// An empty output list logs to stderr. Internal zap errors always go to stderr.
func New(logLevel string, logOutputs []string) (*zap.Logger, error) {
	if err := registerRotateSink(); err != nil {
		return nil, err
	}
	outputs := make([]string, 0, len(logOutputs))
	for _, v := range logOutputs {
		outputs = append(outputs, RotateURL(v))
	}

	lcfg := GetDefaultZapLoggerConfig()
	if len(outputs) > 0 {
		lcfg.OutputPaths = nil
		lcfg = AddOutputPaths(lcfg, outputs, nil)
	}
	lcfg.Level = zap.NewAtomicLevelAt(ConvertToZapLevel(logLevel))
	return lcfg.Build()
}

// AddOutputPaths adds output paths to the existing output paths, resolving conflicts.
func AddOutputPaths(cfg zap.Config, outputPaths, errorOutputPaths []string) zap.Config {
	cfg.OutputPaths = mergeOutputs(cfg.OutputPaths, outputPaths)
	cfg.ErrorOutputPaths = mergeOutputs(cfg.ErrorOutputPaths, errorOutputPaths)
	return cfg
}

func mergeOutputs(existing, added []string) []string {
	outputs := make(map[string]struct{})
	for _, v := range existing {
		outputs[v] = struct{}{}
	}
	for _, v := range added {
		if v == "default" {
			v = "stderr"
		}
		outputs[v] = struct{}{}
	}
	if _, ok := outputs["/dev/null"]; ok {
		// "/dev/null" to discard all
		return []string{"/dev/null"}
	}
	merged := make([]string, 0, len(outputs))
	for k := range outputs {
		merged = append(merged, k)
	}
	sort.Strings(merged)
	return merged
}
