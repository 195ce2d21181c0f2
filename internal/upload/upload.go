// Package upload copies the local dataset tree to remote cluster storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ann-cluster/ann-tools/internal/journal"
	"github.com/ann-cluster/ann-tools/pkg/executil"
	"github.com/ann-cluster/ann-tools/pkg/fileutil"
	"github.com/ann-cluster/ann-tools/uploadconfig"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"k8s.io/utils/exec"
)

// Config configures an Uploader.
type Config struct {
	Logger *zap.Logger
	Upload *uploadconfig.Config

	// Exec spawns the copy tool. Defaults to "exec.New()".
	Exec   exec.Interface
	Stdout io.Writer
	Stderr io.Writer
	// Environ is the base environment used when a virtual cluster is exported.
	// Defaults to os.Environ().
	Environ []string

	Journal *journal.Journal
}

// Uploader runs the copy tool.
type Uploader struct {
	cfg Config
}

// New returns an Uploader, filling unset Config fields with defaults.
func New(cfg Config) *Uploader {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Upload == nil {
		cfg.Upload = uploadconfig.NewDefault()
	}
	if cfg.Exec == nil {
		cfg.Exec = exec.New()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Environ == nil {
		cfg.Environ = os.Environ()
	}
	return &Uploader{cfg: cfg}
}

// Run copies the local tree to the named destination, or to the active one
// if destination is empty, and returns the copy tool's exit status.
// With dryRun the command line is printed and nothing runs.
func (u *Uploader) Run(ctx context.Context, destination string, dryRun bool) (int, error) {
	lg, out, ucfg := u.cfg.Logger, u.cfg.Stdout, u.cfg.Upload

	var (
		dst uploadconfig.Destination
		err error
	)
	if destination == "" {
		dst, err = ucfg.Active()
	} else {
		dst, err = ucfg.Destination(destination)
	}
	if err != nil {
		return 1, err
	}

	cmd := BuildCommand(ucfg, dst, u.cfg.Environ)
	if dryRun {
		fmt.Fprintln(out, cmd.String())
		return 0, nil
	}

	id := journal.NewID()
	lg = lg.With(zap.String("id", id), zap.String("destination", dst.Name))

	files, size, serr := fileutil.DirStat(ucfg.LocalDir)
	if serr != nil {
		lg.Warn("failed to stat local directory", zap.String("dir", ucfg.LocalDir), zap.Error(serr))
	} else {
		lg.Info("local directory",
			zap.String("dir", ucfg.LocalDir),
			zap.Int("files", files),
			zap.String("size", humanize.Bytes(uint64(size))),
		)
	}

	fmt.Fprintf(out, "start copying %s to %s\n", ucfg.LocalDir, dst.URI)
	started := time.Now()
	code, err := u.run(ctx, lg, cmd)
	fmt.Fprintf(out, "finished copying %s to %s\n", ucfg.LocalDir, dst.URI)
	if err != nil {
		return 1, err
	}
	lg.Info("copy tool exited", zap.Int("exit-code", code), zap.Duration("took", time.Since(started)))

	if u.cfg.Journal != nil {
		// recorded even when a signal cancelled ctx
		if jerr := u.cfg.Journal.Record(context.WithoutCancel(ctx), journal.Entry{
			ID:         id,
			Kind:       journal.KindUpload,
			Target:     dst.Name,
			Command:    cmd.String(),
			ExitCode:   code,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}); jerr != nil {
			lg.Warn("failed to record upload", zap.Error(jerr))
		}
	}
	return code, nil
}

func (u *Uploader) run(ctx context.Context, lg *zap.Logger, cmd executil.Command) (int, error) {
	if _, err := u.cfg.Exec.LookPath(cmd.Path); err != nil {
		lg.Warn("copy tool not found", zap.String("path", cmd.Path), zap.Error(err))
		fmt.Fprintf(u.cfg.Stderr, "%s: command not found\n", cmd.Path)
		return executil.ExitCodeNotFound, nil
	}
	lg.Info("running copy tool", zap.String("command", cmd.String()))

	err := cmd.Run(ctx, u.cfg.Exec, u.cfg.Stdout, u.cfg.Stderr)
	code, ok := executil.ExitStatus(err)
	if !ok {
		return 1, errors.Wrapf(err, "failed to run %q", cmd.Path)
	}
	return code, nil
}
