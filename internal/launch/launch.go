// Package launch remaps the cluster-provided flags onto the training
// program's flags and runs it.
package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ann-cluster/ann-tools/internal/journal"
	"github.com/ann-cluster/ann-tools/launchconfig"
	"github.com/ann-cluster/ann-tools/pkg/executil"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"k8s.io/utils/exec"
)

// ExitCodeHelp is returned when usage is requested.
const ExitCodeHelp = 1

// Config configures a Launcher.
type Config struct {
	Logger *zap.Logger
	Launch *launchconfig.Config

	// Exec spawns the training program. Defaults to "exec.New()".
	Exec exec.Interface
	// Stdout receives the audit lines and the child's stdout. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives the child's stderr. Defaults to os.Stderr.
	Stderr io.Writer
	// Environ is the base child environment. Defaults to os.Environ().
	Environ []string

	// Journal is optional.
	Journal *journal.Journal
}

// Launcher runs the training program once per "Run".
type Launcher struct {
	cfg Config
}

// New returns a Launcher, filling unset Config fields with defaults.
func New(cfg Config) *Launcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Launch == nil {
		cfg.Launch = launchconfig.NewDefault()
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
	return &Launcher{cfg: cfg}
}

// Run parses tokens, prints the bound values, and runs the training program,
// blocking until it exits. The returned exit code is ExitCodeHelp for a help
// request and the child's exit status otherwise. A non-nil error means the
// program could not be run at all.
func (l *Launcher) Run(ctx context.Context, tokens []string) (int, error) {
	lg, out := l.cfg.Logger, l.cfg.Stdout

	res := Parse(tokens, l.cfg.Launch.FixLogDirShift)
	for _, tok := range res.Unknown {
		fmt.Fprintf(out, "unknown option %s\n", tok)
	}
	if res.Help {
		fmt.Fprint(out, Usage)
		return ExitCodeHelp, nil
	}

	fmt.Fprintf(out, "DATA_DIR=%s\n", res.Args.DataDir)
	fmt.Fprintf(out, "LOG_DIR=%s\n", res.Args.LogDir)
	fmt.Fprintf(out, "CONFIG_DIR=%s\n", res.Args.ConfigDir)

	cmd, err := BuildCommand(l.cfg.Launch, res.Args, l.cfg.Environ)
	if err != nil {
		return 1, errors.Wrap(err, "failed to build training command")
	}

	id := journal.NewID()
	lg = lg.With(zap.String("id", id))

	started := time.Now()
	code, err := l.run(ctx, lg, cmd)
	if err != nil {
		return 1, err
	}
	lg.Info("training program exited",
		zap.Int("exit-code", code),
		zap.Duration("took", time.Since(started)),
	)

	if l.cfg.Journal != nil {
		// recorded even when a signal cancelled ctx
		if jerr := l.cfg.Journal.Record(context.WithoutCancel(ctx), journal.Entry{
			ID:         id,
			Kind:       journal.KindLaunch,
			Target:     res.Args.DataDir,
			Command:    cmd.String(),
			ExitCode:   code,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}); jerr != nil {
			lg.Warn("failed to record launch", zap.Error(jerr))
		}
	}
	return code, nil
}

func (l *Launcher) run(ctx context.Context, lg *zap.Logger, cmd executil.Command) (int, error) {
	p, err := l.cfg.Exec.LookPath(cmd.Path)
	if err != nil {
		lg.Warn("training program not found", zap.String("path", cmd.Path), zap.Error(err))
		fmt.Fprintf(l.cfg.Stderr, "%s: command not found\n", cmd.Path)
		return executil.ExitCodeNotFound, nil
	}
	search, _ := executil.LookupEnv(cmd.Env, l.cfg.Launch.SearchPathEnv)
	lg.Info("launching training program",
		zap.String("cmd-path", p),
		zap.String("command", cmd.String()),
		zap.String(l.cfg.Launch.SearchPathEnv, search),
	)

	err = cmd.Run(ctx, l.cfg.Exec, l.cfg.Stdout, l.cfg.Stderr)
	code, ok := executil.ExitStatus(err)
	if !ok {
		return 1, errors.Wrapf(err, "failed to run %q", cmd.Path)
	}
	return code, nil
}
