// Package executil implements helpers to run external programs.
package executil

import (
	"context"
	"errors"
	"io"
	"strings"
	"syscall"

	"github.com/kballard/go-shellquote"
	"k8s.io/utils/exec"
)

// ExitCodeNotFound is the exit status reported when the executable
// cannot be found, matching the shell convention.
const ExitCodeNotFound = 127

// ExitCodeSignalBase is added to the signal number of a child killed by a signal.
const ExitCodeSignalBase = 128

// Command is a fully derived external invocation.
type Command struct {
	// Path is the executable name or path.
	Path string
	// Args are the arguments passed after the executable.
	Args []string
	// Env is the complete child environment.
	// Nil inherits the current process environment.
	Env []string
}

// String returns the shell-quoted command line.
func (c Command) String() string {
	return shellquote.Join(append([]string{c.Path}, c.Args...)...)
}

// Run starts the command and blocks until it exits.
// The child writes directly to stdout and stderr.
func (c Command) Run(ctx context.Context, ex exec.Interface, stdout, stderr io.Writer) error {
	cmd := ex.CommandContext(ctx, c.Path, c.Args...)
	if c.Env != nil {
		cmd.SetEnv(c.Env)
	}
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)
	return cmd.Run()
}

// ExitStatus returns the exit status carried by an error returned from "Command.Run".
// A child killed by a signal reports 128 plus the signal number, as a shell does.
// It returns false if the error does not describe a finished (or unstartable) process.
func ExitStatus(err error) (int, bool) {
	if err == nil {
		return 0, true
	}
	if errors.Is(err, exec.ErrExecutableNotFound) {
		return ExitCodeNotFound, true
	}
	var ee exec.ExitError
	if errors.As(err, &ee) {
		if sys, ok := ee.(interface{ Sys() interface{} }); ok {
			if ws, ok := sys.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				return ExitCodeSignalBase + int(ws.Signal()), true
			}
		}
		return ee.ExitStatus(), true
	}
	return 0, false
}

// LookupEnv returns the value of key in environ.
// The last assignment wins, as it does for the process environment.
func LookupEnv(environ []string, key string) (string, bool) {
	pfx := key + "="
	for i := len(environ) - 1; i >= 0; i-- {
		if strings.HasPrefix(environ[i], pfx) {
			return environ[i][len(pfx):], true
		}
	}
	return "", false
}

// SetEnv returns a copy of environ with key set to value.
// Earlier assignments of key are dropped.
func SetEnv(environ []string, key, value string) []string {
	pfx := key + "="
	env := make([]string, 0, len(environ)+1)
	for _, kv := range environ {
		if strings.HasPrefix(kv, pfx) {
			continue
		}
		env = append(env, kv)
	}
	return append(env, pfx+value)
}
