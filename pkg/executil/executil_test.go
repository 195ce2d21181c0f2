package executil

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"
)

func TestCommandString(t *testing.T) {
	c := Command{Path: "python", Args: []string{"train.py", "--data_dir=/mnt/my data", "-n=9"}}
	require.Equal(t, `python train.py '--data_dir=/mnt/my data' -n=9`, c.String())
}

func TestCommandRun(t *testing.T) {
	fcmd := &testingexec.FakeCmd{
		RunScript: []testingexec.FakeAction{
			func() ([]byte, []byte, error) { return []byte("epoch 1\n"), nil, nil },
		},
	}
	fexec := &testingexec.FakeExec{
		CommandScript: []testingexec.FakeCommandAction{
			func(cmd string, args ...string) exec.Cmd { return testingexec.InitFakeCmd(fcmd, cmd, args...) },
		},
	}

	var stdout, stderr bytes.Buffer
	c := Command{Path: "python", Args: []string{"train.py"}, Env: []string{"PYTHONPATH=/c"}}
	require.NoError(t, c.Run(context.Background(), fexec, &stdout, &stderr))

	require.Equal(t, 1, fexec.CommandCalls)
	require.Equal(t, []string{"python", "train.py"}, fcmd.Argv)
	require.Equal(t, []string{"PYTHONPATH=/c"}, fcmd.Env)
	require.Equal(t, "epoch 1\n", stdout.String())
}

func TestCommandRunInheritsEnv(t *testing.T) {
	fcmd := &testingexec.FakeCmd{
		RunScript: []testingexec.FakeAction{
			func() ([]byte, []byte, error) { return nil, nil, nil },
		},
	}
	fexec := &testingexec.FakeExec{
		CommandScript: []testingexec.FakeCommandAction{
			func(cmd string, args ...string) exec.Cmd { return testingexec.InitFakeCmd(fcmd, cmd, args...) },
		},
	}
	c := Command{Path: "philly-fs", Args: []string{"-cp", "-r", "src", "dst"}}
	require.NoError(t, c.Run(context.Background(), fexec, &bytes.Buffer{}, &bytes.Buffer{}))
	require.Nil(t, fcmd.Env)
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		ok   bool
	}{
		{name: "success", err: nil, code: 0, ok: true},
		{name: "exit error", err: testingexec.FakeExitError{Status: 3}, code: 3, ok: true},
		{name: "code exit error", err: exec.CodeExitError{Err: errors.New("killed"), Code: 137}, code: 137, ok: true},
		{name: "not found", err: exec.ErrExecutableNotFound, code: ExitCodeNotFound, ok: true},
		{name: "other", err: errors.New("pipe broken"), code: 0, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := ExitStatus(tt.err)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.code, code)
		})
	}
}

func TestEnv(t *testing.T) {
	environ := []string{"HOME=/root", "PYTHONPATH=/a", "PYTHONPATH=/b"}

	v, ok := LookupEnv(environ, "PYTHONPATH")
	require.True(t, ok)
	require.Equal(t, "/b", v)

	_, ok = LookupEnv(environ, "PHILLY_VC")
	require.False(t, ok)

	env := SetEnv(environ, "PYTHONPATH", "/b:/c")
	require.Equal(t, []string{"HOME=/root", "PYTHONPATH=/b:/c"}, env)
	require.Len(t, environ, 3)
}

func TestExitStatusSignaled(t *testing.T) {
	ex := exec.New()
	if _, err := ex.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}

	tests := []struct {
		name   string
		script string
		code   int
	}{
		{name: "exit", script: "exit 3", code: 3},
		{name: "SIGTERM", script: "kill -TERM $$", code: 143},
		{name: "SIGKILL", script: "kill -KILL $$", code: 137},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Command{Path: "sh", Args: []string{"-c", tt.script}}
			err := c.Run(context.Background(), ex, &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			code, ok := ExitStatus(err)
			require.True(t, ok)
			require.Equal(t, tt.code, code)
		})
	}
}
