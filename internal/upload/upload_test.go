package upload

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/ann-cluster/ann-tools/internal/journal"
	"github.com/ann-cluster/ann-tools/uploadconfig"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"
)

func newFake(action testingexec.FakeAction) (*testingexec.FakeExec, *testingexec.FakeCmd) {
	fcmd := &testingexec.FakeCmd{RunScript: []testingexec.FakeAction{action}}
	fexec := &testingexec.FakeExec{
		CommandScript: []testingexec.FakeCommandAction{
			func(cmd string, args ...string) exec.Cmd { return testingexec.InitFakeCmd(fcmd, cmd, args...) },
		},
		LookPathFunc: func(file string) (string, error) { return "/usr/local/bin/" + file, nil },
	}
	return fexec, fcmd
}

func TestRun(t *testing.T) {
	fexec, fcmd := newFake(func() ([]byte, []byte, error) { return []byte("copied 60000 files\n"), nil, nil })
	var stdout bytes.Buffer
	u := New(Config{
		Logger:  zap.NewExample(),
		Exec:    fexec,
		Stdout:  &stdout,
		Stderr:  &bytes.Buffer{},
		Environ: []string{"HOME=/home/philly"},
	})

	code, err := u.Run(context.Background(), "", false)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	require.Equal(t, 1, fexec.CommandCalls)
	require.Equal(t, 1, fcmd.RunCalls)
	require.Equal(t, []string{"philly-fs", "-cp", "-r", "data/cifar10", "//philly/rr1/msrlabs/data/cifar10"}, fcmd.Argv)
	// no virtual cluster configured: inherit the caller's environment
	require.Nil(t, fcmd.Env)

	require.Equal(t, "start copying data/cifar10 to //philly/rr1/msrlabs/data/cifar10\n"+
		"copied 60000 files\n"+
		"finished copying data/cifar10 to //philly/rr1/msrlabs/data/cifar10\n", stdout.String())
}

func TestRunFailureStillFinishes(t *testing.T) {
	fexec, fcmd := newFake(func() ([]byte, []byte, error) {
		return nil, []byte("permission denied\n"), testingexec.FakeExitError{Status: 4}
	})
	var stdout, stderr bytes.Buffer
	u := New(Config{Logger: zap.NewNop(), Exec: fexec, Stdout: &stdout, Stderr: &stderr})

	code, err := u.Run(context.Background(), "", false)
	require.NoError(t, err)
	require.Equal(t, 4, code)
	require.Equal(t, 1, fcmd.RunCalls)
	require.Equal(t, "permission denied\n", stderr.String())
	require.Contains(t, stdout.String(), "finished copying data/cifar10 to //philly/rr1/msrlabs/data/cifar10\n")
}

func TestRunDestination(t *testing.T) {
	fexec, fcmd := newFake(func() ([]byte, []byte, error) { return nil, nil, nil })
	ucfg := uploadconfig.NewDefault()
	ucfg.VirtualCluster = "msrlabs"
	u := New(Config{
		Logger:  zap.NewNop(),
		Upload:  ucfg,
		Exec:    fexec,
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
		Environ: []string{"HOME=/home/philly", "PHILLY_VC=other"},
	})

	_, err := u.Run(context.Background(), "gcr", false)
	require.NoError(t, err)
	require.Equal(t, "//philly/gcr/msrlabs/data/cifar10", fcmd.Argv[len(fcmd.Argv)-1])
	require.Equal(t, []string{"HOME=/home/philly", "PHILLY_VC=msrlabs"}, fcmd.Env)
}

func TestRunUnknownDestination(t *testing.T) {
	fexec := &testingexec.FakeExec{}
	u := New(Config{Logger: zap.NewNop(), Exec: fexec, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	code, err := u.Run(context.Background(), "wu3", false)
	require.Error(t, err)
	require.Equal(t, 1, code)
	require.Equal(t, 0, fexec.CommandCalls)
}

func TestRunDryRun(t *testing.T) {
	fexec := &testingexec.FakeExec{}
	var stdout bytes.Buffer
	u := New(Config{Logger: zap.NewNop(), Exec: fexec, Stdout: &stdout, Stderr: &bytes.Buffer{}})

	code, err := u.Run(context.Background(), "rr2", true)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, 0, fexec.CommandCalls)
	require.Equal(t, "philly-fs -cp -r data/cifar10 //philly/rr2/msrlabs/data/cifar10\n", stdout.String())
}

func TestRunNotFound(t *testing.T) {
	fexec := &testingexec.FakeExec{
		LookPathFunc: func(string) (string, error) { return "", exec.ErrExecutableNotFound },
	}
	var stderr bytes.Buffer
	u := New(Config{Logger: zap.NewNop(), Exec: fexec, Stdout: &bytes.Buffer{}, Stderr: &stderr})

	code, err := u.Run(context.Background(), "", false)
	require.NoError(t, err)
	require.Equal(t, 127, code)
	require.Equal(t, 0, fexec.CommandCalls)
	require.Equal(t, "philly-fs: command not found\n", stderr.String())
}

func TestRunJournal(t *testing.T) {
	jr, err := journal.Open(zap.NewNop(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer jr.Close()

	fexec, _ := newFake(func() ([]byte, []byte, error) { return nil, nil, nil })
	ucfg := uploadconfig.NewDefault()
	ucfg.LocalDir = t.TempDir()
	u := New(Config{Logger: zap.NewNop(), Upload: ucfg, Exec: fexec, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Journal: jr})

	code, err := u.Run(context.Background(), "rr2", false)
	require.NoError(t, err)
	require.Equal(t, 0, code)

	entries, err := jr.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, journal.KindUpload, entries[0].Kind)
	require.Equal(t, "rr2", entries[0].Target)
	require.Equal(t, 0, entries[0].ExitCode)
}

func TestRunJournalAfterCancel(t *testing.T) {
	jr, err := journal.Open(zap.NewNop(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer jr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fexec, _ := newFake(func() ([]byte, []byte, error) {
		cancel()
		return nil, nil, testingexec.FakeExitError{Status: 143}
	})
	u := New(Config{Logger: zap.NewNop(), Exec: fexec, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Journal: jr})

	code, err := u.Run(ctx, "", false)
	require.NoError(t, err)
	require.Equal(t, 143, code)

	entries, err := jr.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "rr1", entries[0].Target)
}
