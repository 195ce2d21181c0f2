package launchconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestEnv(t *testing.T) {
	cfg := NewDefault()

	t.Setenv("ANN_LAUNCH_LOG_LEVEL", "debug")
	t.Setenv("ANN_LAUNCH_LOG_OUTPUTS", "stderr,/var/log/ann/launch.log")
	t.Setenv("ANN_LAUNCH_PYTHON", "/opt/conda/bin/python")
	t.Setenv("ANN_LAUNCH_ENTRY_POINT", "ann/imagenet-ann.py")
	t.Setenv("ANN_LAUNCH_SEARCH_PATH_ENV", "MY_PATH")
	t.Setenv("ANN_LAUNCH_FIX_LOG_DIR_SHIFT", "true")
	t.Setenv("ANN_LAUNCH_EXTRA_ARGS", "--is_toy")
	t.Setenv("ANN_LAUNCH_JOURNAL_PATH", "/tmp/ann.db")
	t.Setenv("ANN_LAUNCH_TRAIN_NUM_CLASSES", "1000")
	t.Setenv("ANN_LAUNCH_TRAIN_INIT_CHANNEL", "64")
	t.Setenv("ANN_LAUNCH_TRAIN_NR_GPU", "8")

	if err := cfg.UpdateFromEnvs(); err != nil {
		t.Fatal(err)
	}

	if cfg.LogLevel != "debug" {
		t.Fatalf("unexpected LogLevel %q", cfg.LogLevel)
	}
	if !reflect.DeepEqual(cfg.LogOutputs, []string{"stderr", "/var/log/ann/launch.log"}) {
		t.Fatalf("unexpected LogOutputs %q", cfg.LogOutputs)
	}
	if cfg.Python != "/opt/conda/bin/python" {
		t.Fatalf("unexpected Python %q", cfg.Python)
	}
	if cfg.EntryPoint != "ann/imagenet-ann.py" {
		t.Fatalf("unexpected EntryPoint %q", cfg.EntryPoint)
	}
	if cfg.SearchPathEnv != "MY_PATH" {
		t.Fatalf("unexpected SearchPathEnv %q", cfg.SearchPathEnv)
	}
	if !cfg.FixLogDirShift {
		t.Fatal("expected FixLogDirShift")
	}
	if cfg.ExtraArgs != "--is_toy" {
		t.Fatalf("unexpected ExtraArgs %q", cfg.ExtraArgs)
	}
	if cfg.JournalPath != "/tmp/ann.db" {
		t.Fatalf("unexpected JournalPath %q", cfg.JournalPath)
	}
	if cfg.Train.NumClasses != 1000 || cfg.Train.InitChannel != 64 || cfg.Train.NrGPU != 8 {
		t.Fatalf("unexpected Train %+v", cfg.Train)
	}
	if cfg.Train.OptAt != 26 {
		t.Fatalf("unexpected Train.OptAt %d", cfg.Train.OptAt)
	}
	// overrides must not leak into the package defaults
	if defaultTrain.NumClasses != 10 {
		t.Fatalf("defaultTrain modified %+v", defaultTrain)
	}
}

func TestEnvInvalid(t *testing.T) {
	t.Setenv("ANN_LAUNCH_TRAIN_OPT_AT", "twenty-six")
	if err := NewDefault().UpdateFromEnvs(); err == nil {
		t.Fatal("expected error for non-numeric ANN_LAUNCH_TRAIN_OPT_AT")
	}
}

func TestLoadFromEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "launch.yaml")
	if err := os.WriteFile(p, []byte("entry-point: from-file.py\npython: python3\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANN_LAUNCH_CONFIG_PATH", p)
	t.Setenv("ANN_LAUNCH_PYTHON", "python3.11")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.EntryPoint != "from-file.py" {
		t.Fatalf("unexpected EntryPoint %q", cfg.EntryPoint)
	}
	// environment wins over the file
	if cfg.Python != "python3.11" {
		t.Fatalf("unexpected Python %q", cfg.Python)
	}
}
