// Package launchconfig defines the training launcher configuration.
package launchconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/ann-cluster/ann-tools/pkg/envutil"
	"github.com/ann-cluster/ann-tools/pkg/logutil"
	"github.com/kballard/go-shellquote"
	pkg_errors "github.com/pkg/errors"
	"sigs.k8s.io/yaml" // must use "sigs.k8s.io/yaml"
)

const (
	// EnvironmentVariablePrefix is the environment variable prefix used for "launchconfig".
	EnvironmentVariablePrefix = "ANN_LAUNCH_"
	// EnvironmentVariablePrefixTrain is the environment variable prefix used for "Train" fields.
	EnvironmentVariablePrefixTrain = "ANN_LAUNCH_TRAIN_"
)

// Config defines the launcher configuration.
type Config struct {
	// ConfigPath is the configuration file path.
	// If set through "ANN_LAUNCH_CONFIG_PATH", the file is loaded before environment overrides.
	ConfigPath string `json:"config-path,omitempty"`

	// LogLevel configures log level. Only supports debug, info, warn, error, panic, or fatal. Default 'info'.
	LogLevel string `json:"log-level"`
	// LogOutputs is a list of log outputs. Valid values are 'default', 'stderr', 'stdout', or file names.
	// Files with the ".log" extension are rotated.
	LogOutputs []string `json:"log-outputs,omitempty"`

	// Python is the interpreter that runs the training entry point.
	Python string `json:"python"`
	// EntryPoint is the training script path passed as the first interpreter argument.
	EntryPoint string `json:"entry-point"`
	// SearchPathEnv is the module search path variable extended with the config-file-dir.
	SearchPathEnv string `json:"search-path-env"`

	// FixLogDirShift is true to make "--log-dir" consume its value token.
	// By default the value is bound and then scanned again as the next key.
	FixLogDirShift bool `json:"fix-log-dir-shift"`

	// ExtraArgs is a shell-quoted string appended after the hyperparameter flags.
	ExtraArgs string `json:"extra-args,omitempty"`

	// JournalPath is the sqlite journal file. Empty disables the journal.
	JournalPath string `json:"journal-path,omitempty"`

	// Train is the fixed hyperparameter set passed to the training program.
	Train *Train `json:"train"`
}

// Train defines the training program flags.
// Fields are rendered in declaration order by "Flags".
// Fields tagged "omitempty" are skipped when zero.
type Train struct {
	NumClasses  int `json:"num-classes" flag:"--num_classes"`
	FuncType    int `json:"func-type" flag:"-f"`
	OptAt       int `json:"opt-at" flag:"--opt_at"`
	NumUnits    int `json:"num-units" flag:"-n"`
	InitChannel int `json:"init-channel" flag:"-c"`

	ModelDir  string `json:"model-dir,omitempty" flag:"--model_dir"`
	BatchSize int    `json:"batch-size,omitempty" flag:"--batch_size"`
	NrGPU     int    `json:"nr-gpu,omitempty" flag:"--nr_gpu"`
	Load      string `json:"load,omitempty" flag:"--load"`
}

// Flags returns the training program flags.
func (t *Train) Flags() (flags []string, err error) {
	tp, vv := reflect.TypeOf(t).Elem(), reflect.ValueOf(t).Elem()
	for i := 0; i < tp.NumField(); i++ {
		k := tp.Field(i).Tag.Get("flag")
		if k == "" {
			continue
		}
		omitEmpty := strings.HasSuffix(tp.Field(i).Tag.Get("json"), ",omitempty")
		if omitEmpty && vv.Field(i).IsZero() {
			continue
		}
		switch vv.Field(i).Kind() {
		case reflect.String:
			flags = append(flags, fmt.Sprintf("%s=%s", k, vv.Field(i).String()))

		case reflect.Int, reflect.Int32, reflect.Int64:
			flags = append(flags, fmt.Sprintf("%s=%d", k, vv.Field(i).Int()))

		default:
			return nil, fmt.Errorf("unknown %q", k)
		}
	}
	return flags, nil
}

// NewDefault returns a copy of the default configuration.
func NewDefault() *Config {
	vv := defaultConfig
	vv.LogOutputs = append([]string(nil), defaultConfig.LogOutputs...)
	train := defaultTrain
	vv.Train = &train
	return &vv
}

var defaultConfig = Config{
	LogLevel: logutil.DefaultLogLevel,
	// default, stderr, stdout, or file name
	LogOutputs: []string{"stderr"},

	Python:        "python",
	EntryPoint:    "examples/AnytimeNetwork/cifar-ann.py",
	SearchPathEnv: "PYTHONPATH",
}

var defaultTrain = Train{
	NumClasses:  10,
	FuncType:    2,
	OptAt:       26,
	NumUnits:    9,
	InitChannel: 128,
}

// Load loads configuration from YAML.
// Fields absent from the file keep their default values.
func Load(p string) (cfg *Config, err error) {
	var d []byte
	d, err = os.ReadFile(p)
	if err != nil {
		return nil, pkg_errors.Wrapf(err, "failed to read %q", p)
	}
	cfg = NewDefault()
	if err = yaml.Unmarshal(d, cfg); err != nil {
		return nil, pkg_errors.Wrapf(err, "failed to parse %q", p)
	}
	cfg.ConfigPath, err = filepath.Abs(p)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv builds the configuration the launcher runs with:
// defaults, then the file named by "ANN_LAUNCH_CONFIG_PATH" if any,
// then environment overrides, then validation.
func LoadFromEnv() (cfg *Config, err error) {
	cfg = NewDefault()
	if p := os.Getenv(envutil.Name(EnvironmentVariablePrefix, "config-path")); p != "" {
		cfg, err = Load(p)
		if err != nil {
			return nil, err
		}
	}
	if err = cfg.UpdateFromEnvs(); err != nil {
		return nil, err
	}
	if err = cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sync persists current configuration to disk.
func (cfg *Config) Sync() (err error) {
	if cfg.ConfigPath == "" {
		return errors.New("empty ConfigPath")
	}
	if !filepath.IsAbs(cfg.ConfigPath) {
		cfg.ConfigPath, err = filepath.Abs(cfg.ConfigPath)
		if err != nil {
			return err
		}
	}
	var d []byte
	d, err = yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.ConfigPath, d, 0600)
}

// UpdateFromEnvs updates fields from environmental variables.
func (cfg *Config) UpdateFromEnvs() error {
	cc := *cfg
	if err := envutil.Apply(EnvironmentVariablePrefix, &cc); err != nil {
		return err
	}
	if cc.Train == nil {
		train := defaultTrain
		cc.Train = &train
	} else {
		train := *cc.Train
		cc.Train = &train
	}
	if err := envutil.Apply(EnvironmentVariablePrefixTrain, cc.Train); err != nil {
		return err
	}
	*cfg = cc
	return nil
}

// ValidateAndSetDefaults returns an error for invalid configurations.
// And updates empty fields with default values.
func (cfg *Config) ValidateAndSetDefaults() error {
	if cfg.LogLevel == "" {
		cfg.LogLevel = logutil.DefaultLogLevel
	}
	if !logutil.IsValidLogLevel(cfg.LogLevel) {
		return fmt.Errorf("unknown LogLevel %q", cfg.LogLevel)
	}
	if len(cfg.LogOutputs) == 0 {
		cfg.LogOutputs = []string{"stderr"}
	}
	if cfg.Python == "" {
		cfg.Python = defaultConfig.Python
	}
	if cfg.EntryPoint == "" {
		return errors.New("empty EntryPoint")
	}
	if cfg.SearchPathEnv == "" {
		cfg.SearchPathEnv = defaultConfig.SearchPathEnv
	}
	if strings.ContainsAny(cfg.SearchPathEnv, "= ") {
		return fmt.Errorf("invalid SearchPathEnv %q", cfg.SearchPathEnv)
	}
	if _, err := cfg.ExtraArgList(); err != nil {
		return err
	}
	if cfg.Train == nil {
		train := defaultTrain
		cfg.Train = &train
	}
	if _, err := cfg.Train.Flags(); err != nil {
		return err
	}
	return nil
}

// ExtraArgList splits "ExtraArgs" with shell quoting rules.
func (cfg *Config) ExtraArgList() ([]string, error) {
	if strings.TrimSpace(cfg.ExtraArgs) == "" {
		return nil, nil
	}
	args, err := shellquote.Split(cfg.ExtraArgs)
	if err != nil {
		return nil, pkg_errors.Wrapf(err, "failed to split ExtraArgs %q", cfg.ExtraArgs)
	}
	return args, nil
}
