// Package uploadconfig defines the dataset upload configuration.
package uploadconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ann-cluster/ann-tools/pkg/envutil"
	"github.com/ann-cluster/ann-tools/pkg/logutil"
	pkg_errors "github.com/pkg/errors"
	"sigs.k8s.io/yaml" // must use "sigs.k8s.io/yaml"
)

// EnvironmentVariablePrefix is the environment variable prefix used for "uploadconfig".
const EnvironmentVariablePrefix = "ANN_UPLOAD_"

// Config defines the upload configuration.
type Config struct {
	// ConfigPath is the configuration file path.
	ConfigPath string `json:"config-path,omitempty"`

	// LogLevel configures log level. Only supports debug, info, warn, error, panic, or fatal. Default 'info'.
	LogLevel string `json:"log-level"`
	// LogOutputs is a list of log outputs. Valid values are 'default', 'stderr', 'stdout', or file names.
	// Files with the ".log" extension are rotated.
	LogOutputs []string `json:"log-outputs,omitempty"`

	// Tool is the recursive copy command line tool.
	Tool string `json:"tool"`
	// ToolArgs precede the source and destination arguments.
	ToolArgs []string `json:"tool-args"`

	// VirtualClusterEnv names the virtual cluster selector read by the copy tool.
	VirtualClusterEnv string `json:"virtual-cluster-env"`
	// VirtualCluster is exported as "VirtualClusterEnv" when non-empty.
	// Otherwise the selector is inherited from the caller's environment.
	VirtualCluster string `json:"virtual-cluster,omitempty"`

	// LocalDir is the local directory tree to copy.
	LocalDir string `json:"local-dir"`

	// DataCenter selects the active destination by name.
	DataCenter string `json:"data-center"`
	// Destinations lists every known remote storage location.
	Destinations []Destination `json:"destinations"`

	// JournalPath is the sqlite journal file. Empty disables the journal.
	JournalPath string `json:"journal-path,omitempty"`
}

// Destination is a named remote storage location.
type Destination struct {
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// NewDefault returns a copy of the default configuration.
func NewDefault() *Config {
	vv := defaultConfig
	vv.LogOutputs = append([]string(nil), defaultConfig.LogOutputs...)
	vv.ToolArgs = append([]string(nil), defaultConfig.ToolArgs...)
	vv.Destinations = append([]Destination(nil), defaultConfig.Destinations...)
	return &vv
}

var defaultConfig = Config{
	LogLevel: logutil.DefaultLogLevel,
	// default, stderr, stdout, or file name
	LogOutputs: []string{"stderr"},

	Tool:     "philly-fs",
	ToolArgs: []string{"-cp", "-r"},

	VirtualClusterEnv: "PHILLY_VC",

	LocalDir: "data/cifar10",

	DataCenter: "rr1",
	Destinations: []Destination{
		{Name: "rr1", URI: "//philly/rr1/msrlabs/data/cifar10"},
		{Name: "rr2", URI: "//philly/rr2/msrlabs/data/cifar10"},
		{Name: "gcr", URI: "//philly/gcr/msrlabs/data/cifar10"},
	},
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

// LoadFromEnv returns the defaults overlaid by the file named by
// "ANN_UPLOAD_CONFIG_PATH" and by environment overrides, validated.
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
// "ANN_UPLOAD_DESTINATIONS" is a JSON list of {"name","uri"} objects.
func (cfg *Config) UpdateFromEnvs() error {
	cc := *cfg
	if err := envutil.Apply(EnvironmentVariablePrefix, &cc); err != nil {
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
	if cfg.Tool == "" {
		return errors.New("empty Tool")
	}
	if cfg.VirtualClusterEnv == "" {
		cfg.VirtualClusterEnv = defaultConfig.VirtualClusterEnv
	}
	if strings.ContainsAny(cfg.VirtualClusterEnv, "= ") {
		return fmt.Errorf("invalid VirtualClusterEnv %q", cfg.VirtualClusterEnv)
	}
	if cfg.LocalDir == "" {
		return errors.New("empty LocalDir")
	}
	if len(cfg.Destinations) == 0 {
		return errors.New("no Destinations")
	}
	seen := make(map[string]struct{}, len(cfg.Destinations))
	for i, d := range cfg.Destinations {
		if d.Name == "" {
			return fmt.Errorf("Destinations[%d] has empty name", i)
		}
		if d.URI == "" {
			return fmt.Errorf("destination %q has empty URI", d.Name)
		}
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("duplicate destination %q", d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	if _, err := cfg.Active(); err != nil {
		return err
	}
	return nil
}

// Active returns the destination selected by "DataCenter".
func (cfg *Config) Active() (Destination, error) {
	if cfg.DataCenter == "" {
		return Destination{}, errors.New("empty DataCenter")
	}
	return cfg.Destination(cfg.DataCenter)
}

// Destination returns the destination with the given name.
func (cfg *Config) Destination(name string) (Destination, error) {
	for _, d := range cfg.Destinations {
		if d.Name == name {
			return d, nil
		}
	}
	return Destination{}, fmt.Errorf("unknown destination %q (known %q)", name, cfg.DestinationNames())
}

// DestinationNames returns destination names in configuration order.
func (cfg *Config) DestinationNames() []string {
	names := make([]string, 0, len(cfg.Destinations))
	for _, d := range cfg.Destinations {
		names = append(names, d.Name)
	}
	return names
}
