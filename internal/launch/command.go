package launch

import (
	"os"

	"github.com/ann-cluster/ann-tools/launchconfig"
	"github.com/ann-cluster/ann-tools/pkg/executil"
)

// BuildCommand derives the training program invocation.
// It does not check that any path exists.
func BuildCommand(cfg *launchconfig.Config, args Args, environ []string) (executil.Command, error) {
	flags, err := cfg.Train.Flags()
	if err != nil {
		return executil.Command{}, err
	}
	extra, err := cfg.ExtraArgList()
	if err != nil {
		return executil.Command{}, err
	}

	argv := make([]string, 0, 3+len(flags)+len(extra))
	argv = append(argv,
		cfg.EntryPoint,
		"--data_dir="+args.DataDir,
		"--log_dir="+args.LogDir,
	)
	argv = append(argv, flags...)
	argv = append(argv, extra...)

	return executil.Command{
		Path: cfg.Python,
		Args: argv,
		Env:  OverlaySearchPath(environ, cfg.SearchPathEnv, args.ConfigDir),
	}, nil
}

// OverlaySearchPath returns a copy of environ with dir appended to the
// search path variable key. An unset or empty variable becomes dir.
func OverlaySearchPath(environ []string, key, dir string) []string {
	v, _ := executil.LookupEnv(environ, key)
	if v == "" {
		v = dir
	} else {
		v += string(os.PathListSeparator) + dir
	}
	return executil.SetEnv(environ, key, v)
}
