package upload

import (
	"github.com/ann-cluster/ann-tools/pkg/executil"
	"github.com/ann-cluster/ann-tools/uploadconfig"
)

// BuildCommand derives the copy tool invocation for one destination.
// The environment is left to the caller's unless a virtual cluster is configured.
func BuildCommand(cfg *uploadconfig.Config, dst uploadconfig.Destination, environ []string) executil.Command {
	args := make([]string, 0, len(cfg.ToolArgs)+2)
	args = append(args, cfg.ToolArgs...)
	args = append(args, cfg.LocalDir, dst.URI)

	cmd := executil.Command{Path: cfg.Tool, Args: args}
	if cfg.VirtualCluster != "" {
		cmd.Env = executil.SetEnv(environ, cfg.VirtualClusterEnv, cfg.VirtualCluster)
	}
	return cmd
}
