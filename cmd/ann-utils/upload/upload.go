// Package upload implements "ann-utils upload" command.
package upload

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ann-cluster/ann-tools/internal/journal"
	pkg_upload "github.com/ann-cluster/ann-tools/internal/upload"
	"github.com/ann-cluster/ann-tools/pkg/logutil"
	"github.com/ann-cluster/ann-tools/uploadconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	destination string
	dryRun      bool
)

func init() {
	cobra.EnablePrefixMatching = true
}

// NewCommand implements "ann-utils upload" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Copies the local dataset tree to remote cluster storage",
		Args:  cobra.NoArgs,
		RunE:  uploadFunc,
	}
	cmd.Flags().StringVar(&configPath, "config", "", "upload configuration YAML path (default from ANN_UPLOAD_CONFIG_PATH or built-in)")
	cmd.Flags().StringVar(&destination, "destination", "", "destination name (default the configured data center)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the copy command without running it")
	return cmd
}

// LoadConfig loads the configuration from "path" if set, or from the environment.
// A non-empty "--log-level" overrides the configured level.
func LoadConfig(cmd *cobra.Command, path string) (cfg *uploadconfig.Config, err error) {
	if path != "" {
		cfg, err = uploadconfig.Load(path)
		if err != nil {
			return nil, err
		}
		if err = cfg.UpdateFromEnvs(); err != nil {
			return nil, err
		}
	} else {
		cfg, err = uploadconfig.LoadFromEnv()
		if err != nil {
			return nil, err
		}
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if err = cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func uploadFunc(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd, configPath)
	if err != nil {
		return err
	}
	lg, err := logutil.New(cfg.LogLevel, cfg.LogOutputs)
	if err != nil {
		return err
	}
	defer lg.Sync()

	var jr *journal.Journal
	if cfg.JournalPath != "" && !dryRun {
		jr, err = journal.Open(lg, cfg.JournalPath)
		if err != nil {
			return err
		}
		defer jr.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code, err := pkg_upload.New(pkg_upload.Config{
		Logger:  lg,
		Upload:  cfg,
		Journal: jr,
	}).Run(ctx, destination, dryRun)
	if err != nil {
		lg.Warn("upload failed", zap.Error(err))
		return err
	}
	if code != 0 {
		// deferred calls do not run past os.Exit
		if jr != nil {
			jr.Close()
		}
		lg.Sync()
		os.Exit(code)
	}
	return nil
}
