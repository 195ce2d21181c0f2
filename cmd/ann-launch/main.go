// ann-launch remaps the cluster-provided directory flags onto the training
// program's flags and runs it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ann-cluster/ann-tools/internal/journal"
	"github.com/ann-cluster/ann-tools/internal/launch"
	"github.com/ann-cluster/ann-tools/launchconfig"
	"github.com/ann-cluster/ann-tools/pkg/logutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "ann-launch",
	Short: "Anytime neural network training launcher",
	// every token goes to the launcher's own walk, "-h" included
	DisableFlagParsing: true,
	Args:               cobra.ArbitraryArgs,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE:               launchFunc,
}

func init() {
	cobra.EnablePrefixMatching = true
}

var exitCode int

func launchFunc(cmd *cobra.Command, args []string) error {
	cfg, err := launchconfig.LoadFromEnv()
	if err != nil {
		return err
	}
	lg, err := logutil.New(cfg.LogLevel, cfg.LogOutputs)
	if err != nil {
		return err
	}
	defer lg.Sync()

	var jr *journal.Journal
	if cfg.JournalPath != "" {
		jr, err = journal.Open(lg, cfg.JournalPath)
		if err != nil {
			lg.Warn("failed to open journal", zap.Error(err))
			return err
		}
		defer jr.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode, err = launch.New(launch.Config{
		Logger:  lg,
		Launch:  cfg,
		Journal: jr,
	}).Run(ctx, args)
	if err != nil {
		lg.Warn("launch failed", zap.Error(err))
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ann-launch failed %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
