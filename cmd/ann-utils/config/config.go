// Package config implements "ann-utils config" commands.
package config

import (
	"fmt"
	"os"

	"github.com/ann-cluster/ann-tools/launchconfig"
	"github.com/ann-cluster/ann-tools/uploadconfig"
	"github.com/spf13/cobra"
)

var path string

func init() {
	cobra.EnablePrefixMatching = true
}

// NewCommand implements "ann-utils config" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Writes configuration files with defaults and environment overrides applied",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "configuration YAML path to write")
	cmd.AddCommand(
		newLaunch(),
		newUpload(),
	)
	return cmd
}

func newLaunch() *cobra.Command {
	return &cobra.Command{
		Use:   "launch",
		Short: "Writes the training launcher configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := launchconfig.NewDefault()
			if err := cfg.UpdateFromEnvs(); err != nil {
				return err
			}
			if err := cfg.ValidateAndSetDefaults(); err != nil {
				return err
			}
			cfg.ConfigPath = path
			if err := cfg.Sync(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %q\n", cfg.ConfigPath)
			return nil
		},
	}
}

func newUpload() *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Writes the dataset upload configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := uploadconfig.NewDefault()
			if err := cfg.UpdateFromEnvs(); err != nil {
				return err
			}
			if err := cfg.ValidateAndSetDefaults(); err != nil {
				return err
			}
			cfg.ConfigPath = path
			if err := cfg.Sync(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %q\n", cfg.ConfigPath)
			return nil
		},
	}
}
