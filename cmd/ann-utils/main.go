// ann-utils is a set of dataset and training run utilities.
package main

import (
	"fmt"
	"os"

	"github.com/ann-cluster/ann-tools/cmd/ann-utils/config"
	"github.com/ann-cluster/ann-tools/cmd/ann-utils/destinations"
	"github.com/ann-cluster/ann-tools/cmd/ann-utils/history"
	"github.com/ann-cluster/ann-tools/cmd/ann-utils/upload"
	"github.com/ann-cluster/ann-tools/cmd/ann-utils/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "ann-utils",
	Short:        "Anytime neural network utils CLI",
	SilenceUsage: true,
}

func init() {
	cobra.EnablePrefixMatching = true
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error, dpanic, panic, fatal), overrides the configuration")
	rootCmd.AddCommand(
		upload.NewCommand(),
		destinations.NewCommand(),
		config.NewCommand(),
		history.NewCommand(),
		version.NewCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ann-utils failed %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
