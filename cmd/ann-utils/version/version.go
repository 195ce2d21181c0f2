// Package version implements "ann-utils version" command.
package version

import (
	"fmt"

	"github.com/ann-cluster/ann-tools/version"
	"github.com/spf13/cobra"
)

func init() {
	cobra.EnablePrefixMatching = true
}

// NewCommand implements "ann-utils version" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints out ann-tools version",
		Run:   versionFunc,
	}
}

func versionFunc(cmd *cobra.Command, args []string) {
	fmt.Print(version.String())
}
