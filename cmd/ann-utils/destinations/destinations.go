// Package destinations implements "ann-utils destinations" command.
package destinations

import (
	"io"
	"os"

	"github.com/ann-cluster/ann-tools/cmd/ann-utils/upload"
	"github.com/ann-cluster/ann-tools/uploadconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var configPath string

func init() {
	cobra.EnablePrefixMatching = true
}

// NewCommand implements "ann-utils destinations" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "destinations",
		Short: "Lists the remote storage destinations",
		Args:  cobra.NoArgs,
		RunE:  destinationsFunc,
	}
	cmd.Flags().StringVar(&configPath, "config", "", "upload configuration YAML path (default from ANN_UPLOAD_CONFIG_PATH or built-in)")
	return cmd
}

func destinationsFunc(cmd *cobra.Command, args []string) error {
	cfg, err := upload.LoadConfig(cmd, configPath)
	if err != nil {
		return err
	}
	Render(os.Stdout, cfg)
	return nil
}

// Render writes the destination table, marking the active one.
func Render(w io.Writer, cfg *uploadconfig.Config) {
	tb := tablewriter.NewWriter(w)
	tb.SetAutoWrapText(false)
	tb.SetHeader([]string{"", "Name", "URI"})
	for _, d := range cfg.Destinations {
		active := ""
		if d.Name == cfg.DataCenter {
			active = "*"
		}
		tb.Append([]string{active, d.Name, d.URI})
	}
	tb.Render()
}
