// Package history implements "ann-utils history" command.
package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ann-cluster/ann-tools/internal/journal"
	"github.com/ann-cluster/ann-tools/launchconfig"
	"github.com/ann-cluster/ann-tools/pkg/envutil"
	"github.com/ann-cluster/ann-tools/pkg/fileutil"
	"github.com/ann-cluster/ann-tools/pkg/logutil"
	"github.com/ann-cluster/ann-tools/uploadconfig"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	journalPath string
	limit       int
)

func init() {
	cobra.EnablePrefixMatching = true
}

// NewCommand implements "ann-utils history" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Lists recorded launches and uploads, newest first",
		Args:  cobra.NoArgs,
		RunE:  historyFunc,
	}
	cmd.Flags().StringVar(&journalPath, "journal", DefaultJournalPath(), "journal database path (default from ANN_LAUNCH_JOURNAL_PATH, then ANN_UPLOAD_JOURNAL_PATH)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries, 0 for all")
	return cmd
}

// DefaultJournalPath returns the launcher's journal path if set,
// otherwise the uploader's.
func DefaultJournalPath() string {
	if p := os.Getenv(envutil.Name(launchconfig.EnvironmentVariablePrefix, "journal-path")); p != "" {
		return p
	}
	return os.Getenv(envutil.Name(uploadconfig.EnvironmentVariablePrefix, "journal-path"))
}

// LogLevel returns the "--log-level" value, or the default if unset.
func LogLevel(cmd *cobra.Command) (string, error) {
	lvl, _ := cmd.Flags().GetString("log-level")
	if lvl == "" {
		return logutil.DefaultLogLevel, nil
	}
	if !logutil.IsValidLogLevel(lvl) {
		return "", fmt.Errorf("unknown LogLevel %q", lvl)
	}
	return lvl, nil
}

func historyFunc(cmd *cobra.Command, args []string) error {
	if journalPath == "" {
		return errors.New("empty --journal")
	}
	// journal.Open would create an empty database
	if !fileutil.Exist(journalPath) {
		return fmt.Errorf("journal %q does not exist", journalPath)
	}
	lvl, err := LogLevel(cmd)
	if err != nil {
		return err
	}
	lg, err := logutil.New(lvl, []string{"stderr"})
	if err != nil {
		return err
	}
	defer lg.Sync()

	jr, err := journal.Open(lg, journalPath)
	if err != nil {
		return err
	}
	defer jr.Close()

	entries, err := jr.List(context.Background(), limit)
	if err != nil {
		return err
	}
	Render(os.Stdout, entries, time.Now())
	return nil
}

// Render writes entries as a table with times relative to now.
func Render(w io.Writer, entries []journal.Entry, now time.Time) {
	tb := tablewriter.NewWriter(w)
	tb.SetAutoWrapText(false)
	tb.SetHeader([]string{"Started", "Kind", "Target", "Exit", "Took", "Command"})
	for _, e := range entries {
		tb.Append([]string{
			humanize.RelTime(e.StartedAt, now, "ago", "from now"),
			string(e.Kind),
			e.Target,
			strconv.Itoa(e.ExitCode),
			e.FinishedAt.Sub(e.StartedAt).Round(time.Millisecond).String(),
			e.Command,
		})
	}
	tb.Render()
}
