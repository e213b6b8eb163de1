package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tandem-cli/internal/format"
	"tandem-cli/internal/journal"

	"github.com/spf13/cobra"
)

// journalList prints as a table in text format and as an array in JSON.
type journalList []journal.Entry

func (l journalList) Table() format.Table {
	t := format.Table{Headers: []string{"ID", "AT", "KIND", "ARGS", "MS", "EXIT", "BYTES", "OK"}}
	for _, e := range l {
		ok := "yes"
		if !e.OK {
			ok = "no: " + e.Error
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.At.Local().Format(time.DateTime),
			e.Kind,
			strings.Join(e.Args, " "),
			strconv.FormatInt(e.DurationMS, 10),
			strconv.Itoa(e.ExitCode),
			strconv.Itoa(e.Bytes),
			ok,
		})
	}
	return t
}

func newJournalCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recorded launcher round trips, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return writeErr(cmd, err)
			}
			if cfg.JournalPath == "" {
				return writeErr(cmd, errors.New("no journal configured (set journal_path or TANDEM_JOURNAL_PATH)"))
			}
			if limit <= 0 {
				return writeErr(cmd, fmt.Errorf("--limit must be positive, got %d", limit))
			}
			j, err := journal.Open(cmd.Context(), cfg.JournalPath)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer j.Close()

			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			if entries == nil {
				entries = []journal.Entry{}
			}
			if app.Format == "text" {
				return writeOut(cmd, app, journalList(entries))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"entries": entries}})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries")
	return cmd
}
