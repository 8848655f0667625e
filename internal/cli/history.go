package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/roach88/sql2rest/internal/store"
)

// sqlColumnWidth bounds the SQL column of history tables.
const sqlColumnWidth = 48

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Log    string
	Limit  int
	Replay bool
}

// HistoryReplayResult is the JSON payload of history --replay.
type HistoryReplayResult struct {
	Checked int           `json:"checked"`
	Drifts  []DriftReport `json:"drifts"`
}

// DriftReport describes one translation whose output changed.
type DriftReport struct {
	ID     string            `json:"id"`
	SQL    string            `json:"sql"`
	Fields []string          `json:"fields"`
	Before store.Translation `json:"before"`
	After  store.Translation `json:"after"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List or replay logged translations",
		Long: `List translations recorded with translate --log, newest first.

With --replay, every logged statement is translated again, oldest first,
and statements whose fingerprint, HTTP path, supabase-js code or error
code changed are reported. The log is never modified by a replay.

Exit codes:
  0 - Listing succeeded, or the replay found no drift
  1 - The replay found drift
  2 - Command error (log not found, etc.)

Examples:
  sql2rest history --log ./sql2rest.db
  sql2rest history --log ./sql2rest.db --limit 5 --format json
  sql2rest history --log ./sql2rest.db --replay`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Log, "log", "", "path to the SQLite translation log (defaults to the config's log)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum translations to list (0 for all)")
	cmd.Flags().BoolVar(&opts.Replay, "replay", false, "re-translate every logged statement and report drift")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	path := opts.Log
	if path == "" {
		path = opts.config().Log
	}
	if path == "" {
		return NewExitError(ExitCommandError, "no translation log: pass --log or set log in the config file")
	}

	// Open creates missing files; history only reads existing logs.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("translation log not found: %s", path))
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open translation log", err)
	}
	defer st.Close()

	if opts.Replay {
		return runReplay(opts, cmd, st)
	}

	translations, err := st.ListTranslations(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list translations", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(translations)
	}

	w := cmd.OutOrStdout()
	if len(translations) == 0 {
		fmt.Fprintln(w, "No translations logged.")
		return nil
	}

	rows := make([][]string, 0, len(translations))
	for _, t := range translations {
		outcome := t.HTTPPath
		if t.Failed() {
			outcome = t.ErrorCode
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.Seq, 10),
			t.CreatedAt.Format("2006-01-02 15:04:05"),
			truncateSQL(t.SQL),
			outcome,
		})
	}
	writeTable(w, []string{"Seq", "Created", "SQL", "Result"}, rows)
	return nil
}

func runReplay(opts *HistoryOptions, cmd *cobra.Command, st *store.Store) error {
	logger := opts.logger()
	t := newTranslator(opts.config(), logger)

	replayed, err := st.Replay(cmd.Context(), t.replayFunc())
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}
	logger.Debug("replay finished", "checked", replayed.Checked, "drifts", len(replayed.Drifts))

	result := HistoryReplayResult{
		Checked: replayed.Checked,
		Drifts:  make([]DriftReport, 0, len(replayed.Drifts)),
	}
	for _, d := range replayed.Drifts {
		result.Drifts = append(result.Drifts, DriftReport{
			ID:     d.ID,
			SQL:    d.SQL,
			Fields: d.Fields(),
			Before: d.Before,
			After:  d.After,
		})
	}

	msg := fmt.Sprintf("%d of %d translation(s) drifted", len(result.Drifts), result.Checked)

	if opts.Format == "json" {
		f := opts.formatter(cmd)
		if len(result.Drifts) == 0 {
			return f.Success(result)
		}
		return f.Failure(result, CLIError{Code: ErrCodeDrift, Message: msg}, nil)
	}

	w := cmd.OutOrStdout()
	if len(result.Drifts) == 0 {
		fmt.Fprintf(w, "✓ Replayed %d translation(s), no drift\n", result.Checked)
		return nil
	}

	rows := make([][]string, 0, len(result.Drifts))
	for _, d := range result.Drifts {
		rows = append(rows, []string{d.ID, truncateSQL(d.SQL), strings.Join(d.Fields, ",")})
	}
	writeTable(w, []string{"ID", "SQL", "Changed"}, rows)
	fmt.Fprintf(w, "\n✗ %s\n", msg)
	return reportedError(ExitFailure, msg, nil)
}

// truncateSQL flattens whitespace and cuts the statement to the table
// column width.
func truncateSQL(sql string) string {
	flat := strings.Join(strings.Fields(sql), " ")
	return runewidth.Truncate(flat, sqlColumnWidth, "...")
}
