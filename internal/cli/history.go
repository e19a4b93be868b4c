package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Session  string
}

// SessionEvents is the JSON form of history --session.
type SessionEvents struct {
	Session store.SessionRecord `json:"session"`
	Events  []engine.Event      `json:"events"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show logged sessions",
		Long: `List the sessions recorded in a session log, or the events of one
session with --session.

Examples:
  pointoforder history --db sessions.db
  pointoforder history --db sessions.db --session 0192...
  pointoforder history --db sessions.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return formatter(opts.RootOptions, cmd).Fail(runHistory(opts, cmd))
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite session log (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "show the events of one session")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	// Opening creates a missing file, which would hide a mistyped path.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	f := formatter(opts.RootOptions, cmd)
	w := cmd.OutOrStdout()
	f.VerboseLog("Reading session log %s", opts.Database)

	if opts.Session != "" {
		rec, err := st.ReadSession(ctx, opts.Session)
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, "unknown session", err)
		}
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read session", err)
		}
		events, err := st.ReadEvents(ctx, opts.Session)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read events", err)
		}
		if f.JSON() {
			return f.Success(SessionEvents{Session: rec, Events: events})
		}

		palette.Header.Fprintf(w, "Session %s\n", rec.ID)
		fmt.Fprintf(w, "Serial %s, seed %d, started %s\n", rec.Serial, rec.Seed, rec.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Pile: %s\n", cardsText(rec.Pile))
		if len(events) == 0 {
			fmt.Fprintln(w, "No events.")
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Seq", "Tick", "Event"})
		for _, ev := range events {
			t.AppendRow(table.Row{ev.Seq, ev.Tick, describeEvent(ev)})
		}
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, Align: text.AlignRight},
			{Number: 2, Align: text.AlignRight},
		})
		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	}

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list sessions", err)
	}
	if f.JSON() {
		return f.Success(sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions logged.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Session", "Serial", "Seed", "Rounds", "Mistakes", "Result"})
	for _, s := range sessions {
		result := palette.Dim.Sprint("unsolved")
		if s.Solved {
			result = palette.Good.Sprint("solved")
		}
		t.AppendRow(table.Row{s.ID, s.Serial, s.Seed, s.Reveals, s.Mistakes, result})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
