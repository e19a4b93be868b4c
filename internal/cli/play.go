package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/pointoforder/internal/bridge"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/session"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	SessionFlags
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a session in the terminal",
		Long: `Start an interactive session. The clock runs in real time: press a slot
to reveal four cards, then press the slot holding the card that continues
the pile before the countdown ends.

Prompt commands:
  1-4                      press a slot
  play <ranks> of <suits>  reveal and press the first matching card
  status                   show the table
  help                     list commands
  quit                     leave the session

Examples:
  pointoforder play --serial AB1CD2
  pointoforder play --config session.yaml --db sessions.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	opts.bind(cmd, true)
	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	cfg, err := opts.resolve()
	if err != nil {
		return err
	}

	// Routine session logs would interleave with the prompt.
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	out := &syncWriter{w: cmd.OutOrStdout()}
	ls, err := startSession(cmd.Context(), cfg, logger, session.WithSink(eventPrinter(out)))
	if err != nil {
		return err
	}
	defer ls.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Fprintf(out, "Session %s (serial %s). The pile so far:\n  %s\n",
		ls.ID, ls.Serial, cardsText(ls.Puzzle.Pile))
	fmt.Fprintln(out, "Press 1-4 to reveal the candidates. Type help for commands.")

	solved, err := playSession(ctx, line, out, ls.Session, logger)
	if err != nil {
		return WrapExitError(ExitFailure, "session aborted", err)
	}
	if err := ls.LogErr(); err != nil {
		return WrapExitError(ExitFailure, "session log incomplete", err)
	}
	if !solved {
		palette.Warn.Fprintln(out, "Left unsolved.")
	}
	return nil
}

// playSession runs the driver and the prompt until the puzzle is solved or
// the player leaves. It reports whether the puzzle was solved.
func playSession(ctx context.Context, in lineReader, out io.Writer, sess *session.Session, logger *slog.Logger) (bool, error) {
	d := engine.NewDriver(sess.Machine)
	shutdown := runDriver(ctx, d)

	p := &prompt{
		in:     in,
		out:    out,
		driver: d,
		exec:   bridge.NewExecutor(d, logger),
	}
	err := p.loop(ctx)
	if rerr := shutdown(); rerr != nil {
		return false, rerr
	}
	if err != nil {
		return false, err
	}

	snap := d.Snapshot()
	if snap.State == engine.StateSolved {
		palette.Good.Fprintf(out, "Solved with %d mistake(s).\n", snap.Mistakes)
		return true, nil
	}
	return false, nil
}

// lineReader is the input side of the prompt. *liner.State satisfies it.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type prompt struct {
	in     lineReader
	out    io.Writer
	driver *engine.Driver
	exec   *bridge.Executor
}

// loop reads commands until quit, end of input, cancellation or the end of
// the session.
func (p *prompt) loop(ctx context.Context) error {
	for {
		select {
		case <-p.driver.Done():
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		input, err := p.in.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		p.in.AppendHistory(input)

		quit, err := p.handle(ctx, input)
		if errors.Is(err, engine.ErrStopped) {
			return nil
		}
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

// handle runs one command line. It returns true when the player quits.
func (p *prompt) handle(ctx context.Context, input string) (bool, error) {
	word := strings.ToLower(strings.Fields(input)[0])

	if n, err := strconv.Atoi(word); err == nil {
		if n < 1 || n > engine.NumSlots {
			palette.Warn.Fprintf(p.out, "There are only slots 1 to %d.\n", engine.NumSlots)
			return false, nil
		}
		ok, err := p.driver.PressWait(ctx, n-1)
		if err != nil {
			return false, err
		}
		if !ok {
			palette.Dim.Fprintf(p.out, "Slot %d is still turning.\n", n)
		}
		return false, nil
	}

	switch word {
	case "play", "p":
		// The bridge only knows the full verb.
		line := "play" + input[len(strings.Fields(input)[0]):]
		cmd, err := p.exec.Execute(ctx, line)
		switch {
		case errors.Is(err, bridge.ErrMalformedCommand):
			palette.Warn.Fprintf(p.out, "Could not parse that: %v\n", err)
		case engine.IsNotIdle(err):
			palette.Warn.Fprintln(p.out, "Wait until the cards are face down.")
		case err != nil:
			return false, err
		default:
			palette.Dim.Fprintf(p.out, "Playing %s.\n", cmd)
		}
	case "status", "s":
		fmt.Fprintln(p.out, describeSnapshot(p.driver.Snapshot()))
	case "help", "h", "?":
		p.help()
	case "quit", "q", "exit":
		return true, nil
	default:
		palette.Warn.Fprintf(p.out, "Unknown command %q. Type help for a list of commands.\n", word)
	}
	return false, nil
}

func (p *prompt) help() {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.AppendHeader(table.Row{"Command", "Alias", "Description"})
	t.AppendRows([]table.Row{
		{"1-4", "", "Press a slot. Pressing while face down reveals a new round."},
		{"play <ranks> of <suits>", "p", "Reveal and press the first matching card, e.g. play 7/8 of hearts."},
		{"status", "s", "Show the table and the countdown."},
		{"help", "h", "Show this list."},
		{"quit", "q", "Leave the session."},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// eventPrinter writes each event on its own line.
func eventPrinter(w io.Writer) engine.EventSink {
	return engine.SinkFunc(func(ev engine.Event) {
		fmt.Fprintln(w, describeEvent(ev))
	})
}

// syncWriter serializes writes from the driver and the prompt.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}
