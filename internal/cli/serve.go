package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/mcp"
	"github.com/roach88/pointoforder/internal/session"
)

// Version is reported to MCP clients.
var Version = "dev"

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	SessionFlags
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a session to an MCP client over stdio",
		Long: `Start a session and expose it as Model Context Protocol tools on stdin
and stdout: get_state, press, play and wait. The clock runs in real time
from the moment the server starts. Logs go to stderr.

Examples:
  pointoforder serve --serial AB1CD2
  pointoforder serve --serial AB1CD2 --db sessions.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	opts.bind(cmd, true)
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.resolve()
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	events := mcp.NewEventBuffer()
	ls, err := startSession(cmd.Context(), cfg, logger, session.WithSink(events))
	if err != nil {
		return err
	}
	defer ls.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := engine.NewDriver(ls.Machine)
	shutdown := runDriver(ctx, driver)

	srv := mcp.NewServer(ls.Session, driver, events, logger)
	logger.Info("serving session", "session", ls.ID, "serial", ls.Serial)
	serveErr := server.ServeStdio(srv.NewMCPServer("pointoforder", Version))

	// The last tick may still be writing to the log.
	if err := shutdown(); err != nil {
		logger.Error("driver stopped", "error", err)
	}
	if serveErr != nil {
		return WrapExitError(ExitFailure, "mcp server error", serveErr)
	}
	if err := ls.LogErr(); err != nil {
		return WrapExitError(ExitFailure, "session log incomplete", err)
	}
	return nil
}

// runDriver starts d in its own goroutine. The returned function stops d and
// waits for Run to return; cancellation is not reported as an error.
func runDriver(ctx context.Context, d *engine.Driver) func() error {
	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()
	return func() error {
		d.Stop()
		if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
