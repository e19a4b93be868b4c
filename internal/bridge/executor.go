package bridge

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/engine"
)

// Player starts an automated play. engine.Driver satisfies it; wrap a bare
// engine.Machine with ForMachine.
type Player interface {
	Play(ctx context.Context, match func(card.Card) bool) error
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, match func(card.Card) bool) error

// Play calls f.
func (f PlayerFunc) Play(ctx context.Context, match func(card.Card) bool) error {
	return f(ctx, match)
}

// ForMachine adapts a machine stepped directly by the caller.
func ForMachine(m *engine.Machine) Player {
	return PlayerFunc(func(_ context.Context, match func(card.Card) bool) error {
		return m.Play(match)
	})
}

// Executor parses commands and hands them to a Player.
type Executor struct {
	player Player
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger means slog.Default().
func NewExecutor(p Player, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{player: p, logger: logger}
}

// Execute parses text and starts the play.
//
// Malformed text returns an error wrapping ErrMalformedCommand. A command
// received while cards are not face down returns an error wrapping
// engine.ErrNotIdle. In both cases the session is untouched. A successful
// return only means the play started: the press it makes, if any, is
// reported through the session's events.
func (e *Executor) Execute(ctx context.Context, text string) (Command, error) {
	cmd, err := Parse(text)
	if err != nil {
		e.logger.Debug("bridge command ignored", "text", text, "error", err)
		return Command{}, err
	}
	if err := e.player.Play(ctx, cmd.Matches); err != nil {
		if errors.Is(err, engine.ErrNotIdle) {
			e.logger.Debug("bridge command ignored: not idle", "command", cmd.String())
		}
		return cmd, err
	}
	e.logger.Info("bridge command accepted", "command", cmd.String())
	return cmd, nil
}
