// Package session wires configuration, puzzle generation and the
// interaction machine into one playable unit.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/roach88/pointoforder/internal/config"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/puzzle"
)

// Session is one generated puzzle and the machine playing it.
type Session struct {
	ID      string
	Serial  string
	Seed    int64
	Created time.Time
	Puzzle  *puzzle.Puzzle
	Machine *engine.Machine
}

// Option configures Start.
type Option func(*starter)

type starter struct {
	ids    IDGenerator
	sinks  []func(id string) engine.EventSink
	logger *slog.Logger
	now    func() time.Time
}

// WithIDGenerator overrides the default UUIDv7 ids.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *starter) {
		s.ids = g
	}
}

// WithSink adds an event sink.
func WithSink(sink engine.EventSink) Option {
	return WithSinkFor(func(string) engine.EventSink { return sink })
}

// WithSinkFor adds an event sink built once the session id is known.
func WithSinkFor(f func(id string) engine.EventSink) Option {
	return func(s *starter) {
		s.sinks = append(s.sinks, f)
	}
}

// WithLogger sets the logger for generation and play.
func WithLogger(l *slog.Logger) Option {
	return func(s *starter) {
		s.logger = l
	}
}

// WithNow overrides the wall clock used for Created.
func WithNow(now func() time.Time) Option {
	return func(s *starter) {
		s.now = now
	}
}

// Start generates a puzzle from cfg and returns an idle session.
//
// One random source seeded from cfg drives both generation and dealing, so
// a fixed seed reproduces the whole session.
func Start(ctx context.Context, cfg config.Config, opts ...Option) (*Session, error) {
	s := &starter{
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	params, err := cfg.Params()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	seed := cfg.SeedOrNow()
	rng := rand.New(rand.NewSource(seed))

	p, err := puzzle.Generate(ctx, params,
		puzzle.WithRand(rng),
		puzzle.WithMaxAttempts(cfg.Generation.MaxAttempts),
		puzzle.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	id := s.ids.Generate()
	machineOpts := []engine.Option{
		engine.WithRand(rng),
		engine.WithTiming(cfg.Timing),
		engine.WithLogger(s.logger.With("session", id)),
	}
	if len(s.sinks) > 0 {
		sinks := make(engine.MultiSink, len(s.sinks))
		for i, f := range s.sinks {
			sinks[i] = f(id)
		}
		machineOpts = append(machineOpts, engine.WithSink(sinks))
	}

	return &Session{
		ID:      id,
		Serial:  params.Serial,
		Seed:    seed,
		Created: s.now(),
		Puzzle:  p,
		Machine: engine.NewMachine(p, machineOpts...),
	}, nil
}
