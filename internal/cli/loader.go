package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/pointoforder/internal/config"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/puzzle"
	"github.com/roach88/pointoforder/internal/rules"
	"github.com/roach88/pointoforder/internal/session"
	"github.com/roach88/pointoforder/internal/store"
)

// SessionFlags are the flags shared by commands that start a session.
// Flags override values read from --config.
type SessionFlags struct {
	Config   string
	Serial   string
	Seed     int64
	Database string
}

// bind registers the flags on cmd. withDB adds --db.
func (f *SessionFlags) bind(cmd *cobra.Command, withDB bool) {
	cmd.Flags().StringVar(&f.Config, "config", "", "config file (.yaml, .yml or .cue)")
	cmd.Flags().StringVar(&f.Serial, "serial", "", "serial number the rules derive from")
	cmd.Flags().Int64Var(&f.Seed, "seed", 0, "random seed (0 picks one from the clock)")
	if withDB {
		cmd.Flags().StringVar(&f.Database, "db", "", "path to SQLite session log (optional)")
	}
}

// resolve merges the config file and the flags into a validated Config.
func (f *SessionFlags) resolve() (config.Config, error) {
	cfg := config.Default()
	if f.Config != "" {
		loaded, err := config.Load(f.Config)
		if err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}
	if f.Serial != "" {
		cfg.Serial = f.Serial
	}
	if f.Seed != 0 {
		cfg.Seed = f.Seed
	}
	if f.Database != "" {
		cfg.Database = f.Database
	}

	if cfg.Serial == "" {
		return config.Config{}, NewExitError(ExitCommandError, "no serial given: use --serial or set serial in --config")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// liveSession is a started session with its optional log.
type liveSession struct {
	*session.Session
	store    *store.Store
	recorder *store.Recorder
}

// Close closes the log, if any.
func (ls *liveSession) Close() error {
	if ls.store == nil {
		return nil
	}
	return ls.store.Close()
}

// LogErr reports the first event that could not be logged.
func (ls *liveSession) LogErr() error {
	if ls.recorder == nil {
		return nil
	}
	return ls.recorder.Err()
}

// startSession generates the puzzle for cfg. When cfg.Database is set the
// session and its events are logged there.
func startSession(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...session.Option) (*liveSession, error) {
	ls := &liveSession{}
	if cfg.Database != "" {
		st, err := store.Open(cfg.Database)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		ls.store = st
		opts = append(opts, session.WithSinkFor(func(id string) engine.EventSink {
			ls.recorder = st.NewRecorder(id, logger)
			return ls.recorder
		}))
	}
	opts = append(opts, session.WithLogger(logger))

	sess, err := session.Start(ctx, cfg, opts...)
	if err != nil {
		ls.Close()
		return nil, sessionError(err)
	}
	ls.Session = sess

	if ls.store != nil {
		rec := store.NewSessionRecord(sess.ID, sess.Seed, sess.Created, sess.Puzzle)
		if err := ls.store.WriteSession(ctx, rec); err != nil {
			ls.Close()
			return nil, WrapExitError(ExitFailure, "failed to log session", err)
		}
	}
	return ls, nil
}

// sessionError maps a session.Start failure to an exit code.
func sessionError(err error) error {
	switch {
	case errors.Is(err, rules.ErrInvalidSerial):
		return WrapExitError(ExitCommandError, "invalid serial", err)
	case puzzle.IsAttemptsExhausted(err):
		return WrapExitError(ExitFailure, "puzzle generation failed", err)
	default:
		return WrapExitError(ExitFailure, "failed to start session", err)
	}
}
