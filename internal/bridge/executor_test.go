package bridge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/puzzle"
	"github.com/roach88/pointoforder/internal/rules"
)

const dealSeed = 5

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMachine(t *testing.T) (*engine.Machine, *engine.MemorySink) {
	t.Helper()
	params, err := rules.ParamsFromSerial("KT4FE8")
	require.NoError(t, err)
	p, err := puzzle.Generate(context.Background(), params,
		puzzle.WithRand(rand.New(rand.NewSource(3))),
		puzzle.WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	sink := engine.NewMemorySink()
	m := engine.NewMachine(p,
		engine.WithRand(rand.New(rand.NewSource(dealSeed))),
		engine.WithSink(sink),
		engine.WithLogger(quietLogger()),
	)
	return m, sink
}

// firstDeal returns the round a fresh machine deals on its first reveal.
func firstDeal(t *testing.T) puzzle.Round {
	t.Helper()
	m, _ := newMachine(t)
	m.Press(0)
	r, ok := m.Round()
	require.True(t, ok)
	return r
}

func commandFor(c card.Card) string {
	return fmt.Sprintf("play %s of %s", c.Rank, c.Suit.Name())
}

func TestExecute_CorrectCardSolves(t *testing.T) {
	round := firstDeal(t)
	m, sink := newMachine(t)
	ex := NewExecutor(ForMachine(m), quietLogger())

	cmd, err := ex.Execute(context.Background(), commandFor(round.CorrectCard()))
	require.NoError(t, err)
	assert.True(t, cmd.Matches(round.CorrectCard()))
	assert.Equal(t, engine.StateRevealed, m.State())

	m.Settle(1000)
	assert.Equal(t, engine.StateSolved, m.State())
	require.Len(t, sink.OfKind(engine.EventSuccess), 1)
	assert.Equal(t, round.Correct, sink.OfKind(engine.EventSuccess)[0].Slot)
}

func TestExecute_DecoyIsAMistake(t *testing.T) {
	round := firstDeal(t)
	wrong := (round.Correct + 1) % puzzle.NumChoices
	m, sink := newMachine(t)
	ex := NewExecutor(ForMachine(m), quietLogger())

	_, err := ex.Execute(context.Background(), commandFor(round.Cards[wrong]))
	require.NoError(t, err)

	m.Advance(2*(puzzle.NumChoices-1) + 5)
	assert.Equal(t, engine.StateResolving, m.State())
	mistakes := sink.OfKind(engine.EventMistake)
	require.Len(t, mistakes, 1)
	assert.Equal(t, engine.ReasonWrongCard, mistakes[0].Reason)
	assert.Equal(t, wrong, mistakes[0].Slot)
}

func TestExecute_NoMatchWaitsForTimeout(t *testing.T) {
	round := firstDeal(t)
	var absent card.Card
	for _, c := range card.Universe() {
		if !card.Contains(round.Cards[:], c) {
			absent = c
			break
		}
	}
	m, sink := newMachine(t)
	ex := NewExecutor(ForMachine(m), quietLogger())

	_, err := ex.Execute(context.Background(), commandFor(absent))
	require.NoError(t, err)

	m.Advance(20)
	assert.Equal(t, engine.StateRevealed, m.State())
	assert.Zero(t, sink.Count(engine.EventMistake))

	m.Advance(engine.DefaultTiming().TimeoutTicks)
	mistakes := sink.OfKind(engine.EventMistake)
	require.Len(t, mistakes, 1)
	assert.Equal(t, engine.ReasonTimeout, mistakes[0].Reason)
}

func TestExecute_MalformedIsANoOp(t *testing.T) {
	m, sink := newMachine(t)
	ex := NewExecutor(ForMachine(m), quietLogger())

	_, err := ex.Execute(context.Background(), "play eleven of hearts")
	assert.ErrorIs(t, err, ErrMalformedCommand)
	assert.Equal(t, engine.StateIdle, m.State())
	assert.Empty(t, sink.Events())
}

func TestExecute_OnlyWhileIdle(t *testing.T) {
	m, sink := newMachine(t)
	m.Press(1)
	ex := NewExecutor(ForMachine(m), quietLogger())

	_, err := ex.Execute(context.Background(), "play a of s")
	assert.ErrorIs(t, err, engine.ErrNotIdle)
	assert.Len(t, sink.Events(), 1, "only the manual reveal")
}

func TestExecute_PassesMatcherToPlayer(t *testing.T) {
	var got func(card.Card) bool
	ex := NewExecutor(PlayerFunc(func(_ context.Context, match func(card.Card) bool) error {
		got = match
		return nil
	}), quietLogger())

	_, err := ex.Execute(context.Background(), "play q of d")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got(card.MustParse("Qd")))
	assert.False(t, got(card.MustParse("Qh")))
}
