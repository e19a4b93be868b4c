package puzzle

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/rules"
)

var testSerials = []string{"AB1CD2", "12AAB3", "A12ZZ9", "1A2BC3", "KT4FE8", "9Q0XW5"}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustParams(t *testing.T, serial string) rules.Params {
	t.Helper()
	p, err := rules.ParamsFromSerial(serial)
	require.NoError(t, err)
	return p
}

func generate(t *testing.T, serial string, seed int64) *Puzzle {
	t.Helper()
	p, err := Generate(context.Background(), mustParams(t, serial),
		WithRand(rand.New(rand.NewSource(seed))),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	return p
}

func TestGenerate_Invariants(t *testing.T) {
	for _, serial := range testSerials {
		for seed := int64(1); seed <= 40; seed++ {
			p := generate(t, serial, seed)

			require.NoError(t, p.Validate(), "serial %s seed %d", serial, seed)

			assert.Len(t, p.Pile, PileSize)
			assert.True(t, card.Distinct(p.Pile))
			for i := 1; i < len(p.Pile); i++ {
				for _, r := range p.Active {
					assert.True(t, r.Holds(p.Pile[i], p.Pile[:i]), "%s: %s after %s", r.Kind, p.Pile[i], p.Pile[i-1])
				}
			}
			for _, r := range p.Inactive {
				assert.True(t, violatedSomewhere(r, p.Pile), "inactive %s never violated", r.Kind)
			}

			assert.NotEmpty(t, p.Acceptable)
			assert.LessOrEqual(t, len(p.Acceptable), MaxAcceptable)
			assert.GreaterOrEqual(t, len(p.Decoys), MinDecoys)
			for _, d := range p.Decoys {
				assert.Equal(t, len(p.Active)-1, rules.CountHolding(p.Active, d, p.Pile), "decoy %s", d)
			}
			assert.GreaterOrEqual(t, p.Attempts, 1)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := generate(t, "AB1CD2", 99)
	b := generate(t, "AB1CD2", 99)
	assert.Equal(t, a, b)
}

func TestGenerate_SeedsVary(t *testing.T) {
	piles := map[string]bool{}
	for seed := int64(1); seed <= 20; seed++ {
		piles[card.Join(generate(t, "AB1CD2", seed).Pile, " ")] = true
	}
	assert.Greater(t, len(piles), 1, "different seeds should give different piles")
}

func TestGenerate_InvalidOptions(t *testing.T) {
	_, err := Generate(context.Background(), mustParams(t, "AB1CD2"), WithMaxAttempts(0))
	require.Error(t, err)

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ErrCodeInvalidOptions, ge.Code)
}

func TestGenerate_AttemptsExhausted(t *testing.T) {
	// Zero parameters make both suit-transition and divisibility
	// unsatisfiable, and at least one of them is always active.
	_, err := Generate(context.Background(), rules.Params{},
		WithMaxAttempts(5),
		WithRand(rand.New(rand.NewSource(1))),
		WithLogger(quietLogger()),
	)
	require.Error(t, err)
	assert.True(t, IsAttemptsExhausted(err))
	assert.False(t, IsCancelled(err))
	assert.Contains(t, err.Error(), "ATTEMPTS_EXHAUSTED")
	assert.Contains(t, err.Error(), "after 5 attempts")
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, mustParams(t, "AB1CD2"), WithLogger(quietLogger()))
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeal(t *testing.T) {
	p := generate(t, "12AAB3", 5)
	rng := rand.New(rand.NewSource(3))

	slots := map[int]int{}
	for i := 0; i < 400; i++ {
		r := p.Deal(rng)

		require.GreaterOrEqual(t, r.Correct, 0)
		require.Less(t, r.Correct, NumChoices)
		assert.True(t, p.IsAcceptable(r.CorrectCard()))
		assert.True(t, card.Distinct(r.Cards[:]))
		for i, c := range r.Cards {
			if i == r.Correct {
				continue
			}
			assert.True(t, p.IsDecoy(c), "slot %d card %s", i, c)
		}
		slots[r.Correct]++
	}
	assert.Len(t, slots, NumChoices, "correct card should land in every slot")
}

func TestDeal_DoesNotMutatePuzzle(t *testing.T) {
	p := generate(t, "A12ZZ9", 11)

	pile := append([]card.Card(nil), p.Pile...)
	acceptable := append([]card.Card(nil), p.Acceptable...)
	decoys := append([]card.Card(nil), p.Decoys...)

	rng := rand.New(rand.NewSource(8))
	for i := 0; i < 50; i++ {
		p.Deal(rng)
	}

	assert.Equal(t, pile, p.Pile)
	assert.Equal(t, acceptable, p.Acceptable)
	assert.Equal(t, decoys, p.Decoys)
	assert.NoError(t, p.Validate())
}

func TestNearMisses(t *testing.T) {
	// m=3, d=2; active = suit-transition and divisibility.
	params := mustParams(t, "AB1CC2")
	pool := rules.Pool(params)
	active := []rules.Rule{pool[0], pool[1]}
	pile := []card.Card{card.MustParse("Ah"), card.MustParse("4s")}

	acceptable := card.NewSet()
	for _, c := range card.Universe() {
		if !card.Contains(pile, c) && rules.AllHold(active, c, pile) {
			acceptable.Put(c)
		}
	}

	got := nearMisses(active, pile, acceptable)
	require.NotEmpty(t, got)
	for _, c := range got {
		assert.False(t, acceptable.Has(c))
		assert.False(t, card.Contains(pile, c))
		assert.Equal(t, 1, rules.CountHolding(active, c, pile), c.String())
	}
	// 6♣: divisibility holds, clubs is not allowed after spades.
	assert.True(t, card.Contains(got, card.MustParse("6c")))
	// 6♥ satisfies both rules and is acceptable, not a near miss.
	assert.True(t, acceptable.Has(card.MustParse("6h")))
	assert.False(t, card.Contains(got, card.MustParse("6h")))
}

func TestValidate_DetectsBrokenPuzzle(t *testing.T) {
	p := generate(t, "AB1CD2", 21)

	broken := *p
	broken.Pile = append([]card.Card(nil), p.Pile...)
	broken.Pile[4] = broken.Pile[3]
	var ie *InvariantError
	require.ErrorAs(t, broken.Validate(), &ie)
	assert.Equal(t, "pile-distinct", ie.Invariant)

	broken = *p
	broken.Decoys = p.Decoys[:MinDecoys-1]
	require.ErrorAs(t, broken.Validate(), &ie)
	assert.Equal(t, "decoy-size", ie.Invariant)

	broken = *p
	broken.Acceptable = nil
	require.ErrorAs(t, broken.Validate(), &ie)
	assert.Equal(t, "acceptable-size", ie.Invariant)
}

func TestGenerationError_Unwrap(t *testing.T) {
	err := &GenerationError{Code: ErrCodeCancelled, Message: "x", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsCancelled(err))
	assert.False(t, IsAttemptsExhausted(err))
}
