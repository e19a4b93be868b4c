package testutil

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pointoforder/internal/puzzle"
	"github.com/roach88/pointoforder/internal/rules"
)

// Rand returns a seeded random source.
func Rand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Puzzle generates the puzzle for serial and seed, failing the test on
// any error.
func Puzzle(tb testing.TB, serial string, seed int64) *puzzle.Puzzle {
	tb.Helper()
	params, err := rules.ParamsFromSerial(serial)
	require.NoError(tb, err)
	p, err := puzzle.Generate(context.Background(), params,
		puzzle.WithRand(Rand(seed)),
		puzzle.WithLogger(DiscardLogger()),
	)
	require.NoError(tb, err)
	return p
}
