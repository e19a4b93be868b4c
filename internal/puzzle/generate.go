package puzzle

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/rules"
)

const (
	// NumActiveRules is how many pool rules a puzzle enforces.
	NumActiveRules = 2
	// PileSize is the number of cards shown as the established pattern.
	PileSize = 5
	// MinDecoys is the fewest near-miss cards a puzzle may offer.
	MinDecoys = 4
	// MaxAcceptable bounds how many legal continuations a puzzle may have.
	MaxAcceptable = 8
	// NumChoices is the number of candidate slots shown per round.
	NumChoices = 4
)

// DefaultMaxAttempts bounds the top-level retry loop. A search space of 52
// cards at depth 5 converges in a handful of attempts; hitting this bound
// means the parameters are broken.
const DefaultMaxAttempts = 10000

// Option configures Generate.
type Option func(*generator)

// WithRand sets the random source. Tests pass a seeded source to make
// generation reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(g *generator) {
		g.rng = rng
	}
}

// WithMaxAttempts sets the top-level retry bound.
//
// Default: DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(g *generator) {
		g.maxAttempts = n
	}
}

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *generator) {
		g.logger = l
	}
}

type generator struct {
	rng         *rand.Rand
	maxAttempts int
	logger      *slog.Logger
}

// Generate builds a puzzle for params.
//
// Each attempt draws a fresh rule selection and starting card and runs a
// full backtracking search. Attempts repeat until one succeeds with at most
// MaxAcceptable legal continuations. The context is checked between
// attempts.
func Generate(ctx context.Context, params rules.Params, opts ...Option) (*Puzzle, error) {
	g := &generator{
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.maxAttempts <= 0 {
		return nil, &GenerationError{
			Code:    ErrCodeInvalidOptions,
			Message: "max attempts must be positive",
		}
	}

	pool := rules.Pool(params)
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &GenerationError{
				Code:     ErrCodeCancelled,
				Message:  "generation cancelled",
				Attempts: attempt - 1,
				Err:      err,
			}
		}

		sel := rules.Select(g.rng, pool, NumActiveRules)
		s := newSearch(g.rng, sel)
		s.push(card.FromIndex(g.rng.Intn(card.DeckSize)))

		if !s.recurse() {
			g.logger.Debug("generation attempt failed",
				"attempt", attempt,
				"active", rules.Kinds(sel.Active),
				"start", s.pile[0].String(),
			)
			continue
		}
		if len(s.acceptable) > MaxAcceptable {
			g.logger.Debug("generation attempt too ambiguous",
				"attempt", attempt,
				"acceptable", len(s.acceptable),
			)
			continue
		}

		p := &Puzzle{
			Params:     params,
			Active:     sel.Active,
			Inactive:   sel.Inactive,
			Pile:       append([]card.Card(nil), s.pile...),
			Acceptable: s.acceptable,
			Decoys:     s.decoys,
			Attempts:   attempt,
		}
		g.logger.Info("puzzle generated",
			"serial", params.Serial,
			"attempts", attempt,
			"pile", card.Join(p.Pile, " "),
			"acceptable", len(p.Acceptable),
			"decoys", len(p.Decoys),
		)
		return p, nil
	}

	return nil, &GenerationError{
		Code:     ErrCodeAttemptsExhausted,
		Message:  "no puzzle satisfies the rule constraints",
		Attempts: g.maxAttempts,
	}
}

// search is one backtracking run. The pile slice is owned by the search;
// every push in recurse is matched by a pop before the call returns false.
type search struct {
	rng      *rand.Rand
	active   []rules.Rule
	inactive []rules.Rule

	pile []card.Card
	used card.Set

	acceptable []card.Card
	decoys     []card.Card
}

func newSearch(rng *rand.Rand, sel rules.Selection) *search {
	return &search{
		rng:      rng,
		active:   sel.Active,
		inactive: sel.Inactive,
		pile:     make([]card.Card, 0, PileSize),
		used:     card.NewSet(),
	}
}

func (s *search) push(c card.Card) {
	s.pile = append(s.pile, c)
	s.used.Put(c)
}

func (s *search) pop() {
	last := s.pile[len(s.pile)-1]
	s.pile = s.pile[:len(s.pile)-1]
	s.used.Remove(last)
}

// permissible lists unused cards satisfying every active rule after the
// current pile, in universe order.
func (s *search) permissible() []card.Card {
	var out []card.Card
	for i := 0; i < card.DeckSize; i++ {
		c := card.FromIndex(i)
		if s.used.Has(c) {
			continue
		}
		if rules.AllHold(s.active, c, s.pile) {
			out = append(out, c)
		}
	}
	return out
}

func (s *search) recurse() bool {
	candidates := s.permissible()

	// The final card must leave every inactive rule visibly broken somewhere
	// in the pile, or the player could not rule it out.
	if len(s.pile) == PileSize-1 {
		kept := candidates[:0]
		for _, c := range candidates {
			if s.breaksAllInactive(c) {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	if len(s.pile) == PileSize {
		if len(candidates) == 0 {
			return false
		}
		decoys := nearMisses(s.active, s.pile, card.NewSet(candidates...))
		if len(decoys) < MinDecoys {
			return false
		}
		s.acceptable = candidates
		s.decoys = decoys
		return true
	}

	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, c := range candidates {
		s.push(c)
		if s.recurse() {
			return true
		}
		s.pop()
	}
	return false
}

// breaksAllInactive reports whether appending next to the pile produces at
// least one violating adjacent pair for every inactive rule.
func (s *search) breaksAllInactive(next card.Card) bool {
	for _, r := range s.inactive {
		broken := false
		for i := 0; i < len(s.pile) && !broken; i++ {
			following := next
			if i < len(s.pile)-1 {
				following = s.pile[i+1]
			}
			broken = !r.Holds(following, s.pile[:i+1])
		}
		if !broken {
			return false
		}
	}
	return true
}

// nearMisses lists cards outside pile and acceptable that satisfy all but
// one active rule after the pile, in universe order.
func nearMisses(active []rules.Rule, pile []card.Card, acceptable card.Set) []card.Card {
	inPile := card.NewSet(pile...)
	var out []card.Card
	for i := 0; i < card.DeckSize; i++ {
		c := card.FromIndex(i)
		if inPile.Has(c) || acceptable.Has(c) {
			continue
		}
		if rules.CountHolding(active, c, pile) == len(active)-1 {
			out = append(out, c)
		}
	}
	return out
}
