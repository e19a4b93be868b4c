package puzzle

import (
	"fmt"
	"math/rand"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/rules"
)

// Puzzle is a generated session puzzle. All fields are fixed once Generate
// returns; nothing in this package mutates them afterwards.
type Puzzle struct {
	Params     rules.Params `json:"params"`
	Active     []rules.Rule `json:"active"`
	Inactive   []rules.Rule `json:"inactive"`
	Pile       []card.Card  `json:"pile"`
	Acceptable []card.Card  `json:"acceptable"`
	Decoys     []card.Card  `json:"decoys"`

	// Attempts is the number of top-level searches Generate ran.
	Attempts int `json:"attempts"`
}

// Last returns the top card of the pile.
func (p *Puzzle) Last() card.Card {
	return p.Pile[len(p.Pile)-1]
}

// IsAcceptable reports whether c legally continues the pile.
func (p *Puzzle) IsAcceptable(c card.Card) bool {
	return card.Contains(p.Acceptable, c)
}

// IsDecoy reports whether c is one of the near-miss cards.
func (p *Puzzle) IsDecoy(c card.Card) bool {
	return card.Contains(p.Decoys, c)
}

// Round is one set of four face-down candidates.
type Round struct {
	Cards   [NumChoices]card.Card `json:"cards"`
	Correct int                   `json:"correct"`
}

// CorrectCard returns the card in the correct slot.
func (r Round) CorrectCard() card.Card {
	return r.Cards[r.Correct]
}

// Deal draws a round: one acceptable card in a uniformly random slot and
// three decoys, in shuffled order, in the remaining slots. The puzzle is
// left untouched; only the draw varies between calls.
func (p *Puzzle) Deal(rng *rand.Rand) Round {
	correct := p.Acceptable[rng.Intn(len(p.Acceptable))]

	decoys := append([]card.Card(nil), p.Decoys...)
	rng.Shuffle(len(decoys), func(i, j int) {
		decoys[i], decoys[j] = decoys[j], decoys[i]
	})

	r := Round{Correct: rng.Intn(NumChoices)}
	next := 0
	for i := range r.Cards {
		if i == r.Correct {
			r.Cards[i] = correct
			continue
		}
		r.Cards[i] = decoys[next]
		next++
	}
	return r
}

// Validate checks every structural invariant of the puzzle and returns the
// first violation as an *InvariantError.
func (p *Puzzle) Validate() error {
	if len(p.Active) != NumActiveRules {
		return &InvariantError{"active-count", fmt.Sprintf("%d active rules, want %d", len(p.Active), NumActiveRules)}
	}
	if len(p.Active)+len(p.Inactive) != rules.PoolSize {
		return &InvariantError{"rule-partition", fmt.Sprintf("%d+%d rules, want %d", len(p.Active), len(p.Inactive), rules.PoolSize)}
	}
	if len(p.Pile) != PileSize {
		return &InvariantError{"pile-size", fmt.Sprintf("pile has %d cards, want %d", len(p.Pile), PileSize)}
	}
	if !card.Distinct(p.Pile) {
		return &InvariantError{"pile-distinct", card.Join(p.Pile, " ")}
	}
	for i := 1; i < len(p.Pile); i++ {
		if !rules.AllHold(p.Active, p.Pile[i], p.Pile[:i]) {
			return &InvariantError{"pile-active", fmt.Sprintf("%s after %s", p.Pile[i], p.Pile[i-1])}
		}
	}
	for _, r := range p.Inactive {
		if !violatedSomewhere(r, p.Pile) {
			return &InvariantError{"pile-inactive", fmt.Sprintf("%s holds across the whole pile", r.Kind)}
		}
	}

	if len(p.Acceptable) == 0 || len(p.Acceptable) > MaxAcceptable {
		return &InvariantError{"acceptable-size", fmt.Sprintf("%d acceptable cards", len(p.Acceptable))}
	}
	if len(p.Decoys) < MinDecoys {
		return &InvariantError{"decoy-size", fmt.Sprintf("%d decoys, want at least %d", len(p.Decoys), MinDecoys)}
	}

	inPile := card.NewSet(p.Pile...)
	acceptable := card.NewSet(p.Acceptable...)
	decoys := card.NewSet(p.Decoys...)
	for _, c := range card.Universe() {
		held := rules.CountHolding(p.Active, c, p.Pile)
		switch {
		case inPile.Has(c):
			if acceptable.Has(c) || decoys.Has(c) {
				return &InvariantError{"pile-excluded", c.String()}
			}
		case held == len(p.Active):
			if !acceptable.Has(c) || decoys.Has(c) {
				return &InvariantError{"acceptable-complete", c.String() + " misplaced"}
			}
		case held == len(p.Active)-1:
			if !decoys.Has(c) || acceptable.Has(c) {
				return &InvariantError{"decoy-complete", c.String() + " misplaced"}
			}
		default:
			if acceptable.Has(c) || decoys.Has(c) {
				return &InvariantError{"candidate-rules", c.String() + " satisfies too few active rules"}
			}
		}
	}
	if acceptable.Size() != len(p.Acceptable) || decoys.Size() != len(p.Decoys) {
		return &InvariantError{"candidate-distinct", "duplicate candidate cards"}
	}
	return nil
}

func violatedSomewhere(r rules.Rule, pile []card.Card) bool {
	for i := 1; i < len(pile); i++ {
		if !r.Holds(pile[i], pile[:i]) {
			return true
		}
	}
	return false
}
