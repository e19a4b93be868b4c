package rules

import (
	"fmt"
	"math/rand"

	"github.com/roach88/pointoforder/internal/card"
)

// Kind enumerates the closed pool of adjacency rules.
type Kind uint8

const (
	// SuitTransition requires the next suit to be allowed after the last suit.
	SuitTransition Kind = iota + 1
	// Divisibility requires (rank+1) to alternate between divisible by the
	// modulus and not.
	Divisibility
	// RankDistance requires consecutive ranks to be Distance or Distance+1
	// apart, counting around the wrap from King to Ace.
	RankDistance
)

// PoolSize is the number of rules in the pool.
const PoolSize = 3

var kindNames = map[Kind]string{
	SuitTransition: "suit-transition",
	Divisibility:   "divisibility",
	RankDistance:   "rank-distance",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a rule name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Rule is one adjacency predicate with its resolved parameters. Only the
// fields relevant to Kind are set.
type Rule struct {
	Kind     Kind                   `json:"kind"`
	Allowed  [card.NumSuits]SuitSet `json:"allowed,omitempty"`
	Modulus  int                    `json:"modulus,omitempty"`
	Distance int                    `json:"distance,omitempty"`
}

// Pool returns the three rules resolved against p, in Kind order.
func Pool(p Params) [PoolSize]Rule {
	return [PoolSize]Rule{
		{Kind: SuitTransition, Allowed: p.Allowed},
		{Kind: Divisibility, Modulus: p.Modulus},
		{Kind: RankDistance, Distance: p.Distance},
	}
}

// Holds evaluates the rule for candidate following history. Only the last
// card of history matters; an empty history places no constraint.
func (r Rule) Holds(candidate card.Card, history []card.Card) bool {
	if len(history) == 0 {
		return true
	}
	return r.Follows(candidate, history[len(history)-1])
}

// Follows evaluates the rule for candidate placed directly after last.
func (r Rule) Follows(candidate, last card.Card) bool {
	switch r.Kind {
	case SuitTransition:
		return r.Allowed[last.Suit].Has(candidate.Suit)
	case Divisibility:
		if r.Modulus <= 0 {
			return false
		}
		return ((int(candidate.Rank)+1)%r.Modulus == 0) != ((int(last.Rank)+1)%r.Modulus == 0)
	case RankDistance:
		this, prev := int(candidate.Rank), int(last.Rank)
		for i := 0; i < 2; i++ {
			if this == (prev+r.Distance+i)%card.NumRanks ||
				this == ((prev-r.Distance-i)%card.NumRanks+card.NumRanks)%card.NumRanks {
				return true
			}
		}
		return false
	}
	return false
}

// Describe renders the rule for a human reader.
func (r Rule) Describe() string {
	switch r.Kind {
	case SuitTransition:
		s := "allowed suits:"
		for su := card.Suit(0); su < card.NumSuits; su++ {
			s += fmt.Sprintf(" %s→%s", su, r.Allowed[su])
		}
		return s
	case Divisibility:
		return fmt.Sprintf("ranks alternate between divisible by %d and not", r.Modulus)
	case RankDistance:
		return fmt.Sprintf("consecutive ranks differ by %d or %d, with wraparound", r.Distance, r.Distance+1)
	}
	return r.Kind.String()
}

func (r Rule) String() string {
	return r.Kind.String()
}

// CountHolding returns how many of rs hold for candidate after history.
func CountHolding(rs []Rule, candidate card.Card, history []card.Card) int {
	n := 0
	for _, r := range rs {
		if r.Holds(candidate, history) {
			n++
		}
	}
	return n
}

// AllHold reports whether every rule in rs holds.
func AllHold(rs []Rule, candidate card.Card, history []card.Card) bool {
	for _, r := range rs {
		if !r.Holds(candidate, history) {
			return false
		}
	}
	return true
}

// Selection partitions the pool into active and inactive rules.
type Selection struct {
	Active   []Rule `json:"active"`
	Inactive []Rule `json:"inactive"`
}

// Select draws numActive rules uniformly from pool as the active set.
func Select(rng *rand.Rand, pool [PoolSize]Rule, numActive int) Selection {
	if numActive > PoolSize {
		numActive = PoolSize
	}
	order := rng.Perm(PoolSize)
	sel := Selection{
		Active:   make([]Rule, 0, numActive),
		Inactive: make([]Rule, 0, PoolSize-numActive),
	}
	for i, idx := range order {
		if i < numActive {
			sel.Active = append(sel.Active, pool[idx])
		} else {
			sel.Inactive = append(sel.Inactive, pool[idx])
		}
	}
	return sel
}

// Kinds lists the kinds of rs in order.
func Kinds(rs []Rule) []Kind {
	out := make([]Kind, len(rs))
	for i, r := range rs {
		out[i] = r.Kind
	}
	return out
}
