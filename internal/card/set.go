package card

import "github.com/zyedidia/generic/mapset"

// Set is an unordered collection of cards.
type Set = mapset.Set[Card]

// NewSet returns a set holding cards.
func NewSet(cards ...Card) Set {
	s := mapset.New[Card]()
	for _, c := range cards {
		s.Put(c)
	}
	return s
}

// Sorted returns the members of s in universe order.
func Sorted(s Set) []Card {
	out := make([]Card, 0, s.Size())
	for _, c := range universe {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Contains reports whether c occurs in cards.
func Contains(cards []Card, c Card) bool {
	for _, cc := range cards {
		if cc == c {
			return true
		}
	}
	return false
}

// Distinct reports whether no card occurs twice in cards.
func Distinct(cards []Card) bool {
	seen := NewSet()
	for _, c := range cards {
		if seen.Has(c) {
			return false
		}
		seen.Put(c)
	}
	return true
}
