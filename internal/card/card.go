// Package card models the 52-card deck the puzzle is built from.
//
// A Card is a comparable value. The universe is ordered by index
// rank*4 + suit, so Universe()[0] is the ace of spades and Universe()[51]
// the king of diamonds.
package card

import (
	"fmt"
	"strings"
)

// Suit is one of the four French suits.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Clubs
	Diamonds
)

// NumSuits is the number of suits in the deck.
const NumSuits = 4

func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	}
	return "?"
}

// Name returns the lower-case English suit name.
func (s Suit) Name() string {
	switch s {
	case Spades:
		return "spades"
	case Hearts:
		return "hearts"
	case Clubs:
		return "clubs"
	case Diamonds:
		return "diamonds"
	}
	return "unknown"
}

// Red reports whether the suit is printed in red.
func (s Suit) Red() bool {
	return s == Hearts || s == Diamonds
}

// Rank is a card rank from Ace (0) to King (12).
type Rank uint8

const (
	Ace Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// NumRanks is the number of ranks per suit.
const NumRanks = 13

// DeckSize is the size of the card universe.
const DeckSize = NumRanks * NumSuits

var rankNames = [NumRanks]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

func (r Rank) String() string {
	if int(r) >= NumRanks {
		return "?"
	}
	return rankNames[r]
}

// Card is an immutable (rank, suit) pair.
//
// Cards marshal as text ("10♥"), so JSON and YAML documents read naturally.
type Card struct {
	Rank Rank
	Suit Suit
}

// New builds a card. It does not validate its arguments; use Valid.
func New(r Rank, s Suit) Card {
	return Card{Rank: r, Suit: s}
}

// FromIndex returns the card at position i of the universe.
func FromIndex(i int) Card {
	return Card{Rank: Rank(i / NumSuits), Suit: Suit(i % NumSuits)}
}

// Index returns the card's position in the universe.
func (c Card) Index() int {
	return int(c.Rank)*NumSuits + int(c.Suit)
}

// Valid reports whether the card belongs to the 52-card universe.
func (c Card) Valid() bool {
	return int(c.Rank) < NumRanks && int(c.Suit) < NumSuits
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// MarshalText renders the card with String.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid card rank=%d suit=%d", c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts anything Parse does.
func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Short returns an ASCII form such as "10h" or "As", accepted by Parse.
func (c Card) Short() string {
	return c.Rank.String() + c.Suit.Name()[:1]
}

var universe = func() [DeckSize]Card {
	var u [DeckSize]Card
	for i := range u {
		u[i] = FromIndex(i)
	}
	return u
}()

// Universe returns the full deck in index order. The slice is a fresh copy.
func Universe() []Card {
	out := make([]Card, DeckSize)
	copy(out, universe[:])
	return out
}

// Parse converts short notation ("As", "10h", "td", "Q♦") to a card.
func Parse(s string) (Card, error) {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	suit, ok := ParseSuit(string(runes[len(runes)-1]))
	if !ok {
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}
	rankTok := string(runes[:len(runes)-1])
	if strings.EqualFold(rankTok, "t") {
		rankTok = "10"
	}
	rank, ok := ParseRank(rankTok)
	if !ok {
		return Card{}, fmt.Errorf("invalid rank in card %q", s)
	}
	return New(rank, suit), nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseAll parses a list of short-notation cards.
func ParseAll(tokens []string) ([]Card, error) {
	out := make([]Card, 0, len(tokens))
	for _, t := range tokens {
		c, err := Parse(t)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Strings renders cards with String.
func Strings(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.String()
	}
	return out
}

// Join renders cards separated by sep.
func Join(cards []Card, sep string) string {
	return strings.Join(Strings(cards), sep)
}
