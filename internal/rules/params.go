package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pointoforder/internal/card"
)

// ErrInvalidSerial is returned when seed data cannot produce parameters.
var ErrInvalidSerial = errors.New("invalid serial")

// MinSerialLength is the shortest serial that carries every seed position.
const MinSerialLength = 5

// SuitSet is a bit set of suits.
type SuitSet uint8

// SuitsOf builds a set from suits.
func SuitsOf(suits ...card.Suit) SuitSet {
	var s SuitSet
	for _, su := range suits {
		s |= 1 << su
	}
	return s
}

// Has reports whether s contains su.
func (s SuitSet) Has(su card.Suit) bool {
	return s&(1<<su) != 0
}

// Suits lists the members in suit order.
func (s SuitSet) Suits() []card.Suit {
	var out []card.Suit
	for su := card.Suit(0); su < card.NumSuits; su++ {
		if s.Has(su) {
			out = append(out, su)
		}
	}
	return out
}

func (s SuitSet) String() string {
	var b strings.Builder
	for i, su := range s.Suits() {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(su.String())
	}
	return b.String()
}

// Suit-transition tables indexed by [first is letter][second is letter].
// Row i lists the suits allowed to follow suit i.
var transitionTables = [2][2][card.NumSuits]SuitSet{
	{ // first is digit
		{ // second is digit: 32;03;10;21
			SuitsOf(card.Diamonds, card.Clubs),
			SuitsOf(card.Spades, card.Diamonds),
			SuitsOf(card.Hearts, card.Spades),
			SuitsOf(card.Clubs, card.Hearts),
		},
		{ // second is letter: 12;23;30;01
			SuitsOf(card.Hearts, card.Clubs),
			SuitsOf(card.Clubs, card.Diamonds),
			SuitsOf(card.Diamonds, card.Spades),
			SuitsOf(card.Spades, card.Hearts),
		},
	},
	{ // first is letter
		{ // second is digit: 03;10;21;32
			SuitsOf(card.Spades, card.Diamonds),
			SuitsOf(card.Hearts, card.Spades),
			SuitsOf(card.Clubs, card.Hearts),
			SuitsOf(card.Diamonds, card.Clubs),
		},
		{ // second is letter: 01;12;23;30
			SuitsOf(card.Spades, card.Hearts),
			SuitsOf(card.Hearts, card.Clubs),
			SuitsOf(card.Clubs, card.Diamonds),
			SuitsOf(card.Diamonds, card.Spades),
		},
	},
}

// Params are the per-session rule parameters. They never change after
// ParamsFromSerial returns.
type Params struct {
	Serial   string                 `json:"serial"`
	Allowed  [card.NumSuits]SuitSet `json:"allowed"`
	Modulus  int                    `json:"modulus"`
	Distance int                    `json:"distance"`
}

// ParamsFromSerial derives session parameters from a serial number.
//
// Characters 0 and 1 select the suit-transition table by being letters or
// digits. Characters 3 and 4 give the divisibility modulus (3..5) and the
// rank distance (2..4) as ((c - 'A' + 1) mod 3) + base. Letters may be
// given in either case; Params.Serial holds the upper-case form.
func ParamsFromSerial(serial string) (Params, error) {
	serial = strings.ToUpper(serial)
	if len(serial) < MinSerialLength {
		return Params{}, fmt.Errorf("%w: %q is shorter than %d characters", ErrInvalidSerial, serial, MinSerialLength)
	}
	for i := 0; i < len(serial); i++ {
		if !isLetter(serial[i]) && !isDigit(serial[i]) {
			return Params{}, fmt.Errorf("%w: %q has non-alphanumeric character at position %d", ErrInvalidSerial, serial, i)
		}
	}
	if !isLetter(serial[3]) || !isLetter(serial[4]) {
		return Params{}, fmt.Errorf("%w: %q must have letters at positions 4 and 5", ErrInvalidSerial, serial)
	}

	first, second := 0, 0
	if isLetter(serial[0]) {
		first = 1
	}
	if isLetter(serial[1]) {
		second = 1
	}

	return Params{
		Serial:   serial,
		Allowed:  transitionTables[first][second],
		Modulus:  (int(serial[3])-'A'+1)%3 + 3,
		Distance: (int(serial[4])-'A'+1)%3 + 2,
	}, nil
}

func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
