package card

import "strings"

// Token vocabularies accepted when naming ranks and suits in commands.
// Lookups are case-insensitive; callers normalise Unicode beforehand.
var rankTokens = map[string]Rank{
	"a": Ace, "ace": Ace, "1": Ace,
	"2": Two, "two": Two,
	"3": Three, "three": Three,
	"4": Four, "four": Four,
	"5": Five, "five": Five,
	"6": Six, "six": Six,
	"7": Seven, "seven": Seven,
	"8": Eight, "eight": Eight,
	"9": Nine, "nine": Nine,
	"10": Ten, "ten": Ten,
	"j": Jack, "jack": Jack,
	"q": Queen, "queen": Queen,
	"k": King, "king": King,
}

var suitTokens = map[string]Suit{
	"s": Spades, "spade": Spades, "spades": Spades, "♠": Spades, "♤": Spades,
	"h": Hearts, "heart": Hearts, "hearts": Hearts, "♥": Hearts, "♡": Hearts,
	"c": Clubs, "club": Clubs, "clubs": Clubs, "♣": Clubs, "♧": Clubs,
	"d": Diamonds, "diamond": Diamonds, "diamonds": Diamonds, "♦": Diamonds, "♢": Diamonds,
}

// ParseRank maps a rank name or abbreviation to a Rank.
func ParseRank(tok string) (Rank, bool) {
	r, ok := rankTokens[strings.ToLower(tok)]
	return r, ok
}

// ParseSuit maps a suit name, abbreviation or symbol to a Suit.
func ParseSuit(tok string) (Suit, bool) {
	s, ok := suitTokens[strings.ToLower(tok)]
	return s, ok
}
