// Package bridge accepts text commands from an automation channel and turns
// them into plays on a running session.
//
// The only command is
//
//	play <ranks> of <suits>
//
// where ranks and suits are slash-separated tokens such as "play 10/j of
// hearts/♠". Input is NFKC-normalised and case-folded before parsing, so
// full-width characters and emoji presentation suits are accepted.
package bridge

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/pointoforder/internal/card"
)

// ErrMalformedCommand is returned for text that is not a valid play command.
// A malformed command never affects the session.
var ErrMalformedCommand = errors.New("malformed play command")

const (
	verbPlay = "play"
	wordOf   = "of"
)

// Command is a parsed play command. A card matches when its rank is one of
// Ranks and its suit is one of Suits.
type Command struct {
	Ranks []card.Rank `json:"ranks"`
	Suits []card.Suit `json:"suits"`
}

// Matches reports whether c satisfies the command.
func (cmd Command) Matches(c card.Card) bool {
	return containsRank(cmd.Ranks, c.Rank) && containsSuit(cmd.Suits, c.Suit)
}

// String renders the command in canonical form, e.g. "play A/10 of ♥/♠".
func (cmd Command) String() string {
	ranks := make([]string, len(cmd.Ranks))
	for i, r := range cmd.Ranks {
		ranks[i] = r.String()
	}
	suits := make([]string, len(cmd.Suits))
	for i, s := range cmd.Suits {
		suits[i] = s.String()
	}
	return fmt.Sprintf("%s %s %s %s", verbPlay, strings.Join(ranks, "/"), wordOf, strings.Join(suits, "/"))
}

var folder = cases.Fold()

// normalize applies NFKC, drops emoji variation selectors and case-folds.
func normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.Map(func(r rune) rune {
		if r == '\ufe0e' || r == '\ufe0f' {
			return -1
		}
		return r
	}, text)
	return folder.String(text)
}

// Parse reads a play command. Any deviation from the grammar, including an
// unknown rank or suit token, yields an error wrapping ErrMalformedCommand.
func Parse(text string) (Command, error) {
	fields := strings.Fields(normalize(text))
	if len(fields) == 0 || fields[0] != verbPlay {
		return Command{}, fmt.Errorf("%w: expected %q", ErrMalformedCommand, verbPlay)
	}

	of := -1
	for i, f := range fields {
		if f == wordOf {
			of = i
			break
		}
	}
	if of < 2 || of == len(fields)-1 {
		return Command{}, fmt.Errorf("%w: expected \"play <ranks> of <suits>\"", ErrMalformedCommand)
	}

	// Spaces around slashes are tolerated: "a / 10" reads as "a/10".
	rankList := strings.Join(fields[1:of], "")
	suitList := strings.Join(fields[of+1:], "")

	var cmd Command
	for _, tok := range strings.Split(rankList, "/") {
		r, ok := card.ParseRank(tok)
		if !ok {
			return Command{}, fmt.Errorf("%w: unknown rank %q", ErrMalformedCommand, tok)
		}
		if !containsRank(cmd.Ranks, r) {
			cmd.Ranks = append(cmd.Ranks, r)
		}
	}
	for _, tok := range strings.Split(suitList, "/") {
		s, ok := card.ParseSuit(tok)
		if !ok {
			return Command{}, fmt.Errorf("%w: unknown suit %q", ErrMalformedCommand, tok)
		}
		if !containsSuit(cmd.Suits, s) {
			cmd.Suits = append(cmd.Suits, s)
		}
	}
	return cmd, nil
}

func containsRank(rs []card.Rank, r card.Rank) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}
	return false
}

func containsSuit(ss []card.Suit, s card.Suit) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
