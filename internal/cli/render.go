package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/engine"
	"github.com/roach88/pointoforder/internal/puzzle"
)

// palette holds the terminal colours. fatih/color disables them when
// stdout is not a terminal.
var palette = struct {
	Red, Black, Good, Bad, Info, Warn, Header, Dim *color.Color
}{
	Red:    color.New(color.FgRed, color.Bold),
	Black:  color.New(color.FgHiWhite, color.Bold),
	Good:   color.New(color.FgGreen),
	Bad:    color.New(color.FgRed),
	Info:   color.New(color.FgCyan),
	Warn:   color.New(color.FgHiYellow),
	Header: color.New(color.FgWhite, color.Bold),
	Dim:    color.New(color.FgHiBlack),
}

// cardText renders c in its suit colour.
func cardText(c card.Card) string {
	if c.Suit.Red() {
		return palette.Red.Sprint(c.String())
	}
	return palette.Black.Sprint(c.String())
}

func cardsText(cards []card.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = cardText(c)
	}
	return strings.Join(parts, " ")
}

// renderPuzzle prints the generated puzzle as tables.
func renderPuzzle(w io.Writer, id string, seed int64, p *puzzle.Puzzle) {
	palette.Header.Fprintf(w, "Session %s\n", id)
	fmt.Fprintf(w, "Serial %s, seed %d, %d attempt(s)\n\n", p.Params.Serial, seed, p.Attempts)

	rt := table.NewWriter()
	rt.SetOutputMirror(w)
	rt.SetTitle("Rules")
	rt.AppendHeader(table.Row{"Rule", "State", "Description"})
	for _, r := range p.Active {
		rt.AppendRow(table.Row{r.Kind.String(), palette.Good.Sprint("active"), r.Describe()})
	}
	for _, r := range p.Inactive {
		rt.AppendRow(table.Row{r.Kind.String(), palette.Dim.Sprint("inactive"), r.Describe()})
	}
	rt.SetStyle(table.StyleLight)
	rt.Render()
	fmt.Fprintln(w)

	ct := table.NewWriter()
	ct.SetOutputMirror(w)
	ct.SetTitle("Cards")
	ct.AppendHeader(table.Row{"Group", "Count", "Cards"})
	ct.AppendRows([]table.Row{
		{"pile", len(p.Pile), cardsText(p.Pile)},
		{"acceptable", len(p.Acceptable), cardsText(p.Acceptable)},
		{"decoys", len(p.Decoys), cardsText(p.Decoys)},
	})
	ct.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	ct.SetStyle(table.StyleLight)
	ct.Render()
}

// describeEvent renders one event for the terminal.
func describeEvent(ev engine.Event) string {
	switch ev.Kind {
	case engine.EventReveal:
		slots := make([]string, len(ev.Cards))
		for i, c := range ev.Cards {
			slots[i] = fmt.Sprintf("%d:%s", i+1, cardText(c))
		}
		return palette.Info.Sprintf("round %d: ", ev.Round) + strings.Join(slots, "  ")
	case engine.EventSuccess:
		return palette.Good.Sprintf("correct! slot %d held ", ev.Slot+1) + cardsText(ev.Cards)
	case engine.EventMistake:
		if ev.Reason == engine.ReasonTimeout {
			return palette.Bad.Sprint("mistake: time ran out")
		}
		return palette.Bad.Sprintf("mistake: slot %d held ", ev.Slot+1) + cardsText(ev.Cards)
	case engine.EventIdle:
		return palette.Dim.Sprint("cards are face down")
	}
	return string(ev.Kind)
}

// describeSnapshot renders the visible state in one line.
func describeSnapshot(s engine.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, round %d, %d mistake(s)", s.State, s.Round, s.Mistakes)
	if s.State == engine.StateRevealed {
		fmt.Fprintf(&b, ", %d tick(s) left", s.Remaining)
	}
	b.WriteString(" |")
	for i, slot := range s.Slots {
		fmt.Fprintf(&b, " %d:", i+1)
		switch {
		case slot.Card != nil:
			b.WriteString(cardText(*slot.Card))
		default:
			b.WriteString("??")
		}
		if slot.Locked {
			b.WriteString("*")
		}
	}
	return b.String()
}
