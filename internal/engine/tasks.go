package engine

import "github.com/roach88/pointoforder/internal/card"

// countdown watches a revealed round. It stops quietly once the puzzle is
// solved, records a timeout if cards stay up too long, and turns the cards
// back over after any mistake.
type countdown struct {
	m       *Machine
	elapsed int
}

func (c *countdown) Step(tick int64) bool {
	m := c.m
	switch m.state {
	case StateSolved:
		m.countdown = nil
		return true

	case StateRevealed:
		c.elapsed++
		if c.elapsed < m.timing.TimeoutTicks {
			return false
		}
		m.state = StateResolving
		m.mistakes++
		m.emit(Event{Kind: EventMistake, Reason: ReasonTimeout, Slot: -1})
		m.logger.Info("round timed out", "tick", tick, "mistakes", m.mistakes)
	}

	m.countdown = nil
	m.conceal()
	return true
}

// flipTask turns one card over. The slot stays locked from scheduling until
// the flip completes, unless a newer flip has taken the lock over.
type flipTask struct {
	m         *Machine
	slot      int
	up        bool
	wait      int
	remaining int
}

func (t *flipTask) Step(tick int64) bool {
	if t.wait > 0 {
		t.wait--
		return false
	}
	t.remaining--
	if t.remaining > 0 {
		return false
	}

	m := t.m
	if !t.up {
		m.faceUp[t.slot] = false
	}
	if m.lockOwner[t.slot] == t {
		m.lockOwner[t.slot] = nil
	}
	if !t.up && t.slot == NumSlots-1 && m.state == StateResolving {
		m.state = StateIdle
		m.emit(Event{Kind: EventIdle, Slot: -1})
		m.logger.Debug("cards face down", "tick", tick)
	}
	return true
}

// playTask finishes an automated play once every slot has unlocked.
type playTask struct {
	m     *Machine
	match func(card.Card) bool
}

func (t *playTask) Step(int64) bool {
	m := t.m
	if m.state != StateRevealed {
		return true
	}
	for slot := 0; slot < NumSlots; slot++ {
		if m.Locked(slot) {
			return false
		}
	}
	for slot, c := range m.round.Cards {
		if t.match(c) {
			m.Press(slot)
			return true
		}
	}
	m.logger.Debug("automated play matched no card", "cards", card.Join(m.round.Cards[:], " "))
	return true
}
