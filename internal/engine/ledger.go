package engine

import (
	"slices"
	"time"
)

// Round returns round n, or nil when it has not been created.
func (g *Game) Round(n int) *Round {
	for _, r := range g.Rounds {
		if r.Number == n {
			return r
		}
	}
	return nil
}

// GetOrCreateRound returns round n, appending a fresh one with both choices
// unset when absent. Rounds stay ordered by number.
func (g *Game) GetOrCreateRound(n int, now time.Time) *Round {
	if r := g.Round(n); r != nil {
		return r
	}
	r := &Round{Number: n, CreatedAt: now}
	g.Rounds = append(g.Rounds, r)
	slices.SortFunc(g.Rounds, func(a, b *Round) int { return a.Number - b.Number })
	return r
}

// LastRound returns the highest-numbered round, or nil for an empty ledger.
func (g *Game) LastRound() *Round {
	if len(g.Rounds) == 0 {
		return nil
	}
	return g.Rounds[len(g.Rounds)-1]
}

func (g *Game) removeRound(n int) {
	g.Rounds = slices.DeleteFunc(g.Rounds, func(r *Round) bool { return r.Number == n })
}

func (r *Round) Choice(s Seat) Choice {
	switch s {
	case Seat1:
		return r.Choice1
	case Seat2:
		return r.Choice2
	default:
		return ChoiceUnset
	}
}

// SetChoice records a seat's choice; a seat chooses at most once per round.
func (r *Round) SetChoice(s Seat, c Choice) error {
	if !c.Valid() {
		return ErrInvalidChoice
	}
	var slot *Choice
	switch s {
	case Seat1:
		slot = &r.Choice1
	case Seat2:
		slot = &r.Choice2
	default:
		return ErrUnknownPlayer
	}
	if *slot != ChoiceUnset {
		return ErrAlreadyChosen
	}
	*slot = c
	return nil
}

func (r *Round) IsComplete() bool {
	return r.Choice1 != ChoiceUnset && r.Choice2 != ChoiceUnset
}
