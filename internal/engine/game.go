package engine

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
)

// forfeitPenalty is charged to an abandoning seat on top of the make-up rounds.
const forfeitPenalty = 24

func NewGame(id, joinCode, playerName, token1, token2 string, now time.Time) *Game {
	return &Game{
		ID:        id,
		JoinCode:  joinCode,
		Seat1:     Player{Name: playerName, Token: token1},
		Seat2:     Player{Token: token2},
		State:     StateWaiting,
		CreatedAt: now,
	}
}

func tokenMatches(p *Player, token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(p.Token), []byte(token)) == 1
}

// Authenticate resolves the occupied seat named playerName and checks its token.
func (g *Game) Authenticate(playerName, token string) (Seat, error) {
	for _, s := range Seats {
		p := g.Player(s)
		if p.Name == "" || p.Name != playerName {
			continue
		}
		if !tokenMatches(p, token) {
			return SeatNone, ErrInvalidToken
		}
		return s, nil
	}
	return SeatNone, ErrUnknownPlayer
}

// SeatForToken returns the seat owning token, occupied or not.
func (g *Game) SeatForToken(token string) Seat {
	for _, s := range Seats {
		if tokenMatches(g.Player(s), token) {
			return s
		}
	}
	return SeatNone
}

// Join fills the first empty seat. Filling the second seat activates the game
// and makes sure the current round exists.
func (g *Game) Join(playerName string, now time.Time) (Seat, []Event, error) {
	if g.State.Terminal() {
		return SeatNone, nil, ErrGameOver
	}
	if playerName == g.Seat1.Name || playerName == g.Seat2.Name {
		return SeatNone, nil, ErrNameTaken
	}

	seat := SeatNone
	for _, s := range Seats {
		if g.Player(s).Name == "" {
			seat = s
			break
		}
	}
	if seat == SeatNone {
		return SeatNone, nil, ErrNoSlot
	}

	p := g.Player(seat)
	p.Name = playerName
	p.DisconnectedAt = nil

	if g.Full() {
		g.State = StateActive
		if g.CurrentRound == 0 {
			g.CurrentRound = 1
		}
		g.GetOrCreateRound(g.CurrentRound, now)
	}

	return seat, []Event{PlayerJoined{
		Message:      fmt.Sprintf("%s joined the game", playerName),
		State:        g.State,
		CurrentRound: g.CurrentRound,
		Player1Name:  g.Seat1.Name,
		Player2Name:  g.Seat2.Name,
	}}, nil
}

// Choose records a seat's choice for the current round and resolves the round
// once both choices are in.
func (g *Game) Choose(roundNumber int, playerName, token string, choice Choice, now time.Time) ([]Event, error) {
	if g.State != StateActive {
		return nil, ErrGameNotActive
	}
	if !choice.Valid() {
		return nil, ErrInvalidChoice
	}
	seat, err := g.Authenticate(playerName, token)
	if err != nil {
		return nil, err
	}
	if roundNumber < 1 || roundNumber > MaxRounds {
		return nil, ErrInvalidRound
	}
	if roundNumber != g.CurrentRound {
		return nil, ErrRoundNotCurrent
	}

	r := g.GetOrCreateRound(roundNumber, now)
	if err := r.SetChoice(seat, choice); err != nil {
		return nil, err
	}

	if !r.IsComplete() {
		return []Event{ChoiceRecorded{
			Message:    fmt.Sprintf("%s made a choice for round %d", playerName, roundNumber),
			Round:      roundNumber,
			PlayerName: playerName,
		}}, nil
	}

	// Deltas are computed exactly once, here, when the second choice lands.
	r.Delta1, r.Delta2 = Resolve(r.Choice1, r.Choice2, r.Number)
	g.Seat1.Score += r.Delta1
	g.Seat2.Score += r.Delta2
	g.CurrentRound = roundNumber

	events := []Event{RoundCompleted{
		Message: fmt.Sprintf("Round %d completed.", roundNumber),
		Round:   roundNumber,
		Choice1: r.Choice1,
		Choice2: r.Choice2,
		Score1:  g.Seat1.Score,
		Score2:  g.Seat2.Score,
	}}

	if roundNumber < MaxRounds {
		next := g.GetOrCreateRound(roundNumber+1, now)
		g.CurrentRound = next.Number
		return append(events, NextRoundStarted{
			Message: fmt.Sprintf("Round %d started!", next.Number),
			Round:   next.Number,
		}), nil
	}

	g.finish(now)
	return append(events, GameFinished{
		Message: fmt.Sprintf("Game over! All %d rounds completed.", MaxRounds),
		State:   g.State,
		Score1:  g.Seat1.Score,
		Score2:  g.Seat2.Score,
	}), nil
}

// Abandon forfeits the game on behalf of an authenticated seat.
func (g *Game) Abandon(playerName, token string, now time.Time) ([]Event, error) {
	if g.State != StateActive {
		return nil, ErrGameNotActive
	}
	seat, err := g.Authenticate(playerName, token)
	if err != nil {
		return nil, err
	}
	return g.forfeit(seat, now), nil
}

// forfeit plays out every remaining round as a loss for seat, then applies the
// flat penalty.
func (g *Game) forfeit(seat Seat, now time.Time) []Event {
	quitter := g.Player(seat)
	opponent := g.Player(seat.Other())
	name := quitter.Name

	for g.CurrentRound < MaxRounds {
		g.CurrentRound++
		// The multiplier doubles once currentRound was 8 before this step.
		m := Multiplier(g.CurrentRound)
		r := g.GetOrCreateRound(g.CurrentRound, now)
		loss, win := -6*m, 6*m
		if seat == Seat1 {
			r.Delta1, r.Delta2 = loss, win
		} else {
			r.Delta1, r.Delta2 = win, loss
		}
		quitter.Score += loss
		opponent.Score += win
	}
	quitter.Score -= forfeitPenalty

	g.State = StateAbandoned
	g.FinishedAt = &now

	return []Event{Abandoned{
		Message:    fmt.Sprintf("%s abandoned the game.", name),
		PlayerName: name,
		State:      g.State,
		Score1:     g.Seat1.Score,
		Score2:     g.Seat2.Score,
	}}
}

// RoundTimeout resolves an idle round. startedAt must match the round's
// creation time; a round discarded and recreated since scheduling is left alone.
// It reports false when nothing changed.
func (g *Game) RoundTimeout(roundNumber int, startedAt, now time.Time) ([]Event, bool) {
	if g.State != StateActive {
		return nil, false
	}
	r := g.Round(roundNumber)
	if r == nil || !r.CreatedAt.Equal(startedAt) {
		return nil, false
	}

	switch {
	case r.Choice1 == ChoiceUnset && r.Choice2 == ChoiceUnset:
		g.Seat1.Score = 0
		g.Seat2.Score = 0
		g.finish(now)
		return []Event{NoChoicesMade{
			Message: fmt.Sprintf("Game ended: no choices made by either player in round %d.", roundNumber),
			Round:   roundNumber,
			State:   g.State,
			Score1:  g.Seat1.Score,
			Score2:  g.Seat2.Score,
		}}, true
	case r.Choice1 == ChoiceUnset:
		return g.forfeit(Seat1, now), true
	case r.Choice2 == ChoiceUnset:
		return g.forfeit(Seat2, now), true
	default:
		return nil, false
	}
}

// Disconnect vacates a seat. An unfinished last round is discarded so it can
// be replayed after the player returns.
func (g *Game) Disconnect(playerName, token string, now time.Time) ([]Event, error) {
	if g.State == StateWaiting || g.State.Terminal() {
		return nil, ErrGameNotActive
	}
	seat, err := g.Authenticate(playerName, token)
	if errors.Is(err, ErrUnknownPlayer) {
		// A vacated seat has no name any more; recognise it by token.
		if s := g.SeatForToken(token); s != SeatNone && g.Player(s).DisconnectedAt != nil {
			return nil, ErrAlreadyDisconnected
		}
	}
	if err != nil {
		return nil, err
	}
	p := g.Player(seat)
	if p.DisconnectedAt != nil {
		return nil, ErrAlreadyDisconnected
	}

	if last := g.LastRound(); last != nil && !last.IsComplete() {
		g.removeRound(last.Number)
	}

	p.Name = ""
	p.DisconnectedAt = &now
	if g.Player(seat.Other()).Name != "" {
		g.State = StatePaused
	} else {
		g.finish(now)
	}

	return []Event{PlayerDisconnected{
		Message:    fmt.Sprintf("%s left the game. Waiting for them to join back...", playerName),
		PlayerName: playerName,
		State:      g.State,
	}}, nil
}

// DisconnectExpired reports the first seat of a paused game that has been gone
// longer than grace.
func (g *Game) DisconnectExpired(now time.Time, grace time.Duration) (Event, bool) {
	if g.State != StatePaused {
		return nil, false
	}
	for _, s := range Seats {
		at := g.Player(s).DisconnectedAt
		if at == nil || now.Sub(*at) <= grace {
			continue
		}
		return GameExpired{
			Message: fmt.Sprintf("%s has been disconnected for more than %s. Game will be deleted.", s.Role(), grace),
			Seat:    s,
			State:   StateFinished,
		}, true
	}
	return nil, false
}

// LobbyExpired reports whether a lobby never got its second player.
func (g *Game) LobbyExpired() bool {
	return g.State == StateWaiting && g.CurrentRound < 1
}

// CheckDeletable allows deletion of a waiting game by either seat's token.
func (g *Game) CheckDeletable(token string) error {
	if g.State != StateWaiting {
		return ErrNotDeletable
	}
	if g.SeatForToken(token) == SeatNone {
		return ErrInvalidToken
	}
	return nil
}

func (g *Game) finish(now time.Time) {
	g.State = StateFinished
	g.FinishedAt = &now
}
