package engine

import "encoding/json"

type EventKind string

const (
	EvtPlayerJoined       EventKind = "PlayerJoined"
	EvtChoiceRecorded     EventKind = "ChoiceRecorded"
	EvtRoundCompleted     EventKind = "RoundCompleted"
	EvtNextRoundStarted   EventKind = "NextRoundStarted"
	EvtGameFinished       EventKind = "GameFinished"
	EvtNoChoicesMade      EventKind = "NoChoicesMade"
	EvtAbandoned          EventKind = "Abandoned"
	EvtPlayerDisconnected EventKind = "PlayerDisconnected"
	EvtGameExpired        EventKind = "GameExpired"
	EvtClientRelay        EventKind = "ClientRelay"
)

/*
	Join       -> PlayerJoined
	Choose     -> ChoiceRecorded, or RoundCompleted -> NextRoundStarted | GameFinished
	Timeout    -> NoChoicesMade, or the Abandon chain for the idle seat
	Abandon    -> Abandoned
	Disconnect -> PlayerDisconnected, later GameExpired if the seat never returns
*/

// Event is a state change published to a game's subscribers.
type Event interface {
	Kind() EventKind
}

type PlayerJoined struct {
	Message      string `json:"message"`
	State        State  `json:"game_state"`
	CurrentRound int    `json:"current_round"`
	Player1Name  string `json:"player1_name"`
	Player2Name  string `json:"player2_name"`
}

type ChoiceRecorded struct {
	Message    string `json:"message"`
	Round      int    `json:"round_number"`
	PlayerName string `json:"player_name"`
}

type RoundCompleted struct {
	Message string `json:"message"`
	Round   int    `json:"round_number"`
	Choice1 Choice `json:"player1_choice"`
	Choice2 Choice `json:"player2_choice"`
	Score1  int    `json:"player1_score"`
	Score2  int    `json:"player2_score"`
}

type NextRoundStarted struct {
	Message string `json:"message"`
	Round   int    `json:"next_round"`
}

type GameFinished struct {
	Message string `json:"message"`
	State   State  `json:"game_state"`
	Score1  int    `json:"player1_score"`
	Score2  int    `json:"player2_score"`
}

type NoChoicesMade struct {
	Message string `json:"message"`
	Round   int    `json:"round_number"`
	State   State  `json:"game_state"`
	Score1  int    `json:"player1_score"`
	Score2  int    `json:"player2_score"`
}

type Abandoned struct {
	Message    string `json:"message"`
	PlayerName string `json:"player_name"`
	State      State  `json:"game_state"`
	Score1     int    `json:"player1_score"`
	Score2     int    `json:"player2_score"`
}

type PlayerDisconnected struct {
	Message    string `json:"message"`
	PlayerName string `json:"player_name"`
	State      State  `json:"game_state"`
}

type GameExpired struct {
	Message string `json:"message"`
	Seat    Seat   `json:"seat"`
	State   State  `json:"game_state"`
}

// ClientRelay carries a client frame re-broadcast verbatim to the game.
type ClientRelay struct {
	Payload json.RawMessage `json:"payload"`
}

func (PlayerJoined) Kind() EventKind       { return EvtPlayerJoined }
func (ChoiceRecorded) Kind() EventKind     { return EvtChoiceRecorded }
func (RoundCompleted) Kind() EventKind     { return EvtRoundCompleted }
func (NextRoundStarted) Kind() EventKind   { return EvtNextRoundStarted }
func (GameFinished) Kind() EventKind       { return EvtGameFinished }
func (NoChoicesMade) Kind() EventKind      { return EvtNoChoicesMade }
func (Abandoned) Kind() EventKind          { return EvtAbandoned }
func (PlayerDisconnected) Kind() EventKind { return EvtPlayerDisconnected }
func (GameExpired) Kind() EventKind        { return EvtGameExpired }
func (ClientRelay) Kind() EventKind        { return EvtClientRelay }

func ContainsEvent(events []Event, kind EventKind) bool {
	for _, event := range events {
		if event.Kind() == kind {
			return true
		}
	}
	return false
}
