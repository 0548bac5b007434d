package httpapi

import (
	"time"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/session"
)

type roundView struct {
	RoundNumber   int            `json:"round_number"`
	Player1Choice *engine.Choice `json:"player1_choice"`
	Player2Choice *engine.Choice `json:"player2_choice"`
	Player1Score  int            `json:"player1_score"`
	Player2Score  int            `json:"player2_score"`
	CreatedAt     time.Time      `json:"created_at"`
}

type gameView struct {
	ID                    string       `json:"id"`
	Code                  string       `json:"code"`
	Player1Name           *string      `json:"player1_name"`
	Player2Name           *string      `json:"player2_name"`
	Player1Score          int          `json:"player1_score"`
	Player2Score          int          `json:"player2_score"`
	Player1DisconnectedAt *time.Time   `json:"player1_disconnected_at"`
	Player2DisconnectedAt *time.Time   `json:"player2_disconnected_at"`
	CurrentRound          int          `json:"current_round"`
	GameState             engine.State `json:"game_state"`
	CreatedAt             time.Time    `json:"created_at"`
	FinishedAt            *time.Time   `json:"finished_at"`
	Rounds                []roundView  `json:"rounds"`
}

type listView struct {
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	FoundGames int64      `json:"found_games"`
	Games      []gameView `json:"games"`
}

// optional renders an unset value as JSON null.
func optional[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

func newGameView(g *engine.Game) gameView {
	v := gameView{
		ID:                    g.ID,
		Code:                  g.JoinCode,
		Player1Name:           optional(g.Seat1.Name),
		Player2Name:           optional(g.Seat2.Name),
		Player1Score:          g.Seat1.Score,
		Player2Score:          g.Seat2.Score,
		Player1DisconnectedAt: g.Seat1.DisconnectedAt,
		Player2DisconnectedAt: g.Seat2.DisconnectedAt,
		CurrentRound:          g.CurrentRound,
		GameState:             g.State,
		CreatedAt:             g.CreatedAt,
		FinishedAt:            g.FinishedAt,
		Rounds:                make([]roundView, 0, len(g.Rounds)),
	}
	for _, r := range g.Rounds {
		v.Rounds = append(v.Rounds, roundView{
			RoundNumber:   r.Number,
			Player1Choice: optional(r.Choice1),
			Player2Choice: optional(r.Choice2),
			Player1Score:  r.Delta1,
			Player2Score:  r.Delta2,
			CreatedAt:     r.CreatedAt,
		})
	}
	return v
}

func newListView(l session.List) listView {
	v := listView{
		Page:       l.Page,
		PageSize:   l.PageSize,
		FoundGames: l.Total,
		Games:      make([]gameView, 0, len(l.Games)),
	}
	for _, g := range l.Games {
		v.Games = append(v.Games, newGameView(g))
	}
	return v
}
