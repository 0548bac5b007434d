package gormstore

import (
	"time"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
)

type gameRecord struct {
	ID                    string `gorm:"primaryKey;size:36"`
	JoinCode              string `gorm:"size:16;uniqueIndex;not null"`
	Player1Name           string `gorm:"size:16"`
	Player2Name           string `gorm:"size:16"`
	Player1Token          string `gorm:"size:36;not null"`
	Player2Token          string `gorm:"size:36;not null"`
	Player1Score          int
	Player2Score          int
	Player1DisconnectedAt *time.Time
	Player2DisconnectedAt *time.Time
	State                 string `gorm:"size:16;index;not null"`
	CurrentRound          int
	CreatedAt             time.Time `gorm:"index"`
	FinishedAt            *time.Time
	Rounds                []roundRecord `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
}

func (gameRecord) TableName() string { return "games" }

type roundRecord struct {
	GameID        string `gorm:"primaryKey;size:36"`
	RoundNumber   int    `gorm:"primaryKey;autoIncrement:false"`
	Player1Choice string `gorm:"size:4"`
	Player2Choice string `gorm:"size:4"`
	Player1Delta  int
	Player2Delta  int
	CreatedAt     time.Time
}

func (roundRecord) TableName() string { return "rounds" }

func toRecord(g *engine.Game) gameRecord {
	rec := gameRecord{
		ID:                    g.ID,
		JoinCode:              g.JoinCode,
		Player1Name:           g.Seat1.Name,
		Player2Name:           g.Seat2.Name,
		Player1Token:          g.Seat1.Token,
		Player2Token:          g.Seat2.Token,
		Player1Score:          g.Seat1.Score,
		Player2Score:          g.Seat2.Score,
		Player1DisconnectedAt: g.Seat1.DisconnectedAt,
		Player2DisconnectedAt: g.Seat2.DisconnectedAt,
		State:                 string(g.State),
		CurrentRound:          g.CurrentRound,
		CreatedAt:             g.CreatedAt,
		FinishedAt:            g.FinishedAt,
	}
	rec.Rounds = toRoundRecords(g)
	return rec
}

func toRoundRecords(g *engine.Game) []roundRecord {
	out := make([]roundRecord, 0, len(g.Rounds))
	for _, r := range g.Rounds {
		out = append(out, roundRecord{
			GameID:        g.ID,
			RoundNumber:   r.Number,
			Player1Choice: string(r.Choice1),
			Player2Choice: string(r.Choice2),
			Player1Delta:  r.Delta1,
			Player2Delta:  r.Delta2,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out
}

func (rec *gameRecord) toGame() *engine.Game {
	g := &engine.Game{
		ID:       rec.ID,
		JoinCode: rec.JoinCode,
		Seat1: engine.Player{
			Name:           rec.Player1Name,
			Token:          rec.Player1Token,
			Score:          rec.Player1Score,
			DisconnectedAt: utc(rec.Player1DisconnectedAt),
		},
		Seat2: engine.Player{
			Name:           rec.Player2Name,
			Token:          rec.Player2Token,
			Score:          rec.Player2Score,
			DisconnectedAt: utc(rec.Player2DisconnectedAt),
		},
		State:        engine.State(rec.State),
		CurrentRound: rec.CurrentRound,
		CreatedAt:    rec.CreatedAt.UTC(),
		FinishedAt:   utc(rec.FinishedAt),
		Rounds:       make([]*engine.Round, 0, len(rec.Rounds)),
	}
	for _, r := range rec.Rounds {
		g.Rounds = append(g.Rounds, &engine.Round{
			Number:    r.RoundNumber,
			Choice1:   engine.Choice(r.Player1Choice),
			Choice2:   engine.Choice(r.Player2Choice),
			Delta1:    r.Player1Delta,
			Delta2:    r.Player2Delta,
			CreatedAt: r.CreatedAt.UTC(),
		})
	}
	return g
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
