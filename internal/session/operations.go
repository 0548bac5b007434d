package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/store"
)

type Created struct {
	GameID   string
	JoinCode string
	Seat     engine.Seat
	Token    string
}

type Joined struct {
	GameID string
	Seat   engine.Seat
	Token  string
	Game   *engine.Game
}

type Outcome struct {
	State  engine.State
	Score1 int
	Score2 int
}

type List struct {
	Page     int
	PageSize int
	Total    int64
	Games    []*engine.Game
}

func outcomeOf(g *engine.Game) Outcome {
	return Outcome{State: g.State, Score1: g.Seat1.Score, Score2: g.Seat2.Score}
}

// CreateGame opens a lobby with playerName in seat one.
func (s *Service) CreateGame(ctx context.Context, playerName string) (Created, error) {
	if err := engine.ValidatePlayerName(playerName); err != nil {
		return Created{}, err
	}

	for range maxCodeAttempts {
		code, err := s.ids.JoinCode()
		if err != nil {
			return Created{}, engine.Internal("failed to generate code", err)
		}
		g := engine.NewGame(s.ids.GameID(), code, playerName, s.ids.Token(), s.ids.Token(), s.now())
		err = s.store.Create(ctx, g)
		if errors.Is(err, store.ErrCodeTaken) {
			s.log.Debug("collision on code, regenerating", zap.String("code", code))
			continue
		}
		if err != nil {
			return Created{}, s.translate(err)
		}

		s.scheduleLobbyExpiry(g.ID, s.cfg.LobbyExpiry)
		s.log.Info("game created", zap.String("game_id", g.ID), zap.String("player", playerName))
		return Created{GameID: g.ID, JoinCode: code, Seat: engine.Seat1, Token: g.Seat1.Token}, nil
	}
	return Created{}, engine.Internal("failed to generate code", fmt.Errorf("%d join code collisions", maxCodeAttempts))
}

// JoinGame seats playerName in the first free seat of the game behind code.
// Returning players use it to reclaim a vacated seat.
func (s *Service) JoinGame(ctx context.Context, code, playerName string) (Joined, error) {
	if err := engine.ValidatePlayerName(playerName); err != nil {
		return Joined{}, err
	}
	found, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return Joined{}, s.translate(err)
	}

	var seat engine.Seat
	g, _, err := s.mutate(ctx, found.ID, func(g *engine.Game, now time.Time) ([]engine.Event, error) {
		st, events, err := g.Join(playerName, now)
		seat = st
		return events, err
	})
	if err != nil {
		return Joined{}, err
	}

	s.scheduleRoundTimeout(g)
	s.log.Info("player joined",
		zap.String("game_id", g.ID),
		zap.String("player", playerName),
		zap.String("role", seat.Role()),
		zap.String("state", string(g.State)),
	)
	return Joined{GameID: g.ID, Seat: seat, Token: g.Player(seat).Token, Game: g}, nil
}

// SubmitChoice records a seat's choice for the current round.
func (s *Service) SubmitChoice(ctx context.Context, gameID string, roundNumber int, playerName, token string, choice engine.Choice) error {
	g, events, err := s.mutate(ctx, gameID, func(g *engine.Game, now time.Time) ([]engine.Event, error) {
		return g.Choose(roundNumber, playerName, token, choice, now)
	})
	if err != nil {
		return err
	}

	if engine.ContainsEvent(events, engine.EvtNextRoundStarted) {
		s.scheduleRoundTimeout(g)
	}
	if engine.ContainsEvent(events, engine.EvtGameFinished) {
		s.log.Info("game finished",
			zap.String("game_id", gameID),
			zap.Int("player1_score", g.Seat1.Score),
			zap.Int("player2_score", g.Seat2.Score),
		)
	}
	return nil
}

func (s *Service) AbandonGame(ctx context.Context, gameID, playerName, token string) (Outcome, error) {
	g, _, err := s.mutate(ctx, gameID, func(g *engine.Game, now time.Time) ([]engine.Event, error) {
		return g.Abandon(playerName, token, now)
	})
	if err != nil {
		return Outcome{}, err
	}
	s.log.Info("game abandoned", zap.String("game_id", gameID), zap.String("player", playerName))
	return outcomeOf(g), nil
}

// DisconnectPlayer vacates the caller's seat and arms the expiry check.
func (s *Service) DisconnectPlayer(ctx context.Context, gameID, playerName, token string) (engine.State, error) {
	g, _, err := s.mutate(ctx, gameID, func(g *engine.Game, now time.Time) ([]engine.Event, error) {
		return g.Disconnect(playerName, token, now)
	})
	if err != nil {
		return "", err
	}
	if g.State == engine.StatePaused {
		s.scheduleDisconnectCheck(gameID, s.cfg.DisconnectCheckDelay)
	}
	s.log.Info("player disconnected",
		zap.String("game_id", gameID),
		zap.String("player", playerName),
		zap.String("state", string(g.State)),
	)
	return g.State, nil
}

// DeleteGame removes a lobby that has not started.
func (s *Service) DeleteGame(ctx context.Context, gameID, token string) error {
	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.load(ctx, gameID)
	if err != nil {
		return err
	}
	if err := g.CheckDeletable(token); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, gameID); err != nil {
		return s.translate(err)
	}
	s.log.Info("lobby deleted by request", zap.String("game_id", gameID))
	return nil
}

// GetGame returns the game to a holder of either seat token.
func (s *Service) GetGame(ctx context.Context, gameID, token string) (*engine.Game, error) {
	g, err := s.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.SeatForToken(token) == engine.SeatNone {
		return nil, engine.ErrInvalidToken
	}
	return g, nil
}

// Exists reports whether gameID is stored.
func (s *Service) Exists(ctx context.Context, gameID string) (bool, error) {
	_, err := s.load(ctx, gameID)
	if errors.Is(err, engine.ErrGameNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListGames pages through games, active ones first. An empty state matches
// every state.
func (s *Service) ListGames(ctx context.Context, page, pageSize int, state string) (List, error) {
	if page < 1 {
		return List{}, engine.ErrInvalidPage
	}
	q := store.ListQuery{Page: page, PageSize: pageSize}
	if state != "" {
		st, ok := engine.ParseState(state)
		if !ok {
			return List{}, engine.ErrInvalidState
		}
		q.State = st
	}
	q = q.Normalize()

	res, err := s.store.List(ctx, q)
	if err != nil {
		return List{}, s.translate(err)
	}
	return List{Page: q.Page, PageSize: q.PageSize, Total: res.Total, Games: res.Games}, nil
}
