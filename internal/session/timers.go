package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/store"
	"github.com/DoyleJ11/redblue-backend/internal/timer"
)

// lobbyExpired deletes a lobby nobody joined in time.
func (s *Service) lobbyExpired(ctx context.Context, gameID string) {
	log := s.log.With(zap.String("game_id", gameID), zap.String("purpose", string(timer.LobbyExpiry)))
	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.load(ctx, gameID)
	if err != nil {
		if !errors.Is(err, engine.ErrGameNotFound) {
			log.Error("lobby expiry: load failed", zap.Error(err))
		}
		return
	}
	if !g.LobbyExpired() {
		return
	}
	if err := s.store.Delete(ctx, gameID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("lobby expiry: delete failed", zap.Error(err))
		return
	}
	log.Info("destroyed lobby due to inactivity")
}

// roundTimedOut settles a round still open when its timer fires.
func (s *Service) roundTimedOut(ctx context.Context, gameID string, roundNumber int, startedAt time.Time) {
	_, events, err := s.mutate(ctx, gameID, func(g *engine.Game, now time.Time) ([]engine.Event, error) {
		events, changed := g.RoundTimeout(roundNumber, startedAt, now)
		if !changed {
			return nil, errUnchanged
		}
		return events, nil
	})
	switch {
	case errors.Is(err, errUnchanged), errors.Is(err, engine.ErrGameNotFound):
		return
	case err != nil:
		s.log.Error("round timeout failed",
			zap.String("game_id", gameID),
			zap.Int("round", roundNumber),
			zap.Error(err),
		)
		return
	}
	s.log.Info("round timed out",
		zap.String("game_id", gameID),
		zap.Int("round", roundNumber),
		zap.String("event", string(events[0].Kind())),
	)
}

// disconnectExpired deletes a paused game whose vacated seat stayed empty
// past the grace period.
func (s *Service) disconnectExpired(ctx context.Context, gameID string) {
	log := s.log.With(zap.String("game_id", gameID), zap.String("purpose", string(timer.DisconnectExpiry)))
	unlock := s.locks.Lock(gameID)
	defer unlock()

	g, err := s.load(ctx, gameID)
	if err != nil {
		if !errors.Is(err, engine.ErrGameNotFound) {
			log.Error("disconnect expiry: load failed", zap.Error(err))
		}
		return
	}
	ev, expired := g.DisconnectExpired(s.now(), s.cfg.DisconnectGrace)
	if !expired {
		return
	}
	s.pub.Publish(gameID, ev)
	if err := s.store.Delete(ctx, gameID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Error("disconnect expiry: delete failed", zap.Error(err))
		return
	}
	log.Info("destroyed game after disconnect grace period")
}

// Resume re-arms timers for games persisted by an earlier process.
func (s *Service) Resume(ctx context.Context) error {
	now := s.now()
	armed := 0
	for page := 1; ; page++ {
		res, err := s.store.List(ctx, store.ListQuery{Page: page, PageSize: store.MaxPageSize})
		if err != nil {
			return s.translate(err)
		}
		for _, g := range res.Games {
			if s.resumeGame(g, now) {
				armed++
			}
		}
		if int64(page*store.MaxPageSize) >= res.Total {
			break
		}
	}
	s.log.Info("timers resumed", zap.Int("games", armed))
	return nil
}

func (s *Service) resumeGame(g *engine.Game, now time.Time) bool {
	switch g.State {
	case engine.StateWaiting:
		if !g.LobbyExpired() {
			return false
		}
		s.scheduleLobbyExpiry(g.ID, remaining(g.CreatedAt, s.cfg.LobbyExpiry, now))
		return true
	case engine.StateActive:
		r := g.Round(g.CurrentRound)
		if r == nil || r.IsComplete() {
			return false
		}
		s.scheduleRoundTimeoutAt(g.ID, r, remaining(r.CreatedAt, s.cfg.RoundTimeout, now))
		return true
	case engine.StatePaused:
		var latest time.Time
		for _, seat := range engine.Seats {
			if at := g.Player(seat).DisconnectedAt; at != nil && at.After(latest) {
				latest = *at
			}
		}
		s.scheduleDisconnectCheck(g.ID, remaining(latest, s.cfg.DisconnectCheckDelay, now))
		return true
	default:
		return false
	}
}

func remaining(from time.Time, d time.Duration, now time.Time) time.Duration {
	return max(from.Add(d).Sub(now), 0)
}
