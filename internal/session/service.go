// Package session drives game lifecycles: it serializes actions per game,
// persists each transition atomically, schedules follow-up timers and
// publishes the resulting events.
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

// Publisher delivers events to a game's subscribers without blocking.
type Publisher interface {
	Publish(gameID string, events ...engine.Event)
}

type IDGenerator interface {
	GameID() string
	Token() string
	JoinCode() (string, error)
}

type Config struct {
	LobbyExpiry          time.Duration
	RoundTimeout         time.Duration
	DisconnectGrace      time.Duration
	DisconnectCheckDelay time.Duration
}

type Service struct {
	store store.Store
	sched timer.Scheduler
	pub   Publisher
	ids   IDGenerator
	cfg   Config
	log   *zap.Logger
	now   func() time.Time
	locks *gameLocks
}

type Option func(*Service)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(st store.Store, sched timer.Scheduler, pub Publisher, ids IDGenerator, cfg Config, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store: st,
		sched: sched,
		pub:   pub,
		ids:   ids,
		cfg:   cfg,
		log:   log,
		now:   wallClock,
		locks: newGameLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// wallClock keeps microsecond precision so timestamps survive a Postgres
// round trip unchanged.
func wallClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// errUnchanged aborts an update that turned out to be a no-op.
var errUnchanged = errors.New("unchanged")

const maxCodeAttempts = 10

type transition func(g *engine.Game, now time.Time) ([]engine.Event, error)

// mutate applies fn to the game under its lock inside one store update and
// publishes the events it produced.
func (s *Service) mutate(ctx context.Context, gameID string, fn transition) (*engine.Game, []engine.Event, error) {
	unlock := s.locks.Lock(gameID)
	defer unlock()

	now := s.now()
	var events []engine.Event
	g, err := s.store.Update(ctx, gameID, func(g *engine.Game) error {
		ev, err := fn(g, now)
		events = ev
		return err
	})
	if err != nil {
		return nil, nil, s.translate(err)
	}
	s.pub.Publish(gameID, events...)
	return g, events, nil
}

func (s *Service) translate(err error) error {
	var domain *engine.Error
	switch {
	case errors.Is(err, errUnchanged), errors.As(err, &domain):
		return err
	case errors.Is(err, store.ErrNotFound):
		return engine.ErrGameNotFound
	default:
		return engine.Internal("storage failure", err)
	}
}

func (s *Service) load(ctx context.Context, gameID string) (*engine.Game, error) {
	g, err := s.store.Get(ctx, gameID)
	if err != nil {
		return nil, s.translate(err)
	}
	return g, nil
}

func (s *Service) scheduleRoundTimeout(g *engine.Game) {
	r := g.Round(g.CurrentRound)
	if g.State != engine.StateActive || r == nil || r.IsComplete() {
		return
	}
	s.scheduleRoundTimeoutAt(g.ID, r, s.cfg.RoundTimeout)
}

func (s *Service) scheduleRoundTimeoutAt(gameID string, r *engine.Round, delay time.Duration) {
	number, startedAt := r.Number, r.CreatedAt
	key := timer.Key{GameID: gameID, Purpose: timer.RoundTimeout, Round: number}
	s.sched.Schedule(key, delay, func(ctx context.Context) {
		s.roundTimedOut(ctx, gameID, number, startedAt)
	})
}

func (s *Service) scheduleLobbyExpiry(gameID string, delay time.Duration) {
	s.sched.Schedule(timer.Key{GameID: gameID, Purpose: timer.LobbyExpiry}, delay, func(ctx context.Context) {
		s.lobbyExpired(ctx, gameID)
	})
}

func (s *Service) scheduleDisconnectCheck(gameID string, delay time.Duration) {
	s.sched.Schedule(timer.Key{GameID: gameID, Purpose: timer.DisconnectExpiry}, delay, func(ctx context.Context) {
		s.disconnectExpired(ctx, gameID)
	})
}
