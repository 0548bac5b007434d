package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/store"
	"github.com/DoyleJ11/redblue-backend/internal/store/memstore"
	"github.com/DoyleJ11/redblue-backend/internal/timer"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var testConfig = Config{
	LobbyExpiry:          10 * time.Minute,
	RoundTimeout:         time.Minute,
	DisconnectGrace:      10 * time.Minute,
	DisconnectCheckDelay: 610 * time.Second,
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events map[string][]engine.Event
}

func (r *recorder) Publish(gameID string, events ...engine.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[gameID] = append(r.events[gameID], events...)
}

func (r *recorder) kinds(gameID string) []engine.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.EventKind, 0, len(r.events[gameID]))
	for _, ev := range r.events[gameID] {
		out = append(out, ev.Kind())
	}
	return out
}

func (r *recorder) last(gameID string) engine.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := r.events[gameID]
	if len(evs) == 0 {
		return nil
	}
	return evs[len(evs)-1]
}

// seqIDs hands out predictable ids; queued codes are used before generated ones.
type seqIDs struct {
	mu    sync.Mutex
	n     int
	codes []string
}

func (s *seqIDs) next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

func (s *seqIDs) GameID() string { return fmt.Sprintf("game-%d", s.next()) }
func (s *seqIDs) Token() string  { return fmt.Sprintf("token-%d", s.next()) }

func (s *seqIDs) JoinCode() (string, error) {
	s.mu.Lock()
	if len(s.codes) > 0 {
		c := s.codes[0]
		s.codes = s.codes[1:]
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()
	return fmt.Sprintf("CODE%05d", s.next()), nil
}

type harness struct {
	svc   *Service
	store store.Store
	sched *timer.Manual
	pub   *recorder
	clock *fakeClock
	ids   *seqIDs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, memstore.New())
}

func newHarnessWithStore(t *testing.T, st store.Store) *harness {
	t.Helper()
	h := &harness{
		store: st,
		sched: timer.NewManual(),
		pub:   &recorder{events: make(map[string][]engine.Event)},
		clock: &fakeClock{t: t0},
		ids:   &seqIDs{},
	}
	h.svc = New(h.store, h.sched, h.pub, h.ids, testConfig, zap.NewNop(), WithClock(h.clock.Now))
	return h
}

type match struct {
	id         string
	code       string
	aliceToken string
	bobToken   string
}

// startMatch creates Alice's lobby and seats Bob, leaving round 1 open.
func (h *harness) startMatch(t *testing.T) match {
	t.Helper()
	ctx := context.Background()
	created, err := h.svc.CreateGame(ctx, "Alice")
	require.NoError(t, err)
	joined, err := h.svc.JoinGame(ctx, created.JoinCode, "Bob")
	require.NoError(t, err)
	require.Equal(t, engine.Seat2, joined.Seat)
	return match{id: created.GameID, code: created.JoinCode, aliceToken: created.Token, bobToken: joined.Token}
}

func (h *harness) play(t *testing.T, m match, round int, alice, bob engine.Choice) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.svc.SubmitChoice(ctx, m.id, round, "Alice", m.aliceToken, alice))
	require.NoError(t, h.svc.SubmitChoice(ctx, m.id, round, "Bob", m.bobToken, bob))
}

func (h *harness) game(t *testing.T, id string) *engine.Game {
	t.Helper()
	g, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	return g
}

func roundKey(id string, n int) timer.Key {
	return timer.Key{GameID: id, Purpose: timer.RoundTimeout, Round: n}
}

func lobbyKey(id string) timer.Key {
	return timer.Key{GameID: id, Purpose: timer.LobbyExpiry}
}

func disconnectKey(id string) timer.Key {
	return timer.Key{GameID: id, Purpose: timer.DisconnectExpiry}
}
