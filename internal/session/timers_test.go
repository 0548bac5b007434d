package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/store"
	"github.com/DoyleJ11/redblue-backend/internal/timer"
)

func TestLobbyExpiry_DeletesUnjoinedLobby(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.svc.CreateGame(ctx, "Alice")
	require.NoError(t, err)

	h.clock.Advance(10 * time.Minute)
	require.True(t, h.sched.Fire(ctx, lobbyKey(created.GameID)))

	_, err = h.store.Get(ctx, created.GameID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, h.pub.kinds(created.GameID))
}

func TestLobbyExpiry_NoopOnceJoined(t *testing.T) {
	h := newHarness(t)
	m := h.startMatch(t)

	require.True(t, h.sched.Fire(context.Background(), lobbyKey(m.id)))
	assert.Equal(t, engine.StateActive, h.game(t, m.id).State)
}

func TestLobbyExpiry_NoopWhenAlreadyDeleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.svc.CreateGame(ctx, "Alice")
	require.NoError(t, err)
	require.NoError(t, h.svc.DeleteGame(ctx, created.GameID, created.Token))

	assert.True(t, h.sched.Fire(ctx, lobbyKey(created.GameID)))
}

func TestRoundTimeout_NoChoices(t *testing.T) {
	h := newHarness(t)
	m := h.startMatch(t)
	h.play(t, m, 1, engine.ChoiceRed, engine.ChoiceRed)

	h.clock.Advance(time.Minute)
	require.True(t, h.sched.Fire(context.Background(), roundKey(m.id, 2)))

	g := h.game(t, m.id)
	assert.Equal(t, engine.StateFinished, g.State)
	assert.Zero(t, g.Seat1.Score)
	assert.Zero(t, g.Seat2.Score)
	require.NotNil(t, g.FinishedAt)

	ev, ok := h.pub.last(m.id).(engine.NoChoicesMade)
	require.True(t, ok)
	assert.Equal(t, 2, ev.Round)
	assert.Equal(t, engine.StateFinished, ev.State)
}

func TestRoundTimeout_OneChoiceForfeitsIdleSeat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.startMatch(t)
	require.NoError(t, h.svc.SubmitChoice(ctx, m.id, 1, "Bob", m.bobToken, engine.ChoiceRed))

	h.clock.Advance(time.Minute)
	require.True(t, h.sched.Fire(ctx, roundKey(m.id, 1)))

	g := h.game(t, m.id)
	assert.Equal(t, engine.StateAbandoned, g.State)
	assert.Equal(t, -90, g.Seat1.Score)
	assert.Equal(t, 66, g.Seat2.Score)

	ev, ok := h.pub.last(m.id).(engine.Abandoned)
	require.True(t, ok)
	assert.Equal(t, "Alice", ev.PlayerName)
}

func TestRoundTimeout_NoopAfterRoundResolved(t *testing.T) {
	h := newHarness(t)
	m := h.startMatch(t)
	h.play(t, m, 1, engine.ChoiceBlue, engine.ChoiceRed)
	before := h.pub.kinds(m.id)

	require.True(t, h.sched.Fire(context.Background(), roundKey(m.id, 1)))

	g := h.game(t, m.id)
	assert.Equal(t, engine.StateActive, g.State)
	assert.Equal(t, 6, g.Seat1.Score)
	assert.Equal(t, before, h.pub.kinds(m.id))
}

func TestRoundTimeout_NoopWhilePaused(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.startMatch(t)
	_, err := h.svc.DisconnectPlayer(ctx, m.id, "Bob", m.bobToken)
	require.NoError(t, err)

	require.True(t, h.sched.Fire(ctx, roundKey(m.id, 1)))
	assert.Equal(t, engine.StatePaused, h.game(t, m.id).State)
}

func TestDisconnect_ReconnectWithinGrace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.startMatch(t)
	h.play(t, m, 1, engine.ChoiceBlue, engine.ChoiceRed)
	require.NoError(t, h.svc.SubmitChoice(ctx, m.id, 2, "Alice", m.aliceToken, engine.ChoiceRed))

	state, err := h.svc.DisconnectPlayer(ctx, m.id, "Bob", m.bobToken)
	require.NoError(t, err)
	assert.Equal(t, engine.StatePaused, state)

	g := h.game(t, m.id)
	assert.Empty(t, g.Seat2.Name)
	require.NotNil(t, g.Seat2.DisconnectedAt)
	assert.Nil(t, g.Round(2), "unfinished round is discarded")
	delay, ok := h.sched.Delay(disconnectKey(m.id))
	require.True(t, ok)
	assert.Equal(t, 610*time.Second, delay)

	_, err = h.svc.DisconnectPlayer(ctx, m.id, "Bob", m.bobToken)
	assert.ErrorIs(t, err, engine.ErrAlreadyDisconnected)

	h.clock.Advance(5 * time.Minute)
	joined, err := h.svc.JoinGame(ctx, m.code, "Bob")
	require.NoError(t, err)
	assert.Equal(t, engine.Seat2, joined.Seat)
	assert.Equal(t, m.bobToken, joined.Token)

	g = h.game(t, m.id)
	assert.Equal(t, engine.StateActive, g.State)
	assert.Equal(t, 6, g.Seat1.Score)
	assert.Equal(t, -6, g.Seat2.Score)
	assert.Nil(t, g.Seat2.DisconnectedAt)
	assert.Equal(t, 2, g.CurrentRound)
	require.NotNil(t, g.Round(2))
	assert.Equal(t, engine.ChoiceUnset, g.Round(2).Choice1)

	// Round two is replayable from scratch.
	h.play(t, m, 2, engine.ChoiceRed, engine.ChoiceRed)
	assert.Equal(t, 3, h.game(t, m.id).CurrentRound)

	h.clock.Advance(6 * time.Minute)
	require.True(t, h.sched.Fire(ctx, disconnectKey(m.id)))
	assert.Equal(t, engine.StateActive, h.game(t, m.id).State)
}

func TestDisconnect_RejoinArmsFreshRoundTimer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.startMatch(t)

	_, err := h.svc.DisconnectPlayer(ctx, m.id, "Alice", m.aliceToken)
	require.NoError(t, err)
	h.clock.Advance(30 * time.Second)
	_, err = h.svc.JoinGame(ctx, m.code, "Alice")
	require.NoError(t, err)

	r1 := h.game(t, m.id).Round(1)
	require.NotNil(t, r1)
	assert.True(t, r1.CreatedAt.Equal(t0.Add(30*time.Second)))

	h.clock.Advance(time.Minute)
	require.True(t, h.sched.Fire(ctx, roundKey(m.id, 1)))
	assert.Equal(t, engine.StateFinished, h.game(t, m.id).State)
}

func TestDisconnect_ExpiresAfterGrace(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.startMatch(t)
	h.play(t, m, 1, engine.ChoiceRed, engine.ChoiceRed)

	_, err := h.svc.DisconnectPlayer(ctx, m.id, "Alice", m.aliceToken)
	require.NoError(t, err)

	h.clock.Advance(610 * time.Second)
	require.True(t, h.sched.Fire(ctx, disconnectKey(m.id)))

	_, err = h.store.Get(ctx, m.id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	ev, ok := h.pub.last(m.id).(engine.GameExpired)
	require.True(t, ok)
	assert.Equal(t, engine.Seat1, ev.Seat)
	assert.Equal(t, engine.StateFinished, ev.State)
}

func TestDisconnect_CheckBeforeGraceIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.startMatch(t)
	_, err := h.svc.DisconnectPlayer(ctx, m.id, "Alice", m.aliceToken)
	require.NoError(t, err)

	h.clock.Advance(9 * time.Minute)
	require.True(t, h.sched.Fire(ctx, disconnectKey(m.id)))
	assert.Equal(t, engine.StatePaused, h.game(t, m.id).State)
}

func TestDisconnect_BothSeatsFinishes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.startMatch(t)

	_, err := h.svc.DisconnectPlayer(ctx, m.id, "Alice", m.aliceToken)
	require.NoError(t, err)
	state, err := h.svc.DisconnectPlayer(ctx, m.id, "Bob", m.bobToken)
	require.NoError(t, err)
	assert.Equal(t, engine.StateFinished, state)
}

func TestDisconnect_Rejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created, err := h.svc.CreateGame(ctx, "Alice")
	require.NoError(t, err)

	_, err = h.svc.DisconnectPlayer(ctx, created.GameID, "Alice", created.Token)
	assert.ErrorIs(t, err, engine.ErrGameNotActive)
	_, err = h.svc.DisconnectPlayer(ctx, "missing", "Alice", created.Token)
	assert.ErrorIs(t, err, engine.ErrGameNotFound)

	m := h.startMatch(t)
	_, err = h.svc.DisconnectPlayer(ctx, m.id, "Alice", m.bobToken)
	assert.ErrorIs(t, err, engine.ErrInvalidToken)
}

func TestResume_RearmsTimers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	lobby, err := h.svc.CreateGame(ctx, "Alice")
	require.NoError(t, err)
	active := h.startMatch(t)
	paused := h.startMatch(t)
	_, err = h.svc.DisconnectPlayer(ctx, paused.id, "Bob", paused.bobToken)
	require.NoError(t, err)
	finished := h.startMatch(t)
	_, err = h.svc.AbandonGame(ctx, finished.id, "Bob", finished.bobToken)
	require.NoError(t, err)

	// A restarted process starts with an empty scheduler.
	h.clock.Advance(20 * time.Second)
	fresh := New(h.store, timer.NewManual(), h.pub, h.ids, testConfig, h.svc.log, WithClock(h.clock.Now))
	sched := fresh.sched.(*timer.Manual)
	require.NoError(t, fresh.Resume(ctx))

	assert.ElementsMatch(t, []timer.Key{
		lobbyKey(lobby.GameID),
		roundKey(active.id, 1),
		disconnectKey(paused.id),
	}, sched.Keys())

	d, _ := sched.Delay(roundKey(active.id, 1))
	assert.Equal(t, 40*time.Second, d)
	d, _ = sched.Delay(lobbyKey(lobby.GameID))
	assert.Equal(t, 10*time.Minute-20*time.Second, d)
	d, _ = sched.Delay(disconnectKey(paused.id))
	assert.Equal(t, 590*time.Second, d)

	h.clock.Advance(time.Hour)
	require.True(t, sched.Fire(ctx, roundKey(active.id, 1)))
	assert.Equal(t, engine.StateFinished, h.game(t, active.id).State)
}
