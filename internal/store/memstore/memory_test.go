package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/store"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newGame(id, code string, created time.Time) *engine.Game {
	return engine.NewGame(id, code, "Alice", "tok-1-"+id, "tok-2-"+id, created)
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := newGame("g1", "ABCDEFGHI", t0)
	require.NoError(t, s.Create(ctx, g))

	got, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, g.Clone(), got)
	assert.NotSame(t, g, got)

	byCode, err := s.GetByCode(ctx, "ABCDEFGHI")
	require.NoError(t, err)
	assert.Equal(t, "g1", byCode.ID)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetByCode(ctx, "ZZZZZZZZZ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreate_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Create(ctx, newGame("g1", "SAMECODE1", t0)))
	assert.ErrorIs(t, s.Create(ctx, newGame("g2", "SAMECODE1", t0)), store.ErrCodeTaken)
}

func TestUpdate_AppliesAndRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Create(ctx, newGame("g1", "CODE00001", t0)))

	updated, err := s.Update(ctx, "g1", func(g *engine.Game) error {
		_, _, err := g.Join("Bob", t0)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StateActive, updated.State)
	require.Len(t, updated.Rounds, 1)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "g1", func(g *engine.Game) error {
		g.State = engine.StateFinished
		g.GetOrCreateRound(2, t0)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, engine.StateActive, got.State)
	assert.Len(t, got.Rounds, 1)

	_, err = s.Update(ctx, "missing", func(*engine.Game) error { return nil })
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_FreesCode(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Create(ctx, newGame("g1", "CODE00001", t0)))
	require.NoError(t, s.Delete(ctx, "g1"))

	_, err := s.Get(ctx, "g1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "g1"), store.ErrNotFound)
	assert.NoError(t, s.Create(ctx, newGame("g2", "CODE00001", t0)))
}

func TestList_OrdersActiveFirstThenNewest(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := range 5 {
		g := newGame(fmt.Sprintf("g%d", i), fmt.Sprintf("CODE0000%d", i), t0.Add(time.Duration(i)*time.Minute))
		if i == 1 || i == 3 {
			_, _, err := g.Join("Bob", t0)
			require.NoError(t, err)
		}
		require.NoError(t, s.Create(ctx, g))
	}

	page, err := s.List(ctx, store.ListQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	ids := make([]string, 0, len(page.Games))
	for _, g := range page.Games {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"g3", "g1", "g4", "g2", "g0"}, ids)

	page, err = s.List(ctx, store.ListQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Games, 2)
	assert.Equal(t, "g4", page.Games[0].ID)

	page, err = s.List(ctx, store.ListQuery{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Games)
	assert.EqualValues(t, 5, page.Total)

	page, err = s.List(ctx, store.ListQuery{Page: 1, State: engine.StateWaiting})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
}
