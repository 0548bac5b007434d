// Package memstore keeps games in process memory.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	games map[string]*engine.Game
	codes map[string]string // join code -> game id
}

func New() *Store {
	return &Store{
		games: make(map[string]*engine.Game),
		codes: make(map[string]string),
	}
}

func (s *Store) Create(ctx context.Context, g *engine.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codes[g.JoinCode]; taken {
		return store.ErrCodeTaken
	}
	s.games[g.ID] = g.Clone()
	s.codes[g.JoinCode] = g.ID
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*engine.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return g.Clone(), nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (*engine.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.games[id].Clone(), nil
}

func (s *Store) Update(ctx context.Context, id string, fn store.UpdateFunc) (*engine.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.games[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	// fn works on a copy so a failed update leaves the stored game untouched.
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.games[id] = next
	return next.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.codes, g.JoinCode)
	delete(s.games, id)
	return nil
}

func (s *Store) List(ctx context.Context, q store.ListQuery) (store.Page, error) {
	if err := ctx.Err(); err != nil {
		return store.Page{}, err
	}
	q = q.Normalize()

	s.mu.RLock()
	matched := make([]*engine.Game, 0, len(s.games))
	for _, g := range s.games {
		if q.State == "" || g.State == q.State {
			matched = append(matched, g.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *engine.Game) int {
		aActive, bActive := a.State == engine.StateActive, b.State == engine.StateActive
		if aActive != bActive {
			if aActive {
				return -1
			}
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	page := store.Page{Total: int64(len(matched))}
	start := min(q.Offset(), len(matched))
	end := min(start+q.PageSize, len(matched))
	page.Games = matched[start:end]
	return page, nil
}

func (s *Store) Close() error { return nil }
