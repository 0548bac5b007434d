// Package store defines the persistence contract for games and their rounds.
package store

import (
	"context"
	"errors"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
)

var (
	ErrNotFound  = errors.New("game not found")
	ErrCodeTaken = errors.New("join code already in use")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type ListQuery struct {
	Page     int
	PageSize int
	State    engine.State // empty means any state
}

type Page struct {
	Games []*engine.Game
	Total int64
}

// UpdateFunc mutates a game in place. Returning an error discards every change.
type UpdateFunc func(g *engine.Game) error

// Store persists games together with their ordered rounds. Games handed in and
// out are copies; callers never share memory with the store.
type Store interface {
	Create(ctx context.Context, g *engine.Game) error
	Get(ctx context.Context, id string) (*engine.Game, error)
	GetByCode(ctx context.Context, code string) (*engine.Game, error)
	// Update reads the game, applies fn and writes game and rounds back as one
	// atomic unit.
	Update(ctx context.Context, id string, fn UpdateFunc) (*engine.Game, error)
	Delete(ctx context.Context, id string) error
	// List orders active games first, then newest first.
	List(ctx context.Context, q ListQuery) (Page, error)
	Close() error
}

// Normalize fills in paging defaults.
func (q ListQuery) Normalize() ListQuery {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
