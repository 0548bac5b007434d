// Package timer runs delayed, cancellable per-game tasks.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Purpose string

const (
	LobbyExpiry      Purpose = "lobby_expiry"
	RoundTimeout     Purpose = "round_timeout"
	DisconnectExpiry Purpose = "disconnect_expiry"
)

// Key identifies a scheduled task. Round is zero unless Purpose is RoundTimeout.
type Key struct {
	GameID  string
	Purpose Purpose
	Round   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d", k.GameID, k.Purpose, k.Round)
}

type Task func(ctx context.Context)

// Scheduler runs task once after delay. Scheduling an existing key replaces
// the pending task.
type Scheduler interface {
	Schedule(key Key, delay time.Duration, task Task)
}

// Supervisor is the production Scheduler. Stop cancels pending tasks and
// waits for running ones.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	mu      sync.Mutex
	pending map[Key]*time.Timer
	wg      sync.WaitGroup
}

func NewSupervisor(parent context.Context, log *zap.Logger) *Supervisor {
	ctx, cancel := context.WithCancel(parent)
	return &Supervisor{
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		pending: make(map[Key]*time.Timer),
	}
}

func (s *Supervisor) Schedule(key Key, delay time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	if old, ok := s.pending[key]; ok && old.Stop() {
		s.wg.Done()
	}

	s.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		if s.pending[key] == t {
			delete(s.pending, key)
		}
		s.mu.Unlock()
		s.run(key, task)
	})
	s.pending[key] = t
}

func (s *Supervisor) run(key Key, task Task) {
	if s.ctx.Err() != nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("timer task panicked", zap.Stringer("key", key), zap.Any("panic", r))
		}
	}()
	s.log.Debug("timer fired", zap.Stringer("key", key))
	task(s.ctx)
}

// Pending reports how many tasks have not fired yet.
func (s *Supervisor) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.cancel()
	for key, t := range s.pending {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.pending, key)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
