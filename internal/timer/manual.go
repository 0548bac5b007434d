package timer

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// Manual is a Scheduler that only runs tasks when told to.
type Manual struct {
	mu    sync.Mutex
	tasks map[Key]scheduled
}

type scheduled struct {
	delay time.Duration
	task  Task
}

func NewManual() *Manual {
	return &Manual{tasks: make(map[Key]scheduled)}
}

func (m *Manual) Schedule(key Key, delay time.Duration, task Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[key] = scheduled{delay: delay, task: task}
}

// Delay returns the delay key was scheduled with.
func (m *Manual) Delay(key Key) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.tasks[key]
	return s.delay, ok
}

// Fire runs and removes the task for key. It reports false when none is pending.
func (m *Manual) Fire(ctx context.Context, key Key) bool {
	m.mu.Lock()
	s, ok := m.tasks[key]
	delete(m.tasks, key)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.task(ctx)
	return true
}

// Keys lists pending keys in a stable order.
func (m *Manual) Keys() []Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]Key, 0, len(m.tasks))
	for k := range m.tasks {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		return cmp.Or(
			cmp.Compare(a.GameID, b.GameID),
			cmp.Compare(a.Purpose, b.Purpose),
			cmp.Compare(a.Round, b.Round),
		)
	})
	return keys
}

func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

