// Package lock holds the process-local Locker used when no shared lock
// service is configured, for example a single binary on SQLite.
package lock

import (
	"context"
	"sync"
)

// Memory is a non-blocking key set guarded by a mutex. It only excludes
// holders inside the same process.
type Memory struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

func NewMemory() *Memory {
	return &Memory{held: make(map[int64]struct{})}
}

func (m *Memory) TryLock(ctx context.Context, key int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[key]; ok {
		return false, nil
	}
	m.held[key] = struct{}{}
	return true, nil
}

func (m *Memory) Unlock(_ context.Context, key int64) error {
	m.mu.Lock()
	delete(m.held, key)
	m.mu.Unlock()
	return nil
}
