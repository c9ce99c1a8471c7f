package guard

import (
	"context"
	"sync"
)

// Memory is an in-process Guard. Suitable for a single-instance
// deployment or tests; multi-instance deployments need the Redis guard.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

// Acquire grants the guard unless the user already holds it. It never
// blocks.
func (m *Memory) Acquire(_ context.Context, userID string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[userID]; ok {
		return nil, ErrHeld
	}
	m.held[userID] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, userID)
			m.mu.Unlock()
		})
	}
	return release, nil
}
