// Package inflight provides domain.ActionGuard implementations that keep a
// viewer from running the same action twice at once.
package inflight

import (
	"context"
	"sync"

	"github.com/metinatakli/seat-reservation-web/internal/domain"
)

// Memory guards actions within a single process.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

func (m *Memory) Acquire(_ context.Context, key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.held[key]; ok {
		return nil, domain.ErrActionInFlight
	}

	m.held[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.held, key)
			m.mu.Unlock()
		})
	}

	return release, nil
}
