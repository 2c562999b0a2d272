package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process, sync.Map-backed Cache. It is the reference
// implementation used by pipeline tests and is safe for concurrent use
// by multiple pipeline stage goroutines.
type Memory struct {
	seen sync.Map // uuid.UUID -> struct{}
}

// NewMemory returns an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Seen(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.seen.Load(id)
	return ok, nil
}

func (m *Memory) Mark(_ context.Context, id uuid.UUID) error {
	m.seen.Store(id, struct{}{})
	return nil
}

func (m *Memory) Name() string { return "memory" }

// Reset clears every marked id. Intended for tests.
func (m *Memory) Reset() {
	m.seen.Range(func(key, _ any) bool {
		m.seen.Delete(key)
		return true
	})
}
