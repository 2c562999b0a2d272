package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/loomctl/loom/node"
)

// MemoryStore is an in-memory, upsert-by-id Store. It is the only
// concrete Store shipped: a reference implementation for tests and for
// callers that don't need a real backend, since concrete vector-store
// integrations are out of scope.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]*node.Node
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[uuid.UUID]*node.Node)}
}

func (m *MemoryStore) Setup(_ context.Context) error { return nil }

// BatchSize returns 0: MemoryStore does not batch, Store is called
// per node.
func (m *MemoryStore) BatchSize() int { return 0 }

func (m *MemoryStore) Store(_ context.Context, n *node.Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[n.ID()] = n.Clone()
	return nil
}

func (m *MemoryStore) BatchStore(ctx context.Context, nodes []*node.Node) error {
	for _, n := range nodes {
		if err := m.Store(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) Name() string { return "memory" }

// Get returns the stored Node for id, if any.
func (m *MemoryStore) Get(id uuid.UUID) (*node.Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	return n, ok
}

// All returns every stored Node, in no particular order.
func (m *MemoryStore) All() []*node.Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*node.Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	return out
}

// Len returns the number of distinct node ids currently stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}
