// Package cache defines the idempotent seen/mark contract used by the
// indexing pipeline's filter_cached stage to skip previously-indexed
// nodes.
package cache

import (
	"context"

	"github.com/google/uuid"

	"github.com/loomctl/loom/node"
)

// Cache reports whether a Node has already been indexed, and marks it
// as seen. Implementations need only durability commensurate with
// "at-least-once" for nodes: a cache failure is non-fatal and is
// treated as a cache miss by callers.
type Cache interface {
	// Seen reports whether id has previously been marked.
	Seen(ctx context.Context, id uuid.UUID) (bool, error)
	// Mark records id as seen. Marking an already-seen id is a no-op.
	Mark(ctx context.Context, id uuid.UUID) error
	// Name identifies the cache backend, for logging.
	Name() string
}

// NodeSeen is a convenience wrapper over Cache.Seen keyed by a Node's
// content id rather than a raw uuid.
func NodeSeen(ctx context.Context, c Cache, n *node.Node) (bool, error) {
	return c.Seen(ctx, n.ID())
}

// MarkNode is a convenience wrapper over Cache.Mark keyed by a Node's
// content id.
func MarkNode(ctx context.Context, c Cache, n *node.Node) error {
	return c.Mark(ctx, n.ID())
}
