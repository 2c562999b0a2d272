package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomctl/loom/cache"
	"github.com/loomctl/loom/node"
)

func TestMemorySeenMark(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	n := node.NewBuilder("hello").Build()

	seen, err := cache.NodeSeen(ctx, c, n)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, cache.MarkNode(ctx, c, n))

	seen, err = cache.NodeSeen(ctx, c, n)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryMarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	n := node.NewBuilder("hello").Build()

	require.NoError(t, cache.MarkNode(ctx, c, n))
	require.NoError(t, cache.MarkNode(ctx, c, n))

	seen, err := cache.NodeSeen(ctx, c, n)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestMemoryReset(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	n := node.NewBuilder("hello").Build()
	require.NoError(t, cache.MarkNode(ctx, c, n))

	c.Reset()

	seen, err := cache.NodeSeen(ctx, c, n)
	require.NoError(t, err)
	assert.False(t, seen)
}
