package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomctl/loom/cache"
	"github.com/loomctl/loom/node"
	"github.com/loomctl/loom/pipeline"
)

func nodeWithChunk(chunk string) *node.Node {
	return node.NewBuilder(chunk).Build()
}

func TestSimpleRun(t *testing.T) {
	loader := pipeline.NewSliceLoader(
		pipeline.Ok(nodeWithChunk("a")),
		pipeline.Ok(nodeWithChunk("b")),
	)
	store := pipeline.NewMemoryStore()

	identity := pipeline.TransformerFunc(func(n *node.Node) (*node.Node, error) { return n, nil })

	err := pipeline.FromLoader(context.Background(), loader).
		Then(identity).
		ThenStoreWith(store).
		Run()
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	_, ok := store.Get(nodeWithChunk("a").ID())
	assert.True(t, ok)

	// Second run against the same upsert-capable store must leave it
	// unchanged.
	err = pipeline.FromLoader(context.Background(), pipeline.NewSliceLoader(
		pipeline.Ok(nodeWithChunk("a")),
		pipeline.Ok(nodeWithChunk("b")),
	)).Then(identity).ThenStoreWith(store).Run()
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestSkippingErrors(t *testing.T) {
	loader := pipeline.NewSliceLoader(pipeline.Ok(nodeWithChunk("a")))
	store := pipeline.NewMemoryStore()

	failing := pipeline.TransformerFunc(func(n *node.Node) (*node.Node, error) {
		return nil, errors.New("boom")
	})

	err := pipeline.FromLoader(context.Background(), loader).
		Then(failing).
		FilterErrors().
		ThenStoreWith(store).
		Run()
	require.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestErrorsShortCircuitRun(t *testing.T) {
	loader := pipeline.NewSliceLoader(pipeline.Ok(nodeWithChunk("a")))
	store := pipeline.NewMemoryStore()

	failing := pipeline.TransformerFunc(func(n *node.Node) (*node.Node, error) {
		return nil, errors.New("boom")
	})

	err := pipeline.FromLoader(context.Background(), loader).
		Then(failing).
		ThenStoreWith(store).
		Run()
	require.Error(t, err)
	var pErr *pipeline.Error
	require.True(t, errors.As(err, &pErr))
}

func TestConcurrentCallsWithSimpleTransformer(t *testing.T) {
	loader := pipeline.NewSliceLoader(
		pipeline.Ok(nodeWithChunk("a")),
		pipeline.Ok(nodeWithChunk("b")),
		pipeline.Ok(nodeWithChunk("c")),
	)
	store := pipeline.NewMemoryStore()

	transform := pipeline.TransformerFunc(func(n *node.Node) (*node.Node, error) {
		return node.NewBuilder("transformed-" + n.Chunk).Build(), nil
	})

	err := pipeline.FromLoader(context.Background(), loader).
		WithConcurrency(3).
		Then(transform).
		ThenStoreWith(store).
		Run()
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
}

func TestArbitraryClosureAsTransformer(t *testing.T) {
	loader := pipeline.NewSliceLoader(pipeline.Ok(nodeWithChunk("a")))
	store := pipeline.NewMemoryStore()

	err := pipeline.FromLoader(context.Background(), loader).
		Then(pipeline.TransformerFunc(func(n *node.Node) (*node.Node, error) {
			return node.NewBuilder("transformed").Build(), nil
		})).
		ThenStoreWith(store).
		Run()
	require.NoError(t, err)

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "transformed", all[0].Chunk)
}

func TestArbitraryClosureAsBatchTransformer(t *testing.T) {
	loader := pipeline.NewSliceLoader(pipeline.Ok(nodeWithChunk("a")))
	store := pipeline.NewMemoryStore()

	batch := pipeline.BatchTransformerFunc(func(nodes []*node.Node) <-chan pipeline.Result {
		out := make(chan pipeline.Result, len(nodes))
		for range nodes {
			out <- pipeline.Ok(node.NewBuilder("transformed").Build())
		}
		close(out)
		return out
	})

	err := pipeline.FromLoader(context.Background(), loader).
		ThenInBatch(batch).
		ThenStoreWith(store).
		Run()
	require.NoError(t, err)

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "transformed", all[0].Chunk)
}

func TestFilterClosure(t *testing.T) {
	loader := pipeline.NewSliceLoader(
		pipeline.Ok(nodeWithChunk("keep")),
		pipeline.Ok(nodeWithChunk("skip")),
		pipeline.Ok(nodeWithChunk("keep too")),
	)
	store := pipeline.NewMemoryStore()

	err := pipeline.FromLoader(context.Background(), loader).
		Filter(func(r pipeline.Result) bool {
			return r.Err != nil || r.Node.Chunk != "skip"
		}).
		ThenStoreWith(store).
		Run()
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestSplitAndMerge(t *testing.T) {
	loader := pipeline.NewSliceLoader(
		pipeline.Ok(node.NewBuilder("default").WithPath("a.txt").Build()),
		pipeline.Ok(nodeWithChunk("will go left")),
		pipeline.Ok(node.NewBuilder("default").WithPath("b.txt").Build()),
	)
	store := pipeline.NewMemoryStore()

	p := pipeline.FromLoader(context.Background(), loader)
	left, right := p.SplitBy(func(r pipeline.Result) bool {
		return r.Err == nil && r.Node.Chunk == "will go left"
	})

	left = left.Then(pipeline.TransformerFunc(func(n *node.Node) (*node.Node, error) {
		return node.NewBuilder("left").Build(), nil
	}))
	right = right.Then(pipeline.TransformerFunc(func(n *node.Node) (*node.Node, error) {
		return node.NewBuilder("right").WithPath(n.Path).Build(), nil
	}))

	err := left.Merge(right).ThenStoreWith(store).Run()
	require.NoError(t, err)

	var leftCount, rightCount int
	for _, n := range store.All() {
		switch n.Chunk {
		case "left":
			leftCount++
		case "right":
			rightCount++
		}
	}
	assert.Equal(t, 1, leftCount)
	assert.Equal(t, 2, rightCount)
}

func TestFilterCachedSkipsSeenNodes(t *testing.T) {
	mem := cache.NewMemory()
	a := nodeWithChunk("a")
	_ = cache.MarkNode(context.Background(), mem, a)

	loader := pipeline.NewSliceLoader(
		pipeline.Ok(a),
		pipeline.Ok(nodeWithChunk("b")),
	)
	store := pipeline.NewMemoryStore()

	err := pipeline.FromLoader(context.Background(), loader).
		FilterCached(mem).
		ThenStoreWith(store).
		Run()
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	_, ok := store.Get(nodeWithChunk("b").ID())
	assert.True(t, ok)
}

func TestNoStorageConfiguredIsAnError(t *testing.T) {
	loader := pipeline.NewSliceLoader(pipeline.Ok(nodeWithChunk("a")))
	err := pipeline.FromLoader(context.Background(), loader).Run()
	require.Error(t, err)
}

func TestThenChunkSplitsIntoMultipleNodes(t *testing.T) {
	loader := pipeline.NewSliceLoader(pipeline.Ok(nodeWithChunk("L1\nL2\nL3")))
	store := pipeline.NewMemoryStore()

	lines := pipeline.ChunkTransformerFunc(func(ctx context.Context, n *node.Node) <-chan pipeline.Result {
		out := make(chan pipeline.Result, 3)
		for i := 0; i < 3; i++ {
			out <- pipeline.Ok(node.NewBuilder(n.Chunk).WithChunkIndex(i).Build())
		}
		close(out)
		return out
	})

	err := pipeline.FromLoader(context.Background(), loader).
		ThenChunk(lines).
		ThenStoreWith(store).
		Run()
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
}
