// Package pipeline implements the streaming indexing pipeline: a typed
// linear composition over a lazy, concurrent sequence of Results that
// loads, transforms, chunks, embeds, and persists Nodes.
package pipeline

import (
	"context"

	"github.com/loomctl/loom/node"
)

// Result is one element of a pipeline stream: either a Node that
// successfully reached this point, or the error that removed it from
// the stream. A stage must not observe both set.
type Result struct {
	Node *node.Node
	Err  error
}

// Ok wraps n as a successful Result.
func Ok(n *node.Node) Result { return Result{Node: n} }

// Errored wraps err as a failed Result.
func Errored(err error) Result { return Result{Err: err} }

// Loader produces the initial stream of Nodes for a pipeline.
type Loader interface {
	IntoStream(ctx context.Context) <-chan Result
}

// SyncLoader is an optional capability a Loader may also implement for
// synchronous pre-inspection, e.g. in tests.
type SyncLoader interface {
	Iter(ctx context.Context) ([]*node.Node, error)
}

// Transformer maps one Node to one Node.
type Transformer interface {
	TransformNode(ctx context.Context, n *node.Node) (*node.Node, error)
}

// TransformerFunc adapts a plain function to a Transformer, so
// arbitrary closures are first-class stages.
type TransformerFunc func(*node.Node) (*node.Node, error)

func (f TransformerFunc) TransformNode(_ context.Context, n *node.Node) (*node.Node, error) {
	return f(n)
}

// BatchTransformer maps a batch of Nodes to a stream of zero or more
// Results.
type BatchTransformer interface {
	BatchTransform(ctx context.Context, nodes []*node.Node) <-chan Result
}

// BatchTransformerFunc adapts a plain function to a BatchTransformer.
type BatchTransformerFunc func([]*node.Node) <-chan Result

func (f BatchTransformerFunc) BatchTransform(_ context.Context, nodes []*node.Node) <-chan Result {
	return f(nodes)
}

// ChunkTransformer maps one Node to zero or more Nodes, typically
// splitting it and inheriting metadata into each child.
type ChunkTransformer interface {
	TransformNode(ctx context.Context, n *node.Node) <-chan Result
}

// ChunkTransformerFunc adapts a plain function to a ChunkTransformer.
type ChunkTransformerFunc func(context.Context, *node.Node) <-chan Result

func (f ChunkTransformerFunc) TransformNode(ctx context.Context, n *node.Node) <-chan Result {
	return f(ctx, n)
}

// Store is a persistence backend. BatchSize returning 0 means the
// store is not batching and Store is used instead of BatchStore.
type Store interface {
	Setup(ctx context.Context) error
	BatchSize() int
	Store(ctx context.Context, n *node.Node) error
	BatchStore(ctx context.Context, nodes []*node.Node) error
	Name() string
}

// The following are optional capabilities a Transformer, BatchTransformer,
// or ChunkTransformer may implement to override pipeline-level defaults.
// Plain closures (TransformerFunc etc.) do not implement them, so they
// always run at the pipeline's default concurrency and batch size.
type concurrencyAware interface {
	Concurrency() int
}

type batchSizeAware interface {
	BatchSize() int
}

type named interface {
	Name() string
}

func resolveConcurrency(v any, def int) int {
	if ca, ok := v.(concurrencyAware); ok {
		if n := ca.Concurrency(); n > 0 {
			return n
		}
	}
	return def
}

func resolveBatchSize(v any, def int) int {
	if ba, ok := v.(batchSizeAware); ok {
		if n := ba.BatchSize(); n > 0 {
			return n
		}
	}
	return def
}

func stageName(v any, def string) string {
	if n, ok := v.(named); ok {
		if name := n.Name(); name != "" {
			return name
		}
	}
	return def
}
