package query

import "context"

// QueryTransformer rewrites a pending query before retrieval, e.g.
// expanding it into subquestions or attaching an embedding.
type QueryTransformer interface {
	TransformQuery(ctx context.Context, q *Pending) (*Pending, error)
}

// QueryTransformerFunc adapts a plain function to a QueryTransformer.
type QueryTransformerFunc func(context.Context, *Pending) (*Pending, error)

func (f QueryTransformerFunc) TransformQuery(ctx context.Context, q *Pending) (*Pending, error) {
	return f(ctx, q)
}

// ResponseTransformer rewrites a retrieved query's response before it
// is answered, e.g. summarizing the retrieved documents.
type ResponseTransformer interface {
	TransformResponse(ctx context.Context, q *Retrieved) (*Retrieved, error)
}

// ResponseTransformerFunc adapts a plain function to a ResponseTransformer.
type ResponseTransformerFunc func(context.Context, *Retrieved) (*Retrieved, error)

func (f ResponseTransformerFunc) TransformResponse(ctx context.Context, q *Retrieved) (*Retrieved, error) {
	return f(ctx, q)
}

// Answerer produces a final answer for a retrieved query.
type Answerer interface {
	Answer(ctx context.Context, q *Retrieved) (*Answered, error)
}

// AnswererFunc adapts a plain function to an Answerer.
type AnswererFunc func(context.Context, *Retrieved) (*Answered, error)

func (f AnswererFunc) Answer(ctx context.Context, q *Retrieved) (*Answered, error) {
	return f(ctx, q)
}

// SearchStrategy is a marker interface implemented by every retrieval
// strategy (SimilaritySingleEmbedding, HybridSearch, ...). It carries
// only an unexported marker method: a Retriever implementation
// pattern-matches on the
// concrete strategy type it knows how to execute, the same way the
// grounding source's backends match on a SearchStrategy generic
// parameter rather than calling a method through the interface.
type SearchStrategy interface {
	isSearchStrategy()
}

// Retriever executes a search strategy against a backend, populating a
// pending query's documents. No concrete backend (Qdrant, LanceDB,
// pgvector, ...) lives in this package; wiring one is an integration
// concern.
type Retriever interface {
	Retrieve(ctx context.Context, strategy SearchStrategy, q *Pending) (*Retrieved, error)
}

// RetrieverFunc adapts a plain function to a Retriever, for tests and
// simple backends that don't need a struct.
type RetrieverFunc func(context.Context, SearchStrategy, *Pending) (*Retrieved, error)

func (f RetrieverFunc) Retrieve(ctx context.Context, strategy SearchStrategy, q *Pending) (*Retrieved, error) {
	return f(ctx, strategy, q)
}
