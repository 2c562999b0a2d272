package pipeline

import (
	"context"

	"github.com/loomctl/loom/model"
	"github.com/loomctl/loom/node"
)

// Embed is the embedding stage: a BatchTransformer that turns every
// Node's Embeddables() into vectors. All embeddable texts across the
// whole batch, for every node and every tag, are sent to the model in
// a single call, then the resulting vectors are distributed back by
// position. A failure embedding any text fails the whole batch: no
// Node in a failed batch gets a partial Vectors/SparseVectors map.
type Embed struct {
	model       model.EmbeddingModel
	sparseModel model.SparseEmbeddingModel
	concurrency int
	batchSize   int
}

// NewEmbed returns an Embed transformer backed by the given dense
// embedding model. Use WithSparseModel to also populate
// Node.SparseVectors.
func NewEmbed(m model.EmbeddingModel) *Embed {
	return &Embed{model: m}
}

// WithSparseModel computes sparse vectors for every embeddable using
// m, storing them in Node.SparseVectors under the same EmbeddedField
// keys as the dense vectors.
func (e *Embed) WithSparseModel(m model.SparseEmbeddingModel) *Embed {
	e.sparseModel = m
	return e
}

// WithConcurrency overrides the pipeline's default batch concurrency
// for this stage.
func (e *Embed) WithConcurrency(n int) *Embed {
	e.concurrency = n
	return e
}

// WithBatchSize overrides the pipeline's default batch size for this
// stage.
func (e *Embed) WithBatchSize(n int) *Embed {
	e.batchSize = n
	return e
}

// Concurrency, BatchSize, and Name let the pipeline's ThenInBatch pick
// up this stage's overrides and name instead of falling back to its
// own defaults.
func (e *Embed) Concurrency() int { return e.concurrency }
func (e *Embed) BatchSize() int   { return e.batchSize }
func (e *Embed) Name() string     { return "embed" }

// BatchTransform implements BatchTransformer.
func (e *Embed) BatchTransform(ctx context.Context, nodes []*node.Node) <-chan Result {
	out := make(chan Result, len(nodes))
	defer close(out)

	// fields[i] holds the EmbeddedField tags produced by nodes[i], in
	// the same order their text was appended to texts, so the flat
	// vectors/sparse results can be walked back into per-node maps by
	// position alone.
	fields := make([][]node.EmbeddedField, len(nodes))
	var texts []string
	for i, n := range nodes {
		embeddables := n.Embeddables()
		fields[i] = make([]node.EmbeddedField, len(embeddables))
		for j, eb := range embeddables {
			fields[i][j] = eb.Field
			texts = append(texts, eb.Text)
		}
	}

	if len(texts) == 0 {
		for _, n := range nodes {
			out <- Ok(n)
		}
		return out
	}

	vectors, err := e.model.Embed(ctx, texts)
	if err != nil {
		return failBatch(out, nodes, err)
	}

	var sparse []model.SparseVector
	if e.sparseModel != nil {
		sparse, err = e.sparseModel.SparseEmbed(ctx, texts)
		if err != nil {
			return failBatch(out, nodes, err)
		}
	}

	idx := 0
	for i, n := range nodes {
		if n.Vectors == nil {
			n.Vectors = make(map[node.EmbeddedField]node.Embedding, len(fields[i]))
		}
		if sparse != nil && n.SparseVectors == nil {
			n.SparseVectors = make(map[node.EmbeddedField]node.SparseEmbedding, len(fields[i]))
		}
		for _, f := range fields[i] {
			n.Vectors[f] = node.Embedding(vectors[idx])
			if sparse != nil {
				n.SparseVectors[f] = node.SparseEmbedding{
					Indices: sparse[idx].Indices,
					Values:  sparse[idx].Values,
				}
			}
			idx++
		}
		out <- Ok(n)
	}
	return out
}

func failBatch(out chan Result, nodes []*node.Node, err error) <-chan Result {
	wrapped := wrapStage("embed", err)
	for range nodes {
		out <- Errored(wrapped)
	}
	return out
}
