package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomctl/loom/model"
	"github.com/loomctl/loom/node"
	"github.com/loomctl/loom/pipeline"
)

// stubEmbedder returns the vector {1} for every input text and records
// the texts in seen, so callers can check which texts it actually saw.
type stubEmbedder struct {
	seen []string
	err  error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.seen = append(s.seen, texts...)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func TestEmbedPerFieldProducesOneVectorPerEmbeddable(t *testing.T) {
	n := node.NewBuilder("chunk body").
		WithEmbedMode(node.PerField).
		SetMetadata("summary", "a summary").
		Build()

	embedder := &stubEmbedder{}
	embed := pipeline.NewEmbed(embedder)

	results := collect(embed.BatchTransform(context.Background(), []*node.Node{n}))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	got := results[0].Node
	assert.Equal(t, []float32{1}, []float32(got.Vectors[node.FieldChunk]))
	assert.Equal(t, []float32{1}, []float32(got.Vectors[node.FieldMetadata("summary")]))
	assert.Equal(t, map[node.EmbeddedField]struct{}{
		node.FieldChunk:              {},
		node.FieldMetadata("summary"): {},
	}, setOf(got.Vectors))
}

func TestEmbedBatchesAcrossMultipleNodes(t *testing.T) {
	a := node.NewBuilder("a").Build()
	b := node.NewBuilder("b").Build()

	embedder := &stubEmbedder{}
	embed := pipeline.NewEmbed(embedder)

	results := collect(embed.BatchTransform(context.Background(), []*node.Node{a, b}))
	require.Len(t, results, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, embedder.seen)
	assert.Equal(t, node.Embedding{1}, results[0].Node.Vectors[node.FieldCombined])
	assert.Equal(t, node.Embedding{1}, results[1].Node.Vectors[node.FieldCombined])
}

func TestEmbedFailsWholeBatchAtomically(t *testing.T) {
	a := node.NewBuilder("a").Build()
	b := node.NewBuilder("b").Build()

	embedder := &stubEmbedder{err: errors.New("rate limited")}
	embed := pipeline.NewEmbed(embedder)

	results := collect(embed.BatchTransform(context.Background(), []*node.Node{a, b}))
	require.Len(t, results, 2)
	for _, r := range results {
		require.Error(t, r.Err)
		var pErr *pipeline.Error
		require.True(t, errors.As(r.Err, &pErr))
		assert.Equal(t, "embed", pErr.Stage)
	}
	assert.Nil(t, a.Vectors)
	assert.Nil(t, b.Vectors)
}

func TestEmbedWithSparseModelPopulatesBothMaps(t *testing.T) {
	n := node.NewBuilder("chunk").Build()

	embedder := &stubEmbedder{}
	sparse := &stubSparseEmbedder{}
	embed := pipeline.NewEmbed(embedder).WithSparseModel(sparse)

	results := collect(embed.BatchTransform(context.Background(), []*node.Node{n}))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	got := results[0].Node
	assert.Equal(t, node.Embedding{1}, got.Vectors[node.FieldCombined])
	assert.Equal(t, []uint32{0}, got.SparseVectors[node.FieldCombined].Indices)
}

type stubSparseEmbedder struct{}

func (s *stubSparseEmbedder) SparseEmbed(_ context.Context, texts []string) ([]model.SparseVector, error) {
	out := make([]model.SparseVector, len(texts))
	for i := range texts {
		out[i] = model.SparseVector{Indices: []uint32{0}, Values: []float32{1}}
	}
	return out, nil
}

func collect(ch <-chan pipeline.Result) []pipeline.Result {
	var out []pipeline.Result
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func setOf(vectors map[node.EmbeddedField]node.Embedding) map[node.EmbeddedField]struct{} {
	out := make(map[node.EmbeddedField]struct{}, len(vectors))
	for k := range vectors {
		out[k] = struct{}{}
	}
	return out
}
