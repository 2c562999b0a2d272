package node_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomctl/loom/node"
)

func TestIDStableAcrossRuns(t *testing.T) {
	n1 := node.NewBuilder("hello world").WithPath("docs/a.md").WithOffset(12).Build()
	n2 := node.NewBuilder("hello world").WithPath("docs/a.md").WithOffset(12).Build()

	assert.Equal(t, n1.ID(), n2.ID())
}

func TestIDChangesWithContent(t *testing.T) {
	base := node.NewBuilder("hello world").WithPath("docs/a.md").Build()
	other := node.NewBuilder("hello there").WithPath("docs/a.md").Build()

	assert.NotEqual(t, base.ID(), other.ID())
}

func TestIDUnaffectedByMetadataOnlyChange(t *testing.T) {
	n := node.NewBuilder("hello world").WithPath("docs/a.md").Build()
	before := n.ID()

	withMeta := node.FromOther(n).SetMetadata("src", "x").Build()

	assert.Equal(t, before, withMeta.ID())
}

func TestEmbeddedFieldNaming(t *testing.T) {
	cases := []struct {
		field        node.EmbeddedField
		wantField    string
		wantSparse   string
	}{
		{node.FieldCombined, "combined", "combined_sparse"},
		{node.FieldChunk, "chunk", "chunk_sparse"},
		{node.FieldMetadata("summary"), "metadata:summary", "metadata:summary_sparse"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.wantField, tc.field.FieldName())
		assert.Equal(t, tc.wantSparse, tc.field.SparseFieldName())
	}
}

func TestEmbeddablesPerFieldMode(t *testing.T) {
	n := node.NewBuilder("hello").
		WithEmbedMode(node.PerField).
		SetMetadata("summary", "hi").
		Build()

	embeddables := n.Embeddables()
	require.Len(t, embeddables, 2)
	assert.Equal(t, node.FieldChunk, embeddables[0].Field)
	assert.Equal(t, "hello", embeddables[0].Text)
	assert.Equal(t, node.FieldMetadata("summary"), embeddables[1].Field)
	assert.Equal(t, "hi", embeddables[1].Text)
}

func TestEmbeddablesSingleWithMetadataMode(t *testing.T) {
	n := node.NewBuilder("hello").
		SetMetadata("src", "x").
		Build()

	embeddables := n.Embeddables()
	require.Len(t, embeddables, 1)
	assert.Equal(t, node.FieldCombined, embeddables[0].Field)
	assert.Equal(t, "src: x\nhello", embeddables[0].Text)
}

func TestEmbeddablesBothMode(t *testing.T) {
	n := node.NewBuilder("hello").
		WithEmbedMode(node.Both).
		SetMetadata("src", "x").
		Build()

	fields := map[node.EmbeddedField]bool{}
	for _, e := range n.Embeddables() {
		fields[e.Field] = true
	}
	assert.True(t, fields[node.FieldCombined])
	assert.True(t, fields[node.FieldChunk])
	assert.True(t, fields[node.FieldMetadata("src")])
}

func TestIntendedEmbeddedFieldsMatchesPerFieldInvariant(t *testing.T) {
	n := node.NewBuilder("hello").
		WithEmbedMode(node.PerField).
		SetMetadata("summary", "hi").
		SetMetadata("title", "t").
		Build()

	got := n.IntendedEmbeddedFields()
	want := map[node.EmbeddedField]struct{}{
		node.FieldChunk:              {},
		node.FieldMetadata("summary"): {},
		node.FieldMetadata("title"):   {},
	}
	assert.Equal(t, want, got)
}

func TestCloneIsIndependent(t *testing.T) {
	n := node.NewBuilder("hello").SetMetadata("a", 1).Build()
	n.Vectors = map[node.EmbeddedField]node.Embedding{node.FieldChunk: {1, 2, 3}}

	c := n.Clone()
	c.Vectors[node.FieldChunk][0] = 99
	c.Metadata.Set("a", 2)

	assert.Equal(t, float32(1), n.Vectors[node.FieldChunk][0])
	v, _ := n.Metadata.Get("a")
	assert.Equal(t, 1, v)
}
