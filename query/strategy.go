package query

import "github.com/loomctl/loom/node"

// defaultTopK matches the grounding source's own default: ten
// documents is a reasonable default for most retrieval-augmented
// generation use cases without the caller needing to think about it.
const defaultTopK = 10

// defaultTopN is the grounding source's per-subquery cap for hybrid
// search, distinct from the overall top_k cap on the merged result.
const defaultTopN = 10

// SimilaritySingleEmbedding retrieves the top_k documents most similar
// to the query's dense embedding. An optional filter narrows the
// search; its shape is backend-specific, so it travels as an opaque
// value a Retriever implementation knows how to interpret.
type SimilaritySingleEmbedding struct {
	TopK   int
	Filter any
}

func (SimilaritySingleEmbedding) isSearchStrategy() {}

// NewSimilaritySingleEmbedding returns a strategy with the default top_k.
func NewSimilaritySingleEmbedding() SimilaritySingleEmbedding {
	return SimilaritySingleEmbedding{TopK: defaultTopK}
}

// WithTopK returns a copy of the strategy with top_k set.
func (s SimilaritySingleEmbedding) WithTopK(topK int) SimilaritySingleEmbedding {
	s.TopK = topK
	return s
}

// WithFilter returns a copy of the strategy with filter set.
func (s SimilaritySingleEmbedding) WithFilter(filter any) SimilaritySingleEmbedding {
	s.Filter = filter
	return s
}

// HybridSearch combines a dense similarity search with a sparse
// (keyword) search over the same query, fusing the two result sets.
// Which embedded field each half of the search reads from is
// configurable independently, since a backend may store dense and
// sparse vectors under different fields.
type HybridSearch struct {
	TopK        int
	TopN        int
	DenseField  node.EmbeddedField
	SparseField node.EmbeddedField
	Filter      any
}

func (HybridSearch) isSearchStrategy() {}

// NewHybridSearch returns a strategy with the default top_k/top_n and
// both fields set to the combined, whole-chunk-with-metadata field.
func NewHybridSearch() HybridSearch {
	return HybridSearch{
		TopK:        defaultTopK,
		TopN:        defaultTopN,
		DenseField:  node.FieldCombined,
		SparseField: node.FieldCombined,
	}
}

// WithTopK returns a copy of the strategy with top_k (the cap on the
// merged result) set.
func (s HybridSearch) WithTopK(topK int) HybridSearch {
	s.TopK = topK
	return s
}

// WithTopN returns a copy of the strategy with top_n (the per-query cap
// before fusion) set.
func (s HybridSearch) WithTopN(topN int) HybridSearch {
	s.TopN = topN
	return s
}

// WithDenseField returns a copy of the strategy with the dense-vector
// field set.
func (s HybridSearch) WithDenseField(f node.EmbeddedField) HybridSearch {
	s.DenseField = f
	return s
}

// WithSparseField returns a copy of the strategy with the sparse-vector
// field set.
func (s HybridSearch) WithSparseField(f node.EmbeddedField) HybridSearch {
	s.SparseField = f
	return s
}

// WithFilter returns a copy of the strategy with filter set.
func (s HybridSearch) WithFilter(filter any) HybridSearch {
	s.Filter = filter
	return s
}
