// Package query models the query-pipeline unit: a query moving through
// the state tags Pending, Retrieved, and Answered. The transitions are
// enforced statically by the Go type system: Pending, Retrieved, and
// Answered are distinct types, so a misordered pipeline -- asking a
// Pending query for its documents, or retrieving documents twice -- is
// a compile error, not a runtime check.
package query

import (
	"fmt"

	"github.com/loomctl/loom/internal/obslog"
	"github.com/loomctl/loom/model"
)

// Document is a single retrieved document. The core query pipeline
// treats documents as opaque text; structured metadata lives on the
// node.Node that produced it during indexing, not here.
type Document string

// TransformationEvent records one step a query took on its way from
// Pending to Answered, for debugging and for transformers that want to
// inspect what happened before them.
type TransformationEvent struct {
	Before    string
	After     string
	Documents []Document // set only for a retrieval event
}

func (e TransformationEvent) String() string {
	if e.Documents != nil {
		return fmt.Sprintf("retrieved: %s -> %s (%d documents)",
			obslog.Truncate(e.Before, obslog.DefaultTruncateChars),
			obslog.Truncate(e.After, obslog.DefaultTruncateChars),
			len(e.Documents))
	}
	return fmt.Sprintf("transformed: %s -> %s",
		obslog.Truncate(e.Before, obslog.DefaultTruncateChars),
		obslog.Truncate(e.After, obslog.DefaultTruncateChars))
}

// base holds the fields every query state shares, regardless of which
// state tag wraps it: the text the caller started with, the text as of
// the most recent transformation, the embedding(s) computed for
// retrieval, and a record of every transformation applied so far.
// Embedding it in each state struct promotes its accessors, so callers
// never see base directly.
type base struct {
	original string
	current  string
	history  []TransformationEvent

	embedding       []float32
	sparseEmbedding *model.SparseVector
}

// Original returns the text the query started with, unmodified by any
// transformer.
func (b *base) Original() string { return b.original }

// Current returns the most recently transformed text: the subquery a
// query transformer last produced, or the response a response
// transformer last produced, depending on state.
func (b *base) Current() string { return b.current }

// History returns every transformation recorded so far, oldest first.
func (b *base) History() []TransformationEvent { return b.history }

// Embedding returns the dense embedding attached to this query, if any.
func (b *base) Embedding() []float32 { return b.embedding }

// SetEmbedding attaches a dense embedding, overwriting any previous one.
func (b *base) SetEmbedding(e []float32) { b.embedding = e }

// SparseEmbedding returns the sparse embedding attached to this query,
// if any.
func (b *base) SparseEmbedding() *model.SparseVector { return b.sparseEmbedding }

// SetSparseEmbedding attaches a sparse embedding, overwriting any
// previous one.
func (b *base) SetSparseEmbedding(e *model.SparseVector) { b.sparseEmbedding = e }

// Pending is a query that has not yet been retrieved: the only state
// query transformers accept and produce.
type Pending struct {
	base
}

// New starts a query pipeline from raw user text.
func New(original string) *Pending {
	return &Pending{base: base{original: original, current: original}}
}

func (q *Pending) String() string {
	return fmt.Sprintf("Pending{original: %s, current: %s, history: %d entries}",
		obslog.Truncate(q.original, obslog.DefaultTruncateChars),
		obslog.Truncate(q.current, obslog.DefaultTruncateChars),
		len(q.history))
}

// TransformedQuery records a new subquery, replacing Current.
func (q *Pending) TransformedQuery(newQuery string) {
	q.history = append(q.history, TransformationEvent{Before: q.current, After: newQuery})
	q.current = newQuery
}

// RetrievedDocuments transitions a Pending query to Retrieved, clearing
// Current the same way the grounding source does: the "current text"
// concept belongs to the query side, and what the retrieval step
// produces is a document set, not a string.
func (q *Pending) RetrievedDocuments(docs []Document) *Retrieved {
	history := append(q.history, TransformationEvent{Before: q.current, After: "", Documents: docs})
	return &Retrieved{
		base: base{
			original:        q.original,
			current:         "",
			history:         history,
			embedding:       q.embedding,
			sparseEmbedding: q.sparseEmbedding,
		},
		documents: docs,
	}
}

// Retrieved is a query that has retrieved documents and is ready to be
// answered.
type Retrieved struct {
	base
	documents []Document
}

func (q *Retrieved) String() string {
	return fmt.Sprintf("Retrieved{original: %s, documents: %d, history: %d entries}",
		obslog.Truncate(q.original, obslog.DefaultTruncateChars), len(q.documents), len(q.history))
}

// Documents returns the documents this query retrieved.
func (q *Retrieved) Documents() []Document { return q.documents }

// TransformedResponse records a new response, replacing Current. Takes
// a Retrieved query because a response transformer (e.g.
// summarization) needs documents to transform.
func (q *Retrieved) TransformedResponse(newResponse string) {
	q.history = append(q.history, TransformationEvent{Before: q.current, After: newResponse})
	q.current = newResponse
}

// Answered transitions a Retrieved query to Answered with a final
// answer.
func (q *Retrieved) Answered(answer string) *Answered {
	return &Answered{
		base: base{
			original:        q.original,
			current:         q.current,
			history:         q.history,
			embedding:       q.embedding,
			sparseEmbedding: q.sparseEmbedding,
		},
		answer: answer,
	}
}

// Answered is a query that has received its final answer: the
// terminal state.
type Answered struct {
	base
	answer string
}

func (q *Answered) String() string {
	return fmt.Sprintf("Answered{original: %s, answer: %s}",
		obslog.Truncate(q.original, obslog.DefaultTruncateChars),
		obslog.Truncate(q.answer, obslog.DefaultTruncateChars))
}

// Answer returns the final answer.
func (q *Answered) Answer() string { return q.answer }
