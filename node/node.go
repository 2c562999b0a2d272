// Package node defines the unit of data that flows through the indexing
// pipeline: Node, its builder, the embedding mode and field taxonomy,
// and the deterministic content identifier.
package node

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// idNamespace is a fixed namespace for the v3 (MD5) content id, chosen
// once and never changed: changing it would change every id Loom has
// ever produced. It is an arbitrary, project-specific UUID, not derived
// from anything secret.
var idNamespace = uuid.MustParse("a8f1b9d0-6e3f-4c0e-9f8e-6c6d3a5f9b21")

// EmbedMode selects which embedded fields the embed pipeline stage
// produces for a Node.
type EmbedMode int

const (
	// SingleWithMetadata embeds the chunk combined with its metadata as
	// a single vector. This is the default.
	SingleWithMetadata EmbedMode = iota
	// PerField embeds the chunk and each metadata field separately.
	PerField
	// Both embeds the combined form and every per-field form.
	Both
)

func (m EmbedMode) String() string {
	switch m {
	case SingleWithMetadata:
		return "single_with_metadata"
	case PerField:
		return "per_field"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("EmbedMode(%d)", int(m))
	}
}

// EmbeddedFieldKind distinguishes the shape of an EmbeddedField tag.
type EmbeddedFieldKind int

const (
	// Combined is the whole-chunk-with-metadata embeddable.
	Combined EmbeddedFieldKind = iota
	// Chunk is the whole-chunk-only embeddable.
	Chunk
	// MetadataField is an individual named metadata field embeddable.
	MetadataField
)

// EmbeddedField identifies a single (node, tag) embeddable: one of the
// whole-chunk, whole-chunk-with-metadata, or a single named metadata
// field. It is comparable and usable as a map key.
type EmbeddedField struct {
	Kind EmbeddedFieldKind
	Name string // only meaningful when Kind == MetadataField
}

// String renders the field's wire/debug name.
func (f EmbeddedField) String() string {
	switch f.Kind {
	case Combined:
		return "combined"
	case Chunk:
		return "chunk"
	case MetadataField:
		return "metadata:" + f.Name
	default:
		return "unknown"
	}
}

// FieldName returns the name to use when storing this field's dense vector.
func (f EmbeddedField) FieldName() string { return f.String() }

// SparseFieldName returns the name to use when storing this field's sparse vector.
func (f EmbeddedField) SparseFieldName() string { return f.String() + "_sparse" }

// FieldCombined is the canonical EmbeddedField for the combined embeddable.
var FieldCombined = EmbeddedField{Kind: Combined}

// FieldChunk is the canonical EmbeddedField for the chunk-only embeddable.
var FieldChunk = EmbeddedField{Kind: Chunk}

// FieldMetadata returns the EmbeddedField for a named metadata field.
func FieldMetadata(name string) EmbeddedField {
	return EmbeddedField{Kind: MetadataField, Name: name}
}

// Embedding is a dense vector.
type Embedding []float32

// SparseEmbedding is a sparse vector expressed as parallel index/value
// slices (indices sorted ascending, same length as values).
type SparseEmbedding struct {
	Indices []uint32
	Values  []float32
}

// Node is the unit of data processed by the indexing pipeline.
//
// A Node is constructed exclusively through Builder, which forbids
// setting Id directly: Id is always derived from Path, Chunk, Offset
// and ChunkIndex. Call Node.ID() to (re-)compute it; nothing memoizes
// it, so mutating those fields and then calling ID() again always
// reflects the latest content.
type Node struct {
	Path            string
	Chunk           string
	OriginalSize    int
	Offset          int
	Metadata        Metadata
	Vectors         map[EmbeddedField]Embedding
	SparseVectors   map[EmbeddedField]SparseEmbedding
	EmbedMode       EmbedMode
	// ChunkIndex disambiguates sibling chunks produced from the same
	// parent at the same offset (rare, but possible for zero-width
	// splits); it participates in the id the same way Offset does.
	ChunkIndex int
}

// ID computes the Node's deterministic content identifier: a
// namespaced version-3 (MD5) UUID over a canonical string form of
// path, chunk text, offset, and chunk index. Two nodes with identical
// content in those fields always produce the same id, across runs and
// across process restarts.
func (n *Node) ID() uuid.UUID {
	var b strings.Builder
	b.WriteString(n.Path)
	b.WriteByte(0)
	b.WriteString(n.Chunk)
	b.WriteByte(0)
	fmt.Fprintf(&b, "%d\x00%d", n.Offset, n.ChunkIndex)
	return uuid.NewMD5(idNamespace, []byte(b.String()))
}

// Clone returns a Node sharing no mutable state with n: Metadata,
// Vectors and SparseVectors are all copied.
func (n *Node) Clone() *Node {
	clone := *n
	clone.Metadata = CloneMetadata(n.Metadata)
	if n.Vectors != nil {
		clone.Vectors = make(map[EmbeddedField]Embedding, len(n.Vectors))
		for k, v := range n.Vectors {
			clone.Vectors[k] = append(Embedding(nil), v...)
		}
	}
	if n.SparseVectors != nil {
		clone.SparseVectors = make(map[EmbeddedField]SparseEmbedding, len(n.SparseVectors))
		for k, v := range n.SparseVectors {
			clone.SparseVectors[k] = SparseEmbedding{
				Indices: append([]uint32(nil), v.Indices...),
				Values:  append([]float32(nil), v.Values...),
			}
		}
	}
	return &clone
}

// Embeddable is a single (field, text) pair ready to be embedded.
type Embeddable struct {
	Field EmbeddedField
	Text  string
}

// Embeddables returns the text to embed for each EmbeddedField the
// Node's EmbedMode calls for.
func (n *Node) Embeddables() []Embeddable {
	var out []Embeddable

	if n.EmbedMode == SingleWithMetadata || n.EmbedMode == Both {
		out = append(out, Embeddable{Field: FieldCombined, Text: n.combinedWithMetadata()})
	}

	if n.EmbedMode == PerField || n.EmbedMode == Both {
		out = append(out, Embeddable{Field: FieldChunk, Text: n.Chunk})
		if n.Metadata != nil {
			for pair := n.Metadata.Oldest(); pair != nil; pair = pair.Next() {
				out = append(out, Embeddable{
					Field: FieldMetadata(pair.Key),
					Text:  stringify(pair.Value),
				})
			}
		}
	}

	return out
}

// combinedWithMetadata formats metadata as "key: value" lines in
// insertion order, each ending in a newline, followed by the chunk.
func (n *Node) combinedWithMetadata() string {
	var b strings.Builder
	if n.Metadata != nil {
		for pair := n.Metadata.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(&b, "%s: %s\n", pair.Key, stringify(pair.Value))
		}
	}
	b.WriteString(n.Chunk)
	return b.String()
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// IntendedEmbeddedFields returns the set of EmbeddedField tags that
// n.EmbedMode calls for, given the current metadata keys. Used to
// validate Vectors/SparseVectors against the Node-model invariant in
// spec §3: vectors.keys() must be a subset of this set.
func (n *Node) IntendedEmbeddedFields() map[EmbeddedField]struct{} {
	fields := make(map[EmbeddedField]struct{})
	for _, e := range n.Embeddables() {
		fields[e.Field] = struct{}{}
	}
	return fields
}
