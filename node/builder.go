package node

// Builder constructs a Node fluently. It is the only supported way to
// create a Node: there is no public way to set an id directly, because
// the id is always derived from content.
type Builder struct {
	n Node
}

// NewBuilder starts building a Node with the given chunk text.
// OriginalSize defaults to the byte length of chunk.
func NewBuilder(chunk string) *Builder {
	return &Builder{n: Node{
		Chunk:        chunk,
		OriginalSize: len(chunk),
		Metadata:     NewMetadata(),
		EmbedMode:    SingleWithMetadata,
	}}
}

// FromOther seeds a new Builder with a copy of other's fields, for
// transformers that derive a new Node from an existing one.
func FromOther(other *Node) *Builder {
	b := &Builder{n: *other.Clone()}
	return b
}

// WithPath sets the source locator.
func (b *Builder) WithPath(path string) *Builder {
	b.n.Path = path
	return b
}

// WithChunk replaces the chunk text. Callers that change chunk content
// without updating OriginalSize should also call WithOriginalSize.
func (b *Builder) WithChunk(chunk string) *Builder {
	b.n.Chunk = chunk
	return b
}

// WithOffset sets the byte offset of this chunk within its parent document.
func (b *Builder) WithOffset(offset int) *Builder {
	b.n.Offset = offset
	return b
}

// WithChunkIndex sets the disambiguating chunk index used in id derivation.
func (b *Builder) WithChunkIndex(idx int) *Builder {
	b.n.ChunkIndex = idx
	return b
}

// WithOriginalSize sets the byte length of the original chunk before
// any later transformation, used by splitters reconstructing offsets.
func (b *Builder) WithOriginalSize(size int) *Builder {
	b.n.OriginalSize = size
	return b
}

// WithMetadata replaces the Node's metadata wholesale.
func (b *Builder) WithMetadata(m Metadata) *Builder {
	b.n.Metadata = m
	return b
}

// SetMetadata sets a single metadata key, preserving insertion order of
// existing keys and appending new ones.
func (b *Builder) SetMetadata(key string, value any) *Builder {
	if b.n.Metadata == nil {
		b.n.Metadata = NewMetadata()
	}
	b.n.Metadata.Set(key, value)
	return b
}

// WithEmbedMode sets the embed mode used by the embed pipeline stage.
func (b *Builder) WithEmbedMode(mode EmbedMode) *Builder {
	b.n.EmbedMode = mode
	return b
}

// Build finalizes the Node.
func (b *Builder) Build() *Node {
	n := b.n
	if n.Metadata == nil {
		n.Metadata = NewMetadata()
	}
	return &n
}
