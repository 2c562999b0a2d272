package chunk

import (
	"context"
	"regexp"
	"strings"

	"github.com/loomctl/loom/node"
	"github.com/loomctl/loom/pipeline"
)

var headingRe = regexp.MustCompile(`^#{1,6}\s+`)

// MarkdownChunker splits a Node's markdown chunk at heading boundaries
// first, then packs each section's lines up to MaxCharacters the same
// way TextChunker does, so a heading and its body stay together
// unless the section itself is too large.
type MarkdownChunker struct {
	MaxCharacters int
	MinCharacters int

	concurrency int
}

// NewMarkdownChunker returns a MarkdownChunker with DefaultMaxCharacters.
func NewMarkdownChunker() *MarkdownChunker {
	return &MarkdownChunker{MaxCharacters: DefaultMaxCharacters}
}

func (c *MarkdownChunker) WithMaxCharacters(n int) *MarkdownChunker {
	c.MaxCharacters = n
	return c
}

func (c *MarkdownChunker) WithMinCharacters(n int) *MarkdownChunker {
	c.MinCharacters = n
	return c
}

func (c *MarkdownChunker) WithConcurrency(n int) *MarkdownChunker {
	c.concurrency = n
	return c
}

func (c *MarkdownChunker) Concurrency() int { return c.concurrency }
func (c *MarkdownChunker) Name() string     { return "chunk.markdown" }

// sections splits lines into heading-bounded groups: every heading
// line starts a new section that also absorbs the non-heading lines
// following it, until the next heading.
func sections(lines []lineOffset) [][]lineOffset {
	var out [][]lineOffset
	var cur []lineOffset
	for _, l := range lines {
		if headingRe.MatchString(l.text) && len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// TransformNode implements pipeline.ChunkTransformer.
func (c *MarkdownChunker) TransformNode(ctx context.Context, n *node.Node) <-chan pipeline.Result {
	out := make(chan pipeline.Result)
	go func() {
		defer close(out)

		originalSize := len(n.Chunk)
		lines := splitLinesWithOffsets(n.Chunk)

		idx := 0
		for _, section := range sections(lines) {
			for _, b := range groupLines(section, c.MaxCharacters) {
				trimmed := strings.TrimSpace(b.text)
				if trimmed == "" || len(trimmed) < c.MinCharacters {
					continue
				}
				child := node.NewBuilder(trimmed).
					WithPath(n.Path).
					WithOffset(b.offset).
					WithOriginalSize(originalSize).
					WithChunkIndex(idx).
					WithMetadata(node.CloneMetadata(n.Metadata)).
					WithEmbedMode(n.EmbedMode).
					Build()
				idx++

				select {
				case out <- pipeline.Ok(child):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
