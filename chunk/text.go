// Package chunk provides ChunkTransformer implementations that split a
// Node's chunk text into multiple Nodes, inheriting metadata and
// tracking the byte offset/original_size bookkeeping the pipeline's
// id-derivation invariant depends on.
package chunk

import (
	"context"
	"strings"

	"github.com/loomctl/loom/node"
	"github.com/loomctl/loom/pipeline"
)

// DefaultMaxCharacters is the ceiling TextChunker uses when none is
// configured, matching the teacher pack's chunk-text default.
const DefaultMaxCharacters = 2056

// TextChunker splits a Node's chunk into line-grouped pieces, greedily
// packing consecutive lines into a block up to MaxCharacters. With
// MaxCharacters unset (0), every non-blank line becomes its own Node.
type TextChunker struct {
	MaxCharacters int
	MinCharacters int

	concurrency int
}

// NewTextChunker returns a TextChunker with DefaultMaxCharacters.
func NewTextChunker() *TextChunker {
	return &TextChunker{MaxCharacters: DefaultMaxCharacters}
}

// NewLineChunker returns a TextChunker that treats every line as its
// own chunk (MaxCharacters unset), matching spec.md's line-splitter
// example.
func NewLineChunker() *TextChunker {
	return &TextChunker{}
}

func (c *TextChunker) WithMaxCharacters(n int) *TextChunker {
	c.MaxCharacters = n
	return c
}

func (c *TextChunker) WithMinCharacters(n int) *TextChunker {
	c.MinCharacters = n
	return c
}

func (c *TextChunker) WithConcurrency(n int) *TextChunker {
	c.concurrency = n
	return c
}

func (c *TextChunker) Concurrency() int { return c.concurrency }
func (c *TextChunker) Name() string     { return "chunk.text" }

type lineOffset struct {
	text   string
	offset int
}

func splitLinesWithOffsets(s string) []lineOffset {
	lines := strings.Split(s, "\n")
	out := make([]lineOffset, 0, len(lines))
	offset := 0
	for i, l := range lines {
		out = append(out, lineOffset{text: l, offset: offset})
		offset += len(l)
		if i != len(lines)-1 {
			offset++ // the '\n' consumed between lines
		}
	}
	return out
}

type block struct {
	text   string
	offset int
}

// groupLines packs lines into blocks of at most max characters (0
// means no packing: each line is its own block).
func groupLines(lines []lineOffset, max int) []block {
	if max <= 0 {
		blocks := make([]block, 0, len(lines))
		for _, l := range lines {
			blocks = append(blocks, block{text: l.text, offset: l.offset})
		}
		return blocks
	}

	var blocks []block
	var cur []string
	curLen, curOffset := 0, 0
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, block{text: strings.Join(cur, "\n"), offset: curOffset})
			cur = nil
			curLen = 0
		}
	}
	for _, l := range lines {
		candidate := curLen
		if len(cur) > 0 {
			candidate++
		}
		candidate += len(l.text)

		if len(cur) == 0 {
			curOffset = l.offset
		}
		if candidate > max && len(cur) > 0 {
			flush()
			curOffset = l.offset
			cur = []string{l.text}
			curLen = len(l.text)
			continue
		}
		cur = append(cur, l.text)
		curLen = candidate
	}
	flush()
	return blocks
}

// TransformNode implements pipeline.ChunkTransformer.
func (c *TextChunker) TransformNode(ctx context.Context, n *node.Node) <-chan pipeline.Result {
	out := make(chan pipeline.Result)
	go func() {
		defer close(out)

		originalSize := len(n.Chunk)
		lines := splitLinesWithOffsets(n.Chunk)
		blocks := groupLines(lines, c.MaxCharacters)

		idx := 0
		for _, b := range blocks {
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
	}()
	return out
}
