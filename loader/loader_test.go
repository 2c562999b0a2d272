package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomctl/loom/loader"
	"github.com/loomctl/loom/node"
	"github.com/loomctl/loom/pipeline"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirectoryLoaderFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a")
	writeFile(t, dir, "b.txt", "not go")

	l := loader.NewDirectoryLoader(dir).WithExtensions("go")
	var chunks []string
	for r := range l.IntoStream(context.Background()) {
		require.NoError(t, r.Err)
		chunks = append(chunks, r.Node.Chunk)
	}
	require.Len(t, chunks, 1)
	assert.Equal(t, "package a", chunks[0])
}

func TestDirectoryLoaderHonorsIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".loomignore", "skip.go\n")
	writeFile(t, dir, "skip.go", "ignored")
	writeFile(t, dir, "keep.go", "kept")

	l := loader.NewDirectoryLoader(dir).WithExtensions("go").WithIgnoreFile(".loomignore")
	var chunks []string
	for r := range l.IntoStream(context.Background()) {
		require.NoError(t, r.Err)
		chunks = append(chunks, r.Node.Chunk)
	}
	assert.Equal(t, []string{"kept"}, chunks)
}

func TestDirectoryLoaderIterMatchesStream(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "hello")

	l := loader.NewDirectoryLoader(dir).WithExtensions("md")
	nodes, err := l.Iter(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "hello", nodes[0].Chunk)
}

func TestChannelLoaderForwardsAndAcks(t *testing.T) {
	ch := make(chan loader.Message, 2)
	acked := 0
	n := node.NewBuilder("payload").Build()
	ch <- loader.Message{Node: n, Ack: func() { acked++ }}
	close(ch)

	l := loader.NewChannelLoader(ch)
	var got []pipeline.Result
	for r := range l.IntoStream(context.Background()) {
		got = append(got, r)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "payload", got[0].Node.Chunk)
	assert.Equal(t, 1, acked)
}
