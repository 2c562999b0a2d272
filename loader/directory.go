// Package loader provides pipeline.Loader implementations: a
// directory walker with extension filtering and ignore-file support,
// and a channel-backed loader for message-bus-style at-least-once
// delivery without depending on any concrete broker.
package loader

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loomctl/loom/node"
	"github.com/loomctl/loom/pipeline"
)

// DirectoryLoader walks a root directory, yielding one Node per
// matching file with the file's content as its chunk.
type DirectoryLoader struct {
	root       string
	extensions map[string]bool
	ignoreFile string
}

// NewDirectoryLoader returns a DirectoryLoader rooted at root with no
// extension filter (every file is read) and no ignore file.
func NewDirectoryLoader(root string) *DirectoryLoader {
	return &DirectoryLoader{root: root}
}

// WithExtensions restricts the loader to files whose extension
// (without the leading dot) is one of exts.
func (l *DirectoryLoader) WithExtensions(exts ...string) *DirectoryLoader {
	if l.extensions == nil {
		l.extensions = make(map[string]bool, len(exts))
	}
	for _, e := range exts {
		l.extensions[strings.TrimPrefix(e, ".")] = true
	}
	return l
}

// WithIgnoreFile sets the name of a gitignore-style file (e.g.
// ".loomignore") consulted at the root of the walk: each non-blank,
// non-comment line is a glob, and a file or directory whose path
// relative to the root, or whose base name, matches it is skipped.
func (l *DirectoryLoader) WithIgnoreFile(name string) *DirectoryLoader {
	l.ignoreFile = name
	return l
}

func (l *DirectoryLoader) hasWantedExtension(path string) bool {
	if len(l.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return l.extensions[ext]
}

func (l *DirectoryLoader) loadIgnorePatterns() []string {
	if l.ignoreFile == "" {
		return nil
	}
	f, err := os.Open(filepath.Join(l.root, l.ignoreFile))
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

func isIgnored(relPath string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, relPath); ok {
			return true
		}
		if ok, _ := filepath.Match(p, filepath.Base(relPath)); ok {
			return true
		}
	}
	return false
}

// walk visits every regular file under l.root that passes the
// extension filter and ignore patterns, calling visit with its path.
func (l *DirectoryLoader) walk(visit func(path string) error) error {
	patterns := l.loadIgnorePatterns()
	return filepath.WalkDir(l.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(l.root, path)
		if relErr == nil && isIgnored(rel, patterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !l.hasWantedExtension(path) {
			return nil
		}
		return visit(path)
	})
}

func (l *DirectoryLoader) readNode(path string) (*node.Node, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return node.NewBuilder(string(content)).
		WithPath(path).
		WithOriginalSize(len(content)).
		Build(), nil
}

// IntoStream implements pipeline.Loader.
func (l *DirectoryLoader) IntoStream(ctx context.Context) <-chan pipeline.Result {
	out := make(chan pipeline.Result)
	go func() {
		defer close(out)
		_ = l.walk(func(path string) error {
			n, err := l.readNode(path)
			var r pipeline.Result
			if err != nil {
				r = pipeline.Errored(err)
			} else {
				r = pipeline.Ok(n)
			}
			select {
			case out <- r:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return out
}

// Iter implements pipeline.SyncLoader for synchronous pre-inspection.
func (l *DirectoryLoader) Iter(_ context.Context) ([]*node.Node, error) {
	var nodes []*node.Node
	err := l.walk(func(path string) error {
		n, err := l.readNode(path)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
		return nil
	})
	return nodes, err
}
