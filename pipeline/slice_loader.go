package pipeline

import (
	"context"

	"github.com/loomctl/loom/node"
)

// SliceLoader is a Loader over a fixed, pre-built slice of Results.
// It is the Go analogue of constructing a stream directly from a
// Vec<Result<Node>>, used throughout the test suite in place of a
// real Loader.
type SliceLoader struct {
	Results []Result
}

// NewSliceLoader returns a SliceLoader over results.
func NewSliceLoader(results ...Result) *SliceLoader {
	return &SliceLoader{Results: results}
}

func (l *SliceLoader) IntoStream(ctx context.Context) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		for _, r := range l.Results {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (l *SliceLoader) Iter(_ context.Context) ([]*node.Node, error) {
	nodes := make([]*node.Node, 0, len(l.Results))
	for _, r := range l.Results {
		if r.Err != nil {
			return nodes, r.Err
		}
		nodes = append(nodes, r.Node)
	}
	return nodes, nil
}
