package pipeline

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/loomctl/loom/node"
)

// DefaultBatchSize is the batch size propagated to batched stages that
// do not set their own.
const DefaultBatchSize = 256

// Pipeline composes stages over a stream of Results. It is built
// eagerly: each stage method spawns the goroutines that drive it
// immediately, the way the channels chain together, rather than
// deferring work to Run. Run only drains the final stream and reports
// the first error.
//
// A Pipeline owns a context for its own lifetime (created alongside
// the stream in FromLoader) because every stage needs it the moment
// it is attached, not just when Run is finally called.
type Pipeline struct {
	ctx    context.Context
	cancel context.CancelFunc

	stream      <-chan Result
	storages    []Store
	concurrency int
	batchSize   int
}

// FromLoader starts a Pipeline from a Loader. ctx bounds the whole
// pipeline's lifetime; cancelling it (or a fatal error surfacing
// inside Run) propagates cancellation to every in-flight stage.
func FromLoader(ctx context.Context, loader Loader) *Pipeline {
	ctx, cancel := context.WithCancel(ctx)
	return &Pipeline{
		ctx:         ctx,
		cancel:      cancel,
		stream:      loader.IntoStream(ctx),
		concurrency: runtime.NumCPU(),
		batchSize:   DefaultBatchSize,
	}
}

// FromStream starts a Pipeline directly from a pre-built stream,
// useful for tests and for resuming a split branch.
func FromStream(ctx context.Context, stream <-chan Result) *Pipeline {
	ctx, cancel := context.WithCancel(ctx)
	return &Pipeline{
		ctx:         ctx,
		cancel:      cancel,
		stream:      stream,
		concurrency: runtime.NumCPU(),
		batchSize:   DefaultBatchSize,
	}
}

// WithConcurrency overrides the pipeline's default stage concurrency
// (initially runtime.NumCPU()).
func (p *Pipeline) WithConcurrency(n int) *Pipeline {
	if n > 0 {
		p.concurrency = n
	}
	return p
}

// WithBatchSize overrides the pipeline's default batch size for
// batched stages that do not set their own (initially
// DefaultBatchSize).
func (p *Pipeline) WithBatchSize(n int) *Pipeline {
	if n > 0 {
		p.batchSize = n
	}
	return p
}

// WithEmbedMode sets embed_mode on every Node flowing through the
// pipeline from this point on.
func (p *Pipeline) WithEmbedMode(mode node.EmbedMode) *Pipeline {
	in := p.stream
	out := make(chan Result)
	go func() {
		defer close(out)
		for r := range in {
			if r.Err == nil && r.Node != nil {
				r.Node.EmbedMode = mode
			}
			out <- r
		}
	}()
	p.stream = out
	return p
}

// clone copies the builder-state fields of p onto a new Pipeline with
// stream as its stream, sharing p's context. Used by SplitBy.
func (p *Pipeline) clone(stream <-chan Result) *Pipeline {
	return &Pipeline{
		ctx:         p.ctx,
		cancel:      p.cancel,
		stream:      stream,
		storages:    append([]Store(nil), p.storages...),
		concurrency: p.concurrency,
		batchSize:   p.batchSize,
	}
}

// Run drains the pipeline to completion. It sets up every registered
// store, then consumes the stream, returning the first error
// encountered or nil. Errors raised by a stage arrive wrapped with
// that stage's name; errors the loader emits are returned as they are. The stream is drained
// fully even after an error so that upstream goroutines blocked on a
// channel send are not leaked; ctx is cancelled as soon as the first
// error is seen so in-flight work can abort cooperatively.
func (p *Pipeline) Run() error {
	defer p.cancel()

	if len(p.storages) == 0 {
		return &Error{Stage: "run", Err: errors.New("no storage configured for indexing pipeline")}
	}

	g, setupCtx := errgroup.WithContext(p.ctx)
	for _, s := range p.storages {
		s := s
		g.Go(func() error { return s.Setup(setupCtx) })
	}
	if err := g.Wait(); err != nil {
		return wrapStage("setup", err)
	}

	var firstErr error
	for r := range p.stream {
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
			p.cancel()
		}
	}
	return firstErr
}
