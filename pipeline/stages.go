package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/loomctl/loom/cache"
	"github.com/loomctl/loom/node"
)

// fanOutWork runs work concurrently (bounded by concurrency) over
// every successful Result read from in, forwarding errored Results
// untouched. work may emit zero, one, or many Results for a single
// input Node; this is the shared mechanic behind Then, ThenChunk, and
// FilterCached.
func fanOutWork(ctx context.Context, in <-chan Result, concurrency int, stage string, work func(context.Context, *node.Node) <-chan Result) <-chan Result {
	out := make(chan Result)
	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup

	go func() {
		defer close(out)
		for r := range in {
			if r.Err != nil {
				out <- r
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			wg.Add(1)
			go func(n *node.Node) {
				defer wg.Done()
				defer sem.Release(1)
				for res := range work(ctx, n) {
					if res.Err != nil {
						out <- Result{Err: wrapStage(stage, res.Err)}
						continue
					}
					out <- res
				}
			}(r.Node)
		}
		wg.Wait()
	}()

	return out
}

// Then adds a transformer that maps one Node to one Node. Closures
// satisfying Transformer (via TransformerFunc) are first-class.
func (p *Pipeline) Then(t Transformer) *Pipeline {
	concurrency := resolveConcurrency(t, p.concurrency)
	stage := stageName(t, "then")
	work := func(ctx context.Context, n *node.Node) <-chan Result {
		ch := make(chan Result, 1)
		nn, err := t.TransformNode(ctx, n)
		if err != nil {
			ch <- Result{Err: err}
		} else {
			ch <- Result{Node: nn}
		}
		close(ch)
		return ch
	}
	p.stream = fanOutWork(p.ctx, p.stream, concurrency, stage, work)
	return p
}

// ThenChunk adds a chunker that maps one Node to zero or more Nodes.
func (p *Pipeline) ThenChunk(c ChunkTransformer) *Pipeline {
	concurrency := resolveConcurrency(c, p.concurrency)
	stage := stageName(c, "then_chunk")
	p.stream = fanOutWork(p.ctx, p.stream, concurrency, stage, c.TransformNode)
	return p
}

// FilterCached drops Nodes the cache has already seen, marking unseen
// ones as seen. Cache errors are logged and treated as a cache miss
// (the node still passes through), per the Cache contract.
func (p *Pipeline) FilterCached(c cache.Cache) *Pipeline {
	concurrency := p.concurrency
	work := func(ctx context.Context, n *node.Node) <-chan Result {
		ch := make(chan Result, 1)
		defer close(ch)

		seen, err := cache.NodeSeen(ctx, c, n)
		if err != nil {
			slog.Warn("cache lookup failed, treating node as uncached", "cache", c.Name(), "err", err)
			ch <- Result{Node: n}
			return ch
		}
		if seen {
			slog.Debug("node in cache, skipping", "cache", c.Name(), "node_id", n.ID())
			return ch
		}
		if err := cache.MarkNode(ctx, c, n); err != nil {
			slog.Warn("cache mark failed", "cache", c.Name(), "err", err)
		}
		ch <- Result{Node: n}
		return ch
	}
	p.stream = fanOutWork(p.ctx, p.stream, concurrency, "filter_cached", work)
	return p
}

// batchResults accumulates successful Results from in into batches of
// up to size. An errored Result flushes any partial batch immediately
// and is forwarded as its own single-element batch, so batch
// consumers can recognize it with len(batch)==1 && batch[0].Err!=nil.
func batchResults(in <-chan Result, size int) <-chan []Result {
	out := make(chan []Result)
	go func() {
		defer close(out)
		buf := make([]Result, 0, size)
		flush := func() {
			if len(buf) > 0 {
				out <- buf
				buf = make([]Result, 0, size)
			}
		}
		for r := range in {
			if r.Err != nil {
				flush()
				out <- []Result{r}
				continue
			}
			buf = append(buf, r)
			if len(buf) >= size {
				flush()
			}
		}
		flush()
	}()
	return out
}

// ThenInBatch adds a batch transformer. The effective batch size is
// the transformer's own (if it implements batchSizeAware) or the
// pipeline default.
func (p *Pipeline) ThenInBatch(bt BatchTransformer) *Pipeline {
	size := resolveBatchSize(bt, p.batchSize)
	concurrency := resolveConcurrency(bt, p.concurrency)
	stage := stageName(bt, "then_in_batch")

	batches := batchResults(p.stream, size)
	out := make(chan Result)
	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup

	go func() {
		defer close(out)
		for batch := range batches {
			if len(batch) == 1 && batch[0].Err != nil {
				out <- batch[0]
				continue
			}
			if err := p.ctx.Err(); err != nil {
				return
			}
			if err := sem.Acquire(p.ctx, 1); err != nil {
				return
			}
			wg.Add(1)
			go func(batch []Result) {
				defer wg.Done()
				defer sem.Release(1)
				nodes := make([]*node.Node, len(batch))
				for i, r := range batch {
					nodes[i] = r.Node
				}
				for res := range bt.BatchTransform(p.ctx, nodes) {
					if res.Err != nil {
						out <- Result{Err: wrapStage(stage, res.Err)}
						continue
					}
					out <- res
				}
			}(batch)
		}
		wg.Wait()
	}()

	p.stream = out
	return p
}

// ThenStoreWith registers a store and writes every passing Node to
// it, passing the Node through unchanged. If the store reports a
// positive BatchSize, writes are batched via BatchStore; otherwise
// each Node is written individually via Store, bounded by the
// pipeline's concurrency.
func (p *Pipeline) ThenStoreWith(s Store) *Pipeline {
	p.storages = append(p.storages, s)
	stage := stageName(s, "then_store_with")

	if size := s.BatchSize(); size > 0 {
		batches := batchResults(p.stream, size)
		out := make(chan Result)
		sem := semaphore.NewWeighted(int64(p.concurrency))
		var wg sync.WaitGroup

		go func() {
			defer close(out)
			for batch := range batches {
				if len(batch) == 1 && batch[0].Err != nil {
					out <- batch[0]
					continue
				}
				if err := sem.Acquire(p.ctx, 1); err != nil {
					return
				}
				wg.Add(1)
				go func(batch []Result) {
					defer wg.Done()
					defer sem.Release(1)
					nodes := make([]*node.Node, len(batch))
					for i, r := range batch {
						nodes[i] = r.Node
					}
					if err := s.BatchStore(p.ctx, nodes); err != nil {
						wrapped := wrapStage(stage, err)
						for range nodes {
							out <- Result{Err: wrapped}
						}
						return
					}
					for _, n := range nodes {
						out <- Result{Node: n}
					}
				}(batch)
			}
			wg.Wait()
		}()

		p.stream = out
		return p
	}

	work := func(ctx context.Context, n *node.Node) <-chan Result {
		ch := make(chan Result, 1)
		if err := s.Store(ctx, n); err != nil {
			ch <- Result{Err: err}
		} else {
			ch <- Result{Node: n}
		}
		close(ch)
		return ch
	}
	p.stream = fanOutWork(p.ctx, p.stream, p.concurrency, stage, work)
	return p
}

// Filter keeps only Results for which keep returns true, including
// the option to inspect and drop errors selectively.
func (p *Pipeline) Filter(keep func(Result) bool) *Pipeline {
	in := p.stream
	out := make(chan Result)
	go func() {
		defer close(out)
		for r := range in {
			if keep(r) {
				out <- r
			}
		}
	}()
	p.stream = out
	return p
}

// FilterErrors drops every errored Result, silently.
func (p *Pipeline) FilterErrors() *Pipeline {
	return p.Filter(func(r Result) bool { return r.Err == nil })
}

// LogErrors logs every errored Result at ERROR level and forwards all
// Results unchanged.
func (p *Pipeline) LogErrors() *Pipeline {
	in := p.stream
	out := make(chan Result)
	go func() {
		defer close(out)
		for r := range in {
			if r.Err != nil {
				slog.Error("pipeline stage error", "err", r.Err)
			}
			out <- r
		}
	}()
	p.stream = out
	return p
}

// LogNodes logs every successful Result at DEBUG level and forwards
// all Results unchanged.
func (p *Pipeline) LogNodes() *Pipeline {
	in := p.stream
	out := make(chan Result)
	go func() {
		defer close(out)
		for r := range in {
			if r.Err == nil && r.Node != nil {
				slog.Debug("processed node", "node_id", r.Node.ID(), "path", r.Node.Path)
			}
			out <- r
		}
	}()
	p.stream = out
	return p
}

// LogAll is LogErrors followed by LogNodes.
func (p *Pipeline) LogAll() *Pipeline {
	return p.LogErrors().LogNodes()
}

// SplitBy routes every Result to one of two new Pipelines based on
// predicate, started immediately: a dispatching goroutine consumes
// this pipeline's stream right away, rather than lazily, and routes
// each Result from its own goroutine, bounded by the pipeline's
// concurrency.
func (p *Pipeline) SplitBy(predicate func(Result) bool) (left, right *Pipeline) {
	leftCh := make(chan Result, 1000)
	rightCh := make(chan Result, 1000)
	in := p.stream
	concurrency := p.concurrency
	ctx := p.ctx

	go func() {
		defer close(leftCh)
		defer close(rightCh)
		sem := semaphore.NewWeighted(int64(concurrency))
		var wg sync.WaitGroup
		for r := range in {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(r Result) {
				defer wg.Done()
				defer sem.Release(1)
				if predicate(r) {
					leftCh <- r
				} else {
					rightCh <- r
				}
			}(r)
		}
		wg.Wait()
	}()

	return p.clone(leftCh), p.clone(rightCh)
}

// Merge interleaves other's stream into p's, for recombining branches
// produced by SplitBy. p's storage registrations are retained; other's
// are discarded, matching that merge is expected to run before any
// ThenStoreWith on either branch.
func (p *Pipeline) Merge(other *Pipeline) *Pipeline {
	a, b := p.stream, other.stream
	out := make(chan Result)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for r := range a {
			out <- r
		}
	}()
	go func() {
		defer wg.Done()
		for r := range b {
			out <- r
		}
	}()
	go func() {
		wg.Wait()
		close(out)
	}()
	p.stream = out
	return p
}

// Throttle rate-limits emission to at most one element per interval
// across all downstream stages.
func (p *Pipeline) Throttle(interval time.Duration) *Pipeline {
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	in := p.stream
	out := make(chan Result)
	go func() {
		defer close(out)
		for r := range in {
			if err := limiter.Wait(p.ctx); err != nil {
				out <- Result{Err: wrapStage("throttle", err)}
				return
			}
			out <- r
		}
	}()
	p.stream = out
	return p
}
