package mcquad

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// PoolStats provides a point-in-time snapshot of worker pool activity.
type PoolStats struct {
	Workers int   // worker count (fixed per run)
	Active  int64 // workers currently inside their loop
	Batches int64 // batches merged into the shared statistics
}

// pool runs a fixed number of worker loops. The first worker error wins:
// it cancels the context every other worker polls, and later errors are
// discarded.
type pool struct {
	g       *errgroup.Group
	ctx     context.Context
	workers int

	active  atomic.Int64
	batches atomic.Int64
}

// newPool prepares a pool of n workers bound to ctx. Panics if n <= 0.
func newPool(ctx context.Context, n int) *pool {
	if n <= 0 {
		panic("mcquad: newPool requires n > 0")
	}

	g, gctx := errgroup.WithContext(ctx)
	return &pool{
		g:       g,
		ctx:     gctx,
		workers: n,
	}
}

// start launches the workers. It must be called once.
func (p *pool) start(work func(ctx context.Context, id int) error) {
	for id := range p.workers {
		p.g.Go(func() error {
			return p.runWorker(id, work)
		})
	}
}

func (p *pool) runWorker(id int, work func(ctx context.Context, id int) error) (err error) {
	p.active.Add(1)
	defer p.active.Add(-1)

	// Integrand panics are recovered per evaluation; this catches
	// anything else so one worker cannot take the process down.
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return work(p.ctx, id)
}

// batchDone records one merged batch.
func (p *pool) batchDone() {
	p.batches.Add(1)
}

// Wait blocks until every worker returned and reports the first error.
func (p *pool) Wait() error {
	return p.g.Wait()
}

// Stats returns a point-in-time snapshot of pool activity.
// Safe to call concurrently.
func (p *pool) Stats() PoolStats {
	return PoolStats{
		Workers: p.workers,
		Active:  p.active.Load(),
		Batches: p.batches.Load(),
	}
}
