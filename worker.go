package mcquad

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type stopReason int32

const (
	keepGoing stopReason = iota
	stopConverged
	stopCanceled
)

// run is one in-flight or finished computation. Everything mutable that
// workers share lives in acc and the atomics.
type run[T Float] struct {
	in     *Integrator[T]
	id     uuid.UUID
	seed   uint64
	start  time.Time
	pool   *pool
	result *Result[T]

	acc   accumulator[T]
	stop  atomic.Int32 // stopReason, first writer wins
	state atomic.Int32 // State
	end   atomic.Int64 // unix nanos, set when the run resolved

	every rate.Sometimes
	debug bool // progress records are built only when Debug is enabled
}

func (r *run[T]) State() State {
	return State(r.state.Load())
}

// work is the loop of one worker: evaluate a batch locally, merge it,
// then decide whether to go on.
func (r *run[T]) work(ctx context.Context, id int) error {
	in := r.in
	smp := newSampler(in.dom, r.seed, id)
	u := make([]T, in.dom.dim())
	x := make([]T, in.dom.dim())

	failNonFinite := in.cfg.nonFinite == FailNonFinite
	inf := T(math.Inf(1))

	for {
		if r.stopped(ctx) {
			return nil
		}

		var local RunningStats[T]
		for range in.cfg.batchSize {
			smp.draw(u)
			jac := in.dom.mapPoint(u, x)

			y, err := in.eval(x)
			if err != nil {
				return newEvaluationError(id, x, err)
			}
			y *= jac
			if failNonFinite && (y != y || y == inf || y == -inf) {
				return newEvaluationError(id, x, ErrNonFinite)
			}
			local.Add(y)
		}

		s := r.acc.merge(local)
		r.pool.batchDone()
		if r.debug {
			r.every.Do(func() {
				in.cfg.logger.Debug("integration progress",
					"run", r.id,
					"worker", id,
					"calls", s.N,
					"estimate", float64(in.dom.volume*s.Mean),
					"error_estimate", float64(in.dom.volume*s.StdError()),
				)
			})
		}

		if r.converged(s) {
			r.stop.CompareAndSwap(int32(keepGoing), int32(stopConverged))
			return nil
		}
	}
}

func (r *run[T]) stopped(ctx context.Context) bool {
	return stopReason(r.stop.Load()) != keepGoing || ctx.Err() != nil
}

// windingDown reports whether the run was canceled, or lost its
// context, and only waits for its workers to return.
func (r *run[T]) windingDown() bool {
	return stopReason(r.stop.Load()) == stopCanceled || r.pool.ctx.Err() != nil
}

// converged reports whether the merged statistics end the run. A NaN
// estimate never recovers, so it ends the run as well.
func (r *run[T]) converged(s RunningStats[T]) bool {
	if s.Absorbed() {
		return true
	}
	if s.N < r.in.cfg.minCalls {
		return false
	}
	return r.in.dom.volume*s.StdError() <= r.in.TargetError()
}

// finish waits for the pool to quiesce, then resolves the handle.
func (r *run[T]) finish() {
	err := r.pool.Wait()
	s := r.acc.snapshot()
	vol := r.in.dom.volume

	st := Canceled
	switch {
	case err != nil:
		st = Failed
	case stopReason(r.stop.Load()) == stopConverged:
		st = Completed
	}

	rep := Report[T]{
		RunID:         r.id,
		State:         st,
		ErrorEstimate: vol * s.StdError(),
		Variance:      s.Variance(),
		Calls:         s.N,
		Seed:          r.seed,
		Elapsed:       time.Since(r.start),
	}
	if st != Failed {
		rep.Estimate = vol * s.Mean
	}

	logger := r.in.cfg.logger
	if err != nil {
		logger.Warn("integration failed",
			"run", r.id,
			"calls", s.N,
			"elapsed", rep.Elapsed,
			"error", err,
		)
	} else {
		logger.Info("integration finished",
			"run", r.id,
			"state", st,
			"estimate", float64(rep.Estimate),
			"error_estimate", float64(rep.ErrorEstimate),
			"calls", s.N,
			"elapsed", rep.Elapsed,
		)
	}

	r.end.Store(r.start.Add(rep.Elapsed).UnixNano())
	r.state.Store(int32(st))
	r.result.resolve(rep, err)
}

// watch feeds the progress callback until the run resolves.
func (r *run[T]) watch() {
	ticker := time.NewTicker(r.in.cfg.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.in.cfg.onProgress(r.progress())
		case <-r.result.done:
			return
		}
	}
}

func (r *run[T]) progress() Progress {
	s := r.acc.snapshot()
	vol := r.in.dom.volume

	elapsed := time.Since(r.start)
	if end := r.end.Load(); end != 0 {
		elapsed = time.Duration(end - r.start.UnixNano())
	}

	return Progress{
		RunID:         r.id.String(),
		State:         r.State(),
		Calls:         s.N,
		Estimate:      float64(vol * s.Mean),
		ErrorEstimate: float64(vol * s.StdError()),
		Variance:      float64(s.Variance()),
		TargetError:   float64(r.in.TargetError()),
		Elapsed:       elapsed,
	}
}
