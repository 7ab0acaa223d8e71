package mcquad

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Func is an integrand. It receives a point of the integration domain,
// one coordinate per [Bound], and returns the function value or an
// error. It is called concurrently from several workers and must not
// retain x, which is reused between calls.
type Func[T Float] func(x []T) (T, error)

// Pure adapts an integrand that cannot fail.
func Pure[T Float](f func(x []T) T) Func[T] {
	return func(x []T) (T, error) {
		return f(x), nil
	}
}

// Integrator estimates the integral of a function over a box by uniform
// random sampling, until the standard error of the estimate drops to a
// target or the run is canceled.
//
// An Integrator runs at most one computation at a time. After a run
// finished, [Integrator.Integrate] starts a fresh, statistically
// independent run.
type Integrator[T Float] struct {
	f    Func[T]
	dom  *domain[T]
	cfg  config
	seed uint64

	target atomic.Uint64 // float64 bits

	mu   sync.Mutex // serializes Integrate
	runs uint64
	cur  atomic.Pointer[run[T]]
}

// New validates the bounds and target and returns an idle Integrator.
// Bound errors are [*BoundsError] values wrapping [ErrInvalidBounds].
// New panics if f is nil.
func New[T Float](f Func[T], bounds []Bound[T], target T, opts ...Option) (*Integrator[T], error) {
	if f == nil {
		panic("mcquad: New requires a non-nil integrand")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dom, err := newDomain(bounds)
	if err != nil {
		return nil, err
	}

	in := &Integrator[T]{
		f:    f,
		dom:  dom,
		cfg:  cfg,
		seed: cfg.seed,
	}
	if in.seed == 0 {
		in.seed = rand.Uint64()
	}
	if err := in.UpdateTargetError(target); err != nil {
		return nil, err
	}
	return in, nil
}

// Integrate starts a run and returns its handle. If a run is already in
// flight, its handle is returned instead. A run that is winding down
// after a cancellation is waited for, and a fresh run is started.
//
// Canceling ctx has the same effect as [Integrator.Cancel]: the run
// resolves with its partial estimate, not with an error.
func (in *Integrator[T]) Integrate(ctx context.Context) *Result[T] {
	in.mu.Lock()
	defer in.mu.Unlock()

	if r := in.cur.Load(); r != nil && r.State() == Running {
		if !r.windingDown() {
			return r.result
		}
		<-r.result.done
	}

	in.runs++
	id := uuid.New()
	r := &run[T]{
		in:     in,
		id:     id,
		seed:   runSeed(in.seed, in.runs),
		start:  time.Now(),
		result: newResult[T](id),
		every:  rate.Sometimes{Interval: in.cfg.logInterval},
		debug:  in.cfg.logger.Enabled(ctx, slog.LevelDebug),
	}
	r.state.Store(int32(Running))
	r.pool = newPool(ctx, in.cfg.workers)
	in.cur.Store(r)

	in.cfg.logger.Info("integration started",
		"run", id,
		"dimensions", in.dom.dim(),
		"workers", in.cfg.workers,
		"batch_size", in.cfg.batchSize,
		"target_error", float64(in.TargetError()),
	)

	r.pool.start(r.work)
	go r.finish()
	if in.cfg.onProgress != nil {
		go r.watch()
	}
	return r.result
}

// Cancel asks the workers of the current run to stop. Each worker
// finishes at most the batch it is evaluating. The run's handle then
// resolves with the estimate built from the samples merged so far.
// Cancel is a no-op when nothing is running.
func (in *Integrator[T]) Cancel() {
	if r := in.cur.Load(); r != nil {
		r.stop.CompareAndSwap(int32(keepGoing), int32(stopCanceled))
	}
}

// UpdateTargetError replaces the standard error the run stops at. A run
// in flight picks the new value up at its workers' next batch boundary.
func (in *Integrator[T]) UpdateTargetError(e T) error {
	if e != e || e < 0 {
		return ErrInvalidTarget
	}
	in.target.Store(math.Float64bits(float64(e)))
	return nil
}

// TargetError returns the current target standard error.
func (in *Integrator[T]) TargetError() T {
	return T(math.Float64frombits(in.target.Load()))
}

// State returns the state of the current or last run.
func (in *Integrator[T]) State() State {
	r := in.cur.Load()
	if r == nil {
		return Idle
	}
	return r.State()
}

// Dimension is the number of coordinates handed to the integrand.
func (in *Integrator[T]) Dimension() int {
	return in.dom.dim()
}

func (in *Integrator[T]) stats() RunningStats[T] {
	r := in.cur.Load()
	if r == nil {
		return RunningStats[T]{}
	}
	return r.acc.snapshot()
}

// Calls returns the number of samples merged into the statistics of the
// current or last run.
func (in *Integrator[T]) Calls() int64 {
	return in.stats().N
}

// Variance returns the sample variance of the Jacobian-scaled integrand
// values of the current or last run.
func (in *Integrator[T]) Variance() T {
	return in.stats().Variance()
}

// CurrentErrorEstimate returns the standard error of the integral
// estimate, or +Inf while fewer than two samples were merged.
func (in *Integrator[T]) CurrentErrorEstimate() T {
	return in.dom.volume * in.stats().StdError()
}

// Estimate returns the running integral estimate.
func (in *Integrator[T]) Estimate() T {
	return in.dom.volume * in.stats().Mean
}

// Progress returns how close the current run is to its target, from 0
// (no usable estimate) to 1 (target met).
func (in *Integrator[T]) Progress() T {
	cur, tgt := in.CurrentErrorEstimate(), in.TargetError()
	switch {
	case cur != cur || math.IsInf(float64(cur), 1):
		return 0
	case cur <= tgt:
		return 1
	default:
		return tgt / cur
	}
}

// EstimatedTimeToCompletion extrapolates the remaining time of the
// running computation from the fact that the standard error shrinks like
// 1/sqrt(n). ok is false when no run is in flight or there is no usable
// error estimate yet.
func (in *Integrator[T]) EstimatedTimeToCompletion() (d time.Duration, ok bool) {
	r := in.cur.Load()
	if r == nil || r.State() != Running {
		return 0, false
	}

	cur, tgt := float64(in.CurrentErrorEstimate()), float64(in.TargetError())
	if math.IsNaN(cur) || math.IsInf(cur, 0) || tgt <= 0 {
		return 0, false
	}
	if cur <= tgt {
		return 0, true
	}

	ratio := cur / tgt
	return time.Duration(float64(time.Since(r.start)) * (ratio*ratio - 1)), true
}

// PoolStats returns the worker pool counters of the current or last run.
func (in *Integrator[T]) PoolStats() PoolStats {
	r := in.cur.Load()
	if r == nil {
		return PoolStats{}
	}
	return r.pool.Stats()
}

// Snapshot returns diagnostics of the current or last run, widened to
// float64.
func (in *Integrator[T]) Snapshot() Progress {
	r := in.cur.Load()
	if r == nil {
		return Progress{
			State:         Idle,
			ErrorEstimate: math.Inf(1),
			TargetError:   float64(in.TargetError()),
		}
	}
	return r.progress()
}

// eval calls the integrand, turning a panic into a [*PanicError].
func (in *Integrator[T]) eval(x []T) (y T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
	}()
	return in.f(x)
}
