package mcquad

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Report is the final account of one run.
type Report[T Float] struct {
	RunID         uuid.UUID
	State         State
	Estimate      T
	ErrorEstimate T
	Variance      T
	Calls         int64
	Seed          uint64
	Elapsed       time.Duration
}

// Result is the asynchronous handle of one run, returned by
// [Integrator.Integrate]. It resolves only after every worker of the run
// has stopped.
type Result[T Float] struct {
	id     uuid.UUID
	done   chan struct{}
	report Report[T]
	err    error
}

func newResult[T Float](id uuid.UUID) *Result[T] {
	return &Result[T]{id: id, done: make(chan struct{})}
}

// resolve publishes the outcome. It must be called exactly once.
func (r *Result[T]) resolve(rep Report[T], err error) {
	r.report = rep
	r.err = err
	close(r.done)
}

// ID returns the run identifier, also attached to log records.
func (r *Result[T]) ID() uuid.UUID {
	return r.id
}

// Wait blocks until the run finishes and returns the estimate.
//
// A completed or canceled run returns its estimate and a nil error; for a
// canceled run the estimate covers exactly the samples merged before the
// workers stopped. A failed run returns the zero value and the failure,
// an [*EvaluationError].
func (r *Result[T]) Wait() (T, error) {
	<-r.done
	return r.value()
}

// WaitContext is like [Result.Wait] but gives up when ctx is done,
// returning ctx.Err(). Giving up does not cancel the run.
func (r *Result[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.value()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (r *Result[T]) value() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.report.Estimate, nil
}

// Report blocks until the run finishes and returns its full report. The
// report of a failed run carries the diagnostics gathered before the
// failure; its Estimate is zero.
func (r *Result[T]) Report() (Report[T], error) {
	<-r.done
	return r.report, r.err
}

// Done returns a channel that is closed when the run finishes.
func (r *Result[T]) Done() <-chan struct{} {
	return r.done
}
