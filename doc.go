// Package mcquad estimates multidimensional definite integrals by
// concurrent Monte Carlo sampling.
//
// An [Integrator] samples a function uniformly over a box, possibly
// unbounded on any side, on a fixed pool of worker goroutines, keeping a
// running mean and variance of the samples. It stops once the standard
// error of the estimate drops to a caller-chosen target, or when it is
// canceled.
//
// # Running an Integration
//
// [New] validates the domain and returns an idle integrator;
// [Integrator.Integrate] starts a run and returns a [Result], an
// asynchronous handle:
//
//	disk := mcquad.Pure(func(x []float64) float64 {
//	    if x[0]*x[0]+x[1]*x[1] <= 1 {
//	        return 4
//	    }
//	    return 0
//	})
//	in, err := mcquad.New(disk, []mcquad.Bound[float64]{{0, 1}, {0, 1}}, 5e-4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pi, err := in.Integrate(ctx).Wait()
//
// While a run is in flight, [Integrator.Calls], [Integrator.Variance],
// [Integrator.CurrentErrorEstimate], [Integrator.Progress] and
// [Integrator.EstimatedTimeToCompletion] read live diagnostics.
//
// # Cancellation and Restart
//
// [Integrator.Cancel] (or canceling the context passed to Integrate) is an
// early stop, not a failure: the handle resolves with the estimate built
// from the samples merged so far. Workers poll the stop flag between
// batches, so [WithBatchSize] bounds the cancellation latency.
//
// A finished integrator can run again. [Integrator.UpdateTargetError]
// changes the target, and the next Integrate starts from empty statistics
// with fresh random streams.
//
// # Unbounded Domains
//
// Infinite bounds are mapped onto finite sampling intervals:
//
//   - [a, +Inf):    x = a + u/(1-u),  u in (0, 1), Jacobian 1/(1-u)^2
//   - (-Inf, b]:    x = b - u/(1-u),  u in (0, 1), Jacobian 1/(1-u)^2
//   - (-Inf, +Inf): x = u/(1-u^2),    u in (-1, 1), Jacobian (1+u^2)/(1-u^2)^2
//
// Sampling points are drawn strictly inside the open intervals.
//
// # Failures
//
// An integrand that returns an error or panics fails the run: the first
// failure stops every worker, and [Result.Wait] returns an
// [*EvaluationError] carrying the point and the cause ([*PanicError] for
// panics). Partial estimates of failed runs are discarded.
//
// NaN and infinite samples are not failures by default: they propagate
// into the estimate, and a NaN estimate ends the run. [WithNonFinitePolicy]
// with [FailNonFinite] turns them into failures.
//
// # Precision
//
// The integrator is generic over [Float]. All sampling, Jacobian and
// running-statistics arithmetic happens in the caller's type.
//
// # Batches
//
// [IntegrateAll] runs several jobs concurrently and attributes failures
// to jobs via [*JobError].
//
// The [github.com/baxromumarov/mcquad/luafunc] subpackage builds
// integrands from Lua source, and
// [github.com/baxromumarov/mcquad/promstats] exports run diagnostics to
// Prometheus.
package mcquad
