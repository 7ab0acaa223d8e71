package mcquad

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/iter"
)

// Job is one integral of an [IntegrateAll] batch.
type Job[T Float] struct {
	Name   string
	F      Func[T]
	Bounds []Bound[T]
	Target T
}

// IntegrateAll integrates every job concurrently and returns the reports
// in input order. opts apply to every job's [Integrator]; with many jobs,
// pass [WithWorkers] to share the CPUs between them.
//
// Failures do not stop sibling jobs. Every failing job contributes a
// [*JobError] to the returned error (joined via errors.Join); its report
// holds whatever diagnostics the run gathered. Canceling ctx cancels all
// runs, which then resolve with partial estimates.
//
//	reports, err := mcquad.IntegrateAll(ctx, []mcquad.Job[float64]{
//	    {Name: "disk", F: disk, Bounds: unitSquare, Target: 1e-3},
//	    {Name: "cauchy", F: cauchy, Bounds: realLine, Target: 1e-3},
//	}, mcquad.WithWorkers(2))
func IntegrateAll[T Float](ctx context.Context, jobs []Job[T], opts ...Option) ([]Report[T], error) {
	order := make([]int, len(jobs))
	for i := range order {
		order[i] = i
	}

	mapper := iter.Mapper[int, Report[T]]{MaxGoroutines: runtime.GOMAXPROCS(0)}
	return mapper.MapErr(order, func(i *int) (Report[T], error) {
		j := &jobs[*i]
		wrap := func(err error) error {
			return &JobError{Job: j.Name, Index: *i, Err: err}
		}

		in, err := New(j.F, j.Bounds, j.Target, opts...)
		if err != nil {
			return Report[T]{}, wrap(err)
		}

		rep, err := in.Integrate(ctx).Report()
		if err != nil {
			return rep, wrap(err)
		}
		return rep, nil
	})
}
