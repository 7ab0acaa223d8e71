package mcquad_test

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/baxromumarov/mcquad"
)

func ExampleNew() {
	disk := mcquad.Pure(func(x []float64) float64 {
		if x[0]*x[0]+x[1]*x[1] <= 1 {
			return 4
		}
		return 0
	})

	in, err := mcquad.New(disk, []mcquad.Bound[float64]{{0, 1}, {0, 1}}, 5e-4)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	pi, err := in.Integrate(context.Background()).Wait()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("%.2f\n", pi)
	// Output: 3.14
}

func ExampleNew_unbounded() {
	inf := math.Inf(1)
	gauss := mcquad.Pure(func(x []float64) float64 {
		return math.Exp(-x[0] * x[0])
	})

	in, err := mcquad.New(gauss, []mcquad.Bound[float64]{{-inf, inf}}, 1e-3)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	v, _ := in.Integrate(context.Background()).Wait()
	fmt.Println("close to sqrt(pi):", math.Abs(v-math.Sqrt(math.Pi)) < 0.01)
	// Output: close to sqrt(pi): true
}

func ExampleIntegrator_Cancel() {
	in, _ := mcquad.New(mcquad.Pure(func(x []float64) float64 { return x[0] }),
		[]mcquad.Bound[float64]{{0, 1}}, 0)

	r := in.Integrate(context.Background())
	in.Cancel()

	rep, err := r.Report()
	fmt.Println(rep.State, err)
	// Output: canceled <nil>
}

func ExampleResult_Wait_failure() {
	errDomain := errors.New("outside the domain")
	f := func(x []float64) (float64, error) {
		if x[0] < 0.5 {
			return 0, errDomain
		}
		return 1, nil
	}

	in, _ := mcquad.New(f, []mcquad.Bound[float64]{{0, 1}}, 1e-3)
	v, err := in.Integrate(context.Background()).Wait()

	fmt.Println(v, mcquad.CauseOf(err), in.State())
	// Output: 0 outside the domain failed
}

func ExampleIntegrateAll() {
	jobs := []mcquad.Job[float64]{
		{Name: "area", F: mcquad.Pure(func(x []float64) float64 { return 1 }), Bounds: []mcquad.Bound[float64]{{0, 2}, {0, 3}}, Target: 1e-3},
		{Name: "bad", F: mcquad.Pure(func(x []float64) float64 { return 1 }), Bounds: []mcquad.Bound[float64]{{1, 1}}, Target: 1e-3},
	}

	reports, err := mcquad.IntegrateAll(context.Background(), jobs)
	fmt.Println(reports[0].Estimate)
	if name, ok := mcquad.JobOf(err); ok {
		fmt.Println("failed:", name)
	}
	// Output:
	// 6
	// failed: bad
}
