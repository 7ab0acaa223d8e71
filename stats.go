package mcquad

import (
	"math"
	"sync"
)

// RunningStats is a Welford accumulator of count, mean and the sum of
// squared differences from the mean (M2). The zero value is empty.
//
// NaN is absorbing: once a NaN is added (or an infinity forces one),
// Mean and M2 stay NaN.
type RunningStats[T Float] struct {
	N    int64
	Mean T
	M2   T
}

// Add folds one value into the statistics.
func (s *RunningStats[T]) Add(y T) {
	s.N++
	delta := y - s.Mean
	s.Mean += delta / T(s.N)
	s.M2 += delta * (y - s.Mean)
}

// Merge combines two accumulators with Chan's parallel formula. The
// operation is commutative and associative up to rounding.
func (s RunningStats[T]) Merge(o RunningStats[T]) RunningStats[T] {
	switch {
	case o.N == 0:
		return s
	case s.N == 0:
		return o
	}

	n := s.N + o.N
	na, nb, nt := T(s.N), T(o.N), T(n)
	delta := o.Mean - s.Mean
	return RunningStats[T]{
		N:    n,
		Mean: s.Mean + delta*nb/nt,
		M2:   s.M2 + o.M2 + delta*delta*na*nb/nt,
	}
}

// Variance is the unbiased sample variance, or 0 with fewer than two values.
func (s RunningStats[T]) Variance() T {
	if s.N < 2 {
		return 0
	}
	return s.M2 / T(s.N-1)
}

// StdError is sqrt(Variance/N), or +Inf with fewer than two values.
func (s RunningStats[T]) StdError() T {
	if s.N < 2 {
		return T(math.Inf(1))
	}
	return sqrt(s.Variance() / T(s.N))
}

// Absorbed reports whether the statistics have become NaN.
func (s RunningStats[T]) Absorbed() bool {
	return s.Mean != s.Mean || s.M2 != s.M2
}

// sqrt goes through float64; the result is correctly rounded for float32 too.
func sqrt[T Float](v T) T {
	return T(math.Sqrt(float64(v)))
}

// accumulator is the only state workers share. A whole batch is merged
// under one lock hold.
type accumulator[T Float] struct {
	mu sync.Mutex
	s  RunningStats[T]
}

func (a *accumulator[T]) merge(b RunningStats[T]) RunningStats[T] {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.s = a.s.Merge(b)
	return a.s
}

func (a *accumulator[T]) snapshot() RunningStats[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s
}
