package mcquad

import (
	"errors"
	"fmt"
	"math"
)

// Float is the set of floating-point types the integrator computes in.
// Every internal quantity (coordinates, Jacobians, running statistics)
// is kept in the caller's type.
type Float interface {
	~float32 | ~float64
}

// ErrInvalidBounds is wrapped by every [*BoundsError].
var ErrInvalidBounds = errors.New("mcquad: invalid bounds")

// Bound is the integration range of one dimension. Either side may be
// infinite: use math.Inf(-1) for Low or math.Inf(1) for High.
type Bound[T Float] struct {
	Low  T
	High T
}

// BoundsError reports a malformed [Bound]. It is returned by [New] before
// any worker starts.
type BoundsError struct {
	Dim    int
	Low    float64
	High   float64
	Reason string
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("mcquad: dimension %d bounds (%g, %g): %s", e.Dim, e.Low, e.High, e.Reason)
}

func (e *BoundsError) Unwrap() error { return ErrInvalidBounds }

type boundKind uint8

const (
	finite boundKind = iota
	upperInfinite
	lowerInfinite
	bothInfinite
)

// axis maps one coordinate of the finite sampling box back into the
// caller's domain.
type axis[T Float] struct {
	kind boundKind
	a, b T // original bounds, only the finite ones are meaningful
	lo   T // sampling interval
	hi   T
}

// domain is immutable once built.
type domain[T Float] struct {
	axes   []axis[T]
	volume T
}

func newDomain[T Float](bounds []Bound[T]) (*domain[T], error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("%w: at least one dimension is required", ErrInvalidBounds)
	}

	d := &domain[T]{
		axes:   make([]axis[T], len(bounds)),
		volume: 1,
	}
	for i, bd := range bounds {
		ax, err := newAxis(i, bd)
		if err != nil {
			return nil, err
		}
		d.axes[i] = ax
		d.volume *= ax.hi - ax.lo
		if math.IsInf(float64(d.volume), 0) {
			return nil, &BoundsError{Dim: i, Low: float64(bd.Low), High: float64(bd.High), Reason: "domain volume overflows"}
		}
	}
	return d, nil
}

func newAxis[T Float](dim int, bd Bound[T]) (axis[T], error) {
	lo, hi := float64(bd.Low), float64(bd.High)
	fail := func(reason string) (axis[T], error) {
		return axis[T]{}, &BoundsError{Dim: dim, Low: lo, High: hi, Reason: reason}
	}

	switch {
	case math.IsNaN(lo) || math.IsNaN(hi):
		return fail("NaN bound")
	case math.IsInf(lo, 1):
		return fail("lower bound is +Inf")
	case math.IsInf(hi, -1):
		return fail("upper bound is -Inf")
	}

	lowInf, highInf := math.IsInf(lo, -1), math.IsInf(hi, 1)
	switch {
	case lowInf && highInf:
		return axis[T]{kind: bothInfinite, lo: -1, hi: 1}, nil
	case highInf:
		return axis[T]{kind: upperInfinite, a: bd.Low, lo: 0, hi: 1}, nil
	case lowInf:
		return axis[T]{kind: lowerInfinite, b: bd.High, lo: 0, hi: 1}, nil
	}

	switch {
	case !(bd.Low < bd.High):
		return fail("low must be less than high")
	case math.IsInf(float64(bd.High-bd.Low), 0):
		return fail("width overflows")
	case !(nextToward(bd.Low, bd.High) < bd.High):
		return fail("no representable point strictly between low and high")
	}
	return axis[T]{kind: finite, a: bd.Low, b: bd.High, lo: bd.Low, hi: bd.High}, nil
}

// nextToward returns the T adjacent to x in the direction of y.
func nextToward[T Float](x, y T) T {
	if isFloat32[T]() {
		return T(math.Nextafter32(float32(x), float32(y)))
	}
	return T(math.Nextafter(float64(x), float64(y)))
}

// isFloat32 reports whether T has float32 precision.
func isFloat32[T Float]() bool {
	one := T(1)
	return one+T(0x1p-30) == one
}

// mapPoint writes the caller-domain point for the sampling point u into x
// and returns the product of the per-dimension Jacobians.
// u must lie strictly inside every sampling interval.
func (d *domain[T]) mapPoint(u, x []T) T {
	jac := T(1)
	for i := range d.axes {
		var j T
		x[i], j = d.axes[i].apply(u[i])
		jac *= j
	}
	return jac
}

func (ax *axis[T]) apply(u T) (T, T) {
	switch ax.kind {
	case upperInfinite:
		t := 1 - u
		return ax.a + u/t, 1 / (t * t)
	case lowerInfinite:
		t := 1 - u
		return ax.b - u/t, 1 / (t * t)
	case bothInfinite:
		u2 := u * u
		t := 1 - u2
		return u / t, (1 + u2) / (t * t)
	default:
		return u, 1
	}
}

func (d *domain[T]) dim() int { return len(d.axes) }
