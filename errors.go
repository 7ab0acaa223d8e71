package mcquad

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTarget is returned for a negative or NaN target error.
	ErrInvalidTarget = errors.New("mcquad: target error must be a non-negative number")

	// ErrNonFinite is the cause of a failed run under [FailNonFinite] when
	// a Jacobian-scaled sample is NaN or infinite.
	ErrNonFinite = errors.New("mcquad: integrand produced a non-finite value")
)

// EvaluationError reports the first integrand failure of a run: the
// worker that hit it, the point it was evaluating (in the caller's
// domain, widened to float64 for reporting) and the cause.
//
// A panicking integrand yields an EvaluationError whose Err is a
// [*PanicError].
type EvaluationError struct {
	Worker int
	Point  []float64
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("mcquad: worker %d: integrand failed at %v: %v", e.Worker, e.Point, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

func newEvaluationError[T Float](worker int, x []T, err error) *EvaluationError {
	pt := make([]float64, len(x))
	for i, v := range x {
		pt[i] = float64(v)
	}
	return &EvaluationError{Worker: worker, Point: pt, Err: err}
}

// IsEvaluationError reports whether err (or any error in its chain) is an
// [*EvaluationError].
func IsEvaluationError(err error) bool {
	if err == nil {
		return false
	}
	var ee *EvaluationError
	return errors.As(err, &ee)
}

// CauseOf unwraps the first [*EvaluationError] or [*JobError] in err's
// chain and returns what the integrand itself failed with. Other errors
// are returned as-is; nil stays nil.
func CauseOf(err error) error {
	if err == nil {
		return nil
	}

	var je *JobError
	if errors.As(err, &je) {
		err = je.Err
	}

	var ee *EvaluationError
	if errors.As(err, &ee) {
		return ee.Err
	}
	return err
}
