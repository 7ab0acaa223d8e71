package mcquad

import (
	"errors"
	"fmt"
)

// JobError attributes a failure inside [IntegrateAll] to the job that
// produced it.
type JobError struct {
	Job   string
	Index int
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %q (#%d) failed: %v", e.Job, e.Index, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

// IsJobError reports whether err (or any error in its chain) is a [*JobError].
func IsJobError(err error) bool {
	if err == nil {
		return false
	}
	var je *JobError
	return errors.As(err, &je)
}

// JobOf returns the name of the job behind the first [*JobError] in err's
// chain. Returns false if no JobError is found.
func JobOf(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var je *JobError
	if errors.As(err, &je) {
		return je.Job, true
	}
	return "", false
}

// AllJobErrors recursively collects every [*JobError] from err's chain,
// including errors joined via [errors.Join]. Returns nil if none are found.
func AllJobErrors(err error) []*JobError {
	if err == nil {
		return nil
	}

	var out []*JobError
	collectJobErrors(err, &out)
	return out
}

func collectJobErrors(err error, out *[]*JobError) {
	switch e := err.(type) {
	case *JobError:
		*out = append(*out, e)

	case interface{ Unwrap() []error }:
		for _, sub := range e.Unwrap() {
			collectJobErrors(sub, out)
		}

	case interface{ Unwrap() error }:
		collectJobErrors(e.Unwrap(), out)
	}
}
