package mcquad

// State is the lifecycle state of an [Integrator].
type State int32

const (
	// Idle means no run was started yet.
	Idle State = iota
	// Running means workers are sampling.
	Running
	// Completed means the last run met its error target.
	Completed
	// Canceled means the last run was stopped by Cancel or its context.
	Canceled
	// Failed means the integrand failed during the last run.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Canceled:
		return "canceled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is a finished state.
func (s State) Terminal() bool {
	return s == Completed || s == Canceled || s == Failed
}
