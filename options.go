package mcquad

import (
	"io"
	"log/slog"
	"runtime"
	"time"
)

// NonFinitePolicy determines what a run does with NaN or infinite
// Jacobian-scaled samples.
type NonFinitePolicy int

const (
	// PropagateNonFinite lets non-finite samples flow into the running
	// statistics. A NaN estimate can never recover, so the run completes
	// as soon as the estimate is NaN and [Result.Wait] returns NaN with a
	// nil error.
	PropagateNonFinite NonFinitePolicy = iota

	// FailNonFinite fails the run on the first NaN or ±Inf sample.
	// [Result.Wait] returns an [*EvaluationError] wrapping [ErrNonFinite].
	FailNonFinite
)

func (p NonFinitePolicy) String() string {
	switch p {
	case PropagateNonFinite:
		return "propagate"
	case FailNonFinite:
		return "fail"
	default:
		return "unknown"
	}
}

// Progress is a diagnostic snapshot of a run, widened to float64 so it
// can be reported independently of the integrator's numeric type.
type Progress struct {
	RunID         string
	State         State
	Calls         int64
	Estimate      float64
	ErrorEstimate float64
	Variance      float64
	TargetError   float64
	Elapsed       time.Duration
}

const (
	defaultBatchSize   = 128
	defaultMinCalls    = 1024
	defaultLogInterval = time.Second
)

type config struct {
	workers     int
	batchSize   int
	minCalls    int64
	seed        uint64
	nonFinite   NonFinitePolicy
	logger      *slog.Logger
	logInterval time.Duration

	onProgress       func(Progress)
	progressInterval time.Duration
}

// Option configures an [Integrator].
type Option func(*config)

func defaultConfig() config {
	return config{
		workers:     runtime.GOMAXPROCS(0),
		batchSize:   defaultBatchSize,
		minCalls:    defaultMinCalls,
		nonFinite:   PropagateNonFinite,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		logInterval: defaultLogInterval,
	}
}

// WithWorkers sets the number of goroutines evaluating the integrand.
// The default is runtime.GOMAXPROCS(0). Panics if n <= 0.
func WithWorkers(n int) Option {
	if n <= 0 {
		panic("mcquad: WithWorkers requires n > 0")
	}
	return func(c *config) {
		c.workers = n
	}
}

// WithBatchSize sets how many samples a worker evaluates between merges
// into the shared statistics. It is also the cancellation latency: after
// [Integrator.Cancel] every worker finishes at most its current batch.
// Panics if n <= 0.
func WithBatchSize(n int) Option {
	if n <= 0 {
		panic("mcquad: WithBatchSize requires n > 0")
	}
	return func(c *config) {
		c.batchSize = n
	}
}

// WithMinCalls sets the warm-up floor: the error target is not checked
// until at least n samples were merged. A small sample can show a
// misleadingly tiny variance. Default 1024. Panics if n < 0.
func WithMinCalls(n int64) Option {
	if n < 0 {
		panic("mcquad: WithMinCalls requires n >= 0")
	}
	return func(c *config) {
		c.minCalls = n
	}
}

// WithSeed fixes the base seed of the per-worker random sources. Runs of
// an integrator with the same seed and worker count draw the same
// per-worker streams. Zero, the default, picks a random seed.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithNonFinitePolicy selects how NaN and infinite samples are handled.
// It panics if p is not a known NonFinitePolicy value.
func WithNonFinitePolicy(p NonFinitePolicy) Option {
	return func(c *config) {
		switch p {
		case PropagateNonFinite, FailNonFinite:
			c.nonFinite = p
		default:
			panic("mcquad: invalid non-finite policy")
		}
	}
}

// WithLogger sets the logger for run lifecycle and progress records.
// By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("mcquad: WithLogger requires non-nil logger")
	}
	return func(c *config) {
		c.logger = l
	}
}

// WithLogInterval bounds how often workers emit debug progress records,
// across all workers of a run. Default one second. Panics if d <= 0.
func WithLogInterval(d time.Duration) Option {
	if d <= 0 {
		panic("mcquad: WithLogInterval requires d > 0")
	}
	return func(c *config) {
		c.logInterval = d
	}
}

// WithOnProgress registers a callback that receives a [Progress] snapshot
// every interval while a run is in flight.
//
// Panics if interval <= 0 or fn is nil.
func WithOnProgress(interval time.Duration, fn func(Progress)) Option {
	if interval <= 0 {
		panic("mcquad: WithOnProgress requires interval > 0")
	}
	if fn == nil {
		panic("mcquad: WithOnProgress requires non-nil callback")
	}
	return func(c *config) {
		c.onProgress = fn
		c.progressInterval = interval
	}
}
