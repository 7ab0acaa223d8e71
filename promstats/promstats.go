// Package promstats exports the diagnostics of mcquad integrators as
// Prometheus metrics.
package promstats

import (
	"math"
	"sort"
	"sync"

	"github.com/baxromumarov/mcquad"
	"github.com/prometheus/client_golang/prometheus"
)

// Source is anything that can report a progress snapshot. Every
// *mcquad.Integrator satisfies it.
type Source interface {
	Snapshot() mcquad.Progress
}

// Collector reports the live state of named sources on every scrape and
// keeps counters of finished runs.
type Collector struct {
	mu      sync.RWMutex
	sources map[string]Source

	calls       *prometheus.Desc
	estimate    *prometheus.Desc
	errEstimate *prometheus.Desc
	target      *prometheus.Desc
	variance    *prometheus.Desc
	running     *prometheus.Desc

	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCollector creates a collector whose metric names start with
// namespace. Register it with a prometheus.Registerer.
func NewCollector(namespace string) *Collector {
	labels := []string{"integral"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}

	return &Collector{
		sources:     make(map[string]Source),
		calls:       desc("calls", "Samples merged into the current run."),
		estimate:    desc("estimate", "Current integral estimate."),
		errEstimate: desc("error_estimate", "Standard error of the current estimate."),
		target:      desc("target_error", "Standard error the current run stops at."),
		variance:    desc("variance", "Sample variance of the scaled integrand values."),
		running:     desc("running", "1 while a run is in flight."),

		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by final state.",
		}, []string{"integral", "state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of finished runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4m
		}, []string{"integral"}),
	}
}

// Add starts reporting s under name, replacing any source of that name.
func (c *Collector) Add(name string, s Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = s
}

// Remove stops reporting the source called name.
func (c *Collector) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
}

// Observe records a finished run. Snapshots of runs that are still in
// flight are ignored.
func (c *Collector) Observe(name string, p mcquad.Progress) {
	if !p.State.Terminal() {
		return
	}
	c.runs.WithLabelValues(name, p.State.String()).Inc()
	c.duration.WithLabelValues(name).Observe(p.Elapsed.Seconds())
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.calls
	ch <- c.estimate
	ch <- c.errEstimate
	ch <- c.target
	ch <- c.variance
	ch <- c.running
	c.runs.Describe(ch)
	c.duration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	snaps := make([]mcquad.Progress, len(names))
	for i, name := range names {
		snaps[i] = c.sources[name].Snapshot()
	}
	c.mu.RUnlock()

	for i, p := range snaps {
		name := names[i]
		running := 0.0
		if p.State == mcquad.Running {
			running = 1
		}

		ch <- prometheus.MustNewConstMetric(c.calls, prometheus.GaugeValue, float64(p.Calls), name)
		ch <- prometheus.MustNewConstMetric(c.estimate, prometheus.GaugeValue, p.Estimate, name)
		ch <- prometheus.MustNewConstMetric(c.errEstimate, prometheus.GaugeValue, finiteOrNaN(p.ErrorEstimate), name)
		ch <- prometheus.MustNewConstMetric(c.target, prometheus.GaugeValue, p.TargetError, name)
		ch <- prometheus.MustNewConstMetric(c.variance, prometheus.GaugeValue, p.Variance, name)
		ch <- prometheus.MustNewConstMetric(c.running, prometheus.GaugeValue, running, name)
	}

	c.runs.Collect(ch)
	c.duration.Collect(ch)
}

// finiteOrNaN maps the +Inf error of an empty run to NaN, which
// Prometheus renders as a missing value.
func finiteOrNaN(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
