package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/baxromumarov/mcquad"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// jobConfig is one integral of a job file.
type jobConfig struct {
	Name   string   `mapstructure:"name"`
	Expr   string   `mapstructure:"expr"`
	Bounds []string `mapstructure:"bounds"`
	Target float64  `mapstructure:"target"`
}

// runConfig is the merged view of the job file, the environment and the
// command line flags.
type runConfig struct {
	Jobs []jobConfig `mapstructure:"jobs"`

	Workers   int           `mapstructure:"workers"`
	BatchSize int           `mapstructure:"batch_size"`
	MinCalls  int64         `mapstructure:"min_calls"`
	Seed      uint64        `mapstructure:"seed"`
	NonFinite string        `mapstructure:"non_finite"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Progress  time.Duration `mapstructure:"progress"`

	Format      string `mapstructure:"format"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level"`
}

// jobFlags are the flags describing a single integral on the command
// line. They become an extra job named after --name.
type jobFlags struct {
	name   string
	expr   string
	bounds []string
	target float64
}

func (f *jobFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "cli", "name of the command line integral")
	fs.StringVar(&f.expr, "expr", "", "Lua integrand; the point is the 1-indexed table x")
	fs.StringArrayVar(&f.bounds, "bound", nil, "bounds lo:hi of one dimension, repeat per dimension (inf allowed)")
	fs.Float64Var(&f.target, "target", 1e-3, "target standard error")
}

func (f *jobFlags) job() (jobConfig, bool) {
	if f.expr == "" {
		return jobConfig{}, false
	}
	return jobConfig{Name: f.name, Expr: f.expr, Bounds: f.bounds, Target: f.target}, true
}

var runFlagNames = []string{"workers", "batch-size", "min-calls", "seed", "non-finite", "timeout", "progress", "format", "metrics-addr"}

func registerRunFlags(fs *pflag.FlagSet) {
	fs.Int("workers", 0, "workers per integral (0: GOMAXPROCS)")
	fs.Int("batch-size", 0, "samples per merge (0: library default)")
	fs.Int64("min-calls", -1, "samples before the target is checked (-1: library default)")
	fs.Uint64("seed", 0, "base random seed (0: random)")
	fs.String("non-finite", "propagate", "NaN/Inf samples: propagate or fail")
	fs.Duration("timeout", 0, "cancel every run after this long (0: no limit)")
	fs.Duration("progress", 0, "log progress at this interval (0: off)")
	fs.String("format", "text", "report format: text, yaml or json")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
}

// bindRunFlags binds the flags of the executing command. Binding happens
// at execution time because run and check share keys.
func bindRunFlags(v *viper.Viper, fs *pflag.FlagSet) {
	for _, name := range runFlagNames {
		mustBind(v, strings.ReplaceAll(name, "-", "_"), fs.Lookup(name))
	}
}

func mustBind(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// loadRunConfig binds fs, decodes v and appends the command line job, if
// any.
func loadRunConfig(v *viper.Viper, fs *pflag.FlagSet, jf *jobFlags) (runConfig, error) {
	bindRunFlags(v, fs)

	var cfg runConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if j, ok := jf.job(); ok {
		cfg.Jobs = append(cfg.Jobs, j)
	}
	if len(cfg.Jobs) == 0 {
		return cfg, errors.New("nothing to integrate: pass --expr or a job file with jobs")
	}

	seen := make(map[string]bool, len(cfg.Jobs))
	for i := range cfg.Jobs {
		j := &cfg.Jobs[i]
		if j.Name == "" {
			j.Name = fmt.Sprintf("job-%d", i)
		}
		if seen[j.Name] {
			return cfg, fmt.Errorf("duplicate job name %q", j.Name)
		}
		seen[j.Name] = true
	}
	return cfg, nil
}

// options translates the engine settings into integrator options.
func (c runConfig) options() ([]mcquad.Option, error) {
	var opts []mcquad.Option
	if c.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Workers > 0 {
		opts = append(opts, mcquad.WithWorkers(c.Workers))
	}
	if c.BatchSize < 0 {
		return nil, fmt.Errorf("batch size must not be negative, got %d", c.BatchSize)
	}
	if c.BatchSize > 0 {
		opts = append(opts, mcquad.WithBatchSize(c.BatchSize))
	}
	if c.MinCalls >= 0 {
		opts = append(opts, mcquad.WithMinCalls(c.MinCalls))
	}
	if c.Seed != 0 {
		opts = append(opts, mcquad.WithSeed(c.Seed))
	}

	switch c.NonFinite {
	case "", mcquad.PropagateNonFinite.String():
	case mcquad.FailNonFinite.String():
		opts = append(opts, mcquad.WithNonFinitePolicy(mcquad.FailNonFinite))
	default:
		return nil, fmt.Errorf("unknown non-finite policy %q", c.NonFinite)
	}
	return opts, nil
}

// parseBounds parses "lo:hi" pairs. Either side may be inf, -inf or
// +inf.
func parseBounds(specs []string) ([]mcquad.Bound[float64], error) {
	if len(specs) == 0 {
		return nil, errors.New("at least one bound is required")
	}

	bounds := make([]mcquad.Bound[float64], len(specs))
	for i, s := range specs {
		lo, hi, ok := strings.Cut(s, ":")
		if !ok {
			return nil, fmt.Errorf("bound %d: %q is not lo:hi", i, s)
		}
		l, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
		if err != nil {
			return nil, fmt.Errorf("bound %d: low: %w", i, err)
		}
		h, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return nil, fmt.Errorf("bound %d: high: %w", i, err)
		}
		bounds[i] = mcquad.Bound[float64]{Low: l, High: h}
	}
	return bounds, nil
}
