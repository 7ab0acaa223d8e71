package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baxromumarov/mcquad"
	"github.com/baxromumarov/mcquad/luafunc"
	"github.com/baxromumarov/mcquad/promstats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	var jf jobFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Integrate every job and print a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(v, cmd.Flags(), &jf)
			if err != nil {
				return err
			}
			logger, err := newLogger(os.Stderr, cfg.LogLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reports, runErr := runJobs(ctx, cfg, logger)
			if err := writeReports(cmd.OutOrStdout(), cfg.Format, reports); err != nil {
				return err
			}
			return runErr
		},
	}

	jf.register(cmd.Flags())
	registerRunFlags(cmd.Flags())
	return cmd
}

func newCheckCmd(v *viper.Viper) *cobra.Command {
	var jf jobFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compile every job and validate its bounds without integrating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(v, cmd.Flags(), &jf)
			if err != nil {
				return err
			}
			opts, err := cfg.options()
			if err != nil {
				return err
			}

			var errs []error
			for i, j := range cfg.Jobs {
				if _, err := prepare(j, opts); err != nil {
					errs = append(errs, &mcquad.JobError{Job: j.Name, Index: i, Err: err})
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", j.Name)
			}
			return errors.Join(errs...)
		},
	}

	jf.register(cmd.Flags())
	registerRunFlags(cmd.Flags())
	return cmd
}

// prepare compiles a job into an idle integrator.
func prepare(j jobConfig, opts []mcquad.Option) (*mcquad.Integrator[float64], error) {
	bounds, err := parseBounds(j.Bounds)
	if err != nil {
		return nil, err
	}
	prog, err := luafunc.Compile(j.Name, j.Expr)
	if err != nil {
		return nil, err
	}
	return mcquad.New(prog.Func(), bounds, j.Target, opts...)
}

// runJobs integrates all jobs concurrently. Every job gets a report;
// failures are returned joined, one *mcquad.JobError per failed job.
func runJobs(ctx context.Context, cfg runConfig, logger *slog.Logger) ([]jobReport, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	stats := promstats.NewCollector("mcquad")
	if cfg.MetricsAddr != "" {
		shutdown, err := serveMetrics(cfg.MetricsAddr, stats, logger)
		if err != nil {
			return nil, err
		}
		defer shutdown()
	}

	reports := make([]jobReport, len(cfg.Jobs))
	errs := make([]error, len(cfg.Jobs))

	var wg conc.WaitGroup
	for i, j := range cfg.Jobs {
		reports[i] = jobReport{Name: j.Name, State: mcquad.Failed.String()}

		jobLogger := logger.With("job", j.Name)
		jobOpts := append([]mcquad.Option{mcquad.WithLogger(jobLogger)}, opts...)
		if cfg.Progress > 0 {
			jobOpts = append(jobOpts, mcquad.WithOnProgress(cfg.Progress, func(p mcquad.Progress) {
				jobLogger.Info("progress",
					"calls", p.Calls,
					"estimate", p.Estimate,
					"error_estimate", p.ErrorEstimate,
					"target_error", p.TargetError,
				)
			}))
		}

		in, err := prepare(j, jobOpts)
		if err != nil {
			errs[i] = &mcquad.JobError{Job: j.Name, Index: i, Err: err}
			reports[i].Error = err.Error()
			continue
		}
		stats.Add(j.Name, in)

		wg.Go(func() {
			rep, err := in.Integrate(ctx).Report()
			stats.Observe(j.Name, in.Snapshot())
			reports[i] = newJobReport(j.Name, rep, err)
			if err != nil {
				errs[i] = &mcquad.JobError{Job: j.Name, Index: i, Err: err}
			}
		})
	}
	wg.Wait()

	return reports, errors.Join(errs...)
}

// serveMetrics exposes the collector and the Go runtime collectors on
// addr until the returned function is called.
func serveMetrics(addr string, stats *promstats.Collector, logger *slog.Logger) (func(), error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(stats); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", "error", err)
		}
	}, nil
}
