// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/o11y"
	"github.com/z5labs/o11y/health"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	stdout       bool
	listen       string
	duration     time.Duration
	flushTimeout time.Duration
}

func newRunCmd(c *cli) *cobra.Command {
	var ro runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start every enabled signal and emit sample telemetry",
		Long: `Run starts every enabled signal, emits a sample span, log record and
metric and then shuts everything down, printing the outcome for each signal.

With --duration it keeps running for that long before shutting down. With
--listen and no --duration it serves until interrupted.

Examples:
  # Send sample telemetry to the configured collectors
  o11y run -f o11y.yaml

  # Print the telemetry instead and serve /healthz and /metrics for a minute
  o11y run -f o11y.yaml --stdout --listen :8080 --duration 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), cmd.OutOrStdout(), ro)
		},
	}
	cmd.Flags().BoolVar(&ro.stdout, "stdout", false, "print telemetry to stdout instead of exporting it")
	cmd.Flags().StringVar(&ro.listen, "listen", "", "address to serve /healthz and /metrics on")
	cmd.Flags().DurationVar(&ro.duration, "duration", 0, "how long to keep running before shutting down")
	cmd.Flags().DurationVar(&ro.flushTimeout, "flush-timeout", 10*time.Second, "how long shutdown may take")
	return cmd
}

func (c *cli) run(ctx context.Context, out io.Writer, ro runOptions) error {
	cfg, err := c.loadConfig()
	if err != nil {
		c.log.Error("failed to load config", zap.String("file", c.file), zap.Error(err))
		return err
	}
	if ro.stdout {
		cfg, err = withStdoutExporters(cfg, out)
		if err != nil {
			return err
		}
	}

	tel, err := o11y.Setup(
		ctx,
		cfg,
		o11y.WithLogHandler(logr.ToSlogHandler(zapr.NewLogger(c.log))),
		o11y.WithErrorHandler(time.Minute),
	)
	if err != nil {
		c.log.Error("failed to setup telemetry", zap.Error(err))
		printViolations(out, err)
		return err
	}

	runErr := c.serve(ctx, tel, ro)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ro.flushTimeout)
	defer cancel()

	report := tel.Shutdown(shutdownCtx)
	fmt.Fprintln(out, report)
	return errors.Join(runErr, report.Err())
}

func withStdoutExporters(cfg o11y.Config, w io.Writer) (o11y.Config, error) {
	if lc, ok := cfg.Logger(); ok {
		exp, err := stdoutlog.New(stdoutlog.WithWriter(w))
		if err != nil {
			return cfg, err
		}
		cfg = cfg.WithLogger(lc.WithExporter(exp))
	}
	if tc, ok := cfg.Tracer(); ok {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return cfg, err
		}
		cfg = cfg.WithTracer(tc.WithExporter(exp))
	}
	if mc, ok := cfg.Meter(); ok {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return cfg, err
		}
		cfg = cfg.WithMeter(mc.WithExporter(exp))
	}
	return cfg, nil
}

func (c *cli) serve(ctx context.Context, tel *o11y.Telemetry, ro runOptions) error {
	if ro.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ro.duration)
		defer cancel()
	}

	emit(ctx, tel)

	if ro.listen == "" {
		if ro.duration > 0 {
			<-ctx.Done()
		}
		return nil
	}

	ls, err := net.Listen("tcp", ro.listen)
	if err != nil {
		return err
	}
	c.log.Info("serving", zap.String("addr", ls.Addr().String()))

	s := &http.Server{
		Handler: otelhttp.NewHandler(newMux(tel), "o11y"),
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		err := s.Serve(ls)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		<-egctx.Done()
		return s.Shutdown(context.WithoutCancel(egctx))
	})
	return eg.Wait()
}

func newMux(tel *o11y.Telemetry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/healthz", health.Handler(tel))
	if mh, ok := tel.Meter(); ok && mh.MetricsHandler() != nil {
		mux.Handle("/metrics", mh.MetricsHandler())
	}
	return mux
}

// emit records one span, one log record and one counter increment
// for every running signal.
func emit(ctx context.Context, tel *o11y.Telemetry) {
	if th, ok := tel.Tracer(); ok {
		var span trace.Span
		ctx, span = th.Tracer().Start(ctx, "o11y.run")
		defer span.End()
	}
	if lh, ok := tel.Logger(); ok {
		lh.Slog("o11y").InfoContext(ctx, "telemetry is running", "signals", fmt.Sprint(tel.Kinds()))
	}
	if mh, ok := tel.Meter(); ok {
		counter, err := mh.Meter().Int64Counter("o11y.run.emitted")
		if err == nil {
			counter.Add(ctx, 1, metric.WithAttributes(attribute.String("command", "run")))
		}
	}
}
