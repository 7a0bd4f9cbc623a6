// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package o11y

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/global"
	"github.com/z5labs/o11y/health"
	"github.com/z5labs/o11y/lifecycle"
	"github.com/z5labs/o11y/logger"
	"github.com/z5labs/o11y/logging"
	"github.com/z5labs/o11y/meter"
	"github.com/z5labs/o11y/profiler"
	"github.com/z5labs/o11y/resource"
	"github.com/z5labs/o11y/tracer"
)

// State is the lifecycle stage of [Telemetry].
type State int

const (
	Created State = iota
	Running
	ShutDown
)

// String implements the [fmt.Stringer] interface.
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case ShutDown:
		return "shut down"
	default:
		return "unknown"
	}
}

type bootstrappers struct {
	logger   func(context.Context, logger.Config, *resource.Descriptor) (*logger.Handle, error)
	tracer   func(context.Context, tracer.Config, *resource.Descriptor) (*tracer.Handle, error)
	meter    func(context.Context, meter.Config, *resource.Descriptor) (*meter.Handle, error)
	profiler func(context.Context, profiler.Config, *resource.Descriptor) (*profiler.Handle, error)
}

var defaultBootstrappers = bootstrappers{
	logger:   logger.Bootstrap,
	tracer:   tracer.Bootstrap,
	meter:    meter.Bootstrap,
	profiler: profiler.Bootstrap,
}

type options struct {
	log           *slog.Logger
	handler       slog.Handler
	defaultLogger bool
	errorEvery    time.Duration
	bootstrap     bootstrappers
}

// Option configures [Setup].
type Option func(*options)

// WithLogHandler sets the handler used for logging lifecycle events.
// Attributes which look like secrets are masked. By default, nothing
// is logged.
func WithLogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.handler = h
		o.log = logging.New(h)
	}
}

// WithDefaultLogger installs a process default [slog.Logger] which sends
// every record to the running logger signal and to the handler given to
// [WithLogHandler]. It is also installed if the logger signal is
// registered globally. The previous default is restored on shutdown.
func WithDefaultLogger() Option {
	return func(o *options) {
		o.defaultLogger = true
	}
}

// WithErrorHandler routes internal OpenTelemetry errors to the lifecycle
// logger, at most once per every. It only takes effect if a signal is
// registered globally.
func WithErrorHandler(every time.Duration) Option {
	return func(o *options) {
		o.errorEvery = every
	}
}

func withBootstrappers(b bootstrappers) Option {
	return func(o *options) {
		o.bootstrap = b
	}
}

type signal struct {
	kind    component.Kind
	handle  *component.Handle
	flush   func(context.Context) error
	healthy health.Metric
}

// Telemetry owns every running signal of a service.
//
// Once Telemetry has been shut down the signal accessors, such as
// [Telemetry.Logger], return nil and false.
type Telemetry struct {
	log      *slog.Logger
	resource *resource.Descriptor

	mu       sync.Mutex
	state    State
	signals  []signal
	previous *defaultLogger

	logger   *logger.Handle
	tracer   *tracer.Handle
	meter    *meter.Handle
	profiler *profiler.Handle
}

// Setup builds the resource and starts every enabled signal in cfg in
// setup order. If any signal fails validation or fails to start, every
// signal already started is shut down in reverse order and a [SetupError]
// is returned.
func Setup(ctx context.Context, cfg Config, opts ...Option) (*Telemetry, error) {
	o := &options{
		log:       logging.New(nil),
		bootstrap: defaultBootstrappers,
	}
	for _, opt := range opts {
		opt(o)
	}
	if cfg.resource.ServiceName() == "" {
		return nil, component.ConfigError{Field: "service_name", Reason: component.MsgEmpty}
	}

	res := cfg.resource.Build()
	if res.HasDetectors() {
		detected, err := res.Detect(ctx)
		if err != nil {
			o.log.WarnContext(ctx, "failed to detect resource attributes", slog.Any("error", err))
		}
		res = detected
	}

	t := &Telemetry{
		log:      o.log,
		resource: res,
	}
	for _, kind := range component.Kinds() {
		if !cfg.Enabled(kind) {
			continue
		}
		err := t.start(ctx, kind, cfg, o.bootstrap)
		if err != nil {
			report := t.drain(ctx)
			t.log.ErrorContext(
				ctx,
				"failed to setup telemetry",
				slog.String("signal", kind.String()),
				slog.Any("error", err),
				slog.Any("rollback", report),
			)
			return nil, SetupError{Kind: kind, Cause: err, Rollback: report}
		}
		t.log.DebugContext(ctx, "started signal", slog.String("signal", kind.String()))
	}

	if o.errorEvery > 0 && cfg.usesGlobal() {
		global.SetErrorHandler(o.log, o.errorEvery)
	}
	if o.defaultLogger || cfg.usesGlobalLogger() {
		t.installDefault(o.handler)
	}

	t.state = Running
	return t, nil
}

func (t *Telemetry) start(ctx context.Context, kind component.Kind, cfg Config, b bootstrappers) error {
	err := cfg.validate(kind)
	if err != nil {
		return err
	}

	switch kind {
	case component.Logger:
		c, _ := cfg.Logger()
		h, err := b.logger(ctx, c, t.resource)
		if err != nil {
			return err
		}
		t.logger = h
		t.push(kind, h.Handle, h.ForceFlush, nil)
	case component.Tracer:
		c, _ := cfg.Tracer()
		h, err := b.tracer(ctx, c, t.resource)
		if err != nil {
			return err
		}
		t.tracer = h
		t.push(kind, h.Handle, h.ForceFlush, nil)
	case component.Meter:
		c, _ := cfg.Meter()
		h, err := b.meter(ctx, c, t.resource)
		if err != nil {
			return err
		}
		t.meter = h
		t.push(kind, h.Handle, h.ForceFlush, nil)
	case component.Profiler:
		c, _ := cfg.Profiler()
		h, err := b.profiler(ctx, c.WithLogger(t.log), t.resource)
		if err != nil {
			return err
		}
		t.profiler = h
		t.push(kind, h.Handle, nil, h)
	}
	return nil
}

type defaultLogger struct {
	logger *slog.Logger
	writer io.Writer
	flags  int
}

func (t *Telemetry) installDefault(h slog.Handler) {
	var handlers []slog.Handler
	if t.logger != nil && t.logger.Provider() != nil {
		handlers = append(handlers, t.logger.Slog(t.resource.ServiceName()).Handler())
	}
	if h != nil {
		handlers = append(handlers, logging.NewMaskHandler(h, logging.SecretKeys...))
	}
	if len(handlers) == 0 {
		return
	}

	t.previous = &defaultLogger{
		logger: slog.Default(),
		writer: log.Writer(),
		flags:  log.Flags(),
	}
	slog.SetDefault(slog.New(logging.NewTraceHandler(logging.Fanout(handlers...))))
}

// restoreDefault reinstates the process default logger replaced by
// installDefault. The log package output is restored as well since
// [slog.SetDefault] redirects it.
func (t *Telemetry) restoreDefault() {
	if t.previous == nil {
		return
	}
	slog.SetDefault(t.previous.logger)
	log.SetOutput(t.previous.writer)
	log.SetFlags(t.previous.flags)
	t.previous = nil
}

func (t *Telemetry) push(kind component.Kind, h *component.Handle, flush func(context.Context) error, healthy health.Metric) {
	t.signals = append(t.signals, signal{
		kind:    kind,
		handle:  h,
		flush:   flush,
		healthy: healthy,
	})
}

// drain shuts down every signal in reverse setup order. Every signal is
// attempted even if ctx is done or an earlier signal failed.
func (t *Telemetry) drain(ctx context.Context) ShutdownReport {
	t.restoreDefault()

	report := make(ShutdownReport, 0, len(t.signals))
	for _, s := range slices.Backward(t.signals) {
		err := s.handle.Shutdown(ctx)
		if err != nil {
			t.log.ErrorContext(ctx, "failed to shutdown signal", slog.String("signal", s.kind.String()), slog.Any("error", err))
		}
		report = append(report, Outcome{Kind: s.kind, Err: err})
	}
	t.signals = nil
	t.logger = nil
	t.tracer = nil
	t.meter = nil
	t.profiler = nil
	return report
}

// Shutdown flushes and releases every signal in reverse setup order.
// Failures never stop the remaining signals from being shut down and are
// reported in the returned [ShutdownReport]. Calling Shutdown again
// returns an empty report.
func (t *Telemetry) Shutdown(ctx context.Context) ShutdownReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == ShutDown {
		return ShutdownReport{}
	}
	report := t.drain(ctx)
	t.state = ShutDown
	t.log.InfoContext(ctx, "telemetry shut down", slog.Any("report", report))
	return report
}

// ShutdownHook returns a [lifecycle.Hook] which shuts t down and
// returns the joined failures, if any.
func (t *Telemetry) ShutdownHook() lifecycle.Hook {
	return lifecycle.HookFunc(func(ctx context.Context) error {
		return t.Shutdown(ctx).Err()
	})
}

// ForceFlush exports any buffered logs, spans and metrics.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == ShutDown {
		return LifecycleError{Op: "force flush"}
	}
	var errs []error
	for _, s := range t.signals {
		if s.flush == nil {
			continue
		}
		err := s.flush(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Healthy implements the [health.Metric] interface. Telemetry is
// healthy while it is running and every signal which reports its
// own health is healthy.
func (t *Telemetry) Healthy(ctx context.Context) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return false
	}
	for _, s := range t.signals {
		if s.healthy != nil && !s.healthy.Healthy(ctx) {
			return false
		}
	}
	return true
}

// State returns the current lifecycle stage.
func (t *Telemetry) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Resource returns the resource shared by every signal.
func (t *Telemetry) Resource() *resource.Descriptor {
	return t.resource
}

// Kinds returns the running signals in setup order.
func (t *Telemetry) Kinds() []component.Kind {
	t.mu.Lock()
	defer t.mu.Unlock()

	kinds := make([]component.Kind, len(t.signals))
	for i, s := range t.signals {
		kinds[i] = s.kind
	}
	return kinds
}

// Has reports whether the signal of the given kind is running.
func (t *Telemetry) Has(kind component.Kind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return slices.ContainsFunc(t.signals, func(s signal) bool {
		return s.kind == kind
	})
}

// Logger returns the logger handle, if the logger is running.
func (t *Telemetry) Logger() (*logger.Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logger, t.logger != nil
}

// Tracer returns the tracer handle, if the tracer is running.
func (t *Telemetry) Tracer() (*tracer.Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracer, t.tracer != nil
}

// Meter returns the meter handle, if the meter is running.
func (t *Telemetry) Meter() (*meter.Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.meter, t.meter != nil
}

// Profiler returns the profiler handle, if the profiler is running.
func (t *Telemetry) Profiler() (*profiler.Handle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.profiler, t.profiler != nil
}

// Run sets up cfg, calls f and then shuts down, even if f fails.
// The shutdown failures, if any, are joined with the error from f.
func Run(ctx context.Context, cfg Config, f func(context.Context, *Telemetry) error, opts ...Option) error {
	t, err := Setup(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	lc := &lifecycle.Context{}
	lc.OnPostRun(t.ShutdownHook())
	return lc.Run(ctx, func(ctx context.Context) error {
		return f(ctx, t)
	})
}
