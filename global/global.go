// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package global publishes providers into the process wide OpenTelemetry
// registry. The last registration for a signal wins.
package global

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/z5labs/o11y/component"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	logglobal "go.opentelemetry.io/otel/log/global"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"
)

// ProviderTypeError occurs when a provider does not match the signal
// it is registered for.
type ProviderTypeError struct {
	Kind     component.Kind
	Provider any
}

// Error implements the [builtin.error] interface.
func (e ProviderTypeError) Error() string {
	return fmt.Sprintf("%T can not be registered as the global %s provider", e.Provider, e.Kind)
}

var (
	mu         sync.Mutex
	registered = map[component.Kind]any{}
)

// Register installs provider as the global provider for kind. Registering
// a [trace.TracerProvider] also installs the W3C trace context and baggage
// propagators. The profiler has no global registration.
func Register(kind component.Kind, provider any) error {
	mu.Lock()
	defer mu.Unlock()

	switch p := provider.(type) {
	case log.LoggerProvider:
		if kind != component.Logger {
			break
		}
		logglobal.SetLoggerProvider(p)
		registered[kind] = p
		return nil
	case trace.TracerProvider:
		if kind != component.Tracer {
			break
		}
		otel.SetTracerProvider(p)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		registered[kind] = p
		return nil
	case metric.MeterProvider:
		if kind != component.Meter {
			break
		}
		otel.SetMeterProvider(p)
		registered[kind] = p
		return nil
	}
	return ProviderTypeError{Kind: kind, Provider: provider}
}

// Unregister replaces the global provider for kind with a no-op one,
// but only if provider is still the registered one.
func Unregister(kind component.Kind, provider any) bool {
	mu.Lock()
	defer mu.Unlock()

	current, ok := registered[kind]
	if !ok || current != provider {
		return false
	}
	delete(registered, kind)

	switch kind {
	case component.Logger:
		logglobal.SetLoggerProvider(lognoop.NewLoggerProvider())
	case component.Tracer:
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
	case component.Meter:
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
	}
	return true
}

// Registered reports whether provider is the global provider for kind.
func Registered(kind component.Kind, provider any) bool {
	mu.Lock()
	defer mu.Unlock()

	current, ok := registered[kind]
	return ok && current == provider
}

// SetErrorHandler routes errors reported by the OpenTelemetry SDK to log,
// dropping any beyond one per interval.
func SetErrorHandler(log *slog.Logger, every time.Duration) {
	otel.SetErrorHandler(NewErrorHandler(log, every))
}

// ErrorHandler is a rate limited [otel.ErrorHandler].
type ErrorHandler struct {
	log     *slog.Logger
	limiter *rate.Limiter
}

// NewErrorHandler returns an [ErrorHandler] which logs at most one error per interval.
func NewErrorHandler(log *slog.Logger, every time.Duration) *ErrorHandler {
	return &ErrorHandler{
		log:     log,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}
}

// Handle implements the [otel.ErrorHandler] interface.
func (h *ErrorHandler) Handle(err error) {
	if !h.limiter.Allow() {
		return
	}
	h.log.Error("opentelemetry sdk reported an error", slog.Any("error", err))
}
