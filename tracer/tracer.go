// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tracer exports distributed traces over OTLP.
package tracer

import (
	"context"
	"errors"

	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/global"
	"github.com/z5labs/o11y/internal/otlp"
	"github.com/z5labs/o11y/resource"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var register = global.Register

// Validate reports every problem with cfg as a [component.ValidationError].
func Validate(cfg Config) error {
	var vs component.Violations
	vs.Endpoint("endpoint", cfg.endpoint)
	vs.Range("sample_ratio", cfg.sampleRatio, 0, 1)
	vs.Positive("export_timeout", cfg.exportTimeout)
	vs.Check("credentials", cfg.credentials)
	vs.NotEmpty("service_name", cfg.serviceName)
	vs.Protocol("protocol", cfg.protocol)
	return vs.Err(component.Tracer)
}

// Sampler returns a parent based sampler which samples root spans never
// for ratio <= 0, always for ratio >= 1 and by trace id otherwise.
func Sampler(ratio float64) sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case ratio <= 0:
		root = sdktrace.NeverSample()
	case ratio >= 1:
		root = sdktrace.AlwaysSample()
	default:
		root = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(root)
}

// Handle owns a running [sdktrace.TracerProvider].
type Handle struct {
	*component.Handle

	provider    *sdktrace.TracerProvider
	serviceName string
}

// Provider returns the underlying provider.
func (h *Handle) Provider() *sdktrace.TracerProvider {
	return h.provider
}

// Tracer returns a tracer named after the configured service.
func (h *Handle) Tracer(opts ...trace.TracerOption) trace.Tracer {
	return h.provider.Tracer(h.serviceName, opts...)
}

// ForceFlush exports every buffered span.
func (h *Handle) ForceFlush(ctx context.Context) error {
	return h.provider.ForceFlush(ctx)
}

// Bootstrap starts the trace signal for an already validated cfg.
func Bootstrap(ctx context.Context, cfg Config, res *resource.Descriptor) (*Handle, error) {
	exp := cfg.exporter
	if exp == nil {
		var err error
		exp, err = otlp.SpanExporter(ctx, otlp.Target{
			Protocol: cfg.Protocol(),
			URL:      cfg.endpoint,
			Headers:  cfg.credentials.Headers(),
			Timeout:  cfg.exportTimeout,
		})
		if err != nil {
			return nil, component.TransportError{Kind: component.Tracer, Cause: err}
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res.Resource()),
		sdktrace.WithSampler(Sampler(cfg.sampleRatio)),
		sdktrace.WithBatcher(exp, sdktrace.WithExportTimeout(cfg.exportTimeout)),
	)
	if cfg.useGlobal {
		err := register(component.Tracer, tp)
		if err != nil {
			return nil, component.TransportError{Kind: component.Tracer, Cause: errors.Join(err, tp.Shutdown(ctx))}
		}
	}

	h := &Handle{
		Handle:      component.NewHandle(component.Tracer, tp.Shutdown),
		provider:    tp,
		serviceName: cfg.serviceName,
	}
	return h, nil
}

// Setup validates and bootstraps cfg on its own. A disabled cfg returns
// a nil [Handle] and no error.
func Setup(ctx context.Context, cfg Config, res *resource.Descriptor) (*Handle, error) {
	if !cfg.enabled {
		return nil, nil
	}
	err := Validate(cfg)
	if err != nil {
		return nil, err
	}
	return Bootstrap(ctx, cfg, res)
}

// Shutdown flushes and releases h. A nil h is ignored.
func Shutdown(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	return h.Shutdown(ctx)
}

// Correlation identifies the span active in a context, for attaching
// to logs or responses.
type Correlation struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// Current returns the [Correlation] of the span in ctx, if there is a valid one.
func Current(ctx context.Context) (Correlation, bool) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return Correlation{}, false
	}
	c := Correlation{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
		Sampled: sc.IsSampled(),
	}
	return c, true
}
