// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package meter exports metrics over OTLP and, optionally, for
// Prometheus to scrape.
package meter

import (
	"context"
	"errors"
	"net/http"

	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/global"
	"github.com/z5labs/o11y/internal/otlp"
	"github.com/z5labs/o11y/resource"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var register = global.Register

// Validate reports every problem with cfg as a [component.ValidationError].
func Validate(cfg Config) error {
	var vs component.Violations
	vs.Endpoint("endpoint", cfg.endpoint)
	vs.Positive("export_interval", cfg.exportInterval)
	vs.Check("credentials", cfg.credentials)
	vs.NotEmpty("service_name", cfg.serviceName)
	vs.Protocol("protocol", cfg.protocol)
	return vs.Err(component.Meter)
}

// Handle owns a running [sdkmetric.MeterProvider].
type Handle struct {
	*component.Handle

	provider    *sdkmetric.MeterProvider
	serviceName string
	registry    *prometheus.Registry
}

// Provider returns the underlying provider.
func (h *Handle) Provider() *sdkmetric.MeterProvider {
	return h.provider
}

// Meter returns a meter named after the configured service.
func (h *Handle) Meter(opts ...metric.MeterOption) metric.Meter {
	return h.provider.Meter(h.serviceName, opts...)
}

// MetricsHandler serves the Prometheus exposition format. It is nil
// unless the config enabled Prometheus.
func (h *Handle) MetricsHandler() http.Handler {
	if h.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
}

// ForceFlush collects and exports every metric now.
func (h *Handle) ForceFlush(ctx context.Context) error {
	return h.provider.ForceFlush(ctx)
}

// Bootstrap starts the metric signal for an already validated cfg.
func Bootstrap(ctx context.Context, cfg Config, res *resource.Descriptor) (*Handle, error) {
	exp := cfg.exporter
	if exp == nil {
		var err error
		exp, err = otlp.MetricExporter(ctx, otlp.Target{
			Protocol: cfg.Protocol(),
			URL:      cfg.endpoint,
			Headers:  cfg.credentials.Headers(),
		})
		if err != nil {
			return nil, component.TransportError{Kind: component.Meter, Cause: err}
		}
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res.Resource()),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.exportInterval))),
	}

	var registry *prometheus.Registry
	if cfg.prometheus {
		registry = prometheus.NewRegistry()
		reader, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			_ = exp.Shutdown(ctx)
			return nil, component.TransportError{Kind: component.Meter, Cause: err}
		}
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	if cfg.runtimeMetrics {
		err := runtime.Start(runtime.WithMeterProvider(mp))
		if err != nil {
			_ = mp.Shutdown(ctx)
			return nil, component.TransportError{Kind: component.Meter, Cause: err}
		}
	}
	if cfg.useGlobal {
		err := register(component.Meter, mp)
		if err != nil {
			return nil, component.TransportError{Kind: component.Meter, Cause: errors.Join(err, mp.Shutdown(ctx))}
		}
	}

	h := &Handle{
		Handle:      component.NewHandle(component.Meter, mp.Shutdown),
		provider:    mp,
		serviceName: cfg.serviceName,
		registry:    registry,
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

// Shutdown collects, exports and releases h. A nil h is ignored.
func Shutdown(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	return h.Shutdown(ctx)
}
