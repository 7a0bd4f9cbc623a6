// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logger exports structured logs over OTLP.
//
// Records are produced through the OpenTelemetry logs bridge API, either
// directly from the [Handle.Provider] or through the [log/slog] and zap
// bridges returned by [Handle.Slog] and [Handle.Zap].
package logger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/global"
	"github.com/z5labs/o11y/internal/otlp"
	"github.com/z5labs/o11y/resource"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/bridges/otelzap"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.uber.org/zap"
)

var register = global.Register

// Validate reports every problem with cfg as a [component.ValidationError].
func Validate(cfg Config) error {
	var vs component.Violations
	vs.Endpoint("endpoint", cfg.endpoint)
	vs.Positive("timeout", cfg.timeout)
	vs.Check("credentials", cfg.credentials)
	vs.NotEmpty("service_name", cfg.serviceName)
	vs.Protocol("protocol", cfg.protocol)
	return vs.Err(component.Logger)
}

// Handle owns a running [sdklog.LoggerProvider].
type Handle struct {
	*component.Handle

	provider *sdklog.LoggerProvider
}

// Provider returns the underlying provider.
func (h *Handle) Provider() *sdklog.LoggerProvider {
	return h.provider
}

// Slog returns a [slog.Logger] whose records are exported by this provider.
func (h *Handle) Slog(name string) *slog.Logger {
	return otelslog.NewLogger(name, otelslog.WithLoggerProvider(h.provider))
}

// Zap returns a [zap.Logger] whose entries are exported by this provider.
func (h *Handle) Zap(name string) *zap.Logger {
	return zap.New(otelzap.NewCore(name, otelzap.WithLoggerProvider(h.provider)))
}

// ForceFlush exports every buffered record.
func (h *Handle) ForceFlush(ctx context.Context) error {
	return h.provider.ForceFlush(ctx)
}

// Bootstrap starts the log signal for an already validated cfg.
func Bootstrap(ctx context.Context, cfg Config, res *resource.Descriptor) (*Handle, error) {
	exp := cfg.exporter
	if exp == nil {
		var err error
		exp, err = otlp.LogExporter(ctx, otlp.Target{
			Protocol: cfg.Protocol(),
			URL:      cfg.endpoint,
			Headers:  cfg.credentials.Headers(),
			Timeout:  cfg.timeout,
		})
		if err != nil {
			return nil, component.TransportError{Kind: component.Logger, Cause: err}
		}
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(logResource(cfg, res)),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp, sdklog.WithExportTimeout(cfg.timeout))),
	)
	if cfg.useGlobal {
		err := register(component.Logger, lp)
		if err != nil {
			return nil, component.TransportError{Kind: component.Logger, Cause: errors.Join(err, lp.Shutdown(ctx))}
		}
	}

	h := &Handle{
		Handle:   component.NewHandle(component.Logger, lp.Shutdown),
		provider: lp,
	}
	return h, nil
}

func logResource(cfg Config, res *resource.Descriptor) *sdkresource.Resource {
	if res.Environment() != "" || cfg.environment == "" {
		return res.Resource()
	}
	merged, err := sdkresource.Merge(
		res.Resource(),
		sdkresource.NewSchemaless(semconv.DeploymentEnvironmentName(cfg.environment)),
	)
	if err != nil {
		return res.Resource()
	}
	return merged
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
