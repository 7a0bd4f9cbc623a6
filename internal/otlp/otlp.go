// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otlp constructs OpenTelemetry Protocol exporters over gRPC or HTTP.
package otlp

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/internal/httpclient"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// Signal paths appended to HTTP endpoints.
const (
	TracesPath  = "/v1/traces"
	MetricsPath = "/v1/metrics"
	LogsPath    = "/v1/logs"
)

// Target is where and how an exporter sends data.
type Target struct {
	Protocol component.Protocol
	URL      string
	Headers  map[string]string
	Timeout  time.Duration
}

// SignalURL appends path to endpoint unless it already ends with it.
func SignalURL(endpoint, path string) string {
	trimmed := strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(trimmed, path) {
		return trimmed
	}
	return trimmed + path
}

func isTLS(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme == "https"
}

func tlsCredentials() credentials.TransportCredentials {
	return credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
}

// HTTPClient returns the client HTTP exporters send with. Failed exports
// are retried with backoff and repeated failures open a circuit, so the
// exporters' own retry is disabled.
func HTTPClient(name string, t Target) *http.Client {
	return httpclient.New(
		httpclient.Name(name),
		httpclient.Timeout(t.Timeout),
		httpclient.Retry(3, 100*time.Millisecond, 2*time.Second),
		httpclient.CircuitBreaker(5, 30*time.Second),
	).Client
}

// SpanExporter returns an OTLP span exporter. HTTP targets have
// [TracesPath] appended to their URL.
func SpanExporter(ctx context.Context, t Target) (sdktrace.SpanExporter, error) {
	if t.Protocol == component.HTTPProtobuf {
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpointURL(SignalURL(t.URL, TracesPath)),
			otlptracehttp.WithHeaders(t.Headers),
			otlptracehttp.WithHTTPClient(HTTPClient("otlp-traces", t)),
			otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
		}
		if t.Timeout > 0 {
			opts = append(opts, otlptracehttp.WithTimeout(t.Timeout))
		}
		return otlptracehttp.New(ctx, opts...)
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpointURL(t.URL),
		otlptracegrpc.WithHeaders(t.Headers),
	}
	if isTLS(t.URL) {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(tlsCredentials()))
	}
	if t.Timeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(t.Timeout))
	}
	return otlptracegrpc.New(ctx, opts...)
}

// MetricExporter returns an OTLP metric exporter. HTTP targets have
// [MetricsPath] appended to their URL.
func MetricExporter(ctx context.Context, t Target) (sdkmetric.Exporter, error) {
	if t.Protocol == component.HTTPProtobuf {
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpointURL(SignalURL(t.URL, MetricsPath)),
			otlpmetrichttp.WithHeaders(t.Headers),
			otlpmetrichttp.WithHTTPClient(HTTPClient("otlp-metrics", t)),
			otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{Enabled: false}),
		}
		if t.Timeout > 0 {
			opts = append(opts, otlpmetrichttp.WithTimeout(t.Timeout))
		}
		return otlpmetrichttp.New(ctx, opts...)
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpointURL(t.URL),
		otlpmetricgrpc.WithHeaders(t.Headers),
	}
	if isTLS(t.URL) {
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(tlsCredentials()))
	}
	if t.Timeout > 0 {
		opts = append(opts, otlpmetricgrpc.WithTimeout(t.Timeout))
	}
	return otlpmetricgrpc.New(ctx, opts...)
}

// LogExporter returns an OTLP log exporter. HTTP targets have
// [LogsPath] appended to their URL.
func LogExporter(ctx context.Context, t Target) (sdklog.Exporter, error) {
	if t.Protocol == component.HTTPProtobuf {
		opts := []otlploghttp.Option{
			otlploghttp.WithEndpointURL(SignalURL(t.URL, LogsPath)),
			otlploghttp.WithHeaders(t.Headers),
			otlploghttp.WithHTTPClient(HTTPClient("otlp-logs", t)),
			otlploghttp.WithRetry(otlploghttp.RetryConfig{Enabled: false}),
		}
		if t.Timeout > 0 {
			opts = append(opts, otlploghttp.WithTimeout(t.Timeout))
		}
		return otlploghttp.New(ctx, opts...)
	}

	opts := []otlploggrpc.Option{
		otlploggrpc.WithEndpointURL(t.URL),
		otlploggrpc.WithHeaders(t.Headers),
	}
	if isTLS(t.URL) {
		opts = append(opts, otlploggrpc.WithTLSCredentials(tlsCredentials()))
	}
	if t.Timeout > 0 {
		opts = append(opts, otlploggrpc.WithTimeout(t.Timeout))
	}
	return otlploggrpc.New(ctx, opts...)
}
