// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package meter

import (
	"time"

	"github.com/z5labs/o11y/auth"
	"github.com/z5labs/o11y/component"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const (
	DefaultExportInterval = 10 * time.Second
	DefaultProtocol       = component.HTTPProtobuf
)

// Config configures the metric signal. It is disabled by default.
type Config struct {
	serviceName    string
	enabled        bool
	endpoint       string
	credentials    auth.Credentials
	useGlobal      bool
	protocol       component.Protocol
	exportInterval time.Duration
	runtimeMetrics bool
	prometheus     bool
	exporter       sdkmetric.Exporter
}

// NewConfig returns a disabled [Config] with defaults applied.
func NewConfig(serviceName string) Config {
	return Config{
		serviceName:    serviceName,
		exportInterval: DefaultExportInterval,
	}
}

func (c Config) WithServiceName(name string) Config {
	c.serviceName = name
	return c
}

func (c Config) WithEnabled(enabled bool) Config {
	c.enabled = enabled
	return c
}

// WithEndpoint sets the collector URL. For HTTP the metrics path is
// appended unless already present.
func (c Config) WithEndpoint(endpoint string) Config {
	c.endpoint = endpoint
	return c
}

func (c Config) WithCredentials(creds auth.Credentials) Config {
	c.credentials = creds
	return c
}

// WithGlobal controls whether the provider is registered globally.
func (c Config) WithGlobal(global bool) Config {
	c.useGlobal = global
	return c
}

func (c Config) WithProtocol(p component.Protocol) Config {
	c.protocol = p
	return c
}

// WithExportInterval sets how often metrics are collected and pushed.
func (c Config) WithExportInterval(d time.Duration) Config {
	c.exportInterval = d
	return c
}

// WithRuntimeMetrics enables Go runtime metrics such as memory and goroutines.
func (c Config) WithRuntimeMetrics(enabled bool) Config {
	c.runtimeMetrics = enabled
	return c
}

// WithPrometheus adds a pull reader served by [Handle.MetricsHandler]
// next to the OTLP push reader.
func (c Config) WithPrometheus(enabled bool) Config {
	c.prometheus = enabled
	return c
}

// WithExporter replaces the OTLP exporter. The endpoint is still validated.
func (c Config) WithExporter(exp sdkmetric.Exporter) Config {
	c.exporter = exp
	return c
}

func (c Config) ServiceName() string           { return c.serviceName }
func (c Config) Enabled() bool                 { return c.enabled }
func (c Config) Endpoint() string              { return c.endpoint }
func (c Config) Credentials() auth.Credentials { return c.credentials }
func (c Config) UseGlobal() bool               { return c.useGlobal }
func (c Config) ExportInterval() time.Duration { return c.exportInterval }
func (c Config) RuntimeMetrics() bool          { return c.runtimeMetrics }
func (c Config) Prometheus() bool              { return c.prometheus }
func (c Config) Exporter() sdkmetric.Exporter  { return c.exporter }

// Protocol returns the configured protocol or [DefaultProtocol].
func (c Config) Protocol() component.Protocol {
	if c.protocol == 0 {
		return DefaultProtocol
	}
	return c.protocol
}
