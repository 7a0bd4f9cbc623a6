// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracer

import (
	"time"

	"github.com/z5labs/o11y/auth"
	"github.com/z5labs/o11y/component"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	DefaultSampleRatio   = 1.0
	DefaultExportTimeout = 10 * time.Second
	DefaultProtocol      = component.GRPC
)

// Config configures the trace signal. It is disabled by default.
type Config struct {
	serviceName   string
	enabled       bool
	endpoint      string
	credentials   auth.Credentials
	useGlobal     bool
	protocol      component.Protocol
	sampleRatio   float64
	exportTimeout time.Duration
	exporter      sdktrace.SpanExporter
}

// NewConfig returns a disabled [Config] with defaults applied.
func NewConfig(serviceName string) Config {
	return Config{
		serviceName:   serviceName,
		sampleRatio:   DefaultSampleRatio,
		exportTimeout: DefaultExportTimeout,
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

func (c Config) WithEndpoint(endpoint string) Config {
	c.endpoint = endpoint
	return c
}

func (c Config) WithCredentials(creds auth.Credentials) Config {
	c.credentials = creds
	return c
}

// WithGlobal controls whether the provider and the W3C propagators are
// registered globally.
func (c Config) WithGlobal(global bool) Config {
	c.useGlobal = global
	return c
}

func (c Config) WithProtocol(p component.Protocol) Config {
	c.protocol = p
	return c
}

// WithSampleRatio sets the fraction of root traces sampled. Must be in [0, 1].
func (c Config) WithSampleRatio(ratio float64) Config {
	c.sampleRatio = ratio
	return c
}

func (c Config) WithExportTimeout(d time.Duration) Config {
	c.exportTimeout = d
	return c
}

// WithExporter replaces the OTLP exporter. The endpoint is still validated.
func (c Config) WithExporter(exp sdktrace.SpanExporter) Config {
	c.exporter = exp
	return c
}

func (c Config) ServiceName() string             { return c.serviceName }
func (c Config) Enabled() bool                   { return c.enabled }
func (c Config) Endpoint() string                { return c.endpoint }
func (c Config) Credentials() auth.Credentials   { return c.credentials }
func (c Config) UseGlobal() bool                 { return c.useGlobal }
func (c Config) SampleRatio() float64            { return c.sampleRatio }
func (c Config) ExportTimeout() time.Duration    { return c.exportTimeout }
func (c Config) Exporter() sdktrace.SpanExporter { return c.exporter }

// Protocol returns the configured protocol or [DefaultProtocol].
func (c Config) Protocol() component.Protocol {
	if c.protocol == 0 {
		return DefaultProtocol
	}
	return c.protocol
}
