// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logger

import (
	"time"

	"github.com/z5labs/o11y/auth"
	"github.com/z5labs/o11y/component"

	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const (
	DefaultEnvironment = "development"
	DefaultTimeout     = 5 * time.Second
	DefaultProtocol    = component.HTTPProtobuf
)

// Config configures the log signal. It is disabled by default.
type Config struct {
	serviceName string
	enabled     bool
	endpoint    string
	credentials auth.Credentials
	useGlobal   bool
	protocol    component.Protocol
	environment string
	timeout     time.Duration
	exporter    sdklog.Exporter
}

// NewConfig returns a disabled [Config] with defaults applied.
func NewConfig(serviceName string) Config {
	return Config{
		serviceName: serviceName,
		environment: DefaultEnvironment,
		timeout:     DefaultTimeout,
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

// WithEndpoint sets the collector URL. For HTTP the logs path is appended
// unless already present.
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

// WithEnvironment sets the deployment environment reported with logs
// when the resource does not name one.
func (c Config) WithEnvironment(env string) Config {
	c.environment = env
	return c
}

// WithTimeout bounds each export.
func (c Config) WithTimeout(d time.Duration) Config {
	c.timeout = d
	return c
}

// WithExporter replaces the OTLP exporter. The endpoint is still validated.
func (c Config) WithExporter(exp sdklog.Exporter) Config {
	c.exporter = exp
	return c
}

func (c Config) ServiceName() string           { return c.serviceName }
func (c Config) Enabled() bool                 { return c.enabled }
func (c Config) Endpoint() string              { return c.endpoint }
func (c Config) Credentials() auth.Credentials { return c.credentials }
func (c Config) UseGlobal() bool               { return c.useGlobal }
func (c Config) Environment() string           { return c.environment }
func (c Config) Timeout() time.Duration        { return c.timeout }
func (c Config) Exporter() sdklog.Exporter     { return c.exporter }

// Protocol returns the configured protocol or [DefaultProtocol].
func (c Config) Protocol() component.Protocol {
	if c.protocol == 0 {
		return DefaultProtocol
	}
	return c.protocol
}
