// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package profiler

import (
	"log/slog"
	"maps"
	"time"

	"github.com/z5labs/o11y/auth"
)

const (
	DefaultSampleRateHz   = 100
	DefaultUploadInterval = 10 * time.Second
	DefaultTenantID       = "anonymous"
)

// Config configures continuous CPU profiling. It is disabled by default.
// Unlike the other signals the profiler has no global registration.
type Config struct {
	serviceName    string
	enabled        bool
	endpoint       string
	credentials    auth.Credentials
	sampleRateHz   int
	uploadInterval time.Duration
	tags           map[string]string
	tenantID       string
	log            *slog.Logger
}

// NewConfig returns a disabled [Config] with defaults applied.
func NewConfig(serviceName string) Config {
	return Config{
		serviceName:    serviceName,
		sampleRateHz:   DefaultSampleRateHz,
		uploadInterval: DefaultUploadInterval,
		tenantID:       DefaultTenantID,
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

// WithEndpoint sets the base URL of the profile ingestion server.
func (c Config) WithEndpoint(endpoint string) Config {
	c.endpoint = endpoint
	return c
}

func (c Config) WithCredentials(creds auth.Credentials) Config {
	c.credentials = creds
	return c
}

// WithSampleRate sets the CPU sampling frequency in hertz.
func (c Config) WithSampleRate(hz int) Config {
	c.sampleRateHz = hz
	return c
}

// WithUploadInterval sets how long each profile covers before it is uploaded.
func (c Config) WithUploadInterval(d time.Duration) Config {
	c.uploadInterval = d
	return c
}

// WithTag labels every uploaded profile. Setting the same key twice
// keeps the last value.
func (c Config) WithTag(key, value string) Config {
	tags := make(map[string]string, len(c.tags)+1)
	maps.Copy(tags, c.tags)
	tags[key] = value
	c.tags = tags
	return c
}

// WithTenantID sets the tenant profiles are ingested for.
func (c Config) WithTenantID(id string) Config {
	c.tenantID = id
	return c
}

// WithLogger sets the logger which receives the diagnostics of the
// profiling agent. Upload failures are logged at error level.
func (c Config) WithLogger(log *slog.Logger) Config {
	c.log = log
	return c
}

func (c Config) ServiceName() string           { return c.serviceName }
func (c Config) Enabled() bool                 { return c.enabled }
func (c Config) Endpoint() string              { return c.endpoint }
func (c Config) Credentials() auth.Credentials { return c.credentials }
func (c Config) SampleRate() int               { return c.sampleRateHz }
func (c Config) UploadInterval() time.Duration { return c.uploadInterval }
func (c Config) TenantID() string              { return c.tenantID }

// Tags returns the configured tags plus the service and service_name
// tags, which are always set to the service name.
func (c Config) Tags() map[string]string {
	tags := make(map[string]string, len(c.tags)+2)
	maps.Copy(tags, c.tags)
	tags["service"] = c.serviceName
	tags["service_name"] = c.serviceName
	return tags
}
