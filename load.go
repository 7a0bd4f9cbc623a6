// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package o11y

import (
	"errors"
	"fmt"
	"time"

	"github.com/z5labs/o11y/auth"
	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/config"
	"github.com/z5labs/o11y/logger"
	"github.com/z5labs/o11y/meter"
	"github.com/z5labs/o11y/profiler"
	"github.com/z5labs/o11y/resource"
	"github.com/z5labs/o11y/tracer"

	"github.com/creasty/defaults"
	"go.opentelemetry.io/contrib/detectors/gcp"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

type credentialsSpec struct {
	Type     string `config:"type"`
	Username string `config:"username"`
	Password string `config:"password"`
	Token    string `config:"token"`
	Header   string `config:"header"`
	Value    string `config:"value"`
}

func (s credentialsSpec) build(section string) (auth.Credentials, error) {
	var (
		creds auth.Credentials
		err   error
	)
	switch s.Type {
	case "", "none":
		return auth.None(), nil
	case "basic":
		creds, err = auth.BasicAuth(s.Username, s.Password)
	case "bearer":
		creds, err = auth.BearerToken(s.Token)
	case "api_key":
		header := s.Header
		if header == "" {
			header = auth.DefaultAPIKeyHeader
		}
		creds, err = auth.APIKey(header, s.Value)
	case "header":
		creds, err = auth.CustomHeader(s.Header, s.Value)
	default:
		return auth.Credentials{}, component.ConfigError{
			Field:  section + ".credentials.type",
			Reason: fmt.Sprintf("unknown credentials type: %q", s.Type),
		}
	}

	var cerr component.ConfigError
	if errors.As(err, &cerr) {
		cerr.Field = section + ".credentials." + cerr.Field
		return auth.Credentials{}, cerr
	}
	return creds, err
}

type resourceSpec struct {
	ServiceName string            `config:"service_name"`
	Version     string            `config:"version"`
	Namespace   string            `config:"namespace"`
	Environment string            `config:"environment"`
	TenantID    string            `config:"tenant_id"`
	Attributes  map[string]string `config:"attributes"`
	Detectors   []string          `config:"detectors"`
}

type loggerSpec struct {
	Enabled     bool               `config:"enabled"`
	Endpoint    string             `config:"endpoint"`
	Protocol    component.Protocol `config:"protocol"`
	Environment string             `config:"environment"`
	Timeout     *time.Duration     `config:"timeout" default:"5s"`
	UseGlobal   bool               `config:"use_global"`
	Credentials credentialsSpec    `config:"credentials"`
}

type tracerSpec struct {
	Enabled       bool               `config:"enabled"`
	Endpoint      string             `config:"endpoint"`
	Protocol      component.Protocol `config:"protocol"`
	SampleRatio   *float64           `config:"sample_ratio"`
	ExportTimeout *time.Duration     `config:"export_timeout" default:"10s"`
	UseGlobal     bool               `config:"use_global"`
	Credentials   credentialsSpec    `config:"credentials"`
}

type meterSpec struct {
	Enabled        bool               `config:"enabled"`
	Endpoint       string             `config:"endpoint"`
	Protocol       component.Protocol `config:"protocol"`
	ExportInterval *time.Duration     `config:"export_interval" default:"10s"`
	RuntimeMetrics bool               `config:"runtime_metrics"`
	Prometheus     bool               `config:"prometheus"`
	UseGlobal      bool               `config:"use_global"`
	Credentials    credentialsSpec    `config:"credentials"`
}

type profilerSpec struct {
	Enabled        bool              `config:"enabled"`
	Endpoint       string            `config:"endpoint"`
	SampleRateHz   *int              `config:"sample_rate_hz" default:"100"`
	UploadInterval *time.Duration    `config:"upload_interval" default:"10s"`
	TenantID       string            `config:"tenant_id" default:"anonymous"`
	Tags           map[string]string `config:"tags"`
	Credentials    credentialsSpec   `config:"credentials"`
}

type spec struct {
	Resource resourceSpec  `config:"resource"`
	Logger   *loggerSpec   `config:"logger"`
	Tracer   *tracerSpec   `config:"tracer"`
	Meter    *meterSpec    `config:"meter"`
	Profiler *profilerSpec `config:"profiler"`
}

// LoadConfig reads every source, in order, and decodes the result into a
// [Config]. A signal whose section is missing is left out of the [Config].
// Timeouts, intervals and rates which are missing are given their
// defaults. An explicit zero is kept and fails validation.
func LoadConfig(srcs ...config.Source) (Config, error) {
	m, err := config.Read(srcs...)
	if err != nil {
		return Config{}, ConfigReadError{Cause: err}
	}

	var s spec
	err = m.Unmarshal(&s)
	if err != nil {
		return Config{}, ConfigUnmarshalError{Cause: err}
	}
	err = defaults.Set(&s)
	if err != nil {
		return Config{}, ConfigUnmarshalError{Cause: err}
	}
	return s.build()
}

func (s spec) build() (Config, error) {
	b, err := s.Resource.builder()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{resource: b}
	name := b.ServiceName()

	if s.Logger != nil {
		lc, err := s.Logger.config(name)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.WithLogger(lc)
	}
	if s.Tracer != nil {
		tc, err := s.Tracer.config(name)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.WithTracer(tc)
	}
	if s.Meter != nil {
		mc, err := s.Meter.config(name)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.WithMeter(mc)
	}
	if s.Profiler != nil {
		pc, err := s.Profiler.config(name)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.WithProfiler(pc)
	}
	return cfg, nil
}

func detector(name string) (sdkresource.Detector, error) {
	switch name {
	case "gcp":
		return gcp.NewDetector(), nil
	default:
		return nil, component.ConfigError{
			Field:  "resource.detectors",
			Reason: fmt.Sprintf("unknown detector: %q", name),
		}
	}
}

func (s resourceSpec) builder() (resource.Builder, error) {
	b, err := resource.NewBuilder(s.ServiceName)
	if err != nil {
		return resource.Builder{}, err
	}
	b = b.WithVersion(s.Version).
		WithNamespace(s.Namespace).
		WithEnvironment(s.Environment).
		WithTenantID(s.TenantID)
	for k, v := range s.Attributes {
		b = b.WithAttribute(k, v)
	}
	for _, name := range s.Detectors {
		d, err := detector(name)
		if err != nil {
			return resource.Builder{}, err
		}
		b = b.WithDetector(d)
	}
	return b, nil
}

func (s *loggerSpec) config(serviceName string) (logger.Config, error) {
	creds, err := s.Credentials.build("logger")
	if err != nil {
		return logger.Config{}, err
	}
	cfg := logger.NewConfig(serviceName).
		WithEnabled(s.Enabled).
		WithEndpoint(s.Endpoint).
		WithCredentials(creds).
		WithGlobal(s.UseGlobal).
		WithTimeout(*s.Timeout)
	if s.Protocol != 0 {
		cfg = cfg.WithProtocol(s.Protocol)
	}
	if s.Environment != "" {
		cfg = cfg.WithEnvironment(s.Environment)
	}
	return cfg, nil
}

func (s *tracerSpec) config(serviceName string) (tracer.Config, error) {
	creds, err := s.Credentials.build("tracer")
	if err != nil {
		return tracer.Config{}, err
	}
	cfg := tracer.NewConfig(serviceName).
		WithEnabled(s.Enabled).
		WithEndpoint(s.Endpoint).
		WithCredentials(creds).
		WithGlobal(s.UseGlobal).
		WithExportTimeout(*s.ExportTimeout)
	if s.Protocol != 0 {
		cfg = cfg.WithProtocol(s.Protocol)
	}
	if s.SampleRatio != nil {
		cfg = cfg.WithSampleRatio(*s.SampleRatio)
	}
	return cfg, nil
}

func (s *meterSpec) config(serviceName string) (meter.Config, error) {
	creds, err := s.Credentials.build("meter")
	if err != nil {
		return meter.Config{}, err
	}
	cfg := meter.NewConfig(serviceName).
		WithEnabled(s.Enabled).
		WithEndpoint(s.Endpoint).
		WithCredentials(creds).
		WithGlobal(s.UseGlobal).
		WithExportInterval(*s.ExportInterval).
		WithRuntimeMetrics(s.RuntimeMetrics).
		WithPrometheus(s.Prometheus)
	if s.Protocol != 0 {
		cfg = cfg.WithProtocol(s.Protocol)
	}
	return cfg, nil
}

func (s *profilerSpec) config(serviceName string) (profiler.Config, error) {
	creds, err := s.Credentials.build("profiler")
	if err != nil {
		return profiler.Config{}, err
	}
	cfg := profiler.NewConfig(serviceName).
		WithEnabled(s.Enabled).
		WithEndpoint(s.Endpoint).
		WithCredentials(creds).
		WithSampleRate(*s.SampleRateHz).
		WithUploadInterval(*s.UploadInterval).
		WithTenantID(s.TenantID)
	for k, v := range s.Tags {
		cfg = cfg.WithTag(k, v)
	}
	return cfg, nil
}
