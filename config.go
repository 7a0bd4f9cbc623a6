// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package o11y

import (
	"errors"

	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/logger"
	"github.com/z5labs/o11y/meter"
	"github.com/z5labs/o11y/profiler"
	"github.com/z5labs/o11y/resource"
	"github.com/z5labs/o11y/tracer"
)

// Config describes the resource and the signals of a service.
// A signal without a config is never started, regardless of its
// enabled flag.
type Config struct {
	resource resource.Builder

	logger   *logger.Config
	tracer   *tracer.Config
	meter    *meter.Config
	profiler *profiler.Config
}

// NewConfig returns a [Config] with no signals for the service named
// serviceName. An empty serviceName is a [component.ConfigError].
func NewConfig(serviceName string) (Config, error) {
	b, err := resource.NewBuilder(serviceName)
	if err != nil {
		return Config{}, err
	}
	return Config{resource: b}, nil
}

// WithResource replaces the resource builder.
func (c Config) WithResource(b resource.Builder) Config {
	c.resource = b
	return c
}

// WithLogger sets the logger config.
func (c Config) WithLogger(cfg logger.Config) Config {
	c.logger = &cfg
	return c
}

// WithTracer sets the tracer config.
func (c Config) WithTracer(cfg tracer.Config) Config {
	c.tracer = &cfg
	return c
}

// WithMeter sets the meter config.
func (c Config) WithMeter(cfg meter.Config) Config {
	c.meter = &cfg
	return c
}

// WithProfiler sets the profiler config.
func (c Config) WithProfiler(cfg profiler.Config) Config {
	c.profiler = &cfg
	return c
}

func (c Config) Resource() resource.Builder { return c.resource }

// Logger returns the logger config, if one was set. An empty service
// name is replaced with the resource service name.
func (c Config) Logger() (logger.Config, bool) {
	if c.logger == nil {
		return logger.Config{}, false
	}
	cfg := *c.logger
	if cfg.ServiceName() == "" {
		cfg = cfg.WithServiceName(c.resource.ServiceName())
	}
	return cfg, true
}

// Tracer returns the tracer config, if one was set. An empty service
// name is replaced with the resource service name.
func (c Config) Tracer() (tracer.Config, bool) {
	if c.tracer == nil {
		return tracer.Config{}, false
	}
	cfg := *c.tracer
	if cfg.ServiceName() == "" {
		cfg = cfg.WithServiceName(c.resource.ServiceName())
	}
	return cfg, true
}

// Meter returns the meter config, if one was set. An empty service
// name is replaced with the resource service name.
func (c Config) Meter() (meter.Config, bool) {
	if c.meter == nil {
		return meter.Config{}, false
	}
	cfg := *c.meter
	if cfg.ServiceName() == "" {
		cfg = cfg.WithServiceName(c.resource.ServiceName())
	}
	return cfg, true
}

// Profiler returns the profiler config, if one was set. An empty service
// name is replaced with the resource service name.
func (c Config) Profiler() (profiler.Config, bool) {
	if c.profiler == nil {
		return profiler.Config{}, false
	}
	cfg := *c.profiler
	if cfg.ServiceName() == "" {
		cfg = cfg.WithServiceName(c.resource.ServiceName())
	}
	return cfg, true
}

// Enabled reports whether the signal of the given kind has a config
// and is enabled.
func (c Config) Enabled(kind component.Kind) bool {
	switch kind {
	case component.Logger:
		return c.logger != nil && c.logger.Enabled()
	case component.Tracer:
		return c.tracer != nil && c.tracer.Enabled()
	case component.Meter:
		return c.meter != nil && c.meter.Enabled()
	case component.Profiler:
		return c.profiler != nil && c.profiler.Enabled()
	default:
		return false
	}
}

// Validate checks every enabled signal without starting any of them.
// The returned error joins one [component.ValidationError] per invalid
// signal, in setup order.
func (c Config) Validate() error {
	var errs []error
	for _, kind := range component.Kinds() {
		if !c.Enabled(kind) {
			continue
		}
		errs = append(errs, c.validate(kind))
	}
	return errors.Join(errs...)
}

func (c Config) validate(kind component.Kind) error {
	switch kind {
	case component.Logger:
		cfg, _ := c.Logger()
		return logger.Validate(cfg)
	case component.Tracer:
		cfg, _ := c.Tracer()
		return tracer.Validate(cfg)
	case component.Meter:
		cfg, _ := c.Meter()
		return meter.Validate(cfg)
	case component.Profiler:
		cfg, _ := c.Profiler()
		return profiler.Validate(cfg)
	default:
		return nil
	}
}

func (c Config) usesGlobalLogger() bool {
	return c.logger != nil && c.logger.Enabled() && c.logger.UseGlobal()
}

func (c Config) usesGlobal() bool {
	return c.usesGlobalLogger() ||
		(c.tracer != nil && c.tracer.Enabled() && c.tracer.UseGlobal()) ||
		(c.meter != nil && c.meter.Enabled() && c.meter.UseGlobal())
}
