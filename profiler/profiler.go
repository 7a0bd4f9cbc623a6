// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package profiler continuously samples CPU usage and pushes the
// profiles to a Pyroscope compatible ingestion endpoint.
//
// Profiling is only supported on Unix platforms. Elsewhere [Bootstrap]
// returns a [component.UnsupportedError] without starting anything.
package profiler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/logging"
	"github.com/z5labs/o11y/resource"

	"github.com/grafana/pyroscope-go"
)

var supported = platformSupported

// Validate reports every problem with cfg as a [component.ValidationError].
func Validate(cfg Config) error {
	var vs component.Violations
	vs.Endpoint("endpoint", cfg.endpoint)
	vs.PositiveInt("sample_rate_hz", cfg.sampleRateHz)
	vs.Positive("upload_interval", cfg.uploadInterval)
	vs.Check("credentials", cfg.credentials)
	vs.NotEmpty("service_name", cfg.serviceName)
	vs.NotEmpty("tenant_id", cfg.tenantID)
	return vs.Err(component.Profiler)
}

// UploadError occurs when the agent failed to deliver a profile.
type UploadError struct {
	Message string
}

// Error implements the [builtin.error] interface.
func (e UploadError) Error() string {
	return "failed to upload profile: " + e.Message
}

// Agent wraps a running [pyroscope.Profiler] and tracks its upload failures.
type Agent struct {
	profiler *pyroscope.Profiler
	log      *slog.Logger
	window   time.Duration

	failed      atomic.Int64
	lastFailure atomic.Int64

	mu      sync.Mutex
	lastErr string
}

// Infof implements the [pyroscope.Logger] interface.
func (a *Agent) Infof(format string, args ...interface{}) {
	a.log.Info(fmt.Sprintf(format, args...))
}

// Debugf implements the [pyroscope.Logger] interface.
func (a *Agent) Debugf(format string, args ...interface{}) {
	a.log.Debug(fmt.Sprintf(format, args...))
}

// Errorf implements the [pyroscope.Logger] interface. Every error the
// agent reports counts as a failed upload.
func (a *Agent) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	a.failed.Add(1)
	a.lastFailure.Store(time.Now().UnixNano())
	a.mu.Lock()
	a.lastErr = msg
	a.mu.Unlock()
	a.log.Error("profiling agent failure", slog.String("error", msg))
}

// Failed returns the number of failures reported by the agent.
func (a *Agent) Failed() int64 {
	return a.failed.Load()
}

// Healthy reports whether no failure occurred within the last two
// upload intervals.
func (a *Agent) Healthy(ctx context.Context) bool {
	last := a.lastFailure.Load()
	if last == 0 {
		return true
	}
	return time.Since(time.Unix(0, last)) > a.window
}

func (a *Agent) stop(ctx context.Context) error {
	before := a.failed.Load()

	done := make(chan error, 1)
	go func() {
		done <- a.profiler.Stop()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return err
		}
	}
	if a.failed.Load() == before {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return UploadError{Message: a.lastErr}
}

// Handle owns a running [Agent].
type Handle struct {
	*component.Handle

	agent *Agent
}

// Agent returns the running profiling agent.
func (h *Handle) Agent() *Agent {
	return h.agent
}

// Healthy implements the [health.Metric] interface.
func (h *Handle) Healthy(ctx context.Context) bool {
	return !h.Closed() && h.agent.Healthy(ctx)
}

// Bootstrap starts profiling for an already validated cfg. The tenant of
// res is used when cfg keeps the [DefaultTenantID]. The final partial
// profile is uploaded when the returned [Handle] is shutdown.
func Bootstrap(ctx context.Context, cfg Config, res *resource.Descriptor) (*Handle, error) {
	if !supported {
		return nil, component.Unsupported(component.Profiler)
	}

	tenant := cfg.tenantID
	if tenant == DefaultTenantID && res != nil && res.TenantID() != "" {
		tenant = res.TenantID()
	}

	log := cfg.log
	if log == nil {
		log = logging.New(nil)
	}
	a := &Agent{
		log:    log.With(slog.String("signal", component.Profiler.String())),
		window: 2 * cfg.uploadInterval,
	}

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.serviceName,
		Tags:            cfg.Tags(),
		ServerAddress:   cfg.endpoint,
		TenantID:        tenant,
		HTTPHeaders:     cfg.credentials.Headers(),
		SampleRate:      uint32(cfg.sampleRateHz),
		UploadRate:      cfg.uploadInterval,
		Logger:          a,
		ProfileTypes:    []pyroscope.ProfileType{pyroscope.ProfileCPU},
	})
	if err != nil {
		return nil, component.TransportError{Kind: component.Profiler, Cause: err}
	}
	a.profiler = p

	h := &Handle{
		Handle: component.NewHandle(component.Profiler, a.stop),
		agent:  a,
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

// Shutdown stops profiling and uploads the final profile. A nil h is ignored.
func Shutdown(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	return h.Shutdown(ctx)
}
