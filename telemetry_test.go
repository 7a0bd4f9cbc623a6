// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package o11y

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/internal/noop"
	"github.com/z5labs/o11y/logger"
	"github.com/z5labs/o11y/meter"
	"github.com/z5labs/o11y/profiler"
	"github.com/z5labs/o11y/resource"
	"github.com/z5labs/o11y/tracer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu          sync.Mutex
	calls       map[component.Kind]int
	services    map[component.Kind]string
	shutdowns   []component.Kind
	startErr    map[component.Kind]error
	shutdownErr map[component.Kind]error
}

func newRecorder() *recorder {
	return &recorder{
		calls:       make(map[component.Kind]int),
		services:    make(map[component.Kind]string),
		startErr:    make(map[component.Kind]error),
		shutdownErr: make(map[component.Kind]error),
	}
}

func (r *recorder) start(kind component.Kind, serviceName string) (*component.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[kind]++
	r.services[kind] = serviceName
	if err := r.startErr[kind]; err != nil {
		return nil, err
	}
	return component.NewHandle(kind, func(ctx context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.shutdowns = append(r.shutdowns, kind)
		return r.shutdownErr[kind]
	}), nil
}

func (r *recorder) bootstrappers() bootstrappers {
	return bootstrappers{
		logger: func(ctx context.Context, cfg logger.Config, res *resource.Descriptor) (*logger.Handle, error) {
			h, err := r.start(component.Logger, cfg.ServiceName())
			if err != nil {
				return nil, err
			}
			return &logger.Handle{Handle: h}, nil
		},
		tracer: func(ctx context.Context, cfg tracer.Config, res *resource.Descriptor) (*tracer.Handle, error) {
			h, err := r.start(component.Tracer, cfg.ServiceName())
			if err != nil {
				return nil, err
			}
			return &tracer.Handle{Handle: h}, nil
		},
		meter: func(ctx context.Context, cfg meter.Config, res *resource.Descriptor) (*meter.Handle, error) {
			h, err := r.start(component.Meter, cfg.ServiceName())
			if err != nil {
				return nil, err
			}
			return &meter.Handle{Handle: h}, nil
		},
		profiler: func(ctx context.Context, cfg profiler.Config, res *resource.Descriptor) (*profiler.Handle, error) {
			h, err := r.start(component.Profiler, cfg.ServiceName())
			if err != nil {
				return nil, err
			}
			return &profiler.Handle{Handle: h}, nil
		},
	}
}

func newConfig(t *testing.T) Config {
	cfg, err := NewConfig("svc")
	require.NoError(t, err)
	return cfg
}

func allSignals(t *testing.T) Config {
	return newConfig(t).
		WithLogger(logger.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4318")).
		WithTracer(tracer.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4317")).
		WithMeter(meter.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4318")).
		WithProfiler(profiler.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4040"))
}

func TestNewConfig(t *testing.T) {
	t.Run("will return a ConfigError", func(t *testing.T) {
		t.Run("if the service name is empty", func(t *testing.T) {
			_, err := NewConfig("")

			var cerr component.ConfigError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			assert.Equal(t, "service_name", cerr.Field)
		})
	})
}

func TestSetup(t *testing.T) {
	t.Run("will not bootstrap a signal", func(t *testing.T) {
		t.Run("if its config is absent or disabled", func(t *testing.T) {
			r := newRecorder()
			cfg := newConfig(t).
				WithLogger(logger.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4318")).
				WithTracer(tracer.NewConfig("svc").WithEndpoint("http://localhost:4317")).
				WithProfiler(profiler.NewConfig("svc"))

			tel, err := Setup(context.Background(), cfg, withBootstrappers(r.bootstrappers()))
			require.NoError(t, err)
			defer tel.Shutdown(context.Background())

			assert.Equal(t, 1, r.calls[component.Logger])
			assert.Equal(t, 0, r.calls[component.Tracer])
			assert.Equal(t, 0, r.calls[component.Meter])
			assert.Equal(t, 0, r.calls[component.Profiler])
			assert.Equal(t, []component.Kind{component.Logger}, tel.Kinds())
		})

		t.Run("if the config is invalid", func(t *testing.T) {
			r := newRecorder()
			cfg := newConfig(t).
				WithTracer(tracer.NewConfig("svc").WithEnabled(true))

			_, err := Setup(context.Background(), cfg, withBootstrappers(r.bootstrappers()))
			require.Error(t, err)

			assert.Equal(t, 0, r.calls[component.Tracer])
		})
	})

	t.Run("will start every enabled signal", func(t *testing.T) {
		t.Run("in setup order", func(t *testing.T) {
			r := newRecorder()

			tel, err := Setup(context.Background(), allSignals(t), withBootstrappers(r.bootstrappers()))
			require.NoError(t, err)

			assert.Equal(t, Running, tel.State())
			assert.Equal(t, component.Kinds(), tel.Kinds())
			for _, kind := range component.Kinds() {
				assert.True(t, tel.Has(kind))
			}

			_, ok := tel.Logger()
			assert.True(t, ok)
			_, ok = tel.Tracer()
			assert.True(t, ok)
			_, ok = tel.Meter()
			assert.True(t, ok)
			_, ok = tel.Profiler()
			assert.True(t, ok)
		})
	})

	t.Run("will default the service name of a signal", func(t *testing.T) {
		t.Run("if it is empty", func(t *testing.T) {
			r := newRecorder()
			cfg := newConfig(t).
				WithLogger(logger.NewConfig("").WithEnabled(true).WithEndpoint("http://localhost:4318")).
				WithTracer(tracer.NewConfig("other").WithEnabled(true).WithEndpoint("http://localhost:4317"))

			tel, err := Setup(context.Background(), cfg, withBootstrappers(r.bootstrappers()))
			require.NoError(t, err)
			defer tel.Shutdown(context.Background())

			assert.Equal(t, "svc", r.services[component.Logger])
			assert.Equal(t, "other", r.services[component.Tracer])
		})
	})

	t.Run("will return a SetupError", func(t *testing.T) {
		t.Run("if an enabled tracer has no endpoint", func(t *testing.T) {
			cfg := newConfig(t).
				WithTracer(tracer.NewConfig("svc").WithEnabled(true))

			tel, err := Setup(context.Background(), cfg)
			assert.Nil(t, tel)

			var serr SetupError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
			assert.Equal(t, component.Tracer, serr.Kind)
			assert.Empty(t, serr.Rollback)

			var verr component.ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, component.Tracer, verr.Kind)
			assert.Equal(t, []component.Violation{
				{Field: "endpoint", Message: "must not be empty"},
			}, verr.Violations)
		})

		t.Run("with every tracer violation", func(t *testing.T) {
			cfg := newConfig(t).
				WithTracer(tracer.NewConfig("svc").WithEnabled(true).WithSampleRatio(1.5))

			_, err := Setup(context.Background(), cfg)

			var verr component.ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			if !assert.Len(t, verr.Violations, 2) {
				return
			}
			assert.Equal(t, "endpoint", verr.Violations[0].Field)
			assert.Equal(t, "sample_ratio", verr.Violations[1].Field)
		})

		t.Run("after shutting down started signals in reverse order if the meter fails", func(t *testing.T) {
			r := newRecorder()
			meterErr := component.TransportError{Kind: component.Meter, Cause: errors.New("dial failed")}
			r.startErr[component.Meter] = meterErr

			tel, err := Setup(context.Background(), allSignals(t), withBootstrappers(r.bootstrappers()))
			assert.Nil(t, tel)

			var serr SetupError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
			assert.Equal(t, component.Meter, serr.Kind)
			assert.ErrorIs(t, err, meterErr)
			assert.Equal(t, []component.Kind{component.Tracer, component.Logger}, r.shutdowns)
			assert.Equal(t, []component.Kind{component.Tracer, component.Logger}, serr.Rollback.Kinds())
			assert.True(t, serr.Rollback.OK())
			assert.Equal(t, 0, r.calls[component.Profiler])
		})

		t.Run("if the profiler is unsupported", func(t *testing.T) {
			r := newRecorder()
			r.startErr[component.Profiler] = component.Unsupported(component.Profiler)
			cfg := newConfig(t).
				WithLogger(logger.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4318")).
				WithProfiler(profiler.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4040"))

			_, err := Setup(context.Background(), cfg, withBootstrappers(r.bootstrappers()))

			var serr SetupError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
			assert.Equal(t, component.Profiler, serr.Kind)

			var uerr component.UnsupportedError
			assert.ErrorAs(t, err, &uerr)
			assert.Equal(t, []component.Kind{component.Logger}, r.shutdowns)
		})

		t.Run("with the rollback failures", func(t *testing.T) {
			r := newRecorder()
			r.startErr[component.Meter] = errors.New("meter failed")
			r.shutdownErr[component.Logger] = errors.New("flush failed")

			_, err := Setup(context.Background(), allSignals(t), withBootstrappers(r.bootstrappers()))

			var serr SetupError
			if !assert.ErrorAs(t, err, &serr) {
				return
			}
			assert.False(t, serr.Rollback.OK())
			assert.Equal(t, []component.Kind{component.Tracer, component.Logger}, r.shutdowns)

			var sherr component.ShutdownError
			if !assert.ErrorAs(t, serr.Rollback.Err(), &sherr) {
				return
			}
			assert.Equal(t, component.Logger, sherr.Kind)
		})
	})

	t.Run("will return a ConfigError", func(t *testing.T) {
		t.Run("if the config has no service name", func(t *testing.T) {
			r := newRecorder()

			tel, err := Setup(context.Background(), Config{}, withBootstrappers(r.bootstrappers()))

			var cerr component.ConfigError
			if !assert.ErrorAs(t, err, &cerr) {
				return
			}
			assert.Equal(t, "service_name", cerr.Field)
			assert.Nil(t, tel)
			assert.Empty(t, r.calls)
		})
	})

	t.Run("will install the default logger", func(t *testing.T) {
		t.Run("if the logger is registered globally", func(t *testing.T) {
			prev := slog.Default()
			exp := &noop.LogExporter{}
			cfg := newConfig(t).WithLogger(
				logger.NewConfig("svc").
					WithEnabled(true).
					WithEndpoint("http://localhost:4318").
					WithExporter(exp).
					WithGlobal(true),
			)

			tel, err := Setup(context.Background(), cfg)
			require.NoError(t, err)

			slog.Default().Info("hello")

			report := tel.Shutdown(context.Background())
			require.True(t, report.OK())
			assert.Equal(t, int64(1), exp.Exported())
			assert.Same(t, prev, slog.Default())
		})

		t.Run("if WithDefaultLogger is given", func(t *testing.T) {
			prev := slog.Default()
			exp := &noop.LogExporter{}
			cfg := newConfig(t).WithLogger(
				logger.NewConfig("svc").
					WithEnabled(true).
					WithEndpoint("http://localhost:4318").
					WithExporter(exp),
			)

			var buf bytes.Buffer
			tel, err := Setup(
				context.Background(),
				cfg,
				WithLogHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})),
				WithDefaultLogger(),
			)
			require.NoError(t, err)

			slog.Default().Warn("hello", slog.String("password", "hunter2"))

			report := tel.Shutdown(context.Background())
			require.True(t, report.OK())
			assert.Equal(t, int64(1), exp.Exported())
			assert.Contains(t, buf.String(), `"msg":"hello"`)
			assert.NotContains(t, buf.String(), "hunter2")
			assert.Same(t, prev, slog.Default())
		})
	})

	t.Run("will not install the default logger", func(t *testing.T) {
		t.Run("if the logger is not global and no option is given", func(t *testing.T) {
			prev := slog.Default()
			cfg := newConfig(t).WithLogger(
				logger.NewConfig("svc").
					WithEnabled(true).
					WithEndpoint("http://localhost:4318").
					WithExporter(&noop.LogExporter{}),
			)

			tel, err := Setup(context.Background(), cfg)
			require.NoError(t, err)
			defer tel.Shutdown(context.Background())

			assert.Same(t, prev, slog.Default())
		})
	})
}

func TestTelemetry_Shutdown(t *testing.T) {
	t.Run("will return a single outcome", func(t *testing.T) {
		t.Run("if only the logger is configured", func(t *testing.T) {
			cfg := newConfig(t).
				WithLogger(logger.NewConfig("svc").WithEnabled(true).WithEndpoint("http://x/otlp"))

			tel, err := Setup(context.Background(), cfg)
			require.NoError(t, err)
			assert.Equal(t, []component.Kind{component.Logger}, tel.Kinds())

			report := tel.Shutdown(context.Background())
			if !assert.Len(t, report, 1) {
				return
			}
			assert.Equal(t, component.Logger, report[0].Kind)
			assert.True(t, report[0].OK())
			assert.NoError(t, report.Err())
		})
	})

	t.Run("will return an empty report", func(t *testing.T) {
		t.Run("if called a second time", func(t *testing.T) {
			r := newRecorder()

			tel, err := Setup(context.Background(), allSignals(t), withBootstrappers(r.bootstrappers()))
			require.NoError(t, err)

			first := tel.Shutdown(context.Background())
			second := tel.Shutdown(context.Background())

			assert.Len(t, first, 4)
			assert.Empty(t, second)
			assert.Len(t, r.shutdowns, 4)
			assert.Equal(t, ShutDown, tel.State())
		})
	})

	t.Run("will shut down every signal", func(t *testing.T) {
		t.Run("in reverse order even if one fails", func(t *testing.T) {
			r := newRecorder()
			r.shutdownErr[component.Tracer] = errors.New("flush failed")

			tel, err := Setup(context.Background(), allSignals(t), withBootstrappers(r.bootstrappers()))
			require.NoError(t, err)

			report := tel.Shutdown(context.Background())

			want := []component.Kind{component.Profiler, component.Meter, component.Tracer, component.Logger}
			assert.Equal(t, want, r.shutdowns)
			assert.Equal(t, want, report.Kinds())
			assert.False(t, report.OK())
			assert.True(t, report[0].OK())
			assert.True(t, report[1].OK())
			assert.True(t, report[3].OK())

			var sherr component.ShutdownError
			if !assert.ErrorAs(t, report[2].Err, &sherr) {
				return
			}
			assert.Equal(t, component.Tracer, sherr.Kind)
		})

		t.Run("even if the context is cancelled", func(t *testing.T) {
			r := newRecorder()

			tel, err := Setup(context.Background(), allSignals(t), withBootstrappers(r.bootstrappers()))
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			report := tel.Shutdown(ctx)
			assert.Len(t, report, 4)
			assert.Len(t, r.shutdowns, 4)
		})
	})

	t.Run("will release the accessors", func(t *testing.T) {
		r := newRecorder()

		tel, err := Setup(context.Background(), allSignals(t), withBootstrappers(r.bootstrappers()))
		require.NoError(t, err)

		tel.Shutdown(context.Background())

		_, ok := tel.Logger()
		assert.False(t, ok)
		assert.False(t, tel.Has(component.Tracer))
		assert.Empty(t, tel.Kinds())
	})
}

func TestTelemetry_ForceFlush(t *testing.T) {
	t.Run("will flush every signal", func(t *testing.T) {
		exp := &noop.SpanExporter{}
		cfg := newConfig(t).
			WithLogger(logger.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4318").WithExporter(&noop.LogExporter{})).
			WithTracer(tracer.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4317").WithExporter(exp))

		tel, err := Setup(context.Background(), cfg)
		require.NoError(t, err)
		defer tel.Shutdown(context.Background())

		th, ok := tel.Tracer()
		require.True(t, ok)
		_, span := th.Tracer().Start(context.Background(), "work")
		span.End()

		require.NoError(t, tel.ForceFlush(context.Background()))
		assert.Equal(t, int64(1), exp.Exported())
	})

	t.Run("will return a LifecycleError", func(t *testing.T) {
		t.Run("if called after shutdown", func(t *testing.T) {
			r := newRecorder()

			tel, err := Setup(context.Background(), allSignals(t), withBootstrappers(r.bootstrappers()))
			require.NoError(t, err)

			tel.Shutdown(context.Background())

			err = tel.ForceFlush(context.Background())

			var lerr LifecycleError
			assert.ErrorAs(t, err, &lerr)
		})
	})
}

func TestTelemetry_Healthy(t *testing.T) {
	t.Run("will be healthy while running", func(t *testing.T) {
		r := newRecorder()
		cfg := newConfig(t).
			WithLogger(logger.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4318"))

		tel, err := Setup(context.Background(), cfg, withBootstrappers(r.bootstrappers()))
		require.NoError(t, err)

		assert.True(t, tel.Healthy(context.Background()))

		tel.Shutdown(context.Background())
		assert.False(t, tel.Healthy(context.Background()))
	})
}

func TestRun(t *testing.T) {
	t.Run("will shut down", func(t *testing.T) {
		t.Run("after the func returns an error", func(t *testing.T) {
			r := newRecorder()
			fErr := errors.New("failed")

			var tel *Telemetry
			err := Run(context.Background(), allSignals(t), func(ctx context.Context, running *Telemetry) error {
				tel = running
				return fErr
			}, withBootstrappers(r.bootstrappers()))

			assert.ErrorIs(t, err, fErr)
			assert.Equal(t, ShutDown, tel.State())
			assert.Len(t, r.shutdowns, 4)
		})
	})

	t.Run("will not call the func", func(t *testing.T) {
		t.Run("if setup fails", func(t *testing.T) {
			cfg := newConfig(t).WithTracer(tracer.NewConfig("svc").WithEnabled(true))

			called := false
			err := Run(context.Background(), cfg, func(ctx context.Context, _ *Telemetry) error {
				called = true
				return nil
			})

			var serr SetupError
			assert.ErrorAs(t, err, &serr)
			assert.False(t, called)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("will join a ValidationError per invalid signal", func(t *testing.T) {
		cfg := newConfig(t).
			WithLogger(logger.NewConfig("svc").WithEnabled(true)).
			WithTracer(tracer.NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4317")).
			WithMeter(meter.NewConfig("svc").WithEnabled(true).WithEndpoint("not a url"))

		err := cfg.Validate()

		var verr component.ValidationError
		if !assert.ErrorAs(t, err, &verr) {
			return
		}
		assert.Equal(t, component.Logger, verr.Kind)

		errs := err.(interface{ Unwrap() []error }).Unwrap()
		if !assert.Len(t, errs, 2) {
			return
		}
		assert.ErrorAs(t, errs[1], &verr)
		assert.Equal(t, component.Meter, verr.Kind)
	})

	t.Run("will ignore disabled signals", func(t *testing.T) {
		cfg := newConfig(t).WithTracer(tracer.NewConfig("svc"))

		assert.NoError(t, cfg.Validate())
	})
}
