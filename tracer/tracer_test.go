// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tracer

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/z5labs/o11y/auth"
	"github.com/z5labs/o11y/component"
	"github.com/z5labs/o11y/global"
	"github.com/z5labs/o11y/internal/noop"
	"github.com/z5labs/o11y/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func descriptor(t *testing.T) *resource.Descriptor {
	t.Helper()
	b, err := resource.NewBuilder("svc")
	require.NoError(t, err)
	return b.Build()
}

func TestValidate(t *testing.T) {
	t.Run("will return a ValidationError", func(t *testing.T) {
		t.Run("if the endpoint is missing", func(t *testing.T) {
			err := Validate(NewConfig("svc").WithEnabled(true))

			var verr component.ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, component.Tracer, verr.Kind)
			assert.Equal(t, []component.Violation{{Field: "endpoint", Message: "must not be empty"}}, verr.Violations)
		})

		t.Run("with both the endpoint and sample ratio violations", func(t *testing.T) {
			err := Validate(NewConfig("svc").WithEnabled(true).WithSampleRatio(1.5))

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

		t.Run("if the sample ratio is negative", func(t *testing.T) {
			err := Validate(NewConfig("svc").WithEndpoint("http://localhost:4317").WithSampleRatio(-0.1))

			var verr component.ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, "sample_ratio", verr.Violations[0].Field)
		})

		t.Run("if the sample ratio is NaN", func(t *testing.T) {
			err := Validate(NewConfig("svc").WithEnabled(true).WithEndpoint("http://localhost:4317").WithSampleRatio(math.NaN()))

			var verr component.ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, []component.Violation{{Field: "sample_ratio", Message: "must be between 0 and 1"}}, verr.Violations)
		})

		t.Run("if the export timeout is not positive", func(t *testing.T) {
			err := Validate(NewConfig("svc").WithEndpoint("http://localhost:4317").WithExportTimeout(0))

			var verr component.ValidationError
			if !assert.ErrorAs(t, err, &verr) {
				return
			}
			assert.Equal(t, []component.Violation{{Field: "export_timeout", Message: component.MsgPositive}}, verr.Violations)
		})
	})

	t.Run("will accept the sample ratio bounds", func(t *testing.T) {
		for _, ratio := range []float64{0, 0.25, 1} {
			cfg := NewConfig("svc").WithEndpoint("http://localhost:4317").WithSampleRatio(ratio)
			assert.NoError(t, Validate(cfg))
		}
	})
}

func TestSampler(t *testing.T) {
	params := func(traceID trace.TraceID) sdktrace.SamplingParameters {
		return sdktrace.SamplingParameters{
			ParentContext: context.Background(),
			TraceID:       traceID,
			Name:          "op",
		}
	}
	traceID := trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

	t.Run("will never sample root spans", func(t *testing.T) {
		t.Run("if the ratio is zero", func(t *testing.T) {
			res := Sampler(0).ShouldSample(params(traceID))
			assert.Equal(t, sdktrace.Drop, res.Decision)
		})
	})

	t.Run("will always sample root spans", func(t *testing.T) {
		t.Run("if the ratio is one", func(t *testing.T) {
			res := Sampler(1).ShouldSample(params(traceID))
			assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
		})
	})

	t.Run("will follow the parent", func(t *testing.T) {
		t.Run("if the parent span is sampled", func(t *testing.T) {
			parent := trace.NewSpanContext(trace.SpanContextConfig{
				TraceID:    traceID,
				SpanID:     trace.SpanID{1},
				TraceFlags: trace.FlagsSampled,
				Remote:     true,
			})
			p := params(traceID)
			p.ParentContext = trace.ContextWithRemoteSpanContext(context.Background(), parent)

			res := Sampler(0).ShouldSample(p)
			assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
		})
	})
}

func TestSetup(t *testing.T) {
	t.Run("will return a nil handle", func(t *testing.T) {
		t.Run("if the config is disabled", func(t *testing.T) {
			h, err := Setup(context.Background(), NewConfig("svc"), descriptor(t))
			assert.NoError(t, err)
			assert.Nil(t, h)
		})
	})

	t.Run("will export spans", func(t *testing.T) {
		t.Run("once the handle is shutdown", func(t *testing.T) {
			exp := &noop.SpanExporter{}
			cfg := NewConfig("svc").
				WithEnabled(true).
				WithEndpoint("http://localhost:4317").
				WithExporter(exp)

			h, err := Setup(context.Background(), cfg, descriptor(t))
			require.NoError(t, err)

			ctx, span := h.Tracer().Start(context.Background(), "op")
			c, ok := Current(ctx)
			span.End()

			require.NoError(t, Shutdown(context.Background(), h))
			assert.True(t, ok)
			assert.True(t, c.Sampled)
			assert.Equal(t, span.SpanContext().TraceID().String(), c.TraceID)
			assert.Equal(t, int64(1), exp.Exported())
			assert.True(t, exp.IsShutdown())
			assert.NoError(t, Shutdown(context.Background(), h))
		})
	})

	t.Run("will construct a grpc exporter", func(t *testing.T) {
		t.Run("if no exporter override is given", func(t *testing.T) {
			creds, err := auth.APIKey(auth.DefaultAPIKeyHeader, "key")
			require.NoError(t, err)
			cfg := NewConfig("svc").
				WithEnabled(true).
				WithEndpoint("http://collector.invalid:4317").
				WithCredentials(creds)

			h, err := Setup(context.Background(), cfg, descriptor(t))
			require.NoError(t, err)
			assert.NoError(t, Shutdown(context.Background(), h))
		})
	})

	t.Run("will shutdown the provider", func(t *testing.T) {
		t.Run("if it can not be registered globally", func(t *testing.T) {
			registerErr := errors.New("registry unavailable")
			prev := register
			register = func(component.Kind, any) error { return registerErr }
			defer func() { register = prev }()

			exp := &noop.SpanExporter{}
			cfg := NewConfig("svc").
				WithEnabled(true).
				WithEndpoint("http://localhost:4317").
				WithExporter(exp).
				WithGlobal(true)

			h, err := Setup(context.Background(), cfg, descriptor(t))

			var terr component.TransportError
			if !assert.ErrorAs(t, err, &terr) {
				return
			}
			assert.Equal(t, component.Tracer, terr.Kind)
			assert.ErrorIs(t, err, registerErr)
			assert.Nil(t, h)
			assert.True(t, exp.IsShutdown())
		})
	})

	t.Run("will register the provider globally", func(t *testing.T) {
		t.Run("if the config uses globals", func(t *testing.T) {
			cfg := NewConfig("svc").
				WithEnabled(true).
				WithEndpoint("http://localhost:4317").
				WithExporter(&noop.SpanExporter{}).
				WithGlobal(true)

			h, err := Setup(context.Background(), cfg, descriptor(t))
			require.NoError(t, err)
			defer global.Unregister(component.Tracer, h.Provider())
			defer Shutdown(context.Background(), h)

			assert.Same(t, h.Provider(), otel.GetTracerProvider())
		})
	})
}

func TestCurrent(t *testing.T) {
	t.Run("will return false", func(t *testing.T) {
		t.Run("if there is no span in the context", func(t *testing.T) {
			_, ok := Current(context.Background())
			assert.False(t, ok)
		})
	})
}
