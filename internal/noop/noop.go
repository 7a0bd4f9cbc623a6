// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package noop provides exporters which drop everything they are given.
// The optional ShutdownErr field makes shutdown fail, which lets tests
// exercise flush failures without a collector.
package noop

import (
	"context"
	"sync/atomic"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type SpanExporter struct {
	ShutdownErr error

	exported atomic.Int64
	shutdown atomic.Bool
}

func (e *SpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.exported.Add(int64(len(spans)))
	return nil
}

func (e *SpanExporter) Shutdown(ctx context.Context) error {
	e.shutdown.Store(true)
	return e.ShutdownErr
}

// Exported returns the number of spans received.
func (e *SpanExporter) Exported() int64 { return e.exported.Load() }

// IsShutdown reports whether Shutdown was called.
func (e *SpanExporter) IsShutdown() bool { return e.shutdown.Load() }

type MetricExporter struct {
	ShutdownErr error

	exported atomic.Int64
	shutdown atomic.Bool
}

func (e *MetricExporter) Temporality(kind sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (e *MetricExporter) Aggregation(kind sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(kind)
}

func (e *MetricExporter) Export(ctx context.Context, rm *metricdata.ResourceMetrics) error {
	e.exported.Add(1)
	return nil
}

func (e *MetricExporter) ForceFlush(ctx context.Context) error {
	return nil
}

func (e *MetricExporter) Shutdown(ctx context.Context) error {
	e.shutdown.Store(true)
	return e.ShutdownErr
}

// Exported returns the number of collections received.
func (e *MetricExporter) Exported() int64 { return e.exported.Load() }

// IsShutdown reports whether Shutdown was called.
func (e *MetricExporter) IsShutdown() bool { return e.shutdown.Load() }

type LogExporter struct {
	ShutdownErr error

	exported atomic.Int64
	shutdown atomic.Bool
}

func (e *LogExporter) Export(ctx context.Context, records []sdklog.Record) error {
	e.exported.Add(int64(len(records)))
	return nil
}

func (e *LogExporter) ForceFlush(ctx context.Context) error {
	return nil
}

func (e *LogExporter) Shutdown(ctx context.Context) error {
	e.shutdown.Store(true)
	return e.ShutdownErr
}

// Exported returns the number of log records received.
func (e *LogExporter) Exported() int64 { return e.exported.Load() }

// IsShutdown reports whether Shutdown was called.
func (e *LogExporter) IsShutdown() bool { return e.shutdown.Load() }
