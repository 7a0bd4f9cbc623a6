// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health reports whether telemetry is still being delivered.
package health

import (
	"context"
	"sync/atomic"
)

// Metric represents anything that can report its health status.
type Metric interface {
	Healthy(context.Context) bool
}

// MetricFunc is a func variant of the [Metric] interface.
type MetricFunc func(context.Context) bool

// Healthy implements the [Metric] interface.
func (f MetricFunc) Healthy(ctx context.Context) bool {
	return f(ctx)
}

// Binary is a [Metric] which is either healthy or not.
// The zero value is healthy.
type Binary struct {
	unhealthy atomic.Bool
}

// MarkUnhealthy sets the state to unhealthy.
func (m *Binary) MarkUnhealthy() {
	m.unhealthy.Store(true)
}

// MarkHealthy sets the state to healthy.
func (m *Binary) MarkHealthy() {
	m.unhealthy.Store(false)
}

// Healthy implements the [Metric] interface.
func (m *Binary) Healthy(ctx context.Context) bool {
	return !m.unhealthy.Load()
}

// AndMetric represents multiple Metrics all and'd together.
type AndMetric []Metric

// And returns a [Metric] which is healthy only if every metric is.
// An empty AndMetric is healthy.
func And(metrics ...Metric) AndMetric {
	return AndMetric(metrics)
}

// Healthy implements the [Metric] interface.
func (m AndMetric) Healthy(ctx context.Context) bool {
	for _, metric := range m {
		if !metric.Healthy(ctx) {
			return false
		}
	}
	return true
}

// NotMetric negates the underlying [Metric].
type NotMetric struct {
	metric Metric
}

// Not returns a [Metric] which is healthy when metric is not.
func Not(metric Metric) NotMetric {
	return NotMetric{metric: metric}
}

// Healthy implements the [Metric] interface.
func (m NotMetric) Healthy(ctx context.Context) bool {
	return !m.metric.Healthy(ctx)
}
