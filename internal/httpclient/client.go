// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpclient provides the retrying, circuit breaking HTTP client
// the OTLP HTTP exporters push telemetry with.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

type retryOptions struct {
	max     int
	waitMin time.Duration
	waitMax time.Duration
}

type circuitOptions struct {
	tripAfter   uint32
	openTimeout time.Duration
	halfOpen    uint32
}

type options struct {
	name    string
	timeout time.Duration
	rt      http.RoundTripper
	log     *slog.Logger

	retry   *retryOptions
	circuit *circuitOptions
}

// Option configures the [Client].
type Option func(*options)

// Name identifies the client in logs and the circuit breaker.
func Name(s string) Option {
	return func(o *options) {
		o.name = s
	}
}

// Timeout bounds every single attempt.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// RoundTripper overrides the base transport.
func RoundTripper(rt http.RoundTripper) Option {
	return func(o *options) {
		o.rt = rt
	}
}

// Logger sets the logger for request and circuit state logs.
func Logger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Retry retries failed attempts up to max times with exponential backoff.
func Retry(max int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.retry = &retryOptions{max: max, waitMin: waitMin, waitMax: waitMax}
	}
}

// CircuitBreaker opens the circuit after tripAfter consecutive failures
// and lets a single request through again after openTimeout.
func CircuitBreaker(tripAfter uint32, openTimeout time.Duration) Option {
	return func(o *options) {
		o.circuit = &circuitOptions{tripAfter: tripAfter, openTimeout: openTimeout, halfOpen: 1}
	}
}

// Client wraps an [http.Client] and reports the state of its circuit.
type Client struct {
	*http.Client

	cb *gobreaker.CircuitBreaker
}

// New returns a [Client]. Without any options it behaves like a plain
// [http.Client] using [http.DefaultTransport].
func New(opts ...Option) *Client {
	o := &options{
		rt:  http.DefaultTransport,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(o)
	}
	log := o.log
	if o.name != "" {
		log = log.With(slog.String("http_client", o.name))
	}

	c := &Client{}
	var rt http.RoundTripper = &logRoundTripper{base: o.rt, log: log}
	if o.circuit != nil {
		co := o.circuit
		c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        o.name,
			MaxRequests: co.halfOpen,
			Timeout:     co.openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= co.tripAfter
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					log.Error("circuit has been opened")
				case gobreaker.StateHalfOpen:
					log.Warn("circuit is half open", slog.Uint64("max_requests", uint64(co.halfOpen)))
				case gobreaker.StateClosed:
					log.Info("circuit has been closed")
				}
			},
		})
		rt = &circuitRoundTripper{base: rt, cb: c.cb}
	}

	base := &http.Client{
		Timeout:   o.timeout,
		Transport: rt,
	}
	if o.retry == nil {
		c.Client = base
		return c
	}

	rc := &retryablehttp.Client{
		HTTPClient:   base,
		Logger:       log,
		RetryWaitMin: o.retry.waitMin,
		RetryWaitMax: o.retry.waitMax,
		RetryMax:     o.retry.max,
		CheckRetry:   checkRetry,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	c.Client = rc.StandardClient()
	return c
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false, err
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// Healthy reports false while the circuit is open.
func (c *Client) Healthy(ctx context.Context) bool {
	if c.cb == nil {
		return true
	}
	return c.cb.State() != gobreaker.StateOpen
}

type logRoundTripper struct {
	base http.RoundTripper
	log  *slog.Logger
}

func (rt *logRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()
	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		rt.log.WarnContext(
			ctx,
			"request failed",
			slog.String("url", req.URL.Redacted()),
			slog.Any("error", err),
		)
		return nil, err
	}
	rt.log.DebugContext(
		ctx,
		"response received",
		slog.String("url", req.URL.Redacted()),
		slog.Int("status_code", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

// StatusError is counted as a circuit failure but never returned
// to callers, who receive the response instead.
type StatusError struct {
	Code int
}

// Error implements the [builtin.error] interface.
func (e StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

type circuitRoundTripper struct {
	base http.RoundTripper
	cb   *gobreaker.CircuitBreaker
}

func (rt *circuitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	_, err := rt.cb.Execute(func() (any, error) {
		var err error
		resp, err = rt.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, StatusError{Code: resp.StatusCode}
		}
		return nil, nil
	})

	var serr StatusError
	if errors.As(err, &serr) {
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}
