// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package o11y

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/z5labs/o11y/component"
)

// Outcome is the result of shutting down a single signal.
type Outcome struct {
	Kind component.Kind
	Err  error
}

// OK reports whether the signal shut down cleanly.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// String implements the [fmt.Stringer] interface.
func (o Outcome) String() string {
	if o.Err == nil {
		return o.Kind.String() + ": ok"
	}
	return o.Kind.String() + ": " + o.Err.Error()
}

// ShutdownReport lists an [Outcome] for every signal which was shut
// down, in the order they were shut down.
type ShutdownReport []Outcome

// OK reports whether every signal shut down cleanly.
func (r ShutdownReport) OK() bool {
	for _, o := range r {
		if !o.OK() {
			return false
		}
	}
	return true
}

// Err joins every shutdown failure. It is nil if r is OK.
func (r ShutdownReport) Err() error {
	var errs []error
	for _, o := range r {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Kinds returns the signals in r in the order they were shut down.
func (r ShutdownReport) Kinds() []component.Kind {
	kinds := make([]component.Kind, len(r))
	for i, o := range r {
		kinds[i] = o.Kind
	}
	return kinds
}

// String implements the [fmt.Stringer] interface.
func (r ShutdownReport) String() string {
	ss := make([]string, len(r))
	for i, o := range r {
		ss[i] = o.String()
	}
	return strings.Join(ss, "\n")
}

// LogValue implements the [slog.LogValuer] interface.
func (r ShutdownReport) LogValue() slog.Value {
	attrs := make([]slog.Attr, len(r))
	for i, o := range r {
		v := "ok"
		if o.Err != nil {
			v = o.Err.Error()
		}
		attrs[i] = slog.String(o.Kind.String(), v)
	}
	return slog.GroupValue(attrs...)
}
