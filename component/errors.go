// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package component

import (
	"fmt"
	"runtime"
	"strings"
)

// ConfigError is returned by builders and constructors which are
// given malformed input.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the [builtin.error] interface.
func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Violation is a single failed validation check.
type Violation struct {
	Field   string
	Message string
}

// String implements the [fmt.Stringer] interface.
func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// ValidationError lists every check a signal config failed.
type ValidationError struct {
	Kind       Kind
	Violations []Violation
}

// Error implements the [builtin.error] interface.
func (e ValidationError) Error() string {
	ss := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		ss[i] = v.String()
	}
	return fmt.Sprintf("invalid %s config: %s", e.Kind, strings.Join(ss, "; "))
}

// TransportError occurs when the exporter or transport for a signal
// can not be constructed.
type TransportError struct {
	Kind  Kind
	Cause error
}

// Error implements the [builtin.error] interface.
func (e TransportError) Error() string {
	return fmt.Sprintf("failed to initialize %s transport: %s", e.Kind, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TransportError) Unwrap() error {
	return e.Cause
}

// UnsupportedError occurs when a signal can not run on the current platform.
type UnsupportedError struct {
	Kind Kind
	GOOS string
}

// Unsupported returns an [UnsupportedError] for the current platform.
func Unsupported(kind Kind) UnsupportedError {
	return UnsupportedError{Kind: kind, GOOS: runtime.GOOS}
}

// Error implements the [builtin.error] interface.
func (e UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported on %s", e.Kind, e.GOOS)
}

// ShutdownError wraps any failure encountered while flushing and
// releasing a signal.
type ShutdownError struct {
	Kind  Kind
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ShutdownError) Error() string {
	return fmt.Sprintf("failed to shutdown %s: %s", e.Kind, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ShutdownError) Unwrap() error {
	return e.Cause
}
