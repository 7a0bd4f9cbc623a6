// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package o11y

import (
	"fmt"

	"github.com/z5labs/o11y/component"
)

// SetupError occurs when a signal fails validation or fails to start.
// Cause is a [component.ValidationError] for the former. Rollback lists
// the outcome of shutting down every signal started before the failure.
type SetupError struct {
	Kind     component.Kind
	Cause    error
	Rollback ShutdownReport
}

// Error implements the [builtin.error] interface.
func (e SetupError) Error() string {
	return fmt.Sprintf("failed to setup %s: %s", e.Kind, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e SetupError) Unwrap() error {
	return e.Cause
}

// LifecycleError occurs when an operation is attempted on [Telemetry]
// which has already been shut down.
type LifecycleError struct {
	Op string
}

// Error implements the [builtin.error] interface.
func (e LifecycleError) Error() string {
	return fmt.Sprintf("can not %s after telemetry has been shut down", e.Op)
}

// ConfigReadError occurs when the config sources can not be read.
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError occurs when the read config can not be decoded.
type ConfigUnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}
