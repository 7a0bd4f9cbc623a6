// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package component defines the pieces shared by every telemetry signal:
// the signal [Kind], the [Handle] returned by a bootstrapped signal and
// the error types reported while configuring, starting and stopping one.
package component
