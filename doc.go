// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package o11y brings up and tears down the telemetry signals of a
// single service from one validated [Config].
//
// Signals are started in a fixed order, logger, tracer, meter and then
// profiler, and are shut down in the reverse order. A failure while
// starting any signal shuts down every signal which was already started
// before the failure is returned as a [SetupError].
//
// Each signal may also be used on its own through the Setup and Shutdown
// functions of the logger, tracer, meter and profiler packages.
package o11y
