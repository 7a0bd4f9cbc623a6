// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logging provides the [slog.Handler]s used for the diagnostics
// this module emits about itself.
package logging

import (
	"context"
	"log/slog"
)

// SecretKeys are the attribute keys masked by [New].
var SecretKeys = []string{"authorization", "password", "token", "secret", "api_key"}

// New returns a [slog.Logger] which masks [SecretKeys] and correlates
// records with the active span. A nil handler discards every record.
func New(h slog.Handler) *slog.Logger {
	if h == nil {
		h = DiscardHandler{}
	}
	return slog.New(NewTraceHandler(NewMaskHandler(h, SecretKeys...)))
}

// DiscardHandler drops every record.
type DiscardHandler struct{}

func (DiscardHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (DiscardHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (h DiscardHandler) WithAttrs(_ []slog.Attr) slog.Handler        { return h }
func (h DiscardHandler) WithGroup(_ string) slog.Handler             { return h }
