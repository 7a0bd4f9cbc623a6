// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Masked replaces the value of every masked attribute.
const Masked = "****"

// MaskHandler replaces the values of attributes whose key, compared
// case insensitively, is one of the configured keys. Keys nested in
// groups are masked as well.
type MaskHandler struct {
	slog slog.Handler
	keys map[string]struct{}
}

// NewMaskHandler wraps h.
func NewMaskHandler(h slog.Handler, keys ...string) *MaskHandler {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[strings.ToLower(k)] = struct{}{}
	}
	return &MaskHandler{slog: h, keys: m}
}

func (h *MaskHandler) mask(a slog.Attr) slog.Attr {
	if _, ok := h.keys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, Masked)
	}
	if a.Value.Kind() != slog.KindGroup {
		return a
	}
	group := a.Value.Group()
	attrs := make([]slog.Attr, len(group))
	for i, ga := range group {
		attrs[i] = h.mask(ga)
	}
	return slog.Attr{Key: a.Key, Value: slog.GroupValue(attrs...)}
}

// Enabled implements the [slog.Handler] interface.
func (h *MaskHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the [slog.Handler] interface.
func (h *MaskHandler) Handle(ctx context.Context, record slog.Record) error {
	r := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(h.mask(a))
		return true
	})
	return h.slog.Handle(ctx, r)
}

// WithAttrs implements the [slog.Handler] interface.
func (h *MaskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask(a)
	}
	return &MaskHandler{slog: h.slog.WithAttrs(masked), keys: h.keys}
}

// WithGroup implements the [slog.Handler] interface.
func (h *MaskHandler) WithGroup(name string) slog.Handler {
	return &MaskHandler{slog: h.slog.WithGroup(name), keys: h.keys}
}
