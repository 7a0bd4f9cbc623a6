// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package component

import (
	"context"
	"sync/atomic"

	"github.com/z5labs/o11y/internal/try"
)

// Handle owns the release of a bootstrapped signal. It is safe to
// call [Handle.Shutdown] more than once; only the first call does anything.
type Handle struct {
	kind     Kind
	shutdown func(context.Context) error
	done     atomic.Bool
}

// NewHandle returns a [Handle] which runs shutdown exactly once.
func NewHandle(kind Kind, shutdown func(context.Context) error) *Handle {
	return &Handle{
		kind:     kind,
		shutdown: shutdown,
	}
}

// Kind returns the signal this handle belongs to.
func (h *Handle) Kind() Kind {
	return h.kind
}

// Closed reports whether [Handle.Shutdown] has been called.
func (h *Handle) Closed() bool {
	return h.done.Load()
}

// Shutdown flushes any buffered telemetry and releases the underlying
// provider. Any failure, including a panic, is returned as a [ShutdownError].
// Calls after the first are no-ops and return nil.
func (h *Handle) Shutdown(ctx context.Context) (err error) {
	if !h.done.CompareAndSwap(false, true) {
		return nil
	}
	defer func() {
		if err != nil {
			err = ShutdownError{Kind: h.kind, Cause: err}
		}
	}()
	defer try.Recover(&err)

	if h.shutdown == nil {
		return nil
	}
	return h.shutdown(ctx)
}
