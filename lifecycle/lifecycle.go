// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle ties telemetry teardown to the lifetime of the
// work it observes.
package lifecycle

import (
	"context"
	"errors"
)

// Hook is an action performed at a specific point relative to
// the work being observed.
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a func variant of the [Hook] interface.
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	var errs []error
	for _, h := range mh {
		err := h.Run(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MultiHook returns a [Hook] which runs every hook sequentially,
// in the given order, and joins their errors.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Context collects the hooks to run once the observed work returns.
type Context struct {
	postRuns []Hook
}

// OnPostRun registers hook to run after the work returns. Hooks run
// in the reverse order of registration, like deferred calls.
func (c *Context) OnPostRun(hook Hook) {
	c.postRuns = append(c.postRuns, hook)
}

// PostRun returns a single [Hook] for every registered post run hook.
func (c *Context) PostRun() Hook {
	hooks := make(multiHook, len(c.postRuns))
	for i, h := range c.postRuns {
		hooks[len(hooks)-1-i] = h
	}
	return hooks
}

// Run calls f with a [context.Context] carrying c and then runs every
// post run hook, even if f fails. Errors from f and the hooks are joined.
func (c *Context) Run(ctx context.Context, f func(context.Context) error) error {
	err := f(NewContext(ctx, c))
	return errors.Join(err, c.PostRun().Run(ctx))
}

type key struct{}

var contextKey = &key{}

// NewContext returns a new [context.Context] containing the lifecycle [Context].
func NewContext(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, contextKey, c)
}

// FromContext tries to extract a lifecycle [Context] from the given [context.Context].
func FromContext(ctx context.Context) (*Context, bool) {
	lc, ok := ctx.Value(contextKey).(*Context)
	return lc, ok
}
