// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

import (
	"time"

	"github.com/bureau-foundation/mould/lib/clock"
)

// Result is what a request's callback receives: the decoded output
// value, or an error (a *Failure) explaining why there is none.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the request produced a value.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// outcome is the untyped completion handed to a task's callback. frame
// is meaningful only when failure is nil.
type outcome struct {
	frame   Frame
	failure *Failure
}

// task is one request's lifecycle record. active and callback are
// guarded by owner.mu. Once active is false the task is never sent,
// and once callback is nil it can never fire.
type task struct {
	owner   *Client
	id      uint64
	service string
	action  string
	frame   Frame
	started time.Time

	active   bool
	sent     bool
	callback func(outcome)
	timer    *clock.Timer
}

// finish marks the task inactive and hands back its callback for a
// single invocation. Returns nil if the task was already finished or
// cancelled. Must be called with owner.mu held.
func (t *task) finish() func(outcome) {
	if !t.active {
		return nil
	}
	t.active = false
	callback := t.callback
	t.callback = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	return callback
}

// Handle is the caller's view of one outstanding request.
//
// Close cancels the request if it is still active and does nothing
// otherwise; call it on every exit path of the code that owns the
// handle, typically via defer. A handle dropped while its request is
// active is cancelled once the garbage collector reclaims it, so the
// owner must keep the handle reachable for as long as it wants the
// result.
type Handle struct {
	task *task
}

// IsActive reports whether the request has neither completed nor been
// cancelled.
func (h *Handle) IsActive() bool {
	h.task.owner.mu.Lock()
	defer h.task.owner.mu.Unlock()
	return h.task.active
}

// Cancel marks the request inactive and releases its callback without
// invoking it. Cancel does not abort a frame already handed to the
// transport; a response that arrives later is ignored.
//
// Cancelling a handle that is no longer active returns
// ErrCancelInactive.
func (h *Handle) Cancel() error {
	return h.task.owner.cancel(h.task)
}

// Close cancels the request if it is still active.
func (h *Handle) Close() {
	// The only possible error is ErrCancelInactive, which is the normal
	// state of a handle whose request has finished.
	_ = h.Cancel()
}
