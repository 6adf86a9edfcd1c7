// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// RequireReceive returns the next value from ch, failing the test if ch
// is closed or nothing arrives within timeout. what describes the wait
// for the failure message: a plain string, or a format and its
// arguments.
//
//	status := testutil.RequireReceive(t, statuses, 5*time.Second, "waiting for Connected")
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, what ...any) T {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case value, ok := <-ch:
		if !ok {
			t.Fatalf("%s: channel closed", describe(what))
		}
		return value
	case <-deadline.C:
		t.Fatalf("%s: nothing received after %v", describe(what), timeout)
	}
	var zero T
	return zero
}

// RequireClosed fails the test unless ch is closed (or delivers a
// value) within timeout.
//
//	testutil.RequireClosed(t, client.Done(), 5*time.Second, "client drained")
func RequireClosed(t TB, ch <-chan struct{}, timeout time.Duration, what ...any) {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case <-ch:
	case <-deadline.C:
		t.Fatalf("%s: channel still open after %v", describe(what), timeout)
	}
}

func describe(what []any) string {
	switch {
	case len(what) == 0:
		return "waiting on channel"
	case len(what) == 1:
		return fmt.Sprint(what[0])
	}
	if format, ok := what[0].(string); ok {
		return fmt.Sprintf(format, what[1:]...)
	}
	return fmt.Sprint(what...)
}
