// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// The mould client takes a Clock for request deadlines and latency
// measurement instead of calling time.Now or time.AfterFunc directly.
// In production, Real() provides the standard library behavior. In
// tests, Fake() provides a deterministic clock that advances only when
// Advance is called.
//
// # FakeClock Synchronization
//
// When a goroutine calls AfterFunc on a FakeClock, it registers a
// pending timer. Use WaitForTimers to block until a specific number of
// timers are registered before calling Advance. This eliminates the
// race between timer registration and time advancement.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	client := mould.New(mould.Config{Clock: c, RequestTimeout: time.Second})
//	// ... issue a request ...
//	c.WaitForTimers(1)
//	c.Advance(time.Second) // the request times out deterministically
package clock
