// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for mould packages.
//
// [RequireReceive] and [RequireClosed] bound every channel wait in a
// test with a timeout, so a hung client fails the test instead of the
// whole run. Results from a mould
// client arrive on its loop goroutine, so tests hand them to the test
// goroutine over a channel and read them with RequireReceive.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as loopback URLs that tell the peers of
// successive connections apart.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no mould-internal dependencies.
package testutil
