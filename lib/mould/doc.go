// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mould is a client for invoking named remote operations
// ("service.action") over a single persistent socket.
//
// A [Client] owns one socket at a time and admits at most one request
// in flight. A second request issued while the first is outstanding is
// rejected with "Has active task!" rather than queued. Results are
// always delivered asynchronously through the callback passed to
// [Request], on the client's loop goroutine, and each callback fires
// exactly once: on success, on a remote failure, on a transport error,
// when the connection closes, or on a request timeout. Cancelling a
// [Handle] releases its callback without invoking it.
//
// # Wire format
//
// Requests are envelopes carrying service, action and a payload:
//
//	{"service": "accounts", "action": "lookup", "payload": {"id": 7}}
//
// Responses are tagged by event:
//
//	{"event": "item", "data": <value>}
//	{"event": "fail", "data": "reason"}
//
// [FormatJSON] sends text frames; [FormatCBOR] sends the same envelope
// shapes CBOR-encoded in binary frames. Responses are decoded by frame
// kind, so a server may answer in either encoding.
//
// # Scheduling
//
// Request reserves the task slot synchronously and returns a [Handle].
// Transmission is posted to the loop and happens on a later turn, so a
// result callback that issues the next request returns before that
// request is sent. Chained request/response cycles never nest on the
// call stack.
//
// # Precondition violations
//
// Calling Request before Connect returns [ErrNotConnected]. Cancelling
// a handle that is no longer active returns [ErrCancelInactive]. These
// are programmer errors, reported as distinct errors rather than
// panics so tests can inspect them.
package mould
