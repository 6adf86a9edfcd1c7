// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport provides implementations of [mould.Transport].
//
// [WebSocket] is the production transport: it dials a ws:// or wss://
// URL with github.com/coder/websocket, delivers each received frame as
// an [mould.EventMessage], and reports read failures as
// [mould.EventError] followed by [mould.EventClosed]. Text frames carry
// JSON envelopes and binary frames carry CBOR envelopes.
//
// [Loopback] is an in-process transport for tests and examples. Each
// Open creates a [Peer] that plays the server: it receives the frames
// the client sends and injects responses, transport errors and
// closes on demand.
package transport
