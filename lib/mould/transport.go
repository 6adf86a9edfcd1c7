// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

import "context"

// EventKind identifies a transport event.
type EventKind int

const (
	// EventOpened: the socket is open and can send.
	EventOpened EventKind = iota
	// EventClosed: the socket is closed. Always the last event.
	EventClosed
	// EventMessage: a frame arrived.
	EventMessage
	// EventError: the transport failed; Reason describes why.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventClosed:
		return "closed"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one notification from a transport to the client.
type Event struct {
	Kind   EventKind
	Frame  Frame  // EventMessage only
	Reason string // EventError, and optionally EventClosed
}

// Transport opens sockets. Implementations live in the transport
// package; tests use its in-memory Loopback.
//
// The events channel belongs to the socket returned by Open. The
// transport sends EventOpened once the socket can send, any number of
// EventMessage and EventError events, then exactly one EventClosed,
// and then closes the channel. The client drains the channel until it
// is closed, so sends on it do not block indefinitely. Open may send
// EventOpened before it returns; the client buffers at least one
// event.
type Transport interface {
	Open(ctx context.Context, url string, events chan<- Event) (Socket, error)
}

// Socket is an open connection as seen by the client.
type Socket interface {
	// Send transmits one frame. It fails synchronously if the socket
	// is not open or the write is refused; the error text becomes the
	// failure reason delivered to the request's callback.
	Send(frame Frame) error

	// Close closes the socket. The transport then sends EventClosed.
	Close() error
}
