// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

import (
	"errors"
	"fmt"
)

// Precondition violations. These are returned directly from Connect,
// Request and Handle.Cancel and never delivered through a result
// callback.
var (
	// ErrNotConnected is returned by Request when Connect has not
	// been called on the client.
	ErrNotConnected = errors.New("mould: request issued before connect")

	// ErrCancelInactive is returned by Handle.Cancel when the task has
	// already completed or been cancelled.
	ErrCancelInactive = errors.New("mould: tried to cancel twice")

	// ErrAlreadyConnected is returned by Connect while a previous
	// connection is still open.
	ErrAlreadyConnected = errors.New("mould: connection already open")

	// ErrClosed is returned by Connect and Request after Close.
	ErrClosed = errors.New("mould: client closed")
)

// Failure reasons produced by the client itself. Remote and transport
// failures carry whatever reason the server or adapter supplied.
const (
	ReasonHasActiveTask    = "Has active task!"
	ReasonTaskCanceled     = "Task already canceled!"
	ReasonConnectionClosed = "connection closed"
	ReasonTimedOut         = "request timed out"
)

// FailureKind classifies why a request did not produce a value.
type FailureKind int

const (
	// FailureRemote: the server answered with a fail envelope.
	FailureRemote FailureKind = iota
	// FailureTransport: the transport reported an error event.
	FailureTransport
	// FailureClosed: the connection closed with the task pending.
	FailureClosed
	// FailureDecode: the response could not be decoded.
	FailureDecode
	// FailureBusy: another task already occupied the slot.
	FailureBusy
	// FailureCanceled: the task was cancelled or superseded before
	// it could be sent.
	FailureCanceled
	// FailureSend: the transport refused the frame synchronously.
	FailureSend
	// FailureTimeout: RequestTimeout elapsed before a response.
	FailureTimeout
)

func (k FailureKind) String() string {
	switch k {
	case FailureRemote:
		return "remote"
	case FailureTransport:
		return "transport"
	case FailureClosed:
		return "closed"
	case FailureDecode:
		return "decode"
	case FailureBusy:
		return "busy"
	case FailureCanceled:
		return "canceled"
	case FailureSend:
		return "send"
	case FailureTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure is the error delivered in a Result when a request fails.
// Error returns the bare reason so callers see the server's or the
// adapter's text verbatim.
type Failure struct {
	Kind   FailureKind
	Reason string
}

func (f *Failure) Error() string {
	return f.Reason
}

func newFailure(kind FailureKind, reason string) *Failure {
	return &Failure{Kind: kind, Reason: reason}
}

// FailureKindOf reports the kind of the Failure wrapped in err, if any.
func FailureKindOf(err error) (FailureKind, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind, true
	}
	return 0, false
}
