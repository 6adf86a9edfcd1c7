// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

// Status is the connection state reported to the callback passed to
// Connect.
type Status int

const (
	// Disconnected is reported once when the transport closes.
	Disconnected Status = iota

	// Connected is reported once when the transport opens.
	Connected
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}
