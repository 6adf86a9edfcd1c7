// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

// taskSlot is the single-in-flight register. Its occupant's identity
// decides which task a transport event belongs to. All methods must be
// called with Client.mu held.
type taskSlot struct {
	occupant *task
}

// reserve installs t when the slot is empty. An inactive occupant
// counts as empty.
func (s *taskSlot) reserve(t *task) bool {
	if s.occupant != nil && s.occupant.active {
		return false
	}
	s.occupant = t
	return true
}

// holds reports whether t is the current occupant.
func (s *taskSlot) holds(t *task) bool {
	return s.occupant == t
}

// active returns the occupant if it is still active, nil otherwise.
func (s *taskSlot) active() *task {
	if s.occupant == nil || !s.occupant.active {
		return nil
	}
	return s.occupant
}

// clear empties the slot if t is the occupant. Clearing on behalf of a
// task that has been superseded is a no-op.
func (s *taskSlot) clear(t *task) {
	if s.occupant == t {
		s.occupant = nil
	}
}
