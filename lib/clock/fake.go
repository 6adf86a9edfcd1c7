// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"container/heap"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only when Advance is called.
// Timers fire synchronously inside Advance, earliest deadline first;
// timers with equal deadlines fire in the order they were scheduled.
// A callback may schedule or stop timers but must not call Advance.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  timerHeap
	nextSeq uint64
	added   *sync.Cond
}

// Fake returns a FakeClock set to start.
func Fake(start time.Time) *FakeClock {
	clock := &FakeClock{now: start}
	clock.added = sync.NewCond(&clock.mu)
	return clock
}

// fakeTimer is one scheduled callback. index is its position in the
// heap, or -1 once it has fired or been stopped.
type fakeTimer struct {
	deadline time.Time
	seq      uint64
	fn       func()
	index    int
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f for d from the fake now. A non-positive d runs
// f before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stopFunc: func() bool { return false }}
	}

	c.mu.Lock()
	c.nextSeq++
	timer := &fakeTimer{deadline: c.now.Add(d), seq: c.nextSeq, fn: f}
	heap.Push(&c.timers, timer)
	c.added.Broadcast()
	c.mu.Unlock()

	return &Timer{stopFunc: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if timer.index < 0 {
			return false
		}
		heap.Remove(&c.timers, timer.index)
		return true
	}}
}

// Advance moves the clock forward by d, firing every timer whose
// deadline is at or before the new time, including timers scheduled
// by callbacks that fall inside the window.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if len(c.timers) == 0 || c.timers[0].deadline.After(target) {
			c.mu.Unlock()
			return
		}
		timer := heap.Pop(&c.timers).(*fakeTimer)
		c.mu.Unlock()

		timer.fn()
	}
}

// WaitForTimers blocks until at least n timers are pending. Tests use
// it to know that code under test, running on another goroutine, has
// armed its timer before they call Advance.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.timers) < n {
		c.added.Wait()
	}
}

// PendingCount returns the number of timers that have neither fired
// nor been stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// timerHeap orders timers by deadline, then by scheduling order.
type timerHeap []*fakeTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	timer := x.(*fakeTimer)
	timer.index = len(*h)
	*h = append(*h, timer)
}

func (h *timerHeap) Pop() any {
	old := *h
	last := len(old) - 1
	timer := old[last]
	old[last] = nil
	timer.index = -1
	*h = old[:last]
	return timer
}
