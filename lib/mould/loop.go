// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

import "sync"

// loop runs posted functions one at a time, in order, on a single
// goroutine. It is the client's "next tick": post never runs fn
// inline and never blocks, so code running on the loop can post
// follow-up work without growing the stack.
type loop struct {
	mu       sync.Mutex
	queue    []func()
	stopping bool

	wake chan struct{}
	done chan struct{}
}

func newLoop() *loop {
	l := &loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// post appends fn to the queue. Returns false if the loop is stopping,
// in which case fn is dropped.
func (l *loop) post(fn func()) bool {
	l.mu.Lock()
	if l.stopping {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// stop refuses further posts. Work already queued still runs; the loop
// goroutine exits once the queue is empty and done is closed.
func (l *loop) stop() {
	l.mu.Lock()
	l.stopping = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		stopping := l.stopping
		l.mu.Unlock()

		if len(batch) == 0 {
			if stopping {
				return
			}
			<-l.wake
			continue
		}
		for _, fn := range batch {
			fn()
		}
	}
}
