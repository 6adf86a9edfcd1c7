// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

import (
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/mould/lib/testutil"
)

func TestLoopRunsInOrder(t *testing.T) {
	l := newLoop()
	defer l.stop()

	results := make(chan int, 10)
	for i := range 10 {
		l.post(func() { results <- i })
	}
	for want := range 10 {
		got := testutil.RequireReceive(t, results, 5*time.Second, "waiting for posted work")
		if got != want {
			t.Fatalf("ran %d, want %d", got, want)
		}
	}
}

func TestLoopPostNeverRunsInline(t *testing.T) {
	l := newLoop()
	defer l.stop()

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(entry string) {
		mu.Lock()
		order = append(order, entry)
		mu.Unlock()
	}

	done := make(chan struct{})
	l.post(func() {
		l.post(func() {
			record("inner")
			close(done)
		})
		record("outer returned")
	})
	testutil.RequireClosed(t, done, 5*time.Second, "waiting for inner work")

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "outer returned" || order[1] != "inner" {
		t.Fatalf("order = %v, want [outer returned inner]", order)
	}
}

func TestLoopStopDrainsQueuedWork(t *testing.T) {
	l := newLoop()

	gate := make(chan struct{})
	ran := make(chan int, 3)
	l.post(func() { <-gate })
	l.post(func() { ran <- 1 })
	l.post(func() { ran <- 2 })
	l.stop()
	if l.post(func() { ran <- 3 }) {
		t.Fatal("post after stop was accepted")
	}
	close(gate)

	testutil.RequireClosed(t, l.done, 5*time.Second, "waiting for loop to exit")
	close(ran)
	var got []int
	for value := range ran {
		got = append(got, value)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("ran %v, want [1 2]", got)
	}
}
