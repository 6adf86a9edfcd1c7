// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/mould/lib/codec"
	"github.com/bureau-foundation/mould/lib/mould"
	"github.com/bureau-foundation/mould/lib/testutil"
)

func acceptPeer(t *testing.T, loopback *Loopback) (mould.Socket, *Peer, chan mould.Event) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	events := make(chan mould.Event, 16)
	socket, err := loopback.Open(ctx, "loopback://unit", events)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	peer, err := loopback.Accept(ctx)
	if err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	return socket, peer, events
}

func TestLoopbackSendAndReply(t *testing.T) {
	socket, peer, events := acceptPeer(t, NewLoopback())
	if peer.URL() != "loopback://unit" {
		t.Errorf("URL() = %q", peer.URL())
	}
	if event := <-events; event.Kind != mould.EventOpened {
		t.Fatalf("first event = %v, want opened", event.Kind)
	}

	if err := socket.Send(mould.TextFrame("hello")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	frame := testutil.RequireReceive(t, peer.Requests(), testTimeout, "waiting for frame")
	if string(frame.Data) != "hello" {
		t.Errorf("frame = %q", frame.Data)
	}

	if err := peer.ReplyItem(map[string]int{"x": 1}, false); err != nil {
		t.Fatal(err)
	}
	event := <-events
	var envelope map[string]any
	if err := json.Unmarshal(event.Frame.Data, &envelope); err != nil {
		t.Fatalf("reply is not JSON: %v", err)
	}
	if envelope["event"] != "item" {
		t.Errorf("reply = %s", event.Frame.Data)
	}

	if err := peer.ReplyFail("boom", true); err != nil {
		t.Fatal(err)
	}
	event = <-events
	if !event.Frame.Binary {
		t.Fatal("binary reply sent as text")
	}
	var binary struct {
		Event string `json:"event"`
		Data  string `json:"data"`
	}
	if err := codec.Unmarshal(event.Frame.Data, &binary); err != nil {
		t.Fatalf("reply is not CBOR: %v", err)
	}
	if binary.Event != "fail" || binary.Data != "boom" {
		t.Errorf("reply = %+v", binary)
	}
}

func TestLoopbackManualOpen(t *testing.T) {
	loopback := NewLoopback()
	loopback.ManualOpen = true
	socket, peer, events := acceptPeer(t, loopback)

	if err := socket.Send(mould.TextFrame("early")); err == nil {
		t.Fatal("Send() before open succeeded")
	}
	if len(events) != 0 {
		t.Fatal("event sent before Open")
	}
	peer.Open()
	if event := <-events; event.Kind != mould.EventOpened {
		t.Fatalf("event = %v, want opened", event.Kind)
	}
}

func TestLoopbackClose(t *testing.T) {
	socket, peer, events := acceptPeer(t, NewLoopback())
	<-events

	if err := socket.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	peer.Close()
	if !peer.Closed() {
		t.Error("Closed() = false after Close")
	}

	event := <-events
	if event.Kind != mould.EventClosed {
		t.Fatalf("event = %v, want closed", event.Kind)
	}
	if _, ok := <-events; ok {
		t.Error("events channel still open")
	}

	// Injections after close are dropped.
	peer.Error("late")
	peer.DeliverText("late")
	if err := socket.Send(mould.TextFrame("late")); err == nil {
		t.Error("Send() after close succeeded")
	}
}

func TestLoopbackSendFailure(t *testing.T) {
	socket, peer, _ := acceptPeer(t, NewLoopback())
	refused := errors.New("refused")
	peer.FailSends(refused)
	if err := socket.Send(mould.TextFrame("x")); !errors.Is(err, refused) {
		t.Errorf("Send() = %v, want %v", err, refused)
	}
}

func TestLoopbackOpenError(t *testing.T) {
	loopback := NewLoopback()
	loopback.OpenError = errors.New("unreachable")
	if _, err := loopback.Open(context.Background(), "loopback://x", make(chan mould.Event, 1)); !errors.Is(err, loopback.OpenError) {
		t.Errorf("Open() = %v, want %v", err, loopback.OpenError)
	}
}

func TestLoopbackAcceptRespectsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := NewLoopback().Accept(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Accept() = %v, want deadline exceeded", err)
	}
}
