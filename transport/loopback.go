// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/mould/lib/codec"
	"github.com/bureau-foundation/mould/lib/mould"
)

var (
	_ mould.Transport = (*Loopback)(nil)
	_ mould.Socket    = (*loopbackSocket)(nil)
)

// peerBuffer bounds how many frames a Peer holds before Send fails.
const peerBuffer = 64

// Loopback is an in-process mould.Transport. Each Open creates a Peer,
// available from Accept, that stands in for the server.
type Loopback struct {
	// ManualOpen leaves the socket unopened after Open. The test calls
	// Peer.Open to send EventOpened when it chooses.
	ManualOpen bool

	// OpenError, if set, makes Open fail with it.
	OpenError error

	peers chan *Peer
	once  sync.Once
}

// NewLoopback returns a Loopback that opens sockets immediately.
func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) init() {
	l.once.Do(func() { l.peers = make(chan *Peer, 16) })
}

// Open creates a Peer for url and returns the client's end of it.
func (l *Loopback) Open(ctx context.Context, url string, events chan<- mould.Event) (mould.Socket, error) {
	l.init()
	if l.OpenError != nil {
		return nil, l.OpenError
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	peer := &Peer{
		url:      url,
		events:   events,
		requests: make(chan mould.Frame, peerBuffer),
	}
	if !l.ManualOpen {
		peer.Open()
	}

	select {
	case l.peers <- peer:
	case <-ctx.Done():
		peer.Close()
		return nil, ctx.Err()
	}
	return &loopbackSocket{peer: peer}, nil
}

// Accept returns the Peer created by the next Open.
func (l *Loopback) Accept(ctx context.Context) (*Peer, error) {
	l.init()
	select {
	case peer := <-l.peers:
		return peer, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peer is the server side of a loopback socket.
type Peer struct {
	url      string
	events   chan<- mould.Event
	requests chan mould.Frame

	mu        sync.Mutex
	opened    bool
	closed    bool
	sendError error
}

// URL returns the URL the client opened.
func (p *Peer) URL() string { return p.url }

// Requests delivers every frame the client sent, in order.
func (p *Peer) Requests() <-chan mould.Frame { return p.requests }

// Open marks the socket open and sends EventOpened. Only meaningful
// with Loopback.ManualOpen.
func (p *Peer) Open() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opened || p.closed {
		return
	}
	p.opened = true
	p.events <- mould.Event{Kind: mould.EventOpened}
}

// FailSends makes every subsequent client Send return err. Nil
// restores normal sends.
func (p *Peer) FailSends(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendError = err
}

// Deliver sends frame to the client as a received message.
func (p *Peer) Deliver(frame mould.Frame) {
	p.emit(mould.Event{Kind: mould.EventMessage, Frame: frame})
}

// DeliverText sends text to the client as a text frame.
func (p *Peer) DeliverText(text string) {
	p.Deliver(mould.TextFrame(text))
}

// ReplyItem answers with an item envelope carrying value, encoded as
// JSON in a text frame, or as CBOR in a binary frame when binary is
// set.
func (p *Peer) ReplyItem(value any, binary bool) error {
	return p.reply("item", value, binary)
}

// ReplyFail answers with a fail envelope carrying reason.
func (p *Peer) ReplyFail(reason string, binary bool) error {
	return p.reply("fail", reason, binary)
}

func (p *Peer) reply(event string, data any, binary bool) error {
	envelope := map[string]any{"event": event, "data": data}
	if binary {
		encoded, err := codec.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("encoding %s reply: %w", event, err)
		}
		p.Deliver(mould.Frame{Binary: true, Data: encoded})
		return nil
	}
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding %s reply: %w", event, err)
	}
	p.Deliver(mould.Frame{Data: encoded})
	return nil
}

// Error sends a transport error event with reason.
func (p *Peer) Error(reason string) {
	p.emit(mould.Event{Kind: mould.EventError, Reason: reason})
}

// Close closes the socket from the server side: EventClosed is sent
// and the event channel is closed. Idempotent.
func (p *Peer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.events <- mould.Event{Kind: mould.EventClosed, Reason: "closed by peer"}
	close(p.events)
}

// Closed reports whether the socket has been closed by either side.
func (p *Peer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Peer) emit(event mould.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.events <- event
}

// loopbackSocket is the client's end of a Peer.
type loopbackSocket struct {
	peer *Peer
}

func (s *loopbackSocket) Send(frame mould.Frame) error {
	p := s.peer
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.opened {
		return errors.New("socket is not open")
	}
	if p.sendError != nil {
		return p.sendError
	}
	select {
	case p.requests <- frame:
		return nil
	default:
		return errors.New("loopback peer is not reading")
	}
}

func (s *loopbackSocket) Close() error {
	s.peer.Close()
	return nil
}
