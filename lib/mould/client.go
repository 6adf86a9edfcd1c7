// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mould

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/bureau-foundation/mould/lib/clock"
)

// eventBuffer is the capacity of each connection's event channel. One
// slot is enough for a transport that sends EventOpened from inside
// Open; the rest absorbs bursts while the loop is busy.
const eventBuffer = 64

// Config configures a Client.
type Config struct {
	// Transport opens the socket. Required.
	Transport Transport

	// Format selects the request encoding. Defaults to FormatJSON.
	Format Format

	// RequestTimeout fails a request that has not completed within
	// this duration with ReasonTimedOut. Zero disables timeouts.
	RequestTimeout time.Duration

	// Clock drives request timeouts and latency measurement.
	// Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives diagnostics. Defaults to a logger that discards
	// everything.
	Logger *slog.Logger

	// Metrics records request statistics. Nil disables metrics.
	Metrics *Metrics
}

// Client is the connection manager. It owns at most one socket and at
// most one in-flight request.
//
// Connect, Request, Handle methods and Close may be called from any
// goroutine. Status and result callbacks run on the client's loop
// goroutine, one at a time; they may call Request but must not block
// waiting for another callback.
type Client struct {
	transport Transport
	format    Format
	timeout   time.Duration
	clock     clock.Clock
	logger    *slog.Logger
	metrics   *Metrics
	loop      *loop

	mu         sync.Mutex
	conn       *connection
	connecting bool
	slot       taskSlot
	nextTaskID uint64
	closed     bool
}

// connection is the state of one opened socket. status and notify are
// touched only on the loop goroutine; closed is written there under
// Client.mu and read by Connect.
type connection struct {
	url    string
	socket Socket
	notify func(Status)
	status Status

	// closed is set once EventClosed (or Client.Close) has been
	// handled. Later events for this socket are ignored.
	closed bool
}

// New creates a client. Call Connect before issuing requests.
func New(config Config) *Client {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		transport: config.Transport,
		format:    config.Format,
		timeout:   config.RequestTimeout,
		clock:     config.Clock,
		logger:    config.Logger,
		metrics:   config.Metrics,
		loop:      newLoop(),
	}
}

// Connect opens a socket to url and reports its status transitions to
// notify: Connected when the transport opens, Disconnected when it
// closes. Each is reported at most once per socket. When the socket
// closes with a request in flight, that request fails with
// ReasonConnectionClosed after Disconnected is reported.
//
// ctx bounds only the opening of the socket. A closed connection may be
// replaced by calling Connect again; while one is open Connect returns
// ErrAlreadyConnected.
func (c *Client) Connect(ctx context.Context, url string, notify func(Status)) error {
	if notify == nil {
		notify = func(Status) {}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.connecting || (c.conn != nil && !c.conn.closed) {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.connecting = true
	c.mu.Unlock()

	events := make(chan Event, eventBuffer)
	socket, err := c.transport.Open(ctx, url, events)
	if err != nil {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
		return fmt.Errorf("opening %s: %w", url, err)
	}

	conn := &connection{
		url:    url,
		socket: socket,
		notify: notify,
		status: Disconnected,
	}

	c.mu.Lock()
	c.connecting = false
	if c.closed {
		c.mu.Unlock()
		socket.Close()
		go drain(events)
		return ErrClosed
	}
	c.conn = conn
	c.mu.Unlock()

	c.logger.Debug("socket opening", "url", url)
	go c.pump(conn, events)
	return nil
}

// pump forwards one socket's events to the loop until the transport
// closes the channel.
func (c *Client) pump(conn *connection, events <-chan Event) {
	for event := range events {
		c.loop.post(func() { c.handleEvent(conn, event) })
	}
	// A transport that closes the channel without EventClosed still
	// ends the connection.
	c.loop.post(func() {
		c.handleEvent(conn, Event{Kind: EventClosed, Reason: "event stream ended"})
	})
}

func drain(events <-chan Event) {
	for range events {
	}
}

// handleEvent applies one transport event. Runs on the loop goroutine.
func (c *Client) handleEvent(conn *connection, event Event) {
	if conn.closed {
		if event.Kind != EventClosed {
			c.logger.Debug("ignoring event after close",
				"url", conn.url,
				"event", event.Kind.String(),
			)
		}
		return
	}

	switch event.Kind {
	case EventOpened:
		if conn.status == Connected {
			return
		}
		conn.status = Connected
		c.metrics.setStatus(Connected)
		c.logger.Info("socket connected", "url", conn.url)
		conn.notify(Connected)

	case EventClosed:
		c.closeConnection(conn, event.Reason)

	case EventMessage:
		c.completeOccupant(outcome{frame: event.Frame}, event)

	case EventError:
		c.completeOccupant(outcome{failure: newFailure(FailureTransport, event.Reason)}, event)
	}
}

// closeConnection reports Disconnected and fails the in-flight request.
// Idempotent per connection. Runs on the loop goroutine.
func (c *Client) closeConnection(conn *connection, reason string) {
	c.mu.Lock()
	if conn.closed {
		c.mu.Unlock()
		return
	}
	conn.closed = true
	conn.status = Disconnected
	c.mu.Unlock()

	c.metrics.setStatus(Disconnected)
	c.logger.Info("socket closed", "url", conn.url, "reason", reason)
	notify := conn.notify
	conn.notify = nil
	notify(Disconnected)

	c.mu.Lock()
	var callback func(outcome)
	if occupant := c.slot.occupant; occupant != nil {
		callback = occupant.finish()
		c.slot.clear(occupant)
		if callback != nil {
			c.logger.Debug("failing in-flight request on close", "task", occupant.id)
		}
	}
	c.mu.Unlock()

	if callback != nil {
		callback(outcome{failure: newFailure(FailureClosed, ReasonConnectionClosed)})
	}
}

// completeOccupant resolves a message or error event against the task
// in the slot. Events with no active occupant are dropped: they belong
// to a request that was cancelled, timed out, or never existed.
func (c *Client) completeOccupant(result outcome, event Event) {
	c.mu.Lock()
	occupant := c.slot.active()
	if occupant == nil {
		c.mu.Unlock()
		c.metrics.observeUnmatched()
		c.logger.Debug("dropping event with no active request",
			"event", event.Kind.String(),
			"frame", event.Frame.String(),
			"reason", event.Reason,
		)
		return
	}
	callback := occupant.finish()
	c.slot.clear(occupant)
	sent := occupant.sent
	c.mu.Unlock()

	if sent {
		c.metrics.observeLatency(c.clock.Now().Sub(occupant.started))
	}
	callback(result)
}

// Request issues service.action with input as its payload. handler
// receives the result exactly once, on the loop goroutine, unless the
// returned handle is cancelled first.
//
// If another request is in flight, handler receives a FailureBusy
// result ("Has active task!") and the returned handle is already
// inactive. Request returns ErrNotConnected if Connect has not been
// called, ErrClosed after Close, and an error if input cannot be
// encoded; in those cases handler is never called.
func Request[In, Out any](c *Client, service, action string, input In, handler func(Result[Out])) (*Handle, error) {
	frame, err := EncodeRequest(c.format, service, action, input)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", service, action, err)
	}
	if handler == nil {
		handler = func(Result[Out]) {}
	}
	callback := func(result outcome) {
		var typed Result[Out]
		if result.failure != nil {
			typed = Result[Out]{Err: result.failure}
		} else {
			typed = decodeResult[Out](result.frame)
		}
		c.metrics.observeOutcome(typed.Err)
		handler(typed)
	}
	return c.submit(service, action, frame, callback)
}

// Call issues a request and waits for its result. If ctx is done first
// the request is cancelled and ctx.Err() is returned.
//
// Call must not be used from a status or result callback: those run
// on the loop goroutine, which is the goroutine that would deliver the
// result.
func Call[In, Out any](ctx context.Context, c *Client, service, action string, input In) (Out, error) {
	results := make(chan Result[Out], 1)
	handle, err := Request(c, service, action, input, func(result Result[Out]) {
		results <- result
	})
	if err != nil {
		var zero Out
		return zero, err
	}
	defer handle.Close()

	select {
	case result := <-results:
		return result.Value, result.Err
	case <-ctx.Done():
		var zero Out
		return zero, ctx.Err()
	}
}

// submit reserves the slot for a new task and schedules transmission
// on the next loop turn.
func (c *Client) submit(service, action string, frame Frame, callback func(outcome)) (*Handle, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.conn == nil {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}

	c.nextTaskID++
	t := &task{
		owner:   c,
		id:      c.nextTaskID,
		service: service,
		action:  action,
		frame:   frame,
		started: c.clock.Now(),
	}

	if !c.slot.reserve(t) {
		busy := c.slot.occupant.id
		c.mu.Unlock()
		c.logger.Debug("rejecting request while another is in flight",
			"task", t.id,
			"service", service,
			"action", action,
			"active_task", busy,
		)
		c.loop.post(func() {
			callback(outcome{failure: newFailure(FailureBusy, ReasonHasActiveTask)})
		})
		return &Handle{task: t}, nil
	}

	t.active = true
	t.callback = callback
	if c.timeout > 0 {
		t.timer = c.clock.AfterFunc(c.timeout, func() {
			c.loop.post(func() { c.expire(t) })
		})
	}
	c.mu.Unlock()

	c.logger.Debug("request reserved", "task", t.id, "service", service, "action", action)
	c.loop.post(func() { c.transmit(t) })

	handle := &Handle{task: t}
	runtime.AddCleanup(handle, c.release, t)
	return handle, nil
}

// release cancels a task whose Handle became unreachable while the
// task was still active. Runs on a runtime cleanup goroutine.
func (c *Client) release(t *task) {
	if c.cancel(t) == nil {
		c.logger.Debug("cancelled request whose handle was dropped", "task", t.id)
	}
}

// transmit sends a reserved task's frame. Runs on the loop goroutine,
// one turn after Request returned.
func (c *Client) transmit(t *task) {
	c.mu.Lock()
	if !c.slot.holds(t) || !t.active {
		callback := t.finish()
		c.mu.Unlock()
		c.logger.Debug("skipping send of superseded request", "task", t.id)
		if callback != nil {
			callback(outcome{failure: newFailure(FailureCanceled, ReasonTaskCanceled)})
		}
		return
	}
	socket := c.conn.socket
	t.sent = true
	c.mu.Unlock()

	c.logger.Debug("sending request", "task", t.id, "frame", t.frame.String())
	if err := socket.Send(t.frame); err != nil {
		c.mu.Lock()
		callback := t.finish()
		c.slot.clear(t)
		c.mu.Unlock()
		c.logger.Debug("send failed", "task", t.id, "error", err)
		if callback != nil {
			callback(outcome{failure: newFailure(FailureSend, err.Error())})
		}
	}
}

// expire fails t with ReasonTimedOut if it still occupies the slot.
// Runs on the loop goroutine; a response handled earlier wins.
func (c *Client) expire(t *task) {
	c.mu.Lock()
	if !c.slot.holds(t) {
		c.mu.Unlock()
		return
	}
	callback := t.finish()
	c.slot.clear(t)
	c.mu.Unlock()

	if callback != nil {
		c.logger.Warn("request timed out",
			"task", t.id,
			"service", t.service,
			"action", t.action,
			"timeout", c.timeout,
		)
		callback(outcome{failure: newFailure(FailureTimeout, ReasonTimedOut)})
	}
}

// cancel implements Handle.Cancel.
func (c *Client) cancel(t *task) error {
	c.mu.Lock()
	if t.finish() == nil {
		c.mu.Unlock()
		return ErrCancelInactive
	}
	c.slot.clear(t)
	sent := t.sent
	c.mu.Unlock()

	c.metrics.observeCanceled()
	c.logger.Debug("request cancelled", "task", t.id, "sent", sent)
	return nil
}

// Close closes the socket, fails any in-flight request with
// ReasonConnectionClosed, and stops the loop once queued callbacks
// have run. Further Connect and Request calls return ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.socket.Close()
		c.loop.post(func() { c.closeConnection(conn, "client closed") })
	}
	c.loop.stop()
	return err
}

// Done is closed once the client has been closed and every queued
// callback has run.
func (c *Client) Done() <-chan struct{} {
	return c.loop.done
}
