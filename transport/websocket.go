// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/bureau-foundation/mould/lib/mould"
	"github.com/bureau-foundation/mould/lib/netutil"
)

// Compile-time interface checks.
var (
	_ mould.Transport = (*WebSocket)(nil)
	_ mould.Socket    = (*webSocketConn)(nil)
)

// defaultWriteTimeout bounds a single Send. Send runs on the client's
// loop goroutine, so a stalled peer must not hold it indefinitely.
const defaultWriteTimeout = 10 * time.Second

// defaultReadLimit is the maximum size of one received frame.
const defaultReadLimit = 1024 * 1024

// WebSocket opens mould sockets over WebSocket connections.
type WebSocket struct {
	// DialOptions are passed to websocket.Dial (HTTP client, headers,
	// subprotocols, compression). May be nil.
	DialOptions *websocket.DialOptions

	// WriteTimeout bounds each Send. Zero selects 10 seconds.
	WriteTimeout time.Duration

	// ReadLimit is the largest frame accepted from the server. Zero
	// selects 1 MiB.
	ReadLimit int64

	// Logger receives read-pump diagnostics. May be nil.
	Logger *slog.Logger
}

// Open dials url and starts the read pump. EventOpened is sent before
// Open returns.
func (w *WebSocket) Open(ctx context.Context, url string, events chan<- mould.Event) (mould.Socket, error) {
	conn, _, err := websocket.Dial(ctx, url, w.DialOptions)
	if err != nil {
		return nil, fmt.Errorf("dialing websocket: %w", err)
	}

	readLimit := w.ReadLimit
	if readLimit == 0 {
		readLimit = defaultReadLimit
	}
	conn.SetReadLimit(readLimit)

	writeTimeout := w.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = defaultWriteTimeout
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	socket := &webSocketConn{
		conn:         conn,
		events:       events,
		writeTimeout: writeTimeout,
		logger:       logger.With("url", url),
		open:         true,
	}
	events <- mould.Event{Kind: mould.EventOpened}
	go socket.readPump()
	return socket, nil
}

// webSocketConn adapts a websocket.Conn to mould.Socket.
type webSocketConn struct {
	conn         *websocket.Conn
	events       chan<- mould.Event
	writeTimeout time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	open    bool
	closing bool
}

// Send writes frame as a text or binary WebSocket message.
func (s *webSocketConn) Send(frame mould.Frame) error {
	s.mu.Lock()
	open := s.open && !s.closing
	s.mu.Unlock()
	if !open {
		return errors.New("socket is not open")
	}

	messageType := websocket.MessageText
	if frame.Binary {
		messageType = websocket.MessageBinary
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.conn.Write(ctx, messageType, frame.Data); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close starts the closing handshake. The read pump reports
// EventClosed once the connection is down. Closing twice is a no-op.
func (s *webSocketConn) Close() error {
	s.mu.Lock()
	if s.closing || !s.open {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	err := s.conn.Close(websocket.StatusNormalClosure, "")
	if err != nil && websocket.CloseStatus(err) == -1 && !netutil.IsExpectedCloseError(err) {
		return fmt.Errorf("closing websocket: %w", err)
	}
	return nil
}

// readPump delivers received frames until the connection fails or
// closes, then sends EventClosed and closes the events channel.
func (s *webSocketConn) readPump() {
	defer close(s.events)

	for {
		messageType, data, err := s.conn.Read(context.Background())
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.open = false
			s.mu.Unlock()

			status := websocket.CloseStatus(err)
			reason := err.Error()
			if !closing && status == -1 {
				// Not a close handshake: the connection failed.
				if netutil.IsExpectedCloseError(err) {
					s.logger.Debug("websocket dropped", "error", err)
				} else {
					s.logger.Warn("websocket read failed", "error", err)
				}
				s.events <- mould.Event{Kind: mould.EventError, Reason: reason}
			}
			s.events <- mould.Event{Kind: mould.EventClosed, Reason: reason}
			return
		}

		s.events <- mould.Event{
			Kind: mould.EventMessage,
			Frame: mould.Frame{
				Binary: messageType == websocket.MessageBinary,
				Data:   data,
			},
		}
	}
}
