/*
SPDX-FileCopyrightText: Copyright (c) 2026 NVIDIA CORPORATION & AFFILIATES. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

// Package ttyclient opens and drives a live WebSocket session against the
// terminal server. Dial performs the connection handshake: it negotiates
// the "tty" sub-protocol and sends the raw JSON init message before any
// tagged traffic. After that a Session exposes tagged frame I/O with
// context-bounded reads.
package ttyclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/conduitio/bwlimit"
	"github.com/gorilla/websocket"

	"github.com/FL-Penly/rust-terminal/pkg/ttyproto"
)

// Subprotocol is the WebSocket sub-protocol the server expects.
const Subprotocol = "tty"

// frameBuffer is the reader goroutine's channel capacity. Frames that
// arrive while no read is in flight queue here in arrival order.
const frameBuffer = 256

// ErrClosed is returned by ReadFrame once the session is down and every
// buffered frame has been delivered.
var ErrClosed = errors.New("ttyclient: session closed")

// Config holds everything Dial needs to open a session.
type Config struct {
	URL              string        // ws://host:port/ws
	AuthToken        string        // sent in the init message, empty allowed
	Columns          int           // initial terminal geometry
	Rows             int
	HandshakeTimeout time.Duration // cap on the HTTP upgrade
	MaxMessageSize   int64         // inbound message cap in bytes, 0 for no cap
	ReadLimit        int           // inbound bytes/sec on the TCP conn, 0 disables
	WriteLimit       int           // outbound bytes/sec on the TCP conn, 0 disables
	Logger           *slog.Logger
}

// Session is one live connection. A single reader goroutine owns the
// inbound side of the connection and feeds decoded frames to ReadFrame;
// writes are serialized internally, so all methods are safe for concurrent
// use.
type Session struct {
	conn   *websocket.Conn
	logger *slog.Logger

	frames  chan ttyproto.Frame
	readErr error // set before frames is closed, read after

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the terminal server, sends the init message, and
// starts the session's reader. The context bounds the whole connection
// attempt.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{
		Subprotocols:     []string{Subprotocol},
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
	if cfg.ReadLimit > 0 || cfg.WriteLimit > 0 {
		// Shape the underlying TCP connection rather than individual
		// messages, so the cap covers frame overhead too.
		limited := bwlimit.NewDialer(&net.Dialer{},
			bwlimit.Byte(cfg.WriteLimit), bwlimit.Byte(cfg.ReadLimit))
		dialer.NetDialContext = limited.DialContext
		logger.Debug("bandwidth limits active",
			slog.Int("read_bytes_per_sec", cfg.ReadLimit),
			slog.Int("write_bytes_per_sec", cfg.WriteLimit))
	}

	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	if cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	// The init message is the one untagged frame of the protocol and must
	// be the first thing on the wire.
	init, err := json.Marshal(ttyproto.Handshake{
		AuthToken: cfg.AuthToken,
		Columns:   cfg.Columns,
		Rows:      cfg.Rows,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("encode init message: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, init); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send init message: %w", err)
	}

	s := &Session{
		conn:   conn,
		logger: logger,
		frames: make(chan ttyproto.Frame, frameBuffer),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// readLoop pumps inbound messages into the frame channel. It is the only
// reader of the connection; read errors are sticky in the transport, so
// the first one ends the loop for good.
func (s *Session) readLoop() {
	defer close(s.frames)
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr = err
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		frame, ok := ttyproto.Decode(data)
		if !ok {
			// Too short to carry a tag and payload.
			continue
		}
		select {
		case s.frames <- frame:
		case <-s.done:
			return
		}
	}
}

// ReadFrame returns the next inbound frame. The context bounds this wait
// only: expiry abandons the wait and leaves the connection and any queued
// frames intact for the next call. Reads are bounded this way instead of
// with deadlines on the connection because a deadline expiry would poison
// the transport.
//
// Once the connection is down and the queue is drained, ReadFrame returns
// the transport error that ended the reader, or ErrClosed when the reader
// was released without recording one.
func (s *Session) ReadFrame(ctx context.Context) (ttyproto.Frame, error) {
	select {
	case frame, ok := <-s.frames:
		if !ok {
			if s.readErr != nil {
				return ttyproto.Frame{}, s.readErr
			}
			return ttyproto.Frame{}, ErrClosed
		}
		return frame, nil
	case <-ctx.Done():
		return ttyproto.Frame{}, ctx.Err()
	}
}

// WriteFrame sends one tagged frame. The transport allows a single writer
// at a time, so writes are serialized here.
func (s *Session) WriteFrame(tag byte, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, ttyproto.Encode(tag, payload))
}

// SendInput sends text as terminal input.
func (s *Session) SendInput(text string) error {
	return s.WriteFrame(ttyproto.TagData, []byte(text))
}

// SendInterrupt sends Ctrl-C on the terminal data channel.
func (s *Session) SendInterrupt() error {
	return s.WriteFrame(ttyproto.TagData, []byte{ttyproto.Interrupt})
}

// SendResize asks the server to resize the pseudo-terminal.
func (s *Session) SendResize(columns, rows int) error {
	body, err := json.Marshal(ttyproto.Resize{Columns: columns, Rows: rows})
	if err != nil {
		return fmt.Errorf("encode resize: %w", err)
	}
	return s.WriteFrame(ttyproto.TagResize, body)
}

// Close tears the connection down and releases the reader. Idempotent;
// later calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
