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

package bench

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/FL-Penly/rust-terminal/pkg/ttyproto"
)

// fakeSession is a scripted Session double. Inbound frames flow through
// the in channel; onWrite observes outbound frames and may feed responses
// back. endInput closes the inbound side the way a dropped connection
// would.
type fakeSession struct {
	in      chan ttyproto.Frame
	onWrite func(tag byte, payload []byte) error

	mu     sync.Mutex
	writes []ttyproto.Frame
	closed bool
}

var errFakeClosed = errors.New("connection closed")

func newFakeSession(buffer int) *fakeSession {
	return &fakeSession{in: make(chan ttyproto.Frame, buffer)}
}

func (s *fakeSession) feed(tag byte, payload string) {
	s.in <- ttyproto.Frame{Tag: tag, Payload: []byte(payload)}
}

func (s *fakeSession) endInput() { close(s.in) }

func (s *fakeSession) ReadFrame(ctx context.Context) (ttyproto.Frame, error) {
	select {
	case frame, ok := <-s.in:
		if !ok {
			return ttyproto.Frame{}, errFakeClosed
		}
		return frame, nil
	case <-ctx.Done():
		return ttyproto.Frame{}, ctx.Err()
	}
}

func (s *fakeSession) WriteFrame(tag byte, payload []byte) error {
	s.mu.Lock()
	s.writes = append(s.writes, ttyproto.Frame{
		Tag:     tag,
		Payload: append([]byte(nil), payload...),
	})
	s.mu.Unlock()
	if s.onWrite != nil {
		return s.onWrite(tag, payload)
	}
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) wroteFrames() []ttyproto.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ttyproto.Frame(nil), s.writes...)
}

func (s *fakeSession) wasClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// dialTo hands drivers the scripted session.
func dialTo(s *fakeSession) DialFunc {
	return func(ctx context.Context) (Session, error) { return s, nil }
}

// dialError simulates a server that cannot be reached.
func dialError(err error) DialFunc {
	return func(ctx context.Context) (Session, error) { return nil, err }
}

// feedBytes streams total data bytes into the session in fixed chunks and
// returns how many bytes it fed.
func feedBytes(s *fakeSession, total, chunk int) int {
	fed := 0
	for fed < total {
		n := chunk
		if total-fed < n {
			n = total - fed
		}
		s.feed(ttyproto.TagData, strings.Repeat("y", n))
		fed += n
	}
	return fed
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
