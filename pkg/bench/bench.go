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

// Package bench contains the benchmark drivers for the terminal server:
// round-trip keystroke latency, sustained output throughput, and server RSS
// growth under large-output load.
//
// Each driver runs one session against a fresh connection and reduces what
// it collected into a single result record. Failures never escape as
// process errors: a run that cannot produce statistics returns a RunError
// whose record is printed in place of the success shape. There are no
// retries anywhere; an expired wait either drops one sample or ends the
// collection phase, and a dropped connection finalizes with whatever was
// collected up to that point.
package bench

import (
	"context"
	"log/slog"
	"time"

	"github.com/FL-Penly/rust-terminal/pkg/ttyproto"
)

// defaultPromptTimeout bounds the wait for the shell banner after the
// handshake.
const defaultPromptTimeout = 10 * time.Second

// Session is the protocol connection a driver runs against. The live
// implementation is ttyclient.Session; tests substitute a scripted double.
type Session interface {
	// ReadFrame returns the next inbound frame. The context bounds this
	// wait only: expiry abandons the wait without disturbing the
	// connection, and a frame arriving afterwards is delivered to the
	// next call.
	ReadFrame(ctx context.Context) (ttyproto.Frame, error)

	// WriteFrame sends one tagged frame.
	WriteFrame(tag byte, payload []byte) error

	// Close tears the connection down. Idempotent.
	Close() error
}

// DialFunc opens a fresh session, handshake included. Drivers call it
// exactly once per run; a failed dial is terminal for the run.
type DialFunc func(ctx context.Context) (Session, error)

// awaitPrompt consumes inbound data frames until one contains a shell
// prompt marker or the timeout expires. Expiry is not an error: the remote
// shell may use a prompt this heuristic misses, so the driver proceeds and
// lets its own deadlines surface a real failure. Matching is the permissive
// readiness mode; the banner is unstructured.
func awaitPrompt(ctx context.Context, sess Session, timeout time.Duration, logger *slog.Logger) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		frame, err := sess.ReadFrame(waitCtx)
		if err != nil {
			logger.Warn("proceeding without shell prompt",
				slog.String("reason", err.Error()))
			return
		}
		if frame.IsData() && ttyproto.ContainsPrompt(frame.Text()) {
			return
		}
	}
}

// sleepContext pauses for d or until ctx is cancelled, whichever comes
// first.
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
