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
	"log/slog"
	"strings"
	"time"

	"github.com/FL-Penly/rust-terminal/pkg/ttyproto"
)

const (
	defaultSamples     = 50
	defaultProbeText   = "x"
	defaultEchoTimeout = 2 * time.Second
	defaultPacing      = 50 * time.Millisecond
)

// LatencyOptions configure RunLatency. Zero values take the defaults.
type LatencyOptions struct {
	Samples       int           // probe count
	ProbeText     string        // text sent and awaited in the echo
	EchoTimeout   time.Duration // per-probe wait for the echo
	Pacing        time.Duration // fixed delay between probes
	PromptTimeout time.Duration // wait for the shell banner
	Logger        *slog.Logger
}

func (o *LatencyOptions) setDefaults() {
	if o.Samples <= 0 {
		o.Samples = defaultSamples
	}
	if o.ProbeText == "" {
		o.ProbeText = defaultProbeText
	}
	if o.EchoTimeout <= 0 {
		o.EchoTimeout = defaultEchoTimeout
	}
	if o.Pacing <= 0 {
		o.Pacing = defaultPacing
	}
	if o.PromptTimeout <= 0 {
		o.PromptTimeout = defaultPromptTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// RunLatency measures keystroke round-trip time: it sends the probe text
// as terminal input and times how long the server takes to echo it back.
// A probe whose echo does not arrive within EchoTimeout is dropped
// silently; the run succeeds as long as at least one probe came back.
func RunLatency(ctx context.Context, dial DialFunc, opts LatencyOptions) (*LatencyResult, error) {
	opts.setDefaults()
	logger := opts.Logger

	sess, err := dial(ctx)
	if err != nil {
		logger.Error("connect failed", slog.String("error", err.Error()))
		return nil, &RunError{Reason: "no samples collected"}
	}
	defer sess.Close()

	awaitPrompt(ctx, sess, opts.PromptTimeout, logger)

	samples := make([]float64, 0, opts.Samples)
probes:
	for i := 0; i < opts.Samples; i++ {
		start := time.Now()
		if err := sess.WriteFrame(ttyproto.TagData, []byte(opts.ProbeText)); err != nil {
			logger.Warn("probe send failed, ending run",
				slog.Int("probe", i), slog.String("error", err.Error()))
			break
		}
		end, err := awaitEcho(ctx, sess, opts.ProbeText, opts.EchoTimeout)
		switch {
		case err == nil:
			samples = append(samples, end.Sub(start).Seconds()*1000)
		case errors.Is(err, context.DeadlineExceeded):
			logger.Debug("echo missed", slog.Int("probe", i))
		default:
			logger.Warn("session closed mid-run",
				slog.Int("probe", i), slog.String("error", err.Error()))
			break probes
		}
		sleepContext(ctx, opts.Pacing)
	}

	// Ctrl-C so nothing keeps running server-side after we leave.
	if err := sess.WriteFrame(ttyproto.TagData, []byte{ttyproto.Interrupt}); err != nil {
		logger.Debug("interrupt send failed", slog.String("error", err.Error()))
	}

	stats, ok := reduceLatencies(samples)
	if !ok {
		return nil, &RunError{Reason: "no samples collected"}
	}
	logger.Info("latency run complete",
		slog.Int("samples", stats.samples), slog.Float64("p50_ms", stats.p50))
	return &LatencyResult{
		Test:    "latency",
		Samples: stats.samples,
		P50Ms:   round2(stats.p50),
		P95Ms:   round2(stats.p95),
		P99Ms:   round2(stats.p99),
		MinMs:   round2(stats.min),
		MaxMs:   round2(stats.max),
	}, nil
}

// awaitEcho consumes inbound frames until a data frame contains the probe
// text. It returns the arrival time of that frame, context.DeadlineExceeded
// when the echo window expired, or the transport error when the session is
// gone.
func awaitEcho(ctx context.Context, sess Session, probe string, timeout time.Duration) (time.Time, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		frame, err := sess.ReadFrame(waitCtx)
		if err != nil {
			return time.Time{}, err
		}
		if frame.IsData() && strings.Contains(frame.Text(), probe) {
			return time.Now(), nil
		}
	}
}
