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
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FL-Penly/rust-terminal/pkg/ttyproto"
)

const (
	defaultMemoryCommand  = "head -c 5000000 /dev/zero | xxd\r"
	defaultByteTarget     = 4000000
	defaultCollectTimeout = 15 * time.Second
	defaultSettle         = time.Second
	defaultSampleInterval = 500 * time.Millisecond

	// sampleBuffer holds every observation of a run; the reduction drains
	// it after the sampler stops. A run at the default interval produces a
	// few dozen samples, so the buffer never fills.
	sampleBuffer = 1024
)

// RSSFunc looks up the resident set size, in kilobytes, of the first
// process whose command line matches the given substring. ok is false when
// no process matched or the lookup failed; the caller skips that sample
// and keeps polling.
type RSSFunc func(substr string) (int64, bool)

// RSSSample is one sampler observation.
type RSSSample struct {
	At time.Time
	MB float64
}

// MemoryOptions configure RunMemory. Zero values take the defaults;
// LookupRSS and ProcessName are required.
type MemoryOptions struct {
	Command        string        // shell command that makes the server buffer output
	ByteTarget     int64         // received bytes after which the load phase ends
	CollectTimeout time.Duration // overall cap on the load phase
	Settle         time.Duration // post-load pause before the sampler stops
	SampleInterval time.Duration // sampler polling period
	PromptTimeout  time.Duration // wait for the shell banner
	ProcessName    string        // substring identifying the server process
	LookupRSS      RSSFunc
	Logger         *slog.Logger
}

func (o *MemoryOptions) setDefaults() {
	if o.Command == "" {
		o.Command = defaultMemoryCommand
	}
	if o.ByteTarget <= 0 {
		o.ByteTarget = defaultByteTarget
	}
	if o.CollectTimeout <= 0 {
		o.CollectTimeout = defaultCollectTimeout
	}
	if o.Settle <= 0 {
		o.Settle = defaultSettle
	}
	if o.SampleInterval <= 0 {
		o.SampleInterval = defaultSampleInterval
	}
	if o.PromptTimeout <= 0 {
		o.PromptTimeout = defaultPromptTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// RunMemory measures server RSS growth under load. A baseline sample is
// taken before the connection is opened, then a sampler polls RSS at a
// fixed interval while the session drives the server through a large
// output burst. The sampler is cancelled once the session phase is over,
// settle pause included, whatever way that phase ended; the reduction then
// reports initial, peak, and final RSS over everything observed.
func RunMemory(ctx context.Context, dial DialFunc, opts MemoryOptions) (*MemoryResult, error) {
	opts.setDefaults()
	logger := opts.Logger

	samplesCh := make(chan RSSSample, sampleBuffer)

	// Baseline before the server sees the connection.
	if kb, ok := opts.LookupRSS(opts.ProcessName); ok {
		samplesCh <- RSSSample{At: time.Now(), MB: float64(kb) / 1024}
	} else {
		logger.Warn("no baseline RSS sample", slog.String("process", opts.ProcessName))
	}

	g, gctx := errgroup.WithContext(ctx)
	sampleCtx, stopSampler := context.WithCancel(gctx)
	defer stopSampler()

	g.Go(func() error {
		defer close(samplesCh)
		samplePump(sampleCtx, samplesCh, opts)
		return nil
	})
	g.Go(func() error {
		// Stops the sampler no matter how the session phase ends.
		defer stopSampler()
		runMemorySession(gctx, dial, opts, logger)
		return nil
	})
	_ = g.Wait()

	var samples []RSSSample
	for s := range samplesCh {
		samples = append(samples, s)
	}
	if len(samples) == 0 {
		return nil, &RunError{Reason: "no RSS samples collected"}
	}

	peak := samples[0].MB
	for _, s := range samples {
		if s.MB > peak {
			peak = s.MB
		}
	}
	logger.Info("memory run complete",
		slog.Int("samples", len(samples)), slog.Float64("peak_rss_mb", peak))
	return &MemoryResult{
		Test:         "memory",
		InitialRSSMb: round1(samples[0].MB),
		PeakRSSMb:    round1(peak),
		FinalRSSMb:   round1(samples[len(samples)-1].MB),
		Samples:      len(samples),
	}, nil
}

// samplePump polls RSS until cancelled: one sample immediately, then one
// per interval. Lookup failures skip the sample and keep polling, so a
// process that disappears mid-run leaves a gap rather than ending the
// sampler.
func samplePump(ctx context.Context, out chan<- RSSSample, opts MemoryOptions) {
	ticker := time.NewTicker(opts.SampleInterval)
	defer ticker.Stop()
	for {
		if kb, ok := opts.LookupRSS(opts.ProcessName); ok {
			select {
			case out <- RSSSample{At: time.Now(), MB: float64(kb) / 1024}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runMemorySession drives the server through the load phase: banner wait,
// burst command, then payload collection until the byte target or the
// timeout, and finally a settle pause so the sampler can observe post-load
// RSS. Transport failures end the phase early; the sampler still gets its
// settle window.
func runMemorySession(ctx context.Context, dial DialFunc, opts MemoryOptions, logger *slog.Logger) {
	sess, err := dial(ctx)
	if err != nil {
		logger.Error("connect failed", slog.String("error", err.Error()))
		return
	}
	defer sess.Close()

	awaitPrompt(ctx, sess, opts.PromptTimeout, logger)

	if err := sess.WriteFrame(ttyproto.TagData, []byte(opts.Command)); err != nil {
		logger.Error("command send failed", slog.String("error", err.Error()))
		return
	}

	collectCtx, cancel := context.WithTimeout(ctx, opts.CollectTimeout)
	defer cancel()
	var received int64
	for received <= opts.ByteTarget {
		frame, err := sess.ReadFrame(collectCtx)
		if err != nil {
			logger.Debug("load phase ended",
				slog.Int64("received_bytes", received), slog.String("reason", err.Error()))
			break
		}
		if frame.IsData() {
			received += int64(len(frame.Payload))
		}
	}

	sleepContext(ctx, opts.Settle)
}
