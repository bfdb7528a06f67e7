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
	"time"

	"github.com/FL-Penly/rust-terminal/pkg/ttyproto"
)

const (
	defaultThroughputCommand = "yes | head -c 3000000\r"
	defaultByteFloor         = 50000
	defaultIdleWindow        = 3 * time.Second
	defaultIdleLimit         = 2
	defaultCollectDeadline   = 60 * time.Second
)

// ThroughputOptions configure RunThroughput. Zero values take the
// defaults.
type ThroughputOptions struct {
	Command       string        // shell command that produces the output burst
	ByteFloor     int64         // bytes below which no completion signal counts
	IdleWindow    time.Duration // per-frame wait before one idle strike
	IdleLimit     int           // idle strikes that end the collection
	Deadline      time.Duration // overall cap on the collection phase
	PromptTimeout time.Duration // wait for the shell banner
	Logger        *slog.Logger
}

func (o *ThroughputOptions) setDefaults() {
	if o.Command == "" {
		o.Command = defaultThroughputCommand
	}
	if o.ByteFloor <= 0 {
		o.ByteFloor = defaultByteFloor
	}
	if o.IdleWindow <= 0 {
		o.IdleWindow = defaultIdleWindow
	}
	if o.IdleLimit <= 0 {
		o.IdleLimit = defaultIdleLimit
	}
	if o.Deadline <= 0 {
		o.Deadline = defaultCollectDeadline
	}
	if o.PromptTimeout <= 0 {
		o.PromptTimeout = defaultPromptTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// RunThroughput measures sustained output rate: it runs a command that
// floods the terminal with a multi-megabyte burst and counts the data
// payload bytes the server streams back.
//
// Collection ends on the first of three signals: a received frame whose
// last non-empty line ends in a prompt marker, IdleLimit consecutive idle
// windows with no traffic, or the overall deadline. The first two require
// the byte floor to have been passed, so early prompts and idle gaps
// during command startup never count as completion. The deadline does not,
// but a run that never passed the floor reports the failure record with
// its partial byte count.
func RunThroughput(ctx context.Context, dial DialFunc, opts ThroughputOptions) (*ThroughputResult, error) {
	opts.setDefaults()
	logger := opts.Logger

	var totalBytes int64

	sess, err := dial(ctx)
	if err != nil {
		logger.Error("connect failed", slog.String("error", err.Error()))
		return nil, throughputError(totalBytes)
	}
	defer sess.Close()

	awaitPrompt(ctx, sess, opts.PromptTimeout, logger)

	start := time.Now()
	if err := sess.WriteFrame(ttyproto.TagData, []byte(opts.Command)); err != nil {
		logger.Error("command send failed", slog.String("error", err.Error()))
		return nil, throughputError(totalBytes)
	}

	collectCtx, cancel := context.WithTimeout(ctx, opts.Deadline)
	defer cancel()

	var end time.Time
	idleCount := 0
collect:
	for {
		waitCtx, cancelWait := context.WithTimeout(collectCtx, opts.IdleWindow)
		frame, err := sess.ReadFrame(waitCtx)
		cancelWait()
		if err != nil {
			if collectCtx.Err() != nil {
				logger.Warn("collection deadline reached",
					slog.Int64("total_bytes", totalBytes))
				end = time.Now()
				break collect
			}
			if errors.Is(err, context.DeadlineExceeded) {
				idleCount++
				if idleCount >= opts.IdleLimit && totalBytes > opts.ByteFloor {
					end = time.Now()
					break collect
				}
				continue
			}
			logger.Warn("session closed mid-run",
				slog.Int64("total_bytes", totalBytes), slog.String("error", err.Error()))
			end = time.Now()
			break collect
		}
		idleCount = 0
		if !frame.IsData() {
			continue
		}
		totalBytes += int64(len(frame.Payload))
		if totalBytes > opts.ByteFloor && ttyproto.EndsWithPrompt(frame.Text()) {
			end = time.Now()
			break collect
		}
	}

	if start.IsZero() || end.IsZero() || totalBytes <= opts.ByteFloor {
		logger.Warn("throughput run incomplete", slog.Int64("total_bytes", totalBytes))
		return nil, throughputError(totalBytes)
	}

	elapsed := end.Sub(start).Seconds()
	kbs := (float64(totalBytes) / 1024) / elapsed
	logger.Info("throughput run complete",
		slog.Int64("total_bytes", totalBytes), slog.Float64("kb_per_s", kbs))
	return &ThroughputResult{
		Test:           "throughput",
		TotalBytes:     totalBytes,
		ElapsedSeconds: round3(elapsed),
		ThroughputKBs:  round2(kbs),
	}, nil
}

// throughputError builds the failure record, preserving the partial byte
// count.
func throughputError(totalBytes int64) *RunError {
	return &RunError{Reason: "timeout or incomplete", TotalBytes: &totalBytes}
}
