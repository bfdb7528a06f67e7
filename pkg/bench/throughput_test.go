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
	"strings"
	"testing"
	"time"

	"github.com/FL-Penly/rust-terminal/pkg/ttyproto"
)

func TestRunThroughputPromptCompletion(t *testing.T) {
	const completion = "y\ny\nuser@host:~$ "
	sess := newFakeSession(128)
	sess.feed(ttyproto.TagData, "user@host:~$ ")
	var fed int
	sess.onWrite = func(tag byte, payload []byte) error {
		if strings.Contains(string(payload), "yes | head") {
			fed = feedBytes(sess, 60000, 1000)
			sess.feed(ttyproto.TagData, completion)
		}
		return nil
	}

	res, err := RunThroughput(context.Background(), dialTo(sess), ThroughputOptions{
		IdleWindow:    100 * time.Millisecond,
		Deadline:      5 * time.Second,
		PromptTimeout: 200 * time.Millisecond,
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("RunThroughput failed: %v", err)
	}
	if res.Test != "throughput" {
		t.Errorf("test = %q, want %q", res.Test, "throughput")
	}
	want := int64(fed + len(completion))
	if res.TotalBytes != want {
		t.Errorf("total bytes = %d, want %d", res.TotalBytes, want)
	}
	if res.ThroughputKBs <= 0 {
		t.Errorf("throughput = %v KB/s, want > 0", res.ThroughputKBs)
	}
	if !sess.wasClosed() {
		t.Error("session left open after the run")
	}
}

func TestRunThroughputBelowFloorNeverFinalizes(t *testing.T) {
	// 30k bytes and a clean trailing prompt: under the byte floor neither
	// the prompt nor idle windows may end the run, so it holds out until
	// the deadline and reports the partial count.
	sess := newFakeSession(64)
	sess.feed(ttyproto.TagData, "user@host:~$ ")
	var fed int
	sess.onWrite = func(tag byte, payload []byte) error {
		if strings.Contains(string(payload), "yes | head") {
			fed = feedBytes(sess, 30000, 1000)
			sess.feed(ttyproto.TagData, "user@host:~$ ")
		}
		return nil
	}

	start := time.Now()
	res, err := RunThroughput(context.Background(), dialTo(sess), ThroughputOptions{
		IdleWindow:    50 * time.Millisecond,
		Deadline:      400 * time.Millisecond,
		PromptTimeout: 100 * time.Millisecond,
		Logger:        quietLogger(),
	})
	if res != nil {
		t.Fatalf("result = %+v, want none below the byte floor", res)
	}
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("err = %v, want a RunError", err)
	}
	if runErr.Reason != "timeout or incomplete" {
		t.Errorf("reason = %q, want %q", runErr.Reason, "timeout or incomplete")
	}
	want := int64(fed + len("user@host:~$ "))
	if runErr.TotalBytes == nil || *runErr.TotalBytes != want {
		t.Errorf("partial bytes = %v, want %d", runErr.TotalBytes, want)
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Errorf("run ended after %v, before the deadline", elapsed)
	}
}

func TestRunThroughputAboveFloorFinalizesOnPrompt(t *testing.T) {
	sess := newFakeSession(128)
	sess.feed(ttyproto.TagData, "user@host:~$ ")
	var fed int
	sess.onWrite = func(tag byte, payload []byte) error {
		if strings.Contains(string(payload), "yes | head") {
			fed = feedBytes(sess, 60000, 1000)
			sess.feed(ttyproto.TagData, "user@host:~$ ")
		}
		return nil
	}

	res, err := RunThroughput(context.Background(), dialTo(sess), ThroughputOptions{
		IdleWindow:    500 * time.Millisecond,
		Deadline:      5 * time.Second,
		PromptTimeout: 100 * time.Millisecond,
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("RunThroughput failed: %v", err)
	}
	if want := int64(fed + len("user@host:~$ ")); res.TotalBytes != want {
		t.Errorf("total bytes = %d, want %d", res.TotalBytes, want)
	}
}

func TestRunThroughputEarlyPromptBelowFloorIgnored(t *testing.T) {
	// A prompt frame arriving before the floor is passed must not count
	// as completion; everything after it still accumulates.
	const prompt = "user@host:~$ "
	sess := newFakeSession(128)
	sess.feed(ttyproto.TagData, prompt)
	var early, late int
	sess.onWrite = func(tag byte, payload []byte) error {
		if strings.Contains(string(payload), "yes | head") {
			early = feedBytes(sess, 10000, 1000)
			sess.feed(ttyproto.TagData, prompt)
			late = feedBytes(sess, 45000, 1000)
			sess.feed(ttyproto.TagData, prompt)
		}
		return nil
	}

	res, err := RunThroughput(context.Background(), dialTo(sess), ThroughputOptions{
		IdleWindow:    200 * time.Millisecond,
		Deadline:      5 * time.Second,
		PromptTimeout: 100 * time.Millisecond,
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("RunThroughput failed: %v", err)
	}
	want := int64(early + late + 2*len(prompt))
	if res.TotalBytes != want {
		t.Errorf("total bytes = %d, want %d with both prompt frames counted", res.TotalBytes, want)
	}
}

func TestRunThroughputIdleCompletion(t *testing.T) {
	// No prompt ever arrives; two silent idle windows end the collection
	// once the floor is passed.
	sess := newFakeSession(128)
	sess.feed(ttyproto.TagData, "user@host:~$ ")
	sess.onWrite = func(tag byte, payload []byte) error {
		if strings.Contains(string(payload), "yes | head") {
			feedBytes(sess, 60000, 1000)
		}
		return nil
	}

	res, err := RunThroughput(context.Background(), dialTo(sess), ThroughputOptions{
		IdleWindow:    60 * time.Millisecond,
		Deadline:      5 * time.Second,
		PromptTimeout: 100 * time.Millisecond,
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("RunThroughput failed: %v", err)
	}
	if res.TotalBytes != 60000 {
		t.Errorf("total bytes = %d, want 60000", res.TotalBytes)
	}
	// Two idle windows passed before the run ended.
	if res.ElapsedSeconds < 0.1 {
		t.Errorf("elapsed = %v s, want at least the two idle windows", res.ElapsedSeconds)
	}
}

func TestRunThroughputTransportCloseYieldsPartial(t *testing.T) {
	sess := newFakeSession(128)
	sess.feed(ttyproto.TagData, "user@host:~$ ")
	sess.onWrite = func(tag byte, payload []byte) error {
		if strings.Contains(string(payload), "yes | head") {
			feedBytes(sess, 55000, 1000)
			sess.endInput()
		}
		return nil
	}

	res, err := RunThroughput(context.Background(), dialTo(sess), ThroughputOptions{
		IdleWindow:    time.Second,
		Deadline:      5 * time.Second,
		PromptTimeout: 100 * time.Millisecond,
		Logger:        quietLogger(),
	})
	if err != nil {
		t.Fatalf("RunThroughput after a drop above the floor: %v", err)
	}
	if res.TotalBytes != 55000 {
		t.Errorf("total bytes = %d, want the 55000 received before the drop", res.TotalBytes)
	}
}

func TestRunThroughputDialFailure(t *testing.T) {
	_, err := RunThroughput(context.Background(), dialError(errors.New("connection refused")),
		ThroughputOptions{Logger: quietLogger()})
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("err = %v, want a RunError", err)
	}
	if runErr.TotalBytes == nil || *runErr.TotalBytes != 0 {
		t.Errorf("partial bytes = %v, want 0", runErr.TotalBytes)
	}
}
