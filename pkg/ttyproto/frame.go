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

// Package ttyproto implements the terminal server's WebSocket framing.
//
// PROTOCOL:
//
//	Client → Server: one JSON handshake (untagged), then tagged frames
//	Server → Client: tagged frames only
//
// Every message after the handshake is a binary frame whose first byte is a
// channel tag and whose remainder is the payload for that channel:
//
//	[tag byte][payload bytes...]
//
// Tag 0x30 carries raw terminal I/O in both directions; 0x31 carries a JSON
// resize request; 0x32/0x33 are flow-control signals. The benchmark drivers
// only measure the 0x30 channel and filter everything else by tag.
package ttyproto

import "strings"

// Channel tags. The values are the ASCII digits '0'..'3', matching what the
// server dispatches on.
const (
	TagData   byte = 0x30 // terminal I/O, both directions
	TagResize byte = 0x31 // JSON {"columns":N,"rows":N}
	TagPause  byte = 0x32 // flow control: stop sending output
	TagResume byte = 0x33 // flow control: resume sending output
)

// Interrupt is ASCII ETX (Ctrl-C). Sent as a data-channel payload it makes
// the remote shell kill whatever is still running.
const Interrupt byte = 0x03

// Frame is one decoded wire message.
type Frame struct {
	Tag     byte
	Payload []byte
}

// IsData reports whether the frame belongs to the terminal data channel.
func (f Frame) IsData() bool {
	return f.Tag == TagData
}

// Text decodes the payload as UTF-8, substituting U+FFFD for invalid byte
// sequences. Terminal output can split multi-byte runes across frames, so
// decoding is lossy and never fails.
func (f Frame) Text() string {
	return strings.ToValidUTF8(string(f.Payload), "�")
}

// Encode builds a wire message by prepending the channel tag to the payload.
func Encode(tag byte, payload []byte) []byte {
	msg := make([]byte, 1+len(payload))
	msg[0] = tag
	copy(msg[1:], payload)
	return msg
}

// Decode splits a wire message into its tag and payload. It reports false
// for messages shorter than two bytes: those cannot carry both a tag and a
// payload, and the measurement loops skip them rather than treat them as
// errors. Unrecognized tags are not rejected here; callers filter by tag.
func Decode(msg []byte) (Frame, bool) {
	if len(msg) < 2 {
		return Frame{}, false
	}
	return Frame{Tag: msg[0], Payload: msg[1:]}, true
}

// Handshake is the first message sent after connecting, as raw JSON with no
// tag byte. The server answers with ordinary data-channel traffic; there is
// no explicit acknowledgement.
type Handshake struct {
	AuthToken string `json:"AuthToken"`
	Columns   int    `json:"columns"`
	Rows      int    `json:"rows"`
}

// Resize is the JSON body of a TagResize frame.
type Resize struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}
