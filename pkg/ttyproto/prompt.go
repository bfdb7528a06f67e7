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

package ttyproto

// Prompt detection is heuristic. The wire protocol has no "command finished"
// signal, so the harness watches decoded terminal output for the prompt
// terminators of the common shells instead. A terminator appearing inside
// program output is an accepted false-positive risk; fixing it would need a
// completion control frame on the server side.

import "strings"

// promptMarkers are the prompt terminators of the common shells:
// '$' (sh/bash), '%' (zsh), '#' (root).
const promptMarkers = "$%#"

// ContainsPrompt reports whether text contains a prompt marker anywhere.
// Used to wait for the shell banner after the handshake, where matching is
// permissive: banners are unstructured and the marker can sit anywhere in
// the frame.
func ContainsPrompt(text string) bool {
	return strings.ContainsAny(text, promptMarkers)
}

// EndsWithPrompt reports whether any line of text, trimmed of surrounding
// whitespace, ends with a prompt marker. Used to detect that a command has
// finished and the shell printed a fresh prompt. Anchoring to the line end
// is stricter than ContainsPrompt to cut down false positives from markers
// inside command output.
func EndsWithPrompt(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch line[len(line)-1] {
		case '$', '%', '#':
			return true
		}
	}
	return false
}
