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

// LatencyResult is the record a successful latency run produces. All
// values are milliseconds rounded to two decimals.
type LatencyResult struct {
	Test    string  `json:"test"`
	Samples int     `json:"samples"`
	P50Ms   float64 `json:"p50_ms"`
	P95Ms   float64 `json:"p95_ms"`
	P99Ms   float64 `json:"p99_ms"`
	MinMs   float64 `json:"min_ms"`
	MaxMs   float64 `json:"max_ms"`
}

// ThroughputResult is the record a successful throughput run produces.
type ThroughputResult struct {
	Test           string  `json:"test"`
	TotalBytes     int64   `json:"total_bytes"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	ThroughputKBs  float64 `json:"throughput_kbs"`
}

// MemoryResult is the record a successful memory run produces. RSS values
// are megabytes rounded to one decimal.
type MemoryResult struct {
	Test         string  `json:"test"`
	InitialRSSMb float64 `json:"initial_rss_mb"`
	PeakRSSMb    float64 `json:"peak_rss_mb"`
	FinalRSSMb   float64 `json:"final_rss_mb"`
	Samples      int     `json:"samples"`
}

// ErrorResult is the record printed when a run cannot produce statistics.
// TotalBytes is present only for throughput failures, where it carries the
// partial byte count.
type ErrorResult struct {
	Error      string `json:"error"`
	TotalBytes *int64 `json:"total_bytes,omitempty"`
}

// RunError is a benchmark failure that still carries a printable record.
// Drivers return it instead of propagating transport errors so that every
// run, however it ends, prints exactly one result.
type RunError struct {
	Reason     string
	TotalBytes *int64
}

func (e *RunError) Error() string { return e.Reason }

// Record returns the JSON shape for the failure.
func (e *RunError) Record() ErrorResult {
	return ErrorResult{Error: e.Reason, TotalBytes: e.TotalBytes}
}
