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
	"math"
	"sort"
)

// latencyStats is the reduction of one latency run's samples.
type latencyStats struct {
	samples int
	p50     float64
	p95     float64
	p99     float64
	min     float64
	max     float64
}

// reduceLatencies sorts a copy of the samples ascending and picks
// percentiles by truncated index: floor(n*q), with p99 clamped to the last
// element so small sample counts stay in range. ok is false when there is
// nothing to reduce.
func reduceLatencies(samples []float64) (latencyStats, bool) {
	if len(samples) == 0 {
		return latencyStats{}, false
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	n := len(sorted)
	return latencyStats{
		samples: n,
		p50:     sorted[int(float64(n)*0.50)],
		p95:     sorted[int(float64(n)*0.95)],
		p99:     sorted[min(int(float64(n)*0.99), n-1)],
		min:     sorted[0],
		max:     sorted[n-1],
	}, true
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
