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

// ttybench runs one benchmark against a terminal server and prints one
// JSON result record to stdout. Everything else, progress and warnings
// included, goes to the log on stderr, so the stdout of a run is always
// exactly one parseable record.
//
// Usage:
//
//	ttybench -benchmark latency -host localhost -port 7682
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/FL-Penly/rust-terminal/pkg/bench"
	"github.com/FL-Penly/rust-terminal/pkg/procinspect"
	"github.com/FL-Penly/rust-terminal/pkg/ttyclient"
	"github.com/FL-Penly/rust-terminal/utils"
	"github.com/FL-Penly/rust-terminal/utils/logging"
	metrics "github.com/FL-Penly/rust-terminal/utils/metrics-go"
)

// Inbound message caps per benchmark. The latency probes never produce
// large frames; the two load benchmarks must accept multi-megabyte bursts.
const (
	throughputMaxMessage = 10 * 1024 * 1024
	memoryMaxMessage     = 20 * 1024 * 1024
)

var (
	benchmark   = flag.String("benchmark", "latency", "Benchmark to run: latency, throughput, memory")
	host        = flag.String("host", utils.GetEnvOrConfig("TTYBENCH_HOST", "server_host", "localhost"), "Terminal server host (or use TTYBENCH_HOST)")
	port        = flag.Int("port", utils.GetEnvInt("TTYBENCH_PORT", 7682), "Terminal server port (or use TTYBENCH_PORT)")
	authToken   = flag.String("auth-token", utils.GetEnvOrConfig("TTYBENCH_AUTH_TOKEN", "auth_token", ""), "Auth token for the session handshake (or use TTYBENCH_AUTH_TOKEN)")
	columns     = flag.Int("columns", 80, "Terminal columns for the session handshake")
	rows        = flag.Int("rows", 24, "Terminal rows for the session handshake")
	samples     = flag.Int("samples", 50, "Latency probe count")
	processName = flag.String("process-name", utils.GetEnv("TTYBENCH_PROCESS_NAME", "rust-terminal"), "Server process name substring for RSS lookups")
	readLimit   = flag.Int("read-limit", 0, "Inbound bandwidth limit in bytes/sec, 0 for unlimited")
	writeLimit  = flag.Int("write-limit", 0, "Outbound bandwidth limit in bytes/sec, 0 for unlimited")
	showVersion = flag.Bool("version", false, "Print the harness version and exit")
)

func main() {
	loggingFlags := logging.RegisterFlags()
	metricsFlags := metrics.RegisterMetricsFlags("ttybench")
	flag.Parse()

	if *showVersion {
		version, _ := utils.LoadVersion()
		fmt.Println(version)
		return
	}

	logger := logging.InitLogger("ttybench", loggingFlags.ToConfig())

	if err := metrics.InitMetricCreator(metricsFlags.ToMetricsConfig()); err != nil {
		logger.Warn("metrics disabled", slog.String("error", err.Error()))
	}

	ctx := context.Background()
	code := run(ctx, logger)

	if mc := metrics.GetMetricCreator(); mc != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := mc.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics flush failed", slog.String("error", err.Error()))
		}
		cancel()
	}
	os.Exit(code)
}

func run(ctx context.Context, logger *slog.Logger) int {
	url := fmt.Sprintf("ws://%s:%d/ws", *host, *port)
	handshakeTimeout := utils.GetEnvDuration("TTYBENCH_HANDSHAKE_TIMEOUT", 10*time.Second)
	promptTimeout := utils.GetEnvDuration("TTYBENCH_PROMPT_TIMEOUT", 10*time.Second)

	dialWith := func(maxMessageSize int64) bench.DialFunc {
		return func(ctx context.Context) (bench.Session, error) {
			sess, err := ttyclient.Dial(ctx, ttyclient.Config{
				URL:              url,
				AuthToken:        *authToken,
				Columns:          *columns,
				Rows:             *rows,
				HandshakeTimeout: handshakeTimeout,
				MaxMessageSize:   maxMessageSize,
				ReadLimit:        *readLimit,
				WriteLimit:       *writeLimit,
				Logger:           logger,
			})
			if err != nil {
				return nil, err
			}
			return sess, nil
		}
	}

	logger.Info("Starting benchmark",
		slog.String("benchmark", *benchmark), slog.String("url", url))

	switch *benchmark {
	case "latency":
		res, err := bench.RunLatency(ctx, dialWith(0), bench.LatencyOptions{
			Samples:       *samples,
			PromptTimeout: promptTimeout,
			Logger:        logger,
		})
		if err != nil {
			return printRunError(err)
		}
		recordLatencyMetrics(ctx, logger, res)
		return printResult(res)

	case "throughput":
		res, err := bench.RunThroughput(ctx, dialWith(throughputMaxMessage), bench.ThroughputOptions{
			PromptTimeout: promptTimeout,
			Logger:        logger,
		})
		if err != nil {
			return printRunError(err)
		}
		recordThroughputMetrics(ctx, logger, res)
		return printResult(res)

	case "memory":
		inspector, err := procinspect.New(logger)
		if err != nil {
			return printRunError(err)
		}
		res, err := bench.RunMemory(ctx, dialWith(memoryMaxMessage), bench.MemoryOptions{
			ProcessName:   *processName,
			PromptTimeout: promptTimeout,
			LookupRSS:     inspector.LookupRSS,
			Logger:        logger,
		})
		if err != nil {
			return printRunError(err)
		}
		recordMemoryMetrics(ctx, logger, res)
		return printResult(res)

	default:
		return printRunError(fmt.Errorf("unknown benchmark %q: want latency, throughput, or memory", *benchmark))
	}
}

// printResult writes the success record to stdout, pretty-printed.
func printResult(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(`{"error": "failed to encode result"}`)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

// printRunError writes the failure record to stdout as a single line.
func printRunError(err error) int {
	rec := bench.ErrorResult{Error: err.Error()}
	var runErr *bench.RunError
	if errors.As(err, &runErr) {
		rec = runErr.Record()
	}
	data, encErr := json.Marshal(rec)
	if encErr != nil {
		fmt.Println(`{"error": "failed to encode result"}`)
		return 1
	}
	fmt.Println(string(data))
	return 1
}

func recordHistogram(ctx context.Context, logger *slog.Logger, name string, value float64, unit, description string, tags map[string]string) {
	if err := metrics.GetMetricCreator().RecordHistogram(ctx, name, value, unit, description, tags); err != nil {
		logger.Debug("metric record failed",
			slog.String("metric", name), slog.String("error", err.Error()))
	}
}

func recordLatencyMetrics(ctx context.Context, logger *slog.Logger, res *bench.LatencyResult) {
	tags := map[string]string{"benchmark": "latency"}
	recordHistogram(ctx, logger, "ttybench.latency.p50", res.P50Ms, "ms", "Keystroke echo latency p50", tags)
	recordHistogram(ctx, logger, "ttybench.latency.p95", res.P95Ms, "ms", "Keystroke echo latency p95", tags)
	recordHistogram(ctx, logger, "ttybench.latency.p99", res.P99Ms, "ms", "Keystroke echo latency p99", tags)
}

func recordThroughputMetrics(ctx context.Context, logger *slog.Logger, res *bench.ThroughputResult) {
	tags := map[string]string{"benchmark": "throughput"}
	recordHistogram(ctx, logger, "ttybench.throughput.kb_per_s", res.ThroughputKBs, "KBy/s", "Sustained output throughput", tags)
	recordHistogram(ctx, logger, "ttybench.throughput.total_bytes", float64(res.TotalBytes), "By", "Bytes received in the run", tags)
}

func recordMemoryMetrics(ctx context.Context, logger *slog.Logger, res *bench.MemoryResult) {
	tags := map[string]string{"benchmark": "memory"}
	recordHistogram(ctx, logger, "ttybench.memory.peak_rss", res.PeakRSSMb, "MBy", "Peak server RSS under load", tags)
	recordHistogram(ctx, logger, "ttybench.memory.growth", res.FinalRSSMb-res.InitialRSSMb, "MBy", "Server RSS growth over the run", tags)
}
