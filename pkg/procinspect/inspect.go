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

// Package procinspect resolves the resident set size of a running process
// by shelling out to the system process tools.
package procinspect

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/FL-Penly/rust-terminal/utils"
)

const (
	// pgrepCmdEnv and psCmdEnv override the probe commands, for systems
	// where the procps tools live elsewhere or take different flags. The
	// match substring (pgrep) or the pid (ps) is appended as the last
	// argument.
	pgrepCmdEnv = "TTYBENCH_PGREP_CMD"
	psCmdEnv    = "TTYBENCH_PS_CMD"

	defaultPgrepCmd = "pgrep -f"
	defaultPsCmd    = "ps -o rss= -p"
)

// runFunc executes one probe command and returns its stdout. Tests inject
// a fake; the default runs the command directly, never through a shell.
type runFunc func(name string, args ...string) (string, error)

// Inspector looks up process RSS via pgrep and ps.
type Inspector struct {
	pgrepCmd []string
	psCmd    []string
	run      runFunc
	logger   *slog.Logger
}

// New builds an Inspector with probe commands from the environment or
// their defaults.
func New(logger *slog.Logger) (*Inspector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pgrepCmd, err := shlex.Split(utils.GetEnv(pgrepCmdEnv, defaultPgrepCmd))
	if err != nil || len(pgrepCmd) == 0 {
		return nil, fmt.Errorf("invalid process probe command in %s: %v", pgrepCmdEnv, err)
	}
	psCmd, err := shlex.Split(utils.GetEnv(psCmdEnv, defaultPsCmd))
	if err != nil || len(psCmd) == 0 {
		return nil, fmt.Errorf("invalid process probe command in %s: %v", psCmdEnv, err)
	}
	return &Inspector{
		pgrepCmd: pgrepCmd,
		psCmd:    psCmd,
		run:      runCommand,
		logger:   logger,
	}, nil
}

// LookupRSS returns the RSS in kilobytes of the first process whose
// command line contains substr. Any failure, including a missing process
// or unparseable tool output, reports ok false rather than an error: a
// failed lookup just skips one sample.
func (in *Inspector) LookupRSS(substr string) (int64, bool) {
	out, err := in.run(in.pgrepCmd[0], append(in.pgrepCmd[1:], substr)...)
	if err != nil {
		in.logger.Debug("process lookup failed",
			slog.String("substr", substr), slog.String("error", err.Error()))
		return 0, false
	}
	pids := strings.Fields(out)
	if len(pids) == 0 {
		return 0, false
	}

	out, err = in.run(in.psCmd[0], append(in.psCmd[1:], pids[0])...)
	if err != nil {
		in.logger.Debug("rss lookup failed",
			slog.String("pid", pids[0]), slog.String("error", err.Error()))
		return 0, false
	}
	kb, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		in.logger.Debug("unparseable rss value",
			slog.String("pid", pids[0]), slog.String("output", strings.TrimSpace(out)))
		return 0, false
	}
	return kb, true
}

func runCommand(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	return string(out), err
}
