// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package run

import (
	"context"
	"strings"
	"time"
)

// Result holds the outcome of a single command invocation, local or remote.
type Result struct {
	Command  string
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
	Err      error // transport or launch errors, not non-zero exits
}

// Ok reports whether the command ran and exited zero.
func (r *Result) Ok() bool {
	return r != nil && r.Err == nil && r.ExitCode == 0
}

// Output returns combined stdout and stderr, trimmed.
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Stdout) + string(r.Stderr))
}

// Runner executes a command and reports its outcome. Implementations must
// never swallow failures: a non-zero exit lands in ExitCode, anything that
// prevented the command from running lands in Err.
type Runner interface {
	Run(ctx context.Context, command string) *Result
}
