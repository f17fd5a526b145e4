// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package run

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Local runs commands on the orchestrating host itself through a shell, so
// configured command strings may use pipes and redirection.
type Local struct {
	// Shell is the interpreter used to run commands. Defaults to /bin/sh.
	Shell string
}

var _ Runner = (*Local)(nil)

func (l *Local) Run(ctx context.Context, command string) *Result {
	shell := l.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Command:  command,
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res
	}

	// Prefer reporting the deadline over the opaque "signal: killed".
	if ctx.Err() != nil {
		res.Err = ctx.Err()
		return res
	}

	res.Err = err
	return res
}
