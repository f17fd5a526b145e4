// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package task holds the individual steps of a rollout plan. Tasks receive
// an explicit Env instead of reaching for process-wide state, so every
// collaborator can be swapped in tests.
package task

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/vmware/orchestrate/pkg/config"
	"github.com/vmware/orchestrate/pkg/probe"
	"github.com/vmware/orchestrate/pkg/run"
)

// ErrSkipped is returned by tasks that decided not to run at all, such as
// configuring against a master whose name does not resolve. Skips are
// reported but neither fatal nor counted as failures.
var ErrSkipped = errors.New("step skipped")

// RemoteClient is the subset of the SSH client tasks need.
type RemoteClient interface {
	Run(ctx context.Context, command string) *run.Result
	Upload(localPath, remotePath string) error
	Download(remotePath, localPath string) error
	Close() error
}

// DialFunc opens a connection to a host.
type DialFunc func(ctx context.Context, host string) (RemoteClient, error)

// LookupIPFunc resolves a host name to a single address.
type LookupIPFunc func(ctx context.Context, host string) (string, error)

// Env is the run context threaded through every task.
type Env struct {
	Log      zerolog.Logger
	Settings *config.Settings
	Cluster  *config.Cluster
	Prober   *probe.Prober

	// Local runs commands on the host orchestrate itself is running on.
	Local run.Runner

	// Dial reaches other hosts of the cluster.
	Dial DialFunc

	// LookupIP resolves host names during configuration.
	LookupIP LookupIPFunc

	// SelfPath is the running binary, uploaded to remotes that do not have
	// the tool installed yet.
	SelfPath string

	// LogDir is where logs fetched from failed remotes are stored. Empty
	// disables fetching.
	LogDir string
}

// Task is one step of a plan.
type Task interface {
	Name() string
	Run(ctx context.Context, env *Env) error
}
