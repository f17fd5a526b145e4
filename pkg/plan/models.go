// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package plan

import (
	"github.com/vmware/orchestrate/pkg/config"
	"github.com/vmware/orchestrate/pkg/task"
)

// Outcome is the lifecycle state of an action.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Action pairs a task with its target host and records how it went. An
// action belongs to exactly one plan and is mutated only by the
// orchestrator driving that plan.
type Action struct {
	Task task.Task

	// Host is the remote target, nil for actions running on this host.
	Host *config.Host

	// Fatal marks prerequisite actions whose failure aborts the whole run
	// instead of being accumulated.
	Fatal bool

	Outcome Outcome
	Err     error
}

// Name returns the task name of the action.
func (a *Action) Name() string {
	return a.Task.Name()
}

// Target names the host the action runs against.
func (a *Action) Target() string {
	if a.Host == nil {
		return "localhost"
	}
	return a.Host.Name
}

// Plan is the ordered work of one rollout role. Within a phase, actions
// targeting the same host run strictly in sequence; a failed action aborts
// only that host's remaining actions.
type Plan struct {
	Role config.Role

	// Checks are the fatal prerequisite actions of the validate phase.
	Checks []*Action

	// RemoteInstalls fan out to the remote hosts, best effort.
	RemoteInstalls []*Action

	// LocalInstall and Configure run on this host, in that order.
	LocalInstall *Action
	Configure    *Action
}
