// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package rollout

// State is the orchestrator's position in the rollout lifecycle.
type State string

const (
	StateStart       State = "start"
	StateValidating  State = "validating"
	StateInstalling  State = "installing"
	StateConfiguring State = "configuring"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Phase is one stage of the rollout, each with its own error accumulation.
type Phase string

const (
	PhaseValidate  Phase = "validate"
	PhaseInstall   Phase = "install"
	PhaseConfigure Phase = "configure"
)

// Phases lists the rollout phases in execution order.
var Phases = []Phase{PhaseValidate, PhaseInstall, PhaseConfigure}

// Report aggregates what happened during a run. It is built incrementally
// by the orchestrator and must be treated as read-only once the run
// returned.
type Report struct {
	State   State
	Errors  map[Phase]int
	Skipped int
}

func newReport() *Report {
	return &Report{
		State:  StateStart,
		Errors: map[Phase]int{},
	}
}

// TotalErrors sums the error counts of all phases.
func (r *Report) TotalErrors() int {
	total := 0
	for _, n := range r.Errors {
		total += n
	}
	return total
}
