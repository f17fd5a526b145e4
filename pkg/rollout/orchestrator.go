// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package rollout drives a plan across the cluster: validate prerequisites,
// fan the install out to the remotes, configure, summarize. Prerequisite
// failures are fatal; install and configure failures on individual hosts
// are counted and reported without stopping their siblings.
package rollout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmware/orchestrate/pkg/config"
	"github.com/vmware/orchestrate/pkg/plan"
	"github.com/vmware/orchestrate/pkg/run"
	"github.com/vmware/orchestrate/pkg/task"
)

// Orchestrator executes one plan. Not safe for concurrent use.
type Orchestrator struct {
	env     *task.Env
	fanout  *run.Fanout
	timeout time.Duration
}

// New creates an Orchestrator for the given run context. Fan-out bounds and
// the per-action timeout come from the rollout settings.
func New(env *task.Env) *Orchestrator {
	timeout := time.Duration(env.Settings.Rollout.ActionTimeoutSec) * time.Second
	return &Orchestrator{
		env: env,
		fanout: run.NewFanout(
			run.WithConcurrency(env.Settings.Rollout.Concurrency),
			run.WithTimeout(timeout),
		),
		timeout: timeout,
	}
}

// Run executes the plan. The returned Report always describes the run,
// whether or not an error is returned; a non-nil error is always fatal
// (prerequisite failure), accumulated action errors only show up in the
// report.
func (o *Orchestrator) Run(ctx context.Context, p *plan.Plan) (*Report, error) {
	report := newReport()

	// Validating
	o.setState(report, StateValidating)
	if err := o.validate(ctx, report, p); err != nil {
		report.State = StateFailed
		o.env.Log.Error().Err(err).Str("phase", string(PhaseValidate)).Msg("rollout aborted")
		return report, err
	}
	o.phaseSummary(report, PhaseValidate)

	// Installing
	o.setState(report, StateInstalling)
	o.installRemotes(ctx, report, p.RemoteInstalls)
	o.runLocal(ctx, report, PhaseInstall, p.LocalInstall)
	o.phaseSummary(report, PhaseInstall)

	// Configuring
	o.setState(report, StateConfiguring)
	if p.Configure != nil {
		if p.LocalInstall != nil && p.LocalInstall.Outcome == plan.OutcomeFailed {
			// The local action sequence is aborted, siblings were not.
			p.Configure.Outcome = plan.OutcomeSkipped
			report.Skipped++
			o.env.Log.Warn().Msg("skipping configuration, local install failed")
		} else {
			o.runLocal(ctx, report, PhaseConfigure, p.Configure)
		}
	}
	o.phaseSummary(report, PhaseConfigure)

	report.State = StateDone
	o.env.Log.Info().Int("errors", report.TotalErrors()).Msg("rollout finished")
	return report, nil
}

// validate resolves every target and runs the plan's prerequisite checks.
// Any failure is fatal.
func (o *Orchestrator) validate(ctx context.Context, report *Report, p *plan.Plan) error {
	if p.Role == config.RoleMaster {
		if failed := o.env.Prober.CheckResolvable(ctx, o.env.Cluster.All()); len(failed) > 0 {
			report.Errors[PhaseValidate] += len(failed)
			return &PrerequisiteError{
				Reason: fmt.Sprintf("%d host(s) do not resolve: %v", len(failed), config.Names(failed)),
			}
		}
	}

	for _, action := range p.Checks {
		o.runAction(ctx, action)
		if action.Outcome == plan.OutcomeFailed {
			report.Errors[PhaseValidate]++
			return &PrerequisiteError{Reason: action.Name() + " failed", Err: action.Err}
		}
	}
	return nil
}

// installRemotes provisions every remote in parallel, best effort. Each
// outcome is awaited and recorded; a failing remote never stops the others.
func (o *Orchestrator) installRemotes(ctx context.Context, report *Report, installs []*plan.Action) {
	if len(installs) == 0 {
		return
	}

	byHost := make(map[string]*plan.Action, len(installs))
	targets := make([]string, len(installs))
	for i, action := range installs {
		byHost[action.Target()] = action
		targets[i] = action.Target()
	}

	errs := o.fanout.Do(ctx, targets, func(ctx context.Context, target string) error {
		action := byHost[target]
		if err := action.Task.Run(ctx, o.env); err != nil {
			action.Outcome = plan.OutcomeFailed
			action.Err = err
			if action.Host != nil {
				action.Host.LastErr = err
			}
			return err
		}
		action.Outcome = plan.OutcomeSuccess
		return nil
	})

	for i, err := range errs {
		if err == nil {
			o.env.Log.Info().Str("host", targets[i]).Msg("remote install finished")
			continue
		}
		report.Errors[PhaseInstall]++
		actionErr := &ActionError{Action: "install", Host: targets[i], Err: err}
		o.env.Log.Error().Err(actionErr).Str("host", targets[i]).Msg("remote install failed")
	}
}

// runLocal executes a sequential action and accumulates its failure into
// the given phase.
func (o *Orchestrator) runLocal(ctx context.Context, report *Report, phase Phase, action *plan.Action) {
	if action == nil {
		return
	}

	o.runAction(ctx, action)
	switch action.Outcome {
	case plan.OutcomeFailed:
		report.Errors[phase]++
		actionErr := &ActionError{Action: action.Name(), Host: action.Target(), Err: action.Err}
		o.env.Log.Error().Err(actionErr).Str("phase", string(phase)).Msg("action failed")
	case plan.OutcomeSkipped:
		report.Skipped++
	}
}

// runAction runs one action under the per-action timeout and records its
// outcome.
func (o *Orchestrator) runAction(ctx context.Context, action *plan.Action) {
	actionCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	o.env.Log.Debug().Str("action", action.Name()).Str("target", action.Target()).Msg("running action")

	err := action.Task.Run(actionCtx, o.env)
	switch {
	case err == nil:
		action.Outcome = plan.OutcomeSuccess
	case errors.Is(err, task.ErrSkipped):
		action.Outcome = plan.OutcomeSkipped
	default:
		action.Outcome = plan.OutcomeFailed
		action.Err = err
	}
}

func (o *Orchestrator) setState(report *Report, state State) {
	report.State = state
	o.env.Log.Debug().Str("state", string(state)).Msg("state changed")
}

func (o *Orchestrator) phaseSummary(report *Report, phase Phase) {
	o.env.Log.Info().Str("phase", string(phase)).Int("errors", report.Errors[phase]).Msg("phase finished")
}
