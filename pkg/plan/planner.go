// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package plan turns a role and a cluster into the ordered set of rollout
// actions the orchestrator executes.
package plan

import (
	"github.com/vmware/orchestrate/pkg/config"
	"github.com/vmware/orchestrate/pkg/task"
)

// Master builds the coordinator plan: verify the local mounts and SSH
// access to every host, provision all remotes in parallel, then install and
// configure this host as the cluster master.
func Master(settings *config.Settings, cluster *config.Cluster) *Plan {
	p := &Plan{
		Role: config.RoleMaster,
		Checks: []*Action{
			{Task: &task.FilesystemCheckTask{Checks: settings.Mounts.Master}, Fatal: true, Outcome: OutcomePending},
			{Task: &task.SSHCheckTask{Hosts: cluster.All()}, Fatal: true, Outcome: OutcomePending},
		},
		LocalInstall: &Action{Task: &task.LocalInstallTask{}, Outcome: OutcomePending},
		Configure:    &Action{Task: &task.MasterConfigureTask{}, Outcome: OutcomePending},
	}
	for _, remote := range cluster.Remotes {
		p.RemoteInstalls = append(p.RemoteInstalls, &Action{
			Task:    &task.RemoteInstallTask{Target: remote},
			Host:    remote,
			Outcome: OutcomePending,
		})
	}
	return p
}

// Remote builds the worker plan: verify the local mount, then install and
// point this host at the master.
func Remote(settings *config.Settings, cluster *config.Cluster) *Plan {
	return &Plan{
		Role: config.RoleRemote,
		Checks: []*Action{
			{Task: &task.FilesystemCheckTask{Checks: []config.MountCheck{settings.Mounts.Remote}}, Fatal: true, Outcome: OutcomePending},
		},
		LocalInstall: &Action{Task: &task.LocalInstallTask{}, Outcome: OutcomePending},
		Configure:    &Action{Task: &task.RemoteConfigureTask{}, Outcome: OutcomePending},
	}
}
