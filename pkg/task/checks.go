// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package task

import (
	"context"
	"fmt"

	"github.com/vmware/orchestrate/pkg/config"
)

// FilesystemCheckTask verifies that the configured mount points carry the
// expected filesystem type on the local host.
type FilesystemCheckTask struct {
	Checks []config.MountCheck
}

func (t *FilesystemCheckTask) Name() string {
	return "checkFilesystem"
}

func (t *FilesystemCheckTask) Run(ctx context.Context, env *Env) error {
	failed := env.Prober.CheckMounts(ctx, t.Checks)
	if len(failed) > 0 {
		return fmt.Errorf("%d mount(s) have the wrong filesystem type, first: %s is not %s",
			len(failed), failed[0].Path, failed[0].Fstype)
	}
	return nil
}

// SSHCheckTask verifies passwordless SSH access to every given host.
type SSHCheckTask struct {
	Hosts []*config.Host
}

func (t *SSHCheckTask) Name() string {
	return "checkSsh"
}

func (t *SSHCheckTask) Run(ctx context.Context, env *Env) error {
	failed := env.Prober.CheckReachable(ctx, t.Hosts)
	if len(failed) > 0 {
		return fmt.Errorf("%d host(s) not reachable over SSH: %v", len(failed), config.Names(failed))
	}
	return nil
}
