// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"github.com/spf13/cobra"

	"github.com/vmware/orchestrate/pkg/config"
)

func NewCommandMaster() *cobra.Command {
	return &cobra.Command{
		Use:   "master <masterHost> <remoteHost>...",
		Short: "Provision the whole cluster from this host, the master",
		Long: `Provision the whole cluster from this host, the master.

The rollout first verifies that every host resolves, that the local
filesystems match the expected types and that every remote host is
reachable over SSH. It then installs the cluster software on every remote
in parallel and on this host, and finally configures this host as the
cluster master. Per-host install and configure failures are collected and
summarized without stopping the other hosts.
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollout(cmd.Context(), config.RoleMaster, args)
		},
	}
}
