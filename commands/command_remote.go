// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"github.com/spf13/cobra"

	"github.com/vmware/orchestrate/pkg/config"
)

func NewCommandRemote() *cobra.Command {
	return &cobra.Command{
		Use:   "remote <masterHost> <remoteHost>...",
		Short: "Provision this host as a cluster worker",
		Long: `Provision this host as a cluster worker.

This is the command the master invokes on every remote host during a
rollout. It verifies the local filesystem, installs the cluster software
and points the local service at the master. When the master host name does
not resolve from here, configuration is skipped and the rollout continues
degraded.
`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRollout(cmd.Context(), config.RoleRemote, args)
		},
	}
}
