// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"github.com/spf13/cobra"

	"github.com/vmware/orchestrate/pkg/config"
)

const (
	cliName        = "orchestrate"
	cliDescription = "A tool to provision and configure a multi-host cluster"
)

var (
	configFile string
	verbose    bool
	assumeYes  bool
	timeoutSec int

	rootCmd = &cobra.Command{
		Use:           cliName,
		Short:         cliDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultConfigFilename, "path to the rollout settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.PersistentFlags().IntVarP(&timeoutSec, "timeout", "t", 0, "per-action timeout in seconds, overrides the settings file")

	rootCmd.AddCommand(
		NewCommandVersion(),
		NewCommandMaster(),
		NewCommandRemote(),
	)
}

func RootCmd() *cobra.Command {
	return rootCmd
}
