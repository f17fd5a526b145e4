// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package task

import (
	"context"
	"fmt"
	"sort"

	"github.com/vmware/orchestrate/pkg/confedit"
)

const (
	keyMaster       = "master"
	keyAgent        = "agent"
	keyMasterIP     = "master_ip"
	keyRegistryHost = "registry_host"
)

// MasterConfigureTask registers this host as the cluster master: the
// service config gains master=true plus the configured feature flags, the
// local registry is bound to the host's short name, and the container
// runtime and main service are restarted.
type MasterConfigureTask struct{}

func (t *MasterConfigureTask) Name() string {
	return "configure"
}

func (t *MasterConfigureTask) Run(ctx context.Context, env *Env) error {
	patches := []confedit.Patch{
		confedit.Bool(keyMaster, true),
		confedit.Bool(keyAgent, false),
	}
	// Deterministic patch order for reproducible files and logs.
	flags := make([]string, 0, len(env.Settings.Files.FeatureFlags))
	for flag := range env.Settings.Files.FeatureFlags {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	for _, flag := range flags {
		patches = append(patches, confedit.Bool(flag, env.Settings.Files.FeatureFlags[flag]))
	}

	if err := applyPatches(env, env.Settings.Files.ServiceConfig, patches); err != nil {
		return err
	}

	registry := []confedit.Patch{
		{Key: keyRegistryHost, Value: env.Cluster.Master.ShortName()},
	}
	if err := applyPatches(env, env.Settings.Files.RegistryConfig, registry); err != nil {
		return err
	}

	if err := restart(ctx, env, env.Settings.Commands.RestartRuntime); err != nil {
		return err
	}
	return restart(ctx, env, env.Settings.Commands.RestartService)
}

// RemoteConfigureTask points this host at the cluster master: agent mode is
// enabled, the resolved master address is written into the service config
// and the main service is restarted. When the master name does not resolve
// the whole step is skipped rather than failed, leaving the host
// unconfigured but the rollout alive.
type RemoteConfigureTask struct{}

func (t *RemoteConfigureTask) Name() string {
	return "configure"
}

func (t *RemoteConfigureTask) Run(ctx context.Context, env *Env) error {
	master := env.Cluster.Master
	addr, err := env.LookupIP(ctx, master.Name)
	if err != nil {
		env.Log.Warn().Err(err).Str("master", master.Name).Msg("master does not resolve, skipping configuration")
		return ErrSkipped
	}

	patches := []confedit.Patch{
		confedit.Bool(keyAgent, true),
		confedit.Bool(keyMaster, false),
		{Key: keyMasterIP, Value: addr},
	}
	if err := applyPatches(env, env.Settings.Files.ServiceConfig, patches); err != nil {
		return err
	}

	return restart(ctx, env, env.Settings.Commands.RestartService)
}

func applyPatches(env *Env, path string, patches []confedit.Patch) error {
	backupPath, changed, err := confedit.Apply(path, patches)
	if err != nil {
		return fmt.Errorf("patch %s: %w", path, err)
	}
	if changed {
		env.Log.Info().Str("file", path).Str("backup", backupPath).Msg("configuration updated")
	} else {
		env.Log.Debug().Str("file", path).Msg("configuration already up to date")
	}
	return nil
}

func restart(ctx context.Context, env *Env, command string) error {
	res := env.Local.Run(ctx, command)
	if res.Err != nil {
		return fmt.Errorf("%s: %w", command, res.Err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("%s exited with status %d: %s", command, res.ExitCode, res.Output())
	}
	return nil
}
