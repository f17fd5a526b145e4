// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package task

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmware/orchestrate/pkg/config"
)

// LocalInstallTask runs the configured install command on this host.
type LocalInstallTask struct{}

func (t *LocalInstallTask) Name() string {
	return "install"
}

func (t *LocalInstallTask) Run(ctx context.Context, env *Env) error {
	res := env.Local.Run(ctx, env.Settings.Commands.Install)
	if res.Err != nil {
		return fmt.Errorf("install failed: %w", res.Err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("install exited with status %d: %s", res.ExitCode, res.Output())
	}
	return nil
}

// RemoteInstallTask provisions one remote host by running orchestrate in
// remote mode there. When the tool is not installed on the target yet, the
// running binary is uploaded first.
type RemoteInstallTask struct {
	Target *config.Host
}

func (t *RemoteInstallTask) Name() string {
	return "install"
}

func (t *RemoteInstallTask) Run(ctx context.Context, env *Env) error {
	client, err := env.Dial(ctx, t.Target.Name)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", t.Target.Name, err)
	}
	defer client.Close()

	tool := env.Settings.Commands.RemoteTool
	if res := client.Run(ctx, tool+" version"); !res.Ok() {
		if env.SelfPath == "" {
			return fmt.Errorf("orchestrate is not installed on %s and no local binary is available to upload", t.Target.Name)
		}
		env.Log.Debug().Str("host", t.Target.Name).Str("path", tool).Msg("uploading orchestrate")
		if err := client.Upload(env.SelfPath, tool); err != nil {
			return fmt.Errorf("upload orchestrate to %s: %w", t.Target.Name, err)
		}
	}

	args := append([]string{env.Cluster.Master.Name}, config.Names(env.Cluster.Remotes)...)
	command := fmt.Sprintf("%s remote --yes %s", tool, strings.Join(args, " "))

	env.Log.Debug().Str("host", t.Target.Name).Str("command", command).Msg("provisioning remote")
	res := client.Run(ctx, command)
	if res.Err == nil && res.ExitCode == 0 {
		return nil
	}

	t.fetchRemoteLog(env, client)
	if res.Err != nil {
		return fmt.Errorf("provision %s: %w", t.Target.Name, res.Err)
	}
	return fmt.Errorf("provision %s exited with status %d: %s", t.Target.Name, res.ExitCode, res.Output())
}

// fetchRemoteLog pulls the remote host's own log next to the local one so
// a failed provision can be diagnosed without logging into the host.
func (t *RemoteInstallTask) fetchRemoteLog(env *Env, client RemoteClient) {
	remoteLog := env.Settings.Files.RemoteLog
	if env.LogDir == "" || remoteLog == "" {
		return
	}

	localPath := filepath.Join(env.LogDir, t.Target.ShortName()+".log")
	if err := client.Download(remoteLog, localPath); err != nil {
		env.Log.Debug().Err(err).Str("host", t.Target.Name).Msg("could not fetch remote log")
		return
	}
	env.Log.Info().Str("host", t.Target.Name).Str("path", localPath).Msg("fetched remote log")
}
