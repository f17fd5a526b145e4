// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package task

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vmware/orchestrate/pkg/config"
	"github.com/vmware/orchestrate/pkg/run"
)

type fakeRunner struct {
	results  map[string]*run.Result
	commands []string
}

func (f *fakeRunner) Run(ctx context.Context, command string) *run.Result {
	f.commands = append(f.commands, command)
	if res, ok := f.results[command]; ok {
		return res
	}
	return &run.Result{Command: command}
}

type fakeClient struct {
	runner     fakeRunner
	uploads    [][2]string
	uploadEr   error
	downloads  [][2]string
	downloadEr error
	closed     bool
}

func (f *fakeClient) Run(ctx context.Context, command string) *run.Result {
	return f.runner.Run(ctx, command)
}

func (f *fakeClient) Upload(localPath, remotePath string) error {
	f.uploads = append(f.uploads, [2]string{localPath, remotePath})
	return f.uploadEr
}

func (f *fakeClient) Download(remotePath, localPath string) error {
	f.downloads = append(f.downloads, [2]string{remotePath, localPath})
	return f.downloadEr
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func testEnv(t *testing.T) (*Env, *fakeRunner) {
	t.Helper()

	dir := t.TempDir()
	settings := config.Defaults()
	settings.Files.ServiceConfig = filepath.Join(dir, "cluster")
	settings.Files.RegistryConfig = filepath.Join(dir, "registry")
	settings.Files.FeatureFlags = map[string]bool{"local_registry": true}

	cluster, err := config.NewCluster([]string{"master1.example.com", "node1", "node2"})
	require.NoError(t, err)

	local := &fakeRunner{results: map[string]*run.Result{}}
	return &Env{
		Log:      zerolog.Nop(),
		Settings: settings,
		Cluster:  cluster,
		Local:    local,
		LookupIP: func(ctx context.Context, host string) (string, error) {
			return "10.0.0.1", nil
		},
	}, local
}

func TestLocalInstallTask(t *testing.T) {
	env, local := testEnv(t)

	require.NoError(t, (&LocalInstallTask{}).Run(context.Background(), env))
	require.Equal(t, []string{env.Settings.Commands.Install}, local.commands)
}

func TestLocalInstallTaskFailure(t *testing.T) {
	env, local := testEnv(t)
	local.results[env.Settings.Commands.Install] = &run.Result{ExitCode: 1, Stderr: []byte("no repo")}

	err := (&LocalInstallTask{}).Run(context.Background(), env)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no repo")
}

func TestRemoteInstallTaskRunsTool(t *testing.T) {
	env, _ := testEnv(t)
	client := &fakeClient{runner: fakeRunner{results: map[string]*run.Result{}}}
	env.Dial = func(ctx context.Context, host string) (RemoteClient, error) {
		require.Equal(t, "node1", host)
		return client, nil
	}

	target := env.Cluster.Remotes[0]
	require.NoError(t, (&RemoteInstallTask{Target: target}).Run(context.Background(), env))

	require.Equal(t, []string{
		"/usr/local/bin/orchestrate version",
		"/usr/local/bin/orchestrate remote --yes master1.example.com node1 node2",
	}, client.runner.commands)
	require.Empty(t, client.uploads)
	require.True(t, client.closed)
}

func TestRemoteInstallTaskUploadsMissingTool(t *testing.T) {
	env, _ := testEnv(t)
	env.SelfPath = "/proc/self/exe"
	client := &fakeClient{runner: fakeRunner{results: map[string]*run.Result{
		"/usr/local/bin/orchestrate version": {ExitCode: 127},
	}}}
	env.Dial = func(ctx context.Context, host string) (RemoteClient, error) {
		return client, nil
	}

	require.NoError(t, (&RemoteInstallTask{Target: env.Cluster.Remotes[0]}).Run(context.Background(), env))
	require.Equal(t, [][2]string{{"/proc/self/exe", "/usr/local/bin/orchestrate"}}, client.uploads)
}

func TestRemoteInstallTaskDialFailure(t *testing.T) {
	env, _ := testEnv(t)
	env.Dial = func(ctx context.Context, host string) (RemoteClient, error) {
		return nil, errors.New("connection refused")
	}

	err := (&RemoteInstallTask{Target: env.Cluster.Remotes[0]}).Run(context.Background(), env)
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

func TestRemoteInstallTaskProvisionFailure(t *testing.T) {
	env, _ := testEnv(t)
	client := &fakeClient{runner: fakeRunner{results: map[string]*run.Result{
		"/usr/local/bin/orchestrate remote --yes master1.example.com node1 node2": {ExitCode: 1, Stderr: []byte("boom")},
	}}}
	env.Dial = func(ctx context.Context, host string) (RemoteClient, error) {
		return client, nil
	}

	err := (&RemoteInstallTask{Target: env.Cluster.Remotes[0]}).Run(context.Background(), env)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestRemoteInstallTaskFetchesLogOnFailure(t *testing.T) {
	env, _ := testEnv(t)
	env.LogDir = t.TempDir()
	client := &fakeClient{runner: fakeRunner{results: map[string]*run.Result{
		"/usr/local/bin/orchestrate remote --yes master1.example.com node1 node2": {ExitCode: 1, Stderr: []byte("install blew up")},
	}}}
	env.Dial = func(ctx context.Context, host string) (RemoteClient, error) {
		return client, nil
	}

	err := (&RemoteInstallTask{Target: env.Cluster.Remotes[0]}).Run(context.Background(), env)
	require.Error(t, err)

	// The remote's log lands next to the local one, named after the host.
	require.Equal(t, [][2]string{{
		env.Settings.Files.RemoteLog,
		filepath.Join(env.LogDir, "node1.log"),
	}}, client.downloads)
}

func TestRemoteInstallTaskSkipsLogFetchOnSuccess(t *testing.T) {
	env, _ := testEnv(t)
	env.LogDir = t.TempDir()
	client := &fakeClient{runner: fakeRunner{results: map[string]*run.Result{}}}
	env.Dial = func(ctx context.Context, host string) (RemoteClient, error) {
		return client, nil
	}

	require.NoError(t, (&RemoteInstallTask{Target: env.Cluster.Remotes[0]}).Run(context.Background(), env))
	require.Empty(t, client.downloads)
}

func TestMasterConfigureTask(t *testing.T) {
	env, local := testEnv(t)
	require.NoError(t, os.WriteFile(env.Settings.Files.ServiceConfig, []byte("master=\"false\"\nagent=\"true\"\n"), 0o644))

	require.NoError(t, (&MasterConfigureTask{}).Run(context.Background(), env))

	service, err := os.ReadFile(env.Settings.Files.ServiceConfig)
	require.NoError(t, err)
	require.Contains(t, string(service), "master=\"true\"")
	require.Contains(t, string(service), "agent=\"false\"")
	require.Contains(t, string(service), "local_registry=\"true\"")

	registry, err := os.ReadFile(env.Settings.Files.RegistryConfig)
	require.NoError(t, err)
	require.Contains(t, string(registry), "registry_host=\"master1\"")

	require.Equal(t, []string{
		env.Settings.Commands.RestartRuntime,
		env.Settings.Commands.RestartService,
	}, local.commands)
}

func TestRemoteConfigureTask(t *testing.T) {
	env, local := testEnv(t)

	require.NoError(t, (&RemoteConfigureTask{}).Run(context.Background(), env))

	service, err := os.ReadFile(env.Settings.Files.ServiceConfig)
	require.NoError(t, err)
	require.Contains(t, string(service), "agent=\"true\"")
	require.Contains(t, string(service), "master=\"false\"")
	require.Contains(t, string(service), "master_ip=\"10.0.0.1\"")

	require.Equal(t, []string{env.Settings.Commands.RestartService}, local.commands)
}

func TestRemoteConfigureTaskSkipsOnUnresolvableMaster(t *testing.T) {
	env, local := testEnv(t)
	env.LookupIP = func(ctx context.Context, host string) (string, error) {
		return "", fmt.Errorf("lookup %s: no such host", host)
	}

	err := (&RemoteConfigureTask{}).Run(context.Background(), env)
	require.ErrorIs(t, err, ErrSkipped)

	// No configuration file was written and no service restarted.
	_, statErr := os.Stat(env.Settings.Files.ServiceConfig)
	require.True(t, os.IsNotExist(statErr))
	require.Empty(t, local.commands)
}

func TestFilesystemCheckTaskName(t *testing.T) {
	require.Equal(t, "checkFilesystem", (&FilesystemCheckTask{}).Name())
	require.Equal(t, "checkSsh", (&SSHCheckTask{}).Name())
	require.Equal(t, "install", (&LocalInstallTask{}).Name())
	require.Equal(t, "configure", (&MasterConfigureTask{}).Name())
}
