// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package rollout

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vmware/orchestrate/pkg/config"
	"github.com/vmware/orchestrate/pkg/plan"
	"github.com/vmware/orchestrate/pkg/probe"
	"github.com/vmware/orchestrate/pkg/run"
	"github.com/vmware/orchestrate/pkg/task"
)

type fakeRunner struct {
	mu       sync.Mutex
	results  map[string]*run.Result
	fallback func(command string) *run.Result
	commands []string
}

func (f *fakeRunner) Run(ctx context.Context, command string) *run.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if res, ok := f.results[command]; ok {
		return res
	}
	if f.fallback != nil {
		return f.fallback(command)
	}
	return &run.Result{Command: command}
}

func (f *fakeRunner) ran(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commands {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

type fakeClient struct {
	runner *fakeRunner
}

func (f *fakeClient) Run(ctx context.Context, command string) *run.Result {
	return f.runner.Run(ctx, command)
}

func (f *fakeClient) Upload(localPath, remotePath string) error   { return nil }
func (f *fakeClient) Download(remotePath, localPath string) error { return nil }
func (f *fakeClient) Close() error                                { return nil }

type fixture struct {
	env      *task.Env
	local    *fakeRunner
	remotes  map[string]*fakeClient
	dialErr  map[string]error
	dialedMu sync.Mutex
	dialed   []string
}

func newFixture(t *testing.T, args ...string) *fixture {
	t.Helper()

	dir := t.TempDir()
	settings := config.Defaults()
	settings.Files.ServiceConfig = filepath.Join(dir, "cluster")
	settings.Files.RegistryConfig = filepath.Join(dir, "registry")
	settings.Rollout.ActionTimeoutSec = 30

	cluster, err := config.NewCluster(args)
	require.NoError(t, err)

	local := &fakeRunner{
		results: map[string]*run.Result{},
		fallback: func(command string) *run.Result {
			if strings.HasPrefix(command, "findmnt") {
				return &run.Result{Stdout: []byte("btrfs\n")}
			}
			return &run.Result{}
		},
	}

	f := &fixture{
		local:   local,
		remotes: map[string]*fakeClient{},
		dialErr: map[string]error{},
	}
	for _, h := range cluster.Remotes {
		f.remotes[h.Name] = &fakeClient{runner: &fakeRunner{results: map[string]*run.Result{}}}
	}

	addrs := map[string]string{}
	for i, h := range cluster.All() {
		addrs[h.Name] = fmt.Sprintf("10.0.0.%d", i+1)
	}

	resolver := &fakeResolver{addrs: addrs}
	env := &task.Env{
		Log:      zerolog.Nop(),
		Settings: settings,
		Cluster:  cluster,
		Local:    local,
		Prober: &probe.Prober{
			Log:         zerolog.Nop(),
			Resolver:    resolver,
			Connect:     func(ctx context.Context, host string) error { return nil },
			Runner:      local,
			FstypeProbe: settings.Commands.FstypeProbe,
		},
		Dial: func(ctx context.Context, host string) (task.RemoteClient, error) {
			f.dialedMu.Lock()
			f.dialed = append(f.dialed, host)
			f.dialedMu.Unlock()
			if err := f.dialErr[host]; err != nil {
				return nil, err
			}
			return f.remotes[host], nil
		},
		LookupIP: func(ctx context.Context, host string) (string, error) {
			if addr, ok := addrs[host]; ok {
				return addr, nil
			}
			return "", fmt.Errorf("lookup %s: no such host", host)
		},
	}
	f.env = env
	return f
}

type fakeResolver struct {
	addrs map[string]string
}

func (f *fakeResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	addr, ok := f.addrs[host]
	if !ok {
		return nil, fmt.Errorf("lookup %s: no such host", host)
	}
	return []string{addr}, nil
}

func TestMasterRolloutAllGreen(t *testing.T) {
	f := newFixture(t, "master1", "node1", "node2")

	report, err := New(f.env).Run(context.Background(), plan.Master(f.env.Settings, f.env.Cluster))
	require.NoError(t, err)

	require.Equal(t, StateDone, report.State)
	for _, phase := range Phases {
		require.Zero(t, report.Errors[phase], "phase %s", phase)
	}

	// Both remotes were provisioned and the master installed itself.
	require.ElementsMatch(t, []string{"node1", "node2"}, f.dialed)
	require.True(t, f.local.ran(f.env.Settings.Commands.Install))
	require.True(t, f.local.ran("systemctl restart container-runtime"))
	require.True(t, f.local.ran("systemctl restart cluster"))
}

func TestMasterRolloutUnresolvableHostIsFatal(t *testing.T) {
	f := newFixture(t, "master1", "ghost", "node2")
	delete(f.env.Prober.Resolver.(*fakeResolver).addrs, "ghost")

	report, err := New(f.env).Run(context.Background(), plan.Master(f.env.Settings, f.env.Cluster))

	var prereqErr *PrerequisiteError
	require.ErrorAs(t, err, &prereqErr)
	require.Contains(t, prereqErr.Error(), "ghost")
	require.Equal(t, StateFailed, report.State)

	// No install was attempted on any host.
	require.Empty(t, f.dialed)
	require.False(t, f.local.ran(f.env.Settings.Commands.Install))
}

func TestMasterRolloutWrongFilesystemIsFatal(t *testing.T) {
	f := newFixture(t, "master1", "node1")
	f.local.fallback = func(command string) *run.Result {
		if strings.HasPrefix(command, "findmnt") {
			return &run.Result{Stdout: []byte("ext4\n")}
		}
		return &run.Result{}
	}

	report, err := New(f.env).Run(context.Background(), plan.Master(f.env.Settings, f.env.Cluster))

	var prereqErr *PrerequisiteError
	require.ErrorAs(t, err, &prereqErr)
	require.Contains(t, prereqErr.Error(), "checkFilesystem")
	require.Equal(t, StateFailed, report.State)
	require.Empty(t, f.dialed)
}

func TestMasterRolloutUnreachableHostIsFatal(t *testing.T) {
	f := newFixture(t, "master1", "node1")
	f.env.Prober.Connect = func(ctx context.Context, host string) error {
		return errors.New("permission denied")
	}

	report, err := New(f.env).Run(context.Background(), plan.Master(f.env.Settings, f.env.Cluster))

	var prereqErr *PrerequisiteError
	require.ErrorAs(t, err, &prereqErr)
	require.Contains(t, prereqErr.Error(), "checkSsh")
	require.Equal(t, StateFailed, report.State)
	require.Empty(t, f.dialed)
}

func TestMasterRolloutCountsFailedRemotesWithoutAborting(t *testing.T) {
	f := newFixture(t, "master1", "node1", "node2", "node3")
	f.dialErr["node2"] = errors.New("connection refused")

	report, err := New(f.env).Run(context.Background(), plan.Master(f.env.Settings, f.env.Cluster))
	require.NoError(t, err)

	require.Equal(t, StateDone, report.State)
	require.Equal(t, 1, report.Errors[PhaseInstall])

	// Every remote got an install attempt despite node2 failing.
	require.ElementsMatch(t, []string{"node1", "node2", "node3"}, f.dialed)
	require.True(t, f.local.ran(f.env.Settings.Commands.Install))
	require.Zero(t, report.Errors[PhaseConfigure])
}

func TestMasterRolloutLocalInstallFailureSkipsConfigure(t *testing.T) {
	f := newFixture(t, "master1", "node1")
	f.local.results[f.env.Settings.Commands.Install] = &run.Result{ExitCode: 1, Stderr: []byte("no repo")}

	p := plan.Master(f.env.Settings, f.env.Cluster)
	report, err := New(f.env).Run(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, StateDone, report.State)
	require.Equal(t, 1, report.Errors[PhaseInstall])
	require.Equal(t, plan.OutcomeSkipped, p.Configure.Outcome)
	require.False(t, f.local.ran("systemctl restart cluster"))
}

func TestRemoteRolloutAllGreen(t *testing.T) {
	f := newFixture(t, "master1", "node1")

	p := plan.Remote(f.env.Settings, f.env.Cluster)
	report, err := New(f.env).Run(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, StateDone, report.State)
	require.Zero(t, report.TotalErrors())
	require.Equal(t, plan.OutcomeSuccess, p.Configure.Outcome)
	require.True(t, f.local.ran("systemctl restart cluster"))
}

func TestRemoteRolloutSkipsConfigureWhenMasterUnresolvable(t *testing.T) {
	f := newFixture(t, "master1", "node1")
	f.env.LookupIP = func(ctx context.Context, host string) (string, error) {
		return "", fmt.Errorf("lookup %s: no such host", host)
	}

	p := plan.Remote(f.env.Settings, f.env.Cluster)
	report, err := New(f.env).Run(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, StateDone, report.State)
	require.Zero(t, report.TotalErrors())
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, plan.OutcomeSkipped, p.Configure.Outcome)
	require.False(t, f.local.ran("systemctl restart cluster"))
}

func TestReportTotalErrors(t *testing.T) {
	r := newReport()
	r.Errors[PhaseInstall] = 2
	r.Errors[PhaseConfigure] = 1
	require.Equal(t, 3, r.TotalErrors())
}
