// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vmware/orchestrate/pkg/cliui"
	"github.com/vmware/orchestrate/pkg/config"
	"github.com/vmware/orchestrate/pkg/logging"
	"github.com/vmware/orchestrate/pkg/plan"
	"github.com/vmware/orchestrate/pkg/probe"
	"github.com/vmware/orchestrate/pkg/rollout"
	"github.com/vmware/orchestrate/pkg/run"
	"github.com/vmware/orchestrate/pkg/ssh"
	"github.com/vmware/orchestrate/pkg/task"
)

const connectTimeout = 10 * time.Second

// stubbed in tests
var (
	geteuid                     = os.Geteuid
	hostResolver probe.Resolver = net.DefaultResolver
)

// runRollout is the shared body of the master and remote commands. A
// returned error is fatal and makes the process exit non-zero; per-host
// action failures only surface in the log and the final summary.
func runRollout(ctx context.Context, role config.Role, args []string) error {
	if geteuid() != 0 {
		return &rollout.PrivilegeError{Msg: cliName + " must run as root"}
	}

	cluster, err := config.NewCluster(args)
	if err != nil {
		return &rollout.UsageError{Msg: err.Error()}
	}

	settings, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if timeoutSec > 0 {
		settings.Rollout.ActionTimeoutSec = timeoutSec
	}

	logDir, err := logging.DefaultDir()
	if err != nil {
		return err
	}
	logger, closer, err := logging.Open(logging.Options{Verbose: verbose, Dir: logDir})
	if err != nil {
		return err
	}
	defer closer.Close()

	if role == config.RoleMaster && !assumeYes {
		prompt := fmt.Sprintf("Roll out to %d host(s) with master %s?", len(cluster.All()), cluster.Master.Name)
		if !cliui.Confirm(prompt) {
			logger.Info().Msg("rollout declined")
			return nil
		}
	}

	env, err := buildEnv(logger, settings, cluster, logDir)
	if err != nil {
		return err
	}

	var p *plan.Plan
	if role == config.RoleMaster {
		p = plan.Master(settings, cluster)
	} else {
		p = plan.Remote(settings, cluster)
	}

	report, err := rollout.New(env).Run(ctx, p)
	if err != nil {
		return err
	}
	if n := report.TotalErrors(); n > 0 {
		logger.Warn().Int("errors", n).Msg("rollout finished with errors, see the log for details")
	}
	return nil
}

func buildEnv(logger zerolog.Logger, settings *config.Settings, cluster *config.Cluster, logDir string) (*task.Env, error) {
	selfPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating own binary: %w", err)
	}

	local := &run.Local{}
	dial := func(ctx context.Context, host string) (task.RemoteClient, error) {
		return ssh.NewClient(sshClientConfig(settings, host))
	}
	connect := func(ctx context.Context, host string) error {
		client, err := ssh.NewClient(sshClientConfig(settings, host))
		if err != nil {
			return err
		}
		return client.Close()
	}

	return &task.Env{
		Log:      logger,
		Settings: settings,
		Cluster:  cluster,
		Prober:   probe.New(logger, connect, local, settings.Commands.FstypeProbe),
		Local:    local,
		Dial:     dial,
		LookupIP: lookupIP,
		SelfPath: selfPath,
		LogDir:   logDir,
	}, nil
}

func sshClientConfig(settings *config.Settings, host string) *ssh.Config {
	return &ssh.Config{
		User:                 settings.SSH.User,
		Host:                 host,
		Port:                 settings.SSH.Port,
		Timeout:              connectTimeout,
		Password:             settings.SSH.Password,
		PrivateKeyPath:       settings.SSH.PrivateKey,
		PrivateKeyPassphrase: settings.SSH.Passphrase,
		AcceptUnknownHosts:   settings.SSH.AcceptUnknownHosts,
	}
}

func lookupIP(ctx context.Context, host string) (string, error) {
	addrs, err := hostResolver.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("lookup %s: no addresses returned", host)
	}
	return addrs[0], nil
}
