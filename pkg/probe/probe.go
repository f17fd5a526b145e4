// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package probe runs the non-mutating prerequisite checks gating a rollout:
// name resolution, SSH reachability and filesystem types. Checks are
// side-effect free and always inspect every input before reporting, logging
// each failure individually; deciding whether failures are fatal is the
// caller's call.
package probe

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vmware/orchestrate/pkg/config"
	"github.com/vmware/orchestrate/pkg/run"
)

// Resolver looks host names up. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// ConnectFunc attempts a connection to a host and reports whether it can be
// reached with the configured credentials.
type ConnectFunc func(ctx context.Context, host string) error

// Prober bundles the collaborators of the prerequisite checks.
type Prober struct {
	Log      zerolog.Logger
	Resolver Resolver
	Connect  ConnectFunc

	// Runner and FstypeProbe drive the filesystem check; FstypeProbe is a
	// command template whose %s receives the mount path.
	Runner      run.Runner
	FstypeProbe string
}

// New creates a Prober with the default system resolver.
func New(log zerolog.Logger, connect ConnectFunc, runner run.Runner, fstypeProbe string) *Prober {
	return &Prober{
		Log:         log,
		Resolver:    net.DefaultResolver,
		Connect:     connect,
		Runner:      runner,
		FstypeProbe: fstypeProbe,
	}
}

// CheckResolvable resolves every host and returns the unresolvable subset.
// Hosts that resolve get their Address filled in.
func (p *Prober) CheckResolvable(ctx context.Context, hosts []*config.Host) []*config.Host {
	var failed []*config.Host
	for _, h := range hosts {
		addrs, err := p.Resolver.LookupHost(ctx, h.Name)
		if err != nil || len(addrs) == 0 {
			h.LastErr = err
			p.Log.Error().Err(err).Str("host", h.Name).Msg("host does not resolve")
			failed = append(failed, h)
			continue
		}
		h.Address = addrs[0]
		p.Log.Debug().Str("host", h.Name).Str("address", h.Address).Msg("host resolves")
	}
	p.Log.Info().Int("errors", len(failed)).Msg("resolution check finished")
	return failed
}

// CheckReachable connects to every host and returns the unreachable subset.
func (p *Prober) CheckReachable(ctx context.Context, hosts []*config.Host) []*config.Host {
	var failed []*config.Host
	for _, h := range hosts {
		if err := p.Connect(ctx, h.Name); err != nil {
			h.LastErr = err
			p.Log.Error().Err(err).Str("host", h.Name).Msg("host is not reachable over SSH")
			failed = append(failed, h)
			continue
		}
		h.Reachable = true
		p.Log.Debug().Str("host", h.Name).Msg("host reachable")
	}
	p.Log.Info().Int("errors", len(failed)).Msg("reachability check finished")
	return failed
}

// CheckFilesystem verifies that the filesystem mounted at check.Path has
// the expected type. It returns nil on a match and a descriptive error
// otherwise.
func (p *Prober) CheckFilesystem(ctx context.Context, check config.MountCheck) error {
	res := p.Runner.Run(ctx, fmt.Sprintf(p.FstypeProbe, check.Path))
	if !res.Ok() {
		if res.Err != nil {
			return fmt.Errorf("probe filesystem of %s: %w", check.Path, res.Err)
		}
		return fmt.Errorf("probe filesystem of %s: %s", check.Path, res.Output())
	}

	fstype := strings.TrimSpace(string(res.Stdout))
	if fstype != check.Fstype {
		return fmt.Errorf("%s is %s, expected %s", check.Path, fstype, check.Fstype)
	}
	return nil
}

// CheckMounts runs CheckFilesystem for every check and returns the failing
// subset, logging each mismatch individually.
func (p *Prober) CheckMounts(ctx context.Context, checks []config.MountCheck) []config.MountCheck {
	var failed []config.MountCheck
	for _, check := range checks {
		if err := p.CheckFilesystem(ctx, check); err != nil {
			p.Log.Error().Err(err).Str("path", check.Path).Msg("filesystem check failed")
			failed = append(failed, check)
			continue
		}
		p.Log.Debug().Str("path", check.Path).Str("fstype", check.Fstype).Msg("filesystem check passed")
	}
	p.Log.Info().Int("errors", len(failed)).Msg("filesystem check finished")
	return failed
}
