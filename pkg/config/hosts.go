// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package config

import (
	"fmt"
	"strings"
)

// Role says whether a host is provisioned as the cluster coordinator or as
// a worker.
type Role string

const (
	RoleMaster Role = "master"
	RoleRemote Role = "remote"
)

// Host is one target machine of the rollout. Address, Reachable and
// LastErr are filled in as probes and actions run.
type Host struct {
	Name    string
	Role    Role
	Address string

	Reachable bool
	LastErr   error
}

// ShortName returns the host name with any domain suffix stripped, the form
// services bind to locally.
func (h *Host) ShortName() string {
	name, _, _ := strings.Cut(h.Name, ".")
	return name
}

func (h *Host) String() string {
	return fmt.Sprintf("%s (%s)", h.Name, h.Role)
}

// Cluster groups the hosts of one rollout invocation.
type Cluster struct {
	Master  *Host
	Remotes []*Host
}

// NewCluster builds a Cluster from the positional CLI arguments: the master
// host followed by at least one remote host.
func NewCluster(args []string) (*Cluster, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("need a master host and at least one remote host, got %d argument(s)", len(args))
	}

	seen := map[string]bool{args[0]: true}
	c := &Cluster{
		Master: &Host{Name: args[0], Role: RoleMaster},
	}
	for _, name := range args[1:] {
		if seen[name] {
			return nil, fmt.Errorf("host %s listed more than once", name)
		}
		seen[name] = true
		c.Remotes = append(c.Remotes, &Host{Name: name, Role: RoleRemote})
	}
	return c, nil
}

// All returns the master followed by every remote.
func (c *Cluster) All() []*Host {
	hosts := make([]*Host, 0, len(c.Remotes)+1)
	hosts = append(hosts, c.Master)
	return append(hosts, c.Remotes...)
}

// Names returns the names of the given hosts, preserving order.
func Names(hosts []*Host) []string {
	names := make([]string, len(hosts))
	for i, h := range hosts {
		names[i] = h.Name
	}
	return names
}
