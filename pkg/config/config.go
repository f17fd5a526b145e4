// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

const DefaultConfigFilename = "orchestrate.yaml"

// Settings is the full configuration of a rollout, loaded from an optional
// YAML file. Every field has a usable default so the tool runs with no
// config file at all.
type Settings struct {
	SSH      SSHSettings     `json:"ssh"`
	Mounts   MountSettings   `json:"mounts"`
	Files    FileSettings    `json:"files"`
	Commands CommandSettings `json:"commands"`
	Rollout  RolloutSettings `json:"rollout"`
}

// SSHSettings carries the credentials used to reach every host. Empty user,
// port and key fields fall back to the invoking user's ssh_config.
type SSHSettings struct {
	User               string `json:"user,omitempty"`
	Port               int    `json:"port,omitempty" validate:"min=0,max=65535"`
	Password           string `json:"password,omitempty"`
	PrivateKey         string `json:"private_key,omitempty"`
	Passphrase         string `json:"passphrase,omitempty"`
	AcceptUnknownHosts bool   `json:"accept_unknown_hosts,omitempty"`
}

// MountCheck names a mount point and the filesystem type it must carry.
type MountCheck struct {
	Path   string `json:"path" validate:"required"`
	Fstype string `json:"fstype" validate:"required"`
}

// MountSettings lists the filesystem prerequisites per role.
type MountSettings struct {
	Master []MountCheck `json:"master" validate:"min=1,dive"`
	Remote MountCheck   `json:"remote"`
}

// FileSettings names the service configuration files mutated during the
// configure phase.
type FileSettings struct {
	ServiceConfig  string `json:"service_config" validate:"required"`
	RegistryConfig string `json:"registry_config" validate:"required"`

	// RemoteLog is the log file fetched from a remote host after a failed
	// provision attempt. Empty disables the fetch.
	RemoteLog string `json:"remote_log,omitempty"`

	// FeatureFlags are the boolean keys rewritten in the service config
	// when a host becomes the master.
	FeatureFlags map[string]bool `json:"feature_flags,omitempty"`
}

// CommandSettings holds the opaque external commands the orchestrator
// sequences. Package managers, init systems and mount inspectors stay
// behind these strings.
type CommandSettings struct {
	Install        string `json:"install" validate:"required"`
	RestartRuntime string `json:"restart_runtime" validate:"required"`
	RestartService string `json:"restart_service" validate:"required"`
	FstypeProbe    string `json:"fstype_probe" validate:"required"`

	// RemoteTool is where the orchestrate binary lives (or is uploaded to)
	// on remote hosts for the fan-out step.
	RemoteTool string `json:"remote_tool" validate:"required"`
}

// RolloutSettings bounds the install fan-out.
type RolloutSettings struct {
	Concurrency      int `json:"concurrency" validate:"min=1"`
	ActionTimeoutSec int `json:"action_timeout_sec" validate:"min=1"`
}

// Defaults returns the settings used when no config file is present.
func Defaults() *Settings {
	return &Settings{
		Mounts: MountSettings{
			Master: []MountCheck{
				{Path: "/var/lib/containers", Fstype: "btrfs"},
				{Path: "/var/lib/cluster", Fstype: "btrfs"},
			},
			Remote: MountCheck{Path: "/var/lib/containers", Fstype: "btrfs"},
		},
		Files: FileSettings{
			ServiceConfig:  "/etc/sysconfig/cluster",
			RegistryConfig: "/etc/sysconfig/registry",
			RemoteLog:      "/root/orchestrate/orchestrate.log",
			FeatureFlags: map[string]bool{
				"local_registry":      true,
				"distributed_storage": true,
			},
		},
		Commands: CommandSettings{
			Install:        "/usr/share/cluster/install.sh",
			RestartRuntime: "systemctl restart container-runtime",
			RestartService: "systemctl restart cluster",
			FstypeProbe:    "findmnt -n -o FSTYPE --target %s",
			RemoteTool:     "/usr/local/bin/orchestrate",
		},
		Rollout: RolloutSettings{
			Concurrency:      10,
			ActionTimeoutSec: 600,
		},
	}
}

// Load reads settings from path, layered over the defaults. A missing file
// is only an error when the path was set explicitly.
func Load(path string) (*Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultConfigFilename {
			return settings, settings.Validate()
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.UnmarshalStrict(data, settings); err != nil {
		return nil, fmt.Errorf("unmarshal config file %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return settings, nil
}

// Validate checks the settings against their struct constraints.
func (s *Settings) Validate() error {
	return validator.New().Struct(s)
}
