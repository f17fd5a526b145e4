// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package ssh

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sshconfig "github.com/kevinburke/ssh_config"
)

// applySSHConfigDefaults fills empty User, Port and PrivateKeyPath fields
// from the invoking user's ~/.ssh/config, so hosts already set up for
// passwordless access need no duplicated settings in orchestrate's config.
func applySSHConfigDefaults(c *Config) {
	if c.Host == "" {
		return
	}

	if c.User == "" {
		c.User = sshconfig.Get(c.Host, "User")
	}

	if c.Port == 0 {
		if port := sshconfig.Get(c.Host, "Port"); port != "" {
			if n, err := strconv.Atoi(port); err == nil {
				c.Port = n
			}
		}
	}

	if c.PrivateKeyPath == "" && c.Password == "" {
		if identity := sshconfig.Get(c.Host, "IdentityFile"); identity != "" {
			if expanded, err := expandTilde(identity); err == nil {
				if _, err := os.Stat(expanded); err == nil {
					c.PrivateKeyPath = expanded
				}
			}
		}
	}
}

func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
