// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultKnownHostsPath returns default user known hosts file.
func DefaultKnownHostsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".ssh", "known_hosts"), nil
}

// DefaultKnownHosts returns a strict host key callback backed by the
// default known_hosts file, creating the file first when missing.
func DefaultKnownHosts() (ssh.HostKeyCallback, error) {
	path, err := DefaultKnownHostsPath()
	if err != nil {
		return nil, err
	}
	if err := ensureKnownHostsFile(path); err != nil {
		return nil, err
	}
	return knownhosts.New(path)
}

// configureHostKeyCallback returns a strict known_hosts callback by default.
// With acceptUnknown set, keys of hosts missing from known_hosts are
// recorded and accepted; a key that is present but different still fails.
func configureHostKeyCallback(hostKeyCallback ssh.HostKeyCallback, acceptUnknown bool) (ssh.HostKeyCallback, error) {
	if hostKeyCallback != nil {
		return hostKeyCallback, nil
	}

	if acceptUnknown {
		path, err := DefaultKnownHostsPath()
		if err != nil {
			return nil, err
		}
		return AcceptUnknownHostKeyCallback(path)
	}

	return DefaultKnownHosts()
}

// AcceptUnknownHostKeyCallback creates a host key callback that records
// host keys it has never seen and accepts them. Keys that are present in
// the known_hosts file but do not match are rejected, preserving detection
// of changed keys on previously provisioned hosts.
func AcceptUnknownHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if err := ensureKnownHostsFile(knownHostsPath); err != nil {
		return nil, fmt.Errorf("failed to ensure known_hosts file exists: %w", err)
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		// Fresh callback per attempt so newly appended keys are picked up.
		verify, err := knownhosts.New(knownHostsPath)
		if err != nil {
			return fmt.Errorf("failed to load known_hosts: %w", err)
		}

		err = verify(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			// Unknown host, record it.
			return addHostKeyToKnownHosts(hostname, remote, key, knownHostsPath)
		}

		// Changed key or other verification failure.
		return err
	}, nil
}

// addHostKeyToKnownHosts appends a host key entry to the known_hosts file.
func addHostKeyToKnownHosts(hostname string, remote net.Addr, key ssh.PublicKey, knownHostsPath string) error {
	file, err := os.OpenFile(knownHostsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts file: %w", err)
	}
	defer file.Close()

	addresses := []string{hostname}
	if tcpAddr, ok := remote.(*net.TCPAddr); ok {
		if tcpAddr.IP.String() != hostname {
			addresses = append(addresses, tcpAddr.IP.String())
		}
	}

	entry := knownhosts.Line(addresses, key)
	if _, err := file.WriteString(entry + "\n"); err != nil {
		return fmt.Errorf("failed to write to known_hosts file: %w", err)
	}

	return nil
}

// ensureKnownHostsFile ensures the known_hosts file and its directory exist.
func ensureKnownHostsFile(knownHostsPath string) error {
	dir := filepath.Dir(knownHostsPath)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create .ssh directory: %w", err)
	}

	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		file, err := os.Create(knownHostsPath)
		if err != nil {
			return fmt.Errorf("failed to create known_hosts file: %w", err)
		}
		file.Close()

		if err := os.Chmod(knownHostsPath, 0o600); err != nil {
			return fmt.Errorf("failed to set known_hosts file permissions: %w", err)
		}
	}

	return nil
}
