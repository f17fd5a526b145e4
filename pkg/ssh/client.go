// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/vmware/orchestrate/pkg/run"
)

// default constants
const (
	DefaultTimeout = 20 * time.Second
	DefaultPort    = 22
)

// Client represents ssh client.
type Client struct {
	*ssh.Client

	host string
}

type Config struct {
	User                 string
	Host                 string
	Port                 int
	Timeout              time.Duration
	Password             string
	PrivateKeyPath       string
	PrivateKeyPassphrase string

	// AcceptUnknownHosts appends keys of hosts missing from known_hosts
	// instead of failing the handshake. Freshly provisioned machines are
	// never in known_hosts, so rollouts enable this.
	AcceptUnknownHosts bool

	hostKeyCallBack ssh.HostKeyCallback
}

func (c *Config) SetHostKeyCallback(hostKeyCallBack ssh.HostKeyCallback) {
	c.hostKeyCallBack = hostKeyCallBack
}

// NewClient returns new ssh client and error if any. Missing user, port and
// key settings fall back to the invoking user's ssh_config.
func NewClient(config *Config) (*Client, error) {
	applySSHConfigDefaults(config)

	auth, err := configureAuth(config.Password, config.PrivateKeyPath, config.PrivateKeyPassphrase)
	if err != nil {
		return nil, errors.New("failed to configure auth: " + err.Error())
	}

	hostKeyCallback, err := configureHostKeyCallback(config.hostKeyCallBack, config.AcceptUnknownHosts)
	if err != nil {
		return nil, errors.New("failed to configure hostKeyCallBack: " + err.Error())
	}

	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}

	sshClient, err := ssh.Dial("tcp", net.JoinHostPort(config.Host, fmt.Sprint(config.Port)), &ssh.ClientConfig{
		User:            config.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         config.Timeout,
	})
	if err != nil {
		return nil, WrapConnectError(config.Host, err)
	}
	return &Client{Client: sshClient, host: config.Host}, nil
}

// Host returns the address this client is connected to.
func (c *Client) Host() string {
	return c.host
}

// Run starts a new SSH session and runs the command, capturing stdout and
// stderr separately. A non-zero remote exit status is reported through
// Result.ExitCode, not Result.Err. The context bounds the whole session;
// on cancellation the session is torn down and ctx's error is returned.
func (c *Client) Run(ctx context.Context, command string) *run.Result {
	res := &run.Result{Command: command}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	sess, err := c.NewSession()
	if err != nil {
		res.Err = fmt.Errorf("open session on %s: %w", c.host, err)
		return res
	}
	defer sess.Close()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- sess.Run(command)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		// Close unblocks sess.Run; the remote command may keep running.
		sess.Close()
		<-done
		res.Err = ctx.Err()
		return res
	}

	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()

	if err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitStatus()
		} else {
			res.Err = err
		}
	}
	return res
}

// CombinedOutput runs the command and returns interleaved stdout and stderr,
// mirroring the output a terminal user would see.
func (c *Client) CombinedOutput(ctx context.Context, command string) ([]byte, error) {
	res := c.Run(ctx, command)
	out := append(res.Stdout, res.Stderr...)
	if res.Err != nil {
		return out, res.Err
	}
	if res.ExitCode != 0 {
		return out, fmt.Errorf("command %q exited with status %d", command, res.ExitCode)
	}
	return out, nil
}

// Close client net connection.
func (c *Client) Close() error {
	return c.Client.Close()
}
