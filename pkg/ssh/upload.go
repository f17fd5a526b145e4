// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
)

// newSftp returns new sftp client and error if any.
func (c *Client) newSftp(opts ...sftp.ClientOption) (*sftp.Client, error) {
	return sftp.NewClient(c.Client, opts...)
}

// makeTempPath generates a temporary file location on the remote host.
func makeTempPath(basePath string) string {
	return filepath.Join("/tmp", fmt.Sprintf("orchestrate_%d_%s", time.Now().UnixNano(), filepath.Base(basePath)))
}

// Upload copies a local file to the remote host, preserving its mode. On
// permission denied the file is staged in /tmp and moved with sudo.
func (c *Client) Upload(localPath string, remotePath string) (err error) {
	local, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer local.Close()

	localFileInfo, err := local.Stat()
	if err != nil {
		return err
	}

	if err := c.sftpUpload(local, remotePath, localFileInfo.Mode()); err != nil {
		if isPermissionDenied(err) {
			return c.sudoUpload(localPath, remotePath, localFileInfo)
		}
		return err
	}

	return nil
}

func (c *Client) sftpUpload(local *os.File, remotePath string, mode os.FileMode) error {
	if _, err := local.Seek(0, 0); err != nil {
		return err
	}

	ftp, err := c.newSftp()
	if err != nil {
		return err
	}
	defer ftp.Close()

	remote, err := ftp.Create(remotePath)
	if err != nil {
		return err
	}
	defer remote.Close()

	if _, err = io.Copy(remote, local); err != nil {
		return err
	}

	return remote.Chmod(mode)
}

func (c *Client) sudoUpload(localPath string, remotePath string, info os.FileInfo) error {
	// Stage in /tmp first, then use sudo to move the file into place and
	// restore its permissions.
	tempPath := makeTempPath(localPath)
	ctx := context.Background()

	local, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer local.Close()

	if err := c.sftpUpload(local, tempPath, info.Mode()); err != nil {
		return fmt.Errorf("failed to upload to temp path %s: %w", tempPath, err)
	}
	defer c.Run(ctx, fmt.Sprintf("sudo rm -f %s", tempPath))

	if out, err := c.CombinedOutput(ctx, fmt.Sprintf("sudo mv %s %s", tempPath, remotePath)); err != nil {
		return fmt.Errorf("failed to sudo mv to %s on %s: %w: %s", remotePath, c.Host(), err, out)
	}

	if out, err := c.CombinedOutput(ctx, fmt.Sprintf("sudo chmod %o %s", info.Mode().Perm(), remotePath)); err != nil {
		return fmt.Errorf("failed to sudo chmod %s on %s: %w: %s", remotePath, c.Host(), err, out)
	}

	return nil
}

// Download copies a file from the remote host, preserving its mode. On
// permission denied the file is staged in /tmp with sudo first.
func (c *Client) Download(remotePath string, localPath string) (err error) {
	if err := c.sftpDownload(remotePath, localPath); err != nil {
		if isPermissionDenied(err) {
			return c.sudoDownload(remotePath, localPath)
		}
		return err
	}
	return nil
}

func (c *Client) sftpDownload(remotePath string, localPath string) error {
	local, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer local.Close()

	ftp, err := c.newSftp()
	if err != nil {
		return err
	}
	defer ftp.Close()

	remote, err := ftp.Open(remotePath)
	if err != nil {
		return err
	}
	defer remote.Close()

	remoteFileInfo, err := remote.Stat()
	if err != nil {
		return err
	}

	if _, err = io.Copy(local, remote); err != nil {
		return err
	}

	if err := local.Chmod(remoteFileInfo.Mode()); err != nil {
		return err
	}

	return local.Sync()
}

func (c *Client) sudoDownload(remotePath string, localPath string) error {
	tempPath := makeTempPath(remotePath)
	ctx := context.Background()

	if out, err := c.CombinedOutput(ctx, fmt.Sprintf("sudo cp -p %s %s", remotePath, tempPath)); err != nil {
		return fmt.Errorf("failed to sudo cp to %s on %s: %w: %s", tempPath, c.Host(), err, out)
	}
	defer c.Run(ctx, fmt.Sprintf("sudo rm -f %s", tempPath))

	if out, err := c.CombinedOutput(ctx, fmt.Sprintf("sudo chown %s %s", c.Client.User(), tempPath)); err != nil {
		return fmt.Errorf("failed to sudo chown %s on %s: %w: %s", tempPath, c.Host(), err, out)
	}

	return c.sftpDownload(tempPath, localPath)
}

func isPermissionDenied(err error) bool {
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	var statusErr *sftp.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == uint32(sftp.ErrSshFxPermissionDenied) {
			return true
		}
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "permission denied") || strings.Contains(errMsg, "ssh_fx_permission_denied")
}
