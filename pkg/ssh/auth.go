// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package ssh

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// Auth is the ordered list of methods offered during the SSH handshake.
type Auth []ssh.AuthMethod

// configureAuth picks the auth method from the settings. A password takes
// precedence over a private key.
func configureAuth(password, privateKeyFile, passphrase string) (Auth, error) {
	switch {
	case password != "":
		return Password(password), nil
	case privateKeyFile != "":
		return PrivateKey(privateKeyFile, passphrase)
	}
	return nil, fmt.Errorf("ssh auth is not configured, set a password or a private key")
}

// Password returns a password auth method.
func Password(pass string) Auth {
	return Auth{ssh.Password(pass)}
}

// PrivateKey returns a public key auth method backed by the key file,
// optionally passphrase protected.
func PrivateKey(keyFile, passphrase string) (Auth, error) {
	signer, err := loadSigner(keyFile, passphrase)
	if err != nil {
		return nil, err
	}
	return Auth{ssh.PublicKeys(signer)}, nil
}

func loadSigner(keyFile, passphrase string) (ssh.Signer, error) {
	data, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", keyFile, err)
	}
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	}
	return ssh.ParsePrivateKey(data)
}
