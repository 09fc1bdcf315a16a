package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// Exported variables.
var (
	ErrNoAuthMethods = errors.New("no SSH authentication methods available (tried password, SSH agent and default keys)")
)

// SFTPTarget identifies the account an SFTP session is opened for.
type SFTPTarget struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Address returns host:port suitable for net.Dial.
func (t SFTPTarget) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// SFTPConnection holds an active SSH/SFTP connection.
type SFTPConnection struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client
	target     SFTPTarget
}

// Dial establishes an SSH connection and opens an SFTP session. The TCP dial and the SSH
// handshake are both bounded by timeout; ctx cancels the dial.
func Dial(ctx context.Context, target SFTPTarget, timeout time.Duration) (*SFTPConnection, error) {
	authMethods := sshAuthMethods(target.Password)
	if len(authMethods) == 0 {
		return nil, ErrNoAuthMethods
	}

	config := &ssh.ClientConfig{
		User: target.User,
		Auth: authMethods,
		// Host keys are not verified or persisted. Mirrors the native client's
		// StrictHostKeyChecking=no, and carries the same MITM exposure.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // host-key verification is out of scope
		Timeout:         timeout,
	}

	dialCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dialer := &net.Dialer{Timeout: timeout}

	netConn, err := dialer.DialContext(dialCtx, "tcp", target.Address())
	if err != nil {
		return nil, fmt.Errorf("SSH connection failed: %w", err)
	}

	if timeout > 0 {
		_ = netConn.SetDeadline(time.Now().Add(timeout))
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(netConn, target.Address(), config)
	if err != nil {
		_ = netConn.Close()
		return nil, fmt.Errorf("SSH handshake failed: %w", err)
	}

	// Handshake done; session traffic is not bounded.
	_ = netConn.SetDeadline(time.Time{})

	sshClient := ssh.NewClient(clientConn, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("SFTP session creation failed: %w", err)
	}

	return &SFTPConnection{
		sshClient:  sshClient,
		sftpClient: sftpClient,
		target:     target,
	}, nil
}

// Client returns the underlying SFTP client.
func (c *SFTPConnection) Client() *sftp.Client {
	return c.sftpClient
}

// Close closes the SFTP session and SSH connection.
func (c *SFTPConnection) Close() error {
	var firstErr error

	if c.sftpClient != nil {
		if err := c.sftpClient.Close(); err != nil && firstErr == nil { //nolint:noinlineerr // close-all pattern
			firstErr = err
		}
	}

	if c.sshClient != nil {
		if err := c.sshClient.Close(); err != nil && firstErr == nil { //nolint:noinlineerr // close-all pattern
			firstErr = err
		}
	}

	return firstErr
}

// ReadDir lists a remote directory.
func (c *SFTPConnection) ReadDir(remotePath string) ([]os.FileInfo, error) {
	infos, err := c.sftpClient.ReadDir(remotePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read remote directory %s: %w", remotePath, err)
	}

	return infos, nil
}

// Stat returns file information for a remote path.
func (c *SFTPConnection) Stat(remotePath string) (os.FileInfo, error) {
	info, err := c.sftpClient.Stat(remotePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat remote %s: %w", remotePath, err)
	}

	return info, nil
}

// Target returns the account this connection was opened for.
func (c *SFTPConnection) Target() SFTPTarget {
	return c.target
}

// sshAuthMethods returns SSH authentication methods in priority order:
// 1. Password and keyboard-interactive (when a password is known)
// 2. SSH agent
// 3. Default SSH keys
func sshAuthMethods(password string) []ssh.AuthMethod {
	var authMethods []ssh.AuthMethod

	if password != "" {
		authMethods = append(authMethods,
			ssh.Password(password),
			ssh.KeyboardInteractive(passwordChallenge(password)),
		)
	}

	if agentAuth := trySSHAgent(); agentAuth != nil {
		authMethods = append(authMethods, agentAuth)
	}

	authMethods = append(authMethods, tryDefaultSSHKeys()...)

	return authMethods
}

// passwordChallenge answers every keyboard-interactive prompt with the password.
func passwordChallenge(password string) ssh.KeyboardInteractiveChallenge {
	return func(_, _ string, questions []string, _ []bool) ([]string, error) {
		answers := make([]string, len(questions))
		for i := range answers {
			answers[i] = password
		}

		return answers, nil
	}
}

// trySSHAgent attempts to connect to the SSH agent.
func trySSHAgent() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}

	agentClient := agent.NewClient(conn)

	return ssh.PublicKeysCallback(agentClient.Signers)
}

// tryDefaultSSHKeys loads unencrypted SSH keys from the default locations.
func tryDefaultSSHKeys() []ssh.AuthMethod {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	sshDir := filepath.Join(homeDir, ".ssh")

	keyFiles := []string{
		filepath.Join(sshDir, "id_ed25519"),
		filepath.Join(sshDir, "id_rsa"),
		filepath.Join(sshDir, "id_ecdsa"),
	}

	var authMethods []ssh.AuthMethod

	for _, keyPath := range keyFiles {
		keyData, err := os.ReadFile(keyPath) // #nosec G304 - fixed key locations
		if err != nil {
			continue
		}

		// Encrypted keys fail to parse and are skipped.
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			continue
		}

		authMethods = append(authMethods, ssh.PublicKeys(signer))
	}

	return authMethods
}
