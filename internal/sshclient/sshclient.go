// Package sshclient provides the SSH reachability check and remote command
// execution used between pipeline stages.
//
// Freshly created droplets accept SSH some time after terraform reports
// them; the pipeline blocks on WaitForAvailability before running a playbook
// against a host for the first time.
//
// Security: host key verification is disabled. Testnet VMs are ephemeral and
// their host keys are generated at first boot.
package sshclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/maidsafe/sn-testnet-deploy/internal/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
	defaultMaxRetries  = 60
	defaultRetryDelay  = 5 * time.Second
	defaultMaxDelay    = 10 * time.Second
)

// ErrReachabilityTimeout reports that a host never became reachable over SSH
// within the retry budget.
var ErrReachabilityTimeout = errors.New("host did not become reachable over ssh")

// Client is the collaborator surface the pipelines use.
type Client interface {
	// WaitForAvailability blocks until the address accepts SSH connections
	// for the user, or the retry budget is exhausted.
	WaitForAvailability(ctx context.Context, addr, user string) error

	// RunCommand executes a command on the host and returns its combined
	// output.
	RunCommand(ctx context.Context, addr, user, command string) (string, error)
}

// NetClient implements Client over golang.org/x/crypto/ssh.
type NetClient struct {
	signer      ssh.Signer
	dialTimeout time.Duration
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
}

// NewNetClient creates a NetClient authenticating with the private key at
// keyPath.
func NewNetClient(keyPath string) (*NetClient, error) {
	// #nosec G304
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &NetClient{
		signer:      signer,
		dialTimeout: defaultDialTimeout,
		maxRetries:  defaultMaxRetries,
		retryDelay:  defaultRetryDelay,
		maxDelay:    defaultMaxDelay,
	}, nil
}

func (c *NetClient) clientConfig(user string) *ssh.ClientConfig {
	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // ephemeral testnet VMs
		Timeout:         c.dialTimeout,
	}
}

// WaitForAvailability implements Client.
func (c *NetClient) WaitForAvailability(ctx context.Context, addr, user string) error {
	cfg := c.clientConfig(user)
	err := retry.Do(ctx, func() error {
		client, err := ssh.Dial("tcp", net.JoinHostPort(addr, fmt.Sprint(defaultPort)), cfg)
		if err != nil {
			return err
		}
		return client.Close()
	},
		retry.WithMaxRetries(c.maxRetries),
		retry.WithInitialDelay(c.retryDelay),
		retry.WithMaxDelay(c.maxDelay))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReachabilityTimeout, addr, err)
	}
	return nil
}

// RunCommand implements Client.
func (c *NetClient) RunCommand(ctx context.Context, addr, user, command string) (string, error) {
	cfg := c.clientConfig(user)

	var client *ssh.Client
	err := retry.Do(ctx, func() error {
		var dialErr error
		client, dialErr = ssh.Dial("tcp", net.JoinHostPort(addr, fmt.Sprint(defaultPort)), cfg)
		return dialErr
	}, retry.WithMaxRetries(3), retry.WithInitialDelay(c.retryDelay))
	if err != nil {
		return "", fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	output, err := session.CombinedOutput(command)
	if err != nil {
		return string(output), fmt.Errorf("failed to execute command: %w, output: %s", err, output)
	}
	return string(output), nil
}
