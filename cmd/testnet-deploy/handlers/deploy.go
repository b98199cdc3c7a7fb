// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/maidsafe/sn-testnet-deploy/internal/ansible"
	"github.com/maidsafe/sn-testnet-deploy/internal/codebase"
	"github.com/maidsafe/sn-testnet-deploy/internal/config"
	"github.com/maidsafe/sn-testnet-deploy/internal/deploy"
	"github.com/maidsafe/sn-testnet-deploy/internal/sshclient"
	"github.com/maidsafe/sn-testnet-deploy/internal/terraform"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	newTerraformRunner = func(workingDir string) terraform.Runner {
		return terraform.NewCLIRunner("", workingDir)
	}

	newAnsibleRunner = func(workingDir string, verbose bool) ansible.Runner {
		return ansible.NewCLIRunner(workingDir, verbose)
	}

	newSSHClient = func(keyPath string) (sshclient.Client, error) {
		return sshclient.NewNetClient(keyPath)
	}

	newObserver = func() deploy.Observer {
		return deploy.NewConsoleObserver()
	}

	loadConfigFile = config.LoadFile
)

// DeployOptions carries the deploy command's flag values.
type DeployOptions struct {
	ConfigPath string

	Name      string
	NodeCount int
	VMCount   int
	PublicRPC bool

	RepoOwner string
	Branch    string
	Version   string
	Features  []string

	EnvVariables      []string
	LogstashStackName string
	LogstashHosts     []string

	TerraformDir   string
	AnsibleDir     string
	SSHKeyPath     string
	AnsibleVerbose bool
}

// Deploy runs the full deployment pipeline for a new testnet.
func Deploy(ctx context.Context, opts *DeployOptions) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	ssh, err := newSSHClient(opts.SSHKeyPath)
	if err != nil {
		return fmt.Errorf("failed to create ssh client: %w", err)
	}

	deployer := deploy.NewTestnetDeployer(
		cfg,
		newTerraformRunner(opts.TerraformDir),
		newAnsibleRunner(opts.AnsibleDir, opts.AnsibleVerbose),
		ssh,
		newObserver())

	return deployer.Execute(ctx)
}

// resolveConfig builds the deployment configuration from a file when
// --config was supplied, otherwise from the flag values.
func resolveConfig(opts *DeployOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return loadConfigFile(opts.ConfigPath)
	}

	cb, err := resolveCodebase(opts)
	if err != nil {
		return nil, err
	}

	envVars, err := parseEnvVariables(opts.EnvVariables)
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{
		Name:         opts.Name,
		NodeCount:    opts.NodeCount,
		VMCount:      opts.VMCount,
		PublicRPC:    opts.PublicRPC,
		EnvVariables: envVars,
		Provider:     config.DigitalOcean,
		Codebase:     cb,
	}
	if opts.LogstashStackName != "" || len(opts.LogstashHosts) > 0 {
		cfg.Logstash = &config.LogstashDetails{
			StackName: opts.LogstashStackName,
			Hosts:     opts.LogstashHosts,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveCodebase(opts *DeployOptions) (codebase.Codebase, error) {
	hasBranch := opts.RepoOwner != "" || opts.Branch != ""
	if hasBranch && opts.Version != "" {
		return nil, fmt.Errorf("--branch and --safenode-version cannot both be used")
	}

	if hasBranch {
		if opts.RepoOwner == "" || opts.Branch == "" {
			return nil, fmt.Errorf("--repo-owner and --branch must be used together")
		}
		return &codebase.Branch{
			RepoOwner: opts.RepoOwner,
			Branch:    opts.Branch,
			Features:  opts.Features,
		}, nil
	}

	if opts.Version != "" {
		if len(opts.Features) > 0 {
			return nil, fmt.Errorf("--features cannot be used with --safenode-version")
		}
		return &codebase.Versioned{Version: opts.Version}, nil
	}

	return &codebase.PreBuilt{Features: opts.Features}, nil
}

// parseEnvVariables parses KEY=VALUE pairs, preserving order.
func parseEnvVariables(pairs []string) ([]config.EnvVar, error) {
	var envVars []config.EnvVar
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid environment variable %q: expected KEY=VALUE", pair)
		}
		envVars = append(envVars, config.EnvVar{Key: key, Value: value})
	}
	return envVars, nil
}
