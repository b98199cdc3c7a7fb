// Package config defines the deployment configuration and its YAML loader.
//
// A configuration is created once per deployment invocation, either from
// flags or from a deployment file, and is read-only for the pipeline's
// duration.
package config

import (
	"fmt"

	"github.com/maidsafe/sn-testnet-deploy/internal/codebase"
)

// CloudProvider identifies the cloud the testnet is deployed to. Digital
// Ocean is currently the only supported provider.
type CloudProvider int

const (
	// DigitalOcean is the default provider.
	DigitalOcean CloudProvider = iota
)

// String returns the provider identifier passed to playbooks.
func (p CloudProvider) String() string {
	return "digital-ocean"
}

// InventorySlug returns the provider segment used in inventory file names.
func (p CloudProvider) InventorySlug() string {
	return "digital_ocean"
}

// SSHUser returns the user the provider's images accept SSH connections for.
func (p CloudProvider) SSHUser() string {
	return "root"
}

// LogstashDetails names a logstash stack and the hosts nodes should ship
// their logs to.
type LogstashDetails struct {
	StackName string   `yaml:"stack_name"`
	Hosts     []string `yaml:"hosts"`
}

// EnvVar is a single environment variable injected into deployed node
// processes. Order is preserved from the configuration.
type EnvVar struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Config is the full configuration for one testnet deployment.
type Config struct {
	// Name namespaces every inventory file and the terraform workspace.
	Name string

	// NodeCount is the number of node processes started per node VM.
	NodeCount int

	// VMCount is the number of node VMs to provision.
	VMCount int

	// PublicRPC exposes the node RPC service publicly when true.
	PublicRPC bool

	// Logstash is the optional log shipping target.
	Logstash *LogstashDetails

	// EnvVariables are optional environment variables for node processes.
	EnvVariables []EnvVar

	// Provider is the cloud provider the testnet runs on.
	Provider CloudProvider

	// Codebase is the active codebase variant. Immutable once the
	// deployment begins.
	Codebase codebase.Codebase
}

// Validate checks the configuration for errors that would otherwise surface
// deep inside a pipeline stage.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.NodeCount <= 0 {
		return fmt.Errorf("node_count must be greater than zero")
	}
	if c.VMCount <= 0 {
		return fmt.Errorf("vm_count must be greater than zero")
	}
	if c.Codebase == nil {
		return fmt.Errorf("a codebase variant is required")
	}
	if c.Logstash != nil {
		if c.Logstash.StackName == "" {
			return fmt.Errorf("logstash stack_name is required when logstash is configured")
		}
		if len(c.Logstash.Hosts) == 0 {
			return fmt.Errorf("at least one logstash host is required when logstash is configured")
		}
	}
	for _, ev := range c.EnvVariables {
		if ev.Key == "" {
			return fmt.Errorf("environment variable keys cannot be empty")
		}
	}
	return nil
}
