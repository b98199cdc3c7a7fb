package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/maidsafe/sn-testnet-deploy/internal/codebase"
)

// fileConfig mirrors the deployment file schema. The codebase variant is
// expressed through the mutually exclusive branch/version/features keys and
// resolved to a codebase.Codebase during load.
type fileConfig struct {
	Name      string `yaml:"name"`
	NodeCount int    `yaml:"node_count"`
	VMCount   int    `yaml:"vm_count"`
	PublicRPC bool   `yaml:"public_rpc"`

	Branch *struct {
		RepoOwner string `yaml:"repo_owner"`
		Branch    string `yaml:"branch"`
	} `yaml:"branch"`
	Version  string   `yaml:"version"`
	Features []string `yaml:"features"`

	EnvVariables []EnvVar         `yaml:"env_variables"`
	Logstash     *LogstashDetails `yaml:"logstash"`
}

// LoadFile reads and parses a deployment configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment file: %w", err)
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cb, err := resolveCodebase(&raw)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Name:         raw.Name,
		NodeCount:    raw.NodeCount,
		VMCount:      raw.VMCount,
		PublicRPC:    raw.PublicRPC,
		Logstash:     raw.Logstash,
		EnvVariables: raw.EnvVariables,
		Provider:     DigitalOcean,
		Codebase:     cb,
	}

	// Defaults
	if cfg.NodeCount == 0 {
		cfg.NodeCount = 20
	}
	if cfg.VMCount == 0 {
		cfg.VMCount = 10
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// resolveCodebase builds the codebase variant from the file's branch,
// version and features keys. Branch and version are mutually exclusive;
// features cannot be combined with a fixed version because versioned
// deployments never build.
func resolveCodebase(raw *fileConfig) (codebase.Codebase, error) {
	if raw.Branch != nil && raw.Version != "" {
		return nil, fmt.Errorf("branch and version cannot both be specified")
	}

	if raw.Branch != nil {
		if raw.Branch.RepoOwner == "" || raw.Branch.Branch == "" {
			return nil, fmt.Errorf("branch requires both repo_owner and branch")
		}
		return &codebase.Branch{
			RepoOwner: raw.Branch.RepoOwner,
			Branch:    raw.Branch.Branch,
			Features:  raw.Features,
		}, nil
	}

	if raw.Version != "" {
		if len(raw.Features) > 0 {
			return nil, fmt.Errorf("features cannot be used with a versioned deployment")
		}
		return &codebase.Versioned{Version: raw.Version}, nil
	}

	return &codebase.PreBuilt{Features: raw.Features}, nil
}
