package commands

import (
	"github.com/spf13/cobra"

	"github.com/maidsafe/sn-testnet-deploy/cmd/testnet-deploy/handlers"
)

// Deploy returns the command for deploying a new testnet.
//
// The codebase variant is selected through mutually exclusive flags: a
// branch build (--repo-owner/--branch), a fixed version (--safenode-version),
// or neither for the latest pre-built release. Supplying --features with the
// pre-built variant forces a custom build.
func Deploy() *cobra.Command {
	var opts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a new testnet",
		Long: `Deploy a new testnet.

Creates the virtual machine topology with terraform, then provisions each
role with ansible: an optional custom binary build, the genesis node, the
remaining nodes, the faucet, and the RPC client.

Examples:
  # Deploy a 10 VM testnet named beta using the latest released binaries
  testnet-deploy deploy --name beta

  # Deploy from a branch build
  testnet-deploy deploy --name beta --repo-owner jacderida --branch custom-ports

  # Deploy a fixed safenode version
  testnet-deploy deploy --name beta --safenode-version 0.93.7`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Path to a deployment YAML file (flags are ignored when set)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Name of the testnet")
	cmd.Flags().IntVar(&opts.NodeCount, "node-count", 20, "Number of node processes per node VM")
	cmd.Flags().IntVar(&opts.VMCount, "vm-count", 10, "Number of node VMs to provision")
	cmd.Flags().BoolVar(&opts.PublicRPC, "public-rpc", false, "Expose the node RPC service publicly")
	cmd.Flags().StringVar(&opts.RepoOwner, "repo-owner", "", "Repository owner for a branch deployment")
	cmd.Flags().StringVar(&opts.Branch, "branch", "", "Branch for a branch deployment")
	cmd.Flags().StringVar(&opts.Version, "safenode-version", "", "Deploy a fixed safenode version")
	cmd.Flags().StringSliceVar(&opts.Features, "features", nil, "safenode feature flags (forces a custom build)")
	cmd.Flags().StringSliceVar(&opts.EnvVariables, "env", nil, "KEY=VALUE environment variables for node processes")
	cmd.Flags().StringVar(&opts.LogstashStackName, "logstash-stack-name", "", "Name of the logstash stack to ship logs to")
	cmd.Flags().StringSliceVar(&opts.LogstashHosts, "logstash-hosts", nil, "Logstash host addresses")
	cmd.Flags().StringVar(&opts.TerraformDir, "terraform-dir", "terraform/testnet", "Directory holding the terraform configuration")
	cmd.Flags().StringVar(&opts.AnsibleDir, "ansible-dir", "ansible", "Directory holding the playbooks and inventory")
	cmd.Flags().StringVar(&opts.SSHKeyPath, "ssh-key-path", "", "Path to the SSH private key for the provisioned VMs")
	cmd.Flags().BoolVar(&opts.AnsibleVerbose, "ansible-verbose", false, "Run ansible with verbose output")

	_ = cmd.MarkFlagRequired("ssh-key-path")

	return cmd
}
