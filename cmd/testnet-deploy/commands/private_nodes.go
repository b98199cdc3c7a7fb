package commands

import (
	"github.com/spf13/cobra"

	"github.com/maidsafe/sn-testnet-deploy/cmd/testnet-deploy/handlers"
)

// PrivateNodes returns the command for adding a NAT gateway and a cohort of
// private nodes to an existing deployment.
func PrivateNodes() *cobra.Command {
	var opts handlers.PrivateNodesOptions

	cmd := &cobra.Command{
		Use:   "private-nodes",
		Short: "Add a NAT gateway and private nodes to an existing testnet",
		Long: `Add a NAT gateway and private nodes to an existing testnet.

Updates the deployment's infrastructure to include a NAT gateway, selects
the last node VM to host the private nodes, and provisions nodes that are
reachable only through the gateway.

Examples:
  # Add private nodes to the beta testnet
  testnet-deploy private-nodes --name beta

  # Add private nodes to a bootstrapped staging deployment
  testnet-deploy private-nodes --name beta --bootstrap --environment staging`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.PrivateNodes(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "Name of the testnet")
	cmd.Flags().BoolVar(&opts.Bootstrap, "bootstrap", false, "The deployment was bootstrapped from an existing network")
	cmd.Flags().StringVar(&opts.Environment, "environment", "development", "Environment type: development, staging or production")
	cmd.Flags().StringVar(&opts.TerraformDir, "terraform-dir", "terraform/testnet", "Directory holding the terraform configuration")
	cmd.Flags().StringVar(&opts.AnsibleDir, "ansible-dir", "ansible", "Directory holding the playbooks and inventory")
	cmd.Flags().StringVar(&opts.SSHKeyPath, "ssh-key-path", "", "Path to the SSH private key for the provisioned VMs")
	cmd.Flags().BoolVar(&opts.AnsibleVerbose, "ansible-verbose", false, "Run ansible with verbose output")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("ssh-key-path")

	return cmd
}
