package handlers

import (
	"context"
	"fmt"

	"github.com/maidsafe/sn-testnet-deploy/internal/codebase"
	"github.com/maidsafe/sn-testnet-deploy/internal/config"
	"github.com/maidsafe/sn-testnet-deploy/internal/deploy"
	"github.com/maidsafe/sn-testnet-deploy/internal/inventory"
)

// PrivateNodesOptions carries the private-nodes command's flag values.
type PrivateNodesOptions struct {
	Name        string
	Bootstrap   bool
	Environment string

	TerraformDir   string
	AnsibleDir     string
	SSHKeyPath     string
	AnsibleVerbose bool
}

// PrivateNodes runs the private-node sub-pipeline against an existing
// deployment: it snapshots the current inventory, then adds a NAT gateway
// and a cohort of private nodes behind it.
func PrivateNodes(ctx context.Context, opts *PrivateNodesOptions) error {
	environmentType, err := inventory.ParseEnvironmentType(opts.Environment)
	if err != nil {
		return err
	}
	deploymentType := inventory.New
	if opts.Bootstrap {
		deploymentType = inventory.Bootstrap
	}

	ssh, err := newSSHClient(opts.SSHKeyPath)
	if err != nil {
		return fmt.Errorf("failed to create ssh client: %w", err)
	}

	// The sub-pipeline re-applies the existing topology rather than sizing a
	// new one, so only the deployment name matters here; the counts are
	// taken from the inventory snapshot.
	cfg := &config.Config{
		Name:      opts.Name,
		NodeCount: 1,
		VMCount:   1,
		Provider:  config.DigitalOcean,
		Codebase:  &codebase.PreBuilt{},
	}

	deployer := deploy.NewTestnetDeployer(
		cfg,
		newTerraformRunner(opts.TerraformDir),
		newAnsibleRunner(opts.AnsibleDir, opts.AnsibleVerbose),
		ssh,
		newObserver())

	snapshot, err := deployer.FetchInventorySnapshot(ctx, inventory.EnvironmentDetails{
		DeploymentType:  deploymentType,
		EnvironmentType: environmentType,
	})
	if err != nil {
		return err
	}

	return deployer.SetupPrivateNodes(ctx, &deploy.PrivateNodeOptions{
		CurrentInventory: snapshot,
	})
}
