package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/maidsafe/sn-testnet-deploy/internal/ansible"
	"github.com/maidsafe/sn-testnet-deploy/internal/codebase"
	"github.com/maidsafe/sn-testnet-deploy/internal/config"
	"github.com/maidsafe/sn-testnet-deploy/internal/extravars"
	"github.com/maidsafe/sn-testnet-deploy/internal/inventory"
	"github.com/maidsafe/sn-testnet-deploy/internal/sshclient"
	"github.com/maidsafe/sn-testnet-deploy/internal/terraform"
)

// Playbook file names, relative to the ansible working directory.
const (
	playbookBuild        = "build.yml"
	playbookGenesisNode  = "genesis_node.yml"
	playbookNodes        = "nodes.yml"
	playbookFaucet       = "faucet.yml"
	playbookRPCClient    = "safenode_rpc_client.yml"
	playbookNatGateway   = "nat_gateway.yml"
	playbookPrivateNodes = "private_nodes.yml"
)

// genesisMultiaddrCommand reads the genesis node's listen address from the
// node manager's registry on the host.
const genesisMultiaddrCommand = `jq -r '.nodes[0].listen_addr[0]' /var/safenode-manager/node_registry.json`

// TestnetDeployer sequences and parameterises calls into the terraform and
// ansible collaborators. It holds no mutable state of its own; inventory
// data is fetched fresh from the collaborators between stages.
type TestnetDeployer struct {
	cfg       *config.Config
	terraform terraform.Runner
	ansible   ansible.Runner
	ssh       sshclient.Client
	observer  Observer
	vars      *extravars.Builder
}

// NewTestnetDeployer creates a deployer for the given configuration and
// collaborators.
func NewTestnetDeployer(
	cfg *config.Config,
	tf terraform.Runner,
	ans ansible.Runner,
	ssh sshclient.Client,
	observer Observer,
) *TestnetDeployer {
	return &TestnetDeployer{
		cfg:       cfg,
		terraform: tf,
		ansible:   ans,
		ssh:       ssh,
		observer:  observer,
		vars:      extravars.NewBuilder(cfg),
	}
}

// inventoryFile returns the inventory file path for a role group of this
// deployment.
func (d *TestnetDeployer) inventoryFile(t inventory.Type) string {
	return t.InventoryFile(d.cfg.Name, d.cfg.Provider.InventorySlug())
}

// firstHost resolves the single host of a role group, refreshing the
// inventory.
func (d *TestnetDeployer) firstHost(ctx context.Context, t inventory.Type) (inventory.VirtualMachine, error) {
	vms, err := d.ansible.InventoryList(ctx, d.inventoryFile(t), true)
	if err != nil {
		return inventory.VirtualMachine{}, err
	}
	if len(vms) == 0 {
		return inventory.VirtualMachine{}, &inventory.EmptyInventoryError{Type: t}
	}
	return vms[0], nil
}

// GetGenesisMultiaddr queries the provisioned genesis host for its network
// multiaddress. Every stage after genesis provisioning depends on this
// value.
func (d *TestnetDeployer) GetGenesisMultiaddr(ctx context.Context) (string, string, error) {
	genesis, err := d.firstHost(ctx, inventory.Genesis)
	if err != nil {
		return "", "", err
	}

	output, err := d.ssh.RunCommand(ctx, genesis.PublicIP, d.cfg.Provider.SSHUser(), genesisMultiaddrCommand)
	if err != nil {
		return "", "", fmt.Errorf("failed to query genesis node for its multiaddr: %w", err)
	}

	multiaddr := strings.TrimSpace(output)
	if multiaddr == "" || multiaddr == "null" {
		return "", "", fmt.Errorf("genesis node at %s reported no listen address", genesis.PublicIP)
	}
	return multiaddr, genesis.PublicIP, nil
}

// FetchInventorySnapshot lists every role group and assembles a point-in-time
// snapshot of the deployment. The private-node sub-pipeline starts from this
// snapshot rather than discovering hosts per stage.
func (d *TestnetDeployer) FetchInventorySnapshot(ctx context.Context, details inventory.EnvironmentDetails) (inventory.DeploymentInventory, error) {
	snapshot := inventory.DeploymentInventory{
		Name:               d.cfg.Name,
		EnvironmentDetails: details,
	}

	groups := []struct {
		invType inventory.Type
		dest    *[]inventory.VirtualMachine
	}{
		{inventory.Auditor, &snapshot.AuditorVMs},
		{inventory.BootstrapNodes, &snapshot.BootstrapNodeVMs},
		{inventory.Build, &snapshot.BuildVMs},
		{inventory.Genesis, &snapshot.GenesisVMs},
		{inventory.Nodes, &snapshot.NodeVMs},
		{inventory.PrivateNodes, &snapshot.PrivateNodeVMs},
		{inventory.Uploaders, &snapshot.UploaderVMs},
	}
	for _, group := range groups {
		vms, err := d.ansible.InventoryList(ctx, d.inventoryFile(group.invType), true)
		if err != nil {
			return inventory.DeploymentInventory{}, fmt.Errorf("failed to list %s inventory: %w", group.invType, err)
		}
		*group.dest = vms
	}

	return snapshot, nil
}

// ListInventory refreshes the deployment's role inventories and reports an
// operator-facing summary through the observer.
func (d *TestnetDeployer) ListInventory(ctx context.Context, refresh bool, cb codebase.Codebase, nodeCount int) error {
	groups := []inventory.Type{inventory.Genesis, inventory.Build, inventory.Nodes}

	d.observer.Printf("Retrieving inventory for %s...", d.cfg.Name)

	listing := make(map[inventory.Type][]inventory.VirtualMachine)
	total := 0
	for _, group := range groups {
		vms, err := d.ansible.InventoryList(ctx, d.inventoryFile(group), refresh)
		if err != nil {
			return fmt.Errorf("failed to list %s inventory: %w", group, err)
		}
		listing[group] = vms
		total += len(vms)
	}

	d.observer.Printf("Testnet: %s (%s)", d.cfg.Name, cb.Describe())
	d.observer.Printf("%d VMs, %d nodes per node VM", total, nodeCount)
	for _, group := range groups {
		for _, vm := range listing[group] {
			d.observer.Printf("  %s: %s (private %s)", vm.Name, vm.PublicIP, vm.PrivateIP)
		}
	}
	return nil
}
