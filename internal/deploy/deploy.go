package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/maidsafe/sn-testnet-deploy/internal/inventory"
	"github.com/maidsafe/sn-testnet-deploy/internal/terraform"
)

// nodeProvisionWarning is the warning block emitted when the remaining-node
// stage soft-fails. A minority of VMs failing to bring up nodes does not
// make the testnet unusable, so the deployment still reports success.
var nodeProvisionWarning = []string{
	"Some nodes failed to provision without error.",
	"This usually means a small number of nodes failed to start on a few VMs.",
	"However, most of the time the deployment will still be usable.",
	"See the output from Ansible to determine which VMs had failures.",
}

// Execute runs the full deployment pipeline: infra creation, an optional
// binary build, genesis provisioning, multiaddr discovery, remaining-node
// provisioning, faucet and RPC client provisioning, and a final inventory
// listing.
//
// Every stage is fatal on error except remaining-node provisioning, whose
// failure is recorded and reported as a warning after the pipeline
// completes.
func (d *TestnetDeployer) Execute(ctx context.Context) error {
	buildCustomBinaries := d.cfg.Codebase.BuildRequired()

	if err := d.createInfra(ctx, buildCustomBinaries); err != nil {
		logStageFailed(d.observer, "create infra", err)
		return fmt.Errorf("failed to create infra: %w", err)
	}

	n := 1
	total := 4
	if buildCustomBinaries {
		total = 5
		logRunBanner(d.observer, n, total, "Build Custom Binaries")
		if err := d.buildSafeNetworkBinaries(ctx); err != nil {
			logStageFailed(d.observer, "build custom binaries", err)
			return fmt.Errorf("failed to build safe network binaries: %w", err)
		}
		n++
	}

	logRunBanner(d.observer, n, total, "Provision Genesis Node")
	if err := d.ProvisionGenesisNode(ctx); err != nil {
		logStageFailed(d.observer, "provision genesis node", err)
		return fmt.Errorf("failed to provision genesis node: %w", err)
	}
	n++

	genesisMultiaddr, _, err := d.GetGenesisMultiaddr(ctx)
	if err != nil {
		logStageFailed(d.observer, "get genesis multiaddr", err)
		return fmt.Errorf("failed to get genesis multiaddr: %w", err)
	}
	d.observer.Printf("Obtained multiaddr for genesis node: %s", genesisMultiaddr)

	nodeProvisionFailed := false
	logRunBanner(d.observer, n, total, "Provision Remaining Nodes")
	if err := d.ProvisionRemainingNodes(ctx, genesisMultiaddr); err != nil {
		logStageFailed(d.observer, "provision remaining nodes", err)
		nodeProvisionFailed = true
	} else {
		d.observer.Printf("Provisioned all remaining nodes")
	}
	n++

	logRunBanner(d.observer, n, total, "Deploy Faucet")
	if err := d.ProvisionFaucet(ctx, genesisMultiaddr); err != nil {
		logStageFailed(d.observer, "provision faucet", err)
		return fmt.Errorf("failed to provision faucet: %w", err)
	}
	n++

	logRunBanner(d.observer, n, total, "Provision RPC Client on Genesis Node")
	if err := d.ProvisionRPCClient(ctx, genesisMultiaddr); err != nil {
		logStageFailed(d.observer, "provision rpc client", err)
		return fmt.Errorf("failed to provision safenode rpc client: %w", err)
	}

	if err := d.ListInventory(ctx, true, d.cfg.Codebase, d.cfg.NodeCount); err != nil {
		logStageFailed(d.observer, "list inventory", err)
		return fmt.Errorf("failed to list inventory: %w", err)
	}

	if nodeProvisionFailed {
		d.observer.Event(Event{
			Type:      EventWarning,
			Lines:     nodeProvisionWarning,
			Timestamp: time.Now(),
		})
	}

	return nil
}

// createInfra selects the deployment's workspace and applies the topology.
// enableBuildVM adds the build VM to the topology when custom binaries must
// be built.
func (d *TestnetDeployer) createInfra(ctx context.Context, enableBuildVM bool) error {
	start := time.Now()
	stage := "create infra"
	logStageStart(d.observer, stage)

	d.observer.Printf("Selecting %s workspace...", d.cfg.Name)
	if err := d.terraform.WorkspaceSelect(ctx, d.cfg.Name); err != nil {
		return err
	}

	d.observer.Printf("Running terraform apply...")
	err := d.terraform.Apply(ctx, []terraform.Var{
		{Key: "node_count", Value: fmt.Sprint(d.cfg.VMCount)},
		{Key: "use_custom_bin", Value: fmt.Sprint(enableBuildVM)},
	}, "")
	if err != nil {
		return err
	}

	logStageComplete(d.observer, stage, time.Since(start))
	return nil
}

// buildSafeNetworkBinaries waits for the build VM and runs the build
// playbook against it.
func (d *TestnetDeployer) buildSafeNetworkBinaries(ctx context.Context) error {
	start := time.Now()
	stage := "build custom binaries"
	logStageStart(d.observer, stage)

	d.observer.Printf("Obtaining IP address for build VM...")
	build, err := d.firstHost(ctx, inventory.Build)
	if err != nil {
		return err
	}
	if err := d.ssh.WaitForAvailability(ctx, build.PublicIP, d.cfg.Provider.SSHUser()); err != nil {
		return err
	}

	d.observer.Printf("Running ansible against build VM...")
	err = d.ansible.RunPlaybook(ctx,
		playbookBuild,
		d.inventoryFile(inventory.Build),
		d.cfg.Provider.SSHUser(),
		d.vars.BuildDoc())
	if err != nil {
		return err
	}

	logStageComplete(d.observer, stage, time.Since(start))
	return nil
}

// ProvisionGenesisNode waits for the genesis VM and runs the genesis
// playbook against it. No peer address or node count override is passed;
// the genesis node bootstraps the network.
func (d *TestnetDeployer) ProvisionGenesisNode(ctx context.Context) error {
	start := time.Now()
	stage := "provision genesis node"
	logStageStart(d.observer, stage)

	genesis, err := d.firstHost(ctx, inventory.Genesis)
	if err != nil {
		return err
	}
	if err := d.ssh.WaitForAvailability(ctx, genesis.PublicIP, d.cfg.Provider.SSHUser()); err != nil {
		return err
	}

	err = d.ansible.RunPlaybook(ctx,
		playbookGenesisNode,
		d.inventoryFile(inventory.Genesis),
		d.cfg.Provider.SSHUser(),
		d.vars.NodeDoc("", 0))
	if err != nil {
		return err
	}

	logStageComplete(d.observer, stage, time.Since(start))
	return nil
}

// ProvisionRemainingNodes runs the node playbook against the full
// non-genesis node inventory.
func (d *TestnetDeployer) ProvisionRemainingNodes(ctx context.Context, genesisMultiaddr string) error {
	start := time.Now()
	stage := "provision remaining nodes"
	logStageStart(d.observer, stage)

	err := d.ansible.RunPlaybook(ctx,
		playbookNodes,
		d.inventoryFile(inventory.Nodes),
		d.cfg.Provider.SSHUser(),
		d.vars.NodeDoc(genesisMultiaddr, d.cfg.NodeCount))
	if err != nil {
		return err
	}

	logStageComplete(d.observer, stage, time.Since(start))
	return nil
}

// ProvisionFaucet runs the faucet playbook against the genesis host.
func (d *TestnetDeployer) ProvisionFaucet(ctx context.Context, genesisMultiaddr string) error {
	start := time.Now()
	stage := "provision faucet"
	logStageStart(d.observer, stage)

	d.observer.Printf("Running ansible against genesis node to deploy faucet...")
	extraVars, err := d.vars.FaucetDoc(genesisMultiaddr)
	if err != nil {
		return err
	}
	err = d.ansible.RunPlaybook(ctx,
		playbookFaucet,
		d.inventoryFile(inventory.Genesis),
		d.cfg.Provider.SSHUser(),
		extraVars)
	if err != nil {
		return err
	}

	logStageComplete(d.observer, stage, time.Since(start))
	return nil
}

// ProvisionRPCClient runs the RPC client playbook against the genesis host.
func (d *TestnetDeployer) ProvisionRPCClient(ctx context.Context, genesisMultiaddr string) error {
	start := time.Now()
	stage := "provision rpc client"
	logStageStart(d.observer, stage)

	d.observer.Printf("Running ansible against genesis node to start safenode_rpc_client service...")
	extraVars, err := d.vars.RPCClientDoc(genesisMultiaddr)
	if err != nil {
		return err
	}
	err = d.ansible.RunPlaybook(ctx,
		playbookRPCClient,
		d.inventoryFile(inventory.Genesis),
		d.cfg.Provider.SSHUser(),
		extraVars)
	if err != nil {
		return err
	}

	logStageComplete(d.observer, stage, time.Since(start))
	return nil
}
