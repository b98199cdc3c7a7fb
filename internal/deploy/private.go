package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/maidsafe/sn-testnet-deploy/internal/inventory"
	"github.com/maidsafe/sn-testnet-deploy/internal/terraform"
)

// PrivateNodeOptions configures the private-node sub-pipeline.
type PrivateNodeOptions struct {
	// CurrentInventory is the snapshot of the existing deployment. It is
	// treated as read-only for the whole run; only the NAT gateway group is
	// fetched fresh, since its host does not exist when the snapshot is
	// taken.
	CurrentInventory inventory.DeploymentInventory
}

// SetupPrivateNodes runs the private-node sub-pipeline against an existing
// deployment: it updates the infrastructure to add a NAT gateway, selects
// the last node VM to host the private nodes, provisions the gateway, and
// provisions private nodes routed through it.
//
// Unlike the main pipeline's node stage, every failure here is fatal.
func (d *TestnetDeployer) SetupPrivateNodes(ctx context.Context, options *PrivateNodeOptions) error {
	snapshot := &options.CurrentInventory

	if err := d.updateInfraForPrivateNodes(ctx, snapshot); err != nil {
		logStageFailed(d.observer, "update infra", err)
		return fmt.Errorf("failed to create infra: %w", err)
	}

	n := 1
	total := 4

	// The last node VM hosts the private nodes. It is identified by name
	// rather than position so a partially listed group cannot select the
	// wrong host.
	lastNodeName := fmt.Sprintf("%s-node-%d", snapshot.Name, len(snapshot.NodeVMs))
	var privateVM *inventory.VirtualMachine
	for i := range snapshot.NodeVMs {
		if strings.Contains(snapshot.NodeVMs[i].Name, lastNodeName) {
			privateVM = &snapshot.NodeVMs[i]
			break
		}
	}
	if privateVM == nil {
		err := &inventory.EmptyInventoryError{Type: inventory.Nodes}
		logStageFailed(d.observer, "select private node vm", err)
		return fmt.Errorf("failed to obtain the inventory of the last vm: %w", err)
	}

	n++
	logRunBanner(d.observer, n, total, "Provision NAT Gateway")
	if err := d.provisionNatGateway(ctx, privateVM.PrivateIP); err != nil {
		logStageFailed(d.observer, "provision nat gateway", err)
		return fmt.Errorf("failed to provision nat gateway: %w", err)
	}

	n++
	logRunBanner(d.observer, n, total, "Get NAT Gateway Inventory")
	natGatewayVMs, err := d.ansible.InventoryList(ctx, d.inventoryFile(inventory.NatGateway), true)
	if err != nil {
		logStageFailed(d.observer, "get nat gateway inventory", err)
		return fmt.Errorf("failed to get nat gateway inventory: %w", err)
	}
	if len(natGatewayVMs) == 0 {
		err := &inventory.EmptyInventoryError{Type: inventory.NatGateway}
		logStageFailed(d.observer, "get nat gateway inventory", err)
		return err
	}
	natGateway := natGatewayVMs[0]

	n++
	logRunBanner(d.observer, n, total, "Provision Private Nodes on the Last VM")
	if err := d.provisionPrivateNodes(ctx, *privateVM, natGateway); err != nil {
		logStageFailed(d.observer, "provision private nodes", err)
		return fmt.Errorf("failed to provision private nodes: %w", err)
	}

	return nil
}

// updateInfraForPrivateNodes re-applies the deployment's workspace with
// counts taken from the snapshot, the build VM disabled, and private-node
// support enabled.
func (d *TestnetDeployer) updateInfraForPrivateNodes(ctx context.Context, snapshot *inventory.DeploymentInventory) error {
	start := time.Now()
	stage := "update infra"
	logStageStart(d.observer, stage)

	genesisVMCount := 1
	if snapshot.EnvironmentDetails.DeploymentType == inventory.Bootstrap {
		genesisVMCount = 0
	}

	if err := d.terraform.WorkspaceSelect(ctx, snapshot.Name); err != nil {
		return err
	}

	err := d.terraform.Apply(ctx, []terraform.Var{
		{Key: "genesis_vm_count", Value: fmt.Sprint(genesisVMCount)},
		{Key: "auditor_vm_count", Value: fmt.Sprint(len(snapshot.AuditorVMs))},
		{Key: "bootstrap_node_vm_count", Value: fmt.Sprint(len(snapshot.BootstrapNodeVMs))},
		{Key: "node_vm_count", Value: fmt.Sprint(len(snapshot.NodeVMs))},
		{Key: "uploader_vm_count", Value: fmt.Sprint(len(snapshot.UploaderVMs))},
		{Key: "use_custom_bin", Value: "false"},
		{Key: "setup_nat_gateway", Value: "true"},
	}, snapshot.EnvironmentDetails.EnvironmentType.TfvarsFilename())
	if err != nil {
		return err
	}

	logStageComplete(d.observer, stage, time.Since(start))
	return nil
}

// provisionNatGateway runs the NAT gateway playbook, masquerading traffic
// from the selected node VM's private address.
func (d *TestnetDeployer) provisionNatGateway(ctx context.Context, nodePrivateIP string) error {
	start := time.Now()
	stage := "provision nat gateway"
	logStageStart(d.observer, stage)

	err := d.ansible.RunPlaybook(ctx,
		playbookNatGateway,
		d.inventoryFile(inventory.NatGateway),
		d.cfg.Provider.SSHUser(),
		d.vars.NatGatewayDoc(nodePrivateIP))
	if err != nil {
		return err
	}

	logStageComplete(d.observer, stage, time.Since(start))
	return nil
}

// provisionPrivateNodes runs the private-node playbook, passing both the
// host's own entry and the NAT gateway entry so the playbook can configure
// routing.
func (d *TestnetDeployer) provisionPrivateNodes(ctx context.Context, node, gateway inventory.VirtualMachine) error {
	start := time.Now()
	stage := "provision private nodes"
	logStageStart(d.observer, stage)

	err := d.ansible.RunPlaybook(ctx,
		playbookPrivateNodes,
		d.inventoryFile(inventory.PrivateNodes),
		d.cfg.Provider.SSHUser(),
		d.vars.PrivateNodeDoc(node, gateway))
	if err != nil {
		return err
	}

	logStageComplete(d.observer, stage, time.Since(start))
	return nil
}
