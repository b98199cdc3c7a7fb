package deploy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maidsafe/sn-testnet-deploy/internal/codebase"
	"github.com/maidsafe/sn-testnet-deploy/internal/inventory"
	"github.com/maidsafe/sn-testnet-deploy/internal/terraform"
)

func snapshot() inventory.DeploymentInventory {
	return inventory.DeploymentInventory{
		Name: "beta",
		EnvironmentDetails: inventory.EnvironmentDetails{
			DeploymentType:  inventory.New,
			EnvironmentType: inventory.Development,
		},
		AuditorVMs: []inventory.VirtualMachine{
			{Name: "beta-auditor-1", PublicIP: "167.99.2.1", PrivateIP: "10.0.2.1"},
		},
		NodeVMs: []inventory.VirtualMachine{
			{Name: "beta-node-1", PublicIP: "167.99.1.10", PrivateIP: "10.0.1.10"},
			{Name: "beta-node-2", PublicIP: "167.99.1.11", PrivateIP: "10.0.1.11"},
			{Name: "beta-node-3", PublicIP: "167.99.1.12", PrivateIP: "10.0.1.12"},
		},
		UploaderVMs: []inventory.VirtualMachine{
			{Name: "beta-uploader-1", PublicIP: "167.99.3.1", PrivateIP: "10.0.3.1"},
		},
	}
}

func TestSetupPrivateNodes(t *testing.T) {
	t.Parallel()

	cfg, tf, ans, ssh, observer := fixtures(&codebase.PreBuilt{})
	ans.inventories[invPath(inventory.NatGateway)] = []inventory.VirtualMachine{
		{Name: "beta-nat-gateway", PublicIP: "167.99.9.1", PrivateIP: "10.0.9.1"},
	}
	d := NewTestnetDeployer(cfg, tf, ans, ssh, observer)

	require.NoError(t, d.SetupPrivateNodes(context.Background(), &PrivateNodeOptions{
		CurrentInventory: snapshot(),
	}))

	// Infra update carries counts from the snapshot, a genesis VM for a
	// new deployment, and the environment's tfvars file.
	require.Len(t, tf.applies, 1)
	assert.Equal(t, []terraform.Var{
		{Key: "genesis_vm_count", Value: "1"},
		{Key: "auditor_vm_count", Value: "1"},
		{Key: "bootstrap_node_vm_count", Value: "0"},
		{Key: "node_vm_count", Value: "3"},
		{Key: "uploader_vm_count", Value: "1"},
		{Key: "use_custom_bin", Value: "false"},
		{Key: "setup_nat_gateway", Value: "true"},
	}, tf.applies[0])
	assert.Equal(t, []string{"development.tfvars"}, tf.varFiles)

	require.Len(t, ans.playbooks, 2)
	assert.Equal(t, "nat_gateway.yml", ans.playbooks[0].playbook)
	assert.Contains(t, ans.playbooks[0].extraVars, `"node_private_ip_eth1": "10.0.1.12"`,
		"the last node VM's private address routes through the gateway")
	assert.Equal(t, "private_nodes.yml", ans.playbooks[1].playbook)
	assert.Contains(t, ans.playbooks[1].extraVars, `"nat_gateway_private_ip_eth1": "10.0.9.1"`)

	// The NAT gateway group is fetched fresh after the gateway exists.
	assert.Contains(t, ans.listed, invPath(inventory.NatGateway))

	banners := observer.eventsOfType(EventRunBanner)
	require.Len(t, banners, 3)
	assert.Equal(t, "Provision NAT Gateway", banners[0].Message)
	assert.Equal(t, 2, banners[0].Run)
	assert.Equal(t, 4, banners[0].Total)
	assert.Equal(t, "Provision Private Nodes on the Last VM", banners[2].Message)
	assert.Equal(t, 4, banners[2].Run)
}

func TestSetupPrivateNodes_BootstrapDeployment(t *testing.T) {
	t.Parallel()

	cfg, tf, ans, ssh, observer := fixtures(&codebase.PreBuilt{})
	ans.inventories[invPath(inventory.NatGateway)] = []inventory.VirtualMachine{
		{Name: "beta-nat-gateway", PublicIP: "167.99.9.1", PrivateIP: "10.0.9.1"},
	}
	d := NewTestnetDeployer(cfg, tf, ans, ssh, observer)

	snap := snapshot()
	snap.EnvironmentDetails.DeploymentType = inventory.Bootstrap
	require.NoError(t, d.SetupPrivateNodes(context.Background(), &PrivateNodeOptions{
		CurrentInventory: snap,
	}))

	require.Len(t, tf.applies, 1)
	assert.Contains(t, tf.applies[0], terraform.Var{Key: "genesis_vm_count", Value: "0"})
}

func TestSetupPrivateNodes_EmptyNodeGroup(t *testing.T) {
	t.Parallel()

	cfg, tf, ans, ssh, observer := fixtures(&codebase.PreBuilt{})
	d := NewTestnetDeployer(cfg, tf, ans, ssh, observer)

	snap := snapshot()
	snap.NodeVMs = nil
	err := d.SetupPrivateNodes(context.Background(), &PrivateNodeOptions{
		CurrentInventory: snap,
	})

	require.Error(t, err)
	var emptyErr *inventory.EmptyInventoryError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, inventory.Nodes, emptyErr.Type)

	// Selection fails before any NAT gateway stage runs.
	assert.Empty(t, ans.playbooks)
	assert.Empty(t, ans.listed)
}

func TestSetupPrivateNodes_EmptyNatGatewayInventory(t *testing.T) {
	t.Parallel()

	cfg, tf, ans, ssh, observer := fixtures(&codebase.PreBuilt{})
	d := NewTestnetDeployer(cfg, tf, ans, ssh, observer)

	err := d.SetupPrivateNodes(context.Background(), &PrivateNodeOptions{
		CurrentInventory: snapshot(),
	})

	require.Error(t, err)
	var emptyErr *inventory.EmptyInventoryError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, inventory.NatGateway, emptyErr.Type)

	// The gateway playbook ran, but private nodes never provisioned.
	require.Len(t, ans.playbooks, 1)
	assert.Equal(t, "nat_gateway.yml", ans.playbooks[0].playbook)
}

func TestSetupPrivateNodes_InfraFailureIsFatal(t *testing.T) {
	t.Parallel()

	cfg, tf, ans, ssh, observer := fixtures(&codebase.PreBuilt{})
	tf.applyErr = errors.New("quota exceeded")
	d := NewTestnetDeployer(cfg, tf, ans, ssh, observer)

	err := d.SetupPrivateNodes(context.Background(), &PrivateNodeOptions{
		CurrentInventory: snapshot(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create infra")
	assert.Empty(t, ans.playbooks)
}

func TestSetupPrivateNodes_NatGatewayPlaybookFailureIsFatal(t *testing.T) {
	t.Parallel()

	cfg, tf, ans, ssh, observer := fixtures(&codebase.PreBuilt{})
	ans.playbookErrs["nat_gateway.yml"] = errors.New("playbook failed")
	d := NewTestnetDeployer(cfg, tf, ans, ssh, observer)

	err := d.SetupPrivateNodes(context.Background(), &PrivateNodeOptions{
		CurrentInventory: snapshot(),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to provision nat gateway")
	assert.Empty(t, observer.eventsOfType(EventWarning),
		"sub-pipeline failures are fatal, never downgraded to warnings")
}
