package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maidsafe/sn-testnet-deploy/internal/ansible"
	"github.com/maidsafe/sn-testnet-deploy/internal/config"
	"github.com/maidsafe/sn-testnet-deploy/internal/deploy"
	"github.com/maidsafe/sn-testnet-deploy/internal/inventory"
	"github.com/maidsafe/sn-testnet-deploy/internal/sshclient"
	"github.com/maidsafe/sn-testnet-deploy/internal/terraform"
)

type fakeTerraform struct {
	selections []string
	applies    int
}

func (f *fakeTerraform) WorkspaceSelect(_ context.Context, name string) error {
	f.selections = append(f.selections, name)
	return nil
}

func (f *fakeTerraform) Apply(_ context.Context, _ []terraform.Var, _ string) error {
	f.applies++
	return nil
}

type fakeAnsible struct {
	playbooks   []string
	inventories map[string][]inventory.VirtualMachine
}

func (f *fakeAnsible) RunPlaybook(_ context.Context, playbook, _, _, _ string) error {
	f.playbooks = append(f.playbooks, playbook)
	return nil
}

func (f *fakeAnsible) InventoryList(_ context.Context, inventoryPath string, _ bool) ([]inventory.VirtualMachine, error) {
	return f.inventories[inventoryPath], nil
}

type fakeSSH struct{}

func (fakeSSH) WaitForAvailability(_ context.Context, _, _ string) error { return nil }
func (fakeSSH) RunCommand(_ context.Context, _, _, _ string) (string, error) {
	return "/ip4/167.99.1.5/tcp/12000/p2p/12D3KooWTest\n", nil
}

type silentObserver struct{}

func (silentObserver) Printf(_ string, _ ...interface{}) {}
func (silentObserver) Event(_ deploy.Event)              {}

// injectFakes swaps the factory variables for the duration of a test.
func injectFakes(t *testing.T, tf *fakeTerraform, ans *fakeAnsible) {
	t.Helper()

	origTerraform := newTerraformRunner
	origAnsible := newAnsibleRunner
	origSSH := newSSHClient
	origObserver := newObserver
	t.Cleanup(func() {
		newTerraformRunner = origTerraform
		newAnsibleRunner = origAnsible
		newSSHClient = origSSH
		newObserver = origObserver
	})

	newTerraformRunner = func(_ string) terraform.Runner { return tf }
	newAnsibleRunner = func(_ string, _ bool) ansible.Runner { return ans }
	newSSHClient = func(_ string) (sshclient.Client, error) { return fakeSSH{}, nil }
	newObserver = func() deploy.Observer { return silentObserver{} }
}

func invPath(t inventory.Type) string {
	return t.InventoryFile("beta", "digital_ocean")
}

func TestDeploy(t *testing.T) {
	tf := &fakeTerraform{}
	ans := &fakeAnsible{
		inventories: map[string][]inventory.VirtualMachine{
			invPath(inventory.Genesis): {
				{Name: "beta-genesis", PublicIP: "167.99.1.5", PrivateIP: "10.0.1.5"},
			},
			invPath(inventory.Nodes): {
				{Name: "beta-node-1", PublicIP: "167.99.1.10", PrivateIP: "10.0.1.10"},
			},
		},
	}
	injectFakes(t, tf, ans)

	err := Deploy(context.Background(), &DeployOptions{
		Name:       "beta",
		NodeCount:  20,
		VMCount:    10,
		SSHKeyPath: "unused",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"beta"}, tf.selections)
	assert.Equal(t, 1, tf.applies)
	assert.Equal(t,
		[]string{"genesis_node.yml", "nodes.yml", "faucet.yml", "safenode_rpc_client.yml"},
		ans.playbooks)
}

func TestDeploy_InvalidOptions(t *testing.T) {
	injectFakes(t, &fakeTerraform{}, &fakeAnsible{})

	tests := []struct {
		name   string
		opts   DeployOptions
		errMsg string
	}{
		{
			"branch and version are exclusive",
			DeployOptions{Name: "beta", NodeCount: 20, VMCount: 10, RepoOwner: "a", Branch: "b", Version: "0.93.7"},
			"--branch and --safenode-version cannot both be used",
		},
		{
			"branch needs owner",
			DeployOptions{Name: "beta", NodeCount: 20, VMCount: 10, Branch: "b"},
			"--repo-owner and --branch must be used together",
		},
		{
			"features and version are exclusive",
			DeployOptions{Name: "beta", NodeCount: 20, VMCount: 10, Version: "0.93.7", Features: []string{"otlp"}},
			"--features cannot be used with --safenode-version",
		},
		{
			"name is required",
			DeployOptions{NodeCount: 20, VMCount: 10},
			"name is required",
		},
		{
			"malformed env variable",
			DeployOptions{Name: "beta", NodeCount: 20, VMCount: 10, EnvVariables: []string{"RUST_LOG"}},
			"expected KEY=VALUE",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Deploy(context.Background(), &tc.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestParseEnvVariables(t *testing.T) {
	t.Parallel()

	envVars, err := parseEnvVariables([]string{"RUST_LOG=debug", "SN_LOG_DIR=/var/log"})
	require.NoError(t, err)
	assert.Equal(t, []config.EnvVar{
		{Key: "RUST_LOG", Value: "debug"},
		{Key: "SN_LOG_DIR", Value: "/var/log"},
	}, envVars)

	_, err = parseEnvVariables([]string{"=value"})
	assert.Error(t, err)
}

func TestPrivateNodes(t *testing.T) {
	tf := &fakeTerraform{}
	ans := &fakeAnsible{
		inventories: map[string][]inventory.VirtualMachine{
			invPath(inventory.Nodes): {
				{Name: "beta-node-1", PublicIP: "167.99.1.10", PrivateIP: "10.0.1.10"},
			},
			invPath(inventory.NatGateway): {
				{Name: "beta-nat-gateway", PublicIP: "167.99.9.1", PrivateIP: "10.0.9.1"},
			},
		},
	}
	injectFakes(t, tf, ans)

	err := PrivateNodes(context.Background(), &PrivateNodesOptions{
		Name:        "beta",
		Environment: "development",
		SSHKeyPath:  "unused",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"beta"}, tf.selections)
	assert.Equal(t, []string{"nat_gateway.yml", "private_nodes.yml"}, ans.playbooks)
}

func TestPrivateNodes_InvalidEnvironment(t *testing.T) {
	injectFakes(t, &fakeTerraform{}, &fakeAnsible{})

	err := PrivateNodes(context.Background(), &PrivateNodesOptions{
		Name:        "beta",
		Environment: "carrots",
		SSHKeyPath:  "unused",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid environment type")
}
