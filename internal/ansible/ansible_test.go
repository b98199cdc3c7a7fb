package ansible

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maidsafe/sn-testnet-deploy/internal/inventory"
)

func TestParseInventory(t *testing.T) {
	t.Parallel()

	output := []byte(`
all:
  children:
    node:
      hosts:
        beta-node-10:
          ansible_host: 167.99.1.10
          private_ip: 10.0.1.10
        beta-node-2:
          ansible_host: 167.99.1.2
          private_ip: 10.0.1.2
        beta-node-1:
          ansible_host: 167.99.1.1
          private_ip: 10.0.1.1
`)

	vms, err := parseInventory(output)
	require.NoError(t, err)
	require.Len(t, vms, 3)

	assert.Equal(t, []inventory.VirtualMachine{
		{Name: "beta-node-1", PublicIP: "167.99.1.1", PrivateIP: "10.0.1.1"},
		{Name: "beta-node-2", PublicIP: "167.99.1.2", PrivateIP: "10.0.1.2"},
		{Name: "beta-node-10", PublicIP: "167.99.1.10", PrivateIP: "10.0.1.10"},
	}, vms)
}

func TestParseInventory_Empty(t *testing.T) {
	t.Parallel()

	vms, err := parseInventory([]byte("all:\n  children: {}\n"))
	require.NoError(t, err)
	assert.Empty(t, vms)
}

func TestParseInventory_Invalid(t *testing.T) {
	t.Parallel()

	_, err := parseInventory([]byte("{invalid yaml"))
	assert.Error(t, err)
}

func TestNaturalLess(t *testing.T) {
	t.Parallel()

	assert.True(t, naturalLess("beta-node-2", "beta-node-10"))
	assert.False(t, naturalLess("beta-node-10", "beta-node-2"))
	assert.True(t, naturalLess("beta-genesis", "beta-node-1"))
	assert.True(t, naturalLess("a", "b"))
}
