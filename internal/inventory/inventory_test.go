package inventory

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_InventoryFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		invType  Type
		expected string
	}{
		{Build, ".beta_build_inventory_digital_ocean.yml"},
		{Genesis, ".beta_genesis_inventory_digital_ocean.yml"},
		{Nodes, ".beta_node_inventory_digital_ocean.yml"},
		{NatGateway, ".beta_nat_gateway_inventory_digital_ocean.yml"},
		{PrivateNodes, ".beta_private_node_inventory_digital_ocean.yml"},
	}

	for _, tc := range tests {
		t.Run(tc.invType.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t,
				filepath.Join("inventory", tc.expected),
				tc.invType.InventoryFile("beta", "digital_ocean"))
		})
	}
}

func TestEnvironmentType_TfvarsFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "development.tfvars", Development.TfvarsFilename())
	assert.Equal(t, "staging.tfvars", Staging.TfvarsFilename())
	assert.Equal(t, "production.tfvars", Production.TfvarsFilename())
}

func TestEmptyInventoryError(t *testing.T) {
	t.Parallel()

	err := error(&EmptyInventoryError{Type: Nodes})
	assert.EqualError(t, err, "the node inventory is empty")

	var emptyErr *EmptyInventoryError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, Nodes, emptyErr.Type)
}
