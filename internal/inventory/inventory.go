// Package inventory defines the host inventory model shared by the
// deployment pipelines.
//
// The infrastructure provisioner writes one inventory file per role under
// the inventory/ directory; the ansible runner reads them. The pipelines
// never mutate entries, they only select from them.
package inventory

import (
	"fmt"
	"path/filepath"
)

// Type identifies a role-scoped host group.
type Type int

const (
	// Auditor is the auditor VM group.
	Auditor Type = iota
	// BootstrapNodes is the bootstrap node VM group.
	BootstrapNodes
	// Build is the group holding the single build VM.
	Build
	// Genesis is the group holding the genesis node VM.
	Genesis
	// NatGateway is the group holding the NAT gateway VM.
	NatGateway
	// Nodes is the group of all non-genesis node VMs.
	Nodes
	// PrivateNodes is the group of nodes reachable only through the NAT
	// gateway.
	PrivateNodes
	// Uploaders is the uploader VM group.
	Uploaders
)

// String returns the role segment used in inventory file names.
func (t Type) String() string {
	switch t {
	case Auditor:
		return "auditor"
	case BootstrapNodes:
		return "bootstrap_node"
	case Build:
		return "build"
	case Genesis:
		return "genesis"
	case NatGateway:
		return "nat_gateway"
	case Nodes:
		return "node"
	case PrivateNodes:
		return "private_node"
	case Uploaders:
		return "uploader"
	default:
		return "unknown"
	}
}

// InventoryFile returns the path of the role's inventory file for the named
// deployment. The provisioner generates these as hidden files under the
// inventory directory, suffixed with the cloud provider slug.
func (t Type) InventoryFile(name, providerSlug string) string {
	return filepath.Join(
		"inventory",
		fmt.Sprintf(".%s_%s_inventory_%s.yml", name, t, providerSlug))
}

// VirtualMachine is a single provisioned host.
type VirtualMachine struct {
	Name      string
	PublicIP  string
	PrivateIP string
}

// DeploymentType records how the deployment was created.
type DeploymentType int

const (
	// New is a deployment created from scratch with its own genesis node.
	New DeploymentType = iota
	// Bootstrap is a deployment bootstrapped from an existing network, so
	// it carries no genesis node of its own.
	Bootstrap
)

// String implements fmt.Stringer.
func (t DeploymentType) String() string {
	if t == Bootstrap {
		return "bootstrap"
	}
	return "new"
}

// EnvironmentType selects the terraform variable file applied to the
// deployment's workspace.
type EnvironmentType int

const (
	// Development environments use small droplet sizes.
	Development EnvironmentType = iota
	// Staging environments mirror production sizing at reduced scale.
	Staging
	// Production environments use full sizing.
	Production
)

// String implements fmt.Stringer.
func (t EnvironmentType) String() string {
	switch t {
	case Staging:
		return "staging"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// TfvarsFilename returns the terraform variable file for the environment.
func (t EnvironmentType) TfvarsFilename() string {
	return t.String() + ".tfvars"
}

// ParseEnvironmentType resolves an environment name from user input.
func ParseEnvironmentType(s string) (EnvironmentType, error) {
	switch s {
	case "development":
		return Development, nil
	case "staging":
		return Staging, nil
	case "production":
		return Production, nil
	default:
		return Development, fmt.Errorf("invalid environment type: %s", s)
	}
}

// EnvironmentDetails is the environment metadata captured with an inventory
// snapshot.
type EnvironmentDetails struct {
	DeploymentType  DeploymentType
	EnvironmentType EnvironmentType
}

// DeploymentInventory is a point-in-time snapshot of a deployment's
// role-grouped hosts. The private-node sub-pipeline treats it as read-only
// for the whole run, re-fetching only the NAT gateway group, whose host does
// not exist when the snapshot is taken.
type DeploymentInventory struct {
	Name               string
	EnvironmentDetails EnvironmentDetails

	AuditorVMs       []VirtualMachine
	BootstrapNodeVMs []VirtualMachine
	BuildVMs         []VirtualMachine
	GenesisVMs       []VirtualMachine
	NodeVMs          []VirtualMachine
	PrivateNodeVMs   []VirtualMachine
	UploaderVMs      []VirtualMachine
}

// EmptyInventoryError reports that a required host group came back with zero
// entries.
type EmptyInventoryError struct {
	Type Type
}

// Error implements error.
func (e *EmptyInventoryError) Error() string {
	return fmt.Sprintf("the %s inventory is empty", e.Type)
}
