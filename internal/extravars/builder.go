package extravars

import (
	"errors"
	"strconv"
	"strings"

	"github.com/maidsafe/sn-testnet-deploy/internal/codebase"
	"github.com/maidsafe/sn-testnet-deploy/internal/config"
	"github.com/maidsafe/sn-testnet-deploy/internal/inventory"
)

// ErrGenesisMultiaddrNotSupplied reports that a stage which cannot run
// without the genesis multiaddr was asked to build its document without one.
// This is a programming-contract error, not an operator error.
var ErrGenesisMultiaddrNotSupplied = errors.New("genesis multiaddr was required but not supplied")

// Builder renders stage documents for one deployment.
type Builder struct {
	cfg *config.Config
}

// NewBuilder creates a Builder for the deployment configuration.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// BuildDoc renders the document for the binary build stage. Build runs do
// not target provisioned testnet hosts, so no provider key is emitted.
func (b *Builder) BuildDoc() string {
	var doc Doc

	cb := b.cfg.Codebase
	if !cb.BuildRequired() {
		doc.Add("custom_bin", "false")
		return doc.Build()
	}

	doc.Add("custom_bin", "true")
	doc.Add("testnet_name", b.cfg.Name)

	// Pre-built codebases with features build from the default org and
	// branch; writing the ansible defaults out keeps the document explicit.
	org, branch, ok := cb.OrgBranch()
	if !ok {
		org, branch = codebase.DefaultOrg, codebase.DefaultBranch
	}
	doc.Add("org", org)
	doc.Add("branch", branch)

	if features := featuresOf(cb); len(features) > 0 {
		doc.Add("safenode_features_list", strings.Join(features, ","))
	}

	return doc.Build()
}

// NodeDoc renders the document for a node provisioning stage. The genesis
// stage passes an empty genesisMultiaddr and a zero nodeInstanceCount; both
// keys are then omitted and the consuming playbook falls back to its
// defaults.
func (b *Builder) NodeDoc(genesisMultiaddr string, nodeInstanceCount int) string {
	var doc Doc
	doc.Add("provider", b.cfg.Provider.String())
	doc.Add("testnet_name", b.cfg.Name)

	if genesisMultiaddr != "" {
		doc.Add("genesis_multiaddr", genesisMultiaddr)
	}
	if nodeInstanceCount > 0 {
		doc.Add("node_instance_count", strconv.Itoa(nodeInstanceCount))
	}
	// The default inside ansible is false.
	if b.cfg.PublicRPC {
		doc.Add("public_rpc", "true")
	}

	cb := b.cfg.Codebase
	if v, ok := cb.(*codebase.Versioned); ok {
		// The node manager supports --version, so no archive URL is needed.
		doc.Add("version", v.Version)
	} else {
		doc.Add("node_archive_url", cb.ArchiveURL(codebase.Node, b.cfg.Name))
	}

	if org, branch, ok := cb.OrgBranch(); ok {
		doc.Add("org", org)
		doc.Add("branch", branch)
	}

	doc.Add("node_manager_archive_url", cb.ArchiveURL(codebase.NodeManager, b.cfg.Name))
	doc.Add("node_manager_daemon_archive_url", cb.ArchiveURL(codebase.NodeManagerDaemon, b.cfg.Name))

	if len(b.cfg.EnvVariables) > 0 {
		// Sanitised and reconstructed here: better to error out at the
		// deployer than at the node manager.
		pairs := make([]string, len(b.cfg.EnvVariables))
		for i, ev := range b.cfg.EnvVariables {
			pairs[i] = ev.Key + "=" + ev.Value
		}
		doc.Add("env_variables", strings.Join(pairs, ","))
	}

	if b.cfg.Logstash != nil {
		doc.Add("logstash_stack_name", b.cfg.Logstash.StackName)
		doc.AddList("logstash_hosts", b.cfg.Logstash.Hosts)
	}

	return doc.Build()
}

// FaucetDoc renders the document for the faucet stage. The genesis
// multiaddr is required.
func (b *Builder) FaucetDoc(genesisMultiaddr string) (string, error) {
	return b.clientDoc(genesisMultiaddr, "faucet_archive_url", codebase.Faucet)
}

// RPCClientDoc renders the document for the RPC client stage. The genesis
// multiaddr is required.
func (b *Builder) RPCClientDoc(genesisMultiaddr string) (string, error) {
	return b.clientDoc(genesisMultiaddr, "safenode_rpc_client_archive_url", codebase.RPCClient)
}

func (b *Builder) clientDoc(genesisMultiaddr, urlKey string, kind codebase.ArtifactKind) (string, error) {
	if genesisMultiaddr == "" {
		return "", ErrGenesisMultiaddrNotSupplied
	}

	var doc Doc
	doc.Add("provider", b.cfg.Provider.String())
	doc.Add("testnet_name", b.cfg.Name)
	doc.Add("genesis_multiaddr", genesisMultiaddr)

	cb := b.cfg.Codebase
	if org, branch, ok := cb.OrgBranch(); ok {
		doc.Add("org", org)
		doc.Add("branch", branch)
	}
	doc.Add(urlKey, cb.ArchiveURL(kind, b.cfg.Name))

	return doc.Build(), nil
}

// NatGatewayDoc renders the document for the NAT gateway stage of the
// private-node sub-pipeline. nodePrivateIP is the private address of the VM
// whose traffic the gateway will masquerade.
func (b *Builder) NatGatewayDoc(nodePrivateIP string) string {
	var doc Doc
	doc.Add("testnet_name", b.cfg.Name)
	doc.Add("node_private_ip_eth1", nodePrivateIP)
	return doc.Build()
}

// PrivateNodeDoc renders the document for the private-node stage. Both the
// target VM and the freshly provisioned NAT gateway are needed so the
// playbook can configure routing through the gateway.
func (b *Builder) PrivateNodeDoc(node, gateway inventory.VirtualMachine) string {
	var doc Doc
	doc.Add("provider", b.cfg.Provider.String())
	doc.Add("testnet_name", b.cfg.Name)
	doc.Add("node_private_ip_eth1", node.PrivateIP)
	doc.Add("nat_gateway_private_ip_eth1", gateway.PrivateIP)
	return doc.Build()
}

func featuresOf(cb codebase.Codebase) []string {
	switch c := cb.(type) {
	case *codebase.PreBuilt:
		return c.Features
	case *codebase.Branch:
		return c.Features
	default:
		return nil
	}
}
