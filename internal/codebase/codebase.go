// Package codebase resolves how the deployed safe network binaries are
// sourced: a pre-built release, a branch build from a named repository, or a
// fixed published version.
//
// The active variant decides whether a build VM and build playbook run are
// needed, and it determines every artifact archive URL referenced by the
// provisioning playbooks. Exactly one variant is active per deployment and it
// never changes once the deployment starts.
package codebase

import (
	"fmt"
	"strings"
)

// DefaultOrg is the repository owner used for pre-built binaries.
const DefaultOrg = "maidsafe"

// DefaultBranch is the branch used for pre-built binaries.
const DefaultBranch = "main"

// ArtifactKind identifies one of the deployable binaries.
type ArtifactKind int

const (
	// Node is the safenode binary.
	Node ArtifactKind = iota
	// NodeManager is the safenode-manager binary.
	NodeManager
	// NodeManagerDaemon is the safenode-manager daemon binary.
	NodeManagerDaemon
	// Faucet is the faucet binary.
	Faucet
	// RPCClient is the safenode RPC client binary.
	RPCClient
)

// Slug returns the artifact's name as it appears in archive file names.
func (k ArtifactKind) Slug() string {
	switch k {
	case Node:
		return "safenode"
	case NodeManager:
		return "safenode-manager"
	case NodeManagerDaemon:
		return "safenode-manager-daemon"
	case Faucet:
		return "faucet"
	case RPCClient:
		return "safenode_rpc_client"
	default:
		return "unknown"
	}
}

// latestURL returns the fixed "latest" archive URL for the artifact. These
// values are predefined inside the ansible configuration; they are written
// out here so the generated documents are explicit.
func (k ArtifactKind) latestURL() string {
	switch k {
	case Node:
		return "https://sn-node.s3.eu-west-2.amazonaws.com/safenode-latest-x86_64-unknown-linux-musl.tar.gz"
	case NodeManager:
		return "https://sn-node-manager.s3.eu-west-2.amazonaws.com/safenode-manager-latest-x86_64-unknown-linux-musl.tar.gz"
	case NodeManagerDaemon:
		return "https://sn-node-manager.s3.eu-west-2.amazonaws.com/safenode-manager-daemon-latest-x86_64-unknown-linux-musl.tar.gz"
	case Faucet:
		return "https://sn-faucet.s3.eu-west-2.amazonaws.com/faucet-latest-x86_64-unknown-linux-musl.tar.gz"
	case RPCClient:
		return "https://sn-node-rpc-client.s3.eu-west-2.amazonaws.com/safenode_rpc_client-latest-x86_64-unknown-linux-musl.tar.gz"
	default:
		return ""
	}
}

// branchURL returns the archive URL for an artifact built from a branch. The
// build playbook uploads its output under the owner/branch prefix, with the
// testnet name embedded in the file name.
func branchURL(kind ArtifactKind, org, branch, name string) string {
	return fmt.Sprintf(
		"https://sn-node.s3.eu-west-2.amazonaws.com/%s/%s/%s-%s-x86_64-unknown-linux-musl.tar.gz",
		org, branch, kind.Slug(), name)
}

// Codebase is the source of the deployed binaries. Implementations are
// PreBuilt, Branch and Versioned.
type Codebase interface {
	// BuildRequired reports whether the deployment needs a build VM and a
	// build playbook run before any node can be provisioned.
	BuildRequired() bool

	// ArchiveURL returns the archive URL for the given artifact, scoped to
	// the testnet name where the variant builds its own binaries. It returns
	// "" for the Node artifact of a Versioned codebase, which is installed
	// by version rather than by URL.
	ArchiveURL(kind ArtifactKind, name string) string

	// OrgBranch returns the repository owner and branch when the variant is
	// scoped to one, with ok reporting whether it is.
	OrgBranch() (org, branch string, ok bool)

	// Describe returns a short human-readable description for inventory
	// listings.
	Describe() string
}

// PreBuilt sources binaries from the released archives. Supplying feature
// flags forces a custom build of the node binary from the default
// organisation's main branch.
type PreBuilt struct {
	// Features are optional safenode feature flags. When present the node
	// binary must be custom built.
	Features []string
}

// BuildRequired reports true only when feature flags were supplied.
func (c *PreBuilt) BuildRequired() bool {
	return len(c.Features) > 0
}

// ArchiveURL implements Codebase. Only the node artifact is affected by a
// features-driven custom build; every other artifact uses its released
// archive.
func (c *PreBuilt) ArchiveURL(kind ArtifactKind, name string) string {
	if kind == Node && c.BuildRequired() {
		return branchURL(Node, DefaultOrg, DefaultBranch, name)
	}
	return kind.latestURL()
}

// OrgBranch implements Codebase. A pre-built codebase is not scoped to a
// repository, even when features force a build.
func (c *PreBuilt) OrgBranch() (string, string, bool) {
	return "", "", false
}

// Describe implements Codebase.
func (c *PreBuilt) Describe() string {
	if len(c.Features) > 0 {
		return fmt.Sprintf("pre-built (features: %s)", strings.Join(c.Features, ","))
	}
	return "pre-built (latest)"
}

// Branch sources binaries from a build of a named branch in a named
// repository. A build stage always runs.
type Branch struct {
	RepoOwner string
	Branch    string

	// Features are optional safenode feature flags passed to the build.
	Features []string
}

// BuildRequired implements Codebase. Branch deployments always build.
func (c *Branch) BuildRequired() bool {
	return true
}

// ArchiveURL implements Codebase. Every artifact is scoped to the branch
// build's upload location.
func (c *Branch) ArchiveURL(kind ArtifactKind, name string) string {
	return branchURL(kind, c.RepoOwner, c.Branch, name)
}

// OrgBranch implements Codebase.
func (c *Branch) OrgBranch() (string, string, bool) {
	return c.RepoOwner, c.Branch, true
}

// Describe implements Codebase.
func (c *Branch) Describe() string {
	return fmt.Sprintf("branch %s/%s", c.RepoOwner, c.Branch)
}

// Versioned sources binaries from a fixed published version. The node
// manager supports installing by version, so the node artifact needs no URL.
type Versioned struct {
	Version string
}

// BuildRequired implements Codebase. Versioned deployments never build.
func (c *Versioned) BuildRequired() bool {
	return false
}

// ArchiveURL implements Codebase. The node artifact is installed by version;
// the supporting artifacts still come from their released archives.
func (c *Versioned) ArchiveURL(kind ArtifactKind, name string) string {
	if kind == Node {
		return ""
	}
	return kind.latestURL()
}

// OrgBranch implements Codebase.
func (c *Versioned) OrgBranch() (string, string, bool) {
	return "", "", false
}

// Describe implements Codebase.
func (c *Versioned) Describe() string {
	return fmt.Sprintf("version %s", c.Version)
}
