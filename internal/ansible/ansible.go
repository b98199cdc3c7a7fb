// Package ansible wraps the configuration-management runner.
//
// Playbooks run against role-scoped inventory files generated by the
// infrastructure provisioner. Inventory listing shells out to
// ansible-inventory and parses its YAML output.
package ansible

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/maidsafe/sn-testnet-deploy/internal/inventory"
)

// Runner is the configuration-management collaborator surface.
type Runner interface {
	// RunPlaybook executes a playbook against an inventory as the given SSH
	// user. extraVars is the rendered extra-vars document; pass "" for
	// none.
	RunPlaybook(ctx context.Context, playbook, inventoryPath, sshUser, extraVars string) error

	// InventoryList resolves the hosts in an inventory file. refresh forces
	// the dynamic inventory to be regenerated rather than served from
	// cache.
	InventoryList(ctx context.Context, inventoryPath string, refresh bool) ([]inventory.VirtualMachine, error)
}

// CLIRunner invokes the ansible-playbook and ansible-inventory binaries.
type CLIRunner struct {
	workingDir string
	verbose    bool
}

// NewCLIRunner creates a CLIRunner rooted at workingDir, the directory that
// holds the playbooks and the inventory/ directory.
func NewCLIRunner(workingDir string, verbose bool) *CLIRunner {
	return &CLIRunner{workingDir: workingDir, verbose: verbose}
}

// RunPlaybook implements Runner.
func (r *CLIRunner) RunPlaybook(ctx context.Context, playbook, inventoryPath, sshUser, extraVars string) error {
	args := []string{playbook, "--inventory", inventoryPath, "--user", sshUser}
	if extraVars != "" {
		args = append(args, "--extra-vars", extraVars)
	}
	if r.verbose {
		args = append(args, "-v")
	}

	cmd := exec.CommandContext(ctx, "ansible-playbook", args...)
	cmd.Dir = r.workingDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ansible-playbook %s failed: %w", playbook, err)
	}
	return nil
}

// inventoryOutput mirrors the shape of `ansible-inventory --list --yaml`.
type inventoryOutput struct {
	All struct {
		Children map[string]struct {
			Hosts map[string]struct {
				AnsibleHost string `yaml:"ansible_host"`
				PrivateIP   string `yaml:"private_ip"`
			} `yaml:"hosts"`
		} `yaml:"children"`
	} `yaml:"all"`
}

// InventoryList implements Runner. Hosts are returned in name order.
func (r *CLIRunner) InventoryList(ctx context.Context, inventoryPath string, refresh bool) ([]inventory.VirtualMachine, error) {
	args := []string{"--inventory", inventoryPath, "--list", "--yaml"}

	cmd := exec.CommandContext(ctx, "ansible-inventory", args...)
	cmd.Dir = r.workingDir
	if refresh {
		// The dynamic inventory plugin caches provider responses; disabling
		// the cache forces a fresh listing.
		cmd.Env = append(os.Environ(), "ANSIBLE_INVENTORY_CACHE=False")
	}

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ansible-inventory failed for %s: %w", inventoryPath, err)
	}

	return parseInventory(output)
}

// parseInventory decodes ansible-inventory YAML output into host entries,
// ordered by name.
func parseInventory(output []byte) ([]inventory.VirtualMachine, error) {
	var parsed inventoryOutput
	if err := yaml.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse inventory output: %w", err)
	}

	var vms []inventory.VirtualMachine
	for _, group := range parsed.All.Children {
		for name, host := range group.Hosts {
			vms = append(vms, inventory.VirtualMachine{
				Name:      name,
				PublicIP:  host.AnsibleHost,
				PrivateIP: host.PrivateIP,
			})
		}
	}
	sort.Slice(vms, func(i, j int) bool {
		return naturalLess(vms[i].Name, vms[j].Name)
	})
	return vms, nil
}

// naturalLess orders names so that beta-node-2 sorts before beta-node-10.
func naturalLess(a, b string) bool {
	ai, aok := trailingNumber(a)
	bi, bok := trailingNumber(b)
	if aok && bok {
		prefixA := a[:len(a)-len(fmt.Sprint(ai))]
		prefixB := b[:len(b)-len(fmt.Sprint(bi))]
		if prefixA == prefixB {
			return ai < bi
		}
	}
	return a < b
}

func trailingNumber(s string) (int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0, false
	}
	n := 0
	for _, c := range s[i:] {
		n = n*10 + int(c-'0')
	}
	return n, true
}
