// Package terraform wraps the infrastructure provisioner.
//
// The pipelines only need two operations: selecting (or creating) the
// deployment's workspace and applying the declared topology with a handful
// of variables. Everything else about the infrastructure lives in the
// terraform configuration itself.
package terraform

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Var is a single -var key/value pair passed to apply.
type Var struct {
	Key   string
	Value string
}

// Runner is the provisioner collaborator surface.
type Runner interface {
	// WorkspaceSelect selects the named workspace, creating it if it does
	// not exist.
	WorkspaceSelect(ctx context.Context, name string) error

	// Apply applies the configuration with the given variables. varFile
	// optionally names a tfvars file; pass "" for none.
	Apply(ctx context.Context, vars []Var, varFile string) error
}

// CLIRunner invokes the terraform binary against a working directory.
type CLIRunner struct {
	binPath    string
	workingDir string
}

// NewCLIRunner creates a CLIRunner. binPath defaults to "terraform" when
// empty.
func NewCLIRunner(binPath, workingDir string) *CLIRunner {
	if binPath == "" {
		binPath = "terraform"
	}
	return &CLIRunner{binPath: binPath, workingDir: workingDir}
}

// WorkspaceSelect implements Runner.
func (r *CLIRunner) WorkspaceSelect(ctx context.Context, name string) error {
	if err := r.run(ctx, "workspace", "select", "-or-create", name); err != nil {
		return fmt.Errorf("failed to select workspace %s: %w", name, err)
	}
	return nil
}

// Apply implements Runner.
func (r *CLIRunner) Apply(ctx context.Context, vars []Var, varFile string) error {
	if err := r.run(ctx, applyArgs(vars, varFile)...); err != nil {
		return fmt.Errorf("terraform apply failed: %w", err)
	}
	return nil
}

func applyArgs(vars []Var, varFile string) []string {
	args := []string{"apply", "-auto-approve"}
	if varFile != "" {
		args = append(args, "-var-file", varFile)
	}
	for _, v := range vars {
		args = append(args, "-var", fmt.Sprintf("%s=%s", v.Key, v.Value))
	}
	return args
}

func (r *CLIRunner) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.binPath, args...)
	cmd.Dir = r.workingDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s",
			r.binPath, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}
