// Package main is the entry point for the testnet-deploy CLI.
//
// testnet-deploy orchestrates the deployment of a safe network testnet onto
// cloud infrastructure. It drives terraform to create the virtual machine
// topology and ansible to provision each role, in a fixed multi-stage
// pipeline.
//
// Commands: deploy, private-nodes, version.
package main

import (
	"fmt"
	"os"

	"github.com/maidsafe/sn-testnet-deploy/cmd/testnet-deploy/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
