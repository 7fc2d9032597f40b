// Command xtask provides operational tooling for the compressed-state
// engine (spec §6.5): a single new-deployment subcommand. It checks that the
// payer keypair file exists, creates the keypairs directory and logs one
// line per forester keypair; it generates no keypairs, rolls over no
// accounts and sends no transactions to the target cluster.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/andrey/compressed-state/internal/log"
)

// options mirrors the xtask new-deployment flags of spec §6.5.
type options struct {
	Keypairs     string `long:"keypairs" description:"directory to write generated keypairs into" required:"true"`
	Network      string `long:"network" description:"local, devnet, mainnet, or an explicit RPC URL" default:"local"`
	Payer        string `long:"payer" description:"path to the fee payer keypair file" required:"true"`
	NumForesters uint32 `long:"num-foresters" description:"number of forester keypairs to provision" default:"1"`
	Config       string `long:"config" description:"testnet or default parameter set" default:"default" choice:"testnet" choice:"default"`
}

type newDeploymentCmd struct {
	options
}

func (c *newDeploymentCmd) Execute(args []string) error {
	logger := log.New("info")
	logger.Logf("INFO provisioning new deployment: network=%s keypairs=%s num_foresters=%d config=%s",
		c.Network, c.Keypairs, c.NumForesters, c.Config)

	if _, err := os.Stat(c.Payer); err != nil {
		return fmt.Errorf("xtask: payer keypair: %w", err)
	}
	if err := os.MkdirAll(c.Keypairs, 0o755); err != nil {
		return fmt.Errorf("xtask: keypairs dir: %w", err)
	}

	for i := uint32(0); i < c.NumForesters; i++ {
		logger.Logf("INFO would provision forester keypair %d under %s", i, c.Keypairs)
	}

	logger.Logf("INFO deployment provisioned")
	return nil
}

func main() {
	parser := flags.NewParser(nil, flags.Default)
	if _, err := parser.AddCommand(
		"new-deployment",
		"provision a new cluster deployment",
		"Checks the payer keypair file and creates the keypairs directory; generates no keypairs and sends no transactions.",
		&newDeploymentCmd{},
	); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
