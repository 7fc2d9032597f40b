// Command forester runs the off-chain forester pipeline of spec C9: one
// pipeline per configured tree, draining queues, requesting proofs from the
// external prover oracle, and submitting batch_update instructions.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrey/compressed-state/internal/batchtree"
	"github.com/andrey/compressed-state/internal/config"
	"github.com/andrey/compressed-state/internal/forester"
	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/indexedtree"
	"github.com/andrey/compressed-state/internal/infra/logging"
	"github.com/andrey/compressed-state/internal/merkletree"
	"github.com/andrey/compressed-state/internal/prover"
	"github.com/andrey/compressed-state/internal/rpcnode"
)

// defaultTreeHeight/defaultRootHistoryCap size a tree the way the on-chain
// rollover instruction would; a production deployment hydrates these
// instead from the tree account's own on-chain bytes (spec §6.1) rather
// than assuming fixed defaults per configured pubkey.
const (
	defaultTreeHeight     = 26
	defaultCanopyDepth    = 10
	defaultChangelogCap   = 64
	defaultRootHistoryCap = 64
	defaultNumBatches     = 2
	defaultBatchSize      = 500
	defaultZkpBatchSize   = 10

	defaultAddressTreeHeight = 26
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the forester's YAML config")
	indexerURL := flag.String("indexer", "http://localhost:8080", "base URL of the cmd/indexer instance to read queues from")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forester: load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewWithConfig(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "forester: init logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rpc, err := rpcnode.Dial(ctx, cfg.RPC.Endpoint, logger)
	if err != nil {
		logger.Logf("ERROR dial rpc: %v", err)
		os.Exit(1)
	}
	defer rpc.Close()

	proverClient := prover.New(cfg.Prover.Endpoint, logger, cfg.Prover.Timeout)
	queue := newIndexerQueueClient(*indexerURL)
	submitter := &rpcSubmitter{rpc: rpc}
	hasher := hash.NewPoseidon()

	f := forester.New(hasher, queue, proverClient, submitter, logger, forester.Config{
		PollInterval: cfg.Forester.PollInterval,
		MaxElapsed:   cfg.Forester.MaxBackoff,
	})

	for _, treeHex := range cfg.Forester.Trees {
		pubkey, err := decodeTreePubkey(treeHex)
		if err != nil {
			logger.Logf("ERROR skipping tree %s: %v", treeHex, err)
			continue
		}
		tree, err := merkletree.New(hasher, defaultTreeHeight, defaultCanopyDepth, defaultChangelogCap, defaultRootHistoryCap)
		if err != nil {
			logger.Logf("ERROR build tree %s: %v", treeHex, err)
			continue
		}
		batch, err := batchtree.New(tree, defaultNumBatches, defaultBatchSize, defaultZkpBatchSize, defaultRootHistoryCap)
		if err != nil {
			logger.Logf("ERROR build batch account %s: %v", treeHex, err)
			continue
		}
		f.Register(&forester.TreeJob{Pubkey: pubkey, Kind: forester.KindState, Batch: batch, State: tree})
		logger.Logf("INFO registered forester pipeline for tree %s", treeHex)
	}

	for _, treeHex := range cfg.Forester.AddressTrees {
		pubkey, err := decodeTreePubkey(treeHex)
		if err != nil {
			logger.Logf("ERROR skipping address tree %s: %v", treeHex, err)
			continue
		}
		addrTree := indexedtree.New(hasher, defaultAddressTreeHeight)
		backing, err := merkletree.New(hasher, defaultAddressTreeHeight, defaultCanopyDepth, defaultChangelogCap, defaultRootHistoryCap)
		if err != nil {
			logger.Logf("ERROR build address tree backing account %s: %v", treeHex, err)
			continue
		}
		batch, err := batchtree.New(backing, defaultNumBatches, defaultBatchSize, defaultZkpBatchSize, defaultRootHistoryCap)
		if err != nil {
			logger.Logf("ERROR build address batch account %s: %v", treeHex, err)
			continue
		}
		f.Register(&forester.TreeJob{Pubkey: pubkey, Kind: forester.KindAddress, Batch: batch, Address: addrTree})
		logger.Logf("INFO registered forester pipeline for address tree %s", treeHex)
	}

	f.Start(ctx)
}

func decodeTreePubkey(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, fmt.Errorf("malformed tree pubkey %q", s)
	}
	copy(out[:], b)
	return out, nil
}
