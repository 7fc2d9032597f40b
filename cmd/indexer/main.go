// Command indexer runs the off-chain authoritative mirror of spec C8,
// serving its query surface over the REST API defined in internal/api.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-pkgz/lgr"

	"github.com/andrey/compressed-state/internal/api"
	"github.com/andrey/compressed-state/internal/api/handlers"
	"github.com/andrey/compressed-state/internal/batchtree"
	"github.com/andrey/compressed-state/internal/config"
	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/indexedtree"
	"github.com/andrey/compressed-state/internal/indexer"
	"github.com/andrey/compressed-state/internal/infra/logging"
	"github.com/andrey/compressed-state/internal/merkletree"
	"github.com/andrey/compressed-state/internal/prover"
	"github.com/andrey/compressed-state/internal/settlement"
)

// Defaults mirror cmd/forester's tree sizing -- a production deployment
// hydrates these from the tree account's own on-chain bytes instead.
const (
	defaultTreeHeight     = 26
	defaultCanopyDepth    = 10
	defaultChangelogCap   = 64
	defaultRootHistoryCap = 64
	defaultNumBatches     = 2
	defaultBatchSize      = 500
	defaultZkpBatchSize   = 10
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the indexer's YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "indexer: load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewWithConfig(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "indexer: init logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := indexer.NewStore(logger, cfg.Indexer.BadgerPath)
	if err != nil {
		logger.Logf("ERROR open badger store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	var proverClient *prover.Client
	if cfg.Prover.Endpoint != "" {
		proverClient = prover.New(cfg.Prover.Endpoint, logger, cfg.Prover.Timeout)
	}

	hasher := hash.NewPoseidon()
	ix := indexer.New(hasher, proverClient, store)

	server := api.NewServer(ix, logger, cfg)

	if settlementHandler, err := buildSettlementHandler(hasher, cfg, ix, logger); err != nil {
		logger.Logf("ERROR build settlement verifier: %v", err)
	} else if settlementHandler != nil {
		server = server.WithSettlementHandler(settlementHandler)
	}

	go func() {
		<-ctx.Done()
		logger.Logf("INFO indexer shutting down")
	}()

	if err := server.Start(); err != nil {
		logger.Logf("ERROR indexer server: %v", err)
		os.Exit(1)
	}
}

// buildSettlementHandler wires C7's settlement verifier (internal/settlement)
// against real batched tree accounts built from cfg.Settlement, registering
// each with ix so the indexer mirrors exactly what settlement mutates.
// Returns (nil, nil) when no settlement trees are configured, so a
// read-only mirror deployment doesn't need a settlement section at all.
//
// Scope: the resulting handler only settles InstructionDataInvokeCpi
// payloads that carry no NewAddresses. ResolveRoot and MerkleContext.TreeIndex
// are defined over the state-tree list built here; reconciling that index
// space with address-tree root resolution needs the combined remaining-
// accounts-style indexing a real on-chain program would use, which settlement's
// current RootResolver signature doesn't carry enough information to
// disambiguate (see DESIGN.md).
func buildSettlementHandler(hasher hash.Hasher, cfg *config.Config, ix *indexer.Indexer, logger lgr.L) (*handlers.SettlementHandler, error) {
	if len(cfg.Settlement.StateTrees) == 0 {
		return nil, nil
	}

	var programID [32]byte
	if cfg.Settlement.InvokingProgramID != "" {
		pk, err := decodeHexPubkey(cfg.Settlement.InvokingProgramID)
		if err != nil {
			return nil, fmt.Errorf("invoking_program_id: %w", err)
		}
		programID = pk
	}

	stateBatches := make([]*batchtree.Account, 0, len(cfg.Settlement.StateTrees))
	stateMerkleTrees := make([]*merkletree.Tree, 0, len(cfg.Settlement.StateTrees))
	treeAccounts := make([]settlement.TreeAccount, 0, len(cfg.Settlement.StateTrees))

	for _, treeHex := range cfg.Settlement.StateTrees {
		pubkey, err := decodeHexPubkey(treeHex)
		if err != nil {
			return nil, fmt.Errorf("state tree %s: %w", treeHex, err)
		}
		tree, err := merkletree.New(hasher, defaultTreeHeight, defaultCanopyDepth, defaultChangelogCap, defaultRootHistoryCap)
		if err != nil {
			return nil, fmt.Errorf("build state tree %s: %w", treeHex, err)
		}
		batch, err := batchtree.New(tree, defaultNumBatches, defaultBatchSize, defaultZkpBatchSize, defaultRootHistoryCap)
		if err != nil {
			return nil, fmt.Errorf("build batch account %s: %w", treeHex, err)
		}
		ix.RegisterStateTree(pubkey, tree, batch)
		stateBatches = append(stateBatches, batch)
		stateMerkleTrees = append(stateMerkleTrees, tree)
		treeAccounts = append(treeAccounts, batch)
		logger.Logf("INFO registered settlement state tree %s", treeHex)
	}

	addressTrees := make([]*indexedtree.Tree, 0, len(cfg.Settlement.AddressTrees))
	addressQueues := make([]*batchtree.Account, 0, len(cfg.Settlement.AddressTrees))
	for _, treeHex := range cfg.Settlement.AddressTrees {
		pubkey, err := decodeHexPubkey(treeHex)
		if err != nil {
			return nil, fmt.Errorf("address tree %s: %w", treeHex, err)
		}
		addrTree := indexedtree.New(hasher, defaultTreeHeight)
		backing, err := merkletree.New(hasher, defaultTreeHeight, defaultCanopyDepth, defaultChangelogCap, defaultRootHistoryCap)
		if err != nil {
			return nil, fmt.Errorf("build address queue backing tree %s: %w", treeHex, err)
		}
		queue, err := batchtree.New(backing, defaultNumBatches, defaultBatchSize, defaultZkpBatchSize, defaultRootHistoryCap)
		if err != nil {
			return nil, fmt.Errorf("build address queue %s: %w", treeHex, err)
		}
		ix.RegisterAddressTree(pubkey, addrTree, queue)
		addressTrees = append(addressTrees, addrTree)
		addressQueues = append(addressQueues, queue)
		logger.Logf("INFO registered settlement address tree %s", treeHex)
	}

	writer := &settlement.BatchWriter{
		Hasher:        hasher,
		StateTrees:    stateBatches,
		AddressTrees:  addressTrees,
		AddressQueues: addressQueues,
	}

	resolveRoot := func(treeIndex uint8, rootIndex uint16) (hash.Hash, error) {
		if int(treeIndex) >= len(stateMerkleTrees) {
			return hash.Hash{}, fmt.Errorf("settlement: unknown tree index %d", treeIndex)
		}
		history := stateMerkleTrees[treeIndex].RootHistory()
		if int(rootIndex) >= len(history) {
			return hash.Hash{}, fmt.Errorf("settlement: unknown root index %d for tree %d", rootIndex, treeIndex)
		}
		return history[rootIndex].Root, nil
	}

	verifier := &settlement.Verifier{
		Hasher:        hasher,
		ProofVerifier: settlement.FakeVerifier{},
		ResolveRoot:   resolveRoot,
	}

	// No input is ever treated as within the unfinalized prove_by_index
	// window by this wiring: every input not provable by a fresh ZK proof
	// is rejected rather than silently accepted, the conservative default
	// for a deployment that hasn't wired the output-queue leaf-index window
	// tracking C3's unfinalized rule (spec §4.7 step 6) depends on.
	unfinalized := func(uint8, uint64) bool { return false }

	return handlers.NewSettlementHandler(verifier, writer, nil, treeAccounts, unfinalized, programID, logger), nil
}

func decodeHexPubkey(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return out, fmt.Errorf("malformed pubkey %q", s)
	}
	copy(out[:], b)
	return out, nil
}
