// Package forester implements the forester pipeline of spec C9: an
// off-chain worker that drains each batched tree's input/output queues,
// proves the resulting state transition with the external prover oracle,
// and submits the corresponding batch_update_{state,address}_tree
// instruction, retrying transient failures with exponential backoff.
package forester

import (
	"context"
	"time"

	"github.com/andrey/compressed-state/internal/batchtree"
	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/indexedtree"
	"github.com/andrey/compressed-state/internal/merkletree"
	"github.com/andrey/compressed-state/internal/prover"
)

//go:generate moq -out forester_mocks.go . QueueReader ProofRequester Submitter

// Kind distinguishes the two tree families the forester drives.
type Kind int

const (
	KindState Kind = iota
	KindAddress
)

// QueueElement is one entry sitting in a batch slot's fill buffer, mirroring
// internal/indexer.QueueElement over the wire: the leaf (or address) hash
// plus the tx_hash aux chained alongside it into the batch's hash chain
// (spec §4.6 insert_into_input_queue(leaf_hash, tx_hash)). Zero for
// output-queue and address-queue insertions.
type QueueElement struct {
	Leaf   hash.Hash `json:"leaf"`
	TxHash hash.Hash `json:"tx_hash"`
}

// QueueReader is the subset of internal/indexer's query surface the
// forester needs: a snapshot of a batch slot's queued leaves.
type QueueReader interface {
	GetQueueElements(treePubkey [32]byte, batchIndex, start, limit int) ([]QueueElement, error)
}

// ProofRequester is satisfied by *internal/prover.Client.
type ProofRequester interface {
	Prove(ctx context.Context, req prover.Request) (prover.Proof, error)
}

// Submitter sends the on-chain batch-update instructions of spec §6.2.
// Implementations live outside this package (cmd/forester wires a real
// Solana-family RPC submitter; tests use a fake).
type Submitter interface {
	SubmitBatchUpdateStateTree(ctx context.Context, treePubkey [32]byte, batchIndex int, newRoot hash.Hash, oldRootIndex uint16, proof prover.Proof) error
	SubmitBatchUpdateAddressTree(ctx context.Context, treePubkey [32]byte, batchIndex int, newRoot hash.Hash, oldRootIndex uint16, proof prover.Proof) error
}

// TreeJob binds one batched tree account to the shadow tree the forester
// maintains for it. Exactly one of State/Address is set, per Kind.
type TreeJob struct {
	Pubkey  [32]byte
	Kind    Kind
	Batch   *batchtree.Account
	State   *merkletree.Tree
	Address *indexedtree.Tree
}

// Config tunes a Forester's polling and backoff behavior (spec §4.9 /
// §7 Transient handling).
type Config struct {
	PollInterval time.Duration
	MaxElapsed   time.Duration // cap on a single cycle's retry budget
}
