// Package batchtree implements the batched tree account of spec C6: an
// on-chain layout binding a concurrent (or indexed) Merkle tree to a queue
// of pending leaves, per-batch hash chains, and a root-history ring buffer.
//
// The hash-chain store and root-history ring are genuinely zero-copy
// (internal/zerocopy) since they are fixed-shape byte regions an on-chain
// account would serialize directly. The bare tree (frontier/canopy/
// changelog) is the in-memory internal/merkletree.Tree built earlier in
// this module rather than a raw byte view: representing C3's changelog and
// canopy as literal unsafe-cast buffers buys nothing here since no on-chain
// runtime actually maps this account, and doing so would have meant
// duplicating merkletree's append algorithm behind a second, zero-copy-only
// implementation.
package batchtree

import (
	"encoding/binary"

	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/merkletree"
	"github.com/andrey/compressed-state/internal/zerocopy"
)

// State is a batch's lifecycle stage (spec §3.5).
type State int

const (
	StateFill State = iota
	StateReadyToUpdateTree
	StateInserted
)

func (s State) String() string {
	switch s {
	case StateFill:
		return "fill"
	case StateReadyToUpdateTree:
		return "ready_to_update_tree"
	case StateInserted:
		return "inserted"
	default:
		return "unknown"
	}
}

// Batch is one entry of queue metadata's batches[K] (spec §3.5).
type Batch struct {
	State                        State
	CurrentZkpBatchIndex         int
	NumInsertedZkps              int
	ZkpBatchSize                 int
	NumInsertedInCurrentZkpBatch int
}

// Account is the batched tree account of spec C6.
type Account struct {
	Tree *merkletree.Tree

	batchSize          int
	zkpBatchSize       int
	subBatchesPerBatch int // Z = batch_size / zkp_batch_size
	nextFullBatchIndex int
	batches            []Batch

	hashChains  *zerocopy.Slice2D[hash.Hash] // [K][Z]
	rootHistory *zerocopy.Slice[hash.Hash]
	rootHistAt  int
	rootHistN   int

	rolledOver *RolledOver
}

// New constructs a batched tree account with numBatches (K) slots, each of
// batchSize leaves split into batchSize/zkpBatchSize sub-batches (Z).
func New(tree *merkletree.Tree, numBatches, batchSize, zkpBatchSize, rootHistoryCap int) (*Account, error) {
	z := batchSize / zkpBatchSize
	hcBuf := make([]byte, numBatches*z*32)
	hashChains, err := zerocopy.NewSlice2D[hash.Hash](hcBuf, numBatches, z)
	if err != nil {
		return nil, err
	}
	rhBuf := make([]byte, rootHistoryCap*32)
	rootHistory, err := zerocopy.NewSlice[hash.Hash](rhBuf, rootHistoryCap)
	if err != nil {
		return nil, err
	}
	batches := make([]Batch, numBatches)
	for i := range batches {
		batches[i].ZkpBatchSize = zkpBatchSize
	}
	a := &Account{
		Tree:               tree,
		batchSize:          batchSize,
		zkpBatchSize:       zkpBatchSize,
		subBatchesPerBatch: z,
		batches:            batches,
		hashChains:         hashChains,
		rootHistory:        rootHistory,
	}
	a.pushRootHistory(tree.Root())
	return a, nil
}

func (a *Account) pushRootHistory(root hash.Hash) {
	*a.rootHistory.Get(a.rootHistAt) = root
	a.rootHistAt = (a.rootHistAt + 1) % a.rootHistory.Len()
	if a.rootHistN < a.rootHistory.Len() {
		a.rootHistN++
	}
}

// RootHistoryContains reports whether root appears anywhere in the ring
// buffer (spec §4.6 invariant: "proofs accepted by C3/C4 inside this
// account use that history").
func (a *Account) RootHistoryContains(root hash.Hash) bool {
	for i := 0; i < a.rootHistN; i++ {
		if *a.rootHistory.Get(i) == root {
			return true
		}
	}
	return false
}

// Batches returns a copy of the K batch slots' current state.
func (a *Account) Batches() []Batch {
	out := make([]Batch, len(a.batches))
	copy(out, a.batches)
	return out
}

// NextFullBatchIndex returns the index of the batch currently being filled.
func (a *Account) NextFullBatchIndex() int { return a.nextFullBatchIndex }

// BatchSize returns the number of leaves (batch_size) each batch slot holds.
func (a *Account) BatchSize() int { return a.batchSize }

// ZkpBatchSize returns the number of leaves proved per sub-batch.
func (a *Account) ZkpBatchSize() int { return a.zkpBatchSize }

// SubBatchesPerBatch returns Z, the number of ZK sub-batches per batch slot.
func (a *Account) SubBatchesPerBatch() int { return a.subBatchesPerBatch }

func chainLeafEntry(hasher hash.Hasher, prev hash.Hash, leafHash hash.Hash, leafIndex uint64, aux hash.Hash) hash.Hash {
	var idxBuf [8]byte
	binary.BigEndian.PutUint64(idxBuf[:], leafIndex)
	return hasher.HashV(prev.Bytes(), leafHash.Bytes(), idxBuf[:], aux.Bytes())
}

// insert appends leafHash into the batch currently in Fill, bumping its
// hash chain per spec §4.6 ("bumps its hash chain by hashv(prev_chain,
// leaf_hash || leaf_index_be || tx_hash)"). aux is the tx_hash for input
// queue insertions, or the zero hash for output-queue insertions.
func (a *Account) insert(hasher hash.Hasher, leafHash hash.Hash, leafIndex uint64, aux hash.Hash) error {
	b := &a.batches[a.nextFullBatchIndex]
	if b.State == StateInserted {
		// The queue has wrapped back around to an inserted slot: start it
		// over as an empty Fill batch with zeroed hash chains.
		*b = Batch{ZkpBatchSize: a.zkpBatchSize}
		for z := 0; z < a.subBatchesPerBatch; z++ {
			*a.hashChains.Get(a.nextFullBatchIndex, z) = hash.Hash{}
		}
	}
	if b.State != StateFill {
		return ErrNoBatchInFill
	}
	sub := b.CurrentZkpBatchIndex
	prev := *a.hashChains.Get(a.nextFullBatchIndex, sub)
	*a.hashChains.Get(a.nextFullBatchIndex, sub) = chainLeafEntry(hasher, prev, leafHash, leafIndex, aux)

	b.NumInsertedInCurrentZkpBatch++
	if b.NumInsertedInCurrentZkpBatch == b.ZkpBatchSize {
		b.CurrentZkpBatchIndex++
		b.NumInsertedInCurrentZkpBatch = 0
		if b.CurrentZkpBatchIndex == a.subBatchesPerBatch {
			b.State = StateReadyToUpdateTree
		}
	}
	return nil
}

// InsertIntoInputQueue appends a nullifier-bound leaf to the input side of
// the batch currently in Fill (spec §4.6).
func (a *Account) InsertIntoInputQueue(hasher hash.Hasher, leafHash, txHash hash.Hash, leafIndex uint64) error {
	return a.insert(hasher, leafHash, leafIndex, txHash)
}

// InsertIntoOutputQueue appends a freshly-created leaf to the output side
// of the batch currently in Fill (spec §4.6).
func (a *Account) InsertIntoOutputQueue(hasher hash.Hasher, leaf hash.Hash, leafIndex uint64) error {
	return a.insert(hasher, leaf, leafIndex, hash.Hash{})
}

// HashChain returns the committed hash-chain entry for sub-batch z of batch
// b, for the forester's hash-chain validation step (spec §4.9 step 3).
func (a *Account) HashChain(b, z int) hash.Hash { return *a.hashChains.Get(b, z) }

// VerifyHashChain recomputes sub-batch z of batch b's hash chain from
// leaves/auxes (the leaf hashes and tx-hash/zero auxiliaries the forester
// snapshotted from the indexer's queue, in insertion order) and reports
// whether it matches the committed chain, per spec §4.9 step 3 ("validate
// hash chain"). A mismatch means the forester's local view of the queue has
// drifted from what was actually committed on-chain and must not be used
// to build circuit inputs.
func (a *Account) VerifyHashChain(hasher hash.Hasher, b, z int, leafIndexStart uint64, leaves, auxes []hash.Hash) bool {
	if len(leaves) != len(auxes) {
		return false
	}
	var chain hash.Hash
	for i, leaf := range leaves {
		chain = chainLeafEntry(hasher, chain, leaf, leafIndexStart+uint64(i), auxes[i])
	}
	return chain == a.HashChain(b, z)
}

// ApplyZKUpdate records a sub-batch's ZK-verified root advance (spec §4.6
// apply_zk_update, delegated to C7 for the proof check itself — this
// method only performs the bookkeeping C6 owns once C7 has accepted the
// proof): advances num_inserted_zkps, appends to root history, and once
// every sub-batch of the target batch has landed, flips it to Inserted and
// rotates next_full_batch_index.
func (a *Account) ApplyZKUpdate(batchIndex int, newRoot hash.Hash) error {
	b := &a.batches[batchIndex]
	if b.State != StateReadyToUpdateTree {
		return ErrBatchNotReady
	}
	if b.NumInsertedZkps >= a.subBatchesPerBatch {
		return ErrBatchAlreadyFull
	}
	b.NumInsertedZkps++
	a.pushRootHistory(newRoot)
	if b.NumInsertedZkps == a.subBatchesPerBatch {
		b.State = StateInserted
		a.nextFullBatchIndex = (a.nextFullBatchIndex + 1) % len(a.batches)
	}
	return nil
}
