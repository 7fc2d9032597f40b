// Package indexer implements the off-chain authoritative mirror of spec
// C8: a registry of every state and address tree this deployment knows
// about, kept current enough that the proofs it serves satisfy C3's
// stale-proof rule and C4's non-inclusion rule, plus a cache in front of
// the external prover oracle.
package indexer

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrey/compressed-state/internal/batchtree"
	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/indexedtree"
	"github.com/andrey/compressed-state/internal/merkletree"
	"github.com/andrey/compressed-state/internal/prover"
)

// AccountProof is the indexer's answer to one hash in
// get_multiple_compressed_account_proofs: a merkle proof plus the leaf
// index and root it was captured against.
type AccountProof struct {
	Hash      hash.Hash
	LeafIndex uint64
	Proof     merkletree.Proof
	Root      hash.Hash
}

// NewAddressWithTree names the tree a new-address entry targets, for
// get_validity_proof's combined public-inputs assembly.
type NewAddressWithTree struct {
	Tree    [32]byte
	Address hash.Hash
}

// QueueElement is one entry sitting in a batch slot's fill buffer: the leaf
// (or address) hash itself, plus the tx_hash aux chained alongside it into
// the batch's hash chain (spec §4.6 insert_into_input_queue(leaf_hash,
// tx_hash); the zero hash for output-queue and address-queue insertions,
// which carry no tx_hash).
type QueueElement struct {
	Leaf   hash.Hash `json:"leaf"`
	TxHash hash.Hash `json:"tx_hash"`
}

// stateTreeEntry bundles a state tree with the batch account that owns its
// input/output queues, so the indexer can answer get_queue_elements.
type stateTreeEntry struct {
	tree  *merkletree.Tree
	batch *batchtree.Account
	// queuedElements holds the entries currently sitting in each batch
	// slot's fill buffer, in insertion order. batchtree.Account itself only
	// keeps the hash-chain commitment (O(1), on-chain-shaped) -- the
	// indexer is the off-chain component that additionally remembers the
	// actual leaf values (and their tx_hash aux), matching its role as the
	// "authoritative mirror" the queue's own account does not attempt to be.
	queuedElements map[int][]QueueElement
}

// addressTreeEntry bundles an address tree with its pending (not yet
// batch-applied) queue of new-address insertions.
type addressTreeEntry struct {
	tree           *indexedtree.Tree
	batch          *batchtree.Account
	queuedElements map[int][]QueueElement
}

// Indexer is the off-chain mirror of spec C8.
type Indexer struct {
	hasher hash.Hasher
	prover *prover.Client
	store  *Store

	mu           sync.RWMutex
	stateTrees   map[[32]byte]*stateTreeEntry
	addressTrees map[[32]byte]*addressTreeEntry
}

// New constructs an empty Indexer. store may be nil, in which case validity
// proofs are not cached and leaf locations are looked up by scanning the
// in-memory queued elements (suitable for tests); prover may be nil if get_validity_proof will never be called
// (e.g. a read-only mirror).
func New(hasher hash.Hasher, proverClient *prover.Client, store *Store) *Indexer {
	return &Indexer{
		hasher:       hasher,
		prover:       proverClient,
		store:        store,
		stateTrees:   make(map[[32]byte]*stateTreeEntry),
		addressTrees: make(map[[32]byte]*addressTreeEntry),
	}
}

// RegisterStateTree starts mirroring a state tree and the batch account
// bound to it.
func (ix *Indexer) RegisterStateTree(pubkey [32]byte, tree *merkletree.Tree, batch *batchtree.Account) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.stateTrees[pubkey] = &stateTreeEntry{tree: tree, batch: batch, queuedElements: make(map[int][]QueueElement)}
}

// RegisterAddressTree starts mirroring an address tree and the batch
// account bound to it.
func (ix *Indexer) RegisterAddressTree(pubkey [32]byte, tree *indexedtree.Tree, batch *batchtree.Account) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.addressTrees[pubkey] = &addressTreeEntry{tree: tree, batch: batch, queuedElements: make(map[int][]QueueElement)}
}

// ObserveLeafInserted records that leaf was appended to treePubkey's state
// tree at leafIndex, into batch slot batchIndex's fill buffer, carrying
// txHash as its hash-chain aux (the zero hash for output-queue/append-only
// insertions; the consuming transaction's hash for input-queue nullifier
// insertions, spec §4.6). Called by whatever on-chain log follower or
// simulation feeds this indexer; kept separate from RegisterStateTree so a
// restart can replay history without re-registering the trees themselves.
func (ix *Indexer) ObserveLeafInserted(treePubkey [32]byte, batchIndex int, leaf, txHash hash.Hash, leafIndex uint64) error {
	ix.mu.Lock()
	entry, ok := ix.stateTrees[treePubkey]
	if !ok {
		ix.mu.Unlock()
		return ErrUnknownTree
	}
	entry.queuedElements[batchIndex] = append(entry.queuedElements[batchIndex], QueueElement{Leaf: leaf, TxHash: txHash})
	ix.mu.Unlock()

	if ix.store == nil {
		return nil
	}
	return ix.store.PutLeafLocation(leaf, leafLocation{TreePubkey: treePubkey, LeafIndex: leafIndex})
}

// ObserveAddressInserted is ObserveLeafInserted's address-tree counterpart.
// Address-queue insertions carry no tx_hash aux.
func (ix *Indexer) ObserveAddressInserted(treePubkey [32]byte, batchIndex int, addr hash.Hash, leafIndex uint64) error {
	ix.mu.Lock()
	entry, ok := ix.addressTrees[treePubkey]
	if !ok {
		ix.mu.Unlock()
		return ErrUnknownTree
	}
	entry.queuedElements[batchIndex] = append(entry.queuedElements[batchIndex], QueueElement{Leaf: addr})
	ix.mu.Unlock()

	if ix.store == nil {
		return nil
	}
	return ix.store.PutLeafLocation(addr, leafLocation{TreePubkey: treePubkey, LeafIndex: leafIndex, IsAddress: true})
}

// GetMultipleCompressedAccountProofs answers get_multiple_compressed_account_proofs:
// for each hash, the merkle proof, leaf index and root it was captured
// against. Proofs are always produced fresh against the tree's current
// sequence, so they start with Δ=0 and are only ever stale by the time the
// caller submits them -- C3's replay rule (§3.2 invariant 4) handles that
// gap on the verifying side.
func (ix *Indexer) GetMultipleCompressedAccountProofs(hashes []hash.Hash) ([]AccountProof, error) {
	out := make([]AccountProof, 0, len(hashes))
	for _, h := range hashes {
		loc, err := ix.locate(h)
		if err != nil {
			return nil, fmt.Errorf("locate %s: %w", h, err)
		}
		ix.mu.RLock()
		entry, ok := ix.stateTrees[loc.TreePubkey]
		ix.mu.RUnlock()
		if !ok {
			return nil, ErrUnknownTree
		}
		proof, found := entry.tree.Prove(loc.LeafIndex, h)
		if !found {
			return nil, ErrLeafNotFound
		}
		out = append(out, AccountProof{Hash: h, LeafIndex: loc.LeafIndex, Proof: proof, Root: entry.tree.Root()})
	}
	return out, nil
}

func (ix *Indexer) locate(h hash.Hash) (leafLocation, error) {
	if ix.store != nil {
		return ix.store.GetLeafLocation(h)
	}
	// In-memory-only mode: linear scan is acceptable for tests and small
	// deployments without a badger store configured.
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for pubkey, entry := range ix.stateTrees {
		for _, elems := range entry.queuedElements {
			for _, e := range elems {
				if e.Leaf == h {
					return leafLocation{TreePubkey: pubkey}, nil
				}
			}
		}
	}
	return leafLocation{}, ErrLeafNotFound
}

// GetMultipleNewAddressProofs answers get_multiple_new_address_proofs:
// a non-inclusion proof per requested address against treePubkey's
// current shadow tree.
func (ix *Indexer) GetMultipleNewAddressProofs(treePubkey [32]byte, addresses []hash.Hash) ([]indexedtree.NonInclusionProof, error) {
	ix.mu.RLock()
	entry, ok := ix.addressTrees[treePubkey]
	ix.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownTree
	}
	out := make([]indexedtree.NonInclusionProof, 0, len(addresses))
	for _, addr := range addresses {
		p, err := entry.tree.Prove(addr)
		if err != nil {
			return nil, fmt.Errorf("prove non-inclusion of %s: %w", addr, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// GetQueueElements answers get_queue_elements: the leaf/tx_hash pairs
// currently queued in batchIndex's fill buffer for treePubkey, sliced
// [start, start+limit).
func (ix *Indexer) GetQueueElements(treePubkey [32]byte, batchIndex, start, limit int) ([]QueueElement, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if entry, ok := ix.stateTrees[treePubkey]; ok {
		return sliceElements(entry.queuedElements[batchIndex], start, limit), nil
	}
	if entry, ok := ix.addressTrees[treePubkey]; ok {
		return sliceElements(entry.queuedElements[batchIndex], start, limit), nil
	}
	return nil, ErrUnknownTree
}

func sliceElements(elems []QueueElement, start, limit int) []QueueElement {
	if start >= len(elems) {
		return nil
	}
	end := start + limit
	if limit <= 0 || end > len(elems) {
		end = len(elems)
	}
	out := make([]QueueElement, end-start)
	copy(out, elems[start:end])
	return out
}

// GetSubtrees answers get_subtrees: the tree's current frontier.
func (ix *Indexer) GetSubtrees(treePubkey [32]byte) ([]hash.Hash, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if entry, ok := ix.stateTrees[treePubkey]; ok {
		return entry.tree.Frontier(), nil
	}
	return nil, ErrUnknownTree
}

// GetValidityProof answers get_validity_proof: a cached or freshly-computed
// Groth16 proof for the prover request req, cached under cacheKey when a
// store is configured. cacheKey is the caller-supplied hash of the assembled
// public-inputs vector (settlement.publicInputsHash); the indexer does not
// recompute it since that requires tree-specific context (root indices,
// lamport amounts) this query alone does not carry.
func (ix *Indexer) GetValidityProof(ctx context.Context, cacheKey hash.Hash, req prover.Request) (prover.Proof, error) {
	if ix.store != nil {
		if cached, ok, err := ix.store.GetValidityProof(cacheKey); err != nil {
			return prover.Proof{}, err
		} else if ok {
			return cached, nil
		}
	}
	if ix.prover == nil {
		return prover.Proof{}, fmt.Errorf("indexer: no prover client configured")
	}
	proof, err := ix.prover.Prove(ctx, req)
	if err != nil {
		return prover.Proof{}, err
	}
	if ix.store != nil {
		if err := ix.store.PutValidityProof(cacheKey, proof); err != nil {
			return prover.Proof{}, err
		}
	}
	return proof, nil
}
