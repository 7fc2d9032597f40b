package settlement

import (
	"fmt"

	"github.com/andrey/compressed-state/internal/batchtree"
	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/indexedtree"
)

// BatchWriter is the production OutputWriter: it applies Verify's effects
// directly to the batched tree accounts (C6) and address trees a
// deployment actually runs, the way cmd/indexer wires it, rather than
// through the in-memory fakes unit tests use. State/address trees are
// addressed by their position in StateTrees/AddressTrees, matching
// tree_index/address_merkle_tree_index (spec §4.7).
type BatchWriter struct {
	Hasher hash.Hasher

	StateTrees []*batchtree.Account

	AddressTrees  []*indexedtree.Tree
	AddressQueues []*batchtree.Account
}

// InsertNullifier bumps the input queue's hash chain for the consumed
// leaf, carrying txHash into it per spec §4.6 insert_into_input_queue.
func (w *BatchWriter) InsertNullifier(treeIndex, queueIndex uint8, nullifier, txHash hash.Hash, leafIndex uint64) error {
	if int(treeIndex) >= len(w.StateTrees) {
		return fmt.Errorf("settlement: unknown state tree index %d", treeIndex)
	}
	return w.StateTrees[treeIndex].InsertIntoInputQueue(w.Hasher, nullifier, txHash, leafIndex)
}

// InsertOutputLeaf bumps the output queue's hash chain for the newly
// created leaf.
func (w *BatchWriter) InsertOutputLeaf(treeIndex uint8, leaf hash.Hash, leafIndex uint64) error {
	if int(treeIndex) >= len(w.StateTrees) {
		return fmt.Errorf("settlement: unknown state tree index %d", treeIndex)
	}
	return w.StateTrees[treeIndex].InsertIntoOutputQueue(w.Hasher, leaf, leafIndex)
}

// InsertAddress inserts addr into the address tree's shadow sorted list
// and bumps its queue's hash chain (addresses carry no tx_hash aux, unlike
// state-tree nullifiers).
func (w *BatchWriter) InsertAddress(treeIndex, queueIndex uint8, addr hash.Hash) error {
	if int(treeIndex) >= len(w.AddressTrees) {
		return fmt.Errorf("settlement: unknown address tree index %d", treeIndex)
	}
	leafIndex, err := w.AddressTrees[treeIndex].Insert(addr)
	if err != nil {
		return err
	}
	if int(treeIndex) >= len(w.AddressQueues) {
		return fmt.Errorf("settlement: unknown address queue index %d", treeIndex)
	}
	return w.AddressQueues[treeIndex].InsertIntoOutputQueue(w.Hasher, addr, leafIndex)
}
