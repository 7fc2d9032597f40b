package settlement

import (
	"github.com/andrey/compressed-state/internal/compressedaccount"
	"github.com/andrey/compressed-state/internal/hash"
)

// UnfinalizedChecker reports whether leafIndex in the output queue of
// treeIndex is still within the window a prove_by_index input may skip the
// ZK check against (spec §4.7 step 6: "written into the output queue at a
// known leaf_index within the unfinalized window").
type UnfinalizedChecker func(treeIndex uint8, leafIndex uint64) bool

// Verify runs the full settlement algorithm of spec §4.7 over ix and, on
// success, applies its effects via writer. treePubkeys and trees are
// indexed by the tree_index values MerkleContext/OutputMerkleTreeIndex/
// AddressMerkleTreeIndex reference.
func (v *Verifier) Verify(
	ix InstructionDataInvokeCpi,
	treePubkeys [][32]byte,
	trees []TreeAccount,
	unfinalized UnfinalizedChecker,
	writer OutputWriter,
) error {
	if err := v.authorize(ix); err != nil {
		return err
	}

	addresses, err := v.deriveAddresses(ix, treePubkeys)
	if err != nil {
		return err
	}

	inputLeafHashes := make([]hash.Hash, len(ix.InputCompressedAccounts))
	roots := make([]hash.Hash, len(ix.InputCompressedAccounts))
	needsProof := false
	for i, in := range ix.InputCompressedAccounts {
		inputLeafHashes[i] = compressedaccount.LeafHash(v.Hasher, in.Account)

		root, err := v.ResolveRoot(in.MerkleContext.TreeIndex, in.RootIndex)
		if err != nil {
			return err
		}
		if int(in.MerkleContext.TreeIndex) >= len(trees) || !trees[in.MerkleContext.TreeIndex].RootHistoryContains(root) {
			return ErrInvalidMerkleTreeOwner
		}
		roots[i] = root

		if !in.MerkleContext.ProveByIndex {
			needsProof = true
		} else if unfinalized == nil || !unfinalized(in.MerkleContext.TreeIndex, in.MerkleContext.LeafIndex) {
			needsProof = true
		}
	}

	outputLeafHashes := make([]hash.Hash, len(ix.OutputCompressedAccounts))
	for i, out := range ix.OutputCompressedAccounts {
		outputLeafHashes[i] = compressedaccount.LeafHash(v.Hasher, out.Account)
	}

	addressRoots := make([]hash.Hash, len(ix.NewAddresses))
	for i, na := range ix.NewAddresses {
		root, err := v.ResolveRoot(na.AddressMerkleTreeIndex, na.RootIndex)
		if err != nil {
			return err
		}
		addressRoots[i] = root
	}

	if err := v.sumCheck(ix); err != nil {
		return err
	}

	if needsProof {
		if ix.Proof == nil {
			return ErrProofRequired
		}
		piHash := v.publicInputsHash(ix, roots, inputLeafHashes, outputLeafHashes, addressRoots, addresses)
		ok, err := v.ProofVerifier.Verify(*ix.Proof, piHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidProof
		}
	}

	return v.apply(ix, inputLeafHashes, outputLeafHashes, addresses, writer)
}

// apply is spec §4.7 step 7: write nullifiers, outputs, and new addresses.
func (v *Verifier) apply(
	ix InstructionDataInvokeCpi,
	inputLeafHashes []hash.Hash,
	outputLeafHashes []hash.Hash,
	addresses []hash.Hash,
	writer OutputWriter,
) error {
	for i, in := range ix.InputCompressedAccounts {
		if err := writer.InsertNullifier(in.MerkleContext.TreeIndex, in.MerkleContext.QueueIndex, inputLeafHashes[i], in.TxHash, in.MerkleContext.LeafIndex); err != nil {
			return err
		}
	}
	for i, out := range ix.OutputCompressedAccounts {
		if err := writer.InsertOutputLeaf(out.OutputMerkleTreeIndex, outputLeafHashes[i], uint64(i)); err != nil {
			return err
		}
	}
	for i, na := range ix.NewAddresses {
		if err := writer.InsertAddress(na.AddressMerkleTreeIndex, na.AddressQueueIndex, addresses[i]); err != nil {
			return err
		}
	}
	return nil
}
