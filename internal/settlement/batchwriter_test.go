package settlement

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/batchtree"
	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/indexedtree"
	"github.com/andrey/compressed-state/internal/merkletree"
)

func newTestBatchWriter(t *testing.T) (*BatchWriter, hash.Hasher) {
	hasher := hash.NewSHA256()

	stateTree, err := merkletree.New(hasher, 4, 2, 8, 8)
	require.NoError(t, err)
	stateBatch, err := batchtree.New(stateTree, 2, 4, 2, 8)
	require.NoError(t, err)

	addressTree := indexedtree.New(hasher, 4)
	addrStateTree, err := merkletree.New(hasher, 4, 2, 8, 8)
	require.NoError(t, err)
	addressQueue, err := batchtree.New(addrStateTree, 2, 4, 2, 8)
	require.NoError(t, err)

	return &BatchWriter{
		Hasher:        hasher,
		StateTrees:    []*batchtree.Account{stateBatch},
		AddressTrees:  []*indexedtree.Tree{addressTree},
		AddressQueues: []*batchtree.Account{addressQueue},
	}, hasher
}

func TestBatchWriterInsertNullifierThreadsTxHash(t *testing.T) {
	w, hasher := newTestBatchWriter(t)
	nullifier := hash.Hash{1}
	txHash := hash.Hash{2}

	require.NoError(t, w.InsertNullifier(0, 0, nullifier, txHash, 0))
	require.True(t, w.StateTrees[0].VerifyHashChain(hasher, 0, 0, 0, []hash.Hash{nullifier}, []hash.Hash{txHash}))
}

func TestBatchWriterInsertOutputLeaf(t *testing.T) {
	w, hasher := newTestBatchWriter(t)
	leaf := hash.Hash{3}

	require.NoError(t, w.InsertOutputLeaf(0, leaf, 0))
	require.True(t, w.StateTrees[0].VerifyHashChain(hasher, 0, 0, 0, []hash.Hash{leaf}, []hash.Hash{{}}))
}

func TestBatchWriterInsertAddress(t *testing.T) {
	w, _ := newTestBatchWriter(t)
	addr := hash.Hash{7}

	require.NoError(t, w.InsertAddress(0, 0, addr))
	_, err := w.AddressTrees[0].Prove(addr)
	require.Error(t, err) // addr is now present, so a non-inclusion proof must fail
}

func TestBatchWriterUnknownTreeIndex(t *testing.T) {
	w, _ := newTestBatchWriter(t)
	require.Error(t, w.InsertNullifier(5, 0, hash.Hash{}, hash.Hash{}, 0))
	require.Error(t, w.InsertOutputLeaf(5, hash.Hash{}, 0))
	require.Error(t, w.InsertAddress(5, 0, hash.Hash{}))
}
