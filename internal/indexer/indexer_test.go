package indexer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/indexedtree"
	"github.com/andrey/compressed-state/internal/merkletree"
	"github.com/andrey/compressed-state/internal/prover"
)

func leafOf(b byte) hash.Hash {
	var h hash.Hash
	h[31] = b
	return h
}

func TestCompressedAccountProofRoundTrip(t *testing.T) {
	hasher := hash.NewSHA256()
	tree, err := merkletree.New(hasher, 10, 0, 32, 32)
	require.NoError(t, err)

	var pubkey [32]byte
	pubkey[0] = 1

	dbPath := filepath.Join(t.TempDir(), "badger")
	store, err := NewStore(lgr.NoOp, dbPath)
	require.NoError(t, err)
	defer store.Close()

	ix := New(hasher, nil, store)
	ix.RegisterStateTree(pubkey, tree, nil)

	leaf := leafOf(7)
	_, err = tree.Append(leaf)
	require.NoError(t, err)
	require.NoError(t, ix.ObserveLeafInserted(pubkey, 0, leaf, hash.Hash{}, 0))

	proofs, err := ix.GetMultipleCompressedAccountProofs([]hash.Hash{leaf})
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	assert.Equal(t, uint64(0), proofs[0].LeafIndex)

	ok, err := tree.VerifyProof(proofs[0].Proof)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetMultipleNewAddressProofs(t *testing.T) {
	hasher := hash.NewSHA256()
	tree := indexedtree.New(hasher, 8)
	var pubkey [32]byte
	pubkey[0] = 2

	ix := New(hasher, nil, nil)
	ix.RegisterAddressTree(pubkey, tree, nil)

	v := leafOf(42)
	_, err := tree.Insert(v)
	require.NoError(t, err)

	absent := leafOf(99)
	proofs, err := ix.GetMultipleNewAddressProofs(pubkey, []hash.Hash{absent})
	require.NoError(t, err)
	require.Len(t, proofs, 1)

	ok, err := indexedtree.VerifyNonInclusion(hasher, tree.Height(), tree.Root(), proofs[0])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetQueueElementsSlicing(t *testing.T) {
	hasher := hash.NewSHA256()
	tree, err := merkletree.New(hasher, 10, 0, 32, 32)
	require.NoError(t, err)
	var pubkey [32]byte
	pubkey[0] = 3

	ix := New(hasher, nil, nil)
	ix.RegisterStateTree(pubkey, tree, nil)

	for i := byte(0); i < 5; i++ {
		leaf := leafOf(i)
		_, err := tree.Append(leaf)
		require.NoError(t, err)
		require.NoError(t, ix.ObserveLeafInserted(pubkey, 0, leaf, hash.Hash{}, uint64(i)))
	}

	els, err := ix.GetQueueElements(pubkey, 0, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []QueueElement{{Leaf: leafOf(1)}, {Leaf: leafOf(2)}}, els)
}

func TestGetSubtreesReturnsFrontier(t *testing.T) {
	hasher := hash.NewSHA256()
	tree, err := merkletree.New(hasher, 4, 0, 32, 32)
	require.NoError(t, err)
	var pubkey [32]byte
	pubkey[0] = 4

	ix := New(hasher, nil, nil)
	ix.RegisterStateTree(pubkey, tree, nil)

	frontier, err := ix.GetSubtrees(pubkey)
	require.NoError(t, err)
	assert.Equal(t, tree.Frontier(), frontier)
}

func TestGetValidityProofCaching(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "badger")
	store, err := NewStore(lgr.NoOp, dbPath)
	require.NoError(t, err)
	defer store.Close()

	hasher := hash.NewSHA256()
	ix := New(hasher, nil, store)

	key := leafOf(1)
	want := prover.Proof{AR: "a", BS: "b", KRS: "c"}
	require.NoError(t, store.PutValidityProof(key, want))

	proof, err := ix.GetValidityProof(context.Background(), key, prover.Request{})
	require.NoError(t, err)
	assert.Equal(t, want, proof)
}

func TestUnknownTreeErrors(t *testing.T) {
	hasher := hash.NewSHA256()
	ix := New(hasher, nil, nil)
	_, err := ix.GetSubtrees([32]byte{9})
	assert.ErrorIs(t, err, ErrUnknownTree)
}
