package batchtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/hash"
	"github.com/andrey/compressed-state/internal/merkletree"
)

func leafOf(b byte) hash.Hash {
	var h hash.Hash
	h[31] = b
	return h
}

func newTestAccount(t *testing.T, numBatches, batchSize, zkpBatchSize int) *Account {
	t.Helper()
	hasher := hash.NewSHA256()
	tr, err := merkletree.New(hasher, 10, 0, 32, 32)
	require.NoError(t, err)
	acc, err := New(tr, numBatches, batchSize, zkpBatchSize, 32)
	require.NoError(t, err)
	return acc
}

// Property 6: hash-chain commutes with batching — the on-chain
// hashchain_store[b][z] equals the fold of hashv over the sub-batch's
// leaves in order, matching what a caller recomputing it independently
// gets (spec §8 property 6).
func TestHashChainCommutesWithBatching(t *testing.T) {
	hasher := hash.NewSHA256()
	acc := newTestAccount(t, 2, 4, 2)

	require.NoError(t, acc.InsertIntoOutputQueue(hasher, leafOf(1), 0))
	require.NoError(t, acc.InsertIntoOutputQueue(hasher, leafOf(2), 1))

	want := chainLeafEntry(hasher, hash.Hash{}, leafOf(1), 0, hash.Hash{})
	want = chainLeafEntry(hasher, want, leafOf(2), 1, hash.Hash{})

	got := acc.HashChain(0, 0)
	assert.Equal(t, want, got)
}

func TestBatchLifecycleTransitions(t *testing.T) {
	hasher := hash.NewSHA256()
	acc := newTestAccount(t, 2, 4, 2)

	for i := 0; i < 4; i++ {
		require.NoError(t, acc.InsertIntoOutputQueue(hasher, leafOf(byte(i)), uint64(i)))
	}
	batches := acc.Batches()
	assert.Equal(t, StateReadyToUpdateTree, batches[0].State)

	require.NoError(t, acc.ApplyZKUpdate(0, leafOf(99)))
	assert.Equal(t, StateReadyToUpdateTree, acc.Batches()[0].State)
	require.NoError(t, acc.ApplyZKUpdate(0, leafOf(100)))
	assert.Equal(t, StateInserted, acc.Batches()[0].State)
	assert.Equal(t, 1, acc.NextFullBatchIndex())
}

func TestInsertRejectedWhenNotFilling(t *testing.T) {
	hasher := hash.NewSHA256()
	acc := newTestAccount(t, 1, 2, 1)
	require.NoError(t, acc.InsertIntoOutputQueue(hasher, leafOf(1), 0))
	require.NoError(t, acc.InsertIntoOutputQueue(hasher, leafOf(2), 1))
	// batch 0 is now ReadyToUpdateTree; with only one batch slot, there is
	// no Fill batch to insert into.
	assert.ErrorIs(t, acc.InsertIntoOutputQueue(hasher, leafOf(3), 2), ErrNoBatchInFill)
}

func TestApplyZKUpdatePushesRootHistory(t *testing.T) {
	hasher := hash.NewSHA256()
	acc := newTestAccount(t, 2, 1, 1)
	require.NoError(t, acc.InsertIntoOutputQueue(hasher, leafOf(1), 0))
	root := leafOf(77)
	require.NoError(t, acc.ApplyZKUpdate(0, root))
	assert.True(t, acc.RootHistoryContains(root))
}

func TestRolloverMarksAccount(t *testing.T) {
	acc := newTestAccount(t, 1, 2, 1)
	assert.False(t, acc.IsRolledOver())
	acc.Rollover([32]byte{1}, [32]byte{2})
	assert.True(t, acc.IsRolledOver())
}
