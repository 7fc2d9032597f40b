package forester

import (
	"context"
	"testing"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/batchtree"
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

type fakeQueue struct {
	elems []QueueElement
}

// newFakeQueue builds a fakeQueue from bare leaf hashes, with a zero tx_hash
// aux on every entry (the output-queue/address-queue shape).
func newFakeQueue(leaves []hash.Hash) *fakeQueue {
	elems := make([]QueueElement, len(leaves))
	for i, leaf := range leaves {
		elems[i] = QueueElement{Leaf: leaf}
	}
	return &fakeQueue{elems: elems}
}

func (q *fakeQueue) GetQueueElements(treePubkey [32]byte, batchIndex, start, limit int) ([]QueueElement, error) {
	end := start + limit
	if end > len(q.elems) {
		end = len(q.elems)
	}
	if start >= len(q.elems) {
		return nil, nil
	}
	return q.elems[start:end], nil
}

type fakeProver struct{}

func (fakeProver) Prove(ctx context.Context, req prover.Request) (prover.Proof, error) {
	return prover.Proof{AR: "a", BS: "b", KRS: "c"}, nil
}

type fakeSubmitter struct {
	stateCalls   int
	addressCalls int
	lastRoot     hash.Hash
}

func (s *fakeSubmitter) SubmitBatchUpdateStateTree(ctx context.Context, treePubkey [32]byte, batchIndex int, newRoot hash.Hash, oldRootIndex uint16, proof prover.Proof) error {
	s.stateCalls++
	s.lastRoot = newRoot
	return nil
}

func (s *fakeSubmitter) SubmitBatchUpdateAddressTree(ctx context.Context, treePubkey [32]byte, batchIndex int, newRoot hash.Hash, oldRootIndex uint16, proof prover.Proof) error {
	s.addressCalls++
	s.lastRoot = newRoot
	return nil
}

func TestRunCycleStateTreeAppliesSubBatch(t *testing.T) {
	hasher := hash.NewSHA256()
	tree, err := merkletree.New(hasher, 10, 0, 32, 32)
	require.NoError(t, err)
	batch, err := batchtree.New(tree, 1, 2, 2, 32)
	require.NoError(t, err)

	leaves := []hash.Hash{leafOf(1), leafOf(2)}
	for i, leaf := range leaves {
		require.NoError(t, batch.InsertIntoOutputQueue(hasher, leaf, uint64(i)))
	}
	require.Equal(t, batchtree.StateReadyToUpdateTree, batch.Batches()[0].State)

	job := &TreeJob{Pubkey: [32]byte{1}, Kind: KindState, Batch: batch, State: tree}
	submitter := &fakeSubmitter{}
	f := New(hasher, newFakeQueue(leaves), fakeProver{}, submitter, lgr.NoOp, Config{MaxElapsed: time.Second})

	require.NoError(t, f.runCycle(context.Background(), job))
	assert.Equal(t, 1, submitter.stateCalls)
	assert.Equal(t, batchtree.StateInserted, batch.Batches()[0].State)
	assert.Equal(t, submitter.lastRoot, tree.Root())
}

func TestRunCycleHashChainMismatchIsConsistencyViolation(t *testing.T) {
	hasher := hash.NewSHA256()
	tree, err := merkletree.New(hasher, 10, 0, 32, 32)
	require.NoError(t, err)
	batch, err := batchtree.New(tree, 1, 2, 2, 32)
	require.NoError(t, err)

	require.NoError(t, batch.InsertIntoOutputQueue(hasher, leafOf(1), 0))
	require.NoError(t, batch.InsertIntoOutputQueue(hasher, leafOf(2), 1))

	job := &TreeJob{Pubkey: [32]byte{1}, Kind: KindState, Batch: batch, State: tree}
	submitter := &fakeSubmitter{}
	wrongLeaves := []hash.Hash{leafOf(9), leafOf(9)}
	f := New(hasher, newFakeQueue(wrongLeaves), fakeProver{}, submitter, lgr.NoOp, Config{MaxElapsed: time.Second})

	err = f.runCycle(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, 0, submitter.stateCalls)
}

func TestRunCycleAddressTreeAppliesSubBatch(t *testing.T) {
	hasher := hash.NewSHA256()
	atree := indexedtree.New(hasher, 8)
	stateTree, err := merkletree.New(hasher, 10, 0, 32, 32)
	require.NoError(t, err)
	batch, err := batchtree.New(stateTree, 1, 1, 1, 32)
	require.NoError(t, err)

	addr := leafOf(55)
	require.NoError(t, batch.InsertIntoOutputQueue(hasher, addr, 0))
	require.Equal(t, batchtree.StateReadyToUpdateTree, batch.Batches()[0].State)

	job := &TreeJob{Pubkey: [32]byte{2}, Kind: KindAddress, Batch: batch, Address: atree}
	submitter := &fakeSubmitter{}
	f := New(hasher, newFakeQueue([]hash.Hash{addr}), fakeProver{}, submitter, lgr.NoOp, Config{MaxElapsed: time.Second})

	require.NoError(t, f.runCycle(context.Background(), job))
	assert.Equal(t, 1, submitter.addressCalls)
	assert.Equal(t, batchtree.StateInserted, batch.Batches()[0].State)
}

// TestRunCycleStateTreeNullifierHashChainUsesTxHash exercises the input
// queue path (InsertIntoInputQueue), whose hash chain folds in a per-leaf
// tx_hash aux, confirming runStateCycle feeds the queue's real tx_hash back
// into VerifyHashChain rather than a zero-filled placeholder.
func TestRunCycleStateTreeNullifierHashChainUsesTxHash(t *testing.T) {
	hasher := hash.NewSHA256()
	tree, err := merkletree.New(hasher, 10, 0, 32, 32)
	require.NoError(t, err)
	batch, err := batchtree.New(tree, 1, 2, 2, 32)
	require.NoError(t, err)

	nullifiers := []hash.Hash{leafOf(1), leafOf(2)}
	txHashes := []hash.Hash{leafOf(101), leafOf(102)}
	for i, n := range nullifiers {
		require.NoError(t, batch.InsertIntoInputQueue(hasher, n, txHashes[i], uint64(i)))
	}
	require.Equal(t, batchtree.StateReadyToUpdateTree, batch.Batches()[0].State)

	elems := make([]QueueElement, len(nullifiers))
	for i, n := range nullifiers {
		elems[i] = QueueElement{Leaf: n, TxHash: txHashes[i]}
	}

	job := &TreeJob{Pubkey: [32]byte{4}, Kind: KindState, Batch: batch, State: tree}
	submitter := &fakeSubmitter{}
	f := New(hasher, &fakeQueue{elems: elems}, fakeProver{}, submitter, lgr.NoOp, Config{MaxElapsed: time.Second})

	require.NoError(t, f.runCycle(context.Background(), job))
	assert.Equal(t, 1, submitter.stateCalls)
}

// TestRunCycleStateTreeNullifierWrongTxHashFails confirms a tampered or
// stale tx_hash aux is caught as a hash-chain mismatch rather than silently
// accepted, which a zero-filled aux could never detect.
func TestRunCycleStateTreeNullifierWrongTxHashFails(t *testing.T) {
	hasher := hash.NewSHA256()
	tree, err := merkletree.New(hasher, 10, 0, 32, 32)
	require.NoError(t, err)
	batch, err := batchtree.New(tree, 1, 2, 2, 32)
	require.NoError(t, err)

	nullifiers := []hash.Hash{leafOf(1), leafOf(2)}
	require.NoError(t, batch.InsertIntoInputQueue(hasher, nullifiers[0], leafOf(101), 0))
	require.NoError(t, batch.InsertIntoInputQueue(hasher, nullifiers[1], leafOf(102), 1))

	elems := []QueueElement{
		{Leaf: nullifiers[0], TxHash: leafOf(101)},
		{Leaf: nullifiers[1], TxHash: leafOf(999)}, // wrong aux
	}

	job := &TreeJob{Pubkey: [32]byte{5}, Kind: KindState, Batch: batch, State: tree}
	submitter := &fakeSubmitter{}
	f := New(hasher, &fakeQueue{elems: elems}, fakeProver{}, submitter, lgr.NoOp, Config{MaxElapsed: time.Second})

	err = f.runCycle(context.Background(), job)
	require.Error(t, err)
	assert.Equal(t, 0, submitter.stateCalls)
}

func TestRunCycleNoReadyBatchIsNoop(t *testing.T) {
	hasher := hash.NewSHA256()
	tree, err := merkletree.New(hasher, 10, 0, 32, 32)
	require.NoError(t, err)
	batch, err := batchtree.New(tree, 1, 2, 2, 32)
	require.NoError(t, err)

	job := &TreeJob{Pubkey: [32]byte{3}, Kind: KindState, Batch: batch, State: tree}
	f := New(hasher, &fakeQueue{}, fakeProver{}, &fakeSubmitter{}, lgr.NoOp, Config{MaxElapsed: time.Second})
	assert.NoError(t, f.runCycle(context.Background(), job))
}
