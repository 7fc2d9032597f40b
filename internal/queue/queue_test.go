package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/hash"
)

func valOf(b byte) hash.Hash {
	var h hash.Hash
	h[31] = b
	return h
}

func TestInsertAndContains(t *testing.T) {
	q := New(hash.NewSHA256(), 32, 8)
	require.NoError(t, q.Insert(valOf(1), 0))
	assert.True(t, q.Contains(valOf(1)))
	assert.False(t, q.Contains(valOf(2)))
}

func TestInsertDuplicateFails(t *testing.T) {
	q := New(hash.NewSHA256(), 32, 8)
	require.NoError(t, q.Insert(valOf(1), 0))
	assert.ErrorIs(t, q.Insert(valOf(1), 0), ErrDuplicateValue)
}

// S3: capacity == threshold == 8, so the probe chain always covers the
// whole table regardless of hash distribution. Filling every bucket at
// sequence 0 then marking all inserted leaves the table unreclaimable at
// sequence 7 but fully reclaimable at sequence 9 (current > seq_inserted +
// threshold).
func TestScenarioS3SequenceThresholdEviction(t *testing.T) {
	capacity, threshold := 8, uint64(8)
	q := New(hash.NewSHA256(), capacity, threshold)

	for i := 0; i < capacity; i++ {
		require.NoError(t, q.Insert(valOf(byte(i)), 0))
		require.True(t, q.MarkInserted(valOf(byte(i)), 0))
	}

	// At sequence 7 every bucket is still within its threshold window.
	assert.ErrorIs(t, q.Insert(valOf(200), 7), ErrQueueFull)

	// At sequence 9, 9 > 0+8, so every bucket has become reclaimable.
	require.NoError(t, q.Insert(valOf(200), 9))
}

func TestMarkInsertedUnknownValueReturnsFalse(t *testing.T) {
	q := New(hash.NewSHA256(), 8, 4)
	assert.False(t, q.MarkInserted(valOf(1), 0))
}

func TestUnfinalizedBucketNeverOverwritten(t *testing.T) {
	q := New(hash.NewSHA256(), 4, 100)
	for i := 0; i < 4; i++ {
		require.NoError(t, q.Insert(valOf(byte(i)), 0))
	}
	// None marked inserted (still seq_inserted = None / unfinalized);
	// even an enormous current sequence cannot reclaim any of them.
	assert.ErrorIs(t, q.Insert(valOf(99), 1_000_000), ErrQueueFull)
}
