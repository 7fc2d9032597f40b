package indexedtree

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

// S2: inserting addresses [3, 1, 2] into a sentinel-only tree must produce
// a sorted linked list 0 -> 1 -> 2 -> 3 -> (tail).
func TestInsertScenarioS2SortedOrder(t *testing.T) {
	hasher := hash.NewSHA256()
	tr := New(hasher, 10)

	for _, b := range []byte{3, 1, 2} {
		_, err := tr.Insert(valOf(b))
		require.NoError(t, err)
	}

	cur := tr.Leaf(0) // sentinel
	var order []byte
	for {
		if cur.NextValue.IsZero() {
			break
		}
		next := findLeafByValue(tr, cur.NextValue)
		order = append(order, next.Value[31])
		cur = next
	}
	assert.Equal(t, []byte{1, 2, 3}, order)
}

func findLeafByValue(t *Tree, v hash.Hash) LeafRecord {
	for _, rec := range t.arena {
		if rec.Value == v {
			return rec
		}
	}
	panic("not found")
}

func TestInsertDuplicateRejected(t *testing.T) {
	hasher := hash.NewSHA256()
	tr := New(hasher, 10)
	_, err := tr.Insert(valOf(5))
	require.NoError(t, err)
	_, err = tr.Insert(valOf(5))
	assert.ErrorIs(t, err, ErrLeafAlreadyPresent)
}

func TestNonInclusionProofRoundTrip(t *testing.T) {
	hasher := hash.NewSHA256()
	tr := New(hasher, 10)
	for _, b := range []byte{10, 20, 30} {
		_, err := tr.Insert(valOf(b))
		require.NoError(t, err)
	}

	proof, err := tr.Prove(valOf(25))
	require.NoError(t, err)
	assert.Equal(t, byte(20), proof.LowLeaf.Value[31])

	ok, err := VerifyNonInclusion(hasher, tr.Height(), tr.Root(), proof)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNonInclusionProofTailSentinel(t *testing.T) {
	hasher := hash.NewSHA256()
	tr := New(hasher, 10)
	_, err := tr.Insert(valOf(10))
	require.NoError(t, err)

	proof, err := tr.Prove(valOf(200))
	require.NoError(t, err)
	assert.Equal(t, byte(10), proof.LowLeaf.Value[31])

	ok, err := VerifyNonInclusion(hasher, tr.Height(), tr.Root(), proof)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNonInclusionProofRejectsMemberValue(t *testing.T) {
	hasher := hash.NewSHA256()
	tr := New(hasher, 10)
	_, err := tr.Insert(valOf(10))
	require.NoError(t, err)
	_, err = tr.Insert(valOf(20))
	require.NoError(t, err)

	proof, err := tr.Prove(valOf(30))
	require.NoError(t, err)
	// Rewriting the proof's queried value to one that is actually a member
	// must fail the ordering check even though the membership path is
	// still valid.
	proof.Value = valOf(10)
	ok, err := VerifyNonInclusion(hasher, tr.Height(), tr.Root(), proof)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRootChangesOnEachInsert(t *testing.T) {
	hasher := hash.NewSHA256()
	tr := New(hasher, 10)
	seen := map[hash.Hash]bool{seenRoot(tr): true}
	for _, b := range []byte{1, 2, 3, 4} {
		_, err := tr.Insert(valOf(b))
		require.NoError(t, err)
		r := tr.Root()
		assert.False(t, seen[r])
		seen[r] = true
	}
}

func seenRoot(t *Tree) hash.Hash { return t.Root() }
