package merkletree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/hash"
)

func leafOf(b byte) hash.Hash {
	var h hash.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

// S1: an empty height-26 tree appended a single leaf has sequence 1 and a
// root that differs from the empty root.
func TestAppendEmptyTreeScenarioS1(t *testing.T) {
	hasher := hash.NewSHA256()
	tr, err := New(hasher, 26, 0, 64, 64)
	require.NoError(t, err)

	emptyRoot := tr.Root()
	leaf := leafOf(0x01)
	entry, err := tr.Append(leaf)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), tr.Sequence())
	assert.Equal(t, uint64(1), tr.NextIndex())
	assert.Equal(t, uint64(0), entry.LeafIndex)
	assert.NotEqual(t, emptyRoot, tr.Root())
	assert.Equal(t, tr.Root(), entry.Root)
}

func TestAppendSequentialRootChanges(t *testing.T) {
	hasher := hash.NewSHA256()
	tr, err := New(hasher, 4, 1, 16, 16)
	require.NoError(t, err)

	var roots []hash.Hash
	for i := 0; i < 8; i++ {
		_, err := tr.Append(leafOf(byte(i + 1)))
		require.NoError(t, err)
		roots = append(roots, tr.Root())
	}
	seen := map[hash.Hash]bool{}
	for _, r := range roots {
		assert.False(t, seen[r], "root must change on every append")
		seen[r] = true
	}
	assert.Equal(t, uint64(8), tr.Sequence())
}

func TestAppendTreeFull(t *testing.T) {
	hasher := hash.NewSHA256()
	tr, err := New(hasher, 2, 0, 8, 8)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := tr.Append(leafOf(byte(i)))
		require.NoError(t, err)
	}
	_, err = tr.Append(leafOf(9))
	assert.ErrorIs(t, err, ErrTreeFull)
}

// freshly-captured proof (delta=0) must verify directly.
func TestVerifyProofFresh(t *testing.T) {
	hasher := hash.NewSHA256()
	tr, err := New(hasher, 4, 0, 16, 16)
	require.NoError(t, err)

	leaf := leafOf(0x07)
	_, err = tr.Append(leaf)
	require.NoError(t, err)

	proof, ok := tr.Prove(0, leaf)
	require.True(t, ok)

	ok, err = tr.VerifyProof(proof)
	require.NoError(t, err)
	assert.True(t, ok)
}

// a proof captured before later appends (but within changelog capacity)
// must still verify once patched against the intervening changelog.
func TestVerifyProofStaleWithinWindow(t *testing.T) {
	hasher := hash.NewSHA256()
	tr, err := New(hasher, 4, 0, 16, 16)
	require.NoError(t, err)

	leaf := leafOf(0x03)
	_, err = tr.Append(leaf)
	require.NoError(t, err)

	proof, ok := tr.Prove(0, leaf)
	require.True(t, ok)

	for i := 1; i < 6; i++ {
		_, err := tr.Append(leafOf(byte(0x10 + i)))
		require.NoError(t, err)
	}

	ok, err = tr.VerifyProof(proof)
	require.NoError(t, err)
	assert.True(t, ok, "stale proof within changelog window must still verify")
}

// once the gap exceeds changelog capacity, verification must fail with
// ErrProofTooStale rather than silently returning an invalid root match.
func TestVerifyProofTooStale(t *testing.T) {
	hasher := hash.NewSHA256()
	tr, err := New(hasher, 8, 0, 4, 64)
	require.NoError(t, err)

	leaf := leafOf(0x03)
	_, err = tr.Append(leaf)
	require.NoError(t, err)
	proof, ok := tr.Prove(0, leaf)
	require.True(t, ok)

	for i := 1; i < 20; i++ {
		_, err := tr.Append(leafOf(byte(0x20 + i)))
		require.NoError(t, err)
	}

	_, err = tr.VerifyProof(proof)
	assert.ErrorIs(t, err, ErrProofTooStale)
}

func TestVerifyProofWrongLeafFails(t *testing.T) {
	hasher := hash.NewSHA256()
	tr, err := New(hasher, 4, 0, 16, 16)
	require.NoError(t, err)

	leaf := leafOf(0x03)
	_, err = tr.Append(leaf)
	require.NoError(t, err)
	proof, ok := tr.Prove(0, leaf)
	require.True(t, ok)

	proof.Leaf = leafOf(0xFF)
	ok, err = tr.VerifyProof(proof)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanopyReducesProofLength(t *testing.T) {
	hasher := hash.NewSHA256()
	tr, err := New(hasher, 6, 3, 16, 16)
	require.NoError(t, err)
	assert.Equal(t, 3, tr.ProofLength())

	leaf := leafOf(0x05)
	_, err = tr.Append(leaf)
	require.NoError(t, err)
	proof, ok := tr.Prove(0, leaf)
	require.True(t, ok)
	assert.Len(t, proof.Siblings, 3)

	ok, err = tr.VerifyProof(proof)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRejectsCanopyTallerThanHeight(t *testing.T) {
	hasher := hash.NewSHA256()
	_, err := New(hasher, 4, 5, 16, 16)
	assert.ErrorIs(t, err, ErrCanopyMisconfigured)
}
