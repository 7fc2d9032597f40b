package indexer

import (
	"context"
	"testing"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/hash"
	infratesting "github.com/andrey/compressed-state/internal/infra/testing"
)

// TestStore_Integration exercises Store against a BadgerDB instance set up
// by infratesting.SetupTestDB (opened alongside a testcontainer), rather
// than the plain t.TempDir() badger the rest of this package's tests use.
func TestStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, cleanup, err := infratesting.SetupTestDB(ctx)
	require.NoError(t, err)
	defer cleanup()

	store := &Store{db: db, logger: lgr.NoOp}

	t.Run("LeafLocationRoundTrip", func(t *testing.T) {
		leaf := hashOfByte(1)
		require.NoError(t, store.PutLeafLocation(leaf, leafLocation{TreePubkey: [32]byte{7}, LeafIndex: 3}))

		loc, err := store.GetLeafLocation(leaf)
		require.NoError(t, err)
		require.Equal(t, uint64(3), loc.LeafIndex)
		require.Equal(t, [32]byte{7}, loc.TreePubkey)
	})

	t.Run("LeafLocationNotFound", func(t *testing.T) {
		_, err := store.GetLeafLocation(hashOfByte(99))
		require.ErrorIs(t, err, ErrLeafNotFound)
	})

	t.Run("ValidityProofRoundTrip", func(t *testing.T) {
		cacheKey := hashOfByte(5)
		_, found, err := store.GetValidityProof(cacheKey)
		require.NoError(t, err)
		require.False(t, found)
	})
}

func hashOfByte(b byte) (h hash.Hash) {
	h[0] = b
	return h
}
