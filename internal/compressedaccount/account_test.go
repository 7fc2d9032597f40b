package compressedaccount

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrey/compressed-state/internal/hash"
)

func TestLeafHashDomainSeparation(t *testing.T) {
	hasher := hash.NewSHA256()
	base := Account{Owner: Pubkey{1}, Lamports: 100}
	addr := hash.Hash{9}

	h0 := LeafHash(hasher, base)
	withAddr := base
	withAddr.Address = &addr
	h1 := LeafHash(hasher, withAddr)

	assert.NotEqual(t, h0, h1, "presence of address must change the leaf hash")
}

func TestLeafHashDeterministic(t *testing.T) {
	hasher := hash.NewSHA256()
	a := Account{Owner: Pubkey{7}, Lamports: 42}
	assert.Equal(t, LeafHash(hasher, a), LeafHash(hasher, a))
}

func TestLeafHashDataChangesHash(t *testing.T) {
	hasher := hash.NewSHA256()
	a := Account{Owner: Pubkey{1}, Lamports: 1, Data: &Data{DataHash: hash.Hash{1}}}
	b := Account{Owner: Pubkey{1}, Lamports: 1, Data: &Data{DataHash: hash.Hash{2}}}
	assert.NotEqual(t, LeafHash(hasher, a), LeafHash(hasher, b))
}
