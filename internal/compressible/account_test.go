package compressible

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrey/compressed-state/internal/compressedaccount"
	"github.com/andrey/compressed-state/internal/hash"
)

type fakeQueue struct {
	leaves []hash.Hash
}

func (q *fakeQueue) InsertIntoOutputQueue(hasher hash.Hasher, leaf hash.Hash, leafIndex uint64) error {
	q.leaves = append(q.leaves, leaf)
	return nil
}

type fakeRent struct {
	transfers []uint64
}

func (r *fakeRent) Transfer(from, to compressedaccount.Pubkey, lamports uint64) error {
	r.transfers = append(r.transfers, lamports)
	return nil
}

type acceptAllProver struct{ checked []hash.Hash }

func (p *acceptAllProver) VerifyLeaf(leaf hash.Hash) error {
	p.checked = append(p.checked, leaf)
	return nil
}

func newConfig() LightConfig {
	return LightConfig{
		RentSponsor: compressedaccount.Pubkey{9},
		WriteTopUp:  50,
	}
}

func TestCreateEnqueuesLeafAndSetsDecompressed(t *testing.T) {
	hasher := hash.NewSHA256()
	lc := NewLifecycle(hasher, newConfig())
	pda := &PDA{Owner: compressedaccount.Pubkey{1}, Lamports: 1000, Data: []byte("hello")}
	q := &fakeQueue{}

	leaf, err := lc.Create(pda, 10, q, 0)
	require.NoError(t, err)
	assert.Equal(t, StateDecompressed, pda.Info.State)
	assert.Equal(t, uint64(10), pda.Info.LastWrittenSlot)
	require.Len(t, q.leaves, 1)
	assert.Equal(t, leaf, q.leaves[0])
}

func TestCompressDecompressRoundTripPreservesLeafHash(t *testing.T) {
	hasher := hash.NewSHA256()
	lc := NewLifecycle(hasher, newConfig())
	pda := &PDA{Owner: compressedaccount.Pubkey{1}, Lamports: 1000, Data: []byte("payload")}
	q := &fakeQueue{}
	rent := &fakeRent{}

	_, err := lc.Create(pda, 1, q, 0)
	require.NoError(t, err)

	compressedLeaf, err := lc.Compress(pda, q, 1, rent)
	require.NoError(t, err)
	assert.Equal(t, StateCompressed, pda.Info.State)
	assert.Nil(t, pda.Data)
	assert.Equal(t, uint64(0), pda.Lamports)
	require.Len(t, rent.transfers, 1)
	assert.Equal(t, uint64(1000), rent.transfers[0])

	prover := &acceptAllProver{}
	err = lc.Decompress(pda, compressedLeaf, []byte("payload"), 5, prover)
	require.NoError(t, err)
	assert.Equal(t, StateDecompressed, pda.Info.State)
	assert.Equal(t, uint64(5), pda.Info.LastWrittenSlot)
	require.Len(t, prover.checked, 1)
	assert.Equal(t, compressedLeaf, prover.checked[0])

	// Re-derive the leaf as it stood right after decompress (lamports were
	// zeroed by compress and never restored): it must match the leaf that
	// was actually proven, modulo last_written_slot which isn't part of
	// the leaf hash at all.
	pda.Lamports = 0
	redone := leafOf(hasher, pda)
	assert.Equal(t, compressedLeaf, redone)
}

func TestCompressAlreadyCompressedFails(t *testing.T) {
	hasher := hash.NewSHA256()
	lc := NewLifecycle(hasher, newConfig())
	pda := &PDA{Owner: compressedaccount.Pubkey{1}, Info: CompressionInfo{State: StateCompressed}}
	_, err := lc.Compress(pda, &fakeQueue{}, 0, &fakeRent{})
	assert.ErrorIs(t, err, ErrAlreadyCompressed)
}

func TestDecompressAlreadyDecompressedFails(t *testing.T) {
	hasher := hash.NewSHA256()
	lc := NewLifecycle(hasher, newConfig())
	pda := &PDA{Owner: compressedaccount.Pubkey{1}, Info: CompressionInfo{State: StateDecompressed}}
	err := lc.Decompress(pda, hash.Hash{}, nil, 0, &acceptAllProver{})
	assert.ErrorIs(t, err, ErrAlreadyDecompressed)
}

func TestTouchAppliesWriteTopUp(t *testing.T) {
	hasher := hash.NewSHA256()
	lc := NewLifecycle(hasher, newConfig())
	pda := &PDA{Owner: compressedaccount.Pubkey{1}, Lamports: 0, Info: CompressionInfo{State: StateDecompressed}}
	rent := &fakeRent{}

	require.NoError(t, lc.Touch(pda, compressedaccount.Pubkey{2}, 20, rent))
	assert.Equal(t, uint64(50), pda.Lamports)
	assert.Equal(t, uint64(20), pda.Info.LastWrittenSlot)
	require.Len(t, rent.transfers, 1)
	assert.Equal(t, uint64(50), rent.transfers[0])
}

func TestTouchOnCompressedFails(t *testing.T) {
	hasher := hash.NewSHA256()
	lc := NewLifecycle(hasher, newConfig())
	pda := &PDA{Info: CompressionInfo{State: StateCompressed}}
	err := lc.Touch(pda, compressedaccount.Pubkey{2}, 1, &fakeRent{})
	assert.ErrorIs(t, err, ErrAlreadyCompressed)
}

func encodeProgramData(slot uint64, authority *compressedaccount.Pubkey) []byte {
	buf := make([]byte, 0, 45)
	var variant [4]byte
	binary.LittleEndian.PutUint32(variant[:], programDataVariant)
	buf = append(buf, variant[:]...)
	var slotBuf [8]byte
	binary.LittleEndian.PutUint64(slotBuf[:], slot)
	buf = append(buf, slotBuf[:]...)
	if authority == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return append(buf, authority[:]...)
}

func TestInitializeLightConfigRequiresUpgradeAuthority(t *testing.T) {
	authority := compressedaccount.Pubkey{7}
	raw := encodeProgramData(100, &authority)

	cfg, err := InitializeLightConfig(raw, authority, LightConfig{WriteTopUp: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.WriteTopUp)

	_, err = InitializeLightConfig(raw, compressedaccount.Pubkey{8}, LightConfig{})
	assert.ErrorIs(t, err, ErrNotUpgradeAuthority)
}

func TestInitializeLightConfigRejectsImmutableProgram(t *testing.T) {
	raw := encodeProgramData(100, nil)
	_, err := InitializeLightConfig(raw, compressedaccount.Pubkey{1}, LightConfig{})
	assert.ErrorIs(t, err, ErrNotUpgradeAuthority)
}

func TestInitializeLightConfigRejectsMalformedData(t *testing.T) {
	_, err := InitializeLightConfig([]byte{1, 2, 3}, compressedaccount.Pubkey{1}, LightConfig{})
	assert.ErrorIs(t, err, ErrInvalidProgramData)
}
