// Package compressible implements the compressible PDA lifecycle of spec
// C10: a normal program account that can be hashed into a compressed leaf
// and reclaimed (compress), and later re-materialized on-chain from a
// validity proof of that leaf (decompress).
package compressible

import (
	"github.com/andrey/compressed-state/internal/compressedaccount"
	"github.com/andrey/compressed-state/internal/hash"
)

// State is a compressible PDA's lifecycle stage (spec §3.7).
type State uint8

const (
	StateDecompressed State = iota
	StateCompressed
)

func (s State) String() string {
	switch s {
	case StateDecompressed:
		return "decompressed"
	case StateCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// CompressionInfo is the prefix every compressible PDA carries.
type CompressionInfo struct {
	LastWrittenSlot uint64
	State           State
}

// PDA is a compressible program account. Data holds the program-defined
// payload while Decompressed; a Compressed PDA's Data is zeroed and its
// Lamports reclaimed — the compressed leaf enqueued at the last compress
// (or create) is the authoritative record instead.
type PDA struct {
	Owner    compressedaccount.Pubkey
	Address  hash.Hash
	Lamports uint64
	Data     []byte
	Info     CompressionInfo
}

// OutputQueue is the subset of C6's batch-account API the lifecycle needs
// to enqueue a freshly compressed leaf (spec §4.10, "enqueue into the
// output queue via C7, is_compress = true").
type OutputQueue interface {
	InsertIntoOutputQueue(hasher hash.Hasher, leaf hash.Hash, leafIndex uint64) error
}

// ValidityProver checks a non-inclusion/inclusion validity proof before a
// decompress is allowed to re-materialize a PDA from its compressed leaf
// (spec §4.10, "requires a validity proof for the leaf"). Real
// verification is C7's (internal/settlement); this is the narrow interface
// the lifecycle calls through so tests can stub it.
type ValidityProver interface {
	VerifyLeaf(leaf hash.Hash) error
}

// RentTransfer moves lamports between accounts, for rent reclaim on
// compress and the write_top_up on writes to a Decompressed PDA.
type RentTransfer interface {
	Transfer(from, to compressedaccount.Pubkey, lamports uint64) error
}

// Lifecycle drives the create/compress/decompress/touch state machine for
// PDAs governed by a single LightConfig.
type Lifecycle struct {
	hasher hash.Hasher
	cfg    LightConfig
}

// NewLifecycle builds a Lifecycle bound to cfg's rent-sponsor and
// write_top_up parameters.
func NewLifecycle(hasher hash.Hasher, cfg LightConfig) *Lifecycle {
	return &Lifecycle{hasher: hasher, cfg: cfg}
}

func leafOf(hasher hash.Hasher, pda *PDA) hash.Hash {
	return compressedaccount.LeafHash(hasher, compressedaccount.Account{
		Owner:    pda.Owner,
		Lamports: pda.Lamports,
		Address:  &pda.Address,
		Data: &compressedaccount.Data{
			DataHash: hasher.HashV(pda.Data),
		},
	})
}

// Create allocates a fresh Decompressed PDA at the given slot and prepares
// its first compressed leaf, enqueuing it into the output queue (spec
// §4.10 create). The enqueued leaf lets the indexer observe the account's
// existence even though it never transitions to Compressed itself.
func (l *Lifecycle) Create(pda *PDA, slot uint64, queue OutputQueue, leafIndex uint64) (hash.Hash, error) {
	pda.Info = CompressionInfo{State: StateDecompressed, LastWrittenSlot: slot}
	leaf := leafOf(l.hasher, pda)
	if err := queue.InsertIntoOutputQueue(l.hasher, leaf, leafIndex); err != nil {
		return hash.Hash{}, err
	}
	return leaf, nil
}

// Compress hashes the PDA's current data to a leaf, enqueues it, zeros the
// PDA, and reclaims its rent to the rent-sponsor PDA (spec §4.10 compress).
func (l *Lifecycle) Compress(pda *PDA, queue OutputQueue, leafIndex uint64, rent RentTransfer) (hash.Hash, error) {
	if pda.Info.State == StateCompressed {
		return hash.Hash{}, ErrAlreadyCompressed
	}
	leaf := leafOf(l.hasher, pda)
	if err := queue.InsertIntoOutputQueue(l.hasher, leaf, leafIndex); err != nil {
		return hash.Hash{}, err
	}
	reclaimed := pda.Lamports
	pda.Data = nil
	pda.Lamports = 0
	pda.Info.State = StateCompressed
	if reclaimed > 0 {
		if err := rent.Transfer(pda.Owner, l.cfg.RentSponsor, reclaimed); err != nil {
			return hash.Hash{}, err
		}
	}
	return leaf, nil
}

// Decompress re-materializes pda's data from a previously-compressed leaf,
// after checking a validity proof for it, and transitions the PDA back to
// Decompressed at the given slot (spec §4.10 decompress).
func (l *Lifecycle) Decompress(pda *PDA, leaf hash.Hash, data []byte, slot uint64, prover ValidityProver) error {
	if pda.Info.State == StateDecompressed {
		return ErrAlreadyDecompressed
	}
	if err := prover.VerifyLeaf(leaf); err != nil {
		return err
	}
	pda.Data = data
	pda.Info.State = StateDecompressed
	pda.Info.LastWrittenSlot = slot
	return nil
}

// Touch applies the write_top_up to pda on a write to a Decompressed PDA,
// transferring lamports from payer to cover amortized rent for the next
// compression (spec §4.10 top-up), and records the write's slot.
func (l *Lifecycle) Touch(pda *PDA, payer compressedaccount.Pubkey, slot uint64, rent RentTransfer) error {
	if pda.Info.State != StateDecompressed {
		return ErrAlreadyCompressed
	}
	if l.cfg.WriteTopUp > 0 {
		if err := rent.Transfer(payer, pda.Owner, l.cfg.WriteTopUp); err != nil {
			return err
		}
		pda.Lamports += l.cfg.WriteTopUp
	}
	pda.Info.LastWrittenSlot = slot
	return nil
}
