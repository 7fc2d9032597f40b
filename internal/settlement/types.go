// Package settlement implements the system CPI settlement verifier of spec
// C7: the single point where a transaction's compressed-account input/
// output/new-address transitions are authorized, hashed, sum-checked and
// (unless every input is provable by index) ZK-verified before being
// applied to the batched tree accounts (C6) and queues (C5) they reference.
package settlement

import (
	"github.com/andrey/compressed-state/internal/compressedaccount"
	"github.com/andrey/compressed-state/internal/hash"
)

// CompressedProof is a Groth16 proof: 3 packed BN254 group elements (spec
// §4.7 — "~256 bytes packed").
type CompressedProof struct {
	A [32]byte
	B [64]byte
	C [32]byte
}

// MerkleContext locates an input compressed account within a specific
// batched tree/queue pair.
type MerkleContext struct {
	TreeIndex    uint8
	QueueIndex   uint8
	LeafIndex    uint64
	ProveByIndex bool
}

// InputAccount is one consumed compressed account.
type InputAccount struct {
	Account       compressedaccount.Account
	MerkleContext MerkleContext
	RootIndex     uint16

	// TxHash is the per-transaction hash chained into the input queue's
	// hash-chain entry alongside the nullifier (spec §4.6
	// insert_into_input_queue(leaf_hash, tx_hash); property 6, spec.md:329).
	TxHash hash.Hash
}

// OutputAccount is one newly-created compressed account.
type OutputAccount struct {
	Account               compressedaccount.Account
	OutputMerkleTreeIndex uint8
}

// NewAddress is one address to be inserted into an address tree.
type NewAddress struct {
	Seed                   hash.Hash
	AddressMerkleTreeIndex uint8
	AddressQueueIndex      uint8
	RootIndex              uint16
}

// InstructionDataInvokeCpi is the settlement instruction payload of spec
// §4.7.
type InstructionDataInvokeCpi struct {
	Proof                        *CompressedProof
	InputCompressedAccounts      []InputAccount
	OutputCompressedAccounts     []OutputAccount
	NewAddresses                 []NewAddress
	RelayFee                     *uint64
	CompressOrDecompressLamports *uint64
	IsCompress                   bool

	InvokingProgramID [32]byte
	SignerSeeds       [][]byte
}
