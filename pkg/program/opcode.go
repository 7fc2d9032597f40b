// Package program names the on-chain instruction surface of spec §6.2: the
// opcode each settlement, batch-update, rollover and config instruction is
// dispatched under, and the envelope that carries an opcode plus its
// Borsh-style payload across the wire.
//
// This replaces the teacher's generated go-ethereum ABI contract bindings
// (pkg/contracts), which modeled Solidity function selectors on an EVM
// contract — a shape with no equivalent in a Solana-family instruction
// model, where a program multiplexes on a single leading opcode byte
// instead of per-function ABI-encoded calldata.
package program

// Opcode identifies one on-chain instruction (spec §6.2).
type Opcode uint8

const (
	OpInvokeCpi Opcode = iota
	OpInvoke
	OpBatchUpdateStateTree
	OpBatchUpdateAddressTree
	OpRolloverStateMerkleTree
	OpInitializeCompressionConfig
	OpUpdateCompressionConfig
)

func (op Opcode) String() string {
	switch op {
	case OpInvokeCpi:
		return "invoke_cpi"
	case OpInvoke:
		return "invoke"
	case OpBatchUpdateStateTree:
		return "batch_update_state_tree"
	case OpBatchUpdateAddressTree:
		return "batch_update_address_tree"
	case OpRolloverStateMerkleTree:
		return "rollover_state_merkle_tree"
	case OpInitializeCompressionConfig:
		return "initialize_compression_config"
	case OpUpdateCompressionConfig:
		return "update_compression_config"
	default:
		return "unknown"
	}
}

// BatchUpdatePayload is the {new_root, old_root_index, proof} payload
// shared by batch_update_state_tree and batch_update_address_tree.
type BatchUpdatePayload struct {
	NewRoot      [32]byte
	OldRootIndex uint16
	Proof        CompressedProof
}

// CompressedProof mirrors internal/settlement.CompressedProof at the wire
// boundary, kept separate so pkg/program has no dependency on an internal
// package.
type CompressedProof struct {
	A [32]byte
	B [64]byte
	C [32]byte
}

// RolloverPayload is rollover_state_merkle_tree's payload.
type RolloverPayload struct {
	NewTreePubkey  [32]byte
	NewQueuePubkey [32]byte
	Epoch          uint64
}

// UpdateCompressionConfigPayload carries update_compression_config's
// optional fields: a nil pointer means "leave unchanged".
type UpdateCompressionConfigPayload struct {
	RentSponsor          *[32]byte
	CompressionAuthority *[32]byte
	WriteTopUp           *uint64
}
