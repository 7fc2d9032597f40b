// Package prover is an HTTP client for the external ZK prover oracle of
// spec §6.3: a sidecar service that turns a batch of pre/post-update
// Merkle paths into a Groth16 proof over the state or address circuit.
package prover

// Request is the wire body sent to $PROVE_PATH. Every field corresponds to
// one circuit input; address-circuit requests populate LowElement* and
// leave TxHashes empty, state-circuit nullifier requests do the reverse.
// Field names match the prover's JSON contract verbatim, not Go
// conventions.
type Request struct {
	OldRoot         string     `json:"old_root"`
	NewRoot         string     `json:"new_root"`
	LeavesHashchain string     `json:"leaves_hashchain"`
	StartIndex      uint64     `json:"start_index"`
	MerkleProofs    [][]string `json:"merkle_proofs"`
	OldLeaves       []string   `json:"old_leaves"`
	NewLeaves       []string   `json:"new_leaves"`
	PathIndices     []uint64   `json:"path_indices,omitempty"`
	TxHashes        []string   `json:"tx_hashes,omitempty"`

	LowElementValues      []string   `json:"low_element_values,omitempty"`
	LowElementIndices     []uint64   `json:"low_element_indices,omitempty"`
	LowElementNextValues  []string   `json:"low_element_next_values,omitempty"`
	LowElementNextIndices []uint64   `json:"low_element_next_indices,omitempty"`
	LowElementProofs      [][]string `json:"low_element_proofs,omitempty"`

	Subtrees []string `json:"subtrees,omitempty"`
}

// Proof is the Gnark-format BN254 Groth16 proof returned by the prover:
// compressed G1/G2 points, base64 or hex encoded per the prover's own
// convention (opaque to this client; forwarded to the on-chain instruction
// unmodified).
type Proof struct {
	AR  string `json:"ar"`
	BS  string `json:"bs"`
	KRS string `json:"krs"`
}
