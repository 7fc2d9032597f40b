package settlement

import "github.com/andrey/compressed-state/internal/hash"

// FakeVerifier accepts any proof whose A field equals the public-inputs
// hash it was asked to verify against, truncated to 32 bytes. It exists so
// this module's tests (and cmd/indexer's settlement handler) can exercise
// the full settlement pipeline without a real
// compiled Groth16 verifying key, which this corpus has no source for (see
// DESIGN.md).
type FakeVerifier struct{}

func (FakeVerifier) Verify(proof CompressedProof, publicInputsHash hash.Hash) (bool, error) {
	return proof.A == [32]byte(publicInputsHash), nil
}

// FakeProve produces a CompressedProof FakeVerifier accepts for
// publicInputsHash, standing in for the prover oracle's real output in
// tests.
func FakeProve(publicInputsHash hash.Hash) CompressedProof {
	return CompressedProof{A: [32]byte(publicInputsHash)}
}
