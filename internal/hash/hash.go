// Package hash implements the hasher capability (spec C1): an abstract
// 2-to-1 and n-to-1 field hash that every tree algorithm in this module is
// polymorphic over, plus the "hash to BN254 field size" reduction used to
// derive addresses and nullifiers from arbitrary byte strings.
package hash

import (
	"crypto/sha256"
	"fmt"
)

// Hash is a 32-byte big-endian field element. Every Hash produced by ToField
// or by this package's Hasher implementations is less than the BN254 scalar
// field modulus; Keccak256Pair's output and Hash values read from untrusted
// input carry no such guarantee, and this package has no check for it.
type Hash [32]byte

// Bytes returns a copy of the underlying bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, h[:])
	return out
}

func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// BytesToHash copies b (which must be at most 32 bytes) into a Hash,
// right-aligning it the way a big-endian field element would be.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(h[32-len(b):], b)
	return h
}

// Hasher is the capability every tree algorithm (C3, C4, C6) is polymorphic
// over. Poseidon-on-BN254 (Poseidon, poseidon.go) is the reference instantiation;
// a SHA-256 based alternate is provided for environments without a
// SNARK-friendly hash requirement.
type Hasher interface {
	// Hash2 computes a 2-to-1 compression, used at every internal node of a
	// binary Merkle tree.
	Hash2(a, b Hash) Hash
	// HashV computes an n-to-1, domain-separated-by-order hash over an
	// arbitrary number of byte slices.
	HashV(parts ...[]byte) Hash
	// ZeroBytes returns the hash of an all-zero subtree at the given level
	// (0 = leaf level). Implementations precompute this table up to the
	// maximum supported tree height.
	ZeroBytes(level int) Hash
}

// ToField reduces arbitrary-length bytes to a value guaranteed to fit in the
// BN254 scalar field: SHA-256 of the input, with the most significant byte
// zeroed. Zeroing one byte of a 32-byte SHA-256 digest caps the result well
// below the ~2^254 BN254 modulus, which is sufficient for the "non-inclusion
// of an arbitrary seed" use the spec requires (address derivation,
// struct-data commitments) without needing a full Barrett/Montgomery
// reduction against the modulus.
func ToField(data ...[]byte) Hash {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	sum := h.Sum(nil)
	var out Hash
	copy(out[:], sum)
	out[0] = 0
	return out
}
