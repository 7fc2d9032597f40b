package hash

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// Keccak256Pair hashes a sorted pair the way OpenZeppelin's MerkleProof
// library does: keccak256(min(a,b) || max(a,b)). It is not a Hasher
// implementation, and no package in this module calls it outside this
// package's tests; settlement's leaf and address hashing go through the
// configured Hasher and ToField instead.
func Keccak256Pair(a, b Hash) Hash {
	left, right := a, b
	if !lexLess(left, right) {
		left, right = right, left
	}
	combined := append(append([]byte{}, left[:]...), right[:]...)
	return Hash(crypto.Keccak256Hash(combined))
}

func lexLess(a, b Hash) bool {
	for i := 0; i < 32; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
