package indexedtree

import "errors"

// Sentinel errors for the indexed Merkle tree (spec C4).
var (
	ErrLeafAlreadyPresent = errors.New("indexedtree: leaf already present")
	ErrNotFound           = errors.New("indexedtree: low element not found")
	ErrInvalidProof       = errors.New("indexedtree: invalid non-inclusion proof")
)
