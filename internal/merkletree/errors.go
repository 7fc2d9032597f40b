package merkletree

import "errors"

// Sentinel errors for the concurrent Merkle tree (spec C3). Each is wrapped
// with an xerr.Kind at the call site that has enough context (tree id,
// sub-batch) to report; these stay bare so tests can assert on them with
// errors.Is without importing xerr.
var (
	ErrInvalidProof        = errors.New("merkletree: invalid proof")
	ErrProofTooStale       = errors.New("merkletree: proof too stale")
	ErrLeafAlreadyPresent  = errors.New("merkletree: leaf already present")
	ErrTreeFull            = errors.New("merkletree: tree full")
	ErrCanopyMisconfigured = errors.New("merkletree: canopy depth must be <= height")
)
