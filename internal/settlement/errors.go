package settlement

import "errors"

// Sentinel errors for the settlement verifier (spec C7).
var (
	ErrSumCheckFailed           = errors.New("settlement: sum check failed")
	ErrInvalidProof             = errors.New("settlement: invalid proof")
	ErrProofRequired            = errors.New("settlement: proof required")
	ErrInvalidMerkleTreeOwner   = errors.New("settlement: invalid merkle tree owner")
	ErrInvalidAddressDerivation = errors.New("settlement: invalid address derivation")
	ErrDuplicateNullifier       = errors.New("settlement: duplicate nullifier")
	ErrQueueFull                = errors.New("settlement: queue full")
	ErrInvalidDiscriminator     = errors.New("settlement: invalid discriminator")
	ErrUnauthorized             = errors.New("settlement: unauthorized input account")
)
