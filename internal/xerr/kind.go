// Package xerr defines the cross-cutting error taxonomy shared by every
// on-chain-style and off-chain component of the compressed-state engine.
package xerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error along the propagation rules of the engine: some
// kinds are fatal to the current transaction, some are safe to retry with
// backoff, some resolve themselves locally (stale proof replay).
type Kind int

const (
	// KindUnknown is the zero value; never intentionally attached.
	KindUnknown Kind = iota
	// KindStructuralInvalid covers bad discriminators, unaligned buffers,
	// length-exceeds-capacity, and option-bitmask contradictions. Fatal,
	// never retried.
	KindStructuralInvalid
	// KindAuthorizationInvalid covers owner/authority/signer-seed mismatches.
	// Fatal.
	KindAuthorizationInvalid
	// KindConsistencyViolation covers sumcheck failures, duplicate
	// addresses/nullifiers, and hash-chain mismatches. Fatal to the current
	// transaction; the forester treats this as a bug signal.
	KindConsistencyViolation
	// KindProofFailure covers invalid or too-stale ZK/merkle proofs. The
	// caller must refetch a fresh proof and resubmit.
	KindProofFailure
	// KindTransient covers RPC/prover timeouts, QueueFull backpressure, and
	// missing blockhashes. Retried with backoff up to a configured cap.
	KindTransient
	// KindNotFound covers an indexer lookup that found nothing. Treated as
	// transient initially, escalates if repeated.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindStructuralInvalid:
		return "structural_invalid"
	case KindAuthorizationInvalid:
		return "authorization_invalid"
	case KindConsistencyViolation:
		return "consistency_violation"
	case KindProofFailure:
		return "proof_failure"
	case KindTransient:
		return "transient"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Retryable reports whether an error of this kind is worth retrying with
// backoff. NotFound is included because indexer lag is common and the first
// few misses should not be fatal.
func (k Kind) Retryable() bool {
	return k == KindTransient || k == KindNotFound
}

// Error wraps an underlying error with a Kind plus identifying context (tree
// pubkey, sub-batch index) so off-chain diagnostics never need to parse
// strings.
type Error struct {
	Kind        Kind
	Tree        string
	SubBatch    int
	HasSubBatch bool
	Err         error
}

func (e *Error) Error() string {
	if e.HasSubBatch {
		return fmt.Sprintf("%s: tree=%s sub_batch=%d: %v", e.Kind, e.Tree, e.SubBatch, e.Err)
	}
	if e.Tree != "" {
		return fmt.Sprintf("%s: tree=%s: %v", e.Kind, e.Tree, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a Kind and no tree/sub-batch context.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Newf builds a Kind error from a format string, analogous to fmt.Errorf.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WithTree attaches tree identity to an error for diagnostics.
func WithTree(kind Kind, tree string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Tree: tree, Err: err}
}

// WithSubBatch attaches tree and sub-batch identity to an error.
func WithSubBatch(kind Kind, tree string, subBatch int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Tree: tree, SubBatch: subBatch, HasSubBatch: true, Err: err}
}

// KindOf extracts the Kind from err, walking the unwrap chain. Returns
// KindUnknown if no *Error is found.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err (or anything it wraps) carries kind k.
func Is(err error, k Kind) bool {
	return KindOf(err) == k
}
