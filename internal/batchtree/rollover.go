package batchtree

// RolledOver records that an account has been superseded by a fresh
// (tree, queue) pair but must remain queryable (spec §4.6 rollover:
// "mark the old one rolled over but still queryable").
type RolledOver struct {
	NewTreePubkey  [32]byte
	NewQueuePubkey [32]byte
}

// Rollover marks a as superseded once its tree has approached capacity.
// The account's existing state (batches, hash chains, root history) is
// left untouched so historical proofs against it continue to resolve; only
// new insertions are expected to move to the returned pair's account.
func (a *Account) Rollover(newTreePubkey, newQueuePubkey [32]byte) *RolledOver {
	a.rolledOver = &RolledOver{NewTreePubkey: newTreePubkey, NewQueuePubkey: newQueuePubkey}
	return a.rolledOver
}

// IsRolledOver reports whether Rollover has been called on a.
func (a *Account) IsRolledOver() bool { return a.rolledOver != nil }
