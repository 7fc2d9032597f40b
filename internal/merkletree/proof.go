package merkletree

import (
	"github.com/andrey/compressed-state/internal/hash"
)

// Proof is a caller-supplied Merkle proof: ProofLength() sibling hashes
// (height - canopyDepth of them), plus the sequence number the proof was
// captured against. The tree reconstructs the remaining canopyDepth
// siblings from its own materialized canopy.
type Proof struct {
	LeafIndex uint64
	Leaf      hash.Hash
	Siblings  []hash.Hash
	Sequence  uint64
}

// patchStale rewrites p's siblings in place to account for every changelog
// entry committed after p.Sequence and at or before the tree's current
// sequence, per spec §3.2 invariant 4 / §4.3 "Stale-proof replay". Returns
// ErrProofTooStale if the gap exceeds the changelog's capacity.
func (t *Tree) patchStale(p *Proof) error {
	delta := t.sequence - p.Sequence
	if delta == 0 {
		return nil
	}
	entries, ok := t.changelogEntriesAfter(p.Sequence)
	if !ok {
		return ErrProofTooStale
	}
	for _, e := range entries {
		for level := 0; level < len(p.Siblings); level++ {
			siblingPos := (p.LeafIndex >> uint(level)) ^ 1
			touchedPos := e.LeafIndex >> uint(level)
			if touchedPos == siblingPos {
				// e.Path is indexed by tree-level starting at 1 for the
				// leaf's immediate parent; our sibling at proof-level
				// `level` (0-indexed: 0 = leaf's immediate sibling) sits at
				// the same tree depth as e.Path[level+1]'s sibling input,
				// i.e. e.Path[level] in the leaf-indexed (0=leaf) array.
				p.Siblings[level] = e.Path[level]
			}
		}
	}
	return nil
}

// recomputeRoot walks leaf up to the root using p's (possibly patched)
// siblings for the bottom ProofLength() levels and the tree's own canopy
// for the remaining canopyDepth levels.
func (t *Tree) recomputeRoot(p Proof) hash.Hash {
	cur := p.Leaf
	pos := p.LeafIndex
	proofLen := t.ProofLength()
	for level := 0; level < t.height; level++ {
		var sibling hash.Hash
		if level < proofLen {
			sibling = p.Siblings[level]
		} else {
			sibling = t.canopyGet(level, pos^1)
		}
		if pos%2 == 0 {
			cur = t.hasher.Hash2(cur, sibling)
		} else {
			cur = t.hasher.Hash2(sibling, cur)
		}
		pos /= 2
	}
	return cur
}

// VerifyProof checks that leaf sits at leafIndex under a root reachable from
// the tree's current state, accepting a proof captured at an earlier
// sequence by replaying the intervening changelog (spec §4.3).
//
// Returns (true, nil) on success, (false, ErrProofTooStale) if the proof's
// sequence has fallen out of the changelog window, and (false, nil) if the
// proof recomputes to a root that does not match (a genuinely invalid
// proof, as opposed to a stale one).
func (t *Tree) VerifyProof(p Proof) (bool, error) {
	if len(p.Siblings) != t.ProofLength() {
		return false, ErrInvalidProof
	}
	patched := Proof{LeafIndex: p.LeafIndex, Leaf: p.Leaf, Sequence: p.Sequence, Siblings: append([]hash.Hash(nil), p.Siblings...)}
	if err := t.patchStale(&patched); err != nil {
		return false, err
	}
	root := t.recomputeRoot(patched)
	return root == t.root, nil
}

// Prove returns a fresh Proof for leafIndex against the tree's current
// state (Sequence = t.Sequence()). It is only able to do so for the subset
// of information the in-process tree object has on hand: the frontier, the
// canopy and the changelog. It returns ok=false when leafIndex has not been
// appended, or once the tree holds more appends than the changelog retains.
func (t *Tree) Prove(leafIndex uint64, leaf hash.Hash) (Proof, bool) {
	entries, ok := t.changelogEntriesAfter(0)
	if !ok {
		return Proof{}, false
	}
	// Reconstruct the current proof-length sibling values by replaying the
	// full changelog against the initial (all-zero) state, the same
	// patchStale logic uses against a caller-supplied proof.
	proofLen := t.ProofLength()
	siblings := make([]hash.Hash, proofLen)
	for level := 0; level < proofLen; level++ {
		siblings[level] = t.hasher.ZeroBytes(level)
	}
	found := false
	for _, e := range entries {
		if e.LeafIndex == leafIndex {
			found = true
			continue
		}
		for level := 0; level < proofLen; level++ {
			siblingPos := (leafIndex >> uint(level)) ^ 1
			touchedPos := e.LeafIndex >> uint(level)
			if touchedPos == siblingPos {
				siblings[level] = e.Path[level]
			}
		}
	}
	if !found {
		return Proof{}, false
	}
	return Proof{LeafIndex: leafIndex, Leaf: leaf, Siblings: siblings, Sequence: t.sequence}, true
}
