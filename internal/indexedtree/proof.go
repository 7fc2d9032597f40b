package indexedtree

import (
	"bytes"

	"github.com/andrey/compressed-state/internal/hash"
)

// NonInclusionProof is the witness that v is absent from the sorted linked
// list (spec §4.4): the low element's membership proof plus the ordering
// assertion L.value < v < L.next_value.
type NonInclusionProof struct {
	Value        hash.Hash
	LowLeafIndex uint64
	LowLeaf      LeafRecord
	Siblings     []hash.Hash // length == tree height, bottom-up
}

// Prove builds a NonInclusionProof for v against the tree's current state.
func (t *Tree) Prove(v hash.Hash) (NonInclusionProof, error) {
	lowIdx, err := t.findLow(v)
	if err != nil {
		return NonInclusionProof{}, err
	}
	siblings := make([]hash.Hash, t.height)
	pos := lowIdx
	for level := 0; level < t.height; level++ {
		siblings[level] = t.get(level, pos^1)
		pos /= 2
	}
	return NonInclusionProof{
		Value:        v,
		LowLeafIndex: lowIdx,
		LowLeaf:      t.arena[lowIdx],
		Siblings:     siblings,
	}, nil
}

// VerifyNonInclusion checks p against root without needing the full tree:
// membership of the low leaf, then the two ordering conditions of spec
// §4.4 ("low_leaf.value < v; either v < low_leaf.next_value or
// low_leaf.next_value == 0").
func VerifyNonInclusion(hasher hash.Hasher, height int, root hash.Hash, p NonInclusionProof) (bool, error) {
	if len(p.Siblings) != height {
		return false, ErrInvalidProof
	}
	cur := leafHash(hasher, p.LowLeaf)
	pos := p.LowLeafIndex
	for level := 0; level < height; level++ {
		if pos%2 == 0 {
			cur = hasher.Hash2(cur, p.Siblings[level])
		} else {
			cur = hasher.Hash2(p.Siblings[level], cur)
		}
		pos /= 2
	}
	if cur != root {
		return false, nil
	}
	if bytes.Compare(p.LowLeaf.Value[:], p.Value[:]) >= 0 {
		return false, nil
	}
	if !p.LowLeaf.NextValue.IsZero() && bytes.Compare(p.Value[:], p.LowLeaf.NextValue[:]) >= 0 {
		return false, nil
	}
	return true, nil
}

// FromSubtrees rebuilds a shadow tree from leaf records rather than from
// frontier subtree hashes: it starts from New (sentinel only), treats
// leaves[0] as that sentinel, and replays the values of leaves[1:] through
// Insert in order. Insert errors, such as a duplicate value, are ignored.
func FromSubtrees(hasher hash.Hasher, height int, leaves []LeafRecord) *Tree {
	t := New(hasher, height)
	if len(leaves) == 0 {
		return t
	}
	// leaves[0] is assumed to be the sentinel already accounted for by New;
	// replay the rest as ordinary inserts so the off-chain index and arena
	// stay consistent with on-chain history.
	for _, rec := range leaves[1:] {
		_, _ = t.Insert(rec.Value)
	}
	return t
}
