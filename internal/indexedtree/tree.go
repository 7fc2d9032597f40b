// Package indexedtree implements the indexed Merkle tree of spec C4: leaves
// are (value, next_index, next_value) records forming a strictly-increasing
// sorted linked list, which lets a non-member prove its absence by pointing
// at the member immediately below it.
//
// On-chain, only the bare underlying tree (root, frontier, canopy — see
// internal/merkletree) exists. Off-chain, the indexer and forester keep a
// complete shadow copy with every node materialized, because deriving the
// low element and re-deriving sibling paths after each insertion in a batch
// requires full knowledge the frontier alone cannot provide. This package is
// that shadow: it is the Go analogue of the design notes'
// IndexedTreeProcessor.
package indexedtree

import (
	"github.com/google/btree"

	"github.com/andrey/compressed-state/internal/hash"
)

type nodeKey struct {
	level int
	pos   uint64
}

// ChangelogEntry mirrors merkletree.ChangelogEntry: the full path written by
// one mutating operation (an Append or the in-place update of a low
// element), keyed by the leaf index it touched.
type ChangelogEntry struct {
	Sequence  uint64
	LeafIndex uint64
	Path      []hash.Hash
	Root      hash.Hash
}

// Tree is the off-chain, fully-materialized indexed Merkle tree.
type Tree struct {
	hasher hash.Hasher
	height int

	nodes map[nodeKey]hash.Hash
	arena []LeafRecord
	index *btree.BTree

	root      hash.Hash
	sequence  uint64
	nextIndex uint64

	changelog []ChangelogEntry
}

// New constructs an indexed tree containing only the sentinel leaf (value
// 0, next_index 0, next_value 0 — the tail pointing at itself), matching
// spec §3.3's "terminated by a sentinel" invariant.
func New(hasher hash.Hasher, height int) *Tree {
	t := &Tree{
		hasher: hasher,
		height: height,
		nodes:  make(map[nodeKey]hash.Hash),
		index:  btree.New(16),
	}
	sentinel := LeafRecord{}
	t.arena = append(t.arena, sentinel)
	t.index.ReplaceOrInsert(valueItem{value: sentinel.Value, leafIndex: 0})
	t.commitLeaf(0, sentinel)
	t.nextIndex = 1
	return t
}

func (t *Tree) get(level int, pos uint64) hash.Hash {
	if v, ok := t.nodes[nodeKey{level, pos}]; ok {
		return v
	}
	return t.hasher.ZeroBytes(level)
}

func (t *Tree) set(level int, pos uint64, v hash.Hash) {
	t.nodes[nodeKey{level, pos}] = v
}

// commitLeaf writes rec's leaf hash at leafIndex and recomputes every
// ancestor up to the root, recording the written path as a changelog entry.
// Used by both Append (leafIndex == nextIndex, previously empty) and the
// low-element in-place update (leafIndex already occupied).
func (t *Tree) commitLeaf(leafIndex uint64, rec LeafRecord) ChangelogEntry {
	leaf := leafHash(t.hasher, rec)
	path := make([]hash.Hash, t.height+1)
	path[0] = leaf
	t.set(0, leafIndex, leaf)

	cur := leaf
	pos := leafIndex
	for level := 1; level <= t.height; level++ {
		var parent hash.Hash
		if pos%2 == 0 {
			parent = t.hasher.Hash2(cur, t.get(level-1, pos+1))
		} else {
			parent = t.hasher.Hash2(t.get(level-1, pos-1), cur)
		}
		pos /= 2
		t.set(level, pos, parent)
		path[level] = parent
		cur = parent
	}

	t.sequence++
	t.root = cur
	entry := ChangelogEntry{Sequence: t.sequence, LeafIndex: leafIndex, Path: path, Root: t.root}
	t.changelog = append(t.changelog, entry)
	return entry
}

// Height returns the tree's fixed height.
func (t *Tree) Height() int { return t.height }

// Root returns the current root.
func (t *Tree) Root() hash.Hash { return t.root }

// Sequence returns the current sequence number.
func (t *Tree) Sequence() uint64 { return t.sequence }

// NextIndex returns the index the next newly-inserted value will occupy.
func (t *Tree) NextIndex() uint64 { return t.nextIndex }

// Leaf returns the leaf record stored at idx.
func (t *Tree) Leaf(idx uint64) LeafRecord { return t.arena[idx] }

// findLow locates the low element for v: the greatest leaf with
// Value < v (spec §3.3 step 1). Returns ErrLeafAlreadyPresent if a leaf
// already holds v exactly.
func (t *Tree) findLow(v hash.Hash) (uint64, error) {
	var lowIdx uint64
	found := false
	dup := false
	t.index.DescendLessOrEqual(valueItem{value: v}, func(item btree.Item) bool {
		vi := item.(valueItem)
		if vi.value == v {
			dup = true
			return false
		}
		lowIdx = vi.leafIndex
		found = true
		return false
	})
	if dup {
		return 0, ErrLeafAlreadyPresent
	}
	if !found {
		return 0, ErrNotFound
	}
	return lowIdx, nil
}

// Insert adds v to the sorted linked list (spec §3.3 / §4.4 insertion state
// machine): locate the low element, update it in place to point at the new
// leaf, then append the new leaf carrying over the low element's old
// next pointers. Returns the new leaf's index.
func (t *Tree) Insert(v hash.Hash) (uint64, error) {
	lowIdx, err := t.findLow(v)
	if err != nil {
		return 0, err
	}
	oldLow := t.arena[lowIdx]
	newIndex := t.nextIndex

	updatedLow := LeafRecord{Value: oldLow.Value, NextIndex: newIndex, NextValue: v}
	t.arena[lowIdx] = updatedLow
	t.commitLeaf(lowIdx, updatedLow)

	newLeaf := LeafRecord{Value: v, NextIndex: oldLow.NextIndex, NextValue: oldLow.NextValue}
	t.arena = append(t.arena, newLeaf)
	t.commitLeaf(newIndex, newLeaf)
	t.nextIndex++
	t.index.ReplaceOrInsert(valueItem{value: v, leafIndex: newIndex})

	return newIndex, nil
}
