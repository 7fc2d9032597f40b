// Package merkletree implements the concurrent Merkle tree of spec C3: an
// append-only binary tree of fixed height with a rolling changelog so that
// proofs produced against a recent root remain valid after later appends,
// up to the changelog's capacity.
package merkletree

import (
	"github.com/andrey/compressed-state/internal/hash"
)

// ChangelogEntry records the path written by one mutating operation (spec
// §3.2 invariant 3): the after-value at every level along the path from the
// mutated leaf to the root, keyed by the leaf index the operation touched.
type ChangelogEntry struct {
	Sequence  uint64
	LeafIndex uint64
	// Path[l] is the node hash at level l along the path the operation
	// wrote: index 0 is the leaf itself, index 1 its parent, and index
	// len-1 the new root.
	Path []hash.Hash
	Root hash.Hash
}

// RootHistoryEntry is one entry of the root-history ring buffer (spec §3.2
// invariant 4).
type RootHistoryEntry struct {
	Root     hash.Hash
	Sequence uint64
}

// Tree is the concurrent Merkle tree of spec C3. Height, canopy depth,
// changelog capacity and root-history capacity are fixed at construction.
type Tree struct {
	hasher hash.Hasher

	height         int
	canopyDepth    int
	changelogCap   int
	rootHistoryCap int

	// frontier[l] is the hash of the last fully-filled left-sibling subtree
	// rooted at level l (spec §3.2 invariant 1). frontier[0] is unused
	// (leaves have no "subtree"); frontier has height+1 entries so that
	// frontier[height] would be the root of a complete tree, never read.
	frontier []hash.Hash

	// canopy materializes every node value touched within the top
	// canopyDepth levels (levels height-canopyDepth .. height-1), keyed by
	// a dense (level, position) index. A cache miss defaults to the
	// all-zero-subtree hash for that level, which is always correct for a
	// position that append() has not yet reached.
	canopy      []hash.Hash
	canopyTouch []bool
	canopyBase  []int // canopyBase[l] = index offset of level l's positions

	changelog   []ChangelogEntry
	changelogAt int // next write position (ring buffer)
	changelogN  int // number of valid entries (caps at changelogCap)

	rootHistory   []RootHistoryEntry
	rootHistoryAt int
	rootHistoryN  int

	root      hash.Hash
	sequence  uint64
	nextIndex uint64
}

// New constructs an empty tree: root = zero_bytes(height), sequence = 0,
// frontier filled with zero-subtree values, per spec §4.3 New.
func New(hasher hash.Hasher, height, canopyDepth, changelogCap, rootHistoryCap int) (*Tree, error) {
	if canopyDepth > height {
		return nil, ErrCanopyMisconfigured
	}
	t := &Tree{
		hasher:         hasher,
		height:         height,
		canopyDepth:    canopyDepth,
		changelogCap:   changelogCap,
		rootHistoryCap: rootHistoryCap,
		frontier:       make([]hash.Hash, height+1),
		changelog:      make([]ChangelogEntry, changelogCap),
		rootHistory:    make([]RootHistoryEntry, rootHistoryCap),
	}
	for l := 0; l <= height; l++ {
		t.frontier[l] = hasher.ZeroBytes(l)
	}
	t.root = hasher.ZeroBytes(height)
	t.initCanopy()
	t.pushRootHistory(t.root, 0)
	return t, nil
}

func (t *Tree) initCanopy() {
	if t.canopyDepth == 0 {
		return
	}
	bottom := t.height - t.canopyDepth // lowest level materialized
	base := make([]int, t.height+1)
	total := 0
	for l := bottom; l < t.height; l++ {
		base[l] = total
		total += 1 << uint(t.height-l)
	}
	t.canopyBase = base
	t.canopy = make([]hash.Hash, total)
	t.canopyTouch = make([]bool, total)
}

func (t *Tree) canopyIndex(level int, pos uint64) (int, bool) {
	if t.canopyDepth == 0 || level < t.height-t.canopyDepth || level >= t.height {
		return 0, false
	}
	return t.canopyBase[level] + int(pos), true
}

func (t *Tree) canopyGet(level int, pos uint64) hash.Hash {
	idx, ok := t.canopyIndex(level, pos)
	if !ok || !t.canopyTouch[idx] {
		return t.hasher.ZeroBytes(level)
	}
	return t.canopy[idx]
}

func (t *Tree) canopySet(level int, pos uint64, h hash.Hash) {
	idx, ok := t.canopyIndex(level, pos)
	if !ok {
		return
	}
	t.canopy[idx] = h
	t.canopyTouch[idx] = true
}

// Height returns the tree's fixed height.
func (t *Tree) Height() int { return t.height }

// CanopyDepth returns the number of top levels materialized locally.
func (t *Tree) CanopyDepth() int { return t.canopyDepth }

// Root returns the current root.
func (t *Tree) Root() hash.Hash { return t.root }

// Sequence returns the current (monotonic) sequence number.
func (t *Tree) Sequence() uint64 { return t.sequence }

// NextIndex returns the index the next Append will occupy.
func (t *Tree) NextIndex() uint64 { return t.nextIndex }

// ProofLength is the number of sibling hashes a caller must supply: height
// minus the materialized canopy depth.
func (t *Tree) ProofLength() int { return t.height - t.canopyDepth }

// Frontier returns a copy of the rightmost-path subtree hashes (spec §3.2
// invariant 1), as exposed by the indexer's get_subtrees query (§4.8).
func (t *Tree) Frontier() []hash.Hash {
	out := make([]hash.Hash, len(t.frontier))
	copy(out, t.frontier)
	return out
}

// Clone returns a deep copy of the tree, for the forester's speculative
// circuit-input rehearsal (spec §4.9 step 4): it needs to append a
// candidate sub-batch to compute the new_root it will ask the prover to
// prove, without committing that append to the tree the rest of the system
// observes until the on-chain instruction actually lands.
func (t *Tree) Clone() *Tree {
	c := *t
	c.frontier = append([]hash.Hash(nil), t.frontier...)
	c.canopy = append([]hash.Hash(nil), t.canopy...)
	c.canopyTouch = append([]bool(nil), t.canopyTouch...)
	c.canopyBase = append([]int(nil), t.canopyBase...)
	c.changelog = append([]ChangelogEntry(nil), t.changelog...)
	c.rootHistory = append([]RootHistoryEntry(nil), t.rootHistory...)
	return &c
}

// RootHistory returns a copy of the valid root-history entries, oldest
// first, as exposed by the indexer's root-index resolution (spec §4.8).
func (t *Tree) RootHistory() []RootHistoryEntry {
	out := make([]RootHistoryEntry, 0, t.rootHistoryN)
	start := (t.rootHistoryAt - t.rootHistoryN + t.rootHistoryCap) % t.rootHistoryCap
	for i := 0; i < t.rootHistoryN; i++ {
		out = append(out, t.rootHistory[(start+i)%t.rootHistoryCap])
	}
	return out
}

func (t *Tree) pushRootHistory(root hash.Hash, seq uint64) {
	t.rootHistory[t.rootHistoryAt] = RootHistoryEntry{Root: root, Sequence: seq}
	t.rootHistoryAt = (t.rootHistoryAt + 1) % t.rootHistoryCap
	if t.rootHistoryN < t.rootHistoryCap {
		t.rootHistoryN++
	}
}

func (t *Tree) pushChangelog(entry ChangelogEntry) {
	t.changelog[t.changelogAt] = entry
	t.changelogAt = (t.changelogAt + 1) % t.changelogCap
	if t.changelogN < t.changelogCap {
		t.changelogN++
	}
}

// changelogEntriesAfter returns every changelog entry with Sequence in
// (fromSeq, t.sequence], oldest first. Returns ok=false if the requested
// window has already fallen out of the ring buffer.
func (t *Tree) changelogEntriesAfter(fromSeq uint64) ([]ChangelogEntry, bool) {
	delta := t.sequence - fromSeq
	if delta == 0 {
		return nil, true
	}
	if int(delta) > t.changelogCap || int(delta) > t.changelogN {
		return nil, false
	}
	out := make([]ChangelogEntry, 0, delta)
	// The changelog ring buffer's most recent entry is at (changelogAt-1).
	// Walk backwards delta entries, then reverse.
	idx := t.changelogAt
	for i := 0; i < int(delta); i++ {
		idx = (idx - 1 + t.changelogCap) % t.changelogCap
		out = append(out, t.changelog[idx])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, true
}

// Append inserts leaf at NextIndex, advancing the frontier, canopy, root
// history and sequence (spec §4.3 Append algorithm).
func (t *Tree) Append(leaf hash.Hash) (ChangelogEntry, error) {
	if t.nextIndex >= 1<<uint(t.height) {
		return ChangelogEntry{}, ErrTreeFull
	}
	leafIndex := t.nextIndex
	path := make([]hash.Hash, t.height+1)
	path[0] = leaf
	t.canopySet(0, leafIndex, leaf)

	cur := leaf
	pos := leafIndex
	for level := 1; level <= t.height; level++ {
		var parent hash.Hash
		if pos%2 == 0 {
			// cur is a left child; its sibling (to the right) is not yet
			// filled, so it is the zero subtree at level-1.
			sibling := t.hasher.ZeroBytes(level - 1)
			parent = t.hasher.Hash2(cur, sibling)
		} else {
			// cur is a right child; its sibling is the last fully-filled
			// left subtree at this level, held in the frontier.
			parent = t.hasher.Hash2(t.frontier[level-1], cur)
		}
		parentPos := pos / 2
		path[level] = parent
		t.canopySet(level, parentPos, parent)

		if pos%2 == 0 {
			// This subtree just became the new frontier candidate: it is
			// complete on the left only once its right sibling is filled,
			// which happens on the NEXT append into this subtree. Until
			// then, store it speculatively; it becomes authoritative the
			// moment sibling traffic passes it by (i.e. the next odd-pos
			// append at this level reads frontier[level-1], which we must
			// therefore set here to `cur`, not `parent`).
			t.frontier[level-1] = cur
		}

		cur = parent
		pos = parentPos
	}

	t.sequence++
	t.nextIndex++
	t.root = cur
	entry := ChangelogEntry{Sequence: t.sequence, LeafIndex: leafIndex, Path: path, Root: t.root}
	t.pushChangelog(entry)
	t.pushRootHistory(t.root, t.sequence)
	return entry, nil
}
