package indexedtree

import (
	"bytes"
	"encoding/binary"

	"github.com/google/btree"

	"github.com/andrey/compressed-state/internal/hash"
)

// LeafRecord is one node of the sorted linked list an indexed Merkle tree's
// leaves form (spec §3.3): value, the index of the next-greater leaf, and
// that leaf's value cached inline so a non-inclusion proof never has to
// dereference next_index. next_value == zero is the tail sentinel,
// interpreted as +infinity.
type LeafRecord struct {
	Value     hash.Hash
	NextIndex uint64
	NextValue hash.Hash
}

func leafHash(hasher hash.Hasher, rec LeafRecord) hash.Hash {
	var idxBuf [8]byte
	binary.BigEndian.PutUint64(idxBuf[:], rec.NextIndex)
	return hasher.HashV(rec.Value.Bytes(), idxBuf[:], rec.NextValue.Bytes())
}

// valueItem is the btree.Item the off-chain ordered index (spec §4.4's
// "skip-list / B-tree keyed by value") stores, keyed purely by Value so
// Insert can binary-search for the low element in O(log n).
type valueItem struct {
	value     hash.Hash
	leafIndex uint64
}

func (a valueItem) Less(than btree.Item) bool {
	b := than.(valueItem)
	return bytes.Compare(a.value[:], b.value[:]) < 0
}
