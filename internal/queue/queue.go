// Package queue implements the bounded queue of spec C5: a fixed-capacity
// hash set of 32-byte values (nullifiers or new addresses awaiting
// insertion into a batched tree account) with sequence-threshold eviction,
// so a bucket only becomes reusable once no still-valid proof could
// reference the root it was inserted under.
package queue

import (
	"encoding/binary"

	"github.com/andrey/compressed-state/internal/hash"
)

type bucket struct {
	occupied    bool
	value       hash.Hash
	seqInserted *uint64
}

// Queue is the bounded replay-protection set of spec C5.
type Queue struct {
	hasher    hash.Hasher
	buckets   []bucket
	capacity  int
	threshold uint64
}

// New constructs an empty queue of the given capacity. threshold is the
// sequence_threshold of spec §3.4: a bucket inserted at sequence s may be
// reclaimed once the tree's current sequence exceeds s + threshold, and is
// also the bound on how many buckets Insert/Contains will linear-probe.
func New(hasher hash.Hasher, capacity int, threshold uint64) *Queue {
	return &Queue{
		hasher:    hasher,
		buckets:   make([]bucket, capacity),
		capacity:  capacity,
		threshold: threshold,
	}
}

func (q *Queue) bucketIndex(value hash.Hash) int {
	h := q.hasher.HashV(value.Bytes())
	n := binary.BigEndian.Uint64(h[24:32])
	return int(n % uint64(q.capacity))
}

func (q *Queue) probeLimit() int {
	if uint64(q.capacity) < q.threshold {
		return q.capacity
	}
	return int(q.threshold)
}

// stale reports whether b (occupied, finalized at b.seqInserted) may be
// reclaimed given the tree's current sequence number (spec §3.4 rule 3).
func stale(b bucket, currentSeq, threshold uint64) bool {
	if !b.occupied {
		return true
	}
	if b.seqInserted == nil {
		return false // unfinalized, never overwritable
	}
	return currentSeq > *b.seqInserted+threshold
}

// Insert claims a bucket for value with seq_inserted = None ("unfinalized",
// spec §4.5 step 3). Returns ErrDuplicateValue if value is already present
// anywhere in the probe chain, ErrQueueFull if every probed bucket is
// occupied and unfinalized.
func (q *Queue) Insert(value hash.Hash, currentSeq uint64) error {
	start := q.bucketIndex(value)
	limit := q.probeLimit()
	for hop := 0; hop < limit; hop++ {
		idx := (start + hop) % q.capacity
		b := q.buckets[idx]
		if b.occupied && b.value == value {
			return ErrDuplicateValue
		}
		if stale(b, currentSeq, q.threshold) {
			q.buckets[idx] = bucket{occupied: true, value: value, seqInserted: nil}
			return nil
		}
	}
	return ErrQueueFull
}

// MarkInserted locates value via the same probe chain Insert used and sets
// its seq_inserted to treeSeqNow, finalizing it (spec §4.5 mark_inserted).
func (q *Queue) MarkInserted(value hash.Hash, treeSeqNow uint64) bool {
	start := q.bucketIndex(value)
	limit := q.probeLimit()
	for hop := 0; hop < limit; hop++ {
		idx := (start + hop) % q.capacity
		b := q.buckets[idx]
		if b.occupied && b.value == value {
			seq := treeSeqNow
			q.buckets[idx].seqInserted = &seq
			return true
		}
	}
	return false
}

// Contains scans the probe chain for value, used for replay-protection
// lookups (spec §3.4 rule 4).
func (q *Queue) Contains(value hash.Hash) bool {
	start := q.bucketIndex(value)
	limit := q.probeLimit()
	for hop := 0; hop < limit; hop++ {
		idx := (start + hop) % q.capacity
		b := q.buckets[idx]
		if b.occupied && b.value == value {
			return true
		}
	}
	return false
}

// Capacity returns the fixed bucket count.
func (q *Queue) Capacity() int { return q.capacity }
