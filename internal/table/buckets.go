// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package table

import (
	"encoding/binary"
	"fmt"

	"github.com/bpowers/arcdb/hash40"
)

const (
	// PreambleSize is the inline {hashCount, bucketCount} header of a
	// bucketed lookup.
	PreambleSize = 8
	// BucketSize is the size of one {start, count} bucket record.
	BucketSize = 8
)

// Bucket is the fixed sub-range of the hash array owned by one bucket.
type Bucket struct {
	Start uint32
	Count uint32
}

// BucketedLookup is a lookup whose fixed hashes are partitioned into
// bucketCount sorted runs.  A hash always lives in bucket
// raw % bucketCount, and every operation consults that bucket only.
//
// Layout: hashCount u32, bucketCount u32, bucketCount Bucket records, then
// hashCount entries.
type BucketedLookup struct {
	arena   *Arena
	parts   []part
	labeler hash40.Labeler
}

// CarveBucketed reads the inline preamble at the cursor, checks that every
// bucket's range lies inside the hash array, and advances past all of it.
// The hashes themselves are not read; Check does that.
func CarveBucketed(c *Cursor) (*BucketedLookup, error) {
	hashCount, err := c.Uint32()
	if err != nil {
		return nil, fmt.Errorf("bucketed lookup hash count: %w", err)
	}
	bucketCount, err := c.Uint32()
	if err != nil {
		return nil, fmt.Errorf("bucketed lookup bucket count: %w", err)
	}
	if bucketCount == 0 {
		return nil, fmt.Errorf("bucketed lookup with zero buckets: %w", ErrCorrupt)
	}
	bucketsOff, err := c.reserve(int(bucketCount), BucketSize)
	if err != nil {
		return nil, fmt.Errorf("bucketed lookup buckets: %w", err)
	}
	hashesOff, err := c.reserve(int(hashCount), EntrySize)
	if err != nil {
		return nil, fmt.Errorf("bucketed lookup hashes: %w", err)
	}

	l := &BucketedLookup{
		arena:   c.arena,
		parts:   make([]part, bucketCount),
		labeler: hash40.Hex{},
	}
	for i := range l.parts {
		b := c.arena.slice(bucketsOff+i*BucketSize, BucketSize)
		start := binary.LittleEndian.Uint32(b[0:4])
		count := binary.LittleEndian.Uint32(b[4:8])
		if uint64(start)+uint64(count) > uint64(hashCount) {
			return nil, fmt.Errorf("bucket %d [%d, +%d) outside %d hashes: %w", i, start, count, hashCount, ErrCorrupt)
		}
		l.parts[i].fixed = run{
			arena: c.arena,
			off:   hashesOff + int(start)*EntrySize,
			count: int(count),
		}
	}
	return l, nil
}

// Check verifies that each bucket's fixed entries are in ascending order
// and route to that bucket.
func (l *BucketedLookup) Check() error {
	n := uint64(len(l.parts))
	for i := range l.parts {
		bucket := uint64(i)
		err := l.parts[i].fixed.check(func(h hash40.Hash40) bool {
			return h.Raw()%n == bucket
		})
		if err != nil {
			return fmt.Errorf("bucket %d: %w", i, err)
		}
	}
	return nil
}

// NewBucketed returns an empty lookup with bucketCount buckets.  It is
// used to build a database from scratch.
func NewBucketed(a *Arena, bucketCount uint32) *BucketedLookup {
	if bucketCount == 0 {
		panic("invariant broken: bucketed lookup needs at least one bucket")
	}
	l := &BucketedLookup{
		arena:   a,
		parts:   make([]part, bucketCount),
		labeler: hash40.Hex{},
	}
	for i := range l.parts {
		l.parts[i].fixed = run{arena: a}
	}
	return l
}

// SetLabeler sets how hashes are named in panic messages.
func (l *BucketedLookup) SetLabeler(labeler hash40.Labeler) {
	l.labeler = labeler
}

// BucketCount is the number of buckets, fixed when the lookup was parsed.
func (l *BucketedLookup) BucketCount() uint32 {
	return uint32(len(l.parts))
}

// BucketOf returns the bucket h is routed to.
func (l *BucketedLookup) BucketOf(h hash40.Hash40) uint32 {
	return uint32(h.Raw() % uint64(len(l.parts)))
}

func (l *BucketedLookup) bucket(h hash40.Hash40) *part {
	return &l.parts[l.BucketOf(h)]
}

// Buckets returns the fixed range of every bucket.
func (l *BucketedLookup) Buckets() []Bucket {
	buckets := make([]Bucket, len(l.parts))
	var start uint32
	for i := range l.parts {
		buckets[i] = Bucket{Start: start, Count: uint32(l.parts[i].fixed.count)}
		start += buckets[i].Count
	}
	return buckets
}

// Get returns the index stored for h.
func (l *BucketedLookup) Get(h hash40.Hash40) (uint32, bool) {
	return l.bucket(h).get(h)
}

// ContainsKey reports whether h is present.
func (l *BucketedLookup) ContainsKey(h hash40.Hash40) bool {
	_, ok := l.bucket(h).get(h)
	return ok
}

// Insert maps h to index within h's bucket, returning the previous index
// if there was one.
func (l *BucketedLookup) Insert(h hash40.Hash40, index uint32) (old uint32, replaced bool) {
	checkIndex(l.labeler, h, index)
	return l.bucket(h).insert(h, index)
}

// Set updates the index of an existing key and reports false if h is
// absent from its bucket.
func (l *BucketedLookup) Set(h hash40.Hash40, index uint32) bool {
	checkIndex(l.labeler, h, index)
	return l.bucket(h).set(h, index)
}

// Len is the number of keys across all buckets.
func (l *BucketedLookup) Len() int {
	n := 0
	for i := range l.parts {
		n += l.parts[i].len()
	}
	return n
}

// FixedLen is the number of keys backed by the arena.
func (l *BucketedLookup) FixedLen() int {
	n := 0
	for i := range l.parts {
		n += l.parts[i].fixed.count
	}
	return n
}

// DynamicLen is the number of keys added since the last compaction.
func (l *BucketedLookup) DynamicLen() int {
	return l.Len() - l.FixedLen()
}

// Iter yields keys bucket by bucket, ascending within each bucket.
func (l *BucketedLookup) Iter() *LookupIter {
	its := make([]*partIter, len(l.parts))
	for i := range l.parts {
		its[i] = l.parts[i].iter(l.labeler)
	}
	return &LookupIter{parts: its}
}

// ByteLen is the flattened size including the preamble and bucket table.
func (l *BucketedLookup) ByteLen() int {
	return PreambleSize + len(l.parts)*BucketSize + l.Len()*EntrySize
}

// Serialize writes the preamble, a bucket table with cumulative starts and
// the merged entries of every bucket.
func (l *BucketedLookup) Serialize(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], uint32(l.Len()))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(len(l.parts)))

	bucketsOff := PreambleSize
	n := PreambleSize + len(l.parts)*BucketSize
	var start uint32
	for i := range l.parts {
		count := uint32(l.parts[i].len())
		b := dst[bucketsOff+i*BucketSize:]
		binary.LittleEndian.PutUint32(b[0:4], start)
		binary.LittleEndian.PutUint32(b[4:8], count)
		n += l.parts[i].serialize(dst[n:], l.labeler)
		start += count
	}
}

// Rebase points every bucket at its flattened run after the lookup was
// serialized at off.
func (l *BucketedLookup) Rebase(off int) {
	n := off + PreambleSize + len(l.parts)*BucketSize
	for i := range l.parts {
		count := l.parts[i].len()
		l.parts[i].rebase(n)
		n += count * EntrySize
	}
}
