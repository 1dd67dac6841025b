// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package table

import (
	"fmt"
	"sort"

	"github.com/google/btree"

	"github.com/bpowers/arcdb/hash40"
)

const (
	// EntrySize is the size of one lookup entry: a HashWithData whose
	// payload is the row index.
	EntrySize = hash40.EncodedSize

	btreeDegree = 32
)

type entry struct {
	hash  hash40.Hash40
	index uint32
}

func entryLess(a, b entry) bool {
	return a.hash < b.hash
}

func newOverlay() *btree.BTreeG[entry] {
	return btree.NewG[entry](btreeDegree, entryLess)
}

func checkIndex(l hash40.Labeler, h hash40.Hash40, index uint32) {
	if index > hash40.DataMask {
		panic(fmt.Errorf("invariant broken: index %d for %s does not fit in 24 bits", index, l.Label(h)))
	}
}

// run is a sorted array of lookup entries living in the arena.
type run struct {
	arena *Arena
	off   int
	count int
}

func (r run) at(i int) hash40.HashWithData {
	return hash40.ReadHashWithData(r.arena.slice(r.off+i*EntrySize, EntrySize))
}

func (r run) search(h hash40.Hash40) (int, bool) {
	i := sort.Search(r.count, func(i int) bool {
		return r.at(i).Hash40() >= h
	})
	return i, i < r.count && r.at(i).Hash40() == h
}

func (r run) setIndex(i int, index uint32) {
	e := r.at(i)
	e.SetData(index)
	e.Put(r.arena.slice(r.off+i*EntrySize, EntrySize))
}

// check reports the first entry that is below its predecessor or that keep
// rejects.  Equal neighbours are allowed.
func (r run) check(keep func(hash40.Hash40) bool) error {
	var prev hash40.Hash40
	for i := 0; i < r.count; i++ {
		h := r.at(i).Hash40()
		if i > 0 && h < prev {
			return fmt.Errorf("lookup entry %d (%s) below %s: %w", i, h, prev, ErrCorrupt)
		}
		if keep != nil && !keep(h) {
			return fmt.Errorf("lookup entry %d (%s) in wrong bucket: %w", i, h, ErrCorrupt)
		}
		prev = h
	}
	return nil
}

// part is one fixed run plus its dynamic overlay.  Lookups are built out of
// one part (sorted) or one part per bucket (bucketed).
type part struct {
	fixed   run
	dynamic *btree.BTreeG[entry]
}

func (p *part) get(h hash40.Hash40) (uint32, bool) {
	if i, ok := p.fixed.search(h); ok {
		return p.fixed.at(i).Data(), true
	}
	if p.dynamic == nil {
		return 0, false
	}
	e, ok := p.dynamic.Get(entry{hash: h})
	return e.index, ok
}

func (p *part) insert(h hash40.Hash40, index uint32) (uint32, bool) {
	if i, ok := p.fixed.search(h); ok {
		old := p.fixed.at(i).Data()
		p.fixed.setIndex(i, index)
		return old, true
	}
	if p.dynamic == nil {
		p.dynamic = newOverlay()
	}
	old, replaced := p.dynamic.ReplaceOrInsert(entry{hash: h, index: index})
	return old.index, replaced
}

func (p *part) set(h hash40.Hash40, index uint32) bool {
	if i, ok := p.fixed.search(h); ok {
		p.fixed.setIndex(i, index)
		return true
	}
	if p.dynamic == nil || !p.dynamic.Has(entry{hash: h}) {
		return false
	}
	p.dynamic.ReplaceOrInsert(entry{hash: h, index: index})
	return true
}

func (p *part) dynamicLen() int {
	if p.dynamic == nil {
		return 0
	}
	return p.dynamic.Len()
}

func (p *part) len() int {
	return p.fixed.count + p.dynamicLen()
}

func (p *part) iter(l hash40.Labeler) *partIter {
	var dyn []entry
	if p.dynamic != nil {
		dyn = make([]entry, 0, p.dynamic.Len())
		p.dynamic.Ascend(func(e entry) bool {
			dyn = append(dyn, e)
			return true
		})
	}
	return &partIter{fixed: p.fixed, dynamic: dyn, labeler: l}
}

// serialize writes the merged entries of p to dst and returns the number of
// bytes written.
func (p *part) serialize(dst []byte, l hash40.Labeler) int {
	n := 0
	it := p.iter(l)
	for {
		h, index, ok := it.Next()
		if !ok {
			break
		}
		hash40.NewWithData(h, index).Put(dst[n : n+EntrySize])
		n += EntrySize
	}
	return n
}

func (p *part) rebase(off int) {
	p.fixed.off = off
	p.fixed.count = p.len()
	p.dynamic = nil
}

// partIter merges a fixed run with a snapshot of its overlay.
type partIter struct {
	fixed   run
	dynamic []entry
	labeler hash40.Labeler
	i, j    int
}

// Next returns the next (hash, index) pair in ascending hash order.
func (it *partIter) Next() (hash40.Hash40, uint32, bool) {
	hasFixed := it.i < it.fixed.count
	hasDynamic := it.j < len(it.dynamic)
	switch {
	case hasFixed && hasDynamic:
		f := it.fixed.at(it.i)
		d := it.dynamic[it.j]
		if f.Hash40() == d.hash {
			panic(fmt.Errorf("invariant broken: %s present in both fixed and dynamic lookup entries", it.labeler.Label(d.hash)))
		}
		if f.Hash40() < d.hash {
			it.i++
			return f.Hash40(), f.Data(), true
		}
		it.j++
		return d.hash, d.index, true
	case hasFixed:
		f := it.fixed.at(it.i)
		it.i++
		return f.Hash40(), f.Data(), true
	case hasDynamic:
		d := it.dynamic[it.j]
		it.j++
		return d.hash, d.index, true
	}
	return 0, 0, false
}

// SortedLookup maps hashes to row indices.  The fixed part is a sorted
// array of HashWithData entries in the arena; keys added at runtime live in
// an ordered overlay.  A key is never in both.
type SortedLookup struct {
	p       part
	labeler hash40.Labeler
}

// NewSorted returns a lookup over count entries starting at byte off.  Only
// bounds are checked; Check verifies the ordering.
func NewSorted(a *Arena, off, count int) (*SortedLookup, error) {
	if _, err := checkBounds(a.Len(), off, count, EntrySize); err != nil {
		return nil, err
	}
	return &SortedLookup{
		p:       part{fixed: run{arena: a, off: off, count: count}},
		labeler: hash40.Hex{},
	}, nil
}

// CarveSorted creates a sorted lookup of count entries at the cursor and
// advances past it.
func CarveSorted(c *Cursor, count int) (*SortedLookup, error) {
	off, err := c.reserve(count, EntrySize)
	if err != nil {
		return nil, err
	}
	return NewSorted(c.arena, off, count)
}

// Check verifies that the fixed entries are in ascending order.  It reads
// every entry.
func (l *SortedLookup) Check() error {
	return l.p.fixed.check(nil)
}

// SetLabeler sets how hashes are named in panic messages.
func (l *SortedLookup) SetLabeler(labeler hash40.Labeler) {
	l.labeler = labeler
}

// Get returns the index stored for h.
func (l *SortedLookup) Get(h hash40.Hash40) (uint32, bool) {
	return l.p.get(h)
}

// ContainsKey reports whether h is present.
func (l *SortedLookup) ContainsKey(h hash40.Hash40) bool {
	_, ok := l.p.get(h)
	return ok
}

// Insert maps h to index.  If h was present its previous index is returned
// with replaced set.  Fixed entries are updated in place.
func (l *SortedLookup) Insert(h hash40.Hash40, index uint32) (old uint32, replaced bool) {
	checkIndex(l.labeler, h, index)
	return l.p.insert(h, index)
}

// Set updates the index of an existing key.  It reports false and changes
// nothing if h is absent.
func (l *SortedLookup) Set(h hash40.Hash40, index uint32) bool {
	checkIndex(l.labeler, h, index)
	return l.p.set(h, index)
}

// Len is the number of keys.
func (l *SortedLookup) Len() int {
	return l.p.len()
}

// FixedLen is the number of keys backed by the arena.
func (l *SortedLookup) FixedLen() int {
	return l.p.fixed.count
}

// DynamicLen is the number of keys added since the last compaction.
func (l *SortedLookup) DynamicLen() int {
	return l.p.dynamicLen()
}

// Iter returns an iterator yielding every key in ascending hash order.
// The lookup must not be modified while iterating.
func (l *SortedLookup) Iter() *LookupIter {
	return &LookupIter{parts: []*partIter{l.p.iter(l.labeler)}}
}

// ByteLen is the size of the lookup once flattened.
func (l *SortedLookup) ByteLen() int {
	return l.Len() * EntrySize
}

// Serialize writes the merged entries into dst.
func (l *SortedLookup) Serialize(dst []byte) {
	l.p.serialize(dst, l.labeler)
}

// Rebase points the lookup at its flattened entries at off.
func (l *SortedLookup) Rebase(off int) {
	l.p.rebase(off)
}

// LookupIter walks one or more sorted parts in sequence.
type LookupIter struct {
	parts []*partIter
}

// Next returns the next hash and the index stored for it, or false once
// every key has been visited.
func (it *LookupIter) Next() (hash40.Hash40, uint32, bool) {
	for len(it.parts) > 0 {
		if h, index, ok := it.parts[0].Next(); ok {
			return h, index, true
		}
		it.parts = it.parts[1:]
	}
	return 0, 0, false
}
