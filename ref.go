// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"fmt"

	"github.com/bpowers/arcdb/internal/table"
)

// Ref is a read reference to one row: a table and an index that was in
// range when the Ref was made.  Rows are never removed, so a Ref stays
// valid for the life of its database, including across Reserialize.
type Ref[T Row] struct {
	db    *Database
	t     *table.Table[T]
	index uint32
}

func newRef[T Row](db *Database, t *table.Table[T], index uint32) (Ref[T], bool) {
	if !t.Contains(index) {
		return Ref[T]{}, false
	}
	return Ref[T]{db: db, t: t, index: index}, true
}

// Index is the row's index in its table.
func (r Ref[T]) Index() uint32 { return r.index }

// Row returns the current contents of the row.
func (r Ref[T]) Row() T { return r.t.MustGet(r.index) }

// Database returns the database the row belongs to.
func (r Ref[T]) Database() *Database { return r.db }

func (r Ref[T]) String() string {
	return fmt.Sprintf("%T[%d]", r.Row(), r.index)
}

// Mut is a write reference to one row.  Issuing a Mut, directly or by
// following an edge from another Mut, revokes every Mut issued before
// it, as does Reserialize.  Using a revoked Mut panics with
// ErrStaleGuard.
type Mut[T Row] struct {
	db    *Database
	t     *table.Table[T]
	index uint32
	epoch uint64
}

func newMut[T Row](db *Database, t *table.Table[T], index uint32) (Mut[T], bool) {
	if !t.Contains(index) {
		return Mut[T]{}, false
	}
	return Mut[T]{db: db, t: t, index: index, epoch: db.claim()}, true
}

func (m Mut[T]) check() {
	if m.db == nil {
		panic(fmt.Errorf("zero Mut: %w", ErrStaleGuard))
	}
	if m.epoch != m.db.epoch {
		panic(fmt.Errorf("%T[%d] (epoch %d, current %d): %w", m.t.MustGet(m.index), m.index, m.epoch, m.db.epoch, ErrStaleGuard))
	}
}

// Valid reports whether m is still the live write guard.
func (m Mut[T]) Valid() bool {
	return m.db != nil && m.epoch == m.db.epoch
}

// Index is the row's index in its table.
func (m Mut[T]) Index() uint32 {
	m.check()
	return m.index
}

// Row returns the current contents of the row.
func (m Mut[T]) Row() T {
	m.check()
	return m.t.MustGet(m.index)
}

// Set overwrites the row.
func (m Mut[T]) Set(v T) {
	m.check()
	m.t.Set(m.index, v)
}

// Update applies fn to the row and stores the result.
func (m Mut[T]) Update(fn func(*T)) {
	m.check()
	m.t.Update(m.index, fn)
}

// Ref returns a read reference to the same row.
func (m Mut[T]) Ref() Ref[T] {
	m.check()
	return Ref[T]{db: m.db, t: m.t, index: m.index}
}

// Slice is a read reference to the rows [start, start+count) of a table.
type Slice[T Row] struct {
	db    *Database
	t     *table.Table[T]
	start uint32
	count uint32
}

func newSlice[T Row](db *Database, t *table.Table[T], start, count uint32) (Slice[T], bool) {
	if !t.ContainsRange(start, count) {
		return Slice[T]{}, false
	}
	return Slice[T]{db: db, t: t, start: start, count: count}, true
}

// Start is the table index of the first row.
func (s Slice[T]) Start() uint32 { return s.start }

// Len is the number of rows.
func (s Slice[T]) Len() int { return int(s.count) }

// Get returns the i'th row of the slice.
func (s Slice[T]) Get(i uint32) (Ref[T], bool) {
	if i >= s.count {
		return Ref[T]{}, false
	}
	return Ref[T]{db: s.db, t: s.t, index: s.start + i}, true
}

// Iter returns an iterator over the rows in order.
func (s Slice[T]) Iter() *SliceIter[T] {
	return &SliceIter[T]{s: s}
}

// SliceIter walks a Slice.
type SliceIter[T Row] struct {
	s    Slice[T]
	next uint32
}

// Next returns a reference to the next row, or false at the end.
func (it *SliceIter[T]) Next() (Ref[T], bool) {
	ref, ok := it.s.Get(it.next)
	if ok {
		it.next++
	}
	return ref, ok
}
