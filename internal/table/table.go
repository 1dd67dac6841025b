// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package table

import (
	"fmt"
	"math"
)

// Layout describes how a fixed-size row of type T is laid out in bytes.
// Decode and Encode are handed exactly Size bytes.
type Layout[T any] struct {
	Size   int
	Decode func(b []byte) T
	Encode func(b []byte, v T)
}

// Table is an append-only sequence of rows.  Indices below FixedLen address
// rows stored in the arena; the rest address rows pushed at runtime.  Rows
// are never removed or reordered, so an index stays valid for the life of
// the table.
type Table[T any] struct {
	arena   *Arena
	layout  Layout[T]
	off     int
	fixed   int
	dynamic []T
}

// New returns a table whose fixed region is count rows starting at byte off
// of the arena.
func New[T any](a *Arena, off, count int, layout Layout[T]) (*Table[T], error) {
	if _, err := checkBounds(a.Len(), off, count, layout.Size); err != nil {
		return nil, err
	}
	return &Table[T]{
		arena:  a,
		layout: layout,
		off:    off,
		fixed:  count,
	}, nil
}

// Carve creates a table of count rows at the cursor and advances past it.
func Carve[T any](c *Cursor, count int, layout Layout[T]) (*Table[T], error) {
	off, err := c.reserve(count, layout.Size)
	if err != nil {
		return nil, err
	}
	return New(c.arena, off, count, layout)
}

func (t *Table[T]) row(i int) []byte {
	return t.arena.slice(t.off+i*t.layout.Size, t.layout.Size)
}

// Get returns the row at index, reading the fixed region or the dynamic
// overlay as appropriate.
func (t *Table[T]) Get(index uint32) (T, bool) {
	i := int(index)
	if i < t.fixed {
		return t.layout.Decode(t.row(i)), true
	}
	if j := i - t.fixed; j < len(t.dynamic) {
		return t.dynamic[j], true
	}
	var zero T
	return zero, false
}

// MustGet is Get for callers that have already validated index.  An invalid
// index is a programming error and panics.
func (t *Table[T]) MustGet(index uint32) T {
	v, ok := t.Get(index)
	if !ok {
		panic(fmt.Errorf("invariant broken: index %d out of range (len %d)", index, t.Len()))
	}
	return v
}

// Set overwrites the row at index in place.
func (t *Table[T]) Set(index uint32, v T) bool {
	i := int(index)
	if i < t.fixed {
		t.layout.Encode(t.row(i), v)
		return true
	}
	if j := i - t.fixed; j < len(t.dynamic) {
		t.dynamic[j] = v
		return true
	}
	return false
}

// Update applies fn to the row at index and stores the result.
func (t *Table[T]) Update(index uint32, fn func(*T)) bool {
	v, ok := t.Get(index)
	if !ok {
		return false
	}
	fn(&v)
	return t.Set(index, v)
}

// Contains reports whether index addresses a row.
func (t *Table[T]) Contains(index uint32) bool {
	return uint64(index) < uint64(t.Len())
}

// ContainsRange reports whether every index in [start, start+count) is
// addressable.  An empty range is contained if start is at most Len.
func (t *Table[T]) ContainsRange(start, count uint32) bool {
	end := uint64(start) + uint64(count)
	return end <= uint64(t.Len())
}

// Push appends v to the dynamic overlay and returns its index.
func (t *Table[T]) Push(v T) uint32 {
	index := t.Len()
	if index >= math.MaxUint32 {
		panic("invariant broken: table index space exhausted")
	}
	t.dynamic = append(t.dynamic, v)
	return uint32(index)
}

// Len is the total number of rows.
func (t *Table[T]) Len() int {
	return t.fixed + len(t.dynamic)
}

// FixedLen is the number of rows backed by the arena.
func (t *Table[T]) FixedLen() int {
	return t.fixed
}

// DynamicLen is the number of rows pushed since the last compaction.
func (t *Table[T]) DynamicLen() int {
	return len(t.dynamic)
}

// RowSize is the encoded size of a single row.
func (t *Table[T]) RowSize() int {
	return t.layout.Size
}

// FixedByteLen is the size of the fixed region in bytes.
func (t *Table[T]) FixedByteLen() int {
	return t.fixed * t.layout.Size
}

// ByteLen is the size of the table once flattened.
func (t *Table[T]) ByteLen() int {
	return t.Len() * t.layout.Size
}

// Serialize writes fixed rows followed by dynamic rows into dst.
func (t *Table[T]) Serialize(dst []byte) {
	n := copy(dst, t.arena.slice(t.off, t.FixedByteLen()))
	for _, v := range t.dynamic {
		t.layout.Encode(dst[n:n+t.layout.Size], v)
		n += t.layout.Size
	}
}

// Rebase folds the dynamic rows into the fixed region now living at off.
func (t *Table[T]) Rebase(off int) {
	t.off = off
	t.fixed = t.Len()
	t.dynamic = nil
}

// Iter returns an iterator over every row, fixed rows first.  Call Iter
// again to start over.
func (t *Table[T]) Iter() *Iter[T] {
	return &Iter[T]{t: t}
}

// Iter walks a table in index order.
type Iter[T any] struct {
	t    *Table[T]
	next uint32
}

// Next returns the next row and its index, or false once every row has
// been visited.
func (it *Iter[T]) Next() (uint32, T, bool) {
	v, ok := it.t.Get(it.next)
	if !ok {
		var zero T
		return 0, zero, false
	}
	index := it.next
	it.next++
	return index, v, true
}
