// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitset marks row indices, e.g. the rows of a table reached while
// walking references.
package bitset

import (
	"math/bits"
)

// Bitset is a fixed-length set of uint32 indices.
type Bitset struct {
	words  []uint64
	length uint32
}

// New returns an empty set that can hold indices [0, length).
func New(length uint32) *Bitset {
	return &Bitset{
		words:  make([]uint64, (uint64(length)+63)/64),
		length: length,
	}
}

func offsets(i uint32) (word uint32, bit uint64) {
	return i / 64, uint64(i % 64)
}

// Len is the number of indices the set can hold.
func (b *Bitset) Len() uint32 {
	return b.length
}

// Set adds i.  Indices past the end are ignored.
func (b *Bitset) Set(i uint32) {
	if i >= b.length {
		return
	}
	w, bit := offsets(i)
	b.words[w] |= 1 << bit
}

// TestAndSet adds i and reports whether it was already present.
func (b *Bitset) TestAndSet(i uint32) bool {
	if b.IsSet(i) {
		return true
	}
	b.Set(i)
	return false
}

// Clear removes i.
func (b *Bitset) Clear(i uint32) {
	if i >= b.length {
		return
	}
	w, bit := offsets(i)
	b.words[w] &^= 1 << bit
}

// IsSet reports whether i is present.
func (b *Bitset) IsSet(i uint32) bool {
	if i >= b.length {
		return false
	}
	w, bit := offsets(i)
	return b.words[w]&(1<<bit) != 0
}

// Count is the number of indices present.
func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// NextClear returns the first absent index at or after i, or false if
// every index from i on is present.
func (b *Bitset) NextClear(i uint32) (uint32, bool) {
	for j := uint64(i); j < uint64(b.length); j++ {
		w, bit := j/64, j%64
		if bit == 0 && b.words[w] == ^uint64(0) {
			j += 63
			continue
		}
		if b.words[w]&(1<<bit) == 0 {
			return uint32(j), true
		}
	}
	return 0, false
}
