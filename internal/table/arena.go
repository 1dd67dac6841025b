// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package table contains the containers the database is assembled from:
// growable row tables and hash lookups whose "fixed" part is a view into a
// shared byte arena and whose "dynamic" part is an in-memory overlay.
package table

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrTruncated means a region extends past the end of the arena.
	ErrTruncated = errors.New("truncated buffer")
	// ErrCorrupt means a region is in bounds but its contents break a
	// format invariant (unsorted hashes, bucket ranges out of range, ...).
	ErrCorrupt = errors.New("corrupt data")
)

// Arena owns the bytes every fixed region is carved from.  Tables and
// lookups never hold a slice of the buffer, only offsets into it, so the
// buffer can be swapped out wholesale during compaction.
type Arena struct {
	buf []byte
}

// NewArena takes ownership of b.
func NewArena(b []byte) *Arena {
	return &Arena{buf: b}
}

// Bytes returns the current backing buffer.
func (a *Arena) Bytes() []byte {
	return a.buf
}

// Len returns the size of the backing buffer.
func (a *Arena) Len() int {
	return len(a.buf)
}

// Reset replaces the backing buffer.  Every view must be rebased after this.
func (a *Arena) Reset(b []byte) {
	a.buf = b
}

func (a *Arena) slice(off, n int) []byte {
	return a.buf[off : off+n]
}

// checkBounds validates that count elements of elemSize bytes starting at off
// fit in an arena of arenaLen bytes, returning the end offset.
func checkBounds(arenaLen, off, count, elemSize int) (int, error) {
	if off < 0 || count < 0 || elemSize < 0 {
		return 0, fmt.Errorf("negative region (off %d, count %d, size %d): %w", off, count, elemSize, ErrCorrupt)
	}
	if elemSize != 0 && count > math.MaxInt/elemSize {
		return 0, fmt.Errorf("overflow: count=%d * size=%d: %w", count, elemSize, ErrCorrupt)
	}
	n := count * elemSize
	if off > math.MaxInt-n {
		return 0, fmt.Errorf("overflow: off=%d + len=%d: %w", off, n, ErrCorrupt)
	}
	if off+n > arenaLen {
		return 0, fmt.Errorf("region [%d, %d) beyond end of buffer (%d): %w", off, off+n, arenaLen, ErrTruncated)
	}
	return off + n, nil
}

// Cursor walks an arena front to back while fixed regions are carved out of
// it.  There are no per-region offsets in the format, so the order regions
// are carved in is the format.
type Cursor struct {
	arena *Arena
	off   int
}

// NewCursor starts a cursor at off.
func NewCursor(a *Arena, off int) *Cursor {
	return &Cursor{arena: a, off: off}
}

// Offset returns the current position.
func (c *Cursor) Offset() int {
	return c.off
}

// Uint32 reads an inline little-endian word and advances past it.
func (c *Cursor) Uint32() (uint32, error) {
	if _, err := checkBounds(c.arena.Len(), c.off, 1, 4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.arena.slice(c.off, 4))
	c.off += 4
	return v, nil
}

// reserve validates and skips count*size bytes, returning where they start.
func (c *Cursor) reserve(count, size int) (int, error) {
	end, err := checkBounds(c.arena.Len(), c.off, count, size)
	if err != nil {
		return 0, err
	}
	start := c.off
	c.off = end
	return start, nil
}

// Section is one component of a compacted buffer.
type Section interface {
	// ByteLen is the size of the component once fixed and dynamic parts
	// are flattened.
	ByteLen() int
	// Serialize writes exactly ByteLen bytes into dst.
	Serialize(dst []byte)
	// Rebase points the component at off in the (already reset) arena and
	// empties its dynamic overlay.
	Rebase(off int)
}

// Compact lays sections out back to back after headerLen bytes of header,
// swaps the result into the arena and rebases every section.  The header is
// left zeroed for the caller to fill in.
func Compact(a *Arena, headerLen int, sections ...Section) []byte {
	offs := make([]int, len(sections))
	total := headerLen
	for i, s := range sections {
		offs[i] = total
		total += s.ByteLen()
	}

	buf := make([]byte, total)
	for i, s := range sections {
		s.Serialize(buf[offs[i] : offs[i]+s.ByteLen()])
	}

	a.Reset(buf)
	for i, s := range sections {
		s.Rebase(offs[i])
	}
	return buf
}
