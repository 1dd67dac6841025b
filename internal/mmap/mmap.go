// Copyright 2021 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap maps files into memory.  Mappings are either read-only or
// private copy-on-write: writes through a private mapping are never
// carried back to the file.
package mmap

import (
	"errors"
	"fmt"
	"os"
)

// ErrClosed is returned when using a mapping after Close.
var ErrClosed = errors.New("mmap: closed")

// Mode selects how a file is mapped.
type Mode int

const (
	// ReadOnly maps the file shared and read-only.
	ReadOnly Mode = iota
	// CopyOnWrite maps the file privately and writable.
	CopyOnWrite
)

// Map is a memory mapped file.
type Map struct {
	data   []byte
	mapped bool
	closed bool
}

// Open maps the whole of the file at path.
func Open(path string, mode Mode) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := fi.Size()
	if size == 0 {
		return &Map{}, nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("mmap: file %s too large (%d bytes)", path, size)
	}

	data, mapped, err := mapFile(f, int(size), mode)
	if err != nil {
		return nil, fmt.Errorf("mmap(%s): %w", path, err)
	}
	return &Map{data: data, mapped: mapped}, nil
}

// Data returns the mapped bytes.  The slice is invalid after Close.
func (m *Map) Data() []byte {
	return m.data
}

// Len is the size of the mapping.
func (m *Map) Len() int {
	return len(m.data)
}

// Close unmaps the file.  Closing twice returns ErrClosed.
func (m *Map) Close() error {
	if m.closed {
		return ErrClosed
	}
	m.closed = true
	data := m.data
	m.data = nil
	if !m.mapped {
		return nil
	}
	return unmap(data)
}
