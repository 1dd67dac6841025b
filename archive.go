// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/bpowers/arcdb/internal/mmap"
	"github.com/bpowers/arcdb/internal/section"
)

const (
	// ArchiveMagic starts every archive.
	ArchiveMagic uint64 = 0xABCDEF9876543210

	archiveHeaderSize = 56
)

// ArchiveHeader is the fixed header at the start of an archive: the
// magic number followed by the offsets of its regions.
type ArchiveHeader struct {
	Magic              uint64
	StreamDataOffset   uint64
	FileDataOffset     uint64
	SharedFileOffset   uint64
	ResourceOffset     uint64
	SearchOffset       uint64
	UnknownTableOffset uint64
}

// UnmarshalBytes decodes the header at the start of b.
func (h *ArchiveHeader) UnmarshalBytes(b []byte) error {
	if len(b) < archiveHeaderSize {
		return fmt.Errorf("archive header: %d < %d bytes: %w", len(b), archiveHeaderSize, ErrTruncated)
	}
	h.Magic = binary.LittleEndian.Uint64(b[0:8])
	if h.Magic != ArchiveMagic {
		return fmt.Errorf("magic %#x: %w", h.Magic, ErrBadMagic)
	}
	h.StreamDataOffset = binary.LittleEndian.Uint64(b[8:16])
	h.FileDataOffset = binary.LittleEndian.Uint64(b[16:24])
	h.SharedFileOffset = binary.LittleEndian.Uint64(b[24:32])
	h.ResourceOffset = binary.LittleEndian.Uint64(b[32:40])
	h.SearchOffset = binary.LittleEndian.Uint64(b[40:48])
	h.UnknownTableOffset = binary.LittleEndian.Uint64(b[48:56])
	return nil
}

// MarshalTo encodes h into the first 56 bytes of b.
func (h *ArchiveHeader) MarshalTo(b []byte) {
	_ = b[archiveHeaderSize-1]
	binary.LittleEndian.PutUint64(b[0:8], h.Magic)
	binary.LittleEndian.PutUint64(b[8:16], h.StreamDataOffset)
	binary.LittleEndian.PutUint64(b[16:24], h.FileDataOffset)
	binary.LittleEndian.PutUint64(b[24:32], h.SharedFileOffset)
	binary.LittleEndian.PutUint64(b[32:40], h.ResourceOffset)
	binary.LittleEndian.PutUint64(b[40:48], h.SearchOffset)
	binary.LittleEndian.PutUint64(b[48:56], h.UnknownTableOffset)
}

// Archive is a database loaded from the compressed tables of an archive
// file.
type Archive struct {
	Meta ArchiveHeader
	*Database
}

func readSection(b []byte, off uint64, d section.Decompressor) ([]byte, error) {
	if off >= uint64(len(b)) {
		return nil, fmt.Errorf("section offset %#x beyond archive (%d bytes): %w", off, len(b), ErrTruncated)
	}
	return section.Read(b[off:], d)
}

// OpenArchive reads the resource and search tables out of the archive at
// path.  The file is only read: both sections are decompressed into
// memory and the mapping is released before returning.
func OpenArchive(path string, opts ...Option) (*Archive, error) {
	o := newOptions(opts)
	m, err := mmap.Open(path, mmap.ReadOnly)
	if err != nil {
		return nil, err
	}
	defer func() { _ = m.Close() }()

	a := &Archive{}
	if err := a.Meta.UnmarshalBytes(m.Data()); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	resource, err := readSection(m.Data(), a.Meta.ResourceOffset, o.decompressor)
	if err != nil {
		return nil, fmt.Errorf("%s: resource section: %w", path, err)
	}
	search, err := readSection(m.Data(), a.Meta.SearchOffset, o.decompressor)
	if err != nil {
		return nil, fmt.Errorf("%s: search section: %w", path, err)
	}
	o.logger.Debug("read archive",
		"path", path,
		"size", humanize.IBytes(uint64(m.Len())),
		"resource", humanize.IBytes(uint64(len(resource))),
		"search", humanize.IBytes(uint64(len(search))))

	if a.Database, err = OpenBlobs(resource, search, opts...); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// WriteArchive writes an archive holding only the given resource and
// search sections, zstd-compressed.  Data region offsets all point at the
// end of the header.
func WriteArchive(w io.Writer, resource, search []byte) error {
	h := ArchiveHeader{
		Magic:              ArchiveMagic,
		StreamDataOffset:   archiveHeaderSize,
		FileDataOffset:     archiveHeaderSize,
		SharedFileOffset:   archiveHeaderSize,
		UnknownTableOffset: archiveHeaderSize,
	}
	buf := make([]byte, archiveHeaderSize)
	h.ResourceOffset = uint64(len(buf))
	buf = section.Append(buf, resource)
	h.SearchOffset = uint64(len(buf))
	buf = section.Append(buf, search)
	h.MarshalTo(buf)

	if n, err := w.Write(buf); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	} else if n != len(buf) {
		return fmt.Errorf("w.Write: short write of %d (wanted %d)", n, len(buf))
	}
	return nil
}

// WriteArchive writes the database's sections as a new archive.  Rows
// added since the last Reserialize are not included.
func (db *Database) WriteArchive(w io.Writer) error {
	if db.Dirty() {
		db.logger.Warn("writing archive with rows added since the last Reserialize")
	}
	return WriteArchive(w, db.res.bytes(), db.search.bytes())
}
