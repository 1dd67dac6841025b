// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package section reads and writes the compressed table sections of an
// archive.  A section starts with a 16-byte header
//
//	dataStart        u32  offset of the compressed bytes from the section start
//	decompressedSize u32
//	compressedSize   u32
//	sectionSize      u32  total size of the section including this header
//
// followed by zstd-compressed data at dataStart.
package section

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/bpowers/arcdb/internal/table"
)

// HeaderSize is the size of a section header.
const HeaderSize = 16

var (
	// ErrTruncated means the section runs past the end of the buffer.
	ErrTruncated = table.ErrTruncated
	// ErrCorrupt means the header is inconsistent or the payload fails to
	// decompress to the advertised size.
	ErrCorrupt = table.ErrCorrupt
)

// Header describes one compressed section.
type Header struct {
	DataStart        uint32
	DecompressedSize uint32
	CompressedSize   uint32
	SectionSize      uint32
}

// UnmarshalBytes decodes a header from the start of b.
func (h *Header) UnmarshalBytes(b []byte) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("section header: %d bytes: %w", len(b), ErrTruncated)
	}
	h.DataStart = binary.LittleEndian.Uint32(b[0:4])
	h.DecompressedSize = binary.LittleEndian.Uint32(b[4:8])
	h.CompressedSize = binary.LittleEndian.Uint32(b[8:12])
	h.SectionSize = binary.LittleEndian.Uint32(b[12:16])
	return nil
}

// MarshalTo encodes h into the first HeaderSize bytes of b.
func (h Header) MarshalTo(b []byte) {
	_ = b[HeaderSize-1]
	binary.LittleEndian.PutUint32(b[0:4], h.DataStart)
	binary.LittleEndian.PutUint32(b[4:8], h.DecompressedSize)
	binary.LittleEndian.PutUint32(b[8:12], h.CompressedSize)
	binary.LittleEndian.PutUint32(b[12:16], h.SectionSize)
}

// Decompressor turns a compressed payload into exactly size bytes.
type Decompressor interface {
	Decompress(compressed []byte, size int) ([]byte, error)
}

// DecompressorFunc adapts a function to a Decompressor.
type DecompressorFunc func(compressed []byte, size int) ([]byte, error)

// Decompress calls f.
func (f DecompressorFunc) Decompress(compressed []byte, size int) ([]byte, error) {
	return f(compressed, size)
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use of their
// *All methods, so one of each serves the whole process.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("section: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("section: zstd decoder initialization failed: " + err.Error())
	}
}

// Zstd is the default Decompressor.
var Zstd Decompressor = DecompressorFunc(decompressZstd)

func decompressZstd(compressed []byte, size int) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %v: %w", err, ErrCorrupt)
	}
	if len(out) != size {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d: %w", len(out), size, ErrCorrupt)
	}
	return out, nil
}

// Read decodes the section at the start of b and returns its decompressed
// payload.
func Read(b []byte, d Decompressor) ([]byte, error) {
	var h Header
	if err := h.UnmarshalBytes(b); err != nil {
		return nil, err
	}
	if h.DataStart < HeaderSize {
		return nil, fmt.Errorf("section data starts inside header (%d): %w", h.DataStart, ErrCorrupt)
	}
	end := uint64(h.DataStart) + uint64(h.CompressedSize)
	if end > uint64(h.SectionSize) {
		return nil, fmt.Errorf("section payload [%d, %d) beyond section size %d: %w", h.DataStart, end, h.SectionSize, ErrCorrupt)
	}
	if end > uint64(len(b)) {
		return nil, fmt.Errorf("section payload [%d, %d) beyond buffer (%d): %w", h.DataStart, end, len(b), ErrTruncated)
	}
	if d == nil {
		d = Zstd
	}
	return d.Decompress(b[h.DataStart:end], int(h.DecompressedSize))
}

// Append compresses payload with zstd and appends a complete section to
// dst.
func Append(dst, payload []byte) []byte {
	compressed := zstdEncoder.EncodeAll(payload, nil)
	h := Header{
		DataStart:        HeaderSize,
		DecompressedSize: uint32(len(payload)),
		CompressedSize:   uint32(len(compressed)),
		SectionSize:      uint32(HeaderSize + len(compressed)),
	}
	var hb [HeaderSize]byte
	h.MarshalTo(hb[:])
	dst = append(dst, hb[:]...)
	return append(dst, compressed...)
}
