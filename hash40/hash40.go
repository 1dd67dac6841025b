// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package hash40 implements the 40-bit path hashes used as keys throughout
// the archive, along with the two 8-byte on-disk encodings of them.
package hash40

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/bpowers/arcdb/internal/unsafestring"
)

const (
	// DataMask is the largest value that fits in the 24-bit payload of a
	// HashWithData.
	DataMask = 0x00FFFFFF

	// NoData is the payload used by the format to mean "no reference".
	NoData = DataMask

	// EncodedSize is the on-disk size of both Hash and HashWithData.
	EncodedSize = 8

	dataReadMask  = 0xFFFFFF00
	dataWriteMask = 0x00FFFFFF
	lenMask       = 0xFF
)

// Hash40 is a CRC32 of a string combined with the string's length in the
// low byte of the upper 32 bits: raw = len<<32 | crc.
type Hash40 uint64

// New hashes s.  Strings longer than 255 bytes have their length truncated
// to 8 bits, matching the format.
func New(s string) Hash40 {
	return FromParts(crc32.ChecksumIEEE(unsafestring.ToBytes(s)), uint8(len(s)))
}

// FromParts builds a Hash40 from a CRC and a length.
func FromParts(crc uint32, length uint8) Hash40 {
	return Hash40(uint64(length)<<32 | uint64(crc))
}

// FromRaw wraps a raw 40-bit value.  Bits above 40 are discarded.
func FromRaw(raw uint64) Hash40 {
	return Hash40(raw & 0xFF_FFFF_FFFF)
}

// Raw returns the 40-bit integer form of h, used for ordering and bucketing.
func (h Hash40) Raw() uint64 {
	return uint64(h)
}

// CRC returns the CRC32 half of h.
func (h Hash40) CRC() uint32 {
	return uint32(h)
}

// Len returns the length half of h.
func (h Hash40) Len() uint8 {
	return uint8(h >> 32)
}

// With returns the hash of the string h was computed from with s appended.
func (h Hash40) With(s string) Hash40 {
	crc := crc32.Update(h.CRC(), crc32.IEEETable, unsafestring.ToBytes(s))
	return FromParts(crc, h.Len()+uint8(len(s)))
}

func (h Hash40) String() string {
	return fmt.Sprintf("0x%010x", uint64(h))
}

// Hash is the 8-byte on-disk form of a Hash40: a CRC32 followed by a 32-bit
// length field.  Only the low byte of Len is meaningful, but the full word
// is kept so rows round-trip byte-for-byte.
type Hash struct {
	CRC uint32
	Len uint32
}

// HashOf returns the on-disk form of h.
func HashOf(h Hash40) Hash {
	return Hash{CRC: h.CRC(), Len: uint32(h.Len())}
}

// Hash40 returns the hash this record encodes.
func (h Hash) Hash40() Hash40 {
	return FromParts(h.CRC, uint8(h.Len&lenMask))
}

// ReadHash decodes a Hash from the first 8 bytes of b.
func ReadHash(b []byte) Hash {
	_ = b[EncodedSize-1]
	return Hash{
		CRC: binary.LittleEndian.Uint32(b[0:4]),
		Len: binary.LittleEndian.Uint32(b[4:8]),
	}
}

// Put encodes h into the first 8 bytes of b.
func (h Hash) Put(b []byte) {
	_ = b[EncodedSize-1]
	binary.LittleEndian.PutUint32(b[0:4], h.CRC)
	binary.LittleEndian.PutUint32(b[4:8], h.Len)
}

// HashWithData packs a Hash40 together with a 24-bit payload: a CRC32,
// then a word holding the 8-bit length in its low byte and the payload in
// bits 8-31.
type HashWithData struct {
	CRC        uint32
	LenAndData uint32
}

// NewWithData packs h and data.  Bits of data above 24 are dropped.
func NewWithData(h Hash40, data uint32) HashWithData {
	return HashWithData{
		CRC:        h.CRC(),
		LenAndData: uint32(h.Len()) | (data&dataWriteMask)<<8,
	}
}

// Hash40 returns the hash half of the record.
func (h HashWithData) Hash40() Hash40 {
	return FromParts(h.CRC, uint8(h.LenAndData&lenMask))
}

// Data returns the 24-bit payload.
func (h HashWithData) Data() uint32 {
	return (h.LenAndData & dataReadMask) >> 8
}

// SetData replaces the payload, leaving the hash intact.
func (h *HashWithData) SetData(data uint32) {
	h.LenAndData = (h.LenAndData & lenMask) | (data&dataWriteMask)<<8
}

// SetHash40 replaces the hash, leaving the payload intact.
func (h *HashWithData) SetHash40(hash Hash40) {
	h.CRC = hash.CRC()
	h.LenAndData = (h.LenAndData & dataReadMask) | uint32(hash.Len())
}

// ReadHashWithData decodes a HashWithData from the first 8 bytes of b.
func ReadHashWithData(b []byte) HashWithData {
	_ = b[EncodedSize-1]
	return HashWithData{
		CRC:        binary.LittleEndian.Uint32(b[0:4]),
		LenAndData: binary.LittleEndian.Uint32(b[4:8]),
	}
}

// Put encodes h into the first 8 bytes of b.
func (h HashWithData) Put(b []byte) {
	_ = b[EncodedSize-1]
	binary.LittleEndian.PutUint32(b[0:4], h.CRC)
	binary.LittleEndian.PutUint32(b[4:8], h.LenAndData)
}

func (h HashWithData) String() string {
	return fmt.Sprintf("%s:%#x", h.Hash40(), h.Data())
}
