// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"encoding/binary"
	"fmt"
)

const (
	// LocaleCount and RegionCount are fixed by the format; headers that
	// declare anything else are rejected.
	LocaleCount = 14
	RegionCount = 5

	resourceHeaderSize = 272
	searchHeaderSize   = 20
)

// ResourceHeader is the fixed header of the resource section.  Padding
// bytes are kept so a header survives a round trip unchanged.
type ResourceHeader struct {
	ResourceDataSize      uint32
	FilePathCount         uint32
	FileEntityCount       uint32
	FilePackageCount      uint32
	FileDataGroupCount    uint32
	FilePackageChildCount uint32
	FilePackageInfoCount  uint32
	FilePackageDescCount  uint32
	FilePackageDataCount  uint32
	FileInfoGroupCount    uint32
	FileGroupInfoCount    uint32
	Padding1              [12]byte
	LocaleCount           uint8
	RegionCount           uint8
	Padding2              [2]byte
	VersionPatch          uint8
	VersionMinor          uint8
	VersionMajor          uint16

	VersionedFileGroupCount uint32
	VersionedFileCount      uint32
	Padding3                [4]byte
	VersionedFileInfoCount  uint32
	VersionedFileDescCount  uint32
	VersionedFileDataCount  uint32

	LocaleHashToRegion [LocaleCount][3]uint32

	StreamFolderCount uint32
	StreamPathCount   uint32
	StreamEntityCount uint32
	StreamDataCount   uint32
}

// FileGroupCount is the number of FileGroup rows: info groups, data
// groups and versioned groups.
func (h ResourceHeader) FileGroupCount() uint64 {
	return uint64(h.FileInfoGroupCount) + uint64(h.FileDataGroupCount) + uint64(h.VersionedFileGroupCount)
}

// FileInfoCount is the number of FileInfo rows.
func (h ResourceHeader) FileInfoCount() uint64 {
	return uint64(h.FilePackageInfoCount) + uint64(h.FileGroupInfoCount) + uint64(h.VersionedFileInfoCount)
}

// FileDescCount is the number of FileDescriptor rows.
func (h ResourceHeader) FileDescCount() uint64 {
	return uint64(h.FilePackageDescCount) + uint64(h.FileGroupInfoCount) + uint64(h.VersionedFileDescCount)
}

// FileDataCount is the number of FileData rows.
func (h ResourceHeader) FileDataCount() uint64 {
	return uint64(h.FilePackageDataCount) + uint64(h.FileGroupInfoCount) + uint64(h.VersionedFileDataCount)
}

// Version formats the version triple.
func (h ResourceHeader) Version() string {
	return fmt.Sprintf("%d.%d.%d", h.VersionMajor, h.VersionMinor, h.VersionPatch)
}

// UnmarshalBytes decodes and validates a header from the start of b.
func (h *ResourceHeader) UnmarshalBytes(b []byte) error {
	if len(b) < resourceHeaderSize {
		return fmt.Errorf("resource header: %d < %d bytes: %w", len(b), resourceHeaderSize, ErrTruncated)
	}
	b = b[:resourceHeaderSize]

	h.ResourceDataSize = u32(b, 0)
	h.FilePathCount = u32(b, 4)
	h.FileEntityCount = u32(b, 8)
	h.FilePackageCount = u32(b, 12)
	h.FileDataGroupCount = u32(b, 16)
	h.FilePackageChildCount = u32(b, 20)
	h.FilePackageInfoCount = u32(b, 24)
	h.FilePackageDescCount = u32(b, 28)
	h.FilePackageDataCount = u32(b, 32)
	h.FileInfoGroupCount = u32(b, 36)
	h.FileGroupInfoCount = u32(b, 40)
	copy(h.Padding1[:], b[44:56])
	h.LocaleCount = b[56]
	h.RegionCount = b[57]
	copy(h.Padding2[:], b[58:60])
	h.VersionPatch = b[60]
	h.VersionMinor = b[61]
	h.VersionMajor = binary.LittleEndian.Uint16(b[62:64])
	h.VersionedFileGroupCount = u32(b, 64)
	h.VersionedFileCount = u32(b, 68)
	copy(h.Padding3[:], b[72:76])
	h.VersionedFileInfoCount = u32(b, 76)
	h.VersionedFileDescCount = u32(b, 80)
	h.VersionedFileDataCount = u32(b, 84)
	off := 88
	for i := range h.LocaleHashToRegion {
		for j := range h.LocaleHashToRegion[i] {
			h.LocaleHashToRegion[i][j] = u32(b, off)
			off += 4
		}
	}
	h.StreamFolderCount = u32(b, 256)
	h.StreamPathCount = u32(b, 260)
	h.StreamEntityCount = u32(b, 264)
	h.StreamDataCount = u32(b, 268)

	if h.LocaleCount != LocaleCount {
		return fmt.Errorf("locale count %d (want %d): %w", h.LocaleCount, LocaleCount, ErrUnsupported)
	}
	if h.RegionCount != RegionCount {
		return fmt.Errorf("region count %d (want %d): %w", h.RegionCount, RegionCount, ErrUnsupported)
	}
	return nil
}

// MarshalTo encodes h into the first 272 bytes of b.
func (h *ResourceHeader) MarshalTo(b []byte) {
	_ = b[resourceHeaderSize-1]
	putU32(b, 0, h.ResourceDataSize)
	putU32(b, 4, h.FilePathCount)
	putU32(b, 8, h.FileEntityCount)
	putU32(b, 12, h.FilePackageCount)
	putU32(b, 16, h.FileDataGroupCount)
	putU32(b, 20, h.FilePackageChildCount)
	putU32(b, 24, h.FilePackageInfoCount)
	putU32(b, 28, h.FilePackageDescCount)
	putU32(b, 32, h.FilePackageDataCount)
	putU32(b, 36, h.FileInfoGroupCount)
	putU32(b, 40, h.FileGroupInfoCount)
	copy(b[44:56], h.Padding1[:])
	b[56] = h.LocaleCount
	b[57] = h.RegionCount
	copy(b[58:60], h.Padding2[:])
	b[60] = h.VersionPatch
	b[61] = h.VersionMinor
	binary.LittleEndian.PutUint16(b[62:64], h.VersionMajor)
	putU32(b, 64, h.VersionedFileGroupCount)
	putU32(b, 68, h.VersionedFileCount)
	copy(b[72:76], h.Padding3[:])
	putU32(b, 76, h.VersionedFileInfoCount)
	putU32(b, 80, h.VersionedFileDescCount)
	putU32(b, 84, h.VersionedFileDataCount)
	off := 88
	for i := range h.LocaleHashToRegion {
		for j := range h.LocaleHashToRegion[i] {
			putU32(b, off, h.LocaleHashToRegion[i][j])
			off += 4
		}
	}
	putU32(b, 256, h.StreamFolderCount)
	putU32(b, 260, h.StreamPathCount)
	putU32(b, 264, h.StreamEntityCount)
	putU32(b, 268, h.StreamDataCount)
}

// SearchHeader is the fixed header of the search section.
type SearchHeader struct {
	SearchDataSize uint32
	Padding        uint32
	FolderCount    uint32
	PathLinkCount  uint32
	PathCount      uint32
}

// UnmarshalBytes decodes a header from the start of b.
func (h *SearchHeader) UnmarshalBytes(b []byte) error {
	if len(b) < searchHeaderSize {
		return fmt.Errorf("search header: %d < %d bytes: %w", len(b), searchHeaderSize, ErrTruncated)
	}
	h.SearchDataSize = u32(b, 0)
	h.Padding = u32(b, 4)
	h.FolderCount = u32(b, 8)
	h.PathLinkCount = u32(b, 12)
	h.PathCount = u32(b, 16)
	return nil
}

// MarshalTo encodes h into the first 20 bytes of b.
func (h *SearchHeader) MarshalTo(b []byte) {
	_ = b[searchHeaderSize-1]
	putU32(b, 0, h.SearchDataSize)
	putU32(b, 4, h.Padding)
	putU32(b, 8, h.FolderCount)
	putU32(b, 12, h.PathLinkCount)
	putU32(b, 16, h.PathCount)
}
