// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"fmt"
	"math"

	"github.com/bpowers/arcdb/hash40"
	"github.com/bpowers/arcdb/internal/table"
)

// resourceSection is the parsed resource section.  Every table and lookup
// is a view into arena; the order of fields below is the on-disk order.
type resourceSection struct {
	arena  *table.Arena
	header ResourceHeader

	streamFolder     *table.Table[StreamFolder]
	streamPathLookup *table.SortedLookup
	streamPath       *table.Table[StreamPath]
	streamEntity     *table.Table[StreamEntity]
	streamData       *table.Table[StreamData]
	filePathLookup   *table.BucketedLookup
	filePath         *table.Table[FilePath]
	fileEntity       *table.Table[FileEntity]
	packageLookup    *table.SortedLookup
	filePackage      *table.Table[FilePackage]
	fileGroup        *table.Table[FileGroup]
	packageChild     *table.Table[FilePackageChild]
	fileInfo         *table.Table[FileInfo]
	fileDesc         *table.Table[FileDescriptor]
	fileData         *table.Table[FileData]
}

func count(n uint64) (int, error) {
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("row count %d out of range: %w", n, ErrCorrupt)
	}
	return int(n), nil
}

// parseResource carves every table out of buf.  buf is owned by the
// section from here on and is written through by mutations.
func parseResource(buf []byte) (*resourceSection, error) {
	r := &resourceSection{}
	if err := r.header.UnmarshalBytes(buf); err != nil {
		return nil, err
	}
	h := &r.header
	if int64(h.ResourceDataSize) > int64(len(buf)) {
		return nil, fmt.Errorf("resource data size %d beyond buffer (%d): %w", h.ResourceDataSize, len(buf), ErrTruncated)
	}
	r.arena = table.NewArena(buf[:h.ResourceDataSize])
	c := table.NewCursor(r.arena, resourceHeaderSize)

	var err error
	carve := func(name string, n uint64, fn func(int) error) {
		if err != nil {
			return
		}
		var rows int
		if rows, err = count(n); err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			return
		}
		if err = fn(rows); err != nil {
			err = fmt.Errorf("%s (at %#x, %d rows): %w", name, c.Offset(), rows, err)
		}
	}

	carve("stream folder", uint64(h.StreamFolderCount), func(n int) (err error) {
		r.streamFolder, err = table.Carve(c, n, streamFolderLayout)
		return
	})
	carve("stream path lookup", uint64(h.StreamPathCount), func(n int) (err error) {
		r.streamPathLookup, err = table.CarveSorted(c, n)
		return
	})
	carve("stream path", uint64(h.StreamPathCount), func(n int) (err error) {
		r.streamPath, err = table.Carve(c, n, streamPathLayout)
		return
	})
	carve("stream entity", uint64(h.StreamEntityCount), func(n int) (err error) {
		r.streamEntity, err = table.Carve(c, n, streamEntityLayout)
		return
	})
	carve("stream data", uint64(h.StreamDataCount), func(n int) (err error) {
		r.streamData, err = table.Carve(c, n, streamDataLayout)
		return
	})
	carve("file path lookup", 0, func(int) (err error) {
		r.filePathLookup, err = table.CarveBucketed(c)
		return
	})
	carve("file path", uint64(h.FilePathCount), func(n int) (err error) {
		r.filePath, err = table.Carve(c, n, filePathLayout)
		return
	})
	carve("file entity", uint64(h.FileEntityCount), func(n int) (err error) {
		r.fileEntity, err = table.Carve(c, n, fileEntityLayout)
		return
	})
	carve("file package lookup", uint64(h.FilePackageCount), func(n int) (err error) {
		r.packageLookup, err = table.CarveSorted(c, n)
		return
	})
	carve("file package", uint64(h.FilePackageCount), func(n int) (err error) {
		r.filePackage, err = table.Carve(c, n, filePackageLayout)
		return
	})
	carve("file group", h.FileGroupCount(), func(n int) (err error) {
		r.fileGroup, err = table.Carve(c, n, fileGroupLayout)
		return
	})
	carve("file package child", uint64(h.FilePackageChildCount), func(n int) (err error) {
		r.packageChild, err = table.Carve(c, n, filePackageChildLayout)
		return
	})
	carve("file info", h.FileInfoCount(), func(n int) (err error) {
		r.fileInfo, err = table.Carve(c, n, fileInfoLayout)
		return
	})
	carve("file descriptor", h.FileDescCount(), func(n int) (err error) {
		r.fileDesc, err = table.Carve(c, n, fileDescriptorLayout)
		return
	})
	carve("file data", h.FileDataCount(), func(n int) (err error) {
		r.fileData, err = table.Carve(c, n, fileDataLayout)
		return
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// newResource returns an empty resource section whose file path lookup
// has bucketCount buckets.
func newResource(bucketCount uint32) *resourceSection {
	arena := table.NewArena(nil)
	r := &resourceSection{
		arena: arena,
		header: ResourceHeader{
			ResourceDataSize: resourceHeaderSize,
			LocaleCount:      LocaleCount,
			RegionCount:      RegionCount,
		},
	}
	empty := func(err error) {
		if err != nil {
			panic(fmt.Errorf("invariant broken: empty table: %w", err))
		}
	}
	var err error
	r.streamFolder, err = table.New(arena, 0, 0, streamFolderLayout)
	empty(err)
	r.streamPathLookup, err = table.NewSorted(arena, 0, 0)
	empty(err)
	r.streamPath, err = table.New(arena, 0, 0, streamPathLayout)
	empty(err)
	r.streamEntity, err = table.New(arena, 0, 0, streamEntityLayout)
	empty(err)
	r.streamData, err = table.New(arena, 0, 0, streamDataLayout)
	empty(err)
	r.filePathLookup = table.NewBucketed(arena, bucketCount)
	r.filePath, err = table.New(arena, 0, 0, filePathLayout)
	empty(err)
	r.fileEntity, err = table.New(arena, 0, 0, fileEntityLayout)
	empty(err)
	r.packageLookup, err = table.NewSorted(arena, 0, 0)
	empty(err)
	r.filePackage, err = table.New(arena, 0, 0, filePackageLayout)
	empty(err)
	r.fileGroup, err = table.New(arena, 0, 0, fileGroupLayout)
	empty(err)
	r.packageChild, err = table.New(arena, 0, 0, filePackageChildLayout)
	empty(err)
	r.fileInfo, err = table.New(arena, 0, 0, fileInfoLayout)
	empty(err)
	r.fileDesc, err = table.New(arena, 0, 0, fileDescriptorLayout)
	empty(err)
	r.fileData, err = table.New(arena, 0, 0, fileDataLayout)
	empty(err)

	// the header has to be in the arena for Bytes to work before the
	// first compaction
	r.compact()
	return r
}

func (r *resourceSection) setLabeler(l hash40.Labeler) {
	r.streamPathLookup.SetLabeler(l)
	r.filePathLookup.SetLabeler(l)
	r.packageLookup.SetLabeler(l)
}

func (r *resourceSection) sections() []table.Section {
	return []table.Section{
		r.streamFolder,
		r.streamPathLookup,
		r.streamPath,
		r.streamEntity,
		r.streamData,
		r.filePathLookup,
		r.filePath,
		r.fileEntity,
		r.packageLookup,
		r.filePackage,
		r.fileGroup,
		r.packageChild,
		r.fileInfo,
		r.fileDesc,
		r.fileData,
	}
}

func (r *resourceSection) dirty() bool {
	for _, s := range []interface{ DynamicLen() int }{
		r.streamFolder, r.streamPathLookup, r.streamPath, r.streamEntity, r.streamData,
		r.filePathLookup, r.filePath, r.fileEntity, r.packageLookup, r.filePackage,
		r.fileGroup, r.packageChild, r.fileInfo, r.fileDesc, r.fileData,
	} {
		if s.DynamicLen() > 0 {
			return true
		}
	}
	return false
}

// check verifies that every lookup that shares a header count with a table
// still has the same length as it.
func (r *resourceSection) check() error {
	if a, b := r.streamPathLookup.Len(), r.streamPath.Len(); a != b {
		return fmt.Errorf("stream path lookup has %d keys, table has %d rows: %w", a, b, ErrInconsistent)
	}
	if a, b := r.packageLookup.Len(), r.filePackage.Len(); a != b {
		return fmt.Errorf("file package lookup has %d keys, table has %d rows: %w", a, b, ErrInconsistent)
	}
	total := resourceHeaderSize
	for _, s := range r.sections() {
		total += s.ByteLen()
	}
	if uint64(total) > math.MaxUint32 {
		return fmt.Errorf("resource section would be %d bytes: %w", total, ErrInconsistent)
	}
	return nil
}

// compact flattens every table into a fresh buffer and rewrites the
// header counts to match.  Sub-counts the database cannot attribute
// (versioned and group-owned rows) are kept; new rows are counted as
// package-owned.
func (r *resourceSection) compact() []byte {
	buf := table.Compact(r.arena, resourceHeaderSize, r.sections()...)

	h := &r.header
	h.ResourceDataSize = uint32(len(buf))
	h.StreamFolderCount = uint32(r.streamFolder.Len())
	h.StreamPathCount = uint32(r.streamPath.Len())
	h.StreamEntityCount = uint32(r.streamEntity.Len())
	h.StreamDataCount = uint32(r.streamData.Len())
	h.FilePathCount = uint32(r.filePath.Len())
	h.FileEntityCount = uint32(r.fileEntity.Len())
	h.FilePackageCount = uint32(r.filePackage.Len())
	h.FilePackageChildCount = uint32(r.packageChild.Len())
	h.FileDataGroupCount = uint32(r.fileGroup.Len()) - h.VersionedFileGroupCount - h.FileInfoGroupCount
	h.FilePackageInfoCount = uint32(r.fileInfo.Len()) - h.VersionedFileInfoCount - h.FileGroupInfoCount
	h.FilePackageDescCount = uint32(r.fileDesc.Len()) - h.VersionedFileDescCount - h.FileGroupInfoCount
	h.FilePackageDataCount = uint32(r.fileData.Len()) - h.VersionedFileDataCount - h.FileGroupInfoCount
	h.MarshalTo(buf)
	return buf
}

func (r *resourceSection) bytes() []byte {
	return r.arena.Bytes()
}
