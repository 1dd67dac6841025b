// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"encoding/binary"
	"path"
	"strings"

	"github.com/bpowers/arcdb/hash40"
	"github.com/bpowers/arcdb/internal/table"
)

// Row is the set of record types stored in the database's tables.
type Row interface {
	FileData | FileDescriptor | FileInfo | FileEntity | FilePath |
		FilePackage | FilePackageChild | FileGroup |
		StreamData | StreamEntity | StreamFolder | StreamPath |
		SearchFolder | SearchPath | SearchPathLink
}

// FileFlags describe how a file's bytes are stored.
type FileFlags uint32

const (
	FileZstd                   FileFlags = 1 << 0
	FileCompressed             FileFlags = 1 << 1
	FileRegionalVersionedData  FileFlags = 1 << 2
	FileLocalizedVersionedData FileFlags = 1 << 3
)

// FileInfoFlags describe a file's role within its package or group.
type FileInfoFlags uint32

const (
	InfoRegularFile     FileInfoFlags = 1 << 4
	InfoGraphicsArchive FileInfoFlags = 1 << 12
	InfoLocalized       FileInfoFlags = 1 << 15
	InfoRegional        FileInfoFlags = 1 << 16
	InfoShared          FileInfoFlags = 1 << 20
	InfoUnknown         FileInfoFlags = 1 << 21
	InfoGroupFixed      FileInfoFlags = 1 << 30
	InfoReshared        FileInfoFlags = 1 << 31
)

// FilePackageFlags describe a package.
type FilePackageFlags uint32

const (
	PackageLocalized         FilePackageFlags = 1 << 24
	PackageRegional          FilePackageFlags = 1 << 25
	PackageHasSubPackage     FilePackageFlags = 1 << 26
	PackageSymlinkIsRegional FilePackageFlags = 1 << 27
	PackageSymlink           FilePackageFlags = 1 << 28
)

// StreamFileFlags describe a stream file.
type StreamFileFlags uint32

const (
	StreamLocalized StreamFileFlags = 1 << 0
	StreamRegional  StreamFileFlags = 1 << 1
)

func u32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func putU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

func hwd(b []byte, off int) hash40.HashWithData {
	return hash40.ReadHashWithData(b[off:])
}

func hash(b []byte, off int) hash40.Hash {
	return hash40.ReadHash(b[off:])
}

// FileData locates a file's bytes within its group.
type FileData struct {
	InGroupOffset    uint32
	CompressedSize   uint32
	DecompressedSize uint32
	Flags            FileFlags
}

// IsCompressed reports whether the file is stored compressed.
func (d FileData) IsCompressed() bool {
	return d.Flags&FileCompressed != 0
}

var fileDataLayout = table.Layout[FileData]{
	Size: 16,
	Decode: func(b []byte) FileData {
		return FileData{
			InGroupOffset:    u32(b, 0),
			CompressedSize:   u32(b, 4),
			DecompressedSize: u32(b, 8),
			Flags:            FileFlags(u32(b, 12)),
		}
	},
	Encode: func(b []byte, v FileData) {
		putU32(b, 0, v.InGroupOffset)
		putU32(b, 4, v.CompressedSize)
		putU32(b, 8, v.DecompressedSize)
		putU32(b, 12, uint32(v.Flags))
	},
}

// FileDescriptor ties a file to its group and data record and says how
// the loader resolves it.
type FileDescriptor struct {
	Group      uint32
	FileData   uint32
	LoadMethod LoadMethod
}

var fileDescriptorLayout = table.Layout[FileDescriptor]{
	Size: 12,
	Decode: func(b []byte) FileDescriptor {
		return FileDescriptor{
			Group:      u32(b, 0),
			FileData:   u32(b, 4),
			LoadMethod: LoadMethodFromRaw(u32(b, 8)),
		}
	},
	Encode: func(b []byte, v FileDescriptor) {
		putU32(b, 0, v.Group)
		putU32(b, 4, v.FileData)
		putU32(b, 8, v.LoadMethod.Raw())
	},
}

// FileInfo is a file's membership in a package or group.
type FileInfo struct {
	Path   uint32
	Entity uint32
	Desc   uint32
	Flags  FileInfoFlags
}

// IsReshared reports whether the path this info points at belongs to
// another package.
func (i FileInfo) IsReshared() bool {
	return i.Flags&InfoReshared != 0
}

var fileInfoLayout = table.Layout[FileInfo]{
	Size: 16,
	Decode: func(b []byte) FileInfo {
		return FileInfo{
			Path:   u32(b, 0),
			Entity: u32(b, 4),
			Desc:   u32(b, 8),
			Flags:  FileInfoFlags(u32(b, 12)),
		}
	},
	Encode: func(b []byte, v FileInfo) {
		putU32(b, 0, v.Path)
		putU32(b, 4, v.Entity)
		putU32(b, 8, v.Desc)
		putU32(b, 12, uint32(v.Flags))
	},
}

// FileEntity is the shared identity of a file that may appear in several
// packages.
type FileEntity struct {
	PackageOrGroup uint32
	Info           uint32
}

var fileEntityLayout = table.Layout[FileEntity]{
	Size: 8,
	Decode: func(b []byte) FileEntity {
		return FileEntity{PackageOrGroup: u32(b, 0), Info: u32(b, 4)}
	},
	Encode: func(b []byte, v FileEntity) {
		putU32(b, 0, v.PackageOrGroup)
		putU32(b, 4, v.Info)
	},
}

// FilePath names a file.  The payload of PathAndEntity is the index of
// the file's entity.
type FilePath struct {
	PathAndEntity hash40.HashWithData
	ExtAndVersion hash40.HashWithData
	Parent        hash40.Hash
	FileName      hash40.Hash
}

// NewFilePath builds a path record for p, with hashes for its parent
// directory (including the trailing slash), file name and extension.  The
// entity is left unset.
func NewFilePath(p string) FilePath {
	parent, name := path.Split(p)
	if parent == "" {
		parent = "/"
	} else if !strings.HasSuffix(parent, "/") {
		parent += "/"
	}
	var nameHash, extHash hash40.Hash40
	if name != "" {
		nameHash = hash40.New(name)
	}
	if ext := path.Ext(name); ext != "" {
		extHash = hash40.New(ext[1:])
	}
	return NewFilePathFromParts(hash40.New(p), hash40.New(parent), nameHash, extHash, hash40.NoData)
}

// NewFilePathFromParts builds a path record from precomputed hashes.
func NewFilePathFromParts(p, parent, name, ext hash40.Hash40, entity uint32) FilePath {
	return FilePath{
		PathAndEntity: hash40.NewWithData(p, entity),
		ExtAndVersion: hash40.NewWithData(ext, hash40.NoData),
		Parent:        hash40.HashOf(parent),
		FileName:      hash40.HashOf(name),
	}
}

// Path is the hash of the full path.
func (p FilePath) Path() hash40.Hash40 { return p.PathAndEntity.Hash40() }

// Entity is the index of the path's FileEntity.
func (p FilePath) Entity() uint32 { return p.PathAndEntity.Data() }

// Extension is the hash of the path's extension, without the dot.
func (p FilePath) Extension() hash40.Hash40 { return p.ExtAndVersion.Hash40() }

var filePathLayout = table.Layout[FilePath]{
	Size: 32,
	Decode: func(b []byte) FilePath {
		return FilePath{
			PathAndEntity: hwd(b, 0),
			ExtAndVersion: hwd(b, 8),
			Parent:        hash(b, 16),
			FileName:      hash(b, 24),
		}
	},
	Encode: func(b []byte, v FilePath) {
		v.PathAndEntity.Put(b[0:])
		v.ExtAndVersion.Put(b[8:])
		v.Parent.Put(b[16:])
		v.FileName.Put(b[24:])
	},
}

// FilePackage is a directory-like unit of files loaded together.  The
// payload of PathAndGroup is the index of its data group.
type FilePackage struct {
	PathAndGroup hash40.HashWithData
	Name         hash40.Hash
	Parent       hash40.Hash
	Lifetime     hash40.Hash
	InfoStart    uint32
	InfoCount    uint32
	ChildStart   uint32
	ChildCount   uint32
	Flags        FilePackageFlags
}

// Path is the hash of the package path.
func (p FilePackage) Path() hash40.Hash40 { return p.PathAndGroup.Hash40() }

// Group is the index of the package's data group.
func (p FilePackage) Group() uint32 { return p.PathAndGroup.Data() }

var filePackageLayout = table.Layout[FilePackage]{
	Size: 52,
	Decode: func(b []byte) FilePackage {
		return FilePackage{
			PathAndGroup: hwd(b, 0),
			Name:         hash(b, 8),
			Parent:       hash(b, 16),
			Lifetime:     hash(b, 24),
			InfoStart:    u32(b, 32),
			InfoCount:    u32(b, 36),
			ChildStart:   u32(b, 40),
			ChildCount:   u32(b, 44),
			Flags:        FilePackageFlags(u32(b, 48)),
		}
	},
	Encode: func(b []byte, v FilePackage) {
		v.PathAndGroup.Put(b[0:])
		v.Name.Put(b[8:])
		v.Parent.Put(b[16:])
		v.Lifetime.Put(b[24:])
		putU32(b, 32, v.InfoStart)
		putU32(b, 36, v.InfoCount)
		putU32(b, 40, v.ChildStart)
		putU32(b, 44, v.ChildCount)
		putU32(b, 48, uint32(v.Flags))
	},
}

// FilePackageChild names a sub-package.
type FilePackageChild struct {
	hash40.HashWithData
}

var filePackageChildLayout = table.Layout[FilePackageChild]{
	Size: 8,
	Decode: func(b []byte) FilePackageChild {
		return FilePackageChild{hwd(b, 0)}
	},
	Encode: func(b []byte, v FilePackageChild) {
		v.Put(b)
	},
}

// FileGroup is a contiguous compressed region of the archive holding the
// data of several files.
type FileGroup struct {
	ArchiveOffset    [2]uint32
	DecompressedSize uint32
	CompressedSize   uint32
	ChildStart       uint32
	ChildCount       uint32
	Redirection      uint32
}

// Offset joins the two halves of ArchiveOffset.
func (g FileGroup) Offset() uint64 {
	return uint64(g.ArchiveOffset[1])<<32 | uint64(g.ArchiveOffset[0])
}

var fileGroupLayout = table.Layout[FileGroup]{
	Size: 28,
	Decode: func(b []byte) FileGroup {
		return FileGroup{
			ArchiveOffset:    [2]uint32{u32(b, 0), u32(b, 4)},
			DecompressedSize: u32(b, 8),
			CompressedSize:   u32(b, 12),
			ChildStart:       u32(b, 16),
			ChildCount:       u32(b, 20),
			Redirection:      u32(b, 24),
		}
	},
	Encode: func(b []byte, v FileGroup) {
		putU32(b, 0, v.ArchiveOffset[0])
		putU32(b, 4, v.ArchiveOffset[1])
		putU32(b, 8, v.DecompressedSize)
		putU32(b, 12, v.CompressedSize)
		putU32(b, 16, v.ChildStart)
		putU32(b, 20, v.ChildCount)
		putU32(b, 24, v.Redirection)
	},
}

// StreamData locates an uncompressed stream file in the archive.
type StreamData struct {
	Size   uint64
	Offset uint64
}

var streamDataLayout = table.Layout[StreamData]{
	Size: 16,
	Decode: func(b []byte) StreamData {
		return StreamData{
			Size:   binary.LittleEndian.Uint64(b[0:8]),
			Offset: binary.LittleEndian.Uint64(b[8:16]),
		}
	},
	Encode: func(b []byte, v StreamData) {
		binary.LittleEndian.PutUint64(b[0:8], v.Size)
		binary.LittleEndian.PutUint64(b[8:16], v.Offset)
	},
}

// StreamEntity points at a stream's data record.
type StreamEntity struct {
	StreamData uint32
}

var streamEntityLayout = table.Layout[StreamEntity]{
	Size: 4,
	Decode: func(b []byte) StreamEntity {
		return StreamEntity{StreamData: u32(b, 0)}
	},
	Encode: func(b []byte, v StreamEntity) {
		putU32(b, 0, v.StreamData)
	},
}

// StreamFolder groups ChildCount consecutive stream paths.
type StreamFolder struct {
	NameAndChildCount hash40.HashWithData
	ChildStart        uint32
}

var streamFolderLayout = table.Layout[StreamFolder]{
	Size: 12,
	Decode: func(b []byte) StreamFolder {
		return StreamFolder{NameAndChildCount: hwd(b, 0), ChildStart: u32(b, 8)}
	},
	Encode: func(b []byte, v StreamFolder) {
		v.NameAndChildCount.Put(b[0:])
		putU32(b, 8, v.ChildStart)
	},
}

// StreamPath names a stream file.  The payload of PathAndEntity is the
// index of its StreamEntity.
type StreamPath struct {
	PathAndEntity hash40.HashWithData
	Flags         StreamFileFlags
}

// Path is the hash of the stream path.
func (p StreamPath) Path() hash40.Hash40 { return p.PathAndEntity.Hash40() }

var streamPathLayout = table.Layout[StreamPath]{
	Size: 12,
	Decode: func(b []byte) StreamPath {
		return StreamPath{PathAndEntity: hwd(b, 0), Flags: StreamFileFlags(u32(b, 8))}
	},
	Encode: func(b []byte, v StreamPath) {
		v.PathAndEntity.Put(b[0:])
		putU32(b, 8, uint32(v.Flags))
	},
}

// SearchFolder is a directory in the search section.  The payloads of its
// two packed hashes are its folder and file counts.
type SearchFolder struct {
	PathAndFolderCount hash40.HashWithData
	ParentAndFileCount hash40.HashWithData
	Name               hash40.Hash
	FirstChild         uint32
	Padding            uint32
}

// Path is the hash of the folder path.
func (f SearchFolder) Path() hash40.Hash40 { return f.PathAndFolderCount.Hash40() }

var searchFolderLayout = table.Layout[SearchFolder]{
	Size: 32,
	Decode: func(b []byte) SearchFolder {
		return SearchFolder{
			PathAndFolderCount: hwd(b, 0),
			ParentAndFileCount: hwd(b, 8),
			Name:               hash(b, 16),
			FirstChild:         u32(b, 24),
			Padding:            u32(b, 28),
		}
	},
	Encode: func(b []byte, v SearchFolder) {
		v.PathAndFolderCount.Put(b[0:])
		v.ParentAndFileCount.Put(b[8:])
		v.Name.Put(b[16:])
		putU32(b, 24, v.FirstChild)
		putU32(b, 28, v.Padding)
	},
}

// searchIsFolder is the payload bit of ParentAndIsFolder marking a folder.
const searchIsFolder = 0x0040_0000

// SearchPath is an entry in the search section.  The payload of
// PathAndNext is the link index of the next sibling.
type SearchPath struct {
	PathAndNext       hash40.HashWithData
	ParentAndIsFolder hash40.HashWithData
	Name              hash40.Hash
	Ext               hash40.Hash
}

// NewSearchPath builds a file entry with no next sibling.
func NewSearchPath(p, parent, name, ext hash40.Hash40) SearchPath {
	return SearchPath{
		PathAndNext:       hash40.NewWithData(p, hash40.NoData),
		ParentAndIsFolder: hash40.NewWithData(parent, 0),
		Name:              hash40.HashOf(name),
		Ext:               hash40.HashOf(ext),
	}
}

// Path is the hash of the entry's path.
func (p SearchPath) Path() hash40.Hash40 { return p.PathAndNext.Hash40() }

// IsFolder reports whether the entry is a directory.
func (p SearchPath) IsFolder() bool {
	return p.ParentAndIsFolder.Data()&searchIsFolder != 0
}

// Extension returns the extension hash of a file entry.
func (p SearchPath) Extension() (hash40.Hash40, bool) {
	if p.IsFolder() {
		return 0, false
	}
	return p.Ext.Hash40(), true
}

var searchPathLayout = table.Layout[SearchPath]{
	Size: 32,
	Decode: func(b []byte) SearchPath {
		return SearchPath{
			PathAndNext:       hwd(b, 0),
			ParentAndIsFolder: hwd(b, 8),
			Name:              hash(b, 16),
			Ext:               hash(b, 24),
		}
	},
	Encode: func(b []byte, v SearchPath) {
		v.PathAndNext.Put(b[0:])
		v.ParentAndIsFolder.Put(b[8:])
		v.Name.Put(b[16:])
		v.Ext.Put(b[24:])
	},
}

// SearchPathLink is an indirection from a lookup slot to a SearchPath.
type SearchPathLink uint32

// InvalidLink marks an unused link slot.
const InvalidLink SearchPathLink = 0xFFFF_FFFF

// Valid reports whether the link points at a path.
func (l SearchPathLink) Valid() bool { return l != InvalidLink }

var searchPathLinkLayout = table.Layout[SearchPathLink]{
	Size: 4,
	Decode: func(b []byte) SearchPathLink {
		return SearchPathLink(u32(b, 0))
	},
	Encode: func(b []byte, v SearchPathLink) {
		putU32(b, 0, uint32(v))
	},
}
