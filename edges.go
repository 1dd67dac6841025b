// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"github.com/bpowers/arcdb/hash40"
	"github.com/bpowers/arcdb/internal/table"
)

// Edge is a relative reference from a row of type S to a row of type T:
// an index stored in S that addresses T's table.
type Edge[S, T Row] struct {
	name   string
	target func(*Database) *table.Table[T]
	index  func(*Database, S) (uint32, bool)
}

// Name describes the edge, e.g. "FilePath.entity".
func (e Edge[S, T]) Name() string { return e.name }

// Span is a relative reference from a row of type S to a contiguous run of
// rows of type T.
type Span[S, T Row] struct {
	name   string
	target func(*Database) *table.Table[T]
	bounds func(S) (start, count uint32)
}

// Name describes the span.
func (s Span[S, T]) Name() string { return s.name }

// Follow resolves e from the row r refers to.  It reports false if the
// stored index does not address a row.
func Follow[S, T Row](r Ref[S], e Edge[S, T]) (Ref[T], bool) {
	index, ok := e.index(r.db, r.Row())
	if !ok {
		return Ref[T]{}, false
	}
	return newRef(r.db, e.target(r.db), index)
}

// FollowMut resolves e from the row m refers to and returns a write
// reference to the target.  m is revoked whether or not the target
// exists.
func FollowMut[S, T Row](m Mut[S], e Edge[S, T]) (Mut[T], bool) {
	row := m.Row()
	db := m.db
	index, ok := e.index(db, row)
	if !ok {
		db.claim()
		return Mut[T]{}, false
	}
	t := e.target(db)
	if !t.Contains(index) {
		db.claim()
		return Mut[T]{}, false
	}
	return newMut(db, t, index)
}

// FollowSlice resolves sp from the row r refers to.  It reports false
// unless every row of the span exists.
func FollowSlice[S, T Row](r Ref[S], sp Span[S, T]) (Slice[T], bool) {
	start, count := sp.bounds(r.Row())
	return newSlice(r.db, sp.target(r.db), start, count)
}

func direct[S Row](fn func(S) uint32) func(*Database, S) (uint32, bool) {
	return func(_ *Database, s S) (uint32, bool) {
		return fn(s), true
	}
}

// throughLink resolves a link index to the path it points at.
func throughLink(db *Database, link uint32) (uint32, bool) {
	if link == hash40.NoData {
		return 0, false
	}
	l, ok := db.search.pathLink.Get(link)
	if !ok || !l.Valid() {
		return 0, false
	}
	return uint32(l), true
}

func filePaths(db *Database) *table.Table[FilePath] {
	return db.res.filePath
}

func fileEntities(db *Database) *table.Table[FileEntity] {
	return db.res.fileEntity
}

func fileInfos(db *Database) *table.Table[FileInfo] {
	return db.res.fileInfo
}

func fileDescs(db *Database) *table.Table[FileDescriptor] {
	return db.res.fileDesc
}

func fileDatas(db *Database) *table.Table[FileData] {
	return db.res.fileData
}

func fileGroups(db *Database) *table.Table[FileGroup] {
	return db.res.fileGroup
}

func packageChildren(db *Database) *table.Table[FilePackageChild] {
	return db.res.packageChild
}

func streamPaths(db *Database) *table.Table[StreamPath] {
	return db.res.streamPath
}

func streamEntities(db *Database) *table.Table[StreamEntity] {
	return db.res.streamEntity
}

func streamDatas(db *Database) *table.Table[StreamData] {
	return db.res.streamData
}

func searchPaths(db *Database) *table.Table[SearchPath] {
	return db.search.path
}

// Edges and spans between the tables.  Search edges that go through the
// link table resolve to the linked path and are absent for invalid links.
var (
	FilePathEntity = Edge[FilePath, FileEntity]{
		name:   "FilePath.entity",
		target: fileEntities,
		index:  direct(FilePath.Entity),
	}
	FileEntityInfo = Edge[FileEntity, FileInfo]{
		name:   "FileEntity.info",
		target: fileInfos,
		index:  direct(func(e FileEntity) uint32 { return e.Info }),
	}
	FileInfoPath = Edge[FileInfo, FilePath]{
		name:   "FileInfo.path",
		target: filePaths,
		index:  direct(func(i FileInfo) uint32 { return i.Path }),
	}
	FileInfoEntity = Edge[FileInfo, FileEntity]{
		name:   "FileInfo.entity",
		target: fileEntities,
		index:  direct(func(i FileInfo) uint32 { return i.Entity }),
	}
	FileInfoDesc = Edge[FileInfo, FileDescriptor]{
		name:   "FileInfo.desc",
		target: fileDescs,
		index:  direct(func(i FileInfo) uint32 { return i.Desc }),
	}
	FileDescData = Edge[FileDescriptor, FileData]{
		name:   "FileDescriptor.data",
		target: fileDatas,
		index:  direct(func(d FileDescriptor) uint32 { return d.FileData }),
	}
	FileDescGroup = Edge[FileDescriptor, FileGroup]{
		name:   "FileDescriptor.group",
		target: fileGroups,
		index:  direct(func(d FileDescriptor) uint32 { return d.Group }),
	}
	FilePackageGroup = Edge[FilePackage, FileGroup]{
		name:   "FilePackage.group",
		target: fileGroups,
		index:  direct(FilePackage.Group),
	}
	StreamPathEntity = Edge[StreamPath, StreamEntity]{
		name:   "StreamPath.entity",
		target: streamEntities,
		index:  direct(func(p StreamPath) uint32 { return p.PathAndEntity.Data() }),
	}
	StreamEntityData = Edge[StreamEntity, StreamData]{
		name:   "StreamEntity.data",
		target: streamDatas,
		index:  direct(func(e StreamEntity) uint32 { return e.StreamData }),
	}
	SearchLinkPath = Edge[SearchPathLink, SearchPath]{
		name:   "SearchPathLink.path",
		target: searchPaths,
		index: func(_ *Database, l SearchPathLink) (uint32, bool) {
			return uint32(l), l.Valid()
		},
	}
	SearchFolderFirstChild = Edge[SearchFolder, SearchPath]{
		name:   "SearchFolder.firstChild",
		target: searchPaths,
		index: func(db *Database, f SearchFolder) (uint32, bool) {
			return throughLink(db, f.FirstChild)
		},
	}
	SearchPathNext = Edge[SearchPath, SearchPath]{
		name:   "SearchPath.next",
		target: searchPaths,
		index: func(db *Database, p SearchPath) (uint32, bool) {
			return throughLink(db, p.PathAndNext.Data())
		},
	}

	FilePackageInfos = Span[FilePackage, FileInfo]{
		name:   "FilePackage.infos",
		target: fileInfos,
		bounds: func(p FilePackage) (uint32, uint32) { return p.InfoStart, p.InfoCount },
	}
	FilePackageSubPackages = Span[FilePackage, FilePackageChild]{
		name:   "FilePackage.children",
		target: packageChildren,
		bounds: func(p FilePackage) (uint32, uint32) { return p.ChildStart, p.ChildCount },
	}
	FileGroupInfos = Span[FileGroup, FileInfo]{
		name:   "FileGroup.infos",
		target: fileInfos,
		bounds: func(g FileGroup) (uint32, uint32) { return g.ChildStart, g.ChildCount },
	}
	StreamFolderPaths = Span[StreamFolder, StreamPath]{
		name:   "StreamFolder.paths",
		target: streamPaths,
		bounds: func(f StreamFolder) (uint32, uint32) {
			return f.ChildStart, f.NameAndChildCount.Data()
		},
	}
)
