// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"github.com/bpowers/arcdb/internal/table"
)

// Rows is a handle on one of the database's tables.
type Rows[T Row] struct {
	db *Database
	t  *table.Table[T]
}

func rows[T Row](db *Database, t *table.Table[T]) Rows[T] {
	return Rows[T]{db: db, t: t}
}

// Len is the number of rows, including rows added since the last
// compaction.
func (r Rows[T]) Len() int { return r.t.Len() }

// FixedLen is the number of rows backed by the parsed buffer.
func (r Rows[T]) FixedLen() int { return r.t.FixedLen() }

// DynamicLen is the number of rows added since the last compaction.
func (r Rows[T]) DynamicLen() int { return r.t.DynamicLen() }

// Contains reports whether index addresses a row.
func (r Rows[T]) Contains(index uint32) bool { return r.t.Contains(index) }

// Get returns a read reference to the row at index.
func (r Rows[T]) Get(index uint32) (Ref[T], bool) {
	return newRef(r.db, r.t, index)
}

// Mut returns a write reference to the row at index, revoking any other
// write reference.
func (r Rows[T]) Mut(index uint32) (Mut[T], bool) {
	return newMut(r.db, r.t, index)
}

// Slice returns the rows [start, start+count), or false unless all of
// them exist.
func (r Rows[T]) Slice(start, count uint32) (Slice[T], bool) {
	return newSlice(r.db, r.t, start, count)
}

// Push appends v and returns its index.
func (r Rows[T]) Push(v T) uint32 {
	return r.t.Push(v)
}

// Iter returns an iterator over every row in index order.
func (r Rows[T]) Iter() *RowIter[T] {
	return &RowIter[T]{db: r.db, t: r.t, it: r.t.Iter()}
}

// RowIter walks a table.
type RowIter[T Row] struct {
	db *Database
	t  *table.Table[T]
	it *table.Iter[T]
}

// Next returns a reference to the next row, or false at the end.
func (it *RowIter[T]) Next() (Ref[T], bool) {
	index, _, ok := it.it.Next()
	if !ok {
		return Ref[T]{}, false
	}
	return Ref[T]{db: it.db, t: it.t, index: index}, true
}

// FilePaths returns the file path table.
func (db *Database) FilePaths() Rows[FilePath] {
	return rows(db, db.res.filePath)
}

// FileEntities returns the file entity table.
func (db *Database) FileEntities() Rows[FileEntity] {
	return rows(db, db.res.fileEntity)
}

// FilePackages returns the file package table.
func (db *Database) FilePackages() Rows[FilePackage] {
	return rows(db, db.res.filePackage)
}

// FilePackageChildren returns the table of package sub-package entries.
func (db *Database) FilePackageChildren() Rows[FilePackageChild] {
	return rows(db, db.res.packageChild)
}

// FileGroups returns the file group table.
func (db *Database) FileGroups() Rows[FileGroup] {
	return rows(db, db.res.fileGroup)
}

// FileInfos returns the file info table.
func (db *Database) FileInfos() Rows[FileInfo] {
	return rows(db, db.res.fileInfo)
}

// FileDescriptors returns the file descriptor table.
func (db *Database) FileDescriptors() Rows[FileDescriptor] {
	return rows(db, db.res.fileDesc)
}

// FileData returns the file data table.
func (db *Database) FileData() Rows[FileData] {
	return rows(db, db.res.fileData)
}

// StreamFolders returns the stream folder table.
func (db *Database) StreamFolders() Rows[StreamFolder] {
	return rows(db, db.res.streamFolder)
}

// StreamPaths returns the stream path table.
func (db *Database) StreamPaths() Rows[StreamPath] {
	return rows(db, db.res.streamPath)
}

// StreamEntities returns the stream entity table.
func (db *Database) StreamEntities() Rows[StreamEntity] {
	return rows(db, db.res.streamEntity)
}

// StreamData returns the stream data table.
func (db *Database) StreamData() Rows[StreamData] {
	return rows(db, db.res.streamData)
}

// SearchFolders returns the search folder table.
func (db *Database) SearchFolders() Rows[SearchFolder] {
	return rows(db, db.search.folder)
}

// SearchPathLinks returns the search path link table.
func (db *Database) SearchPathLinks() Rows[SearchPathLink] {
	return rows(db, db.search.pathLink)
}

// SearchPaths returns the search path table.
func (db *Database) SearchPaths() Rows[SearchPath] {
	return rows(db, db.search.path)
}
