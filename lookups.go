// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"fmt"

	"github.com/bpowers/arcdb/hash40"
	"github.com/bpowers/arcdb/internal/table"
)

type lookupImpl interface {
	Get(h hash40.Hash40) (uint32, bool)
	Insert(h hash40.Hash40, index uint32) (uint32, bool)
	Set(h hash40.Hash40, index uint32) bool
	ContainsKey(h hash40.Hash40) bool
	Len() int
	FixedLen() int
	DynamicLen() int
	Iter() *table.LookupIter
	Check() error
}

// Lookup is a handle on one of the database's hash lookups.  Inserting a
// key does not add a row: callers that add both should use the Insert
// methods on Database.
type Lookup struct {
	l lookupImpl
}

// Get returns the index stored for h.
func (l Lookup) Get(h hash40.Hash40) (uint32, bool) { return l.l.Get(h) }

// ContainsKey reports whether h is present.
func (l Lookup) ContainsKey(h hash40.Hash40) bool { return l.l.ContainsKey(h) }

// Insert maps h to index, returning the index it replaced if any.  index
// must fit in 24 bits.
func (l Lookup) Insert(h hash40.Hash40, index uint32) (old uint32, replaced bool) {
	return l.l.Insert(h, index)
}

// Set changes the index of an existing key.  It reports false, changing
// nothing, if h is absent.
func (l Lookup) Set(h hash40.Hash40, index uint32) bool { return l.l.Set(h, index) }

// Len is the number of keys.
func (l Lookup) Len() int { return l.l.Len() }

// DynamicLen is the number of keys added since the last compaction.
func (l Lookup) DynamicLen() int { return l.l.DynamicLen() }

// Iter returns an iterator over every key.  Keys come out in ascending
// order, except for the bucketed file path lookup which is ascending
// within each bucket.
func (l Lookup) Iter() *table.LookupIter { return l.l.Iter() }

// FilePathLookup returns the bucketed lookup from full path hash to file
// path row.
func (db *Database) FilePathLookup() Lookup {
	return Lookup{db.res.filePathLookup}
}

// StreamPathLookup returns the lookup from path hash to stream path row.
func (db *Database) StreamPathLookup() Lookup {
	return Lookup{db.res.streamPathLookup}
}

// FilePackageLookup returns the lookup from package path hash to package
// row.
func (db *Database) FilePackageLookup() Lookup {
	return Lookup{db.res.packageLookup}
}

// SearchFolderLookup returns the lookup from folder path hash to search
// folder row.
func (db *Database) SearchFolderLookup() Lookup {
	return Lookup{db.search.folderLookup}
}

// SearchPathLookup maps path hashes to indices in the search path link
// table, not the search path table.
func (db *Database) SearchPathLookup() Lookup {
	return Lookup{db.search.pathLookup}
}

func lookupRef[T Row](db *Database, l lookupImpl, t *table.Table[T], h hash40.Hash40) (Ref[T], bool) {
	index, ok := l.Get(h)
	if !ok {
		return Ref[T]{}, false
	}
	return newRef(db, t, index)
}

func lookupMut[T Row](db *Database, l lookupImpl, t *table.Table[T], h hash40.Hash40) (Mut[T], bool) {
	index, ok := l.Get(h)
	if !ok {
		return Mut[T]{}, false
	}
	return newMut(db, t, index)
}

// LookupFilePath finds a file path by the hash of the full path.
func (db *Database) LookupFilePath(h hash40.Hash40) (Ref[FilePath], bool) {
	return lookupRef(db, db.res.filePathLookup, db.res.filePath, h)
}

// LookupFilePathMut is LookupFilePath returning a write reference.
func (db *Database) LookupFilePathMut(h hash40.Hash40) (Mut[FilePath], bool) {
	return lookupMut(db, db.res.filePathLookup, db.res.filePath, h)
}

// LookupStreamPath finds a stream file by path hash.
func (db *Database) LookupStreamPath(h hash40.Hash40) (Ref[StreamPath], bool) {
	return lookupRef(db, db.res.streamPathLookup, db.res.streamPath, h)
}

// LookupStreamPathMut is LookupStreamPath returning a write reference.
func (db *Database) LookupStreamPathMut(h hash40.Hash40) (Mut[StreamPath], bool) {
	return lookupMut(db, db.res.streamPathLookup, db.res.streamPath, h)
}

// LookupFilePackage finds a package by the hash of its path.
func (db *Database) LookupFilePackage(h hash40.Hash40) (Ref[FilePackage], bool) {
	return lookupRef(db, db.res.packageLookup, db.res.filePackage, h)
}

// LookupFilePackageMut is LookupFilePackage returning a write reference.
func (db *Database) LookupFilePackageMut(h hash40.Hash40) (Mut[FilePackage], bool) {
	return lookupMut(db, db.res.packageLookup, db.res.filePackage, h)
}

// LookupSearchFolder finds a search folder by the hash of its path.
func (db *Database) LookupSearchFolder(h hash40.Hash40) (Ref[SearchFolder], bool) {
	return lookupRef(db, db.search.folderLookup, db.search.folder, h)
}

// LookupSearchFolderMut is LookupSearchFolder returning a write reference.
func (db *Database) LookupSearchFolderMut(h hash40.Hash40) (Mut[SearchFolder], bool) {
	return lookupMut(db, db.search.folderLookup, db.search.folder, h)
}

func (db *Database) searchPathIndex(h hash40.Hash40) (uint32, bool) {
	link, ok := db.search.pathLookup.Get(h)
	if !ok {
		return 0, false
	}
	return throughLink(db, link)
}

// LookupSearchPath finds a search entry by path hash, going through the
// link table.  Entries whose link is invalid are absent.
func (db *Database) LookupSearchPath(h hash40.Hash40) (Ref[SearchPath], bool) {
	index, ok := db.searchPathIndex(h)
	if !ok {
		return Ref[SearchPath]{}, false
	}
	return newRef(db, db.search.path, index)
}

// LookupSearchPathMut is LookupSearchPath returning a write reference.
func (db *Database) LookupSearchPathMut(h hash40.Hash40) (Mut[SearchPath], bool) {
	index, ok := db.searchPathIndex(h)
	if !ok {
		return Mut[SearchPath]{}, false
	}
	return newMut(db, db.search.path, index)
}

func (db *Database) mustInsert(l lookupImpl, h hash40.Hash40, index uint32) {
	if old, replaced := l.Insert(h, index); replaced {
		panic(fmt.Errorf("invariant broken: %s already present (index %d)", db.label(h), old))
	}
}

func (db *Database) checkAbsent(l lookupImpl, h hash40.Hash40) {
	if l.ContainsKey(h) {
		panic(fmt.Errorf("invariant broken: %s already present", db.label(h)))
	}
}

// InsertFilePath appends p and indexes it by its path hash, returning
// the new row's index.  It panics if the hash is already indexed.
func (db *Database) InsertFilePath(p FilePath) uint32 {
	db.checkAbsent(db.res.filePathLookup, p.Path())
	index := db.res.filePath.Push(p)
	db.mustInsert(db.res.filePathLookup, p.Path(), index)
	return index
}

// InsertFilePackage appends p and indexes it by its path hash.
func (db *Database) InsertFilePackage(p FilePackage) uint32 {
	db.checkAbsent(db.res.packageLookup, p.Path())
	index := db.res.filePackage.Push(p)
	db.mustInsert(db.res.packageLookup, p.Path(), index)
	return index
}

// InsertStreamPath appends p and indexes it by its path hash.
func (db *Database) InsertStreamPath(p StreamPath) uint32 {
	db.checkAbsent(db.res.streamPathLookup, p.Path())
	index := db.res.streamPath.Push(p)
	db.mustInsert(db.res.streamPathLookup, p.Path(), index)
	return index
}

// InsertSearchFolder appends f and indexes it by its path hash.
func (db *Database) InsertSearchFolder(f SearchFolder) uint32 {
	db.checkAbsent(db.search.folderLookup, f.Path())
	index := db.search.folder.Push(f)
	db.mustInsert(db.search.folderLookup, f.Path(), index)
	return index
}

// InsertSearchPath appends p and a link to it, and indexes the link by
// p's path hash.  It returns the link index.
func (db *Database) InsertSearchPath(p SearchPath) uint32 {
	db.checkAbsent(db.search.pathLookup, p.Path())
	index := db.search.path.Push(p)
	link := db.search.pathLink.Push(SearchPathLink(index))
	db.mustInsert(db.search.pathLookup, p.Path(), link)
	return link
}
