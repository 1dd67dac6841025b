// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"fmt"

	"github.com/bpowers/arcdb/hash40"
	"github.com/bpowers/arcdb/internal/bitset"
	"github.com/bpowers/arcdb/internal/table"
)

// Problem is one broken reference found by Validate.
type Problem struct {
	// Where names the edge, span or lookup, e.g. "FileInfo.desc".
	Where string
	// Index is the row (or, for lookups, the stored index) at fault.
	Index uint32
	Msg   string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s[%d]: %s", p.Where, p.Index, p.Msg)
}

// Report is the result of Validate.
type Report struct {
	Problems []Problem
	// UnreachedInfos counts FileInfo rows not covered by any package or
	// group span.  Versioned infos are never covered, so this is not an
	// error by itself.
	UnreachedInfos int
	// UnreachedPaths counts FilePath rows no FileInfo points at.
	UnreachedPaths int
}

// OK reports whether no problems were found.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) add(where string, index uint32, format string, args ...interface{}) {
	r.Problems = append(r.Problems, Problem{Where: where, Index: index, Msg: fmt.Sprintf(format, args...)})
}

// Validate walks every edge, span and lookup, including rows added since
// the last compaction, and reports references that do not resolve and
// lookups whose stored entries are out of order.  A
// stored index of hash40.NoData means "none" and is not followed.
func (db *Database) Validate() *Report {
	r := &Report{}
	res, search := db.res, db.search

	checkEdge(db, r, res.filePath, FilePathEntity)
	checkEdge(db, r, res.fileEntity, FileEntityInfo)
	checkEdge(db, r, res.fileInfo, FileInfoPath)
	checkEdge(db, r, res.fileInfo, FileInfoEntity)
	checkEdge(db, r, res.fileInfo, FileInfoDesc)
	checkEdge(db, r, res.fileDesc, FileDescData)
	checkEdge(db, r, res.fileDesc, FileDescGroup)
	checkEdge(db, r, res.filePackage, FilePackageGroup)
	checkEdge(db, r, res.streamPath, StreamPathEntity)
	checkEdge(db, r, res.streamEntity, StreamEntityData)
	checkEdge(db, r, search.pathLink, SearchLinkPath)

	infos := bitset.New(uint32(res.fileInfo.Len()))
	checkSpan(db, r, res.filePackage, FilePackageInfos, infos)
	checkSpan(db, r, res.fileGroup, FileGroupInfos, infos)
	checkSpan(db, r, res.filePackage, FilePackageSubPackages, nil)
	checkSpan(db, r, res.streamFolder, StreamFolderPaths, nil)
	r.UnreachedInfos = int(infos.Len()) - infos.Count()

	paths := bitset.New(uint32(res.filePath.Len()))
	it := res.fileInfo.Iter()
	for {
		_, info, ok := it.Next()
		if !ok {
			break
		}
		paths.Set(info.Path)
	}
	r.UnreachedPaths = int(paths.Len()) - paths.Count()

	checkLookup(db, r, "file path lookup", res.filePathLookup, rowKey(res.filePath, FilePath.Path))
	checkLookup(db, r, "stream path lookup", res.streamPathLookup, rowKey(res.streamPath, StreamPath.Path))
	checkLookup(db, r, "file package lookup", res.packageLookup, rowKey(res.filePackage, FilePackage.Path))
	checkLookup(db, r, "search folder lookup", search.folderLookup, rowKey(search.folder, SearchFolder.Path))
	checkLookup(db, r, "search path lookup", search.pathLookup, func(link uint32) (hash40.Hash40, bool) {
		l, ok := search.pathLink.Get(link)
		if !ok {
			return 0, false
		}
		if !l.Valid() {
			// an invalidated slot hides its key
			return 0, true
		}
		p, ok := search.path.Get(uint32(l))
		return p.Path(), ok
	})
	return r
}

func checkEdge[S, T Row](db *Database, r *Report, src *table.Table[S], e Edge[S, T]) {
	target := e.target(db)
	it := src.Iter()
	for {
		i, row, ok := it.Next()
		if !ok {
			return
		}
		index, ok := e.index(db, row)
		if !ok || index == hash40.NoData {
			continue
		}
		if !target.Contains(index) {
			r.add(e.name, i, "target %d out of range (%d rows)", index, target.Len())
		}
	}
}

func checkSpan[S, T Row](db *Database, r *Report, src *table.Table[S], sp Span[S, T], seen *bitset.Bitset) {
	target := sp.target(db)
	it := src.Iter()
	for {
		i, row, ok := it.Next()
		if !ok {
			return
		}
		start, count := sp.bounds(row)
		if !target.ContainsRange(start, count) {
			r.add(sp.name, i, "span [%d, +%d) out of range (%d rows)", start, count, target.Len())
			continue
		}
		if seen == nil {
			continue
		}
		for j := uint32(0); j < count; j++ {
			seen.Set(start + j)
		}
	}
}

func rowKey[T Row](t *table.Table[T], key func(T) hash40.Hash40) func(uint32) (hash40.Hash40, bool) {
	return func(index uint32) (hash40.Hash40, bool) {
		row, ok := t.Get(index)
		if !ok {
			return 0, false
		}
		return key(row), true
	}
}

func checkLookup(db *Database, r *Report, where string, l lookupImpl, keyOf func(uint32) (hash40.Hash40, bool)) {
	if err := l.Check(); err != nil {
		r.add(where, 0, "%v", err)
	}
	it := l.Iter()
	for {
		h, index, ok := it.Next()
		if !ok {
			return
		}
		got, ok := keyOf(index)
		switch {
		case !ok:
			r.add(where, index, "%s points past the end of its table", db.label(h))
		case got != 0 && got != h:
			r.add(where, index, "%s points at a row keyed %s", db.label(h), db.label(got))
		}
	}
}
