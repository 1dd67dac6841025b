// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bpowers/arcdb/hash40"
)

func TestValidateClean(t *testing.T) {
	t.Parallel()

	db := reopen(t, newTestDB(t))
	r := db.Validate()
	require.True(t, r.OK(), "%v", r.Problems)
	require.Equal(t, 0, r.UnreachedInfos)
	require.Equal(t, 0, r.UnreachedPaths)
}

func TestValidateFindsProblems(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	m, ok := db.FileInfos().Mut(1)
	require.True(t, ok)
	m.Update(func(i *FileInfo) { i.Desc = 500 })

	pkg, ok := db.FilePackages().Mut(0)
	require.True(t, ok)
	pkg.Update(func(p *FilePackage) { p.ChildStart, p.ChildCount = 0, 2 })

	// a path nobody points at, and a key pointing at the wrong row
	db.FileInfos().Push(FileInfo{Path: 0, Entity: hash40.NoData, Desc: hash40.NoData})
	db.FilePaths().Push(NewFilePath("orphan/file.bin"))
	db.FilePathLookup().Insert(hash40.New("orphan/file.bin"), 0)

	r := db.Validate()
	require.False(t, r.OK())
	where := make(map[string]uint32)
	for _, p := range r.Problems {
		where[p.Where] = p.Index
	}
	require.Contains(t, where, "FileInfo.desc")
	require.Equal(t, uint32(1), where["FileInfo.desc"])
	require.Contains(t, where, "FilePackage.children")
	require.Contains(t, where, "file path lookup")
	require.Equal(t, 1, r.UnreachedInfos)
	require.Equal(t, 1, r.UnreachedPaths)
	require.Contains(t, r.Problems[0].String(), "out of range")
}
