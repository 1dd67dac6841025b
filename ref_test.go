// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bpowers/arcdb/hash40"
)

func TestMutRevokesEarlierMut(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	m1, ok := db.FileData().Mut(0)
	require.True(t, ok)
	require.True(t, m1.Valid())
	m1.Update(func(d *FileData) { d.Flags = 0 })

	m2, ok := db.FileData().Mut(1)
	require.True(t, ok)
	require.False(t, m1.Valid())
	require.True(t, m2.Valid())

	requireStale(t, func() { m1.Set(FileData{}) })
	requireStale(t, func() { _ = m1.Row() })
	requireStale(t, func() { _ = Mut[FileData]{}.Row() })

	m2.Set(FileData{CompressedSize: 5})
	r, ok := db.FileData().Get(1)
	require.True(t, ok)
	require.Equal(t, uint32(5), r.Row().CompressedSize)

	// read references are never revoked
	r0, ok := db.FileData().Get(0)
	require.True(t, ok)
	require.Equal(t, FileFlags(0), r0.Row().Flags)
}

func TestReserializeRevokesMut(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	m, ok := db.LookupFilePathMut(hash40.New(testFiles[1].Path))
	require.True(t, ok)
	r := m.Ref()
	require.NoError(t, db.Reserialize())
	requireStale(t, func() { m.Update(func(*FilePath) {}) })

	// the index survives compaction
	require.Equal(t, uint32(1), r.Index())
	require.Equal(t, hash40.New(testFiles[1].Path), r.Row().Path())
}

func TestPushKeepsMut(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	m, ok := db.FileGroups().Mut(0)
	require.True(t, ok)
	index := db.FileGroups().Push(FileGroup{Redirection: 7})
	require.Equal(t, uint32(1), index)
	require.True(t, m.Valid())
	m.Update(func(g *FileGroup) { g.Redirection = 3 })

	g, ok := db.FileGroups().Get(0)
	require.True(t, ok)
	require.Equal(t, uint32(3), g.Row().Redirection)
}

func TestFollowMut(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	p, ok := db.LookupFilePathMut(hash40.New(testFiles[2].Path))
	require.True(t, ok)
	entity, ok := FollowMut(p, FilePathEntity)
	require.True(t, ok)
	requireStale(t, func() { _ = p.Row() })

	info, ok := FollowMut(entity, FileEntityInfo)
	require.True(t, ok)
	desc, ok := FollowMut(info, FileInfoDesc)
	require.True(t, ok)
	data, ok := FollowMut(desc, FileDescData)
	require.True(t, ok)
	data.Update(func(d *FileData) { d.DecompressedSize = 71 })

	r, ok := db.FileData().Get(2)
	require.True(t, ok)
	require.Equal(t, uint32(71), r.Row().DecompressedSize)

	// a missing target still consumes the guard
	p2, ok := db.FilePaths().Mut(0)
	require.True(t, ok)
	p2.Update(func(fp *FilePath) { fp.PathAndEntity.SetData(1000) })
	p3, ok := db.FilePaths().Mut(0)
	require.True(t, ok)
	_, ok = FollowMut(p3, FilePathEntity)
	require.False(t, ok)
	require.False(t, p3.Valid())
}

func TestFollowMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	m, ok := db.FileInfos().Mut(0)
	require.True(t, ok)
	m.Update(func(i *FileInfo) { i.Desc = 99 })

	info, ok := db.FileInfos().Get(0)
	require.True(t, ok)
	_, ok = Follow(info, FileInfoDesc)
	require.False(t, ok)
	require.Equal(t, "FileInfo.desc", FileInfoDesc.Name())
}

func TestSliceAllOrNothing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	n := uint32(db.FileInfos().Len())

	s, ok := db.FileInfos().Slice(0, n)
	require.True(t, ok)
	require.Equal(t, int(n), s.Len())
	last, ok := s.Get(n - 1)
	require.True(t, ok)
	require.Equal(t, n-1, last.Index())
	_, ok = s.Get(n)
	require.False(t, ok)

	_, ok = db.FileInfos().Slice(1, n)
	require.False(t, ok)
	_, ok = db.FileInfos().Slice(0xFFFF_FFFF, 2)
	require.False(t, ok)

	empty, ok := db.FileInfos().Slice(n, 0)
	require.True(t, ok)
	require.Equal(t, 0, empty.Len())
	_, ok = empty.Iter().Next()
	require.False(t, ok)

	// a span reaching into rows added since compaction
	db.FileInfos().Push(FileInfo{})
	s, ok = db.FileInfos().Slice(1, n)
	require.True(t, ok)
	require.Equal(t, uint32(1), s.Start())

	pkg, ok := db.FilePackages().Mut(0)
	require.True(t, ok)
	pkg.Update(func(p *FilePackage) { p.InfoCount = n + 5 })
	_, ok = FollowSlice(pkg.Ref(), FilePackageInfos)
	require.False(t, ok)
}

func TestRowIter(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	db.FilePaths().Push(NewFilePath("extra/file.bin"))

	var paths []hash40.Hash40
	it := db.FilePaths().Iter()
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		require.Equal(t, uint32(len(paths)), r.Index())
		paths = append(paths, r.Row().Path())
	}
	require.Len(t, paths, len(testFiles)+1)
	require.Equal(t, hash40.New("extra/file.bin"), paths[len(testFiles)])
}
