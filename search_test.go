// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bpowers/arcdb/hash40"
)

func TestSearchLookupThroughLinks(t *testing.T) {
	t.Parallel()

	db := reopen(t, newTestDB(t))
	require.Equal(t, uint32(len(testSearchFiles)), db.SearchHeader().PathLinkCount)
	require.Equal(t, uint32(len(testSearchFiles)), db.SearchHeader().PathCount)

	for _, s := range testSearchFiles {
		p, ok := db.LookupSearchPath(hash40.New(s))
		require.True(t, ok, s)
		require.Equal(t, hash40.New(s), p.Row().Path())
		require.False(t, p.Row().IsFolder())
		ext, ok := p.Row().Extension()
		require.True(t, ok)
		require.NotEqual(t, hash40.Hash40(0), ext)
	}

	// invalidating the link hides the entry without touching the lookup
	h := hash40.New(testSearchFiles[0])
	link, ok := db.SearchPathLookup().Get(h)
	require.True(t, ok)
	m, ok := db.SearchPathLinks().Mut(link)
	require.True(t, ok)
	m.Set(InvalidLink)
	_, ok = db.LookupSearchPath(h)
	require.False(t, ok)
	require.True(t, db.SearchPathLookup().ContainsKey(h))
}

func TestSearchFolderChildren(t *testing.T) {
	t.Parallel()

	db := reopen(t, newTestDB(t))
	folder, ok := db.LookupSearchFolder(hash40.New("fighter/mario/model/body/c00/"))
	require.True(t, ok)
	require.Equal(t, uint32(2), folder.Row().ParentAndFileCount.Data())
	require.Equal(t, hash40.New("fighter/mario/model/body/"), folder.Row().ParentAndFileCount.Hash40())

	// children are linked newest first
	first, ok := Follow(folder, SearchFolderFirstChild)
	require.True(t, ok)
	require.Equal(t, hash40.New(testSearchFiles[1]), first.Row().Path())
	second, ok := Follow(first, SearchPathNext)
	require.True(t, ok)
	require.Equal(t, hash40.New(testSearchFiles[0]), second.Row().Path())
	_, ok = Follow(second, SearchPathNext)
	require.False(t, ok)

	link, ok := db.SearchPathLinks().Get(0)
	require.True(t, ok)
	p, ok := Follow(link, SearchLinkPath)
	require.True(t, ok)
	require.Equal(t, uint32(0), p.Index())
}

func TestSearchInsertAfterParse(t *testing.T) {
	t.Parallel()

	db := reopen(t, newTestDB(t))
	sp := NewSearchPath(hash40.New("ui/layout/menu.arc"), hash40.New("ui/layout/"), hash40.New("menu.arc"), hash40.New("arc"))
	link := db.InsertSearchPath(sp)
	require.Equal(t, uint32(len(testSearchFiles)), link)

	mut, ok := db.LookupSearchPathMut(sp.Path())
	require.True(t, ok)
	mut.Update(func(p *SearchPath) { p.ParentAndIsFolder.SetData(p.ParentAndIsFolder.Data() | searchIsFolder) })

	require.NoError(t, db.Reserialize())
	db2 := reopen(t, db)
	got, ok := db2.LookupSearchPath(sp.Path())
	require.True(t, ok)
	require.True(t, got.Row().IsFolder())
	_, ok = got.Row().Extension()
	require.False(t, ok)

	// the lookup came out sorted
	it := db2.SearchPathLookup().Iter()
	var prev uint64
	n := 0
	for {
		h, _, ok := it.Next()
		if !ok {
			break
		}
		require.Greater(t, h.Raw(), prev)
		prev = h.Raw()
		n++
	}
	require.Equal(t, len(testSearchFiles)+1, n)
}

func TestOpenWithoutSearch(t *testing.T) {
	t.Parallel()

	src := newTestDB(t)
	db, err := Open(append([]byte(nil), src.Bytes()...))
	require.NoError(t, err)
	require.Equal(t, 0, db.SearchPaths().Len())
	_, ok := db.LookupSearchPath(hash40.New(testSearchFiles[0]))
	require.False(t, ok)
	require.Len(t, db.SearchBytes(), searchHeaderSize)
}

func TestSearchTruncated(t *testing.T) {
	t.Parallel()

	src := newTestDB(t)
	search := src.SearchBytes()
	_, err := OpenBlobs(append([]byte(nil), src.Bytes()...), append([]byte(nil), search[:len(search)-4]...))
	require.ErrorIs(t, err, ErrTruncated)
}
