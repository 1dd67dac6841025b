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

// searchSection is the parsed search section: a directory tree keyed by
// path hash.  Path lookups resolve to a link slot, and the link to a path.
type searchSection struct {
	arena  *table.Arena
	header SearchHeader

	folderLookup *table.SortedLookup
	folder       *table.Table[SearchFolder]
	pathLookup   *table.SortedLookup
	pathLink     *table.Table[SearchPathLink]
	path         *table.Table[SearchPath]
}

func parseSearch(buf []byte) (*searchSection, error) {
	s := &searchSection{}
	if err := s.header.UnmarshalBytes(buf); err != nil {
		return nil, err
	}
	h := &s.header
	if int64(h.SearchDataSize) > int64(len(buf)) {
		return nil, fmt.Errorf("search data size %d beyond buffer (%d): %w", h.SearchDataSize, len(buf), ErrTruncated)
	}
	if h.SearchDataSize < searchHeaderSize {
		return nil, fmt.Errorf("search data size %d smaller than its header: %w", h.SearchDataSize, ErrCorrupt)
	}
	s.arena = table.NewArena(buf[:h.SearchDataSize])
	c := table.NewCursor(s.arena, searchHeaderSize)

	var err error
	if s.folderLookup, err = table.CarveSorted(c, int(h.FolderCount)); err != nil {
		return nil, fmt.Errorf("search folder lookup: %w", err)
	}
	if s.folder, err = table.Carve(c, int(h.FolderCount), searchFolderLayout); err != nil {
		return nil, fmt.Errorf("search folder: %w", err)
	}
	if s.pathLookup, err = table.CarveSorted(c, int(h.PathLinkCount)); err != nil {
		return nil, fmt.Errorf("search path lookup: %w", err)
	}
	if s.pathLink, err = table.Carve(c, int(h.PathLinkCount), searchPathLinkLayout); err != nil {
		return nil, fmt.Errorf("search path link: %w", err)
	}
	if s.path, err = table.Carve(c, int(h.PathCount), searchPathLayout); err != nil {
		return nil, fmt.Errorf("search path: %w", err)
	}
	return s, nil
}

func newSearch() *searchSection {
	arena := table.NewArena(nil)
	s := &searchSection{arena: arena}
	var err error
	if s.folderLookup, err = table.NewSorted(arena, 0, 0); err != nil {
		panic(err)
	}
	if s.folder, err = table.New(arena, 0, 0, searchFolderLayout); err != nil {
		panic(err)
	}
	if s.pathLookup, err = table.NewSorted(arena, 0, 0); err != nil {
		panic(err)
	}
	if s.pathLink, err = table.New(arena, 0, 0, searchPathLinkLayout); err != nil {
		panic(err)
	}
	if s.path, err = table.New(arena, 0, 0, searchPathLayout); err != nil {
		panic(err)
	}
	s.compact()
	return s
}

func (s *searchSection) setLabeler(l hash40.Labeler) {
	s.folderLookup.SetLabeler(l)
	s.pathLookup.SetLabeler(l)
}

func (s *searchSection) sections() []table.Section {
	return []table.Section{s.folderLookup, s.folder, s.pathLookup, s.pathLink, s.path}
}

func (s *searchSection) dirty() bool {
	return s.folderLookup.DynamicLen() > 0 || s.folder.DynamicLen() > 0 ||
		s.pathLookup.DynamicLen() > 0 || s.pathLink.DynamicLen() > 0 || s.path.DynamicLen() > 0
}

func (s *searchSection) check() error {
	if a, b := s.folderLookup.Len(), s.folder.Len(); a != b {
		return fmt.Errorf("search folder lookup has %d keys, table has %d rows: %w", a, b, ErrInconsistent)
	}
	if a, b := s.pathLookup.Len(), s.pathLink.Len(); a != b {
		return fmt.Errorf("search path lookup has %d keys, link table has %d rows: %w", a, b, ErrInconsistent)
	}
	total := searchHeaderSize
	for _, sec := range s.sections() {
		total += sec.ByteLen()
	}
	if uint64(total) > math.MaxUint32 {
		return fmt.Errorf("search section would be %d bytes: %w", total, ErrInconsistent)
	}
	return nil
}

func (s *searchSection) compact() []byte {
	buf := table.Compact(s.arena, searchHeaderSize, s.sections()...)
	h := &s.header
	h.SearchDataSize = uint32(len(buf))
	h.FolderCount = uint32(s.folder.Len())
	h.PathLinkCount = uint32(s.pathLink.Len())
	h.PathCount = uint32(s.path.Len())
	h.MarshalTo(buf)
	return buf
}

func (s *searchSection) bytes() []byte {
	return s.arena.Bytes()
}
