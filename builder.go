// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/bpowers/arcdb/hash40"
)

var errFinalized = errors.New("builder already finalized")

// File describes one file added to a package.
type File struct {
	Path string
	Data FileData
}

// Builder assembles a new archive from scratch.  Rows go into an empty
// database; Finalize compacts it and writes the archive.
type Builder struct {
	resultPath string
	db         *Database
	logger     *slog.Logger
	folders    map[hash40.Hash40]uint32
	done       bool
}

// NewBuilder creates a Builder that will write an archive to resultPath.
// The file path lookup gets bucketCount buckets.
func NewBuilder(resultPath string, bucketCount uint32, opts ...Option) *Builder {
	o := newOptions(opts)
	return &Builder{
		resultPath: resultPath,
		db:         newDatabase(newResource(bucketCount), newSearch(), o),
		logger:     o.logger,
		folders:    make(map[hash40.Hash40]uint32),
	}
}

// Database returns the database being built.
func (b *Builder) Database() *Database {
	return b.db
}

// AddGroup appends a data group and returns its index.
func (b *Builder) AddGroup(g FileGroup) uint32 {
	return b.db.FileGroups().Push(g)
}

// AddPackage adds a package owning files, all of whose data lives in
// group.  Each file gets a path, an entity, an info, a descriptor and a
// data record.  It returns the package index.
func (b *Builder) AddPackage(pkg string, group uint32, files ...File) (uint32, error) {
	db := b.db
	h := hash40.New(pkg)
	if db.res.packageLookup.ContainsKey(h) {
		return 0, fmt.Errorf("package %q already added", pkg)
	}
	seen := make(map[hash40.Hash40]struct{}, len(files))
	for _, f := range files {
		fh := hash40.New(f.Path)
		if _, ok := seen[fh]; ok || db.res.filePathLookup.ContainsKey(fh) {
			return 0, fmt.Errorf("file %q already added", f.Path)
		}
		seen[fh] = struct{}{}
	}

	index := uint32(db.res.filePackage.Len())
	infoStart := uint32(db.res.fileInfo.Len())
	for _, f := range files {
		entity := uint32(db.res.fileEntity.Len())
		data := db.res.fileData.Push(f.Data)
		desc := db.res.fileDesc.Push(FileDescriptor{
			Group:      group,
			FileData:   data,
			LoadMethod: NewLoadMethod(LoadUnowned, entity),
		})
		fp := NewFilePath(f.Path)
		fp.PathAndEntity.SetData(entity)
		p := db.InsertFilePath(fp)
		info := db.res.fileInfo.Push(FileInfo{Path: p, Entity: entity, Desc: desc})
		db.res.fileEntity.Push(FileEntity{PackageOrGroup: index, Info: info})
	}

	dir, name := path.Split(strings.TrimSuffix(pkg, "/"))
	db.InsertFilePackage(FilePackage{
		PathAndGroup: hash40.NewWithData(h, group),
		Name:         hash40.HashOf(hash40.New(name)),
		Parent:       hash40.HashOf(hash40.New(dir)),
		InfoStart:    infoStart,
		InfoCount:    uint32(len(files)),
	})
	b.logger.Debug("added package", "package", pkg, "files", len(files))
	return index, nil
}

// AddStream adds an uncompressed stream file.
func (b *Builder) AddStream(p string, data StreamData) (uint32, error) {
	db := b.db
	h := hash40.New(p)
	if db.res.streamPathLookup.ContainsKey(h) {
		return 0, fmt.Errorf("stream %q already added", p)
	}
	d := db.res.streamData.Push(data)
	entity := db.res.streamEntity.Push(StreamEntity{StreamData: d})
	return db.InsertStreamPath(StreamPath{PathAndEntity: hash40.NewWithData(h, entity)}), nil
}

// AddSearchFile adds p to the search section, creating its folder if
// needed.  It returns the link index of the new entry.
func (b *Builder) AddSearchFile(p string) (uint32, error) {
	db := b.db
	h := hash40.New(p)
	if db.search.pathLookup.ContainsKey(h) {
		return 0, fmt.Errorf("search path %q already added", p)
	}
	dir, name := path.Split(p)
	parent := hash40.New(dir)
	var ext hash40.Hash40
	if e := path.Ext(name); e != "" {
		ext = hash40.New(e[1:])
	}

	folder, ok := b.folders[parent]
	if !ok {
		folderName := path.Base(strings.TrimSuffix(dir, "/"))
		folder = db.InsertSearchFolder(SearchFolder{
			PathAndFolderCount: hash40.NewWithData(parent, 0),
			ParentAndFileCount: hash40.NewWithData(hash40.New(path.Dir(strings.TrimSuffix(dir, "/"))+"/"), 0),
			Name:               hash40.HashOf(hash40.New(folderName)),
			FirstChild:         hash40.NoData,
		})
		b.folders[parent] = folder
	}

	// new entries go to the front of the folder's child list
	fm, _ := db.SearchFolders().Mut(folder)
	sp := NewSearchPath(h, parent, hash40.New(name), ext)
	sp.PathAndNext.SetData(fm.Row().FirstChild)
	link := db.InsertSearchPath(sp)
	fm.Update(func(f *SearchFolder) {
		f.FirstChild = link
		f.ParentAndFileCount.SetData(f.ParentAndFileCount.Data() + 1)
	})
	return link, nil
}

// Finalize compacts the database and writes the archive to the result
// path, replacing any existing file.
func (b *Builder) Finalize() error {
	if b.done {
		return errFinalized
	}
	if err := b.db.Reserialize(); err != nil {
		return fmt.Errorf("Reserialize: %w", err)
	}
	var buf bytes.Buffer
	if err := b.db.WriteArchive(&buf); err != nil {
		return err
	}
	if err := writeFileAtomic(b.resultPath, buf.Bytes()); err != nil {
		return err
	}
	b.done = true
	b.logger.Debug("wrote archive", "path", b.resultPath, "fingerprint", fmt.Sprintf("%016x", b.db.Fingerprint()))
	return nil
}
