// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgryski/go-farm"
	"github.com/dustin/go-humanize"

	"github.com/bpowers/arcdb/hash40"
	"github.com/bpowers/arcdb/internal/mmap"
	"github.com/bpowers/arcdb/internal/section"
)

// Option configures a Database.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	labeler      hash40.Labeler
	decompressor section.Decompressor
}

// WithLogger sets an optional logger for progress and diagnostics.  If not
// provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithLabeler sets how hashes are rendered in logs and panic messages.
// The default prints them in hex.
func WithLabeler(l hash40.Labeler) Option {
	return func(opts *options) {
		opts.labeler = l
	}
}

// WithDecompressor replaces the zstd codec used to unpack archive
// sections.
func WithDecompressor(d section.Decompressor) Option {
	return func(opts *options) {
		opts.decompressor = d
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		labeler:      hash40.Hex{},
		decompressor: section.Zstd,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Database is a mutable view over the resource and search sections of an
// archive.  Rows are read and written in place in the buffers it was
// opened with; appended rows and keys live in memory until Reserialize
// folds them into new buffers.
//
// A Database is not safe for concurrent use.  Any number of Refs may be
// held at once, but only the most recently issued Mut is usable.
type Database struct {
	res    *resourceSection
	search *searchSection

	// epoch identifies the one live write guard.
	epoch uint64

	mapping *mmap.Map
	closed  bool

	logger  *slog.Logger
	labeler hash40.Labeler
}

// Open parses a decompressed resource section.  The database takes
// ownership of resource and writes through it; the caller must not touch
// it afterwards.  The search section starts out empty.
func Open(resource []byte, opts ...Option) (*Database, error) {
	return OpenBlobs(resource, nil, opts...)
}

// OpenBlobs parses a decompressed resource section and search section.  A
// nil search blob stands for an empty search section.
func OpenBlobs(resource, search []byte, opts ...Option) (*Database, error) {
	o := newOptions(opts)
	res, err := parseResource(resource)
	if err != nil {
		return nil, fmt.Errorf("resource section: %w", err)
	}
	var s *searchSection
	if search == nil {
		s = newSearch()
	} else if s, err = parseSearch(search); err != nil {
		return nil, fmt.Errorf("search section: %w", err)
	}
	db := newDatabase(res, s, o)
	db.logger.Debug("opened database",
		"resource", humanize.IBytes(uint64(len(res.bytes()))),
		"search", humanize.IBytes(uint64(len(s.bytes()))),
		"version", res.header.Version(),
		"file_paths", res.filePath.Len(),
		"buckets", res.filePathLookup.BucketCount())
	return db, nil
}

// OpenFile maps a resource section previously written by Dump.  The
// mapping is private: edits never reach the file.
func OpenFile(path string, opts ...Option) (*Database, error) {
	m, err := mmap.Open(path, mmap.CopyOnWrite)
	if err != nil {
		return nil, err
	}
	db, err := Open(m.Data(), opts...)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	db.mapping = m
	return db, nil
}

// NewEmpty returns a database with no rows whose file path lookup has
// bucketCount buckets.
func NewEmpty(bucketCount uint32, opts ...Option) *Database {
	return newDatabase(newResource(bucketCount), newSearch(), newOptions(opts))
}

func newDatabase(res *resourceSection, search *searchSection, o options) *Database {
	res.setLabeler(o.labeler)
	search.setLabeler(o.labeler)
	return &Database{
		res:     res,
		search:  search,
		logger:  o.logger,
		labeler: o.labeler,
	}
}

// claim issues a new write token, invalidating every earlier one.
func (db *Database) claim() uint64 {
	db.epoch++
	return db.epoch
}

func (db *Database) label(h hash40.Hash40) string {
	return db.labeler.Label(h)
}

// Header returns a copy of the resource section header as of the last
// parse or compaction.
func (db *Database) Header() ResourceHeader {
	return db.res.header
}

// SearchHeader returns a copy of the search section header as of the
// last parse or compaction.
func (db *Database) SearchHeader() SearchHeader {
	return db.search.header
}

// Dirty reports whether rows or keys were added since the last parse or
// compaction.
func (db *Database) Dirty() bool {
	return db.res.dirty() || db.search.dirty()
}

// Reserialize flattens every table and lookup, fixed rows followed by
// added rows, into one new buffer per section and rewrites both headers.
// Indices stay valid; outstanding write guards do not.  If a lookup and
// the table it indexes have different lengths nothing is changed and
// ErrInconsistent is returned.
func (db *Database) Reserialize() error {
	if db.closed {
		return ErrClosed
	}
	if err := db.res.check(); err != nil {
		return err
	}
	if err := db.search.check(); err != nil {
		return err
	}

	oldRes, oldSearch := len(db.res.bytes()), len(db.search.bytes())
	res := db.res.compact()
	search := db.search.compact()
	db.claim()

	// nothing refers to the mapping anymore
	if db.mapping != nil {
		if err := db.mapping.Close(); err != nil {
			db.logger.Warn("unmapping old resource section", "err", err)
		}
		db.mapping = nil
	}

	db.logger.Debug("reserialized",
		"resource_before", humanize.IBytes(uint64(oldRes)),
		"resource_after", humanize.IBytes(uint64(len(res))),
		"search_before", humanize.IBytes(uint64(oldSearch)),
		"search_after", humanize.IBytes(uint64(len(search))))
	return nil
}

// Bytes returns the resource section as of the last parse or compaction.
// Rows set in place are reflected; rows added since are not.
func (db *Database) Bytes() []byte {
	return db.res.bytes()
}

// SearchBytes returns the search section as of the last parse or
// compaction.
func (db *Database) SearchBytes() []byte {
	return db.search.bytes()
}

// Fingerprint is a 64-bit farm fingerprint of the resource section.
func (db *Database) Fingerprint() uint64 {
	return farm.Fingerprint64(db.res.bytes())
}

// Dump writes the resource section to path.  The file is written to a
// temporary name and renamed into place, and is left read-only.
func (db *Database) Dump(path string) error {
	if db.res.dirty() {
		db.logger.Warn("dumping resource section with rows added since the last Reserialize", "path", path)
	}
	return writeFileAtomic(path, db.res.bytes())
}

// DumpSearch writes the search section to path like Dump.
func (db *Database) DumpSearch(path string) error {
	if db.search.dirty() {
		db.logger.Warn("dumping search section with rows added since the last Reserialize", "path", path)
	}
	return writeFileAtomic(path, db.search.bytes())
}

func writeFileAtomic(path string, data []byte) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "arcdb-dump.*.tmp")
	if err != nil {
		return fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", dir, err)
	}
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}
	if n, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("f.Write: %w", err)
	} else if n != len(data) {
		cleanup()
		return fmt.Errorf("f.Write: short write of %d (wanted %d)", n, len(data))
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("f.Sync: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("f.Close: %w", err)
	}
	// make the file read-only
	if err := os.Chmod(f.Name(), 0444); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("os.Chmod(0444): %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("os.Rename: %w", err)
	}
	return nil
}

// Close releases the file mapping of a database opened with OpenFile.
// The database must not be used afterwards.
func (db *Database) Close() error {
	if db.closed {
		return ErrClosed
	}
	db.closed = true
	db.claim()
	db.res.arena.Reset(nil)
	db.search.arena.Reset(nil)
	if db.mapping == nil {
		return nil
	}
	err := db.mapping.Close()
	db.mapping = nil
	return err
}

// TableStats describes one table or lookup.
type TableStats struct {
	Name    string
	Fixed   int
	Dynamic int
	Bytes   int
}

// Stats summarizes a database.
type Stats struct {
	Version       string
	ResourceBytes int
	SearchBytes   int
	BucketCount   uint32
	Tables        []TableStats
}

type sized interface {
	FixedLen() int
	DynamicLen() int
	ByteLen() int
}

// Stats reports row counts and sizes for every table and lookup, in
// on-disk order.
func (db *Database) Stats() Stats {
	r, s := db.res, db.search
	named := []struct {
		name string
		t    sized
	}{
		{"stream_folder", r.streamFolder},
		{"stream_path_lookup", r.streamPathLookup},
		{"stream_path", r.streamPath},
		{"stream_entity", r.streamEntity},
		{"stream_data", r.streamData},
		{"file_path_lookup", r.filePathLookup},
		{"file_path", r.filePath},
		{"file_entity", r.fileEntity},
		{"file_package_lookup", r.packageLookup},
		{"file_package", r.filePackage},
		{"file_group", r.fileGroup},
		{"file_package_child", r.packageChild},
		{"file_info", r.fileInfo},
		{"file_descriptor", r.fileDesc},
		{"file_data", r.fileData},
		{"search_folder_lookup", s.folderLookup},
		{"search_folder", s.folder},
		{"search_path_lookup", s.pathLookup},
		{"search_path_link", s.pathLink},
		{"search_path", s.path},
	}
	stats := Stats{
		Version:       r.header.Version(),
		ResourceBytes: len(r.bytes()),
		SearchBytes:   len(s.bytes()),
		BucketCount:   r.filePathLookup.BucketCount(),
		Tables:        make([]TableStats, 0, len(named)),
	}
	for _, n := range named {
		stats.Tables = append(stats.Tables, TableStats{
			Name:    n.name,
			Fixed:   n.t.FixedLen(),
			Dynamic: n.t.DynamicLen(),
			Bytes:   n.t.ByteLen(),
		})
	}
	return stats
}
