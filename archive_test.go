// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bpowers/arcdb/hash40"
	"github.com/bpowers/arcdb/internal/section"
)

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t, 4)
	require.NoError(t, b.Finalize())
	require.ErrorIs(t, b.Finalize(), errFinalized)

	a, err := OpenArchive(b.resultPath)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.Equal(t, ArchiveMagic, a.Meta.Magic)
	require.Equal(t, uint64(archiveHeaderSize), a.Meta.ResourceOffset)
	require.Greater(t, a.Meta.SearchOffset, a.Meta.ResourceOffset)
	require.Equal(t, b.Database().Fingerprint(), a.Fingerprint())
	require.Equal(t, b.Database().SearchBytes(), a.SearchBytes())

	p, ok := a.LookupFilePath(hash40.New(testFiles[0].Path))
	require.True(t, ok)
	require.Equal(t, uint32(0), p.Index())

	fi, err := os.Stat(b.resultPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0444), fi.Mode().Perm())
}

func TestArchiveErrors(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	var buf bytes.Buffer
	require.NoError(t, db.WriteArchive(&buf))
	good := buf.Bytes()

	write := func(t *testing.T, b []byte) string {
		path := filepath.Join(t.TempDir(), "a.arc")
		require.NoError(t, os.WriteFile(path, b, 0644))
		return path
	}

	t.Run("bad magic", func(t *testing.T) {
		t.Parallel()
		b := append([]byte(nil), good...)
		b[0] ^= 0xff
		_, err := OpenArchive(write(t, b))
		require.ErrorIs(t, err, ErrBadMagic)
	})
	t.Run("short header", func(t *testing.T) {
		t.Parallel()
		_, err := OpenArchive(write(t, good[:20]))
		require.ErrorIs(t, err, ErrTruncated)
	})
	t.Run("truncated section", func(t *testing.T) {
		t.Parallel()
		_, err := OpenArchive(write(t, good[:len(good)-3]))
		require.ErrorIs(t, err, ErrTruncated)
	})
	t.Run("corrupt section", func(t *testing.T) {
		t.Parallel()
		b := append([]byte(nil), good...)
		// data start inside the section header
		binary.LittleEndian.PutUint32(b[archiveHeaderSize:], 4)
		_, err := OpenArchive(write(t, b))
		require.ErrorIs(t, err, ErrCorrupt)
	})
	t.Run("section offset", func(t *testing.T) {
		t.Parallel()
		b := append([]byte(nil), good...)
		h := ArchiveHeader{}
		require.NoError(t, h.UnmarshalBytes(b))
		h.SearchOffset = uint64(len(b) + 10)
		h.MarshalTo(b)
		_, err := OpenArchive(write(t, b))
		require.ErrorIs(t, err, ErrTruncated)
	})
	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := OpenArchive(filepath.Join(t.TempDir(), "nope.arc"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestArchiveDecompressor(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	var buf bytes.Buffer
	require.NoError(t, db.WriteArchive(&buf))
	path := filepath.Join(t.TempDir(), "a.arc")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	calls := 0
	d := section.DecompressorFunc(func(compressed []byte, size int) ([]byte, error) {
		calls++
		return section.Zstd.Decompress(compressed, size)
	})
	a, err := OpenArchive(path, WithDecompressor(d))
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, db.Fingerprint(), a.Fingerprint())

	errBoom := errors.New("boom")
	_, err = OpenArchive(path, WithDecompressor(section.DecompressorFunc(func([]byte, int) ([]byte, error) {
		return nil, errBoom
	})))
	require.ErrorIs(t, err, errBoom)
}
