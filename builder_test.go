// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bpowers/arcdb/hash40"
)

func TestBuilderDuplicates(t *testing.T) {
	t.Parallel()

	b := newTestBuilder(t, 2)
	_, err := b.AddPackage(testPackage, 0)
	require.Error(t, err)
	_, err = b.AddPackage("other/", 0, testFiles[1])
	require.Error(t, err)
	_, err = b.AddStream(testStreams[0], StreamData{})
	require.Error(t, err)
	_, err = b.AddSearchFile(testSearchFiles[2])
	require.Error(t, err)

	db := b.Database()
	paths, infos, data := db.FilePaths().Len(), db.FileInfos().Len(), db.FileData().Len()
	repeated := File{Path: "fighter/luigi/c00/model.numdlb"}
	_, err = b.AddPackage("fighter/luigi/c00/", 0, repeated, repeated)
	require.ErrorContains(t, err, "already added")

	// failed adds leave nothing behind
	require.Equal(t, paths, db.FilePaths().Len())
	require.Equal(t, infos, db.FileInfos().Len())
	require.Equal(t, data, db.FileData().Len())
	require.NoError(t, db.Reserialize())
	require.Equal(t, 1, db.FilePackages().Len())
	require.True(t, db.Validate().OK())
}

func TestBuilderLogging(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	labels := make(hash40.Labels)
	labels.Add(testFiles[0].Path)

	b := NewBuilder(filepath.Join(t.TempDir(), "a.arc"), 1, WithLogger(logger), WithLabeler(labels))
	_, err := b.AddPackage("pkg/", b.AddGroup(FileGroup{}), testFiles[0])
	require.NoError(t, err)
	require.NoError(t, b.Finalize())
	require.Contains(t, logs.String(), "added package")
	require.Contains(t, logs.String(), "wrote archive")

	// duplicate keys are named with the labeler
	require.PanicsWithError(t, "invariant broken: "+testFiles[0].Path+" already present", func() {
		b.Database().InsertFilePath(NewFilePath(testFiles[0].Path))
	})
}

func TestBuilderBucketRouting(t *testing.T) {
	t.Parallel()

	for _, buckets := range []uint32{1, 3, 7, 64} {
		db := newTestBuilder(t, buckets).Database()
		require.NoError(t, db.Reserialize())
		db = reopen(t, db)
		require.Equal(t, buckets, db.Stats().BucketCount)
		for i, f := range testFiles {
			p, ok := db.LookupFilePath(hash40.New(f.Path))
			require.True(t, ok, "%d buckets: %s", buckets, f.Path)
			require.Equal(t, uint32(i), p.Index())
		}
	}
}
