// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-testdata writes a synthetic archive with a configurable
// number of packages, for exercising arcdb against something larger than
// the unit test fixtures.
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/spf13/pflag"

	"github.com/bpowers/arcdb"
)

var extensions = []string{"numdlb", "nusktb", "numatb", "nutexb", "bin", "prc", "nus3audio"}

func main() {
	var (
		out      = pflag.StringP("output", "o", "testdata.arc", "archive to write")
		packages = pflag.IntP("packages", "p", 1000, "number of packages")
		files    = pflag.IntP("files", "f", 8, "files per package")
		streams  = pflag.Int("streams", 100, "number of stream files")
		buckets  = pflag.Uint32("buckets", 64, "file path lookup bucket count")
		seed     = pflag.Int64("seed", 1, "random seed")
		verbose  = pflag.BoolP("verbose", "v", false, "log progress")
	)
	pflag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if err := generate(*out, *packages, *files, *streams, *buckets, *seed, logger); err != nil {
		fmt.Fprintf(os.Stderr, "gen-testdata: %s\n", err)
		os.Exit(1)
	}
}

func generate(out string, packages, files, streams int, buckets uint32, seed int64, logger *slog.Logger) error {
	if buckets == 0 {
		return fmt.Errorf("--buckets must be positive")
	}
	rng := rand.New(rand.NewSource(seed))
	b := arcdb.NewBuilder(out, buckets, arcdb.WithLogger(logger))

	for p := 0; p < packages; p++ {
		pkg := fmt.Sprintf("fighter/f%04d/c%02d/", p/8, p%8)
		var offset uint32
		fs := make([]arcdb.File, files)
		for i := range fs {
			size := uint32(rng.Intn(1<<16) + 1)
			compressed := size/2 + 1
			fs[i] = arcdb.File{
				Path: fmt.Sprintf("%sfile%03d.%s", pkg, i, extensions[rng.Intn(len(extensions))]),
				Data: arcdb.FileData{
					InGroupOffset:    offset,
					CompressedSize:   compressed,
					DecompressedSize: size,
					Flags:            arcdb.FileCompressed | arcdb.FileZstd,
				},
			}
			offset += compressed
		}
		g := b.AddGroup(arcdb.FileGroup{DecompressedSize: offset, CompressedSize: offset})
		if _, err := b.AddPackage(pkg, g, fs...); err != nil {
			return err
		}
		for _, f := range fs {
			if _, err := b.AddSearchFile(f.Path); err != nil {
				return err
			}
		}
	}

	var offset uint64
	for i := 0; i < streams; i++ {
		size := uint64(rng.Intn(1<<20) + 1)
		if _, err := b.AddStream(fmt.Sprintf("stream:/sound/bgm/bgm%04d.nus3audio", i), arcdb.StreamData{Size: size, Offset: offset}); err != nil {
			return err
		}
		offset += size
	}
	return b.Finalize()
}
