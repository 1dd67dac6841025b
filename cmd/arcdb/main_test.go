// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bpowers/arcdb"
	"github.com/bpowers/arcdb/hash40"
)

// buildArchive writes a small archive with one file, one stream and one
// search entry.
func buildArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.arc")
	b := arcdb.NewBuilder(path, 4)
	g := b.AddGroup(arcdb.FileGroup{DecompressedSize: 64, CompressedSize: 32})
	_, err := b.AddPackage("ui/", g, arcdb.File{Path: "ui/menu.arc", Data: arcdb.FileData{DecompressedSize: 64}})
	require.NoError(t, err)
	_, err = b.AddStream("stream:/bgm.nus3audio", arcdb.StreamData{Size: 10, Offset: 512})
	require.NoError(t, err)
	_, err = b.AddSearchFile("ui/menu.arc")
	require.NoError(t, err)
	require.NoError(t, b.Finalize())
	return path
}

// run executes the root command with args, capturing stdout.  Commands
// share global flag state, so these tests are not parallel.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	stdout, stderr = &out, io.Discard
	t.Cleanup(func() { stdout, stderr = os.Stdout, os.Stderr })

	configPath, verbose, quiet, jsonOut = "", false, false, false
	lookupKind, dumpSearch = "file", ""
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInfoCommand(t *testing.T) {
	path := buildArchive(t)

	out, err := run(t, "info", path)
	require.NoError(t, err)
	require.Contains(t, out, "Archive Information")
	require.Contains(t, out, "file_path")
	require.Contains(t, out, "Fingerprint")

	out, err = run(t, "info", "--json", path)
	require.NoError(t, err)
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, path, res["file"])
	require.Len(t, res["fingerprint"], 16)

	_, err = run(t, "info", filepath.Join(t.TempDir(), "missing.arc"))
	require.Error(t, err)
}

func TestLookupCommand(t *testing.T) {
	path := buildArchive(t)

	out, err := run(t, "lookup", path, "ui/menu.arc")
	require.NoError(t, err)
	require.Contains(t, out, "index 0")
	require.Contains(t, out, "data:")

	out, err = run(t, "lookup", path, hash40.New("ui/menu.arc").String())
	require.NoError(t, err)
	require.Contains(t, out, "index 0")

	out, err = run(t, "lookup", "--kind", "stream", "--json", path, "stream:/bgm.nus3audio")
	require.NoError(t, err)
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, "stream", res["kind"])
	require.NotNil(t, res["data"])

	for _, kind := range []string{"package", "folder", "search"} {
		key := "ui/menu.arc"
		switch kind {
		case "package", "folder":
			key = "ui/"
		}
		_, err = run(t, "lookup", "--kind", kind, path, key)
		require.NoError(t, err, kind)
	}

	_, err = run(t, "lookup", path, "ui/missing.arc")
	require.ErrorContains(t, err, "not found")
	_, err = run(t, "lookup", "--kind", "bogus", path, "ui/menu.arc")
	require.ErrorContains(t, err, "unknown lookup kind")
	_, err = run(t, "lookup", path, "0xzz")
	require.ErrorContains(t, err, "bad hash")
}

func TestDumpCommand(t *testing.T) {
	path := buildArchive(t)
	dir := t.TempDir()
	resOut := filepath.Join(dir, "resource.bin")
	searchOut := filepath.Join(dir, "search.bin")

	_, err := run(t, "dump", "--search", searchOut, path, resOut)
	require.NoError(t, err)

	a, err := arcdb.OpenArchive(path)
	require.NoError(t, err)
	defer a.Close()
	res, err := os.ReadFile(resOut)
	require.NoError(t, err)
	require.Equal(t, a.Bytes(), res)
	search, err := os.ReadFile(searchOut)
	require.NoError(t, err)
	require.Equal(t, a.SearchBytes(), search)

	db, err := arcdb.OpenFile(resOut)
	require.NoError(t, err)
	require.Equal(t, a.Fingerprint(), db.Fingerprint())
	require.NoError(t, db.Close())
}

func TestCompactCommand(t *testing.T) {
	path := buildArchive(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "compact.arc")

	cfgPath := filepath.Join(dir, "arcdb.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: debug\ncompact:\n  verify: true\n  search: true\n"), 0644))

	output, err := run(t, "compact", "--config", cfgPath, "--verbose", path, out)
	require.NoError(t, err)
	require.Contains(t, output, "Verified")

	orig, err := arcdb.OpenArchive(path)
	require.NoError(t, err)
	defer orig.Close()
	compacted, err := arcdb.OpenArchive(out)
	require.NoError(t, err)
	defer compacted.Close()
	require.Equal(t, orig.Fingerprint(), compacted.Fingerprint())
	require.FileExists(t, out+".search")

	_, err = run(t, "compact", "--config", filepath.Join(dir, "missing.yaml"), path, out)
	require.ErrorContains(t, err, "loading config")
}

func TestLabelsConfig(t *testing.T) {
	path := buildArchive(t)
	dir := t.TempDir()
	labels := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(labels, []byte("# known paths\nui/menu.arc\n"), 0644))
	cfgPath := filepath.Join(dir, "arcdb.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("labels: "+labels+"\n"), 0644))

	out, err := run(t, "lookup", "--config", cfgPath, path, "ui/menu.arc")
	require.NoError(t, err)
	require.Contains(t, out, "file ui/menu.arc: index 0")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "arcdb dev")
}

func TestValidateCommand(t *testing.T) {
	path := buildArchive(t)

	out, err := run(t, "validate", path)
	require.NoError(t, err)
	require.Contains(t, out, "all references resolve")

	out, err = run(t, "validate", "--json", path)
	require.NoError(t, err)
	var res validateResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Empty(t, res.Problems)
}
