// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bpowers/arcdb"
	"github.com/bpowers/arcdb/hash40"
)

var lookupKind string

func init() {
	cmd := newLookupCmd()
	cmd.Flags().StringVarP(&lookupKind, "kind", "k", "file", "Lookup to search: file, stream, package, folder or search")
	rootCmd.AddCommand(cmd)
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <archive> <path|0xhash>",
		Short: "Find a path in one of the lookups",
		Long: `The lookup command hashes a path (or takes a raw 40-bit hash
written in hex with a 0x prefix) and prints the row it maps to.  File
paths are followed through to their data record.

Example:
  arcdb lookup data.arc fighter/mario/model/body/c00/model.numdlb
  arcdb lookup data.arc --kind stream 0x1d5ea83b2e`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(args)
		},
	}
}

func parseHash(s string) (hash40.Hash40, error) {
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		raw, err := strconv.ParseUint(hex, 16, 40)
		if err != nil {
			return 0, fmt.Errorf("bad hash %q: %w", s, err)
		}
		return hash40.FromRaw(raw), nil
	}
	return hash40.New(s), nil
}

type lookupResult struct {
	Hash  string      `json:"hash"`
	Kind  string      `json:"kind"`
	Index uint32      `json:"index"`
	Row   interface{} `json:"row"`
	Data  interface{} `json:"data,omitempty"`
}

func runLookup(args []string) error {
	h, err := parseHash(args[1])
	if err != nil {
		return err
	}
	a, err := openArchive(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := lookup(a.Database, lookupKind, h)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(res)
	}
	printInfo("%s %s: index %d\n", res.Kind, res.Hash, res.Index)
	printInfo("  %+v\n", res.Row)
	if res.Data != nil {
		printInfo("  data: %+v\n", res.Data)
	}
	return nil
}

func lookup(db *arcdb.Database, kind string, h hash40.Hash40) (*lookupResult, error) {
	res := &lookupResult{Hash: labeler.Label(h), Kind: kind}
	var ok bool
	switch kind {
	case "file":
		var p arcdb.Ref[arcdb.FilePath]
		if p, ok = db.LookupFilePath(h); ok {
			res.Index, res.Row = p.Index(), p.Row()
			res.Data = fileData(p)
		}
	case "stream":
		var p arcdb.Ref[arcdb.StreamPath]
		if p, ok = db.LookupStreamPath(h); ok {
			res.Index, res.Row = p.Index(), p.Row()
			if e, found := arcdb.Follow(p, arcdb.StreamPathEntity); found {
				if d, found := arcdb.Follow(e, arcdb.StreamEntityData); found {
					res.Data = d.Row()
				}
			}
		}
	case "package":
		var p arcdb.Ref[arcdb.FilePackage]
		if p, ok = db.LookupFilePackage(h); ok {
			res.Index, res.Row = p.Index(), p.Row()
		}
	case "folder":
		var f arcdb.Ref[arcdb.SearchFolder]
		if f, ok = db.LookupSearchFolder(h); ok {
			res.Index, res.Row = f.Index(), f.Row()
		}
	case "search":
		var p arcdb.Ref[arcdb.SearchPath]
		if p, ok = db.LookupSearchPath(h); ok {
			res.Index, res.Row = p.Index(), p.Row()
		}
	default:
		return nil, fmt.Errorf("unknown lookup kind %q", kind)
	}
	if !ok {
		return nil, fmt.Errorf("%s not found in %s lookup", labeler.Label(h), kind)
	}
	return res, nil
}

// fileData follows a file path through its info and descriptor.
func fileData(p arcdb.Ref[arcdb.FilePath]) interface{} {
	e, ok := arcdb.Follow(p, arcdb.FilePathEntity)
	if !ok {
		return nil
	}
	info, ok := arcdb.Follow(e, arcdb.FileEntityInfo)
	if !ok {
		return nil
	}
	desc, ok := arcdb.Follow(info, arcdb.FileInfoDesc)
	if !ok {
		return nil
	}
	data, ok := arcdb.Follow(desc, arcdb.FileDescData)
	if !ok {
		return nil
	}
	return data.Row()
}
