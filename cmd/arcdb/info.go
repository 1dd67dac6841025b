// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bpowers/arcdb"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <archive>",
		Short: "Report table sizes and row counts",
		Long: `The info command opens an archive and prints its version, section
sizes and the number of rows in every table and lookup.

Example:
  arcdb info data.arc
  arcdb info data.arc --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type infoResult struct {
	File        string `json:"file"`
	Fingerprint string `json:"fingerprint"`
	arcdb.Stats
}

func runInfo(args []string) error {
	path := args[0]
	a, err := openArchive(path)
	if err != nil {
		return err
	}
	defer a.Close()

	res := infoResult{
		File:        path,
		Fingerprint: fmt.Sprintf("%016x", a.Fingerprint()),
		Stats:       a.Stats(),
	}
	if jsonOut {
		return printJSON(res)
	}

	printInfo("\nArchive Information:\n")
	printInfo("  File: %s\n", path)
	if stat, err := os.Stat(path); err == nil {
		printInfo("  Size: %s\n", humanize.IBytes(uint64(stat.Size())))
	}
	printInfo("  Version: %s\n", res.Version)
	printInfo("  Resource section: %s\n", humanize.IBytes(uint64(res.ResourceBytes)))
	printInfo("  Search section: %s\n", humanize.IBytes(uint64(res.SearchBytes)))
	printInfo("  File path buckets: %d\n", res.BucketCount)
	printInfo("  Fingerprint: %s\n", res.Fingerprint)

	printInfo("\nTables:\n")
	for _, t := range res.Tables {
		printInfo("  %-22s %10s rows %10s\n", t.Name, humanize.Comma(int64(t.Fixed+t.Dynamic)), humanize.IBytes(uint64(t.Bytes)))
	}
	return nil
}
