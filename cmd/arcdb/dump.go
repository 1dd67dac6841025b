// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"
)

var dumpSearch string

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVar(&dumpSearch, "search", "", "Also write the decompressed search section to this file")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <archive> <output>",
		Short: "Write the decompressed resource section to a file",
		Long: `The dump command decompresses the resource section of an archive
and writes it to a file, which can be inspected with a hex editor or
reopened with arcdb.OpenFile.

Example:
  arcdb dump data.arc resource.bin --search search.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
}

func runDump(args []string) error {
	a, err := openArchive(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Dump(args[1]); err != nil {
		return err
	}
	printInfo("Wrote resource section to %s\n", args[1])
	if dumpSearch != "" {
		if err := a.DumpSearch(dumpSearch); err != nil {
			return err
		}
		printInfo("Wrote search section to %s\n", dumpSearch)
	}
	return nil
}
