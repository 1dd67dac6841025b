// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newCompactCmd())
}

func newCompactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact <archive> <output>",
		Short: "Reserialize the tables into a new archive",
		Long: `The compact command opens an archive, reserializes its resource and
search tables and writes them to a new archive.  With compact.verify set
in the config (the default) the output is reopened and its fingerprint
checked.

Example:
  arcdb compact data.arc data-compact.arc`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompact(args)
		},
	}
}

func runCompact(args []string) error {
	in, out := args[0], args[1]
	a, err := openArchive(in)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Reserialize(); err != nil {
		return fmt.Errorf("reserialize: %w", err)
	}
	var buf bytes.Buffer
	if err := a.WriteArchive(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return err
	}
	printInfo("Wrote %s (%s)\n", out, humanize.IBytes(uint64(buf.Len())))

	if cfg.Compact.Search {
		searchOut := out + ".search"
		if err := a.DumpSearch(searchOut); err != nil {
			return err
		}
		printVerbose("Wrote search section to %s\n", searchOut)
	}

	if cfg.Compact.Verify {
		check, err := openArchive(out)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		defer check.Close()
		if got, want := check.Fingerprint(), a.Fingerprint(); got != want {
			return fmt.Errorf("verify: fingerprint %016x, expected %016x", got, want)
		}
		printVerbose("Verified %s\n", out)
	}
	return nil
}
