// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <archive>",
		Short: "Check that every reference between tables resolves",
		Long: `The validate command follows every edge, span and lookup in the
resource and search tables and reports the ones that point outside their
target table.

Example:
  arcdb validate data.arc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
}

type validateResult struct {
	File           string   `json:"file"`
	Problems       []string `json:"problems"`
	UnreachedInfos int      `json:"unreached_infos"`
	UnreachedPaths int      `json:"unreached_paths"`
}

func runValidate(args []string) error {
	a, err := openArchive(args[0])
	if err != nil {
		return err
	}
	defer a.Close()

	r := a.Validate()
	res := validateResult{
		File:           args[0],
		Problems:       make([]string, 0, len(r.Problems)),
		UnreachedInfos: r.UnreachedInfos,
		UnreachedPaths: r.UnreachedPaths,
	}
	for _, p := range r.Problems {
		res.Problems = append(res.Problems, p.String())
	}

	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		for _, p := range res.Problems {
			printInfo("  ✗ %s\n", p)
		}
		printVerbose("Unreached file infos: %d\n", res.UnreachedInfos)
		printVerbose("Unreached file paths: %d\n", res.UnreachedPaths)
		if r.OK() {
			printInfo("✓ %s: all references resolve\n", args[0])
		}
	}
	if !r.OK() {
		return fmt.Errorf("%d broken references", len(r.Problems))
	}
	return nil
}
