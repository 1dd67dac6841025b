// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpowers/arcdb"
	"github.com/bpowers/arcdb/hash40"
	"github.com/bpowers/arcdb/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
	quiet      bool
	jsonOut    bool
)

// set up by loadConfig before any subcommand runs
var (
	cfg     *config.Config
	labeler hash40.Labeler
	logger  *slog.Logger
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "arcdb",
	Short: "Inspect and compact archive resource tables",
	Long: `arcdb opens the resource and search tables of an archive, prints
what they contain, looks up paths by name or hash, and writes the tables
back out compacted.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $"+config.EnvVar+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level, err := c.Level()
	if err != nil {
		return err
	}
	if verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	cfg = c
	logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	labeler = hash40.Hex{}
	if cfg.Labels != "" {
		f, err := os.Open(cfg.Labels)
		if err != nil {
			return fmt.Errorf("labels: %w", err)
		}
		defer f.Close()
		labels, err := hash40.ReadLabels(f)
		if err != nil {
			return fmt.Errorf("labels %s: %w", cfg.Labels, err)
		}
		printVerbose("Loaded %d labels from %s\n", len(labels), cfg.Labels)
		labeler = labels
	}
	return nil
}

func openArchive(path string) (*arcdb.Archive, error) {
	printVerbose("Opening archive: %s\n", path)
	a, err := arcdb.OpenArchive(path, arcdb.WithLogger(logger), arcdb.WithLabeler(labeler))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return a, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
