// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package config loads the arcdb command's configuration.
//
// Configuration comes from a single YAML file named by the --config flag
// or, failing that, the ARCDB_CONFIG environment variable.  There is no
// discovery: with neither set the defaults are used.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted when no --config flag
// is given.
const EnvVar = "ARCDB_CONFIG"

// Config is the arcdb command configuration.
type Config struct {
	// Labels is a file of known path strings, one per line, used to
	// print hashes by name.  Optional.
	Labels string `yaml:"labels"`

	// LogLevel is one of debug, info, warn, error.  Default: warn.
	LogLevel string `yaml:"log_level"`

	// Compact configures the compact subcommand.
	Compact CompactConfig `yaml:"compact"`
}

// CompactConfig configures compaction output.
type CompactConfig struct {
	// Verify re-opens the compacted output and checks that every table
	// round-tripped.  Default: true.
	Verify bool `yaml:"verify"`

	// Search also writes the compacted search section next to the
	// resource section.  Default: false.
	Search bool `yaml:"search"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Compact: CompactConfig{
			Verify: true,
		},
	}
}

// Load reads the file at path, or the file named by ARCDB_CONFIG if path
// is empty.  With neither set it returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log_level: unknown level %q", c.LogLevel)
}
