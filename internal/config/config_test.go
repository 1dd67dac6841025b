// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arcdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
labels: /tmp/labels.txt
log_level: debug
compact:
  search: true
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/labels.txt", cfg.Labels)
	require.True(t, cfg.Compact.Search)
	// unset fields keep their defaults
	require.True(t, cfg.Compact.Verify)

	level, err := cfg.Level()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(writeConfig(t, "log_level: chatty\n"))
	require.Error(t, err)

	_, err = LoadFile(writeConfig(t, "labels: [unterminated\n"))
	require.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEnv(t *testing.T) {
	path := writeConfig(t, "log_level: error\n")

	t.Setenv(EnvVar, "")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	t.Setenv(EnvVar, path)
	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, "error", cfg.LogLevel)

	// an explicit path wins over the environment
	other := writeConfig(t, "log_level: info\n")
	cfg, err = Load(other)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
}
