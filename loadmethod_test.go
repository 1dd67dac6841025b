// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMethod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     uint32
		kind    LoadKind
		payload uint32
		known   bool
		str     string
	}{
		{0x0000_0012, LoadUnowned, 0x12, true, "unowned(0x12)"},
		{0x0100_0400, LoadOwned, 0x400, true, "owned(0x400)"},
		{0x0300_0001, LoadPackageSkip, 1, true, "package-skip(0x1)"},
		{0x0500_0000, LoadUnknown, 0, true, "unknown"},
		{0x0900_abcd, LoadSharedButOwned, 0xabcd, true, "shared-but-owned(0xabcd)"},
		{0x1000_0002, LoadUnsupportedRegionLocale, 2, true, "unsupported-region-locale(0x2)"},
		{0x7f12_3456, LoadKind(0x7f), 0x123456, false, "opaque(0x7f)(0x123456)"},
	}
	for _, tt := range tests {
		m := LoadMethodFromRaw(tt.raw)
		require.Equal(t, tt.raw, m.Raw())
		require.Equal(t, tt.kind, m.Kind())
		require.Equal(t, tt.payload, m.Payload())
		require.Equal(t, tt.known, m.Kind().Known())
		require.Equal(t, tt.str, m.String())
		if tt.known {
			require.Equal(t, m, NewLoadMethod(tt.kind, tt.payload))
		}
	}
	require.True(t, NewLoadMethod(LoadOwned, 1).IsOwned())
	require.True(t, NewLoadMethod(LoadPackageSkip, 1).IsSkip())
}

func TestOpaqueLoadMethodSurvivesReserialize(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	m, ok := db.FileDescriptors().Mut(1)
	require.True(t, ok)
	m.Update(func(d *FileDescriptor) { d.LoadMethod = LoadMethodFromRaw(0xee00_0042) })
	require.NoError(t, db.Reserialize())

	db2 := reopen(t, db)
	d, ok := db2.FileDescriptors().Get(1)
	require.True(t, ok)
	require.Equal(t, uint32(0xee00_0042), d.Row().LoadMethod.Raw())
}
