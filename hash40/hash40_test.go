// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hash40

import (
	"hash/crc32"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"",
		"fighter",
		"fighter/mario/model/body/c00/model.numdlb",
	} {
		h := New(input)
		require.Equal(t, crc32.ChecksumIEEE([]byte(input)), h.CRC())
		require.Equal(t, uint8(len(input)), h.Len())
		require.Equal(t, uint64(len(input))<<32|uint64(h.CRC()), h.Raw())
	}
}

func TestWith(t *testing.T) {
	t.Parallel()

	require.Equal(t, New("fighter/mario"), New("fighter").With("/mario"))
	require.Equal(t, New("abc"), New("").With("abc"))
}

func TestFromRaw(t *testing.T) {
	t.Parallel()

	h := FromRaw(0xFF_12_3456_789A)
	require.Equal(t, uint64(0x12_3456_789A), h.Raw())
	require.Equal(t, uint8(0x12), h.Len())
	require.Equal(t, uint32(0x3456_789A), h.CRC())
}

func TestHashWithDataPacking(t *testing.T) {
	t.Parallel()

	h := New("sound/bank/fighter")
	hwd := NewWithData(h, 0x123456)
	require.Equal(t, h, hwd.Hash40())
	require.Equal(t, uint32(0x123456), hwd.Data())
	require.Equal(t, uint32(h.Len())|0x123456<<8, hwd.LenAndData)

	// payload above 24 bits is masked off
	hwd.SetData(0xAB_FEDCBA)
	require.Equal(t, uint32(0xFEDCBA), hwd.Data())
	require.Equal(t, h, hwd.Hash40())

	other := New("x")
	hwd.SetHash40(other)
	require.Equal(t, other, hwd.Hash40())
	require.Equal(t, uint32(0xFEDCBA), hwd.Data())
}

func TestEncoding(t *testing.T) {
	t.Parallel()

	var buf [EncodedSize]byte
	hwd := NewWithData(New("a/b"), NoData)
	hwd.Put(buf[:])
	require.Equal(t, hwd, ReadHashWithData(buf[:]))
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF}, buf[5:8])

	// unused length bits survive a round trip
	h := Hash{CRC: 0xDEADBEEF, Len: 0xAABB_CC03}
	h.Put(buf[:])
	got := ReadHash(buf[:])
	require.Equal(t, h, got)
	require.Equal(t, uint8(3), got.Hash40().Len())
}

func TestLabels(t *testing.T) {
	t.Parallel()

	labels, err := ReadLabels(strings.NewReader("# comment\nfighter/mario\n\nstream:/sound\n"))
	require.NoError(t, err)
	require.Len(t, labels, 2)
	require.Equal(t, "fighter/mario", labels.Label(New("fighter/mario")))

	missing := New("not/present")
	require.Equal(t, missing.String(), labels.Label(missing))
	require.Equal(t, missing.String(), Hex{}.Label(missing))
}
