// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package section

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, payload := range [][]byte{
		{},
		[]byte("resource table"),
		bytes.Repeat([]byte{0xAB, 0x00, 0x12}, 4096),
	} {
		buf := Append([]byte("prefix"), payload)
		require.Equal(t, []byte("prefix"), buf[:6])

		var h Header
		require.NoError(t, h.UnmarshalBytes(buf[6:]))
		require.Equal(t, uint32(len(payload)), h.DecompressedSize)
		require.Equal(t, uint32(len(buf)-6), h.SectionSize)

		got, err := Read(buf[6:], nil)
		require.NoError(t, err)
		require.Equal(t, len(payload), len(got))
		require.True(t, bytes.Equal(payload, got))
	}
}

func TestReadErrors(t *testing.T) {
	t.Parallel()

	_, err := Read(make([]byte, 4), nil)
	require.ErrorIs(t, err, ErrTruncated)

	buf := Append(nil, []byte("some payload that compresses"))
	_, err = Read(buf[:len(buf)-1], nil)
	require.ErrorIs(t, err, ErrTruncated)

	var h Header
	require.NoError(t, h.UnmarshalBytes(buf))
	h.DecompressedSize++
	h.MarshalTo(buf)
	_, err = Read(buf, nil)
	require.ErrorIs(t, err, ErrCorrupt)

	h.DataStart = 4
	h.MarshalTo(buf)
	_, err = Read(buf, nil)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestCustomDecompressor(t *testing.T) {
	t.Parallel()

	buf := Append(nil, []byte("payload"))
	called := false
	d := DecompressorFunc(func(compressed []byte, size int) ([]byte, error) {
		called = true
		require.Equal(t, 7, size)
		return nil, errors.New("boom")
	})
	_, err := Read(buf, d)
	require.EqualError(t, err, "boom")
	require.True(t, called)
}
