// Copyright 2021 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build !unix

package mmap

import (
	"io"
	"os"
)

// mapFile falls back to reading the file into memory.  The result behaves
// like a private mapping.
func mapFile(f *os.File, size int, _ Mode) ([]byte, bool, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, false, err
	}
	return data, false, nil
}

func unmap([]byte) error {
	return nil
}
