// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"errors"

	"github.com/bpowers/arcdb/internal/table"
)

var (
	// ErrBadMagic is returned when an archive does not start with the
	// archive magic number.
	ErrBadMagic = errors.New("bad magic number: not an archive or corrupted")
	// ErrUnsupported is returned for well-formed headers declaring format
	// constants this package does not handle.
	ErrUnsupported = errors.New("unsupported format")
	// ErrTruncated is returned when a header or region runs past the end
	// of the buffer.
	ErrTruncated = table.ErrTruncated
	// ErrCorrupt is returned when data is in bounds but inconsistent.
	ErrCorrupt = table.ErrCorrupt
	// ErrInconsistent is returned by Reserialize when paired tables and
	// lookups have drifted apart.  Nothing is modified.
	ErrInconsistent = errors.New("lookup and table lengths disagree")
	// ErrStaleGuard is the panic value (wrapped) raised when a write
	// guard is used after another guard was issued or the database was
	// reserialized.
	ErrStaleGuard = errors.New("stale write guard")
	// ErrClosed is returned when using a database after Close.
	ErrClosed = errors.New("database closed")
)
