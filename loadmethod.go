// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package arcdb

import (
	"fmt"

	"github.com/bpowers/arcdb/hash40"
)

// LoadKind is the top byte of a descriptor's load method, selecting how
// the payload is interpreted.
type LoadKind uint8

const (
	// LoadUnowned: payload is a FileEntity index.
	LoadUnowned LoadKind = 0x00
	// LoadOwned: payload indexes the versioned patch section.
	LoadOwned LoadKind = 0x01
	// LoadPackageSkip: payload is a FileInfo index.
	LoadPackageSkip LoadKind = 0x03
	// LoadUnknown carries no payload.
	LoadUnknown LoadKind = 0x05
	// LoadSharedButOwned: payload is a FileEntity index.
	LoadSharedButOwned LoadKind = 0x09
	// LoadUnsupportedRegionLocale: payload is a locale or region.
	LoadUnsupportedRegionLocale LoadKind = 0x10
)

// Known reports whether k is one of the kinds the format defines.  Other
// kinds are carried through untouched.
func (k LoadKind) Known() bool {
	switch k {
	case LoadUnowned, LoadOwned, LoadPackageSkip, LoadUnknown, LoadSharedButOwned, LoadUnsupportedRegionLocale:
		return true
	}
	return false
}

func (k LoadKind) String() string {
	switch k {
	case LoadUnowned:
		return "unowned"
	case LoadOwned:
		return "owned"
	case LoadPackageSkip:
		return "package-skip"
	case LoadUnknown:
		return "unknown"
	case LoadSharedButOwned:
		return "shared-but-owned"
	case LoadUnsupportedRegionLocale:
		return "unsupported-region-locale"
	}
	return fmt.Sprintf("opaque(%#02x)", uint8(k))
}

// LoadMethod is a tagged variant packed into 32 bits: an 8-bit kind and a
// 24-bit payload.  Values round-trip bit for bit, including kinds this
// package does not recognize.
type LoadMethod struct {
	raw uint32
}

// NewLoadMethod packs kind and payload.  Payload bits above 24 are dropped.
func NewLoadMethod(kind LoadKind, payload uint32) LoadMethod {
	if kind == LoadUnknown {
		payload = 0
	}
	return LoadMethod{raw: uint32(kind)<<24 | payload&hash40.DataMask}
}

// LoadMethodFromRaw wraps an on-disk value.
func LoadMethodFromRaw(raw uint32) LoadMethod {
	return LoadMethod{raw: raw}
}

// Raw is the on-disk value.
func (m LoadMethod) Raw() uint32 { return m.raw }

// Kind is the variant tag.
func (m LoadMethod) Kind() LoadKind { return LoadKind(m.raw >> 24) }

// Payload is the 24-bit value the kind qualifies.
func (m LoadMethod) Payload() uint32 { return m.raw & hash40.DataMask }

// IsOwned reports whether the file is owned by the versioned section.
func (m LoadMethod) IsOwned() bool { return m.Kind() == LoadOwned }

// IsSkip reports whether the loader skips to another FileInfo.
func (m LoadMethod) IsSkip() bool { return m.Kind() == LoadPackageSkip }

func (m LoadMethod) String() string {
	if m.Kind() == LoadUnknown {
		return m.Kind().String()
	}
	return fmt.Sprintf("%s(%#x)", m.Kind(), m.Payload())
}
