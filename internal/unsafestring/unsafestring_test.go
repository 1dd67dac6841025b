// Copyright 2021 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package unsafestring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToBytes(t *testing.T) {
	for _, input := range []string{
		"",
		"abc",
		"fighter/mario/model/body/c00/model.numdlb",
	} {
		allocs := testing.AllocsPerRun(1, func() {
			b := ToBytes(input)
			if input != string(b) {
				t.Fatal("expected contents equal")
			}
			if len(input) != len(b) || len(input) != cap(b) {
				t.Fatal("expected len and cap equal to string len")
			}
		})
		require.Zero(t, allocs)
	}
}
