// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package hash40

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Labeler turns a hash back into something a human can read.  It is only
// ever used for log and panic messages, never to make decisions.
type Labeler interface {
	Label(h Hash40) string
}

// Hex is the Labeler used when nothing better is available.
type Hex struct{}

func (Hex) Label(h Hash40) string {
	return h.String()
}

// Labels is a Labeler backed by a map of known strings.
type Labels map[Hash40]string

// Add records s under its hash.
func (l Labels) Add(s string) Hash40 {
	h := New(s)
	l[h] = s
	return h
}

func (l Labels) Label(h Hash40) string {
	if s, ok := l[h]; ok {
		return s
	}
	return h.String()
}

// ReadLabels reads newline-separated strings from r.  Blank lines and lines
// starting with '#' are skipped.
func ReadLabels(r io.Reader) (Labels, error) {
	labels := make(Labels)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels.Add(line)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scanner: %w", err)
	}
	return labels, nil
}
