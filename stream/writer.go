// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stream

import (
	"math"

	"github.com/kharnas/zengin/buffer"
)

// Writer encodes little-endian scalars and strings into a buffer.Buffer.
// vdfs.Pack uses it to repack VDF catalogs, and the package tests use
// it to build their binary fixtures.
type Writer struct {
	B *buffer.Buffer
}

// NewWriter wraps b in a Writer.
func NewWriter(b *buffer.Buffer) *Writer { return &Writer{B: b} }

func (w *Writer) PutU8(v uint8) error { return w.B.Put([]byte{v}) }

func (w *Writer) PutU16(v uint16) error {
	return w.B.Put([]byte{byte(v), byte(v >> 8)})
}

func (w *Writer) PutU32(v uint32) error {
	return w.B.Put([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func (w *Writer) PutU64(v uint64) error {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	return w.B.Put(buf)
}

func (w *Writer) PutFloat32(v float32) error {
	return w.PutU32(math.Float32bits(v))
}

func (w *Writer) PutString(s string) error {
	return w.B.Put([]byte(s))
}

// PutPadded writes s truncated or space-padded to exactly n bytes.
func (w *Writer) PutPadded(s string, n int) error {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = ' '
	}
	copy(buf, s)
	return w.B.Put(buf)
}
