// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package meshchunk implements the shared "tag:u16, size:u32, payload"
// framing loop used by every composite container parser (animation,
// mesh, proto-mesh, model-mesh, morph-mesh, softskin, hierarchy, BSP),
// the way golang-debug/internal/core/process.go layers one bounded-read
// loop idiom under several typed readers.
package meshchunk

import (
	"log"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

// Chunk is one decoded section: its tag, a bounded sub-buffer covering
// exactly its declared payload, and the parent buffer/reader it was cut
// from (needed by the model-mesh `nodes` and `softskins` sections,
// whose embedded meshes run past their declared length).
type Chunk struct {
	Tag     uint16
	Sub     *buffer.Buffer
	SubR    *stream.Reader
	Parent  *buffer.Buffer
	ParentR *stream.Reader
	// Start is Parent's absolute position at the beginning of this
	// chunk's declared payload. A handler that distrusts the declared
	// size can rewind with Parent.SetPosition(Start) and read past it
	// directly through ParentR.
	Start uint64
}

// Resync marks Sub as fully consumed, suppressing the "leftover bytes"
// warning for a chunk whose handler read through Parent/ParentR instead
// of the bounded Sub view.
func (c Chunk) Resync() {
	c.Sub.SetPosition(c.Sub.Limit())
}

// Logger is used to report the tolerant "leftover bytes" warning issued
// when a chunk's declared size does not consume its whole sub-buffer;
// tests and hosts may redirect it.
var Logger = log.Default()

// Walk drives the chunked loop over r until isEnd reports true for a
// decoded chunk, or the buffer is exhausted. fn is called once per chunk
// with a bounded view of its payload; fn's own return error aborts the
// walk immediately — chunk decode failures are not tolerated, only
// leftover bytes within an otherwise-decoded chunk are.
func Walk(b *buffer.Buffer, formatName string, isEnd func(tag uint16) bool, fn func(Chunk) error) error {
	r := stream.New(b)
	for b.Remaining() > 0 {
		tag, err := r.U16()
		if err != nil {
			return err
		}
		size, err := r.U32()
		if err != nil {
			return err
		}
		start := b.Position()
		sub, err := b.Extract(uint64(size))
		if err != nil {
			return err
		}
		c := Chunk{Tag: tag, Sub: sub, SubR: stream.New(sub), Parent: b, ParentR: r, Start: start}
		if err := fn(c); err != nil {
			return err
		}
		if sub.Remaining() != 0 {
			Logger.Printf("warning: %s: %d bytes remaining in section 0x%04X", formatName, sub.Remaining(), tag)
		}
		if isEnd(tag) {
			return nil
		}
	}
	return nil
}
