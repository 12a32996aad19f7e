// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buffer

import (
	"fmt"
	"os"

	"golang.org/x/exp/mmap"
)

// heapBacking stores bytes on the Go heap, either owned (allocated here)
// or supplied by the caller via Wrap.
type heapBacking struct {
	data     []byte
	readonly bool
}

func (h *heapBacking) size() uint64   { return uint64(len(h.data)) }
func (h *heapBacking) readOnly() bool { return h.readonly }

func (h *heapBacking) readAt(dst []byte, off uint64) error {
	if off+uint64(len(dst)) > h.size() {
		return &Error{Kind: Underflow, Offset: off, Size: uint64(len(dst)), Capacity: h.size()}
	}
	copy(dst, h.data[off:off+uint64(len(dst))])
	return nil
}

func (h *heapBacking) writeAt(src []byte, off uint64) error {
	if h.readonly {
		return fmt.Errorf("buffer: write to read-only backing")
	}
	if off+uint64(len(src)) > h.size() {
		return &Error{Kind: Overflow, Offset: off, Size: uint64(len(src)), Capacity: h.size()}
	}
	copy(h.data[off:off+uint64(len(src))], src)
	return nil
}

// mmapBacking memory-maps a file read-only via golang.org/x/exp/mmap,
// matching the technique golang-debug's internal/core/process.go performs
// by hand with syscall.Mmap, but through the packaged ecosystem reader.
type mmapBacking struct {
	r *mmap.ReaderAt
}

// Open memory-maps the named file read-only and returns a Buffer over it.
// The returned Buffer (and every Buffer forked from it) is only valid
// while the mapping is open; call Close when done.
func Open(path string) (*Buffer, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("buffer: open %s: %w", path, err)
	}
	return newBuffer(&mmapBacking{r: r}), nil
}

// Close releases the memory mapping backing b, if any. It is safe to call
// on a Buffer not backed by a mapping (a no-op in that case).
func (b *Buffer) Close() error {
	if m, ok := b.back.(*mmapBacking); ok {
		return m.r.Close()
	}
	return nil
}

func (m *mmapBacking) size() uint64   { return uint64(m.r.Len()) }
func (m *mmapBacking) readOnly() bool { return true }

func (m *mmapBacking) readAt(dst []byte, off uint64) error {
	if off+uint64(len(dst)) > m.size() {
		return &Error{Kind: Underflow, Offset: off, Size: uint64(len(dst)), Capacity: m.size()}
	}
	_, err := m.r.ReadAt(dst, int64(off))
	return err
}

func (m *mmapBacking) writeAt([]byte, uint64) error {
	return fmt.Errorf("buffer: write to memory-mapped read-only backing")
}

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
