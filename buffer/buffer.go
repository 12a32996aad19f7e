// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buffer implements the zero-copy byte cursor shared by every
// parser in this module: a view over a backing byte source with its own
// position, limit and capacity, plus slice/fork/extract operations for
// carving out sub-views without copying.
package buffer

import "fmt"

// Error is returned for out-of-range reads and writes against a Buffer.
// Kind distinguishes the two failure modes a bounds check can report.
type Error struct {
	Kind     Kind
	Offset   uint64
	Size     uint64
	Capacity uint64
}

// Kind enumerates the two buffer failure modes.
type Kind int

const (
	// Underflow is returned when a read runs past the limit.
	Underflow Kind = iota
	// Overflow is returned when a write runs past the limit.
	Overflow
)

func (e *Error) Error() string {
	name := "underflow"
	if e.Kind == Overflow {
		name = "overflow"
	}
	return fmt.Sprintf("buffer: %s at offset %d, size %d (capacity %d)", name, e.Offset, e.Size, e.Capacity)
}

// backing is the shared byte source a family of Buffers is forked/sliced
// from; it must outlive every Buffer derived from it.
type backing interface {
	readAt(dst []byte, off uint64) error
	writeAt(src []byte, off uint64) error
	size() uint64
	readOnly() bool
}

// Buffer is a cursor over a shared backing: 0 <= position <= limit <=
// capacity. Sub-buffers created with Slice or Fork share the backing but
// have an independent position.
type Buffer struct {
	back  backing
	begin uint64 // offset of position 0 within back
	end   uint64 // offset of the limit within back
	cap   uint64 // capacity, i.e. the limit this buffer was constructed with
	pos   uint64 // current position, relative to begin
	markSet bool
	mark  uint64
}

// Allocate returns a Buffer over a newly allocated, zeroed, writable
// backing of the given size.
func Allocate(size uint64) *Buffer {
	return newBuffer(&heapBacking{data: make([]byte, size)})
}

// Wrap returns a Buffer over the given bytes. If readOnly is false the
// backing may be mutated via Put; the slice is used directly, not copied.
func Wrap(data []byte, readOnly bool) *Buffer {
	return newBuffer(&heapBacking{data: data, readonly: readOnly})
}

// FromFile reads the named file fully into memory and returns a read-only
// Buffer over it. Use Open for a memory-mapped, lazily-paged alternative.
func FromFile(path string) (*Buffer, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Wrap(data, true), nil
}

func newBuffer(b backing) *Buffer {
	return &Buffer{back: b, begin: 0, end: b.size(), cap: b.size(), pos: 0}
}

func (b *Buffer) fork(begin, end uint64) *Buffer {
	return &Buffer{back: b.back, begin: begin, end: end, cap: end - begin, pos: 0}
}

// Position returns the current read/write offset, relative to this
// Buffer's own window onto the backing.
func (b *Buffer) Position() uint64 { return b.pos }

// Limit returns the usable end of this Buffer's window.
func (b *Buffer) Limit() uint64 { return b.end - b.begin }

// Capacity returns the capacity this Buffer was constructed with; Limit
// may be narrower after a call to SetLimit.
func (b *Buffer) Capacity() uint64 { return b.cap }

// Remaining returns Limit - Position.
func (b *Buffer) Remaining() uint64 { return b.Limit() - b.pos }

// SetPosition moves the cursor. It fails with Underflow if new > Limit().
func (b *Buffer) SetPosition(new uint64) error {
	if new > b.Limit() {
		return &Error{Kind: Underflow, Offset: new, Size: 0, Capacity: b.Limit()}
	}
	if b.markSet && b.mark > new {
		b.markSet = false
	}
	b.pos = new
	return nil
}

// Skip advances the position by n bytes, failing with Underflow if that
// would run past the limit.
func (b *Buffer) Skip(n uint64) error {
	if b.Remaining() < n {
		return &Error{Kind: Underflow, Offset: b.pos, Size: n, Capacity: b.Limit()}
	}
	b.pos += n
	return nil
}

// SetLimit narrows the usable end of the Buffer to n bytes from begin,
// clamping the position if necessary. n must not exceed Capacity.
func (b *Buffer) SetLimit(n uint64) error {
	if n > b.cap {
		return &Error{Kind: Overflow, Offset: n, Size: 0, Capacity: b.cap}
	}
	if n < b.pos {
		b.pos = n
	}
	b.end = b.begin + n
	if b.markSet && b.mark > n {
		b.markSet = false
	}
	return nil
}

// Mark saves the current position for a later Reset.
func (b *Buffer) Mark() {
	b.mark = b.pos
	b.markSet = true
}

// Reset restores the position saved by the most recent Mark. It is a
// no-op if Mark was never called.
func (b *Buffer) Reset() {
	if b.markSet {
		b.pos = b.mark
	}
}

// Rewind resets the position to zero and clears any saved mark.
func (b *Buffer) Rewind() {
	b.pos = 0
	b.markSet = false
}

// Duplicate returns an independent Buffer over the same backing and
// window, starting at the same position.
func (b *Buffer) Duplicate() *Buffer {
	dup := *b
	return &dup
}

// Slice returns a new Buffer sharing the backing, covering [index,
// index+size) of this Buffer's window. It does not advance this Buffer's
// position. It fails with Underflow if index+size exceeds the limit.
func (b *Buffer) Slice(index, size uint64) (*Buffer, error) {
	if index+size > b.Limit() {
		return nil, &Error{Kind: Underflow, Offset: index, Size: size, Capacity: b.Limit()}
	}
	return b.fork(b.begin+index, b.begin+index+size), nil
}

// Fork is equivalent to Slice(Position(), size) followed by advancing this
// Buffer's position past the forked region.
func (b *Buffer) Fork(size uint64) (*Buffer, error) {
	sub, err := b.Slice(b.pos, size)
	if err != nil {
		return nil, err
	}
	b.pos += size
	return sub, nil
}

// Extract is the primary chunking primitive: it forks a sub-buffer of the
// given size starting at the current position and advances past it,
// exactly like Fork. The distinct name matches the chunk-extraction
// terminology used throughout §4.5 of the format's parsers.
func (b *Buffer) Extract(size uint64) (*Buffer, error) {
	return b.Fork(size)
}

// Bytes returns a copy of the n bytes starting at index within this
// Buffer's window, without touching the position.
func (b *Buffer) Bytes(index, n uint64) ([]byte, error) {
	if index+n > b.Limit() {
		return nil, &Error{Kind: Underflow, Offset: index, Size: n, Capacity: b.Limit()}
	}
	out := make([]byte, n)
	if err := b.back.readAt(out, b.begin+index); err != nil {
		return nil, err
	}
	return out, nil
}

// ToBytes returns a copy of this Buffer's whole window, from index 0 to
// the limit, whatever the current position; the position is unchanged.
func (b *Buffer) ToBytes() ([]byte, error) {
	return b.Bytes(0, b.Limit())
}

// Get reads len(dst) bytes starting at position and advances past them.
func (b *Buffer) Get(dst []byte) error {
	n := uint64(len(dst))
	if b.Remaining() < n {
		return &Error{Kind: Underflow, Offset: b.pos, Size: n, Capacity: b.Limit()}
	}
	if err := b.back.readAt(dst, b.begin+b.pos); err != nil {
		return err
	}
	b.pos += n
	return nil
}

// GetAt reads len(dst) bytes at the given absolute index within this
// Buffer's window, without touching the position.
func (b *Buffer) GetAt(index uint64, dst []byte) error {
	n := uint64(len(dst))
	if index+n > b.Limit() {
		return &Error{Kind: Underflow, Offset: index, Size: n, Capacity: b.Limit()}
	}
	return b.back.readAt(dst, b.begin+index)
}

// Put writes len(src) bytes at the position and advances past them. It
// fails with Overflow if that would run past the limit, or if the backing
// is read-only.
func (b *Buffer) Put(src []byte) error {
	n := uint64(len(src))
	if b.Remaining() < n {
		return &Error{Kind: Overflow, Offset: b.pos, Size: n, Capacity: b.Limit()}
	}
	if err := b.back.writeAt(src, b.begin+b.pos); err != nil {
		return err
	}
	b.pos += n
	return nil
}

// ReadOnly reports whether writes to this Buffer will fail.
func (b *Buffer) ReadOnly() bool { return b.back.readOnly() }
