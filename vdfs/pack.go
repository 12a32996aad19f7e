// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdfs

import (
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/compat"
	"github.com/kharnas/zengin/stream"
)

// Pack serializes f back into VDF bytes such that
// Open(Pack(f)) reproduces f's tree shape. This is a "trivial"
// round-trip writer; it does not attempt to reproduce the
// byte-for-byte layout of a tool-authored VDF.
func Pack(f *File) ([]byte, error) {
	flat := flattenCatalog(f.Children)

	catalogSize := uint64(len(flat)) * entrySize
	dataSize := uint64(0)
	for _, e := range flat {
		if !e.IsDirectory() {
			dataSize += uint64(e.Size)
		}
	}

	total := headerSize + catalogSize + dataSize
	out := buffer.Allocate(total)
	w := stream.NewWriter(out)

	comment := make([]byte, commentSize)
	copy(comment, f.Header.Comment)
	if err := w.PutString(string(comment)); err != nil {
		return nil, err
	}
	sig := f.Header.Signature
	if sig == "" {
		sig = signatureG2
	}
	if err := w.PutString(sig); err != nil {
		return nil, err
	}

	entryCount := uint32(0)
	fileCount := uint32(0)
	for _, e := range flat {
		entryCount++
		if !e.IsDirectory() {
			fileCount++
		}
	}

	catalogOffset := uint32(headerSize)
	dosTime := compat.UnixToDOS(f.Header.Timestamp)

	if err := w.PutU32(entryCount); err != nil {
		return nil, err
	}
	if err := w.PutU32(fileCount); err != nil {
		return nil, err
	}
	if err := w.PutU32(dosTime); err != nil {
		return nil, err
	}
	if err := w.PutU32(uint32(total)); err != nil {
		return nil, err
	}
	if err := w.PutU32(catalogOffset); err != nil {
		return nil, err
	}
	if err := w.PutU32(requiredVersion); err != nil {
		return nil, err
	}

	dataCursor := headerSize + catalogSize
	for _, e := range flat {
		if err := w.PutPadded(e.Name, nameSize); err != nil {
			return nil, err
		}

		var offset, size uint32
		flags := e.Flags
		if e.IsDirectory() {
			offset = e.blockIndex
			size = 0
		} else {
			offset = uint32(dataCursor)
			size = e.Size
		}

		if err := w.PutU32(offset); err != nil {
			return nil, err
		}
		if err := w.PutU32(size); err != nil {
			return nil, err
		}
		if err := w.PutU32(flags); err != nil {
			return nil, err
		}
		if err := w.PutU32(e.Attributes); err != nil {
			return nil, err
		}

		if !e.IsDirectory() {
			dataCursor += uint64(e.Size)
		}
	}

	if err := out.SetPosition(headerSize + catalogSize); err != nil {
		return nil, err
	}
	for _, e := range flat {
		if e.IsDirectory() {
			continue
		}
		data, err := e.data.ToBytes()
		if err != nil {
			return nil, err
		}
		if err := w.B.Put(data); err != nil {
			return nil, err
		}
	}

	return out.ToBytes()
}

// flatEntry mirrors Entry plus the flattened block index assigned to its
// children, for serialization bookkeeping only.
type flatEntry struct {
	*Entry
	blockIndex uint32
}

// flattenCatalog lays the catalog out breadth-first: each directory's
// children occupy one contiguous block of the flat catalog, addressed by
// block index. The reader follows those block indices, so it does not
// depend on the blocks' order.
func flattenCatalog(root []*Entry) []*flatEntry {
	var flat []*flatEntry
	type queued struct {
		children []*Entry
		slot     *flatEntry // directory entry whose blockIndex to fill in, nil for root
	}
	queue := []queued{{children: root}}

	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]

		blockStart := uint32(len(flat))
		if q.slot != nil {
			q.slot.blockIndex = blockStart
		}
		for i, c := range q.children {
			copyOfC := *c
			flags := copyOfC.Flags &^ flagLast
			if i == len(q.children)-1 {
				flags |= flagLast
			}
			copyOfC.Flags = flags
			fe := &flatEntry{Entry: &copyOfC}
			flat = append(flat, fe)
			if c.IsDirectory() {
				queue = append(queue, queued{children: c.Children, slot: fe})
			}
		}
	}
	return flat
}
