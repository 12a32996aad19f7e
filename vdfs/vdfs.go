// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vdfs parses and queries VDF ("Virtual Data File") containers,
// ZenGin's mountable archive format: a flat, depth-first catalog of
// directory/file entries with a last-sibling bitflag, rebuilt here into an
// in-memory tree.
package vdfs

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/compat"
	"github.com/kharnas/zengin/stream"
)

const (
	signatureG1 = "PSVDSC_V2.00\r\n\r\n"
	signatureG2 = "PSVDSC_V2.00\n\r\n\r"

	headerSize     = 296
	commentSize    = 256
	sigSize        = 16
	nameSize       = 64
	entrySize      = nameSize + 4*4
	flagDirectory  = 0x80000000
	flagLast       = 0x40000000
	requiredVersion = 0x50
)

// ParseError reports a VDF structural failure.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "vdfs: " + e.Reason }

// Header is the 296-byte VDF preamble.
type Header struct {
	Comment      string
	Signature    string
	EntryCount   uint32
	FileCount    uint32
	Timestamp    time.Time
	TotalSize    uint32
	CatalogOffset uint32
	Version      uint32
}

// Entry is one node of the parsed catalog tree.
type Entry struct {
	Name     string
	Offset   uint32
	Size     uint32
	Flags    uint32
	Attributes uint32
	Children []*Entry // only populated for directories, sorted by case-insensitive name

	data *buffer.Buffer // owning view into the container's backing; nil for directories
}

// IsDirectory reports whether the entry is a directory.
func (e *Entry) IsDirectory() bool { return e.Flags&flagDirectory != 0 }

// Open returns a fresh Buffer view over a file entry's bytes. It fails if
// called on a directory.
func (e *Entry) Open() (*buffer.Buffer, error) {
	if e.IsDirectory() {
		return nil, fmt.Errorf("vdfs: %q is a directory", e.Name)
	}
	return e.data.Duplicate(), nil
}

// File is a parsed VDF container: a header plus the root entries of the
// catalog tree (the root itself has no entry; Children holds the
// top-level siblings).
type File struct {
	Header   Header
	Children []*Entry
	backing  *buffer.Buffer
}

// Parse decodes a VDF container from b. b must remain valid for the
// lifetime of every Entry returned (each entry's buffer is a view into
// it).
func Parse(b *buffer.Buffer) (*File, error) {
	r := stream.New(b)

	commentBytes, err := r.RawBytes(commentSize)
	if err != nil {
		return nil, err
	}
	sig, err := r.String(sigSize)
	if err != nil {
		return nil, err
	}
	if sig != signatureG1 && sig != signatureG2 {
		return nil, &ParseError{Reason: fmt.Sprintf("unrecognized signature %q (third-party VDFs are not supported)", sig)}
	}

	entryCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	fileCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	timestamp, err := r.U32()
	if err != nil {
		return nil, err
	}
	totalSize, err := r.U32()
	if err != nil {
		return nil, err
	}
	catalogOffset, err := r.U32()
	if err != nil {
		return nil, err
	}
	version, err := r.U32()
	if err != nil {
		return nil, err
	}

	f := &File{
		Header: Header{
			Comment:       strings.TrimRight(string(commentBytes), "\x00 "),
			Signature:     sig,
			EntryCount:    entryCount,
			FileCount:     fileCount,
			Timestamp:     compat.DOSToUnix(timestamp),
			TotalSize:     totalSize,
			CatalogOffset: catalogOffset,
			Version:       version,
		},
		backing: b,
	}

	if err := b.SetPosition(uint64(catalogOffset)); err != nil {
		return nil, err
	}
	children, _, err := readSiblings(r, b, uint64(catalogOffset))
	if err != nil {
		return nil, err
	}
	f.Children = children
	return f, nil
}

// readSiblings reads entries starting at the stream's current position
// until one with the LAST flag is consumed recursive
// catalog walk. A directory entry's offset is an entry index counted
// from catalogOffset, not an absolute byte position.
func readSiblings(r *stream.Reader, backing *buffer.Buffer, catalogOffset uint64) ([]*Entry, bool, error) {
	var siblings []*Entry
	for {
		nameBytes, err := r.RawBytes(nameSize)
		if err != nil {
			return nil, false, err
		}
		offset, err := r.U32()
		if err != nil {
			return nil, false, err
		}
		size, err := r.U32()
		if err != nil {
			return nil, false, err
		}
		flags, err := r.U32()
		if err != nil {
			return nil, false, err
		}
		attrs, err := r.U32()
		if err != nil {
			return nil, false, err
		}

		e := &Entry{
			Name:       strings.TrimRight(string(nameBytes), " "),
			Offset:     offset,
			Size:       size,
			Flags:      flags,
			Attributes: attrs,
		}

		if e.IsDirectory() {
			saved := r.B.Position()
			if err := r.B.SetPosition(catalogOffset + uint64(e.Offset)*entrySize); err != nil {
				return nil, false, err
			}
			children, _, err := readSiblings(r, backing, catalogOffset)
			if err != nil {
				return nil, false, err
			}
			e.Children = children
			sortChildren(e.Children)
			if err := r.B.SetPosition(saved); err != nil {
				return nil, false, err
			}
		} else {
			cap := backing.Capacity()
			if uint64(e.Offset)+uint64(e.Size) > cap {
				logger.Printf("vdfs: entry %q offset+size exceeds container capacity; truncating to empty", e.Name)
				e.data = buffer.Allocate(0)
			} else {
				data, err := backing.Slice(uint64(e.Offset), uint64(e.Size))
				if err != nil {
					logger.Printf("vdfs: entry %q: %v; truncating to empty", e.Name, err)
					data = buffer.Allocate(0)
				}
				e.data = data
			}
		}

		siblings = append(siblings, e)
		if flags&flagLast != 0 {
			break
		}
	}
	return siblings, true, nil
}

func sortChildren(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToUpper(entries[i].Name) < strings.ToUpper(entries[j].Name)
	})
}
