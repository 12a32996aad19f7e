// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package archive reads ZenGin object archives (`.ZEN` files): a
// polymorphic object graph serialized in one of three on-disk encodings
// (ASCII, BINARY, BINSAFE) behind a single Reader interface, following
// the dispatch-on-header pattern of a DWARF symbol table reader that
// hands back typed entries regardless of the underlying section
// encoding.
package archive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

// Encoding identifies one of the three archive value encodings.
type Encoding int

const (
	EncodingASCII Encoding = iota
	EncodingBinary
	EncodingBinSafe
)

func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ASCII"
	case EncodingBinary:
		return "BINARY"
	case EncodingBinSafe:
		return "BIN_SAFE"
	default:
		return "unknown"
	}
}

// forwardRefMarker is the single-byte class_name signaling that an
// object begin marker is a forward reference rather than a new object.
const forwardRefMarker = "\xA7"

// Header is the short textual preamble common to every encoding:
// `ZenGin Archive`, `ver`, archiver, format, optional save flag,
// user, date, terminated by a literal `END` line.
type Header struct {
	Version  int
	Archiver string // zCArchiverGeneric | zCArchiverBinSafe
	Format   Encoding
	Save     bool
	User     string
	Date     string
}

// ParseError reports an archive structural or type-mismatch failure.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "archive: " + e.Reason }

// Object describes one archive object's begin marker.
type Object struct {
	Name      string
	ClassName string
	Version   uint16
	Index     uint32
}

// Reader is the common interface exposed by all three archive
// encodings.
type Reader interface {
	Header() Header

	ReadObjectBegin() (Object, bool, error)
	ReadObjectEnd() (bool, error)
	SkipObject(skipCurrent bool) error

	ReadInt() (int32, error)
	ReadFloat() (float32, error)
	ReadByte() (uint8, error)
	ReadWord() (uint16, error)
	ReadEnum() (uint32, error)
	ReadBool() (bool, error)
	ReadString() (string, error)
	ReadColor() (Color, error)
	ReadVec2() ([2]float32, error)
	ReadVec3() ([3]float32, error)
	ReadBBox() (BBox, error)
	ReadMat3x3() ([9]float32, error)
	ReadRawBytes(n int) ([]byte, error)
}

// Color is a BGRA 8-bit-per-channel color.
type Color struct {
	B, G, R, A uint8
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min, Max [3]float32
}

// Open reads the textual header from b and returns a Reader dispatched
// to the encoding it names.
func Open(b *buffer.Buffer) (Reader, error) {
	r := stream.New(b)
	header, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	switch header.Format {
	case EncodingASCII:
		return newASCIIReader(header, r), nil
	case EncodingBinary:
		return newBinaryReader(header, r), nil
	case EncodingBinSafe:
		return newBinSafeReader(header, b, r)
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unsupported format %v", header.Format)}
	}
}

func parseHeader(r *stream.Reader) (Header, error) {
	var h Header

	line, err := r.Line(true)
	if err != nil {
		return h, err
	}
	if line != "ZenGin Archive" {
		return h, &ParseError{Reason: fmt.Sprintf("bad magic line %q", line)}
	}

	for {
		line, err = r.Line(true)
		if err != nil {
			return h, err
		}
		if line == "END" {
			break
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			key, value, ok = strings.Cut(line, "\t")
		}
		if !ok {
			// A bare line such as "ASCII" or "zCArchiverGeneric" is a
			// key with no value.
			key, value = line, ""
		}

		switch key {
		case "ver":
			v, err := strconv.Atoi(value)
			if err != nil {
				return h, &ParseError{Reason: fmt.Sprintf("bad version %q", value)}
			}
			h.Version = v
		case "zCArchiverGeneric", "zCArchiverBinSafe":
			h.Archiver = key
		default:
			switch key {
			case "ASCII":
				h.Format = EncodingASCII
			case "BINARY":
				h.Format = EncodingBinary
			case "BIN_SAFE":
				h.Format = EncodingBinSafe
			case "saveGame":
				h.Save = value == "1"
			case "user":
				h.User = value
			case "date":
				h.Date = value
			}
		}
	}

	return h, nil
}

// resolver tracks objects completed in the current archive, indexed by
// their begin-marker Index, so a later forward reference (class_name ==
// forwardRefMarker) can resolve to the same Object instead of
// re-parsing it.
type resolver struct {
	completed map[uint32]Object
}

func newResolver() resolver {
	return resolver{completed: make(map[uint32]Object)}
}

func (res *resolver) record(obj Object) {
	res.completed[obj.Index] = obj
}

func (res *resolver) resolve(index uint32) (Object, bool) {
	obj, ok := res.completed[index]
	return obj, ok
}
