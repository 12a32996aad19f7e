// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"fmt"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

// binSafeType is the single-byte type code preceding every value in the
// BINSAFE encoding.
type binSafeType uint8

const (
	bsString binSafeType = 0x1
	bsInt    binSafeType = 0x2
	bsFloat  binSafeType = 0x3
	bsByte   binSafeType = 0x4
	bsWord   binSafeType = 0x5
	bsBool   binSafeType = 0x6
	bsVec3   binSafeType = 0x7
	bsColor  binSafeType = 0x8
	bsRaw    binSafeType = 0x9
	bsRawF   binSafeType = 0x10
	bsEnum   binSafeType = 0x11
	bsHash   binSafeType = 0x12
)

func (t binSafeType) String() string {
	switch t {
	case bsString:
		return "string"
	case bsInt:
		return "int"
	case bsFloat:
		return "float"
	case bsByte:
		return "byte"
	case bsWord:
		return "word"
	case bsBool:
		return "bool"
	case bsVec3:
		return "vec3"
	case bsColor:
		return "color"
	case bsRaw:
		return "raw"
	case bsRawF:
		return "rawfloat"
	case bsEnum:
		return "enum"
	case bsHash:
		return "hash"
	default:
		return fmt.Sprintf("unknown(0x%x)", uint8(t))
	}
}

// binSafeReader implements Reader over the BINSAFE encoding:
// a small name->offset symbol table at the head, followed by
// type-tagged binary values. Strings carry explicit length prefixes.
type binSafeReader struct {
	header  Header
	r       *stream.Reader
	res     resolver
	symbols []string // indexed by offset-table order; unused for decoding
	// bsVersion distinguishes the hash-table revision; currently
	// informational only, kept for forward compatibility with newer
	// archive.hh revisions.
	bsVersion uint32
}

func newBinSafeReader(h Header, buf *buffer.Buffer, r *stream.Reader) (*binSafeReader, error) {
	bs := &binSafeReader{header: h, r: r, res: newResolver()}
	if err := bs.readSymbolTable(); err != nil {
		return nil, err
	}
	return bs, nil
}

// readSymbolTable consumes the small header the BINSAFE encoding carries
// immediately after the textual preamble: an object count followed by
// hash-table bucket data that phoenix.hh's reference implementation
// otherwise discards (values are addressed positionally, not by name, so
// the symbol table itself is not needed for correct decoding — only its
// byte length must be consumed accurately).
func (bs *binSafeReader) readSymbolTable() error {
	count, err := bs.r.U32()
	if err != nil {
		return err
	}
	bs.bsVersion, err = bs.r.U32()
	if err != nil {
		return err
	}
	bs.symbols = make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		nameLen, err := bs.r.U32()
		if err != nil {
			return err
		}
		name, err := bs.r.String(int(nameLen))
		if err != nil {
			return err
		}
		if _, err := bs.r.U32(); err != nil { // hash value, unused
			return err
		}
		bs.symbols = append(bs.symbols, name)
	}
	return nil
}

func (bs *binSafeReader) Header() Header { return bs.header }

func (bs *binSafeReader) peek(fn func() (bool, error)) (bool, error) {
	bs.r.B.Mark()
	ok, err := fn()
	if err != nil || !ok {
		bs.r.B.Reset()
	}
	return ok, err
}

func (bs *binSafeReader) readType() (binSafeType, error) {
	v, err := bs.r.U8()
	return binSafeType(v), err
}

func (bs *binSafeReader) expect(want binSafeType) error {
	got, err := bs.readType()
	if err != nil {
		return err
	}
	if got != want {
		return &ParseError{Reason: fmt.Sprintf("binsafe: expected type %v, found %v", want, got)}
	}
	return nil
}

func (bs *binSafeReader) ReadObjectBegin() (Object, bool, error) {
	var obj Object
	ok, err := bs.peek(func() (bool, error) {
		if err := bs.expect(bsString); err != nil {
			return false, nil
		}
		objectName, err := bs.readRawString()
		if err != nil {
			return false, err
		}
		if objectName != "%" && objectName != "[" {
			// Not every implementation tags the begin marker's leading
			// string distinctly; fall through to treat it as the name.
		}
		if err := bs.expect(bsString); err != nil {
			return false, nil
		}
		className, err := bs.readRawString()
		if err != nil {
			return false, err
		}
		if err := bs.expect(bsWord); err != nil {
			return false, nil
		}
		version, err := bs.r.U16()
		if err != nil {
			return false, err
		}
		if err := bs.expect(bsInt); err != nil {
			return false, nil
		}
		index, err := bs.r.U32()
		if err != nil {
			return false, err
		}
		obj = Object{Name: objectName, ClassName: className, Version: version, Index: index}
		if className == forwardRefMarker {
			if ref, found := bs.res.resolve(index); found {
				obj = ref
			}
		} else {
			bs.res.record(obj)
		}
		return true, nil
	})
	return obj, ok, err
}

func (bs *binSafeReader) readRawString() (string, error) {
	n, err := bs.r.U16()
	if err != nil {
		return "", err
	}
	return bs.r.String(int(n))
}

func (bs *binSafeReader) ReadObjectEnd() (bool, error) {
	return bs.peek(func() (bool, error) {
		t, err := bs.readType()
		if err != nil {
			return false, nil
		}
		if t != bsString {
			return false, nil
		}
		s, err := bs.readRawString()
		if err != nil {
			return false, err
		}
		return s == "[]", nil
	})
}

func (bs *binSafeReader) SkipObject(skipCurrent bool) error {
	depth := 0
	if !skipCurrent {
		if _, ok, err := bs.ReadObjectBegin(); err != nil {
			return err
		} else if !ok {
			return &ParseError{Reason: "skip_object: expected begin marker"}
		}
	}
	depth = 1
	for depth > 0 {
		if ok, err := bs.ReadObjectEnd(); err != nil {
			return err
		} else if ok {
			depth--
			continue
		}
		if _, ok, err := bs.ReadObjectBegin(); err != nil {
			return err
		} else if ok {
			depth++
			continue
		}
		if err := bs.skipValue(); err != nil {
			return err
		}
	}
	return nil
}

func (bs *binSafeReader) skipValue() error {
	t, err := bs.readType()
	if err != nil {
		return err
	}
	switch t {
	case bsString:
		_, err = bs.readRawString()
	case bsInt, bsFloat, bsColor, bsEnum, bsHash:
		_, err = bs.r.U32()
	case bsByte:
		_, err = bs.r.U8()
	case bsWord:
		_, err = bs.r.U16()
	case bsBool:
		_, err = bs.r.U8()
	case bsVec3:
		_, err = bs.r.Vec3()
	case bsRaw, bsRawF:
		var n uint16
		n, err = bs.r.U16()
		if err == nil {
			_, err = bs.r.RawBytes(int(n))
		}
	default:
		return &ParseError{Reason: fmt.Sprintf("binsafe: cannot skip unknown type %v", t)}
	}
	return err
}

func (bs *binSafeReader) ReadInt() (int32, error) {
	if err := bs.expect(bsInt); err != nil {
		return 0, err
	}
	v, err := bs.r.I32()
	return v, err
}

func (bs *binSafeReader) ReadFloat() (float32, error) {
	if err := bs.expect(bsFloat); err != nil {
		return 0, err
	}
	return bs.r.Float32()
}

func (bs *binSafeReader) ReadByte() (uint8, error) {
	if err := bs.expect(bsByte); err != nil {
		return 0, err
	}
	return bs.r.U8()
}

func (bs *binSafeReader) ReadWord() (uint16, error) {
	if err := bs.expect(bsWord); err != nil {
		return 0, err
	}
	return bs.r.U16()
}

func (bs *binSafeReader) ReadEnum() (uint32, error) {
	if err := bs.expect(bsEnum); err != nil {
		return 0, err
	}
	return bs.r.U32()
}

func (bs *binSafeReader) ReadBool() (bool, error) {
	if err := bs.expect(bsBool); err != nil {
		return false, err
	}
	v, err := bs.r.U8()
	return v != 0, err
}

func (bs *binSafeReader) ReadString() (string, error) {
	if err := bs.expect(bsString); err != nil {
		return "", err
	}
	return bs.readRawString()
}

func (bs *binSafeReader) ReadColor() (Color, error) {
	if err := bs.expect(bsColor); err != nil {
		return Color{}, err
	}
	raw, err := bs.r.U32()
	if err != nil {
		return Color{}, err
	}
	return Color{
		A: uint8(raw >> 24),
		R: uint8(raw >> 16),
		G: uint8(raw >> 8),
		B: uint8(raw),
	}, nil
}

func (bs *binSafeReader) ReadVec2() ([2]float32, error) {
	if err := bs.expect(bsRawF); err != nil {
		return [2]float32{}, err
	}
	n, err := bs.r.U16()
	if err != nil {
		return [2]float32{}, err
	}
	if n != 8 {
		return [2]float32{}, &ParseError{Reason: "binsafe: vec2 rawfloat payload wrong size"}
	}
	raw, err := bs.r.RawBytes(int(n))
	if err != nil {
		return [2]float32{}, err
	}
	return [2]float32{leFloat(raw[0:4]), leFloat(raw[4:8])}, nil
}

func (bs *binSafeReader) ReadVec3() ([3]float32, error) {
	if err := bs.expect(bsVec3); err != nil {
		return [3]float32{}, err
	}
	return bs.r.Vec3()
}

func (bs *binSafeReader) ReadBBox() (BBox, error) {
	if err := bs.expect(bsRawF); err != nil {
		return BBox{}, err
	}
	n, err := bs.r.U16()
	if err != nil {
		return BBox{}, err
	}
	raw, err := bs.r.RawBytes(int(n))
	if err != nil {
		return BBox{}, err
	}
	if len(raw) < 24 {
		return BBox{}, &ParseError{Reason: "binsafe: bbox rawfloat payload too short"}
	}
	return BBox{
		Min: [3]float32{leFloat(raw[0:4]), leFloat(raw[4:8]), leFloat(raw[8:12])},
		Max: [3]float32{leFloat(raw[12:16]), leFloat(raw[16:20]), leFloat(raw[20:24])},
	}, nil
}

func (bs *binSafeReader) ReadMat3x3() ([9]float32, error) {
	var m [9]float32
	if err := bs.expect(bsRaw); err != nil {
		return m, err
	}
	n, err := bs.r.U16()
	if err != nil {
		return m, err
	}
	raw, err := bs.r.RawBytes(int(n))
	if err != nil {
		return m, err
	}
	if len(raw) < 36 {
		return m, &ParseError{Reason: "binsafe: mat3x3 raw payload too short"}
	}
	for i := 0; i < 9; i++ {
		m[i] = leFloat(raw[i*4 : i*4+4])
	}
	return m, nil
}

func (bs *binSafeReader) ReadRawBytes(n int) ([]byte, error) {
	if err := bs.expect(bsRaw); err != nil {
		return nil, err
	}
	declared, err := bs.r.U16()
	if err != nil {
		return nil, err
	}
	raw, err := bs.r.RawBytes(int(declared))
	if err != nil {
		return nil, err
	}
	if n >= 0 && n < len(raw) {
		return raw[:n], nil
	}
	return raw, nil
}
