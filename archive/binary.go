// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"github.com/kharnas/zengin/stream"
)

// binaryReader implements Reader over the BINARY encoding:
// fixed-width fields with no type tags — the caller must know the class
// schema of the surrounding object. Object begin is a length-prefixed
// chunk; end is a zero-length chunk.
type binaryReader struct {
	header Header
	r      *stream.Reader
	res    resolver
}

func newBinaryReader(h Header, r *stream.Reader) *binaryReader {
	return &binaryReader{header: h, r: r, res: newResolver()}
}

func (b *binaryReader) Header() Header { return b.header }

func (b *binaryReader) peek(fn func() (bool, error)) (bool, error) {
	b.r.B.Mark()
	ok, err := fn()
	if err != nil || !ok {
		b.r.B.Reset()
	}
	return ok, err
}

func (b *binaryReader) ReadObjectBegin() (Object, bool, error) {
	var obj Object
	ok, err := b.peek(func() (bool, error) {
		chunkSize, err := b.r.U32()
		if err != nil {
			return false, nil
		}
		if chunkSize == 0 {
			return false, nil
		}
		version, err := b.r.U16()
		if err != nil {
			return false, err
		}
		index, err := b.r.U32()
		if err != nil {
			return false, err
		}
		objectName, err := b.r.NulString()
		if err != nil {
			return false, err
		}
		className, err := b.r.NulString()
		if err != nil {
			return false, err
		}
		obj = Object{Name: objectName, ClassName: className, Version: version, Index: index}
		if className == forwardRefMarker {
			if ref, found := b.res.resolve(index); found {
				obj = ref
			}
		} else {
			b.res.record(obj)
		}
		return true, nil
	})
	return obj, ok, err
}

func (b *binaryReader) ReadObjectEnd() (bool, error) {
	return b.peek(func() (bool, error) {
		chunkSize, err := b.r.U32()
		if err != nil {
			return false, nil
		}
		return chunkSize == 0, nil
	})
}

func (b *binaryReader) SkipObject(skipCurrent bool) error {
	depth := 0
	if !skipCurrent {
		if _, ok, err := b.ReadObjectBegin(); err != nil {
			return err
		} else if !ok {
			return &ParseError{Reason: "skip_object: expected begin marker"}
		}
	}
	depth = 1
	for depth > 0 {
		if ok, err := b.ReadObjectEnd(); err != nil {
			return err
		} else if ok {
			depth--
			continue
		}
		if _, ok, err := b.ReadObjectBegin(); err != nil {
			return err
		} else if ok {
			depth++
			continue
		}
		// Neither marker: consume one opaque byte. The BINARY encoding
		// carries no type tags, so a caller that mismatches schema here
		// would already have failed upstream; this keeps skip_object
		// resilient to trailing padding.
		if _, err := b.r.U8(); err != nil {
			return err
		}
	}
	return nil
}

func (b *binaryReader) ReadInt() (int32, error)    { v, err := b.r.I32(); return v, err }
func (b *binaryReader) ReadFloat() (float32, error) { return b.r.Float32() }
func (b *binaryReader) ReadByte() (uint8, error)    { return b.r.U8() }
func (b *binaryReader) ReadWord() (uint16, error)   { return b.r.U16() }
func (b *binaryReader) ReadEnum() (uint32, error)   { return b.r.U32() }
func (b *binaryReader) ReadBool() (bool, error) {
	v, err := b.r.U32()
	return v != 0, err
}
func (b *binaryReader) ReadString() (string, error) { return b.r.NulString() }

func (b *binaryReader) ReadColor() (Color, error) {
	raw, err := b.r.U32()
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

func (b *binaryReader) ReadVec2() ([2]float32, error) { return b.r.Vec2() }
func (b *binaryReader) ReadVec3() ([3]float32, error) { return b.r.Vec3() }

func (b *binaryReader) ReadBBox() (BBox, error) {
	min, err := b.r.Vec3()
	if err != nil {
		return BBox{}, err
	}
	max, err := b.r.Vec3()
	if err != nil {
		return BBox{}, err
	}
	return BBox{Min: min, Max: max}, nil
}

func (b *binaryReader) ReadMat3x3() ([9]float32, error) {
	var m [9]float32
	for i := range m {
		f, err := b.r.Float32()
		if err != nil {
			return m, err
		}
		m[i] = f
	}
	return m, nil
}

func (b *binaryReader) ReadRawBytes(n int) ([]byte, error) {
	return b.r.RawBytes(n)
}
