// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stream implements typed little-endian scalar and string I/O on
// top of a buffer.Buffer, the way golang-debug's internal/core/process.go
// layers typed ReadAt helpers over its raw memory reads.
package stream

import (
	"math"
	"strings"

	"github.com/kharnas/zengin/buffer"
)

// Reader decodes little-endian scalars and strings from a buffer.Buffer.
type Reader struct {
	B *buffer.Buffer
}

// New wraps b in a Reader.
func New(b *buffer.Buffer) *Reader { return &Reader{B: b} }

func (r *Reader) bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := r.B.Get(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// U8 reads a single byte.
func (r *Reader) U8() (uint8, error) {
	b, err := r.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

// I8, I16, I32, I64 are signed variants of the Ux readers.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// Float32 reads a little-endian IEEE-754 float.
func (r *Reader) Float32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Bool reads a single byte as a boolean (any nonzero byte is true).
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

// Vec2 reads two consecutive floats.
func (r *Reader) Vec2() ([2]float32, error) {
	var v [2]float32
	for i := range v {
		f, err := r.Float32()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// Vec3 reads three consecutive floats.
func (r *Reader) Vec3() ([3]float32, error) {
	var v [3]float32
	for i := range v {
		f, err := r.Float32()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// Mat3x3 reads nine consecutive floats in row-major order.
func (r *Reader) Mat3x3() ([9]float32, error) {
	var m [9]float32
	for i := range m {
		f, err := r.Float32()
		if err != nil {
			return m, err
		}
		m[i] = f
	}
	return m, nil
}

// Mat4x4 reads sixteen consecutive floats in row-major order.
func (r *Reader) Mat4x4() ([16]float32, error) {
	var m [16]float32
	for i := range m {
		f, err := r.Float32()
		if err != nil {
			return m, err
		}
		m[i] = f
	}
	return m, nil
}

// String reads exactly n bytes with no trailing-NUL handling.
func (r *Reader) String(n int) (string, error) {
	b, err := r.bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// NulString reads bytes up to and including a terminating NUL, returning
// the string without the terminator. Used by the BINARY archive encoding.
func (r *Reader) NulString() (string, error) {
	var out []byte
	for {
		b, err := r.U8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out), nil
}

// Line reads up to (and consuming) the next CR, LF or NUL terminator. When
// skipWS is set, any whitespace immediately following the terminator is
// also consumed. Line does not touch the buffer's saved mark.
func (r *Reader) Line(skipWS bool) (string, error) {
	var out []byte
	for {
		b, err := r.U8()
		if err != nil {
			// EOF with pending content is still a valid last line.
			if len(out) > 0 {
				return string(out), nil
			}
			return "", err
		}
		if b == '\r' || b == '\n' || b == 0 {
			break
		}
		out = append(out, b)
	}
	if skipWS {
		for r.B.Remaining() > 0 {
			pos := r.B.Position()
			b, err := r.U8()
			if err != nil {
				break
			}
			if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
				_ = r.B.SetPosition(pos)
				break
			}
		}
	}
	return string(out), nil
}

// LineEscaped is Line with \n and \t escape sequences unescaped in-place,
// used by the Daedalus loader for string-literal symbol payloads.
func (r *Reader) LineEscaped() (string, error) {
	line, err := r.Line(false)
	if err != nil {
		return "", err
	}
	return Unescape(line), nil
}

// Unescape rewrites the two escape sequences the compiled-script string
// format supports: "\n" and "\t".
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// RawBytes reads n raw bytes.
func (r *Reader) RawBytes(n int) ([]byte, error) {
	return r.bytes(n)
}
