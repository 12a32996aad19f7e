// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kharnas/zengin/stream"
)

// asciiReader implements Reader over the line-oriented ASCII encoding
//: each value line is `name=type:value`, object begin markers
// are `[object_name class_name version index]`, object end markers are
// `[]`.
type asciiReader struct {
	header Header
	r      *stream.Reader
	res    resolver
}

func newASCIIReader(h Header, r *stream.Reader) *asciiReader {
	return &asciiReader{header: h, r: r, res: newResolver()}
}

func (a *asciiReader) Header() Header { return a.header }

func (a *asciiReader) peek(fn func() (bool, error)) (bool, error) {
	a.r.B.Mark()
	ok, err := fn()
	if err != nil || !ok {
		a.r.B.Reset()
	}
	return ok, err
}

func (a *asciiReader) ReadObjectBegin() (Object, bool, error) {
	var obj Object
	ok, err := a.peek(func() (bool, error) {
		line, err := a.r.Line(true)
		if err != nil {
			return false, nil
		}
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			return false, nil
		}
		inner := line[1 : len(line)-1]
		if inner == "" {
			return false, nil
		}
		fields := strings.Fields(inner)
		if len(fields) != 4 {
			return false, nil
		}
		version, err := strconv.ParseUint(fields[2], 10, 16)
		if err != nil {
			return false, nil
		}
		index, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return false, nil
		}
		obj = Object{
			Name:      fields[0],
			ClassName: fields[1],
			Version:   uint16(version),
			Index:     uint32(index),
		}
		if obj.ClassName == forwardRefMarker {
			ref, found := a.res.resolve(obj.Index)
			if found {
				obj = ref
			}
		} else {
			a.res.record(obj)
		}
		return true, nil
	})
	return obj, ok, err
}

func (a *asciiReader) ReadObjectEnd() (bool, error) {
	return a.peek(func() (bool, error) {
		line, err := a.r.Line(true)
		if err != nil {
			return false, nil
		}
		return line == "[]", nil
	})
}

func (a *asciiReader) SkipObject(skipCurrent bool) error {
	depth := 0
	if !skipCurrent {
		var obj Object
		obj, ok, err := a.ReadObjectBegin()
		if err != nil {
			return err
		}
		if !ok {
			return &ParseError{Reason: "skip_object: expected begin marker"}
		}
		_ = obj
		depth = 1
	} else {
		depth = 1
	}

	for depth > 0 {
		if ok, err := a.ReadObjectEnd(); err != nil {
			return err
		} else if ok {
			depth--
			continue
		}
		if _, ok, err := a.ReadObjectBegin(); err != nil {
			return err
		} else if ok {
			depth++
			continue
		}
		// Not a marker line: discard one value line.
		if _, err := a.r.Line(true); err != nil {
			return err
		}
	}
	return nil
}

func (a *asciiReader) line() (name, typ, value string, err error) {
	line, err := a.r.Line(true)
	if err != nil {
		return "", "", "", err
	}
	name, rest, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", "", &ParseError{Reason: fmt.Sprintf("malformed ascii value line %q", line)}
	}
	typ, value, ok = strings.Cut(rest, ":")
	if !ok {
		return "", "", "", &ParseError{Reason: fmt.Sprintf("malformed ascii value line %q", line)}
	}
	return name, typ, value, nil
}

// expect reads one value line and checks its type tag. On a type
// mismatch the read position is restored so a caller trying several
// candidate types (ReadVec2, ReadRawBytes) does not skip the line it
// failed to consume.
func (a *asciiReader) expect(want string) (string, error) {
	a.r.B.Mark()
	_, typ, value, err := a.line()
	if err != nil {
		return "", err
	}
	if typ != want {
		a.r.B.Reset()
		return "", &ParseError{Reason: fmt.Sprintf("ascii: expected type %q, found %q", want, typ)}
	}
	return value, nil
}

func (a *asciiReader) ReadInt() (int32, error) {
	v, err := a.expect("int")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("ascii: bad int %q", v)}
	}
	return int32(n), nil
}

func (a *asciiReader) ReadFloat() (float32, error) {
	v, err := a.expect("float")
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("ascii: bad float %q", v)}
	}
	return float32(f), nil
}

func (a *asciiReader) ReadByte() (uint8, error) {
	v, err := a.expect("int")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 8)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("ascii: bad byte %q", v)}
	}
	return uint8(n), nil
}

func (a *asciiReader) ReadWord() (uint16, error) {
	v, err := a.expect("int")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 16)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("ascii: bad word %q", v)}
	}
	return uint16(n), nil
}

func (a *asciiReader) ReadEnum() (uint32, error) {
	v, err := a.expect("enum")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		return 0, &ParseError{Reason: fmt.Sprintf("ascii: bad enum %q", v)}
	}
	return uint32(n), nil
}

func (a *asciiReader) ReadBool() (bool, error) {
	v, err := a.expect("bool")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(v) == "1", nil
}

func (a *asciiReader) ReadString() (string, error) {
	return a.expect("string")
}

func (a *asciiReader) ReadColor() (Color, error) {
	v, err := a.expect("color")
	if err != nil {
		return Color{}, err
	}
	fields := strings.Fields(v)
	if len(fields) != 4 {
		return Color{}, &ParseError{Reason: fmt.Sprintf("ascii: bad color %q", v)}
	}
	nums := make([]uint64, 4)
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 8)
		if err != nil {
			return Color{}, &ParseError{Reason: fmt.Sprintf("ascii: bad color component %q", f)}
		}
		nums[i] = n
	}
	return Color{R: uint8(nums[0]), G: uint8(nums[1]), B: uint8(nums[2]), A: uint8(nums[3])}, nil
}

func parseFloatFields(v string, n int) ([]float32, error) {
	fields := strings.Fields(v)
	if len(fields) != n {
		return nil, &ParseError{Reason: fmt.Sprintf("ascii: expected %d fields, found %q", n, v)}
	}
	out := make([]float32, n)
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("ascii: bad float field %q", f)}
		}
		out[i] = float32(x)
	}
	return out, nil
}

func (a *asciiReader) ReadVec2() ([2]float32, error) {
	var out [2]float32
	v, err := a.expect("rawfloat")
	if err != nil {
		v, err = a.expect("vec2")
	}
	if err != nil {
		return out, err
	}
	fs, err := parseFloatFields(v, 2)
	if err != nil {
		return out, err
	}
	copy(out[:], fs)
	return out, nil
}

func (a *asciiReader) ReadVec3() ([3]float32, error) {
	var out [3]float32
	v, err := a.expect("vec3")
	if err != nil {
		return out, err
	}
	fs, err := parseFloatFields(v, 3)
	if err != nil {
		return out, err
	}
	copy(out[:], fs)
	return out, nil
}

func (a *asciiReader) ReadBBox() (BBox, error) {
	v, err := a.expect("rawfloat")
	if err != nil {
		return BBox{}, err
	}
	fs, err := parseFloatFields(v, 6)
	if err != nil {
		return BBox{}, err
	}
	return BBox{
		Min: [3]float32{fs[0], fs[1], fs[2]},
		Max: [3]float32{fs[3], fs[4], fs[5]},
	}, nil
}

func (a *asciiReader) ReadMat3x3() ([9]float32, error) {
	var out [9]float32
	v, err := a.expect("raw")
	if err != nil {
		return out, err
	}
	raw, err := hexDecode(v)
	if err != nil {
		return out, err
	}
	if len(raw) < 36 {
		return out, &ParseError{Reason: "ascii: mat3x3 raw payload too short"}
	}
	for i := 0; i < 9; i++ {
		out[i] = leFloat(raw[i*4 : i*4+4])
	}
	return out, nil
}

func (a *asciiReader) ReadRawBytes(n int) ([]byte, error) {
	v, err := a.expect("raw")
	if err != nil {
		v, err = a.expect("rawfloat")
	}
	if err != nil {
		return nil, err
	}
	raw, err := hexDecode(v)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(raw) < n {
		return nil, &ParseError{Reason: "ascii: raw payload shorter than requested"}
	}
	if n >= 0 {
		return raw[:n], nil
	}
	return raw, nil
}

func hexDecode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s)%2 != 0 {
		return nil, &ParseError{Reason: fmt.Sprintf("ascii: odd-length hex payload %q", s)}
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		var b uint64
		_, err := fmt.Sscanf(s[i*2:i*2+2], "%02x", &b)
		if err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("ascii: bad hex byte %q", s[i*2:i*2+2])}
		}
		out[i] = uint8(b)
	}
	return out, nil
}

func leFloat(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
