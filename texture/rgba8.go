// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texture

import "fmt"

// RGBA8 decodes the given mip level into a canonical, row-major RGBA8
// pixel buffer.
func (t *Texture) RGBA8(level uint) ([]byte, error) {
	raw, err := t.Data(level)
	if err != nil {
		return nil, err
	}
	w := int(t.MipmapWidth(level))
	h := int(t.MipmapHeight(level))

	switch t.Format {
	case FormatDXT1, FormatDXT2, FormatDXT3, FormatDXT4, FormatDXT5:
		return t.decodeBlockCompressed(raw, w, h)
	case FormatB8G8R8A8:
		return swizzle4(raw, 2, 1, 0, 3), nil
	case FormatR8G8B8A8:
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case FormatA8B8G8R8:
		return swizzle4(raw, 3, 2, 1, 0), nil
	case FormatA8R8G8B8:
		return swizzle4(raw, 1, 2, 3, 0), nil
	case FormatB8G8R8:
		return expand3to4(raw, 2, 1, 0), nil
	case FormatR8G8B8:
		return expand3to4(raw, 0, 1, 2), nil
	case FormatR5G6B5:
		return decodeR5G6B5(raw), nil
	case FormatA1R5G5B5:
		return decodeA1R5G5B5(raw), nil
	case FormatA4R4G4B4:
		return decodeA4R4G4B4(raw), nil
	case FormatP8:
		return t.decodePaletted(raw), nil
	default:
		return nil, fmt.Errorf("texture: cannot convert format %s to rgba8", t.Format)
	}
}

func (t *Texture) decodeBlockCompressed(raw []byte, w, h int) ([]byte, error) {
	out := make([]byte, w*h*4)
	bw, bh := (w+3)/4, (h+3)/4
	blockSize := 8
	decode := decodeDXT1Block
	switch t.Format {
	case FormatDXT1:
		blockSize, decode = 8, decodeDXT1Block
	case FormatDXT2, FormatDXT3:
		blockSize, decode = 16, decodeDXT3Block
	case FormatDXT4, FormatDXT5:
		blockSize, decode = 16, decodeDXT5Block
	}
	need := bw * bh * blockSize
	if len(raw) < need {
		return nil, fmt.Errorf("texture: truncated %s data: have %d bytes, need %d", t.Format, len(raw), need)
	}
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			off := (by*bw + bx) * blockSize
			decode(raw[off:off+blockSize], out, w, h, bx*4, by*4)
		}
	}
	return out, nil
}

// swizzle4 reorders each 4-byte pixel of raw according to (rIdx, gIdx,
// bIdx, aIdx), producing canonical R,G,B,A order.
func swizzle4(raw []byte, rIdx, gIdx, bIdx, aIdx int) []byte {
	out := make([]byte, len(raw))
	for i := 0; i+3 < len(raw); i += 4 {
		out[i+0] = raw[i+rIdx]
		out[i+1] = raw[i+gIdx]
		out[i+2] = raw[i+bIdx]
		out[i+3] = raw[i+aIdx]
	}
	return out
}

// expand3to4 reorders each 3-byte pixel of raw according to (rIdx, gIdx,
// bIdx) and appends a fully-opaque alpha channel.
func expand3to4(raw []byte, rIdx, gIdx, bIdx int) []byte {
	n := len(raw) / 3
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		src := raw[i*3 : i*3+3]
		out[i*4+0] = src[rIdx]
		out[i*4+1] = src[gIdx]
		out[i*4+2] = src[bIdx]
		out[i*4+3] = 0xff
	}
	return out
}

func decodeR5G6B5(raw []byte) []byte {
	n := len(raw) / 2
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
		r5 := (v >> 11) & 0x1F
		g6 := (v >> 5) & 0x3F
		b5 := v & 0x1F
		out[i*4+0] = uint8(float64(r5) * 8.225806)
		out[i*4+1] = uint8(float64(g6) * 4.047619)
		out[i*4+2] = uint8(float64(b5) * 8.225806)
		out[i*4+3] = 0xff
	}
	return out
}

func decodeA1R5G5B5(raw []byte) []byte {
	n := len(raw) / 2
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
		a1 := (v >> 15) & 0x1
		r5 := (v >> 10) & 0x1F
		g5 := (v >> 5) & 0x1F
		b5 := v & 0x1F
		out[i*4+0] = uint8(float64(r5) * 8.225806)
		out[i*4+1] = uint8(float64(g5) * 8.225806)
		out[i*4+2] = uint8(float64(b5) * 8.225806)
		if a1 != 0 {
			out[i*4+3] = 0xff
		}
	}
	return out
}

func decodeA4R4G4B4(raw []byte) []byte {
	n := len(raw) / 2
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := uint16(raw[i*2]) | uint16(raw[i*2+1])<<8
		a4 := (v >> 12) & 0xF
		r4 := (v >> 8) & 0xF
		g4 := (v >> 4) & 0xF
		b4 := v & 0xF
		out[i*4+0] = uint8(r4) * 17
		out[i*4+1] = uint8(g4) * 17
		out[i*4+2] = uint8(b4) * 17
		out[i*4+3] = uint8(a4) * 17
	}
	return out
}

func (t *Texture) decodePaletted(raw []byte) []byte {
	out := make([]byte, len(raw)*4)
	for i, idx := range raw {
		p := t.Palette[idx]
		out[i*4+0] = p.R
		out[i*4+1] = p.G
		out[i*4+2] = p.B
		out[i*4+3] = p.A
	}
	return out
}
