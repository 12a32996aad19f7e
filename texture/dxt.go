// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package texture

// decodeDXT1Block decodes one 4x4 BC1 block into the given RGBA8
// destination, which must be a w*h*4 buffer; ox/oy are the block's pixel
// origin and w is the image's full row stride in pixels.
func decodeDXT1Block(block []byte, dst []byte, w, h, ox, oy int) {
	c := unpack565Pair(block)
	raw0 := uint16(block[0]) | uint16(block[1])<<8
	raw1 := uint16(block[2]) | uint16(block[3])<<8
	codes := uint32(block[4]) | uint32(block[5])<<8 | uint32(block[6])<<16 | uint32(block[7])<<24

	var palette [4][4]uint8 // [index][r,g,b,a]
	palette[0] = c[0]
	palette[1] = c[1]
	palette[0][3], palette[1][3] = 255, 255
	if raw0 > raw1 {
		palette[2] = lerpRGB(c[0], c[1], 1, 3)
		palette[3] = lerpRGB(c[0], c[1], 2, 3)
		palette[2][3], palette[3][3] = 255, 255
	} else {
		palette[2] = lerpRGB(c[0], c[1], 1, 2)
		palette[3] = [4]uint8{0, 0, 0, 0}
		palette[2][3] = 255
	}

	for py := 0; py < 4; py++ {
		for px := 0; px < 4; px++ {
			idx := (codes >> uint((py*4+px)*2)) & 0x3
			putPixel(dst, w, h, ox+px, oy+py, palette[idx])
		}
	}
}

// decodeDXT3Block decodes one 4x4 BC2 (DXT2/3) block: explicit 4-bit alpha
// followed by a BC1-style opaque color block.
func decodeDXT3Block(block []byte, dst []byte, w, h, ox, oy int) {
	alphaBits := block[:8]
	colorBlock := block[8:16]

	c := unpack565Pair(colorBlock)
	codes := uint32(colorBlock[4]) | uint32(colorBlock[5])<<8 | uint32(colorBlock[6])<<16 | uint32(colorBlock[7])<<24

	var palette [4][3]uint8
	palette[0] = [3]uint8{c[0][0], c[0][1], c[0][2]}
	palette[1] = [3]uint8{c[1][0], c[1][1], c[1][2]}
	p2 := lerpRGB(c[0], c[1], 1, 3)
	p3 := lerpRGB(c[0], c[1], 2, 3)
	palette[2] = [3]uint8{p2[0], p2[1], p2[2]}
	palette[3] = [3]uint8{p3[0], p3[1], p3[2]}

	for py := 0; py < 4; py++ {
		for px := 0; px < 4; px++ {
			idx := (codes >> uint((py*4+px)*2)) & 0x3
			nibbleShift := uint((py*4 + px) * 4)
			a4 := (uint16(alphaBits[nibbleShift/8]) >> (nibbleShift % 8)) & 0xF
			a := uint8(a4) * 17 // 4-bit -> 8-bit
			rgb := palette[idx]
			putPixel(dst, w, h, ox+px, oy+py, [4]uint8{rgb[0], rgb[1], rgb[2], a})
		}
	}
}

// decodeDXT5Block decodes one 4x4 BC3 (DXT4/5) block: interpolated 8-bit
// alpha ramp followed by a BC1-style opaque color block.
func decodeDXT5Block(block []byte, dst []byte, w, h, ox, oy int) {
	a0, a1 := block[0], block[1]
	alphaIdxBits := uint64(block[2]) | uint64(block[3])<<8 | uint64(block[4])<<16 |
		uint64(block[5])<<24 | uint64(block[6])<<32 | uint64(block[7])<<40

	var alphaRamp [8]uint8
	alphaRamp[0], alphaRamp[1] = a0, a1
	if a0 > a1 {
		for i := 1; i <= 6; i++ {
			alphaRamp[1+i] = uint8((uint32(a0)*uint32(7-i) + uint32(a1)*uint32(i)) / 7)
		}
	} else {
		for i := 1; i <= 4; i++ {
			alphaRamp[1+i] = uint8((uint32(a0)*uint32(5-i) + uint32(a1)*uint32(i)) / 5)
		}
		alphaRamp[6] = 0
		alphaRamp[7] = 255
	}

	colorBlock := block[8:16]
	c := unpack565Pair(colorBlock)
	codes := uint32(colorBlock[4]) | uint32(colorBlock[5])<<8 | uint32(colorBlock[6])<<16 | uint32(colorBlock[7])<<24

	var palette [4][3]uint8
	palette[0] = [3]uint8{c[0][0], c[0][1], c[0][2]}
	palette[1] = [3]uint8{c[1][0], c[1][1], c[1][2]}
	p2 := lerpRGB(c[0], c[1], 1, 3)
	palette[2] = [3]uint8{p2[0], p2[1], p2[2]}
	p3 := lerpRGB(c[0], c[1], 2, 3)
	palette[3] = [3]uint8{p3[0], p3[1], p3[2]}

	for py := 0; py < 4; py++ {
		for px := 0; px < 4; px++ {
			pix := py*4 + px
			cidx := (codes >> uint(pix*2)) & 0x3
			aidx := (alphaIdxBits >> uint(pix*3)) & 0x7
			rgb := palette[cidx]
			putPixel(dst, w, h, ox+px, oy+py, [4]uint8{rgb[0], rgb[1], rgb[2], alphaRamp[aidx]})
		}
	}
}

func putPixel(dst []byte, w, h, x, y int, rgba [4]uint8) {
	if x >= w || y >= h {
		return // block overhangs a non-multiple-of-4 image edge
	}
	i := (y*w + x) * 4
	dst[i+0] = rgba[0]
	dst[i+1] = rgba[1]
	dst[i+2] = rgba[2]
	dst[i+3] = rgba[3]
}

// unpack565Pair reads the two RGB565 endpoint colors at the head of a BC1
// block and expands each to 8-bit-per-channel RGBA (alpha left at 0; the
// caller fills it in).
func unpack565Pair(block []byte) [2][4]uint8 {
	var out [2][4]uint8
	for i := 0; i < 2; i++ {
		v := uint16(block[i*2]) | uint16(block[i*2+1])<<8
		r5 := (v >> 11) & 0x1F
		g6 := (v >> 5) & 0x3F
		b5 := v & 0x1F
		out[i] = [4]uint8{
			uint8(float64(r5) * 8.225806),
			uint8(float64(g6) * 4.047619),
			uint8(float64(b5) * 8.225806),
			0,
		}
	}
	return out
}

func lerpRGB(a, b [4]uint8, num, den uint32) [4]uint8 {
	l := func(x, y uint8) uint8 {
		return uint8((uint32(x)*(den-num) + uint32(y)*num) / den)
	}
	return [4]uint8{l(a[0], b[0]), l(a[1], b[1]), l(a[2], b[2]), 0}
}
