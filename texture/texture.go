// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package texture decodes ZenGin's ZTEX container format into canonical
// RGBA8 pixel buffers. Mipmaps are stored on disk smallest-first; Parse
// reads them in that order but stores them by level (0 == the largest,
// on-disk-last mip), so the in-memory order is not the on-disk order.
package texture

import (
	"fmt"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

// Format identifies a ZTEX pixel format.
type Format uint32

const (
	FormatB8G8R8A8 Format = iota
	FormatR8G8B8A8
	FormatA8B8G8R8
	FormatA8R8G8B8
	FormatB8G8R8
	FormatR8G8B8
	FormatA4R4G4B4
	FormatA1R5G5B5
	FormatR5G6B5
	FormatP8
	FormatDXT1
	FormatDXT2
	FormatDXT3
	FormatDXT4
	FormatDXT5
)

func (f Format) String() string {
	switch f {
	case FormatB8G8R8A8:
		return "B8G8R8A8"
	case FormatR8G8B8A8:
		return "R8G8B8A8"
	case FormatA8B8G8R8:
		return "A8B8G8R8"
	case FormatA8R8G8B8:
		return "A8R8G8B8"
	case FormatB8G8R8:
		return "B8G8R8"
	case FormatR8G8B8:
		return "R8G8B8"
	case FormatA4R4G4B4:
		return "A4R4G4B4"
	case FormatA1R5G5B5:
		return "A1R5G5B5"
	case FormatR5G6B5:
		return "R5G6B5"
	case FormatP8:
		return "P8"
	case FormatDXT1:
		return "DXT1"
	case FormatDXT2:
		return "DXT2"
	case FormatDXT3:
		return "DXT3"
	case FormatDXT4:
		return "DXT4"
	case FormatDXT5:
		return "DXT5"
	default:
		return fmt.Sprintf("Format(%d)", uint32(f))
	}
}

// BGRA is a single palette entry, as stored on disk for FormatP8.
type BGRA struct {
	B, G, R, A uint8
}

// Texture is a decoded ZTEX container: header fields plus the raw,
// per-format-encoded mip levels, indexed by level (largest first).
type Texture struct {
	Format         Format
	Width          uint32
	Height         uint32
	MipmapCount    uint32
	RefWidth       uint32
	RefHeight      uint32
	AvgColor       uint32
	Palette     [256]BGRA // only populated when Format == FormatP8
	mipLevels   [][]byte  // index == level: 0 == largest, the last one on disk
}

// ParseError reports a failure decoding a ZTEX container.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "texture: " + e.Reason }

const signature = "ZTEX"

// Parse decodes a ZTEX container from b.
func Parse(b *buffer.Buffer) (*Texture, error) {
	r := stream.New(b)

	sig, err := r.String(4)
	if err != nil {
		return nil, err
	}
	if sig != signature {
		return nil, &ParseError{Reason: "invalid signature"}
	}

	version, err := r.U32()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, &ParseError{Reason: fmt.Sprintf("unsupported version %d", version)}
	}

	tex := &Texture{}
	format, err := r.U32()
	if err != nil {
		return nil, err
	}
	tex.Format = Format(format)

	if tex.Width, err = r.U32(); err != nil {
		return nil, err
	}
	if tex.Height, err = r.U32(); err != nil {
		return nil, err
	}
	mipmapCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	tex.MipmapCount = mipmapCount
	if tex.MipmapCount < 1 {
		tex.MipmapCount = 1
	}
	if tex.RefWidth, err = r.U32(); err != nil {
		return nil, err
	}
	if tex.RefHeight, err = r.U32(); err != nil {
		return nil, err
	}
	if tex.AvgColor, err = r.U32(); err != nil {
		return nil, err
	}

	if tex.Format == FormatP8 {
		for i := range tex.Palette {
			bgra, err := r.RawBytes(4)
			if err != nil {
				return nil, err
			}
			tex.Palette[i] = BGRA{B: bgra[0], G: bgra[1], R: bgra[2], A: bgra[3]}
		}
	}

	// Mipmaps are stored smallest-first on disk; each one read is stored
	// at its level index, so Data indexes mipLevels by level directly.
	tex.mipLevels = make([][]byte, tex.MipmapCount)
	for level := int(tex.MipmapCount) - 1; level >= 0; level-- {
		size := mipmapByteSize(tex.Format, tex.Width, tex.Height, uint(level))
		data, err := r.RawBytes(int(size))
		if err != nil {
			return nil, err
		}
		tex.mipLevels[level] = data
	}

	return tex, nil
}

// mipmapByteSize returns the on-disk byte size of the given mip level for
// the given format and dimensions.
func mipmapByteSize(format Format, width, height uint32, level uint) uint32 {
	x, y := MipmapWidth2(width, height, level)
	switch format {
	case FormatB8G8R8A8, FormatR8G8B8A8, FormatA8B8G8R8, FormatA8R8G8B8:
		return x * y * 4
	case FormatB8G8R8, FormatR8G8B8:
		return x * y * 3
	case FormatA4R4G4B4, FormatA1R5G5B5, FormatR5G6B5:
		return x * y * 2
	case FormatP8:
		return x * y
	case FormatDXT1:
		return max32(1, x/4) * max32(1, y/4) * 8
	case FormatDXT2, FormatDXT3, FormatDXT4, FormatDXT5:
		return max32(1, x/4) * max32(1, y/4) * 16
	default:
		return 0
	}
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// MipmapWidth2 computes the width/height pair for the given level, halving
// (floor, minimum 1) level times.
func MipmapWidth2(width, height uint32, level uint) (uint32, uint32) {
	x, y := max32(1, width), max32(1, height)
	for i := uint(0); i < level; i++ {
		if x > 1 {
			x >>= 1
		}
		if y > 1 {
			y >>= 1
		}
	}
	return x, y
}

// MipmapWidth returns the pixel width of the given mip level.
func (t *Texture) MipmapWidth(level uint) uint32 {
	w, _ := MipmapWidth2(t.Width, t.Height, level)
	return w
}

// MipmapHeight returns the pixel height of the given mip level.
func (t *Texture) MipmapHeight(level uint) uint32 {
	_, h := MipmapWidth2(t.Width, t.Height, level)
	return h
}

// Data returns the raw, format-encoded bytes of the given mip level.
func (t *Texture) Data(level uint) ([]byte, error) {
	if int(level) >= len(t.mipLevels) {
		return nil, fmt.Errorf("texture: mip level %d out of range (have %d)", level, len(t.mipLevels))
	}
	return t.mipLevels[level], nil
}
