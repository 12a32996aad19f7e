// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package font decodes `.FNT` files: a small text-and-binary hybrid
// format (a version line, a name line, then packed glyph records) read
// directly off a buffer.Buffer rather than through the archive reader,
// the way texture headers are read directly rather than wrapped in an
// object graph.
package font

import (
	"fmt"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

// Glyph is a single character's extent within the font's texture. UV
// coordinates are fractions of the texture's width/height, not pixels.
type Glyph struct {
	Width uint8
	UV    [2][2]float32 // UV[0] = top-left, UV[1] = bottom-right
}

// Font is a decoded `.FNT` definition: a name referencing a separate
// texture file, a uniform glyph height, and one Glyph per character
// code (conventionally 256, covering Windows-1252).
type Font struct {
	Name   string
	Height uint32
	Glyphs []Glyph
}

// Parse decodes a font definition from b.
func Parse(b *buffer.Buffer) (Font, error) {
	var f Font
	r := stream.New(b)

	version, err := r.Line(true)
	if err != nil {
		return f, err
	}
	if version != "1" {
		return f, fmt.Errorf("font: unsupported version %q, want \"1\"", version)
	}

	f.Name, err = r.Line(false)
	if err != nil {
		return f, err
	}

	f.Height, err = r.U32()
	if err != nil {
		return f, err
	}

	count, err := r.U32()
	if err != nil {
		return f, err
	}
	f.Glyphs = make([]Glyph, count)

	for i := range f.Glyphs {
		w, err := r.U8()
		if err != nil {
			return f, err
		}
		f.Glyphs[i].Width = w
	}
	for i := range f.Glyphs {
		uv, err := r.Vec2()
		if err != nil {
			return f, err
		}
		f.Glyphs[i].UV[0] = uv
	}
	for i := range f.Glyphs {
		uv, err := r.Vec2()
		if err != nil {
			return f, err
		}
		f.Glyphs[i].UV[1] = uv
	}

	return f, nil
}
