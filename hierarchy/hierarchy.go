// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hierarchy decodes `.MDH` model hierarchy containers:
// version, node count, per-node name/parent/transform records,
// trailing bounding boxes, root translation and a checksum that must
// match the bound softskin mesh's checksum by identity, not by name.
package hierarchy

import (
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/meshchunk"
)

const (
	chunkHierarchy uint16 = 0xD100
	chunkStats     uint16 = 0xD110
	chunkEnd       uint16 = 0xD120
)

// Node is one entry of the hierarchy's flat node array.
type Node struct {
	Name        string
	ParentIndex int16
	Transform   [16]float32 // four consecutive on-disk vec4s, in read order
}

// Hierarchy is the fully decoded `.MDH` container.
type Hierarchy struct {
	Nodes          []Node
	BBox           [2][3]float32
	CollisionBBox  [2][3]float32
	RootTranslation [3]float32
	Checksum       uint32
}

// Parse decodes a complete model hierarchy container from b.
func Parse(b *buffer.Buffer) (Hierarchy, error) {
	var h Hierarchy

	err := meshchunk.Walk(b, "model hierarchy", func(tag uint16) bool { return tag == chunkEnd }, func(c meshchunk.Chunk) error {
		switch c.Tag {
		case chunkHierarchy:
			if _, err := c.SubR.U32(); err != nil { // version, discarded
				return err
			}
			nodeCount, err := c.SubR.U16()
			if err != nil {
				return err
			}
			h.Nodes = make([]Node, nodeCount)
			for i := range h.Nodes {
				n := &h.Nodes[i]
				if n.Name, err = c.SubR.Line(false); err != nil {
					return err
				}
				pi, err := c.SubR.I16()
				if err != nil {
					return err
				}
				n.ParentIndex = pi
				for row := 0; row < 4; row++ {
					v4, err := vec4(c.SubR)
					if err != nil {
						return err
					}
					copy(n.Transform[row*4:row*4+4], v4[:])
				}
			}
			if h.BBox[0], err = c.SubR.Vec3(); err != nil {
				return err
			}
			if h.BBox[1], err = c.SubR.Vec3(); err != nil {
				return err
			}
			if h.CollisionBBox[0], err = c.SubR.Vec3(); err != nil {
				return err
			}
			if h.CollisionBBox[1], err = c.SubR.Vec3(); err != nil {
				return err
			}
			if h.RootTranslation, err = c.SubR.Vec3(); err != nil {
				return err
			}
			h.Checksum, err = c.SubR.U32()
			return err
		case chunkStats:
			if _, err := c.SubR.RawBytes(16); err != nil {
				return err
			}
			_, err := c.SubR.Line(false)
			return err
		case chunkEnd:
			return nil
		default:
			return nil
		}
	})

	return h, err
}

func vec4(r interface {
	Float32() (float32, error)
}) ([4]float32, error) {
	var v [4]float32
	for i := range v {
		f, err := r.Float32()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}
