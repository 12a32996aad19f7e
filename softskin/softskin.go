// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package softskin decodes softskin mesh containers: an
// embedded proto-mesh, a checksum that binds to a hierarchy.Hierarchy by
// identity, a flat per-vertex bone weight list, optional wedge normals, a
// bound-node index list, and per-node oriented bounding boxes.
package softskin

import (
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/meshchunk"
	"github.com/kharnas/zengin/proto"
)

const (
	chunkMesh uint16 = 0xE100
	chunkEnd  uint16 = 0xE110
)

// Weight is one vertex's binding to a single bone.
type Weight struct {
	Weight    float32
	Position  [3]float32
	NodeIndex uint8
}

// WedgeNormal overrides a proto-mesh wedge's normal for skinned
// rendering.
type WedgeNormal struct {
	Normal [3]float32
	Index  uint32
}

// SoftSkin is the fully decoded softskin mesh.
type SoftSkin struct {
	Mesh         proto.ProtoMesh
	Weights      []Weight
	WedgeNormals []WedgeNormal
	Nodes        []int32 // indices into the bound hierarchy's node array
	NodeBBoxes   []proto.OBB
}

// Parse decodes a complete softskin mesh container from b.
func Parse(b *buffer.Buffer) (SoftSkin, error) {
	var s SoftSkin

	err := meshchunk.Walk(b, "softskin mesh", func(tag uint16) bool { return tag == chunkEnd }, func(c meshchunk.Chunk) error {
		switch c.Tag {
		case chunkMesh:
			if _, err := c.SubR.U32(); err != nil { // version, discarded
				return err
			}
			m, err := proto.Parse(c.Sub)
			if err != nil {
				return err
			}
			s.Mesh = m

			// The weight list's on-disk byte length is declared up
			// front; it is read directly against the element count
			// rather than the apparent reserve-without-resize quirk
			// in the reference implementation, which never populates
			// the list it allocates.
			if _, err := c.SubR.U32(); err != nil { // weight buffer byte length, unused
				return err
			}
			weightCount, err := c.SubR.U32()
			if err != nil {
				return err
			}
			s.Weights = make([]Weight, weightCount)
			for i := range s.Weights {
				w := &s.Weights[i]
				if w.Weight, err = c.SubR.Float32(); err != nil {
					return err
				}
				if w.Position, err = c.SubR.Vec3(); err != nil {
					return err
				}
				if w.NodeIndex, err = c.SubR.U8(); err != nil {
					return err
				}
			}

			normalCount, err := c.SubR.U32()
			if err != nil {
				return err
			}
			s.WedgeNormals = make([]WedgeNormal, normalCount)
			for i := range s.WedgeNormals {
				n := &s.WedgeNormals[i]
				if n.Normal, err = c.SubR.Vec3(); err != nil {
					return err
				}
				if n.Index, err = c.SubR.U32(); err != nil {
					return err
				}
			}

			nodeCount, err := c.SubR.U16()
			if err != nil {
				return err
			}
			s.Nodes = make([]int32, nodeCount)
			for i := range s.Nodes {
				if s.Nodes[i], err = c.SubR.I32(); err != nil {
					return err
				}
			}

			s.NodeBBoxes = make([]proto.OBB, nodeCount)
			for i := range s.NodeBBoxes {
				obb, err := proto.ParseOBB(c.SubR)
				if err != nil {
					return err
				}
				s.NodeBBoxes[i] = obb
			}

			return nil

		default:
			return nil
		}
	})

	return s, err
}
