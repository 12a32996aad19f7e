// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bsp decodes the world's binary space partitioning tree: a
// recursive descent over a flat stream producing a node list, a
// leaf-index list, per-leaf light points, and a named-sector outdoors
// section.
package bsp

import (
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/meshchunk"
	"github.com/kharnas/zengin/stream"
)

const (
	chunkHeader   uint16 = 0xC000
	chunkPolygons uint16 = 0xC010
	chunkTree     uint16 = 0xC040
	chunkLight    uint16 = 0xC045
	chunkOutdoors uint16 = 0xC050
	chunkEnd      uint16 = 0xC0FF

	// versionTagG1 is the raw on-disk version tag identifying a Gothic 1
	// BSP tree, which carries an extra unconfirmed "lod-flag" byte per
	// interior node.
	versionTagG1 = 0x2090000
)

// Mode mirrors the bsp_tree_mode discriminant (indoor vs outdoor level).
type Mode uint32

const (
	ModeIndoor Mode = 0
	ModeOutdoor Mode = 1
)

// Node is one interior or leaf node of the tree. Leaf nodes have no
// plane and carry no children.
type Node struct {
	BBox          [2][3]float32
	PolygonIndex  uint32
	PolygonCount  uint32
	IsLeaf        bool
	Plane         [4]float32 // w, x, y, z read order
	LodFlag       byte       // G1-only; raw, unconfirmed meaning
	HasLodFlag    bool
	ParentIndex   int32
	FrontIndex    int32 // -1 if absent
	BackIndex     int32 // -1 if absent
}

// Sector is a named outdoor region pointing to node and portal-polygon
// indices.
type Sector struct {
	Name                 string
	NodeIndices          []uint32
	PortalPolygonIndices []uint32
}

// Tree is the fully decoded BSP tree.
type Tree struct {
	Mode                 Mode
	PolygonIndices        []uint32
	Nodes                 []Node
	LeafNodeIndices       []uint32
	LightPoints           [][3]float32
	Sectors               []Sector
	PortalPolygonIndices  []uint32
}

// LeafPolygonSet returns the set of world-mesh polygon indices that are
// reachable from a BSP leaf, used by a Gothic 1 world mesh to identify
// which polygons actually contribute geometry.
func (t Tree) LeafPolygonSet() map[uint32]struct{} {
	set := make(map[uint32]struct{})
	for _, leafIdx := range t.LeafNodeIndices {
		n := t.Nodes[leafIdx]
		for i := uint32(0); i < n.PolygonCount; i++ {
			set[t.PolygonIndices[n.PolygonIndex+i]] = struct{}{}
		}
	}
	return set
}

// Parse decodes a complete BSP tree from b. version is the raw BSP
// version tag read by the caller from the enclosing "MeshAndBsp"
// section — it is not re-derived from the tree's own
// header chunk, whose u16 version is read and discarded before the
// indoor/outdoor Mode.
func Parse(b *buffer.Buffer, version uint32) (Tree, error) {
	var t Tree
	isG1 := version == versionTagG1

	err := meshchunk.Walk(b, "bsp tree", func(tag uint16) bool { return tag == chunkEnd }, func(c meshchunk.Chunk) error {
		switch c.Tag {
		case chunkHeader:
			if _, err := c.SubR.U16(); err != nil { // version, discarded
				return err
			}
			mode, err := c.SubR.U32()
			if err != nil {
				return err
			}
			t.Mode = Mode(mode)
			return nil

		case chunkPolygons:
			count, err := c.SubR.U32()
			if err != nil {
				return err
			}
			t.PolygonIndices = make([]uint32, count)
			for i := range t.PolygonIndices {
				if t.PolygonIndices[i], err = c.SubR.U32(); err != nil {
					return err
				}
			}
			return nil

		case chunkTree:
			nodeCount, err := c.SubR.U32()
			if err != nil {
				return err
			}
			leafCount, err := c.SubR.U32()
			if err != nil {
				return err
			}
			t.Nodes = make([]Node, 0, nodeCount)
			t.LeafNodeIndices = make([]uint32, 0, leafCount)
			if err := parseNode(c.SubR, &t, isG1, -1, false); err != nil {
				return err
			}
			return nil

		case chunkLight:
			t.LightPoints = make([][3]float32, len(t.LeafNodeIndices))
			for i := range t.LightPoints {
				v, err := c.SubR.Vec3()
				if err != nil {
					return err
				}
				t.LightPoints[i] = v
			}
			return nil

		case chunkOutdoors:
			sectorCount, err := c.SubR.U32()
			if err != nil {
				return err
			}
			t.Sectors = make([]Sector, sectorCount)
			for i := range t.Sectors {
				s := &t.Sectors[i]
				if s.Name, err = c.SubR.Line(false); err != nil {
					return err
				}
				nodeCount, err := c.SubR.U32()
				if err != nil {
					return err
				}
				polyCount, err := c.SubR.U32()
				if err != nil {
					return err
				}
				s.NodeIndices = make([]uint32, nodeCount)
				s.PortalPolygonIndices = make([]uint32, polyCount)
				for j := range s.NodeIndices {
					if s.NodeIndices[j], err = c.SubR.U32(); err != nil {
						return err
					}
				}
				for j := range s.PortalPolygonIndices {
					if s.PortalPolygonIndices[j], err = c.SubR.U32(); err != nil {
						return err
					}
				}
			}
			portalCount, err := c.SubR.U32()
			if err != nil {
				return err
			}
			t.PortalPolygonIndices = make([]uint32, portalCount)
			for i := range t.PortalPolygonIndices {
				if t.PortalPolygonIndices[i], err = c.SubR.U32(); err != nil {
					return err
				}
			}
			return nil

		case chunkEnd:
			_, err := c.SubR.U8()
			return err

		default:
			return nil
		}
	})

	return t, err
}

func parseNode(r *stream.Reader, t *Tree, isG1 bool, parentIndex int32, leaf bool) error {
	selfIndex := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{ParentIndex: parentIndex, FrontIndex: -1, BackIndex: -1})

	node := &t.Nodes[selfIndex]

	bboxMin, err := r.Vec3()
	if err != nil {
		return err
	}
	bboxMax, err := r.Vec3()
	if err != nil {
		return err
	}
	node.BBox = [2][3]float32{bboxMin, bboxMax}

	if node.PolygonIndex, err = r.U32(); err != nil {
		return err
	}
	if node.PolygonCount, err = r.U32(); err != nil {
		return err
	}

	if leaf {
		node.IsLeaf = true
		t.LeafNodeIndices = append(t.LeafNodeIndices, uint32(selfIndex))
		return nil
	}

	flags, err := r.U8()
	if err != nil {
		return err
	}

	w, err := r.Float32()
	if err != nil {
		return err
	}
	x, err := r.Float32()
	if err != nil {
		return err
	}
	y, err := r.Float32()
	if err != nil {
		return err
	}
	z, err := r.Float32()
	if err != nil {
		return err
	}
	node.Plane = [4]float32{w, x, y, z}

	if isG1 {
		lodFlag, err := r.U8()
		if err != nil {
			return err
		}
		node.LodFlag = lodFlag
		node.HasLodFlag = true
	}

	if flags&0x01 != 0 {
		t.Nodes[selfIndex].FrontIndex = int32(len(t.Nodes))
		if err := parseNode(r, t, isG1, selfIndex, flags&0x04 != 0); err != nil {
			return err
		}
	}
	if flags&0x02 != 0 {
		t.Nodes[selfIndex].BackIndex = int32(len(t.Nodes))
		if err := parseNode(r, t, isG1, selfIndex, flags&0x08 != 0); err != nil {
			return err
		}
	}

	return nil
}
