// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mesh decodes `.MSH` world mesh containers: a
// variable-vertex-count polygon list that is fan-triangulated and
// flag-filtered at load time into a parallel-array Mesh data model.
package mesh

import (
	"github.com/kharnas/zengin/archive"
	"github.com/kharnas/zengin/bsp"
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/material"
	"github.com/kharnas/zengin/meshchunk"
)

const (
	chunkMesh            uint16 = 0xB000
	chunkBBox            uint16 = 0xB010
	chunkMaterial        uint16 = 0xB020
	chunkLightmaps       uint16 = 0xB025
	chunkSharedLightmaps uint16 = 0xB026
	chunkVertices        uint16 = 0xB030
	chunkFeatures        uint16 = 0xB040
	chunkPolygons        uint16 = 0xB050
	chunkEnd             uint16 = 0xB060

	versionG2 uint32 = 265
)

// Feature is one per-corner attribute record: UV, lightmap index,
// vertex normal.
type Feature struct {
	UV     [2]float32
	Light  uint32
	Normal [3]float32
}

// polygonIndex is one corner's (vertex, feature) index pair as read
// from disk, before fan triangulation.
type polygonIndex struct {
	Vertex  uint32
	Feature uint32
}

// rawPolygon is one on-disk polygon with its original (possibly >3)
// vertex count, before triangulation and flag-based filtering.
type rawPolygon struct {
	MaterialIndex uint16
	LightmapIndex uint16
	PlaneDistance float32
	PlaneNormal   [3]float32
	Flags         PolygonFlags
	Indices       []polygonIndex
}

// PolygonFlags is the canonical in-memory flag struct both the G1
// (2 flag bytes) and G2 (1 flag byte) on-disk layouts populate.
type PolygonFlags struct {
	IsPortal         bool
	IsOccluder       bool
	IsSector         bool
	ShouldRelight    bool // G2 only
	IsLOD            bool // G1 only
	IsOutdoor        bool
	IsGhostOccluder  bool
	IsDynamicallyLit bool // G2 only
	NormalAxis       uint8 // G1 only
	SectorIndex      uint16
}

// RawMesh is the on-disk polygon soup before fan triangulation.
type RawMesh struct {
	Name      string
	Version   uint32
	BBox      [2][3]float32
	Materials []material.Material
	Vertices  [][3]float32
	Features  []Feature
	Polygons  []rawPolygon
}

// Mesh is the triangulated, flag-filtered output: parallel arrays
// indexed per emitted triangle/vertex.
type Mesh struct {
	Vertices          [][3]float32
	Features          []Feature
	MaterialIndices   []uint16 // len N (one per triangle)
	LightmapIndices   []uint16 // len N
	FeatureIndices    []uint32 // len 3N
	VertexIndices     []uint32 // len 3N
	Flags             []PolygonFlags // len N
	OverTriangulated  bool // set when §9's G1-without-BSP fallback applied
}

// Parse decodes the raw polygon soup from b. Use Triangulate to obtain
// the final Mesh.
func Parse(b *buffer.Buffer) (RawMesh, error) {
	var msh RawMesh

	err := meshchunk.Walk(b, "world mesh", func(tag uint16) bool { return tag == chunkEnd }, func(c meshchunk.Chunk) error {
		switch c.Tag {
		case chunkMesh:
			var err error
			if msh.Version, err = c.SubR.U32(); err != nil {
				return err
			}
			if _, err := c.SubR.RawBytes(14); err != nil { // source date record, discarded
				return err
			}
			msh.Name, err = c.SubR.Line(false)
			return err

		case chunkBBox:
			min, err := c.SubR.Vec3()
			if err != nil {
				return err
			}
			if _, err := c.SubR.Float32(); err != nil { // vec4 padding component
				return err
			}
			max, err := c.SubR.Vec3()
			if err != nil {
				return err
			}
			if _, err := c.SubR.Float32(); err != nil {
				return err
			}
			msh.BBox = [2][3]float32{min, max}
			return nil

		case chunkMaterial:
			matReader, err := archive.Open(c.Sub)
			if err != nil {
				return err
			}
			count, err := c.SubR.U32()
			if err != nil {
				return err
			}
			msh.Materials = make([]material.Material, count)
			for i := range msh.Materials {
				m, err := material.Parse(matReader)
				if err != nil {
					return err
				}
				msh.Materials[i] = m
			}
			return nil

		case chunkLightmaps, chunkSharedLightmaps:
			// Lightmap texture data feeds the renderer only; out of
			// scope ("no rendering"). The section is still
			// consumed in full via the bounded chunk buffer.
			return nil

		case chunkVertices:
			count, err := c.SubR.U32()
			if err != nil {
				return err
			}
			msh.Vertices = make([][3]float32, count)
			for i := range msh.Vertices {
				if msh.Vertices[i], err = c.SubR.Vec3(); err != nil {
					return err
				}
			}
			return nil

		case chunkFeatures:
			count, err := c.SubR.U32()
			if err != nil {
				return err
			}
			msh.Features = make([]Feature, count)
			for i := range msh.Features {
				f := &msh.Features[i]
				var err error
				if f.UV, err = c.SubR.Vec2(); err != nil {
					return err
				}
				if f.Light, err = c.SubR.U32(); err != nil {
					return err
				}
				if f.Normal, err = c.SubR.Vec3(); err != nil {
					return err
				}
			}
			return nil

		case chunkPolygons:
			count, err := c.SubR.U32()
			if err != nil {
				return err
			}
			msh.Polygons = make([]rawPolygon, count)
			for i := range msh.Polygons {
				p := &msh.Polygons[i]
				if p.MaterialIndex, err = c.SubR.U16(); err != nil {
					return err
				}
				if p.LightmapIndex, err = c.SubR.U16(); err != nil {
					return err
				}
				if p.PlaneDistance, err = c.SubR.Float32(); err != nil {
					return err
				}
				if p.PlaneNormal, err = c.SubR.Vec3(); err != nil {
					return err
				}

				if msh.Version == versionG2 {
					flagByte, err := c.SubR.U8()
					if err != nil {
						return err
					}
					p.Flags.IsPortal = flagByte&0b00000011 != 0
					p.Flags.IsOccluder = flagByte&0b00000100 != 0
					p.Flags.IsSector = flagByte&0b00001000 != 0
					p.Flags.ShouldRelight = flagByte&0b00010000 != 0
					p.Flags.IsOutdoor = flagByte&0b00100000 != 0
					p.Flags.IsGhostOccluder = flagByte&0b01000000 != 0
					p.Flags.IsDynamicallyLit = flagByte&0b10000000 != 0
					if p.Flags.SectorIndex, err = c.SubR.U16(); err != nil {
						return err
					}
				} else {
					flags1, err := c.SubR.U8()
					if err != nil {
						return err
					}
					flags2, err := c.SubR.U8()
					if err != nil {
						return err
					}
					p.Flags.IsPortal = flags1&0b00000011 != 0
					p.Flags.IsOccluder = flags1&0b00000100 != 0
					p.Flags.IsSector = flags1&0b00001000 != 0
					p.Flags.IsLOD = flags1&0b00010000 != 0
					p.Flags.IsOutdoor = flags1&0b00100000 != 0
					p.Flags.IsGhostOccluder = flags1&0b01000000 != 0
					p.Flags.NormalAxis = ((flags1 & 0b10000000) >> 7) | (flags2 & 0b00000001)
					if p.Flags.SectorIndex, err = c.SubR.U16(); err != nil {
						return err
					}
				}

				vertexCount, err := c.SubR.U8()
				if err != nil {
					return err
				}
				p.Indices = make([]polygonIndex, vertexCount)
				for j := range p.Indices {
					var vi uint32
					if msh.Version == versionG2 {
						vi, err = c.SubR.U32()
					} else {
						var v16 uint16
						v16, err = c.SubR.U16()
						vi = uint32(v16)
					}
					if err != nil {
						return err
					}
					fi, err := c.SubR.U32()
					if err != nil {
						return err
					}
					p.Indices[j] = polygonIndex{Vertex: vi, Feature: fi}
				}
			}
			return nil

		case chunkEnd:
			return nil

		default:
			return nil
		}
	})

	return msh, err
}

// Triangulate applies the discard/fan-triangulation rules, producing
// the canonical parallel-array Mesh. tree is the world's BSP
// tree; it is required to correctly identify leaf polygons on a Gothic 1
// (non-265-version) world mesh and may be nil
// otherwise. When nil on a G1 mesh, Triangulate falls back to flag-based
// filtering and sets Mesh.OverTriangulated to document the degraded
// behavior rather than failing.
func (r RawMesh) Triangulate(tree *bsp.Tree) Mesh {
	var out Mesh
	out.Vertices = r.Vertices
	out.Features = r.Features

	isG2 := r.Version == versionG2

	var leafSet map[uint32]struct{}
	if !isG2 && tree != nil {
		leafSet = tree.LeafPolygonSet()
	} else if !isG2 && tree == nil {
		out.OverTriangulated = true
	}

	for idx, p := range r.Polygons {
		if len(p.Indices) < 3 {
			continue
		}
		if p.Flags.IsPortal || p.Flags.IsGhostOccluder || p.Flags.IsOutdoor {
			continue
		}
		if !isG2 && leafSet != nil {
			if _, ok := leafSet[uint32(idx)]; !ok {
				continue
			}
		}

		emit := func(a, b, c polygonIndex) {
			out.VertexIndices = append(out.VertexIndices, a.Vertex, b.Vertex, c.Vertex)
			out.FeatureIndices = append(out.FeatureIndices, a.Feature, b.Feature, c.Feature)
			out.MaterialIndices = append(out.MaterialIndices, p.MaterialIndex)
			out.LightmapIndices = append(out.LightmapIndices, p.LightmapIndex)
			out.Flags = append(out.Flags, p.Flags)
		}

		if len(p.Indices) == 3 {
			emit(p.Indices[0], p.Indices[1], p.Indices[2])
			continue
		}

		for i := 1; i < len(p.Indices)-1; i++ {
			emit(p.Indices[0], p.Indices[i], p.Indices[i+1])
		}
	}

	return out
}
