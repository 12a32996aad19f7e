// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package proto decodes `.MRM` proto-mesh containers: a
// shared vertex/normal block, per-submesh section tables, and an
// embedded archive.Reader for the submesh material list, all addressed
// as absolute offsets into a nested content sub-buffer.
package proto

import (
	"github.com/kharnas/zengin/archive"
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/material"
	"github.com/kharnas/zengin/meshchunk"
	"github.com/kharnas/zengin/stream"
)

const (
	chunkMesh uint16 = 0xB100
	chunkEnd  uint16 = 0xB1FF

	versionG2 uint16 = 0x0905
)

// Triangle is three wedge indices.
type Triangle struct{ Wedges [3]uint16 }

// Wedge is a corner-attribute tuple: normal, UV, source vertex index
// (spec glossary "Wedge").
type Wedge struct {
	Normal [3]float32
	UV     [2]float32
	Vertex uint16
}

// TrianglePlane is the precomputed plane equation for one triangle.
type TrianglePlane struct {
	Distance float32
	Normal   [3]float32
}

// Edge is an undirected pair of vertex indices.
type Edge struct{ Vertices [2]uint16 }

// SubMesh is one material-bound triangle group within a ProtoMesh.
type SubMesh struct {
	Material            material.Material
	Triangles           []Triangle
	Wedges              []Wedge
	Colors              []float32
	TrianglePlaneIndices []uint16
	TrianglePlanes      []TrianglePlane
	WedgeMap            []uint16
	VertexUpdates       []uint16
	TriangleEdges       []Triangle
	Edges               []Edge
	EdgeScores          []float32
}

// OBB is one node of the oriented-bounding-box tree trailing a
// proto-mesh.
type OBB struct {
	Center    [3]float32
	Axes      [3][3]float32
	HalfWidth [3]float32
	Children  []OBB
}

// ParseOBB decodes a single oriented-bounding-box node (and its
// children) from r. Exported for reuse by packages that trail a
// standalone OBB list after an embedded proto-mesh, such as softskin.
func ParseOBB(r *stream.Reader) (OBB, error) {
	return parseOBB(r)
}

func parseOBB(r *stream.Reader) (OBB, error) {
	var o OBB
	var err error
	if o.Center, err = r.Vec3(); err != nil {
		return o, err
	}
	for i := range o.Axes {
		if o.Axes[i], err = r.Vec3(); err != nil {
			return o, err
		}
	}
	if o.HalfWidth, err = r.Vec3(); err != nil {
		return o, err
	}
	childCount, err := r.U16()
	if err != nil {
		return o, err
	}
	o.Children = make([]OBB, childCount)
	for i := range o.Children {
		if o.Children[i], err = parseOBB(r); err != nil {
			return o, err
		}
	}
	return o, nil
}

// ProtoMesh is the fully decoded `.MRM` container.
type ProtoMesh struct {
	Vertices     [][3]float32
	Normals      [][3]float32
	SubMeshes    []SubMesh
	Materials    []material.Material
	BBox         [2][3]float32
	HasAlphaTest bool
	OBBTree      OBB
}

type section struct{ offset, size uint32 }

func readSection(r *buffer.Buffer) (section, error) {
	s := stream.New(r)
	off, err := s.U32()
	if err != nil {
		return section{}, err
	}
	size, err := s.U32()
	if err != nil {
		return section{}, err
	}
	return section{offset: off, size: size}, nil
}

// Parse decodes a complete proto-mesh container from b.
func Parse(b *buffer.Buffer) (ProtoMesh, error) {
	var msh ProtoMesh

	err := meshchunk.Walk(b, "proto mesh", func(tag uint16) bool { return tag == chunkEnd }, func(c meshchunk.Chunk) error {
		switch c.Tag {
		case chunkMesh:
			return parseMeshChunk(&msh, c)
		case chunkEnd:
			return nil
		default:
			return nil
		}
	})

	return msh, err
}

func parseMeshChunk(msh *ProtoMesh, c meshchunk.Chunk) error {
	version, err := c.SubR.U16()
	if err != nil {
		return err
	}
	contentSize, err := c.SubR.U32()
	if err != nil {
		return err
	}
	content, err := c.Sub.Fork(uint64(contentSize))
	if err != nil {
		return err
	}

	submeshCount, err := c.SubR.U8()
	if err != nil {
		return err
	}
	verticesOffset, err := c.SubR.U32()
	if err != nil {
		return err
	}
	verticesSize, err := c.SubR.U32()
	if err != nil {
		return err
	}
	normalsOffset, err := c.SubR.U32()
	if err != nil {
		return err
	}
	normalsSize, err := c.SubR.U32()
	if err != nil {
		return err
	}

	type sections struct {
		triangles, wedges, colors, trianglePlaneIndices, trianglePlanes,
		wedgeMap, vertexUpdates, triangleEdges, edges, edgeScores section
	}
	secs := make([]sections, submeshCount)
	for i := range secs {
		var s sections
		fields := []*section{
			&s.triangles, &s.wedges, &s.colors, &s.trianglePlaneIndices, &s.trianglePlanes,
			&s.wedgeMap, &s.vertexUpdates, &s.triangleEdges, &s.edges, &s.edgeScores,
		}
		for _, f := range fields {
			sec, err := readSection(c.Sub)
			if err != nil {
				return err
			}
			*f = sec
		}
		secs[i] = s
	}

	matReader, err := archive.Open(c.Sub)
	if err != nil {
		return err
	}
	msh.Materials = make([]material.Material, submeshCount)
	for i := range msh.Materials {
		mat, err := material.Parse(matReader)
		if err != nil {
			return err
		}
		msh.Materials[i] = mat
	}

	if version == versionG2 {
		b, err := c.SubR.U8()
		if err != nil {
			return err
		}
		msh.HasAlphaTest = b != 0
	}

	if msh.BBox[0], err = c.SubR.Vec3(); err != nil {
		return err
	}
	if msh.BBox[1], err = c.SubR.Vec3(); err != nil {
		return err
	}

	vertexBlock, err := content.Slice(uint64(verticesOffset), uint64(verticesSize)*12)
	if err != nil {
		return err
	}
	vr := stream.New(vertexBlock)
	msh.Vertices = make([][3]float32, verticesSize)
	for i := range msh.Vertices {
		v, err := vr.Vec3()
		if err != nil {
			return err
		}
		msh.Vertices[i] = v
	}

	normalBlock, err := content.Slice(uint64(normalsOffset), uint64(normalsSize)*12)
	if err != nil {
		return err
	}
	nr := stream.New(normalBlock)
	msh.Normals = make([][3]float32, normalsSize)
	for i := range msh.Normals {
		v, err := nr.Vec3()
		if err != nil {
			return err
		}
		msh.Normals[i] = v
	}

	msh.SubMeshes = make([]SubMesh, submeshCount)
	for i := range msh.SubMeshes {
		sm, err := readSubMesh(content, secs[i])
		if err != nil {
			return err
		}
		sm.Material = msh.Materials[i]
		msh.SubMeshes[i] = sm
	}

	if msh.OBBTree, err = parseOBB(c.SubR); err != nil {
		return err
	}
	// Trailing 16 bytes of unclear purpose (possibly a vec4); the
	// reference implementation skips them without interpreting.
	_, err = c.SubR.RawBytes(16)
	return err
}

func readSubMesh(content *buffer.Buffer, s struct {
	triangles, wedges, colors, trianglePlaneIndices, trianglePlanes,
	wedgeMap, vertexUpdates, triangleEdges, edges, edgeScores section
}) (SubMesh, error) {
	var sm SubMesh

	tb, err := content.Slice(uint64(s.triangles.offset), uint64(s.triangles.size)*6)
	if err != nil {
		return sm, err
	}
	tr := stream.New(tb)
	sm.Triangles = make([]Triangle, s.triangles.size)
	for i := range sm.Triangles {
		var t Triangle
		for j := range t.Wedges {
			v, err := tr.U16()
			if err != nil {
				return sm, err
			}
			t.Wedges[j] = v
		}
		sm.Triangles[i] = t
	}

	wb, err := content.Slice(uint64(s.wedges.offset), uint64(s.wedges.size)*24)
	if err != nil {
		return sm, err
	}
	wr := stream.New(wb)
	sm.Wedges = make([]Wedge, s.wedges.size)
	for i := range sm.Wedges {
		var w Wedge
		if w.Normal, err = wr.Vec3(); err != nil {
			return sm, err
		}
		if w.UV, err = wr.Vec2(); err != nil {
			return sm, err
		}
		if w.Vertex, err = wr.U16(); err != nil {
			return sm, err
		}
		if _, err = wr.U16(); err != nil { // padding
			return sm, err
		}
		sm.Wedges[i] = w
	}

	cb, err := content.Slice(uint64(s.colors.offset), uint64(s.colors.size)*4)
	if err != nil {
		return sm, err
	}
	cr := stream.New(cb)
	sm.Colors = make([]float32, s.colors.size)
	for i := range sm.Colors {
		if sm.Colors[i], err = cr.Float32(); err != nil {
			return sm, err
		}
	}

	tpib, err := content.Slice(uint64(s.trianglePlaneIndices.offset), uint64(s.trianglePlaneIndices.size)*2)
	if err != nil {
		return sm, err
	}
	tpir := stream.New(tpib)
	sm.TrianglePlaneIndices = make([]uint16, s.trianglePlaneIndices.size)
	for i := range sm.TrianglePlaneIndices {
		if sm.TrianglePlaneIndices[i], err = tpir.U16(); err != nil {
			return sm, err
		}
	}

	tpb, err := content.Slice(uint64(s.trianglePlanes.offset), uint64(s.trianglePlanes.size)*16)
	if err != nil {
		return sm, err
	}
	tpr := stream.New(tpb)
	sm.TrianglePlanes = make([]TrianglePlane, s.trianglePlanes.size)
	for i := range sm.TrianglePlanes {
		var p TrianglePlane
		if p.Distance, err = tpr.Float32(); err != nil {
			return sm, err
		}
		if p.Normal, err = tpr.Vec3(); err != nil {
			return sm, err
		}
		sm.TrianglePlanes[i] = p
	}

	wmb, err := content.Slice(uint64(s.wedgeMap.offset), uint64(s.wedgeMap.size)*2)
	if err != nil {
		return sm, err
	}
	wmr := stream.New(wmb)
	sm.WedgeMap = make([]uint16, s.wedgeMap.size)
	for i := range sm.WedgeMap {
		if sm.WedgeMap[i], err = wmr.U16(); err != nil {
			return sm, err
		}
	}

	vub, err := content.Slice(uint64(s.vertexUpdates.offset), uint64(s.vertexUpdates.size)*2)
	if err != nil {
		return sm, err
	}
	vur := stream.New(vub)
	sm.VertexUpdates = make([]uint16, s.vertexUpdates.size)
	for i := range sm.VertexUpdates {
		if sm.VertexUpdates[i], err = vur.U16(); err != nil {
			return sm, err
		}
	}

	teb, err := content.Slice(uint64(s.triangleEdges.offset), uint64(s.triangleEdges.size)*6)
	if err != nil {
		return sm, err
	}
	ter := stream.New(teb)
	sm.TriangleEdges = make([]Triangle, s.triangleEdges.size)
	for i := range sm.TriangleEdges {
		var t Triangle
		for j := range t.Wedges {
			if t.Wedges[j], err = ter.U16(); err != nil {
				return sm, err
			}
		}
		sm.TriangleEdges[i] = t
	}

	eb, err := content.Slice(uint64(s.edges.offset), uint64(s.edges.size)*4)
	if err != nil {
		return sm, err
	}
	er := stream.New(eb)
	sm.Edges = make([]Edge, s.edges.size)
	for i := range sm.Edges {
		var e Edge
		for j := range e.Vertices {
			if e.Vertices[j], err = er.U16(); err != nil {
				return sm, err
			}
		}
		sm.Edges[i] = e
	}

	esb, err := content.Slice(uint64(s.edgeScores.offset), uint64(s.edgeScores.size)*4)
	if err != nil {
		return sm, err
	}
	esr := stream.New(esb)
	sm.EdgeScores = make([]float32, s.edgeScores.size)
	for i := range sm.EdgeScores {
		if sm.EdgeScores[i], err = esr.Float32(); err != nil {
			return sm, err
		}
	}

	return sm, nil
}
