// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proto_test

import (
	"testing"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/proto"
	"github.com/kharnas/zengin/stream"
)

func buildPayload(t *testing.T, n uint64, fill func(w *stream.Writer) error) []byte {
	t.Helper()
	b := buffer.Allocate(n)
	w := stream.NewWriter(b)
	if err := fill(w); err != nil {
		t.Fatal(err)
	}
	out, err := b.Bytes(0, b.Limit())
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func buildChunk(tag uint16, payload []byte) []byte {
	out := make([]byte, 0, 2+4+len(payload))
	out = append(out, byte(tag), byte(tag>>8))
	n := uint32(len(payload))
	out = append(out, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	return append(out, payload...)
}

func putVec3(w *stream.Writer, v [3]float32) error {
	for _, c := range v {
		if err := w.PutFloat32(c); err != nil {
			return err
		}
	}
	return nil
}

// The embedded material archive reuses material_test.go's G1-layout
// (version 17408) field set, which is shorter than the G2 one, since
// the only thing this fixture needs from it is a single valid object.
const materialText = "ZenGin Archive\n" +
	"ver 1\n" +
	"zCArchiverGeneric\n" +
	"ASCII\n" +
	"saveGame 0\n" +
	"date 1.1.2024\n" +
	"user tester\n" +
	"END\n" +
	"name=string:STONE\n" +
	"[% zCMaterial 17408 0]\n" +
	"name=string:STONE\n" +
	"matGroup=int:2\n" +
	"color=color:10 20 30 255\n" +
	"smoothAngle=float:60\n" +
	"texture=string:STONE.TGA\n" +
	"texScale=string:1 1\n" +
	"texAniFPS=float:0\n" +
	"texAniMapMode=int:0\n" +
	"texAniMapDir=string:0 0\n" +
	"noCollDet=bool:0\n" +
	"noLightmap=bool:0\n" +
	"lodDontCollapse=int:0\n" +
	"detailObject=string:\n" +
	"defaultMapping=vec2:10 10\n" +
	"[]\n"

// buildContent assembles the raw-data blob a proto-mesh's section
// offsets index into: two vertices, two normals, one triangle, and the
// three wedges it references, laid out back to back in that order.
func buildContent(t *testing.T) []byte {
	t.Helper()
	return buildPayload(t, 24+24+6+3*24, func(w *stream.Writer) error {
		for _, v := range [][3]float32{{0, 0, 0}, {1, 0, 0}} { // vertices
			if err := putVec3(w, v); err != nil {
				return err
			}
		}
		for _, v := range [][3]float32{{0, 1, 0}, {0, 1, 0}} { // normals
			if err := putVec3(w, v); err != nil {
				return err
			}
		}
		for _, idx := range []uint16{0, 1, 2} { // the one triangle's wedges
			if err := w.PutU16(idx); err != nil {
				return err
			}
		}
		wedges := []struct {
			normal [3]float32
			uv     [2]float32
			vertex uint16
		}{
			{[3]float32{0, 1, 0}, [2]float32{0, 0}, 0},
			{[3]float32{0, 1, 0}, [2]float32{1, 0}, 1},
			{[3]float32{0, 1, 0}, [2]float32{1, 1}, 0},
		}
		for _, wd := range wedges {
			if err := putVec3(w, wd.normal); err != nil {
				return err
			}
			for _, c := range wd.uv {
				if err := w.PutFloat32(c); err != nil {
					return err
				}
			}
			if err := w.PutU16(wd.vertex); err != nil {
				return err
			}
			if err := w.PutU16(0); err != nil { // padding
				return err
			}
		}
		return nil
	})
}

// buildProtoMesh assembles a complete `.MRM` container: one G2 mesh
// chunk holding a single submesh (one triangle referencing three
// wedges), an embedded zCMaterial archive, a bounding box, and a
// childless OBB root.
func buildProtoMesh(t *testing.T) *buffer.Buffer {
	t.Helper()

	content := buildContent(t)
	contentSize := uint64(len(content))

	payload := buildPayload(t, 2+4+contentSize+1+4+4+4+4+80+uint64(len(materialText))+1+24+62+16, func(w *stream.Writer) error {
		if err := w.PutU16(0x0905); err != nil { // versionG2
			return err
		}
		if err := w.PutU32(uint32(contentSize)); err != nil {
			return err
		}
		if err := w.B.Put(content); err != nil {
			return err
		}

		if err := w.PutU8(1); err != nil { // submeshCount
			return err
		}
		if err := w.PutU32(0); err != nil { // verticesOffset
			return err
		}
		if err := w.PutU32(2); err != nil { // verticesSize
			return err
		}
		if err := w.PutU32(24); err != nil { // normalsOffset
			return err
		}
		if err := w.PutU32(2); err != nil { // normalsSize
			return err
		}

		sections := []struct{ offset, size uint32 }{
			{48, 1},  // triangles
			{54, 3},  // wedges
			{126, 0}, // colors
			{126, 0}, // trianglePlaneIndices
			{126, 0}, // trianglePlanes
			{126, 0}, // wedgeMap
			{126, 0}, // vertexUpdates
			{126, 0}, // triangleEdges
			{126, 0}, // edges
			{126, 0}, // edgeScores
		}
		for _, s := range sections {
			if err := w.PutU32(s.offset); err != nil {
				return err
			}
			if err := w.PutU32(s.size); err != nil {
				return err
			}
		}

		if err := w.PutString(materialText); err != nil {
			return err
		}

		if err := w.PutU8(1); err != nil { // hasAlphaTest
			return err
		}
		if err := putVec3(w, [3]float32{-1, -1, -1}); err != nil {
			return err
		}
		if err := putVec3(w, [3]float32{1, 1, 1}); err != nil {
			return err
		}

		if err := putVec3(w, [3]float32{0, 0, 0}); err != nil { // OBB center
			return err
		}
		for _, axis := range [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
			if err := putVec3(w, axis); err != nil {
				return err
			}
		}
		if err := putVec3(w, [3]float32{1, 1, 1}); err != nil { // OBB half-width
			return err
		}
		if err := w.PutU16(0); err != nil { // OBB child count
			return err
		}

		return w.B.Put(make([]byte, 16)) // trailing unknown bytes
	})

	var doc []byte
	doc = append(doc, buildChunk(0xB100, payload)...)
	doc = append(doc, buildChunk(0xB1FF, nil)...)
	return buffer.Wrap(doc, true)
}

func TestParseDecodesVerticesNormalsAndOneSubMesh(t *testing.T) {
	msh, err := proto.Parse(buildProtoMesh(t))
	if err != nil {
		t.Fatal(err)
	}

	if len(msh.Vertices) != 2 || msh.Vertices[1] != ([3]float32{1, 0, 0}) {
		t.Fatalf("vertices = %v", msh.Vertices)
	}
	if len(msh.Normals) != 2 {
		t.Fatalf("normals = %v", msh.Normals)
	}
	if !msh.HasAlphaTest {
		t.Fatal("expected HasAlphaTest = true")
	}
	if msh.BBox != ([2][3]float32{{-1, -1, -1}, {1, 1, 1}}) {
		t.Fatalf("bbox = %v", msh.BBox)
	}

	if len(msh.SubMeshes) != 1 {
		t.Fatalf("submeshes = %d, want 1", len(msh.SubMeshes))
	}
	sm := msh.SubMeshes[0]
	if sm.Material.Name != "STONE" {
		t.Fatalf("material name = %q", sm.Material.Name)
	}
	if len(sm.Triangles) != 1 || sm.Triangles[0].Wedges != ([3]uint16{0, 1, 2}) {
		t.Fatalf("triangles = %v", sm.Triangles)
	}
	if len(sm.Wedges) != 3 {
		t.Fatalf("wedges = %d, want 3", len(sm.Wedges))
	}
	if sm.Wedges[1].Vertex != 1 || sm.Wedges[1].UV != ([2]float32{1, 0}) {
		t.Fatalf("wedges[1] = %+v", sm.Wedges[1])
	}

	if msh.OBBTree.Center != ([3]float32{0, 0, 0}) || len(msh.OBBTree.Children) != 0 {
		t.Fatalf("obbTree = %+v", msh.OBBTree)
	}
}
