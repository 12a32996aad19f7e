// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package morph_test

import (
	"testing"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/morph"
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

// protoHeaderText is just the archive preamble: the embedded proto-mesh
// below has zero submeshes, so archive.Open never has to parse an
// actual material object off it, only the header that precedes one.
const protoHeaderText = "ZenGin Archive\n" +
	"ver 1\n" +
	"zCArchiverGeneric\n" +
	"ASCII\n" +
	"saveGame 0\n" +
	"date 1.1.2024\n" +
	"user tester\n" +
	"END\n"

// buildEmbeddedProtoMesh assembles a zero-submesh `.MRM` document
// holding exactly two vertices, the base geometry morph.Parse's delta
// vectors are matched against.
func buildEmbeddedProtoMesh(t *testing.T) []byte {
	t.Helper()

	content := buildPayload(t, 24, func(w *stream.Writer) error {
		if err := putVec3(w, [3]float32{0, 0, 0}); err != nil {
			return err
		}
		return putVec3(w, [3]float32{1, 0, 0})
	})

	payload := buildPayload(t, 2+4+24+1+4+4+4+4+uint64(len(protoHeaderText))+24+62+16, func(w *stream.Writer) error {
		if err := w.PutU16(0); err != nil { // version (not G2, so no alpha-test byte)
			return err
		}
		if err := w.PutU32(24); err != nil { // contentSize
			return err
		}
		if err := w.B.Put(content); err != nil {
			return err
		}
		if err := w.PutU8(0); err != nil { // submeshCount
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
		if err := w.PutU32(0); err != nil { // normalsSize
			return err
		}
		if err := w.PutString(protoHeaderText); err != nil {
			return err
		}
		if err := putVec3(w, [3]float32{0, 0, 0}); err != nil { // bbox min
			return err
		}
		if err := putVec3(w, [3]float32{1, 1, 1}); err != nil { // bbox max
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
	return doc
}

// buildMorph assembles a complete `.MMB` morph mesh: the embedded
// proto-mesh above, two morph-delta positions (one per base vertex),
// and a single "Wave" displacement animation touching vertex 0 over one
// frame.
func buildMorph(t *testing.T) *buffer.Buffer {
	t.Helper()

	protoDoc := buildEmbeddedProtoMesh(t)
	name := "MorphMesh"

	headerPayload := buildPayload(t, 4+uint64(len(name))+1+uint64(len(protoDoc))+24, func(w *stream.Writer) error {
		if err := w.PutU32(0); err != nil { // version, discarded
			return err
		}
		if err := w.PutString(name); err != nil {
			return err
		}
		if err := w.PutU8('\n'); err != nil {
			return err
		}
		if err := w.B.Put(protoDoc); err != nil {
			return err
		}
		if err := putVec3(w, [3]float32{0, 0, 0}); err != nil { // delta for vertex 0
			return err
		}
		return putVec3(w, [3]float32{0, 0.5, 0}) // delta for vertex 1
	})

	animName := "Wave"
	animPayload := buildPayload(t, 2+uint64(len(animName))+1+5*4+1+4+4+4+12, func(w *stream.Writer) error {
		if err := w.PutU16(1); err != nil { // animation count
			return err
		}
		if err := w.PutString(animName); err != nil {
			return err
		}
		if err := w.PutU8('\n'); err != nil {
			return err
		}
		if err := w.PutFloat32(0.1); err != nil { // blendIn
			return err
		}
		if err := w.PutFloat32(0.1); err != nil { // blendOut
			return err
		}
		if err := w.PutFloat32(1); err != nil { // duration
			return err
		}
		if err := w.PutU32(0); err != nil { // layer
			return err
		}
		if err := w.PutFloat32(1); err != nil { // speed
			return err
		}
		if err := w.PutU8(0); err != nil { // flags
			return err
		}
		if err := w.PutU32(1); err != nil { // vertex count
			return err
		}
		if err := w.PutU32(1); err != nil { // frame count
			return err
		}
		if err := w.PutU32(0); err != nil { // touched vertex index
			return err
		}
		return putVec3(w, [3]float32{0, 1, 0}) // the one sample
	})

	var doc []byte
	doc = append(doc, buildChunk(0xE020, headerPayload)...)
	doc = append(doc, buildChunk(0xE030, animPayload)...)
	return buffer.Wrap(doc, true)
}

func TestParseEmbeddedMeshAndDeltas(t *testing.T) {
	msh, err := morph.Parse(buildMorph(t))
	if err != nil {
		t.Fatal(err)
	}
	if msh.Name != "MorphMesh" {
		t.Fatalf("name = %q", msh.Name)
	}
	if len(msh.Mesh.Vertices) != 2 {
		t.Fatalf("base vertices = %d, want 2", len(msh.Mesh.Vertices))
	}
	if len(msh.MorphPositions) != 2 {
		t.Fatalf("morph positions = %d, want 2", len(msh.MorphPositions))
	}
	if msh.MorphPositions[1] != ([3]float32{0, 0.5, 0}) {
		t.Fatalf("morphPositions[1] = %v", msh.MorphPositions[1])
	}
}

func TestParseAnimationSamples(t *testing.T) {
	msh, err := morph.Parse(buildMorph(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(msh.Animations) != 1 {
		t.Fatalf("animations = %d, want 1", len(msh.Animations))
	}
	a := msh.Animations[0]
	if a.Name != "Wave" {
		t.Fatalf("name = %q", a.Name)
	}
	if len(a.Vertices) != 1 || a.Vertices[0] != 0 {
		t.Fatalf("vertices = %v", a.Vertices)
	}
	if a.FrameCount != 1 || len(a.Samples) != 1 {
		t.Fatalf("frameCount = %d, samples = %d", a.FrameCount, len(a.Samples))
	}
	if a.Samples[0] != ([3]float32{0, 1, 0}) {
		t.Fatalf("sample = %v", a.Samples[0])
	}
}
