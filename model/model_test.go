// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model_test

import (
	"testing"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/model"
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

const protoHeaderText = "ZenGin Archive\n" +
	"ver 1\n" +
	"zCArchiverGeneric\n" +
	"ASCII\n" +
	"saveGame 0\n" +
	"date 1.1.2024\n" +
	"user tester\n" +
	"END\n"

// buildEmbeddedProtoMesh assembles a zero-submesh `.MRM` document
// holding a single vertex. Attachments and softskins both embed one of
// these as their base geometry, so model.Parse's "walk whatever the
// sub-parser actually consumes" reads are exercised against a real
// nested chunk framing rather than a stub.
func buildEmbeddedProtoMesh(t *testing.T) []byte {
	t.Helper()

	content := buildPayload(t, 12, func(w *stream.Writer) error {
		return putVec3(w, [3]float32{0, 0, 0})
	})

	payload := buildPayload(t, 2+4+12+1+4+4+4+4+uint64(len(protoHeaderText))+24+62+16, func(w *stream.Writer) error {
		if err := w.PutU16(0); err != nil {
			return err
		}
		if err := w.PutU32(12); err != nil {
			return err
		}
		if err := w.B.Put(content); err != nil {
			return err
		}
		if err := w.PutU8(0); err != nil {
			return err
		}
		if err := w.PutU32(0); err != nil {
			return err
		}
		if err := w.PutU32(1); err != nil {
			return err
		}
		if err := w.PutU32(12); err != nil {
			return err
		}
		if err := w.PutU32(0); err != nil {
			return err
		}
		if err := w.PutString(protoHeaderText); err != nil {
			return err
		}
		if err := putVec3(w, [3]float32{0, 0, 0}); err != nil {
			return err
		}
		if err := putVec3(w, [3]float32{1, 1, 1}); err != nil {
			return err
		}
		if err := putVec3(w, [3]float32{0, 0, 0}); err != nil {
			return err
		}
		for _, axis := range [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
			if err := putVec3(w, axis); err != nil {
				return err
			}
		}
		if err := putVec3(w, [3]float32{1, 1, 1}); err != nil {
			return err
		}
		if err := w.PutU16(0); err != nil {
			return err
		}
		return w.B.Put(make([]byte, 16))
	})

	var doc []byte
	doc = append(doc, buildChunk(0xB100, payload)...)
	doc = append(doc, buildChunk(0xB1FF, nil)...)
	return doc
}

// buildEmbeddedSoftSkin assembles a minimal softskin mesh document
// around one of the proto-meshes above, with no weights, wedge
// normals, or bound nodes.
func buildEmbeddedSoftSkin(t *testing.T) []byte {
	t.Helper()

	protoDoc := buildEmbeddedProtoMesh(t)
	meshPayload := buildPayload(t, 4+uint64(len(protoDoc))+4+4+4+2, func(w *stream.Writer) error {
		if err := w.PutU32(0); err != nil { // version
			return err
		}
		if err := w.B.Put(protoDoc); err != nil {
			return err
		}
		if err := w.PutU32(0); err != nil { // weight buffer byte length
			return err
		}
		if err := w.PutU32(0); err != nil { // weight count
			return err
		}
		if err := w.PutU32(0); err != nil { // wedge normal count
			return err
		}
		return w.PutU16(0) // node count
	})

	var doc []byte
	doc = append(doc, buildChunk(0xE100, meshPayload)...)
	doc = append(doc, buildChunk(0xE110, nil)...)
	return doc
}

// buildModel assembles a complete `.MDM` container: a header, a source
// record, one named attachment bound to node "BIP01", and one
// checksum-bound softskin. The nodes and softskins sections declare a
// zero-length chunk size, matching model.Parse's documented expectation
// that those two sections' real extent is whatever their embedded
// sub-parsers consume, read directly off the parent stream rather than
// off the chunk's own bounded view.
func buildModel(t *testing.T) *buffer.Buffer {
	t.Helper()

	headerPayload := buildPayload(t, 4, func(w *stream.Writer) error {
		return w.PutU32(1) // version, discarded
	})

	sourceName := "source.3ds"
	sourcePayload := buildPayload(t, 14+uint64(len(sourceName))+1, func(w *stream.Writer) error {
		if err := w.B.Put(make([]byte, 14)); err != nil {
			return err
		}
		if err := w.PutString(sourceName); err != nil {
			return err
		}
		return w.PutU8('\n')
	})

	attachMesh := buildEmbeddedProtoMesh(t)
	nodeName := "BIP01"
	nodesContent := buildPayload(t, 2+uint64(len(nodeName))+1+uint64(len(attachMesh)), func(w *stream.Writer) error {
		if err := w.PutU16(1); err != nil { // node count
			return err
		}
		if err := w.PutString(nodeName); err != nil {
			return err
		}
		if err := w.PutU8('\n'); err != nil {
			return err
		}
		return w.B.Put(attachMesh)
	})

	skinDoc := buildEmbeddedSoftSkin(t)
	skinsContent := buildPayload(t, 4+2+uint64(len(skinDoc)), func(w *stream.Writer) error {
		if err := w.PutU32(0xCAFEBABE); err != nil { // checksum
			return err
		}
		if err := w.PutU16(1); err != nil { // softskin count
			return err
		}
		return w.B.Put(skinDoc)
	})

	var doc []byte
	doc = append(doc, buildChunk(0xD000, headerPayload)...)
	doc = append(doc, buildChunk(0xD010, sourcePayload)...)
	doc = append(doc, buildChunk(0xD020, nil)...) // declared size unused; real content follows
	doc = append(doc, nodesContent...)
	doc = append(doc, buildChunk(0xD030, nil)...)
	doc = append(doc, skinsContent...)
	doc = append(doc, buildChunk(0xD120, nil)...)
	return buffer.Wrap(doc, true)
}

func TestParseAttachmentsAndSoftSkins(t *testing.T) {
	m, err := model.Parse(buildModel(t))
	if err != nil {
		t.Fatal(err)
	}

	if len(m.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(m.Attachments))
	}
	if m.Attachments[0].NodeName != "BIP01" {
		t.Fatalf("nodeName = %q", m.Attachments[0].NodeName)
	}
	if len(m.Attachments[0].Mesh.Vertices) != 1 {
		t.Fatalf("attachment vertices = %d, want 1", len(m.Attachments[0].Mesh.Vertices))
	}

	if m.Checksum != 0xCAFEBABE {
		t.Fatalf("checksum = %#x", m.Checksum)
	}
	if len(m.SoftSkins) != 1 {
		t.Fatalf("softSkins = %d, want 1", len(m.SoftSkins))
	}
	if len(m.SoftSkins[0].Mesh.Vertices) != 1 {
		t.Fatalf("softskin mesh vertices = %d, want 1", len(m.SoftSkins[0].Mesh.Vertices))
	}
}
