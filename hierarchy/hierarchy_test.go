// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hierarchy_test

import (
	"testing"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/hierarchy"
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

func buildHierarchy(t *testing.T) *buffer.Buffer {
	t.Helper()

	name := "BIP01"
	nodeSize := len(name) + 1 + 2 + 16*4
	payload := buildPayload(t, uint64(4+2+nodeSize+12*5+4), func(w *stream.Writer) error {
		if err := w.PutU32(0); err != nil { // version, discarded
			return err
		}
		if err := w.PutU16(1); err != nil { // node count
			return err
		}
		if err := w.PutString(name); err != nil {
			return err
		}
		if err := w.PutU8(0); err != nil {
			return err
		}
		if err := w.PutU16(0xFFFF); err != nil { // parent index int16(-1)
			return err
		}
		// Transform: identity-ish, row by row, just distinguishable
		// values so a transcription bug would show up as a mismatch.
		vals := [16]float32{
			1, 0, 0, 10,
			0, 1, 0, 20,
			0, 0, 1, 30,
			0, 0, 0, 1,
		}
		for _, v := range vals {
			if err := w.PutFloat32(v); err != nil {
				return err
			}
		}
		for _, v := range [][3]float32{{-1, -1, -1}, {1, 1, 1}, {-2, -2, -2}, {2, 2, 2}, {0.5, 0.5, 0.5}} {
			for _, c := range v {
				if err := w.PutFloat32(c); err != nil {
					return err
				}
			}
		}
		return w.PutU32(0xDEADBEEF)
	})

	var doc []byte
	doc = append(doc, buildChunk(0xD100, payload)...)
	doc = append(doc, buildChunk(0xD120, nil)...)
	return buffer.Wrap(doc, true)
}

func TestParseNodeAndTrailer(t *testing.T) {
	h, err := hierarchy.Parse(buildHierarchy(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(h.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(h.Nodes))
	}
	n := h.Nodes[0]
	if n.Name != "BIP01" {
		t.Fatalf("name = %q", n.Name)
	}
	if n.ParentIndex != -1 {
		t.Fatalf("parentIndex = %d, want -1", n.ParentIndex)
	}
	want := [16]float32{
		1, 0, 0, 10,
		0, 1, 0, 20,
		0, 0, 1, 30,
		0, 0, 0, 1,
	}
	if n.Transform != want {
		t.Fatalf("transform = %v, want %v", n.Transform, want)
	}
	if h.BBox != ([2][3]float32{{-1, -1, -1}, {1, 1, 1}}) {
		t.Fatalf("bbox = %v", h.BBox)
	}
	if h.CollisionBBox != ([2][3]float32{{-2, -2, -2}, {2, 2, 2}}) {
		t.Fatalf("collisionBBox = %v", h.CollisionBBox)
	}
	if h.RootTranslation != ([3]float32{0.5, 0.5, 0.5}) {
		t.Fatalf("rootTranslation = %v", h.RootTranslation)
	}
	if h.Checksum != 0xDEADBEEF {
		t.Fatalf("checksum = %#x", h.Checksum)
	}
}
