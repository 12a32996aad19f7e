// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package animation_test

import (
	"math"
	"testing"

	"github.com/kharnas/zengin/animation"
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

// buildPayload runs fill against a fresh n-byte buffer and returns its
// bytes, rewound to position 0 first so callers can concatenate it
// straight into a parent chunk stream.
func buildPayload(t *testing.T, n uint64, fill func(w *stream.Writer) error) []byte {
	t.Helper()
	b := buffer.Allocate(n)
	w := stream.NewWriter(b)
	if err := fill(w); err != nil {
		t.Fatal(err)
	}
	if err := b.SetPosition(0); err != nil {
		t.Fatal(err)
	}
	out, err := b.Bytes(0, b.Limit())
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// buildChunk frames payload under meshchunk's shared tag:u16, size:u32
// envelope.
func buildChunk(tag uint16, payload []byte) []byte {
	out := make([]byte, 0, 2+4+len(payload))
	out = append(out, byte(tag), byte(tag>>8))
	n := uint32(len(payload))
	out = append(out, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	return append(out, payload...)
}

// buildMAN assembles a one-node, one-frame `.MAN` container: a header
// chunk (0xA020) and a data chunk (0xA090) carrying a single rotation
// and position sample with known raw u16 components.
func buildMAN(t *testing.T) *buffer.Buffer {
	t.Helper()

	name := "Test"
	next := ""
	header := buildPayload(t, uint64(2+len(name)+1+4*3+4*4+12*2+len(next)+1), func(w *stream.Writer) error {
		if err := w.PutU16(0); err != nil { // version, discarded
			return err
		}
		if err := w.PutString(name); err != nil {
			return err
		}
		if err := w.PutU8(0); err != nil { // name terminator
			return err
		}
		if err := w.PutU32(1); err != nil { // Layer
			return err
		}
		if err := w.PutU32(1); err != nil { // FrameCount
			return err
		}
		if err := w.PutU32(1); err != nil { // NodeCount
			return err
		}
		if err := w.PutFloat32(25); err != nil { // FPS
			return err
		}
		if err := w.PutFloat32(25); err != nil { // FPSSource
			return err
		}
		if err := w.PutFloat32(-5); err != nil { // SamplePositionMin
			return err
		}
		if err := w.PutFloat32(0.01); err != nil { // SamplePositionScalar
			return err
		}
		for i := 0; i < 6; i++ { // BBox[0], BBox[1]
			if err := w.PutFloat32(float32(i)); err != nil {
				return err
			}
		}
		if err := w.PutString(next); err != nil {
			return err
		}
		return w.PutU8(0) // next terminator
	})

	data := buildPayload(t, 4+4+12, func(w *stream.Writer) error {
		if err := w.PutU32(12345); err != nil { // Checksum
			return err
		}
		if err := w.PutU32(0); err != nil { // NodeIndices[0]
			return err
		}
		// Rotation: raw u16 x=40000, y=32767 (mid-scale, decodes to 0), z=20000.
		for _, v := range []uint16{40000, 32767, 20000} {
			if err := w.PutU16(v); err != nil {
				return err
			}
		}
		// Position: raw u16 100, 200, 300 -> (-4, -3, -2) given min=-5, scalar=0.01.
		for _, v := range []uint16{100, 200, 300} {
			if err := w.PutU16(v); err != nil {
				return err
			}
		}
		return nil
	})

	var doc []byte
	doc = append(doc, buildChunk(0xA020, header)...)
	doc = append(doc, buildChunk(0xA090, data)...)
	return buffer.Wrap(doc, true)
}

func TestParseHeaderFields(t *testing.T) {
	anim, err := animation.Parse(buildMAN(t))
	if err != nil {
		t.Fatal(err)
	}
	if anim.Name != "Test" {
		t.Fatalf("name = %q", anim.Name)
	}
	if anim.FrameCount != 1 || anim.NodeCount != 1 {
		t.Fatalf("frameCount=%d nodeCount=%d", anim.FrameCount, anim.NodeCount)
	}
	if anim.FPS != 25 {
		t.Fatalf("fps = %v", anim.FPS)
	}
}

func TestParseSampleDecoding(t *testing.T) {
	anim, err := animation.Parse(buildMAN(t))
	if err != nil {
		t.Fatal(err)
	}
	if anim.Checksum != 12345 {
		t.Fatalf("checksum = %d", anim.Checksum)
	}
	if len(anim.Samples) != 1 {
		t.Fatalf("samples = %d, want 1", len(anim.Samples))
	}

	s := anim.Samples[0]
	if want := [3]float32{-4, -3, -2}; s.Position != want {
		t.Fatalf("position = %v, want %v", s.Position, want)
	}

	// The fourth rotation component is reconstructed from the unit-length
	// constraint; verify the whole quaternion lands on the unit sphere.
	lenSq := float64(s.Rotation[0])*float64(s.Rotation[0]) +
		float64(s.Rotation[1])*float64(s.Rotation[1]) +
		float64(s.Rotation[2])*float64(s.Rotation[2]) +
		float64(s.Rotation[3])*float64(s.Rotation[3])
	if math.Abs(lenSq-1.0) > 1e-4 {
		t.Fatalf("quaternion length^2 = %v, want ~1", lenSq)
	}
	if s.Rotation[1] != 0 {
		t.Fatalf("rotation.y = %v, want 0 (raw value == scalar midpoint)", s.Rotation[1])
	}
}
