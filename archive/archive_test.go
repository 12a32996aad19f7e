// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package archive_test

import (
	"strings"
	"testing"

	"github.com/kharnas/zengin/archive"
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

func asciiHeader() string {
	var sb strings.Builder
	sb.WriteString("ZenGin Archive\n")
	sb.WriteString("ver 1\n")
	sb.WriteString("zCArchiverGeneric\n")
	sb.WriteString("ASCII\n")
	sb.WriteString("saveGame 0\n")
	sb.WriteString("date 1.1.2024\n")
	sb.WriteString("user tester\n")
	sb.WriteString("END\n")
	return sb.String()
}

// buildNested wraps a single "int:7" value line in two levels of
// nested objects:
//
//	outer (zCOuter)
//	  inner (zCInner) { value=int:7 }
func buildNested() *buffer.Buffer {
	doc := asciiHeader() +
		"[% zCOuter 0 0]\n" +
		"[% zCInner 0 1]\n" +
		"value=int:7\n" +
		"[]\n" +
		"[]\n"
	return buffer.Wrap([]byte(doc), true)
}

func TestASCIIHeaderFields(t *testing.T) {
	b := buildNested()
	r, err := archive.Open(b)
	if err != nil {
		t.Fatal(err)
	}
	h := r.Header()
	if h.Version != 1 || h.Format != archive.EncodingASCII || h.Save || h.User != "tester" {
		t.Fatalf("header = %+v", h)
	}
}

func TestASCIINestedObjectRoundTrip(t *testing.T) {
	b := buildNested()
	r, err := archive.Open(b)
	if err != nil {
		t.Fatal(err)
	}

	outer, ok, err := r.ReadObjectBegin()
	if err != nil || !ok || outer.ClassName != "zCOuter" {
		t.Fatalf("outer begin: ok=%v err=%v obj=%+v", ok, err, outer)
	}

	inner, ok, err := r.ReadObjectBegin()
	if err != nil || !ok || inner.ClassName != "zCInner" {
		t.Fatalf("inner begin: ok=%v err=%v obj=%+v", ok, err, inner)
	}

	v, err := r.ReadInt()
	if err != nil || v != 7 {
		t.Fatalf("value = %d, err = %v", v, err)
	}

	if ended, err := r.ReadObjectEnd(); err != nil || !ended {
		t.Fatalf("inner end: ended=%v err=%v", ended, err)
	}
	if ended, err := r.ReadObjectEnd(); err != nil || !ended {
		t.Fatalf("outer end: ended=%v err=%v", ended, err)
	}

	// Buffer should now be fully drained; no further markers exist.
	if _, ok, _ := r.ReadObjectBegin(); ok {
		t.Fatal("expected no further objects")
	}
}

func TestSkipObjectConsumesSameRangeAsExplicitRead(t *testing.T) {
	doc := asciiHeader() +
		"[% zCOuter 0 0]\n" +
		"[% zCInner 0 1]\n" +
		"value=int:7\n" +
		"[]\n" +
		"[]\n" +
		"tail=int:42\n"

	// Reader A: explicit begin/fields/end, then read the trailing value.
	rA, err := archive.Open(buffer.Wrap([]byte(doc), true))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := rA.ReadObjectBegin(); err != nil || !ok {
		t.Fatalf("A outer begin: %v %v", ok, err)
	}
	if _, ok, err := rA.ReadObjectBegin(); err != nil || !ok {
		t.Fatalf("A inner begin: %v %v", ok, err)
	}
	if _, err := rA.ReadInt(); err != nil {
		t.Fatal(err)
	}
	if ended, err := rA.ReadObjectEnd(); err != nil || !ended {
		t.Fatalf("A inner end: %v %v", ended, err)
	}
	if ended, err := rA.ReadObjectEnd(); err != nil || !ended {
		t.Fatalf("A outer end: %v %v", ended, err)
	}
	tailA, err := rA.ReadInt()
	if err != nil || tailA != 42 {
		t.Fatalf("A tail = %d, err = %v", tailA, err)
	}

	// Reader B: skip_object(false) from the same starting position.
	rB, err := archive.Open(buffer.Wrap([]byte(doc), true))
	if err != nil {
		t.Fatal(err)
	}
	if err := rB.SkipObject(false); err != nil {
		t.Fatal(err)
	}
	tailB, err := rB.ReadInt()
	if err != nil || tailB != 42 {
		t.Fatalf("B tail = %d, err = %v", tailB, err)
	}
}

func TestBinaryScalarReads(t *testing.T) {
	b := buffer.Allocate(4 + 4 + 4)
	w := stream.NewWriter(b)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(w.PutU32(0xFFFFFFFB)) // int32(-5)
	must(w.PutFloat32(3.5))
	must(w.PutU32(1))
	if err := b.SetPosition(0); err != nil {
		t.Fatal(err)
	}

	doc := "ZenGin Archive\nver 1\nzCArchiverGeneric\nBINARY\nEND\n"
	full := append([]byte(doc), mustBytes(t, b)...)
	r, err := archive.Open(buffer.Wrap(full, true))
	if err != nil {
		t.Fatal(err)
	}
	if r.Header().Format != archive.EncodingBinary {
		t.Fatalf("format = %v", r.Header().Format)
	}
	n, err := r.ReadInt()
	if err != nil || n != -5 {
		t.Fatalf("int = %d, err = %v", n, err)
	}
	f, err := r.ReadFloat()
	if err != nil || f != 3.5 {
		t.Fatalf("float = %v, err = %v", f, err)
	}
	bl, err := r.ReadBool()
	if err != nil {
		t.Fatal(err)
	}
	_ = bl
}

func mustBytes(t *testing.T, b *buffer.Buffer) []byte {
	t.Helper()
	out, err := b.Bytes(0, b.Limit())
	if err != nil {
		t.Fatal(err)
	}
	return out
}
