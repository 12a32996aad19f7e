// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stream_test

import (
	"math"
	"testing"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

func TestScalarRoundTrip(t *testing.T) {
	b := buffer.Allocate(19)
	w := stream.NewWriter(b)
	if err := w.PutU8(0xAB); err != nil {
		t.Fatal(err)
	}
	if err := w.PutU16(0x1234); err != nil {
		t.Fatal(err)
	}
	if err := w.PutU32(0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if err := w.PutFloat32(3.5); err != nil {
		t.Fatal(err)
	}
	if err := w.PutU64(0x0102030405060708); err != nil {
		t.Fatal(err)
	}

	_ = b.SetPosition(0)
	r := stream.New(b)
	if v, err := r.U8(); err != nil || v != 0xAB {
		t.Fatalf("U8 = %x, %v", v, err)
	}
	if v, err := r.U16(); err != nil || v != 0x1234 {
		t.Fatalf("U16 = %x, %v", v, err)
	}
	if v, err := r.U32(); err != nil || v != 0xDEADBEEF {
		t.Fatalf("U32 = %x, %v", v, err)
	}
	if v, err := r.Float32(); err != nil || v != 3.5 {
		t.Fatalf("Float32 = %v, %v", v, err)
	}
	if v, err := r.U64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("U64 = %x, %v", v, err)
	}
}

func TestNulString(t *testing.T) {
	b := buffer.Wrap([]byte("hello\x00world"), true)
	r := stream.New(b)
	s, err := r.NulString()
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Fatalf("got %q", s)
	}
	rest, _ := r.String(5)
	if rest != "world" {
		t.Fatalf("got %q", rest)
	}
}

func TestLine(t *testing.T) {
	b := buffer.Wrap([]byte("foo\r\n   bar\n"), true)
	r := stream.New(b)
	l1, err := r.Line(true)
	if err != nil {
		t.Fatal(err)
	}
	if l1 != "foo" {
		t.Fatalf("line1 = %q", l1)
	}
	l2, err := r.Line(false)
	if err != nil {
		t.Fatal(err)
	}
	if l2 != "bar" {
		t.Fatalf("line2 = %q", l2)
	}
}

func TestLineEscaped(t *testing.T) {
	b := buffer.Wrap([]byte(`a\nb\tc` + "\n"), true)
	r := stream.New(b)
	s, err := r.LineEscaped()
	if err != nil {
		t.Fatal(err)
	}
	if s != "a\nb\tc" {
		t.Fatalf("got %q", s)
	}
}

func TestFloat32Bits(t *testing.T) {
	if math.Float32bits(1) == 0 {
		t.Fatal("sanity")
	}
}
