// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vdfs_test

import (
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/compat"
	"github.com/kharnas/zengin/stream"
	"github.com/kharnas/zengin/vdfs"
)

// shape is a cmp-friendly summary of an entry subtree: names, sizes, and
// directory-ness, but not offsets (those are expected to change across a
// pack/parse round-trip since the catalog is rewritten).
type shape struct {
	Name     string
	Size     uint32
	Dir      bool
	Children []shape
}

func treeShape(entries []*vdfs.Entry) []shape {
	out := make([]shape, len(entries))
	for i, e := range entries {
		out[i] = shape{Name: e.Name, Size: e.Size, Dir: e.IsDirectory(), Children: treeShape(e.Children)}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// buildSample constructs a minimal VDF container in memory with the tree:
//
//	README.TXT (file, "hello")
//	DATA/      (directory)
//	  A.DAT    (file, "xy")
func buildSample(t *testing.T) *buffer.Buffer {
	t.Helper()
	const (
		headerSize = 296
		entrySize  = 64 + 16
	)
	readme := []byte("hello")
	adat := []byte("xy")

	catalogSize := 3 * entrySize // README.TXT, DATA, A.DAT
	total := headerSize + catalogSize + len(readme) + len(adat)
	b := buffer.Allocate(uint64(total))
	w := stream.NewWriter(b)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}

	comment := make([]byte, 256)
	must(w.PutString(string(comment)))
	must(w.PutString("PSVDSC_V2.00\n\r\n\r"))
	must(w.PutU32(2))  // entry count
	must(w.PutU32(2))  // file count
	must(w.PutU32(compat.UnixToDOS(time.Date(2002, 3, 15, 0, 0, 0, 0, time.UTC))))
	must(w.PutU32(uint32(total)))
	must(w.PutU32(headerSize)) // catalog offset
	must(w.PutU32(0x50))       // version

	readmeOffset := headerSize + catalogSize
	adatOffset := readmeOffset + len(readme)

	// Entry 0: README.TXT, file, not last.
	must(w.PutPadded("README.TXT", 64))
	must(w.PutU32(uint32(readmeOffset)))
	must(w.PutU32(uint32(len(readme))))
	must(w.PutU32(0))
	must(w.PutU32(0))

	// Entry 1: DATA, directory, last (root has 2 siblings), points at block index 2.
	must(w.PutPadded("DATA", 64))
	must(w.PutU32(2)) // block index
	must(w.PutU32(0))
	must(w.PutU32(0x80000000 | 0x40000000))
	must(w.PutU32(0))

	// Entry 2: A.DAT, file, last (only child of DATA).
	must(w.PutPadded("A.DAT", 64))
	must(w.PutU32(uint32(adatOffset)))
	must(w.PutU32(uint32(len(adat))))
	must(w.PutU32(0x40000000))
	must(w.PutU32(0))

	must(w.B.Put(readme))
	must(w.B.Put(adat))

	_ = b.SetPosition(0)
	return b
}

func TestParseHeader(t *testing.T) {
	b := buildSample(t)
	f, err := vdfs.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if f.Header.EntryCount != 2 || f.Header.FileCount != 2 {
		t.Fatalf("counts = %d/%d", f.Header.EntryCount, f.Header.FileCount)
	}
	if f.Header.Version != 0x50 {
		t.Fatalf("version = %#x", f.Header.Version)
	}
}

func TestTreeConstruction(t *testing.T) {
	b := buildSample(t)
	f, err := vdfs.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(f.Children))
	}
	data := f.FindEntry("DATA")
	if data == nil || !data.IsDirectory() {
		t.Fatal("DATA not found as directory")
	}
	if len(data.Children) != 1 {
		t.Fatalf("DATA children = %d, want 1", len(data.Children))
	}
}

func TestCaseInsensitiveLookup(t *testing.T) {
	b := buildSample(t)
	f, err := vdfs.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	e := f.FindEntry("readme.txt")
	if e == nil {
		t.Fatal("case-insensitive FindEntry failed")
	}
	buf, err := e.Open()
	if err != nil {
		t.Fatal(err)
	}
	got, err := buf.ToBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("content = %q, want %q", got, "hello")
	}
}

func TestResolvePath(t *testing.T) {
	b := buildSample(t)
	f, err := vdfs.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	e := f.ResolvePath("data/a.dat")
	if e == nil {
		t.Fatal("ResolvePath failed to find DATA/A.DAT")
	}
	if e.IsDirectory() {
		t.Fatal("resolved to a directory, want file")
	}
	if f.ResolvePath("data/missing.dat") != nil {
		t.Fatal("ResolvePath found a nonexistent entry")
	}
}

func TestMerge(t *testing.T) {
	b1 := buildSample(t)
	f1, err := vdfs.Parse(b1)
	if err != nil {
		t.Fatal(err)
	}
	b2 := buildSample(t)
	f2, err := vdfs.Parse(b2)
	if err != nil {
		t.Fatal(err)
	}
	// Rename f2's DATA/A.DAT sibling content check: merge should keep
	// f1's tree shape, with DATA/A.DAT present exactly once.
	f1.Merge(f2, false)
	data := f1.FindEntry("DATA")
	if data == nil || len(data.Children) != 1 {
		t.Fatalf("merge duplicated or lost DATA's children: %+v", data)
	}
	if len(f1.Children) != 2 {
		t.Fatalf("merge duplicated root siblings: got %d, want 2", len(f1.Children))
	}
}

func TestPackRoundTrip(t *testing.T) {
	b := buildSample(t)
	f, err := vdfs.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	packed, err := vdfs.Pack(f)
	if err != nil {
		t.Fatal(err)
	}

	b2 := buffer.Wrap(packed, true)
	f2, err := vdfs.Parse(b2)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(treeShape(f.Children), treeShape(f2.Children)); diff != "" {
		t.Fatalf("catalog shape changed across pack round-trip (-want +got):\n%s", diff)
	}
	readme := f2.FindEntry("README.TXT")
	if readme == nil {
		t.Fatal("README.TXT missing after round-trip")
	}
	buf, err := readme.Open()
	if err != nil {
		t.Fatal(err)
	}
	got, err := buf.ToBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("content after round-trip = %q, want %q", got, "hello")
	}
	data := f2.FindEntry("DATA")
	if data == nil || !data.IsDirectory() || len(data.Children) != 1 {
		t.Fatalf("DATA subtree lost after round-trip: %+v", data)
	}
}
