// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vobtree_test

import (
	"strings"
	"testing"

	"github.com/kharnas/zengin/archive"
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/vobtree"
)

// identityMat3x3Hex is the little-endian hex encoding of a row-major
// 3x3 identity matrix (floats 1.0 and 0.0 only, so the byte pattern is
// easy to verify by hand: 1.0 = 0x3F800000, 0.0 = 0x00000000).
const identityMat3x3Hex = "0000803f0000000000000000000000000000803f0000000000000000000000000000803f"

// buildVobArchive assembles a minimal ASCII archive holding one
// unpacked-layout Gothic 2 vob (class name not in the known kind table,
// so it decodes as KindGeneric) with a single child vob. Both vobs use
// the "packed=0" unpacked field sequence and an always-present but
// empty AI sub-object, matching what readUnpackedBase expects
// regardless of whether the packed bits would have indicated one.
func buildVobArchive(t *testing.T) *buffer.Buffer {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("ZenGin Archive\n")
	sb.WriteString("ver 1\n")
	sb.WriteString("zCArchiverGeneric\n")
	sb.WriteString("ASCII\n")
	sb.WriteString("saveGame 0\n")
	sb.WriteString("date 1.1.2024\n")
	sb.WriteString("user tester\n")
	sb.WriteString("END\n")

	writeVob := func(name string, index int, position [3]float32, childCount int) {
		sb.WriteString("[" + name + " zCVob 37632 " + itoa(index) + "]\n")
		sb.WriteString("packed=int:0\n")
		sb.WriteString("presetName=string:\n")
		sb.WriteString("bbox=rawfloat:-1 -1 -1 1 1 1\n")
		sb.WriteString("rotation=raw:" + identityMat3x3Hex + "\n")
		sb.WriteString("position=vec3:" + ftoa3(position) + "\n")
		sb.WriteString("vobName=string:" + name + "\n")
		sb.WriteString("visual=string:\n")
		sb.WriteString("showVisual=bool:1\n")
		sb.WriteString("spriteCameraAlign=enum:0\n")
		sb.WriteString("animMode=enum:0\n")
		sb.WriteString("animStrength=float:0\n")
		sb.WriteString("farClipScale=float:0\n")
		sb.WriteString("cdStatic=bool:0\n")
		sb.WriteString("cdDynamic=bool:0\n")
		sb.WriteString("vobStatic=bool:0\n")
		sb.WriteString("dynamicShadows=enum:0\n")
		sb.WriteString("bias=int:0\n")
		sb.WriteString("ambient=bool:0\n")
		// No visual sub-object offered: the next object is named aiObj,
		// not visual, so readUnpackedBase takes it as the AI sub-object.
		// The AI sub-object is always required, so it must be present
		// here, even though it carries no fields of its own.
		sb.WriteString("[aiObj zCAIBase 0 " + itoa(100+index) + "]\n")
		sb.WriteString("[]\n")
		sb.WriteString("[]\n") // closes the vob object itself
		sb.WriteString("childCount=int:" + itoa(childCount) + "\n")
	}

	writeVob("ParentVob", 0, [3]float32{5, 0, 10}, 1)
	writeVob("ChildVob", 1, [3]float32{5, 1, 10}, 0)

	return buffer.Wrap([]byte(sb.String()), true)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func ftoa3(v [3]float32) string {
	parts := make([]string, 3)
	for i, c := range v {
		parts[i] = itoa(int(c))
	}
	return strings.Join(parts, " ")
}

func TestParseBuildsBaseFieldsAndChildren(t *testing.T) {
	r, err := archive.Open(buildVobArchive(t))
	if err != nil {
		t.Fatal(err)
	}

	node, err := vobtree.Parse(r, vobtree.Gothic2)
	if err != nil {
		t.Fatal(err)
	}

	if node.Kind != vobtree.KindGeneric {
		t.Fatalf("kind = %v, want KindGeneric", node.Kind)
	}
	if node.Base.Name != "ParentVob" {
		t.Fatalf("name = %q", node.Base.Name)
	}
	if node.Base.Position != ([3]float32{5, 0, 10}) {
		t.Fatalf("position = %v", node.Base.Position)
	}
	if node.Base.BBox != ([2][3]float32{{-1, -1, -1}, {1, 1, 1}}) {
		t.Fatalf("bbox = %v", node.Base.BBox)
	}
	want := [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}
	if node.Base.Rotation != want {
		t.Fatalf("rotation = %v, want %v", node.Base.Rotation, want)
	}
	if !node.Base.ShowVisual {
		t.Fatal("showVisual should be true")
	}

	if len(node.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(node.Children))
	}
	child := node.Children[0]
	if child.Kind != vobtree.KindGeneric {
		t.Fatalf("child kind = %v, want KindGeneric", child.Kind)
	}
	if child.Base.Name != "ChildVob" {
		t.Fatalf("child name = %q", child.Base.Name)
	}
	if child.Base.Position != ([3]float32{5, 1, 10}) {
		t.Fatalf("child position = %v", child.Base.Position)
	}
	if len(child.Children) != 0 {
		t.Fatalf("child children = %d, want 0", len(child.Children))
	}
}
