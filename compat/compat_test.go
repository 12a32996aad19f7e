// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compat_test

import (
	"testing"

	"github.com/kharnas/zengin/compat"
)

func TestDOSRoundTrip(t *testing.T) {
	cases := []int64{315532800, 315532801, 1000000000, 2000000000}
	for _, tm := range cases {
		dos := compat.UnixTimeToDOS(tm)
		got := compat.DOSToUnixTime(dos)
		want := (tm / 2) * 2
		if got != want {
			t.Fatalf("round trip for %d: got %d, want %d", tm, got, want)
		}
	}
}

func TestIEquals(t *testing.T) {
	if !compat.IEquals("Hello", "HELLO") {
		t.Fatal("expected case-insensitive match")
	}
	if compat.IEquals("Hello", "World") {
		t.Fatal("expected mismatch")
	}
	// Symmetric.
	a, b := "FooBar", "foobar"
	if compat.IEquals(a, b) != compat.IEquals(b, a) {
		t.Fatal("IEquals must be symmetric")
	}
}
