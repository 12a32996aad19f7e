// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package messages_test

import (
	"strings"
	"testing"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/messages"
)

// buildDB assembles a minimal ASCII-encoded zCCSLib archive holding a
// single conversation block.
func buildDB(blockName, text, speaker string) *buffer.Buffer {
	var sb strings.Builder
	sb.WriteString("ZenGin Archive\n")
	sb.WriteString("ver 1\n")
	sb.WriteString("zCArchiverGeneric\n")
	sb.WriteString("ASCII\n")
	sb.WriteString("saveGame 0\n")
	sb.WriteString("date 1.1.2024\n")
	sb.WriteString("user tester\n")
	sb.WriteString("END\n")
	sb.WriteString("[% zCCSLib 0 0]\n")
	sb.WriteString("NumOfItems=int:1\n")
	sb.WriteString("[% zCCSBlock 0 1]\n")
	sb.WriteString("blockName=string:" + blockName + "\n")
	sb.WriteString("numOfBlocks=int:1\n")
	sb.WriteString("subBlock0=float:0\n")
	sb.WriteString("[% zCCSAtomicBlock 0 2]\n")
	sb.WriteString("[% oCMsgConversation:oCNpcMessage:zCEventMessage 0 3]\n")
	sb.WriteString("subType=enum:0\n")
	sb.WriteString("text=string:" + text + "\n")
	sb.WriteString("name=string:" + speaker + "\n")
	sb.WriteString("[]\n")
	sb.WriteString("[]\n")
	sb.WriteString("[]\n")
	sb.WriteString("[]\n")
	return buffer.Wrap([]byte(sb.String()), true)
}

func TestParseSingleBlock(t *testing.T) {
	b := buildDB("DIA_ARTO_PERM_15_00", "Du redest nicht viel, was?", "DIA_ARTO_PERM_15_00-01")

	db, err := messages.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(db.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(db.Blocks))
	}

	blk := db.BlockByName("DIA_ARTO_PERM_15_00")
	if blk == nil {
		t.Fatal("block not found")
	}
	if blk.Message.Text != "Du redest nicht viel, was?" {
		t.Fatalf("text = %q", blk.Message.Text)
	}
	if blk.Message.Type != messages.TypeInfo {
		t.Fatalf("type = %v, want TypeInfo", blk.Message.Type)
	}
}

func TestBlockByNameMissing(t *testing.T) {
	b := buildDB("DIA_FOO_15_00", "hi", "DIA_FOO_15_00-01")
	db, err := messages.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if blk := db.BlockByName("DOES_NOT_EXIST"); blk != nil {
		t.Fatalf("expected nil, got %+v", blk)
	}
}
