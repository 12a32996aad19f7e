// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package messages decodes cutscene message databases (`zCCSLib`
// archive objects): a flat, name-sorted list of dialogue blocks, each
// wrapping a single `oCMsgConversation` line of spoken text, following
// the tolerant nested-object-consumption pattern of the vobtree and
// world packages that sit on top of archive.Reader.
package messages

import (
	"fmt"
	"sort"

	"github.com/kharnas/zengin/archive"
	"github.com/kharnas/zengin/buffer"
)

// Type is the message's playback kind, canonicalized regardless of
// whether the surrounding archive stored it as a raw byte (BINARY) or
// a tagged enum (ASCII/BIN_SAFE).
type Type uint32

const (
	TypeInfo Type = iota
	TypeChoice
)

// Message is one spoken line: its playback type, the subtitle text,
// and the name of the associated sound wave (without extension).
type Message struct {
	Type Type
	Text string
	Name string
}

// Block is a named conversation block holding exactly one Message —
// the on-disk format permits more but no real data ever uses it
// (source.cc treats a count other than 1 as a parse error).
type Block struct {
	Name    string
	Message Message
}

// DB is a decoded message database, its blocks sorted by name to
// support binary-search lookup via BlockByName.
type DB struct {
	Blocks []Block
}

// Parse opens b as a ZenGin archive and decodes its `zCCSLib` message
// database.
func Parse(b *buffer.Buffer) (DB, error) {
	var db DB

	r, err := archive.Open(b)
	if err != nil {
		return db, err
	}
	return ParseReader(r)
}

// ParseReader decodes a message database from an already-open archive
// reader, for callers that need to embed a message database inside a
// larger archive stream.
func ParseReader(r archive.Reader) (DB, error) {
	var db DB

	root, ok, err := r.ReadObjectBegin()
	if err != nil {
		return db, err
	}
	if !ok || root.ClassName != "zCCSLib" {
		return db, fmt.Errorf("messages: expected 'zCCSLib' root object, got %q", root.ClassName)
	}

	count, err := r.ReadInt()
	if err != nil {
		return db, err
	}
	db.Blocks = make([]Block, 0, count)

	for i := int32(0); i < count; i++ {
		block, err := parseBlock(r)
		if err != nil {
			return db, err
		}
		db.Blocks = append(db.Blocks, block)
	}

	if ended, err := r.ReadObjectEnd(); err != nil {
		return db, err
	} else if !ended {
		// Observed in the wild: the root zCCSLib is not always fully
		// consumed. Tolerate it rather than fail the whole database.
	}

	sort.Slice(db.Blocks, func(i, j int) bool { return db.Blocks[i].Name < db.Blocks[j].Name })
	return db, nil
}

func parseBlock(r archive.Reader) (Block, error) {
	var blk Block

	obj, ok, err := r.ReadObjectBegin()
	if err != nil {
		return blk, err
	}
	if !ok || obj.ClassName != "zCCSBlock" {
		return blk, fmt.Errorf("messages: expected 'zCCSBlock', got %q", obj.ClassName)
	}

	blk.Name, err = r.ReadString() // blockName
	if err != nil {
		return blk, err
	}
	blockCount, err := r.ReadInt() // numOfBlocks
	if err != nil {
		return blk, err
	}
	if _, err := r.ReadFloat(); err != nil { // subBlock0, unused
		return blk, err
	}
	if blockCount != 1 {
		return blk, fmt.Errorf("messages: expected exactly one sub-block for %q, got %d", blk.Name, blockCount)
	}

	atomic, ok, err := r.ReadObjectBegin()
	if err != nil {
		return blk, err
	}
	if !ok || atomic.ClassName != "zCCSAtomicBlock" {
		return blk, fmt.Errorf("messages: expected 'zCCSAtomicBlock' for %q", blk.Name)
	}

	msg, ok, err := r.ReadObjectBegin()
	if err != nil {
		return blk, err
	}
	if !ok || msg.ClassName != "oCMsgConversation:oCNpcMessage:zCEventMessage" {
		return blk, fmt.Errorf("messages: expected conversation message for %q", blk.Name)
	}

	// Quirk: binary archives store the message type as a plain byte;
	// ASCII/BIN_SAFE store it as a tagged enum.
	if r.Header().Format == archive.EncodingBinary {
		b, err := r.ReadByte()
		if err != nil {
			return blk, err
		}
		blk.Message.Type = Type(b)
	} else {
		v, err := r.ReadEnum()
		if err != nil {
			return blk, err
		}
		blk.Message.Type = Type(v)
	}

	blk.Message.Text, err = r.ReadString()
	if err != nil {
		return blk, err
	}
	blk.Message.Name, err = r.ReadString()
	if err != nil {
		return blk, err
	}

	if ended, err := r.ReadObjectEnd(); err != nil {
		return blk, err
	} else if !ended {
		// FIXME: binary message databases occasionally carry wrong
		// object extents here; resynchronize rather than fail.
		if err := r.SkipObject(true); err != nil {
			return blk, err
		}
	}

	if ended, err := r.ReadObjectEnd(); err != nil {
		return blk, err
	} else if !ended {
		// G1 cutscene libraries carry an extra `synchronized`
		// attribute on zCCSAtomicBlock that this reader does not
		// model.
		if err := r.SkipObject(true); err != nil {
			return blk, err
		}
	}

	if ended, err := r.ReadObjectEnd(); err != nil {
		return blk, err
	} else if !ended {
		if err := r.SkipObject(true); err != nil {
			return blk, err
		}
	}

	return blk, nil
}

// BlockByName finds the block with the given name via binary search
// over the sorted Blocks slice.
func (db DB) BlockByName(name string) *Block {
	i := sort.Search(len(db.Blocks), func(i int) bool { return db.Blocks[i].Name >= name })
	if i < len(db.Blocks) && db.Blocks[i].Name == name {
		return &db.Blocks[i]
	}
	return nil
}
