// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model decodes `.MDM` model mesh containers: named
// proto-mesh attachments bound to hierarchy node names by read order, and
// a list of softskin meshes. Both sections' declared lengths are
// unreliable — the true length is however many bytes the embedded
// sub-parsers actually consume — so they are read directly against the
// parent stream rather than a declared-size bound.
package model

import (
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/meshchunk"
	"github.com/kharnas/zengin/proto"
	"github.com/kharnas/zengin/softskin"
)

const (
	chunkHeader    uint16 = 0xD000
	chunkSource    uint16 = 0xD010
	chunkNodes     uint16 = 0xD020
	chunkSoftSkins uint16 = 0xD030
	chunkEnd       uint16 = 0xD120
)

// Attachment is one named proto-mesh bound to a hierarchy node.
type Attachment struct {
	NodeName string
	Mesh     proto.ProtoMesh
}

// Model is the fully decoded `.MDM` container.
type Model struct {
	Attachments []Attachment
	SoftSkins   []softskin.SoftSkin
	Checksum    uint32
}

// Parse decodes a complete model mesh container from b.
func Parse(b *buffer.Buffer) (Model, error) {
	var m Model

	err := meshchunk.Walk(b, "model mesh", func(tag uint16) bool { return tag == chunkEnd }, func(c meshchunk.Chunk) error {
		switch c.Tag {
		case chunkHeader:
			_, err := c.SubR.U32() // version, discarded
			return err

		case chunkSource:
			if _, err := c.SubR.RawBytes(14); err != nil { // source date record, discarded
				return err
			}
			_, err := c.SubR.Line(false)
			return err

		case chunkNodes:
			// Names are collected up front, then each attachment's
			// proto-mesh is parsed in the same order; the proto-mesh
			// parser walks its own tag/size framing and may consume
			// more or less than this section's declared length, so
			// reads come from the parent stream, rewound to this
			// chunk's start.
			c.Parent.SetPosition(c.Start)
			r := c.ParentR

			nodeCount, err := r.U16()
			if err != nil {
				return err
			}
			names := make([]string, nodeCount)
			for i := range names {
				if names[i], err = r.Line(true); err != nil {
					return err
				}
			}
			m.Attachments = make([]Attachment, nodeCount)
			for i := range m.Attachments {
				mesh, err := proto.Parse(c.Parent)
				if err != nil {
					return err
				}
				m.Attachments[i] = Attachment{NodeName: names[i], Mesh: mesh}
			}
			c.Resync()
			return nil

		case chunkSoftSkins:
			c.Parent.SetPosition(c.Start)
			r := c.ParentR

			checksum, err := r.U32()
			if err != nil {
				return err
			}
			m.Checksum = checksum

			count, err := r.U16()
			if err != nil {
				return err
			}
			m.SoftSkins = make([]softskin.SoftSkin, count)
			for i := range m.SoftSkins {
				sk, err := softskin.Parse(c.Parent)
				if err != nil {
					return err
				}
				m.SoftSkins[i] = sk
			}
			c.Resync()
			return nil

		case chunkEnd:
			return nil

		default:
			return nil
		}
	})

	return m, err
}
