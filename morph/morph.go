// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package morph decodes `.MMB` morph mesh containers: an
// embedded proto-mesh, a per-position delta vector matching the base
// mesh's vertex count, and named time-sampled displacement animations.
package morph

import (
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/meshchunk"
	"github.com/kharnas/zengin/proto"
)

const (
	chunkSources    uint16 = 0xE010
	chunkHeader     uint16 = 0xE020
	chunkAnimations uint16 = 0xE030
)

// Source records one `.MDM` source file's provenance date and name.
type Source struct {
	Year                             uint32
	Month, Day, Hour, Minute, Second uint16
	FileName                        string
}

// Animation is one named per-vertex displacement animation.
type Animation struct {
	Name       string
	BlendIn    float32
	BlendOut   float32
	Duration   float32
	Layer      int32
	Speed      float32
	Flags      uint8
	Vertices   []uint32 // base-mesh vertex index touched by this animation
	Samples    [][3]float32 // frame-major: len == FrameCount*len(Vertices)
	FrameCount uint32
}

// Morph is the fully decoded `.MMB` container.
type Morph struct {
	Name           string
	Mesh           proto.ProtoMesh
	MorphPositions [][3]float32 // one delta per Mesh.Vertices entry
	Sources        []Source
	Animations     []Animation
}

// Parse decodes a complete morph mesh container from b.
func Parse(b *buffer.Buffer) (Morph, error) {
	var msh Morph

	err := meshchunk.Walk(b, "morph mesh", func(tag uint16) bool { return false }, func(c meshchunk.Chunk) error {
		switch c.Tag {
		case chunkSources:
			count, err := c.SubR.U16()
			if err != nil {
				return err
			}
			msh.Sources = make([]Source, count)
			for i := range msh.Sources {
				s := &msh.Sources[i]
				if s.Year, err = c.SubR.U32(); err != nil {
					return err
				}
				if s.Month, err = c.SubR.U16(); err != nil {
					return err
				}
				if s.Day, err = c.SubR.U16(); err != nil {
					return err
				}
				if s.Hour, err = c.SubR.U16(); err != nil {
					return err
				}
				if s.Minute, err = c.SubR.U16(); err != nil {
					return err
				}
				if s.Second, err = c.SubR.U16(); err != nil {
					return err
				}
				if _, err = c.SubR.U16(); err != nil { // alignment padding
					return err
				}
				if s.FileName, err = c.SubR.Line(true); err != nil {
					return err
				}
			}
			return nil

		case chunkHeader:
			if _, err := c.SubR.U32(); err != nil { // version, discarded
				return err
			}
			name, err := c.SubR.Line(true)
			if err != nil {
				return err
			}
			msh.Name = name

			// The embedded proto-mesh is framed by its own chunk tag and
			// length, read directly from the remainder of this section's
			// bounded buffer.
			protoMesh, err := proto.Parse(c.Sub)
			if err != nil {
				return err
			}
			msh.Mesh = protoMesh

			msh.MorphPositions = make([][3]float32, len(protoMesh.Vertices))
			for i := range msh.MorphPositions {
				if msh.MorphPositions[i], err = c.SubR.Vec3(); err != nil {
					return err
				}
			}
			return nil

		case chunkAnimations:
			count, err := c.SubR.U16()
			if err != nil {
				return err
			}
			msh.Animations = make([]Animation, count)
			for i := range msh.Animations {
				a := &msh.Animations[i]
				if a.Name, err = c.SubR.Line(false); err != nil {
					return err
				}
				if a.BlendIn, err = c.SubR.Float32(); err != nil {
					return err
				}
				if a.BlendOut, err = c.SubR.Float32(); err != nil {
					return err
				}
				if a.Duration, err = c.SubR.Float32(); err != nil {
					return err
				}
				if a.Layer, err = c.SubR.I32(); err != nil {
					return err
				}
				if a.Speed, err = c.SubR.Float32(); err != nil {
					return err
				}
				if a.Flags, err = c.SubR.U8(); err != nil {
					return err
				}
				vertexCount, err := c.SubR.U32()
				if err != nil {
					return err
				}
				if a.FrameCount, err = c.SubR.U32(); err != nil {
					return err
				}
				a.Vertices = make([]uint32, vertexCount)
				for j := range a.Vertices {
					if a.Vertices[j], err = c.SubR.U32(); err != nil {
						return err
					}
				}
				a.Samples = make([][3]float32, uint64(vertexCount)*uint64(a.FrameCount))
				for j := range a.Samples {
					if a.Samples[j], err = c.SubR.Vec3(); err != nil {
						return err
					}
				}
			}
			return nil

		default:
			return nil
		}
	})

	return msh, err
}
