// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package animation decodes `.MAN` animation containers:
// a header, an optional source-file record, a variable-length event
// list, and a row-major frame*node table of rotation/position samples.
package animation

import (
	"math"

	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/meshchunk"
)

const (
	chunkAnimation uint16 = 0xA000
	chunkSource    uint16 = 0xA010
	chunkHeader    uint16 = 0xA020
	chunkEvents    uint16 = 0xA030
	chunkData      uint16 = 0xA090
)

// sampleQuatScalar/sampleQuatMiddle are the fixed-point
// constants used to decode a 16-bit rotation sample.
const (
	sampleQuatScalar = (1.0 / 65535.0) * 2.1
	sampleQuatMiddle = (1 << 15) - 1
)

// EventType enumerates the animation_event_type discriminant.
type EventType uint32

const (
	EventTag EventType = iota
	EventSound
	EventSoundGround
	EventAnimationBatch
	EventSwapMesh
	EventHeading
	EventPFX
	EventPFXGround
	EventPFXStop
	EventSetMesh
	EventStartAnimation
	EventTremor
)

// Event is one entry in the animation's variable-length event list.
type Event struct {
	Type        EventType
	No          uint32
	Tag         string
	Content     [4]string
	Values      [4]float32
	Probability float32
}

// Sample is one node's rotation/position pair at one frame.
type Sample struct {
	Rotation [4]float32 // x, y, z, w
	Position [3]float32
}

// SourceFile records the optional date/path provenance chunk.
type SourceFile struct {
	Year                             uint32
	Month, Day, Hour, Minute, Second uint16
	Path                             string
	MDSSource                        string
}

// Animation is the fully decoded `.MAN` container.
type Animation struct {
	Name                    string
	Next                    string
	Layer                   uint32
	FrameCount              uint32
	NodeCount               uint32
	FPS                     float32
	FPSSource               float32
	SamplePositionMin       float32
	SamplePositionScalar    float32
	BBox                    [2][3]float32
	Events                  []Event
	Checksum                uint32
	NodeIndices             []uint32
	Samples                 []Sample // row-major: frame-major, then node
	Source                  *SourceFile
}

// readSamplePosition reconstructs one position component: three u16
// scaled by the header's sample_position_scalar and offset by
// sample_position_min.
func readSamplePosition(r interface{ U16() (uint16, error) }, scalar, min float32) ([3]float32, error) {
	var v [3]float32
	for i := 0; i < 3; i++ {
		x, err := r.U16()
		if err != nil {
			return v, err
		}
		v[i] = float32(x)*scalar + min
	}
	return v, nil
}

// readSampleQuaternion decodes a rotation sample: three unsigned 16-bit
// values mapped via (x - 32767) * (2.1/65535), with the fourth component
// reconstructed from the unit-length constraint, renormalizing on
// X/Y/Z when the decoded components already exceed unit length.
func readSampleQuaternion(r interface{ U16() (uint16, error) }) ([4]float32, error) {
	var v [4]float32
	for i := 0; i < 3; i++ {
		x, err := r.U16()
		if err != nil {
			return v, err
		}
		v[i] = (float32(x) - sampleQuatMiddle) * sampleQuatScalar
	}
	lenQ := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
	if lenQ > 1.0 {
		l := float32(1.0 / math.Sqrt(float64(lenQ)))
		v[0] *= l
		v[1] *= l
		v[2] *= l
		v[3] = 0
	} else {
		v[3] = float32(math.Sqrt(float64(1.0 - lenQ)))
	}
	return v, nil
}

// Parse decodes a complete animation container from b.
func Parse(b *buffer.Buffer) (Animation, error) {
	var anim Animation

	err := meshchunk.Walk(b, "animation", func(tag uint16) bool { return false }, func(c meshchunk.Chunk) error {
		switch c.Tag {
		case chunkHeader:
			if _, err := c.SubR.U16(); err != nil { // version, discarded
				return err
			}
			name, err := c.SubR.Line(false)
			if err != nil {
				return err
			}
			anim.Name = name
			if anim.Layer, err = c.SubR.U32(); err != nil {
				return err
			}
			if anim.FrameCount, err = c.SubR.U32(); err != nil {
				return err
			}
			if anim.NodeCount, err = c.SubR.U32(); err != nil {
				return err
			}
			if anim.FPS, err = c.SubR.Float32(); err != nil {
				return err
			}
			if anim.FPSSource, err = c.SubR.Float32(); err != nil {
				return err
			}
			if anim.SamplePositionMin, err = c.SubR.Float32(); err != nil {
				return err
			}
			if anim.SamplePositionScalar, err = c.SubR.Float32(); err != nil {
				return err
			}
			if anim.BBox[0], err = c.SubR.Vec3(); err != nil {
				return err
			}
			if anim.BBox[1], err = c.SubR.Vec3(); err != nil {
				return err
			}
			anim.Next, err = c.SubR.Line(false)
			return err

		case chunkEvents:
			count, err := c.SubR.U32()
			if err != nil {
				return err
			}
			anim.Events = make([]Event, 0, count)
			for i := uint32(0); i < count; i++ {
				var ev Event
				typ, err := c.SubR.U32()
				if err != nil {
					return err
				}
				ev.Type = EventType(typ)
				if ev.No, err = c.SubR.U32(); err != nil {
					return err
				}
				if ev.Tag, err = c.SubR.Line(false); err != nil {
					return err
				}
				for j := range ev.Content {
					if ev.Content[j], err = c.SubR.Line(false); err != nil {
						return err
					}
				}
				for j := range ev.Values {
					if ev.Values[j], err = c.SubR.Float32(); err != nil {
						return err
					}
				}
				if ev.Probability, err = c.SubR.Float32(); err != nil {
					return err
				}
				anim.Events = append(anim.Events, ev)
			}
			return nil

		case chunkData:
			var err error
			if anim.Checksum, err = c.SubR.U32(); err != nil {
				return err
			}
			anim.NodeIndices = make([]uint32, anim.NodeCount)
			for i := range anim.NodeIndices {
				if anim.NodeIndices[i], err = c.SubR.U32(); err != nil {
					return err
				}
			}
			total := anim.NodeCount * anim.FrameCount
			anim.Samples = make([]Sample, total)
			for i := range anim.Samples {
				rot, err := readSampleQuaternion(c.SubR)
				if err != nil {
					return err
				}
				pos, err := readSamplePosition(c.SubR, anim.SamplePositionScalar, anim.SamplePositionMin)
				if err != nil {
					return err
				}
				anim.Samples[i] = Sample{Rotation: rot, Position: pos}
			}
			return nil

		case chunkSource:
			var src SourceFile
			var err error
			if src.Year, err = c.SubR.U32(); err != nil {
				return err
			}
			if src.Month, err = u16(c.SubR); err != nil {
				return err
			}
			if src.Day, err = u16(c.SubR); err != nil {
				return err
			}
			if src.Hour, err = u16(c.SubR); err != nil {
				return err
			}
			if src.Minute, err = u16(c.SubR); err != nil {
				return err
			}
			if src.Second, err = u16(c.SubR); err != nil {
				return err
			}
			if _, err := c.SubR.U16(); err != nil { // alignment
				return err
			}
			if src.Path, err = c.SubR.Line(false); err != nil {
				return err
			}
			if src.MDSSource, err = c.SubR.Line(false); err != nil {
				return err
			}
			anim.Source = &src
			return nil

		case chunkAnimation:
			return nil
		default:
			return nil
		}
	})

	return anim, err
}

func u16(r interface{ U16() (uint16, error) }) (uint16, error) { return r.U16() }
