// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package material decodes `zCMaterial` archive objects: a small, version-gated field set read directly from an
// archive.Reader, shared by `.MAT` files and embedded proto-mesh
// material lists alike.
package material

import (
	"strconv"
	"strings"

	"github.com/kharnas/zengin/archive"
)

// versionG1V108k is the archive object version seen on Gothic 1
// (patch 1.08k) material archives; everything else reads the G2 layout.
const versionG1V108k = 17408

// Group enumerates the material_group discriminant. Despite the name,
// the on-disk value is a plain byte, not an archive enum (see Parse).
type Group uint8

const (
	GroupUndefined Group = iota
	GroupMetal
	GroupStone
	GroupWood
	GroupEarth
	GroupWater
	GroupSnow
	_
)

// WaveMode / AlphaFunc mirror the raw byte discriminants material.cc
// leaves undecoded (the source itself treats them as opaque bytes).
type Material struct {
	Name         string
	Group        Group
	Color        archive.Color
	SmoothAngle  float32
	Texture      string
	TextureScale [2]float32
	TextureAnimFPS     float32
	TextureAnimMapMode uint8
	TextureAnimMapDir  [2]float32
	DisableCollision   bool
	DisableLightmap    bool
	DontCollapse       uint8
	DetailObject       string
	DefaultMapping     [2]float32

	// G2-only fields; zero on a G1 (version 17408) material.
	DetailTextureScale         float32
	ForceOccluder              uint8
	EnvironmentMapping         uint8
	EnvironmentMappingStrength float32
	WaveMode                   uint8
	WaveSpeed                  uint8
	WaveMaxAmplitude           float32
	WaveGridSize               float32
	IgnoreSun                  uint8
	AlphaFunc                  uint8
}

// Parse reads one material object from r. The caller's surrounding
// archive must already be positioned so that the next token is the
// material name string, followed immediately by the zCMaterial object
// begin marker.
func Parse(r archive.Reader) (Material, error) {
	var m Material

	if _, err := r.ReadString(); err != nil { // material name, ignored (read again below)
		return m, err
	}

	obj, ok, err := r.ReadObjectBegin()
	if err != nil {
		return m, err
	}
	if !ok {
		return m, &archive.ParseError{Reason: "material: expected object begin"}
	}
	if obj.ClassName != "zCMaterial" {
		return m, &archive.ParseError{Reason: "material: expected class zCMaterial, got " + obj.ClassName}
	}

	readCommon := func() error {
		var err error
		if m.Name, err = r.ReadString(); err != nil {
			return err
		}
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		m.Group = Group(b)
		if m.Color, err = r.ReadColor(); err != nil {
			return err
		}
		if m.SmoothAngle, err = r.ReadFloat(); err != nil {
			return err
		}
		if m.Texture, err = r.ReadString(); err != nil {
			return err
		}
		scale, err := r.ReadString()
		if err != nil {
			return err
		}
		m.TextureScale = parseVec2String(scale)
		if m.TextureAnimFPS, err = r.ReadFloat(); err != nil {
			return err
		}
		if m.TextureAnimMapMode, err = r.ReadByte(); err != nil {
			return err
		}
		dir, err := r.ReadString()
		if err != nil {
			return err
		}
		m.TextureAnimMapDir = parseVec2String(dir)
		if m.DisableCollision, err = r.ReadBool(); err != nil {
			return err
		}
		if m.DisableLightmap, err = r.ReadBool(); err != nil {
			return err
		}
		if m.DontCollapse, err = r.ReadByte(); err != nil {
			return err
		}
		if m.DetailObject, err = r.ReadString(); err != nil {
			return err
		}
		return nil
	}

	if err := readCommon(); err != nil {
		return m, err
	}

	if obj.Version == versionG1V108k {
		if m.DefaultMapping, err = r.ReadVec2(); err != nil {
			return m, err
		}
	} else {
		if m.DetailTextureScale, err = r.ReadFloat(); err != nil {
			return m, err
		}
		if m.ForceOccluder, err = r.ReadByte(); err != nil {
			return m, err
		}
		if m.EnvironmentMapping, err = r.ReadByte(); err != nil {
			return m, err
		}
		if m.EnvironmentMappingStrength, err = r.ReadFloat(); err != nil {
			return m, err
		}
		if m.WaveMode, err = r.ReadByte(); err != nil {
			return m, err
		}
		if m.WaveSpeed, err = r.ReadByte(); err != nil {
			return m, err
		}
		if m.WaveMaxAmplitude, err = r.ReadFloat(); err != nil {
			return m, err
		}
		if m.WaveGridSize, err = r.ReadFloat(); err != nil {
			return m, err
		}
		if m.IgnoreSun, err = r.ReadByte(); err != nil {
			return m, err
		}
		if m.AlphaFunc, err = r.ReadByte(); err != nil {
			return m, err
		}
		if m.DefaultMapping, err = r.ReadVec2(); err != nil {
			return m, err
		}
	}

	if ok, err := r.ReadObjectEnd(); err != nil {
		return m, err
	} else if !ok {
		return m, &archive.ParseError{Reason: "material: expected object end"}
	}

	return m, nil
}

// parseVec2String parses the space-separated "x y" scalar pair some
// material string fields encode.
func parseVec2String(s string) [2]float32 {
	var out [2]float32
	fields := strings.Fields(s)
	for i := 0; i < 2 && i < len(fields); i++ {
		if v, err := strconv.ParseFloat(fields[i], 32); err == nil {
			out[i] = float32(v)
		}
	}
	return out
}
