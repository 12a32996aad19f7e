// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vobtree decodes the world's scene-graph ("vob") tree: a
// polymorphic forest of archive objects, each carrying a base
// set of placement/visibility fields plus type-specific data, recursed
// into via each node's declared child count. Only a representative
// subset of the real class hierarchy is decoded past the shared base
// fields; anything else keeps its Base and has its remaining,
// undecoded bytes discarded the same tolerant way every other partial
// object in this package is.
package vobtree

import (
	"fmt"

	"github.com/kharnas/zengin/archive"
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/stream"
)

// GameVersion selects between the two base field layouts a vob record
// uses.
type GameVersion int

const (
	Gothic1 GameVersion = iota
	Gothic2
)

// Kind identifies which concrete vob fields were decoded, beyond Base.
type Kind int

const (
	KindGeneric Kind = iota
	KindLight
	KindSound
	KindSoundDaytime
	KindMob
	KindMover
	KindChangeLevel
	KindCSCamera
)

var classKinds = map[string]Kind{
	"zCVobLight:zCVob":                    KindLight,
	"zCVobSound:zCVob":                    KindSound,
	"zCVobSoundDaytime:zCVobSound:zCVob":  KindSoundDaytime,
	"oCMOB:zCVob":                         KindMob,
	"oCMobInter:oCMOB:zCVob":              KindMob,
	"oCMobBed:oCMobInter:oCMOB:zCVob":     KindMob,
	"oCMobFire:oCMobInter:oCMOB:zCVob":    KindMob,
	"oCMobLadder:oCMobInter:oCMOB:zCVob":  KindMob,
	"oCMobSwitch:oCMobInter:oCMOB:zCVob":  KindMob,
	"oCMobWheel:oCMobInter:oCMOB:zCVob":   KindMob,
	"oCMobContainer:oCMobInter:oCMOB:zCVob": KindMob,
	"oCMobDoor:oCMobInter:oCMOB:zCVob":    KindMob,
	"zCMover:zCTrigger:zCVob":             KindMover,
	"oCTriggerChangeLevel:zCTrigger:zCVob": KindChangeLevel,
	"zCCSCamera:zCVob":                    KindCSCamera,
}

// SpriteAlignment mirrors the camera-facing billboard mode.
type SpriteAlignment uint8

// ShadowMode mirrors the vob's static shadow casting mode.
type ShadowMode uint8

// Base holds every field common to all vob kinds, populated from
// either the packed binary record or the unpacked ASCII/BinSafe field
// sequence.
type Base struct {
	BBox              [2][3]float32
	Position          [3]float32
	Rotation          [9]float32 // row-major 3x3
	PresetName        string
	Name              string
	VisualName        string
	ShowVisual        bool
	SpriteCameraAlign SpriteAlignment
	CDStatic          bool
	CDDynamic         bool
	VobStatic         bool
	DynamicShadows    ShadowMode
	AnimMode          uint8
	AnimStrength      float32
	FarClipScale      float32
	Bias              int32
	Ambient           bool
	PhysicsEnabled    bool
}

// Light carries a zCVobLight's light-preset fields.
type Light struct {
	Base
	Preset      string
	LightType   uint32
	Range       float32
	Color       archive.Color
	ConeAngle   float32
	IsStatic    bool
	Quality     uint32
	LensflareFX string
	On          bool
}

// Sound carries a zCVobSound's/zCVobSoundDaytime's ambient audio
// fields.
type Sound struct {
	Base
	Volume           float32
	Mode             uint32
	RandomDelay      float32
	RandomDelayVar   float32
	InitiallyPlaying bool
	Ambient3D        bool
	Obstruction      bool
	ConeAngle        float32
	VolumeType       uint32
	Radius           float32
	SoundName        string
	StartTime        float32 // daytime variant only
	EndTime          float32 // daytime variant only
	SoundName2       string  // daytime variant only
	IsDaytime        bool
}

// Mob carries an oCMOB interactive-object's fields.
type Mob struct {
	Base
	FocusName       string
	HitPoints       int32
	Damage          int32
	Movable         bool
	Takable         bool
	FocusOverride   bool
	SoundMaterial   uint32
	VisualDestroyed string
	Owner           string
	OwnerGuild      string
	Destroyed       bool
}

// KeyFrame is one position/rotation sample of a zCMover's movement
// path.
type KeyFrame struct {
	Position [3]float32
	Rotation [4]float32 // quaternion, x,y,z,w on disk
}

// Mover carries a zCMover's keyframed-movement trigger fields.
type Mover struct {
	Base
	Target             string
	MaxActivationCount int32
	RetriggerDelaySec  float32
	DamageThreshold    float32
	FireDelaySec       float32
	Behavior           uint32
	TouchBlockerDamage float32
	StayOpenTimeSec    float32
	Locked             bool
	AutoLink           bool
	AutoRotate         bool // Gothic 2 only
	Speed              float32
	LerpMode           uint32
	SpeedMode          uint32
	Keyframes          []KeyFrame
	SFXOpenStart       string
	SFXOpenEnd         string
	SFXTransitioning   string
	SFXCloseStart      string
	SFXCloseEnd        string
	SFXLock            string
	SFXUnlock          string
	SFXUseLocked       string
}

// ChangeLevel carries an oCTriggerChangeLevel's destination fields.
type ChangeLevel struct {
	Base
	Target             string
	MaxActivationCount int32
	RetriggerDelaySec  float32
	DamageThreshold    float32
	FireDelaySec       float32
	LevelName          string
	StartVob           string
}

// CSCamera carries a zCCSCamera's cutscene camera path fields. Nested
// zCCamTrj_KeyFrame objects are not individually decoded.
type CSCamera struct {
	Base
	TrajectoryFOR       uint32
	TargetTrajectoryFOR uint32
	LoopMode            uint32
	LerpMode            uint32
	TotalDuration       float32
	AutoFocusVob        string
	PositionCount       int32
	TargetCount         int32
}

// Node is one entry of the decoded scene graph.
type Node struct {
	Kind        Kind
	ClassName   string
	Index       uint32
	Base        Base
	Light       *Light
	Sound       *Sound
	Mob         *Mob
	Mover       *Mover
	ChangeLevel *ChangeLevel
	CSCamera    *CSCamera
	Children    []*Node
}

func rawReader(raw []byte) *stream.Reader {
	return stream.New(buffer.Wrap(raw, true))
}

func readPackedBase(r archive.Reader, version GameVersion) (Base, error) {
	var b Base
	n := 74
	if version == Gothic2 {
		n = 83
	}
	raw, err := r.ReadRawBytes(n)
	if err != nil {
		return b, err
	}
	br := rawReader(raw)

	min, err := br.Vec3()
	if err != nil {
		return b, err
	}
	max, err := br.Vec3()
	if err != nil {
		return b, err
	}
	b.BBox = [2][3]float32{min, max}

	if b.Position, err = br.Vec3(); err != nil {
		return b, err
	}
	if b.Rotation, err = br.Mat3x3(); err != nil {
		return b, err
	}

	bit0, err := br.U8()
	if err != nil {
		return b, err
	}
	var bit1 uint16
	if version == Gothic1 {
		v, err := br.U8()
		if err != nil {
			return b, err
		}
		bit1 = uint16(v)
	} else {
		if bit1, err = br.U16(); err != nil {
			return b, err
		}
	}

	b.ShowVisual = bit0&0x01 != 0
	b.SpriteCameraAlign = SpriteAlignment((bit0 & 0x06) >> 1)
	b.CDStatic = bit0&0x08 != 0
	b.CDDynamic = bit0&0x10 != 0
	b.VobStatic = bit0&0x20 != 0
	b.DynamicShadows = ShadowMode((bit0 & 0xC0) >> 6)

	hasPreset := bit1&0x0001 != 0
	hasName := bit1&0x0002 != 0
	hasVisual := bit1&0x0004 != 0
	hasVisualObject := bit1&0x0008 != 0
	hasAIObject := bit1&0x0010 != 0
	b.PhysicsEnabled = bit1&0x0040 != 0

	if version == Gothic2 {
		b.AnimMode = uint8((bit1 & 0x0180) >> 7)
		b.Bias = int32((bit1 & 0x3E00) >> 9)
		b.Ambient = bit1&0x4000 != 0

		if b.AnimStrength, err = br.Float32(); err != nil {
			return b, err
		}
		if b.FarClipScale, err = br.Float32(); err != nil {
			return b, err
		}
	}

	if hasPreset {
		if b.PresetName, err = r.ReadString(); err != nil {
			return b, err
		}
	}
	if hasName {
		if b.Name, err = r.ReadString(); err != nil {
			return b, err
		}
	}
	if hasVisual {
		if b.VisualName, err = r.ReadString(); err != nil {
			return b, err
		}
	}

	if hasVisualObject {
		if _, ok, err := r.ReadObjectBegin(); err != nil {
			return b, err
		} else if ok {
			if err := r.SkipObject(true); err != nil {
				return b, err
			}
		}
	}
	if hasAIObject {
		if err := r.SkipObject(false); err != nil {
			return b, err
		}
	}

	return b, nil
}

func readUnpackedBase(r archive.Reader, version GameVersion) (Base, error) {
	var b Base
	var err error

	if b.PresetName, err = r.ReadString(); err != nil {
		return b, err
	}
	bbox, err := r.ReadBBox()
	if err != nil {
		return b, err
	}
	b.BBox = [2][3]float32{bbox.Min, bbox.Max}
	if b.Rotation, err = r.ReadMat3x3(); err != nil {
		return b, err
	}
	if b.Position, err = r.ReadVec3(); err != nil {
		return b, err
	}
	if b.Name, err = r.ReadString(); err != nil {
		return b, err
	}
	if b.VisualName, err = r.ReadString(); err != nil {
		return b, err
	}
	if b.ShowVisual, err = r.ReadBool(); err != nil {
		return b, err
	}
	align, err := r.ReadEnum()
	if err != nil {
		return b, err
	}
	b.SpriteCameraAlign = SpriteAlignment(align)

	if version == Gothic1 {
		if b.CDStatic, err = r.ReadBool(); err != nil {
			return b, err
		}
		if b.CDDynamic, err = r.ReadBool(); err != nil {
			return b, err
		}
		if b.VobStatic, err = r.ReadBool(); err != nil {
			return b, err
		}
		shadow, err := r.ReadEnum()
		if err != nil {
			return b, err
		}
		b.DynamicShadows = ShadowMode(shadow)
	} else {
		animMode, err := r.ReadEnum()
		if err != nil {
			return b, err
		}
		b.AnimMode = uint8(animMode)
		if b.AnimStrength, err = r.ReadFloat(); err != nil {
			return b, err
		}
		if b.FarClipScale, err = r.ReadFloat(); err != nil {
			return b, err
		}
		if b.CDStatic, err = r.ReadBool(); err != nil {
			return b, err
		}
		if b.CDDynamic, err = r.ReadBool(); err != nil {
			return b, err
		}
		if b.VobStatic, err = r.ReadBool(); err != nil {
			return b, err
		}
		shadow, err := r.ReadEnum()
		if err != nil {
			return b, err
		}
		b.DynamicShadows = ShadowMode(shadow)
		if b.Bias, err = r.ReadInt(); err != nil {
			return b, err
		}
		if b.Ambient, err = r.ReadBool(); err != nil {
			return b, err
		}
	}

	if obj, ok, err := r.ReadObjectBegin(); err != nil {
		return b, err
	} else if ok {
		if err := r.SkipObject(true); err != nil {
			return b, err
		}
		if obj.Name != "visual" {
			// No visual sub-object: the one just skipped was the AI
			// sub-object.
			return b, nil
		}
	}
	return b, r.SkipObject(false)
}

// readBase dispatches between the packed and unpacked base-field
// layouts per the leading "pack" integer.
func readBase(r archive.Reader, version GameVersion) (Base, error) {
	packed, err := r.ReadInt()
	if err != nil {
		return Base{}, err
	}
	if packed != 0 {
		return readPackedBase(r, version)
	}
	return readUnpackedBase(r, version)
}

func readLight(r archive.Reader, version GameVersion, base Base) (*Light, error) {
	l := &Light{Base: base}
	var err error
	if l.Preset, err = r.ReadString(); err != nil {
		return nil, err
	}
	if l.LightType, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if l.Range, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if l.Color, err = r.ReadColor(); err != nil {
		return nil, err
	}
	if l.ConeAngle, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if l.IsStatic, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if l.Quality, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if l.LensflareFX, err = r.ReadString(); err != nil {
		return nil, err
	}
	if !l.IsStatic {
		if l.On, err = r.ReadBool(); err != nil {
			return nil, err
		}
		if _, err = r.ReadString(); err != nil { // range animation scale list
			return nil, err
		}
		if _, err = r.ReadFloat(); err != nil { // range animation fps
			return nil, err
		}
		if _, err = r.ReadBool(); err != nil { // range animation smooth
			return nil, err
		}
		if _, err = r.ReadString(); err != nil { // color animation list
			return nil, err
		}
		if _, err = r.ReadFloat(); err != nil { // color animation fps
			return nil, err
		}
		if _, err = r.ReadBool(); err != nil { // color animation smooth
			return nil, err
		}
		if version == Gothic2 {
			if _, err = r.ReadBool(); err != nil { // can move
				return nil, err
			}
		}
	}
	return l, nil
}

func readSound(r archive.Reader, daytime bool, base Base) (*Sound, error) {
	s := &Sound{Base: base, IsDaytime: daytime}
	var err error
	if s.Volume, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if s.Mode, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if s.RandomDelay, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if s.RandomDelayVar, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if s.InitiallyPlaying, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if s.Ambient3D, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if s.Obstruction, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if s.ConeAngle, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if s.VolumeType, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if s.Radius, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if s.SoundName, err = r.ReadString(); err != nil {
		return nil, err
	}
	if daytime {
		if s.StartTime, err = r.ReadFloat(); err != nil {
			return nil, err
		}
		if s.EndTime, err = r.ReadFloat(); err != nil {
			return nil, err
		}
		if s.SoundName2, err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func readMob(r archive.Reader, base Base) (*Mob, error) {
	m := &Mob{Base: base}
	var err error
	if m.FocusName, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.HitPoints, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if m.Damage, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if m.Movable, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.Takable, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.FocusOverride, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.SoundMaterial, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if m.VisualDestroyed, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Owner, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.OwnerGuild, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Destroyed, err = r.ReadBool(); err != nil {
		return nil, err
	}
	// oCMobInter/oCMobContainer/oCMobDoor/oCMobFire add further fields
	// this reduced model does not distinguish; any trailing bytes are
	// absorbed by SkipObject at the end of the enclosing object.
	return m, nil
}

func readMover(r archive.Reader, version GameVersion, base Base) (*Mover, error) {
	mv := &Mover{Base: base}
	var err error
	if mv.Target, err = r.ReadString(); err != nil {
		return nil, err
	}
	if _, err = r.ReadRawBytes(1); err != nil { // flags
		return nil, err
	}
	if _, err = r.ReadRawBytes(1); err != nil { // filter flags
		return nil, err
	}
	if _, err = r.ReadString(); err != nil { // respond-to-vob name
		return nil, err
	}
	if mv.MaxActivationCount, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if mv.RetriggerDelaySec, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if mv.DamageThreshold, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if mv.FireDelaySec, err = r.ReadFloat(); err != nil {
		return nil, err
	}

	if mv.Behavior, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if mv.TouchBlockerDamage, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if mv.StayOpenTimeSec, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if mv.Locked, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if mv.AutoLink, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if version == Gothic2 {
		if mv.AutoRotate, err = r.ReadBool(); err != nil {
			return nil, err
		}
	}

	keyframeCount, err := r.ReadWord()
	if err != nil {
		return nil, err
	}
	if keyframeCount > 0 {
		if mv.Speed, err = r.ReadFloat(); err != nil {
			return nil, err
		}
		if mv.LerpMode, err = r.ReadEnum(); err != nil {
			return nil, err
		}
		if mv.SpeedMode, err = r.ReadEnum(); err != nil {
			return nil, err
		}

		raw, err := r.ReadRawBytes(int(keyframeCount) * 28) // vec3 + quaternion
		if err != nil {
			return nil, err
		}
		kr := rawReader(raw)
		mv.Keyframes = make([]KeyFrame, keyframeCount)
		for i := range mv.Keyframes {
			if mv.Keyframes[i].Position, err = kr.Vec3(); err != nil {
				return nil, err
			}
			for j := range mv.Keyframes[i].Rotation {
				if mv.Keyframes[i].Rotation[j], err = kr.Float32(); err != nil {
					return nil, err
				}
			}
		}
	}

	if mv.SFXOpenStart, err = r.ReadString(); err != nil {
		return nil, err
	}
	if mv.SFXOpenEnd, err = r.ReadString(); err != nil {
		return nil, err
	}
	if mv.SFXTransitioning, err = r.ReadString(); err != nil {
		return nil, err
	}
	if mv.SFXCloseStart, err = r.ReadString(); err != nil {
		return nil, err
	}
	if mv.SFXCloseEnd, err = r.ReadString(); err != nil {
		return nil, err
	}
	if mv.SFXLock, err = r.ReadString(); err != nil {
		return nil, err
	}
	if mv.SFXUnlock, err = r.ReadString(); err != nil {
		return nil, err
	}
	if mv.SFXUseLocked, err = r.ReadString(); err != nil {
		return nil, err
	}
	return mv, nil
}

func readChangeLevel(r archive.Reader, base Base) (*ChangeLevel, error) {
	cl := &ChangeLevel{Base: base}
	var err error
	if cl.Target, err = r.ReadString(); err != nil {
		return nil, err
	}
	if _, err = r.ReadRawBytes(1); err != nil {
		return nil, err
	}
	if _, err = r.ReadRawBytes(1); err != nil {
		return nil, err
	}
	if _, err = r.ReadString(); err != nil {
		return nil, err
	}
	if cl.MaxActivationCount, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if cl.RetriggerDelaySec, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if cl.DamageThreshold, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if cl.FireDelaySec, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if cl.LevelName, err = r.ReadString(); err != nil {
		return nil, err
	}
	if cl.StartVob, err = r.ReadString(); err != nil {
		return nil, err
	}
	return cl, nil
}

func readCSCamera(r archive.Reader, base Base) (*CSCamera, error) {
	c := &CSCamera{Base: base}
	var err error
	if c.TrajectoryFOR, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if c.TargetTrajectoryFOR, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if c.LoopMode, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if c.LerpMode, err = r.ReadEnum(); err != nil {
		return nil, err
	}
	if _, err = r.ReadBool(); err != nil { // ignoreFORVobRotCam
		return nil, err
	}
	if _, err = r.ReadBool(); err != nil { // ignoreFORVobRotTarget
		return nil, err
	}
	if _, err = r.ReadBool(); err != nil { // adaptToSurroundings
		return nil, err
	}
	if _, err = r.ReadBool(); err != nil { // easeToFirstKey
		return nil, err
	}
	if _, err = r.ReadBool(); err != nil { // easeFromLastKey
		return nil, err
	}
	if c.TotalDuration, err = r.ReadFloat(); err != nil {
		return nil, err
	}
	if c.AutoFocusVob, err = r.ReadString(); err != nil {
		return nil, err
	}
	if _, err = r.ReadBool(); err != nil { // autoCamPlayerMovable
		return nil, err
	}
	if _, err = r.ReadBool(); err != nil { // autoCamUntriggerOnLastKey
		return nil, err
	}
	if _, err = r.ReadFloat(); err != nil { // autoCamUntriggerOnLastKeyDelay
		return nil, err
	}
	if c.PositionCount, err = r.ReadInt(); err != nil {
		return nil, err
	}
	if c.TargetCount, err = r.ReadInt(); err != nil {
		return nil, err
	}
	// Nested zCCamTrj_KeyFrame objects follow and are left to the
	// enclosing ReadObjectEnd/SkipObject cleanup.
	return c, nil
}

// Parse decodes one vob and its full subtree from r. A forward
// reference marker ("\xA7") is skipped outright with no Node produced;
// every other object — recognized or not — keeps at least its Base.
func Parse(r archive.Reader, version GameVersion) (*Node, error) {
	obj, ok, err := r.ReadObjectBegin()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("vobtree: expected object, found none")
	}

	if obj.ClassName == "\xA7" {
		if err := r.SkipObject(true); err != nil {
			return nil, err
		}
		return skipChildren(r, version)
	}

	base, err := readBase(r, version)
	if err != nil {
		return nil, err
	}

	node := &Node{Kind: classKinds[obj.ClassName], ClassName: obj.ClassName, Index: obj.Index, Base: base}
	switch node.Kind {
	case KindLight:
		node.Light, err = readLight(r, version, base)
	case KindSound:
		node.Sound, err = readSound(r, false, base)
	case KindSoundDaytime:
		node.Sound, err = readSound(r, true, base)
	case KindMob:
		node.Mob, err = readMob(r, base)
	case KindMover:
		node.Mover, err = readMover(r, version, base)
	case KindChangeLevel:
		node.ChangeLevel, err = readChangeLevel(r, base)
	case KindCSCamera:
		node.CSCamera, err = readCSCamera(r, base)
	}
	if err != nil {
		return nil, err
	}

	if r.Header().Save {
		if _, err := r.ReadByte(); err != nil { // sleep_mode
			return nil, err
		}
		if _, err := r.ReadFloat(); err != nil { // next_on_timer
			return nil, err
		}
	}

	if ended, err := r.ReadObjectEnd(); err != nil {
		return nil, err
	} else if !ended {
		if err := r.SkipObject(true); err != nil {
			return nil, err
		}
	}

	childCount, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < childCount; i++ {
		child, err := Parse(r, version)
		if err != nil {
			return nil, err
		}
		if child != nil {
			node.Children = append(node.Children, child)
		}
	}

	return node, nil
}

// skipChildren discards the children of an object that produced no
// Node (currently only the forward-reference placeholder), still
// walking the tree shape so the stream position stays correct for
// whatever follows.
func skipChildren(r archive.Reader, version GameVersion) (*Node, error) {
	childCount, err := r.ReadInt()
	if err != nil {
		return nil, err
	}
	for i := int32(0); i < childCount; i++ {
		if _, err := Parse(r, version); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
