// Copyright 2024 The zengin Authors.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package world composes a complete level (`.ZEN`): the root archive
// object, its embedded mesh-and-BSP section, vob scene graph, and
// way-net, the way golang-debug/internal/gocore/process.go composes
// lower-level memory readers into one domain object.
package world

import (
	"fmt"

	"github.com/kharnas/zengin/archive"
	"github.com/kharnas/zengin/bsp"
	"github.com/kharnas/zengin/buffer"
	"github.com/kharnas/zengin/mesh"
	"github.com/kharnas/zengin/stream"
	"github.com/kharnas/zengin/vobtree"
)

const worldMeshEndTag uint16 = 0xB060

// Waypoint is one named node of the way-net graph.
type Waypoint struct {
	Name       string
	WaterDepth int32
	UnderWater bool
	Position   [3]float32
	Direction  [3]float32
	FreePoint  bool
}

// Edge is an undirected connection between two waypoints, referencing
// them by index into WayNet.Waypoints.
type Edge struct {
	A, B uint32
}

// WayNet is the world's path-finding graph.
type WayNet struct {
	Waypoints []Waypoint
	Edges     []Edge
}

// World is the fully decoded level.
type World struct {
	Mesh    mesh.Mesh
	RawMesh mesh.RawMesh
	BSP     bsp.Tree
	Vobs    []*vobtree.Node
	WayNet  WayNet
}

// Parse decodes a complete world from b for the given game version.
// version determines the vob base-record and way-net layout; the
// world mesh's own G1-vs-G2 layout follows the mesh's version field,
// and the BSP tree's follows the version tag that opens the
// "MeshAndBsp" section.
func Parse(b *buffer.Buffer, version vobtree.GameVersion) (World, error) {
	var w World

	r, err := archive.Open(b)
	if err != nil {
		return w, err
	}

	root, ok, err := r.ReadObjectBegin()
	if err != nil {
		return w, err
	}
	if !ok || root.ClassName != "oCWorld:zCWorld" {
		return w, fmt.Errorf("world: expected 'oCWorld:zCWorld' root object, got %q", root.ClassName)
	}

	for {
		ended, err := r.ReadObjectEnd()
		if err != nil {
			return w, err
		}
		if ended {
			break
		}

		obj, ok, err := r.ReadObjectBegin()
		if err != nil {
			return w, err
		}
		if !ok {
			break
		}

		switch obj.Name {
		case "MeshAndBsp":
			if err := parseMeshAndBSP(b, &w); err != nil {
				return w, err
			}

		case "VobTree":
			count, err := r.ReadInt()
			if err != nil {
				return w, err
			}
			w.Vobs = make([]*vobtree.Node, 0, count)
			for i := int32(0); i < count; i++ {
				child, err := vobtree.Parse(r, version)
				if err != nil {
					return w, err
				}
				if child != nil {
					w.Vobs = append(w.Vobs, child)
				}
			}

		case "WayNet":
			net, err := parseWayNet(r)
			if err != nil {
				return w, err
			}
			w.WayNet = net

		default:
			// CutscenePlayer/SkyCtrl (save-game only) and anything
			// else this package does not model; object-end cleanup
			// below discards whatever was not consumed.
		}

		if ended, err := r.ReadObjectEnd(); err != nil {
			return w, err
		} else if !ended {
			if err := r.SkipObject(true); err != nil {
				return w, err
			}
		}
	}

	return w, nil
}

// parseMeshAndBSP decodes the world's "MeshAndBsp" section directly
// against the raw buffer: a leading BSP version tag and declared byte
// length (the length is unused — the mesh's own chunk framing is
// self-delimiting), the world mesh's tag-framed chunk stream up to its
// 0xB060 end tag, and finally the BSP tree that follows it. The version
// tag is passed to bsp.Parse directly; the u16 version in the tree's
// own header chunk is discarded.
func parseMeshAndBSP(b *buffer.Buffer, w *World) error {
	r := stream.New(b)

	bspVersion, err := r.U32()
	if err != nil {
		return err
	}
	if _, err := r.U32(); err != nil { // declared size, unused
		return err
	}

	meshStart := b.Position()
	for {
		tag, err := r.U16()
		if err != nil {
			return err
		}
		size, err := r.U32()
		if err != nil {
			return err
		}
		if err := b.Skip(uint64(size)); err != nil {
			return err
		}
		if tag == worldMeshEndTag {
			break
		}
	}
	meshEnd := b.Position()

	meshBuf, err := b.Slice(meshStart, meshEnd-meshStart)
	if err != nil {
		return err
	}

	rawMesh, err := mesh.Parse(meshBuf)
	if err != nil {
		return err
	}
	w.RawMesh = rawMesh

	bspTree, err := bsp.Parse(b, bspVersion)
	if err != nil {
		return err
	}
	w.BSP = bspTree
	w.Mesh = rawMesh.Triangulate(&bspTree)
	return nil
}

func readWaypointFields(r archive.Reader) (Waypoint, error) {
	var wp Waypoint
	var err error
	if wp.Name, err = r.ReadString(); err != nil {
		return wp, err
	}
	if wp.WaterDepth, err = r.ReadInt(); err != nil {
		return wp, err
	}
	if wp.UnderWater, err = r.ReadBool(); err != nil {
		return wp, err
	}
	if wp.Position, err = r.ReadVec3(); err != nil {
		return wp, err
	}
	if wp.Direction, err = r.ReadVec3(); err != nil {
		return wp, err
	}
	wp.FreePoint = true
	return wp, nil
}

// parseWayNet decodes the way-net's waypoint list and edge list. Edge
// endpoints reference a prior waypoint either by forward-reference
// index or by an inline zCWaypoint object; both resolve to an index
// into the returned WayNet.Waypoints.
func parseWayNet(r archive.Reader) (WayNet, error) {
	var net WayNet

	_, ok, err := r.ReadObjectBegin()
	if err != nil {
		return net, err
	}
	if !ok {
		return net, fmt.Errorf("world: way-net root object missing")
	}

	if _, err := r.ReadInt(); err != nil { // way-net version, discarded
		return net, err
	}
	count, err := r.ReadInt()
	if err != nil {
		return net, err
	}

	idByIndex := make(map[uint32]uint32, count)
	net.Waypoints = make([]Waypoint, 0, count)

	for i := int32(0); i < count; i++ {
		wObj, ok, err := r.ReadObjectBegin()
		if err != nil {
			return net, err
		}
		if !ok || wObj.ClassName != "zCWaypoint" {
			return net, fmt.Errorf("world: way-net: missing waypoint object #%d", i)
		}
		wp, err := readWaypointFields(r)
		if err != nil {
			return net, err
		}
		net.Waypoints = append(net.Waypoints, wp)
		idByIndex[wObj.Index] = uint32(len(net.Waypoints) - 1)

		if ended, err := r.ReadObjectEnd(); err != nil {
			return net, err
		} else if !ended {
			if err := r.SkipObject(true); err != nil {
				return net, err
			}
		}
	}

	edgeCount, err := r.ReadInt()
	if err != nil {
		return net, err
	}
	net.Edges = make([]Edge, edgeCount)

	for i := int32(0); i < edgeCount; i++ {
		var edge Edge
		for j := 0; j < 2; j++ {
			eObj, ok, err := r.ReadObjectBegin()
			if err != nil {
				return net, err
			}
			if !ok {
				return net, fmt.Errorf("world: way-net: missing edge object #%d", i)
			}

			var wp uint32
			switch eObj.ClassName {
			case "\xA7":
				wp = idByIndex[eObj.Index]
			case "zCWaypoint":
				point, err := readWaypointFields(r)
				if err != nil {
					return net, err
				}
				point.FreePoint = false
				net.Waypoints = append(net.Waypoints, point)
				wp = uint32(len(net.Waypoints) - 1)
				idByIndex[eObj.Index] = wp
			default:
				return net, fmt.Errorf("world: way-net: unexpected edge class %q", eObj.ClassName)
			}

			if j == 0 {
				edge.A = wp
			} else {
				edge.B = wp
			}

			if ended, err := r.ReadObjectEnd(); err != nil {
				return net, err
			} else if !ended {
				if err := r.SkipObject(true); err != nil {
					return net, err
				}
			}
		}
		net.Edges[i] = edge
	}

	if ended, err := r.ReadObjectEnd(); err != nil {
		return net, err
	} else if !ended {
		if err := r.SkipObject(true); err != nil {
			return net, err
		}
	}

	return net, nil
}
