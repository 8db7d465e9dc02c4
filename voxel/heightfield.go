// Package voxel implements the sparse voxel heightfield: triangle
// rasterization into per-column span lists, and the filtering passes
// that clean up ledges, low headroom and low-hanging obstacles before
// compaction. Adapted from the teacher's rcRasterizeTriangles /
// rcFilter* family (recast/recast_rasterization.go,
// recast/recast_filter.go) with int-voxel spans and the spec's
// bit-flag area model instead of Recast's single walkable-area byte.
package voxel

import "math"

// AreaFlags is a bit-set; NULL (0) means unwalkable. Multiple bits can
// be set on one span (e.g. a doodad span resting on terrain keeps
// TERRAIN|DOODAD until filtering resolves it).
type AreaFlags uint8

const (
	AreaNull    AreaFlags = 0x00
	AreaTerrain AreaFlags = 0x01
	AreaLiquid  AreaFlags = 0x02
	AreaWMO     AreaFlags = 0x04
	AreaDoodad  AreaFlags = 0x08
)

func (a AreaFlags) Has(bit AreaFlags) bool { return a&bit != 0 }
func (a AreaFlags) Walkable() bool         { return a != AreaNull }

// Vec3 is a generic 3-component point, used both for world-space mesh
// vertices and (after the caller's axis conversion) voxel-space
// geometry fed to the rasterizer.
type Vec3 [3]float64

// Span is a vertical run of solid voxels in one (x, z) column.
// Invariant: within a column, Next forms a strictly ascending,
// non-overlapping chain ordered by YMin.
type Span struct {
	YMin, YMax int
	Area       AreaFlags
	Next       *Span
}

// Heightfield is a width x height grid of per-column span lists.
type Heightfield struct {
	Width, Height int
	BMin, BMax    Vec3
	Cs, Ch        float64
	Spans         []*Span
}

// NewHeightfield allocates an empty width x height heightfield with
// the given bounds and cell size, mirroring rcCreateHeightfield.
func NewHeightfield(width, height int, bmin, bmax Vec3, cs, ch float64) *Heightfield {
	return &Heightfield{
		Width: width, Height: height,
		BMin: bmin, BMax: bmax,
		Cs: cs, Ch: ch,
		Spans: make([]*Span, width*height),
	}
}

func (hf *Heightfield) columnIndex(x, z int) int { return x + z*hf.Width }

// SpanCount returns the number of walkable spans across the whole
// field (used to size the compact heightfield).
func (hf *Heightfield) SpanCount() int {
	n := 0
	for _, s := range hf.Spans {
		for ; s != nil; s = s.Next {
			if s.Area != AreaNull {
				n++
			}
		}
	}
	return n
}

// MarkUnwalkableTriangles zeroes the area of every triangle whose
// normal's angle from the up axis (Y) exceeds slopeDeg.
func MarkUnwalkableTriangles(verts []Vec3, indices []int, slopeDeg float64, areas []AreaFlags) {
	walkableLimitY := math.Cos(slopeDeg / 180.0 * math.Pi)
	numTris := len(indices) / 3
	for i := 0; i < numTris; i++ {
		v0, v1, v2 := verts[indices[i*3]], verts[indices[i*3+1]], verts[indices[i*3+2]]
		n := triNormal(v0, v1, v2)
		if n[1] <= walkableLimitY {
			areas[i] = AreaNull
		}
	}
}

func triNormal(v0, v1, v2 Vec3) Vec3 {
	e0 := sub(v1, v0)
	e1 := sub(v2, v0)
	n := cross(e0, e1)
	return normalize(n)
}

func sub(a, b Vec3) Vec3 { return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
func normalize(v Vec3) Vec3 {
	d := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if d == 0 {
		return v
	}
	return Vec3{v[0] / d, v[1] / d, v[2] / d}
}

// SnapshotSpansWithArea captures the identity of every span currently
// carrying any of the given bit(s), so a caller can reassert them
// after a filtering pass that doesn't know about the distinguished
// area class. Requires stable span addressing: nothing in this
// package reallocates or moves spans once inserted.
func SnapshotSpansWithArea(hf *Heightfield, bit AreaFlags) []*Span {
	var out []*Span
	for _, s := range hf.Spans {
		for ; s != nil; s = s.Next {
			if s.Area.Has(bit) {
				out = append(out, s)
			}
		}
	}
	return out
}

// Reassert re-sets bit on every span in snapshot (see
// SnapshotSpansWithArea).
func Reassert(snapshot []*Span, bit AreaFlags) {
	for _, s := range snapshot {
		s.Area |= bit
	}
}
