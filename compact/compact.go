// Package compact builds the packed, connectivity-aware
// CompactHeightfield from a voxel.Heightfield and computes its
// distance field. Adapted from RcBuildCompactHeightfield and the
// distance-field sweep in recast/recast.go and recast/recast_region.go.
package compact

import "github.com/gorustyt/dynanavmesh/voxel"

// NotConnected marks a CompactSpan direction with no neighbor link.
const NotConnected = -1

// CompactSpan is a packed floor span: Y is the floor height in voxel
// units, H the free height above it, Con the (at most one) neighbor
// link index per cardinal direction.
type CompactSpan struct {
	Y, H   int
	Con    [4]int
	Region uint16
}

// Cell indexes the contiguous block of CompactSpans belonging to one
// (x, z) column.
type Cell struct {
	Index, Count int
}

// Heightfield is the packed form of a voxel.Heightfield: only
// walkable floors, with neighbor connectivity, a per-span area and
// (once built) a distance field and region id.
type Heightfield struct {
	Width, Height  int
	BMin, BMax     voxel.Vec3
	Cs, Ch         float64
	WalkableHeight int
	WalkableClimb  int

	Cells []Cell
	Spans []CompactSpan
	Areas []voxel.AreaFlags

	Dist        []int
	MaxDistance int
}

func (chf *Heightfield) cellAt(x, z int) Cell { return chf.Cells[x+z*chf.Width] }

// Build packs hf into a CompactHeightfield, connecting each walkable
// span to up to one neighbor per cardinal direction whose floor is
// within walkableClimb. Passing a very large walkableClimb (as the
// tile pipeline does for its first pass, see §4.5 step 1) yields an
// uncapped connectivity graph that a later pass selectively prunes.
func Build(hf *voxel.Heightfield, walkableHeight, walkableClimb int) *Heightfield {
	spanCount := hf.SpanCount()

	chf := &Heightfield{
		Width: hf.Width, Height: hf.Height,
		BMin: hf.BMin, BMax: hf.BMax,
		Cs: hf.Cs, Ch: hf.Ch,
		WalkableHeight: walkableHeight,
		WalkableClimb:  walkableClimb,
		Cells:          make([]Cell, hf.Width*hf.Height),
		Spans:          make([]CompactSpan, spanCount),
		Areas:          make([]voxel.AreaFlags, spanCount),
	}
	chf.BMax[1] += float64(walkableHeight) * hf.Ch

	idx := 0
	for col := 0; col < hf.Width*hf.Height; col++ {
		s := hf.Spans[col]
		if s == nil {
			continue
		}
		cell := &chf.Cells[col]
		cell.Index = idx
		for ; s != nil; s = s.Next {
			if s.Area == voxel.AreaNull {
				continue
			}
			top := 0xffff
			if s.Next != nil {
				top = s.Next.YMin
			}
			chf.Spans[idx] = CompactSpan{Y: s.YMax, H: top - s.YMax}
			chf.Areas[idx] = s.Area
			idx++
			cell.Count++
		}
	}

	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			cell := chf.cellAt(x, z)
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				span := &chf.Spans[i]
				for dir := 0; dir < 4; dir++ {
					span.Con[dir] = NotConnected
					nx := x + voxel.DirOffsetX(dir)
					nz := z + voxel.DirOffsetY(dir)
					if nx < 0 || nz < 0 || nx >= chf.Width || nz >= chf.Height {
						continue
					}
					nc := chf.cellAt(nx, nz)
					for k := nc.Index; k < nc.Index+nc.Count; k++ {
						ns := chf.Spans[k]
						bot := maxI(span.Y, ns.Y)
						top := minI(span.Y+span.H, ns.Y+ns.H)
						if top-bot >= walkableHeight && absI(ns.Y-span.Y) <= walkableClimb {
							span.Con[dir] = k - nc.Index
							break
						}
					}
				}
			}
		}
	}

	return chf
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}
func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}
func absI(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
