// Package region partitions a compact.Heightfield into connected
// regions via watershed expansion on its distance field, then walks
// and simplifies the boundary of each region into a contour. Adapted
// from rcBuildRegions / floodRegion / expandRegions /
// mergeAndFilterRegions (recast/recast_region.go) and rcBuildContours
// / walkContour / simplifyContour (recast/recast_contour.go),
// condensed to the single-layer, non-monotone watershed path this
// spec calls for (layered regions and monotone partitioning are out
// of scope here).
package region

import (
	"sort"

	"github.com/gorustyt/dynanavmesh/compact"
	"github.com/gorustyt/dynanavmesh/voxel"
)

// BorderReg flags a region id as reserved; kept for parity with the
// teacher's RC_BORDER_REG bit but never set by this package (see
// BuildRegions doc below — tile rebuilds here are single-tile local,
// with no cross-tile border stitching in scope).
const BorderReg = 0x8000

type stackEntry struct{ x, z, index int }

// BuildRegions assigns a non-zero Region id to every walkable
// CompactSpan of chf, per the watershed algorithm: levels descend
// from the max distance to 0 in steps of 2; at each level new
// regions seed from spans at local maxima not yet claimed, existing
// regions expand into newly-unlocked spans, and finally regions
// smaller than minRegionArea are merged into a touching neighbor or
// dropped. Ties are broken deterministically by span linear index
// (spans are visited in increasing (z, x, column-offset) order
// throughout, so iteration order alone gives a stable tie-break).
//
// borderSize is accepted for signature parity with rcBuildRegions but
// unused: this pipeline rebuilds one tile in isolation, so there is no
// neighboring tile to reserve a border strip against.
func BuildRegions(chf *compact.Heightfield, borderSize, minRegionArea, mergeRegionArea int) {
	_ = borderSize
	n := len(chf.Spans)
	srcReg := make([]int, n)
	srcDist := make([]int, n)
	copy(srcDist, chf.Dist)

	regionID := 0
	expandIters := 8

	level := (chf.MaxDistance + 1) &^ 1
	if level < 0 {
		level = 0
	}
	for level > 0 {
		lvl := level - 2
		if lvl < 0 {
			lvl = 0
		}
		expandRegions(chf, expandIters, lvl, srcReg, srcDist)

		for z := 0; z < chf.Height; z++ {
			for x := 0; x < chf.Width; x++ {
				cell := chf.Cells[x+z*chf.Width]
				for i := cell.Index; i < cell.Index+cell.Count; i++ {
					if chf.Dist[i] < lvl || srcReg[i] != 0 || chf.Areas[i] == voxel.AreaNull {
						continue
					}
					regionID++
					floodRegion(chf, x, z, i, lvl, regionID, srcReg, srcDist)
				}
			}
		}
		level = lvl
	}

	// Final expansion pass mops up any span the level sweep missed.
	expandRegions(chf, expandIters*8, 0, srcReg, srcDist)

	mergeAndFilterRegions(chf, minRegionArea, mergeRegionArea, srcReg, &regionID)

	for i := range chf.Spans {
		chf.Spans[i].Region = uint16(srcReg[i])
	}
}

func floodRegion(chf *compact.Heightfield, x, z, i, level, r int, srcReg, srcDist []int) bool {
	w := chf.Width
	area := chf.Areas[i]

	stack := []stackEntry{{x, z, i}}
	srcReg[i] = r
	srcDist[i] = 0

	lev := 0
	if level >= 2 {
		lev = level - 2
	}
	count := 0

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cx, cz, ci := e.x, e.z, e.index

		cs := chf.Spans[ci]

		ar := 0
		for dir := 0; dir < 4; dir++ {
			if cs.Con[dir] == compact.NotConnected {
				continue
			}
			ax := cx + voxel.DirOffsetX(dir)
			az := cz + voxel.DirOffsetY(dir)
			ai := chf.Cells[ax+az*w].Index + cs.Con[dir]
			if chf.Areas[ai] != area {
				continue
			}
			nr := srcReg[ai]
			if nr&BorderReg != 0 {
				continue
			}
			if nr != 0 && nr != r {
				ar = nr
				break
			}

			as := chf.Spans[ai]
			dir2 := (dir + 1) & 0x3
			if as.Con[dir2] != compact.NotConnected {
				ax2 := ax + voxel.DirOffsetX(dir2)
				az2 := az + voxel.DirOffsetY(dir2)
				ai2 := chf.Cells[ax2+az2*w].Index + as.Con[dir2]
				if chf.Areas[ai2] != area {
					continue
				}
				nr2 := srcReg[ai2]
				if nr2 != 0 && nr2 != r {
					ar = nr2
					break
				}
			}
		}
		if ar != 0 {
			srcReg[ci] = 0
			continue
		}
		count++

		for dir := 0; dir < 4; dir++ {
			if cs.Con[dir] == compact.NotConnected {
				continue
			}
			ax := cx + voxel.DirOffsetX(dir)
			az := cz + voxel.DirOffsetY(dir)
			ai := chf.Cells[ax+az*w].Index + cs.Con[dir]
			if chf.Areas[ai] != area {
				continue
			}
			if chf.Dist[ai] >= lev && srcReg[ai] == 0 {
				srcReg[ai] = r
				srcDist[ai] = 0
				stack = append(stack, stackEntry{ax, az, ai})
			}
		}
	}

	return count > 0
}

func expandRegions(chf *compact.Heightfield, maxIter, level int, srcReg, srcDist []int) {
	w := chf.Width

	var dirty []stackEntry
	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			cell := chf.Cells[x+z*w]
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				if chf.Dist[i] >= level && srcReg[i] == 0 && chf.Areas[i] != voxel.AreaNull {
					dirty = append(dirty, stackEntry{x, z, i})
				}
			}
		}
	}

	iter := 0
	for len(dirty) > 0 {
		if maxIter > 0 && iter >= maxIter {
			break
		}
		iter++

		var next []stackEntry
		failed := 0
		for _, e := range dirty {
			i := e.index
			if chf.Areas[i] == voxel.AreaNull {
				continue
			}
			cs := chf.Spans[i]

			r := 0
			d2 := -1
			for dir := 0; dir < 4; dir++ {
				if cs.Con[dir] == compact.NotConnected {
					continue
				}
				ax := e.x + voxel.DirOffsetX(dir)
				az := e.z + voxel.DirOffsetY(dir)
				ai := chf.Cells[ax+az*w].Index + cs.Con[dir]
				if chf.Areas[ai] != chf.Areas[i] {
					continue
				}
				if srcReg[ai] > 0 && srcReg[ai]&BorderReg == 0 {
					if d2 == -1 || srcDist[ai]+2 < d2 {
						r = srcReg[ai]
						d2 = srcDist[ai] + 2
					}
				}
			}
			if r != 0 {
				srcReg[i] = r
				srcDist[i] = d2
				next = append(next, e)
			} else {
				failed++
				next = append(next, e)
			}
		}

		if failed == len(next) {
			break
		}

		var remaining []stackEntry
		for _, e := range next {
			if srcReg[e.index] == 0 {
				remaining = append(remaining, e)
			}
		}
		dirty = remaining
	}
}

type regionInfo struct {
	id          int
	area        int
	connections map[int]bool
}

// mergeAndFilterRegions drops regions smaller than minRegionArea that
// touch no other region, merges them into a touching neighbor
// otherwise, and merges region pairs whose combined area is still
// below mergeRegionArea.
func mergeAndFilterRegions(chf *compact.Heightfield, minRegionArea, mergeRegionArea int, srcReg []int, maxRegionID *int) {
	infos := map[int]*regionInfo{}
	ensure := func(id int) *regionInfo {
		ri, ok := infos[id]
		if !ok {
			ri = &regionInfo{id: id, connections: map[int]bool{}}
			infos[id] = ri
		}
		return ri
	}

	w := chf.Width
	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			cell := chf.Cells[x+z*w]
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				r := srcReg[i]
				if r == 0 {
					continue
				}
				ri := ensure(r)
				ri.area++
				cs := chf.Spans[i]
				for dir := 0; dir < 4; dir++ {
					if cs.Con[dir] == compact.NotConnected {
						continue
					}
					ax := x + voxel.DirOffsetX(dir)
					az := z + voxel.DirOffsetY(dir)
					ai := chf.Cells[ax+az*w].Index + cs.Con[dir]
					nr := srcReg[ai]
					if nr != 0 && nr != r {
						ri.connections[nr] = true
					}
				}
			}
		}
	}

	// Ordered ids for determinism.
	ids := make([]int, 0, len(infos))
	for id := range infos {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	sortedConns := func(ri *regionInfo) []int {
		conns := make([]int, 0, len(ri.connections))
		for id := range ri.connections {
			conns = append(conns, id)
		}
		sort.Ints(conns)
		return conns
	}

	remap := map[int]int{}
	resolve := func(id int) int {
		for {
			r, ok := remap[id]
			if !ok {
				return id
			}
			id = r
		}
	}

	for _, id := range ids {
		if id&BorderReg != 0 {
			continue
		}
		ri := infos[id]
		if ri.area >= minRegionArea {
			continue
		}
		// Merge into the smallest-id connected neighbor if any, else drop.
		merged := false
		for _, other := range sortedConns(ri) {
			o := resolve(other)
			if o == resolve(id) {
				continue
			}
			remap[id] = o
			if oi, ok := infos[o]; ok {
				oi.area += ri.area
			}
			merged = true
			break
		}
		if !merged {
			remap[id] = 0
		}
	}

	for _, id := range ids {
		if id&BorderReg != 0 {
			continue
		}
		a := resolve(id)
		if a == 0 || a&BorderReg != 0 {
			continue
		}
		ai := infos[id]
		if ai == nil || ai.area >= mergeRegionArea {
			continue
		}
		for _, other := range sortedConns(ai) {
			b := resolve(other)
			if b == 0 || b == a || b&BorderReg != 0 {
				continue
			}
			if bi, ok := infos[b]; ok && ai.area+bi.area < mergeRegionArea {
				remap[id] = b
				bi.area += ai.area
				break
			}
		}
	}

	for i, r := range srcReg {
		if r == 0 {
			continue
		}
		if r&BorderReg != 0 {
			srcReg[i] = 0
			continue
		}
		srcReg[i] = resolve(r)
	}

	_ = maxRegionID
}
