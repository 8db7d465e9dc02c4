package compact

import "github.com/gorustyt/dynanavmesh/voxel"

// BuildDistanceField computes, for every span, a chamfer approximation
// of the distance to the nearest non-walkable (unconnected) boundary:
// 2 per cardinal step and 3 per diagonal step, so one voxel counts as
// 2. It uses the classic two-pass sweep (ported from calculateDistanceField
// in recast/recast_region.go, without Recast's optional box blur —
// not called for by the spec).
func BuildDistanceField(chf *Heightfield) {
	dist := make([]int, len(chf.Spans))
	for i := range dist {
		dist[i] = 0xffff
	}

	// Mark boundary spans: any span with fewer than 4 same-area
	// neighbor connections touches the unwalkable/area boundary.
	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			cell := chf.cellAt(x, z)
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				s := chf.Spans[i]
				area := chf.Areas[i]
				nc := 0
				for dir := 0; dir < 4; dir++ {
					if s.Con[dir] == NotConnected {
						continue
					}
					ax := x + voxel.DirOffsetX(dir)
					az := z + voxel.DirOffsetY(dir)
					ai := chf.cellAt(ax, az).Index + s.Con[dir]
					if area == chf.Areas[ai] {
						nc++
					}
				}
				if nc != 4 {
					dist[i] = 0
				}
			}
		}
	}

	// Pass 1: top-left to bottom-right.
	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			cell := chf.cellAt(x, z)
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				s := chf.Spans[i]
				if s.Con[0] != NotConnected {
					ax, az := x+voxel.DirOffsetX(0), z+voxel.DirOffsetY(0)
					ai := chf.cellAt(ax, az).Index + s.Con[0]
					as := chf.Spans[ai]
					if dist[ai]+2 < dist[i] {
						dist[i] = dist[ai] + 2
					}
					if as.Con[3] != NotConnected {
						aax, aaz := ax+voxel.DirOffsetX(3), az+voxel.DirOffsetY(3)
						aai := chf.cellAt(aax, aaz).Index + as.Con[3]
						if dist[aai]+3 < dist[i] {
							dist[i] = dist[aai] + 3
						}
					}
				}
				if s.Con[3] != NotConnected {
					ax, az := x+voxel.DirOffsetX(3), z+voxel.DirOffsetY(3)
					ai := chf.cellAt(ax, az).Index + s.Con[3]
					as := chf.Spans[ai]
					if dist[ai]+2 < dist[i] {
						dist[i] = dist[ai] + 2
					}
					if as.Con[2] != NotConnected {
						aax, aaz := ax+voxel.DirOffsetX(2), az+voxel.DirOffsetY(2)
						aai := chf.cellAt(aax, aaz).Index + as.Con[2]
						if dist[aai]+3 < dist[i] {
							dist[i] = dist[aai] + 3
						}
					}
				}
			}
		}
	}

	// Pass 2: bottom-right to top-left.
	for z := chf.Height - 1; z >= 0; z-- {
		for x := chf.Width - 1; x >= 0; x-- {
			cell := chf.cellAt(x, z)
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				s := chf.Spans[i]
				if s.Con[2] != NotConnected {
					ax, az := x+voxel.DirOffsetX(2), z+voxel.DirOffsetY(2)
					ai := chf.cellAt(ax, az).Index + s.Con[2]
					as := chf.Spans[ai]
					if dist[ai]+2 < dist[i] {
						dist[i] = dist[ai] + 2
					}
					if as.Con[1] != NotConnected {
						aax, aaz := ax+voxel.DirOffsetX(1), az+voxel.DirOffsetY(1)
						aai := chf.cellAt(aax, aaz).Index + as.Con[1]
						if dist[aai]+3 < dist[i] {
							dist[i] = dist[aai] + 3
						}
					}
				}
				if s.Con[1] != NotConnected {
					ax, az := x+voxel.DirOffsetX(1), z+voxel.DirOffsetY(1)
					ai := chf.cellAt(ax, az).Index + s.Con[1]
					as := chf.Spans[ai]
					if dist[ai]+2 < dist[i] {
						dist[i] = dist[ai] + 2
					}
					if as.Con[0] != NotConnected {
						aax, aaz := ax+voxel.DirOffsetX(0), az+voxel.DirOffsetY(0)
						aai := chf.cellAt(aax, aaz).Index + as.Con[0]
						if dist[aai]+3 < dist[i] {
							dist[i] = dist[aai] + 3
						}
					}
				}
			}
		}
	}

	maxDist := 0
	for _, d := range dist {
		if d > maxDist {
			maxDist = d
		}
	}

	chf.Dist = dist
	chf.MaxDistance = maxDist
}

// EnforceSelectiveClimb implements the §4.5 step 2 rule: cut any
// neighbor link whose floor-height delta exceeds walkableClimb,
// unless both endpoints are TERRAIN. Call after Build (which was
// given an effectively infinite climb so every plausible neighbor got
// linked) and before BuildDistanceField, per the tile pipeline.
func EnforceSelectiveClimb(chf *Heightfield, walkableClimb int) {
	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			cell := chf.cellAt(x, z)
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				span := &chf.Spans[i]
				spanArea := chf.Areas[i]
				for dir := 0; dir < 4; dir++ {
					k := span.Con[dir]
					if k == NotConnected {
						continue
					}
					nx := x + voxel.DirOffsetX(dir)
					nz := z + voxel.DirOffsetY(dir)
					neighborCell := chf.cellAt(nx, nz)
					neighborIdx := neighborCell.Index + k
					neighborSpan := chf.Spans[neighborIdx]

					if absI(neighborSpan.Y-span.Y) <= walkableClimb {
						continue
					}

					neighborArea := chf.Areas[neighborIdx]
					if spanArea == voxel.AreaTerrain && neighborArea == voxel.AreaTerrain {
						continue
					}

					span.Con[dir] = NotConnected
				}
			}
		}
	}
}
