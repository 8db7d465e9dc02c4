package voxel

const maxHeight = 0xffff

// dirOffsetX/dirOffsetY give the four cardinal neighbor offsets in
// the same winding Recast uses: 0=(-1,0) 1=(0,1) 2=(1,0) 3=(0,-1).
var dirOffsetX = [4]int{-1, 0, 1, 0}
var dirOffsetY = [4]int{0, 1, 0, -1}

// DirOffsetX/DirOffsetY expose the cardinal-direction table to other
// packages (compact, region) that walk the same 4-connected grid.
func DirOffsetX(dir int) int { return dirOffsetX[dir] }
func DirOffsetY(dir int) int { return dirOffsetY[dir] }

// FilterLowHangingWalkableObstacles marks a non-walkable span
// walkable if it sits within walkableClimb directly above a walkable
// span, so small steps (curbs, low obstacles) stay traversable.
// Ported from RcFilterLowHangingWalkableObstacles.
func FilterLowHangingWalkableObstacles(walkableClimb int, hf *Heightfield) {
	for z := 0; z < hf.Height; z++ {
		for x := 0; x < hf.Width; x++ {
			var prev *Span
			prevWalkable := false
			prevArea := AreaNull

			for s := hf.Spans[x+z*hf.Width]; s != nil; s = s.Next {
				walkable := s.Area != AreaNull
				if !walkable && prevWalkable {
					if absInt(s.YMax-prev.YMax) <= walkableClimb {
						s.Area = prevArea
					}
				}
				prevWalkable = walkable
				prevArea = s.Area
				prev = s
			}
		}
	}
}

// FilterLedgeSpans clears the walkable bit on any span whose drop to
// its lowest accessible neighbor exceeds walkableClimb, or whose
// accessible-neighbor heights vary by more than walkableClimb (a
// ledge/steep-slope span). Ported from RcFilterLedgeSpans.
//
// This is unaware of the TERRAIN area class; callers that must exempt
// terrain spans snapshot them first with SnapshotSpansWithArea and
// reassert with Reassert afterward (see the terrain preservation rule
// in the tile pipeline).
func FilterLedgeSpans(walkableHeight, walkableClimb int, hf *Heightfield) {
	for z := 0; z < hf.Height; z++ {
		for x := 0; x < hf.Width; x++ {
			for s := hf.Spans[x+z*hf.Width]; s != nil; s = s.Next {
				if s.Area == AreaNull {
					continue
				}

				bot := s.YMax
				top := maxHeight
				if s.Next != nil {
					top = s.Next.YMin
				}

				minNeighborHeight := maxHeight
				accMin := s.YMax
				accMax := s.YMax

				for dir := 0; dir < 4; dir++ {
					dx := x + dirOffsetX[dir]
					dz := z + dirOffsetY[dir]
					if dx < 0 || dz < 0 || dx >= hf.Width || dz >= hf.Height {
						minNeighborHeight = minInt(minNeighborHeight, -walkableClimb-bot)
						continue
					}

					neighbor := hf.Spans[dx+dz*hf.Width]
					neighborBot := -walkableClimb
					neighborTop := maxHeight
					if neighbor != nil {
						neighborTop = neighbor.YMin
					}
					if minInt(top, neighborTop)-maxInt(bot, neighborBot) > walkableHeight {
						minNeighborHeight = minInt(minNeighborHeight, neighborBot-bot)
					}

					for ns := hf.Spans[dx+dz*hf.Width]; ns != nil; ns = ns.Next {
						neighborBot = ns.YMax
						neighborTop = maxHeight
						if ns.Next != nil {
							neighborTop = ns.Next.YMin
						}
						if minInt(top, neighborTop)-maxInt(bot, neighborBot) > walkableHeight {
							minNeighborHeight = minInt(minNeighborHeight, neighborBot-bot)
							if absInt(neighborBot-bot) <= walkableClimb {
								if neighborBot < accMin {
									accMin = neighborBot
								}
								if neighborBot > accMax {
									accMax = neighborBot
								}
							}
						}
					}
				}

				if minNeighborHeight < -walkableClimb {
					s.Area = AreaNull
				} else if accMax-accMin > walkableClimb {
					s.Area = AreaNull
				}
			}
		}
	}
}

// FilterWalkableLowHeightSpans clears the walkable bit on any span
// with fewer than walkableHeight free voxels above it. Ported from
// RcFilterWalkableLowHeightSpans.
func FilterWalkableLowHeightSpans(walkableHeight int, hf *Heightfield) {
	for z := 0; z < hf.Height; z++ {
		for x := 0; x < hf.Width; x++ {
			for s := hf.Spans[x+z*hf.Width]; s != nil; s = s.Next {
				bot := s.YMax
				top := maxHeight
				if s.Next != nil {
					top = s.Next.YMin
				}
				if top-bot < walkableHeight {
					s.Area = AreaNull
				}
			}
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
