package voxel

import "math"

// RasterizeTriangles clips each triangle against the heightfield's
// column grid and inserts a span per covered column, merging with any
// existing overlapping span in that column per the dominance rule:
// union the y-interval; if the tops are within walkableClimbFlagThreshold
// voxels, OR the area bits together, otherwise the taller span's area
// wins outright. Adapted from rcRasterizeTriangles /
// rasterizeTri / addSpan (recast/recast_rasterization.go), generalized
// from Recast's single walkable-area byte to this model's area bitset.
func RasterizeTriangles(hf *Heightfield, verts []Vec3, indices []int, perTriArea []AreaFlags, walkableClimbFlagThreshold int) bool {
	numTris := len(indices) / 3
	invCs := 1.0 / hf.Cs
	invCh := 1.0 / hf.Ch
	for t := 0; t < numTris; t++ {
		v0 := verts[indices[t*3]]
		v1 := verts[indices[t*3+1]]
		v2 := verts[indices[t*3+2]]
		if !rasterizeTri(hf, v0, v1, v2, perTriArea[t], invCs, invCh, walkableClimbFlagThreshold) {
			return false
		}
	}
	return true
}

func overlapBounds(aMin, aMax, bMin, bMax Vec3) bool {
	return aMin[0] <= bMax[0] && aMax[0] >= bMin[0] &&
		aMin[1] <= bMax[1] && aMax[1] >= bMin[1] &&
		aMin[2] <= bMax[2] && aMax[2] >= bMin[2]
}

func rasterizeTri(hf *Heightfield, v0, v1, v2 Vec3, area AreaFlags, invCs, invCh float64, mergeThreshold int) bool {
	triMin := Vec3{math.Min(v0[0], math.Min(v1[0], v2[0])), math.Min(v0[1], math.Min(v1[1], v2[1])), math.Min(v0[2], math.Min(v1[2], v2[2]))}
	triMax := Vec3{math.Max(v0[0], math.Max(v1[0], v2[0])), math.Max(v0[1], math.Max(v1[1], v2[1])), math.Max(v0[2], math.Max(v1[2], v2[2]))}

	if !overlapBounds(triMin, triMax, hf.BMin, hf.BMax) {
		return true
	}

	w, h := hf.Width, hf.Height
	by := hf.BMax[1] - hf.BMin[1]

	z0 := int(math.Floor((triMin[2] - hf.BMin[2]) * invCs))
	z1 := int(math.Floor((triMax[2] - hf.BMin[2]) * invCs))
	z0 = clampInt(z0, -1, h-1)
	z1 = clampInt(z1, 0, h-1)

	poly := []Vec3{v0, v1, v2}

	for z := z0; z <= z1; z++ {
		cellZ := hf.BMin[2] + float64(z)*hf.Cs
		row, rest := dividePoly(poly, cellZ+hf.Cs, 2)
		poly = rest
		if len(row) < 3 {
			continue
		}
		if z < 0 {
			continue
		}

		minX, maxX := row[0][0], row[0][0]
		for _, v := range row {
			minX = math.Min(minX, v[0])
			maxX = math.Max(maxX, v[0])
		}
		x0 := int(math.Floor((minX - hf.BMin[0]) * invCs))
		x1 := int(math.Floor((maxX - hf.BMin[0]) * invCs))
		if x1 < 0 || x0 >= w {
			continue
		}
		x0 = clampInt(x0, -1, w-1)
		x1 = clampInt(x1, 0, w-1)

		rowPoly := row
		for x := x0; x <= x1; x++ {
			cx := hf.BMin[0] + float64(x)*hf.Cs
			cell, restX := dividePoly(rowPoly, cx+hf.Cs, 0)
			rowPoly = restX
			if len(cell) < 3 {
				continue
			}
			if x < 0 {
				continue
			}

			spanMin, spanMax := cell[0][1], cell[0][1]
			for _, v := range cell {
				spanMin = math.Min(spanMin, v[1])
				spanMax = math.Max(spanMax, v[1])
			}
			spanMin -= hf.BMin[1]
			spanMax -= hf.BMin[1]

			if spanMax < 0 || spanMin > by {
				continue
			}
			if spanMin < 0 {
				spanMin = 0
			}
			if spanMax > by {
				spanMax = by
			}

			loY := clampInt(int(math.Floor(spanMin*invCh)), 0, 0xffff)
			hiY := clampInt(int(math.Ceil(spanMax*invCh)), loY+1, 0xffff)

			addSpan(hf, x, z, loY, hiY, area, mergeThreshold)
		}
	}

	return true
}

// dividePoly splits a convex polygon in two across the plane
// axis=offset: near holds the vertices with axis value <= offset (the
// slab used for this row/column), far holds the rest (carried forward
// to the next row/column). axis: 0 = x, 2 = z. Ported from
// recast/recast_rasterization.go's dividePoly.
func dividePoly(in []Vec3, offset float64, axis int) (near, far []Vec3) {
	n := len(in)
	delta := make([]float64, n)
	for i, v := range in {
		delta[i] = offset - v[axis]
	}

	j := n - 1
	for i := 0; i < n; i++ {
		sameSide := (delta[i] >= 0) == (delta[j] >= 0)
		if !sameSide {
			s := delta[j] / (delta[j] - delta[i])
			p := Vec3{
				in[j][0] + (in[i][0]-in[j][0])*s,
				in[j][1] + (in[i][1]-in[j][1])*s,
				in[j][2] + (in[i][2]-in[j][2])*s,
			}
			near = append(near, p)
			far = append(far, p)
			if delta[i] > 0 {
				near = append(near, in[i])
			} else if delta[i] < 0 {
				far = append(far, in[i])
			}
		} else if delta[i] >= 0 {
			near = append(near, in[i])
		} else {
			far = append(far, in[i])
		}
		j = i
	}
	return near, far
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// addSpan inserts [yMin, yMax) with area into column (x, z), merging
// with whatever is already there per the dominance rule described on
// RasterizeTriangles.
func addSpan(hf *Heightfield, x, z, yMin, yMax int, area AreaFlags, mergeThreshold int) {
	col := hf.columnIndex(x, z)
	newSpan := &Span{YMin: yMin, YMax: yMax, Area: area}

	var prev *Span
	cur := hf.Spans[col]
	for cur != nil {
		if cur.YMin > newSpan.YMax {
			break
		}
		if cur.YMax < newSpan.YMin {
			prev = cur
			cur = cur.Next
			continue
		}
		// Overlap: union the interval, resolve the area per the rule.
		if cur.YMin < newSpan.YMin {
			newSpan.YMin = cur.YMin
		}
		top := newSpan.YMax
		if cur.YMax > top {
			top = cur.YMax
		}
		if absInt(newSpan.YMax-cur.YMax) <= mergeThreshold {
			newSpan.Area = newSpan.Area | cur.Area
		} else if cur.YMax > newSpan.YMax {
			newSpan.Area = cur.Area
		}
		newSpan.YMax = top

		next := cur.Next
		cur = next
		if prev != nil {
			prev.Next = next
		} else {
			hf.Spans[col] = next
		}
	}

	if prev != nil {
		newSpan.Next = prev.Next
		prev.Next = newSpan
	} else {
		newSpan.Next = hf.Spans[col]
		hf.Spans[col] = newSpan
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
