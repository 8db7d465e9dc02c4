package region

import (
	"math"

	"github.com/gorustyt/dynanavmesh/compact"
	"github.com/gorustyt/dynanavmesh/voxel"
)

// RawVertex is an unsimplified contour vertex: the voxel-grid corner
// position plus the region id on the far side of the boundary edge
// being walked (0 if the edge borders unwalkable space).
type RawVertex struct {
	X, Y, Z        int
	NeighborRegion uint16
}

// Contour is one region's simplified boundary polygon in voxel space.
type Contour struct {
	RegionID int
	Area     voxel.AreaFlags
	Verts    [][3]int
}

// BuildContours walks the boundary of every region in chf and
// simplifies each walk into a polygon, per the maxSimplificationError
// (perpendicular distance) and maxEdgeLen (maximum edge span before a
// forced split) parameters. Adapted from the boundary trace in
// walkContour / simplifyContour (recast/recast_contour.go), condensed
// to a right-hand-rule wall follower: this pipeline rebuilds one
// isolated tile, so the multi-tile portal bookkeeping in the original
// walkContour (diagonal corner sampling across up to four cells) is
// not needed — only the current span and its one connected neighbor
// per direction matter for a single-tile contour.
func BuildContours(chf *compact.Heightfield, maxError float64, maxEdgeLen int) []Contour {
	visited := make([][4]bool, len(chf.Spans))
	var out []Contour

	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			cell := chf.Cells[x+z*chf.Width]
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				region := chf.Spans[i].Region
				if region == 0 {
					continue
				}
				for dir := 0; dir < 4; dir++ {
					if visited[i][dir] || !isBoundaryEdge(chf, i, dir) {
						continue
					}
					raw := walkContour(chf, x, z, i, dir, visited)
					if len(raw) < 3 {
						continue
					}
					simplified := simplifyContour(raw, maxError, maxEdgeLen)
					if len(simplified) < 3 {
						continue
					}
					out = append(out, Contour{
						RegionID: int(region),
						Area:     chf.Areas[i],
						Verts:    simplified,
					})
				}
			}
		}
	}

	return out
}

func isBoundaryEdge(chf *compact.Heightfield, i, dir int) bool {
	s := chf.Spans[i]
	k := s.Con[dir]
	if k == compact.NotConnected {
		return true
	}
	return false
}

// walkContour traces the boundary starting at the edge (x,z,i,dir)
// using the right-hand wall-follower rule: while facing an unwalked
// boundary edge, emit its far corner and turn right (clockwise) to
// probe the next edge of this span; otherwise cross into the
// neighbor spanning that edge and turn left, continuing the trace
// around the outside of the region until the start edge is reached
// again.
func walkContour(chf *compact.Heightfield, x, z, i, dir int, visited [][4]bool) []RawVertex {
	startX, startZ, startI, startDir := x, z, i, dir
	region := chf.Spans[i].Region

	var pts []RawVertex
	safety := 0
	for {
		safety++
		if safety > 4*len(chf.Spans)+64 {
			break
		}

		s := chf.Spans[i]
		k := s.Con[dir]
		boundary := k == compact.NotConnected
		var neighborRegion uint16
		if !boundary {
			nx := x + voxel.DirOffsetX(dir)
			nz := z + voxel.DirOffsetY(dir)
			ni := chf.Cells[nx+nz*chf.Width].Index + k
			if chf.Spans[ni].Region != region {
				boundary = true
				neighborRegion = chf.Spans[ni].Region
			}
		}

		if boundary {
			visited[i][dir] = true
			px, pz := x, z
			switch dir {
			case 0:
				pz++
			case 1:
				px++
				pz++
			case 2:
				px++
			}
			pts = append(pts, RawVertex{X: px, Y: s.Y, Z: pz, NeighborRegion: neighborRegion})
			dir = (dir + 1) & 0x3
		} else {
			nx := x + voxel.DirOffsetX(dir)
			nz := z + voxel.DirOffsetY(dir)
			ni := chf.Cells[nx+nz*chf.Width].Index + k
			x, z, i = nx, nz, ni
			dir = (dir + 3) & 0x3
		}

		if x == startX && z == startZ && i == startI && dir == startDir {
			break
		}
	}
	return pts
}

// simplifyContour reduces a raw boundary walk to the minimal vertex
// set whose polyline stays within maxError of the original, then
// forces additional splits so no edge exceeds maxEdgeLen (when
// maxEdgeLen > 0). Ported from simplifyContour
// (recast/recast_contour.go): initial hull seeded from vertex 0 and the
// vertex farthest from it, then iterative worst-point insertion.
// Vertices where the neighbor region changes are not kept specially.
func simplifyContour(raw []RawVertex, maxError float64, maxEdgeLen int) [][3]int {
	n := len(raw)
	if n < 3 {
		return nil
	}

	keep := make([]bool, n)
	keep[0] = true
	// Seed with the farthest point from vertex 0 to bound the initial hull.
	farthest := 0
	farthestD := -1.0
	for i := 1; i < n; i++ {
		d := dist2D(raw[0], raw[i])
		if d > farthestD {
			farthestD = d
			farthest = i
		}
	}
	if farthest != 0 {
		keep[farthest] = true
	}

	for {
		added := false
		idxs := sortedKept(keep)
		for k := 0; k < len(idxs); k++ {
			a := idxs[k]
			b := idxs[(k+1)%len(idxs)]
			worst := -1
			worstD := maxError
			span := segSpan(n, a, b)
			for _, m := range span {
				d := perpDist(raw[a], raw[b], raw[m])
				if d > worstD {
					worstD = d
					worst = m
				}
			}
			if worst != -1 {
				keep[worst] = true
				added = true
			}
		}
		if !added {
			break
		}
	}

	for split := maxEdgeLen > 0; split; {
		split = false
		idxs := sortedKept(keep)
		for k := 0; k < len(idxs); k++ {
			a := idxs[k]
			b := idxs[(k+1)%len(idxs)]
			span := segSpan(n, a, b)
			if len(span) == 0 {
				continue
			}
			edgeLen := dist2D(raw[a], raw[b])
			if edgeLen <= float64(maxEdgeLen) {
				continue
			}
			mid := span[len(span)/2]
			keep[mid] = true
			split = true
		}
	}

	idxs := sortedKept(keep)
	out := make([][3]int, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, [3]int{raw[i].X, raw[i].Y, raw[i].Z})
	}
	return removeDegenerate(out)
}

func sortedKept(keep []bool) []int {
	var idxs []int
	for i, k := range keep {
		if k {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// segSpan returns the indices strictly between a and b walking
// forward around the n-length cycle.
func segSpan(n, a, b int) []int {
	var out []int
	i := (a + 1) % n
	for i != b {
		out = append(out, i)
		i = (i + 1) % n
	}
	return out
}

func dist2D(a, b RawVertex) float64 {
	dx := float64(b.X - a.X)
	dz := float64(b.Z - a.Z)
	return math.Sqrt(dx*dx + dz*dz)
}

func perpDist(a, b, p RawVertex) float64 {
	dx := float64(b.X - a.X)
	dz := float64(b.Z - a.Z)
	d := math.Sqrt(dx*dx + dz*dz)
	if d < 1e-9 {
		return dist2D(a, p)
	}
	u := (float64(p.X-a.X)*dx + float64(p.Z-a.Z)*dz) / (d * d)
	cx := float64(a.X) + u*dx
	cz := float64(a.Z) + u*dz
	ex := float64(p.X) - cx
	ez := float64(p.Z) - cz
	return math.Sqrt(ex*ex + ez*ez)
}

func removeDegenerate(verts [][3]int) [][3]int {
	n := len(verts)
	if n < 3 {
		return verts
	}
	out := make([][3]int, 0, n)
	for i := 0; i < n; i++ {
		prev := verts[(i+n-1)%n]
		cur := verts[i]
		if prev[0] == cur[0] && prev[2] == cur[2] {
			continue
		}
		out = append(out, cur)
	}
	return out
}
