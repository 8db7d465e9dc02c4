// Package polymesh turns a set of simplified region contours into a
// polygon mesh of convex, at-most-maxVertsPerPoly polygons with
// neighbor adjacency, plus a detail mesh that recovers height detail
// the polygon mesh's linear interpolation would otherwise flatten.
// Adapted from rcBuildPolyMesh (recast/recast_mesh.go) and
// rcBuildPolyMeshDetail (recast/recast_mesh_detail.go).
package polymesh

import (
	"github.com/gorustyt/dynanavmesh/region"
	"github.com/gorustyt/dynanavmesh/voxel"
)

// NoPoly marks an absent vertex slot or neighbor edge.
const NoPoly = -1

// WalkableBit is OR'd into a polygon's Flags alongside its area bits,
// matching the RC_WALKABLE_AREA flag convention used on the wire.
const WalkableBit = 0x8000

// Mesh is the polygon mesh for one tile: a shared vertex pool plus
// one fixed-width (NVP) index row per polygon, NoPoly-padded.
type Mesh struct {
	NVP       int
	Verts     [][3]int // voxel-space x, y, z
	Polys     [][]int  // len(Polys[i]) == NVP, NoPoly padded
	Neighbors [][]int  // same shape, NoPoly at a border edge
	Areas     []voxel.AreaFlags
	Flags     []uint16
}

// Build triangulates and greedily merges every contour's boundary
// into convex polygons, then derives edge-adjacency (portal) links
// between polygons that share a boundary edge of identical vertices.
func Build(contours []region.Contour, maxVertsPerPoly int) (*Mesh, error) {
	m := &Mesh{NVP: maxVertsPerPoly}

	vertIndex := map[[3]int]int{}
	vertOf := func(p [3]int) int {
		if idx, ok := vertIndex[p]; ok {
			return idx
		}
		idx := len(m.Verts)
		vertIndex[p] = idx
		m.Verts = append(m.Verts, p)
		return idx
	}

	var polys [][]int
	var polyArea []voxel.AreaFlags

	for _, c := range contours {
		if len(c.Verts) < 3 {
			continue
		}
		idxs := make([]int, len(c.Verts))
		for i, v := range c.Verts {
			idxs[i] = vertOf(v)
		}
		tris := triangulate(idxs, m.Verts)
		merged := mergePolys(tris, m.Verts, maxVertsPerPoly)
		for _, p := range merged {
			polys = append(polys, p)
			polyArea = append(polyArea, c.Area)
		}
	}

	m.Polys = make([][]int, len(polys))
	m.Neighbors = make([][]int, len(polys))
	m.Areas = polyArea
	m.Flags = make([]uint16, len(polys))

	for i, p := range polys {
		row := make([]int, maxVertsPerPoly)
		nbr := make([]int, maxVertsPerPoly)
		for j := range row {
			row[j] = NoPoly
			nbr[j] = NoPoly
		}
		copy(row, p)
		m.Polys[i] = row
		m.Neighbors[i] = nbr
		if polyArea[i] != voxel.AreaNull {
			m.Flags[i] = WalkableBit | uint16(polyArea[i])
		}
	}

	linkNeighbors(m)
	return m, nil
}

// triangulate ear-clips a simple polygon (given as a cycle of global
// vertex indices) into CCW triangles, in voxel x/z.
func triangulate(idxs []int, verts [][3]int) [][3]int {
	n := len(idxs)
	if n < 3 {
		return nil
	}
	poly := append([]int(nil), idxs...)

	if signedArea(poly, verts) < 0 {
		reverse(poly)
	}

	var tris [][3]int
	guard := 0
	for len(poly) > 3 {
		guard++
		if guard > n*n+16 {
			break
		}
		ear := -1
		for i := 0; i < len(poly); i++ {
			if isEar(poly, i, verts) {
				ear = i
				break
			}
		}
		if ear == -1 {
			ear = 0
		}
		prev := (ear - 1 + len(poly)) % len(poly)
		next := (ear + 1) % len(poly)
		tris = append(tris, [3]int{poly[prev], poly[ear], poly[next]})
		poly = append(poly[:ear], poly[ear+1:]...)
	}
	if len(poly) == 3 {
		tris = append(tris, [3]int{poly[0], poly[1], poly[2]})
	}
	return tris
}

func signedArea(poly []int, verts [][3]int) float64 {
	area := 0.0
	n := len(poly)
	for i := 0; i < n; i++ {
		a := verts[poly[i]]
		b := verts[poly[(i+1)%n]]
		area += float64(a[0]*b[2] - b[0]*a[2])
	}
	return area
}

func isEar(poly []int, i int, verts [][3]int) bool {
	n := len(poly)
	prev := poly[(i-1+n)%n]
	cur := poly[i]
	next := poly[(i+1)%n]
	a, b, c := verts[prev], verts[cur], verts[next]
	if cross2D(a, b, c) <= 0 {
		return false
	}
	for j := 0; j < n; j++ {
		p := poly[j]
		if p == prev || p == cur || p == next {
			continue
		}
		if pointInTri(verts[p], a, b, c) {
			return false
		}
	}
	return true
}

func cross2D(a, b, c [3]int) float64 {
	return float64((b[0]-a[0])*(c[2]-a[2]) - (c[0]-a[0])*(b[2]-a[2]))
}

func pointInTri(p, a, b, c [3]int) bool {
	d1 := cross2D(a, b, p)
	d2 := cross2D(b, c, p)
	d3 := cross2D(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// mergePolys greedily merges adjacent triangles (then larger polys)
// sharing an edge into a convex polygon, as long as the result stays
// within maxVerts and convex, ported from the merge loop in
// rcBuildPolyMesh.
func mergePolys(tris [][3]int, verts [][3]int, maxVerts int) [][]int {
	polys := make([][]int, len(tris))
	for i, t := range tris {
		polys[i] = []int{t[0], t[1], t[2]}
	}

	for {
		bestI, bestJ, bestShared := -1, -1, [2]int{}
		for i := 0; i < len(polys); i++ {
			for j := i + 1; j < len(polys); j++ {
				ea, eb, ok := sharedEdge(polys[i], polys[j])
				if !ok {
					continue
				}
				if len(polys[i])+len(polys[j])-2 > maxVerts {
					continue
				}
				merged := mergeAt(polys[i], polys[j], ea, eb)
				if !isConvex(merged, verts) {
					continue
				}
				bestI, bestJ, bestShared = i, j, [2]int{ea, eb}
				break
			}
			if bestI != -1 {
				break
			}
		}
		if bestI == -1 {
			break
		}
		merged := mergeAt(polys[bestI], polys[bestJ], bestShared[0], bestShared[1])
		polys[bestI] = merged
		polys = append(polys[:bestJ], polys[bestJ+1:]...)
	}
	return polys
}

// sharedEdge reports whether a and b share an oppositely-directed
// edge (a[ea]->a[ea+1] == b[eb+1]->b[eb]), and returns the indices.
func sharedEdge(a, b []int) (int, int, bool) {
	for i := 0; i < len(a); i++ {
		a0, a1 := a[i], a[(i+1)%len(a)]
		for j := 0; j < len(b); j++ {
			b0, b1 := b[j], b[(j+1)%len(b)]
			if a0 == b1 && a1 == b0 {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func mergeAt(a, b []int, ea, eb int) []int {
	var out []int
	out = append(out, a[:ea+1]...)
	for k := 1; k < len(b); k++ {
		out = append(out, b[(eb+k)%len(b)])
	}
	out = append(out, a[ea+1:]...)
	return dedupCycle(out)
}

func dedupCycle(v []int) []int {
	out := make([]int, 0, len(v))
	for i, x := range v {
		if i > 0 && x == out[len(out)-1] {
			continue
		}
		out = append(out, x)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

func isConvex(poly []int, verts [][3]int) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a := verts[poly[i]]
		b := verts[poly[(i+1)%n]]
		c := verts[poly[(i+2)%n]]
		cr := cross2D(a, b, c)
		if cr == 0 {
			continue
		}
		s := 1
		if cr < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}

// linkNeighbors fills Neighbors by matching each polygon edge against
// every other polygon's edges for a shared, oppositely-wound pair.
func linkNeighbors(m *Mesh) {
	type edgeKey struct{ a, b int }
	edgeOwner := map[edgeKey][2]int{}

	for pi, p := range m.Polys {
		n := polyVertCount(p)
		for e := 0; e < n; e++ {
			v0, v1 := p[e], p[(e+1)%n]
			edgeOwner[edgeKey{v1, v0}] = [2]int{pi, e}
		}
	}

	for pi, p := range m.Polys {
		n := polyVertCount(p)
		for e := 0; e < n; e++ {
			v0, v1 := p[e], p[(e+1)%n]
			if owner, ok := edgeOwner[edgeKey{v0, v1}]; ok {
				m.Neighbors[pi][e] = owner[0]
			}
		}
	}
}

func polyVertCount(p []int) int {
	n := 0
	for _, v := range p {
		if v == NoPoly {
			break
		}
		n++
	}
	return n
}
