package polymesh

import (
	"math"

	"github.com/gorustyt/dynanavmesh/compact"
)

// DetailMesh carries per-polygon height-sampled sub-triangulations
// that recover terrain detail the linear polygon mesh flattens.
// Adapted from rcBuildPolyMeshDetail (recast/recast_mesh_detail.go),
// condensed to grid sampling plus containing-triangle point
// insertion rather than full constrained Delaunay refinement.
type DetailMesh struct {
	// Meshes[i] = {vertBase, vertCount, triBase, triCount} into Verts/Tris.
	Meshes [][4]int
	Verts  [][3]float64
	Tris   [][4]int // a, b, c, flags (unused edge-flag byte, kept 0)
}

// BuildDetailMesh samples additional height points inside each polygon's
// footprint on a sampleDist grid, keeping a sample only when the
// compact heightfield's actual floor height there differs from the
// polygon's own linear interpolation by more than sampleMaxError, and
// triangulates the polygon plus its retained samples.
func BuildDetailMesh(chf *compact.Heightfield, pm *Mesh, sampleDist, sampleMaxError float64) *DetailMesh {
	dm := &DetailMesh{}

	for pi, poly := range pm.Polys {
		n := polyVertCount(poly)
		base := make([][3]float64, n)
		for i := 0; i < n; i++ {
			v := pm.Verts[poly[i]]
			base[i] = voxelToWorld(chf, v)
		}

		pts := append([][3]float64(nil), base...)
		if sampleDist > 0 {
			pts = append(pts, sampleInterior(chf, base, sampleDist, sampleMaxError)...)
		}

		tris := triangulatePoints(pts, n)

		vertBase := len(dm.Verts)
		dm.Verts = append(dm.Verts, pts...)
		triBase := len(dm.Tris)
		for _, t := range tris {
			dm.Tris = append(dm.Tris, [4]int{vertBase + t[0], vertBase + t[1], vertBase + t[2], 0})
		}
		dm.Meshes = append(dm.Meshes, [4]int{vertBase, len(pts), triBase, len(tris)})
		_ = pi
	}

	return dm
}

func voxelToWorld(chf *compact.Heightfield, v [3]int) [3]float64 {
	return [3]float64{
		chf.BMin[0] + float64(v[0])*chf.Cs,
		chf.BMin[1] + float64(v[1])*chf.Ch,
		chf.BMin[2] + float64(v[2])*chf.Cs,
	}
}

// sampleInterior lays a sampleDist grid over the polygon's 2D (x,z)
// bounding box, keeps points inside the footprint whose nearest
// compact-span floor height deviates from the base polygon's linear
// interpolation by more than sampleMaxError, and returns their world
// positions sampled at the actual terrain height.
func sampleInterior(chf *compact.Heightfield, base [][3]float64, sampleDist, sampleMaxError float64) [][3]float64 {
	if len(base) < 3 {
		return nil
	}
	minX, maxX := base[0][0], base[0][0]
	minZ, maxZ := base[0][2], base[0][2]
	for _, v := range base {
		minX = math.Min(minX, v[0])
		maxX = math.Max(maxX, v[0])
		minZ = math.Min(minZ, v[2])
		maxZ = math.Max(maxZ, v[2])
	}

	var extra [][3]float64
	for z := minZ; z <= maxZ; z += sampleDist {
		for x := minX; x <= maxX; x += sampleDist {
			if !pointInPolyF(x, z, base) {
				continue
			}
			actualY, ok := nearestFloor(chf, x, z)
			if !ok {
				continue
			}
			interpY := interpolateHeight(x, z, base)
			if math.Abs(actualY-interpY) <= sampleMaxError {
				continue
			}
			extra = append(extra, [3]float64{x, actualY, z})
		}
	}
	return extra
}

func pointInPolyF(x, z float64, poly [][3]float64) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, zi := poly[i][0], poly[i][2]
		xj, zj := poly[j][0], poly[j][2]
		if (zi > z) != (zj > z) {
			xint := (xj-xi)*(z-zi)/(zj-zi) + xi
			if x < xint {
				inside = !inside
			}
		}
	}
	return inside
}

// interpolateHeight returns the base polygon's fan-triangulated
// linear height at (x, z): the polygon itself is the coarse
// approximation that detail sampling is meant to refine.
func interpolateHeight(x, z float64, poly [][3]float64) float64 {
	for i := 1; i+1 < len(poly); i++ {
		a, b, c := poly[0], poly[i], poly[i+1]
		if u, v, ok := baryXZ(x, z, a, b, c); ok {
			w := 1 - u - v
			return w*a[1] + u*b[1] + v*c[1]
		}
	}
	return poly[0][1]
}

func baryXZ(x, z float64, a, b, c [3]float64) (u, v float64, ok bool) {
	v0x, v0z := c[0]-a[0], c[2]-a[2]
	v1x, v1z := b[0]-a[0], b[2]-a[2]
	v2x, v2z := x-a[0], z-a[2]

	dot00 := v0x*v0x + v0z*v0z
	dot01 := v0x*v1x + v0z*v1z
	dot02 := v0x*v2x + v0z*v2z
	dot11 := v1x*v1x + v1z*v1z
	dot12 := v1x*v2x + v1z*v2z

	denom := dot00*dot11 - dot01*dot01
	if math.Abs(denom) < 1e-12 {
		return 0, 0, false
	}
	invDenom := 1 / denom
	uu := (dot11*dot02 - dot01*dot12) * invDenom
	vv := (dot00*dot12 - dot01*dot02) * invDenom
	if uu < -1e-9 || vv < -1e-9 || uu+vv > 1+1e-9 {
		return 0, 0, false
	}
	return uu, vv, true
}

// nearestFloor returns the world floor height of the lowest compact
// span in the voxel column containing world (x, z); higher spans in
// the same column are not considered.
func nearestFloor(chf *compact.Heightfield, x, z float64) (float64, bool) {
	cx := int((x - chf.BMin[0]) / chf.Cs)
	cz := int((z - chf.BMin[2]) / chf.Cs)
	if cx < 0 || cz < 0 || cx >= chf.Width || cz >= chf.Height {
		return 0, false
	}
	cell := chf.Cells[cx+cz*chf.Width]
	if cell.Count == 0 {
		return 0, false
	}
	s := chf.Spans[cell.Index]
	return chf.BMin[1] + float64(s.Y)*chf.Ch, true
}

// triangulatePoints fan-triangulates the base polygon (its first
// baseCount points) and inserts every remaining point into the first
// current triangle (fan or already split) that contains it, splitting
// that triangle into three.
func triangulatePoints(pts [][3]float64, baseCount int) [][3]int {
	var tris [][3]int
	for i := 1; i+1 < baseCount; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}

	for pi := baseCount; pi < len(pts); pi++ {
		p := pts[pi]
		for ti, t := range tris {
			if pointInTriF(p, pts[t[0]], pts[t[1]], pts[t[2]]) {
				tris[ti] = [3]int{t[0], t[1], pi}
				tris = append(tris, [3]int{t[1], t[2], pi}, [3]int{t[2], t[0], pi})
				break
			}
		}
	}
	return tris
}

func pointInTriF(p, a, b, c [3]float64) bool {
	d1 := cross2F(a, b, p)
	d2 := cross2F(b, c, p)
	d3 := cross2F(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func cross2F(a, b, c [3]float64) float64 {
	return (b[0]-a[0])*(c[2]-a[2]) - (c[0]-a[0])*(b[2]-a[2])
}
