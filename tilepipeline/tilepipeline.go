// Package tilepipeline orchestrates the full voxel-to-tile rebuild:
// compact heightfield -> selective climb -> distance field -> regions
// -> contours -> polygon mesh -> detail mesh -> serialized payload.
// Adapted from RebuildMeshTile (original_source/pathfind/Source/
// TemporaryObstacle.cpp) for control flow and
// DtNavMeshCreateParams / createBVTree (recast/detour_meshbuilder.go)
// for the payload's bounding-volume tree.
package tilepipeline

import (
	"sort"

	"github.com/gorustyt/dynanavmesh/compact"
	"github.com/gorustyt/dynanavmesh/errs"
	"github.com/gorustyt/dynanavmesh/polymesh"
	"github.com/gorustyt/dynanavmesh/region"
	"github.com/gorustyt/dynanavmesh/voxel"
)

// MaxPolyVerts is the wire vertex-count ceiling: a tile whose polygon
// mesh would need more than 0xffff vertices cannot be encoded in the
// 16-bit index fields the payload uses.
const MaxPolyVerts = 0xffff

// BVNode is one bounding-volume-hierarchy node over polygon bounds,
// quantized to the same voxel-int space as the payload's vertices.
// I >= 0 identifies a leaf polygon; I < 0 is the negated subtree
// node-count used to skip the subtree during a query walk.
type BVNode struct {
	BMin, BMax [3]int
	I          int
}

// Payload is the bit-exact, serializable tile produced by RebuildTile,
// mirroring DtNavMeshCreateParams' input shape plus the resulting
// bounding-volume tree (§6 of the design).
type Payload struct {
	TileX, TileY, TileLayer int
	BMin, BMax              voxel.Vec3
	Cs, Ch                  float64

	Verts [][3]int
	Polys [][]int
	NVP   int

	PolyAreas []voxel.AreaFlags
	PolyFlags []uint16

	DetailMeshes [][4]int
	DetailVerts  [][3]float64
	DetailTris   [][4]int

	WalkableHeight float64
	WalkableRadius float64
	WalkableClimb  float64

	BuildBvTree bool
	BvTree      []BVNode
}

// Params bundles the config values RebuildTile needs, independent of
// the rest of config.BuildConfig so this package stays testable with
// bare literals.
type Params struct {
	WalkableHeight int
	WalkableClimb  int
	WalkableRadius int
	MinRegionArea  int
	MergeArea      int
	MaxEdgeLen     int
	MaxSimpError   float64
	MaxVertsPerPoly int
	DetailSampleDist     float64
	DetailSampleMaxError float64
	BorderSize           int

	CellSize, CellHeight float64
}

// RebuildTile runs the full pipeline over a voxel heightfield already
// rasterized and filtered by the caller (see registry.Tile.ApplyObstacle
// for the rasterize/filter/terrain-reassertion sequence that precedes
// this call). An empty region/contour set after watershed partitioning
// means the tile has no walkable surface; per §4.5 step 4 this is a
// "no-op success", not an error and not a payload: RebuildTile returns
// ok=false and the caller (registry.Tile.rebuildAndReplace) must leave
// any tile already sitting at (tileX, tileY) untouched rather than
// overwrite it with an empty one.
func RebuildTile(hf *voxel.Heightfield, tileX, tileY int, p Params) (payload *Payload, ok bool, err error) {
	chf := compact.Build(hf, p.WalkableHeight, 0xffff)
	compact.EnforceSelectiveClimb(chf, p.WalkableClimb)
	chf.WalkableClimb = p.WalkableClimb
	compact.BuildDistanceField(chf)

	region.BuildRegions(chf, p.BorderSize, p.MinRegionArea, p.MergeArea)

	contours := region.BuildContours(chf, p.MaxSimpError, p.MaxEdgeLen)
	if len(contours) == 0 {
		return nil, false, nil
	}

	pmesh, err := polymesh.Build(contours, p.MaxVertsPerPoly)
	if err != nil {
		return nil, false, errs.WithTile(errs.ErrPipelineStageFailed, tileX, tileY, err)
	}
	if len(pmesh.Verts) > MaxPolyVerts {
		return nil, false, errs.WithTile(errs.ErrTooManyVerts, tileX, tileY, nil)
	}

	dmesh := polymesh.BuildDetailMesh(chf, pmesh, p.DetailSampleDist, p.DetailSampleMaxError)

	payload = &Payload{
		TileX: tileX, TileY: tileY,
		BMin: hf.BMin, BMax: hf.BMax,
		Cs: hf.Cs, Ch: hf.Ch,
		Verts:     pmesh.Verts,
		Polys:     pmesh.Polys,
		NVP:       pmesh.NVP,
		PolyAreas: pmesh.Areas,
		PolyFlags: pmesh.Flags,

		DetailMeshes: dmesh.Meshes,
		DetailVerts:  dmesh.Verts,
		DetailTris:   dmesh.Tris,

		WalkableHeight: float64(p.WalkableHeight) * hf.Ch,
		WalkableRadius: float64(p.WalkableRadius) * hf.Ch,
		WalkableClimb:  float64(p.WalkableClimb) * hf.Ch,
		BuildBvTree:    true,
	}
	payload.BvTree = buildBVTree(payload)

	return payload, true, nil
}

// bvItem is a polygon's quantized bounds plus its index, the unit
// subdivide works on.
type bvItem struct {
	bmin, bmax [3]int
	i          int
}

func buildBVTree(p *Payload) []BVNode {
	n := len(p.Polys)
	if n == 0 {
		return nil
	}
	items := make([]bvItem, n)
	for i, poly := range p.Polys {
		first := true
		var bmin, bmax [3]int
		for _, vi := range poly {
			if vi < 0 {
				continue
			}
			v := p.Verts[vi]
			if first {
				bmin, bmax = v, v
				first = false
				continue
			}
			for k := 0; k < 3; k++ {
				if v[k] < bmin[k] {
					bmin[k] = v[k]
				}
				if v[k] > bmax[k] {
					bmax[k] = v[k]
				}
			}
		}
		items[i] = bvItem{bmin: bmin, bmax: bmax, i: i}
	}

	nodes := make([]BVNode, 2*n)
	cur := 0
	subdivideBV(items, 0, n, &cur, nodes)
	return nodes[:cur]
}

func subdivideBV(items []bvItem, imin, imax int, cur *int, nodes []BVNode) {
	inum := imax - imin
	icur := *cur
	nodeIdx := *cur
	*cur++

	if inum == 1 {
		nodes[nodeIdx] = BVNode{BMin: items[imin].bmin, BMax: items[imin].bmax, I: items[imin].i}
		return
	}

	bmin, bmax := items[imin].bmin, items[imin].bmax
	for i := imin + 1; i < imax; i++ {
		for k := 0; k < 3; k++ {
			if items[i].bmin[k] < bmin[k] {
				bmin[k] = items[i].bmin[k]
			}
			if items[i].bmax[k] > bmax[k] {
				bmax[k] = items[i].bmax[k]
			}
		}
	}
	nodes[nodeIdx] = BVNode{BMin: bmin, BMax: bmax}

	axis := 0
	ext := bmax[0] - bmin[0]
	if d := bmax[1] - bmin[1]; d > ext {
		axis, ext = 1, d
	}
	if d := bmax[2] - bmin[2]; d > ext {
		axis = 2
	}

	slice := items[imin:imax]
	sort.Slice(slice, func(a, b int) bool {
		return slice[a].bmin[axis] < slice[b].bmin[axis]
	})

	isplit := imin + inum/2
	subdivideBV(items, imin, isplit, cur, nodes)
	subdivideBV(items, isplit, imax, cur, nodes)

	nodes[nodeIdx].I = -(*cur - icur)
}
