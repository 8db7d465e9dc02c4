package compact

import (
	"testing"

	"github.com/gorustyt/dynanavmesh/voxel"
)

func flatCompact(t *testing.T, walkableClimb int) *Heightfield {
	t.Helper()
	hf := voxel.NewHeightfield(4, 4, voxel.Vec3{0, 0, 0}, voxel.Vec3{4, 4, 4}, 1, 1)
	verts := []voxel.Vec3{{0, 0, 0}, {4, 0, 0}, {4, 0, 4}, {0, 0, 4}}
	indices := []int{0, 1, 2, 0, 2, 3}
	areas := []voxel.AreaFlags{voxel.AreaTerrain, voxel.AreaTerrain}
	voxel.RasterizeTriangles(hf, verts, indices, areas, 1)
	return Build(hf, 2, walkableClimb)
}

// Neighbor connectivity must be reciprocal: if span A's Con[dir]
// points at span B, then B's Con[opposite(dir)] must point back at A.
func TestBuild_ReciprocalNeighborLinks(t *testing.T) {
	chf := flatCompact(t, 0xffff)
	opposite := [4]int{2, 3, 0, 1}

	for z := 0; z < chf.Height; z++ {
		for x := 0; x < chf.Width; x++ {
			cell := chf.cellAt(x, z)
			for i := cell.Index; i < cell.Index+cell.Count; i++ {
				for dir := 0; dir < 4; dir++ {
					k := chf.Spans[i].Con[dir]
					if k == NotConnected {
						continue
					}
					nx := x + voxel.DirOffsetX(dir)
					nz := z + voxel.DirOffsetY(dir)
					nCell := chf.cellAt(nx, nz)
					ni := nCell.Index + k
					back := chf.Spans[ni].Con[opposite[dir]]
					if back == NotConnected {
						t.Fatalf("span (%d,%d,%d) dir %d links to (%d,%d,%d) but back-link is missing", x, z, i, dir, nx, nz, ni)
					}
				}
			}
		}
	}
}

func TestEnforceSelectiveClimb_CutsNonTerrainAcrossCliff(t *testing.T) {
	hf := voxel.NewHeightfield(2, 1, voxel.Vec3{0, 0, 0}, voxel.Vec3{2, 40, 1}, 1, 1)
	// Column 0: doodad floor at y=0. Column 1: doodad floor at y=20 (a 20-voxel cliff).
	addTestSpan(hf, 0, 0, 0, 2, voxel.AreaDoodad)
	addTestSpan(hf, 1, 0, 20, 22, voxel.AreaDoodad)

	chf := Build(hf, 2, 0xffff)
	EnforceSelectiveClimb(chf, 4)

	// The two spans should no longer be connected: 20 voxel delta exceeds walkableClimb=4
	// and neither side is terrain.
	if chf.Spans[0].Con[2] != NotConnected {
		t.Fatal("expected non-terrain link across a 20-voxel cliff to be cut")
	}
}

func TestEnforceSelectiveClimb_KeepsTerrainAcrossCliff(t *testing.T) {
	hf := voxel.NewHeightfield(2, 1, voxel.Vec3{0, 0, 0}, voxel.Vec3{2, 40, 1}, 1, 1)
	addTestSpan(hf, 0, 0, 0, 2, voxel.AreaTerrain)
	addTestSpan(hf, 1, 0, 20, 22, voxel.AreaTerrain)

	chf := Build(hf, 2, 0xffff)
	EnforceSelectiveClimb(chf, 4)

	if chf.Spans[0].Con[2] == NotConnected {
		t.Fatal("expected terrain-terrain link across a cliff to survive selective climb enforcement")
	}
}

func addTestSpan(hf *voxel.Heightfield, x, z, yMin, yMax int, area voxel.AreaFlags) {
	col := x + z*hf.Width
	hf.Spans[col] = &voxel.Span{YMin: yMin, YMax: yMax, Area: area}
}
