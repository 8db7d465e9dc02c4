package registry

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gorustyt/dynanavmesh/config"
	"github.com/gorustyt/dynanavmesh/obstacle"
	"github.com/gorustyt/dynanavmesh/voxel"
)

func testConfig() config.BuildConfig {
	c := config.BuildConfig{}
	c.Normalize()
	c.CellSize, c.CellHeight = 1, 1
	c.WalkableHeight, c.WalkableClimb = 2, 4
	c.MinRegionArea, c.MergeRegionArea = 4, 8
	c.MaxEdgeLen, c.MaxSimplificationError = 8, 1.3
	c.MaxVertsPerPoly = 6
	return c
}

func flatTerrain(size float64) ([]voxel.Vec3, []int) {
	verts := []voxel.Vec3{
		{0, 0, 0}, {size, 0, 0}, {size, 0, size}, {0, 0, size},
	}
	// Wound so each triangle's normal points up (+y); the opposite
	// winding faces down and MarkUnwalkableTriangles rejects it.
	return verts, []int{0, 2, 1, 0, 3, 2}
}

func TestTile_TerrainOnlyBuildsWalkableTile(t *testing.T) {
	r := New(nil)
	cfg := testConfig()
	verts, indices := flatTerrain(16)

	tile, err := NewTile(0, 0, voxel.Vec3{0, 0, 0}, voxel.Vec3{16, 4, 16}, 16, 16, cfg, verts, indices, r)
	if err != nil {
		t.Fatalf("NewTile: %v", err)
	}

	payload, ok := r.Lookup(0, 0)
	if !ok {
		t.Fatal("tile not visible in registry after construction")
	}
	if len(payload.Polys) == 0 {
		t.Fatal("expected flat terrain to produce walkable polygons")
	}
	_ = tile
}

type stubModelStore struct {
	mesh obstacle.TriangleMesh
}

func (s stubModelStore) Get(ref string) (obstacle.TriangleMesh, bool) {
	if ref == "missing" {
		return obstacle.TriangleMesh{}, false
	}
	return s.mesh, true
}

func boxMesh() obstacle.TriangleMesh {
	// A flat doodad footprint in the model's local x/y plane; z (world
	// up) stays 0 so a small z translation lands it just above the
	// terrain plane once placed.
	verts := []mgl64.Vec3{
		{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0},
	}
	return obstacle.TriangleMesh{Verts: verts, Indices: []int{0, 1, 2, 0, 2, 3}}
}

func TestTile_ApplyObstacle_RebuildsAroundDoodad(t *testing.T) {
	r := New(nil)
	cfg := testConfig()
	verts, indices := flatTerrain(16)

	if _, err := NewTile(0, 0, voxel.Vec3{0, 0, 0}, voxel.Vec3{16, 4, 16}, 16, 16, cfg, verts, indices, r); err != nil {
		t.Fatalf("NewTile: %v", err)
	}

	before, _ := r.Lookup(0, 0)

	store := stubModelStore{mesh: boxMesh()}
	transform := obstacle.FromZRotation(mgl64.Vec3{8, 8, 1}, 0)
	mesh, _ := store.Get("d_box")
	inst := obstacle.NewInstance(1, "d_box", transform, mesh)

	if err := r.ApplyObstacle(0, 0, inst); err != nil {
		t.Fatalf("ApplyObstacle: %v", err)
	}

	after, ok := r.Lookup(0, 0)
	if !ok {
		t.Fatal("tile disappeared after ApplyObstacle")
	}
	if after == before {
		t.Fatal("expected a new payload after applying an obstacle")
	}
}

func TestTile_RebuildAndReplace_ZeroContoursLeavesRegistryUnchanged(t *testing.T) {
	r := New(nil)
	cfg := testConfig()
	verts, indices := flatTerrain(16)

	tile, err := NewTile(0, 0, voxel.Vec3{0, 0, 0}, voxel.Vec3{16, 4, 16}, 16, 16, cfg, verts, indices, r)
	if err != nil {
		t.Fatalf("NewTile: %v", err)
	}

	before, ok := r.Lookup(0, 0)
	if !ok {
		t.Fatal("expected a tile payload registered after NewTile")
	}
	beforeRef := tile.ref

	// Replace the tile's heightfield with an empty one: the next
	// rebuild has zero spans and therefore zero contours, the §4.5
	// step 4 no-op-success case. Per §8 scenario 1, the registry must
	// be left exactly as it was rather than overwritten with an empty
	// payload.
	tile.hf = voxel.NewHeightfield(16, 16, voxel.Vec3{0, 0, 0}, voxel.Vec3{16, 4, 16}, 1, 1)
	if err := tile.rebuildAndReplace(); err != nil {
		t.Fatalf("rebuildAndReplace: %v", err)
	}

	after, ok := r.Lookup(0, 0)
	if !ok {
		t.Fatal("registry entry disappeared after a no-op rebuild")
	}
	if after != before {
		t.Fatal("expected the prior payload to survive a zero-contour rebuild unchanged")
	}
	if tile.ref != beforeRef {
		t.Fatal("expected the tile's ref to be left unchanged by a no-op rebuild")
	}
}

func TestTile_ApplyObstacle_UnregisteredTileIsANoop(t *testing.T) {
	r := New(nil)
	store := stubModelStore{mesh: boxMesh()}
	transform := obstacle.FromZRotation(mgl64.Vec3{8, 8, 1}, 0)
	mesh, _ := store.Get("d_box")
	inst := obstacle.NewInstance(1, "d_box", transform, mesh)

	if err := r.ApplyObstacle(99, 99, inst); err != nil {
		t.Fatalf("expected a no-op for an unregistered tile, got %v", err)
	}
}
