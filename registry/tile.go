package registry

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gorustyt/dynanavmesh/config"
	"github.com/gorustyt/dynanavmesh/obstacle"
	"github.com/gorustyt/dynanavmesh/tilepipeline"
	"github.com/gorustyt/dynanavmesh/voxel"
)

// worldToVoxel swaps the up axis: callers hand obstacle geometry in
// world (x, y, z) with z up; the voxel heightfield is y-up, so the
// tile boundary is where (x, y, z) -> (x, z, y) happens, never inside
// package voxel itself.
func worldToVoxel(v mgl64.Vec3) voxel.Vec3 {
	return voxel.Vec3{v[0], v[2], v[1]}
}

// Tile owns one tile's persistent solid heightfield (terrain plus
// every doodad rasterized into it so far) and the last payload built
// from it. Doodad additions are cumulative against this heightfield,
// matching Tile::AddTemporaryDoodad's reuse of m_heightField across
// calls in the original.
type Tile struct {
	x, y int
	hf   *voxel.Heightfield
	cfg  config.BuildConfig

	reg *Registry
	ref TileRef
}

// NewTile rasterizes terrainVerts/terrainIndices (already in voxel
// space) as AreaTerrain, runs the full filter sequence, builds the
// first tile payload, and inserts it into reg. A tile with no walkable
// surface yields no payload and leaves reg without an entry.
func NewTile(x, y int, bmin, bmax voxel.Vec3, width, height int, cfg config.BuildConfig, terrainVerts []voxel.Vec3, terrainIndices []int, reg *Registry) (*Tile, error) {
	t := &Tile{
		x:   x,
		y:   y,
		hf:  voxel.NewHeightfield(width, height, bmin, bmax, cfg.CellSize, cfg.CellHeight),
		cfg: cfg,
		reg: reg,
	}

	areas := make([]voxel.AreaFlags, len(terrainIndices)/3)
	for i := range areas {
		areas[i] = voxel.AreaTerrain
	}
	voxel.MarkUnwalkableTriangles(terrainVerts, terrainIndices, cfg.WalkableSlope, areas)
	voxel.RasterizeTriangles(t.hf, terrainVerts, terrainIndices, areas, cfg.WalkableClimb)

	t.runFilters(nil)

	if err := t.rebuildAndReplace(); err != nil {
		return nil, err
	}
	return t, nil
}

// ApplyObstacle rasterizes inst's world-space geometry (tagged
// AreaDoodad) into this tile's heightfield on top of whatever is
// already there, reapplies the terrain-preservation rule around
// ledge filtering, and rebuilds + atomically replaces this tile's
// payload in the registry. Ported from Tile::AddTemporaryDoodad.
func (t *Tile) ApplyObstacle(inst obstacle.Instance) error {
	verts := make([]voxel.Vec3, len(inst.WorldVerts))
	for i, v := range inst.WorldVerts {
		verts[i] = worldToVoxel(v)
	}

	areas := make([]voxel.AreaFlags, len(inst.WorldIndices)/3)
	for i := range areas {
		areas[i] = voxel.AreaDoodad
	}
	voxel.MarkUnwalkableTriangles(verts, inst.WorldIndices, t.cfg.WalkableSlope, areas)
	voxel.RasterizeTriangles(t.hf, verts, inst.WorldIndices, areas, t.cfg.WalkableClimb)

	terrainSnapshot := voxel.SnapshotSpansWithArea(t.hf, voxel.AreaTerrain)
	t.runFilters(terrainSnapshot)

	return t.rebuildAndReplace()
}

// runFilters applies the ledge/low-height/low-hanging filter sequence
// and, if a terrain snapshot was supplied, reasserts the TERRAIN bit
// on every span it names afterward — the terrain-preservation rule:
// ledge filtering doesn't know about the TERRAIN area class, so ADT
// geometry that would otherwise be ledge-filtered stays walkable.
func (t *Tile) runFilters(terrainSnapshot []*voxel.Span) {
	voxel.FilterLedgeSpans(t.cfg.WalkableHeight, t.cfg.WalkableClimb, t.hf)
	if terrainSnapshot != nil {
		voxel.Reassert(terrainSnapshot, voxel.AreaTerrain)
	}
	voxel.FilterWalkableLowHeightSpans(t.cfg.WalkableHeight, t.hf)
	voxel.FilterLowHangingWalkableObstacles(t.cfg.WalkableClimb, t.hf)
}

// rebuildAndReplace runs the pipeline and, only if it produced a real
// payload, atomically replaces this tile's registry entry. Per §4.5
// step 4 / §8 scenario 1, a zero-contour rebuild is a no-op success:
// whatever is currently registered at (t.x, t.y) — including nothing,
// on an initial RegisterTile call — is left exactly as it was.
func (t *Tile) rebuildAndReplace() error {
	payload, ok, err := tilepipeline.RebuildTile(t.hf, t.x, t.y, tilepipeline.Params{
		WalkableHeight:       t.cfg.WalkableHeight,
		WalkableClimb:        t.cfg.WalkableClimb,
		WalkableRadius:       t.cfg.WalkableRadius,
		MinRegionArea:        t.cfg.MinRegionArea,
		MergeArea:            t.cfg.MergeRegionArea,
		MaxEdgeLen:           t.cfg.MaxEdgeLen,
		MaxSimpError:         t.cfg.MaxSimplificationError,
		MaxVertsPerPoly:      t.cfg.MaxVertsPerPoly,
		DetailSampleDist:     t.cfg.DetailSampleDist,
		DetailSampleMaxError: t.cfg.DetailSampleMaxError,
		BorderSize:           t.cfg.BorderSize(),
		CellSize:             t.cfg.CellSize,
		CellHeight:           t.cfg.CellHeight,
	})
	if err != nil {
		return fmt.Errorf("registry: rebuild tile (%d, %d): %w", t.x, t.y, err)
	}
	if !ok {
		return nil
	}

	ref, err := t.reg.Replace(t.x, t.y, payload)
	if err != nil {
		return err
	}
	t.ref = ref
	return nil
}
