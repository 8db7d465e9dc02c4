package registry

import (
	"go.uber.org/zap"

	"github.com/gorustyt/dynanavmesh/config"
	"github.com/gorustyt/dynanavmesh/obstacle"
	"github.com/gorustyt/dynanavmesh/voxel"
)

// RegisterTile builds and inserts a brand-new tile from terrain
// geometry, making it reachable by later ApplyObstacle calls at the
// same coordinate. Returns the existing Tile unchanged if one is
// already registered at (x, y).
func (r *Registry) RegisterTile(x, y int, bmin, bmax voxel.Vec3, width, height int, cfg config.BuildConfig, terrainVerts []voxel.Vec3, terrainIndices []int) (*Tile, error) {
	coord := tileCoord{x, y}

	r.mu.Lock()
	if r.tiles == nil {
		r.tiles = map[tileCoord]*Tile{}
	}
	if existing, ok := r.tiles[coord]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.mu.Unlock()

	tile, err := NewTile(x, y, bmin, bmax, width, height, cfg, terrainVerts, terrainIndices, r)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.tiles[coord] = tile
	r.mu.Unlock()

	return tile, nil
}

// ApplyObstacle implements ingest.TileMesh: it dispatches to the Tile
// registered at (tileX, tileY), or does nothing if no tile has been
// registered there (the obstacle's bounds reach past the built map
// edge).
func (r *Registry) ApplyObstacle(tileX, tileY int, inst obstacle.Instance) error {
	r.mu.RLock()
	tile, ok := r.tiles[tileCoord{tileX, tileY}]
	r.mu.RUnlock()
	if !ok {
		r.logger.Debug("obstacle applied to unregistered tile, ignoring",
			zap.Int("tile_x", tileX), zap.Int("tile_y", tileY), zap.Uint64("guid", inst.GUID))
		return nil
	}
	return tile.ApplyObstacle(inst)
}
