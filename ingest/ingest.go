// Package ingest exposes the one write path into the system: placing
// a new dynamic obstacle (doodad) and fanning its rebuild out
// to every tile its world-space bounds overlap. Ported from
// Map::AddGameObject and Tile::AddTemporaryDoodad in
// original_source/pathfind/Source/TemporaryObstacle.cpp.
package ingest

import (
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/gorustyt/dynanavmesh/errs"
	"github.com/gorustyt/dynanavmesh/obstacle"
)

// TileMesh is the registry-side seam Ingestor fans obstacle placement
// out to: one ApplyObstacle call per tile the obstacle's bounds touch.
type TileMesh interface {
	ApplyObstacle(tileX, tileY int, inst obstacle.Instance) error
}

// Ingestor tracks obstacle identity (duplicate-guid rejection) and
// dispatches placement to the tiles a new instance overlaps.
type Ingestor struct {
	store        obstacle.ModelStore
	tiles        TileMesh
	tileWorldLen float64

	mu   sync.Mutex
	guid map[uint64]struct{}

	logger *zap.Logger
}

// New builds an Ingestor. tileWorldLen is a tile's world-space edge
// length (TileSize voxels * CellSize), used to compute which tiles an
// instance's bounds overlap.
func New(store obstacle.ModelStore, tiles TileMesh, tileWorldLen float64) *Ingestor {
	return &Ingestor{store: store, tiles: tiles, tileWorldLen: tileWorldLen, guid: map[uint64]struct{}{}, logger: zap.NewNop()}
}

// SetLogger attaches the logger obstacle rejections and placements log
// through. A nil logger is ignored.
func (ing *Ingestor) SetLogger(logger *zap.Logger) {
	if logger != nil {
		ing.logger = logger
	}
}

// isDoodad mirrors the original's path-prefix convention: a model
// reference beginning with 'd'/'D' names a doodad; anything else is
// treated as a WMO, which this pipeline does not support placing
// dynamically (see Non-goals).
func isDoodad(modelRef string) bool {
	return strings.HasPrefix(modelRef, "d") || strings.HasPrefix(modelRef, "D")
}

// Add places a new obstacle by a Z-axis angle (degrees disallowed —
// radians only, matching the original's orientation parameter).
func (ing *Ingestor) Add(guid uint64, modelRef string, position mgl64.Vec3, orientationRadians float64) error {
	t := obstacle.FromZRotation(position, orientationRadians)
	return ing.add(guid, modelRef, t)
}

// AddQuaternion places a new obstacle with a full quaternion rotation.
func (ing *Ingestor) AddQuaternion(guid uint64, modelRef string, position mgl64.Vec3, rotation mgl64.Quat) error {
	t := obstacle.FromQuaternion(position, rotation)
	return ing.add(guid, modelRef, t)
}

func (ing *Ingestor) add(guid uint64, modelRef string, t obstacle.RigidTransform) error {
	ing.mu.Lock()
	if _, exists := ing.guid[guid]; exists {
		ing.mu.Unlock()
		ing.logger.Warn("rejected obstacle: duplicate guid", zap.Uint64("guid", guid))
		return errs.WithTiles(errs.ErrDuplicateGUID, nil, nil)
	}
	ing.mu.Unlock()

	if !isDoodad(modelRef) {
		ing.logger.Warn("rejected obstacle: unsupported kind", zap.Uint64("guid", guid), zap.String("model_ref", modelRef))
		return errs.WithTiles(errs.ErrUnsupportedKind, nil, nil)
	}

	mesh, ok := ing.store.Get(modelRef)
	if !ok {
		ing.logger.Warn("rejected obstacle: model not found", zap.Uint64("guid", guid), zap.String("model_ref", modelRef))
		return errs.WithTiles(errs.ErrModelNotFound, nil, nil)
	}

	inst := obstacle.NewInstance(guid, modelRef, t, mesh)

	tiles := ing.overlappingTiles(inst)

	var touched []errs.TileCoord
	var firstErr error
	for _, tc := range tiles {
		if err := ing.tiles.ApplyObstacle(tc.X, tc.Y, inst); err != nil {
			touched = append(touched, tc)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
	}
	if firstErr != nil {
		ing.logger.Error("obstacle placement failed", zap.Uint64("guid", guid), zap.Error(firstErr))
		return errs.WithTiles(errs.ErrPipelineStageFailed, touched, firstErr)
	}

	ing.mu.Lock()
	ing.guid[guid] = struct{}{}
	ing.mu.Unlock()

	ing.logger.Info("obstacle placed", zap.Uint64("guid", guid), zap.String("model_ref", modelRef), zap.Int("tiles_touched", len(tiles)))

	return nil
}

// AddRequest decodes and schema-validates data as an ObstacleRequest
// and dispatches it to Add or AddQuaternion depending on which
// rotation field it carries (the schema's oneOf requires exactly one
// of them). This is the entrypoint an HTTP or websocket handler calls
// with a raw request body.
func (ing *Ingestor) AddRequest(data []byte) error {
	req, err := ParseObstacleRequest(data)
	if err != nil {
		return err
	}

	position := mgl64.Vec3{req.Position[0], req.Position[1], req.Position[2]}

	if req.Quaternion != nil {
		q := *req.Quaternion
		rotation := mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}
		return ing.AddQuaternion(req.GUID, req.ModelRef, position, rotation)
	}
	return ing.Add(req.GUID, req.ModelRef, position, *req.OrientationRadians)
}

func (ing *Ingestor) overlappingTiles(inst obstacle.Instance) []errs.TileCoord {
	tlen := ing.tileWorldLen
	x0 := int(inst.BMin[0] / tlen)
	x1 := int(inst.BMax[0] / tlen)
	y0 := int(inst.BMin[1] / tlen)
	y1 := int(inst.BMax[1] / tlen)

	var out []errs.TileCoord
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			out = append(out, errs.TileCoord{X: x, Y: y})
		}
	}
	return out
}
