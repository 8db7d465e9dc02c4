// Package registry holds the live set of built tiles and gives every
// lookup an atomic view of either the pre- or post-replace payload,
// never a partially-written one. Ported from the addTile/removeTile
// contract Map::AddGameObject relies on in
// original_source/pathfind/Source/TemporaryObstacle.cpp (a rebuild
// always removes the old tile reference before inserting the new
// one, and both are treated as unrecoverable on failure).
package registry

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gorustyt/dynanavmesh/errs"
	"github.com/gorustyt/dynanavmesh/tilepipeline"
)

// TileRef is an opaque handle to one inserted tile payload, scoped to
// a single Registry instance.
type TileRef struct {
	id uuid.UUID
}

func (r TileRef) String() string { return r.id.String() }

type tileCoord struct{ x, y int }

// Registry maps tile coordinates to their current payload. Replace is
// atomic per tile: Lookup under the read lock always observes either
// the full pre-replace or full post-replace payload.
type Registry struct {
	mu      sync.RWMutex
	byCoord map[tileCoord]TileRef
	byRef   map[TileRef]*tilepipeline.Payload
	tiles   map[tileCoord]*Tile

	onReplace func(tileX, tileY int, ref TileRef)
	logger    *zap.Logger
}

// New builds an empty Registry. onReplace, if non-nil, is invoked
// (outside the registry's lock) after every successful tile
// replacement — the hook the websocket event feed in feed.go attaches
// to.
func New(onReplace func(tileX, tileY int, ref TileRef)) *Registry {
	return &Registry{
		byCoord:   map[tileCoord]TileRef{},
		byRef:     map[TileRef]*tilepipeline.Payload{},
		onReplace: onReplace,
		logger:    zap.NewNop(),
	}
}

// SetLogger attaches the logger every Replace/ApplyObstacle call logs
// through. A nil logger is ignored, so the default no-op logger from
// New stays in effect.
func (r *Registry) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Insert adds a new tile payload and returns its reference.
func (r *Registry) Insert(payload *tilepipeline.Payload) (TileRef, error) {
	if payload == nil {
		return TileRef{}, errs.WithTile(errs.ErrRegistryInsertFailed, 0, 0, nil)
	}
	ref := TileRef{id: uuid.New()}

	r.mu.Lock()
	r.byRef[ref] = payload
	r.byCoord[tileCoord{payload.TileX, payload.TileY}] = ref
	r.mu.Unlock()

	return ref, nil
}

// Remove deletes a tile reference. Removing an unknown ref is a
// REGISTRY_REMOVE_FAILED error: callers must never swallow this.
func (r *Registry) Remove(ref TileRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payload, ok := r.byRef[ref]
	if !ok {
		return errs.WithTile(errs.ErrRegistryRemoveFailed, 0, 0, nil)
	}
	delete(r.byRef, ref)
	coord := tileCoord{payload.TileX, payload.TileY}
	if r.byCoord[coord] == ref {
		delete(r.byCoord, coord)
	}
	return nil
}

// Lookup returns the current payload for (tileX, tileY), if any.
func (r *Registry) Lookup(tileX, tileY int) (*tilepipeline.Payload, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.byCoord[tileCoord{tileX, tileY}]
	if !ok {
		return nil, false
	}
	payload, ok := r.byRef[ref]
	return payload, ok
}

// Replace atomically swaps whatever tile currently occupies
// (tileX, tileY) for a freshly rebuilt payload: remove-then-insert
// under a single write-lock hold, so no Lookup can observe a coordinate
// with neither the old nor the new tile present. Per §7, both the
// remove and the insert are fatal if they fail — this pipeline never
// leaves a tile silently absent.
func (r *Registry) Replace(tileX, tileY int, payload *tilepipeline.Payload) (TileRef, error) {
	r.mu.Lock()

	coord := tileCoord{tileX, tileY}
	if oldRef, had := r.byCoord[coord]; had {
		if _, ok := r.byRef[oldRef]; !ok {
			r.mu.Unlock()
			r.logger.Error("registry remove failed", zap.Int("tile_x", tileX), zap.Int("tile_y", tileY))
			return TileRef{}, errs.WithTile(errs.ErrRegistryRemoveFailed, tileX, tileY, nil)
		}
		delete(r.byRef, oldRef)
		delete(r.byCoord, coord)
	}

	if payload == nil {
		r.mu.Unlock()
		r.logger.Error("registry insert failed: nil payload", zap.Int("tile_x", tileX), zap.Int("tile_y", tileY))
		return TileRef{}, errs.WithTile(errs.ErrRegistryInsertFailed, tileX, tileY, nil)
	}
	newRef := TileRef{id: uuid.New()}
	r.byRef[newRef] = payload
	r.byCoord[coord] = newRef

	r.mu.Unlock()

	r.logger.Info("tile replaced",
		zap.Int("tile_x", tileX), zap.Int("tile_y", tileY),
		zap.String("ref", newRef.String()), zap.Int("polys", len(payload.Polys)))

	if r.onReplace != nil {
		r.onReplace(tileX, tileY, newRef)
	}
	return newRef, nil
}
