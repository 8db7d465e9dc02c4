// Package errs enumerates the error kinds produced by the tile rebuild
// core and their diagnostic context, per the propagation policy each
// kind is given in the design: no error is recovered silently, and every
// error surfaced from Ingestor.Add carries the tile coordinates it
// touched so a caller can log or retry at the right granularity.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Use errors.Is against these, never string matching.
var (
	ErrDuplicateGUID       = errors.New("obstacle guid already registered")
	ErrUnsupportedKind     = errors.New("obstacle kind is not supported for dynamic placement")
	ErrModelNotFound       = errors.New("model store has no entry for the requested model reference")
	ErrPipelineStageFailed = errors.New("tile rebuild pipeline stage failed")
	ErrTooManyVerts        = errors.New("polygon mesh exceeds the 16-bit vertex limit")
	ErrRegistryRemoveFailed = errors.New("registry failed to remove an existing tile reference")
	ErrRegistryInsertFailed = errors.New("registry failed to insert a tile payload")
)

// Fatal reports whether err represents a data-structure invariant
// breach that must never be swallowed (REGISTRY_REMOVE_FAILED /
// REGISTRY_INSERT_FAILED). Callers should treat a true result as
// unrecoverable for the affected tile.
func Fatal(err error) bool {
	return errors.Is(err, ErrRegistryRemoveFailed) || errors.Is(err, ErrRegistryInsertFailed)
}

// TileCoord identifies a tile touched by a failing operation.
type TileCoord struct {
	X, Y int
}

// TileError wraps a sentinel error kind with the tile(s) it affected,
// so a caller of Ingestor.Add gets the full diagnostic list rather than
// a single coordinate.
type TileError struct {
	Kind  error
	Tiles []TileCoord
	Cause error
}

func (e *TileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v (tiles=%v): %v", e.Kind, e.Tiles, e.Cause)
	}
	return fmt.Sprintf("%v (tiles=%v)", e.Kind, e.Tiles)
}

func (e *TileError) Unwrap() error { return e.Kind }

// WithTile builds a TileError for a single tile coordinate.
func WithTile(kind error, x, y int, cause error) *TileError {
	return &TileError{Kind: kind, Tiles: []TileCoord{{X: x, Y: y}}, Cause: cause}
}

// WithTiles builds a TileError carrying every tile coordinate touched
// by a multi-tile operation (e.g. Ingestor.Add fanning out over the
// tiles an obstacle's bounds overlap).
func WithTiles(kind error, tiles []TileCoord, cause error) *TileError {
	return &TileError{Kind: kind, Tiles: tiles, Cause: cause}
}
