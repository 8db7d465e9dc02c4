package errs

import (
	"errors"
	"strings"
	"testing"
)

func TestFatal_RegistryKindsAreFatal(t *testing.T) {
	if !Fatal(WithTile(ErrRegistryRemoveFailed, 1, 2, nil)) {
		t.Fatal("ErrRegistryRemoveFailed must be fatal")
	}
	if !Fatal(WithTile(ErrRegistryInsertFailed, 1, 2, nil)) {
		t.Fatal("ErrRegistryInsertFailed must be fatal")
	}
}

func TestFatal_OtherKindsAreNotFatal(t *testing.T) {
	for _, kind := range []error{ErrDuplicateGUID, ErrUnsupportedKind, ErrModelNotFound, ErrPipelineStageFailed, ErrTooManyVerts} {
		if Fatal(WithTile(kind, 0, 0, nil)) {
			t.Fatalf("%v must not be reported as fatal", kind)
		}
	}
}

func TestTileError_UnwrapMatchesSentinel(t *testing.T) {
	err := WithTile(ErrModelNotFound, 3, 4, nil)
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatal("errors.Is must match the wrapped sentinel kind")
	}
}

func TestTileError_ErrorStringIncludesTilesAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := WithTile(ErrPipelineStageFailed, 5, 6, cause)
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected a non-empty error string")
	}
	if !strings.Contains(msg, "{5 6}") {
		t.Fatalf("error string %q does not include the tile coordinate", msg)
	}
	if !strings.Contains(msg, "boom") {
		t.Fatalf("error string %q does not include the cause", msg)
	}
	if !errors.Is(err, ErrPipelineStageFailed) {
		t.Fatal("expected errors.Is to match the kind")
	}
	if !errors.Is(err.Cause, cause) && err.Cause != cause {
		t.Fatal("expected Cause to round-trip the wrapped error")
	}
}

func TestWithTiles_CarriesEveryCoordinate(t *testing.T) {
	coords := []TileCoord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	err := WithTiles(ErrPipelineStageFailed, coords, nil)
	if len(err.Tiles) != len(coords) {
		t.Fatalf("expected %d tiles, got %d", len(coords), len(err.Tiles))
	}
	for i, tc := range coords {
		if err.Tiles[i] != tc {
			t.Fatalf("tile %d = %v, want %v", i, err.Tiles[i], tc)
		}
	}
}
