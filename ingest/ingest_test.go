package ingest

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gorustyt/dynanavmesh/errs"
	"github.com/gorustyt/dynanavmesh/obstacle"
)

type stubStore struct {
	mesh obstacle.TriangleMesh
	has  map[string]bool
}

func (s stubStore) Get(ref string) (obstacle.TriangleMesh, bool) {
	if s.has != nil && !s.has[ref] {
		return obstacle.TriangleMesh{}, false
	}
	return s.mesh, true
}

type recordingTiles struct {
	calls []errs.TileCoord
	fail  map[errs.TileCoord]error
}

func (r *recordingTiles) ApplyObstacle(x, y int, inst obstacle.Instance) error {
	tc := errs.TileCoord{X: x, Y: y}
	r.calls = append(r.calls, tc)
	if r.fail != nil {
		if err, ok := r.fail[tc]; ok {
			return err
		}
	}
	return nil
}

func flatBoxMesh() obstacle.TriangleMesh {
	return obstacle.TriangleMesh{
		Verts:   []mgl64.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}},
		Indices: []int{0, 1, 2, 0, 2, 3},
	}
}

func TestAdd_DuplicateGUIDIsRejected(t *testing.T) {
	tiles := &recordingTiles{}
	ing := New(stubStore{mesh: flatBoxMesh()}, tiles, 16)

	if err := ing.Add(1, "d_crate", mgl64.Vec3{8, 8, 0}, 0); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	err := ing.Add(1, "d_crate", mgl64.Vec3{8, 8, 0}, 0)
	if !errors.Is(err, errs.ErrDuplicateGUID) {
		t.Fatalf("expected ErrDuplicateGUID, got %v", err)
	}
}

func TestAdd_UnsupportedKindIsRejected(t *testing.T) {
	tiles := &recordingTiles{}
	ing := New(stubStore{mesh: flatBoxMesh()}, tiles, 16)

	err := ing.Add(2, "wmo_building", mgl64.Vec3{8, 8, 0}, 0)
	if !errors.Is(err, errs.ErrUnsupportedKind) {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
	if len(tiles.calls) != 0 {
		t.Fatal("expected no tile dispatch for an unsupported obstacle kind")
	}
}

func TestAdd_ModelNotFound(t *testing.T) {
	tiles := &recordingTiles{}
	ing := New(stubStore{mesh: flatBoxMesh(), has: map[string]bool{}}, tiles, 16)

	err := ing.Add(3, "d_missing", mgl64.Vec3{8, 8, 0}, 0)
	if !errors.Is(err, errs.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestAdd_FansOutToOverlappingTiles(t *testing.T) {
	tiles := &recordingTiles{}
	ing := New(stubStore{mesh: flatBoxMesh()}, tiles, 16)

	// Obstacle straddles the boundary between tile (0,0) and tile (1,0).
	if err := ing.Add(4, "d_crate", mgl64.Vec3{16, 0, 0}, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(tiles.calls) < 2 {
		t.Fatalf("expected the obstacle to fan out to at least 2 tiles, got %d", len(tiles.calls))
	}
}

func TestAdd_TileFailureIsSurfacedWithTouchedCoords(t *testing.T) {
	tiles := &recordingTiles{fail: map[errs.TileCoord]error{{X: 0, Y: 0}: errs.WithTile(errs.ErrPipelineStageFailed, 0, 0, nil)}}
	ing := New(stubStore{mesh: flatBoxMesh()}, tiles, 16)

	err := ing.Add(5, "d_crate", mgl64.Vec3{4, 4, 0}, 0)
	if !errors.Is(err, errs.ErrPipelineStageFailed) {
		t.Fatalf("expected ErrPipelineStageFailed, got %v", err)
	}

	// A failed placement must not register the guid, so a retry is possible.
	err2 := ing.Add(5, "d_crate", mgl64.Vec3{4, 4, 0}, 0)
	if errors.Is(err2, errs.ErrDuplicateGUID) {
		t.Fatal("a failed Add must not register the guid")
	}
}

func TestAddRequest_ParsesAndDispatchesByOrientation(t *testing.T) {
	tiles := &recordingTiles{}
	ing := New(stubStore{mesh: flatBoxMesh()}, tiles, 16)

	body := []byte(`{"guid":6,"model_ref":"d_crate","position":[8,8,0],"orientation_radians":0}`)
	if err := ing.AddRequest(body); err != nil {
		t.Fatalf("AddRequest: %v", err)
	}
	if len(tiles.calls) == 0 {
		t.Fatal("expected AddRequest to dispatch to at least one tile")
	}
}

func TestAddRequest_ParsesAndDispatchesByQuaternion(t *testing.T) {
	tiles := &recordingTiles{}
	ing := New(stubStore{mesh: flatBoxMesh()}, tiles, 16)

	body := []byte(`{"guid":7,"model_ref":"d_crate","position":[8,8,0],"quaternion":[0,0,0,1]}`)
	if err := ing.AddRequest(body); err != nil {
		t.Fatalf("AddRequest: %v", err)
	}
	if len(tiles.calls) == 0 {
		t.Fatal("expected AddRequest to dispatch to at least one tile")
	}
}

func TestAddRequest_InvalidJSONIsRejected(t *testing.T) {
	tiles := &recordingTiles{}
	ing := New(stubStore{mesh: flatBoxMesh()}, tiles, 16)

	if err := ing.AddRequest([]byte(`{"guid": 8}`)); err == nil {
		t.Fatal("expected schema validation to reject a request missing required fields")
	}
}
