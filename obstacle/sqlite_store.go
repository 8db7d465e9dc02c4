package obstacle

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	_ "modernc.org/sqlite"
)

// SQLiteModelStore is a ModelStore backed by a pre-populated sqlite
// database of model geometry, with an in-memory read cache so a hot
// obstacle kind (a common doodad placed thousands of times) costs one
// query. Ported from the connection-setup half of
// voxelcraft.ai/internal/persistence/indexdb.OpenSQLite; this store is
// read-only so it skips that package's writer-goroutine/channel half
// entirely.
type SQLiteModelStore struct {
	db *sql.DB

	mu    sync.RWMutex
	cache map[string]TriangleMesh
}

// OpenSQLiteModelStore opens the model database at path. A missing
// file is not reported as an error: the driver's default open mode
// creates an empty database there, and every Get on it misses. The
// schema is a single table: models(ref TEXT PRIMARY KEY,
// verts_json TEXT, indices_json TEXT).
func OpenSQLiteModelStore(path string) (*SQLiteModelStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("obstacle: open model store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA query_only = true`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("obstacle: set query_only: %w", err)
	}

	return &SQLiteModelStore{db: db, cache: map[string]TriangleMesh{}}, nil
}

func (s *SQLiteModelStore) Close() error { return s.db.Close() }

// Get implements ModelStore.
func (s *SQLiteModelStore) Get(modelRef string) (TriangleMesh, bool) {
	s.mu.RLock()
	if mesh, ok := s.cache[modelRef]; ok {
		s.mu.RUnlock()
		return mesh, true
	}
	s.mu.RUnlock()

	var vertsJSON, indicesJSON string
	row := s.db.QueryRow(`SELECT verts_json, indices_json FROM models WHERE ref = ?`, modelRef)
	if err := row.Scan(&vertsJSON, &indicesJSON); err != nil {
		return TriangleMesh{}, false
	}

	var rawVerts [][3]float64
	if err := json.Unmarshal([]byte(vertsJSON), &rawVerts); err != nil {
		return TriangleMesh{}, false
	}
	var indices []int
	if err := json.Unmarshal([]byte(indicesJSON), &indices); err != nil {
		return TriangleMesh{}, false
	}

	mesh := TriangleMesh{Verts: make([]mgl64.Vec3, len(rawVerts)), Indices: indices}
	for i, v := range rawVerts {
		mesh.Verts[i] = mgl64.Vec3{v[0], v[1], v[2]}
	}

	s.mu.Lock()
	s.cache[modelRef] = mesh
	s.mu.Unlock()

	return mesh, true
}
