package ingest

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/obstacle_request.schema.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// ObstacleRequest is the external JSON shape for a single AddGameObject
// call, validated against schemas/obstacle_request.schema.json before
// it is ever decoded into Go types.
type ObstacleRequest struct {
	GUID                uint64     `json:"guid"`
	ModelRef            string     `json:"model_ref"`
	Position            [3]float64 `json:"position"`
	OrientationRadians  *float64   `json:"orientation_radians,omitempty"`
	Quaternion          *[4]float64 `json:"quaternion,omitempty"`
	DoodadSet           int        `json:"doodad_set,omitempty"`
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		data, err := schemaFS.ReadFile("schemas/obstacle_request.schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("ingest: read embedded schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("obstacle_request.schema.json", bytes.NewReader(data)); err != nil {
			schemaErr = fmt.Errorf("ingest: add schema resource: %w", err)
			return
		}
		s, err := compiler.Compile("obstacle_request.schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("ingest: compile schema: %w", err)
			return
		}
		schema = s
	})
	return schema, schemaErr
}

// ParseObstacleRequest validates data against the obstacle-request
// schema and, only if it passes, decodes it into an ObstacleRequest.
func ParseObstacleRequest(data []byte) (ObstacleRequest, error) {
	s, err := loadSchema()
	if err != nil {
		return ObstacleRequest{}, err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return ObstacleRequest{}, fmt.Errorf("ingest: decode request: %w", err)
	}
	if err := s.Validate(generic); err != nil {
		return ObstacleRequest{}, fmt.Errorf("ingest: request failed schema validation: %w", err)
	}

	var req ObstacleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ObstacleRequest{}, fmt.Errorf("ingest: decode request: %w", err)
	}
	return req, nil
}
