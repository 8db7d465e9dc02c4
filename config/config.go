// Package config loads the fixed, per-map build-time constants (§6 of
// the design) from a YAML file, in the style of
// voxelcraft.ai/internal/sim/multiworld's Config/Load/Normalize.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildConfig holds the constants that parameterize the whole voxel
// pipeline for a given map. All voxel-unit fields are in cells; world
// unit fields are in the map's native distance unit.
type BuildConfig struct {
	CellSize float64 `yaml:"cell_size"`
	CellHeight float64 `yaml:"cell_height"`

	WalkableSlope  float64 `yaml:"walkable_slope_deg"`
	WalkableClimb  int     `yaml:"walkable_climb_vx"`
	WalkableHeight int     `yaml:"walkable_height_vx"`
	WalkableRadius int     `yaml:"walkable_radius_vx"`

	MaxEdgeLen             int     `yaml:"max_edge_len_vx"`
	MaxSimplificationError float64 `yaml:"max_simplification_error"`
	MinRegionArea          int     `yaml:"min_region_area"`
	MergeRegionArea        int     `yaml:"merge_region_area"`
	MaxVertsPerPoly        int     `yaml:"max_verts_per_poly"`

	TileSize int `yaml:"tile_size_vx"`

	DetailSampleDist     float64 `yaml:"detail_sample_dist"`
	DetailSampleMaxError float64 `yaml:"detail_sample_max_error"`
}

// BorderSize is derived, not configured: walkableRadius + 3 (§6).
func (c BuildConfig) BorderSize() int {
	return c.WalkableRadius + 3
}

func defaults() BuildConfig {
	return BuildConfig{
		CellSize:               0.3333333,
		CellHeight:              0.3333333,
		WalkableSlope:          55,
		WalkableClimb:          4,
		WalkableHeight:         6,
		WalkableRadius:         2,
		MaxEdgeLen:             8, // walkableRadius * 4; Normalize derives it the same way when unset
		MaxSimplificationError: 1.3,
		MinRegionArea:          8,
		MergeRegionArea:        20,
		MaxVertsPerPoly:        6,
		TileSize:               128,
		DetailSampleDist:       6,
		DetailSampleMaxError:   1,
	}
}

// Normalize fills in fields left at zero with the map-wide defaults
// and recomputes MaxEdgeLen from WalkableRadius when it wasn't set
// explicitly, matching the original build's
// `config.maxEdgeLen = config.walkableRadius * 4`.
func (c *BuildConfig) Normalize() {
	d := defaults()
	if c.CellSize == 0 {
		c.CellSize = d.CellSize
	}
	if c.CellHeight == 0 {
		c.CellHeight = d.CellHeight
	}
	if c.WalkableSlope == 0 {
		c.WalkableSlope = d.WalkableSlope
	}
	if c.WalkableClimb == 0 {
		c.WalkableClimb = d.WalkableClimb
	}
	if c.WalkableHeight == 0 {
		c.WalkableHeight = d.WalkableHeight
	}
	if c.WalkableRadius == 0 {
		c.WalkableRadius = d.WalkableRadius
	}
	if c.MaxEdgeLen == 0 {
		c.MaxEdgeLen = c.WalkableRadius * 4
	}
	if c.MaxSimplificationError == 0 {
		c.MaxSimplificationError = d.MaxSimplificationError
	}
	if c.MinRegionArea == 0 {
		c.MinRegionArea = d.MinRegionArea
	}
	if c.MergeRegionArea == 0 {
		c.MergeRegionArea = d.MergeRegionArea
	}
	if c.MaxVertsPerPoly == 0 {
		c.MaxVertsPerPoly = d.MaxVertsPerPoly
	}
	if c.TileSize == 0 {
		c.TileSize = d.TileSize
	}
	if c.DetailSampleDist == 0 {
		c.DetailSampleDist = d.DetailSampleDist
	}
	if c.DetailSampleMaxError == 0 {
		c.DetailSampleMaxError = d.DetailSampleMaxError
	}
}

// Load reads a BuildConfig from a YAML file at path. An empty path
// returns the normalized defaults, mirroring Load("") in the pack's
// multiworld config loader.
func Load(path string) (BuildConfig, error) {
	if path == "" {
		c := defaults()
		c.Normalize()
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return BuildConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var c BuildConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return BuildConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.Normalize()
	return c, nil
}
