package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/chazu/topocut/pkg/pipeline"
	"github.com/chazu/topocut/pkg/roads"
)

// Config is the TOML configuration contract for a terrain model build.
type Config struct {
	OutputFile string `toml:"output_file"`

	ModelWidthMM    float64 `toml:"model_width_mm"`
	ModelHeightMM   float64 `toml:"model_height_mm"`
	BaseThicknessMM float64 `toml:"base_thickness_mm"`
	VerticalScale   float64 `toml:"vertical_scale"`

	SmoothIterations int `toml:"smooth_iterations"`

	IncludeRoads     bool    `toml:"include_roads"`
	RoadWidthM       float64 `toml:"road_width_m"`
	RoadDepthM       float64 `toml:"road_depth_m"`
	RoadTypes        string  `toml:"road_types"`
	RoadsGeoJSONFile string  `toml:"roads_geojson_file"`
}

// DefaultConfig returns the defaults used when no config file is given.
func DefaultConfig() Config {
	return Config{
		OutputFile:       "terrain_model.stl",
		ModelWidthMM:     200,
		ModelHeightMM:    200,
		BaseThicknessMM:  5,
		VerticalScale:    1.5,
		SmoothIterations: 1,
		IncludeRoads:     false,
		RoadWidthM:       10,
		RoadDepthM:       2,
		RoadTypes:        string(roads.ClassMajor),
	}
}

// LoadConfig reads a TOML file over the defaults. An empty path returns
// the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate enforces the parameter ranges of the configuration contract.
func (c Config) Validate() error {
	if c.ModelWidthMM <= 0 || c.ModelHeightMM <= 0 {
		return fmt.Errorf("config: model_width_mm and model_height_mm must be positive, got %g x %g",
			c.ModelWidthMM, c.ModelHeightMM)
	}
	if c.BaseThicknessMM < 0 {
		return fmt.Errorf("config: base_thickness_mm must be non-negative, got %g", c.BaseThicknessMM)
	}
	if c.VerticalScale <= 0 {
		return fmt.Errorf("config: vertical_scale must be positive, got %g", c.VerticalScale)
	}
	if c.SmoothIterations < 0 {
		return fmt.Errorf("config: smooth_iterations must be non-negative, got %d", c.SmoothIterations)
	}
	if c.IncludeRoads {
		if c.RoadWidthM <= 0 {
			return fmt.Errorf("config: road_width_m must be positive, got %g", c.RoadWidthM)
		}
		if c.RoadDepthM <= 0 {
			return fmt.Errorf("config: road_depth_m must be positive, got %g", c.RoadDepthM)
		}
	}
	switch c.RoadTypes {
	case "", string(roads.ClassMajor), string(roads.ClassAll):
	default:
		return fmt.Errorf("config: road_types must be %q or %q, got %q",
			roads.ClassMajor, roads.ClassAll, c.RoadTypes)
	}
	return nil
}

// RoadClass returns the configured road class filter.
func (c Config) RoadClass() roads.Class {
	if c.RoadTypes == string(roads.ClassAll) {
		return roads.ClassAll
	}
	return roads.ClassMajor
}

// PipelineOptions maps the config onto pipeline options.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		WidthMM:          c.ModelWidthMM,
		HeightMM:         c.ModelHeightMM,
		BaseMM:           c.BaseThicknessMM,
		VScale:           c.VerticalScale,
		SmoothIterations: c.SmoothIterations,
		RoadWidthM:       c.RoadWidthM,
		RoadDepthM:       c.RoadDepthM,
	}
}
