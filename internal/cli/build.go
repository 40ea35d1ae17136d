package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/topocut/pkg/dem"
	"github.com/chazu/topocut/pkg/export"
	"github.com/chazu/topocut/pkg/pipeline"
	"github.com/chazu/topocut/pkg/roads"
)

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	config     string // TOML config file path
	demPath    string // input DEM (ESRI ASCII grid)
	roadsPath  string // local roads GeoJSON; overrides Overpass fetch
	output     string // output STL path; overrides config output_file
	fetchRoads bool   // force an Overpass fetch even without config include_roads
}

// newBuildCmd creates the build command running the full pipeline:
// DEM in, carved/conditioned solid STL out.
func newBuildCmd() *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a carvable solid terrain model from a DEM",
		Long: `Build reads an elevation grid, optionally rasterizes and carves road
polylines into it, repairs voids, smooths the surface, and writes a
closed solid STL sized to the configured footprint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&opts.demPath, "dem", "", "input DEM file (ESRI ASCII grid)")
	cmd.Flags().StringVar(&opts.roadsPath, "roads", "", "roads GeoJSON file (skips Overpass)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output STL file (overrides config)")
	cmd.Flags().BoolVar(&opts.fetchRoads, "fetch-roads", false, "fetch roads from Overpass")
	cmd.MarkFlagRequired("dem")

	return cmd
}

func runBuild(cmd *cobra.Command, opts buildOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := LoadConfig(opts.config)
	if err != nil {
		return err
	}
	if opts.output != "" {
		cfg.OutputFile = opts.output
	}

	logger.Info("loading DEM", "path", opts.demPath)
	grid, err := dem.ReadASCFile(opts.demPath)
	if err != nil {
		return err
	}
	min, max, ok := grid.MinMax()
	if !ok {
		return fmt.Errorf("build: DEM %s has no valid samples", opts.demPath)
	}
	logger.Info("DEM loaded",
		"shape", fmt.Sprintf("%dx%d", grid.Rows, grid.Cols),
		"range", fmt.Sprintf("%.1fm to %.1fm", min, max),
		"voids", grid.VoidCount())

	roadSet, err := loadRoads(cmd, cfg, opts, grid)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(grid, roadSet, cfg.PipelineOptions())
	if err != nil {
		return err
	}
	if result.VoidsFilled > 0 {
		logger.Warn("void samples repaired", "count", result.VoidsFilled)
	}
	if result.Mask != nil {
		logger.Info("roads carved", "segments", roadSet.Len(), "cells", result.RoadCells)
	}

	bbMin, bbMax := result.Mesh.BoundingBox()
	logger.Info("mesh built",
		"vertices", result.Mesh.VertexCount(),
		"triangles", result.Mesh.TriangleCount(),
		"size", fmt.Sprintf("%.0fmm x %.0fmm x %.1fmm", bbMax.X-bbMin.X, bbMax.Y-bbMin.Y, bbMax.Z-bbMin.Z))

	if err := export.SaveSTL(cfg.OutputFile, result.Mesh); err != nil {
		return err
	}
	logger.Info("STL written", "path", cfg.OutputFile)
	return nil
}

// loadRoads resolves the road source: a local GeoJSON file when given,
// otherwise an Overpass fetch over the DEM bounds when enabled. Finding
// no roads is a normal condition and returns an empty set.
func loadRoads(cmd *cobra.Command, cfg Config, opts buildOpts, grid *dem.Grid) (roads.RoadSet, error) {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if opts.roadsPath != "" {
		rs, err := roads.LoadGeoJSON(opts.roadsPath)
		if err != nil {
			return roads.RoadSet{}, err
		}
		logger.Info("roads loaded", "path", opts.roadsPath, "segments", rs.Len())
		return rs, nil
	}

	if !cfg.IncludeRoads && !opts.fetchRoads {
		return roads.RoadSet{}, nil
	}

	bounds := grid.Bounds()
	logger.Info("fetching roads from Overpass",
		"class", string(cfg.RoadClass()),
		"bounds", fmt.Sprintf("S:%.4f W:%.4f N:%.4f E:%.4f", bounds.South, bounds.West, bounds.North, bounds.East))

	rs, err := roads.NewOverpassClient().Fetch(ctx, bounds, cfg.RoadClass())
	if err != nil {
		// Absent road data degrades the model, it does not fail the build.
		logger.Warn("road fetch failed, continuing without roads", "err", err)
		return roads.RoadSet{}, nil
	}
	if rs.IsEmpty() {
		logger.Info("no roads found in this area")
	} else {
		logger.Info("roads fetched", "segments", rs.Len())
	}
	return rs, nil
}
