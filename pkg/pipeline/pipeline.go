// Package pipeline chains the carving stages into one pure pass:
// rasterize roads, carve grooves, condition the elevation grid, then mesh
// it into a closed solid. Each stage takes explicit inputs and returns
// fresh outputs; no stage keeps state between invocations, and the
// caller's grid is never mutated.
package pipeline

import (
	"fmt"

	"github.com/chazu/topocut/pkg/dem"
	"github.com/chazu/topocut/pkg/geo"
	"github.com/chazu/topocut/pkg/mesher"
	"github.com/chazu/topocut/pkg/roads"
)

// Options carries the recognized configuration contract for one run.
type Options struct {
	// Physical model target.
	WidthMM  float64 // model_width_mm, > 0
	HeightMM float64 // model_height_mm, > 0
	BaseMM   float64 // base_thickness_mm, >= 0
	VScale   float64 // vertical_scale, > 0

	// Conditioning.
	SmoothIterations int // smooth_iterations, >= 0

	// Road carving; ignored when the road set is empty.
	RoadWidthM float64 // road_width_m, > 0 when roads are present
	RoadDepthM float64 // road_depth_m, > 0 when roads are present

	// Projection overrides the UTM projection chosen from the grid
	// centroid. Only tests use this, with geo.Identity.
	Projection geo.Projection
}

// spec converts the options to the mesher's physical spec.
func (o Options) spec() mesher.Spec {
	return mesher.Spec{
		WidthMM:  o.WidthMM,
		HeightMM: o.HeightMM,
		BaseMM:   o.BaseMM,
		VScale:   o.VScale,
	}
}

// Result is everything one pipeline invocation produced.
type Result struct {
	Mesh *mesher.Mesh
	// Grid is the final carved and conditioned elevation grid.
	Grid *dem.Grid
	// Mask is the road occupancy mask, nil when no roads were supplied.
	Mask *roads.Mask

	// VoidsFilled is how many NaN samples conditioning repaired.
	VoidsFilled int
	// RoadCells is how many grid cells the road carve touched.
	RoadCells int
}

// Run executes the full grid-to-solid pipeline. rs may be empty, in which
// case carving is skipped entirely; that is a normal condition. The input
// grid is read-only throughout.
func Run(g *dem.Grid, rs roads.RoadSet, opts Options) (*Result, error) {
	if err := opts.spec().Validate(); err != nil {
		return nil, err
	}

	res := &Result{VoidsFilled: g.VoidCount()}
	working := g

	if !rs.IsEmpty() {
		proj := opts.Projection
		if proj == nil {
			lon, lat := g.Bounds().Center()
			p, err := geo.NewUTM(lon, lat)
			if err != nil {
				return nil, fmt.Errorf("pipeline: select projection: %w", err)
			}
			proj = p
		}

		mask, err := roads.Rasterize(rs, g.Rows, g.Cols, g.Transform, opts.RoadWidthM, proj)
		if err != nil {
			return nil, fmt.Errorf("pipeline: rasterize roads: %w", err)
		}
		carved, err := roads.Carve(working, mask, opts.RoadDepthM)
		if err != nil {
			return nil, fmt.Errorf("pipeline: carve roads: %w", err)
		}
		res.Mask = mask
		res.RoadCells = mask.Count()
		working = carved
	}

	conditioned, err := dem.Condition(working, opts.SmoothIterations)
	if err != nil {
		return nil, fmt.Errorf("pipeline: condition grid: %w", err)
	}
	res.Grid = conditioned

	mesh, err := mesher.Build(conditioned, opts.spec())
	if err != nil {
		return nil, fmt.Errorf("pipeline: build mesh: %w", err)
	}
	res.Mesh = mesh

	return res, nil
}
