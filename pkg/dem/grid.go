// Package dem defines the elevation grid that flows through the carving
// pipeline, along with void filling, smoothing, and the ESRI ASCII grid
// interchange format.
//
// A grid is a dense row-major array of float64 height samples in meters.
// NaN marks a void sample (sensor gap). Every pipeline stage preserves
// the grid shape; Condition is the stage that removes voids.
package dem

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/topocut/pkg/geo"
)

var (
	// ErrEmptyGrid is returned for grids with zero rows or columns.
	ErrEmptyGrid = errors.New("dem: empty grid")
	// ErrAllVoid is returned when a grid has no valid sample to fill from.
	ErrAllVoid = errors.New("dem: grid contains no valid samples")
)

// GeoTransform is the affine mapping from array indices to geographic
// coordinates, in the north-up raster convention: the origin is the outer
// corner of cell (0,0) and PixelH is negative.
type GeoTransform struct {
	OriginX float64 // west edge of column 0
	OriginY float64 // north edge of row 0
	PixelW  float64 // degrees (or meters) per column, positive
	PixelH  float64 // degrees (or meters) per row, negative for north-up
}

// CellCenter returns the geographic coordinate of a cell midpoint.
func (t GeoTransform) CellCenter(row, col int) (x, y float64) {
	x = t.OriginX + (float64(col)+0.5)*t.PixelW
	y = t.OriginY + (float64(row)+0.5)*t.PixelH
	return x, y
}

// Cell returns the row/column whose footprint contains the coordinate.
// The result may be out of range for the grid; callers bound-check.
func (t GeoTransform) Cell(x, y float64) (row, col int) {
	col = int(math.Floor((x - t.OriginX) / t.PixelW))
	row = int(math.Floor((y - t.OriginY) / t.PixelH))
	return row, col
}

// Bounds returns the geographic bounding box of an R×C grid.
func (t GeoTransform) Bounds(rows, cols int) geo.Bounds {
	return geo.Bounds{
		West:  t.OriginX,
		North: t.OriginY,
		East:  t.OriginX + float64(cols)*t.PixelW,
		South: t.OriginY + float64(rows)*t.PixelH,
	}
}

// Grid is a rectangular elevation raster with its georeferencing.
type Grid struct {
	Rows, Cols int
	Data       []float64 // row-major, len == Rows*Cols
	Transform  GeoTransform
	CRS        string // e.g. "EPSG:4326"
}

// NewGrid allocates an all-zero grid of the given shape.
func NewGrid(rows, cols int, tr GeoTransform, crs string) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyGrid, rows, cols)
	}
	return &Grid{
		Rows:      rows,
		Cols:      cols,
		Data:      make([]float64, rows*cols),
		Transform: tr,
		CRS:       crs,
	}, nil
}

// At returns the sample at (row, col). No bound check; callers iterate
// within the grid shape.
func (g *Grid) At(row, col int) float64 { return g.Data[row*g.Cols+col] }

// Set stores a sample at (row, col).
func (g *Grid) Set(row, col int, v float64) { g.Data[row*g.Cols+col] = v }

// Clone returns a deep copy. Pipeline stages that rewrite samples clone
// first so the caller's grid is never aliased.
func (g *Grid) Clone() *Grid {
	out := *g
	out.Data = make([]float64, len(g.Data))
	copy(out.Data, g.Data)
	return &out
}

// MinMax returns the smallest and largest valid (non-NaN) samples.
// ok is false when every sample is void.
func (g *Grid) MinMax() (min, max float64, ok bool) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, v := range g.Data {
		if math.IsNaN(v) {
			continue
		}
		ok = true
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, ok
}

// VoidCount returns the number of NaN samples.
func (g *Grid) VoidCount() int {
	n := 0
	for _, v := range g.Data {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// HasNonFinite reports whether any sample is NaN or infinite.
func (g *Grid) HasNonFinite() bool {
	for _, v := range g.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// Bounds returns the geographic bounding box covered by the grid.
func (g *Grid) Bounds() geo.Bounds { return g.Transform.Bounds(g.Rows, g.Cols) }

// validateShape rejects zero-sized or malformed grids.
func (g *Grid) validateShape() error {
	if g == nil || g.Rows <= 0 || g.Cols <= 0 {
		return ErrEmptyGrid
	}
	if len(g.Data) != g.Rows*g.Cols {
		return fmt.Errorf("dem: data length %d does not match shape %dx%d",
			len(g.Data), g.Rows, g.Cols)
	}
	return nil
}
