package mesher

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/chazu/topocut/pkg/dem"
)

// reliefFraction caps the physical relief at 30% of the smaller footprint
// dimension so the model stays plausible regardless of real-world range.
const reliefFraction = 0.3

// Spec is the physical target for the solid: footprint, base slab
// thickness, and vertical exaggeration. All lengths are millimeters.
type Spec struct {
	WidthMM  float64 // footprint along grid columns, > 0
	HeightMM float64 // footprint along grid rows, > 0
	BaseMM   float64 // base slab thickness, >= 0
	VScale   float64 // vertical exaggeration multiplier, > 0
}

// Validate checks the physical parameter ranges.
func (s Spec) Validate() error {
	if s.WidthMM <= 0 || s.HeightMM <= 0 {
		return fmt.Errorf("mesher: footprint must be positive, got %gx%g mm", s.WidthMM, s.HeightMM)
	}
	if s.BaseMM < 0 {
		return fmt.Errorf("mesher: base thickness must be non-negative, got %g mm", s.BaseMM)
	}
	if s.VScale <= 0 {
		return fmt.Errorf("mesher: vertical scale must be positive, got %g", s.VScale)
	}
	return nil
}

// MaxRelief returns the tallest possible relief above the base in mm.
func (s Spec) MaxRelief() float64 {
	return reliefFraction * math.Min(s.WidthMM, s.HeightMM) * s.VScale
}

// boundaryWalk describes one side wall as a walk along the top perimeter
// in counterclockwise order seen from above, so the solid interior is
// always on the walker's left and the generated wall faces outward.
type boundaryWalk struct {
	row, col   int // starting grid point
	drow, dcol int // step per vertex
	steps      int // number of vertices on this edge
}

// Build converts an elevation grid into a closed solid mesh. The grid
// must be fully conditioned: at least 2×2 and free of NaN/Inf samples.
//
// Perfectly flat terrain is not an error; the relief collapses to zero
// and the result is a plain slab of the base thickness.
func Build(g *dem.Grid, spec Spec) (*Mesh, error) {
	if g == nil || g.Rows < 2 || g.Cols < 2 {
		return nil, ErrGridTooSmall
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if g.HasNonFinite() {
		return nil, ErrNonFinite
	}

	rows, cols := g.Rows, g.Cols

	// Normalize samples to [0,1]. Flat terrain degrades to zero relief
	// instead of dividing by zero.
	min := floats.Min(g.Data)
	max := floats.Max(g.Data)
	elevRange := max - min
	invRange := 0.0
	if elevRange > 0 {
		invRange = 1 / elevRange
	}

	relief := spec.MaxRelief()

	// Top vertices laid out row-major over the footprint. Row 0 maps to
	// the far edge (y = HeightMM) so north stays up, matching map
	// orientation.
	stepX := spec.WidthMM / float64(cols-1)
	stepY := spec.HeightMM / float64(rows-1)

	numTop := rows * cols
	vertices := make([]Vec3, 2*numTop)
	for r := 0; r < rows; r++ {
		y := spec.HeightMM - float64(r)*stepY
		for c := 0; c < cols; c++ {
			normalized := (g.At(r, c) - min) * invRange
			top := Vec3{
				X: float64(c) * stepX,
				Y: y,
				Z: normalized*relief + spec.BaseMM,
			}
			vertices[r*cols+c] = top
			bottom := top
			bottom.Z = 0
			vertices[numTop+r*cols+c] = bottom
		}
	}

	numQuads := (rows - 1) * (cols - 1)
	numWall := 2 * ((rows - 1) + (cols - 1)) * 2
	faces := make([][3]int, 0, 4*numQuads+numWall)

	// Top surface: fixed diagonal split b-c, counterclockwise from above.
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			a := r*cols + c
			b := r*cols + c + 1
			cc := (r+1)*cols + c
			d := (r+1)*cols + c + 1
			faces = append(faces, [3]int{a, cc, b}, [3]int{b, cc, d})
		}
	}

	// Bottom surface: same footprint at z=0 with mirrored winding so it
	// faces downward.
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			a := numTop + r*cols + c
			b := numTop + r*cols + c + 1
			cc := numTop + (r+1)*cols + c
			d := numTop + (r+1)*cols + c + 1
			faces = append(faces, [3]int{a, b, cc}, [3]int{b, d, cc})
		}
	}

	// Side walls: one edge-walk routine driven by the four boundary
	// descriptors. Walking the perimeter counterclockwise keeps every
	// wall facing outward with a single winding rule.
	walks := []boundaryWalk{
		{row: rows - 1, col: 0, drow: 0, dcol: 1, steps: cols},  // south
		{row: rows - 1, col: cols - 1, drow: -1, steps: rows},   // east
		{row: 0, col: cols - 1, dcol: -1, steps: cols},          // north
		{row: 0, col: 0, drow: 1, steps: rows},                  // west
	}
	for _, w := range walks {
		faces = appendWall(faces, w, cols, numTop)
	}

	m := &Mesh{Vertices: vertices, Faces: faces}
	if err := m.Repair(); err != nil {
		return nil, err
	}
	return m, nil
}

// appendWall emits the ruled triangle strip for one boundary walk. For
// consecutive top vertices t0,t1 with bottoms b0,b1 the quad splits into
// (t0,b0,b1) and (t0,b1,t1), both outward-facing when the walk keeps the
// interior to its left.
func appendWall(faces [][3]int, w boundaryWalk, cols, numTop int) [][3]int {
	r, c := w.row, w.col
	for s := 0; s+1 < w.steps; s++ {
		t0 := r*cols + c
		t1 := (r+w.drow)*cols + (c + w.dcol)
		b0 := t0 + numTop
		b1 := t1 + numTop
		faces = append(faces, [3]int{t0, b0, b1}, [3]int{t0, b1, t1})
		r += w.drow
		c += w.dcol
	}
	return faces
}
