package roads

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/chazu/topocut/pkg/dem"
	"github.com/chazu/topocut/pkg/geo"
)

// ErrBadShape is returned when a mask or grid shape is unusable.
var ErrBadShape = errors.New("roads: bad shape")

// Mask is a boolean occupancy grid congruent with an elevation grid.
// A cell is true when a buffered road polygon covers its footprint.
type Mask struct {
	Rows, Cols int
	Cells      []bool // row-major, len == Rows*Cols
}

// NewMask allocates an all-false mask.
func NewMask(rows, cols int) (*Mask, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadShape, rows, cols)
	}
	return &Mask{Rows: rows, Cols: cols, Cells: make([]bool, rows*cols)}, nil
}

// At reports the occupancy of (row, col).
func (m *Mask) At(row, col int) bool { return m.Cells[row*m.Cols+col] }

// Count returns the number of occupied cells.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Cells {
		if b {
			n++
		}
	}
	return n
}

// Rasterize converts a RoadSet into an occupancy mask for a rows×cols grid
// with the given geotransform. Each polyline is buffered by widthM/2 of
// true ground distance: its vertices are projected through p into planar
// meters, each segment is expanded into a square-capped rectangle, and the
// rectangle corners are unprojected back into the grid's geographic frame
// before cell-center containment testing.
//
// An empty RoadSet yields an all-false mask. The same inputs always yield
// a bit-identical mask.
func Rasterize(rs RoadSet, rows, cols int, tr dem.GeoTransform, widthM float64, p geo.Projection) (*Mask, error) {
	mask, err := NewMask(rows, cols)
	if err != nil {
		return nil, err
	}
	if rs.IsEmpty() {
		return mask, nil
	}
	if widthM <= 0 {
		return nil, fmt.Errorf("roads: road width must be positive, got %g", widthM)
	}
	if p == nil {
		return nil, errors.New("roads: nil projection")
	}

	half := widthM / 2
	for _, pl := range rs.Lines {
		if err := rasterizeLine(mask, pl.Line, tr, half, p); err != nil {
			return nil, err
		}
	}
	return mask, nil
}

// rasterizeLine stamps one buffered polyline into the mask.
func rasterizeLine(mask *Mask, ls orb.LineString, tr dem.GeoTransform, half float64, p geo.Projection) error {
	// Project the whole line into planar meters once.
	px := make([]float64, len(ls))
	py := make([]float64, len(ls))
	for i, pt := range ls {
		x, y, err := p.Forward(pt[0], pt[1])
		if err != nil {
			return fmt.Errorf("roads: project (%g, %g): %w", pt[0], pt[1], err)
		}
		px[i] = x
		py[i] = y
	}

	for i := 0; i+1 < len(ls); i++ {
		ring, ok, err := bufferSegment(px[i], py[i], px[i+1], py[i+1], half, p)
		if err != nil {
			return err
		}
		if !ok {
			continue // zero-length segment
		}
		stampRing(mask, ring, tr)
	}
	return nil
}

// bufferSegment expands one planar segment into a square-capped rectangle
// of half-width half meters and returns it as a closed geographic ring.
// ok is false for zero-length segments.
func bufferSegment(x1, y1, x2, y2, half float64, p geo.Projection) (orb.Ring, bool, error) {
	dx := x2 - x1
	dy := y2 - y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil, false, nil
	}

	// Unit direction and left normal, scaled to the buffer radius.
	ux, uy := dx/length*half, dy/length*half
	nx, ny := -uy, ux

	// Square caps: extend the rectangle past both endpoints by the radius.
	corners := [4][2]float64{
		{x1 - ux + nx, y1 - uy + ny},
		{x2 + ux + nx, y2 + uy + ny},
		{x2 + ux - nx, y2 + uy - ny},
		{x1 - ux - nx, y1 - uy - ny},
	}

	ring := make(orb.Ring, 0, 5)
	for _, c := range corners {
		lon, lat, err := p.Inverse(c[0], c[1])
		if err != nil {
			return nil, false, fmt.Errorf("roads: unproject (%g, %g): %w", c[0], c[1], err)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	ring = append(ring, ring[0]) // close
	return ring, true, nil
}

// stampRing marks every cell whose center lies inside the ring. Only the
// cells under the ring's bounding box are visited.
func stampRing(mask *Mask, ring orb.Ring, tr dem.GeoTransform) {
	bound := ring.Bound()

	// Bounding rows/cols; PixelH is negative, so the north edge maps to
	// the smaller row index.
	rTop, cLeft := tr.Cell(bound.Min[0], bound.Max[1])
	rBot, cRight := tr.Cell(bound.Max[0], bound.Min[1])
	if rTop > rBot {
		rTop, rBot = rBot, rTop
	}
	if cLeft > cRight {
		cLeft, cRight = cRight, cLeft
	}
	rTop = clampInt(rTop, 0, mask.Rows-1)
	rBot = clampInt(rBot, 0, mask.Rows-1)
	cLeft = clampInt(cLeft, 0, mask.Cols-1)
	cRight = clampInt(cRight, 0, mask.Cols-1)

	for r := rTop; r <= rBot; r++ {
		for c := cLeft; c <= cRight; c++ {
			if mask.Cells[r*mask.Cols+c] {
				continue
			}
			x, y := tr.CellCenter(r, c)
			if planar.RingContains(ring, orb.Point{x, y}) {
				mask.Cells[r*mask.Cols+c] = true
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
