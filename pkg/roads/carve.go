package roads

import (
	"fmt"

	"github.com/chazu/topocut/pkg/dem"
)

// Carve returns a new elevation grid where every mask-occupied cell is
// lowered by depthM meters. Unoccupied cells are copied unchanged and the
// input grid is never modified.
//
// The subtraction is deliberately unclamped: a carved cell may end up
// below the true minimum of the surrounding terrain, which guarantees the
// groove survives later smoothing.
func Carve(g *dem.Grid, mask *Mask, depthM float64) (*dem.Grid, error) {
	if g == nil || mask == nil {
		return nil, fmt.Errorf("%w: nil grid or mask", ErrBadShape)
	}
	if g.Rows != mask.Rows || g.Cols != mask.Cols {
		return nil, fmt.Errorf("%w: grid %dx%d vs mask %dx%d",
			ErrBadShape, g.Rows, g.Cols, mask.Rows, mask.Cols)
	}
	if depthM <= 0 {
		return nil, fmt.Errorf("roads: carve depth must be positive, got %g", depthM)
	}

	out := g.Clone()
	for i, occupied := range mask.Cells {
		if occupied {
			out.Data[i] -= depthM
		}
	}
	return out, nil
}
