package dem_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/topocut/pkg/dem"
)

// gridFrom builds a grid from literal rows.
func gridFrom(t *testing.T, rows [][]float64) *dem.Grid {
	t.Helper()
	g, err := dem.NewGrid(len(rows), len(rows[0]), testTransform(), "EPSG:4326")
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	for r, row := range rows {
		for c, v := range row {
			g.Set(r, c, v)
		}
	}
	return g
}

func TestConditionFillsVoids(t *testing.T) {
	nan := math.NaN()
	g := gridFrom(t, [][]float64{
		{1, 2, 3},
		{4, nan, 6},
		{7, 8, 9},
	})

	out, err := dem.Condition(g, 0)
	if err != nil {
		t.Fatalf("Condition failed: %v", err)
	}
	if out.VoidCount() != 0 {
		t.Fatalf("voids remain after conditioning: %d", out.VoidCount())
	}
	// All eight neighbors are equidistant in grid terms; the forward
	// chamfer scan visits the left neighbor first, so the tie resolves
	// to it every time.
	if got := out.At(1, 1); got != 4 {
		t.Errorf("filled center = %g, want 4 (left neighbor)", got)
	}

	// Input grid untouched.
	if !math.IsNaN(g.At(1, 1)) {
		t.Error("Condition mutated its input grid")
	}
}

func TestConditionFillsFromNearestNotFirst(t *testing.T) {
	nan := math.NaN()
	// The only valid sample near the right edge is 9; the far corner
	// must not leak across the grid when a closer seed exists.
	g := gridFrom(t, [][]float64{
		{1, nan, nan, nan},
		{nan, nan, nan, 9},
		{nan, nan, nan, nan},
	})

	out, err := dem.Condition(g, 0)
	if err != nil {
		t.Fatalf("Condition failed: %v", err)
	}
	if got := out.At(1, 2); got != 9 {
		t.Errorf("cell adjacent to 9 filled with %g, want 9", got)
	}
	if got := out.At(0, 0); got != 1 {
		t.Errorf("valid cell changed to %g, want 1", got)
	}
}

func TestConditionAllVoidFails(t *testing.T) {
	nan := math.NaN()
	g := gridFrom(t, [][]float64{
		{nan, nan},
		{nan, nan},
	})
	if _, err := dem.Condition(g, 0); !errors.Is(err, dem.ErrAllVoid) {
		t.Errorf("Condition on all-void grid: err = %v, want ErrAllVoid", err)
	}
}

func TestConditionZeroPassesIsIdentity(t *testing.T) {
	g := gridFrom(t, [][]float64{
		{3, 1, 4},
		{1, 5, 9},
		{2, 6, 5},
	})

	once, err := dem.Condition(g, 0)
	if err != nil {
		t.Fatalf("Condition failed: %v", err)
	}
	twice, err := dem.Condition(once, 0)
	if err != nil {
		t.Fatalf("Condition failed: %v", err)
	}

	if diff := cmp.Diff(g.Data, once.Data); diff != "" {
		t.Errorf("zero-pass conditioning changed void-free data:\n%s", diff)
	}
	if diff := cmp.Diff(once.Data, twice.Data); diff != "" {
		t.Errorf("conditioning is not idempotent at zero passes:\n%s", diff)
	}
}

func TestSmoothingPreservesConstants(t *testing.T) {
	g := gridFrom(t, [][]float64{
		{7, 7, 7, 7},
		{7, 7, 7, 7},
		{7, 7, 7, 7},
	})

	out, err := dem.Condition(g, 3)
	if err != nil {
		t.Fatalf("Condition failed: %v", err)
	}
	for i, v := range out.Data {
		if math.Abs(v-7) > 1e-12 {
			t.Fatalf("constant grid changed at %d: %g", i, v)
		}
	}
}

func TestSmoothingAttenuatesSpike(t *testing.T) {
	g := gridFrom(t, [][]float64{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 100, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})

	out, err := dem.Condition(g, 1)
	if err != nil {
		t.Fatalf("Condition failed: %v", err)
	}

	peak := out.At(2, 2)
	if peak >= 100 || peak <= 0 {
		t.Errorf("smoothed peak = %g, want in (0, 100)", peak)
	}
	if side := out.At(2, 1); side <= 0 || side >= peak {
		t.Errorf("spike neighbor = %g, want in (0, %g)", side, peak)
	}

	// More passes attenuate further.
	out2, err := dem.Condition(g, 3)
	if err != nil {
		t.Fatalf("Condition failed: %v", err)
	}
	if out2.At(2, 2) >= peak {
		t.Errorf("3-pass peak %g not below 1-pass peak %g", out2.At(2, 2), peak)
	}
}

func TestConditionRejectsMalformedGrid(t *testing.T) {
	g := gridFrom(t, [][]float64{{1, 2}, {3, 4}})
	g.Data = g.Data[:3] // shape no longer matches
	if _, err := dem.Condition(g, 0); err == nil {
		t.Error("Condition accepted a grid with mismatched data length")
	}

	if _, err := dem.Condition(nil, 0); !errors.Is(err, dem.ErrEmptyGrid) {
		t.Errorf("Condition(nil): err = %v, want ErrEmptyGrid", err)
	}
}
