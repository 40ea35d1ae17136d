package mesher_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/topocut/pkg/dem"
	"github.com/chazu/topocut/pkg/mesher"
)

// makeGrid builds a grid from row-major sample rows.
func makeGrid(t *testing.T, rows [][]float64) *dem.Grid {
	t.Helper()
	g, err := dem.NewGrid(len(rows), len(rows[0]), dem.GeoTransform{
		OriginX: 0, OriginY: float64(len(rows)), PixelW: 1, PixelH: -1,
	}, "EPSG:4326")
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

// defaultSpec is the footprint used across the mesher tests.
func defaultSpec() mesher.Spec {
	return mesher.Spec{WidthMM: 100, HeightMM: 100, BaseMM: 5, VScale: 1.0}
}

// checkManifold verifies closedness both with our own edge accounting and
// with model3d's repair check.
func checkManifold(t *testing.T, m *mesher.Mesh) {
	t.Helper()
	if !m.IsClosed() {
		t.Error("mesh is not closed: some edge is not shared by exactly two triangles")
	}

	m3 := model3d.NewMesh()
	for _, f := range m.Faces {
		tri := &model3d.Triangle{}
		for i, vi := range f {
			v := m.Vertices[vi]
			tri[i] = model3d.Coord3D{X: v.X, Y: v.Y, Z: v.Z}
		}
		m3.Add(tri)
	}
	if m3.NeedsRepair() {
		t.Error("model3d reports the mesh needs repair")
	}
}

func TestBuildPlateauScenario(t *testing.T) {
	g := makeGrid(t, [][]float64{
		{0, 0, 0, 0},
		{0, 10, 10, 0},
		{0, 10, 10, 0},
		{0, 0, 0, 0},
	})

	m, err := mesher.Build(g, defaultSpec())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// A 4x4 grid has 3x3 quads per horizontal surface and
	// 2*((4-1)+(4-1)) wall segments of two triangles each.
	wantTop := 2 * 3 * 3
	wantWalls := 2 * (3 + 3) * 2
	wantTotal := 2*wantTop + wantWalls
	if got := m.TriangleCount(); got != wantTotal {
		t.Errorf("triangle count = %d, want %d (top %d + bottom %d + walls %d)",
			got, wantTotal, wantTop, wantTop, wantWalls)
	}
	if got := m.VertexCount(); got != 32 {
		t.Errorf("vertex count = %d, want 32", got)
	}

	// Max relief is 30% of the footprint times the vertical scale, on
	// top of the base slab.
	_, max := m.BoundingBox()
	wantZ := 5 + 0.3*100*1.0
	if math.Abs(max.Z-wantZ) > 1e-9 {
		t.Errorf("max vertex z = %g, want %g", max.Z, wantZ)
	}

	checkManifold(t, m)
	if vol := m.SignedVolume(); vol <= 0 {
		t.Errorf("signed volume = %g, want positive", vol)
	}
}

func TestBuildFlatInput(t *testing.T) {
	g := makeGrid(t, [][]float64{
		{7, 7, 7},
		{7, 7, 7},
		{7, 7, 7},
	})

	spec := defaultSpec()
	m, err := mesher.Build(g, spec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Constant elevation degrades to zero relief: the top surface is a
	// plane at base thickness.
	min, max := m.BoundingBox()
	if min.Z != 0 {
		t.Errorf("min z = %g, want 0", min.Z)
	}
	if max.Z != spec.BaseMM {
		t.Errorf("max z = %g, want base thickness %g", max.Z, spec.BaseMM)
	}

	checkManifold(t, m)

	// The solid is a plain slab; its volume is footprint times base.
	wantVol := spec.WidthMM * spec.HeightMM * spec.BaseMM
	if vol := m.SignedVolume(); math.Abs(vol-wantVol) > 1e-6*wantVol {
		t.Errorf("volume = %g, want %g", vol, wantVol)
	}
}

func TestBuildOrientation(t *testing.T) {
	g := makeGrid(t, [][]float64{
		{0, 1},
		{2, 3},
	})
	m, err := mesher.Build(g, defaultSpec())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Row 0 maps to the far edge: the grid point (0,0) lands at
	// y = HeightMM, column growth follows x.
	found := false
	for _, v := range m.Vertices {
		if v.X == 0 && v.Y == 100 && v.Z > 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected a top vertex at (0, 100), row 0 should map to the far edge")
	}

	checkManifold(t, m)
	if vol := m.SignedVolume(); vol <= 0 {
		t.Errorf("signed volume = %g, want positive", vol)
	}
}

func TestBuildClosedAcrossShapes(t *testing.T) {
	shapes := [][2]int{{2, 2}, {2, 5}, {5, 2}, {7, 3}, {6, 6}}
	for _, shape := range shapes {
		rows := make([][]float64, shape[0])
		for r := range rows {
			rows[r] = make([]float64, shape[1])
			for c := range rows[r] {
				rows[r][c] = math.Sin(float64(r)) * math.Cos(float64(c)) * 50
			}
		}
		g := makeGrid(t, rows)

		m, err := mesher.Build(g, defaultSpec())
		if err != nil {
			t.Fatalf("Build %dx%d failed: %v", shape[0], shape[1], err)
		}
		if !m.IsClosed() {
			t.Errorf("%dx%d mesh is not closed", shape[0], shape[1])
		}
		if vol := m.SignedVolume(); vol <= 0 {
			t.Errorf("%dx%d signed volume = %g, want positive", shape[0], shape[1], vol)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	g := makeGrid(t, [][]float64{
		{0, 5, 2},
		{3, 9, 1},
		{4, 2, 8},
	})

	a, err := mesher.Build(g, defaultSpec())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	b, err := mesher.Build(g, defaultSpec())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if diff := cmp.Diff(a.Vertices, b.Vertices); diff != "" {
		t.Errorf("vertex buffers differ between runs:\n%s", diff)
	}
	if diff := cmp.Diff(a.Faces, b.Faces); diff != "" {
		t.Errorf("face buffers differ between runs:\n%s", diff)
	}
}

func TestBuildRejectsSmallGrids(t *testing.T) {
	for _, shape := range [][2]int{{1, 5}, {5, 1}, {1, 1}} {
		rows := make([][]float64, shape[0])
		for r := range rows {
			rows[r] = make([]float64, shape[1])
		}
		g := makeGrid(t, rows)

		_, err := mesher.Build(g, defaultSpec())
		if !errors.Is(err, mesher.ErrGridTooSmall) {
			t.Errorf("Build %dx%d: err = %v, want ErrGridTooSmall", shape[0], shape[1], err)
		}
	}
}

func TestBuildRejectsNonFinite(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		g := makeGrid(t, [][]float64{
			{0, 1},
			{2, 3},
		})
		g.Set(1, 1, bad)

		_, err := mesher.Build(g, defaultSpec())
		if !errors.Is(err, mesher.ErrNonFinite) {
			t.Errorf("Build with sample %v: err = %v, want ErrNonFinite", bad, err)
		}
	}
}

func TestBuildRejectsBadSpec(t *testing.T) {
	g := makeGrid(t, [][]float64{
		{0, 1},
		{2, 3},
	})
	bad := []mesher.Spec{
		{WidthMM: 0, HeightMM: 100, BaseMM: 5, VScale: 1},
		{WidthMM: 100, HeightMM: -1, BaseMM: 5, VScale: 1},
		{WidthMM: 100, HeightMM: 100, BaseMM: -1, VScale: 1},
		{WidthMM: 100, HeightMM: 100, BaseMM: 5, VScale: 0},
	}
	for _, spec := range bad {
		if _, err := mesher.Build(g, spec); err == nil {
			t.Errorf("Build with spec %+v: expected error", spec)
		}
	}
}

func TestVerticalExaggeration(t *testing.T) {
	g := makeGrid(t, [][]float64{
		{0, 0},
		{100, 100},
	})

	spec := mesher.Spec{WidthMM: 100, HeightMM: 200, BaseMM: 0, VScale: 2.0}
	m, err := mesher.Build(g, spec)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Relief cap uses the smaller footprint dimension: 0.3*100*2.
	_, max := m.BoundingBox()
	if want := 60.0; math.Abs(max.Z-want) > 1e-9 {
		t.Errorf("max z = %g, want %g", max.Z, want)
	}
}
