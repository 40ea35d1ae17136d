package dem

import (
	"math"
)

// Condition repairs void samples and applies smoothIterations passes of
// unit-sigma Gaussian smoothing, returning a new grid. The input grid is
// never modified. Zero iterations with no voids returns an identical copy.
//
// Voids are a recoverable data-quality condition; a malformed grid shape
// or a grid with no valid sample at all is an error.
func Condition(g *Grid, smoothIterations int) (*Grid, error) {
	if err := g.validateShape(); err != nil {
		return nil, err
	}
	if smoothIterations < 0 {
		smoothIterations = 0
	}

	out := g.Clone()
	if out.VoidCount() > 0 {
		if err := fillVoids(out); err != nil {
			return nil, err
		}
	}
	for i := 0; i < smoothIterations; i++ {
		gaussianBlur(out)
	}
	return out, nil
}

// chamfer weights approximating Euclidean distance on the 8-neighborhood.
const (
	chamferStraight = 1.0
	chamferDiagonal = math.Sqrt2
)

// fillVoids assigns each NaN cell the value of its geometrically nearest
// valid cell using a two-pass chamfer distance transform that carries the
// index of the nearest seed. The two raster scans are deterministic, so
// equidistant ties always resolve the same way.
func fillVoids(g *Grid) error {
	rows, cols := g.Rows, g.Cols
	n := rows * cols

	dist := make([]float64, n)
	src := make([]int, n)
	anyValid := false
	for i, v := range g.Data {
		if math.IsNaN(v) {
			dist[i] = math.Inf(1)
			src[i] = -1
		} else {
			dist[i] = 0
			src[i] = i
			anyValid = true
		}
	}
	if !anyValid {
		return ErrAllVoid
	}

	relax := func(i, j int, w float64) {
		if src[j] >= 0 && dist[j]+w < dist[i] {
			dist[i] = dist[j] + w
			src[i] = src[j]
		}
	}

	// Forward scan: top-left neighbors.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if c > 0 {
				relax(i, i-1, chamferStraight)
			}
			if r > 0 {
				relax(i, i-cols, chamferStraight)
				if c > 0 {
					relax(i, i-cols-1, chamferDiagonal)
				}
				if c < cols-1 {
					relax(i, i-cols+1, chamferDiagonal)
				}
			}
		}
	}
	// Backward scan: bottom-right neighbors.
	for r := rows - 1; r >= 0; r-- {
		for c := cols - 1; c >= 0; c-- {
			i := r*cols + c
			if c < cols-1 {
				relax(i, i+1, chamferStraight)
			}
			if r < rows-1 {
				relax(i, i+cols, chamferStraight)
				if c < cols-1 {
					relax(i, i+cols+1, chamferDiagonal)
				}
				if c > 0 {
					relax(i, i+cols-1, chamferDiagonal)
				}
			}
		}
	}

	for i := range g.Data {
		g.Data[i] = g.Data[src[i]]
	}
	return nil
}

// gaussianKernel is the normalized 5-tap approximation of a unit standard
// deviation Gaussian, applied separably along rows then columns.
var gaussianKernel = func() [5]float64 {
	var k [5]float64
	sum := 0.0
	for i := -2; i <= 2; i++ {
		w := math.Exp(-float64(i*i) / 2)
		k[i+2] = w
		sum += w
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}()

// gaussianBlur runs one separable blur pass in place. Samples beyond the
// grid edge are clamped to the nearest edge sample, which keeps the kernel
// weight sum at one everywhere.
func gaussianBlur(g *Grid) {
	rows, cols := g.Rows, g.Cols
	tmp := make([]float64, len(g.Data))

	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}

	// Horizontal pass into tmp.
	for r := 0; r < rows; r++ {
		base := r * cols
		for c := 0; c < cols; c++ {
			acc := 0.0
			for k := -2; k <= 2; k++ {
				acc += gaussianKernel[k+2] * g.Data[base+clamp(c+k, 0, cols-1)]
			}
			tmp[base+c] = acc
		}
	}
	// Vertical pass back into the grid.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			acc := 0.0
			for k := -2; k <= 2; k++ {
				acc += gaussianKernel[k+2] * tmp[clamp(r+k, 0, rows-1)*cols+c]
			}
			g.Data[r*cols+c] = acc
		}
	}
}
