package dem

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// defaultNoData is the conventional ESRI sentinel for void cells.
const defaultNoData = -9999.0

// ReadASC parses an ESRI ASCII grid. Cells equal to the declared
// NODATA_value become NaN voids. The CRS of an .asc file is implicit; the
// result is tagged EPSG:4326, which is what every upstream DEM exporter
// in this toolchain writes.
func ReadASC(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)

	header := map[string]float64{}
	var values []float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		// Header lines are "key value" pairs with a non-numeric key.
		if len(fields) == 2 {
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				v, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("dem: bad header line %q: %w", line, err)
				}
				header[strings.ToLower(fields[0])] = v
				continue
			}
		}

		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("dem: bad sample %q: %w", f, err)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dem: read asc: %w", err)
	}

	cols := int(header["ncols"])
	rows := int(header["nrows"])
	cell, okCell := header["cellsize"]
	if rows <= 0 || cols <= 0 || !okCell || cell <= 0 {
		return nil, fmt.Errorf("dem: incomplete asc header (ncols=%d nrows=%d)", cols, rows)
	}
	if len(values) != rows*cols {
		return nil, fmt.Errorf("dem: asc has %d samples, want %d", len(values), rows*cols)
	}

	xll, okX := header["xllcorner"]
	yll, okY := header["yllcorner"]
	if !okX || !okY {
		// Center-registered variant.
		xc, okXC := header["xllcenter"]
		yc, okYC := header["yllcenter"]
		if !okXC || !okYC {
			return nil, fmt.Errorf("dem: asc header missing origin (xllcorner/yllcorner or xllcenter/yllcenter)")
		}
		xll = xc - cell/2
		yll = yc - cell/2
	}

	noData := defaultNoData
	if v, ok := header["nodata_value"]; ok {
		noData = v
	}
	for i, v := range values {
		if v == noData {
			values[i] = math.NaN()
		}
	}

	return &Grid{
		Rows: rows,
		Cols: cols,
		Data: values,
		Transform: GeoTransform{
			OriginX: xll,
			OriginY: yll + float64(rows)*cell,
			PixelW:  cell,
			PixelH:  -cell,
		},
		CRS: "EPSG:4326",
	}, nil
}

// ReadASCFile reads an ESRI ASCII grid from disk.
func ReadASCFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dem: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadASC(f)
}

// WriteASC writes the grid in ESRI ASCII format. NaN voids are written as
// the NODATA sentinel. Only square-pixel grids can be represented; a grid
// with anisotropic pixels is rejected.
func WriteASC(w io.Writer, g *Grid) error {
	if err := g.validateShape(); err != nil {
		return err
	}
	tr := g.Transform
	if math.Abs(tr.PixelW-(-tr.PixelH)) > 1e-12*math.Abs(tr.PixelW) {
		return fmt.Errorf("dem: asc requires square pixels, have %g x %g", tr.PixelW, tr.PixelH)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", g.Cols)
	fmt.Fprintf(bw, "nrows %d\n", g.Rows)
	fmt.Fprintf(bw, "xllcorner %g\n", tr.OriginX)
	fmt.Fprintf(bw, "yllcorner %g\n", tr.OriginY+float64(g.Rows)*tr.PixelH)
	fmt.Fprintf(bw, "cellsize %g\n", tr.PixelW)
	fmt.Fprintf(bw, "NODATA_value %g\n", defaultNoData)

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if c > 0 {
				bw.WriteByte(' ')
			}
			v := g.At(r, c)
			if math.IsNaN(v) {
				fmt.Fprintf(bw, "%g", defaultNoData)
			} else {
				fmt.Fprintf(bw, "%g", v)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
