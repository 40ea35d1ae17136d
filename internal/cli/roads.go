package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/topocut/pkg/dem"
	"github.com/chazu/topocut/pkg/export"
	"github.com/chazu/topocut/pkg/geo"
	"github.com/chazu/topocut/pkg/roads"
)

// newRoadsCmd groups the road data subcommands.
func newRoadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roads",
		Short: "Fetch road data and export road sketches",
	}
	cmd.AddCommand(newRoadsFetchCmd())
	cmd.AddCommand(newRoadsDXFCmd())
	return cmd
}

// parseBBox parses "west,south,east,north" in degrees.
func parseBBox(s string) (geo.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.Bounds{}, fmt.Errorf("bbox must be west,south,east,north, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.Bounds{}, fmt.Errorf("bbox component %q: %w", p, err)
		}
		vals[i] = v
	}
	b := geo.Bounds{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	return b, b.Validate()
}

// parseLatLon parses "lat,lon" in degrees.
func parseLatLon(s string) (lat, lon float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("center must be lat,lon, got %q", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("center latitude %q: %w", parts[0], err)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("center longitude %q: %w", parts[1], err)
	}
	return lat, lon, nil
}

// resolveBounds picks the query area: an explicit bbox wins, then a
// square around a center point, then the bounds of a DEM file.
func resolveBounds(bbox, center string, sideKM float64, demPath string) (geo.Bounds, error) {
	if bbox != "" {
		return parseBBox(bbox)
	}
	if center != "" {
		if sideKM <= 0 {
			return geo.Bounds{}, fmt.Errorf("--center requires a positive --km, got %g", sideKM)
		}
		lat, lon, err := parseLatLon(center)
		if err != nil {
			return geo.Bounds{}, err
		}
		b := geo.BoundsAround(lat, lon, sideKM)
		return b, b.Validate()
	}
	if demPath != "" {
		grid, err := dem.ReadASCFile(demPath)
		if err != nil {
			return geo.Bounds{}, err
		}
		return grid.Bounds(), nil
	}
	return geo.Bounds{}, fmt.Errorf("one of --bbox, --center or --dem is required")
}

// newRoadsFetchCmd creates the command downloading roads as GeoJSON.
func newRoadsFetchCmd() *cobra.Command {
	var (
		bbox    string
		center  string
		sideKM  float64
		demPath string
		output  string
		classes string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download road polylines from the Overpass API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			bounds, err := resolveBounds(bbox, center, sideKM, demPath)
			if err != nil {
				return err
			}

			class := roads.ClassMajor
			if classes == string(roads.ClassAll) {
				class = roads.ClassAll
			}

			logger.Info("querying Overpass", "class", string(class),
				"bounds", fmt.Sprintf("S:%.4f W:%.4f N:%.4f E:%.4f", bounds.South, bounds.West, bounds.North, bounds.East))
			rs, err := roads.NewOverpassClient().Fetch(cmd.Context(), bounds, class)
			if err != nil {
				return err
			}
			if rs.IsEmpty() {
				logger.Info("no roads found in this area")
			}

			data, err := rs.ToGeoJSON()
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			logger.Info("roads written", "path", output, "segments", rs.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&bbox, "bbox", "", "query area as west,south,east,north degrees")
	cmd.Flags().StringVar(&center, "center", "", "query area center as lat,lon degrees (with --km)")
	cmd.Flags().Float64Var(&sideKM, "km", 10, "square side length in km around --center")
	cmd.Flags().StringVar(&demPath, "dem", "", "DEM file to take the query area from")
	cmd.Flags().StringVarP(&output, "output", "o", "roads.geojson", "output GeoJSON file")
	cmd.Flags().StringVar(&classes, "classes", string(roads.ClassMajor), `road classes: "major" or "all"`)

	return cmd
}

// newRoadsDXFCmd creates the command exporting roads as a DXF sketch
// scaled to the model footprint, for CAM toolpath tracing on top of the
// carved terrain.
func newRoadsDXFCmd() *cobra.Command {
	var (
		demPath   string
		roadsPath string
		output    string
		widthMM   float64
		heightMM  float64
	)

	cmd := &cobra.Command{
		Use:   "dxf",
		Short: "Export roads as a DXF sketch in model millimeters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			grid, err := dem.ReadASCFile(demPath)
			if err != nil {
				return err
			}
			rs, err := roads.LoadGeoJSON(roadsPath)
			if err != nil {
				return err
			}
			if rs.IsEmpty() {
				return fmt.Errorf("no road polylines in %s", roadsPath)
			}

			if err := export.SaveRoadDXF(output, rs, grid.Bounds(), widthMM, heightMM); err != nil {
				return err
			}
			logger.Info("DXF written", "path", output, "segments", rs.Len(),
				"size", fmt.Sprintf("%gmm x %gmm", widthMM, heightMM))
			return nil
		},
	}

	cmd.Flags().StringVar(&demPath, "dem", "", "DEM file providing the geographic bounds")
	cmd.Flags().StringVar(&roadsPath, "roads", "", "roads GeoJSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "roads.dxf", "output DXF file")
	cmd.Flags().Float64Var(&widthMM, "width", 100, "model width in mm")
	cmd.Flags().Float64Var(&heightMM, "height", 100, "model height in mm")
	cmd.MarkFlagRequired("dem")
	cmd.MarkFlagRequired("roads")

	return cmd
}
