// Package roads turns geographic road polylines into terrain grooves: it
// rasterizes buffered polylines into an occupancy mask aligned with the
// elevation grid, and carves a fixed depth wherever the mask is set.
//
// Road geometry comes from a local GeoJSON file or from the Overpass API,
// always as WGS84 lon/lat polylines with at least two vertices.
package roads

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Class selects which highway classes a road source should yield.
type Class string

const (
	// ClassMajor matches motorways through tertiary roads.
	ClassMajor Class = "major"
	// ClassAll additionally matches residential and unclassified roads.
	ClassAll Class = "all"
)

// highwayFilter returns the Overpass regexp for the class.
func (c Class) highwayFilter() string {
	if c == ClassAll {
		return "motorway|trunk|primary|secondary|tertiary|residential|unclassified"
	}
	return "motorway|trunk|primary|secondary|tertiary"
}

// Polyline is one road segment in WGS84 lon/lat coordinates.
type Polyline struct {
	Line orb.LineString
	// Highway is the OSM highway class tag. Informational only; the
	// rasterizer does not consult it.
	Highway string
}

// RoadSet is an ordered collection of road polylines. The zero value is
// an empty set, which is a normal condition (area with no mapped roads).
type RoadSet struct {
	Lines []Polyline
}

// Len returns the number of polylines.
func (rs RoadSet) Len() int { return len(rs.Lines) }

// IsEmpty reports whether the set holds no polylines.
func (rs RoadSet) IsEmpty() bool { return len(rs.Lines) == 0 }

// append adds a line if it has at least two vertices. Degenerate
// single-point geometries are dropped at the source, never passed on.
func (rs *RoadSet) append(ls orb.LineString, highway string) {
	if len(ls) < 2 {
		return
	}
	rs.Lines = append(rs.Lines, Polyline{Line: ls, Highway: highway})
}

// FromGeoJSON decodes a GeoJSON feature collection into a RoadSet.
// LineString and MultiLineString features are accepted; other geometry
// types and degenerate lines are skipped.
func FromGeoJSON(data []byte) (RoadSet, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return RoadSet{}, fmt.Errorf("roads: decode geojson: %w", err)
	}

	var rs RoadSet
	for _, f := range fc.Features {
		highway := ""
		if v, ok := f.Properties["highway"].(string); ok {
			highway = v
		}
		switch g := f.Geometry.(type) {
		case orb.LineString:
			rs.append(g, highway)
		case orb.MultiLineString:
			for _, ls := range g {
				rs.append(ls, highway)
			}
		}
	}
	return rs, nil
}

// LoadGeoJSON reads a RoadSet from a GeoJSON file on disk.
func LoadGeoJSON(path string) (RoadSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RoadSet{}, fmt.Errorf("roads: read %s: %w", path, err)
	}
	return FromGeoJSON(data)
}

// ToGeoJSON encodes the RoadSet as a GeoJSON feature collection, the
// format the rest of the toolchain (and the DXF exporter) reads back.
func (rs RoadSet) ToGeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, pl := range rs.Lines {
		f := geojson.NewFeature(pl.Line)
		if pl.Highway != "" {
			f.Properties["highway"] = pl.Highway
		}
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("roads: encode geojson: %w", err)
	}
	return data, nil
}
