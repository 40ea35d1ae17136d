// Package geo holds the small amount of geodesy the pipeline needs:
// geographic bounding boxes, UTM zone selection, and the planar
// projection interface used for true-distance road buffering.
package geo

import (
	"fmt"
	"math"
)

// Meters per degree at the equator. Longitude shrinks with cos(latitude);
// latitude is treated as constant, which is accurate to ~0.5% worldwide.
const (
	metersPerDegLat = 110574.0
	metersPerDegLon = 111320.0
)

// Bounds is a geographic bounding box in WGS84 degrees.
type Bounds struct {
	West  float64
	South float64
	East  float64
	North float64
}

// Center returns the centroid of the bounding box.
func (b Bounds) Center() (lon, lat float64) {
	return (b.West + b.East) / 2, (b.South + b.North) / 2
}

// Width returns the longitudinal extent in degrees.
func (b Bounds) Width() float64 { return b.East - b.West }

// Height returns the latitudinal extent in degrees.
func (b Bounds) Height() float64 { return b.North - b.South }

// Contains reports whether the point lies inside the box.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.West && lon <= b.East && lat >= b.South && lat <= b.North
}

// Validate checks that the box is non-empty and within the WGS84 domain.
func (b Bounds) Validate() error {
	if b.East <= b.West || b.North <= b.South {
		return fmt.Errorf("geo: empty bounds W:%g S:%g E:%g N:%g", b.West, b.South, b.East, b.North)
	}
	if b.West < -180 || b.East > 180 || b.South < -90 || b.North > 90 {
		return fmt.Errorf("geo: bounds outside WGS84 domain W:%g S:%g E:%g N:%g", b.West, b.South, b.East, b.North)
	}
	return nil
}

// BoundsAround returns a square bounding box of sideKM kilometers centered
// on the given point. The longitudinal span is widened by 1/cos(lat) so the
// box covers the same ground distance east-west as north-south.
func BoundsAround(lat, lon, sideKM float64) Bounds {
	half := sideKM / 2 * 1000
	latOff := half / metersPerDegLat
	lonOff := half / (metersPerDegLon * math.Cos(lat*math.Pi/180))
	return Bounds{
		West:  lon - lonOff,
		South: lat - latOff,
		East:  lon + lonOff,
		North: lat + latOff,
	}
}

// UTMZone returns the UTM longitudinal zone (1-60) for a longitude.
func UTMZone(lon float64) int {
	zone := int((lon+180)/6) + 1
	if zone < 1 {
		zone = 1
	}
	if zone > 60 {
		zone = 60
	}
	return zone
}
