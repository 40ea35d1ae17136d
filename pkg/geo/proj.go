package geo

import (
	"fmt"

	"github.com/ctessum/geom/proj"
)

// Projection converts between geographic coordinates (WGS84 lon/lat
// degrees) and a planar frame measured in meters. The road buffering code
// is written against this interface so it can run under a synthetic
// identity projection in tests.
type Projection interface {
	// Forward projects lon/lat degrees to planar x/y meters.
	Forward(lon, lat float64) (x, y float64, err error)
	// Inverse unprojects planar x/y meters back to lon/lat degrees.
	Inverse(x, y float64) (lon, lat float64, err error)
}

// Identity is a no-op Projection that treats degrees as if they were
// already planar meters. Only useful for tests.
type Identity struct{}

func (Identity) Forward(lon, lat float64) (float64, float64, error) { return lon, lat, nil }
func (Identity) Inverse(x, y float64) (float64, float64, error)     { return x, y, nil }

// utmProj is a Projection backed by the ctessum/geom proj4 port.
type utmProj struct {
	fwd proj.Transformer
	inv proj.Transformer
}

func (u *utmProj) Forward(lon, lat float64) (float64, float64, error) {
	return u.fwd(lon, lat)
}

func (u *utmProj) Inverse(x, y float64) (float64, float64, error) {
	return u.inv(x, y)
}

// NewUTM builds a Projection onto the UTM zone containing the given
// point, expressed as a transverse mercator spherical reference so the
// buffered geometry is measured in true ground meters. Southern
// hemisphere zones get the conventional 10,000 km false northing.
func NewUTM(lon, lat float64) (Projection, error) {
	zone := UTMZone(lon)
	centralMeridian := float64(zone*6 - 183)
	falseNorthing := 0.0
	if lat < 0 {
		falseNorthing = 10000000.0
	}

	utmStr := fmt.Sprintf(
		"+proj=tmerc +lat_0=0 +lon_0=%g +k=0.9996 +x_0=500000 +y_0=%.0f +datum=WGS84 +units=m +no_defs",
		centralMeridian, falseNorthing)

	utm, err := proj.Parse(utmStr)
	if err != nil {
		return nil, fmt.Errorf("geo: parse utm zone %d: %w", zone, err)
	}
	wgs84, err := proj.Parse("+proj=longlat +datum=WGS84 +no_defs")
	if err != nil {
		return nil, fmt.Errorf("geo: parse longlat: %w", err)
	}

	fwd, err := wgs84.NewTransform(utm)
	if err != nil {
		return nil, fmt.Errorf("geo: build forward transform: %w", err)
	}
	inv, err := utm.NewTransform(wgs84)
	if err != nil {
		return nil, fmt.Errorf("geo: build inverse transform: %w", err)
	}

	return &utmProj{fwd: fwd, inv: inv}, nil
}
