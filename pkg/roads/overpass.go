package roads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/chazu/topocut/pkg/geo"
)

// defaultOverpassServers are tried in order until one answers. The kumi
// mirror is listed first; it is usually faster than the main instance.
var defaultOverpassServers = []string{
	"https://overpass.kumi.systems/api/interpreter",
	"https://overpass-api.de/api/interpreter",
}

// OverpassClient fetches road polylines from the Overpass API.
type OverpassClient struct {
	httpc   *http.Client
	servers []string
}

// NewOverpassClient returns a client using the default server list and a
// timeout sized for Overpass's worst-case query latency.
func NewOverpassClient() *OverpassClient {
	return &OverpassClient{
		httpc:   &http.Client{Timeout: 60 * time.Second},
		servers: defaultOverpassServers,
	}
}

// NewOverpassClientWith returns a client for specific servers, mainly for
// tests pointing at an httptest server.
func NewOverpassClientWith(httpc *http.Client, servers ...string) *OverpassClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 60 * time.Second}
	}
	return &OverpassClient{httpc: httpc, servers: servers}
}

// overpassResponse is the subset of the Overpass JSON output we consume.
type overpassResponse struct {
	Elements []struct {
		Type     string            `json:"type"`
		Tags     map[string]string `json:"tags"`
		Geometry []struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"geometry"`
	} `json:"elements"`
}

// Query builds the Overpass QL request for a bounding box and road class.
func overpassQuery(b geo.Bounds, class Class) string {
	return fmt.Sprintf(`[out:json][timeout:25];
(
  way["highway"~"%s"](%g,%g,%g,%g);
);
out geom;`, class.highwayFilter(), b.South, b.West, b.North, b.East)
}

// Fetch downloads all ways of the given road class inside the bounding
// box. An area with no mapped roads returns an empty RoadSet, not an
// error. Servers are tried in order; the last error is returned only if
// every server fails.
func (c *OverpassClient) Fetch(ctx context.Context, b geo.Bounds, class Class) (RoadSet, error) {
	if err := b.Validate(); err != nil {
		return RoadSet{}, err
	}
	query := overpassQuery(b, class)

	var lastErr error
	for _, server := range c.servers {
		rs, err := c.fetchFrom(ctx, server, query)
		if err == nil {
			return rs, nil
		}
		if ctx.Err() != nil {
			return RoadSet{}, ctx.Err()
		}
		lastErr = fmt.Errorf("roads: overpass %s: %w", server, err)
	}
	if lastErr == nil {
		lastErr = errors.New("roads: no overpass servers configured")
	}
	return RoadSet{}, lastErr
}

func (c *OverpassClient) fetchFrom(ctx context.Context, server, query string) (RoadSet, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server,
		strings.NewReader(form.Encode()))
	if err != nil {
		return RoadSet{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return RoadSet{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return RoadSet{}, fmt.Errorf("status %s", resp.Status)
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return RoadSet{}, fmt.Errorf("decode: %w", err)
	}

	var rs RoadSet
	for _, el := range decoded.Elements {
		if el.Type != "way" || len(el.Geometry) < 2 {
			continue
		}
		ls := make(orb.LineString, 0, len(el.Geometry))
		for _, node := range el.Geometry {
			ls = append(ls, orb.Point{node.Lon, node.Lat})
		}
		rs.append(ls, el.Tags["highway"])
	}
	return rs, nil
}
