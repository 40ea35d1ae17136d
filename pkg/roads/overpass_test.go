package roads_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chazu/topocut/pkg/geo"
	"github.com/chazu/topocut/pkg/roads"
)

const overpassJSON = `{
  "elements": [
    {
      "type": "way",
      "tags": {"highway": "primary", "name": "High Street"},
      "geometry": [
        {"lat": 51.50, "lon": -0.12},
        {"lat": 51.51, "lon": -0.11},
        {"lat": 51.52, "lon": -0.10}
      ]
    },
    {
      "type": "way",
      "tags": {"highway": "residential"},
      "geometry": [
        {"lat": 51.505, "lon": -0.125},
        {"lat": 51.506, "lon": -0.124}
      ]
    },
    {
      "type": "node",
      "tags": {"amenity": "cafe"}
    },
    {
      "type": "way",
      "tags": {"highway": "service"},
      "geometry": [
        {"lat": 51.507, "lon": -0.126}
      ]
    }
  ]
}`

func testBounds() geo.Bounds {
	return geo.Bounds{West: -0.2, South: 51.4, East: 0.0, North: 51.6}
}

func TestOverpassFetch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		gotQuery = r.PostForm.Get("data")
		w.Write([]byte(overpassJSON))
	}))
	defer srv.Close()

	c := roads.NewOverpassClientWith(srv.Client(), srv.URL)
	rs, err := c.Fetch(context.Background(), testBounds(), roads.ClassAll)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// The node element and the single-point way are dropped.
	if rs.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rs.Len())
	}
	if rs.Lines[0].Highway != "primary" || rs.Lines[1].Highway != "residential" {
		t.Errorf("highway tags = %q, %q", rs.Lines[0].Highway, rs.Lines[1].Highway)
	}
	if pt := rs.Lines[0].Line[0]; pt[0] != -0.12 || pt[1] != 51.50 {
		t.Errorf("first vertex = %v, want lon -0.12 lat 51.50", pt)
	}

	if !strings.Contains(gotQuery, "out:json") {
		t.Errorf("query missing out:json: %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "51.4,-0.2,51.6,0") {
		t.Errorf("query bbox not south,west,north,east ordered: %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "residential") {
		t.Errorf("ClassAll query should match residential ways: %q", gotQuery)
	}
}

func TestOverpassQueryMajorClass(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotQuery = r.PostForm.Get("data")
		w.Write([]byte(`{"elements": []}`))
	}))
	defer srv.Close()

	c := roads.NewOverpassClientWith(srv.Client(), srv.URL)
	rs, err := c.Fetch(context.Background(), testBounds(), roads.ClassMajor)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !rs.IsEmpty() {
		t.Errorf("empty response should yield an empty RoadSet, got %d lines", rs.Len())
	}
	if strings.Contains(gotQuery, "residential") {
		t.Errorf("ClassMajor query should not match residential ways: %q", gotQuery)
	}
	for _, want := range []string{"motorway", "primary", "secondary"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("ClassMajor query missing %q: %q", want, gotQuery)
		}
	}
}

func TestOverpassServerFallback(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too busy", http.StatusGatewayTimeout)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(overpassJSON))
	}))
	defer good.Close()

	c := roads.NewOverpassClientWith(nil, bad.URL, good.URL)
	rs, err := c.Fetch(context.Background(), testBounds(), roads.ClassAll)
	if err != nil {
		t.Fatalf("Fetch should have fallen back to the second server: %v", err)
	}
	if rs.Len() != 2 {
		t.Errorf("Len() = %d, want 2", rs.Len())
	}
}

func TestOverpassAllServersFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := roads.NewOverpassClientWith(srv.Client(), srv.URL, srv.URL)
	if _, err := c.Fetch(context.Background(), testBounds(), roads.ClassAll); err == nil {
		t.Fatal("Fetch succeeded against a failing server")
	}
}

func TestOverpassRejectsBadBounds(t *testing.T) {
	c := roads.NewOverpassClientWith(nil, "http://127.0.0.1:0")
	b := geo.Bounds{West: 1, South: 2, East: -1, North: 1}
	if _, err := c.Fetch(context.Background(), b, roads.ClassAll); err == nil {
		t.Fatal("Fetch accepted inverted bounds")
	}
}
