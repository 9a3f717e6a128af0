package grid

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

func TestRepresentativePointConvex(t *testing.T) {
	poly := orb.Polygon{squareRing(10, 20, 2)}

	p := RepresentativePoint(poly)
	if !planar.PolygonContains(poly, p) {
		t.Fatalf("representative point %v outside square", p)
	}
	// For a convex square the centroid is inside and should be used as-is.
	if p[0] != 11 || p[1] != 21 {
		t.Errorf("expected centroid (11, 21) for the square, got %v", p)
	}
}

func TestRepresentativePointConcave(t *testing.T) {
	poly := orb.Polygon{cRing()}

	// The centroid of the C shape falls in the notch, outside the polygon.
	// This is exactly why the anchor cannot be a plain centroid.
	centroid, _ := planar.CentroidArea(poly)
	if planar.PolygonContains(poly, centroid) {
		t.Fatalf("fixture is not concave enough: centroid %v is inside", centroid)
	}

	p := RepresentativePoint(poly)
	if !planar.PolygonContains(poly, p) {
		t.Fatalf("representative point %v outside C-shaped polygon", p)
	}
}

func TestRepresentativePointDegenerate(t *testing.T) {
	if p := (RepresentativePoint(orb.Polygon{})); p != (orb.Point{}) {
		t.Errorf("empty polygon should yield the zero point, got %v", p)
	}

	// Collinear sliver: falls back to a ring vertex rather than panicking.
	sliver := orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {2, 0}, {0, 0}}}
	p := RepresentativePoint(sliver)
	if p[1] != 0 {
		t.Errorf("sliver anchor should sit on the ring, got %v", p)
	}
}

func TestLoadedAnchorsAreInsidePolygons(t *testing.T) {
	// Include a concave cell so the invariant is exercised beyond squares.
	path := writeGeoJSONFile(t, []*geojson.Feature{
		gridFeature("c", cRing(), map[string]any{"retail_class": "High"}),
		gridFeature("s1", squareRing(5, 5, 1), map[string]any{"retail_class": "Low"}),
		gridFeature("s2", squareRing(7, 5, 1), map[string]any{"retail_class": "Medium"}),
	})
	ds, err := buildDataset(path, 0.0001)
	if err != nil {
		t.Fatalf("building dataset: %v", err)
	}

	for _, f := range ds.Features {
		if !planar.PolygonContains(f.Geometry, f.Anchor) {
			t.Errorf("feature %s anchor %v outside its polygon", f.ID, f.Anchor)
		}
	}
}
