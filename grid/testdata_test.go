package grid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// squareRing builds a closed square ring with lower-left corner (lon, lat)
// and side d.
func squareRing(lon, lat, d float64) orb.Ring {
	return orb.Ring{
		{lon, lat},
		{lon + d, lat},
		{lon + d, lat + d},
		{lon, lat + d},
		{lon, lat},
	}
}

// cRing builds a concave "C" shaped ring (opening to the east) whose
// centroid falls inside the notch, i.e. outside the polygon.
func cRing() orb.Ring {
	return orb.Ring{
		{0, 0}, {3, 0}, {3, 1}, {1, 1}, {1, 2}, {3, 2}, {3, 3}, {0, 3}, {0, 0},
	}
}

// writeGeoJSONFile marshals features into a temp .geojson file and returns
// its path.
func writeGeoJSONFile(t *testing.T, features []*geojson.Feature) string {
	t.Helper()

	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshaling fixture: %v", err)
	}

	path := filepath.Join(t.TempDir(), "fixture.geojson")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

// gridFeature builds one fixture cell.
func gridFeature(id string, ring orb.Ring, props map[string]any) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{ring})
	f.ID = id
	f.Properties = geojson.Properties(props)
	return f
}

// retailFixture is the canonical four-cell dataset: retail classes High,
// Medium, Low and missing, with scores, flood classes and population.
func retailFixture(t *testing.T) string {
	t.Helper()
	return writeGeoJSONFile(t, []*geojson.Feature{
		gridFeature("g1", squareRing(106.00, -6.30, 0.01), map[string]any{
			"retail_class": "High", "retail_score": 0.91, "flood_class": "Low",
			"pop_dasymetric": 1200.0, "access_idx": 1.0, "Keterangan": "Permukiman",
		}),
		gridFeature("g2", squareRing(106.01, -6.30, 0.01), map[string]any{
			"retail_class": "Medium", "retail_score": 0.55, "flood_class": "High",
			"pop_dasymetric": 800.0, "access_idx": 0.0, "Keterangan": "Sawah",
		}),
		gridFeature("g3", squareRing(106.02, -6.30, 0.01), map[string]any{
			"retail_class": "Low", "retail_score": 0.12, "flood_class": "Low",
			"pop_dasymetric": 450.0, "access_idx": 1.0, "Keterangan": "Permukiman",
		}),
		gridFeature("g4", squareRing(106.03, -6.30, 0.01), map[string]any{
			"retail_class": nil, "retail_score": nil, "flood_class": "Low",
			"pop_dasymetric": nil, "access_idx": nil, "Keterangan": "Hutan",
		}),
	})
}

// asError wraps errors.As for terser assertions.
func asError[T error](err error, target *T) bool {
	return errors.As(err, target)
}

// loadFixture builds the fixture dataset without going through a cache.
func loadFixture(t *testing.T, tolerance float64) *Dataset {
	t.Helper()
	ds, err := buildDataset(retailFixture(t), tolerance)
	if err != nil {
		t.Fatalf("building fixture dataset: %v", err)
	}
	return ds
}
