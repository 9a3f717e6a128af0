package grid

import (
	"sort"

	"github.com/paulmach/orb"
)

// Feature is one grid cell: a simplified polygon in lon/lat with its
// attribute row and the geometry derivatives computed once at load time.
type Feature struct {
	// ID is the cell identifier, unique within a dataset. Sources that carry
	// no identifier column get a sequential one assigned by the loader.
	ID string `json:"id"`

	// Geometry is the simplified polygon in geographic coordinates
	// (lon/lat, EPSG:4326). Only the exterior ring is kept; holes from the
	// source are dropped.
	Geometry orb.Polygon `json:"-"`

	// Attributes maps attribute name to scalar value: string for class
	// labels (retail/flood class, land use), float64 for scores, indices
	// and population. A nil value means the source cell had no value.
	Attributes map[string]any `json:"attributes"`

	// Anchor is a point guaranteed to lie inside the polygon, used for map
	// centering and spatial summaries. It is a representative point, not a
	// centroid: centroids fall outside concave cells.
	Anchor orb.Point `json:"anchor"`

	// Ring is the closed exterior ring of the simplified polygon as
	// (lon, lat) pairs, first == last. Precomputed at load time so renders
	// never re-walk the geometry.
	Ring [][2]float64 `json:"ring"`
}

// Schema is the set of attribute names shared by a dataset's features.
type Schema map[string]struct{}

// Has reports whether the attribute is part of the schema.
func (s Schema) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// FirstPresent returns the first candidate name present in the schema,
// or "" when none is. Used for columns with locale-dependent naming,
// e.g. the land-use column appearing as "Keterangan" or "KELAS_2".
func (s Schema) FirstPresent(candidates ...string) string {
	for _, c := range candidates {
		if s.Has(c) {
			return c
		}
	}
	return ""
}

// Names returns the attribute names in sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Warning records a per-feature problem detected during loading that does
// not abort the load, e.g. a ring degenerating below 3 vertices after
// simplification.
type Warning struct {
	FeatureID string `json:"featureId"`
	Message   string `json:"message"`
}

// Dataset is an ordered collection of features sharing a schema. It is
// built once per (source, tolerance) pair and cached; filtering produces
// views over it and never mutates the cached value.
type Dataset struct {
	// Source is the canonical identity of the file the dataset came from.
	Source string

	// Tolerance is the simplification tolerance the geometry was built with,
	// in coordinate-system degrees.
	Tolerance float64

	Features []*Feature
	Schema   Schema

	// Warnings collects per-feature load problems (degenerate geometry).
	Warnings []Warning
}

// Len returns the number of features.
func (ds *Dataset) Len() int {
	return len(ds.Features)
}

// DistinctValues returns the sorted distinct non-nil string values of an
// attribute. Used to populate filter choices and to resolve default filter
// labels by name rather than position.
func (ds *Dataset) DistinctValues(attr string) []string {
	seen := make(map[string]struct{})
	for _, f := range ds.Features {
		v, ok := f.Attributes[attr]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			seen[s] = struct{}{}
		}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// view returns a Dataset sharing this dataset's schema and warnings but
// holding the given feature subset.
func (ds *Dataset) view(features []*Feature) *Dataset {
	return &Dataset{
		Source:    ds.Source,
		Tolerance: ds.Tolerance,
		Features:  features,
		Schema:    ds.Schema,
		Warnings:  ds.Warnings,
	}
}

// AttrString returns the attribute as a string when present and non-nil.
func (f *Feature) AttrString(name string) (string, bool) {
	v, ok := f.Attributes[name]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// AttrFloat returns the attribute as a float64 when present and numeric.
// Integer-typed source columns (GeoPackage, shapefile) are widened.
func (f *Feature) AttrFloat(name string) (float64, bool) {
	v, ok := f.Attributes[name]
	if !ok || v == nil {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
