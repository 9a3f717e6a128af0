package grid

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/orb/simplify"
)

// Spatial reference identifiers the loader can normalize. sridUndeclared
// sources are accepted when their coordinates can be inferred to already be
// geographic; sridUnknown sources declare a CRS the loader cannot handle.
const (
	sridWGS84       = 4326
	sridWebMercator = 3857
	sridUndeclared  = 0
	sridUnknown     = -1
)

// rawFeature is one parsed source record before normalization.
type rawFeature struct {
	id    string
	geom  orb.Geometry
	attrs map[string]any
}

// rawCollection is the parser output for a whole source file.
type rawCollection struct {
	features []rawFeature
	srid     int
}

// buildDataset parses a source file and derives the render-ready dataset:
// geometry normalized to lon/lat, exterior rings simplified at the given
// tolerance, anchors and flattened ring coordinates precomputed. Anchor and
// ring derivation happens here, once per load, because it dominates the cost
// for large grids and must not be repeated per render.
func buildDataset(source string, tolerance float64) (*Dataset, error) {
	if tolerance <= 0 {
		return nil, fmt.Errorf("simplification tolerance must be positive, got %g", tolerance)
	}

	raw, err := parseSource(source)
	if err != nil {
		return nil, err
	}
	return assembleDataset(source, tolerance, raw)
}

// buildDatasetBytes is the upload path: a fully buffered source with a
// client-provided name used for format sniffing and cache identity.
func buildDatasetBytes(name string, data []byte, tolerance float64) (*Dataset, error) {
	if tolerance <= 0 {
		return nil, fmt.Errorf("simplification tolerance must be positive, got %g", tolerance)
	}

	raw, err := parseBytes(name, data)
	if err != nil {
		return nil, err
	}
	return assembleDataset(name, tolerance, raw)
}

func assembleDataset(source string, tolerance float64, raw *rawCollection) (*Dataset, error) {
	if len(raw.features) == 0 {
		return nil, &FormatError{Source: source, Reason: "no features in source"}
	}

	reproject, err := resolveProjection(source, raw)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Source:    source,
		Tolerance: tolerance,
		Features:  make([]*Feature, 0, len(raw.features)),
		Schema:    make(Schema),
	}

	simplifier := simplify.DouglasPeucker(tolerance)

	for i, rf := range raw.features {
		id := rf.id
		if id == "" {
			id = featureID(rf.attrs, i)
		}

		poly := exteriorPolygon(rf.geom)
		if poly == nil {
			ds.Warnings = append(ds.Warnings, Warning{
				FeatureID: id,
				Message:   "feature has no polygon geometry",
			})
			continue
		}
		poly = reproject(poly)

		// The simplifier returns nil when the outer ring collapses entirely;
		// both that and a ring below 3 distinct vertices are degenerate.
		var ring orb.Ring
		if simplified, ok := simplifier.Simplify(poly.Clone()).(orb.Polygon); ok && len(simplified) > 0 {
			ring = closeRing(simplified[0])
		}
		if distinctPoints(ring) < 3 {
			ds.Warnings = append(ds.Warnings, Warning{
				FeatureID: id,
				Message:   fmt.Sprintf("ring degenerated below 3 vertices at tolerance %g", tolerance),
			})
			continue
		}
		shaped := orb.Polygon{ring}

		f := &Feature{
			ID:         id,
			Geometry:   shaped,
			Attributes: rf.attrs,
			Anchor:     RepresentativePoint(shaped),
			Ring:       flattenRing(ring),
		}
		ds.Features = append(ds.Features, f)
		for name := range rf.attrs {
			ds.Schema[name] = struct{}{}
		}
	}

	if len(ds.Features) == 0 && len(ds.Warnings) > 0 {
		return nil, &FormatError{Source: source, Reason: "every feature degenerated or carried no polygon geometry"}
	}

	return ds, nil
}

// parseSource dispatches on file extension, falling back to content
// sniffing for unknown extensions.
func parseSource(source string) (*rawCollection, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".gpkg":
		return parseGeoPackage(source)
	case ".shp":
		return parseShapefile(source)
	case ".geojson", ".json":
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, &FormatError{Source: source, Reason: err.Error()}
		}
		return parseGeoJSON(source, data)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, &FormatError{Source: source, Reason: err.Error()}
	}
	return parseBytes(source, data)
}

// parseBytes sniffs the container format from magic bytes: SQLite (.gpkg),
// the shapefile header, or JSON.
func parseBytes(name string, data []byte) (*rawCollection, error) {
	switch {
	case bytes.HasPrefix(data, []byte("SQLite format 3\x00")):
		return parseGeoPackageBytes(name, data)
	case len(data) >= 4 && data[0] == 0x00 && data[1] == 0x00 && data[2] == 0x27 && data[3] == 0x0a:
		return parseShapefileBytes(name, data)
	case len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '{':
		return parseGeoJSON(name, data)
	}
	return nil, &FormatError{Source: name, Reason: "not a recognized polygon container (GeoJSON, GeoPackage, Shapefile)"}
}

// resolveProjection returns the per-polygon reprojection into lon/lat.
func resolveProjection(source string, raw *rawCollection) (func(orb.Polygon) orb.Polygon, error) {
	identity := func(p orb.Polygon) orb.Polygon { return p }

	switch raw.srid {
	case sridWGS84:
		return identity, nil
	case sridWebMercator:
		return func(p orb.Polygon) orb.Polygon {
			return project.Polygon(p, project.Mercator.ToWGS84)
		}, nil
	case sridUndeclared:
		// No declared CRS: accept only when the coordinates are already
		// plausibly geographic.
		if coordinatesLookGeographic(raw) {
			return identity, nil
		}
		return nil, &ProjectionError{
			Source: source,
			Reason: "source declares no CRS and coordinates are outside lon/lat bounds",
		}
	default:
		return nil, &ProjectionError{
			Source: source,
			SRID:   raw.srid,
			Reason: "unsupported coordinate reference system",
		}
	}
}

func coordinatesLookGeographic(raw *rawCollection) bool {
	for _, rf := range raw.features {
		poly := exteriorPolygon(rf.geom)
		if poly == nil {
			continue
		}
		for _, p := range poly[0] {
			if p[0] < -180 || p[0] > 180 || p[1] < -90 || p[1] > 90 {
				return false
			}
		}
	}
	return true
}

// exteriorPolygon reduces a geometry to a single-ring polygon. Holes are
// dropped; for multi-polygons the largest part is kept.
func exteriorPolygon(geom orb.Geometry) orb.Polygon {
	switch g := geom.(type) {
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) < 3 {
			return nil
		}
		return orb.Polygon{g[0]}
	case orb.MultiPolygon:
		var best orb.Polygon
		bestArea := -1.0
		for _, p := range g {
			if len(p) == 0 || len(p[0]) < 3 {
				continue
			}
			if a := planar.Area(orb.Polygon{p[0]}); a > bestArea {
				bestArea = a
				best = orb.Polygon{p[0]}
			}
		}
		return best
	default:
		return nil
	}
}

// closeRing ensures first == last.
func closeRing(ring orb.Ring) orb.Ring {
	if len(ring) == 0 {
		return ring
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// distinctPoints counts distinct vertices in a closed ring.
func distinctPoints(ring orb.Ring) int {
	seen := make(map[orb.Point]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func flattenRing(ring orb.Ring) [][2]float64 {
	coords := make([][2]float64, len(ring))
	for i, p := range ring {
		coords[i] = [2]float64{p[0], p[1]}
	}
	return coords
}

// featureID resolves a cell identifier from the conventional id columns,
// falling back to the record's position in the source.
func featureID(attrs map[string]any, index int) string {
	for _, key := range []string{"gid", "fid", "id"} {
		if v, ok := attrs[key]; ok && v != nil {
			switch value := v.(type) {
			case string:
				if value != "" {
					return value
				}
			case float64:
				return fmt.Sprintf("%d", int64(value))
			case int64:
				return fmt.Sprintf("%d", value)
			case int:
				return fmt.Sprintf("%d", value)
			}
		}
	}
	return fmt.Sprintf("%d", index)
}
