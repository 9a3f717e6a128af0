package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// parseShapefile reads polygon records and their DBF attributes. Only the
// first (outer) part of each polygon record is kept, per the exterior-ring
// contract. The CRS comes from the .prj sidecar when present; without one
// the coordinates must be inferable as geographic.
func parseShapefile(path string) (*rawCollection, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, &FormatError{Source: path, Reason: fmt.Sprintf("opening shapefile: %v", err)}
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	raw := &rawCollection{srid: shapefileSRID(path)}

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || len(poly.Points) == 0 {
			raw.features = append(raw.features, rawFeature{attrs: map[string]any{}})
			continue
		}

		attrs := make(map[string]any, len(fields))
		for i, field := range fields {
			name := strings.TrimRight(field.String(), "\x00")
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			attrs[name] = dbfValue(field, val)
		}

		raw.features = append(raw.features, rawFeature{
			geom:  shapePolygon(poly),
			attrs: attrs,
		})
	}
	if err := reader.Err(); err != nil {
		return nil, &FormatError{Source: path, Reason: fmt.Sprintf("reading shapefile: %v", err)}
	}
	return raw, nil
}

// parseShapefileBytes spools an uploaded .shp to disk for go-shp. Uploads
// carry only the .shp member, so attributes are absent and the geometry-only
// records rely on sequential ids.
func parseShapefileBytes(name string, data []byte) (*rawCollection, error) {
	tmp, err := os.CreateTemp("", "gridscope-*.shp")
	if err != nil {
		return nil, fmt.Errorf("spooling upload: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("spooling upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("spooling upload: %w", err)
	}

	raw, err := parseShapefile(tmp.Name())
	if err != nil {
		return nil, rewriteSource(err, name)
	}
	return raw, nil
}

// shapePolygon converts the outer part of a shapefile polygon record.
func shapePolygon(poly *shp.Polygon) orb.Polygon {
	end := int(poly.NumPoints)
	if len(poly.Parts) > 1 {
		end = int(poly.Parts[1])
	}
	if end > len(poly.Points) {
		end = len(poly.Points)
	}

	ring := make(orb.Ring, 0, end)
	for _, p := range poly.Points[:end] {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	return orb.Polygon{ring}
}

// dbfValue types a DBF attribute: numeric field types parse to float64,
// everything else stays a string. Empty cells are nil.
func dbfValue(field shp.Field, val string) any {
	if val == "" {
		return nil
	}
	switch field.Fieldtype {
	case 'N', 'F':
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			return n
		}
		return nil
	default:
		return val
	}
}

// shapefileSRID inspects the .prj sidecar WKT. Shapefiles carry no CRS in
// the .shp itself.
func shapefileSRID(path string) int {
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	data, err := os.ReadFile(prj)
	if err != nil {
		return sridUndeclared
	}

	wkt := string(data)
	switch {
	case strings.Contains(wkt, "3857"),
		strings.Contains(wkt, "Pseudo-Mercator"),
		strings.Contains(wkt, "Web_Mercator"):
		return sridWebMercator
	case strings.HasPrefix(wkt, "GEOGCS"), strings.Contains(wkt, "WGS_1984"), strings.Contains(wkt, "WGS 84"):
		return sridWGS84
	default:
		return sridUnknown
	}
}
