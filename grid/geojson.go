package grid

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// parseGeoJSON parses a GeoJSON FeatureCollection. RFC 7946 mandates lon/lat
// coordinates, so the SRID defaults to 4326, but the legacy "crs" member
// still appears in exports from desktop GIS tools and is honored when it
// names a system the loader knows.
func parseGeoJSON(source string, data []byte) (*rawCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &FormatError{Source: source, Reason: fmt.Sprintf("invalid GeoJSON: %v", err)}
	}

	raw := &rawCollection{srid: legacyCRS(data)}
	for _, f := range fc.Features {
		raw.features = append(raw.features, rawFeature{
			id:    geojsonID(f),
			geom:  f.Geometry,
			attrs: map[string]any(f.Properties),
		})
	}
	return raw, nil
}

// legacyCRS inspects the deprecated top-level "crs" member.
func legacyCRS(data []byte) int {
	var envelope struct {
		CRS *struct {
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"crs"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.CRS == nil {
		return sridWGS84
	}

	name := envelope.CRS.Properties.Name
	switch {
	case strings.Contains(name, "4326"), strings.Contains(name, "CRS84"):
		return sridWGS84
	case strings.Contains(name, "3857"), strings.Contains(name, "900913"):
		return sridWebMercator
	case name == "":
		return sridWGS84
	default:
		return sridUnknown
	}
}

func geojsonID(f *geojson.Feature) string {
	switch id := f.ID.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%d", int64(id))
	case int:
		return fmt.Sprintf("%d", id)
	default:
		return ""
	}
}
