package grid

// RenderFeature is one feature in the presentation-layer contract: an
// identifier, a closed polygon ring, an anchor, an RGBA fill and ordered
// tooltip lines. This is everything a map widget needs to draw the cell.
type RenderFeature struct {
	ID string `json:"id"`

	// Coordinates nests the closed exterior ring one level deep, matching
	// the polygon-layer convention of deck-style map renderers.
	Coordinates [][][2]float64 `json:"coordinates"`

	Anchor [2]float64 `json:"anchor"`

	// FillColor is RGBA in 0..255.
	FillColor [4]uint8 `json:"fillColor"`

	Tooltip []DisplayValue `json:"tooltip"`
}

// RenderCollection is the render-ready output of the pipeline for one
// dataset view and color mode.
type RenderCollection struct {
	Source   string          `json:"source"`
	Mode     ColorMode       `json:"mode"`
	Features []RenderFeature `json:"features"`

	// Center is the mean anchor, the initial viewport center.
	Center [2]float64 `json:"center"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// BuildFeatureCollection assembles the render-ready feature collection for a
// dataset view: fill colors resolved per the mode, tooltips projected
// through the configured column list. Value mode requires the configured
// score column in the schema and fails with a SchemaMismatchError otherwise;
// class mode is total and never fails.
func BuildFeatureCollection(ds *Dataset, cfg *Config, mode ColorMode) (*RenderCollection, error) {
	var min, max float64
	colorAttr := cfg.Defaults.ClassAttr
	if mode == ColorByValue {
		colorAttr = cfg.ScoreColumn
		var err error
		min, max, err = ValueRange(ds, colorAttr)
		if err != nil {
			return nil, err
		}
	}

	view := Project(ds, cfg.Tooltip)

	rc := &RenderCollection{
		Source:   ds.Source,
		Mode:     mode,
		Features: make([]RenderFeature, 0, ds.Len()),
		Warnings: ds.Warnings,
	}

	var sumLon, sumLat float64
	for i, f := range ds.Features {
		c := FeatureColor(f, mode, colorAttr, min, max)
		rc.Features = append(rc.Features, RenderFeature{
			ID:          f.ID,
			Coordinates: [][][2]float64{f.Ring},
			Anchor:      [2]float64{f.Anchor[0], f.Anchor[1]},
			FillColor:   [4]uint8{c.R, c.G, c.B, c.A},
			Tooltip:     view.Rows[i].Values,
		})
		sumLon += f.Anchor[0]
		sumLat += f.Anchor[1]
	}
	if n := float64(ds.Len()); n > 0 {
		rc.Center = [2]float64{sumLon / n, sumLat / n}
	}
	return rc, nil
}
