package grid

import (
	"image/color"
	"math"
)

// Class labels recognized by ClassColor. Datasets with localized label sets
// still resolve defaults by name lookup (see DefaultPredicates); the palette
// itself is fixed.
const (
	ClassHigh   = "High"
	ClassMedium = "Medium"
	ClassLow    = "Low"
)

// classPalette is the warning palette for categorical class labels:
// red for high-potential cells, amber for medium, emerald for low.
var classPalette = map[string]color.NRGBA{
	ClassHigh:   {R: 220, G: 38, B: 38, A: 160},
	ClassMedium: {R: 245, G: 158, B: 11, A: 160},
	ClassLow:    {R: 16, G: 185, B: 129, A: 160},
}

// classFallback is the neutral gray for unrecognized or missing labels.
var classFallback = color.NRGBA{R: 160, G: 160, B: 160, A: 120}

// valueFallback is the sentinel gray for missing numeric values (NaN input).
var valueFallback = color.NRGBA{R: 200, G: 200, B: 200, A: 80}

// ClassColor maps a categorical class label to its fill color. The mapping
// is total: any unrecognized or empty label resolves to a neutral gray with
// reduced alpha.
func ClassColor(label string) color.NRGBA {
	if c, ok := classPalette[label]; ok {
		return c
	}
	return classFallback
}

// ValueColor maps a numeric value to a fill color by linear interpolation
// across a two-segment red→yellow→green ramp over [min, max].
//
// NaN values return the sentinel gray. A degenerate range (max <= min)
// normalizes to the 0.5 midpoint instead of dividing by zero, and values
// outside [min, max] clamp to the ramp ends. Alpha rises from 120 at the low
// end to 220 at the high end so low-value cells render more transparent.
// The function is total over the reals and never fails.
func ValueColor(value, min, max float64) color.NRGBA {
	if math.IsNaN(value) {
		return valueFallback
	}

	norm := 0.5
	if max > min {
		norm = (value - min) / (max - min)
	}
	if norm < 0 {
		norm = 0
	} else if norm > 1 {
		norm = 1
	}

	var r, g float64
	if norm < 0.5 {
		r = 255
		g = math.Round(norm * 2 * 255)
	} else {
		r = math.Round(255 - (norm-0.5)*2*255)
		g = 255
	}

	return color.NRGBA{
		R: uint8(r),
		G: uint8(g),
		B: 0,
		A: uint8(120 + math.Round(norm*100)),
	}
}

// FeatureColor resolves a feature's fill color for the given visualization
// mode. In class mode the label attribute drives a palette lookup; in value
// mode the score attribute is interpolated over [min, max]. Missing values
// fall through to the respective gray sentinels.
func FeatureColor(f *Feature, mode ColorMode, attr string, min, max float64) color.NRGBA {
	switch mode {
	case ColorByValue:
		v, ok := f.AttrFloat(attr)
		if !ok {
			return valueFallback
		}
		return ValueColor(v, min, max)
	default:
		label, _ := f.AttrString(attr)
		return ClassColor(label)
	}
}

// ColorMode selects how features are colored.
type ColorMode string

const (
	// ColorByClass colors by categorical class label lookup.
	ColorByClass ColorMode = "class"
	// ColorByValue colors by continuous value interpolation.
	ColorByValue ColorMode = "value"
)

// ValueRange returns the min and max of a numeric attribute across the
// dataset, skipping missing values. It returns a SchemaMismatchError when
// the attribute is absent from the schema entirely, since value-mode
// coloring is impossible without it. A dataset where the column exists but
// every value is missing yields (0, 0) and colors every cell the sentinel
// gray.
func ValueRange(ds *Dataset, attr string) (float64, float64, error) {
	if !ds.Schema.Has(attr) {
		return 0, 0, &SchemaMismatchError{Attribute: attr, Have: ds.Schema.Names()}
	}

	min, max := math.Inf(1), math.Inf(-1)
	found := false
	for _, f := range ds.Features {
		v, ok := f.AttrFloat(attr)
		if !ok || math.IsNaN(v) {
			continue
		}
		found = true
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !found {
		return 0, 0, nil
	}
	return min, max, nil
}
