package grid

// Predicate is one equality constraint on an attribute. Predicates are ANDed
// together by Filter. Value comparison follows the attribute's scalar kind:
// strings compare as strings, numbers compare after widening to float64.
type Predicate struct {
	Attr  string
	Value any
}

// matches reports whether the feature satisfies the predicate.
func (p Predicate) matches(f *Feature) bool {
	v, ok := f.Attributes[p.Attr]
	if !ok || v == nil {
		return false
	}
	if want, ok := p.Value.(string); ok {
		have, ok := v.(string)
		return ok && have == want
	}
	want, wok := toFloat(p.Value)
	have, hok := toFloat(v)
	return wok && hok && want == have
}

// Filter applies the equality predicates in order and returns a view over
// the dataset holding only matching features. A predicate referencing an
// attribute absent from the schema is a no-op rather than an error: source
// datasets carry different schemas and the caller must degrade gracefully.
// The cached dataset is never mutated.
func Filter(ds *Dataset, predicates []Predicate) *Dataset {
	features := ds.Features
	for _, p := range predicates {
		if !ds.Schema.Has(p.Attr) {
			continue
		}
		kept := make([]*Feature, 0, len(features))
		for _, f := range features {
			if p.matches(f) {
				kept = append(kept, f)
			}
		}
		features = kept
	}
	if len(features) == len(ds.Features) {
		return ds
	}
	return ds.view(features)
}

// DefaultPredicates builds the default filter selection: the "high
// potential" label for the retail class attribute and the "low risk" label
// for the flood class attribute, whenever those attributes are present.
// Labels are resolved by name against the dataset's distinct values, not by
// position, since label sets vary by dataset and locale ("Low" vs
// "Low Risk"). Attributes or labels absent from the dataset are skipped.
func DefaultPredicates(ds *Dataset, cfg FilterDefaults) []Predicate {
	var preds []Predicate

	if ds.Schema.Has(cfg.ClassAttr) {
		if label := firstLabel(ds.DistinctValues(cfg.ClassAttr), cfg.ClassLabels); label != "" {
			preds = append(preds, Predicate{Attr: cfg.ClassAttr, Value: label})
		}
	}
	if ds.Schema.Has(cfg.RiskAttr) {
		if label := firstLabel(ds.DistinctValues(cfg.RiskAttr), cfg.RiskLabels); label != "" {
			preds = append(preds, Predicate{Attr: cfg.RiskAttr, Value: label})
		}
	}
	return preds
}

// firstLabel returns the first preferred label that occurs among the
// dataset's distinct values.
func firstLabel(values []string, preferred []string) string {
	present := make(map[string]struct{}, len(values))
	for _, v := range values {
		present[v] = struct{}{}
	}
	for _, p := range preferred {
		if _, ok := present[p]; ok {
			return p
		}
	}
	return ""
}

// DisplayColumn pairs an attribute name with its human-readable label for
// tooltip and table rendering.
type DisplayColumn struct {
	Attr  string `json:"attr" yaml:"column"`
	Label string `json:"label" yaml:"label"`
}

// DisplayValue is one rendered tooltip line.
type DisplayValue struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// DisplayRow is the projected view of one feature: its identifier plus the
// requested attribute values in the caller's order.
type DisplayRow struct {
	ID     string         `json:"id"`
	Values []DisplayValue `json:"values"`
}

// DisplayView is a reduced, ordered tabular view over a dataset, suitable
// for tooltips and tables.
type DisplayView struct {
	// Columns holds the columns actually included, in request order.
	// Requested columns absent from the schema are dropped here too.
	Columns []DisplayColumn
	Rows    []DisplayRow
}

// Project selects a subset of attributes (plus the identifier) for display.
// Requested columns absent from the schema are skipped rather than failing,
// and the caller's ordering is preserved so tooltip rendering stays
// deterministic. Features missing a value for a present column get a nil
// value in that position.
func Project(ds *Dataset, columns []DisplayColumn) *DisplayView {
	kept := make([]DisplayColumn, 0, len(columns))
	for _, c := range columns {
		if ds.Schema.Has(c.Attr) {
			kept = append(kept, c)
		}
	}

	view := &DisplayView{
		Columns: kept,
		Rows:    make([]DisplayRow, 0, len(ds.Features)),
	}
	for _, f := range ds.Features {
		row := DisplayRow{ID: f.ID, Values: make([]DisplayValue, 0, len(kept))}
		for _, c := range kept {
			var v any
			if value, ok := f.Attributes[c.Attr]; ok {
				v = value
			}
			row.Values = append(row.Values, DisplayValue{Label: c.Label, Value: v})
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}
