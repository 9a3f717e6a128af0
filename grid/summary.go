package grid

import (
	"math"

	"github.com/paulmach/orb"
)

// Attribute names the summary derives optional metrics from. Each metric is
// included only when its column is present in the dataset schema.
const (
	attrPopulation = "pop_dasymetric"
	attrAccess     = "access_idx"
)

// Summary aggregates the headline dashboard metrics over a dataset (usually
// an already-filtered view).
type Summary struct {
	TotalFeatures int            `json:"totalFeatures"`
	ClassCounts   map[string]int `json:"classCounts,omitempty"`

	// HighShare is the fraction of features carrying the "high potential"
	// class label, when the class attribute exists.
	HighCount int     `json:"highCount"`
	HighShare float64 `json:"highShare"`

	// TotalPopulation sums pop_dasymetric when present.
	TotalPopulation float64 `json:"totalPopulation"`
	HasPopulation   bool    `json:"hasPopulation"`

	// AccessCount counts features with access_idx == 1 when present.
	AccessCount int  `json:"accessCount"`
	HasAccess   bool `json:"hasAccess"`

	// Score range for the configured score column, when present and at
	// least one value exists.
	ScoreMin float64 `json:"scoreMin"`
	ScoreMax float64 `json:"scoreMax"`
	HasScore bool    `json:"hasScore"`

	// Center is the mean of feature anchors, the initial map viewport.
	Center orb.Point `json:"center"`
}

// Summarize computes the dashboard metrics for a dataset view.
func Summarize(ds *Dataset, cfg *Config) *Summary {
	s := &Summary{TotalFeatures: ds.Len()}

	classAttr := cfg.Defaults.ClassAttr
	hasClass := ds.Schema.Has(classAttr)
	if hasClass {
		s.ClassCounts = make(map[string]int)
	}
	s.HasPopulation = ds.Schema.Has(attrPopulation)
	s.HasAccess = ds.Schema.Has(attrAccess)

	var sumLon, sumLat float64
	scoreMin, scoreMax := math.Inf(1), math.Inf(-1)

	for _, f := range ds.Features {
		sumLon += f.Anchor[0]
		sumLat += f.Anchor[1]

		if hasClass {
			if label, ok := f.AttrString(classAttr); ok {
				s.ClassCounts[label]++
			}
		}
		if s.HasPopulation {
			if pop, ok := f.AttrFloat(attrPopulation); ok && !math.IsNaN(pop) {
				s.TotalPopulation += pop
			}
		}
		if s.HasAccess {
			if access, ok := f.AttrFloat(attrAccess); ok && access == 1 {
				s.AccessCount++
			}
		}
		if score, ok := f.AttrFloat(cfg.ScoreColumn); ok && !math.IsNaN(score) {
			s.HasScore = true
			if score < scoreMin {
				scoreMin = score
			}
			if score > scoreMax {
				scoreMax = score
			}
		}
	}

	if hasClass {
		s.HighCount = s.ClassCounts[ClassHigh]
		if s.TotalFeatures > 0 {
			s.HighShare = float64(s.HighCount) / float64(s.TotalFeatures)
		}
	}
	if s.HasScore {
		s.ScoreMin, s.ScoreMax = scoreMin, scoreMax
	}
	if s.TotalFeatures > 0 {
		s.Center = orb.Point{sumLon / float64(s.TotalFeatures), sumLat / float64(s.TotalFeatures)}
	}
	return s
}
