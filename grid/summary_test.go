package grid

import (
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeFixture(t *testing.T) {
	ds := loadFixture(t, 0.0001)
	s := Summarize(ds, DefaultConfig())

	assert.Equal(t, 4, s.TotalFeatures)
	assert.Equal(t, map[string]int{"High": 1, "Medium": 1, "Low": 1}, s.ClassCounts)
	assert.Equal(t, 1, s.HighCount)
	assert.InDelta(t, 0.25, s.HighShare, 1e-9)

	assert.True(t, s.HasPopulation)
	assert.InDelta(t, 2450, s.TotalPopulation, 1e-9)

	assert.True(t, s.HasAccess)
	assert.Equal(t, 2, s.AccessCount)

	assert.True(t, s.HasScore)
	assert.InDelta(t, 0.12, s.ScoreMin, 1e-9)
	assert.InDelta(t, 0.91, s.ScoreMax, 1e-9)

	// Anchors sit at the square centers, lon 106.005..106.035.
	assert.InDelta(t, 106.02, s.Center[0], 0.001)
	assert.InDelta(t, -6.295, s.Center[1], 0.001)
}

func TestSummarizeFilteredView(t *testing.T) {
	ds := loadFixture(t, 0.0001)
	filtered := Filter(ds, []Predicate{{Attr: "flood_class", Value: "Low"}})

	s := Summarize(filtered, DefaultConfig())
	assert.Equal(t, 3, s.TotalFeatures)
	assert.InDelta(t, 1650, s.TotalPopulation, 1e-9)
	assert.Equal(t, 1, s.HighCount)
}

func TestSummarizeMissingColumns(t *testing.T) {
	path := writeGeoJSONFile(t, []*geojson.Feature{
		gridFeature("bare", squareRing(0, 0, 0.01), map[string]any{"name": "x"}),
	})
	ds, err := buildDataset(path, 0.0001)
	require.NoError(t, err)

	s := Summarize(ds, DefaultConfig())
	assert.Equal(t, 1, s.TotalFeatures)
	assert.Nil(t, s.ClassCounts)
	assert.False(t, s.HasPopulation)
	assert.False(t, s.HasAccess)
	assert.False(t, s.HasScore)
}

func TestSummarizeEmptyView(t *testing.T) {
	ds := loadFixture(t, 0.0001)
	empty := Filter(ds, []Predicate{{Attr: "retail_class", Value: "Nonexistent"}})

	s := Summarize(empty, DefaultConfig())
	assert.Equal(t, 0, s.TotalFeatures)
	assert.Equal(t, 0.0, s.HighShare)
	assert.Equal(t, [2]float64{0, 0}, [2]float64{s.Center[0], s.Center[1]})
}
