package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFeatureCollectionClassMode(t *testing.T) {
	ds := loadFixture(t, 0.0001)
	rc, err := BuildFeatureCollection(ds, DefaultConfig(), ColorByClass)
	require.NoError(t, err)

	require.Len(t, rc.Features, 4)
	assert.Equal(t, ColorByClass, rc.Mode)

	wantFills := map[string][4]uint8{
		"g1": {220, 38, 38, 160},
		"g2": {245, 158, 11, 160},
		"g3": {16, 185, 129, 160},
		"g4": {160, 160, 160, 120},
	}
	for _, f := range rc.Features {
		assert.Equal(t, wantFills[f.ID], f.FillColor, "fill for %s", f.ID)
		require.NotEmpty(t, f.Coordinates)
		ring := f.Coordinates[0]
		assert.Equal(t, ring[0], ring[len(ring)-1], "ring for %s not closed", f.ID)
	}
}

func TestBuildFeatureCollectionValueMode(t *testing.T) {
	ds := loadFixture(t, 0.0001)
	rc, err := BuildFeatureCollection(ds, DefaultConfig(), ColorByValue)
	require.NoError(t, err)

	byID := make(map[string]RenderFeature)
	for _, f := range rc.Features {
		byID[f.ID] = f
	}

	// g3 holds the minimum score, g1 the maximum.
	assert.Equal(t, [4]uint8{255, 0, 0, 120}, byID["g3"].FillColor)
	assert.Equal(t, [4]uint8{0, 255, 0, 220}, byID["g1"].FillColor)
	// g4 has no score and gets the missing-value sentinel.
	assert.Equal(t, [4]uint8{200, 200, 200, 80}, byID["g4"].FillColor)
}

func TestBuildFeatureCollectionValueModeMissingColumn(t *testing.T) {
	ds := loadFixture(t, 0.0001)
	cfg := DefaultConfig()
	cfg.ScoreColumn = "no_such_score"

	_, err := BuildFeatureCollection(ds, cfg, ColorByValue)
	var schemaErr *SchemaMismatchError
	require.Error(t, err)
	assert.True(t, asError(err, &schemaErr), "want SchemaMismatchError, got %T", err)
}

func TestBuildFeatureCollectionTooltips(t *testing.T) {
	ds := loadFixture(t, 0.0001)
	rc, err := BuildFeatureCollection(ds, DefaultConfig(), ColorByClass)
	require.NoError(t, err)

	g1 := rc.Features[0]
	require.Equal(t, "g1", g1.ID)
	require.NotEmpty(t, g1.Tooltip)

	// The configured column order survives projection; absent columns such as
	// KELAS_2 or flood_risk_idx are skipped entirely.
	assert.Equal(t, "Retail Class", g1.Tooltip[0].Label)
	assert.Equal(t, "High", g1.Tooltip[0].Value)
	for _, line := range g1.Tooltip {
		assert.NotEqual(t, "Flood Risk Index", line.Label)
	}

	var landuse *DisplayValue
	for i := range g1.Tooltip {
		if g1.Tooltip[i].Label == "Land Use" {
			landuse = &g1.Tooltip[i]
			break
		}
	}
	require.NotNil(t, landuse, "land-use line missing from tooltip")
	assert.Equal(t, "Permukiman", landuse.Value)
}

func TestBuildFeatureCollectionCenterAndWarnings(t *testing.T) {
	ds := loadFixture(t, 0.0001)
	rc, err := BuildFeatureCollection(ds, DefaultConfig(), ColorByClass)
	require.NoError(t, err)

	assert.InDelta(t, 106.02, rc.Center[0], 0.001)
	assert.InDelta(t, -6.295, rc.Center[1], 0.001)
	assert.Empty(t, rc.Warnings)
}
