package grid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigMergesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
datasets:
  - name: jakarta
    path: /data/jakarta.gpkg
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Len(t, cfg.Datasets, 1)
	assert.Equal(t, "jakarta", cfg.Datasets[0].Name)

	// Everything the file leaves out keeps the built-in value.
	assert.Equal(t, 0.0003, cfg.Tolerance.Preview)
	assert.Equal(t, 0.0001, cfg.Tolerance.FullDetail)
	assert.Equal(t, "retail_score", cfg.ScoreColumn)
	assert.Equal(t, []string{"Keterangan", "KELAS_2"}, cfg.LanduseColumns)
	assert.Equal(t, "retail_class", cfg.Defaults.ClassAttr)
	assert.Equal(t, []string{"Low", "Low Risk"}, cfg.Defaults.RiskLabels)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.NotEmpty(t, cfg.Tooltip)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfigFile(t, `
datasets:
  - name: bandung
    path: /data/bandung.shp
tolerance:
  preview: 0.001
  fullDetail: 0.0002
scoreColumn: demand_idx
httpPort: 9000
defaultFilters:
  classAttr: potential
  classLabels: ["Very High", "High"]
  riskAttr: hazard
  riskLabels: ["None"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.001, cfg.Tolerance.Preview)
	assert.Equal(t, 0.0002, cfg.Tolerance.FullDetail)
	assert.Equal(t, "demand_idx", cfg.ScoreColumn)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, "potential", cfg.Defaults.ClassAttr)
	assert.Equal(t, []string{"Very High", "High"}, cfg.Defaults.ClassLabels)
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no datasets",
			yaml:    "httpPort: 8080\n",
			wantErr: "at least one dataset",
		},
		{
			name: "missing dataset name",
			yaml: `
datasets:
  - path: /data/a.gpkg
`,
			wantErr: "name is required",
		},
		{
			name: "missing dataset path",
			yaml: `
datasets:
  - name: a
`,
			wantErr: "path is required",
		},
		{
			name: "non-positive tolerance",
			yaml: `
datasets:
  - name: a
    path: /data/a.gpkg
tolerance:
  preview: 0
  fullDetail: 0.0001
`,
			wantErr: "tolerance presets must be positive",
		},
		{
			name: "empty score column",
			yaml: `
datasets:
  - name: a
    path: /data/a.gpkg
scoreColumn: ""
`,
			wantErr: "scoreColumn is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfigFile(t, tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Datasets = []DatasetConfig{{Name: "jakarta", Path: "/data/jakarta.gpkg"}}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDatasetPathLookup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Datasets = []DatasetConfig{
		{Name: "jakarta", Path: "/data/jakarta.gpkg"},
		{Name: "bandung", Path: "/data/bandung.shp"},
	}

	assert.Equal(t, "/data/bandung.shp", cfg.DatasetPath("bandung"))
	assert.Equal(t, "", cfg.DatasetPath("surabaya"))
}

func TestToleranceFor(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.0003, cfg.ToleranceFor(false))
	assert.Equal(t, 0.0001, cfg.ToleranceFor(true))
}
