package grid

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DatasetConfig names one selectable dataset and its source file.
type DatasetConfig struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
}

// ToleranceConfig holds the simplification presets, in degrees. Preview is
// the coarse default; FullDetail is the slower high-fidelity toggle.
type ToleranceConfig struct {
	Preview    float64 `yaml:"preview" json:"preview"`
	FullDetail float64 `yaml:"fullDetail" json:"fullDetail"`
}

// FilterDefaults configures the default filter selection: attribute names
// and the preferred labels to resolve against each dataset, in preference
// order. Label lists carry locale variants ("Low", "Low Risk").
type FilterDefaults struct {
	ClassAttr   string   `yaml:"classAttr" json:"classAttr"`
	ClassLabels []string `yaml:"classLabels" json:"classLabels"`
	RiskAttr    string   `yaml:"riskAttr" json:"riskAttr"`
	RiskLabels  []string `yaml:"riskLabels" json:"riskLabels"`
}

// Config is the dashboard configuration file.
type Config struct {
	Datasets  []DatasetConfig `yaml:"datasets" json:"datasets"`
	Tolerance ToleranceConfig `yaml:"tolerance" json:"tolerance"`

	// ScoreColumn is the continuous scoring attribute for value-mode
	// coloring. Mandatory for that mode; its absence from a dataset is a
	// schema mismatch.
	ScoreColumn string `yaml:"scoreColumn" json:"scoreColumn"`

	// LanduseColumns are candidate names for the land-use column, probed in
	// order against each dataset's schema.
	LanduseColumns []string `yaml:"landuseColumns" json:"landuseColumns"`

	Defaults FilterDefaults `yaml:"defaultFilters" json:"defaultFilters"`

	// Tooltip lists the attribute columns shown in tooltips, in render
	// order. Columns absent from a dataset are skipped at projection time.
	Tooltip []DisplayColumn `yaml:"tooltip" json:"tooltip"`

	HTTPPort int `yaml:"httpPort" json:"httpPort"`
}

// DefaultConfig returns the built-in configuration matching the reference
// retail-expansion datasets.
func DefaultConfig() *Config {
	return &Config{
		Tolerance:      ToleranceConfig{Preview: 0.0003, FullDetail: 0.0001},
		ScoreColumn:    "retail_score",
		LanduseColumns: []string{"Keterangan", "KELAS_2"},
		Defaults: FilterDefaults{
			ClassAttr:   "retail_class",
			ClassLabels: []string{"High"},
			RiskAttr:    "flood_class",
			RiskLabels:  []string{"Low", "Low Risk"},
		},
		Tooltip: []DisplayColumn{
			{Attr: "retail_class", Label: "Retail Class"},
			{Attr: "retail_score", Label: "Retail Score"},
			{Attr: "Keterangan", Label: "Land Use"},
			{Attr: "KELAS_2", Label: "Land Use"},
			{Attr: "pop_dasymetric", Label: "Population"},
			{Attr: "flood_class", Label: "Flood Class"},
			{Attr: "flood_risk_idx", Label: "Flood Risk Index"},
			{Attr: "demand_idx", Label: "Demand Index"},
			{Attr: "access_idx", Label: "Access"},
			{Attr: "akses_jalan_utama", Label: "Main Road Access"},
			{Attr: "akses_jalan_arteri", Label: "Arterial Road Access"},
			{Attr: "akses_jalan_kolektor", Label: "Collector Road Access"},
		},
		HTTPPort: 8080,
	}
}

// LoadConfig loads the dashboard configuration from a YAML file. Fields not
// set in the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	// Validate required fields
	if len(config.Datasets) == 0 {
		return nil, fmt.Errorf("at least one dataset must be defined")
	}
	for i, dc := range config.Datasets {
		if dc.Name == "" {
			return nil, fmt.Errorf("datasets[%d].name is required", i)
		}
		if dc.Path == "" {
			return nil, fmt.Errorf("datasets[%d].path is required for %s", i, dc.Name)
		}
	}
	if config.Tolerance.Preview <= 0 || config.Tolerance.FullDetail <= 0 {
		return nil, fmt.Errorf("tolerance presets must be positive")
	}
	if config.ScoreColumn == "" {
		return nil, fmt.Errorf("scoreColumn is required")
	}

	return config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DatasetPath returns the source path for a named dataset, or "" when the
// name is not configured.
func (c *Config) DatasetPath(name string) string {
	for _, dc := range c.Datasets {
		if dc.Name == name {
			return dc.Path
		}
	}
	return ""
}

// ToleranceFor returns the simplification tolerance for the detail toggle.
func (c *Config) ToleranceFor(fullDetail bool) float64 {
	if fullDetail {
		return c.Tolerance.FullDetail
	}
	return c.Tolerance.Preview
}
