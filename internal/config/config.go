package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models rostr.yml, the per-workspace preferences. Dates are always
// stored as ISO-8601 regardless of preference: allocation window comparisons
// are lexicographic and depend on the fixed-width format.
type Config struct {
	DefaultCapacity   float64 `yaml:"default_capacity" json:"default_capacity"`
	ForecastMonths    int     `yaml:"forecast_months" json:"forecast_months"`
	PersonCodeLen     int     `yaml:"person_shortcode_len" json:"person_shortcode_len"`
	ProjectCodeLen    int     `yaml:"project_shortcode_len" json:"project_shortcode_len"`
	UtilizationTarget float64 `yaml:"utilization_target" json:"utilization_target"`
}

// Default returns the built-in preferences.
func Default() Config {
	return Config{
		DefaultCapacity:   40,
		ForecastMonths:    3,
		PersonCodeLen:     4,
		ProjectCodeLen:    6,
		UtilizationTarget: 75.0,
	}
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "rostr.yml")
}

// Load reads the workspace config. A missing file yields the defaults.
func Load(workspace string) (Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config, with unset keys taking defaults.
func FromYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate ensures the preferences are usable.
func (c Config) Validate() error {
	if c.DefaultCapacity <= 0 {
		return fmt.Errorf("default_capacity must be positive")
	}
	if c.ForecastMonths < 1 {
		return fmt.Errorf("forecast_months must be at least 1")
	}
	if c.PersonCodeLen < 1 || c.ProjectCodeLen < 1 {
		return fmt.Errorf("shortcode lengths must be at least 1")
	}
	if c.UtilizationTarget <= 0 || c.UtilizationTarget > 200 {
		return fmt.Errorf("utilization_target must be in (0, 200]")
	}
	return nil
}

// GenerateDefault returns the default config YAML for rostr.yml.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `# rostr workspace preferences
default_capacity: 40
forecast_months: 3
person_shortcode_len: 4
project_shortcode_len: 6
utilization_target: 75.0
`
