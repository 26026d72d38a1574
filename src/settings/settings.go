package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/analysis"
)

// Settings holds the analysis defaults shared by the CLI and the tracer.
// Flags override whatever the settings file provides.
type Settings struct {
	// ThresholdPercent is the main analysis threshold: mean of the top N% of
	// sampled intensities.
	ThresholdPercent float64 `yaml:"threshold_percent"`
	// FixedThresholds drive the threshold sensitivity comparison sheet.
	FixedThresholds []float64 `yaml:"fixed_thresholds"`
	// Display stretch percentiles for the tracer view. Display only.
	DisplayLowPercentile  float64 `yaml:"display_low_percentile"`
	DisplayHighPercentile float64 `yaml:"display_high_percentile"`
	// Plots also renders standalone PNG profile plots next to the workbook.
	Plots     bool   `yaml:"plots"`
	OutputDir string `yaml:"output_dir"`
}

// Default returns the settings the original tool ships with.
func Default() Settings {
	return Settings{
		ThresholdPercent:      50,
		FixedThresholds:       []float64{10, 20, 30, 40, 50, 60},
		DisplayLowPercentile:  1,
		DisplayHighPercentile: 99,
		Plots:                 false,
		OutputDir:             ".",
	}
}

// Load reads a YAML settings file, layering it over Default. An empty path
// returns the defaults; a path that cannot be read is an error (the user
// asked for that specific file).
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("settings %s: %w", path, err)
	}
	return s, nil
}

// Validate checks every tunable against the analysis input rules.
func (s Settings) Validate() error {
	if s.ThresholdPercent <= 0 || s.ThresholdPercent > 100 {
		return fmt.Errorf("threshold_percent %.3f: %w", s.ThresholdPercent, analysis.ErrInvalidThreshold)
	}
	if len(s.FixedThresholds) == 0 {
		return fmt.Errorf("fixed_thresholds must not be empty")
	}
	for _, pct := range s.FixedThresholds {
		if pct <= 0 || pct > 100 {
			return fmt.Errorf("fixed threshold %.3f: %w", pct, analysis.ErrInvalidThreshold)
		}
	}
	if s.DisplayLowPercentile < 0 || s.DisplayHighPercentile > 100 || s.DisplayLowPercentile >= s.DisplayHighPercentile {
		return fmt.Errorf("display percentiles %.1f..%.1f out of order", s.DisplayLowPercentile, s.DisplayHighPercentile)
	}
	return nil
}
