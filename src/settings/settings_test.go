package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/analysis"
)

func TestDefaultsValid(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if s.ThresholdPercent != 50 {
		t.Fatalf("default threshold %.1f want 50", s.ThresholdPercent)
	}
	want := []float64{10, 20, 30, 40, 50, 60}
	if len(s.FixedThresholds) != len(want) {
		t.Fatalf("fixed thresholds %v want %v", s.FixedThresholds, want)
	}
	for i := range want {
		if s.FixedThresholds[i] != want[i] {
			t.Fatalf("fixed thresholds %v want %v", s.FixedThresholds, want)
		}
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.ThresholdPercent != Default().ThresholdPercent {
		t.Fatalf("empty path should return defaults, got %+v", s)
	}
}

func TestLoadOverridesAndKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nma.yaml")
	body := "threshold_percent: 30\nplots: true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.ThresholdPercent != 30 {
		t.Fatalf("threshold %.1f want 30", s.ThresholdPercent)
	}
	if !s.Plots {
		t.Fatalf("plots should be true")
	}
	if len(s.FixedThresholds) != 6 {
		t.Fatalf("unset fixed_thresholds should keep defaults, got %v", s.FixedThresholds)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit settings file")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	s := Default()
	s.ThresholdPercent = 0
	if err := s.Validate(); !errors.Is(err, analysis.ErrInvalidThreshold) {
		t.Fatalf("threshold 0: got %v want ErrInvalidThreshold", err)
	}
	s = Default()
	s.FixedThresholds = []float64{10, 120}
	if err := s.Validate(); !errors.Is(err, analysis.ErrInvalidThreshold) {
		t.Fatalf("fixed threshold 120: got %v want ErrInvalidThreshold", err)
	}
	s = Default()
	s.FixedThresholds = nil
	if err := s.Validate(); err == nil {
		t.Fatalf("empty fixed thresholds should fail validation")
	}
	s = Default()
	s.DisplayLowPercentile = 99
	s.DisplayHighPercentile = 1
	if err := s.Validate(); err == nil {
		t.Fatalf("inverted display percentiles should fail validation")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("threshold_percent: [not a number\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
