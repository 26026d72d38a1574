package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/session"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func checkPNG(t *testing.T, data []byte, label string) {
	t.Helper()
	if len(data) < 100 {
		t.Fatalf("%s: suspiciously small PNG (%d bytes)", label, len(data))
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatalf("%s: missing PNG signature", label)
	}
}

func TestRenderNuclearPlot(t *testing.T) {
	s := reportSession(t)
	data, err := RenderNuclearPlot(s.Records[0])
	if err != nil {
		t.Fatalf("RenderNuclearPlot: %v", err)
	}
	checkPNG(t, data, "nuclear plot")
}

func TestRenderNuclearPlotNoStrokes(t *testing.T) {
	rec := &session.CellRecord{CellNumber: 1, Nuclear: &session.NuclearMeasurement{}}
	if _, err := RenderNuclearPlot(rec); err == nil {
		t.Fatal("expected error for cell without strokes")
	}
}

func TestRenderCytoplasmPlot(t *testing.T) {
	s := reportSession(t)
	data, err := RenderCytoplasmPlot(s.Records[0], s.ThresholdPercent)
	if err != nil {
		t.Fatalf("RenderCytoplasmPlot: %v", err)
	}
	checkPNG(t, data, "cytoplasm plot")
}

func TestRenderCytoplasmPlotAllAbove(t *testing.T) {
	// A flat profile keeps every sample at or above the cutoff, so only the
	// above-threshold series exists.
	s := reportSession(t)
	data, err := RenderCytoplasmPlot(s.Records[1], s.ThresholdPercent)
	if err != nil {
		t.Fatalf("RenderCytoplasmPlot: %v", err)
	}
	checkPNG(t, data, "flat cytoplasm plot")
}

func TestSavePlots(t *testing.T) {
	s := reportSession(t)
	dir := filepath.Join(t.TempDir(), "plots")
	if err := SavePlots(dir, s); err != nil {
		t.Fatalf("SavePlots: %v", err)
	}
	for _, name := range []string{
		"cell_01_nuclear.png", "cell_01_cytoplasm.png",
		"cell_02_nuclear.png", "cell_02_cytoplasm.png",
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		checkPNG(t, data, name)
	}
}
