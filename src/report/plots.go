package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/session"
)

// pointStyle returns a style that renders points only (no connecting line).
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    4,
		DotColor:    col,
	}
}

var (
	aboveColor = drawing.Color{R: 34, G: 139, B: 34, A: 255}   // forest green
	belowColor = drawing.Color{R: 211, G: 211, B: 211, A: 255} // light gray
)

// padSingle keeps go-chart happy with one-point series by duplicating the
// point one index later.
func padSingle(xs, ys []float64) ([]float64, []float64) {
	if len(xs) == 1 {
		return []float64{xs[0], xs[0] + 1}, []float64{ys[0], ys[0]}
	}
	return xs, ys
}

// yRange pins the intensity axis to a zero baseline with a little headroom.
// Flat profiles would otherwise collapse the axis to a zero-height range.
func yRange(series []chart.Series) *chart.ContinuousRange {
	maxY := 0.0
	for _, s := range series {
		cs, ok := s.(chart.ContinuousSeries)
		if !ok {
			continue
		}
		for _, v := range cs.YValues {
			if v > maxY {
				maxY = v
			}
		}
	}
	if maxY <= 0 {
		maxY = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: maxY * 1.05}
}

func renderPNG(ch chart.Chart) ([]byte, error) {
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderNuclearPlot draws one cell's membrane profile with each stroke as its
// own point series.
func RenderNuclearPlot(rec *session.CellRecord) ([]byte, error) {
	series := make([]chart.Series, 0, len(rec.Nuclear.Strokes))
	for k, st := range rec.Nuclear.Strokes {
		var xs, ys []float64
		for j := st.StartIndex; j <= st.EndIndex && j < len(rec.Nuclear.FullProfile); j++ {
			xs = append(xs, float64(j))
			ys = append(ys, rec.Nuclear.FullProfile[j])
		}
		if len(xs) == 0 {
			continue
		}
		xs, ys = padSingle(xs, ys)
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("Stroke %d", k+1),
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(chart.GetDefaultColor(k)),
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("cell %02d has no stroke data to plot", rec.CellNumber)
	}
	ch := chart.Chart{
		Title:      "Nuclear Membrane Profile - Cell " + cellID(rec.CellNumber),
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 24}},
		XAxis:      chart.XAxis{Name: "Profile Index (pixels)"},
		YAxis:      chart.YAxis{Name: "Fluorescence Intensity (a.u.)", Range: yRange(series)},
		Width:      640,
		Height:     440,
		Series:     series,
	}
	out, err := renderPNG(ch)
	if err != nil {
		return nil, fmt.Errorf("render nuclear plot for cell %02d: %w", rec.CellNumber, err)
	}
	return out, nil
}

// RenderCytoplasmPlot draws one cell's cytoplasm profile split into above-
// and below-threshold point series.
func RenderCytoplasmPlot(rec *session.CellRecord, thresholdPercent float64) ([]byte, error) {
	var aboveX, aboveY, belowX, belowY []float64
	cutoff := rec.Cytoplasm.Result.Cutoff
	for j, v := range rec.Cytoplasm.RawProfile {
		if v >= cutoff {
			aboveX = append(aboveX, float64(j))
			aboveY = append(aboveY, v)
		} else {
			belowX = append(belowX, float64(j))
			belowY = append(belowY, v)
		}
	}
	var series []chart.Series
	if len(aboveX) > 0 {
		aboveX, aboveY = padSingle(aboveX, aboveY)
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("Above Threshold (Top %s%%)", pctLabel(thresholdPercent)),
			XValues: aboveX,
			YValues: aboveY,
			Style:   pointStyle(aboveColor),
		})
	}
	if len(belowX) > 0 {
		belowX, belowY = padSingle(belowX, belowY)
		series = append(series, chart.ContinuousSeries{
			Name:    "Below Threshold",
			XValues: belowX,
			YValues: belowY,
			Style:   pointStyle(belowColor),
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("cell %02d has no cytoplasm data to plot", rec.CellNumber)
	}
	ch := chart.Chart{
		Title: fmt.Sprintf("Cytoplasm Profile - Cell %s (Top %s%% Highlighted)",
			cellID(rec.CellNumber), pctLabel(thresholdPercent)),
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 24}},
		XAxis:      chart.XAxis{Name: "Profile Index (pixels)"},
		YAxis:      chart.YAxis{Name: "Fluorescence Intensity (a.u.)", Range: yRange(series)},
		Width:      640,
		Height:     440,
		Series:     series,
	}
	out, err := renderPNG(ch)
	if err != nil {
		return nil, fmt.Errorf("render cytoplasm plot for cell %02d: %w", rec.CellNumber, err)
	}
	return out, nil
}

// SavePlots renders both PNGs for every cell in the session into outDir as
// cell_NN_nuclear.png and cell_NN_cytoplasm.png.
func SavePlots(outDir string, s *session.Session) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	for _, rec := range s.Records {
		id := cellID(rec.CellNumber)
		nuc, err := RenderNuclearPlot(rec)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, "cell_"+id+"_nuclear.png"), nuc, 0o644); err != nil {
			return fmt.Errorf("write nuclear plot: %w", err)
		}
		cyt, err := RenderCytoplasmPlot(rec, s.ThresholdPercent)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(outDir, "cell_"+id+"_cytoplasm.png"), cyt, 0o644); err != nil {
			return fmt.Errorf("write cytoplasm plot: %w", err)
		}
	}
	return nil
}
