// Package report builds the publication workbook and the standalone profile
// plots from a finished analysis session.
package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/session"
)

// round3 matches the workbook's 3-decimal presentation everywhere.
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// fmtNum renders a rounded value the way the text cells print it.
func fmtNum(v float64) string { return strconv.FormatFloat(round3(v), 'f', -1, 64) }

// pctLabel renders a threshold percentage without trailing zeros.
func pctLabel(pct float64) string { return strconv.FormatFloat(pct, 'f', -1, 64) }

func meanSE(sum session.Summary) string { return fmtNum(sum.Mean) + " +/- " + fmtNum(sum.SE) }

// cellID zero-pads cell numbers to two digits, the labeling used on sheet
// names, chart titles and row labels alike.
func cellID(n int) string { return fmt.Sprintf("%02d", n) }

// axis converts 1-based column/row to an A1 reference.
func axis(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func absRef(sheet string, col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row, true)
	return sheet + "!" + name
}

func absRange(sheet string, col, fromRow, toRow int) string {
	from, _ := excelize.CoordinatesToCellName(col, fromRow, true)
	to, _ := excelize.CoordinatesToCellName(col, toRow, true)
	return sheet + "!" + from + ":" + to
}

// SuggestedFilename is the default export name for a given day.
func SuggestedFilename(t time.Time) string {
	return "Nuclear_Analysis_Publication_" + t.Format("060102") + ".xlsx"
}

// EnsureXLSX appends the .xlsx extension when the name lacks it.
func EnsureXLSX(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return name
	}
	return name + ".xlsx"
}

// BuildWorkbook assembles the workbook: Summary, Threshold Comparison, one
// Cell_NN sheet per cell with embedded scatter charts, and Metadata.
func BuildWorkbook(s *session.Session, thresholds []float64, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	if err := writeSummarySheet(f, s, generatedAt); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeComparisonSheet(f, s, thresholds); err != nil {
		f.Close()
		return nil, err
	}
	for _, rec := range s.Records {
		if err := writeCellSheet(f, s, rec); err != nil {
			f.Close()
			return nil, err
		}
	}
	if err := writeMetadataSheet(f, s, generatedAt); err != nil {
		f.Close()
		return nil, err
	}

	f.DeleteSheet(defaultSheet)
	if idx, err := f.GetSheetIndex("Summary"); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// Write builds the workbook and saves it to path.
func Write(s *session.Session, thresholds []float64, path string, generatedAt time.Time) error {
	f, err := BuildWorkbook(s, thresholds, generatedAt)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s *session.Session, generatedAt time.Time) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	_ = f.SetCellStr(sheet, "A1", "Nuclear Membrane & Cytoplasm Fluorescence Analysis")

	info := [][2]string{
		{"Generated:", generatedAt.Format("2006-01-02 15:04:05")},
		{"Total cells analyzed:", strconv.Itoa(len(s.Records))},
		{"Image name:", s.ImageName},
		{"Threshold percentage:", pctLabel(s.ThresholdPercent) + "%"},
		{"Chart style:", "Publication-ready with separate data series"},
		{"Nuclear membrane:", "Each stroke plotted as separate colored series"},
		{"Cytoplasm:", "Above-threshold (forest green) vs below-threshold (light gray)"},
	}
	row := 3
	for _, kv := range info {
		_ = f.SetCellStr(sheet, axis(1, row), kv[0])
		_ = f.SetCellStr(sheet, axis(2, row), kv[1])
		row++
	}
	row++

	headers := []string{"Cell ID", "Nuclear Mean Intensity", "Cytoplasm Mean Intensity",
		"Nuclear/Cytoplasm Ratio", "Stroke Count", "Cytoplasm Pixels"}
	for i, h := range headers {
		_ = f.SetCellStr(sheet, axis(i+1, row), h)
	}
	row++
	for _, rec := range s.Records {
		_ = f.SetCellStr(sheet, axis(1, row), "Cell "+cellID(rec.CellNumber))
		_ = f.SetCellFloat(sheet, axis(2, row), round3(rec.NuclearMean), -1, 64)
		_ = f.SetCellFloat(sheet, axis(3, row), round3(rec.CytoplasmMean), -1, 64)
		_ = f.SetCellFloat(sheet, axis(4, row), round3(rec.Ratio), -1, 64)
		_ = f.SetCellInt(sheet, axis(5, row), int64(len(rec.Nuclear.Strokes)))
		_ = f.SetCellInt(sheet, axis(6, row), int64(len(rec.Cytoplasm.RawProfile)))
		row++
	}

	if len(s.Records) > 0 {
		row += 2
		_ = f.SetCellStr(sheet, axis(1, row), "Summary Statistics")
		row++
		for i, h := range []string{"Parameter", "Mean +/- SE", "n"} {
			_ = f.SetCellStr(sheet, axis(i+1, row), h)
		}
		row++
		stats := []struct {
			name string
			sum  session.Summary
		}{
			{"Nuclear Membrane Intensity", session.Summarize(s.NuclearMeans())},
			{"Cytoplasm Intensity", session.Summarize(s.CytoplasmMeans())},
			{"Nuclear/Cytoplasm Ratio", session.Summarize(s.Ratios())},
		}
		for _, st := range stats {
			_ = f.SetCellStr(sheet, axis(1, row), st.name)
			_ = f.SetCellStr(sheet, axis(2, row), meanSE(st.sum))
			_ = f.SetCellInt(sheet, axis(3, row), int64(st.sum.N))
			row++
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 26)
	_ = f.SetColWidth(sheet, "B", "F", 22)
	return nil
}

func writeComparisonSheet(f *excelize.File, s *session.Session, thresholds []float64) error {
	const sheet = "Threshold Comparison"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	_ = f.SetCellStr(sheet, "A1", "Nuclear/Cytoplasmic Intensity Ratio - Threshold Sensitivity Analysis")
	_ = f.SetCellStr(sheet, "A3", "This analysis shows how the nuclear/cytoplasmic intensity ratio changes")
	_ = f.SetCellStr(sheet, "A4", "with different threshold values for defining 'top intensity' pixels.")
	_ = f.SetCellStr(sheet, "A5", "Main analysis threshold: "+pctLabel(s.ThresholdPercent)+"%")

	rows := s.CompareThresholds(thresholds)

	const headerRow = 7
	_ = f.SetCellStr(sheet, axis(1, headerRow), "Cell Number")
	col := 2
	for _, r := range rows {
		label := pctLabel(r.ThresholdPercent) + "%"
		_ = f.SetCellStr(sheet, axis(col, headerRow), "Nuclear Mean @"+label)
		_ = f.SetCellStr(sheet, axis(col+1, headerRow), "Cytoplasm Mean @"+label)
		_ = f.SetCellStr(sheet, axis(col+2, headerRow), "Ratio @"+label)
		col += 3
	}

	row := headerRow + 1
	for i := range s.Records {
		_ = f.SetCellStr(sheet, axis(1, row), "Cell "+cellID(i+1))
		col = 2
		for _, r := range rows {
			pt := r.Cells[i]
			_ = f.SetCellFloat(sheet, axis(col, row), round3(pt.NuclearMean), -1, 64)
			_ = f.SetCellFloat(sheet, axis(col+1, row), round3(pt.CytoplasmMean), -1, 64)
			_ = f.SetCellFloat(sheet, axis(col+2, row), round3(pt.Ratio), -1, 64)
			col += 3
		}
		row++
	}

	row += 2
	_ = f.SetCellStr(sheet, axis(1, row), "Summary Statistics (Mean +/- SE across all cells)")
	row++
	for i, h := range []string{"Threshold", "Nuclear Mean +/- SE", "Cytoplasm Mean +/- SE", "Ratio Mean +/- SE"} {
		_ = f.SetCellStr(sheet, axis(i+1, row), h)
	}
	row++
	for _, r := range rows {
		_ = f.SetCellStr(sheet, axis(1, row), pctLabel(r.ThresholdPercent)+"%")
		_ = f.SetCellStr(sheet, axis(2, row), meanSE(r.Nuclear))
		_ = f.SetCellStr(sheet, axis(3, row), meanSE(r.Cytoplasm))
		_ = f.SetCellStr(sheet, axis(4, row), meanSE(r.Ratio))
		row++
	}

	row += 2
	_ = f.SetCellStr(sheet, axis(1, row), "Interpretation:")
	_ = f.SetCellStr(sheet, axis(1, row+1), "- Lower thresholds (10-30%) include more pixels but may include background")
	_ = f.SetCellStr(sheet, axis(1, row+2), "- Higher thresholds (50-60%) are more selective but may miss dim signals")
	_ = f.SetCellStr(sheet, axis(1, row+3), "- Compare ratios across thresholds to assess measurement robustness")

	_ = f.SetColWidth(sheet, "A", "S", 18)
	return nil
}

func writeCellSheet(f *excelize.File, s *session.Session, rec *session.CellRecord) error {
	id := cellID(rec.CellNumber)
	sheet := "Cell_" + id
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	_ = f.SetCellStr(sheet, "A1", "Cell "+id+" - Publication-Ready Analysis")

	// Nuclear membrane block: one column per stroke so every stroke charts
	// as its own series.
	_ = f.SetCellStr(sheet, "A3", "NUCLEAR MEMBRANE - Data for Separate Stroke Series")
	const nucHeaderRow = 4
	_ = f.SetCellStr(sheet, axis(1, nucHeaderRow), "Profile Index")
	strokes := rec.Nuclear.Strokes
	for k := range strokes {
		_ = f.SetCellStr(sheet, axis(k+2, nucHeaderRow), fmt.Sprintf("Stroke %d", k+1))
	}

	nucStart := nucHeaderRow + 1
	row := nucStart
	for j, v := range rec.Nuclear.FullProfile {
		_ = f.SetCellInt(sheet, axis(1, row), int64(j))
		// A shared boundary index charts under the first stroke containing it.
		for k, st := range strokes {
			if j >= st.StartIndex && j <= st.EndIndex {
				_ = f.SetCellFloat(sheet, axis(k+2, row), round3(v), -1, 64)
				break
			}
		}
		row++
	}
	nucEnd := row - 1

	if len(strokes) > 0 && nucEnd >= nucStart {
		series := make([]excelize.ChartSeries, 0, len(strokes))
		for k := range strokes {
			series = append(series, excelize.ChartSeries{
				Name:       absRef(sheet, k+2, nucHeaderRow),
				Categories: absRange(sheet, 1, nucStart, nucEnd),
				Values:     absRange(sheet, k+2, nucStart, nucEnd),
			})
		}
		nucChart := &excelize.Chart{
			Type:   excelize.Scatter,
			Series: series,
			Title:  []excelize.RichTextRun{{Text: "Nuclear Membrane Profile - Cell " + id}},
			XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Profile Index (pixels)"}}},
			YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Fluorescence Intensity (a.u.)"}}, MajorGridLines: true},
			Legend: excelize.ChartLegend{Position: "right"},
		}
		if err := f.AddChart(sheet, axis(len(strokes)+3, 3), nucChart); err != nil {
			return fmt.Errorf("nuclear chart for %s: %w", sheet, err)
		}
	}

	// Cytoplasm block: above/below threshold split against the stored cutoff
	// (the lowest retained intensity).
	row = nucEnd + 6
	cytoSection := row
	_ = f.SetCellStr(sheet, axis(1, cytoSection), "CYTOPLASM - Data for Above/Below Threshold Series")
	cytoHeaderRow := cytoSection + 1
	_ = f.SetCellStr(sheet, axis(1, cytoHeaderRow), "Profile Index")
	_ = f.SetCellStr(sheet, axis(2, cytoHeaderRow), "Above Threshold ("+pctLabel(s.ThresholdPercent)+"%)")
	_ = f.SetCellStr(sheet, axis(3, cytoHeaderRow), "Below Threshold")

	cytoStart := cytoHeaderRow + 1
	row = cytoStart
	for j, v := range rec.Cytoplasm.RawProfile {
		_ = f.SetCellInt(sheet, axis(1, row), int64(j))
		if v >= rec.Cytoplasm.Result.Cutoff {
			_ = f.SetCellFloat(sheet, axis(2, row), round3(v), -1, 64)
		} else {
			_ = f.SetCellFloat(sheet, axis(3, row), round3(v), -1, 64)
		}
		row++
	}
	cytoEnd := row - 1

	if cytoEnd >= cytoStart {
		cytoChart := &excelize.Chart{
			Type: excelize.Scatter,
			Series: []excelize.ChartSeries{
				{
					Name:       absRef(sheet, 2, cytoHeaderRow),
					Categories: absRange(sheet, 1, cytoStart, cytoEnd),
					Values:     absRange(sheet, 2, cytoStart, cytoEnd),
				},
				{
					Name:       absRef(sheet, 3, cytoHeaderRow),
					Categories: absRange(sheet, 1, cytoStart, cytoEnd),
					Values:     absRange(sheet, 3, cytoStart, cytoEnd),
				},
			},
			Title:  []excelize.RichTextRun{{Text: "Cytoplasm Profile - Cell " + id + " (Top " + pctLabel(s.ThresholdPercent) + "% Highlighted)"}},
			XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Profile Index (pixels)"}}},
			YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Fluorescence Intensity (a.u.)"}}, MajorGridLines: true},
			Legend: excelize.ChartLegend{Position: "right"},
		}
		if err := f.AddChart(sheet, axis(5, cytoSection), cytoChart); err != nil {
			return fmt.Errorf("cytoplasm chart for %s: %w", sheet, err)
		}
	}

	// Per-stroke summary table.
	row = cytoEnd + 6
	_ = f.SetCellStr(sheet, axis(1, row), "Summary Data")
	row++
	sumHeaders := []string{"Stroke", "Start Index", "End Index", "Pixel Count",
		"Top " + pctLabel(s.ThresholdPercent) + "% Count", "Average"}
	for i, h := range sumHeaders {
		_ = f.SetCellStr(sheet, axis(i+1, row), h)
	}
	row++
	for _, st := range strokes {
		_ = f.SetCellInt(sheet, axis(1, row), int64(st.SegmentNumber))
		_ = f.SetCellInt(sheet, axis(2, row), int64(st.StartIndex))
		_ = f.SetCellInt(sheet, axis(3, row), int64(st.EndIndex))
		_ = f.SetCellInt(sheet, axis(4, row), int64(len(st.RawValues)))
		_ = f.SetCellInt(sheet, axis(5, row), int64(len(st.TopValues)))
		_ = f.SetCellFloat(sheet, axis(6, row), round3(st.Average), -1, 64)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "F", 16)
	return nil
}

func writeMetadataSheet(f *excelize.File, s *session.Session, generatedAt time.Time) error {
	const sheet = "Metadata"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	_ = f.SetCellStr(sheet, "A1", "Experimental Metadata")

	params := [][2]string{
		{"Analysis date:", generatedAt.Format("2006-01-02 15:04:05")},
		{"Image file:", s.ImageName},
		{"Threshold percentage:", pctLabel(s.ThresholdPercent) + "%"},
		{"Analysis method:", "Stroke-by-stroke nuclear membrane, threshold-based cytoplasm"},
		{"Chart visualization:", "Publication-ready separate data series"},
		{"Nuclear membrane:", "Each polyline stroke plotted as distinct colored series"},
		{"Cytoplasm:", "Above-threshold (forest green) vs below-threshold (light gray)"},
		{"Statistical analysis:", "Mean +/- standard error"},
	}
	row := 3
	for _, kv := range params {
		_ = f.SetCellStr(sheet, axis(1, row), kv[0])
		_ = f.SetCellStr(sheet, axis(2, row), kv[1])
		row++
	}

	if len(s.Metadata) > 0 {
		row += 2
		_ = f.SetCellStr(sheet, axis(1, row), "Microscope Parameters")
		row++
		_ = f.SetCellStr(sheet, axis(1, row), "Parameter")
		_ = f.SetCellStr(sheet, axis(2, row), "Value")
		row++
		for _, field := range s.Metadata {
			_ = f.SetCellStr(sheet, axis(1, row), field.Name)
			_ = f.SetCellStr(sheet, axis(2, row), field.Value)
			row++
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 30)
	return nil
}
