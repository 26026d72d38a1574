package session

import (
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/analysis"
)

// CellThresholdPoint is one cell recomputed at one alternate threshold.
type CellThresholdPoint struct {
	NuclearMean   float64 `json:"nuclear_mean"`
	CytoplasmMean float64 `json:"cytoplasm_mean"`
	Ratio         float64 `json:"ratio"`
}

// ComparisonRow aggregates one threshold across every cell in the session,
// in session order, with summary statistics over each derived series.
type ComparisonRow struct {
	ThresholdPercent float64              `json:"threshold_percent"`
	Cells            []CellThresholdPoint `json:"cells"`
	Nuclear          Summary              `json:"nuclear"`
	Cytoplasm        Summary              `json:"cytoplasm"`
	Ratio            Summary              `json:"ratio"`
}

// RecalcNuclearMean replays the per-stroke selection of a stored nuclear
// measurement at a different threshold. Strokes whose selection comes up
// empty are skipped; 0 when nothing qualifies.
func RecalcNuclearMean(n *NuclearMeasurement, thresholdPercent float64) float64 {
	var strokeAverages []float64
	for _, st := range n.Strokes {
		res, err := analysis.TopPercentMean(st.RawValues, thresholdPercent)
		if err != nil {
			continue
		}
		strokeAverages = append(strokeAverages, res.Mean)
	}
	return analysis.Mean(strokeAverages)
}

// RecalcCytoplasmMean replays the whole-profile selection of a stored
// cytoplasm measurement at a different threshold. 0 when nothing qualifies.
func RecalcCytoplasmMean(c *CytoplasmMeasurement, thresholdPercent float64) float64 {
	res, err := analysis.TopPercentMean(c.RawProfile, thresholdPercent)
	if err != nil {
		return 0
	}
	return res.Mean
}

// CompareThresholds recomputes every cell at each given threshold. The main
// session threshold does not get special treatment: recomputing at it yields
// the stored values again.
func (s *Session) CompareThresholds(thresholds []float64) []ComparisonRow {
	rows := make([]ComparisonRow, 0, len(thresholds))
	for _, pct := range thresholds {
		row := ComparisonRow{ThresholdPercent: pct}
		nuclear := make([]float64, 0, len(s.Records))
		cytoplasm := make([]float64, 0, len(s.Records))
		ratios := make([]float64, 0, len(s.Records))
		for _, rec := range s.Records {
			n := RecalcNuclearMean(rec.Nuclear, pct)
			c := RecalcCytoplasmMean(rec.Cytoplasm, pct)
			r := analysis.Ratio(n, c)
			row.Cells = append(row.Cells, CellThresholdPoint{NuclearMean: n, CytoplasmMean: c, Ratio: r})
			nuclear = append(nuclear, n)
			cytoplasm = append(cytoplasm, c)
			ratios = append(ratios, r)
		}
		row.Nuclear = Summarize(nuclear)
		row.Cytoplasm = Summarize(cytoplasm)
		row.Ratio = Summarize(ratios)
		rows = append(rows, row)
	}
	return rows
}
