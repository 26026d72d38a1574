package session

import (
	"errors"
	"fmt"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/analysis"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/profile"
)

// MeasureNuclear segments a sampled membrane profile at the trace anchors and
// computes the top-percent mean per stroke. Segment slices share a boundary
// pixel with their neighbor, so adjacent strokes each count it. Strokes whose
// selection comes up empty are skipped; at least one stroke must survive.
func MeasureNuclear(prof []float64, anchors []profile.Anchor, thresholdPercent float64) (*NuclearMeasurement, error) {
	boundaries, err := profile.SegmentBoundaries(anchors, len(prof))
	if err != nil {
		return nil, err
	}
	m := &NuclearMeasurement{
		FullProfile:       prof,
		SegmentBoundaries: boundaries,
	}
	for seg := 0; seg < len(boundaries)-1; seg++ {
		values := profile.SegmentValues(prof, boundaries, seg)
		if len(values) == 0 {
			continue
		}
		res, err := analysis.TopPercentMean(values, thresholdPercent)
		if errors.Is(err, analysis.ErrEmptySelection) {
			continue
		}
		if err != nil {
			return nil, err
		}
		m.Strokes = append(m.Strokes, StrokeResult{
			SegmentNumber: seg + 1,
			StartIndex:    boundaries[seg],
			EndIndex:      boundaries[seg+1],
			RawValues:     values,
			TopValues:     res.TopValues,
			Average:       res.Mean,
		})
		m.StrokeAverages = append(m.StrokeAverages, res.Mean)
	}
	if len(m.StrokeAverages) == 0 {
		return nil, fmt.Errorf("no usable segments in profile of %d samples: %w", len(prof), analysis.ErrEmptySelection)
	}
	m.OverallMean = analysis.Mean(m.StrokeAverages)
	return m, nil
}

// MeasureCytoplasm runs the top-percent selection over a whole cytoplasm
// profile.
func MeasureCytoplasm(prof []float64, thresholdPercent float64) (*CytoplasmMeasurement, error) {
	res, err := analysis.TopPercentMean(prof, thresholdPercent)
	if err != nil {
		return nil, err
	}
	return &CytoplasmMeasurement{RawProfile: prof, Result: res}, nil
}
