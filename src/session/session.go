package session

import (
	"github.com/google/uuid"

	"github.com/mheikkil/NuclearMembraneAnalyzer/src/analysis"
	"github.com/mheikkil/NuclearMembraneAnalyzer/src/imaging"
)

// StrokeResult is the per-segment outcome of a nuclear membrane trace: the
// raw profile slice for the segment and its top-percent selection.
type StrokeResult struct {
	// SegmentNumber is 1-based, matching how cells and strokes are labeled
	// everywhere the user sees them.
	SegmentNumber int       `json:"segment_number"`
	StartIndex    int       `json:"start_index"`
	EndIndex      int       `json:"end_index"`
	RawValues     []float64 `json:"raw_values"`
	TopValues     []float64 `json:"top_values"`
	Average       float64   `json:"average"`
}

// NuclearMeasurement is one complete nuclear membrane trace: the sampled
// profile, the per-anchor boundaries, and per-stroke statistics. OverallMean
// is the mean of stroke averages, not of pooled pixels.
type NuclearMeasurement struct {
	FullProfile       []float64      `json:"full_profile"`
	SegmentBoundaries []int          `json:"segment_boundaries"`
	Strokes           []StrokeResult `json:"strokes"`
	StrokeAverages    []float64      `json:"stroke_averages"`
	OverallMean       float64        `json:"overall_mean"`
}

// CytoplasmMeasurement is one cytoplasm trace, analyzed whole rather than
// segment by segment.
type CytoplasmMeasurement struct {
	RawProfile []float64                `json:"raw_profile"`
	Result     analysis.ThresholdResult `json:"result"`
}

// CellRecord pairs the two measurements of one analyzed cell with their
// derived means and ratio. Immutable once appended to the session.
type CellRecord struct {
	CellNumber    int                   `json:"cell_number"`
	Nuclear       *NuclearMeasurement   `json:"nuclear"`
	Cytoplasm     *CytoplasmMeasurement `json:"cytoplasm"`
	NuclearMean   float64               `json:"nuclear_mean"`
	CytoplasmMean float64               `json:"cytoplasm_mean"`
	Ratio         float64               `json:"ratio"`
}

// Summary is a mean +/- standard error over one derived series.
type Summary struct {
	Mean float64 `json:"mean"`
	SE   float64 `json:"se"`
	N    int     `json:"n"`
}

// Summarize computes mean and standard error for one series.
func Summarize(values []float64) Summary {
	return Summary{Mean: analysis.Mean(values), SE: analysis.StandardError(values), N: len(values)}
}

// Session accumulates cell records for one analysis run. Append-only; owned
// by a single caller. The optional autosave writer is the only concurrent
// piece and owns its goroutine exclusively.
type Session struct {
	ID               string
	ImageName        string
	ThresholdPercent float64
	Metadata         []imaging.MetadataField
	Records          []*CellRecord

	autosave *Autosave
}

// New creates an empty session for one image at the given main threshold.
func New(imageName string, thresholdPercent float64) (*Session, error) {
	if thresholdPercent <= 0 || thresholdPercent > 100 {
		return nil, analysis.ErrInvalidThreshold
	}
	return &Session{
		ID:               uuid.NewString(),
		ImageName:        imageName,
		ThresholdPercent: thresholdPercent,
	}, nil
}

// AddCell appends a completed cell, deriving its means and ratio. Cell
// numbers are 1-based in session order.
func (s *Session) AddCell(nuclear *NuclearMeasurement, cytoplasm *CytoplasmMeasurement) *CellRecord {
	rec := &CellRecord{
		CellNumber:    len(s.Records) + 1,
		Nuclear:       nuclear,
		Cytoplasm:     cytoplasm,
		NuclearMean:   nuclear.OverallMean,
		CytoplasmMean: cytoplasm.Result.Mean,
		Ratio:         analysis.Ratio(nuclear.OverallMean, cytoplasm.Result.Mean),
	}
	s.Records = append(s.Records, rec)
	if s.autosave != nil {
		s.autosave.Record(s.envelope(rec))
	}
	return rec
}

// NuclearMeans returns the per-cell nuclear membrane means in session order.
func (s *Session) NuclearMeans() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.NuclearMean
	}
	return out
}

// CytoplasmMeans returns the per-cell cytoplasm means in session order.
func (s *Session) CytoplasmMeans() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.CytoplasmMean
	}
	return out
}

// Ratios returns the per-cell nuclear/cytoplasm ratios in session order.
func (s *Session) Ratios() []float64 {
	out := make([]float64, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Ratio
	}
	return out
}

// Close stops the autosave writer, if one was enabled, draining pending
// envelopes first.
func (s *Session) Close() {
	if s.autosave != nil {
		s.autosave.Close()
		s.autosave = nil
	}
}
