package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptySelection means a top-percent selection would contain no values
	// (empty input sample, or a cut that consumes the whole sample).
	ErrEmptySelection = errors.New("empty selection")
	// ErrInvalidThreshold means the threshold percentage is outside (0, 100].
	ErrInvalidThreshold = errors.New("threshold percent must be in (0, 100]")
)

// ThresholdResult holds the outcome of a top-percent intensity selection over
// one sampled profile (or profile segment). Never mutated after creation.
type ThresholdResult struct {
	ThresholdPercent float64 `json:"threshold_percent"`
	// TopValues are the retained intensities in ascending order.
	TopValues []float64 `json:"top_values"`
	// Cutoff is the smallest retained intensity; everything >= Cutoff in the
	// source sample is "above threshold".
	Cutoff float64 `json:"cutoff"`
	Mean   float64 `json:"mean"`
}

// TopPercentMean selects the highest thresholdPercent% of sample by value and
// returns their mean. The sample is sorted ascending on a copy; the cut index
// is len*(1-pct/100) truncated toward zero, so pct=100 keeps everything.
// Ties at the cutoff are broken by natural sort order only.
func TopPercentMean(sample []float64, thresholdPercent float64) (ThresholdResult, error) {
	if thresholdPercent <= 0 || thresholdPercent > 100 {
		return ThresholdResult{}, ErrInvalidThreshold
	}
	if len(sample) == 0 {
		return ThresholdResult{}, ErrEmptySelection
	}
	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)
	cut := int(float64(len(sorted)) * (1.0 - thresholdPercent/100.0))
	if cut < 0 {
		cut = 0
	}
	if cut >= len(sorted) {
		// Only reachable when the percentage underflows to an all-excluding
		// cut; never divide by zero on it.
		return ThresholdResult{}, ErrEmptySelection
	}
	top := sorted[cut:]
	return ThresholdResult{
		ThresholdPercent: thresholdPercent,
		TopValues:        top,
		Cutoff:           top[0],
		Mean:             Mean(top),
	}, nil
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StandardError returns the Bessel-corrected sample standard deviation
// divided by sqrt(n). Zero when fewer than two values.
func StandardError(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	return stat.StdDev(values, nil) / math.Sqrt(float64(n))
}

// Ratio divides nuclear by cytoplasm, returning 0 when the cytoplasm mean is
// not positive. Division-by-zero policy, not a mathematical ratio.
func Ratio(nuclear, cytoplasm float64) float64 {
	if cytoplasm > 0 {
		return nuclear / cytoplasm
	}
	return 0
}
