package profile

import (
	"errors"
	"math"
)

var (
	// ErrDegeneratePolyline means the traced path has zero length (all
	// anchors coincide, or fewer than two anchors were supplied).
	ErrDegeneratePolyline = errors.New("degenerate polyline: zero path length")
	// ErrEmptyProfile means the sampled profile has no entries to map onto.
	ErrEmptyProfile = errors.New("profile length must be positive")
)

// Anchor is one user-placed polyline vertex in image pixel coordinates.
type Anchor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// cumulativeDistances returns the Euclidean arc length from the first anchor
// to each anchor, first entry 0, last entry the total path length.
func cumulativeDistances(anchors []Anchor) []float64 {
	dist := make([]float64, len(anchors))
	for i := 1; i < len(anchors); i++ {
		dist[i] = dist[i-1] + math.Hypot(anchors[i].X-anchors[i-1].X, anchors[i].Y-anchors[i-1].Y)
	}
	return dist
}

// PathLength returns the total Euclidean arc length of the polyline.
func PathLength(anchors []Anchor) float64 {
	if len(anchors) < 2 {
		return 0
	}
	d := cumulativeDistances(anchors)
	return d[len(d)-1]
}

// SegmentBoundaries maps each anchor to an index into a 1-D intensity profile
// of profileLength samples collected by walking the polyline end to end.
// Profile length is apportioned by cumulative arc length under the assumption
// of uniform sampling density along the path: boundary i is
// round(D(i)/D(total) * (profileLength-1)), clamped into range. The result
// has one entry per anchor, is non-decreasing, and always starts at 0 and
// ends at profileLength-1.
func SegmentBoundaries(anchors []Anchor, profileLength int) ([]int, error) {
	if profileLength < 1 {
		return nil, ErrEmptyProfile
	}
	if len(anchors) < 2 {
		return nil, ErrDegeneratePolyline
	}
	dist := cumulativeDistances(anchors)
	total := dist[len(dist)-1]
	if total == 0 {
		return nil, ErrDegeneratePolyline
	}
	boundaries := make([]int, len(anchors))
	for i, d := range dist {
		idx := int(math.Round(d / total * float64(profileLength-1)))
		if idx >= profileLength {
			idx = profileLength - 1
		}
		if idx < 0 {
			idx = 0
		}
		boundaries[i] = idx
	}
	return boundaries, nil
}

// SegmentValues returns the profile slice for one segment, inclusive on both
// ends: the pixel at a boundary belongs to both adjacent segments. That
// double counting is deliberate and kept for compatibility with the original
// per-segment statistics. Returns nil for an out-of-range segment index.
func SegmentValues(prof []float64, boundaries []int, segmentIndex int) []float64 {
	if segmentIndex < 0 || segmentIndex+1 >= len(boundaries) {
		return nil
	}
	lo, hi := boundaries[segmentIndex], boundaries[segmentIndex+1]
	if lo < 0 {
		lo = 0
	}
	if hi >= len(prof) {
		hi = len(prof) - 1
	}
	if lo > hi {
		return nil
	}
	return prof[lo : hi+1]
}

// SamplePoints places points along the polyline at fixed arc-length spacing,
// starting on the first anchor. The host profile sampler walks these points
// one intensity per step, so spacing 1 reproduces one sample per pixel step.
func SamplePoints(anchors []Anchor, spacing float64) ([]Anchor, error) {
	if spacing <= 0 {
		spacing = 1
	}
	if len(anchors) < 2 {
		return nil, ErrDegeneratePolyline
	}
	dist := cumulativeDistances(anchors)
	total := dist[len(dist)-1]
	if total == 0 {
		return nil, ErrDegeneratePolyline
	}
	count := int(total/spacing) + 1
	points := make([]Anchor, 0, count)
	seg := 0
	for k := 0; k < count; k++ {
		d := float64(k) * spacing
		for seg < len(anchors)-2 && d > dist[seg+1] {
			seg++
		}
		segLen := dist[seg+1] - dist[seg]
		t := 0.0
		if segLen > 0 {
			t = (d - dist[seg]) / segLen
			if t > 1 {
				t = 1
			}
		}
		points = append(points, Anchor{
			X: anchors[seg].X + (anchors[seg+1].X-anchors[seg].X)*t,
			Y: anchors[seg].Y + (anchors[seg+1].Y-anchors[seg].Y)*t,
		})
	}
	return points, nil
}
