package validation

import (
	"agripulse/internal/dataset"
)

// Interpolate fills missing values in place: linear interpolation across
// interior gaps, then backward fill and forward fill for edge gaps.
// A series with no finite value at all is left untouched. Applying the
// function to an already-clean series is a no-op, which keeps repeated
// validation passes stable.
func Interpolate(ts *dataset.TimeSeries) {
	points := ts.Points
	n := len(points)
	if n == 0 {
		return
	}

	// Interior gaps: straight line between the surrounding observations.
	prev := -1
	for i := 0; i < n; i++ {
		if points[i].IsMissing() {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			span := float64(i - prev)
			step := (points[i].Value - points[prev].Value) / span
			for j := prev + 1; j < i; j++ {
				points[j].Value = points[prev].Value + step*float64(j-prev)
			}
		}
		prev = i
	}

	// Backward fill leading gaps from the first observation.
	firstFinite := -1
	for i := 0; i < n; i++ {
		if !points[i].IsMissing() {
			firstFinite = i
			break
		}
	}
	if firstFinite < 0 {
		return
	}
	for i := 0; i < firstFinite; i++ {
		points[i].Value = points[firstFinite].Value
	}

	// Forward fill trailing gaps from the last observation.
	lastFinite := -1
	for i := n - 1; i >= 0; i-- {
		if !points[i].IsMissing() {
			lastFinite = i
			break
		}
	}
	for i := lastFinite + 1; i < n; i++ {
		points[i].Value = points[lastFinite].Value
	}
}
