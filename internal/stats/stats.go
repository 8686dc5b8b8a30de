// Package stats wraps the gonum descriptive statistics used across the
// pipeline with missing-value handling: every function operates on the
// finite subset of its input and returns NaN when nothing remains.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Finite returns the values that are neither NaN nor infinite
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// Mean returns the arithmetic mean of the finite values
func Mean(xs []float64) float64 {
	finite := Finite(xs)
	if len(finite) == 0 {
		return math.NaN()
	}
	return stat.Mean(finite, nil)
}

// StdDev returns the sample standard deviation of the finite values.
// At least two values are required.
func StdDev(xs []float64) float64 {
	finite := Finite(xs)
	if len(finite) < 2 {
		return math.NaN()
	}
	return stat.StdDev(finite, nil)
}

// Median returns the median of the finite values
func Median(xs []float64) float64 {
	return Quantile(0.5, xs)
}

// Quantile returns the q-th quantile of the finite values using linear
// interpolation between order statistics, matching the convention the
// source data was profiled with.
func Quantile(q float64, xs []float64) float64 {
	finite := Finite(xs)
	if len(finite) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(finite))
	copy(sorted, finite)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Fraction returns the share of finite values for which pred is true
func Fraction(xs []float64, pred func(float64) bool) float64 {
	finite := Finite(xs)
	if len(finite) == 0 {
		return math.NaN()
	}
	n := 0
	for _, x := range finite {
		if pred(x) {
			n++
		}
	}
	return float64(n) / float64(len(finite))
}
