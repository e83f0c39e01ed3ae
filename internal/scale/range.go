// Package scale maps raw per-ZIP prices into a bounded bucketed color scale.
//
// Ranges are percentile-trimmed: the scale's lower and upper anchors sit at
// the 5th and 95th percentiles of the observed prices, so a handful of
// outlier ZIPs (resort towns, data glitches) cannot collapse the dynamic
// range for everything else. The untrimmed extremes are kept alongside for
// display.
//
// The same routine serves both the on-demand per-region-per-year range and
// the national per-year table computed once at dataset load.
package scale

import (
	"sort"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
)

// Percentile positions of the trimmed bounds.
const (
	lowerPercentile = 0.05
	upperPercentile = 0.95
)

// ComputeRange derives a PriceRange from a collection of positive prices.
// The input is not mutated. Empty input yields the fixed fallback range with
// SampleCount 0, which callers must treat as "no data for this slice".
func ComputeRange(prices []float64) models.PriceRange {
	n := len(prices)
	if n == 0 {
		return models.FallbackRange()
	}

	sorted := make([]float64, n)
	copy(sorted, prices)
	sort.Float64s(sorted)

	return models.PriceRange{
		LowerBound:  sorted[percentileIndex(n, lowerPercentile)],
		UpperBound:  sorted[percentileIndex(n, upperPercentile)],
		Median:      sorted[percentileIndex(n, 0.50)],
		AbsoluteMin: sorted[0],
		AbsoluteMax: sorted[n-1],
		SampleCount: n,
	}
}

// percentileIndex returns floor(n*p) clamped to the last valid index, so the
// 95th percentile of a tiny sample never reads past the end.
func percentileIndex(n int, p float64) int {
	idx := int(float64(n) * p)
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}
