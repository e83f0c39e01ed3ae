package models

// PriceRange is the derived, percentile-trimmed price window used to anchor
// the color scale. LowerBound and UpperBound sit at the 5th and 95th
// percentiles so a handful of outlier ZIPs cannot collapse the scale's
// dynamic range; AbsoluteMin and AbsoluteMax keep the untrimmed extremes for
// display. A SampleCount of zero means "no data for this slice", not an
// error; callers must check it before trusting the other fields.
type PriceRange struct {
	LowerBound  float64 `json:"lower_bound"`
	UpperBound  float64 `json:"upper_bound"`
	Median      float64 `json:"median"`
	AbsoluteMin float64 `json:"absolute_min"`
	AbsoluteMax float64 `json:"absolute_max"`
	SampleCount int     `json:"sample_count"`
}

// FallbackUpperBound is the upper bound of the fixed range returned when a
// slice has no usable prices.
const FallbackUpperBound = 1_000_000

// FallbackRange returns the fixed range for empty input. The zero sample
// count marks it as "no data"; the bounds still give the color scale
// something finite to normalize against.
func FallbackRange() PriceRange {
	return PriceRange{
		LowerBound:  0,
		UpperBound:  FallbackUpperBound,
		Median:      0,
		AbsoluteMin: 0,
		AbsoluteMax: FallbackUpperBound,
		SampleCount: 0,
	}
}

// Degenerate reports whether the trimmed window has collapsed to a single
// value, in which case normalization would divide by zero.
func (r PriceRange) Degenerate() bool {
	return r.UpperBound == r.LowerBound
}
