package scale

import "github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"

// NoDataColor is the fixed fill for features with no usable price: missing
// from the dataset, or a non-positive value (the source data encodes "no
// data" as 0, so a true zero price is indistinguishable from absent).
const NoDataColor = "#cccccc"

// Palette is a fixed ordered set of bucket colors, darkest-last. Prices at
// or below the range's lower bound map to the first bucket, at or above the
// upper bound to the last; there is no extrapolation beyond the palette.
type Palette []string

// DefaultPalette is the 8-class ColorBrewer YlOrRd ramp used for home
// prices: pale yellow for the cheapest bucket through dark red for the most
// expensive.
var DefaultPalette = Palette{
	"#ffffcc",
	"#ffeda0",
	"#fed976",
	"#feb24c",
	"#fd8d3c",
	"#fc4e2a",
	"#e31a1c",
	"#b10026",
}

// ColorFor maps a price and a range to one bucket color. Non-positive
// prices always get NoDataColor regardless of range. A degenerate range
// (upper == lower) maps every positive price to the same middle bucket
// rather than dividing by zero. The result is monotonic non-decreasing in
// price for a fixed range.
func (p Palette) ColorFor(price float64, r models.PriceRange) string {
	if price <= 0 {
		return NoDataColor
	}
	if r.Degenerate() {
		return p[len(p)/2]
	}

	t := (price - r.LowerBound) / (r.UpperBound - r.LowerBound)
	idx := int(t * float64(len(p)))
	if idx < 0 {
		idx = 0
	}
	if idx > len(p)-1 {
		idx = len(p) - 1
	}
	return p[idx]
}
