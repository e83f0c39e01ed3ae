package models

import "fmt"

// ScaleMode selects which price range anchors the color scale.
type ScaleMode string

const (
	// ScaleRegion normalizes colors against the selected region's own range.
	ScaleRegion ScaleMode = "region"
	// ScaleNational normalizes colors against the precomputed national range
	// for the active year.
	ScaleNational ScaleMode = "national"
)

// Valid reports whether the mode is one of the two supported scale modes.
func (m ScaleMode) Valid() bool {
	return m == ScaleRegion || m == ScaleNational
}

// ViewState is the current-state descriptor attached to every update: the
// active year, region, scale mode, and whether the year animation is running.
type ViewState struct {
	Year      int       `json:"year"`
	RegionID  string    `json:"region_id"` // empty when no region is selected
	ScaleMode ScaleMode `json:"scale_mode"`
	Playing   bool      `json:"playing"`
}

// Validate checks that the view state fields are in range.
func (s *ViewState) Validate() error {
	if s.Year < MinYear || s.Year > MaxYear {
		return fmt.Errorf("year must be between %d and %d, got %d", MinYear, MaxYear, s.Year)
	}
	if !s.ScaleMode.Valid() {
		return fmt.Errorf("scale mode must be %q or %q, got %q", ScaleRegion, ScaleNational, s.ScaleMode)
	}
	return nil
}

// Bounds is a lon/lat bounding box the presentation layer should fit the
// view to. Ordered min-lon, min-lat, max-lon, max-lat (GeoJSON bbox order).
type Bounds struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Highlight is a transient per-feature emphasis applied after a ZIP search.
// The controller publishes a follow-up update with a nil Highlight when it
// auto-reverts.
type Highlight struct {
	Zip   string `json:"zip"`
	Color string `json:"color"`
}

// ViewUpdate is the full restyle instruction set pushed to the presentation
// layer after every transition: one fill color per feature ZIP, the active
// range's scalar stats, and the state descriptor. Bounds is non-nil when the
// view should re-fit (region change or ZIP search). The core never touches
// rendering directly; this is its entire outbound surface.
type ViewUpdate struct {
	State     ViewState         `json:"state"`
	Range     PriceRange        `json:"range"`
	Styles    map[string]string `json:"styles"` // feature ZIP → hex fill color
	Bounds    *Bounds           `json:"bounds,omitempty"`
	Highlight *Highlight        `json:"highlight,omitempty"`
}
