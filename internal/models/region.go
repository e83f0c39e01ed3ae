// Package models defines the core domain entities for the ZHVI choropleth viewer.
// These models represent US state regions, derived price ranges, and the view
// state pushed to the presentation layer on every restyle.
//
// Terminology (matching the Zillow dataset's naming):
//   - ZHVI: Zillow Home Value Index, a smoothed per-ZIP home value estimate.
//   - ZCTA: the Census boundary approximation for a ZIP code; boundary files
//     carry one polygon feature per ZCTA.
package models

import (
	"errors"
	"fmt"
)

// Year bounds of the ZHVI dataset. Every year column, slider position, and
// national range table entry lives inside this closed interval.
const (
	MinYear = 2000
	MaxYear = 2025
)

// Region describes one selectable map region (a US state): where to center
// the view and which boundary file carries its ZCTA polygons. Regions are
// static reference data, immutable after registry load.
type Region struct {
	ID           string  `json:"id" mapstructure:"id"`                       // state abbreviation, e.g. "WI"
	Name         string  `json:"name" mapstructure:"name"`                   // display name
	CenterLat    float64 `json:"center_lat" mapstructure:"center_lat"`       // map center latitude
	CenterLon    float64 `json:"center_lon" mapstructure:"center_lon"`       // map center longitude
	Zoom         int     `json:"zoom" mapstructure:"zoom"`                   // default zoom level
	GeometryFile string  `json:"geometry_file" mapstructure:"geometry_file"` // boundary file name, e.g. "wi_zcta.geojson"
}

// Validate checks that all region fields are valid.
func (r *Region) Validate() error {
	if len(r.ID) != 2 {
		return fmt.Errorf("region ID must be a 2-letter state abbreviation, got %q", r.ID)
	}
	for _, c := range r.ID {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("region ID must be upper-case letters, got %q", r.ID)
		}
	}
	if r.Name == "" {
		return errors.New("region name must not be empty")
	}
	if r.CenterLat < -90 || r.CenterLat > 90 {
		return fmt.Errorf("region center latitude out of range: %f", r.CenterLat)
	}
	if r.CenterLon < -180 || r.CenterLon > 180 {
		return fmt.Errorf("region center longitude out of range: %f", r.CenterLon)
	}
	if r.Zoom < 3 || r.Zoom > 12 {
		return fmt.Errorf("region zoom must be between 3 and 12, got %d", r.Zoom)
	}
	if r.GeometryFile == "" {
		return errors.New("region geometry file must not be empty")
	}
	return nil
}
