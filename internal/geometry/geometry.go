// Package geometry loads and holds ZCTA boundary features for one region.
// A Set is fetched on region selection, owned by the controller's cache, and
// replaced wholesale on the next selection; it is never mutated in place.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
)

// zipPropertyKeys are tried in order when reading a feature's ZIP identifier.
// Census ZCTA shapefiles vary the property name by vintage; hand-prepared
// files tend to use a plain "zip".
var zipPropertyKeys = []string{
	"ZCTA5CE20",
	"ZCTA5CE10",
	"ZCTA5CE",
	"GEOID10",
	"zip",
	"Zip_Code",
}

// Feature is one ZCTA polygon tagged with its ZIP code.
type Feature struct {
	Zip      string
	Geometry orb.Geometry
	Bound    orb.Bound
}

// Set is the ordered feature collection for one region.
type Set struct {
	Region   string
	Features []Feature
	bound    orb.Bound
}

// Parse decodes a GeoJSON FeatureCollection into a Set. Features without a
// usable ZIP property or without geometry are skipped; ZIPs are zero-padded
// to 5 characters. An empty result is an error: a boundary file with no
// usable features cannot render anything.
func Parse(data []byte, regionID string) (*Set, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}

	set := &Set{Region: regionID}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		zip := zipProperty(f.Properties)
		if zip == "" {
			continue
		}
		bound := f.Geometry.Bound()
		set.Features = append(set.Features, Feature{
			Zip:      zip,
			Geometry: f.Geometry,
			Bound:    bound,
		})
		if len(set.Features) == 1 {
			set.bound = bound
		} else {
			set.bound = set.bound.Union(bound)
		}
	}

	if len(set.Features) == 0 {
		return nil, fmt.Errorf("no features with ZIP identifiers in boundary file for %s", regionID)
	}
	return set, nil
}

func zipProperty(props geojson.Properties) string {
	for _, key := range zipPropertyKeys {
		if v, ok := props[key]; ok {
			switch zip := v.(type) {
			case string:
				return models.PadZip(zip)
			case float64:
				return models.PadZip(fmt.Sprintf("%.0f", zip))
			}
		}
	}
	return ""
}

// FeatureFor returns the feature tagged with the given ZIP, if present.
func (s *Set) FeatureFor(zip string) (Feature, bool) {
	zip = models.PadZip(zip)
	for _, f := range s.Features {
		if f.Zip == zip {
			return f, true
		}
	}
	return Feature{}, false
}

// Zips returns the ZIP of every feature in collection order. Duplicates are
// possible when a ZCTA spans multiple polygons.
func (s *Set) Zips() []string {
	zips := make([]string, len(s.Features))
	for i, f := range s.Features {
		zips[i] = f.Zip
	}
	return zips
}

// Bounds returns the bounding box of the whole set for view fitting.
func (s *Set) Bounds() *models.Bounds {
	return boundsOf(s.bound)
}

// Bounds returns the feature's own bounding box for view fitting.
func (f Feature) Bounds() *models.Bounds {
	return boundsOf(f.Bound)
}

func boundsOf(b orb.Bound) *models.Bounds {
	return &models.Bounds{
		MinLon: b.Min.Lon(),
		MinLat: b.Min.Lat(),
		MaxLon: b.Max.Lon(),
		MaxLat: b.Max.Lat(),
	}
}
