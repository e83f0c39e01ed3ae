// Package registry holds the static region reference data: the per-state
// registry (display name, map center, default zoom, boundary file) and the
// ZIP→region crosswalk used by search. Both are supplied as configuration
// and immutable after load.
package registry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
)

// Registry resolves region IDs and ZIP codes against static reference data.
type Registry struct {
	regions  map[string]models.Region
	zipIndex map[string]string // zip → region ID
}

// New builds a registry from already-validated reference data. Tests use
// this to inject small tables; production loads from files via Load and
// LoadZipIndex.
func New(regions []models.Region, zipIndex map[string]string) *Registry {
	r := &Registry{
		regions:  make(map[string]models.Region, len(regions)),
		zipIndex: make(map[string]string, len(zipIndex)),
	}
	for _, region := range regions {
		r.regions[region.ID] = region
	}
	for zip, id := range zipIndex {
		r.zipIndex[models.PadZip(zip)] = id
	}
	return r
}

// Load reads the region registry from a YAML file:
//
//	regions:
//	  - id: WI
//	    name: Wisconsin
//	    center_lat: 44.5
//	    center_lon: -89.5
//	    zoom: 7
//	    geometry_file: wi_zcta.geojson
//
// Every region must validate; duplicate IDs are an error.
func Load(path string) (*Registry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read region registry: %w", err)
	}

	var file struct {
		Regions []models.Region `mapstructure:"regions"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal region registry: %w", err)
	}
	if len(file.Regions) == 0 {
		return nil, fmt.Errorf("region registry %s contains no regions", path)
	}

	seen := make(map[string]bool, len(file.Regions))
	for i := range file.Regions {
		region := &file.Regions[i]
		if err := region.Validate(); err != nil {
			return nil, fmt.Errorf("invalid region in registry: %w", err)
		}
		if seen[region.ID] {
			return nil, fmt.Errorf("duplicate region ID %s in registry", region.ID)
		}
		seen[region.ID] = true
	}

	return New(file.Regions, nil), nil
}

// LoadZipIndex reads the ZIP→region crosswalk from a two-column CSV
// (zip,region). A header row is detected and skipped; ZIPs are zero-padded.
func (r *Registry) LoadZipIndex(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open ZIP crosswalk: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read ZIP crosswalk row: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		zip := strings.TrimSpace(row[0])
		region := strings.ToUpper(strings.TrimSpace(row[1]))
		if first {
			first = false
			if !models.ValidZip(models.PadZip(zip)) {
				continue // header row
			}
		}
		if zip == "" || region == "" {
			continue
		}
		r.zipIndex[models.PadZip(zip)] = region
	}
	return nil
}

// Region returns the registry entry for a region ID.
func (r *Registry) Region(id string) (models.Region, bool) {
	region, ok := r.regions[strings.ToUpper(id)]
	return region, ok
}

// Regions returns all regions sorted by ID.
func (r *Registry) Regions() []models.Region {
	regions := make([]models.Region, 0, len(r.regions))
	for _, region := range r.regions {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].ID < regions[j].ID })
	return regions
}

// RegionForZip resolves a ZIP code to its region ID via the crosswalk.
func (r *Registry) RegionForZip(zip string) (string, bool) {
	id, ok := r.zipIndex[models.PadZip(zip)]
	return id, ok
}

// ZipCount returns the number of crosswalk entries.
func (r *Registry) ZipCount() int { return len(r.zipIndex) }
