// Package dataset holds the parsed ZHVI price records: one entry per ZIP
// code, each mapping year to price. The dataset is built once at startup
// from the raw Zillow CSV and is read-only for the rest of the process
// lifetime; building it also computes the national per-year range table so
// national-scale styling never recomputes over every ZIP at render time.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/scale"
)

// LoadError is a fatal dataset load failure: nothing can render without
// price data, so callers treat it as a startup error.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load price dataset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Dataset is the immutable in-memory price store.
type Dataset struct {
	records  map[string]map[int]float64 // zip → year → price (positive only)
	zips     []string                   // sorted keys of records
	national map[int]models.PriceRange  // year → national range, all years covered
}

// Load reads the ZHVI CSV at path and builds the dataset.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()
	return LoadReader(f, path)
}

// LoadReader builds the dataset from CSV content. The header must carry a
// ZIP column ("Zip_Code", or the raw Zillow "RegionName") and one column per
// year; year columns outside 2000-2025 are ignored. Rows lacking a ZIP value
// are skipped silently, numeric ZIPs are zero-padded to 5 characters, and
// unparseable or non-positive price cells are treated as missing. When the
// same ZIP appears twice the later row wins, keeping ZIP keys unique.
func LoadReader(r io.Reader, name string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, &LoadError{Path: name, Err: fmt.Errorf("failed to read header: %w", err)}
	}

	zipCol := -1
	yearCols := make(map[int]int) // column index → year
	for i, col := range header {
		col = strings.TrimSpace(col)
		if strings.EqualFold(col, "Zip_Code") || strings.EqualFold(col, "RegionName") {
			if zipCol < 0 {
				zipCol = i
			}
			continue
		}
		if year, err := strconv.Atoi(col); err == nil && year >= models.MinYear && year <= models.MaxYear {
			yearCols[i] = year
		}
	}
	if zipCol < 0 {
		return nil, &LoadError{Path: name, Err: fmt.Errorf("no ZIP column (Zip_Code or RegionName) in header %v", header)}
	}
	if len(yearCols) == 0 {
		return nil, &LoadError{Path: name, Err: fmt.Errorf("no year columns in %d-%d found in header", models.MinYear, models.MaxYear)}
	}

	records := make(map[string]map[int]float64)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &LoadError{Path: name, Err: fmt.Errorf("failed to read row: %w", err)}
		}
		if zipCol >= len(row) {
			continue
		}
		zip := models.PadZip(row[zipCol])
		if zip == "" {
			continue
		}

		prices := make(map[int]float64, len(yearCols))
		for i, year := range yearCols {
			if i >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[i])
			if cell == "" {
				continue
			}
			price, err := strconv.ParseFloat(cell, 64)
			if err != nil || price <= 0 {
				continue
			}
			prices[year] = price
		}
		records[zip] = prices
	}

	ds := &Dataset{records: records}
	ds.zips = make([]string, 0, len(records))
	for zip := range records {
		ds.zips = append(ds.zips, zip)
	}
	sort.Strings(ds.zips)

	// Building the dataset is what triggers the one-time national range
	// computation: one trimmed range per year, fixed for the process lifetime.
	ds.national = make(map[int]models.PriceRange, models.MaxYear-models.MinYear+1)
	for year := models.MinYear; year <= models.MaxYear; year++ {
		ds.national[year] = scale.ComputeRange(ds.PricesForYear(year))
	}

	return ds, nil
}

// PriceOf returns the price for a ZIP in a year. The second return is false
// when the ZIP is unknown or has no usable price for that year.
func (d *Dataset) PriceOf(zip string, year int) (float64, bool) {
	prices, ok := d.records[models.PadZip(zip)]
	if !ok {
		return 0, false
	}
	price, ok := prices[year]
	return price, ok
}

// PricesForYear returns every usable price for a year across all ZIPs, in
// sorted-ZIP order. Missing and non-positive values are excluded.
func (d *Dataset) PricesForYear(year int) []float64 {
	var prices []float64
	for _, zip := range d.zips {
		if price, ok := d.records[zip][year]; ok {
			prices = append(prices, price)
		}
	}
	return prices
}

// NationalRange returns the precomputed national range for a year. Years
// outside the table fall back to the same fixed range as empty input.
func (d *Dataset) NationalRange(year int) models.PriceRange {
	if r, ok := d.national[year]; ok {
		return r
	}
	return models.FallbackRange()
}

// Zips returns the sorted ZIP keys. The returned slice must not be mutated.
func (d *Dataset) Zips() []string { return d.zips }

// Len returns the number of ZIP records.
func (d *Dataset) Len() int { return len(d.records) }
