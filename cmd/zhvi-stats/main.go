package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/dataset"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/registry"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/scale"
)

// Offline analysis of a ZHVI price export: prints the per-year national
// trimmed range table and, when a ZIP index is given, a per-region summary
// for one year. Useful for sanity-checking a new data drop before pointing
// the viewer at it.

var (
	pricesPath   = flag.String("prices", "", "Path to the ZHVI prices CSV (required)")
	zipIndexPath = flag.String("zip-index", "", "Path to the ZIP → region CSV (optional)")
	yearFlag     = flag.Int("year", models.MaxYear, "Year for the per-region summary")
)

func main() {
	flag.Parse()
	if *pricesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	ds, err := dataset.Load(*pricesPath)
	if err != nil {
		log.Fatalf("Failed to load price dataset: %v", err)
	}

	fmt.Println("=" + strings.Repeat("=", 79))
	fmt.Printf("ZHVI DATASET SUMMARY - %s\n", *pricesPath)
	fmt.Println("=" + strings.Repeat("=", 79))
	fmt.Printf("\n%d ZIP codes with price data\n\n", ds.Len())

	printNationalTable(ds)

	if *zipIndexPath != "" {
		reg := registry.New(nil, nil)
		if err := reg.LoadZipIndex(*zipIndexPath); err != nil {
			log.Fatalf("Failed to load ZIP index: %v", err)
		}
		printRegionSummary(ds, reg, *yearFlag)
	}
}

func printNationalTable(ds *dataset.Dataset) {
	fmt.Println("National trimmed ranges (5th-95th percentile):")
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("%-6s %12s %12s %12s %12s %12s %8s\n",
		"Year", "P5", "Median", "P95", "Min", "Max", "Samples")
	for year := models.MinYear; year <= models.MaxYear; year++ {
		r := ds.NationalRange(year)
		if r.SampleCount == 0 {
			continue
		}
		fmt.Printf("%-6d %12.0f %12.0f %12.0f %12.0f %12.0f %8d\n",
			year, r.LowerBound, r.Median, r.UpperBound, r.AbsoluteMin, r.AbsoluteMax, r.SampleCount)
	}
	fmt.Println()
}

func printRegionSummary(ds *dataset.Dataset, reg *registry.Registry, year int) {
	// Group the dataset's ZIPs by region and compute each region's trimmed
	// range the same way the viewer does for its region-relative scale.
	byRegion := make(map[string][]float64)
	for _, zip := range ds.Zips() {
		region, ok := reg.RegionForZip(zip)
		if !ok {
			continue
		}
		if price, ok := ds.PriceOf(zip, year); ok {
			byRegion[region] = append(byRegion[region], price)
		}
	}

	ids := make([]string, 0, len(byRegion))
	for id := range byRegion {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("Per-region trimmed ranges for %d:\n", year)
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("%-8s %12s %12s %12s %8s\n", "Region", "P5", "Median", "P95", "Samples")
	for _, id := range ids {
		r := scale.ComputeRange(byRegion[id])
		fmt.Printf("%-8s %12.0f %12.0f %12.0f %8d\n",
			id, r.LowerBound, r.Median, r.UpperBound, r.SampleCount)
	}
}
