package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/config"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/controller"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/dataset"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/geometry"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/logger"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/registry"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	regionFlag = flag.String("region", "", "Region to render at startup (overrides config)")
	yearFlag   = flag.Int("year", 0, "Year to display at startup (overrides config)")
	zipFlag    = flag.String("zip", "", "ZIP code to search after the initial render")
	playFlag   = flag.Bool("play", false, "Start the year animation after the initial render")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Load the price dataset; this also builds the per-year national
	// range table.
	ds, err := dataset.Load(cfg.Data.PricesPath)
	if err != nil {
		logger.Fatal("Failed to load price dataset: %v", err)
	}
	logger.Info("Loaded prices for %d ZIP codes from %s", ds.Len(), cfg.Data.PricesPath)

	// Load the region registry and the ZIP lookup table
	reg, err := registry.Load(cfg.Data.RegionsPath)
	if err != nil {
		logger.Fatal("Failed to load region registry: %v", err)
	}
	if cfg.Data.ZipIndexPath != "" {
		if err := reg.LoadZipIndex(cfg.Data.ZipIndexPath); err != nil {
			logger.Fatal("Failed to load ZIP index: %v", err)
		}
		logger.Info("Loaded %d regions and %d ZIP mappings", len(reg.Regions()), reg.ZipCount())
	} else {
		logger.Warn("No ZIP index configured; ZIP search will always miss")
	}

	// Pick the boundary source
	var fetcher geometry.Fetcher
	if cfg.Geometry.BaseURL != "" {
		fetcher = geometry.NewHTTPFetcher(cfg.Geometry.BaseURL, cfg.Geometry.Timeout)
		logger.Info("Fetching boundaries from %s", cfg.Geometry.BaseURL)
	} else {
		fetcher = geometry.NewDirFetcher(cfg.Geometry.Dir)
		logger.Info("Reading boundaries from %s", cfg.Geometry.Dir)
	}

	ctrl := controller.New(ds, reg, fetcher, controller.Options{
		Sink:              controller.SinkFunc(printUpdate),
		FrameInterval:     cfg.Viewer.FrameInterval,
		HighlightDuration: cfg.Viewer.HighlightDuration,
		StartYear:         cfg.Viewer.StartYear,
		StartScaleMode:    models.ScaleMode(cfg.Viewer.ScaleMode),
	})

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	startRegion := cfg.Viewer.StartRegion
	if *regionFlag != "" {
		startRegion = *regionFlag
	}
	if startRegion != "" {
		if _, err := ctrl.SelectRegion(ctx, startRegion); err != nil {
			logger.Fatal("Failed to render %s: %v", startRegion, err)
		}
	}
	if *yearFlag != 0 {
		if _, err := ctrl.ChangeYear(*yearFlag); err != nil {
			logger.Fatal("Failed to set year %d: %v", *yearFlag, err)
		}
	}
	if *zipFlag != "" {
		if _, err := ctrl.SearchZip(ctx, *zipFlag); err != nil {
			logger.Error("ZIP search failed: %v", err)
		}
	}
	if *playFlag {
		if err := ctrl.Play(); err != nil {
			logger.Fatal("Failed to start animation: %v", err)
		}
	}

	// Read commands from stdin until EOF or shutdown signal
	go runConsole(ctx, ctrl, cancel)

	<-ctx.Done()
	ctrl.Pause()
	logger.Info("Viewer stopped")
}

// runConsole drives the controller from stdin. One command per line:
//
//	region <id>     render a region
//	year <yyyy>     restyle for a year
//	scale <mode>    switch between "region" and "national" scaling
//	zip <zzzzz>     search for a ZIP code
//	play | pause    control the year animation
//	quit            exit
func runConsole(ctx context.Context, ctrl *controller.Controller, cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd := strings.ToLower(fields[0])
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}

		var err error
		switch cmd {
		case "region":
			_, err = ctrl.SelectRegion(ctx, arg)
		case "year":
			var year int
			year, err = strconv.Atoi(arg)
			if err == nil {
				_, err = ctrl.ChangeYear(year)
			}
		case "scale":
			_, err = ctrl.SetScaleMode(models.ScaleMode(arg))
		case "zip":
			_, err = ctrl.SearchZip(ctx, arg)
		case "play":
			err = ctrl.Play()
		case "pause":
			ctrl.Pause()
		case "quit", "exit":
			cancel()
			return
		default:
			err = fmt.Errorf("unknown command %q", cmd)
		}
		if err != nil {
			logger.Error("Command %q failed: %v", cmd, err)
		}
	}
	cancel()
}

// printUpdate emits each view update as one JSON line on stdout. A real map
// frontend would consume these to restyle its layer.
func printUpdate(update models.ViewUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		logger.Error("Failed to encode view update: %v", err)
		return
	}
	fmt.Println(string(data))
}
