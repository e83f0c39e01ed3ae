package config

import (
	"os"
	"testing"
	"time"
)

func loadFromString(t *testing.T, content string) (*Config, error) {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return Load(tmpfile.Name())
}

func TestLoadAndValidate(t *testing.T) {
	cfg, err := loadFromString(t, `
data:
  prices_path: "data/zhvi_by_zip.csv"
  zip_index_path: "data/zip_state_crosswalk.csv"
  regions_path: "configs/regions.yaml"

geometry:
  dir: "data/boundaries"
  timeout: 10s

viewer:
  start_region: "WI"
  start_year: 2020
  scale_mode: national
  frame_interval: 800ms
  highlight_duration: 3s

logging:
  level: "debug"
  format: "text"
`)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Viewer.StartRegion != "WI" || cfg.Viewer.StartYear != 2020 {
		t.Errorf("viewer config = %+v", cfg.Viewer)
	}
	if cfg.Viewer.FrameInterval != 800*time.Millisecond {
		t.Errorf("FrameInterval = %v, want 800ms", cfg.Viewer.FrameInterval)
	}
	if cfg.Geometry.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Geometry.Timeout)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFromString(t, "logging:\n  level: info\n")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed with defaults: %v", err)
	}

	if cfg.Viewer.FrameInterval != 800*time.Millisecond {
		t.Errorf("default frame_interval = %v, want 800ms", cfg.Viewer.FrameInterval)
	}
	if cfg.Viewer.HighlightDuration != 3*time.Second {
		t.Errorf("default highlight_duration = %v, want 3s", cfg.Viewer.HighlightDuration)
	}
	if cfg.Viewer.StartYear != 2025 {
		t.Errorf("default start_year = %d, want 2025", cfg.Viewer.StartYear)
	}
	if cfg.Viewer.ScaleMode != "region" {
		t.Errorf("default scale_mode = %q, want region", cfg.Viewer.ScaleMode)
	}
	if cfg.Geometry.Dir != "data/boundaries" {
		t.Errorf("default geometry.dir = %q", cfg.Geometry.Dir)
	}
}

func TestValidate_Errors(t *testing.T) {
	valid := func() *Config {
		cfg, err := loadFromString(t, "logging:\n  level: info\n")
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing prices path", mutate: func(c *Config) { c.Data.PricesPath = "" }},
		{name: "missing regions path", mutate: func(c *Config) { c.Data.RegionsPath = "" }},
		{name: "no geometry source", mutate: func(c *Config) { c.Geometry.BaseURL = ""; c.Geometry.Dir = "" }},
		{name: "tiny geometry timeout", mutate: func(c *Config) { c.Geometry.Timeout = 100 * time.Millisecond }},
		{name: "start year out of range", mutate: func(c *Config) { c.Viewer.StartYear = 1999 }},
		{name: "bad scale mode", mutate: func(c *Config) { c.Viewer.ScaleMode = "county" }},
		{name: "tiny frame interval", mutate: func(c *Config) { c.Viewer.FrameInterval = time.Millisecond }},
		{name: "tiny highlight duration", mutate: func(c *Config) { c.Viewer.HighlightDuration = time.Millisecond }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}
