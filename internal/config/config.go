// Package config loads the viewer configuration from YAML with environment
// variable overrides and validates it before anything else starts.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/darnouk/ZHVI-Median-Home-Price-2000-2025/internal/models"
)

// Config represents the complete application configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Geometry GeometryConfig `mapstructure:"geometry"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DataConfig locates the static inputs: the ZHVI price CSV, the ZIP→state
// crosswalk, and the region registry.
type DataConfig struct {
	PricesPath   string `mapstructure:"prices_path"`
	ZipIndexPath string `mapstructure:"zip_index_path"`
	RegionsPath  string `mapstructure:"regions_path"`
}

// GeometryConfig selects the boundary source. When BaseURL is set, boundary
// files are fetched over HTTP; otherwise they are read from Dir.
type GeometryConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ViewerConfig holds the interactive defaults and animation timing.
type ViewerConfig struct {
	StartRegion       string        `mapstructure:"start_region"`
	StartYear         int           `mapstructure:"start_year"`
	ScaleMode         string        `mapstructure:"scale_mode"`
	FrameInterval     time.Duration `mapstructure:"frame_interval"`
	HighlightDuration time.Duration `mapstructure:"highlight_duration"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("ZHVI_MAP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.prices_path", "data/zhvi_by_zip.csv")
	v.SetDefault("data.zip_index_path", "data/zip_state_crosswalk.csv")
	v.SetDefault("data.regions_path", "configs/regions.yaml")

	// Geometry defaults
	v.SetDefault("geometry.base_url", "")
	v.SetDefault("geometry.dir", "data/boundaries")
	v.SetDefault("geometry.timeout", "30s")

	// Viewer defaults
	v.SetDefault("viewer.start_region", "")
	v.SetDefault("viewer.start_year", models.MaxYear)
	v.SetDefault("viewer.scale_mode", string(models.ScaleRegion))
	v.SetDefault("viewer.frame_interval", "800ms")
	v.SetDefault("viewer.highlight_duration", "3s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	// Validate Data config
	if c.Data.PricesPath == "" {
		return fmt.Errorf("data.prices_path is required")
	}
	if c.Data.RegionsPath == "" {
		return fmt.Errorf("data.regions_path is required")
	}

	// Validate Geometry config
	if c.Geometry.BaseURL == "" && c.Geometry.Dir == "" {
		return fmt.Errorf("either geometry.base_url or geometry.dir is required")
	}
	if c.Geometry.Timeout < time.Second {
		return fmt.Errorf("geometry.timeout must be at least 1 second")
	}

	// Validate Viewer config
	if c.Viewer.StartYear < models.MinYear || c.Viewer.StartYear > models.MaxYear {
		return fmt.Errorf("viewer.start_year must be between %d and %d", models.MinYear, models.MaxYear)
	}
	if !models.ScaleMode(c.Viewer.ScaleMode).Valid() {
		return fmt.Errorf("viewer.scale_mode must be %q or %q", models.ScaleRegion, models.ScaleNational)
	}
	if c.Viewer.FrameInterval < 50*time.Millisecond {
		return fmt.Errorf("viewer.frame_interval must be at least 50ms")
	}
	if c.Viewer.HighlightDuration < 100*time.Millisecond {
		return fmt.Errorf("viewer.highlight_duration must be at least 100ms")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
