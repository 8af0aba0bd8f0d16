// Package config defines the service configuration, populated from
// environment variables with a .env file as fallback. Configuration is loaded
// once at startup and immutable thereafter.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings.
type Config struct {
	// Data directories. Raw ISD-Lite files, TMY EPW templates, and scraped
	// catalogs are cached here between runs; generated AMY EPW files and the
	// batch error report land in OutputDir.
	ISDLiteDir string `envconfig:"ISD_LITE_DIR" default:"data/isd-lite" validate:"required"`
	TMYDir     string `envconfig:"TMY_DIR" default:"data/tmy" validate:"required"`
	CatalogDir string `envconfig:"CATALOG_DIR" default:"data/catalogs" validate:"required"`
	OutputDir  string `envconfig:"OUTPUT_DIR" default:"out" validate:"required"`

	// AllowDownloads permits fetching source files that are not already
	// cached. Leave false for air-gapped or reproducibility-sensitive runs.
	AllowDownloads bool          `envconfig:"ALLOW_DOWNLOADS" default:"true"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"60s"`

	// Gap-filling thresholds, in hours of consecutive missing data.
	MaxInterpolate int `envconfig:"MAX_INTERPOLATE" default:"6" validate:"min=0"`
	MaxImpute      int `envconfig:"MAX_IMPUTE" default:"48" validate:"min=0"`

	// Admission thresholds. MaxMissingRows zero disables the pre-check.
	MaxMissingRows            int `envconfig:"MAX_MISSING_ROWS" default:"700" validate:"min=0"`
	MaxConsecutiveMissingRows int `envconfig:"MAX_CONSEC_MISSING_ROWS" default:"48" validate:"min=0"`

	// Concurrency bounds the number of station-years generated in parallel.
	Concurrency int `envconfig:"CONCURRENCY" default:"4" validate:"min=1"`

	// OpsAddr is the listen address for the health and metrics server during
	// batch runs. Empty disables the server.
	OpsAddr string `envconfig:"OPS_ADDR" default:""`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
}

// Load reads configuration from the environment, with a .env file as
// non-overriding fallback, and validates it.
func Load() (*Config, error) {
	// Absent .env is fine; existing environment variables win.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.MaxImpute < cfg.MaxInterpolate {
		return nil, fmt.Errorf("MAX_IMPUTE (%d) must be at least MAX_INTERPOLATE (%d)", cfg.MaxImpute, cfg.MaxInterpolate)
	}
	return &cfg, nil
}
