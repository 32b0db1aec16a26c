package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config holds all configuration for the wind dashboard service
type Config struct {
	// Server configuration
	Port string `env:"PORT,default=8050"`

	// DMI API credentials and endpoints
	ForecastAPIKey     string        `env:"DMI_API_KEY_FORECAST"`
	ObservationAPIKey  string        `env:"DMI_API_KEY_OBSERVATION"`
	ForecastBaseURL    string        `env:"DMI_FORECAST_BASE_URL,default=https://dmigw.govcloud.dk/v1/forecastedr/collections/"`
	ObservationBaseURL string        `env:"DMI_OBSERVATION_BASE_URL,default=https://dmigw.govcloud.dk/v2/climateData/collections/10kmGridValue/items"`
	GridURL            string        `env:"GRID_URL"`
	HTTPTimeout        time.Duration `env:"HTTP_TIMEOUT,default=0s"`
	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS,default=0"`
	BreakerMaxFailures uint32        `env:"BREAKER_MAX_FAILURES,default=0"`
	UseMockData        bool          `env:"USE_MOCK_DATA,default=false"`

	// Response cache
	CacheBackend string        `env:"CACHE_BACKEND,default=local"`
	CacheDir     string        `env:"CACHE_DIR,default=cache"`
	GCSBucket    string        `env:"GCS_BUCKET"`
	CacheMaxAge  time.Duration `env:"CACHE_MAX_AGE,default=0s"`

	// Display defaults
	Timezone      string  `env:"TIMEZONE,default=Europe/Copenhagen"`
	StartCellID   string  `env:"START_CELL_ID,default=10km_622_71"`
	StartLon      float64 `env:"START_LON,default=12.374"`
	StartLat      float64 `env:"START_LAT,default=56.078"`
	ForecastHours int     `env:"FORECAST_HOURS,default=48"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	location *time.Location
}

// Load reads an optional .env file and then the process environment
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints and resolves the time zone
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "local":
		if c.CacheDir == "" {
			return fmt.Errorf("CACHE_DIR must not be empty for the local cache backend")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required when CACHE_BACKEND=gcs")
		}
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q: must be one of [local gcs]", c.CacheBackend)
	}

	if c.ForecastHours <= 0 {
		return fmt.Errorf("FORECAST_HOURS must be positive, got %d", c.ForecastHours)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.CacheMaxAge < 0 {
		return fmt.Errorf("CACHE_MAX_AGE must not be negative, got %v", c.CacheMaxAge)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location returns the display time zone
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
