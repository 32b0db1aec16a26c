package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectError string
		validate    func(*testing.T, *Config)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Port != "8050" {
					t.Errorf("Expected default Port to be '8050', got '%s'", cfg.Port)
				}
				if cfg.CacheBackend != "local" {
					t.Errorf("Expected default CacheBackend to be 'local', got '%s'", cfg.CacheBackend)
				}
				if cfg.CacheDir != "cache" {
					t.Errorf("Expected default CacheDir to be 'cache', got '%s'", cfg.CacheDir)
				}
				if cfg.CacheMaxAge != 0 {
					t.Errorf("Expected default CacheMaxAge to be 0, got %v", cfg.CacheMaxAge)
				}
				if cfg.HTTPTimeout != 0 {
					t.Errorf("Expected default HTTPTimeout to be 0, got %v", cfg.HTTPTimeout)
				}
				if cfg.BreakerMaxFailures != 0 || cfg.RateLimitRPS != 0 {
					t.Errorf("Expected breaker and rate limit disabled, got %d / %v", cfg.BreakerMaxFailures, cfg.RateLimitRPS)
				}
				if cfg.StartCellID != "10km_622_71" {
					t.Errorf("Expected default StartCellID '10km_622_71', got '%s'", cfg.StartCellID)
				}
				if cfg.StartLon != 12.374 || cfg.StartLat != 56.078 {
					t.Errorf("Expected default start point (12.374, 56.078), got (%v, %v)", cfg.StartLon, cfg.StartLat)
				}
				if cfg.ForecastHours != 48 {
					t.Errorf("Expected default ForecastHours 48, got %d", cfg.ForecastHours)
				}
				if !strings.HasSuffix(cfg.ForecastBaseURL, "/collections/") {
					t.Errorf("Expected forecast base URL to end with /collections/, got '%s'", cfg.ForecastBaseURL)
				}
				if cfg.Location().String() != "Europe/Copenhagen" {
					t.Errorf("Expected Europe/Copenhagen location, got %s", cfg.Location())
				}
			},
		},
		{
			name: "custom values",
			envVars: map[string]string{
				"PORT":                    "9000",
				"DMI_API_KEY_FORECAST":    "fc-key",
				"DMI_API_KEY_OBSERVATION": "obs-key",
				"CACHE_BACKEND":           "gcs",
				"GCS_BUCKET":              "wind-cache",
				"CACHE_MAX_AGE":           "72h",
				"HTTP_TIMEOUT":            "15s",
				"RATE_LIMIT_RPS":          "2.5",
				"BREAKER_MAX_FAILURES":    "3",
				"USE_MOCK_DATA":           "true",
				"TIMEZONE":                "UTC",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Port != "9000" {
					t.Errorf("Expected Port '9000', got '%s'", cfg.Port)
				}
				if cfg.ForecastAPIKey != "fc-key" || cfg.ObservationAPIKey != "obs-key" {
					t.Errorf("Expected API keys to be loaded, got '%s' / '%s'", cfg.ForecastAPIKey, cfg.ObservationAPIKey)
				}
				if cfg.GCSBucket != "wind-cache" {
					t.Errorf("Expected GCSBucket 'wind-cache', got '%s'", cfg.GCSBucket)
				}
				if cfg.CacheMaxAge != 72*time.Hour {
					t.Errorf("Expected CacheMaxAge 72h, got %v", cfg.CacheMaxAge)
				}
				if cfg.HTTPTimeout != 15*time.Second {
					t.Errorf("Expected HTTPTimeout 15s, got %v", cfg.HTTPTimeout)
				}
				if cfg.RateLimitRPS != 2.5 {
					t.Errorf("Expected RateLimitRPS 2.5, got %v", cfg.RateLimitRPS)
				}
				if cfg.BreakerMaxFailures != 3 {
					t.Errorf("Expected BreakerMaxFailures 3, got %d", cfg.BreakerMaxFailures)
				}
				if !cfg.UseMockData {
					t.Error("Expected UseMockData to be true")
				}
				if cfg.Location() != time.UTC {
					t.Errorf("Expected UTC location, got %s", cfg.Location())
				}
			},
		},
		{
			name:        "gcs backend without bucket",
			envVars:     map[string]string{"CACHE_BACKEND": "gcs"},
			expectError: "GCS_BUCKET is required",
		},
		{
			name:        "unknown cache backend",
			envVars:     map[string]string{"CACHE_BACKEND": "redis"},
			expectError: "must be one of [local gcs]",
		},
		{
			name:        "invalid timezone",
			envVars:     map[string]string{"TIMEZONE": "Mars/Olympus"},
			expectError: "invalid TIMEZONE",
		},
		{
			name:        "non-positive forecast hours",
			envVars:     map[string]string{"FORECAST_HOURS": "0"},
			expectError: "FORECAST_HOURS must be positive",
		},
		{
			name:        "malformed duration",
			envVars:     map[string]string{"CACHE_MAX_AGE": "forever"},
			expectError: "failed to process config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// keep the test environment away from any developer .env file
			chdirTemp(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load(context.Background())
			if tt.expectError != "" {
				if err == nil {
					t.Fatalf("Expected error containing %q, got nil", tt.expectError)
				}
				if !strings.Contains(err.Error(), tt.expectError) {
					t.Errorf("Expected error containing %q, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "DMI_API_KEY_FORECAST=from-file\nSTART_CELL_ID=10km_600_50\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Setenv("DMI_API_KEY_FORECAST", "")
	os.Unsetenv("DMI_API_KEY_FORECAST")
	t.Setenv("START_CELL_ID", "from-env")

	cfg, err := Load(context.Background(), envFile)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.ForecastAPIKey != "from-file" {
		t.Errorf("Expected API key from env file, got '%s'", cfg.ForecastAPIKey)
	}
	// godotenv never overrides variables that are already set
	if cfg.StartCellID != "from-env" {
		t.Errorf("Expected process env to win over env file, got '%s'", cfg.StartCellID)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	chdirTemp(t)
	if _, err := Load(context.Background(), "does-not-exist.env"); err != nil {
		t.Errorf("Expected missing env file to be ignored, got %v", err)
	}
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}
