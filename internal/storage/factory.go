package storage

import (
	"context"
	"fmt"

	"winddash/internal/config"
)

// Backend selects where cached payloads are kept
type Backend string

const (
	BackendLocal Backend = "local"
	BackendGCS   Backend = "gcs"
)

// gcsCachePrefix is the object prefix used for cache files inside the bucket
const gcsCachePrefix = "dmi-cache"

// NewStorageClient creates a storage client for the configured cache backend
func NewStorageClient(ctx context.Context, cfg *config.Config) (StorageClient, error) {
	switch Backend(cfg.CacheBackend) {
	case BackendLocal:
		dir := cfg.CacheDir
		if dir == "" {
			dir = "cache"
		}

		localClient, err := NewLocalStorageClient(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage client: %w", err)
		}
		return localClient, nil

	case BackendGCS:
		if cfg.GCSBucket == "" {
			return nil, fmt.Errorf("GCS bucket name is required for the gcs backend")
		}
		gcsClient, err := NewGCSClient(ctx, cfg.GCSBucket, gcsCachePrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
		}
		return gcsClient, nil

	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.CacheBackend)
	}
}
