package storage

import (
	"context"
	"path/filepath"
	"testing"

	"winddash/internal/config"
)

func TestNewStorageClient_Local(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	cfg := &config.Config{CacheBackend: "local", CacheDir: dir}

	client, err := NewStorageClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create local storage client: %v", err)
	}
	defer client.Close()

	local, ok := client.(*LocalStorageClient)
	if !ok {
		t.Fatalf("Expected LocalStorageClient, got %T", client)
	}
	if local.BaseDir() != dir {
		t.Errorf("Expected base dir %s, got %s", dir, local.BaseDir())
	}
}

func TestNewStorageClient_GCS(t *testing.T) {
	cfg := &config.Config{CacheBackend: "gcs", GCSBucket: "test-bucket"}

	// without credentials client creation may fail; that path is fine too
	client, err := NewStorageClient(context.Background(), cfg)
	if err != nil {
		t.Logf("GCS client creation failed as expected in test environment: %v", err)
		return
	}
	defer client.Close()

	if _, ok := client.(*GCSClient); !ok {
		t.Errorf("Expected GCSClient, got %T", client)
	}
}

func TestNewStorageClient_MissingBucket(t *testing.T) {
	cfg := &config.Config{CacheBackend: "gcs"}

	if _, err := NewStorageClient(context.Background(), cfg); err == nil {
		t.Error("Expected error for gcs backend without bucket")
	}
}

func TestNewStorageClient_UnsupportedBackend(t *testing.T) {
	cfg := &config.Config{CacheBackend: "redis"}

	if _, err := NewStorageClient(context.Background(), cfg); err == nil {
		t.Error("Expected error for unsupported backend")
	}
}
