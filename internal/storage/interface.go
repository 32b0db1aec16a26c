package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the requested file does not exist
var ErrNotFound = errors.New("file not found")

// FileInfo describes a stored file
type FileInfo struct {
	Name    string
	Size    int64
	Updated time.Time
}

// StorageClient defines the interface for basic storage operations.
// Names are flat, slash-separated keys relative to the client's root.
type StorageClient interface {
	// Close closes the storage client
	Close() error

	// StoreFile stores a file under name. Readers never observe a partially written file.
	StoreFile(ctx context.Context, name string, data []byte) error

	// GetFile retrieves a file, returning an error wrapping ErrNotFound when absent
	GetFile(ctx context.Context, name string) ([]byte, error)

	// FileExists checks if a file exists
	FileExists(ctx context.Context, name string) (bool, error)

	// Stat returns file metadata, or an error wrapping ErrNotFound
	Stat(ctx context.Context, name string) (FileInfo, error)

	// DeleteFile removes a file; deleting a missing file is not an error
	DeleteFile(ctx context.Context, name string) error

	// ListFiles lists stored files whose names start with prefix
	ListFiles(ctx context.Context, prefix string) ([]FileInfo, error)
}
