package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"winddash/internal/logger"
)

// GCSClient handles Google Cloud Storage operations
type GCSClient struct {
	client *storage.Client
	bucket string
	prefix string
	log    *logger.Logger
}

var _ StorageClient = (*GCSClient)(nil)

// NewGCSClient creates a new GCS client. Objects are stored under prefix inside bucketName.
func NewGCSClient(ctx context.Context, bucketName, prefix string) (*GCSClient, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSClient{
		client: client,
		bucket: bucketName,
		prefix: strings.Trim(prefix, "/"),
		log:    logger.Component("storage"),
	}, nil
}

// Close closes the GCS client
func (g *GCSClient) Close() error {
	return g.client.Close()
}

func (g *GCSClient) objectPath(name string) string {
	if g.prefix == "" {
		return name
	}
	return g.prefix + "/" + name
}

// StoreFile uploads a file. The object only becomes visible once the writer is closed.
func (g *GCSClient) StoreFile(ctx context.Context, name string, data []byte) error {
	objectPath := g.objectPath(name)

	// cancelling the context aborts the upload so no partial object is created
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := g.client.Bucket(g.bucket).Object(objectPath).NewWriter(ctx)
	writer.ContentType = GetContentType(name)
	writer.CacheControl = "no-cache"

	if _, err := writer.Write(data); err != nil {
		cancel()
		writer.Close()
		return fmt.Errorf("failed to write file to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS file upload: %w", err)
	}

	g.log.Debug("stored file", logger.Fields{"object": fmt.Sprintf("gs://%s/%s", g.bucket, objectPath), "size": len(data)})
	return nil
}

// GetFile retrieves a file from GCS
func (g *GCSClient) GetFile(ctx context.Context, name string) ([]byte, error) {
	objectPath := g.objectPath(name)

	reader, err := g.client.Bucket(g.bucket).Object(objectPath).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("failed to create reader for file %s: %w", objectPath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create reader for file %s: %w", objectPath, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", objectPath, err)
	}
	return data, nil
}

// FileExists checks if an object exists in the bucket
func (g *GCSClient) FileExists(ctx context.Context, name string) (bool, error) {
	_, err := g.Stat(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Stat returns object metadata
func (g *GCSClient) Stat(ctx context.Context, name string) (FileInfo, error) {
	objectPath := g.objectPath(name)

	attrs, err := g.client.Bucket(g.bucket).Object(objectPath).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return FileInfo{}, fmt.Errorf("failed to get attributes for %s: %w", objectPath, ErrNotFound)
		}
		return FileInfo{}, fmt.Errorf("failed to get attributes for %s: %w", objectPath, err)
	}
	return FileInfo{Name: name, Size: attrs.Size, Updated: attrs.Updated}, nil
}

// DeleteFile removes an object from the bucket
func (g *GCSClient) DeleteFile(ctx context.Context, name string) error {
	objectPath := g.objectPath(name)

	err := g.client.Bucket(g.bucket).Object(objectPath).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s: %w", objectPath, err)
	}
	return nil
}

// ListFiles lists objects whose names (relative to the client prefix) start with prefix
func (g *GCSClient) ListFiles(ctx context.Context, prefix string) ([]FileInfo, error) {
	query := &storage.Query{Prefix: g.objectPath(prefix)}
	it := g.client.Bucket(g.bucket).Objects(ctx, query)

	var files []FileInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		name := attrs.Name
		if g.prefix != "" {
			name = strings.TrimPrefix(name, g.prefix+"/")
		}
		files = append(files, FileInfo{Name: name, Size: attrs.Size, Updated: attrs.Updated})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
