package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"winddash/internal/logger"
	"winddash/internal/storage"
)

// FetchFunc produces the raw payload for a cache miss
type FetchFunc func(ctx context.Context) ([]byte, error)

// Stats holds cache counters since the store was created
type Stats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
	Stored int `json:"stored"`
}

// Store is a content-addressed payload cache on top of a StorageClient.
// Payloads are stored verbatim, one file per fingerprint.
type Store struct {
	storage storage.StorageClient
	maxAge  time.Duration
	now     func() time.Time
	log     *logger.Logger

	mutex sync.Mutex
	stats Stats
}

// Option configures a Store
type Option func(*Store)

// WithMaxAge sets the eviction policy: entries older than d are treated as
// misses and removed by Prune. Zero keeps entries forever.
func WithMaxAge(d time.Duration) Option {
	return func(s *Store) { s.maxAge = d }
}

// WithClock overrides the clock used for entry age
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a cache store backed by client
func New(client storage.StorageClient, opts ...Option) *Store {
	s := &Store{
		storage: client,
		now:     time.Now,
		log:     logger.Component("cache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxAge returns the configured eviction age, zero meaning never
func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

// GetOrFetch returns the cached payload for fingerprint, or calls fetch on a miss
// and stores its result. Errors from fetch are returned unchanged and nothing is stored.
func (s *Store) GetOrFetch(ctx context.Context, fingerprint string, fetch FetchFunc) ([]byte, error) {
	if fingerprint == "" {
		return nil, fmt.Errorf("empty cache fingerprint")
	}
	name := FileName(fingerprint)

	data, hit, err := s.lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	if hit {
		s.mutex.Lock()
		s.stats.Hits++
		s.mutex.Unlock()
		s.log.Info("cache hit", logger.Fields{"fingerprint": fingerprint})
		return data, nil
	}

	s.mutex.Lock()
	s.stats.Misses++
	s.mutex.Unlock()
	s.log.Info("cache miss", logger.Fields{"fingerprint": fingerprint})

	data, err = fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.storage.StoreFile(ctx, name, data); err != nil {
		// the payload is still good; the next call will simply miss again
		s.log.Error("failed to store cache entry", err, logger.Fields{"fingerprint": fingerprint})
		return data, nil
	}

	s.mutex.Lock()
	s.stats.Stored++
	s.mutex.Unlock()
	return data, nil
}

func (s *Store) lookup(ctx context.Context, name string) ([]byte, bool, error) {
	if s.maxAge > 0 {
		info, err := s.storage.Stat(ctx, name)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to stat cache entry %s: %w", name, err)
		}
		if s.now().Sub(info.Updated) > s.maxAge {
			return nil, false, nil
		}
	}

	data, err := s.storage.GetFile(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry %s: %w", name, err)
	}
	return data, true, nil
}

// Prune removes entries older than the configured max age and returns how many
// were deleted. It does nothing when no max age is set.
func (s *Store) Prune(ctx context.Context) (int, error) {
	if s.maxAge <= 0 {
		return 0, nil
	}

	files, err := s.storage.ListFiles(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to list cache entries: %w", err)
	}

	removed := 0
	cutoff := s.now().Add(-s.maxAge)
	for _, f := range files {
		if !strings.HasSuffix(f.Name, ".json") || !f.Updated.Before(cutoff) {
			continue
		}
		if err := s.storage.DeleteFile(ctx, f.Name); err != nil {
			return removed, fmt.Errorf("failed to delete cache entry %s: %w", f.Name, err)
		}
		removed++
	}

	if removed > 0 {
		s.log.Info("pruned cache entries", logger.Fields{"removed": removed, "max_age": s.maxAge.String()})
	}
	return removed, nil
}

// Stats returns a snapshot of the cache counters
func (s *Store) Stats() Stats {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.stats
}
