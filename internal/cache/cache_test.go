package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"winddash/internal/storage"
)

func newLocalStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	client, err := storage.NewLocalStorageClient(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return New(client, opts...), dir
}

func TestForecastBucket(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Copenhagen")
	tests := []struct {
		at       time.Time
		expected string
	}{
		{time.Date(2023, 1, 2, 0, 0, 0, 0, loc), "20230102T00"},
		{time.Date(2023, 1, 2, 2, 59, 59, 0, loc), "20230102T00"},
		{time.Date(2023, 1, 2, 3, 0, 0, 0, loc), "20230102T03"},
		{time.Date(2023, 1, 2, 13, 30, 0, 0, loc), "20230102T12"},
		{time.Date(2023, 12, 31, 23, 59, 0, 0, loc), "20231231T21"},
	}
	for _, tt := range tests {
		if got := ForecastBucket(tt.at); got != tt.expected {
			t.Errorf("ForecastBucket(%v): expected %s, got %s", tt.at, tt.expected, got)
		}
	}
}

func TestFingerprints(t *testing.T) {
	url := "https://example.test/collections/harmonie_dini_sf/position?coords=POINT(12.374 56.078)"
	t0 := time.Date(2023, 1, 2, 12, 5, 0, 0, time.UTC)

	a := ForecastFingerprint(url, t0)
	b := ForecastFingerprint(url, t0.Add(2*time.Hour))
	c := ForecastFingerprint(url, t0.Add(3*time.Hour))

	if a != b {
		t.Errorf("Expected same fingerprint within a bucket, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected a new fingerprint in the next bucket")
	}
	if len(a) != 32 {
		t.Errorf("Expected 32 hex chars, got %d", len(a))
	}

	// md5("abc")
	if got := ObservationFingerprint("abc"); got != "900150983cd24fb0d6963f7d28e17f72" {
		t.Errorf("Unexpected observation fingerprint %s", got)
	}
	if FileName("abc") != "abc.json" {
		t.Errorf("Unexpected file name %s", FileName("abc"))
	}
}

func TestGetOrFetch_MissThenHit(t *testing.T) {
	store, dir := newLocalStore(t)
	ctx := context.Background()

	calls := 0
	payload := []byte(`{"domain":{"axes":{}}, "ranges":{}}`)
	fetch := func(ctx context.Context) ([]byte, error) {
		calls++
		return payload, nil
	}

	first, err := store.GetOrFetch(ctx, "fp1", fetch)
	if err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	second, err := store.GetOrFetch(ctx, "fp1", fetch)
	if err != nil {
		t.Fatalf("Second call failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("Expected exactly 1 fetch, got %d", calls)
	}
	if string(first) != string(second) || string(second) != string(payload) {
		t.Errorf("Expected byte-identical payloads, got %s and %s", first, second)
	}

	onDisk, err := os.ReadFile(filepath.Join(dir, "fp1.json"))
	if err != nil {
		t.Fatalf("Expected cache file on disk: %v", err)
	}
	if string(onDisk) != string(payload) {
		t.Errorf("Expected payload stored verbatim, got %s", onDisk)
	}

	stats := store.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Stored != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestGetOrFetch_ErrorLeavesNoFile(t *testing.T) {
	store, dir := newLocalStore(t)
	ctx := context.Background()

	wantErr := errors.New("remote request failed: status 500")
	_, err := store.GetOrFetch(ctx, "bad", func(ctx context.Context) ([]byte, error) {
		return nil, wantErr
	})
	if err != wantErr {
		t.Errorf("Expected fetch error to propagate unchanged, got %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("Expected no cache files after failed fetch, found %d", len(entries))
	}

	// the next call retries the fetch
	calls := 0
	_, err = store.GetOrFetch(ctx, "bad", func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte(`{}`), nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Expected a fresh fetch after failure, got calls=%d err=%v", calls, err)
	}
}

func TestGetOrFetch_EmptyFingerprint(t *testing.T) {
	store, _ := newLocalStore(t)
	_, err := store.GetOrFetch(context.Background(), "", func(ctx context.Context) ([]byte, error) {
		t.Error("fetch must not be called")
		return nil, nil
	})
	if err == nil {
		t.Error("Expected error for empty fingerprint")
	}
}

func TestGetOrFetch_MaxAge(t *testing.T) {
	now := time.Now()
	store, dir := newLocalStore(t, WithMaxAge(time.Hour), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(dir, "old.json"), []byte("stale"), 0644); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}
	old := now.Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.json"), old, old); err != nil {
		t.Fatalf("Failed to age cache file: %v", err)
	}

	got, err := store.GetOrFetch(ctx, "old", func(ctx context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if string(got) != "fresh" {
		t.Errorf("Expected expired entry to be refetched, got %s", got)
	}
	if store.Stats().Misses != 1 {
		t.Errorf("Expected a miss for an expired entry, got %+v", store.Stats())
	}
}

func TestPrune(t *testing.T) {
	now := time.Now()
	store, dir := newLocalStore(t, WithMaxAge(24*time.Hour), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	for _, name := range []string{"old.json", "new.json", "notes.txt"} {
		os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644)
	}
	old := now.Add(-48 * time.Hour)
	os.Chtimes(filepath.Join(dir, "old.json"), old, old)
	os.Chtimes(filepath.Join(dir, "notes.txt"), old, old)

	removed, err := store.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 entry removed, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.json")); !os.IsNotExist(err) {
		t.Error("Expected old.json to be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "new.json")); err != nil {
		t.Error("Expected new.json to be kept")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("Expected non-cache files to be kept")
	}
}

func TestPruneWithoutMaxAgeIsNoop(t *testing.T) {
	store, dir := newLocalStore(t)
	os.WriteFile(filepath.Join(dir, "x.json"), []byte("{}"), 0644)
	old := time.Now().Add(-365 * 24 * time.Hour)
	os.Chtimes(filepath.Join(dir, "x.json"), old, old)

	removed, err := store.Prune(context.Background())
	if err != nil || removed != 0 {
		t.Errorf("Expected no-op prune, got removed=%d err=%v", removed, err)
	}
}

type failingStorage struct {
	storage.StorageClient
}

func (failingStorage) GetFile(ctx context.Context, name string) ([]byte, error) {
	return nil, storage.ErrNotFound
}

func (failingStorage) StoreFile(ctx context.Context, name string, data []byte) error {
	return errors.New("disk full")
}

func TestGetOrFetch_StoreFailureStillReturnsPayload(t *testing.T) {
	store := New(failingStorage{})

	got, err := store.GetOrFetch(context.Background(), "fp", func(ctx context.Context) ([]byte, error) {
		return []byte(`{"ok":true}`), nil
	})
	if err != nil {
		t.Fatalf("Expected payload despite storage failure, got %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("Unexpected payload %s", got)
	}
	if store.Stats().Stored != 0 {
		t.Errorf("Expected nothing recorded as stored, got %+v", store.Stats())
	}
}
