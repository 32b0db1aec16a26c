package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLocalStorageClient(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "nested", "cache")

	client, err := NewLocalStorageClient(baseDir)
	if err != nil {
		t.Fatalf("Failed to create LocalStorageClient: %v", err)
	}
	defer client.Close()

	if client.BaseDir() != baseDir {
		t.Errorf("Expected base dir %s, got %s", baseDir, client.BaseDir())
	}
	if _, err := os.Stat(baseDir); os.IsNotExist(err) {
		t.Error("Base directory was not created")
	}
}

func TestLocalStorageClient_StoreAndGet(t *testing.T) {
	ctx := context.Background()
	client, err := NewLocalStorageClient(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create LocalStorageClient: %v", err)
	}

	payload := []byte(`{"type":"FeatureCollection","features":[]}`)
	if err := client.StoreFile(ctx, "abc.json", payload); err != nil {
		t.Fatalf("StoreFile failed: %v", err)
	}

	got, err := client.GetFile(ctx, "abc.json")
	if err != nil {
		t.Fatalf("GetFile failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("Expected stored payload verbatim, got %s", got)
	}

	exists, err := client.FileExists(ctx, "abc.json")
	if err != nil || !exists {
		t.Errorf("Expected file to exist, got exists=%v err=%v", exists, err)
	}

	info, err := client.Stat(ctx, "abc.json")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size != int64(len(payload)) {
		t.Errorf("Expected size %d, got %d", len(payload), info.Size)
	}
}

func TestLocalStorageClient_Overwrite(t *testing.T) {
	ctx := context.Background()
	client, _ := NewLocalStorageClient(t.TempDir())

	client.StoreFile(ctx, "k.json", []byte("first"))
	if err := client.StoreFile(ctx, "k.json", []byte("second")); err != nil {
		t.Fatalf("StoreFile overwrite failed: %v", err)
	}
	got, _ := client.GetFile(ctx, "k.json")
	if string(got) != "second" {
		t.Errorf("Expected last write to win, got %s", got)
	}
}

func TestLocalStorageClient_NoTempFilesLeftBehind(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	client, _ := NewLocalStorageClient(dir)

	for i := 0; i < 3; i++ {
		if err := client.StoreFile(ctx, "same.json", []byte("x")); err != nil {
			t.Fatalf("StoreFile failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "same.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only same.json, got %v", names)
	}
}

func TestLocalStorageClient_Missing(t *testing.T) {
	ctx := context.Background()
	client, _ := NewLocalStorageClient(t.TempDir())

	_, err := client.GetFile(ctx, "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	exists, err := client.FileExists(ctx, "missing.json")
	if err != nil || exists {
		t.Errorf("Expected exists=false err=nil, got exists=%v err=%v", exists, err)
	}

	if _, err := client.Stat(ctx, "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected Stat ErrNotFound, got %v", err)
	}

	if err := client.DeleteFile(ctx, "missing.json"); err != nil {
		t.Errorf("Expected deleting a missing file to succeed, got %v", err)
	}
}

func TestLocalStorageClient_RejectsEscapingNames(t *testing.T) {
	ctx := context.Background()
	client, _ := NewLocalStorageClient(t.TempDir())

	for _, name := range []string{"../outside.json", "/etc/passwd", "", "."} {
		if err := client.StoreFile(ctx, name, []byte("x")); err == nil {
			t.Errorf("Expected StoreFile(%q) to fail", name)
		}
	}
}

func TestLocalStorageClient_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	client, _ := NewLocalStorageClient(t.TempDir())

	for _, name := range []string{"b.json", "a.json", "sub/c.json"} {
		if err := client.StoreFile(ctx, name, []byte("{}")); err != nil {
			t.Fatalf("StoreFile(%s) failed: %v", name, err)
		}
	}

	files, err := client.ListFiles(ctx, "")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "a.json,b.json,sub/c.json" {
		t.Errorf("Unexpected listing: %v", names)
	}

	sub, _ := client.ListFiles(ctx, "sub/")
	if len(sub) != 1 {
		t.Errorf("Expected 1 file under sub/, got %d", len(sub))
	}

	if err := client.DeleteFile(ctx, "a.json"); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if exists, _ := client.FileExists(ctx, "a.json"); exists {
		t.Error("Expected a.json to be deleted")
	}
}

func TestGetContentType(t *testing.T) {
	tests := map[string]string{
		"abc.json":     "application/json",
		"grid.geojson": "application/geo+json",
		"chart.HTML":   "text/html",
		"chart.png":    "image/png",
		"blob":         "application/octet-stream",
	}
	for name, want := range tests {
		if got := GetContentType(name); got != want {
			t.Errorf("GetContentType(%q): expected %s, got %s", name, want, got)
		}
	}
}
