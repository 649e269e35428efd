package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"doubao-image-mcp/pkg/models"
)

func newTestDownloader() *Downloader {
	return NewDownloader(5*time.Second, 2, nil)
}

func mustItem(t *testing.T, url string) models.ImageItem {
	t.Helper()
	item, err := models.NewImageItem(url, "2048x2048")
	if err != nil {
		t.Fatalf("Failed to build item: %v", err)
	}
	return item
}

func TestDeriveFilename(t *testing.T) {
	d := newTestDownloader()
	defer d.Close()
	dir := t.TempDir()

	tests := []struct {
		name  string
		url   string
		index int
		want  string
	}{
		{"PNG extension kept", "https://cdn.example.com/x/abc.png", 0, "image_001.png"},
		{"Uppercase extension normalized", "https://cdn.example.com/ABC.JPG", 1, "image_002.jpg"},
		{"WebP extension kept", "https://cdn.example.com/pic.webp", 2, "image_003.webp"},
		{"Unknown extension defaults to jpeg", "https://cdn.example.com/file.bin", 3, "image_004.jpeg"},
		{"No extension defaults to jpeg", "https://cdn.example.com/image", 4, "image_005.jpeg"},
		{"Query string ignored", "https://cdn.example.com/y.png?sig=abc.def", 5, "image_006.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.deriveFilename(tt.url, tt.index, dir); got != tt.want {
				t.Errorf("deriveFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveFilename_CollisionSuffix(t *testing.T) {
	d := newTestDownloader()
	defer d.Close()
	dir := t.TempDir()

	// Pre-populate the directory so the derived base name collides.
	if err := os.WriteFile(filepath.Join(dir, "image_001.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	if got := d.deriveFilename("https://cdn.example.com/a.jpg", 0, dir); got != "image_001_1.jpg" {
		t.Errorf("Expected image_001_1.jpg, got %q", got)
	}

	// A second collision bumps the counter again.
	if err := os.WriteFile(filepath.Join(dir, "image_001_1.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}
	if got := d.deriveFilename("https://cdn.example.com/a.jpg", 0, dir); got != "image_001_2.jpg" {
		t.Errorf("Expected image_001_2.jpg, got %q", got)
	}
}

func TestDownloadImages_OrderAndIsolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok1.png", "/ok2.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("fake-png-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := newTestDownloader()
	defer d.Close()
	dir := t.TempDir()

	items := []models.ImageItem{
		mustItem(t, srv.URL+"/ok1.png"),
		mustItem(t, srv.URL+"/missing.png"),
		mustItem(t, srv.URL+"/ok2.png"),
	}

	results := d.DownloadImages(context.Background(), items, dir)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	// Results keep input order regardless of worker completion order.
	for i, r := range results {
		if r.Item.URL != items[i].URL {
			t.Errorf("Result %d out of order: got %s, want %s", i, r.Item.URL, items[i].URL)
		}
	}

	if !results[0].Success || results[1].Success || !results[2].Success {
		t.Errorf("Expected success pattern [true false true], got [%v %v %v]",
			results[0].Success, results[1].Success, results[2].Success)
	}

	// The failed item does not abort siblings; both good files exist on disk.
	for _, i := range []int{0, 2} {
		if _, err := os.Stat(results[i].LocalPath); err != nil {
			t.Errorf("Expected file %s to exist: %v", results[i].LocalPath, err)
		}
	}
}

func TestDownloadImages_CreatesNestedOutputDir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	d := newTestDownloader()
	defer d.Close()
	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	results := d.DownloadImages(context.Background(), []models.ImageItem{mustItem(t, srv.URL+"/x.jpg")}, dir)
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("Expected one successful result, got %+v", results)
	}
	if _, err := os.Stat(filepath.Join(dir, "image_001.jpg")); err != nil {
		t.Errorf("Expected downloaded file in nested dir: %v", err)
	}
}

func TestDownloadImages_DirCreationFailureIsBatchFatal(t *testing.T) {
	d := newTestDownloader()
	defer d.Close()

	// A file where the directory should go makes MkdirAll fail.
	base := t.TempDir()
	blocker := filepath.Join(base, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to create blocker file: %v", err)
	}

	results := d.DownloadImages(context.Background(), []models.ImageItem{
		mustItem(t, "https://example.com/a.png"),
	}, blocker)
	if len(results) != 0 {
		t.Errorf("Expected empty partial results on batch-fatal failure, got %d", len(results))
	}
}
