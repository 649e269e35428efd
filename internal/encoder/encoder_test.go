package encoder

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{10, 20, 30, 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
}

func TestReferenceEncoder_Encode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.png")
	writePNG(t, path, 256, 256)

	enc := NewReferenceEncoder()
	out, err := enc.Encode(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(out, prefix) {
		t.Fatalf("Expected data URI prefix %q, got %q", prefix, out[:min(len(out), 40)])
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, prefix))
	if err != nil {
		t.Fatalf("Payload is not valid base64: %v", err)
	}
	if len(decoded) != len(raw) {
		t.Errorf("Expected %d decoded bytes, got %d", len(raw), len(decoded))
	}
}

func TestReferenceEncoder_SubtypeFollowsMapping(t *testing.T) {
	// .jpg must surface as image/jpeg, not image/jpg.
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("Failed to encode jpeg: %v", err)
	}
	f.Close()

	enc := NewReferenceEncoder()
	out, err := enc.Encode(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "data:image/jpeg;base64,") {
		t.Errorf("Expected image/jpeg subtype, got %q", out[:min(len(out), 30)])
	}
}

func TestReferenceEncoder_InvalidImageFails(t *testing.T) {
	enc := NewReferenceEncoder()
	if _, err := enc.Encode(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}
