package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"doubao-image-mcp/internal/ark"
	"doubao-image-mcp/internal/compressor"
	"doubao-image-mcp/internal/config"
	"doubao-image-mcp/internal/encoder"
	"doubao-image-mcp/internal/tools"
	"doubao-image-mcp/pkg/models"

	"github.com/gin-gonic/gin"
)

type fixedGenerator struct {
	items []models.ImageItem
	err   error
}

func (f fixedGenerator) GenerateImages(context.Context, ark.GenerateOptions) ([]models.ImageItem, error) {
	return f.items, f.err
}

type localDownloader struct{}

func (localDownloader) DownloadImages(_ context.Context, items []models.ImageItem, outputDir string) []models.DownloadResult {
	results := make([]models.DownloadResult, len(items))
	for i, item := range items {
		results[i] = models.DownloadResult{
			Item:      item,
			LocalPath: filepath.Join(outputDir, fmt.Sprintf("image_%03d.png", i+1)),
			Success:   true,
		}
	}
	return results
}

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
}

func newTestHandler(gen fixedGenerator) http.Handler {
	gin.SetMode(gin.TestMode)
	generate := tools.NewGenerateHandler(gen, encoder.NewReferenceEncoder(), localDownloader{})
	compress := tools.NewCompressHandler(compressor.NewCompressor())
	return NewHTTPHandler(generate, compress, testConfig())
}

func decodeToolResponse(t *testing.T, rec *httptest.ResponseRecorder) ToolResponse {
	t.Helper()
	var resp ToolResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func TestHTTPHealthCheck(t *testing.T) {
	handler := newTestHandler(fixedGenerator{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"available"`) {
		t.Errorf("Unexpected health body: %s", rec.Body.String())
	}
}

func TestHTTPGenerateRoute(t *testing.T) {
	item, err := models.NewImageItem("https://cdn.example.com/a.png", "2048x2048")
	if err != nil {
		t.Fatalf("Failed to build item: %v", err)
	}
	handler := newTestHandler(fixedGenerator{items: []models.ImageItem{item}})

	body := fmt.Sprintf(`{"prompt":"a red fox","output_dir":%q}`, t.TempDir())
	req := httptest.NewRequest(http.MethodPost, "/tools/generate_images", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeToolResponse(t, rec)
	if !strings.Contains(resp.Text, "Download summary: 1/1 images saved successfully") {
		t.Errorf("Unexpected payload: %q", resp.Text)
	}
}

func TestHTTPGenerateRoute_ToolErrorIsStatus200(t *testing.T) {
	handler := newTestHandler(fixedGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/tools/generate_images", strings.NewReader(`{"prompt":"a fox"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Tool-level failures are payloads, not HTTP errors.
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	resp := decodeToolResponse(t, rec)
	if !strings.HasPrefix(resp.Text, "Error: Invalid parameters - output_dir is required") {
		t.Errorf("Unexpected payload: %q", resp.Text)
	}
}

func TestHTTPRoute_MalformedJSONIsBadRequest(t *testing.T) {
	handler := newTestHandler(fixedGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/tools/compress_images", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestHTTPCompressRoute(t *testing.T) {
	handler := newTestHandler(fixedGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/tools/compress_images", strings.NewReader(`{"input_path":"/no/such/path.png"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	resp := decodeToolResponse(t, rec)
	if !strings.Contains(resp.Text, "Input path does not exist: /no/such/path.png") {
		t.Errorf("Unexpected payload: %q", resp.Text)
	}
}
