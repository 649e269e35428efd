package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"doubao-image-mcp/internal/logger"
	"doubao-image-mcp/internal/storage"
	"doubao-image-mcp/pkg/models"

	"github.com/sirupsen/logrus"
)

// validExtensions are the URL path extensions kept as-is when deriving a
// local filename; anything else falls back to jpeg.
var validExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// Downloader fetches generated images to local files, one result per item.
// Individual failures are recorded, never raised; only output directory
// creation is batch-fatal.
type Downloader struct {
	client *http.Client
	pool   *WorkerPool
	mirror storage.BlobUploader
}

// NewDownloader creates a downloader with a per-request timeout and a
// bounded worker pool. mirror may be nil when Azure mirroring is off.
func NewDownloader(timeout time.Duration, workers int, mirror storage.BlobUploader) *Downloader {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	pool := NewWorkerPool(workers)
	pool.Start()

	return &Downloader{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		pool:   pool,
		mirror: mirror,
	}
}

// Close releases the worker pool.
func (d *Downloader) Close() {
	d.pool.Close()
}

// DownloadImages fetches every item into outputDir and returns one
// DownloadResult per item, in input order regardless of completion order.
// If the output directory cannot be created the whole batch aborts and the
// partial (empty) result set is returned.
func (d *Downloader) DownloadImages(ctx context.Context, items []models.ImageItem, outputDir string) []models.DownloadResult {
	results := make([]models.DownloadResult, 0, len(items))

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		logger.WithError(err).WithField("dir", outputDir).Error("Failed to create output directory")
		return results
	}

	logger.WithFields(logrus.Fields{
		"count": len(items),
		"dir":   outputDir,
	}).Info("Downloading images")

	// Filenames are derived up front, sequentially: collision checks hit the
	// filesystem, and per-index base names keep names unique within the run.
	paths := make([]string, len(items))
	for i, item := range items {
		paths[i] = filepath.Join(outputDir, d.deriveFilename(item.URL, i, outputDir))
	}

	ordered := make([]models.DownloadResult, len(items))
	for i, item := range items {
		i, item := i, item
		d.pool.Submit(func() {
			success := d.downloadImage(ctx, item.URL, paths[i])
			ordered[i] = models.DownloadResult{
				Item:      item,
				LocalPath: paths[i],
				Success:   success,
			}
		})
	}
	d.pool.Wait()

	results = append(results, ordered...)

	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}
	logger.WithFields(logrus.Fields{
		"successful": successful,
		"total":      len(items),
	}).Info("Download complete")

	return results
}

// deriveFilename builds image_<3-digit index>.<ext>, appending _<counter>
// until the name does not exist in the output directory. Existence is
// checked against the filesystem, so repeated runs into the same directory
// never overwrite earlier results.
func (d *Downloader) deriveFilename(rawURL string, index int, outputDir string) string {
	extension := "jpeg"
	if parsed, err := url.Parse(rawURL); err == nil {
		if ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(parsed.Path), ".")); validExtensions[ext] {
			extension = ext
		}
	}

	base := fmt.Sprintf("image_%03d", index+1)
	filename := fmt.Sprintf("%s.%s", base, extension)

	counter := 1
	for {
		if _, err := os.Stat(filepath.Join(outputDir, filename)); os.IsNotExist(err) {
			return filename
		}
		filename = fmt.Sprintf("%s_%d.%s", base, counter, extension)
		counter++
	}
}

// downloadImage fetches one URL to filePath and reports success. All
// failures are logged and swallowed; the caller records them as data.
func (d *Downloader) downloadImage(ctx context.Context, rawURL, filePath string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		logger.WithError(err).WithField("url", rawURL).Error("Invalid image URL")
		return false
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")

	resp, err := d.client.Do(req)
	if err != nil {
		logger.WithError(err).WithField("url", rawURL).Error("Failed to download image")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WithFields(logrus.Fields{
			"url":         rawURL,
			"status_code": resp.StatusCode,
		}).Error("Image download returned error status")
		return false
	}

	// Heuristic only: some CDNs report generic content types for images.
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		logger.WithFields(logrus.Fields{
			"url":          rawURL,
			"content_type": ct,
		}).Warn("URL may not be an image")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithError(err).WithField("url", rawURL).Error("Failed to read image body")
		return false
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		logger.WithError(err).WithField("path", filePath).Error("Failed to save image")
		return false
	}

	if d.mirror != nil {
		if err := d.mirror.Upload(ctx, filepath.Base(filePath), data); err != nil {
			logger.WithError(err).WithField("path", filePath).Warn("Blob mirror upload failed")
		}
	}

	logger.WithFields(logrus.Fields{
		"url":  rawURL,
		"path": filePath,
	}).Info("Downloaded image")
	return true
}
