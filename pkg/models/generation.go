package models

import (
	"fmt"
	"strings"
)

// GenerationRequest is a validated request for image generation.
// Construct it through NewGenerationRequest; an invalid request never exists.
type GenerationRequest struct {
	Prompt    string `json:"prompt"`
	NumImages int    `json:"num_images"`
	Size      string `json:"size"`
	Watermark bool   `json:"watermark"`
}

// NewGenerationRequest validates and builds a GenerationRequest.
// The prompt is trimmed; NumImages must be within [1,3]; Size must be a
// non-empty resolution token ("2K") or explicit "WxH" string.
func NewGenerationRequest(prompt string, numImages int, size string, watermark bool) (GenerationRequest, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return GenerationRequest{}, fmt.Errorf("prompt cannot be empty")
	}
	if numImages < 1 || numImages > 3 {
		return GenerationRequest{}, fmt.Errorf("num_images must be an integer between 1 and 3, got %d", numImages)
	}
	if size == "" {
		return GenerationRequest{}, fmt.Errorf("size cannot be empty")
	}
	return GenerationRequest{
		Prompt:    trimmed,
		NumImages: numImages,
		Size:      size,
		Watermark: watermark,
	}, nil
}

// ImageItem is a single generated image as reported by the API.
type ImageItem struct {
	URL  string `json:"url"`
	Size string `json:"size"`
}

// NewImageItem validates and builds an ImageItem.
func NewImageItem(url, size string) (ImageItem, error) {
	if url == "" {
		return ImageItem{}, fmt.Errorf("url must be a non-empty string")
	}
	if size == "" {
		return ImageItem{}, fmt.Errorf("size must be a non-empty string")
	}
	return ImageItem{URL: url, Size: size}, nil
}

// GenerationResponse is an ordered set of generated images. Count is
// redundant with len(Images) and acts as an integrity check.
type GenerationResponse struct {
	Images []ImageItem `json:"images"`
	Count  int         `json:"count"`
}

// NewGenerationResponse validates that Count matches the image sequence.
func NewGenerationResponse(images []ImageItem, count int) (GenerationResponse, error) {
	if count < 0 {
		return GenerationResponse{}, fmt.Errorf("count must be non-negative, got %d", count)
	}
	if count != len(images) {
		return GenerationResponse{}, fmt.Errorf("count must match the number of images: count=%d, images=%d", count, len(images))
	}
	return GenerationResponse{Images: images, Count: count}, nil
}

// DownloadResult records the outcome of downloading one generated image.
// Results are produced one-to-one with GenerationResponse.Images, in order.
type DownloadResult struct {
	Item      ImageItem `json:"item"`
	LocalPath string    `json:"local_path"`
	Success   bool      `json:"success"`
}

// CompressionResult records the outcome of compressing one image file.
type CompressionResult struct {
	InputPath    string  `json:"input_path"`
	OutputPath   string  `json:"output_path"`
	Success      bool    `json:"success"`
	OriginalSize int64   `json:"original_size,omitempty"`
	NewSize      int64   `json:"new_size,omitempty"`
	Reduction    float64 `json:"size_reduction,omitempty"`
	Error        string  `json:"error,omitempty"`
}
