package tools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"doubao-image-mcp/internal/ark"
	"doubao-image-mcp/internal/encoder"
	apperrors "doubao-image-mcp/internal/errors"
	"doubao-image-mcp/internal/logger"
	"doubao-image-mcp/pkg/models"

	"github.com/sirupsen/logrus"
)

// Documented defaults for generate_images arguments.
const (
	defaultNumImages      = 1
	defaultSize           = "2K"
	defaultSequentialMode = "disabled"
	defaultMaxImages      = 3

	maxReferenceImages = 10
	maxImagesCeiling   = 15
)

// ImageDownloader is the downloader surface the generate handler needs.
type ImageDownloader interface {
	DownloadImages(ctx context.Context, items []models.ImageItem, outputDir string) []models.DownloadResult
}

// GenerateHandler orchestrates one generate_images tool call: argument
// validation, reference encoding, the generation call, downloads, and the
// textual report. It never returns an error to the transport; failures
// become "Error:"-prefixed payloads.
type GenerateHandler struct {
	generator ark.ImageGenerator
	encoder   *encoder.ReferenceEncoder
	dl        ImageDownloader
}

// NewGenerateHandler creates a generate_images handler
func NewGenerateHandler(generator ark.ImageGenerator, enc *encoder.ReferenceEncoder, dl ImageDownloader) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
		encoder:   enc,
		dl:        dl,
	}
}

// Handle processes one tool call and returns the result payload text.
func (h *GenerateHandler) Handle(ctx context.Context, args map[string]any) string {
	text, err := h.handle(ctx, args)
	if err == nil {
		return text
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation, apperrors.ErrorTypeNotFound:
			logger.WithError(err).Error("Validation error")
			return fmt.Sprintf("Error: Invalid parameters - %s", describeError(err))
		case apperrors.ErrorTypeUpstream:
			logger.WithError(err).Error("Image generation error")
			if appErr.Cause != nil {
				return fmt.Sprintf("Error: Failed to generate images - %v", appErr.Cause)
			}
			return fmt.Sprintf("Error: Failed to generate images - %s", appErr.Message)
		}
	}

	logger.WithError(err).Error("Image generation error")
	return fmt.Sprintf("Error: Failed to generate images - %s", describeError(err))
}

func (h *GenerateHandler) handle(ctx context.Context, args map[string]any) (string, error) {
	prompt, err := stringArg(args, "prompt", "")
	if err != nil {
		return "", err
	}
	numImages, err := intArg(args, "num_images", defaultNumImages)
	if err != nil {
		return "", err
	}
	size, err := stringArg(args, "size", defaultSize)
	if err != nil {
		return "", err
	}
	watermark, err := boolArg(args, "watermark", false)
	if err != nil {
		return "", err
	}
	outputDir, err := stringArg(args, "output_dir", "")
	if err != nil {
		return "", err
	}
	imagePaths, err := stringSliceArg(args, "image_paths")
	if err != nil {
		return "", err
	}
	sequentialMode, err := stringArg(args, "sequential_image_generation", defaultSequentialMode)
	if err != nil {
		return "", err
	}
	maxImages, err := intArg(args, "max_images", defaultMaxImages)
	if err != nil {
		return "", err
	}

	// output_dir must be present and absolute before any network activity.
	if outputDir == "" {
		return "", apperrors.NewValidationError("output_dir is required", nil)
	}
	if !filepath.IsAbs(outputDir) {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("output_dir must be an absolute path, got: %s", outputDir), nil)
	}

	switch sequentialMode {
	case "auto", "disabled", "true", "false":
		// "true"/"false" are legacy spellings the API still accepts; the
		// tool schema only advertises auto/disabled.
	default:
		return "", apperrors.NewValidationError(
			fmt.Sprintf("sequential_image_generation must be \"auto\" or \"disabled\", got: %s", sequentialMode), nil)
	}

	if maxImages < 1 || maxImages > maxImagesCeiling {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("max_images must be between 1 and %d, got %d", maxImagesCeiling, maxImages), nil)
	}
	if len(imagePaths) > maxReferenceImages {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("at most %d reference images are allowed, got %d", maxReferenceImages, len(imagePaths)), nil)
	}

	// Reference encoding is all-or-nothing: one bad image aborts the whole
	// request before the API is called.
	var referenceImages []string
	if len(imagePaths) > 0 {
		logger.WithField("count", len(imagePaths)).Info("Converting local images to base64")
		for _, path := range imagePaths {
			encoded, err := h.encoder.Encode(path)
			if err != nil {
				return "", apperrors.NewValidationError(
					fmt.Sprintf("Failed to convert image %s: %s", path, describeError(err)), err)
			}
			referenceImages = append(referenceImages, encoded)
		}
	}

	request, err := models.NewGenerationRequest(prompt, numImages, size, watermark)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error(), nil)
	}

	logger.WithFields(logrus.Fields{
		"num_images":      request.NumImages,
		"size":            request.Size,
		"watermark":       request.Watermark,
		"output_dir":      outputDir,
		"ref_images":      len(referenceImages),
		"sequential_mode": sequentialMode,
		"max_images":      maxImages,
	}).Info("Received generate_images request")

	// In auto (or legacy true) mode the API decides the set size, bounded by
	// max_images; otherwise the fixed count drives the call.
	opts := ark.GenerateOptions{
		Prompt:          request.Prompt,
		Count:           request.NumImages,
		Size:            request.Size,
		Watermark:       request.Watermark,
		ReferenceImages: referenceImages,
		SequentialMode:  sequentialMode,
	}
	if sequentialMode == "auto" || sequentialMode == "true" {
		opts.MaxImages = &maxImages
	}

	items, err := h.generator.GenerateImages(ctx, opts)
	if err != nil {
		return "", err
	}

	response, err := models.NewGenerationResponse(items, len(items))
	if err != nil {
		return "", apperrors.NewInternalError("invalid generation response", err)
	}

	logger.WithFields(logrus.Fields{
		"count":      response.Count,
		"output_dir": outputDir,
	}).Info("Downloading images")

	results := h.dl.DownloadImages(ctx, response.Images, outputDir)

	return renderGenerateReport(response, results), nil
}

// renderGenerateReport assembles the per-image lines plus the download
// summary, in response order.
func renderGenerateReport(response models.GenerationResponse, results []models.DownloadResult) string {
	lines := []string{fmt.Sprintf("Generated %d images:", response.Count)}

	successful := 0
	for i, r := range results {
		if r.Success {
			successful++
			lines = append(lines, fmt.Sprintf("Image %d: %s (size: %s)\n  → Downloaded to: %s",
				i+1, r.Item.URL, r.Item.Size, r.LocalPath))
		} else {
			lines = append(lines, fmt.Sprintf("Image %d: %s (size: %s)\n  → Download failed",
				i+1, r.Item.URL, r.Item.Size))
		}
	}

	lines = append(lines, fmt.Sprintf("\nDownload summary: %d/%d images saved successfully", successful, response.Count))
	return strings.Join(lines, "\n")
}

// describeError renders an error for the user-facing payload, preferring
// the structured message over the type-prefixed Error() form.
func describeError(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
		return appErr.Message
	}
	return err.Error()
}
