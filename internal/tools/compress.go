package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"doubao-image-mcp/internal/compressor"
	apperrors "doubao-image-mcp/internal/errors"
	"doubao-image-mcp/internal/logger"
	"doubao-image-mcp/pkg/models"

	"github.com/sirupsen/logrus"
)

// Documented defaults for compress_images arguments.
const (
	defaultMaxWidth  = 1920
	defaultMaxHeight = 1080
	defaultQuality   = 100

	minDimensionArg = 100
	maxDimensionArg = 4096
)

// CompressHandler orchestrates one compress_images tool call. Like the
// generation handler it always returns a text payload; per-file failures
// are reported inline and only argument or batch-setup problems produce an
// "Error:" payload.
type CompressHandler struct {
	compressor *compressor.Compressor
}

// NewCompressHandler creates a compress_images handler
func NewCompressHandler(c *compressor.Compressor) *CompressHandler {
	return &CompressHandler{compressor: c}
}

// Handle processes one tool call and returns the result payload text.
func (h *CompressHandler) Handle(ctx context.Context, args map[string]any) string {
	text, err := h.handle(ctx, args)
	if err == nil {
		return text
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type == apperrors.ErrorTypeValidation {
		logger.WithError(err).Error("Validation error")
		return fmt.Sprintf("Error: Invalid parameters - %s", describeError(err))
	}

	logger.WithError(err).Error("Image compression error")
	return fmt.Sprintf("Error: Failed to compress images - %s", describeError(err))
}

func (h *CompressHandler) handle(_ context.Context, args map[string]any) (string, error) {
	inputPath, err := stringArg(args, "input_path", "")
	if err != nil {
		return "", err
	}
	outputPath, err := stringArg(args, "output_path", "")
	if err != nil {
		return "", err
	}
	maxWidth, err := intArg(args, "max_width", defaultMaxWidth)
	if err != nil {
		return "", err
	}
	maxHeight, err := intArg(args, "max_height", defaultMaxHeight)
	if err != nil {
		return "", err
	}
	quality, err := intArg(args, "quality", defaultQuality)
	if err != nil {
		return "", err
	}
	format, err := stringArg(args, "format", compressor.FormatJPEG)
	if err != nil {
		return "", err
	}
	optimize, err := boolArg(args, "optimize", true)
	if err != nil {
		return "", err
	}

	if inputPath == "" {
		return "", apperrors.NewValidationError("input_path is required", nil)
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("Input path does not exist: %s", inputPath), err)
	}

	if maxWidth < minDimensionArg || maxWidth > maxDimensionArg {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("max_width must be between %d and %d, got %d", minDimensionArg, maxDimensionArg, maxWidth), nil)
	}
	if maxHeight < minDimensionArg || maxHeight > maxDimensionArg {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("max_height must be between %d and %d, got %d", minDimensionArg, maxDimensionArg, maxHeight), nil)
	}
	if quality < 1 || quality > 100 {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("quality must be between 1 and 100, got %d", quality), nil)
	}

	switch format {
	case compressor.FormatJPEG, compressor.FormatPNG, compressor.FormatWebP:
	default:
		return "", apperrors.NewValidationError(
			fmt.Sprintf("format must be JPEG, PNG or WebP, got: %s", format), nil)
	}

	opts := compressor.Options{
		MaxWidth:  maxWidth,
		MaxHeight: maxHeight,
		Quality:   quality,
		Format:    format,
		Optimize:  optimize,
	}

	logger.WithFields(logrus.Fields{
		"input_path": inputPath,
		"max_width":  maxWidth,
		"max_height": maxHeight,
		"quality":    quality,
		"format":     format,
		"optimize":   optimize,
		"batch":      info.IsDir(),
	}).Info("Received compress_images request")

	var results []models.CompressionResult
	if info.IsDir() {
		outputDir := outputPath
		if outputDir == "" {
			outputDir = filepath.Join(inputPath, "compressed")
		}
		results, err = h.compressor.CompressDir(inputPath, outputDir, opts)
		if err != nil {
			return "", apperrors.NewProcessingError(err.Error(), nil)
		}
	} else {
		out := outputPath
		if out == "" {
			out = compressor.DefaultSingleOutput(inputPath)
		}
		results = []models.CompressionResult{h.compressor.CompressFile(inputPath, out, opts)}
	}

	return renderCompressReport(results), nil
}

// renderCompressReport assembles the summary line plus a per-file block for
// every processed file, in input order.
func renderCompressReport(results []models.CompressionResult) string {
	successful := 0
	for _, r := range results {
		if r.Success {
			successful++
		}
	}

	lines := []string{fmt.Sprintf("Image compression completed: %d/%d images processed successfully",
		successful, len(results))}

	for _, r := range results {
		if r.Success {
			lines = append(lines, fmt.Sprintf("✓ %s → %s\n  Size: %.1f KB → %.1f KB (%.1f%% reduction)",
				r.InputPath, r.OutputPath,
				float64(r.OriginalSize)/1024, float64(r.NewSize)/1024, r.Reduction))
		} else {
			lines = append(lines, fmt.Sprintf("✗ %s: %s", r.InputPath, r.Error))
		}
	}

	return strings.Join(lines, "\n")
}
