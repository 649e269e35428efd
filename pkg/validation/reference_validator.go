package validation

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	apperrors "doubao-image-mcp/internal/errors"
)

// Reference image constraints imposed by the generation API.
const (
	MaxFileSizeBytes = 10 * 1024 * 1024
	MinDimensionPx   = 14 // dimensions must exceed this
	MaxDimensionPx   = 6000
	MinAspectRatio   = 1.0 / 3.0
	MaxAspectRatio   = 3.0
)

// formatBySuffix maps accepted file extensions to the media subtype sent to
// the API. Only JPEG and PNG references are accepted.
var formatBySuffix = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
}

// ReferenceValidator checks local files against the reference-image
// requirements before they are encoded into a generation request.
type ReferenceValidator struct{}

// NewReferenceValidator creates a reference image validator
func NewReferenceValidator() *ReferenceValidator {
	return &ReferenceValidator{}
}

// Validate runs the full validation chain against the file at path and
// returns the image media subtype ("jpeg" or "png") on success. Checks run
// in a fixed order and the first violation wins.
func (v *ReferenceValidator) Validate(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("Image file not found: %s", path), err)
	}

	if info.Size() > MaxFileSizeBytes {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("Image file too large: %.1fMB (max %dMB)",
				float64(info.Size())/(1024*1024), MaxFileSizeBytes/(1024*1024)), nil)
	}

	suffix := strings.ToLower(filepath.Ext(path))
	subtype, ok := formatBySuffix[suffix]
	if !ok {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("Unsupported image format: %s. Only JPEG and PNG are supported.", suffix), nil)
	}

	width, height, err := decodeDimensions(path)
	if err != nil {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("Failed to validate image %s", path), err)
	}

	if width <= MinDimensionPx || height <= MinDimensionPx {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("Image too small: %dx%dpx (minimum: %dx%dpx)",
				width, height, MinDimensionPx+1, MinDimensionPx+1), nil)
	}

	if width > MaxDimensionPx || height > MaxDimensionPx {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("Image too large: %dx%dpx (maximum: %dx%dpx)",
				width, height, MaxDimensionPx, MaxDimensionPx), nil)
	}

	aspectRatio := float64(width) / float64(height)
	if aspectRatio < MinAspectRatio || aspectRatio > MaxAspectRatio {
		return "", apperrors.NewValidationError(
			fmt.Sprintf("Invalid aspect ratio: %.2f (must be between 0.33 and 3.0)", aspectRatio), nil)
	}

	return subtype, nil
}

// decodeDimensions reads just enough of the file to determine its pixel
// dimensions without decoding the full image.
func decodeDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
