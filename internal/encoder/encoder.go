package encoder

import (
	"encoding/base64"
	"fmt"
	"os"

	apperrors "doubao-image-mcp/internal/errors"
	"doubao-image-mcp/internal/logger"
	"doubao-image-mcp/pkg/validation"

	"github.com/sirupsen/logrus"
)

// ReferenceEncoder turns local image files into the data-URI strings the
// generation API accepts as reference images.
type ReferenceEncoder struct {
	validator *validation.ReferenceValidator
}

// NewReferenceEncoder creates a reference image encoder
func NewReferenceEncoder() *ReferenceEncoder {
	return &ReferenceEncoder{
		validator: validation.NewReferenceValidator(),
	}
}

// Encode validates the image at path and returns it embedded as
// "data:image/<subtype>;base64,<data>". The subtype is the mapped encoding
// (jpeg or png), never the literal file extension.
func (e *ReferenceEncoder) Encode(path string) (string, error) {
	subtype, err := e.validator.Validate(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.NewProcessingError(
			fmt.Sprintf("Failed to read image file %s", path), err)
	}

	logger.WithFields(logrus.Fields{
		"path":    path,
		"subtype": subtype,
		"bytes":   len(data),
	}).Debug("Encoded reference image")

	return fmt.Sprintf("data:image/%s;base64,%s", subtype, base64.StdEncoding.EncodeToString(data)), nil
}
