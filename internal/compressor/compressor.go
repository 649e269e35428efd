package compressor

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"doubao-image-mcp/internal/logger"
	"doubao-image-mcp/pkg/models"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"github.com/sirupsen/logrus"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Supported target formats.
const (
	FormatJPEG = "JPEG"
	FormatPNG  = "PNG"
	FormatWebP = "WebP"
)

// batchExtensions are the input extensions picked up in directory mode.
var batchExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// Options shape a compression run.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int // 1-100, meaningful for JPEG and WebP
	Format    string
	Optimize  bool
}

// Compressor resizes, recolors and re-encodes local images. Per-file
// failures are returned as data, never as errors.
type Compressor struct{}

// NewCompressor creates an image compressor
func NewCompressor() *Compressor {
	return &Compressor{}
}

// CompressFile runs the single-file pipeline and always returns a result;
// any failure along the way is captured in it.
func (c *Compressor) CompressFile(inputPath, outputPath string, opts Options) models.CompressionResult {
	result := models.CompressionResult{
		InputPath:  inputPath,
		OutputPath: outputPath,
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	originalSize := info.Size()

	img, err := decodeImage(inputPath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to decode image: %v", err)
		return result
	}

	// Opaque targets cannot carry transparency; flatten onto white before
	// encoding so semi-transparent pixels blend predictably.
	if opts.Format == FormatJPEG && hasTransparency(img) {
		img = flattenOnWhite(img)
	}

	img = resizeToFit(img, opts.MaxWidth, opts.MaxHeight)

	if err := encodeImage(img, outputPath, opts); err != nil {
		result.Error = err.Error()
		return result
	}

	outInfo, err := os.Stat(outputPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.OriginalSize = originalSize
	result.NewSize = outInfo.Size()
	result.Reduction = float64(originalSize-outInfo.Size()) / float64(originalSize) * 100

	logger.WithFields(logrus.Fields{
		"input":         inputPath,
		"output":        outputPath,
		"original_size": result.OriginalSize,
		"new_size":      result.NewSize,
	}).Debug("Compressed image")

	return result
}

// CompressDir compresses every eligible direct child of inputDir into
// outputDir, one result per file in enumeration order. Failure to create
// the output directory is batch-fatal and aborts before any file is
// processed.
func (c *Compressor) CompressDir(inputDir, outputDir string, opts Options) ([]models.CompressionResult, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create output directory %s: %w", outputDir, err)
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("cannot read input directory %s: %w", inputDir, err)
	}

	var results []models.CompressionResult
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !batchExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_compressed.%s", stem, FormatExtension(opts.Format)))
		results = append(results, c.CompressFile(filepath.Join(inputDir, entry.Name()), outputPath, opts))
	}
	return results, nil
}

// DefaultSingleOutput derives the default output path for single-file mode:
// <stem>_compressed<ext> next to the input.
func DefaultSingleOutput(inputPath string) string {
	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), ext)
	return filepath.Join(filepath.Dir(inputPath), stem+"_compressed"+ext)
}

// FormatExtension maps a target format to its output file extension.
func FormatExtension(format string) string {
	return strings.ToLower(format)
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// hasTransparency reports whether the image type can carry an alpha channel
// or palette entries with alpha.
func hasTransparency(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64, *image.Paletted:
		return true
	}
	return img.ColorModel() == color.NRGBAModel || img.ColorModel() == color.RGBAModel
}

// flattenOnWhite alpha-composites the image onto an opaque white background
// of the same dimensions.
func flattenOnWhite(img image.Image) image.Image {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// resizeToFit scales both dimensions by min(maxW/w, maxH/h) when either
// exceeds its bound, preserving the aspect ratio exactly. Images already
// within bounds are returned untouched.
func resizeToFit(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxWidth && height <= maxHeight {
		return img
	}

	ratio := float64(maxWidth) / float64(width)
	if r := float64(maxHeight) / float64(height); r < ratio {
		ratio = r
	}

	newWidth := int(float64(width) * ratio)
	newHeight := int(float64(height) * ratio)
	return imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
}

func encodeImage(img image.Image, outputPath string, opts Options) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	switch opts.Format {
	case FormatJPEG:
		return imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
	case FormatPNG:
		// Quality does not apply to PNG; the optimize flag picks the
		// compression level instead.
		level := png.DefaultCompression
		if opts.Optimize {
			level = png.BestCompression
		}
		return imaging.Encode(f, img, imaging.PNG, imaging.PNGCompressionLevel(level))
	case FormatWebP:
		encOpts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(opts.Quality))
		if err != nil {
			return err
		}
		return webp.Encode(f, img, encOpts)
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}
