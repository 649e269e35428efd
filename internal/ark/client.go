package ark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "doubao-image-mcp/internal/errors"
	"doubao-image-mcp/internal/logger"
	"doubao-image-mcp/pkg/models"

	"github.com/sirupsen/logrus"
)

// placeholderAPIKey is the value shipped in example configs; treating it as
// unset catches copy-pasted setups at startup instead of on the first call.
const placeholderAPIKey = "REPLACE_WITH_YOUR_KEY"

// GenerateOptions are the parameters for one generation call.
type GenerateOptions struct {
	Prompt          string
	Count           int
	Size            string
	Watermark       bool
	ReferenceImages []string
	// SequentialMode is passed through verbatim: "auto" or "disabled", with
	// the legacy "true"/"false" spellings still accepted upstream.
	SequentialMode string
	// MaxImages overrides Count as the effective target when non-nil.
	MaxImages *int
}

// ImageGenerator is the interface the orchestration layer consumes.
type ImageGenerator interface {
	GenerateImages(ctx context.Context, opts GenerateOptions) ([]models.ImageItem, error)
}

// Client calls the Ark image-generation API. Construct it once per process
// and reuse it; it is read-only after construction.
type Client struct {
	baseURL    string
	modelID    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds an Ark client. A missing or placeholder API key is a
// configuration error, surfaced here rather than on the first request.
func NewClient(baseURL, modelID, apiKey string) (*Client, error) {
	if apiKey == "" || apiKey == placeholderAPIKey {
		return nil, apperrors.NewConfigError(
			"Please set the ARK_API_KEY environment variable. "+
				"You can get your API key from https://console.volcengine.com/ark", nil)
	}

	// Connection pooling tuned for a single long-lived API endpoint. The
	// generation round trip itself has no client-side deadline; callers
	// bound it through ctx if they need to.
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelID:    modelID,
		apiKey:     apiKey,
		httpClient: &http.Client{Transport: transport},
	}, nil
}

// GenerateImages performs exactly one generation call and maps the response
// into domain image items. Every transport-level and API-level failure is
// wrapped into a single upstream error kind carrying the original cause.
func (c *Client) GenerateImages(ctx context.Context, opts GenerateOptions) ([]models.ImageItem, error) {
	// Use max_images if provided, otherwise the fixed count. The effective
	// count always travels in the sequential-generation options so single-shot
	// and auto modes share one request path.
	targetCount := opts.Count
	if opts.MaxImages != nil {
		targetCount = *opts.MaxImages
	}

	logger.WithFields(logrus.Fields{
		"target_count":    targetCount,
		"size":            opts.Size,
		"sequential_mode": opts.SequentialMode,
		"ref_images":      len(opts.ReferenceImages),
	}).Info("Generating images")

	reqBody := imageGenerationRequest{
		Model:                     c.modelID,
		Prompt:                    opts.Prompt,
		Size:                      opts.Size,
		ResponseFormat:            "url",
		Watermark:                 opts.Watermark,
		SequentialImageGeneration: opts.SequentialMode,
		SequentialImageGenerationOptions: &sequentialImageGenerationOptions{
			MaxImages: targetCount,
		},
	}
	if len(opts.ReferenceImages) > 0 {
		reqBody.Image = opts.ReferenceImages
	}

	items, err := c.doGenerate(ctx, reqBody, opts.Size)
	if err != nil {
		logger.WithError(err).Error("Image generation failed")
		return nil, apperrors.NewUpstreamError("Failed to generate images", err)
	}

	logger.WithField("count", len(items)).Info("Successfully generated images")
	return items, nil
}

func (c *Client) doGenerate(ctx context.Context, reqBody imageGenerationRequest, requestedSize string) ([]models.ImageItem, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var decoded imageGenerationResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}

	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, fmt.Errorf("API error: %s", decoded.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if len(decoded.Data) == 0 {
		return nil, fmt.Errorf("API response missing data field or data is empty")
	}

	items := make([]models.ImageItem, 0, len(decoded.Data))
	for i, d := range decoded.Data {
		if d.URL == "" {
			return nil, fmt.Errorf("response item %d missing url field", i)
		}
		// The reported size is preferred; fall back to the requested size
		// when the API omits it.
		size := d.Size
		if size == "" {
			size = requestedSize
		}
		item, err := models.NewImageItem(d.URL, size)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
