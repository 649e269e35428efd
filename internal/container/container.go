package container

import (
	"fmt"
	"net/http"

	"doubao-image-mcp/internal/ark"
	"doubao-image-mcp/internal/compressor"
	"doubao-image-mcp/internal/config"
	"doubao-image-mcp/internal/downloader"
	"doubao-image-mcp/internal/encoder"
	"doubao-image-mcp/internal/logger"
	"doubao-image-mcp/internal/storage"
	"doubao-image-mcp/internal/tools"
	"doubao-image-mcp/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	generator       ark.ImageGenerator
	downloader      *downloader.Downloader
	generateHandler *tools.GenerateHandler
	compressHandler *tools.CompressHandler
	mcpServer       *transport.MCPServer
	httpHandler     http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	generator, err := ark.NewClient(cfg.ArkBaseURL, cfg.ArkModelID, cfg.ArkAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	// The blob mirror is optional; without Azure settings downloads stay
	// local-only.
	var mirror storage.BlobUploader
	if cfg.MirrorEnabled() {
		mirror, err = storage.NewAzureStorage(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob mirror: %w", err)
		}
		logger.WithField("container", cfg.AzureContainer).Info("Blob mirroring enabled")
	}

	dl := downloader.NewDownloader(cfg.DownloadTimeout, cfg.DownloadWorkers, mirror)

	generateHandler := tools.NewGenerateHandler(generator, encoder.NewReferenceEncoder(), dl)
	compressHandler := tools.NewCompressHandler(compressor.NewCompressor())

	return &Container{
		config:          cfg,
		generator:       generator,
		downloader:      dl,
		generateHandler: generateHandler,
		compressHandler: compressHandler,
		mcpServer:       transport.NewMCPServer(generateHandler, compressHandler),
		httpHandler:     transport.NewHTTPHandler(generateHandler, compressHandler, cfg),
	}, nil
}

// MCPServer returns the stdio protocol server
func (c *Container) MCPServer() *transport.MCPServer {
	return c.mcpServer
}

// HTTPHandler returns the HTTP transport handler
func (c *Container) HTTPHandler() http.Handler {
	return c.httpHandler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases pooled resources.
func (c *Container) Close() {
	c.downloader.Close()
}
