package transport

import (
	"context"
	"net/http"
	"time"

	"doubao-image-mcp/internal/config"
	"doubao-image-mcp/internal/logger"
	"doubao-image-mcp/internal/tools"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ToolResponse carries a tool's text payload over the HTTP transport. Error
// payloads travel the same way with status 200; HTTP-level errors are
// reserved for malformed requests.
type ToolResponse struct {
	Text string `json:"text"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHTTPHandler builds the HTTP alternative to the stdio transport: one
// POST route per tool plus a health probe.
func NewHTTPHandler(generate *tools.GenerateHandler, compress *tools.CompressHandler, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(requestSizeLimiter(cfg.MaxRequestBodySize))

	r.GET("/health", healthCheck)
	r.POST("/tools/generate_images", toolRoute("generate_images", cfg, generate.Handle))
	r.POST("/tools/compress_images", toolRoute("compress_images", cfg, compress.Handle))

	return r
}

func toolRoute(name string, cfg *config.Config, handle func(context.Context, map[string]any) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"tool":   name,
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing tool request")

		args := map[string]any{}
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&args); err != nil {
				logger.WithError(err).WithField("ip", c.ClientIP()).Error("Invalid request format")
				c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
					Error:   http.StatusText(http.StatusBadRequest),
					Message: "invalid request format: " + err.Error(),
				})
				return
			}
		}

		text := handle(ctx, args)

		logger.WithFields(logrus.Fields{
			"tool":               name,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Tool request completed")

		c.JSON(http.StatusOK, ToolResponse{Text: text})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": serverVersion,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
