package transport

import (
	"context"
	"encoding/json"

	"doubao-image-mcp/internal/logger"
	"doubao-image-mcp/internal/tools"

	mcpgo "github.com/felixgeelhaar/mcp-go"
)

const (
	serverName    = "doubao-image-mcp"
	serverVersion = "1.0.0"
)

const generateDescription = "Generate images from a text prompt using the Doubao image model and " +
	"download the results into a local directory. Supports up to 10 local reference images and " +
	"sequential (group) generation via sequential_image_generation=auto with max_images."

const compressDescription = "Compress a local image file or every image in a directory: resize to " +
	"fit within max_width x max_height, then re-encode as JPEG, PNG or WebP at the given quality."

// MCPServer exposes the two tools over the Model Context Protocol.
type MCPServer struct {
	srv *mcpgo.Server
}

// NewMCPServer registers both tool handlers on a fresh MCP server.
func NewMCPServer(generate *tools.GenerateHandler, compress *tools.CompressHandler) *MCPServer {
	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    serverName,
		Version: serverVersion,
		Capabilities: mcpgo.Capabilities{
			Tools: true,
		},
	})
	srv.Tool("generate_images").
		Description(generateDescription).
		Handler(func(ctx context.Context, input json.RawMessage) (string, error) {
			args, err := decodeArgs(input)
			if err != nil {
				return "Error: Invalid parameters - " + err.Error(), nil
			}
			return generate.Handle(ctx, args), nil
		})

	srv.Tool("compress_images").
		Description(compressDescription).
		Handler(func(ctx context.Context, input json.RawMessage) (string, error) {
			args, err := decodeArgs(input)
			if err != nil {
				return "Error: Invalid parameters - " + err.Error(), nil
			}
			return compress.Handle(ctx, args), nil
		})

	return &MCPServer{srv: srv}
}

// ServeStdio runs the protocol loop over stdin/stdout until ctx is done or
// the stream closes. Logging goes to stderr so stdout stays clean.
func (s *MCPServer) ServeStdio(ctx context.Context) error {
	logger.WithField("server", serverName).Info("Serving MCP over stdio")
	return mcpgo.ServeStdio(ctx, s.srv, mcpgo.WithMiddleware(mcpgo.Recover(), mcpgo.RequestID()))
}

// decodeArgs turns the raw tool-call payload into the generic mapping the
// handlers consume. An empty payload means no arguments.
func decodeArgs(input json.RawMessage) (map[string]any, error) {
	if len(input) == 0 {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
