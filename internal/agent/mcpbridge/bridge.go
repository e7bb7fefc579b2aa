// Package mcpbridge exposes the desktop-automation ("computer_*") tool
// surface over MCP, so an external MCP client can drive the same
// ComputerToolHandler the core loop's dispatcher uses, without depending on
// any particular LLM provider to reach it.
package mcpbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/alexsharp-ai/bytebot/internal/agent/dispatcher"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
	"github.com/alexsharp-ai/bytebot/internal/logging"
)

// ToolSpec describes one computer_* tool's MCP-facing schema.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Bridge wraps a ComputerToolHandler in an MCP server.
type Bridge struct {
	server  *mcp.Server
	handler dispatcher.ComputerToolHandler
}

// New creates a Bridge exposing specs via handler.
func New(handler dispatcher.ComputerToolHandler, specs []ToolSpec) *Bridge {
	b := &Bridge{
		handler: handler,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "bytebot-desktop",
			Version: "1.0.0",
		}, nil),
	}

	for _, spec := range specs {
		b.server.AddTool(&mcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema,
		}, b.makeHandler(spec.Name))
	}

	return b
}

// Server returns the underlying MCP server, e.g. to run it over stdio or HTTP.
func (b *Bridge) Server() *mcp.Server { return b.server }

// Handler returns an HTTP handler serving this bridge over MCP's streamable
// HTTP transport, so an external desktop-automation process can attach over
// the network instead of an in-process Go interface.
func (b *Bridge) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return b.server },
		nil,
	)
}

func (b *Bridge) makeHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (result *mcp.CallToolResult, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				logging.Errorf("[mcpbridge] panic in %s: %v", name, r)
				result = &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("tool panicked: %v", r)}},
					IsError: true,
				}
			}
		}()

		input, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return nil, fmt.Errorf("mcpbridge: marshal arguments: %w", err)
		}

		block := types.ContentBlock{Type: types.BlockToolUse, Name: name, Input: input}
		toolResult := b.handler.HandleComputerToolUse(ctx, block)

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: toolResult.Content}},
			IsError: toolResult.IsError,
		}, nil
	}
}

// DefaultSpecs describes the one concrete computer_* tool this runtime ships
// a backend for (spec.md's desktop automation surface beyond screenshot is
// out of core scope; see DESIGN.md).
func DefaultSpecs() []ToolSpec {
	return []ToolSpec{
		{
			Name:        "computer_screenshot",
			Description: "Capture a screenshot of a display and return it as a base64-encoded PNG data URL.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"display": map[string]any{
						"type":        "integer",
						"description": "Display index to capture, 0 = primary.",
					},
				},
			},
		},
	}
}
