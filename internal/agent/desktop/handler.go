// Package desktop implements the Computer Tool Handler collaborator
// (spec.md §6: "handleComputerToolUse(block, logger) -> ToolResult"). The
// full desktop-automation surface (click, type, drag, scroll) is out of
// core scope; this package gives computer_screenshot a real backend via
// kbinani/screenshot and reports every other computer_* tool name as an
// unimplemented, non-fatal failure so the degrader (spec.md §4.6) can count
// it like any other tool error.
package desktop

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"

	"github.com/kbinani/screenshot"

	"github.com/alexsharp-ai/bytebot/internal/agent/dispatcher"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// Handler implements dispatcher.ComputerToolHandler.
type Handler struct{}

// New creates a screenshot-capable Handler.
func New() *Handler { return &Handler{} }

type screenshotInput struct {
	Display int `json:"display"`
}

// HandleComputerToolUse dispatches on the tool name within the computer_*
// namespace (spec.md §3).
func (h *Handler) HandleComputerToolUse(ctx context.Context, block types.ContentBlock) dispatcher.ToolResult {
	switch block.Name {
	case "computer_screenshot":
		return h.screenshot(block.Input)
	default:
		return dispatcher.ToolResult{
			Content: fmt.Sprintf("%s is not implemented by this desktop tool backend", block.Name),
			IsError: true,
		}
	}
}

func (h *Handler) screenshot(input json.RawMessage) dispatcher.ToolResult {
	var params screenshotInput
	_ = json.Unmarshal(input, &params)

	numDisplays := screenshot.NumActiveDisplays()
	if numDisplays == 0 {
		return dispatcher.ToolResult{Content: "no active displays found", IsError: true}
	}
	if params.Display < 0 || params.Display >= numDisplays {
		params.Display = 0
	}

	bounds := screenshot.GetDisplayBounds(params.Display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return dispatcher.ToolResult{Content: fmt.Sprintf("failed to capture screenshot: %v", err), IsError: true}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return dispatcher.ToolResult{Content: fmt.Sprintf("failed to encode screenshot: %v", err), IsError: true}
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return dispatcher.ToolResult{Content: fmt.Sprintf("data:image/png;base64,%s", encoded)}
}
