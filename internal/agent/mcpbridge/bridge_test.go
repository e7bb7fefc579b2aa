package mcpbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexsharp-ai/bytebot/internal/agent/dispatcher"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

type fakeHandler struct {
	result dispatcher.ToolResult
}

func (f fakeHandler) HandleComputerToolUse(ctx context.Context, block types.ContentBlock) dispatcher.ToolResult {
	return f.result
}

func TestDefaultSpecs_ExposesScreenshotTool(t *testing.T) {
	specs := DefaultSpecs()
	require.Len(t, specs, 1)
	assert.Equal(t, "computer_screenshot", specs[0].Name)
	assert.NotEmpty(t, specs[0].Description)
}

func TestNew_BuildsServerAndHandler(t *testing.T) {
	b := New(fakeHandler{result: dispatcher.ToolResult{Content: "ok"}}, DefaultSpecs())
	require.NotNil(t, b.Server())
	require.NotNil(t, b.Handler())
}
