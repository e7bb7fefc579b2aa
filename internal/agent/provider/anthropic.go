package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/alexsharp-ai/bytebot/internal/agent/types"
	"github.com/alexsharp-ai/bytebot/internal/logging"
)

const defaultMaxTokens = 8192

// AnthropicProvider implements Provider over the official Anthropic SDK.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates an Anthropic-backed Provider. model is the
// default used when GenerateMessage's modelName argument is empty.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *AnthropicProvider) ID() types.Provider { return types.ProviderAnthropic }

func (p *AnthropicProvider) GenerateMessage(ctx context.Context, systemPrompt string, messages []types.Message, modelName string, toolsEnabled bool) (*GenerateResult, error) {
	model := p.model
	if modelName != "" {
		model = modelName
	}

	msgParams, err := buildAnthropicMessages(messages)
	if err != nil {
		return nil, fmt.Errorf("anthropic: build messages: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(defaultMaxTokens),
		Messages:  msgParams,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if toolsEnabled {
		params.Tools = anthropicTools()
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Interrupt{Reason: InterruptName}
		}
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	blocks := make([]types.ContentBlock, 0, len(resp.Content))
	for _, c := range resp.Content {
		switch v := c.AsAny().(type) {
		case anthropic.TextBlock:
			blocks = append(blocks, types.TextBlock(v.Text))
		case anthropic.ToolUseBlock:
			input, _ := json.Marshal(v.Input)
			blocks = append(blocks, types.ContentBlock{
				Type:      types.BlockToolUse,
				ToolUseID: v.ID,
				Name:      v.Name,
				Input:     input,
			})
		default:
			logging.Warnf("[anthropic] unhandled content block type %T", v)
		}
	}

	return &GenerateResult{
		ContentBlocks: blocks,
		TokenUsage:    TokenUsage{TotalTokens: int(resp.Usage.InputTokens + resp.Usage.OutputTokens)},
	}, nil
}

// anthropicTools returns the tool set sent when toolsEnabled is true. It is
// empty: no tool definitions are sent to Anthropic, so toolsEnabled does not
// change the request.
func anthropicTools() []anthropic.ToolUnionParam {
	return nil
}

func buildAnthropicMessages(msgs []types.Message) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam

	for _, msg := range msgs {
		switch msg.Role {
		case types.RoleUser:
			blocks, toolResultBlocks := splitUserBlocks(msg.Content)
			var params []anthropic.ContentBlockParamUnion
			for _, b := range blocks {
				params = append(params, anthropic.NewTextBlock(b.Text))
			}
			for _, b := range toolResultBlocks {
				params = append(params, anthropic.NewToolResultBlock(b.ToolUseRefID, b.TextContent(), b.IsError))
			}
			if len(params) > 0 {
				result = append(result, anthropic.MessageParam{Role: anthropic.MessageParamRoleUser, Content: params})
			}

		case types.RoleAssistant:
			var params []anthropic.ContentBlockParamUnion
			for _, b := range msg.Content {
				switch b.Type {
				case types.BlockText:
					if b.Text != "" {
						params = append(params, anthropic.NewTextBlock(b.Text))
					}
				case types.BlockToolUse:
					var input map[string]any
					_ = json.Unmarshal(b.Input, &input)
					params = append(params, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{ID: b.ToolUseID, Name: b.Name, Input: input},
					})
				}
			}
			if len(params) > 0 {
				result = append(result, anthropic.MessageParam{Role: anthropic.MessageParamRoleAssistant, Content: params})
			}
		}
	}

	return result, nil
}

// splitUserBlocks separates a user message's Text blocks from its
// ToolResult blocks; Anthropic's wire format allows both in one user turn.
func splitUserBlocks(content []types.ContentBlock) (text []types.ContentBlock, toolResults []types.ContentBlock) {
	for _, b := range content {
		switch b.Type {
		case types.BlockText:
			text = append(text, b)
		case types.BlockToolResult:
			toolResults = append(toolResults, b)
		}
	}
	return
}
