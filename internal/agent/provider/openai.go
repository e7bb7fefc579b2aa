package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// OpenAIProvider implements Provider over the official OpenAI SDK.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI-backed Provider. model should come
// from configuration, never hardcoded (mirrors the teacher's own caution
// for this SDK).
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *OpenAIProvider) ID() types.Provider { return types.ProviderOpenAI }

func (p *OpenAIProvider) GenerateMessage(ctx context.Context, systemPrompt string, messages []types.Message, modelName string, toolsEnabled bool) (*GenerateResult, error) {
	model := p.model
	if modelName != "" {
		model = modelName
	}

	chatMessages := buildOpenAIMessages(systemPrompt, messages)

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: chatMessages,
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Interrupt{Reason: InterruptName}
		}
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return &GenerateResult{}, nil
	}

	choice := resp.Choices[0]
	var blocks []types.ContentBlock
	if choice.Message.Content != "" {
		blocks = append(blocks, types.TextBlock(choice.Message.Content))
	}
	for _, tc := range choice.Message.ToolCalls {
		blocks = append(blocks, types.ContentBlock{
			Type:      types.BlockToolUse,
			ToolUseID: tc.ID,
			Name:      tc.Function.Name,
			Input:     json.RawMessage(tc.Function.Arguments),
		})
	}

	return &GenerateResult{
		ContentBlocks: blocks,
		TokenUsage:    TokenUsage{TotalTokens: int(resp.Usage.TotalTokens)},
	}, nil
}

// buildOpenAIMessages flattens the conversation into OpenAI's message list,
// pairing each tool_use block with its corresponding tool message (spec.md
// §4.4: tool results travel as user-role ToolResult blocks internally, but
// OpenAI's wire format wants a distinct "tool" role keyed by tool_call_id).
func buildOpenAIMessages(systemPrompt string, msgs []types.Message) []openai.ChatCompletionMessageParamUnion {
	var result []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		result = append(result, openai.SystemMessage(systemPrompt))
	}

	for _, msg := range msgs {
		switch msg.Role {
		case types.RoleUser:
			var text string
			for _, b := range msg.Content {
				switch b.Type {
				case types.BlockText:
					text += b.Text
				case types.BlockToolResult:
					result = append(result, openai.ToolMessage(b.TextContent(), b.ToolUseRefID))
				}
			}
			if text != "" {
				result = append(result, openai.UserMessage(text))
			}

		case types.RoleAssistant:
			var text string
			var toolCalls []openai.ChatCompletionMessageToolCallParam
			for _, b := range msg.Content {
				switch b.Type {
				case types.BlockText:
					text += b.Text
				case types.BlockToolUse:
					toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
						ID:   b.ToolUseID,
						Type: "function",
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      b.Name,
							Arguments: string(b.Input),
						},
					})
				}
			}
			if text == "" && len(toolCalls) == 0 {
				continue
			}
			assistantMsg := openai.ChatCompletionAssistantMessageParam{Role: "assistant"}
			if text != "" {
				assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)}
			}
			if len(toolCalls) > 0 {
				assistantMsg.ToolCalls = toolCalls
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistantMsg})
		}
	}

	return result
}
