package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GoogleProvider implements Provider over the Gemini SDK.
type GoogleProvider struct {
	apiKey string
	model  string
}

// NewGoogleProvider creates a Gemini-backed Provider. A client is opened
// per call rather than held open, matching the reference runtime's
// request-scoped HTTP usage for this backend.
func NewGoogleProvider(apiKey, model string) *GoogleProvider {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GoogleProvider{apiKey: apiKey, model: model}
}

func (p *GoogleProvider) ID() types.Provider { return types.ProviderGoogle }

func (p *GoogleProvider) GenerateMessage(ctx context.Context, systemPrompt string, messages []types.Message, modelName string, toolsEnabled bool) (*GenerateResult, error) {
	model := p.model
	if modelName != "" {
		model = modelName
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return nil, fmt.Errorf("google: new client: %w", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(model)
	if systemPrompt != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	history, lastParts := buildGeminiHistory(messages)

	cs := gm.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, lastParts...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Interrupt{Reason: InterruptName}
		}
		return nil, fmt.Errorf("google: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &GenerateResult{}, nil
	}

	var blocks []types.ContentBlock
	callCounter := 0
	for _, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			blocks = append(blocks, types.TextBlock(string(v)))
		case genai.FunctionCall:
			callCounter++
			input, _ := json.Marshal(v.Args)
			blocks = append(blocks, types.ContentBlock{
				Type:      types.BlockToolUse,
				ToolUseID: fmt.Sprintf("gemini-call-%d", callCounter),
				Name:      v.Name,
				Input:     input,
			})
		}
	}

	totalTokens := 0
	if resp.UsageMetadata != nil {
		totalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &GenerateResult{
		ContentBlocks: blocks,
		TokenUsage:    TokenUsage{TotalTokens: totalTokens},
	}, nil
}

// buildGeminiHistory converts the conversation to Gemini turns. Gemini
// requires a chat to end with the caller's turn, so the final user turn is
// returned separately as the parts passed to SendMessage rather than
// folded into history.
func buildGeminiHistory(msgs []types.Message) ([]*genai.Content, []genai.Part) {
	var history []*genai.Content

	for i, msg := range msgs {
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}

		var parts []genai.Part
		for _, b := range msg.Content {
			switch b.Type {
			case types.BlockText:
				if b.Text != "" {
					parts = append(parts, genai.Text(b.Text))
				}
			case types.BlockToolResult:
				parts = append(parts, genai.Text(fmt.Sprintf("[tool result %s]\n%s", b.ToolUseRefID, b.TextContent())))
			case types.BlockToolUse:
				var args map[string]any
				_ = json.Unmarshal(b.Input, &args)
				parts = append(parts, genai.FunctionCall{Name: b.Name, Args: args})
			}
		}
		if len(parts) == 0 {
			continue
		}

		if i == len(msgs)-1 && role == "user" {
			return history, parts
		}
		history = append(history, &genai.Content{Role: role, Parts: parts})
	}

	return history, []genai.Part{genai.Text("Continue.")}
}
