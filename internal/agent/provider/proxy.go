package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// ProxyProvider forwards generateMessage calls to an OpenAI-compatible HTTP
// endpoint (spec.md §6: BYTEBOT_LLM_PROXY_URL), for self-hosted or gateway
// deployments that front an arbitrary model behind a uniform chat-completions
// contract. No pack SDK models a user-supplied proxy protocol, so this talks
// net/http directly rather than adopting any single vendor's client.
type ProxyProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewProxyProvider creates a Provider that posts to baseURL + "/chat/completions".
func NewProxyProvider(baseURL, model string) *ProxyProvider {
	return &ProxyProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *ProxyProvider) ID() types.Provider { return types.ProviderProxy }

type proxyMessage struct {
	Role       string          `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolCalls  []proxyToolCall `json:"tool_calls,omitempty"`
}

type proxyToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type proxyRequest struct {
	Model    string         `json:"model"`
	Messages []proxyMessage `json:"messages"`
}

type proxyResponse struct {
	Choices []struct {
		Message struct {
			Content   string          `json:"content"`
			ToolCalls []proxyToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *ProxyProvider) GenerateMessage(ctx context.Context, systemPrompt string, messages []types.Message, modelName string, toolsEnabled bool) (*GenerateResult, error) {
	model := p.model
	if modelName != "" {
		model = modelName
	}

	var body proxyRequest
	body.Model = model
	if systemPrompt != "" {
		body.Messages = append(body.Messages, proxyMessage{Role: "system", Content: systemPrompt})
	}
	body.Messages = append(body.Messages, flattenForProxy(messages)...)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("proxy: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("proxy: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Interrupt{Reason: InterruptName}
		}
		return nil, fmt.Errorf("proxy: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("proxy: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("proxy: status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed proxyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("proxy: decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("proxy: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return &GenerateResult{}, nil
	}

	msg := parsed.Choices[0].Message
	var blocks []types.ContentBlock
	if msg.Content != "" {
		blocks = append(blocks, types.TextBlock(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		blocks = append(blocks, types.ContentBlock{
			Type:      types.BlockToolUse,
			ToolUseID: tc.ID,
			Name:      tc.Function.Name,
			Input:     json.RawMessage(tc.Function.Arguments),
		})
	}

	return &GenerateResult{
		ContentBlocks: blocks,
		TokenUsage:    TokenUsage{TotalTokens: parsed.Usage.TotalTokens},
	}, nil
}

func flattenForProxy(msgs []types.Message) []proxyMessage {
	var out []proxyMessage
	for _, msg := range msgs {
		switch msg.Role {
		case types.RoleUser:
			var text string
			for _, b := range msg.Content {
				switch b.Type {
				case types.BlockText:
					text += b.Text
				case types.BlockToolResult:
					out = append(out, proxyMessage{Role: "tool", Content: b.TextContent(), ToolCallID: b.ToolUseRefID})
				}
			}
			if text != "" {
				out = append(out, proxyMessage{Role: "user", Content: text})
			}

		case types.RoleAssistant:
			var text string
			var calls []proxyToolCall
			for _, b := range msg.Content {
				switch b.Type {
				case types.BlockText:
					text += b.Text
				case types.BlockToolUse:
					tc := proxyToolCall{ID: b.ToolUseID, Type: "function"}
					tc.Function.Name = b.Name
					tc.Function.Arguments = string(b.Input)
					calls = append(calls, tc)
				}
			}
			if text != "" || len(calls) > 0 {
				out = append(out, proxyMessage{Role: "assistant", Content: text, ToolCalls: calls})
			}
		}
	}
	return out
}
