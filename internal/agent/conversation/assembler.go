// Package conversation implements the Conversation Assembler (spec.md §4.4):
// it builds the ordered message sequence fed to the LLM from persisted
// state plus synthetic advisory messages that are never themselves persisted.
package conversation

import (
	"context"
	"fmt"

	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

const computerToolsDisabledAdvisory = "Desktop automation tools are currently unavailable for this task. Do not request any computer_* tool."

// Assembler produces the conversation handed to a Provider.
type Assembler struct {
	Messages  store.MessageStore
	Summaries store.SummaryStore
}

// New creates an Assembler backed by the given stores.
func New(messages store.MessageStore, summaries store.SummaryStore) *Assembler {
	return &Assembler{Messages: messages, Summaries: summaries}
}

// Assemble runs the four steps of spec.md §4.4 in order.
func (a *Assembler) Assemble(ctx context.Context, taskID string, computerToolsDisabled bool) ([]types.Message, error) {
	summary, err := a.Summaries.FindLatest(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("conversation: find latest summary: %w", err)
	}

	unsummarized, err := a.Messages.FindUnsummarized(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("conversation: find unsummarized messages: %w", err)
	}

	var out []types.Message
	if summary != nil {
		out = append(out, types.Message{
			Role:    types.RoleUser,
			Content: []types.ContentBlock{types.TextBlock(summary.Content)},
		})
	}

	out = append(out, unsummarized...)

	if computerToolsDisabled {
		out = append(out, types.Message{
			Role:    types.RoleUser,
			Content: []types.ContentBlock{types.TextBlock(computerToolsDisabledAdvisory)},
		})
	}

	return out, nil
}
