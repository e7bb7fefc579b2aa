// Package summarizer implements the history-compression policy of
// spec.md §4.5: once a turn's token usage crosses a fraction of the model's
// context window, it drives a second provider call to compress history and
// attaches the resulting Summary to every message that fed it.
package summarizer

import (
	"context"
	"sync/atomic"

	"github.com/alexsharp-ai/bytebot/internal/agent/provider"
	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
	"github.com/alexsharp-ai/bytebot/internal/logging"
)

// ThresholdFraction is the portion of the context window that triggers
// summarization (spec.md §4.5).
const ThresholdFraction = 0.75

// DefaultContextWindow is used when a descriptor carries no explicit window.
const DefaultContextWindow = 200000

const summarizationSystemPrompt = "You are compressing a conversation history into a concise summary that preserves all information needed to continue the task."

const summarizationInstruction = "Summarize the conversation above so it can replace the messages it covers. Be concise but preserve every fact needed to continue the task."

// Summarizer drives the second LLM call and attaches the result.
type Summarizer struct {
	Messages  store.MessageStore
	Summaries store.SummaryStore

	// failures counts swallowed summarization errors (spec.md §9(b)): no
	// metrics exporter is wired (an observability pipeline is out of
	// scope), but the count itself is a real, scrapeable field rather than
	// a log line alone.
	failures atomic.Int64
}

// Failures returns the number of summarization attempts that have failed and
// been swallowed so far.
func (s *Summarizer) Failures() int64 { return s.failures.Load() }

// New creates a Summarizer backed by the given stores.
func New(messages store.MessageStore, summaries store.SummaryStore) *Summarizer {
	return &Summarizer{Messages: messages, Summaries: summaries}
}

// MaybeSummarize checks the threshold and, if crossed, summarizes. Failures
// are logged and swallowed per spec.md §4.5 — they must never fail the task.
func (s *Summarizer) MaybeSummarize(ctx context.Context, p provider.Provider, taskID string, descriptor types.ModelDescriptor, conversation []types.Message, totalTokens int) {
	threshold := int(float64(descriptor.ContextWindowOr(DefaultContextWindow)) * ThresholdFraction)
	if totalTokens < threshold {
		return
	}

	if err := s.summarize(ctx, p, taskID, descriptor, conversation); err != nil {
		s.failures.Add(1)
		logging.Warnf("[summarizer] task %s: summarization failed, continuing without it: %v", taskID, err)
	}
}

func (s *Summarizer) summarize(ctx context.Context, p provider.Provider, taskID string, descriptor types.ModelDescriptor, conversation []types.Message) error {
	withInstruction := append(append([]types.Message(nil), conversation...), types.Message{
		Role:    types.RoleUser,
		Content: []types.ContentBlock{types.TextBlock(summarizationInstruction)},
	})

	result, err := p.GenerateMessage(ctx, summarizationSystemPrompt, withInstruction, descriptor.Name, false)
	if err != nil {
		return err
	}

	body := ""
	for _, b := range result.ContentBlocks {
		if b.Type != types.BlockText {
			continue
		}
		if body != "" {
			body += "\n"
		}
		body += b.Text
	}

	summary, err := s.Summaries.Create(ctx, store.SummaryCreate{TaskID: taskID, Content: body})
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(conversation))
	for _, m := range conversation {
		if m.ID != "" {
			ids = append(ids, m.ID)
		}
	}

	return s.Messages.AttachSummary(ctx, taskID, summary.ID, ids)
}
