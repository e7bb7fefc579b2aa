// Package testhelpers holds small fakes shared across the agent packages'
// tests, avoiding import cycles between e.g. processor_test and provider.
package testhelpers

import (
	"context"

	"github.com/alexsharp-ai/bytebot/internal/agent/provider"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// FakeProvider returns a scripted sequence of results/errors, one per call,
// repeating the last entry once exhausted.
type FakeProvider struct {
	Tag     types.Provider
	Results []FakeCall
	Calls   int
}

// FakeCall is one scripted GenerateMessage outcome.
type FakeCall struct {
	Result *provider.GenerateResult
	Err    error
}

func (f *FakeProvider) ID() types.Provider { return f.Tag }

func (f *FakeProvider) GenerateMessage(ctx context.Context, systemPrompt string, messages []types.Message, modelName string, toolsEnabled bool) (*provider.GenerateResult, error) {
	idx := f.Calls
	if idx >= len(f.Results) {
		idx = len(f.Results) - 1
	}
	f.Calls++
	if idx < 0 {
		return &provider.GenerateResult{}, nil
	}
	call := f.Results[idx]
	return call.Result, call.Err
}
