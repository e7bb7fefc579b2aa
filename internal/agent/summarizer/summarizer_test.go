package summarizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexsharp-ai/bytebot/internal/agent/provider"
	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/testhelpers"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

func TestMaybeSummarize_BelowThresholdNoOp(t *testing.T) {
	mem := store.NewMemory()
	s := New(mem.Messages(), mem.Summaries())
	p := &testhelpers.FakeProvider{Tag: types.ProviderAnthropic}

	descriptor := types.ModelDescriptor{}
	s.MaybeSummarize(context.Background(), p, "t1", descriptor, nil, 1000)

	assert.Equal(t, 0, p.Calls)
	latest, err := mem.Summaries().FindLatest(context.Background(), "t1")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestMaybeSummarize_AtOrAboveThresholdCreatesSummary(t *testing.T) {
	mem := store.NewMemory()
	s := New(mem.Messages(), mem.Summaries())
	p := &testhelpers.FakeProvider{
		Tag: types.ProviderAnthropic,
		Results: []testhelpers.FakeCall{
			{Result: &provider.GenerateResult{ContentBlocks: []types.ContentBlock{
				types.TextBlock("first part"),
				types.TextBlock("second part"),
			}}},
		},
	}

	window := 100000
	descriptor := types.ModelDescriptor{ContextWindow: &window}
	conv := []types.Message{{ID: "m1", Role: types.RoleUser, Content: []types.ContentBlock{types.TextBlock("hello")}}}

	s.MaybeSummarize(context.Background(), p, "t1", descriptor, conv, 75000)

	assert.Equal(t, 1, p.Calls)
	latest, err := mem.Summaries().FindLatest(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "first part\nsecond part", latest.Content)
}

func TestMaybeSummarize_FailureIsSwallowed(t *testing.T) {
	mem := store.NewMemory()
	s := New(mem.Messages(), mem.Summaries())
	p := &testhelpers.FakeProvider{
		Tag: types.ProviderAnthropic,
		Results: []testhelpers.FakeCall{
			{Err: assertErr{}},
		},
	}

	descriptor := types.ModelDescriptor{}
	assert.NotPanics(t, func() {
		s.MaybeSummarize(context.Background(), p, "t1", descriptor, nil, 999999)
	})
	assert.EqualValues(t, 1, s.Failures())
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
