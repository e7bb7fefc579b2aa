package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

func TestAssemble_NoSummaryNoAdvisory(t *testing.T) {
	mem := store.NewMemory()
	mem.PutMessage(&types.Message{ID: "m1", TaskID: "t1", Role: types.RoleUser, Content: []types.ContentBlock{types.TextBlock("hi")}, CreatedAt: time.Now()})

	a := New(mem.Messages(), mem.Summaries())
	conv, err := a.Assemble(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	require.Equal(t, "hi", conv[0].Content[0].Text)
}

func TestAssemble_PrependsSummaryAppendsAdvisory(t *testing.T) {
	mem := store.NewMemory()
	_, err := mem.Summaries().Create(context.Background(), store.SummaryCreate{TaskID: "t1", Content: "previous work summary"})
	require.NoError(t, err)
	mem.PutMessage(&types.Message{ID: "m1", TaskID: "t1", Role: types.RoleUser, Content: []types.ContentBlock{types.TextBlock("continue")}, CreatedAt: time.Now()})

	a := New(mem.Messages(), mem.Summaries())
	conv, err := a.Assemble(context.Background(), "t1", true)
	require.NoError(t, err)
	require.Len(t, conv, 3)

	require.Equal(t, types.RoleUser, conv[0].Role)
	require.Equal(t, "previous work summary", conv[0].Content[0].Text)

	require.Equal(t, "continue", conv[1].Content[0].Text)

	require.Equal(t, types.RoleUser, conv[2].Role)
	require.Contains(t, conv[2].Content[0].Text, "unavailable")
}

func TestAssemble_ExcludesSummarizedMessages(t *testing.T) {
	mem := store.NewMemory()
	summarized := "sum-1"
	mem.PutMessage(&types.Message{ID: "m1", TaskID: "t1", SummaryID: &summarized, Content: []types.ContentBlock{types.TextBlock("old")}, CreatedAt: time.Now()})
	mem.PutMessage(&types.Message{ID: "m2", TaskID: "t1", Content: []types.ContentBlock{types.TextBlock("new")}, CreatedAt: time.Now().Add(time.Second)})

	a := New(mem.Messages(), mem.Summaries())
	conv, err := a.Assemble(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Len(t, conv, 1)
	require.Equal(t, "new", conv[0].Content[0].Text)
}
