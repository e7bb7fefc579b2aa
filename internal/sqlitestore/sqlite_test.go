package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTaskStore_CreateFindUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task, err := db.Tasks().Create(ctx, store.TaskCreate{
		Type:        "chore",
		Priority:    "HIGH",
		Description: "clean up",
		CreatedBy:   "ASSISTANT",
		Model:       []byte(`"claude-3-5-sonnet"`),
	})
	require.NoError(t, err)
	require.Equal(t, types.StatusPending, task.Status)

	found, err := db.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, task.ID, found.ID)
	require.Equal(t, `"claude-3-5-sonnet"`, string(found.Model))

	status := types.StatusRunning
	errMsg := "boom"
	require.NoError(t, db.Tasks().Update(ctx, task.ID, store.TaskUpdate{Status: &status, Error: &errMsg}))

	found, err = db.Tasks().FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusRunning, found.Status)
	require.Equal(t, "boom", found.Error)
}

func TestTaskStore_FindByID_NotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Tasks().FindByID(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func TestMessageStore_CreateAndFindUnsummarizedExcludesAttached(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task, err := db.Tasks().Create(ctx, store.TaskCreate{Type: "t", Priority: "LOW", Description: "d", CreatedBy: "ASSISTANT"})
	require.NoError(t, err)

	m1, err := db.Messages().Create(ctx, store.MessageCreate{
		TaskID: task.ID, Role: types.RoleUser,
		Content: []types.ContentBlock{types.TextBlock("first")},
	})
	require.NoError(t, err)

	_, err = db.Messages().Create(ctx, store.MessageCreate{
		TaskID: task.ID, Role: types.RoleAssistant,
		Content: []types.ContentBlock{types.TextBlock("second")},
	})
	require.NoError(t, err)

	unsummarized, err := db.Messages().FindUnsummarized(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, unsummarized, 2)

	summary, err := db.Summaries().Create(ctx, store.SummaryCreate{TaskID: task.ID, Content: "recap"})
	require.NoError(t, err)

	require.NoError(t, db.Messages().AttachSummary(ctx, task.ID, summary.ID, []string{m1.ID}))

	remaining, err := db.Messages().FindUnsummarized(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "second", remaining[0].Content[0].Text)
}

func TestSummaryStore_FindLatestReturnsNilWhenAbsent(t *testing.T) {
	db := openTestDB(t)
	latest, err := db.Summaries().FindLatest(context.Background(), "no-such-task")
	require.NoError(t, err)
	require.Nil(t, latest)
}

func TestSummaryStore_FindLatestReturnsMostRecent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task, err := db.Tasks().Create(ctx, store.TaskCreate{Type: "t", Priority: "LOW", Description: "d", CreatedBy: "ASSISTANT"})
	require.NoError(t, err)

	_, err = db.Summaries().Create(ctx, store.SummaryCreate{TaskID: task.ID, Content: "older"})
	require.NoError(t, err)
	second, err := db.Summaries().Create(ctx, store.SummaryCreate{TaskID: task.ID, Content: "newer"})
	require.NoError(t, err)

	latest, err := db.Summaries().FindLatest(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, second.ID, latest.ID)
	require.Equal(t, "newer", latest.Content)
}
