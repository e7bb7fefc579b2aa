package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/sqlitestore"
)

type fakeStarter struct {
	started []string
}

func (f *fakeStarter) ProcessTask(taskID string) {
	f.started = append(f.started, taskID)
}

func openTestDB(t *testing.T) *sqlitestore.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.db")
	db, err := sqlitestore.Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLFinder_PromotesOnlyDuePendingTasks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	due, err := db.Tasks().Create(ctx, store.TaskCreate{
		Type: "t", Priority: "LOW", Description: "d", CreatedBy: "ASSISTANT", ScheduledFor: &past,
	})
	require.NoError(t, err)

	notYetDue, err := db.Tasks().Create(ctx, store.TaskCreate{
		Type: "t", Priority: "LOW", Description: "d", CreatedBy: "ASSISTANT", ScheduledFor: &future,
	})
	require.NoError(t, err)

	unscheduled, err := db.Tasks().Create(ctx, store.TaskCreate{
		Type: "t", Priority: "LOW", Description: "d", CreatedBy: "ASSISTANT",
	})
	require.NoError(t, err)

	finder := &SQLFinder{DB: db.Raw()}
	ids, err := finder.FindDueTaskIDs(ctx, time.Now())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{due.ID}, ids)

	found, err := db.Tasks().FindByID(ctx, due.ID)
	require.NoError(t, err)
	require.Equal(t, "RUNNING", string(found.Status))

	notDueFound, err := db.Tasks().FindByID(ctx, notYetDue.ID)
	require.NoError(t, err)
	require.Equal(t, "PENDING", string(notDueFound.Status))

	unscheduledFound, err := db.Tasks().FindByID(ctx, unscheduled.ID)
	require.NoError(t, err)
	require.Equal(t, "PENDING", string(unscheduledFound.Status))
}

func TestSQLFinder_DoesNotReturnAlreadyRunningTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	finder := &SQLFinder{DB: db.Raw()}

	task, err := db.Tasks().Create(ctx, store.TaskCreate{
		Type: "t", Priority: "LOW", Description: "d", CreatedBy: "ASSISTANT", ScheduledFor: &past,
	})
	require.NoError(t, err)

	first, err := finder.FindDueTaskIDs(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, []string{task.ID}, first)

	second, err := finder.FindDueTaskIDs(ctx, time.Now())
	require.NoError(t, err)
	require.Empty(t, second, "a task already promoted to RUNNING must not be found due again")
}

func TestScheduler_TickStartsDueTasks(t *testing.T) {
	starter := &fakeStarter{}
	finder := &fakeFinder{ids: []string{"t1", "t2"}}
	s := New(finder, starter)

	s.tick()

	require.ElementsMatch(t, []string{"t1", "t2"}, starter.started)
}

type fakeFinder struct {
	ids []string
	err error
}

func (f *fakeFinder) FindDueTaskIDs(ctx context.Context, now time.Time) ([]string, error) {
	return f.ids, f.err
}
