package processor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexsharp-ai/bytebot/internal/agent/dispatcher"
	"github.com/alexsharp-ai/bytebot/internal/agent/provider"
	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/testhelpers"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

type noopDesktop struct{}

func (noopDesktop) HandleComputerToolUse(ctx context.Context, block types.ContentBlock) dispatcher.ToolResult {
	return dispatcher.ToolResult{Content: "not implemented", IsError: true}
}

func waitForStatus(t *testing.T, mem *store.Memory, taskID string, want types.TaskStatus) *types.Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		task, err := mem.Tasks().FindByID(context.Background(), taskID)
		require.NoError(t, err)
		if task.Status == want {
			return task
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("task %s never reached status %s", taskID, want)
	return nil
}

func newTestProcessor(mem *store.Memory, registry *provider.Registry) *Processor {
	return New(Config{
		Tasks:     mem.Tasks(),
		Messages:  mem.Messages(),
		Summaries: mem.Summaries(),
		Providers: registry,
		Desktop:   noopDesktop{},
	})
}

func TestProcessTask_HappyPathCompletes(t *testing.T) {
	mem := store.NewMemory()
	mem.PutTask(&types.Task{ID: "t1", Status: types.StatusRunning, Model: []byte(`"claude-3-5-sonnet"`)})

	registry := provider.NewRegistry()
	registry.Register(&testhelpers.FakeProvider{
		Tag: types.ProviderAnthropic,
		Results: []testhelpers.FakeCall{
			{Result: &provider.GenerateResult{
				ContentBlocks: []types.ContentBlock{
					types.TextBlock("done"),
					{Type: types.BlockToolUse, Name: "set_task_status", ToolUseID: "tu1", Input: []byte(`{"status":"completed"}`)},
				},
			}},
		},
	})

	p := newTestProcessor(mem, registry)
	p.ProcessTask("t1")

	task := waitForStatus(t, mem, "t1", types.StatusCompleted)
	assert.NotNil(t, task.CompletedAt)
	assert.False(t, p.IsProcessing())
}

func TestProcessTask_UnknownProviderFails(t *testing.T) {
	mem := store.NewMemory()
	mem.PutTask(&types.Task{ID: "t1", Status: types.StatusRunning, Model: []byte(`"claude-3-5-sonnet"`)})

	registry := provider.NewRegistry()
	p := newTestProcessor(mem, registry)
	p.ProcessTask("t1")

	task := waitForStatus(t, mem, "t1", types.StatusFailed)
	assert.Contains(t, task.Error, "no service for provider")
	assert.False(t, p.IsProcessing())
}

func TestProcessTask_InterruptRetriesThenExhausts(t *testing.T) {
	mem := store.NewMemory()
	mem.PutTask(&types.Task{ID: "t1", Status: types.StatusRunning, Model: []byte(`"claude-3-5-sonnet"`)})

	registry := provider.NewRegistry()
	registry.Register(&testhelpers.FakeProvider{
		Tag: types.ProviderAnthropic,
		Results: []testhelpers.FakeCall{
			{Err: &provider.Interrupt{}},
			{Err: &provider.Interrupt{}},
			{Err: &provider.Interrupt{}},
			{Err: &provider.Interrupt{}},
		},
	})

	p := newTestProcessor(mem, registry)
	p.ProcessTask("t1")

	task := waitForStatus(t, mem, "t1", types.StatusNeedsHelp)
	assert.Contains(t, task.Error, "Exceeded maximum interrupt retries")
}

func TestProcessTask_AlreadyProcessingIgnoresSecondRequest(t *testing.T) {
	mem := store.NewMemory()
	mem.PutTask(&types.Task{ID: "t1", Status: types.StatusRunning, Model: []byte(`"claude-3-5-sonnet"`)})
	mem.PutTask(&types.Task{ID: "t2", Status: types.StatusRunning, Model: []byte(`"claude-3-5-sonnet"`)})

	registry := provider.NewRegistry()
	registry.Register(&testhelpers.FakeProvider{
		Tag: types.ProviderAnthropic,
		Results: []testhelpers.FakeCall{
			{Err: &provider.Interrupt{}},
		},
	})

	p := newTestProcessor(mem, registry)
	p.ProcessTask("t1")
	require.True(t, p.IsProcessing())
	p.ProcessTask("t2")

	assert.Equal(t, "t1", p.CurrentTaskID())

	p.StopProcessing()
	assert.False(t, p.IsProcessing())
}

// cancelRacingProvider blocks in GenerateMessage until its context is
// cancelled, then surfaces an Interrupt — simulating spec.md §8 Scenario 6,
// where task.cancel fires while a provider call is in flight.
type cancelRacingProvider struct {
	started chan struct{}
}

func (cancelRacingProvider) ID() types.Provider { return types.ProviderAnthropic }

func (c cancelRacingProvider) GenerateMessage(ctx context.Context, systemPrompt string, messages []types.Message, modelName string, toolsEnabled bool) (*provider.GenerateResult, error) {
	close(c.started)
	<-ctx.Done()
	return nil, &provider.Interrupt{}
}

func TestProcessTask_CancelDuringGenerateStopsRetrying(t *testing.T) {
	mem := store.NewMemory()
	mem.PutTask(&types.Task{ID: "t1", Status: types.StatusRunning, Model: []byte(`"claude-3-5-sonnet"`)})

	registry := provider.NewRegistry()
	started := make(chan struct{})
	registry.Register(cancelRacingProvider{started: started})

	p := newTestProcessor(mem, registry)
	p.ProcessTask("t1")

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("provider was never invoked")
	}

	p.OnCancel("t1")

	// The blocked GenerateMessage call observes ctx cancellation, returns
	// Interrupt, and reaches handleInterrupt shortly after OnCancel returns.
	deadline := time.Now().Add(2 * time.Second)
	for p.IsProcessing() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	assert.False(t, p.IsProcessing())
	assert.Equal(t, "", p.CurrentTaskID())

	// handleInterrupt must not schedule a retry nor transition the task: that
	// is OnCancel's responsibility, and OnCancel itself never writes a status.
	time.Sleep(50 * time.Millisecond)
	task, err := mem.Tasks().FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusRunning, task.Status)
	assert.False(t, p.IsProcessing())
}

func TestProcessTask_ComputerToolDegradationMarksNeedsHelp(t *testing.T) {
	mem := store.NewMemory()
	mem.PutTask(&types.Task{ID: "t1", Status: types.StatusRunning, Model: []byte(`"claude-3-5-sonnet"`)})

	registry := provider.NewRegistry()
	registry.Register(&testhelpers.FakeProvider{
		Tag: types.ProviderAnthropic,
		Results: []testhelpers.FakeCall{
			{Result: &provider.GenerateResult{
				ContentBlocks: []types.ContentBlock{
					{Type: types.BlockToolUse, Name: "computer_click", ToolUseID: "tu1"},
					{Type: types.BlockToolUse, Name: "computer_click", ToolUseID: "tu2"},
				},
			}},
		},
	})

	p := newTestProcessor(mem, registry)
	p.ProcessTask("t1")

	task := waitForStatus(t, mem, "t1", types.StatusNeedsHelp)
	assert.Contains(t, task.Error, "disabled")
}
