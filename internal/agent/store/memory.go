package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// Memory is a shared in-process backing store for tests. Its three facade
// views (Tasks, Messages, Summaries) implement TaskStore, MessageStore, and
// SummaryStore respectively, since Go cannot give one receiver two methods
// both named Create with different signatures.
type Memory struct {
	mu        sync.Mutex
	tasks     map[string]*types.Task
	messages  map[string][]*types.Message
	summaries map[string][]*types.Summary
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		tasks:     make(map[string]*types.Task),
		messages:  make(map[string][]*types.Message),
		summaries: make(map[string][]*types.Summary),
	}
}

// PutTask seeds a task row directly, bypassing Create (test helper).
func (m *Memory) PutTask(t *types.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
}

// PutMessage seeds a message row directly (test helper).
func (m *Memory) PutMessage(msg *types.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.TaskID] = append(m.messages[msg.TaskID], msg)
}

// Tasks returns a TaskStore view over this Memory.
func (m *Memory) Tasks() TaskStore { return memoryTasks{m} }

// Messages returns a MessageStore view over this Memory.
func (m *Memory) Messages() MessageStore { return memoryMessages{m} }

// Summaries returns a SummaryStore view over this Memory.
func (m *Memory) Summaries() SummaryStore { return memorySummaries{m} }

type memoryTasks struct{ m *Memory }

func (v memoryTasks) FindByID(_ context.Context, id string) (*types.Task, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	t, ok := v.m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: not found", id)
	}
	cp := *t
	return &cp, nil
}

func (v memoryTasks) Update(_ context.Context, id string, partial TaskUpdate) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	t, ok := v.m.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: not found", id)
	}
	if partial.Status != nil {
		t.Status = *partial.Status
	}
	if partial.CompletedAt != nil {
		t.CompletedAt = partial.CompletedAt
	}
	if partial.Error != nil {
		t.Error = *partial.Error
	}
	return nil
}

func (v memoryTasks) Create(_ context.Context, dto TaskCreate) (*types.Task, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	t := &types.Task{
		ID:     uuid.NewString(),
		Status: types.StatusPending,
		Model:  dto.Model,
	}
	v.m.tasks[t.ID] = t
	return t, nil
}

type memoryMessages struct{ m *Memory }

func (v memoryMessages) FindUnsummarized(_ context.Context, taskID string) ([]types.Message, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	msgs := append([]*types.Message(nil), v.m.messages[taskID]...)
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	var out []types.Message
	for _, msg := range msgs {
		if msg.SummaryID == nil {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (v memoryMessages) Create(_ context.Context, dto MessageCreate) (*types.Message, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	msg := &types.Message{
		ID:      uuid.NewString(),
		TaskID:  dto.TaskID,
		Role:    dto.Role,
		Content: dto.Content,
	}
	v.m.messages[dto.TaskID] = append(v.m.messages[dto.TaskID], msg)
	return msg, nil
}

func (v memoryMessages) AttachSummary(_ context.Context, taskID, summaryID string, messageIDs []string) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	ids := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = true
	}
	sid := summaryID
	for _, msg := range v.m.messages[taskID] {
		if ids[msg.ID] {
			msg.SummaryID = &sid
		}
	}
	return nil
}

type memorySummaries struct{ m *Memory }

func (v memorySummaries) FindLatest(_ context.Context, taskID string) (*types.Summary, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	all := v.m.summaries[taskID]
	if len(all) == 0 {
		return nil, nil
	}
	cp := *all[len(all)-1]
	return &cp, nil
}

func (v memorySummaries) Create(_ context.Context, dto SummaryCreate) (*types.Summary, error) {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	s := &types.Summary{ID: uuid.NewString(), TaskID: dto.TaskID, Content: dto.Content}
	v.m.summaries[dto.TaskID] = append(v.m.summaries[dto.TaskID], s)
	return s, nil
}
