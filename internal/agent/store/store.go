// Package store declares the external-collaborator contracts the processor
// depends on (spec.md §6): task, message, and summary persistence. Concrete
// implementations live in internal/sqlitestore (production) and this
// package's Memory* types (tests).
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// TaskUpdate is a partial update applied to a Task row.
type TaskUpdate struct {
	Status      *types.TaskStatus
	CompletedAt *time.Time
	Error       *string
}

// TaskCreate is the input to TaskStore.Create (spec.md §4.6 create_task).
type TaskCreate struct {
	Type         string
	Priority     string
	Description  string
	ScheduledFor *time.Time
	CreatedBy    string
	Model        json.RawMessage
}

// TaskStore persists Task rows.
type TaskStore interface {
	FindByID(ctx context.Context, id string) (*types.Task, error)
	Update(ctx context.Context, id string, partial TaskUpdate) error
	Create(ctx context.Context, dto TaskCreate) (*types.Task, error)
}

// MessageCreate is the input to MessageStore.Create.
type MessageCreate struct {
	TaskID  string
	Role    types.Role
	Content []types.ContentBlock
}

// MessageStore persists Message rows.
type MessageStore interface {
	FindUnsummarized(ctx context.Context, taskID string) ([]types.Message, error)
	Create(ctx context.Context, dto MessageCreate) (*types.Message, error)
	AttachSummary(ctx context.Context, taskID, summaryID string, messageIDs []string) error
}

// SummaryCreate is the input to SummaryStore.Create.
type SummaryCreate struct {
	TaskID  string
	Content string
}

// SummaryStore persists Summary rows.
type SummaryStore interface {
	FindLatest(ctx context.Context, taskID string) (*types.Summary, error)
	Create(ctx context.Context, dto SummaryCreate) (*types.Summary, error)
}
