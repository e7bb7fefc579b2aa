package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// TaskStore implements store.TaskStore over SQLite.
type TaskStore struct {
	db *sql.DB
}

var _ store.TaskStore = (*TaskStore)(nil)

func (s *TaskStore) FindByID(ctx context.Context, id string) (*types.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, model, completed_at, error
		FROM tasks WHERE id = ?`, id)

	var t types.Task
	var model string
	var completedAt sql.NullTime
	if err := row.Scan(&t.ID, &t.Status, &model, &completedAt, &t.Error); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("task %s: not found", id)
		}
		return nil, fmt.Errorf("sqlitestore: find task: %w", err)
	}
	t.Model = json.RawMessage(model)
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

func (s *TaskStore) Update(ctx context.Context, id string, partial store.TaskUpdate) error {
	if partial.Status == nil && partial.CompletedAt == nil && partial.Error == nil {
		return nil
	}

	set := "updated_at = CURRENT_TIMESTAMP"
	var args []any
	if partial.Status != nil {
		set += ", status = ?"
		args = append(args, string(*partial.Status))
	}
	if partial.CompletedAt != nil {
		set += ", completed_at = ?"
		args = append(args, *partial.CompletedAt)
	}
	if partial.Error != nil {
		set += ", error = ?"
		args = append(args, *partial.Error)
	}
	args = append(args, id)

	_, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("sqlitestore: update task: %w", err)
	}
	return nil
}

func (s *TaskStore) Create(ctx context.Context, dto store.TaskCreate) (*types.Task, error) {
	id := uuid.NewString()
	model := dto.Model
	if model == nil {
		model = json.RawMessage("{}")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, status, type, priority, description, model, created_by, scheduled_for)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(types.StatusPending), dto.Type, dto.Priority, dto.Description, string(model), dto.CreatedBy, nullableTime(dto.ScheduledFor))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: create task: %w", err)
	}

	return &types.Task{ID: id, Status: types.StatusPending, Model: model}, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
