package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// SummaryStore implements store.SummaryStore over SQLite.
type SummaryStore struct {
	db *sql.DB
}

var _ store.SummaryStore = (*SummaryStore)(nil)

func (s *SummaryStore) FindLatest(ctx context.Context, taskID string) (*types.Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, task_id, content FROM summaries
		WHERE task_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, taskID)

	var sm types.Summary
	if err := row.Scan(&sm.ID, &sm.TaskID, &sm.Content); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlitestore: find latest summary: %w", err)
	}
	return &sm, nil
}

func (s *SummaryStore) Create(ctx context.Context, dto store.SummaryCreate) (*types.Summary, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (id, task_id, content) VALUES (?, ?, ?)`, id, dto.TaskID, dto.Content)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: create summary: %w", err)
	}
	return &types.Summary{ID: id, TaskID: dto.TaskID, Content: dto.Content}, nil
}
