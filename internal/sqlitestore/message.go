package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/alexsharp-ai/bytebot/internal/agent/store"
	"github.com/alexsharp-ai/bytebot/internal/agent/types"
)

// MessageStore implements store.MessageStore over SQLite.
type MessageStore struct {
	db *sql.DB
}

var _ store.MessageStore = (*MessageStore)(nil)

func (s *MessageStore) FindUnsummarized(ctx context.Context, taskID string) ([]types.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, role, content, created_at
		FROM messages
		WHERE task_id = ? AND summary_id IS NULL
		ORDER BY created_at ASC, rowid ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: find unsummarized: %w", err)
	}
	defer rows.Close()

	var out []types.Message
	for rows.Next() {
		var m types.Message
		var content string
		if err := rows.Scan(&m.ID, &m.TaskID, &m.Role, &content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(content), &m.Content); err != nil {
			return nil, fmt.Errorf("sqlitestore: decode message content: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *MessageStore) Create(ctx context.Context, dto store.MessageCreate) (*types.Message, error) {
	id := uuid.NewString()
	content, err := json.Marshal(dto.Content)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: encode message content: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, task_id, role, content)
		VALUES (?, ?, ?, ?)`, id, dto.TaskID, string(dto.Role), string(content))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: create message: %w", err)
	}

	return &types.Message{ID: id, TaskID: dto.TaskID, Role: dto.Role, Content: dto.Content}, nil
}

func (s *MessageStore) AttachSummary(ctx context.Context, taskID, summaryID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	placeholders := make([]string, len(messageIDs))
	args := make([]any, 0, len(messageIDs)+2)
	args = append(args, summaryID)
	for i, id := range messageIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	args = append(args, taskID)

	query := fmt.Sprintf(`
		UPDATE messages SET summary_id = ?
		WHERE id IN (%s) AND task_id = ?`, strings.Join(placeholders, ", "))

	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlitestore: attach summary: %w", err)
	}
	return nil
}
