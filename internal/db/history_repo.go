package db

import (
	"context"
	"database/sql"
	"fmt"
)

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Create(ctx context.Context, msg *ChatMessage) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("history repo unavailable")
	}
	if msg == nil {
		return fmt.Errorf("message is required")
	}
	if msg.UserToken == "" {
		return fmt.Errorf("user token is required")
	}
	if msg.Role == "" {
		return fmt.Errorf("role is required")
	}
	if msg.Content == "" {
		return fmt.Errorf("content is required")
	}
	if msg.ID == "" {
		id, err := NewID()
		if err != nil {
			return err
		}
		msg.ID = id
	}
	if msg.CreatedAt == "" {
		msg.CreatedAt = formatTimestamp(nowUTC())
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO chat_messages (id, user_token, role, content, created_at)
VALUES (?, ?, ?, ?, ?)
`, msg.ID, msg.UserToken, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (r *HistoryRepo) ListByUser(ctx context.Context, userToken string, limit int) ([]*ChatMessage, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("history repo unavailable")
	}
	if userToken == "" {
		return nil, fmt.Errorf("user token is required")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_token, role, content, created_at
FROM chat_messages
WHERE user_token = ?
ORDER BY created_at DESC
LIMIT ?
`, userToken, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	items := make([]*ChatMessage, 0)
	for rows.Next() {
		msg := &ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.UserToken, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		items = append(items, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

func (r *HistoryRepo) TrimUser(ctx context.Context, userToken string, keep int) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("history repo unavailable")
	}
	if userToken == "" {
		return fmt.Errorf("user token is required")
	}
	if keep <= 0 {
		keep = 50
	}
	_, err := r.db.ExecContext(ctx, `
DELETE FROM chat_messages
WHERE user_token = ?
  AND id NOT IN (
    SELECT id FROM chat_messages
    WHERE user_token = ?
    ORDER BY created_at DESC
    LIMIT ?
  )
`, userToken, userToken, keep)
	if err != nil {
		return fmt.Errorf("trim chat messages: %w", err)
	}
	return nil
}
