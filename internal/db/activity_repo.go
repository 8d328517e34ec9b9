package db

import (
	"context"
	"database/sql"
	"fmt"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Create(ctx context.Context, record *ActivityRecord) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("activity repo unavailable")
	}
	if record == nil {
		return fmt.Errorf("record is required")
	}
	if record.UserToken == "" {
		return fmt.Errorf("user token is required")
	}
	if record.Capability == "" {
		return fmt.Errorf("capability is required")
	}
	if record.Args == "" {
		record.Args = "{}"
	}
	if record.ID == "" {
		id, err := NewID()
		if err != nil {
			return err
		}
		record.ID = id
	}
	if record.CreatedAt == "" {
		record.CreatedAt = formatTimestamp(nowUTC())
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO activity_log (id, user_token, capability, args, success, error, site_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, record.ID, record.UserToken, record.Capability, record.Args, boolToInt(record.Success), record.Error, record.SiteURL, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert activity record: %w", err)
	}
	return nil
}

func (r *ActivityRepo) ListRecent(ctx context.Context, limit int) ([]*ActivityRecord, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("activity repo unavailable")
	}
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
SELECT id, user_token, capability, args, success, error, site_url, created_at
FROM activity_log
ORDER BY created_at DESC
LIMIT ?
`, limit)
}

func (r *ActivityRepo) ListByUser(ctx context.Context, userToken string, limit int) ([]*ActivityRecord, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("activity repo unavailable")
	}
	if userToken == "" {
		return nil, fmt.Errorf("user token is required")
	}
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
SELECT id, user_token, capability, args, success, error, site_url, created_at
FROM activity_log
WHERE user_token = ?
ORDER BY created_at DESC
LIMIT ?
`, userToken, limit)
}

func (r *ActivityRepo) list(ctx context.Context, query string, args ...any) ([]*ActivityRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity records: %w", err)
	}
	defer rows.Close()

	items := make([]*ActivityRecord, 0)
	for rows.Next() {
		record := &ActivityRecord{}
		var success int
		if err := rows.Scan(&record.ID, &record.UserToken, &record.Capability, &record.Args, &success, &record.Error, &record.SiteURL, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity record: %w", err)
		}
		record.Success = success != 0
		items = append(items, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity records: %w", err)
	}
	return items, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
