package postgres

import (
	"context"

	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// RecordActivity appends an activity log entry.
func (s *Store) RecordActivity(ctx context.Context, e models.ActivityEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, action, entity, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)`,
		e.UserID, e.Action, e.Entity, e.EntityID, e.Details)
	return mapError(err)
}

// ListActivity returns the newest entries first.
func (s *Store) ListActivity(ctx context.Context, f storage.ActivityFilter) ([]models.ActivityEntry, error) {
	var w where
	if f.UserID > 0 {
		w.add(`user_id = $%d`, f.UserID)
	}
	query := `SELECT id, user_id, action, entity, entity_id, details, created_at FROM activity_logs` +
		w.sql() + ` ORDER BY created_at DESC, id DESC` + w.page(f.Page)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ActivityEntry{}
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Entity, &e.EntityID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
