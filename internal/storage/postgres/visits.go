package postgres

import (
	"context"

	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

const visitColumns = `id, client_id, service_order_id, scheduled_at, address, notes, status, assigned_to, created_at, updated_at`

func scanVisit(row rowScanner) (models.Visit, error) {
	var v models.Visit
	if err := row.Scan(&v.ID, &v.ClientID, &v.ServiceOrderID, &v.ScheduledAt, &v.Address, &v.Notes,
		&v.Status, &v.AssignedTo, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return models.Visit{}, mapError(err)
	}
	return v, nil
}

// CreateVisit inserts a visit.
func (s *Store) CreateVisit(ctx context.Context, v models.Visit) (models.Visit, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO visits (client_id, service_order_id, scheduled_at, address, notes, status, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+visitColumns,
		v.ClientID, v.ServiceOrderID, v.ScheduledAt, v.Address, v.Notes, v.Status, v.AssignedTo)
	return scanVisit(row)
}

// GetVisit fetches a visit by id.
func (s *Store) GetVisit(ctx context.Context, id int64) (models.Visit, error) {
	return scanVisit(s.db.QueryRowContext(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = $1`, id))
}

// ListVisits returns visits in schedule order within the optional window.
func (s *Store) ListVisits(ctx context.Context, f storage.VisitFilter) ([]models.Visit, error) {
	var w where
	if f.From != nil {
		w.add(`scheduled_at >= $%d`, *f.From)
	}
	if f.To != nil {
		w.add(`scheduled_at < $%d`, *f.To)
	}
	query := `SELECT ` + visitColumns + ` FROM visits` + w.sql() + ` ORDER BY scheduled_at, id` + w.page(f.Page)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Visit{}
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateVisit replaces a visit's editable fields.
func (s *Store) UpdateVisit(ctx context.Context, v models.Visit) (models.Visit, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE visits SET client_id = $2, service_order_id = $3, scheduled_at = $4, address = $5, notes = $6, status = $7, assigned_to = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+visitColumns,
		v.ID, v.ClientID, v.ServiceOrderID, v.ScheduledAt, v.Address, v.Notes, v.Status, v.AssignedTo)
	return scanVisit(row)
}

// DeleteVisit removes a visit.
func (s *Store) DeleteVisit(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "visits", id)
}
