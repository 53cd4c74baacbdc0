package postgres

import (
	"context"

	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

const orderColumns = `id, client_id, quote_id, description, status, assigned_to, completed_at, created_by, created_at, updated_at`

func scanServiceOrder(row rowScanner) (models.ServiceOrder, error) {
	var o models.ServiceOrder
	if err := row.Scan(&o.ID, &o.ClientID, &o.QuoteID, &o.Description, &o.Status, &o.AssignedTo,
		&o.CompletedAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return models.ServiceOrder{}, mapError(err)
	}
	return o, nil
}

// CreateServiceOrder inserts a service order.
func (s *Store) CreateServiceOrder(ctx context.Context, o models.ServiceOrder) (models.ServiceOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO service_orders (client_id, quote_id, description, status, assigned_to, completed_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+orderColumns,
		o.ClientID, o.QuoteID, o.Description, o.Status, o.AssignedTo, o.CompletedAt, o.CreatedBy)
	return scanServiceOrder(row)
}

// GetServiceOrder fetches a service order by id.
func (s *Store) GetServiceOrder(ctx context.Context, id int64) (models.ServiceOrder, error) {
	return scanServiceOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM service_orders WHERE id = $1`, id))
}

// ListServiceOrders returns newest orders first.
func (s *Store) ListServiceOrders(ctx context.Context, f storage.ServiceOrderFilter) ([]models.ServiceOrder, error) {
	var w where
	if f.ClientID > 0 {
		w.add(`client_id = $%d`, f.ClientID)
	}
	if f.Status != "" {
		w.add(`status = $%d`, f.Status)
	}
	query := `SELECT ` + orderColumns + ` FROM service_orders` + w.sql() + ` ORDER BY created_at DESC, id DESC` + w.page(f.Page)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ServiceOrder{}
	for rows.Next() {
		o, err := scanServiceOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateServiceOrder replaces a service order's editable fields.
func (s *Store) UpdateServiceOrder(ctx context.Context, o models.ServiceOrder) (models.ServiceOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE service_orders SET client_id = $2, quote_id = $3, description = $4, status = $5, assigned_to = $6, completed_at = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orderColumns,
		o.ID, o.ClientID, o.QuoteID, o.Description, o.Status, o.AssignedTo, o.CompletedAt)
	return scanServiceOrder(row)
}

// DeleteServiceOrder removes a service order not referenced by a visit.
func (s *Store) DeleteServiceOrder(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "service_orders", id)
}
