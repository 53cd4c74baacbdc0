package postgres

import (
	"context"

	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

const quoteColumns = `id, client_id, title, description, amount_cents, status, valid_until, created_by, created_at, updated_at`

func scanQuote(row rowScanner) (models.Quote, error) {
	var q models.Quote
	if err := row.Scan(&q.ID, &q.ClientID, &q.Title, &q.Description, &q.AmountCents, &q.Status,
		&q.ValidUntil, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return models.Quote{}, mapError(err)
	}
	return q, nil
}

// CreateQuote inserts a quote.
func (s *Store) CreateQuote(ctx context.Context, q models.Quote) (models.Quote, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO quotes (client_id, title, description, amount_cents, status, valid_until, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+quoteColumns,
		q.ClientID, q.Title, q.Description, q.AmountCents, q.Status, q.ValidUntil, q.CreatedBy)
	return scanQuote(row)
}

// GetQuote fetches a quote by id.
func (s *Store) GetQuote(ctx context.Context, id int64) (models.Quote, error) {
	return scanQuote(s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
}

// ListQuotes returns newest quotes first.
func (s *Store) ListQuotes(ctx context.Context, f storage.QuoteFilter) ([]models.Quote, error) {
	var w where
	if f.ClientID > 0 {
		w.add(`client_id = $%d`, f.ClientID)
	}
	query := `SELECT ` + quoteColumns + ` FROM quotes` + w.sql() + ` ORDER BY created_at DESC, id DESC` + w.page(f.Page)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateQuote replaces a quote's editable fields.
func (s *Store) UpdateQuote(ctx context.Context, q models.Quote) (models.Quote, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE quotes SET client_id = $2, title = $3, description = $4, amount_cents = $5, status = $6, valid_until = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+quoteColumns,
		q.ID, q.ClientID, q.Title, q.Description, q.AmountCents, q.Status, q.ValidUntil)
	return scanQuote(row)
}

// DeleteQuote removes a quote not referenced by a service order.
func (s *Store) DeleteQuote(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "quotes", id)
}
