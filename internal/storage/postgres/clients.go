package postgres

import (
	"context"

	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

const clientColumns = `id, name, email, phone, document, address, notes, created_at, updated_at`

func scanClient(row rowScanner) (models.Client, error) {
	var c models.Client
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Document, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Client{}, mapError(err)
	}
	return c, nil
}

// CreateClient inserts a client.
func (s *Store) CreateClient(ctx context.Context, c models.Client) (models.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO clients (name, email, phone, document, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+clientColumns,
		c.Name, c.Email, c.Phone, c.Document, c.Address, c.Notes)
	return scanClient(row)
}

// GetClient fetches a client by id.
func (s *Store) GetClient(ctx context.Context, id int64) (models.Client, error) {
	return scanClient(s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

// ListClients returns clients ordered by name, optionally matching a search term.
func (s *Store) ListClients(ctx context.Context, f storage.ClientFilter) ([]models.Client, error) {
	var w where
	if f.Query != "" {
		w.add(`(name ILIKE $%[1]d OR email ILIKE $%[1]d)`, "%"+f.Query+"%")
	}
	query := `SELECT ` + clientColumns + ` FROM clients` + w.sql() + ` ORDER BY name, id` + w.page(f.Page)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateClient replaces a client's fields.
func (s *Store) UpdateClient(ctx context.Context, c models.Client) (models.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE clients SET name = $2, email = $3, phone = $4, document = $5, address = $6, notes = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+clientColumns,
		c.ID, c.Name, c.Email, c.Phone, c.Document, c.Address, c.Notes)
	return scanClient(row)
}

// DeleteClient removes a client with no dependent quotes, orders or visits.
func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "clients", id)
}
