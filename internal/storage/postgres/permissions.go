package postgres

import (
	"context"
	"fmt"

	"github.com/hongminglow/servicedesk-be/internal/models"
)

const permissionColumns = `user_id, module, can_read, can_write, can_delete, updated_at`

func scanPermission(row rowScanner) (models.Permission, error) {
	var (
		p      models.Permission
		module string
	)
	if err := row.Scan(&p.UserID, &module, &p.CanRead, &p.CanWrite, &p.CanDelete, &p.UpdatedAt); err != nil {
		return models.Permission{}, mapError(err)
	}
	p.Module = models.Module(module)
	return p, nil
}

// FindPermission loads the row for (userID, module). A missing row is storage.ErrNotFound.
func (s *Store) FindPermission(ctx context.Context, userID int64, module models.Module) (models.Permission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+permissionColumns+` FROM permissions WHERE user_id = $1 AND module = $2`, userID, string(module))
	return scanPermission(row)
}

// ListPermissions returns every row for a user.
func (s *Store) ListPermissions(ctx context.Context, userID int64) ([]models.Permission, error) {
	return s.queryPermissions(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE user_id = $1 ORDER BY module`, userID)
}

// ListAllPermissions returns every stored row.
func (s *Store) ListAllPermissions(ctx context.Context) ([]models.Permission, error) {
	return s.queryPermissions(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY user_id, module`)
}

func (s *Store) queryPermissions(ctx context.Context, query string, args ...any) ([]models.Permission, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := []models.Permission{}
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// EnsureDefaultPermissions inserts an all-false row per module, skipping rows
// that already exist. Concurrent callers are absorbed by the unique
// (user_id, module) constraint.
func (s *Store) EnsureDefaultPermissions(ctx context.Context, userID int64, modules []models.Module) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range modules {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO permissions (user_id, module) VALUES ($1, $2)
			ON CONFLICT (user_id, module) DO NOTHING`, userID, string(m)); err != nil {
			return fmt.Errorf("insert default %s: %w", m, mapError(err))
		}
	}
	return tx.Commit()
}

// UpsertPermission creates or replaces the row for (perm.UserID, perm.Module).
func (s *Store) UpsertPermission(ctx context.Context, perm models.Permission) (models.Permission, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO permissions (user_id, module, can_read, can_write, can_delete)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, module) DO UPDATE
		SET can_read = EXCLUDED.can_read, can_write = EXCLUDED.can_write, can_delete = EXCLUDED.can_delete, updated_at = NOW()
		RETURNING `+permissionColumns,
		perm.UserID, string(perm.Module), perm.CanRead, perm.CanWrite, perm.CanDelete)
	return scanPermission(row)
}

