package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

const userColumns = `id, username, email, display_name, role, active, password_hash, reset_token, reset_token_expiry, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user  models.User
		role  string
		token sql.NullString
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.DisplayName, &role, &user.Active,
		&user.PasswordHash, &token, &user.ResetTokenExpiry, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, mapError(err)
	}
	user.Role = models.ParseRole(role)
	user.ResetToken = token.String
	return user, nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `
		INSERT INTO users (username, email, display_name, role, active, password_hash, reset_token, reset_token_expiry)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		RETURNING ` + userColumns
	row := s.db.QueryRowContext(ctx, query, user.Username, user.Email, user.DisplayName, string(user.Role),
		user.Active, user.PasswordHash, user.ResetToken, user.ResetTokenExpiry)
	return scanUser(row)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByUsernameOrEmail fetches the first user matching the identifier as username or email.
func (s *Store) FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 OR lower(email) = lower($1) LIMIT 1`, identifier)
	return scanUser(row)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

// FindByResetToken fetches the user holding an unexpired reset token.
func (s *Store) FindByResetToken(ctx context.Context, token string) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token = $1 AND reset_token_expiry > NOW()`, token)
	return scanUser(row)
}

// ListUsers returns users ordered by id.
func (s *Store) ListUsers(ctx context.Context, page models.Page) ([]models.User, error) {
	var w where
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id` + w.page(page)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser writes profile, role and active flag.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET email = $2, display_name = $3, role = $4, active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID, user.Email, user.DisplayName, string(user.Role), user.Active)
	return scanUser(row)
}

// SetResetToken stores a reset token and its expiry.
func (s *Store) SetResetToken(ctx context.Context, userID int64, token string, expiry time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET reset_token = $2, reset_token_expiry = $3, updated_at = NOW() WHERE id = $1`,
		userID, token, expiry)
	return affectedOne(res, err)
}

// SetPassword replaces the hash, clears any reset token and activates the account.
func (s *Store) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, reset_token = NULL, reset_token_expiry = NULL, active = TRUE, updated_at = NOW()
		WHERE id = $1`, userID, passwordHash)
	return affectedOne(res, err)
}

// DeleteUser hard-deletes a user unless other rows reference it.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "users", id)
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
