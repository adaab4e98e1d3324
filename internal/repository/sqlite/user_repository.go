package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	refresh_token TEXT NULL,
	refresh_token_expiry DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

type UserRepository struct {
	db    *sql.DB
	roles *RoleRepository
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db, roles: &RoleRepository{db: db}}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %q: %w", user.Username, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, refresh_token, refresh_token_expiry, created_at, updated_at
FROM users
WHERE username = ?`,
		username,
	)
	return r.withRoles(ctx, row)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, refresh_token, refresh_token_expiry, created_at, updated_at
FROM users
WHERE id = ?`,
		id,
	)
	return r.withRoles(ctx, row)
}

func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID, token string, expiry time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET refresh_token = ?, refresh_token_expiry = ?, updated_at = ?
WHERE id = ?`,
		token,
		expiry.UTC(),
		time.Now().UTC(),
		userID,
	)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	return expectAffected(res, "user")
}

func (r *UserRepository) withRoles(ctx context.Context, row rowScanner) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	roles, err := r.roles.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Roles = roles
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user    domain.User
		refresh sql.NullString
		expiry  sql.NullTime
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&refresh,
		&expiry,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if refresh.Valid {
		user.RefreshToken = &refresh.String
	}
	if expiry.Valid {
		t := expiry.Time.UTC()
		user.RefreshTokenExpiry = &t
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return nil
}
