package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
)

const createRolesTables = `
CREATE TABLE IF NOT EXISTS roles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS user_roles (
	user_id TEXT NOT NULL,
	role_id INTEGER NOT NULL,
	PRIMARY KEY (user_id, role_id),
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY(role_id) REFERENCES roles(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_user_roles_role_id ON user_roles(role_id);
`

type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) repository.RoleRepository {
	return &RoleRepository{db: db}
}

// Init must run after the users table exists.
func (r *RoleRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRolesTables); err != nil {
		return fmt.Errorf("create roles tables: %w", err)
	}
	return nil
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO roles (name) VALUES (?)`, role.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert role %q: %w", role.Name, repository.ErrAlreadyExists)
		}
		return fmt.Errorf("insert role: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("role last insert id: %w", err)
	}
	role.ID = id
	return nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = ?`, name).
		Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %q: %w", name, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}
	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	return r.query(ctx, `SELECT id, name FROM roles ORDER BY id ASC`)
}

func (r *RoleRepository) AssignToUser(ctx context.Context, userID string, roleID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO user_roles (user_id, role_id)
VALUES (?, ?)
ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID,
		roleID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("assign role: %w", repository.ErrNotFound)
		}
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *RoleRepository) ListByUser(ctx context.Context, userID string) ([]domain.Role, error) {
	return r.query(ctx, `
SELECT r.id, r.name
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = ?
ORDER BY r.id ASC`, userID)
}

func (r *RoleRepository) query(ctx context.Context, query string, args ...any) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles := []domain.Role{}
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
