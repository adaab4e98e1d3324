package repository

import (
	"context"
	"time"

	"job-tracker/internal/domain"
)

// UserRepository defines persistence operations for User entities. Users are
// returned with their roles loaded.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateRefreshToken overwrites the stored refresh token and its expiry.
	UpdateRefreshToken(ctx context.Context, userID, token string, expiry time.Time) error
}

// RoleRepository manages roles and the user_roles join table.
type RoleRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, role *domain.Role) error
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	AssignToUser(ctx context.Context, userID string, roleID int64) error
	ListByUser(ctx context.Context, userID string) ([]domain.Role, error)
}
