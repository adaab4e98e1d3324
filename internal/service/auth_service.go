package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"job-tracker/internal/auth"
	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
)

const maxUsernameLength = 256

// AuthService covers registration, login, token refresh and role checks.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, userID, refreshToken string) (*domain.TokenPair, error)
	// Authorize verifies an access token and, when requiredRole is set, that
	// the token carries it.
	Authorize(ctx context.Context, accessToken, requiredRole string) (*auth.Claims, error)
	EnsureAdmin(ctx context.Context, username, password string) (*domain.User, error)
	AssignRole(ctx context.Context, userID, roleName string) error
	ListRoles(ctx context.Context) ([]domain.Role, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

// AuthDeps are the collaborators of the auth service.
type AuthDeps struct {
	Users   repository.UserRepository
	Roles   repository.RoleRepository
	Hasher  *auth.PasswordHasher
	Tokens  *auth.TokenIssuer
	Refresh *auth.RefreshManager
	Logger  logrus.FieldLogger
	// Now defaults to time.Now.
	Now func() time.Time
}

type authService struct {
	users   repository.UserRepository
	roles   repository.RoleRepository
	hasher  *auth.PasswordHasher
	tokens  *auth.TokenIssuer
	refresh *auth.RefreshManager
	logger  logrus.FieldLogger
	now     func() time.Time

	// dummyHash is compared when the username is unknown so both login
	// failures cost one bcrypt run.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(deps AuthDeps) AuthService {
	s := &authService{
		users:   deps.Users,
		roles:   deps.Roles,
		hasher:  deps.Hasher,
		tokens:  deps.Tokens,
		refresh: deps.Refresh,
		logger:  deps.Logger,
		now:     deps.Now,
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *authService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationError("username is required")
	}
	if len(username) > maxUsernameLength {
		return nil, validationError("username must be at most %d characters", maxUsernameLength)
	}
	if password == "" {
		return nil, validationError("password is required")
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, validationError("password must be at most 72 bytes")
		}
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Roles:        []domain.Role{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return sanitizeUser(user), nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	now := s.now()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.burnCompare(password)
			s.logger.WithField("username", username).Warn("login failed")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.WithField("username", username).Warn("login failed")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user, now)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return pair, nil
}

func (s *authService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.WithError(err).Error("hash dummy password")
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(s.dummyHash, password)
	}
}

func (s *authService) Refresh(ctx context.Context, userID, refreshToken string) (*domain.TokenPair, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || refreshToken == "" {
		return nil, ErrInvalidToken
	}
	now := s.now()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.WithField("user_id", userID).Warn("refresh for unknown user")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !s.refresh.Validate(user, refreshToken, now) {
		s.logger.WithField("user_id", userID).Warn("refresh token rejected")
		return nil, ErrInvalidToken
	}

	return s.issueTokens(ctx, user, now)
}

// issueTokens mints an access token and rotates the stored refresh token.
func (s *authService) issueTokens(ctx context.Context, user *domain.User, now time.Time) (*domain.TokenPair, error) {
	access, expiresAt, err := s.tokens.Issue(user, now)
	if err != nil {
		return nil, err
	}
	refresh, err := s.refresh.IssueAndStore(ctx, user, now)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: expiresAt,
	}, nil
}

func (s *authService) Authorize(_ context.Context, accessToken, requiredRole string) (*auth.Claims, error) {
	if accessToken == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.tokens.Verify(accessToken, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if requiredRole != "" && !claims.HasRole(requiredRole) {
		return nil, ErrForbidden
	}
	return claims, nil
}

// EnsureAdmin creates the bootstrap account when missing and grants it the
// Admin role. An existing account keeps its password.
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if _, err := s.Register(ctx, username, password); err != nil {
			return nil, fmt.Errorf("register admin: %w", err)
		}
		if user, err = s.users.GetByUsername(ctx, strings.TrimSpace(username)); err != nil {
			return nil, fmt.Errorf("reload admin: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("lookup admin: %w", err)
	}

	if err := s.AssignRole(ctx, user.ID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.Me(ctx, user.ID)
}

func (s *authService) AssignRole(ctx context.Context, userID, roleName string) error {
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return validationError("role is required")
	}
	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		return fmt.Errorf("lookup role: %w", err)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := s.roles.AssignToUser(ctx, userID, role.ID); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "role": role.Name}).Info("role assigned")
	return nil
}

func (s *authService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	roles := make([]domain.Role, len(user.Roles))
	copy(roles, user.Roles)
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Roles:     roles,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
