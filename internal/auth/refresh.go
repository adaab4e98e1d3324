package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"job-tracker/internal/domain"
)

// RefreshTokenBytes is the entropy of a refresh token before encoding (256 bits).
const RefreshTokenBytes = 32

// RefreshStore persists the single current refresh token of a user.
type RefreshStore interface {
	UpdateRefreshToken(ctx context.Context, userID, token string, expiry time.Time) error
}

// RefreshManager generates, stores and validates opaque refresh tokens. A user
// has at most one live refresh token; storing a new one invalidates the old.
type RefreshManager struct {
	store  RefreshStore
	ttl    time.Duration
	random io.Reader
}

func NewRefreshManager(store RefreshStore, ttl time.Duration) *RefreshManager {
	return &RefreshManager{
		store:  store,
		ttl:    ttl,
		random: rand.Reader,
	}
}

// TTL is the lifetime of issued refresh tokens.
func (m *RefreshManager) TTL() time.Duration { return m.ttl }

// Generate returns a fresh random token, base64 encoded.
func (m *RefreshManager) Generate() (string, error) {
	buf := make([]byte, RefreshTokenBytes)
	if _, err := io.ReadFull(m.random, buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// IssueAndStore replaces the user's refresh token with a new one that expires
// ttl after now. The user value is updated to match what was persisted.
func (m *RefreshManager) IssueAndStore(ctx context.Context, user *domain.User, now time.Time) (string, error) {
	token, err := m.Generate()
	if err != nil {
		return "", err
	}
	expiry := now.Add(m.ttl)
	if err := m.store.UpdateRefreshToken(ctx, user.ID, token, expiry); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	user.RefreshToken = &token
	user.RefreshTokenExpiry = &expiry
	return token, nil
}

// Validate reports whether presented is the user's current, unexpired refresh token.
func (m *RefreshManager) Validate(user *domain.User, presented string, now time.Time) bool {
	if user == nil || user.RefreshToken == nil || user.RefreshTokenExpiry == nil || presented == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(presented)) != 1 {
		return false
	}
	return now.Before(*user.RefreshTokenExpiry)
}
