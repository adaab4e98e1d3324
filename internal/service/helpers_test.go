package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"job-tracker/internal/auth"
	"job-tracker/internal/repository/sqlite"
)

const (
	testAccessTTL  = 2 * time.Minute
	testRefreshTTL = time.Hour
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type testEnv struct {
	repos  *sqlite.Repositories
	clock  *testClock
	tokens *auth.TokenIssuer
	auth   AuthService
}

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := sqlite.NewRepositories(db)
	require.NoError(t, repos.Init(ctx))
	require.NoError(t, sqlite.SeedRoles(ctx, db))
	require.NoError(t, sqlite.SeedTracker(ctx, db))

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "job-tracker",
		Audience: "job-tracker-api",
		TTL:      testAccessTTL,
	})
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewAuthService(AuthDeps{
		Users:   repos.Users,
		Roles:   repos.Roles,
		Hasher:  auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens:  tokens,
		Refresh: auth.NewRefreshManager(repos.Users, testRefreshTTL),
		Logger:  quietLogger(),
		Now:     clock.Now,
	})

	return &testEnv{repos: repos, clock: clock, tokens: tokens, auth: svc}
}
