package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"job-tracker/internal/auth"
	"job-tracker/internal/domain"
	"job-tracker/internal/repository/sqlite"
	"job-tracker/internal/service"
	"job-tracker/internal/storage"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type testServer struct {
	router *gin.Engine
	clock  *testClock
	auth   service.AuthService
}

func newTestServer(t *testing.T, store storage.Service, limit RateLimitConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := sqlite.NewRepositories(db)
	require.NoError(t, repos.Init(ctx))
	require.NoError(t, sqlite.SeedRoles(ctx, db))
	require.NoError(t, sqlite.SeedTracker(ctx, db))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "job-tracker",
		Audience: "job-tracker-api",
		TTL:      2 * time.Minute,
	})
	require.NoError(t, err)

	clock := &testClock{now: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)}
	authSvc := service.NewAuthService(service.AuthDeps{
		Users:   repos.Users,
		Roles:   repos.Roles,
		Hasher:  auth.NewPasswordHasher(bcrypt.MinCost),
		Tokens:  tokens,
		Refresh: auth.NewRefreshManager(repos.Users, time.Hour),
		Logger:  logger,
		Now:     clock.Now,
	})
	attachments := service.NewAttachmentService(repos.Applications, store, service.AttachmentConfig{Bucket: "attachments"}, logger)

	handler := NewHandler(Services{
		Auth:         authSvc,
		Companies:    service.NewCompanyService(repos.Companies, repos.Applications),
		Applications: service.NewJobApplicationService(repos.Applications, repos.Companies, repos.Statuses, attachments, logger),
		Statuses:     service.NewStatusService(repos.Statuses),
		Attachments:  attachments,
	}, Options{AccessTokenTTL: 2 * time.Minute, AuthRateLimit: limit}, logger)

	router := gin.New()
	handler.RegisterRoutes(router)
	return &testServer{router: router, clock: clock, auth: authSvc}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) registerAndLogin(t *testing.T, username, password string) (UserResponse, TokenResponse) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[UserResponse](t, rec)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return user, decode[TokenResponse](t, rec)
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.auth.EnsureAdmin(context.Background(), "root", "root-password")
	require.NoError(t, err)
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "root", "password": "root-password"})
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[TokenResponse](t, rec).AccessToken
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	rec := srv.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})

	rec := srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "P@ss1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decode[UserResponse](t, rec)
	require.Equal(t, "alice", user.Username)
	require.NotEmpty(t, user.ID)
	require.Empty(t, user.Roles)
	require.NotContains(t, rec.Body.String(), "password")

	rec = srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "alice", "password": "other"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeDuplicateUsername, decode[ErrorResponse](t, rec).Error)

	rec = srv.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "bob"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, codeBadRequest, decode[ErrorResponse](t, rec).Error)
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	user, pair := srv.registerAndLogin(t, "alice", "P@ss1")

	require.Equal(t, "Bearer", pair.TokenType)
	require.EqualValues(t, 120, pair.ExpiresIn)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	rec := srv.do(t, http.MethodGet, "/api/auth/me", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, user.ID, decode[UserResponse](t, rec).ID)

	wrong := srv.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "nope"})
	unknown := srv.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "mallory", "password": "P@ss1"})
	require.Equal(t, http.StatusBadRequest, wrong.Code)
	require.Equal(t, http.StatusBadRequest, unknown.Code)
	require.Equal(t, codeInvalidCredentials, decode[ErrorResponse](t, wrong).Error)
	require.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestRefreshTokenRotation(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	user, first := srv.registerAndLogin(t, "alice", "P@ss1")

	rec := srv.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{"user_id": user.ID, "refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[TokenResponse](t, rec)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	rec = srv.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{"user_id": user.ID, "refresh_token": first.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeInvalidToken, decode[ErrorResponse](t, rec).Error)

	rec = srv.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{"user_id": user.ID})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedEndpointRejectsBadTokens(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	_, pair := srv.registerAndLogin(t, "alice", "P@ss1")

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic " + pair.AccessToken},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not-a-token"},
		{"refresh token as access token", "Bearer " + pair.RefreshToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/companies", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, `Bearer error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
			require.Equal(t, codeUnauthorized, decode[ErrorResponse](t, rec).Error)
		})
	}

	srv.clock.now = srv.clock.now.Add(3 * time.Minute)
	rec := srv.do(t, http.MethodGet, "/api/companies", pair.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, `Bearer error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
}

func TestRoleGuard(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	user, pair := srv.registerAndLogin(t, "alice", "P@ss1")
	admin := srv.adminToken(t)

	rec := srv.do(t, http.MethodGet, "/api/roles", pair.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, codeForbidden, decode[ErrorResponse](t, rec).Error)

	rec = srv.do(t, http.MethodDelete, "/api/companies/1", pair.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/jobapplicationstatuses", pair.AccessToken, gin.H{"name": "Ghosted"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/roles", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]RoleResponse](t, rec), 2)

	rec = srv.do(t, http.MethodPost, "/api/users/"+user.ID+"/roles", admin, gin.H{"role": domain.RoleAdmin})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/users/missing/roles", admin, gin.H{"role": domain.RoleAdmin})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// roles are read at issuance, so the old token still lacks Admin
	rec = srv.do(t, http.MethodGet, "/api/roles", pair.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{"user_id": user.ID, "refresh_token": pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	promoted := decode[TokenResponse](t, rec)
	rec = srv.do(t, http.MethodGet, "/api/roles", promoted.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCompanyEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	_, pair := srv.registerAndLogin(t, "alice", "P@ss1")
	token := pair.AccessToken

	rec := srv.do(t, http.MethodGet, "/api/companies", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]CompanyResponse](t, rec), 2)

	rec = srv.do(t, http.MethodGet, "/api/companies/with-job-applications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	withApps := decode[[]CompanyWithApplicationsResponse](t, rec)
	require.Len(t, withApps, 2)
	require.Len(t, withApps[0].JobApplications, 1)

	rec = srv.do(t, http.MethodPost, "/api/companies", token, gin.H{"name": "Acme", "hr": "Jo"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[CompanyResponse](t, rec)
	require.Equal(t, "Jo", *created.HR)
	require.Nil(t, created.Headquarters)

	rec = srv.do(t, http.MethodPut, "/api/companies/"+itoa(created.ID), token, gin.H{"name": "Acme AB"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/companies/"+itoa(created.ID)+"/with-job-applications", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	one := decode[CompanyWithApplicationsResponse](t, rec)
	require.Equal(t, "Acme AB", one.Name)
	require.NotNil(t, one.JobApplications)
	require.Empty(t, one.JobApplications)

	rec = srv.do(t, http.MethodGet, "/api/companies/999", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, codeNotFound, decode[ErrorResponse](t, rec).Error)

	rec = srv.do(t, http.MethodGet, "/api/companies/abc", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/companies/"+itoa(created.ID), srv.adminToken(t), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestJobApplicationEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	_, pair := srv.registerAndLogin(t, "alice", "P@ss1")
	token := pair.AccessToken

	rec := srv.do(t, http.MethodGet, "/api/jobapplications/with-company", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	apps := decode[[]JobApplicationResponse](t, rec)
	require.Len(t, apps, 3)
	require.Equal(t, "Dev School", apps[0].Company.Name)
	require.Equal(t, "Interview", apps[0].Status.Name)
	require.Equal(t, "2025-08-12", *apps[0].ApplicationDate)
	require.Nil(t, apps[2].Company)

	rec = srv.do(t, http.MethodPost, "/api/jobapplications", token, gin.H{
		"role":             "Go Developer",
		"application_date": "2025-10-01",
		"status_id":        1,
		"company_id":       2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[JobApplicationResponse](t, rec)
	require.Equal(t, "To Apply", created.Status.Name)

	rec = srv.do(t, http.MethodPut, "/api/jobapplications/"+itoa(created.ID), token, gin.H{
		"role":       "Go Developer",
		"status_id":  2,
		"company_id": 2,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/jobapplications/"+itoa(created.ID)+"/with-company", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[JobApplicationResponse](t, rec)
	require.Equal(t, "Applied", got.Status.Name)
	require.Equal(t, "Nice Small Company", got.Company.Name)
	require.Nil(t, got.ApplicationDate)

	rec = srv.do(t, http.MethodPost, "/api/jobapplications", token, gin.H{"role": "x", "application_date": "01/10/2025"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/jobapplications", token, gin.H{"role": "x", "company_id": 404})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/jobapplications/"+itoa(created.ID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = srv.do(t, http.MethodGet, "/api/jobapplications/"+itoa(created.ID), token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	admin := srv.adminToken(t)

	rec := srv.do(t, http.MethodGet, "/api/jobapplicationstatuses", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]StatusResponse](t, rec), 8)

	rec = srv.do(t, http.MethodPost, "/api/jobapplicationstatuses", admin, gin.H{"name": "Ghosted"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[StatusResponse](t, rec)

	rec = srv.do(t, http.MethodPut, "/api/jobapplicationstatuses/"+itoa(created.ID), admin, gin.H{"name": "Silent"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/jobapplicationstatuses/"+itoa(created.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Silent", decode[StatusResponse](t, rec).Name)

	rec = srv.do(t, http.MethodDelete, "/api/jobapplicationstatuses/"+itoa(created.ID), admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/jobapplicationstatuses/"+itoa(created.ID), admin, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttachmentsUnavailableWithoutStorage(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	_, pair := srv.registerAndLogin(t, "alice", "P@ss1")

	rec := srv.do(t, http.MethodGet, "/api/jobapplications/1/attachments", pair.AccessToken, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, codeStorageUnavailable, decode[ErrorResponse](t, rec).Error)
}

type stubStorage struct {
	keys []string
}

func (s *stubStorage) Upload(_ context.Context, bucket, key string, body io.Reader, _ storage.UploadOptions) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	s.keys = append(s.keys, key)
	return "s3://" + bucket + "/" + key, nil
}

func (s *stubStorage) ListObjects(_ context.Context, _, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for _, k := range s.keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: 3})
		}
	}
	return out, nil
}

func (s *stubStorage) DeletePrefix(context.Context, string, string) error { return nil }

func (s *stubStorage) DeleteObject(_ context.Context, _, key string) error {
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubStorage) GetObjectURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + ".example/" + key, nil
}

func TestAttachmentEndpoints(t *testing.T) {
	store := &stubStorage{}
	srv := newTestServer(t, store, RateLimitConfig{})
	_, pair := srv.registerAndLogin(t, "alice", "P@ss1")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "cv.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/jobapplications/1/attachments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	att := decode[AttachmentResponse](t, rec)
	require.Equal(t, "applications/1/cv.pdf", att.Key)

	rec = srv.do(t, http.MethodGet, "/api/jobapplications/1/attachments", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]AttachmentResponse](t, rec), 1)

	rec = srv.do(t, http.MethodGet, "/api/jobapplications/1/attachments/url?key="+att.Key, pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "https://attachments.example/applications/1/cv.pdf")

	rec = srv.do(t, http.MethodGet, "/api/jobapplications/2/attachments/url?key="+att.Key, pair.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodDelete, "/api/jobapplications/1/attachments?key="+att.Key, pair.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, store.keys)
}

func TestAuthRateLimit(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{Requests: 2, Window: time.Minute, Burst: 2})

	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "x", "password": "y"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	rec := srv.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "x", "password": "y"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, codeRateLimited, decode[ErrorResponse](t, rec).Error)

	rec = srv.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil, RateLimitConfig{})
	rec := srv.do(t, http.MethodOptions, "/api/companies", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
