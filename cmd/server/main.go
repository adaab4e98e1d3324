package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"job-tracker/internal/auth"
	"job-tracker/internal/config"
	apphttp "job-tracker/internal/http"
	"job-tracker/internal/repository/sqlite"
	"job-tracker/internal/service"
	"job-tracker/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	repos := sqlite.NewRepositories(db)
	if err := repos.Init(ctx); err != nil {
		logger.Fatalf("init repositories: %v", err)
	}
	if err := sqlite.SeedRoles(ctx, db); err != nil {
		logger.Fatalf("seed roles: %v", err)
	}
	if cfg.Database.Seed {
		if err := sqlite.SeedTracker(ctx, db); err != nil {
			logger.Fatalf("seed tracker data: %v", err)
		}
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:   []byte(strings.TrimSpace(cfg.Auth.JWTSecret)),
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		TTL:      cfg.Auth.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}

	authService := service.NewAuthService(service.AuthDeps{
		Users:   repos.Users,
		Roles:   repos.Roles,
		Hasher:  auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Tokens:  tokens,
		Refresh: auth.NewRefreshManager(repos.Users, cfg.Auth.RefreshTokenTTL),
		Logger:  logger,
	})
	if cfg.Auth.AdminUsername != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			logger.Fatalf("bootstrap admin: %v", err)
		}
		logger.Infof("admin account %q ready", cfg.Auth.AdminUsername)
	}

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}
	attachments := service.NewAttachmentService(repos.Applications, storageSvc, service.AttachmentConfig{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		URLTTL:    cfg.Storage.PresignTTL,
	}, logger)

	handler := apphttp.NewHandler(apphttp.Services{
		Auth:         authService,
		Companies:    service.NewCompanyService(repos.Companies, repos.Applications),
		Applications: service.NewJobApplicationService(repos.Applications, repos.Companies, repos.Statuses, attachments, logger),
		Statuses:     service.NewStatusService(repos.Statuses),
		Attachments:  attachments,
	}, apphttp.Options{
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
		AuthRateLimit: apphttp.RateLimitConfig{
			Requests: cfg.RateLimit.AuthRequests,
			Window:   cfg.RateLimit.AuthWindow,
			Burst:    cfg.RateLimit.AuthBurst,
		},
	}, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}
	if strings.EqualFold(cfg.Log.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

// buildStorage returns nil when no bucket is configured; attachment routes
// then answer 503.
func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not configured, attachments disabled")
		return nil, nil
	}

	client, err := storage.NewS3Client(ctx, storage.ClientOptions{
		Region:   cfg.Storage.Region,
		Endpoint: cfg.Storage.Endpoint,
		Profile:  cfg.AWS.Profile,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
