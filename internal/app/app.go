package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/teamx/teamfinder/internal/config"
	"github.com/teamx/teamfinder/internal/db"
	"github.com/teamx/teamfinder/internal/markdown"
	"github.com/teamx/teamfinder/internal/middleware"
	"github.com/teamx/teamfinder/internal/repository"
	"github.com/teamx/teamfinder/internal/service"
	"github.com/teamx/teamfinder/internal/storage"
)

type App struct {
	Cfg            *config.Config
	DB             *sqlx.DB
	AuthService    *service.AuthService
	ProfileService *service.ProfileService
	FileService    *service.FileService
	RateLimiter    middleware.RateLimiter
	Metrics        *middleware.Metrics

	closers []func() error
	cancel  context.CancelFunc
}

// Deps are the external collaborators. New builds them from config;
// tests pass their own.
type Deps struct {
	DB          *sqlx.DB
	Mailer      service.Mailer
	Storage     storage.Storage     // nil disables avatars
	RateLimiter middleware.RateLimiter // nil selects the in-memory limiter
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	deps := Deps{
		DB:     database,
		Mailer: service.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, cfg.IsDevelopment()),
	}

	if cfg.AvatarsEnabled() {
		fileStorage, err := storage.New(ctx, cfg)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		deps.Storage = fileStorage
	} else {
		slog.Info("avatar storage disabled (S3_BUCKET not set)")
	}

	var redisLimiter *middleware.RedisRateLimiter
	if cfg.RedisAddr != "" {
		redisLimiter, err = middleware.NewRedisRateLimiter(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RateLimitAuthRequests, cfg.RateLimitAuthWindow)
		if err != nil {
			slog.Warn("redis rate limiter unavailable, using in-memory limiter", "error", err)
		} else {
			deps.RateLimiter = redisLimiter
		}
	}

	a := NewWithDeps(ctx, cfg, deps)
	a.closers = append(a.closers, database.Close)
	if redisLimiter != nil {
		a.closers = append(a.closers, redisLimiter.Close)
	}
	return a, nil
}

// NewWithDeps wires services around already-built collaborators. The caller
// keeps ownership of deps.DB.
func NewWithDeps(ctx context.Context, cfg *config.Config, deps Deps) *App {
	ctx, cancel := context.WithCancel(ctx)

	// Repositories
	userRepository := repository.NewUserRepository(deps.DB)
	profileRepository := repository.NewProfileRepository(deps.DB)
	fileRepository := repository.NewFileRepository(deps.DB)

	// Services
	tokenIssuer := service.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL)
	otpService := service.NewOTPService(userRepository, deps.Mailer, service.OTPConfig{
		TTL:         cfg.OTPTTL,
		MaxAttempts: cfg.OTPMaxAttempts,
		HashKey:     cfg.OTPHashKey,
	})
	authService := service.NewAuthService(
		userRepository,
		otpService,
		tokenIssuer,
		deps.Mailer,
		cfg.AppName,
		cfg.AppURL,
	)

	fileService := service.NewFileService(fileRepository, deps.Storage)
	profileService := service.NewProfileService(profileRepository, userRepository, fileService, markdown.NewRenderer())

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewMemoryRateLimiter(ctx, cfg.RateLimitAuthRequests, cfg.RateLimitAuthWindow)
	}

	return &App{
		Cfg:            cfg,
		DB:             deps.DB,
		AuthService:    authService,
		ProfileService: profileService,
		FileService:    fileService,
		RateLimiter:    limiter,
		Metrics:        middleware.NewMetrics(),
		cancel:         cancel,
	}
}

func (a *App) Close() error {
	a.cancel()

	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err := a.closers[i]()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
