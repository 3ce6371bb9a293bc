package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName            string   `env:"APP_NAME" envDefault:"TeamX"`
	AppEnv             string   `env:"APP_ENV,required,notEmpty"` // 'development' or 'production'
	AppURL             string   `env:"APP_URL" envDefault:"http://localhost:8090"`
	Port               string   `env:"PORT" envDefault:"8090"`
	SupportEmail       string   `env:"SUPPORT_EMAIL" envDefault:"hello@example.com"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// Database (default: sqlite, "pgx" for PostgreSQL)
	DBDriver     string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBConnection string `env:"DB_CONNECTION" envDefault:"./data/teamx.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"`

	// Security
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"48h"`
	OTPTTL         time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPMaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"3"`
	OTPHashKey     string        `env:"OTP_HASH_KEY"` // Optional: HMAC key for OTP hashes

	// Email
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"noreply@example.com"`
	ResendAPIKey string `env:"RESEND_API_KEY"`

	// Rate limiting for /auth/* actions. Redis is optional; without it limits are per process.
	RateLimitAuthRequests int           `env:"RATE_LIMIT_AUTH_REQUESTS" envDefault:"20"`
	RateLimitAuthWindow   time.Duration `env:"RATE_LIMIT_AUTH_WINDOW" envDefault:"15m"`
	RedisAddr             string        `env:"REDIS_ADDR"`
	RedisPassword         string        `env:"REDIS_PASSWORD"`
	RedisDB               int           `env:"REDIS_DB" envDefault:"0"`

	// Observability (optional)
	SentryDSN string `env:"SENTRY_DSN"`

	// Storage for profile avatars (S3-compatible). Avatars are disabled when S3_BUCKET is empty.
	S3Region        string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3Endpoint      string        `env:"S3_ENDPOINT"` // Optional: MinIO, R2, DO Spaces
	S3PresignExpiry time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"168h"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	err = cfg.validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.AppEnv != "development" && c.AppEnv != "production" && c.AppEnv != "test" {
		return fmt.Errorf("APP_ENV must be development, production or test, got %q", c.AppEnv)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.OTPMaxAttempts < 1 {
		return errors.New("OTP_MAX_ATTEMPTS must be positive")
	}
	if c.OTPTTL <= 0 || c.SessionTTL <= 0 {
		return errors.New("OTP_TTL and SESSION_TTL must be positive")
	}

	// Development falls back to logging emails; production must deliver them.
	if c.IsProduction() && c.ResendAPIKey == "" {
		return errors.New("production deployment requires RESEND_API_KEY (set APP_ENV=development for email log mode)")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) AvatarsEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy with only non-secret fields, safe to log.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:               c.AppName,
		AppEnv:                c.AppEnv,
		AppURL:                c.AppURL,
		Port:                  c.Port,
		SupportEmail:          c.SupportEmail,
		CORSAllowedOrigins:    c.CORSAllowedOrigins,
		DBDriver:              c.DBDriver,
		SessionTTL:            c.SessionTTL,
		OTPTTL:                c.OTPTTL,
		OTPMaxAttempts:        c.OTPMaxAttempts,
		EmailFrom:             c.EmailFrom,
		RateLimitAuthRequests: c.RateLimitAuthRequests,
		RateLimitAuthWindow:   c.RateLimitAuthWindow,
		RedisAddr:             c.RedisAddr,
		S3Region:              c.S3Region,
		S3Bucket:              c.S3Bucket,
		S3Endpoint:            c.S3Endpoint,
	}
}
