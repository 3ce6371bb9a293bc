package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/teamx/teamfinder/internal/apperr"
	"github.com/teamx/teamfinder/internal/model"
	"github.com/teamx/teamfinder/internal/repository"
)

type OTPConfig struct {
	TTL         time.Duration // default 5m
	MaxAttempts int           // default 3
	// HashKey switches code hashing from SHA-256 to HMAC-SHA256.
	HashKey string
}

// OTPService issues and verifies the email codes that gate signup.
// All read-modify-write cycles for one email run under a per-email lock.
type OTPService struct {
	users    repository.UserRepository
	mailer   Mailer
	cfg      OTPConfig
	locks    *keyedMutex
	now      func() time.Time
	generate func() (string, error)
}

func NewOTPService(users repository.UserRepository, mailer Mailer, cfg OTPConfig) *OTPService {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	return &OTPService{
		users:    users,
		mailer:   mailer,
		cfg:      cfg,
		locks:    newKeyedMutex(),
		now:      time.Now,
		generate: generateCode,
	}
}

// Issue stores a fresh code for email and mails it. The identity is created
// on first use. The record is persisted before delivery is attempted.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	unlock := s.locks.Lock(email)
	defer unlock()

	now := s.now().UTC()

	user, err := s.users.ByEmail(ctx, email)
	isNew := errors.Is(err, repository.ErrUserNotFound)
	if err != nil && !isNew {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if isNew {
		user = &model.User{
			ID:        uuid.New().String(),
			Email:     email,
			CreatedAt: now,
		}
	} else if user.IsVerified {
		return ErrAlreadyRegistered
	}

	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	hash := s.hash(code)
	expiry := now.Add(s.cfg.TTL)
	user.OTPHash = &hash
	user.OTPExpiry = &expiry
	user.OTPAttempts = 0
	user.UpdatedAt = now

	if isNew {
		err = s.users.Create(ctx, user)
	} else {
		err = s.users.Update(ctx, user)
	}
	if err != nil {
		return persistErr(err)
	}

	err = s.mailer.Send(ctx, otpEmail(email, code, s.cfg.TTL))
	if err != nil {
		slog.Error("failed to send otp email", "error", err, "email", email)
		return apperr.Wrap(ErrMailDelivery, err)
	}

	slog.Info("otp issued", "email", email, "user_id", user.ID, "new_user", isNew)
	return nil
}

// Verify checks code against the pending OTP for email and marks the identity
// verified on success. Wrong codes count towards MaxAttempts; once reached,
// even the right code is refused until a new one is issued.
func (s *OTPService) Verify(ctx context.Context, email, code string) (*model.User, error) {
	unlock := s.locks.Lock(email)
	defer unlock()

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}

	now := s.now().UTC()
	if user.OTPHash == nil || user.OTPExpiry == nil || !now.Before(*user.OTPExpiry) {
		return nil, ErrOTPExpired
	}

	if user.OTPAttempts >= s.cfg.MaxAttempts {
		return nil, ErrTooManyAttempts
	}

	if !s.matches(code, *user.OTPHash) {
		user.OTPAttempts++
		user.UpdatedAt = now
		err = s.users.Update(ctx, user)
		if err != nil {
			return nil, persistErr(err)
		}
		slog.Info("otp mismatch", "email", email, "attempts", user.OTPAttempts)
		return nil, ErrInvalidOTP
	}

	user.IsVerified = true
	user.ClearOTP()
	user.UpdatedAt = now
	err = s.users.Update(ctx, user)
	if err != nil {
		return nil, persistErr(err)
	}

	slog.Info("email verified", "email", email, "user_id", user.ID)
	return user, nil
}

// lock exposes the per-email lock to the signup flow so password setting
// cannot interleave with verification.
func (s *OTPService) lock(email string) func() {
	return s.locks.Lock(email)
}

func (s *OTPService) hash(code string) string {
	if s.cfg.HashKey != "" {
		mac := hmac.New(sha256.New, []byte(s.cfg.HashKey))
		mac.Write([]byte(code))
		return hex.EncodeToString(mac.Sum(nil))
	}
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func (s *OTPService) matches(code, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(s.hash(code)), []byte(stored)) == 1
}

// generateCode returns a uniformly random code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// persistErr maps lost compare-and-swap races to ErrConcurrentUpdate.
func persistErr(err error) error {
	if errors.Is(err, repository.ErrStaleUser) || errors.Is(err, repository.ErrDuplicateEmail) {
		return apperr.Wrap(ErrConcurrentUpdate, err)
	}
	return fmt.Errorf("failed to save user: %w", err)
}
