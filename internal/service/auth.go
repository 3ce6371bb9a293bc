package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teamx/teamfinder/internal/model"
	"github.com/teamx/teamfinder/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	MessageOTPSent     = "OTP sent to your email"
	MessageOTPVerified = "OTP verified. You can now complete signup."
)

// AuthResult is returned by signup completion and login.
type AuthResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
	User      model.UserSummary `json:"user"`
}

// AuthService drives the signup state machine
// (unregistered → otp_pending → verified → active) and password login.
// Emails are expected to be normalized by the caller.
type AuthService struct {
	users      repository.UserRepository
	otp        *OTPService
	tokens     *TokenIssuer
	mailer     Mailer
	appName    string
	appURL     string
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	otp *OTPService,
	tokens *TokenIssuer,
	mailer Mailer,
	appName string,
	appURL string,
) *AuthService {
	return &AuthService{
		users:      users,
		otp:        otp,
		tokens:     tokens,
		mailer:     mailer,
		appName:    appName,
		appURL:     appURL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func (s *AuthService) RequestOTP(ctx context.Context, email string) (string, error) {
	err := s.otp.Issue(ctx, email)
	if err != nil {
		return "", err
	}
	return MessageOTPSent, nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	_, err := s.otp.Verify(ctx, email, code)
	if err != nil {
		return "", err
	}
	return MessageOTPVerified, nil
}

// CompleteSignup sets the password of a verified identity exactly once and
// starts a session.
func (s *AuthService) CompleteSignup(ctx context.Context, email, password string) (*AuthResult, error) {
	unlock := s.otp.lock(email)
	defer unlock()

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	if user.HasPassword() {
		return nil, ErrPasswordAlreadySet
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hashed := string(hash)
	user.PasswordHash = &hashed
	user.UpdatedAt = s.now().UTC()
	err = s.users.Update(ctx, user)
	if err != nil {
		return nil, persistErr(err)
	}

	result, err := s.session(user)
	if err != nil {
		return nil, err
	}

	err = s.mailer.Send(ctx, welcomeEmail(user.Email, s.appName, s.appURL))
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "email", user.Email)
	}

	slog.Info("signup completed", "user_id", user.ID, "email", user.Email)
	return result, nil
}

// Login answers every failure with ErrInvalidCredentials so callers cannot
// tell unknown, unverified and password-less identities apart.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsVerified || !user.HasPassword() {
		slog.Info("login refused", "user_id", user.ID, "state", user.SignupState())
		return nil, ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.session(user)
}

// State reports where email is in the signup flow. Unknown emails are
// unregistered.
func (s *AuthService) State(ctx context.Context, email string) (model.SignupState, error) {
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.SignupStateUnregistered, nil
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	return user.SignupState(), nil
}

// Authenticate resolves a session token to its identity.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.ByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (s *AuthService) User(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.ByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *AuthService) session(user *model.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Mint(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.Summary(),
	}, nil
}
