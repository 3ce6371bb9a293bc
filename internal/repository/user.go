package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/teamx/teamfinder/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrStaleUser means the row changed since it was read (version mismatch).
	ErrStaleUser = errors.New("user was modified concurrently")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetProfileComplete(ctx context.Context, id string, complete bool) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, is_verified, is_profile_complete,
			otp_hash, otp_expiry, otp_attempts, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.IsProfileComplete,
		user.OTPHash,
		user.OTPExpiry,
		user.OTPAttempts,
		user.Version,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.GetContext(ctx, user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.GetContext(ctx, user, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Update writes every mutable column if the stored version still matches
// user.Version, then advances user.Version. A mismatch returns ErrStaleUser.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET password_hash = $1,
			is_verified = $2,
			is_profile_complete = $3,
			otp_hash = $4,
			otp_expiry = $5,
			otp_attempts = $6,
			updated_at = $7,
			version = version + 1
		WHERE id = $8 AND version = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		user.PasswordHash,
		user.IsVerified,
		user.IsProfileComplete,
		user.OTPHash,
		user.OTPExpiry,
		user.OTPAttempts,
		user.UpdatedAt,
		user.ID,
		user.Version,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStaleUser
	}

	user.Version++
	return nil
}

func (r *userRepository) SetProfileComplete(ctx context.Context, id string, complete bool) error {
	query := `UPDATE users SET is_profile_complete = $1, updated_at = $2, version = version + 1 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, complete, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
