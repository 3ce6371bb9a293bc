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
	ErrProfileNotFound = errors.New("profile not found")
	// ErrDuplicateProfile means the owner already has a profile.
	ErrDuplicateProfile = errors.New("profile already exists for user")
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *model.Profile) error
	ByID(ctx context.Context, id string) (*model.Profile, error)
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
	ByCollegeMail(ctx context.Context, collegeMail string) (*model.Profile, error)
	Update(ctx context.Context, profile *model.Profile) error
	SetPosted(ctx context.Context, id string, posted bool) error
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]*model.Profile, error)
	Posted(ctx context.Context) ([]*model.Profile, error)
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, user_id, college_mail, name, year, tech_stacks, roles,
			linkedin, github, bio, is_posted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		profile.ID,
		profile.UserID,
		profile.CollegeMail,
		profile.Name,
		profile.Year,
		profile.TechStacks,
		profile.Roles,
		profile.LinkedIn,
		profile.GitHub,
		profile.Bio,
		profile.IsPosted,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateProfile
	}
	return err
}

func (r *profileRepository) ByID(ctx context.Context, id string) (*model.Profile, error) {
	return r.get(ctx, `SELECT * FROM profiles WHERE id = $1`, id)
}

func (r *profileRepository) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	return r.get(ctx, `SELECT * FROM profiles WHERE user_id = $1`, userID)
}

func (r *profileRepository) ByCollegeMail(ctx context.Context, collegeMail string) (*model.Profile, error) {
	return r.get(ctx, `SELECT * FROM profiles WHERE college_mail = $1 ORDER BY created_at LIMIT 1`, collegeMail)
}

func (r *profileRepository) get(ctx context.Context, query string, arg any) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update overwrites the editable fields and the owner of an existing profile.
func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET user_id = $1, college_mail = $2, name = $3, year = $4, tech_stacks = $5, roles = $6,
			linkedin = $7, github = $8, bio = $9, is_posted = $10, updated_at = $11
		WHERE id = $12
	`,
		profile.UserID,
		profile.CollegeMail,
		profile.Name,
		profile.Year,
		profile.TechStacks,
		profile.Roles,
		profile.LinkedIn,
		profile.GitHub,
		profile.Bio,
		profile.IsPosted,
		profile.UpdatedAt,
		profile.ID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateProfile
	}
	return expectOne(result, err)
}

func (r *profileRepository) SetPosted(ctx context.Context, id string, posted bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET is_posted = $1, updated_at = $2 WHERE id = $3`,
		posted, time.Now().UTC(), id,
	)
	return expectOne(result, err)
}

func (r *profileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	return expectOne(result, err)
}

func (r *profileRepository) All(ctx context.Context) ([]*model.Profile, error) {
	profiles := []*model.Profile{}
	err := r.db.SelectContext(ctx, &profiles, `SELECT * FROM profiles ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// Posted returns the feed in insertion order.
func (r *profileRepository) Posted(ctx context.Context) ([]*model.Profile, error) {
	profiles := []*model.Profile{}
	err := r.db.SelectContext(ctx, &profiles, `SELECT * FROM profiles WHERE is_posted = $1 ORDER BY created_at, id`, true)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func expectOne(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}
