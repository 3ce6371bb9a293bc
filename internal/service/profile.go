package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/teamx/teamfinder/internal/markdown"
	"github.com/teamx/teamfinder/internal/model"
	"github.com/teamx/teamfinder/internal/repository"
	"github.com/teamx/teamfinder/internal/validation"
)

// ProfileFilter narrows the posted feed. Empty fields match everything;
// comparisons ignore case.
type ProfileFilter struct {
	TechStack string
	Role      string
	Year      string
}

// ProfileService owns team-matching profiles. Every mutation is gated on the
// requester owning the profile.
type ProfileService struct {
	profiles repository.ProfileRepository
	users    repository.UserRepository
	files    *FileService
	markdown *markdown.Renderer
	now      func() time.Time
}

func NewProfileService(
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	files *FileService,
	renderer *markdown.Renderer,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		users:    users,
		files:    files,
		markdown: renderer,
		now:      time.Now,
	}
}

// Upsert creates or replaces the owner's profile. When the owner has none, a
// profile with the same college mail is adopted if its previous owner no
// longer exists. The owner is marked profile-complete on success.
func (s *ProfileService) Upsert(ctx context.Context, ownerID string, in validation.ProfileInput) (*model.Profile, error) {
	err := in.Validate()
	if err != nil {
		return nil, err
	}

	existing, err := s.profiles.ByUserID(ctx, ownerID)
	if errors.Is(err, repository.ErrProfileNotFound) {
		existing, err = s.adoptable(ctx, ownerID, in.CollegeMail)
	}
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	profile := existing
	if profile == nil {
		profile = &model.Profile{
			ID:        uuid.New().String(),
			CreatedAt: now,
		}
	}

	profile.UserID = ownerID
	profile.CollegeMail = in.CollegeMail
	profile.Name = in.Name
	profile.Year = in.Year
	profile.TechStacks = in.TechStacks
	profile.Roles = in.Roles
	profile.LinkedIn = in.LinkedIn
	profile.GitHub = in.GitHub
	profile.Bio = in.Bio
	profile.UpdatedAt = now

	if existing == nil {
		err = s.profiles.Create(ctx, profile)
	} else {
		err = s.profiles.Update(ctx, profile)
	}
	if errors.Is(err, repository.ErrDuplicateProfile) {
		return nil, ErrConcurrentUpdate
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	err = s.users.SetProfileComplete(ctx, ownerID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to mark profile complete: %w", err)
	}

	slog.Info("profile saved", "profile_id", profile.ID, "user_id", ownerID, "created", existing == nil)
	return s.decorate(ctx, profile), nil
}

// adoptable returns the profile registered under collegeMail if it may be
// taken over by ownerID, nil if there is none.
func (s *ProfileService) adoptable(ctx context.Context, ownerID, collegeMail string) (*model.Profile, error) {
	profile, err := s.profiles.ByCollegeMail(ctx, collegeMail)
	if errors.Is(err, repository.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	_, err = s.users.ByID(ctx, profile.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		slog.Info("adopting orphaned profile", "profile_id", profile.ID, "user_id", ownerID)
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return nil, ErrCollegeMailTaken
}

// Update applies the non-nil fields of patch.
func (s *ProfileService) Update(ctx context.Context, id, ownerID string, patch validation.ProfilePatch) (*model.Profile, error) {
	err := patch.Validate()
	if err != nil {
		return nil, err
	}

	profile, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		profile.Name = *patch.Name
	}
	if patch.Year != nil {
		profile.Year = *patch.Year
	}
	if patch.TechStacks != nil {
		profile.TechStacks = *patch.TechStacks
	}
	if patch.Roles != nil {
		profile.Roles = *patch.Roles
	}
	if patch.LinkedIn != nil {
		profile.LinkedIn = *patch.LinkedIn
	}
	if patch.GitHub != nil {
		profile.GitHub = *patch.GitHub
	}
	if patch.Bio != nil {
		profile.Bio = *patch.Bio
	}
	profile.UpdatedAt = s.now().UTC()

	err = s.profiles.Update(ctx, profile)
	if err != nil {
		return nil, s.notFound(err)
	}

	return s.decorate(ctx, profile), nil
}

func (s *ProfileService) Post(ctx context.Context, id, ownerID string) (*model.Profile, error) {
	return s.setPosted(ctx, id, ownerID, true)
}

func (s *ProfileService) Unpost(ctx context.Context, id, ownerID string) (*model.Profile, error) {
	return s.setPosted(ctx, id, ownerID, false)
}

func (s *ProfileService) setPosted(ctx context.Context, id, ownerID string, posted bool) (*model.Profile, error) {
	profile, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	err = s.profiles.SetPosted(ctx, id, posted)
	if err != nil {
		return nil, s.notFound(err)
	}
	profile.IsPosted = posted

	slog.Info("profile visibility changed", "profile_id", id, "posted", posted)
	return s.decorate(ctx, profile), nil
}

// Delete removes the profile and its avatar and returns what was deleted.
// The owner is no longer profile-complete afterwards.
func (s *ProfileService) Delete(ctx context.Context, id, ownerID string) (*model.Profile, error) {
	profile, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	err = s.profiles.Delete(ctx, id)
	if err != nil {
		return nil, s.notFound(err)
	}

	err = s.files.DeleteAll(ctx, id)
	if err != nil {
		slog.Warn("failed to delete profile avatar", "error", err, "profile_id", id)
	}

	err = s.users.SetProfileComplete(ctx, ownerID, false)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to clear profile complete: %w", err)
	}

	slog.Info("profile deleted", "profile_id", id, "user_id", ownerID)
	return profile, nil
}

// ListPosted returns posted profiles in insertion order.
func (s *ProfileService) ListPosted(ctx context.Context, filter ProfileFilter) ([]*model.Profile, error) {
	profiles, err := s.profiles.Posted(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posted profiles: %w", err)
	}

	profiles = lo.Filter(profiles, func(p *model.Profile, _ int) bool {
		return filter.matches(p)
	})
	return s.decorateAll(ctx, profiles), nil
}

func (s *ProfileService) List(ctx context.Context) ([]*model.Profile, error) {
	profiles, err := s.profiles.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return s.decorateAll(ctx, profiles), nil
}

func (s *ProfileService) ByID(ctx context.Context, id string) (*model.Profile, error) {
	profile, err := s.profiles.ByID(ctx, id)
	if err != nil {
		return nil, s.notFound(err)
	}
	return s.decorate(ctx, profile), nil
}

func (s *ProfileService) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profiles.ByUserID(ctx, userID)
	if err != nil {
		return nil, s.notFound(err)
	}
	return s.decorate(ctx, profile), nil
}

// Mine is ByUserID for the requester.
func (s *ProfileService) Mine(ctx context.Context, ownerID string) (*model.Profile, error) {
	return s.ByUserID(ctx, ownerID)
}

func (s *ProfileService) SetAvatar(ctx context.Context, id, ownerID string, header *multipart.FileHeader) (*model.Profile, error) {
	profile, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	_, err = s.files.ReplaceAvatar(ctx, ownerID, id, header)
	if err != nil {
		return nil, err
	}

	return s.decorate(ctx, profile), nil
}

func (s *ProfileService) DeleteAvatar(ctx context.Context, id, ownerID string) (*model.Profile, error) {
	profile, err := s.owned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	err = s.files.DeleteAvatar(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.decorate(ctx, profile), nil
}

// owned loads a profile and checks that ownerID owns it.
func (s *ProfileService) owned(ctx context.Context, id, ownerID string) (*model.Profile, error) {
	profile, err := s.profiles.ByID(ctx, id)
	if err != nil {
		return nil, s.notFound(err)
	}

	if profile.UserID != ownerID {
		slog.Warn("profile ownership check failed", "profile_id", id, "user_id", ownerID)
		return nil, ErrForbidden
	}

	return profile, nil
}

func (s *ProfileService) notFound(err error) error {
	if errors.Is(err, repository.ErrProfileNotFound) {
		return ErrProfileNotFound
	}
	return fmt.Errorf("failed to access profile: %w", err)
}

// decorate fills the computed read fields.
func (s *ProfileService) decorate(ctx context.Context, p *model.Profile) *model.Profile {
	html, err := s.markdown.Render(p.Bio)
	if err != nil {
		slog.Warn("failed to render bio", "error", err, "profile_id", p.ID)
	}
	p.BioHTML = html

	url, err := s.files.AvatarURL(ctx, p.ID)
	if err != nil {
		slog.Warn("failed to resolve avatar url", "error", err, "profile_id", p.ID)
	}
	p.AvatarURL = url

	return p
}

func (s *ProfileService) decorateAll(ctx context.Context, profiles []*model.Profile) []*model.Profile {
	for _, p := range profiles {
		s.decorate(ctx, p)
	}
	return profiles
}

func (f ProfileFilter) matches(p *model.Profile) bool {
	if f.TechStack != "" && !containsFold(p.TechStacks, f.TechStack) {
		return false
	}
	if f.Role != "" && !containsFold(p.Roles, f.Role) {
		return false
	}
	if f.Year != "" && !strings.EqualFold(p.Year, strings.TrimSpace(f.Year)) {
		return false
	}
	return true
}

func containsFold(values []string, want string) bool {
	want = strings.TrimSpace(want)
	return lo.ContainsBy(values, func(v string) bool {
		return strings.EqualFold(v, want)
	})
}
