package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teamx/teamfinder/internal/apperr"
	"github.com/teamx/teamfinder/internal/model"
	"github.com/teamx/teamfinder/internal/repository"
	"github.com/teamx/teamfinder/internal/storage"
	"github.com/teamx/teamfinder/internal/validation"
)

// FileService keeps avatar objects and their metadata rows together.
// A nil storage disables uploads; reads then report no avatar.
type FileService struct {
	files   repository.FileRepository
	storage storage.Storage
	now     func() time.Time
}

func NewFileService(files repository.FileRepository, store storage.Storage) *FileService {
	return &FileService{
		files:   files,
		storage: store,
		now:     time.Now,
	}
}

func (s *FileService) Enabled() bool {
	return s.storage != nil
}

// ReplaceAvatar validates and stores header as the profile's avatar and
// removes any previous one.
func (s *FileService) ReplaceAvatar(ctx context.Context, userID, profileID string, header *multipart.FileHeader) (*model.File, error) {
	if !s.Enabled() {
		return nil, ErrAvatarsDisabled
	}

	mimeType, err := validation.ValidateFile(header, validation.AvatarConstraints)
	if err != nil {
		return nil, apperr.Validation(map[string]string{"avatar": err.Error()})
	}

	previous, err := s.allAvatars(ctx, profileID)
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	filename := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
	storagePath := path.Join("public", "avatars", filename)

	err = s.storage.Save(ctx, storagePath, mimeType, file)
	if err != nil {
		return nil, apperr.Wrap(ErrStorage, err)
	}

	record := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    model.FileOwnerProfile,
		OwnerID:      profileID,
		Type:         model.FileTypeAvatar,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		Size:         header.Size,
		StoragePath:  storagePath,
		CreatedAt:    s.now().UTC(),
	}

	err = s.files.Create(ctx, record)
	if err != nil {
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	for _, old := range previous {
		s.remove(ctx, old)
	}

	slog.Info("avatar uploaded", "profile_id", profileID, "file_id", record.ID, "size", record.Size)
	return record, nil
}

// AvatarURL returns a presigned URL for the profile's avatar, or "" when it
// has none.
func (s *FileService) AvatarURL(ctx context.Context, profileID string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	file, err := s.files.FileByType(ctx, model.FileOwnerProfile, profileID, model.FileTypeAvatar)
	if err != nil {
		if errors.Is(err, repository.ErrFileNotFound) {
			return "", nil
		}
		return "", err
	}

	return s.storage.URL(ctx, file.StoragePath)
}

// DeleteAvatar removes the profile's avatar; ErrAvatarNotFound if it has none.
func (s *FileService) DeleteAvatar(ctx context.Context, profileID string) error {
	files, err := s.allAvatars(ctx, profileID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return ErrAvatarNotFound
	}

	for _, f := range files {
		s.remove(ctx, f)
	}
	return nil
}

// DeleteAll drops every avatar of a profile that is being deleted.
func (s *FileService) DeleteAll(ctx context.Context, profileID string) error {
	files, err := s.allAvatars(ctx, profileID)
	if err != nil {
		return err
	}
	for _, f := range files {
		s.remove(ctx, f)
	}
	return nil
}

func (s *FileService) allAvatars(ctx context.Context, profileID string) ([]*model.File, error) {
	files, err := s.files.FilesByType(ctx, model.FileOwnerProfile, profileID, model.FileTypeAvatar)
	if err != nil {
		return nil, fmt.Errorf("failed to list avatars: %w", err)
	}
	return files, nil
}

// remove deletes the object (best effort) and then its row.
func (s *FileService) remove(ctx context.Context, file *model.File) {
	if s.storage != nil {
		err := s.storage.Delete(ctx, file.StoragePath)
		if err != nil {
			slog.Error("failed to delete file from storage", "error", err, "path", file.StoragePath)
		}
	}

	err := s.files.Delete(ctx, file.ID)
	if err != nil {
		slog.Error("failed to delete file record", "error", err, "file_id", file.ID)
	}
}
