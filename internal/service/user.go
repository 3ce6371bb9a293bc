package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// ChangePassword replaces the password of an active user after checking the
// current one. Existing session tokens stay valid until they expire.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.User(ctx, userID)
	if err != nil {
		return err
	}

	unlock := s.otp.lock(user.Email)
	defer unlock()

	// reload under the lock
	user, err = s.User(ctx, userID)
	if err != nil {
		return err
	}

	if !user.HasPassword() {
		return ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword))
	if err != nil {
		return ErrWrongPassword
	}
	if currentPassword == newPassword {
		return ErrSamePassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	hashed := string(hash)
	user.PasswordHash = &hashed
	user.UpdatedAt = s.now().UTC()
	err = s.users.Update(ctx, user)
	if err != nil {
		return persistErr(err)
	}

	slog.Info("password changed", "user_id", user.ID)
	return nil
}
