package validation

import (
	"errors"
)

const (
	PasswordMinLength = 6
	// bcrypt silently truncates input past 72 bytes
	PasswordMaxLength = 72
)

// ValidatePassword checks the length policy for new passwords.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}

	if len(password) < PasswordMinLength {
		return errors.New("password must be at least 6 characters long")
	}

	if len(password) > PasswordMaxLength {
		return errors.New("password must not exceed 72 characters")
	}

	return nil
}
