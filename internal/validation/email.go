package validation

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidateEmail validates email format and length.
// Uses net/mail which follows RFC 5322; display names ("Bob <b@x.io>") are rejected.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	// RFC 5321: total max 254 with @
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email format")
	}

	return nil
}

// NormalizeEmail is the lookup key for an identity: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
