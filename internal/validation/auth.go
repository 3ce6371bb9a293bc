package validation

import (
	"github.com/teamx/teamfinder/internal/apperr"
)

// Each input normalizes itself in Validate; handlers call Validate before
// anything reaches the auth services.

type RequestOTPInput struct {
	Email string `json:"email"`
}

func (in *RequestOTPInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)

	fields := Fields{}
	fields.check("email", ValidateEmail(in.Email))
	return fields.Err()
}

type VerifyOTPInput struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (in *VerifyOTPInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)

	fields := Fields{}
	fields.check("email", ValidateEmail(in.Email))
	if !isDigits(in.OTP, 6) {
		fields["otp"] = "OTP must be exactly 6 digits"
	}
	return fields.Err()
}

type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *SignupInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)

	fields := Fields{}
	fields.check("email", ValidateEmail(in.Email))
	fields.check("password", ValidatePassword(in.Password))
	return fields.Err()
}

// LoginInput only checks presence; the password policy applies at signup.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *LoginInput) Validate() error {
	in.Email = NormalizeEmail(in.Email)

	fields := Fields{}
	fields.check("email", ValidateEmail(in.Email))
	if in.Password == "" {
		fields["password"] = "password is required"
	}
	return fields.Err()
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (in *ChangePasswordInput) Validate() error {
	fields := Fields{}
	if in.CurrentPassword == "" {
		fields["currentPassword"] = "current password is required"
	}
	fields.check("newPassword", ValidatePassword(in.NewPassword))
	return fields.Err()
}

// Fields collects per-field validation messages.
type Fields map[string]string

func (f Fields) check(field string, err error) {
	if err != nil {
		if _, exists := f[field]; !exists {
			f[field] = err.Error()
		}
	}
}

// Err returns nil when no field failed.
func (f Fields) Err() error {
	if len(f) == 0 {
		return nil
	}
	return apperr.Validation(f)
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
