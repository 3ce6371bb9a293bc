package model

import (
	"time"
)

// User is the authentication identity for one email address.
type User struct {
	ID                string     `db:"id"`
	Email             string     `db:"email"`
	PasswordHash      *string    `db:"password_hash"` // NULL until signup is completed
	IsVerified        bool       `db:"is_verified"`
	IsProfileComplete bool       `db:"is_profile_complete"`
	OTPHash           *string    `db:"otp_hash"`
	OTPExpiry         *time.Time `db:"otp_expiry"`
	OTPAttempts       int        `db:"otp_attempts"`
	Version           int64      `db:"version"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// ClearOTP drops the pending code, its expiry and the attempt counter.
func (u *User) ClearOTP() {
	u.OTPHash = nil
	u.OTPExpiry = nil
	u.OTPAttempts = 0
}

// UserSummary is the public-safe view returned to clients.
type UserSummary struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	IsProfileComplete bool   `json:"isProfileComplete"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:                u.ID,
		Email:             u.Email,
		IsProfileComplete: u.IsProfileComplete,
	}
}

// SignupState is the position of an identity in the signup flow.
type SignupState string

const (
	SignupStateUnregistered SignupState = "unregistered"
	SignupStateOTPPending   SignupState = "otp_pending"
	SignupStateVerified     SignupState = "verified"
	SignupStateActive       SignupState = "active"
)

func (u *User) SignupState() SignupState {
	switch {
	case u == nil:
		return SignupStateUnregistered
	case u.IsVerified && u.HasPassword():
		return SignupStateActive
	case u.IsVerified:
		return SignupStateVerified
	case u.OTPHash != nil:
		return SignupStateOTPPending
	default:
		return SignupStateUnregistered
	}
}
