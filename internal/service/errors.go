package service

import (
	"github.com/teamx/teamfinder/internal/apperr"
)

// Messages are shown to clients as-is.
var (
	ErrAlreadyRegistered  = apperr.New(apperr.KindConflict, "Email already registered and verified")
	ErrAlreadyVerified    = apperr.New(apperr.KindConflict, "Already verified")
	ErrNotVerified        = apperr.New(apperr.KindConflict, "Please verify your email first")
	ErrPasswordAlreadySet = apperr.New(apperr.KindConflict, "Password already set")
	ErrConcurrentUpdate   = apperr.New(apperr.KindConflict, "Request conflicted with another update, please retry")
	ErrUserNotFound       = apperr.New(apperr.KindNotFound, "User not found")

	ErrOTPExpired         = apperr.New(apperr.KindAuth, "OTP expired")
	ErrTooManyAttempts    = apperr.New(apperr.KindAuth, "Too many failed attempts. Request a new OTP.")
	ErrInvalidOTP         = apperr.New(apperr.KindAuth, "Invalid OTP")
	ErrInvalidCredentials = apperr.New(apperr.KindAuth, "Invalid credentials")
	ErrInvalidToken       = apperr.New(apperr.KindAuth, "Invalid or expired token")
	ErrWrongPassword      = apperr.New(apperr.KindAuth, "Current password is incorrect")
	ErrSamePassword       = apperr.New(apperr.KindValidation, "New password must differ from the current one")

	ErrProfileNotFound  = apperr.New(apperr.KindNotFound, "Profile not found")
	ErrForbidden        = apperr.New(apperr.KindForbidden, "You can only modify your own profile")
	ErrCollegeMailTaken = apperr.New(apperr.KindConflict, "College email is already used by another profile")
	ErrAvatarNotFound   = apperr.New(apperr.KindNotFound, "Avatar not found")
	ErrAvatarsDisabled  = apperr.New(apperr.KindUpstream, "Avatar storage is not configured")

	ErrMailDelivery = apperr.New(apperr.KindUpstream, "Failed to send email")
	ErrStorage      = apperr.New(apperr.KindUpstream, "File storage failed")
)
