package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamx/teamfinder/internal/apperr"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	e, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, apperr.KindValidation, e.Kind)
	return e.Fields
}

func TestRequestOTPInputNormalizesEmail(t *testing.T) {
	in := RequestOTPInput{Email: "  New@Example.COM "}
	require.NoError(t, in.Validate())
	assert.Equal(t, "new@example.com", in.Email)
}

func TestRequestOTPInputRejectsBadEmail(t *testing.T) {
	for _, email := range []string{"", "not-an-email", "Bob <bob@example.com>"} {
		in := RequestOTPInput{Email: email}
		fields := fieldsOf(t, in.Validate())
		assert.Contains(t, fields, "email", email)
	}
}

func TestVerifyOTPInput(t *testing.T) {
	ok := VerifyOTPInput{Email: "a@example.com", OTP: "012345"}
	assert.NoError(t, ok.Validate())

	for _, otp := range []string{"", "12345", "1234567", "12a456", "１２３４５６"} {
		in := VerifyOTPInput{Email: "a@example.com", OTP: otp}
		fields := fieldsOf(t, in.Validate())
		assert.Equal(t, "OTP must be exactly 6 digits", fields["otp"], otp)
	}
}

func TestSignupInputPasswordPolicy(t *testing.T) {
	short := SignupInput{Email: "a@example.com", Password: "12345"}
	assert.Equal(t, "password must be at least 6 characters long", fieldsOf(t, short.Validate())["password"])

	long := SignupInput{Email: "a@example.com", Password: string(make([]byte, 73))}
	assert.Contains(t, fieldsOf(t, long.Validate()), "password")

	ok := SignupInput{Email: "A@example.com", Password: "hunter2"}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "a@example.com", ok.Email)
}

func TestLoginInputOnlyRequiresPassword(t *testing.T) {
	in := LoginInput{Email: "a@example.com", Password: "x"}
	assert.NoError(t, in.Validate())

	empty := LoginInput{Email: "a@example.com"}
	assert.Equal(t, "password is required", fieldsOf(t, empty.Validate())["password"])
}

func TestFieldsErrIsNilWhenEmpty(t *testing.T) {
	assert.NoError(t, Fields{}.Err())
}

func TestChangePasswordInput(t *testing.T) {
	in := ChangePasswordInput{CurrentPassword: "", NewPassword: "abc"}
	err := in.Validate()

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "current password is required", e.Fields["currentPassword"])
	assert.Equal(t, "password must be at least 6 characters long", e.Fields["newPassword"])

	in = ChangePasswordInput{CurrentPassword: "hunter22", NewPassword: "correct-horse"}
	assert.NoError(t, in.Validate())
}
