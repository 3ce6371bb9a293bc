package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfThroughWrapping(t *testing.T) {
	sentinel := New(KindConflict, "password already set")
	err := fmt.Errorf("complete signup: %w", sentinel)

	assert.Equal(t, KindConflict, KindOf(err))
	assert.ErrorIs(t, err, sentinel)
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	sentinel := New(KindUpstream, "failed to send email")
	cause := errors.New("smtp timeout")

	err := Wrap(sentinel, cause)

	assert.ErrorIs(t, err, sentinel)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to send email: smtp timeout", err.Error())
}

func TestIsDistinguishesMessages(t *testing.T) {
	a := New(KindAuth, "invalid otp")
	b := New(KindAuth, "otp expired")

	assert.False(t, errors.Is(a, b))
}

func TestValidationFields(t *testing.T) {
	err := Validation(map[string]string{"email": "invalid email format"})

	e, ok := As(fmt.Errorf("decode: %w", err))
	require.True(t, ok)
	assert.Equal(t, KindValidation, e.Kind)
	assert.Equal(t, "invalid email format", e.Fields["email"])
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindNotFound:   http.StatusNotFound,
		KindConflict:   http.StatusConflict,
		KindAuth:       http.StatusUnauthorized,
		KindForbidden:  http.StatusForbidden,
		KindUpstream:   http.StatusBadGateway,
		KindInternal:   http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}
