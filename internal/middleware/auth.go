package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/teamx/teamfinder/internal/apperr"
	"github.com/teamx/teamfinder/internal/ctxkeys"
	"github.com/teamx/teamfinder/internal/httpx"
	"github.com/teamx/teamfinder/internal/model"
)

// Authenticator resolves a session token to its identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// RequireAuth rejects requests without a valid bearer token and puts the
// identity in the request context.
func RequireAuth(auth Authenticator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := httpx.BearerToken(r)
			if !ok {
				httpx.ErrorStatus(w, http.StatusUnauthorized, apperr.KindAuth.String(), "Missing or invalid token")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				var e *apperr.Error
				if errors.As(err, &e) && e.Kind == apperr.KindAuth {
					httpx.ErrorStatus(w, http.StatusUnauthorized, apperr.KindAuth.String(), "Invalid or expired token")
					return
				}
				httpx.Error(w, r, err)
				return
			}

			// Never carry the hash past authentication
			user.PasswordHash = nil
			user.OTPHash = nil

			next(w, r.WithContext(ctxkeys.WithUser(r.Context(), user)))
		}
	}
}
