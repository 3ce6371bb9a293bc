package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/teamx/teamfinder/internal/apperr"
)

const tokenIssuer = "teamx"

// SessionClaims are carried by session tokens. Subject is the user ID.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates stateless HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

func (t *TokenIssuer) Mint(userID, email string) (string, time.Time, error) {
	now := t.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(t.ttl)

	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate checks signature, algorithm, issuer and expiry. Every failure is
// reported as ErrInvalidToken.
func (t *TokenIssuer) Validate(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, apperr.Wrap(ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, apperr.Wrap(ErrInvalidToken, errors.New("token has no subject"))
	}

	return claims, nil
}
