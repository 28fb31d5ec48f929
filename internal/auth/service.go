// Package auth verifies the bearer tokens minted by the identity provider.
// Accounts live with the provider; this service only trusts the signed email
// claim.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workhive/backend/internal/apperr"
)

type Service interface {
	ValidateToken(ctx context.Context, token string) (email string, err error)
}

type service struct {
	secret []byte
	now    func() time.Time
}

func NewService(secret string) *service {
	return &service{secret: []byte(secret), now: time.Now}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// IssueToken signs an HS256 token for email. The API never hands tokens out;
// this exists for tooling and tests that stand in for the identity provider.
func (s *service) IssueToken(email string, ttl time.Duration) (string, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: email,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(ctx context.Context, token string) (string, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return "", fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" {
		return "", fmt.Errorf("%w: %v", apperr.ErrUnauthorized, errMissingEmail)
	}
	return email, nil
}

var errMissingEmail = errors.New("token has no email claim")
