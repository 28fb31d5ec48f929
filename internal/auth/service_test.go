package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workhive/backend/internal/apperr"
)

func TestValidateToken_RoundTrip(t *testing.T) {
	s := NewService("secret")
	tok, err := s.IssueToken("Worker@Example.com", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	email, err := s.ValidateToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if email != "worker@example.com" {
		t.Errorf("email = %q, want normalized worker@example.com", email)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	s := NewService("secret")
	other := NewService("other-secret")

	foreign, _ := other.IssueToken("a@example.com", time.Hour)
	expired, _ := s.IssueToken("a@example.com", -time.Minute)
	noEmail, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims{Email: "a@example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"no email":     noEmail,
		"alg none":     none,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.ValidateToken(context.Background(), tok)
			if !errors.Is(err, apperr.ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
