package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFoundf("task %s", "x"), http.StatusNotFound},
		{"validation", Validationf("title is required"), http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbiddenf("admin only"), http.StatusForbidden},
		{"conflict", Conflictf("already approved"), http.StatusConflict},
		{"insufficient funds wrapped", fmt.Errorf("approve withdrawal: %w", ErrInsufficientFunds), http.StatusPaymentRequired},
		{"unavailable", fmt.Errorf("create intent: %w", ErrUnavailable), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Status(tc.err); got != tc.want {
				t.Errorf("Status(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestValidationfMessage(t *testing.T) {
	err := Validationf("coins must be >= %d", 200)
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	if got, want := err.Error(), "validation failed: coins must be >= 200"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}
