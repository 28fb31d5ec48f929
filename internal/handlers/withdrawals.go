package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/workhive/backend/internal/middleware"
	"github.com/workhive/backend/internal/models"
	"github.com/workhive/backend/internal/services"
)

type WithdrawalService interface {
	Request(ctx context.Context, caller *models.User, in services.WithdrawalInput) (*models.Withdrawal, error)
	Approve(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Withdrawal, error)
	ListPending(ctx context.Context, caller *models.User) ([]*models.Withdrawal, error)
	ListByWorker(ctx context.Context, caller *models.User, email string) ([]*models.Withdrawal, error)
}

var _ WithdrawalService = (*services.WithdrawalService)(nil)

type WithdrawalHandler struct {
	Withdrawals WithdrawalService
	Validator   BodyValidator
	Logger      *slog.Logger
}

// Create handles POST /withdrawals.
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.WithdrawalInput
	if err := decodeBody(w, r, h.Validator, services.SchemaCreateWithdrawal, &in); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	wd, err := h.Withdrawals.Request(r.Context(), middleware.UserFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusCreated, wd)
}

// Approve handles PATCH /withdrawals/approve/{id} (admin).
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	wd, err := h.Withdrawals.Approve(r.Context(), middleware.UserFromCtx(r.Context()), id)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, wd)
}

// ListPending handles GET /withdrawals/pending (admin).
func (h *WithdrawalHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.Withdrawals.ListPending(r.Context(), middleware.UserFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListByWorker handles GET /withdrawals?email=.
func (h *WithdrawalHandler) ListByWorker(w http.ResponseWriter, r *http.Request) {
	list, err := h.Withdrawals.ListByWorker(r.Context(), middleware.UserFromCtx(r.Context()), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
