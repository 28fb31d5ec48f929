package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/workhive/backend/internal/middleware"
	"github.com/workhive/backend/internal/models"
	"github.com/workhive/backend/internal/services"
)

type PaymentService interface {
	Record(ctx context.Context, caller *models.User, in services.RecordPaymentInput) (*models.Payment, error)
	CreateIntent(ctx context.Context, caller *models.User, amountCents int64) (string, error)
	ListByEmail(ctx context.Context, caller *models.User, email string) ([]*models.Payment, error)
}

var _ PaymentService = (*services.PaymentService)(nil)

type PaymentHandler struct {
	Payments  PaymentService
	Validator BodyValidator
	Logger    *slog.Logger
}

// Record handles POST /payments.
func (h *PaymentHandler) Record(w http.ResponseWriter, r *http.Request) {
	var in services.RecordPaymentInput
	if err := decodeBody(w, r, h.Validator, services.SchemaRecordPayment, &in); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	p, err := h.Payments.Record(r.Context(), middleware.UserFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type paymentIntentRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

type paymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// CreateIntent handles POST /create-payment-intent.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := decodeBody(w, r, h.Validator, services.SchemaPaymentIntent, &req); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	secret, err := h.Payments.CreateIntent(r.Context(), middleware.UserFromCtx(r.Context()), req.AmountCents)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, paymentIntentResponse{ClientSecret: secret})
}

// ListByEmail handles GET /payments?email=.
func (h *PaymentHandler) ListByEmail(w http.ResponseWriter, r *http.Request) {
	list, err := h.Payments.ListByEmail(r.Context(), middleware.UserFromCtx(r.Context()), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
