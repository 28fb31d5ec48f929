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

type SubmissionService interface {
	Submit(ctx context.Context, caller *models.User, in services.SubmitInput) (*models.Submission, error)
	Approve(ctx context.Context, caller *models.User, id uuid.UUID, claimedCoins *int64) (*models.Submission, error)
	Reject(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Submission, error)
	ListByWorker(ctx context.Context, caller *models.User, email string, page, limit int) (*models.SubmissionPage, error)
	ListPendingForBuyer(ctx context.Context, caller *models.User, buyerEmail string) ([]*models.Submission, error)
}

var _ SubmissionService = (*services.SubmissionService)(nil)

type SubmissionHandler struct {
	Submissions SubmissionService
	Validator   BodyValidator
	Logger      *slog.Logger
}

// Create handles POST /submissions.
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in services.SubmitInput
	if err := decodeBody(w, r, h.Validator, services.SchemaCreateSubmission, &in); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	sub, err := h.Submissions.Submit(r.Context(), middleware.UserFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

type approveRequest struct {
	Coins *int64 `json:"coins"`
}

// Approve handles PATCH /submissions/approve/{id}. A coins value in the body
// is only checked against the stored reward, never used as the credit.
func (h *SubmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	var req approveRequest
	if err := decodeBody(w, r, h.Validator, services.SchemaApproveSubmission, &req); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	sub, err := h.Submissions.Approve(r.Context(), middleware.UserFromCtx(r.Context()), id, req.Coins)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Reject handles PATCH /submissions/reject/{id}.
func (h *SubmissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	sub, err := h.Submissions.Reject(r.Context(), middleware.UserFromCtx(r.Context()), id)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ListByWorker handles GET /submissions?email=&page=&limit=.
func (h *SubmissionHandler) ListByWorker(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	res, err := h.Submissions.ListByWorker(r.Context(), middleware.UserFromCtx(r.Context()), r.URL.Query().Get("email"), page, limit)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListPending handles GET /submissions/pending?buyer=.
func (h *SubmissionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Submissions.ListPendingForBuyer(r.Context(), middleware.UserFromCtx(r.Context()), r.URL.Query().Get("buyer"))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}
