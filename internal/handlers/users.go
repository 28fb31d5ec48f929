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

type UserService interface {
	Register(ctx context.Context, tokenEmail string, in services.RegisterInput) (*models.User, bool, error)
	Get(ctx context.Context, caller *models.User, email string) (*models.User, error)
	List(ctx context.Context, caller *models.User) ([]*models.User, error)
	UpdateRole(ctx context.Context, caller *models.User, id uuid.UUID, role string) (*models.User, error)
	Delete(ctx context.Context, caller *models.User, id uuid.UUID) error
	BestWorkers(ctx context.Context) ([]*models.WorkerSummary, error)
	AdminStats(ctx context.Context, caller *models.User) (*models.AdminStats, error)
	CoinHistory(ctx context.Context, caller *models.User, email string, limit int) ([]*models.CoinEntry, error)
}

var _ UserService = (*services.UserService)(nil)

// UserHandler serves /users, /best-workers, /admin-stats and /coin-history.
type UserHandler struct {
	Users     UserService
	Validator BodyValidator
	Logger    *slog.Logger
}

type registerResponse struct {
	Inserted bool         `json:"inserted"`
	User     *models.User `json:"user"`
}

// Register handles POST /users. First login creates the user (201); later
// logins only refresh last_log_in (200).
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeBody(w, r, h.Validator, services.SchemaRegisterUser, &in); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	u, inserted, err := h.Users.Register(r.Context(), middleware.EmailFromCtx(r.Context()), in)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	writeJSON(w, status, registerResponse{Inserted: inserted, User: u})
}

// Get handles GET /users/{email}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Get(r.Context(), middleware.UserFromCtx(r.Context()), r.PathValue("email"))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// List handles GET /users (admin).
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context(), middleware.UserFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole handles PATCH /users/{id} (admin).
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	var req updateRoleRequest
	if err := decodeBody(w, r, h.Validator, services.SchemaUpdateRole, &req); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	u, err := h.Users.UpdateRole(r.Context(), middleware.UserFromCtx(r.Context()), id, req.Role)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Delete handles DELETE /users/{id} (admin).
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	if err := h.Users.Delete(r.Context(), middleware.UserFromCtx(r.Context()), id); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "user deleted"})
}

// BestWorkers handles GET /best-workers (public).
func (h *UserHandler) BestWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Users.BestWorkers(r.Context())
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

// AdminStats handles GET /admin-stats (admin).
func (h *UserHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Users.AdminStats(r.Context(), middleware.UserFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// CoinHistory handles GET /coin-history?email=&limit=.
func (h *UserHandler) CoinHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	entries, err := h.Users.CoinHistory(r.Context(), middleware.UserFromCtx(r.Context()), r.URL.Query().Get("email"), limit)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
