package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/workhive/backend/internal/middleware"
	"github.com/workhive/backend/internal/models"
	"github.com/workhive/backend/internal/services"
)

type NotificationService interface {
	List(ctx context.Context, caller *models.User, email string) ([]*models.Notification, error)
}

var _ NotificationService = (*services.NotificationService)(nil)

type NotificationHandler struct {
	Notifications NotificationService
	Logger        *slog.Logger
}

// List handles GET /notifications?email=.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Notifications.List(r.Context(), middleware.UserFromCtx(r.Context()), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type OpsHandler struct {
	DB     Pinger
	Logger *slog.Logger
}

// Root handles GET /.
func (h *OpsHandler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("server is running"))
}

// Healthz handles GET /healthz.
func (h *OpsHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		loggerOr(h.Logger).Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
