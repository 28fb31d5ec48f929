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

type TaskService interface {
	Create(ctx context.Context, caller *models.User, in services.CreateTaskInput) (*models.Task, error)
	Update(ctx context.Context, caller *models.User, id uuid.UUID, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, caller *models.User, id uuid.UUID) (*models.TaskDeletion, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Task, error)
	ListByBuyer(ctx context.Context, caller *models.User, email string) ([]*models.Task, error)
	ListAll(ctx context.Context, caller *models.User) ([]*models.Task, error)
	ListAvailable(ctx context.Context, caller *models.User, email string) ([]*models.Task, error)
}

var _ TaskService = (*services.TaskService)(nil)

// TaskHandler serves /tasks, /available-tasks and /admin/tasks.
type TaskHandler struct {
	Tasks     TaskService
	Validator BodyValidator
	Logger    *slog.Logger
}

// --- POST /tasks ---

type createTaskRequest struct {
	Title           string `json:"title"`
	Detail          string `json:"detail"`
	SubmissionInfo  string `json:"submission_info"`
	ImageURL        string `json:"image_url"`
	RequiredWorkers int    `json:"required_workers"`
	PayableAmount   int64  `json:"payable_amount"`
	CompletionDate  string `json:"completion_date"`
}

// Create handles POST /tasks. The escrow is computed server side; the client
// never sends a coin delta.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeBody(w, r, h.Validator, services.SchemaCreateTask, &req); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	due, err := parseDate("completion_date", req.CompletionDate)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	task, err := h.Tasks.Create(r.Context(), middleware.UserFromCtx(r.Context()), services.CreateTaskInput{
		Title:           req.Title,
		Detail:          req.Detail,
		SubmissionInfo:  req.SubmissionInfo,
		ImageURL:        req.ImageURL,
		RequiredWorkers: req.RequiredWorkers,
		PayableAmount:   req.PayableAmount,
		CompletionDate:  due,
	})
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// --- PATCH /tasks/{id} ---

type updateTaskRequest struct {
	Title          *string `json:"title"`
	Detail         *string `json:"detail"`
	SubmissionInfo *string `json:"submission_info"`
	ImageURL       *string `json:"image_url"`
	CompletionDate *string `json:"completion_date"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	var req updateTaskRequest
	if err := decodeBody(w, r, h.Validator, services.SchemaUpdateTask, &req); err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	patch := models.TaskPatch{
		Title:          req.Title,
		Detail:         req.Detail,
		SubmissionInfo: req.SubmissionInfo,
		ImageURL:       req.ImageURL,
	}
	if req.CompletionDate != nil {
		due, err := parseDate("completion_date", *req.CompletionDate)
		if err != nil {
			writeError(w, r, loggerOr(h.Logger), err)
			return
		}
		patch.CompletionDate = &due
	}
	task, err := h.Tasks.Update(r.Context(), middleware.UserFromCtx(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /tasks/{id} and DELETE /admin/tasks/{id}. The
// remaining escrow goes back to the creator.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	res, err := h.Tasks.Delete(r.Context(), middleware.UserFromCtx(r.Context()), id)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- GET ---

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	task, err := h.Tasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// ListByBuyer handles GET /tasks?email=.
func (h *TaskHandler) ListByBuyer(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListByBuyer(r.Context(), middleware.UserFromCtx(r.Context()), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// ListAll handles GET /tasks/all (admin).
func (h *TaskHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListAll(r.Context(), middleware.UserFromCtx(r.Context()))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// ListAvailable handles GET /available-tasks?email=.
func (h *TaskHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListAvailable(r.Context(), middleware.UserFromCtx(r.Context()), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, loggerOr(h.Logger), err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}
