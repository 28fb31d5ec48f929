package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/models"
)

// Upper bounds keep required_workers × payable_amount far from int64 overflow.
const (
	MaxRequiredWorkers = 10_000
	MaxPayableAmount   = 1_000_000
)

// TaskStore is the task repository surface used by the task and submission workflows.
type TaskStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error)
	ApplyPatch(ctx context.Context, id uuid.UUID, p models.TaskPatch) (*models.Task, error)
	DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	List(ctx context.Context) ([]*models.Task, error)
	ListByBuyer(ctx context.Context, email string) ([]*models.Task, error)
	ListAvailable(ctx context.Context, workerEmail string) ([]*models.Task, error)
}

// PaymentWriter appends payment audit records.
type PaymentWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error
}

type TaskService struct {
	Deps
	tasks       TaskStore
	submissions SubmissionStore
	payments    PaymentWriter
	now         func() time.Time
}

func NewTaskService(deps Deps, tasks TaskStore, submissions SubmissionStore, payments PaymentWriter) *TaskService {
	return &TaskService{Deps: deps, tasks: tasks, submissions: submissions, payments: payments, now: time.Now}
}

type CreateTaskInput struct {
	Title           string    `json:"title"`
	Detail          string    `json:"detail"`
	SubmissionInfo  string    `json:"submission_info"`
	ImageURL        string    `json:"image_url"`
	RequiredWorkers int       `json:"required_workers"`
	PayableAmount   int64     `json:"payable_amount"`
	CompletionDate  time.Time `json:"completion_date"`
}

func (in CreateTaskInput) validate(now time.Time) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return apperr.Validationf("title is required")
	case strings.TrimSpace(in.Detail) == "":
		return apperr.Validationf("detail is required")
	case in.RequiredWorkers < 1 || in.RequiredWorkers > MaxRequiredWorkers:
		return apperr.Validationf("required_workers must be between 1 and %d", MaxRequiredWorkers)
	case in.PayableAmount < 1 || in.PayableAmount > MaxPayableAmount:
		return apperr.Validationf("payable_amount must be between 1 and %d", MaxPayableAmount)
	case !in.CompletionDate.After(now):
		return apperr.Validationf("completion_date must be in the future")
	}
	return nil
}

// Create posts a task and moves its full escrow out of the buyer's balance in
// the same transaction. A buyer who cannot cover the escrow gets
// apperr.ErrInsufficientFunds and no task.
func (s *TaskService) Create(ctx context.Context, caller *models.User, in CreateTaskInput) (*models.Task, error) {
	if err := requireRole(caller, models.RoleBuyer); err != nil {
		return nil, err
	}
	if err := in.validate(s.now()); err != nil {
		return nil, err
	}
	t := &models.Task{
		ID:              uuid.New(),
		BuyerEmail:      caller.Email,
		BuyerName:       caller.Name,
		Title:           strings.TrimSpace(in.Title),
		Detail:          strings.TrimSpace(in.Detail),
		SubmissionInfo:  in.SubmissionInfo,
		ImageURL:        in.ImageURL,
		RequiredWorkers: in.RequiredWorkers,
		PayableAmount:   in.PayableAmount,
		CompletionDate:  in.CompletionDate.UTC(),
	}
	escrow := t.Escrow()

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := s.Ledger.AdjustBalance(ctx, tx, caller.Email, -escrow, models.CoinEntryTaskEscrow, &t.ID); err != nil {
			return err
		}
		if err := s.tasks.CreateTx(ctx, tx, t); err != nil {
			return err
		}
		return s.payments.CreateTx(ctx, tx, &models.Payment{
			ID:            uuid.New(),
			Email:         caller.Email,
			Coins:         &escrow,
			TransactionID: "task_payment:" + t.ID.String(),
			Type:          models.PaymentTask,
			TaskID:        &t.ID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.metrics().Event("task_created")
	s.metrics().CoinsMoved(models.CoinEntryTaskEscrow, escrow)
	s.logger().Info("task created", "task_id", t.ID, "buyer", t.BuyerEmail, "escrow", escrow)
	return t, nil
}

func canManageTask(caller *models.User, t *models.Task) bool {
	return isAdmin(caller) || (caller != nil && caller.Email == t.BuyerEmail)
}

// Update patches the descriptive fields of a task. Slot count and reward stay
// fixed for the life of the task.
func (s *TaskService) Update(ctx context.Context, caller *models.User, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageTask(caller, t) {
		return nil, apperr.Forbiddenf("only the task creator can edit it")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, apperr.Validationf("title cannot be empty")
	}
	if patch.Detail != nil && strings.TrimSpace(*patch.Detail) == "" {
		return nil, apperr.Validationf("detail cannot be empty")
	}
	if patch.CompletionDate != nil && !patch.CompletionDate.After(s.now()) {
		return nil, apperr.Validationf("completion_date must be in the future")
	}
	return s.tasks.ApplyPatch(ctx, id, patch)
}

// Delete removes a task and refunds the escrow still held for it: every
// unreserved slot plus every slot reserved by a still-pending submission.
// Pending submissions are rejected and their workers notified.
func (s *TaskService) Delete(ctx context.Context, caller *models.User, id uuid.UUID) (*models.TaskDeletion, error) {
	var (
		task     *models.Task
		rejected []*models.Submission
		refund   int64
	)
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		task, err = s.tasks.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !canManageTask(caller, task) {
			return apperr.Forbiddenf("only the task creator can delete it")
		}
		rejected, err = s.submissions.RejectPendingForTaskTx(ctx, tx, id)
		if err != nil {
			return err
		}
		refund = int64(task.RequiredWorkers+len(rejected)) * task.PayableAmount
		if refund > 0 {
			if _, err := s.Ledger.AdjustBalance(ctx, tx, task.BuyerEmail, refund, models.CoinEntryTaskRefund, &task.ID); err != nil {
				return err
			}
			if err := s.payments.CreateTx(ctx, tx, &models.Payment{
				ID:            uuid.New(),
				Email:         task.BuyerEmail,
				Coins:         &refund,
				TransactionID: "task_refund:" + task.ID.String(),
				Type:          models.PaymentTaskRefund,
				TaskID:        &task.ID,
			}); err != nil {
				return err
			}
		}
		for _, sub := range rejected {
			msg := fmt.Sprintf("Your submission for %q was closed because the task was removed", task.Title)
			if err := s.notify(ctx, tx, sub.WorkerEmail, msg, "/dashboard/my-submissions"); err != nil {
				return err
			}
		}
		return s.tasks.DeleteTx(ctx, tx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	s.metrics().Event("task_deleted")
	if refund > 0 {
		s.metrics().CoinsMoved(models.CoinEntryTaskRefund, refund)
	}
	s.logger().Info("task deleted", "task_id", id, "refund", refund, "rejected", len(rejected))
	return &models.TaskDeletion{TaskID: id, RefundedCoins: refund, RejectedSubmissions: len(rejected)}, nil
}

func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *TaskService) ListByBuyer(ctx context.Context, caller *models.User, email string) ([]*models.Task, error) {
	if err := authorizeSelf(caller, email); err != nil {
		return nil, err
	}
	return s.tasks.ListByBuyer(ctx, normalizeEmail(email))
}

func (s *TaskService) ListAll(ctx context.Context, caller *models.User) ([]*models.Task, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.tasks.List(ctx)
}

// ListAvailable returns open tasks the worker has no pending or approved submission for.
func (s *TaskService) ListAvailable(ctx context.Context, caller *models.User, email string) ([]*models.Task, error) {
	if err := authorizeSelf(caller, email); err != nil {
		return nil, err
	}
	return s.tasks.ListAvailable(ctx, normalizeEmail(email))
}
