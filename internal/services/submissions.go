package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/models"
)

const (
	DefaultSubmissionPageSize = 10
	MaxSubmissionPageSize     = 100
)

type SubmissionStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, s *models.Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	HasLiveTx(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, workerEmail string) (bool, error)
	TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (*models.Submission, error)
	RejectPendingForTaskTx(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) ([]*models.Submission, error)
	ListByWorker(ctx context.Context, email string, limit, offset int) ([]*models.Submission, int64, error)
	ListPendingByBuyer(ctx context.Context, buyerEmail string) ([]*models.Submission, error)
}

type SubmissionService struct {
	Deps
	tasks       TaskStore
	submissions SubmissionStore
}

func NewSubmissionService(deps Deps, tasks TaskStore, submissions SubmissionStore) *SubmissionService {
	return &SubmissionService{Deps: deps, tasks: tasks, submissions: submissions}
}

type SubmitInput struct {
	TaskID            uuid.UUID `json:"task_id"`
	SubmissionDetails string    `json:"submission_details"`
}

// Submit reserves one slot of the task for the worker and records a pending
// submission. The reward is fixed at this point from the task's payable amount.
func (s *SubmissionService) Submit(ctx context.Context, caller *models.User, in SubmitInput) (*models.Submission, error) {
	if err := requireRole(caller, models.RoleWorker); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.SubmissionDetails) == "" {
		return nil, apperr.Validationf("submission_details is required")
	}
	var sub *models.Submission
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		task, err := s.tasks.GetByIDForUpdate(ctx, tx, in.TaskID)
		if err != nil {
			return err
		}
		if task.BuyerEmail == caller.Email {
			return apperr.Forbiddenf("cannot submit to your own task")
		}
		live, err := s.submissions.HasLiveTx(ctx, tx, task.ID, caller.Email)
		if err != nil {
			return err
		}
		if live {
			return apperr.Conflictf("you already have a submission for this task")
		}
		if _, err := s.Ledger.AdjustTaskSlots(ctx, tx, task.ID, -1); err != nil {
			return err
		}
		sub = &models.Submission{
			ID:                uuid.New(),
			TaskID:            task.ID,
			TaskTitle:         task.Title,
			PayableAmount:     task.PayableAmount,
			WorkerEmail:       caller.Email,
			WorkerName:        caller.Name,
			BuyerEmail:        task.BuyerEmail,
			BuyerName:         task.BuyerName,
			SubmissionDetails: strings.TrimSpace(in.SubmissionDetails),
			Status:            models.SubmissionPending,
		}
		if err := s.submissions.CreateTx(ctx, tx, sub); err != nil {
			return err
		}
		msg := fmt.Sprintf("%s submitted work for %q", displayName(caller), task.Title)
		return s.notify(ctx, tx, task.BuyerEmail, msg, "/dashboard/buyer-home")
	})
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	s.metrics().Event("submission_created")
	return sub, nil
}

// review loads the submission and checks the caller may review it.
func (s *SubmissionService) review(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Submission, error) {
	if caller == nil {
		return nil, apperr.ErrUnauthorized
	}
	sub, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin(caller) && caller.Email != sub.BuyerEmail {
		return nil, apperr.Forbiddenf("only the task's buyer can review this submission")
	}
	return sub, nil
}

// transition performs the guarded pending -> to update. A missing match means
// another reviewer already decided the submission.
func (s *SubmissionService) transition(ctx context.Context, tx pgx.Tx, sub *models.Submission, to string) (*models.Submission, error) {
	updated, err := s.submissions.TransitionTx(ctx, tx, sub.ID, models.SubmissionPending, to)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Conflictf("submission is no longer pending")
	}
	return updated, err
}

// Approve pays the worker the submission's payable amount. claimedCoins, when
// supplied, must equal that amount.
func (s *SubmissionService) Approve(ctx context.Context, caller *models.User, id uuid.UUID, claimedCoins *int64) (*models.Submission, error) {
	sub, err := s.review(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if claimedCoins != nil && *claimedCoins != sub.PayableAmount {
		return nil, apperr.Validationf("coins %d does not match the submission's payable amount %d", *claimedCoins, sub.PayableAmount)
	}
	var updated *models.Submission
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = s.transition(ctx, tx, sub, models.SubmissionApproved)
		if err != nil {
			return err
		}
		if _, err := s.Ledger.AdjustBalance(ctx, tx, updated.WorkerEmail, updated.PayableAmount, models.CoinEntryTaskEarning, &updated.ID); err != nil {
			return err
		}
		msg := fmt.Sprintf("You have earned %d coins from %s for completing %q", updated.PayableAmount, updated.BuyerName, updated.TaskTitle)
		return s.notify(ctx, tx, updated.WorkerEmail, msg, "/dashboard/worker-home")
	})
	if err != nil {
		return nil, fmt.Errorf("approve submission: %w", err)
	}
	s.metrics().Event("submission_approved")
	s.metrics().CoinsMoved(models.CoinEntryTaskEarning, updated.PayableAmount)
	s.logger().Info("submission approved", "submission_id", id, "worker", updated.WorkerEmail, "coins", updated.PayableAmount)
	return updated, nil
}

// Reject frees the reserved slot for another worker. The escrow for that slot
// stays with the task.
func (s *SubmissionService) Reject(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Submission, error) {
	sub, err := s.review(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	var updated *models.Submission
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = s.transition(ctx, tx, sub, models.SubmissionRejected)
		if err != nil {
			return err
		}
		if _, err := s.Ledger.AdjustTaskSlots(ctx, tx, updated.TaskID, 1); err != nil {
			return err
		}
		msg := fmt.Sprintf("Your submission for %q was rejected by %s", updated.TaskTitle, updated.BuyerName)
		return s.notify(ctx, tx, updated.WorkerEmail, msg, "/dashboard/my-submissions")
	})
	if err != nil {
		return nil, fmt.Errorf("reject submission: %w", err)
	}
	s.metrics().Event("submission_rejected")
	return updated, nil
}

// ListByWorker returns one page of the worker's submissions, newest first.
func (s *SubmissionService) ListByWorker(ctx context.Context, caller *models.User, email string, page, limit int) (*models.SubmissionPage, error) {
	if err := authorizeSelf(caller, email); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultSubmissionPageSize
	}
	if limit > MaxSubmissionPageSize {
		limit = MaxSubmissionPageSize
	}
	list, total, err := s.submissions.ListByWorker(ctx, normalizeEmail(email), limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Submission{}
	}
	return &models.SubmissionPage{Submissions: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *SubmissionService) ListPendingForBuyer(ctx context.Context, caller *models.User, buyerEmail string) ([]*models.Submission, error) {
	if err := authorizeSelf(caller, buyerEmail); err != nil {
		return nil, err
	}
	return s.submissions.ListPendingByBuyer(ctx, normalizeEmail(buyerEmail))
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
