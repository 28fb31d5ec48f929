package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workhive/backend/internal/models"
)

const submissionColumns = `id, task_id, task_title, payable_amount, worker_email, worker_name,
	buyer_email, buyer_name, submission_details, status, created_at, reviewed_at`

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func scanSubmission(row pgx.Row, s *models.Submission) error {
	return row.Scan(&s.ID, &s.TaskID, &s.TaskTitle, &s.PayableAmount, &s.WorkerEmail, &s.WorkerName,
		&s.BuyerEmail, &s.BuyerName, &s.SubmissionDetails, &s.Status, &s.CreatedAt, &s.ReviewedAt)
}

func collectSubmissions(rows pgx.Rows, err error) ([]*models.Submission, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Submission
	for rows.Next() {
		var s models.Submission
		if err := scanSubmission(rows, &s); err != nil {
			return nil, err
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// CreateTx inserts a pending submission. The partial unique index on live
// submissions turns a duplicate into apperr.ErrConflict.
func (r *SubmissionRepo) CreateTx(ctx context.Context, tx pgx.Tx, s *models.Submission) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO submissions (id, task_id, task_title, payable_amount, worker_email, worker_name,
			buyer_email, buyer_name, submission_details, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, s.ID, s.TaskID, s.TaskTitle, s.PayableAmount, s.WorkerEmail, s.WorkerName,
		s.BuyerEmail, s.BuyerName, s.SubmissionDetails, s.Status).Scan(&s.CreatedAt)
	return translate(err, "submission")
}

func (r *SubmissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	var s models.Submission
	if err := scanSubmission(r.pool.QueryRow(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id), &s); err != nil {
		return nil, translate(err, "submission")
	}
	return &s, nil
}

// HasLiveTx reports whether the worker already holds a pending or approved submission for the task.
func (r *SubmissionRepo) HasLiveTx(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, workerEmail string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM submissions
			WHERE task_id = $1 AND worker_email = $2 AND status IN ('pending', 'approved')
		)
	`, taskID, workerEmail).Scan(&exists)
	return exists, err
}

// TransitionTx moves a submission from one status to another. It returns
// pgx.ErrNoRows (translated to not found) when the row is missing or no longer
// in the from status; callers disambiguate.
func (r *SubmissionRepo) TransitionTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to string) (*models.Submission, error) {
	var s models.Submission
	err := scanSubmission(tx.QueryRow(ctx, `
		UPDATE submissions SET status = $3, reviewed_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+submissionColumns, id, from, to), &s)
	if err != nil {
		return nil, translate(err, "submission")
	}
	return &s, nil
}

// RejectPendingForTaskTx rejects every pending submission of a task and returns them.
func (r *SubmissionRepo) RejectPendingForTaskTx(ctx context.Context, tx pgx.Tx, taskID uuid.UUID) ([]*models.Submission, error) {
	return collectSubmissions(tx.Query(ctx, `
		UPDATE submissions SET status = 'rejected', reviewed_at = now()
		WHERE task_id = $1 AND status = 'pending'
		RETURNING `+submissionColumns, taskID))
}

func (r *SubmissionRepo) ListByWorker(ctx context.Context, email string, limit, offset int) ([]*models.Submission, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM submissions WHERE worker_email = $1`, email).Scan(&total); err != nil {
		return nil, 0, err
	}
	list, err := collectSubmissions(r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE worker_email = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, email, limit, offset))
	return list, total, err
}

func (r *SubmissionRepo) ListPendingByBuyer(ctx context.Context, buyerEmail string) ([]*models.Submission, error) {
	return collectSubmissions(r.pool.Query(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE buyer_email = $1 AND status = 'pending' ORDER BY created_at ASC
	`, buyerEmail))
}
