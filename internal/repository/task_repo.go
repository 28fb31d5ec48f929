package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workhive/backend/internal/models"
)

const taskColumns = `id, buyer_email, buyer_name, title, detail, submission_info, image_url,
	required_workers, payable_amount, completion_date, created_at, updated_at`

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func scanTask(row pgx.Row, t *models.Task) error {
	return row.Scan(&t.ID, &t.BuyerEmail, &t.BuyerName, &t.Title, &t.Detail, &t.SubmissionInfo, &t.ImageURL,
		&t.RequiredWorkers, &t.PayableAmount, &t.CompletionDate, &t.CreatedAt, &t.UpdatedAt)
}

func collectTasks(rows pgx.Rows, err error) ([]*models.Task, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}

// CreateTx inserts a task inside the given transaction.
func (r *TaskRepo) CreateTx(ctx context.Context, tx pgx.Tx, t *models.Task) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO tasks (id, buyer_email, buyer_name, title, detail, submission_info, image_url, required_workers, payable_amount, completion_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, t.ID, t.BuyerEmail, t.BuyerName, t.Title, t.Detail, t.SubmissionInfo, t.ImageURL, t.RequiredWorkers, t.PayableAmount, t.CompletionDate).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	return translate(err, "task")
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var t models.Task
	if err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id), &t); err != nil {
		return nil, translate(err, "task")
	}
	return &t, nil
}

// GetByIDForUpdate locks the task row. Call within a transaction.
func (r *TaskRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Task, error) {
	var t models.Task
	if err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id), &t); err != nil {
		return nil, translate(err, "task")
	}
	return &t, nil
}

// ApplyPatch updates only the creator-editable columns. Slot count and reward
// are owned by the ledger and never touched here.
func (r *TaskRepo) ApplyPatch(ctx context.Context, id uuid.UUID, p models.TaskPatch) (*models.Task, error) {
	var t models.Task
	err := scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks SET
			title = COALESCE($2, title),
			detail = COALESCE($3, detail),
			submission_info = COALESCE($4, submission_info),
			image_url = COALESCE($5, image_url),
			completion_date = COALESCE($6, completion_date),
			updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns,
		id, p.Title, p.Detail, p.SubmissionInfo, p.ImageURL, p.CompletionDate), &t)
	if err != nil {
		return nil, translate(err, "task")
	}
	return &t, nil
}

func (r *TaskRepo) DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "task")
	}
	return nil
}

func (r *TaskRepo) List(ctx context.Context) ([]*models.Task, error) {
	return collectTasks(r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC`))
}

func (r *TaskRepo) ListByBuyer(ctx context.Context, email string) ([]*models.Task, error) {
	return collectTasks(r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE buyer_email = $1 ORDER BY completion_date DESC
	`, email))
}

// ListAvailable returns open tasks the worker holds no pending or approved
// submission for, soonest completion date first.
func (r *TaskRepo) ListAvailable(ctx context.Context, workerEmail string) ([]*models.Task, error) {
	return collectTasks(r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks t
		WHERE t.required_workers > 0
		  AND NOT EXISTS (
			SELECT 1 FROM submissions s
			WHERE s.task_id = t.id AND s.worker_email = $1 AND s.status IN ('pending', 'approved')
		  )
		ORDER BY t.completion_date ASC, t.created_at ASC
	`, workerEmail))
}
