package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workhive/backend/internal/models"
)

const withdrawalColumns = `id, worker_email, worker_name, withdrawal_coin, withdrawal_amount_cents,
	payment_system, account_number, status, created_at, approved_at`

type WithdrawalRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepo(pool *pgxpool.Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

func scanWithdrawal(row pgx.Row, w *models.Withdrawal) error {
	return row.Scan(&w.ID, &w.WorkerEmail, &w.WorkerName, &w.WithdrawalCoin, &w.WithdrawalAmountCents,
		&w.PaymentSystem, &w.AccountNumber, &w.Status, &w.CreatedAt, &w.ApprovedAt)
}

func collectWithdrawals(rows pgx.Rows, err error) ([]*models.Withdrawal, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		if err := scanWithdrawal(rows, &w); err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

func (r *WithdrawalRepo) CreateTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO withdrawals (id, worker_email, worker_name, withdrawal_coin, withdrawal_amount_cents,
			payment_system, account_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, w.ID, w.WorkerEmail, w.WorkerName, w.WithdrawalCoin, w.WithdrawalAmountCents,
		w.PaymentSystem, w.AccountNumber, w.Status).Scan(&w.CreatedAt)
	return translate(err, "withdrawal")
}

func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := scanWithdrawal(r.pool.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id), &w); err != nil {
		return nil, translate(err, "withdrawal")
	}
	return &w, nil
}

// ApproveTx flips a pending withdrawal to approved. Not found means missing or already approved.
func (r *WithdrawalRepo) ApproveTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := scanWithdrawal(tx.QueryRow(ctx, `
		UPDATE withdrawals SET status = 'approved', approved_at = now()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+withdrawalColumns, id), &w)
	if err != nil {
		return nil, translate(err, "withdrawal")
	}
	return &w, nil
}

func (r *WithdrawalRepo) ListPending(ctx context.Context) ([]*models.Withdrawal, error) {
	return collectWithdrawals(r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE status = 'pending' ORDER BY created_at ASC
	`))
}

func (r *WithdrawalRepo) ListByWorker(ctx context.Context, email string) ([]*models.Withdrawal, error) {
	return collectWithdrawals(r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawals WHERE worker_email = $1 ORDER BY created_at DESC
	`, email))
}
