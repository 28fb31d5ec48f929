package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workhive/backend/internal/models"
)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// CreateTx appends a payment record. A reused transaction_id yields apperr.ErrConflict.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx pgx.Tx, p *models.Payment) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO payments (id, email, amount_paid_cents, coins, transaction_id, type, task_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, p.ID, p.Email, p.AmountPaidCents, p.Coins, p.TransactionID, p.Type, p.TaskID).Scan(&p.CreatedAt)
	return translate(err, "payment")
}

func (r *PaymentRepo) ListByEmail(ctx context.Context, email string) ([]*models.Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, amount_paid_cents, coins, transaction_id, type, task_id, created_at
		FROM payments WHERE email = $1 ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.Email, &p.AmountPaidCents, &p.Coins, &p.TransactionID, &p.Type, &p.TaskID, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
