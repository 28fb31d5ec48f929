package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/models"
)

// Repository is the Postgres-backed Store.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// AddCoins applies delta to the user's balance in a single conditional UPDATE so
// concurrent debits can never drive it below zero.
func (r *Repository) AddCoins(ctx context.Context, tx pgx.Tx, email string, delta int64) (int64, error) {
	var balance int64
	err := tx.QueryRow(ctx, `
		UPDATE users SET coins = coins + $1
		WHERE email = $2 AND coins + $1 >= 0
		RETURNING coins
	`, delta, email).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists {
			return 0, apperr.NotFoundf("user %s not found", email)
		}
		return 0, apperr.ErrInsufficientFunds
	}
	return balance, err
}

// AddTaskSlots applies delta to tasks.required_workers, refusing to go below zero.
func (r *Repository) AddTaskSlots(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, delta int) (int, error) {
	var slots int
	err := tx.QueryRow(ctx, `
		UPDATE tasks SET required_workers = required_workers + $1, updated_at = now()
		WHERE id = $2 AND required_workers + $1 >= 0
		RETURNING required_workers
	`, delta, taskID).Scan(&slots)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, taskID).Scan(&exists); err != nil {
			return 0, err
		}
		if !exists {
			return 0, apperr.NotFoundf("task %s not found", taskID)
		}
		return 0, apperr.Conflictf("task %s has no open slots", taskID)
	}
	return slots, err
}

func (r *Repository) InsertEntry(ctx context.Context, tx pgx.Tx, e *models.CoinEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO coin_ledger (id, email, entry_type, amount, balance_after, ref_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.Email, e.EntryType, e.Amount, e.BalanceAfter, e.RefID).Scan(&e.CreatedAt)
}

func (r *Repository) ListEntries(ctx context.Context, email string, limit int) ([]*models.CoinEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, entry_type, amount, balance_after, ref_id, created_at
		FROM coin_ledger WHERE email = $1
		ORDER BY created_at DESC LIMIT $2
	`, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CoinEntry
	for rows.Next() {
		var e models.CoinEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.EntryType, &e.Amount, &e.BalanceAfter, &e.RefID, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// Drifts lists every user whose stored balance differs from the sum of their ledger entries.
func (r *Repository) Drifts(ctx context.Context) ([]Drift, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.email, u.coins, COALESCE(SUM(l.amount), 0) AS ledger_sum
		FROM users u
		LEFT JOIN coin_ledger l ON l.email = u.email
		GROUP BY u.email, u.coins
		HAVING u.coins <> COALESCE(SUM(l.amount), 0)
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Drift
	for rows.Next() {
		var d Drift
		if err := rows.Scan(&d.Email, &d.Balance, &d.LedgerSum); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
