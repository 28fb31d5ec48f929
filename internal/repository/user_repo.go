package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workhive/backend/internal/models"
)

const userColumns = `id, email, name, photo, role, coins, created_at, last_log_in`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.Name, &u.Photo, &u.Role, &u.Coins, &u.CreatedAt, &u.LastLogIn)
}

// CreateTx inserts a user with a zero balance. The registration bonus is
// credited separately through the ledger in the same transaction.
func (r *UserRepo) CreateTx(ctx context.Context, tx pgx.Tx, u *models.User) error {
	err := scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (id, email, name, photo, role, coins, created_at, last_log_in)
		VALUES ($1, $2, $3, $4, $5, 0, now(), now())
		RETURNING `+userColumns,
		u.ID, u.Email, u.Name, u.Photo, u.Role), u)
	return translate(err, "user")
}

// TouchLastLogin updates last_log_in and returns the stored user.
func (r *UserRepo) TouchLastLogin(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET last_log_in = now() WHERE email = $1
		RETURNING `+userColumns, email), &u)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email), &u); err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u); err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		list = append(list, &u)
	}
	return list, rows.Err()
}

func (r *UserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	var u models.User
	err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET role = $2 WHERE id = $1
		RETURNING `+userColumns, id, role), &u)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

// GetByIDForUpdate locks the user row until tx ends.
func (r *UserRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id), &u); err != nil {
		return nil, translate(err, "user")
	}
	return &u, nil
}

func (r *UserRepo) DeleteTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return translate(pgx.ErrNoRows, "user")
	}
	return nil
}

// TopWorkers returns the highest-balance Workers.
func (r *UserRepo) TopWorkers(ctx context.Context, limit int) ([]*models.WorkerSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, email, photo, coins FROM users
		WHERE role = 'Worker' ORDER BY coins DESC, created_at ASC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.WorkerSummary
	for rows.Next() {
		var w models.WorkerSummary
		if err := rows.Scan(&w.Name, &w.Email, &w.Photo, &w.Coins); err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

func (r *UserRepo) Stats(ctx context.Context) (*models.AdminStats, error) {
	var s models.AdminStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users WHERE role = 'Worker'),
			(SELECT count(*) FROM users WHERE role = 'Buyer'),
			(SELECT COALESCE(SUM(coins), 0) FROM users),
			(SELECT COALESCE(SUM(amount_paid_cents), 0) FROM payments WHERE type = 'Coin Purchase'),
			(SELECT count(*) FROM withdrawals WHERE status = 'pending')
	`).Scan(&s.TotalWorkers, &s.TotalBuyers, &s.TotalCoins, &s.TotalPaymentsCents, &s.PendingWithdrawals)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
