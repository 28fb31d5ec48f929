package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workhive/backend/internal/models"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// Create stores a notification. Called from the notify worker once the
// originating transaction has committed.
func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (id, to_email, message, action_route)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at
	`, n.ID, n.ToEmail, n.Message, n.ActionRoute).Scan(&n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// already delivered by an earlier attempt of the same job
		return nil
	}
	return err
}

func (r *NotificationRepo) ListByEmail(ctx context.Context, email string, limit int) ([]*models.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, to_email, message, action_route, created_at
		FROM notifications WHERE to_email = $1
		ORDER BY created_at DESC LIMIT $2
	`, email, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.ToEmail, &n.Message, &n.ActionRoute, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}
