// Package outbox holds the River jobs written inside workflow transactions and
// the workers that process them after commit.
package outbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/workhive/backend/internal/models"
)

// NotifyArgs is enqueued in the same transaction as the event it describes, so a
// notification exists if and only if the event committed.
type NotifyArgs struct {
	NotificationID uuid.UUID `json:"notification_id"`
	ToEmail        string    `json:"to_email"`
	Message        string    `json:"message"`
	ActionRoute    string    `json:"action_route"`
}

func (NotifyArgs) Kind() string { return "notify" }

func (NotifyArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueNotify, MaxAttempts: 10}
}

// NewNotify builds NotifyArgs with a fresh id. The id makes retries idempotent.
func NewNotify(to, message, route string) NotifyArgs {
	return NotifyArgs{NotificationID: uuid.New(), ToEmail: to, Message: message, ActionRoute: route}
}

// InsertNotifyTxFunc enqueues a notify job within the given transaction. Provided by
// main as a closure over river.Client.InsertTx.
type InsertNotifyTxFunc func(ctx context.Context, tx pgx.Tx, args NotifyArgs) error

// NotificationStore persists delivered notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type NotifyWorker struct {
	river.WorkerDefaults[NotifyArgs]
	store  NotificationStore
	logger *slog.Logger
}

func NewNotifyWorker(store NotificationStore, logger *slog.Logger) *NotifyWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotifyWorker{store: store, logger: logger}
}

func (w *NotifyWorker) Work(ctx context.Context, job *river.Job[NotifyArgs]) error {
	args := job.Args
	n := &models.Notification{
		ID:          args.NotificationID,
		ToEmail:     args.ToEmail,
		Message:     args.Message,
		ActionRoute: args.ActionRoute,
	}
	if err := w.store.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification for %s: %w", args.ToEmail, err)
	}
	w.logger.Debug("notification stored", "to", args.ToEmail, "route", args.ActionRoute, "attempt", job.Attempt)
	return nil
}
