package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/models"
	"github.com/workhive/backend/internal/outbox"
)

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Ledger is the subset of ledger.Service the workflows mutate balances through.
type Ledger interface {
	AdjustBalance(ctx context.Context, tx pgx.Tx, email string, delta int64, entryType string, refID *uuid.UUID) (int64, error)
	AdjustTaskSlots(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, delta int) (int, error)
	History(ctx context.Context, email string, limit int) ([]*models.CoinEntry, error)
}

// Recorder observes workflow events after they commit.
type Recorder interface {
	Event(name string)
	CoinsMoved(entryType string, amount int64)
}

type nopRecorder struct{}

func (nopRecorder) Event(string)             {}
func (nopRecorder) CoinsMoved(string, int64) {}

// Deps are shared by every workflow service.
type Deps struct {
	DB      TxBeginner
	Ledger  Ledger
	Notify  outbox.InsertNotifyTxFunc
	Metrics Recorder
	Logger  *slog.Logger
}

func (d Deps) metrics() Recorder {
	if d.Metrics == nil {
		return nopRecorder{}
	}
	return d.Metrics
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// inTx runs fn in one transaction. Any error rolls back every write fn made,
// including enqueued notifications.
func (d Deps) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := d.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (d Deps) notify(ctx context.Context, tx pgx.Tx, to, message, route string) error {
	if d.Notify == nil {
		return nil
	}
	return d.Notify(ctx, tx, outbox.NewNotify(to, message, route))
}

// normalizeEmail lowercases and trims an email; emails are the identity key.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isAdmin(u *models.User) bool {
	return u != nil && u.Role == models.RoleAdmin
}

// authorizeSelf allows callers to act on their own email; admins may act on any.
func authorizeSelf(caller *models.User, email string) error {
	if caller == nil {
		return apperr.ErrUnauthorized
	}
	if isAdmin(caller) || caller.Email == normalizeEmail(email) {
		return nil
	}
	return apperr.Forbiddenf("cannot access another user's records")
}

func requireRole(caller *models.User, role string) error {
	if caller == nil {
		return apperr.ErrUnauthorized
	}
	if caller.Role != role {
		return apperr.Forbiddenf("%s role required", role)
	}
	return nil
}

func requireAdmin(caller *models.User) error {
	return requireRole(caller, models.RoleAdmin)
}
