package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/models"
)

// Store is the persistence surface the ledger needs. Mutations run inside the
// caller's transaction.
type Store interface {
	AddCoins(ctx context.Context, tx pgx.Tx, email string, delta int64) (int64, error)
	AddTaskSlots(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, delta int) (int, error)
	InsertEntry(ctx context.Context, tx pgx.Tx, e *models.CoinEntry) error
	ListEntries(ctx context.Context, email string, limit int) ([]*models.CoinEntry, error)
	Drifts(ctx context.Context) ([]Drift, error)
}

// Drift is a user whose balance disagrees with their ledger history.
type Drift struct {
	Email     string `json:"email"`
	Balance   int64  `json:"balance"`
	LedgerSum int64  `json:"ledger_sum"`
}

// Service is the only writer of users.coins and tasks.required_workers.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// AdjustBalance adds delta (which may be negative) to the user's coins and
// appends a coin_ledger row carrying the resulting balance. A debit larger than
// the balance fails with apperr.ErrInsufficientFunds and changes nothing.
func (s *Service) AdjustBalance(ctx context.Context, tx pgx.Tx, email string, delta int64, entryType string, refID *uuid.UUID) (int64, error) {
	if delta == 0 {
		return 0, apperr.Validationf("coin delta must be non-zero")
	}
	balance, err := s.store.AddCoins(ctx, tx, email, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust %s by %d: %w", email, delta, err)
	}
	entry := &models.CoinEntry{
		ID:           uuid.New(),
		Email:        email,
		EntryType:    entryType,
		Amount:       delta,
		BalanceAfter: balance,
		RefID:        refID,
	}
	if err := s.store.InsertEntry(ctx, tx, entry); err != nil {
		return 0, fmt.Errorf("record %s entry: %w", entryType, err)
	}
	return balance, nil
}

// AdjustTaskSlots adds delta to the task's open slot count. Taking the last
// slot twice fails with apperr.ErrConflict.
func (s *Service) AdjustTaskSlots(ctx context.Context, tx pgx.Tx, taskID uuid.UUID, delta int) (int, error) {
	if delta == 0 {
		return 0, apperr.Validationf("slot delta must be non-zero")
	}
	return s.store.AddTaskSlots(ctx, tx, taskID, delta)
}

func (s *Service) History(ctx context.Context, email string, limit int) ([]*models.CoinEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListEntries(ctx, email, limit)
}

// Reconcile returns every balance that disagrees with its ledger. An empty
// result means the books balance.
func (s *Service) Reconcile(ctx context.Context) ([]Drift, error) {
	return s.store.Drifts(ctx)
}
