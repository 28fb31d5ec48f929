package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/models"
)

type WithdrawalStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, w *models.Withdrawal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ApproveTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Withdrawal, error)
	ListPending(ctx context.Context) ([]*models.Withdrawal, error)
	ListByWorker(ctx context.Context, email string) ([]*models.Withdrawal, error)
}

// BalanceReader reads a user's current state.
type BalanceReader interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// WithdrawalPolicy holds the cash-out rules.
type WithdrawalPolicy struct {
	CoinsPerDollar int64
	MinCoins       int64
}

// CentsFor converts coins to a cash amount in cents.
func (p WithdrawalPolicy) CentsFor(coins int64) int64 {
	return coins * 100 / p.CoinsPerDollar
}

type WithdrawalService struct {
	Deps
	policy      WithdrawalPolicy
	withdrawals WithdrawalStore
	users       BalanceReader
	payments    PaymentWriter
}

func NewWithdrawalService(deps Deps, policy WithdrawalPolicy, withdrawals WithdrawalStore, users BalanceReader, payments PaymentWriter) *WithdrawalService {
	if policy.CoinsPerDollar <= 0 {
		policy.CoinsPerDollar = 20
	}
	return &WithdrawalService{Deps: deps, policy: policy, withdrawals: withdrawals, users: users, payments: payments}
}

type WithdrawalInput struct {
	WithdrawalCoin int64  `json:"withdrawal_coin"`
	PaymentSystem  string `json:"payment_system"`
	AccountNumber  string `json:"account_number"`
}

// Request records a pending cash-out. Coins leave the balance only when an
// admin approves it.
func (s *WithdrawalService) Request(ctx context.Context, caller *models.User, in WithdrawalInput) (*models.Withdrawal, error) {
	if err := requireRole(caller, models.RoleWorker); err != nil {
		return nil, err
	}
	if in.WithdrawalCoin < s.policy.MinCoins {
		return nil, apperr.Validationf("withdrawal_coin must be at least %d", s.policy.MinCoins)
	}
	if strings.TrimSpace(in.PaymentSystem) == "" || strings.TrimSpace(in.AccountNumber) == "" {
		return nil, apperr.Validationf("payment_system and account_number are required")
	}
	current, err := s.users.GetByEmail(ctx, caller.Email)
	if err != nil {
		return nil, err
	}
	if in.WithdrawalCoin > current.Coins {
		return nil, apperr.Validationf("withdrawal_coin %d exceeds balance %d", in.WithdrawalCoin, current.Coins)
	}
	w := &models.Withdrawal{
		ID:                    uuid.New(),
		WorkerEmail:           caller.Email,
		WorkerName:            caller.Name,
		WithdrawalCoin:        in.WithdrawalCoin,
		WithdrawalAmountCents: s.policy.CentsFor(in.WithdrawalCoin),
		PaymentSystem:         strings.TrimSpace(in.PaymentSystem),
		AccountNumber:         strings.TrimSpace(in.AccountNumber),
		Status:                models.WithdrawalPending,
	}
	if err := s.inTx(ctx, func(tx pgx.Tx) error {
		return s.withdrawals.CreateTx(ctx, tx, w)
	}); err != nil {
		return nil, fmt.Errorf("request withdrawal: %w", err)
	}
	s.metrics().Event("withdrawal_requested")
	return w, nil
}

// Approve debits the requested coins and marks the withdrawal approved. If the
// worker's balance no longer covers it the withdrawal stays pending.
func (s *WithdrawalService) Approve(ctx context.Context, caller *models.User, id uuid.UUID) (*models.Withdrawal, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	var w *models.Withdrawal
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		w, err = s.withdrawals.ApproveTx(ctx, tx, id)
		if errors.Is(err, apperr.ErrNotFound) {
			if _, getErr := s.withdrawals.GetByID(ctx, id); getErr != nil {
				return getErr
			}
			return apperr.Conflictf("withdrawal is already approved")
		}
		if err != nil {
			return err
		}
		if _, err := s.Ledger.AdjustBalance(ctx, tx, w.WorkerEmail, -w.WithdrawalCoin, models.CoinEntryWithdrawal, &w.ID); err != nil {
			return err
		}
		coins := w.WithdrawalCoin
		if err := s.payments.CreateTx(ctx, tx, &models.Payment{
			ID:              uuid.New(),
			Email:           w.WorkerEmail,
			AmountPaidCents: w.WithdrawalAmountCents,
			Coins:           &coins,
			TransactionID:   "withdrawal:" + w.ID.String(),
			Type:            models.PaymentWithdrawal,
		}); err != nil {
			return err
		}
		msg := fmt.Sprintf("Your withdrawal of %d coins ($%.2f) via %s was approved",
			w.WithdrawalCoin, float64(w.WithdrawalAmountCents)/100, w.PaymentSystem)
		return s.notify(ctx, tx, w.WorkerEmail, msg, "/dashboard/withdrawals")
	})
	if err != nil {
		return nil, fmt.Errorf("approve withdrawal: %w", err)
	}
	s.metrics().Event("withdrawal_approved")
	s.metrics().CoinsMoved(models.CoinEntryWithdrawal, w.WithdrawalCoin)
	s.logger().Info("withdrawal approved", "withdrawal_id", id, "worker", w.WorkerEmail, "coins", w.WithdrawalCoin)
	return w, nil
}

func (s *WithdrawalService) ListPending(ctx context.Context, caller *models.User) ([]*models.Withdrawal, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.withdrawals.ListPending(ctx)
}

func (s *WithdrawalService) ListByWorker(ctx context.Context, caller *models.User, email string) ([]*models.Withdrawal, error) {
	if err := authorizeSelf(caller, email); err != nil {
		return nil, err
	}
	return s.withdrawals.ListByWorker(ctx, normalizeEmail(email))
}
