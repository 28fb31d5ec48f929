package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/workhive/backend/internal/apperr"
	"github.com/workhive/backend/internal/models"
)

type PaymentStore interface {
	PaymentWriter
	ListByEmail(ctx context.Context, email string) ([]*models.Payment, error)
}

// Gateway is the card processor. A nil Gateway disables intent creation and
// skips verification of recorded payments.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, email string) (clientSecret string, err error)
	VerifyIntent(ctx context.Context, intentID string, amountCents int64, email string) error
}

type PaymentService struct {
	Deps
	payments PaymentStore
	gateway  Gateway
}

func NewPaymentService(deps Deps, payments PaymentStore, gateway Gateway) *PaymentService {
	return &PaymentService{Deps: deps, payments: payments, gateway: gateway}
}

type RecordPaymentInput struct {
	Email           string `json:"email"`
	AmountPaidCents int64  `json:"amount_paid_cents"`
	Coins           *int64 `json:"coins,omitempty"`
	TransactionID   string `json:"transaction_id"`
	Type            string `json:"type"`
}

// Record stores a completed coin purchase and credits the coins in one
// transaction. Replaying the same transaction id fails with apperr.ErrConflict.
func (s *PaymentService) Record(ctx context.Context, caller *models.User, in RecordPaymentInput) (*models.Payment, error) {
	email := normalizeEmail(in.Email)
	txID := strings.TrimSpace(in.TransactionID)
	switch {
	case email == "":
		return nil, apperr.Validationf("email is required")
	case in.AmountPaidCents <= 0:
		return nil, apperr.Validationf("amount_paid_cents must be positive")
	case txID == "":
		return nil, apperr.Validationf("transaction_id is required")
	case strings.Contains(txID, ":"):
		// "kind:<id>" is reserved for payments the server records itself.
		return nil, apperr.Validationf("transaction_id must not contain ':'")
	}
	if err := authorizeSelf(caller, email); err != nil {
		return nil, err
	}
	if in.Type != "" && in.Type != models.PaymentCoinPurchase {
		return nil, apperr.Validationf("only %q payments can be recorded", models.PaymentCoinPurchase)
	}
	coins, ok := models.CoinsForPayment(in.AmountPaidCents)
	if !ok {
		return nil, apperr.Validationf("no coin package costs %d cents", in.AmountPaidCents)
	}
	if in.Coins != nil && *in.Coins != coins {
		return nil, apperr.Validationf("coins %d does not match package amount %d", *in.Coins, coins)
	}
	if s.gateway != nil {
		if err := s.gateway.VerifyIntent(ctx, txID, in.AmountPaidCents, email); err != nil {
			return nil, err
		}
	}

	p := &models.Payment{
		ID:              uuid.New(),
		Email:           email,
		AmountPaidCents: in.AmountPaidCents,
		Coins:           &coins,
		TransactionID:   txID,
		Type:            models.PaymentCoinPurchase,
	}
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.payments.CreateTx(ctx, tx, p); err != nil {
			return err
		}
		_, err := s.Ledger.AdjustBalance(ctx, tx, email, coins, models.CoinEntryCoinPurchase, &p.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	s.metrics().Event("coins_purchased")
	s.metrics().CoinsMoved(models.CoinEntryCoinPurchase, coins)
	s.logger().Info("coin purchase recorded", "email", email, "coins", coins, "transaction_id", txID)
	return p, nil
}

// CreateIntent starts a card payment for one of the coin packages.
func (s *PaymentService) CreateIntent(ctx context.Context, caller *models.User, amountCents int64) (string, error) {
	if caller == nil {
		return "", apperr.ErrUnauthorized
	}
	if _, ok := models.CoinsForPayment(amountCents); !ok {
		return "", apperr.Validationf("no coin package costs %d cents", amountCents)
	}
	if s.gateway == nil {
		return "", fmt.Errorf("%w: payment gateway is not configured", apperr.ErrUnavailable)
	}
	return s.gateway.CreateIntent(ctx, amountCents, caller.Email)
}

func (s *PaymentService) ListByEmail(ctx context.Context, caller *models.User, email string) ([]*models.Payment, error) {
	if err := authorizeSelf(caller, email); err != nil {
		return nil, err
	}
	return s.payments.ListByEmail(ctx, normalizeEmail(email))
}
