package models

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal status enums. There is no rejection path.
const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
)

type Withdrawal struct {
	ID                    uuid.UUID  `json:"id"`
	WorkerEmail           string     `json:"worker_email"`
	WorkerName            string     `json:"worker_name"`
	WithdrawalCoin        int64      `json:"withdrawal_coin"`
	WithdrawalAmountCents int64      `json:"withdrawal_amount_cents"`
	PaymentSystem         string     `json:"payment_system"`
	AccountNumber         string     `json:"account_number"`
	Status                string     `json:"status"`
	CreatedAt             time.Time  `json:"created_at"`
	ApprovedAt            *time.Time `json:"approved_at,omitempty"`
}
