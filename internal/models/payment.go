package models

import (
	"time"

	"github.com/google/uuid"
)

// Payment transaction type tags.
const (
	PaymentCoinPurchase = "Coin Purchase"
	PaymentTask         = "Task Payment"
	PaymentTaskRefund   = "Task Refund"
	PaymentWithdrawal   = "Withdrawal"
)

// Payment is an append-only audit record of an external coin-affecting event.
type Payment struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	AmountPaidCents int64      `json:"amount_paid_cents"`
	Coins           *int64     `json:"coins,omitempty"`
	TransactionID   string     `json:"transaction_id"`
	Type            string     `json:"type"`
	TaskID          *uuid.UUID `json:"task_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CoinPackages maps a purchase price in cents to the coins it buys.
var CoinPackages = map[int64]int64{
	100:  10,
	1000: 150,
	2000: 500,
	3500: 1000,
}

// CoinsForPayment returns the coins bought by a payment of cents, if a package matches.
func CoinsForPayment(cents int64) (int64, bool) {
	coins, ok := CoinPackages[cents]
	return coins, ok
}
