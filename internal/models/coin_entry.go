package models

import (
	"time"

	"github.com/google/uuid"
)

// Coin ledger entry_type enums. Amount is signed: credits are positive, debits negative.
const (
	CoinEntrySignupBonus   = "signup_bonus"
	CoinEntryCoinPurchase  = "coin_purchase"
	CoinEntryTaskEscrow    = "task_escrow"
	CoinEntryTaskRefund    = "task_refund"
	CoinEntryTaskEarning   = "task_earning"
	CoinEntryWithdrawal    = "withdrawal"
	CoinEntryAccountClosed = "account_closed" // balance left when an admin deletes the user
)

type CoinEntry struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	EntryType    string     `json:"entry_type"`
	Amount       int64      `json:"amount"`
	BalanceAfter int64      `json:"balance_after"`
	RefID        *uuid.UUID `json:"ref_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
