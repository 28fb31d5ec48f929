package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleBuyer  = "Buyer"
	RoleWorker = "Worker"
	RoleAdmin  = "Admin"
)

// Registration bonus per role.
const (
	BuyerSignupCoins  = 50
	WorkerSignupCoins = 10
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleBuyer || role == RoleWorker || role == RoleAdmin
}

// SignupCoins returns the registration bonus for role.
func SignupCoins(role string) int64 {
	if role == RoleBuyer {
		return BuyerSignupCoins
	}
	return WorkerSignupCoins
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Photo     string    `json:"photo"`
	Role      string    `json:"role"`
	Coins     int64     `json:"coins"`
	CreatedAt time.Time `json:"created_at"`
	LastLogIn time.Time `json:"last_log_in"`
}

// WorkerSummary is the public projection used by the leaderboard.
type WorkerSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Coins int64  `json:"coins"`
}

// AdminStats aggregates platform-wide counters for the admin dashboard.
type AdminStats struct {
	TotalWorkers       int64 `json:"total_workers"`
	TotalBuyers        int64 `json:"total_buyers"`
	TotalCoins         int64 `json:"total_coins"`
	TotalPaymentsCents int64 `json:"total_payments_cents"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`
}
