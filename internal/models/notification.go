package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID `json:"id"`
	ToEmail     string    `json:"to_email"`
	Message     string    `json:"message"`
	ActionRoute string    `json:"action_route"`
	CreatedAt   time.Time `json:"created_at"`
}
