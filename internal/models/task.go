package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work posted by a Buyer. RequiredWorkers counts the slots
// not yet reserved by a submission; it is decremented on submit and restored
// on reject.
type Task struct {
	ID              uuid.UUID `json:"id"`
	BuyerEmail      string    `json:"buyer_email"`
	BuyerName       string    `json:"buyer_name"`
	Title           string    `json:"title"`
	Detail          string    `json:"detail"`
	SubmissionInfo  string    `json:"submission_info"`
	ImageURL        string    `json:"image_url,omitempty"`
	RequiredWorkers int       `json:"required_workers"`
	PayableAmount   int64     `json:"payable_amount"`
	CompletionDate  time.Time `json:"completion_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Escrow is the number of coins held for the task's unreserved slots.
func (t *Task) Escrow() int64 {
	return int64(t.RequiredWorkers) * t.PayableAmount
}

// TaskPatch carries the creator-editable fields of a task. Nil fields are left unchanged.
type TaskPatch struct {
	Title          *string    `json:"title,omitempty"`
	Detail         *string    `json:"detail,omitempty"`
	SubmissionInfo *string    `json:"submission_info,omitempty"`
	ImageURL       *string    `json:"image_url,omitempty"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
}

// TaskDeletion reports what deleting a task returned to its creator.
type TaskDeletion struct {
	TaskID              uuid.UUID `json:"task_id"`
	RefundedCoins       int64     `json:"refunded_coins"`
	RejectedSubmissions int       `json:"rejected_submissions"`
}
