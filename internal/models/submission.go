package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission status enums. Pending is the only mutable state.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

type Submission struct {
	ID                uuid.UUID  `json:"id"`
	TaskID            uuid.UUID  `json:"task_id"`
	TaskTitle         string     `json:"task_title"`
	PayableAmount     int64      `json:"payable_amount"`
	WorkerEmail       string     `json:"worker_email"`
	WorkerName        string     `json:"worker_name"`
	BuyerEmail        string     `json:"buyer_email"`
	BuyerName         string     `json:"buyer_name"`
	SubmissionDetails string     `json:"submission_details"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
}

// SubmissionPage is one page of a worker's submission history.
type SubmissionPage struct {
	Submissions []*Submission `json:"submissions"`
	Total       int64         `json:"total"`
	Page        int           `json:"page"`
	Limit       int           `json:"limit"`
}
