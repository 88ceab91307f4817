package models

import "time"

// FeedbackStatus tracks admin review state.
type FeedbackStatus string

const (
	FeedbackPending  FeedbackStatus = "pending"
	FeedbackReviewed FeedbackStatus = "reviewed"
)

// Feedback is a report-an-issue submission.
type Feedback struct {
	ID          string         `db:"id" json:"id"`
	Category    string         `db:"category" json:"category"`
	Subject     string         `db:"subject" json:"subject"`
	Message     string         `db:"message" json:"message"`
	Status      FeedbackStatus `db:"status" json:"status"`
	SubmittedBy string         `db:"submitted_by_id" json:"submitted_by_id"`
	Submitter   string         `db:"submitted_by_name" json:"submitted_by_name"`
	SubmittedAt time.Time      `db:"submitted_at" json:"submitted_at"`
	ReviewedAt  *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
}
