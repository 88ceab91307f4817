package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

const feedbackColumns = `id, category, subject, message, status, submitted_by_id, submitted_by_name, submitted_at, reviewed_at`

// FeedbackRepository stores report-an-issue submissions.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs the repository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// List returns submissions, newest first. When pendingOnly is set only
// unreviewed submissions are returned.
func (r *FeedbackRepository) List(ctx context.Context, pendingOnly bool) ([]models.Feedback, error) {
	query := fmt.Sprintf(`SELECT %s FROM feedback`, feedbackColumns)
	var args []interface{}
	if pendingOnly {
		query += ` WHERE status = $1`
		args = append(args, models.FeedbackPending)
	}
	query += ` ORDER BY submitted_at DESC`

	var items []models.Feedback
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

// Get returns a single submission by id.
func (r *FeedbackRepository) Get(ctx context.Context, id string) (*models.Feedback, error) {
	query := fmt.Sprintf(`SELECT %s FROM feedback WHERE id = $1 LIMIT 1`, feedbackColumns)
	var item models.Feedback
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return &item, nil
}

// Create inserts a new submission.
func (r *FeedbackRepository) Create(ctx context.Context, item *models.Feedback) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	const query = `INSERT INTO feedback (id, category, subject, message, status, submitted_by_id, submitted_by_name, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query,
		item.ID, item.Category, item.Subject, item.Message, item.Status, item.SubmittedBy, item.Submitter, item.SubmittedAt,
	); err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}
	return nil
}

// MarkReviewed stamps the submission as handled.
func (r *FeedbackRepository) MarkReviewed(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE feedback SET status = $2, reviewed_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.FeedbackReviewed, at); err != nil {
		return fmt.Errorf("mark feedback reviewed: %w", err)
	}
	return nil
}

// CountPending returns the number of unreviewed submissions.
func (r *FeedbackRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM feedback WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.FeedbackPending); err != nil {
		return 0, fmt.Errorf("count pending feedback: %w", err)
	}
	return count, nil
}
