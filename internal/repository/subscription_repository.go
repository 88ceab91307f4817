package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

// SubscriptionRepository stores browser web-push registrations keyed by
// endpoint URL.
type SubscriptionRepository struct {
	db *sqlx.DB
}

// NewSubscriptionRepository constructs the repository.
func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert inserts the subscription or refreshes its keys and watched
// classrooms when the endpoint is already registered.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	const query = `INSERT INTO push_subscriptions (endpoint, p256dh, auth, classroom_ids, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (endpoint) DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, classroom_ids = EXCLUDED.classroom_ids`
	if _, err := r.db.ExecContext(ctx, query, sub.Endpoint, sub.P256DH, sub.Auth, sub.Classrooms, sub.CreatedAt); err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	return nil
}

// Delete removes the subscription for an endpoint. Missing endpoints are
// not an error.
func (r *SubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	const query = `DELETE FROM push_subscriptions WHERE endpoint = $1`
	if _, err := r.db.ExecContext(ctx, query, endpoint); err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

// ListByClassroom returns every subscription watching the given classroom.
func (r *SubscriptionRepository) ListByClassroom(ctx context.Context, classroomID string) ([]models.PushSubscription, error) {
	const query = `SELECT endpoint, p256dh, auth, classroom_ids, created_at FROM push_subscriptions WHERE $1 = ANY(classroom_ids)`
	var subs []models.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query, classroomID); err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}
