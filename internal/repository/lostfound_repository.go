package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/campus-api/internal/models"
)

const lostItemColumns = `id, kind, title, description, category, location, tags, status, reported_by_id, reported_by_name, reported_at, resolved_at`

// LostFoundRepository stores lost-and-found listings.
type LostFoundRepository struct {
	db *sqlx.DB
}

// NewLostFoundRepository constructs the repository.
func NewLostFoundRepository(db *sqlx.DB) *LostFoundRepository {
	return &LostFoundRepository{db: db}
}

// List returns listings matching the filter, newest first.
func (r *LostFoundRepository) List(ctx context.Context, filter models.LostItemFilter) ([]models.LostItem, error) {
	query := strings.Builder{}
	fmt.Fprintf(&query, `SELECT %s FROM lost_items WHERE 1=1`, lostItemColumns)

	var args []interface{}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		fmt.Fprintf(&query, " AND kind = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&query, " AND category = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		fmt.Fprintf(&query, " AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if filter.OpenOnly {
		args = append(args, models.ItemOpen)
		fmt.Fprintf(&query, " AND status = $%d", len(args))
	}
	query.WriteString(" ORDER BY reported_at DESC")

	var items []models.LostItem
	if err := r.db.SelectContext(ctx, &items, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list lost items: %w", err)
	}
	return items, nil
}

// Get returns a single listing by id.
func (r *LostFoundRepository) Get(ctx context.Context, id string) (*models.LostItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM lost_items WHERE id = $1 LIMIT 1`, lostItemColumns)
	var item models.LostItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get lost item: %w", err)
	}
	return &item, nil
}

// Create inserts a new listing.
func (r *LostFoundRepository) Create(ctx context.Context, item *models.LostItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	const query = `INSERT INTO lost_items (id, kind, title, description, category, location, tags, status, reported_by_id, reported_by_name, reported_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		item.ID, item.Kind, item.Title, item.Description, item.Category, item.Location, item.Tags, item.Status, item.ReportedByID, item.ReportedBy, item.ReportedAt,
	); err != nil {
		return fmt.Errorf("create lost item: %w", err)
	}
	return nil
}

// Resolve marks the listing resolved.
func (r *LostFoundRepository) Resolve(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE lost_items SET status = $2, resolved_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ItemResolved, at); err != nil {
		return fmt.Errorf("resolve lost item: %w", err)
	}
	return nil
}

// CountOpen returns the number of unresolved listings.
func (r *LostFoundRepository) CountOpen(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM lost_items WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.ItemOpen); err != nil {
		return 0, fmt.Errorf("count open lost items: %w", err)
	}
	return count, nil
}
