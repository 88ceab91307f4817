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

const projectColumns = `id, title, description, tech_tags, contact, status, owner_id, owner_name, created_at, updated_at`

// ProjectRepository stores marketplace listings.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// List returns listings matching the filter, newest first.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	query := strings.Builder{}
	fmt.Fprintf(&query, `SELECT %s FROM projects WHERE 1=1`, projectColumns)

	var args []interface{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		fmt.Fprintf(&query, " AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if filter.ActiveOnly {
		args = append(args, models.ProjectActive)
		fmt.Fprintf(&query, " AND status = $%d", len(args))
	}
	query.WriteString(" ORDER BY created_at DESC")

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query.String(), args...); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Get returns a single listing by id.
func (r *ProjectRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1 LIMIT 1`, projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

// Create inserts a new listing.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	const query = `INSERT INTO projects (id, title, description, tech_tags, contact, status, owner_id, owner_name, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(ctx, query,
		project.ID, project.Title, project.Description, project.TechTags, project.Contact, project.Status, project.OwnerID, project.OwnerName, project.CreatedAt, project.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Update rewrites the editable listing fields.
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	const query = `UPDATE projects SET title = $2, description = $3, tech_tags = $4, contact = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		project.ID, project.Title, project.Description, project.TechTags, project.Contact, project.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return nil
}

// Delete removes a listing permanently.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM projects WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// Archive moves the listing out of the active marketplace.
func (r *ProjectRepository) Archive(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE projects SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.ProjectArchived, at); err != nil {
		return fmt.Errorf("archive project: %w", err)
	}
	return nil
}

// CountActive returns the number of active listings.
func (r *ProjectRepository) CountActive(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM projects WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.ProjectActive); err != nil {
		return 0, fmt.Errorf("count active projects: %w", err)
	}
	return count, nil
}
