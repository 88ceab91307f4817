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

const classroomColumns = `id, name, building, floor, capacity, status, occupied_by_id, occupied_by_name, occupied_until, notes, created_at, updated_at`

// ClassroomRepository provides persistence for rooms and their transition
// ledger. Rooms are provisioned administratively; this repository only
// mutates occupancy state, and ledger rows are insert-only inside the same
// transaction as the status change so the two can never diverge.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs the repository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// List returns every classroom ordered by building then name.
func (r *ClassroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms ORDER BY building ASC, name ASC`, classroomColumns)
	var rooms []models.Classroom
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return rooms, nil
}

// Get returns a classroom by id.
func (r *ClassroomRepository) Get(ctx context.Context, id string) (*models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms WHERE id = $1 LIMIT 1`, classroomColumns)
	var room models.Classroom
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get classroom: %w", err)
	}
	return &room, nil
}

// OccupyParams holds values for an occupy transition.
type OccupyParams struct {
	ClassroomID string
	ActorID     string
	ActorName   string
	Until       time.Time
	Reason      *string
	Now         time.Time
}

// Occupy marks the room occupied and appends the matching ledger entry in a
// single transaction. The transition is applied regardless of the room's
// current state: a later occupy simply overwrites the previous occupant.
func (r *ClassroomRepository) Occupy(ctx context.Context, params OccupyParams) (room *models.Classroom, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin occupy transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := lockClassroom(ctx, tx, params.ClassroomID)
	if err != nil {
		return nil, err
	}

	const update = `UPDATE classrooms
SET status = $2, occupied_by_id = $3, occupied_by_name = $4, occupied_until = $5, notes = $6, updated_at = $7
WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update,
		params.ClassroomID, models.ClassroomOccupied, params.ActorID, params.ActorName, params.Until, params.Reason, params.Now,
	); err != nil {
		return nil, fmt.Errorf("update classroom status: %w", err)
	}

	if err = appendHistory(ctx, tx, models.ClassroomHistory{
		ID:          uuid.NewString(),
		ClassroomID: params.ClassroomID,
		Action:      models.HistoryOccupied,
		ByUserID:    params.ActorID,
		ByUserName:  params.ActorName,
		At:          params.Now,
		Until:       &params.Until,
		Reason:      params.Reason,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit occupy transaction: %w", err)
	}

	current.Status = models.ClassroomOccupied
	current.OccupiedByID = &params.ActorID
	current.OccupiedByName = &params.ActorName
	current.OccupiedUntil = &params.Until
	current.Notes = params.Reason
	current.UpdatedAt = params.Now
	return current, nil
}

// VacateParams holds values for a vacate transition.
type VacateParams struct {
	ClassroomID string
	ActorID     string
	ActorName   string
	Now         time.Time
}

// Vacate marks the room free and appends the matching ledger entry in a
// single transaction. Vacating an already-free room still succeeds and
// still records an entry.
func (r *ClassroomRepository) Vacate(ctx context.Context, params VacateParams) (room *models.Classroom, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin vacate transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := lockClassroom(ctx, tx, params.ClassroomID)
	if err != nil {
		return nil, err
	}

	const update = `UPDATE classrooms
SET status = $2, occupied_by_id = NULL, occupied_by_name = NULL, occupied_until = NULL, notes = NULL, updated_at = $3
WHERE id = $1`
	if _, err = tx.ExecContext(ctx, update, params.ClassroomID, models.ClassroomFree, params.Now); err != nil {
		return nil, fmt.Errorf("update classroom status: %w", err)
	}

	if err = appendHistory(ctx, tx, models.ClassroomHistory{
		ID:          uuid.NewString(),
		ClassroomID: params.ClassroomID,
		Action:      models.HistoryVacated,
		ByUserID:    params.ActorID,
		ByUserName:  params.ActorName,
		At:          params.Now,
	}); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit vacate transaction: %w", err)
	}

	current.Status = models.ClassroomFree
	current.OccupiedByID = nil
	current.OccupiedByName = nil
	current.OccupiedUntil = nil
	current.Notes = nil
	current.UpdatedAt = params.Now
	return current, nil
}

// ListHistory returns the room's ledger ordered most recent first.
func (r *ClassroomRepository) ListHistory(ctx context.Context, classroomID string) ([]models.ClassroomHistory, error) {
	const query = `SELECT id, classroom_id, action, by_user_id, by_user_name, at, until, reason
FROM classroom_history WHERE classroom_id = $1 ORDER BY at DESC`
	var entries []models.ClassroomHistory
	if err := r.db.SelectContext(ctx, &entries, query, classroomID); err != nil {
		return nil, fmt.Errorf("list classroom history: %w", err)
	}
	return entries, nil
}

func lockClassroom(ctx context.Context, tx *sqlx.Tx, id string) (*models.Classroom, error) {
	query := fmt.Sprintf(`SELECT %s FROM classrooms WHERE id = $1 FOR UPDATE`, classroomColumns)
	var room models.Classroom
	if err := tx.GetContext(ctx, &room, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock classroom: %w", err)
	}
	return &room, nil
}

func appendHistory(ctx context.Context, tx *sqlx.Tx, entry models.ClassroomHistory) error {
	const insert = `INSERT INTO classroom_history (id, classroom_id, action, by_user_id, by_user_name, at, until, reason)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := tx.ExecContext(ctx, insert,
		entry.ID, entry.ClassroomID, entry.Action, entry.ByUserID, entry.ByUserName, entry.At, entry.Until, entry.Reason,
	); err != nil {
		return fmt.Errorf("append history entry: %w", err)
	}
	return nil
}
