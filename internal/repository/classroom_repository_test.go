package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campus-api/internal/models"
)

func newClassroomRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func classroomRows(status models.ClassroomStatus) *sqlmock.Rows {
	now := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "name", "building", "floor", "capacity", "status",
		"occupied_by_id", "occupied_by_name", "occupied_until", "notes",
		"created_at", "updated_at",
	}).AddRow("room-1", "101", "A", 1, 40, status, nil, nil, nil, nil, now, now)
}

func TestClassroomRepositoryList(t *testing.T) {
	db, mock, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM classrooms ORDER BY building ASC, name ASC`)).
		WillReturnRows(classroomRows(models.ClassroomFree))

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "room-1", rooms[0].ID)
	assert.Equal(t, models.ClassroomFree, rooms[0].Status)
	assert.Nil(t, rooms[0].OccupiedByID)
}

func TestClassroomRepositoryGetNotFound(t *testing.T) {
	db, mock, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM classrooms WHERE id = $1 LIMIT 1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	room, err := repo.Get(context.Background(), "missing")
	assert.Nil(t, room)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestClassroomRepositoryOccupyCommitsStatusAndLedger(t *testing.T) {
	db, mock, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	until := now.Add(90 * time.Minute)
	reason := "Physics revision"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM classrooms WHERE id = $1 FOR UPDATE`)).
		WithArgs("room-1").
		WillReturnRows(classroomRows(models.ClassroomFree))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE classrooms`)).
		WithArgs("room-1", models.ClassroomOccupied, "user-1", "Ms. Rahma", until, &reason, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO classroom_history`)).
		WithArgs(sqlmock.AnyArg(), "room-1", models.HistoryOccupied, "user-1", "Ms. Rahma", now, &until, &reason).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	room, err := repo.Occupy(context.Background(), OccupyParams{
		ClassroomID: "room-1",
		ActorID:     "user-1",
		ActorName:   "Ms. Rahma",
		Until:       until,
		Reason:      &reason,
		Now:         now,
	})
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, models.ClassroomOccupied, room.Status)
	require.NotNil(t, room.OccupiedByID)
	assert.Equal(t, "user-1", *room.OccupiedByID)
	require.NotNil(t, room.OccupiedUntil)
	assert.True(t, room.OccupiedUntil.Equal(until))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryOccupyRollsBackOnLedgerFailure(t *testing.T) {
	db, mock, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	until := now.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("room-1").
		WillReturnRows(classroomRows(models.ClassroomFree))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE classrooms`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO classroom_history`)).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	room, err := repo.Occupy(context.Background(), OccupyParams{
		ClassroomID: "room-1",
		ActorID:     "user-1",
		ActorName:   "Ms. Rahma",
		Until:       until,
		Now:         now,
	})
	assert.Nil(t, room)
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryVacateClearsOccupancy(t *testing.T) {
	db, mock, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	now := time.Date(2026, 8, 20, 11, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs("room-1").
		WillReturnRows(classroomRows(models.ClassroomOccupied))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE classrooms`)).
		WithArgs("room-1", models.ClassroomFree, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO classroom_history`)).
		WithArgs(sqlmock.AnyArg(), "room-1", models.HistoryVacated, "user-2", "Pak Budi", now, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	room, err := repo.Vacate(context.Background(), VacateParams{
		ClassroomID: "room-1",
		ActorID:     "user-2",
		ActorName:   "Pak Budi",
		Now:         now,
	})
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, models.ClassroomFree, room.Status)
	assert.Nil(t, room.OccupiedByID)
	assert.Nil(t, room.OccupiedUntil)
	assert.Nil(t, room.Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryListHistoryOrdersNewestFirst(t *testing.T) {
	db, mock, cleanup := newClassroomRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	later := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-2 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "classroom_id", "action", "by_user_id", "by_user_name", "at", "until", "reason"}).
		AddRow("h-2", "room-1", models.HistoryVacated, "user-2", "Pak Budi", later, nil, nil).
		AddRow("h-1", "room-1", models.HistoryOccupied, "user-1", "Ms. Rahma", earlier, &later, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM classroom_history WHERE classroom_id = $1 ORDER BY at DESC`)).
		WithArgs("room-1").
		WillReturnRows(rows)

	entries, err := repo.ListHistory(context.Background(), "room-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.HistoryVacated, entries[0].Action)
	assert.Equal(t, models.HistoryOccupied, entries[1].Action)
	assert.True(t, entries[0].At.After(entries[1].At))
}
