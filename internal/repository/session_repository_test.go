package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolard/skolard-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows(sessions ...*models.Session) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "tutor_email", "student_email", "course_name", "start_time", "end_time", "created_at", "updated_at"})
	for _, s := range sessions {
		rows.AddRow(s.ID, s.TutorEmail, s.StudentEmail, s.CourseName, s.StartTime, s.EndTime, s.CreatedAt, s.UpdatedAt)
	}
	return rows
}

func TestSessionRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	start := time.Date(2026, 9, 10, 14, 0, 0, 0, time.UTC)
	session := &models.Session{
		TutorEmail: "tutor@skolard.ca",
		CourseName: "COMP1010",
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
	}

	mock.ExpectQuery("INSERT INTO sessions").
		WithArgs("tutor@skolard.ca", nil, "COMP1010", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	require.NoError(t, repo.Create(context.Background(), session))
	assert.Equal(t, int64(7), session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tutor_email, student_email, course_name, start_time, end_time, created_at, updated_at FROM sessions WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sessionRows(&models.Session{ID: 7, TutorEmail: "tutor@skolard.ca", CourseName: "COMP1010", StartTime: now, EndTime: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now}))

	session, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), session.ID)
	assert.False(t, session.Booked())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListByCourseNormalizes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPPER(course_name) = $1")).
		WithArgs("COMP1010").
		WillReturnRows(sessionRows())

	sessions, err := repo.ListByCourse(context.Background(), "  comp1010 ")
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	student := "student@skolard.ca"
	now := time.Now().UTC()
	session := &models.Session{ID: 7, TutorEmail: "tutor@skolard.ca", StudentEmail: &student, CourseName: "COMP1010", StartTime: now, EndTime: now.Add(time.Hour)}

	mock.ExpectExec("UPDATE sessions SET").
		WithArgs(student, "COMP1010", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), session))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 7))

	assert.NoError(t, mock.ExpectationsWereMet())
}
