package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolard/skolard-api/internal/models"
)

func userRow(u models.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "hourly_rate", "active", "created_at", "updated_at"}).
		AddRow(u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, u.HourlyRate, u.Active, u.CreatedAt, u.UpdatedAt)
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "student@skolard.ca", sqlmock.AnyArg(), "Student One", "STUDENT", nil, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "student@skolard.ca", PasswordHash: "hash", FullName: "Student One", Role: models.RoleStudent, Active: true}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, hourly_rate, active, created_at, updated_at FROM users WHERE LOWER(email) = LOWER($1)")).
		WithArgs("Tutor@skolard.ca").
		WillReturnRows(userRow(models.User{ID: "u1", Email: "tutor@skolard.ca", Role: models.RoleTutor, Active: true, CreatedAt: now, UpdatedAt: now}))

	user, err := repo.FindByEmail(context.Background(), "Tutor@skolard.ca")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTutor, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCoursesForTutor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"tutor_email", "course_name", "grade"}).
		AddRow("tutor@skolard.ca", "COMP1010", "4.5").
		AddRow("tutor@skolard.ca", "MATH1500", "A+")
	mock.ExpectQuery("SELECT tutor_email, course_name, grade FROM tutor_courses").
		WithArgs("tutor@skolard.ca").
		WillReturnRows(rows)

	courses, err := repo.CoursesForTutor(context.Background(), "tutor@skolard.ca")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"COMP1010": "4.5", "MATH1500": "A+"}, courses)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGradeForCourseMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT grade FROM tutor_courses").
		WithArgs("tutor@skolard.ca", "COMP1010").
		WillReturnError(sql.ErrNoRows)

	grade, err := repo.GradeForCourse(context.Background(), "tutor@skolard.ca", "comp1010")
	require.NoError(t, err)
	assert.Equal(t, "", grade)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("student@skolard.ca").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "student@skolard.ca")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
