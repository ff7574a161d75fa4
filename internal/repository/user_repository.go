package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skolard/skolard-api/internal/models"
)

const userColumns = "id, email, password_hash, full_name, role, hourly_rate, active, created_at, updated_at"

// UserRepository manages persistence for students, tutors and support staff.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, password_hash, full_name, role, hourly_rate, active, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :full_name, :role, :hourly_rate, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByID fetches a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE LOWER(email) = LOWER($1)", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail checks whether the email is already registered.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check user email: %w", err)
	}
	return true, nil
}

// FindTutorByEmail loads a tutor together with their course grades.
func (r *UserRepository) FindTutorByEmail(ctx context.Context, email string) (*models.Tutor, error) {
	user, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleTutor {
		return nil, sql.ErrNoRows
	}

	courses, err := r.CoursesForTutor(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	return &models.Tutor{User: *user, Courses: courses}, nil
}

// CoursesForTutor returns the tutor's course→grade map.
func (r *UserRepository) CoursesForTutor(ctx context.Context, tutorEmail string) (map[string]string, error) {
	const query = `SELECT tutor_email, course_name, grade FROM tutor_courses WHERE LOWER(tutor_email) = LOWER($1)`
	var rows []models.CourseGrade
	if err := r.db.SelectContext(ctx, &rows, query, tutorEmail); err != nil {
		return nil, fmt.Errorf("list tutor courses: %w", err)
	}
	courses := make(map[string]string, len(rows))
	for _, row := range rows {
		courses[models.NormalizeCourse(row.CourseName)] = row.Grade
	}
	return courses, nil
}

// GradeForCourse returns the tutor's grade for the course, empty when absent.
func (r *UserRepository) GradeForCourse(ctx context.Context, tutorEmail, course string) (string, error) {
	const query = `SELECT grade FROM tutor_courses WHERE LOWER(tutor_email) = LOWER($1) AND course_name = $2`
	var grade string
	if err := r.db.GetContext(ctx, &grade, query, tutorEmail, models.NormalizeCourse(course)); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("get tutor grade: %w", err)
	}
	return grade, nil
}

// UpsertCourseGrade records or updates the grade a tutor earned in a course.
func (r *UserRepository) UpsertCourseGrade(ctx context.Context, grade models.CourseGrade) error {
	const query = `INSERT INTO tutor_courses (tutor_email, course_name, grade)
		VALUES ($1, $2, $3)
		ON CONFLICT (tutor_email, course_name) DO UPDATE SET grade = EXCLUDED.grade`
	if _, err := r.db.ExecContext(ctx, query, grade.TutorEmail, models.NormalizeCourse(grade.CourseName), grade.Grade); err != nil {
		return fmt.Errorf("upsert tutor course grade: %w", err)
	}
	return nil
}

// TutorsForCourse loads every tutor offering the course, with their grades.
func (r *UserRepository) TutorsForCourse(ctx context.Context, course string) ([]*models.Tutor, error) {
	query := fmt.Sprintf(`SELECT %s FROM users u
		WHERE u.role = 'TUTOR' AND u.active
		AND EXISTS (SELECT 1 FROM tutor_courses tc WHERE LOWER(tc.tutor_email) = LOWER(u.email) AND tc.course_name = $1)
		ORDER BY u.email`, userColumnsPrefixed("u"))
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.NormalizeCourse(course)); err != nil {
		return nil, fmt.Errorf("list tutors for course: %w", err)
	}

	tutors := make([]*models.Tutor, 0, len(users))
	for i := range users {
		courses, err := r.CoursesForTutor(ctx, users[i].Email)
		if err != nil {
			return nil, err
		}
		tutors = append(tutors, &models.Tutor{User: users[i], Courses: courses})
	}
	return tutors, nil
}

func userColumnsPrefixed(alias string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.email, %[1]s.password_hash, %[1]s.full_name, %[1]s.role, %[1]s.hourly_rate, %[1]s.active, %[1]s.created_at, %[1]s.updated_at", alias)
}
